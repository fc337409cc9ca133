package config

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/DrSkyle/balanco/pkg/faults"
	"github.com/DrSkyle/balanco/pkg/storage"
)

// OpenStore builds the BlobStore selected by SinkMode. It fails with ErrNoSink
// when nothing is configured.
func (c Config) OpenStore(ctx context.Context) (storage.BlobStore, error) {
	switch c.SinkMode() {
	case SinkLocal:
		return storage.NewLocalStore(c.LocalOutputDir), nil
	case SinkMinio:
		return storage.NewMinioStore(storage.MinioConfig{
			Endpoint:        c.Minio.Endpoint,
			AccessKeyID:     c.Minio.AccessKey,
			SecretAccessKey: c.Minio.SecretKey,
			Region:          c.AWSRegion,
			UseSSL:          c.Minio.UseSSL,
			Bucket:          c.BucketName,
		})
	case SinkS3:
		awsCfg, err := storage.NewAWSConfig(ctx, storage.AWSOptions{
			Region:   c.AWSRegion,
			Endpoint: c.AWSEndpoint,
		})
		if err != nil {
			return nil, faults.Configuration("open store", err)
		}
		var optFns []func(*s3.Options)
		if c.AWSEndpoint != "" {
			optFns = append(optFns, storage.PathStyle)
		}
		return storage.NewS3Store(awsCfg, c.BucketName, optFns...), nil
	}
	return nil, faults.Configuration("open store", ErrNoSink)
}
