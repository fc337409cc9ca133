package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/DrSkyle/balanco/pkg/faults"
	"github.com/DrSkyle/balanco/pkg/numeric"
)

// Sink names the storage backend a run writes to.
type Sink string

const (
	SinkNone  Sink = "none"
	SinkLocal Sink = "local"
	SinkMinio Sink = "minio"
	SinkS3    Sink = "s3"
)

// ErrNoSink is returned when neither a bucket nor a local directory is set.
var ErrNoSink = errors.New("Neither S3_BUCKET_NAME nor LOCAL_OUTPUT_DIR environment variables are set")

// MinioConfig holds the S3-compatible endpoint settings.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// Config is the resolved runtime configuration.
type Config struct {
	BucketName     string
	LocalOutputDir string
	APIURL         string
	DatasetID      string
	OutputPrefix   string
	RecordLimit    int
	NumericColumns []string
	NumericPolicy  string

	// StrictMode turns a partial result (failed resource fetches) into an error.
	StrictMode bool

	Minio       MinioConfig
	AWSRegion   string
	AWSEndpoint string

	LogLevel        string
	LogFormat       string
	OtelEndpoint    string
	OtelServiceName string

	HTTPAddr          string
	RequestsPerSecond float64
	HTTPTimeout       time.Duration
}

// Init installs defaults and environment lookup on v.
func Init(v *viper.Viper) {
	for k, val := range defaults() {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()
}

// Load builds a Config from v. Init must have been called on v.
func Load(v *viper.Viper) Config {
	return Config{
		BucketName:     strings.TrimSpace(v.GetString(KeyBucketName)),
		LocalOutputDir: strings.TrimSpace(v.GetString(KeyLocalOutputDir)),
		APIURL:         v.GetString(KeyAPIURL),
		DatasetID:      v.GetString(KeyDatasetID),
		OutputPrefix:   strings.Trim(v.GetString(KeyOutputPrefix), "/"),
		RecordLimit:    v.GetInt(KeyRecordLimit),
		NumericColumns: splitList(v.GetString(KeyNumericColumns)),
		NumericPolicy:  v.GetString(KeyNumericPolicy),
		StrictMode:     v.GetBool(KeyStrictMode),
		Minio: MinioConfig{
			Endpoint:  v.GetString(KeyMinioEndpoint),
			AccessKey: v.GetString(KeyMinioAccessKey),
			SecretKey: v.GetString(KeyMinioSecretKey),
			UseSSL:    v.GetBool(KeyMinioUseSSL),
		},
		AWSRegion:         v.GetString(KeyAWSRegion),
		AWSEndpoint:       v.GetString(KeyAWSEndpoint),
		LogLevel:          v.GetString(KeyLogLevel),
		LogFormat:         v.GetString(KeyLogFormat),
		OtelEndpoint:      v.GetString(KeyOtelEndpoint),
		OtelServiceName:   v.GetString(KeyOtelServiceName),
		HTTPAddr:          v.GetString(KeyHTTPAddr),
		RequestsPerSecond: v.GetFloat64(KeyRequestsPerSecond),
		HTTPTimeout:       v.GetDuration(KeyHTTPTimeout),
	}
}

// FromEnv loads configuration from defaults and the process environment only.
func FromEnv() Config {
	v := viper.New()
	Init(v)
	return Load(v)
}

// SinkMode resolves the storage backend. A local directory wins over any
// object store; MinIO needs both an endpoint and a bucket.
func (c Config) SinkMode() Sink {
	switch {
	case c.LocalOutputDir != "":
		return SinkLocal
	case c.BucketName != "" && c.Minio.Endpoint != "":
		return SinkMinio
	case c.BucketName != "":
		return SinkS3
	}
	return SinkNone
}

// Policy returns the numeric conversion policy.
func (c Config) Policy() numeric.Policy {
	return numeric.ParsePolicy(c.NumericPolicy)
}

// Validate checks settings that would otherwise fail late. A missing sink is
// not reported here; requests answer it themselves.
func (c Config) Validate() error {
	var errs []error
	if c.RecordLimit <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %d", strings.ToUpper(KeyRecordLimit), c.RecordLimit))
	}
	switch numeric.Policy(strings.ToLower(c.NumericPolicy)) {
	case numeric.PolicyStrict, numeric.PolicySkip, "":
	default:
		errs = append(errs, fmt.Errorf("%s must be strict or skip, got %q", strings.ToUpper(KeyNumericPolicy), c.NumericPolicy))
	}
	if c.DatasetID == "" {
		errs = append(errs, fmt.Errorf("%s must not be empty", strings.ToUpper(KeyDatasetID)))
	}
	if c.APIURL == "" {
		errs = append(errs, fmt.Errorf("%s must not be empty", strings.ToUpper(KeyAPIURL)))
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("%s must be json or text, got %q", strings.ToUpper(KeyLogFormat), c.LogFormat))
	}
	if c.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative", strings.ToUpper(KeyRequestsPerSecond)))
	}
	if c.HTTPTimeout < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative", strings.ToUpper(KeyHTTPTimeout)))
	}
	if len(errs) > 0 {
		return faults.Configuration("config", errors.Join(errs...))
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
