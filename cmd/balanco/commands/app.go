package commands

import (
	"context"
	"errors"

	"github.com/DrSkyle/balanco/pkg/ckan"
	"github.com/DrSkyle/balanco/pkg/config"
	"github.com/DrSkyle/balanco/pkg/consolidate"
	"github.com/DrSkyle/balanco/pkg/locator"
	"github.com/DrSkyle/balanco/pkg/storage"
)

func newCKANClient() *ckan.Client {
	return ckan.NewClient(ckan.Config{
		BaseURL:           cfg.APIURL,
		Timeout:           cfg.HTTPTimeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
	})
}

// openStore returns the configured sink, or nil when none is configured.
func openStore(ctx context.Context) (storage.BlobStore, error) {
	store, err := cfg.OpenStore(ctx)
	if errors.Is(err, config.ErrNoSink) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	logger.Info("Storage sink selected", "sink", cfg.SinkMode(), "backend", store.Describe())
	return store, nil
}

func newHandler(ctx context.Context) (*consolidate.Handler, error) {
	store, err := openStore(ctx)
	if err != nil {
		return nil, err
	}

	loc := locator.New(newCKANClient(),
		locator.WithRecordLimit(cfg.RecordLimit),
		locator.WithLogger(logger),
	)

	opts := []consolidate.Option{
		consolidate.WithDatasetID(cfg.DatasetID),
		consolidate.WithPrefix(cfg.OutputPrefix),
		consolidate.WithNumericColumns(cfg.NumericColumns...),
		consolidate.WithPolicy(cfg.Policy()),
		consolidate.WithStrictMode(cfg.StrictMode),
		consolidate.WithLogger(logger),
	}
	if store != nil {
		opts = append(opts, consolidate.WithStore(store))
	}
	return consolidate.New(loc, opts...), nil
}
