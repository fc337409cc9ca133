package config

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/DrSkyle/balanco/pkg/faults"
	"github.com/DrSkyle/balanco/pkg/numeric"
	"github.com/DrSkyle/balanco/pkg/storage"
)

func load(t *testing.T) Config {
	t.Helper()
	v := viper.New()
	Init(v)
	return Load(v)
}

func TestDefaults(t *testing.T) {
	cfg := load(t)

	if cfg.APIURL != DefaultAPIURL {
		t.Errorf("Expected APIURL %s, got %s", DefaultAPIURL, cfg.APIURL)
	}
	if cfg.DatasetID != "balanco-patrimonial" {
		t.Errorf("Expected dataset balanco-patrimonial, got %s", cfg.DatasetID)
	}
	if cfg.OutputPrefix != "bndes-data" {
		t.Errorf("Expected prefix bndes-data, got %s", cfg.OutputPrefix)
	}
	if cfg.RecordLimit != 50000 {
		t.Errorf("Expected RecordLimit 50000, got %d", cfg.RecordLimit)
	}
	if len(cfg.NumericColumns) != 1 || cfg.NumericColumns[0] != "quantidade_ou_valor" {
		t.Errorf("Unexpected NumericColumns %v", cfg.NumericColumns)
	}
	if cfg.HTTPTimeout != 60*time.Second {
		t.Errorf("Expected HTTPTimeout 60s, got %s", cfg.HTTPTimeout)
	}
	if cfg.Policy() != numeric.PolicyStrict {
		t.Errorf("Expected strict policy, got %s", cfg.Policy())
	}
	if cfg.SinkMode() != SinkNone {
		t.Errorf("Expected no sink, got %s", cfg.SinkMode())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Defaults should validate: %v", err)
	}
}

func TestEnvOverridesDefaults(t *testing.T) {
	t.Setenv("DATASET_ID", "outro-dataset")
	t.Setenv("RECORD_LIMIT", "10")
	t.Setenv("NUMERIC_COLUMNS", "valor, quantidade_ou_valor ,")
	t.Setenv("NUMERIC_POLICY", "SKIP")
	t.Setenv("STRICT_MODE", "true")
	t.Setenv("HTTP_TIMEOUT", "5s")
	t.Setenv("OUTPUT_PREFIX", "/custom/")

	cfg := load(t)

	if cfg.DatasetID != "outro-dataset" {
		t.Errorf("Expected env dataset, got %s", cfg.DatasetID)
	}
	if cfg.RecordLimit != 10 {
		t.Errorf("Expected RecordLimit 10, got %d", cfg.RecordLimit)
	}
	if len(cfg.NumericColumns) != 2 || cfg.NumericColumns[0] != "valor" || cfg.NumericColumns[1] != "quantidade_ou_valor" {
		t.Errorf("Unexpected NumericColumns %v", cfg.NumericColumns)
	}
	if cfg.Policy() != numeric.PolicySkip {
		t.Errorf("Expected skip policy, got %s", cfg.Policy())
	}
	if !cfg.StrictMode {
		t.Error("Expected StrictMode from env")
	}
	if cfg.HTTPTimeout != 5*time.Second {
		t.Errorf("Expected HTTPTimeout 5s, got %s", cfg.HTTPTimeout)
	}
	if cfg.OutputPrefix != "custom" {
		t.Errorf("Expected trimmed prefix, got %s", cfg.OutputPrefix)
	}
}

func TestFlagOverridesEnv(t *testing.T) {
	t.Setenv("DATASET_ID", "from-env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("dataset", "", "")
	if err := flags.Parse([]string{"--dataset", "from-flag"}); err != nil {
		t.Fatal(err)
	}

	v := viper.New()
	Init(v)
	if err := v.BindPFlag(KeyDatasetID, flags.Lookup("dataset")); err != nil {
		t.Fatal(err)
	}

	if got := Load(v).DatasetID; got != "from-flag" {
		t.Errorf("Expected flag to win, got %s", got)
	}
}

func TestSinkMode(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want Sink
	}{
		{"none", Config{}, SinkNone},
		{"s3", Config{BucketName: "b"}, SinkS3},
		{"minio", Config{BucketName: "b", Minio: MinioConfig{Endpoint: "localhost:9000"}}, SinkMinio},
		{"minio without bucket", Config{Minio: MinioConfig{Endpoint: "localhost:9000"}}, SinkNone},
		{"local wins over s3", Config{BucketName: "b", LocalOutputDir: "/tmp/out"}, SinkLocal},
		{"local wins over minio", Config{BucketName: "b", LocalOutputDir: "/tmp/out", Minio: MinioConfig{Endpoint: "x"}}, SinkLocal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.cfg.SinkMode(); got != tc.want {
				t.Errorf("SinkMode() = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := load(t)
	cfg.RecordLimit = 0
	cfg.NumericPolicy = "lenient"
	cfg.LogFormat = "xml"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Expected validation error")
	}
	if !faults.Is(err, faults.KindConfiguration) {
		t.Errorf("Expected configuration fault, got %v", err)
	}
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	_, err := Config{}.OpenStore(ctx)
	if !faults.Is(err, faults.KindConfiguration) {
		t.Errorf("Expected configuration fault without sink, got %v", err)
	}

	dir := t.TempDir()
	store, err := Config{LocalOutputDir: dir, BucketName: "ignored"}.OpenStore(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := store.(*storage.LocalStore); !ok {
		t.Errorf("Expected *storage.LocalStore, got %T", store)
	}

	store, err = Config{BucketName: "b", Minio: MinioConfig{Endpoint: "localhost:9000"}}.OpenStore(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if store.Describe() != "MinIO" {
		t.Errorf("Expected MinIO store, got %s", store.Describe())
	}
}
