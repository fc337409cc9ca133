// Package config resolves runtime configuration from defaults, an optional
// YAML file, the environment and command-line flags.
package config

import "time"

// Keys. AutomaticEnv upper-cases them, so each key doubles as its
// environment variable name.
const (
	KeyBucketName        = "s3_bucket_name"
	KeyLocalOutputDir    = "local_output_dir"
	KeyAPIURL            = "bndes_api_url"
	KeyDatasetID         = "dataset_id"
	KeyOutputPrefix      = "output_prefix"
	KeyRecordLimit       = "record_limit"
	KeyNumericColumns    = "numeric_columns"
	KeyNumericPolicy     = "numeric_policy"
	KeyStrictMode        = "strict_mode"
	KeyMinioEndpoint     = "minio_endpoint"
	KeyMinioAccessKey    = "minio_access_key"
	KeyMinioSecretKey    = "minio_secret_key"
	KeyMinioUseSSL       = "minio_use_ssl"
	KeyAWSRegion         = "aws_region"
	KeyAWSEndpoint       = "aws_endpoint_url"
	KeyLogLevel          = "log_level"
	KeyLogFormat         = "log_format"
	KeyOtelEndpoint      = "otel_exporter_otlp_endpoint"
	KeyOtelServiceName   = "otel_service_name"
	KeyHTTPAddr          = "http_addr"
	KeyRequestsPerSecond = "requests_per_second"
	KeyHTTPTimeout       = "http_timeout"
)

// Defaults.
const (
	DefaultAPIURL            = "https://dadosabertos.bndes.gov.br/api/3/action"
	DefaultDatasetID         = "balanco-patrimonial"
	DefaultOutputPrefix      = "bndes-data"
	DefaultRecordLimit       = 50_000
	DefaultNumericColumns    = "quantidade_ou_valor"
	DefaultNumericPolicy     = "strict"
	DefaultRegion            = "us-east-1"
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "json"
	DefaultHTTPAddr          = ":8080"
	DefaultRequestsPerSecond = 5.0
	DefaultHTTPTimeout       = 60 * time.Second
)

func defaults() map[string]any {
	return map[string]any{
		KeyAPIURL:            DefaultAPIURL,
		KeyDatasetID:         DefaultDatasetID,
		KeyOutputPrefix:      DefaultOutputPrefix,
		KeyRecordLimit:       DefaultRecordLimit,
		KeyNumericColumns:    DefaultNumericColumns,
		KeyNumericPolicy:     DefaultNumericPolicy,
		KeyStrictMode:        false,
		KeyMinioUseSSL:       false,
		KeyAWSRegion:         DefaultRegion,
		KeyLogLevel:          DefaultLogLevel,
		KeyLogFormat:         DefaultLogFormat,
		KeyHTTPAddr:          DefaultHTTPAddr,
		KeyRequestsPerSecond: DefaultRequestsPerSecond,
		KeyHTTPTimeout:       DefaultHTTPTimeout,
	}
}
