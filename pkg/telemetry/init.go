// Package telemetry builds the process logger and tracer provider.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/DrSkyle/balanco/pkg/version"
)

// Runtimes a process can report.
const (
	RuntimeCLI    = "cli"
	RuntimeHTTP   = "http"
	RuntimeLambda = "lambda"
)

// Resource attribute keys specific to this service.
const (
	AttrRuntime   = attribute.Key("balanco.runtime")
	AttrDatasetID = attribute.Key("balanco.dataset_id")
	AttrSink      = attribute.Key("balanco.sink")
)

// Shutdown flushes pending spans.
type Shutdown func(context.Context) error

// Options configures the tracer provider.
type Options struct {
	// Endpoint is the OTLP HTTP endpoint. Empty falls back to
	// OTEL_EXPORTER_OTLP_ENDPOINT, then to discarding spans.
	Endpoint    string
	ServiceName string
	Runtime     string
	DatasetID   string
	Sink        string

	// Exporter replaces the endpoint-derived exporter when set.
	Exporter sdktrace.SpanExporter
}

// Init installs a global tracer provider and W3C propagation.
func Init(ctx context.Context, opts Options) (Shutdown, error) {
	res, err := newResource(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := newExporter(ctx, opts)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return tp.Shutdown, nil
}

func newResource(ctx context.Context, opts Options) (*resource.Resource, error) {
	name := opts.ServiceName
	if name == "" {
		name = version.AppName
	}
	runtime := opts.Runtime
	if runtime == "" {
		runtime = RuntimeCLI
	}

	attrs := []attribute.KeyValue{
		semconv.ServiceName(name),
		semconv.ServiceVersion(version.Current),
		AttrRuntime.String(runtime),
	}
	if opts.DatasetID != "" {
		attrs = append(attrs, AttrDatasetID.String(opts.DatasetID))
	}
	if opts.Sink != "" {
		attrs = append(attrs, AttrSink.String(opts.Sink))
	}
	if runtime == RuntimeLambda {
		attrs = append(attrs, semconv.CloudProviderAWS)
		if fn := os.Getenv("AWS_LAMBDA_FUNCTION_NAME"); fn != "" {
			attrs = append(attrs, semconv.FaaSName(fn))
		}
	}

	return resource.New(ctx,
		resource.WithTelemetrySDK(),
		resource.WithFromEnv(),
		resource.WithSchemaURL(semconv.SchemaURL),
		resource.WithAttributes(attrs...),
	)
}

func newExporter(ctx context.Context, opts Options) (sdktrace.SpanExporter, error) {
	if opts.Exporter != nil {
		return opts.Exporter, nil
	}

	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	}
	if endpoint != "" {
		exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(endpoint))
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		return exporter, nil
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(io.Discard))
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
	}
	return exporter, nil
}

// Tracer returns a tracer from the global provider, scoped under the app name.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(version.AppName + "/" + name)
}
