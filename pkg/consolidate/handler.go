// Package consolidate turns a year request into one Parquet file holding every
// balance-sheet resource published for that year.
package consolidate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/DrSkyle/balanco/pkg/columnar"
	"github.com/DrSkyle/balanco/pkg/faults"
	"github.com/DrSkyle/balanco/pkg/locator"
	"github.com/DrSkyle/balanco/pkg/numeric"
	"github.com/DrSkyle/balanco/pkg/storage"
	"github.com/DrSkyle/balanco/pkg/table"
	"github.com/DrSkyle/balanco/pkg/telemetry"
)

// ErrPartialResult is returned in strict mode when one or more matching
// resources could not be fetched.
var ErrPartialResult = errors.New("partial result")

const noSinkMessage = "Neither S3_BUCKET_NAME nor LOCAL_OUTPUT_DIR environment variables are set"

// Locator is the resource discovery the handler drives.
type Locator interface {
	Locate(ctx context.Context, year locator.Year, datasetID string) *locator.Search
}

// Handler holds immutable configuration and collaborators; it is safe for
// concurrent use.
type Handler struct {
	locator        Locator
	store          storage.BlobStore
	datasetID      string
	prefix         string
	numericColumns []string
	policy         numeric.Policy
	strict         bool
	now            func() time.Time
	logger         *slog.Logger
	tracer         trace.Tracer
}

// Option defines a functional configuration override.
type Option func(*Handler)

// WithStore sets the sink. Without one every request answers 500.
func WithStore(s storage.BlobStore) Option {
	return func(h *Handler) { h.store = s }
}

func WithDatasetID(id string) Option {
	return func(h *Handler) {
		if id != "" {
			h.datasetID = id
		}
	}
}

func WithPrefix(prefix string) Option {
	return func(h *Handler) { h.prefix = prefix }
}

// WithNumericColumns sets the columns converted by the numeric normalizer.
func WithNumericColumns(cols ...string) Option {
	return func(h *Handler) { h.numericColumns = cols }
}

func WithPolicy(p numeric.Policy) Option {
	return func(h *Handler) { h.policy = p }
}

// WithStrictMode fails requests where any matching resource failed to fetch.
func WithStrictMode(strict bool) Option {
	return func(h *Handler) { h.strict = strict }
}

// WithClock overrides the clock used for the storage date path.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// New creates a Handler.
func New(loc Locator, opts ...Option) *Handler {
	h := &Handler{
		locator:        loc,
		datasetID:      locator.DefaultDatasetID,
		prefix:         "bndes-data",
		numericColumns: []string{"quantidade_ou_valor"},
		policy:         numeric.PolicyStrict,
		now:            time.Now,
		logger:         slog.Default(),
		tracer:         telemetry.Tracer("consolidate"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle answers a raw invocation event.
func (h *Handler) Handle(ctx context.Context, event json.RawMessage) Response {
	year, _ := RequestedYear(event)
	return h.Consolidate(ctx, year)
}

// Consolidate fetches, cleans, converts and stores every resource of year.
// A nil year is a missing parameter. It never returns an error: every
// failure, panics included, becomes a structured response.
func (h *Handler) Consolidate(ctx context.Context, year any) (resp Response) {
	ctx, span := h.tracer.Start(ctx, "consolidate.Handle")
	defer span.End()

	log := h.logger.With("invocation_id", uuid.NewString())
	defer func() {
		span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	}()
	defer h.recoverPanic(ctx, log, &resp)

	if h.store == nil {
		log.Error("No storage sink configured")
		return message(http.StatusInternalServerError, noSinkMessage)
	}
	if year == nil {
		return message(http.StatusBadRequest, "Missing required parameter: 'year'")
	}

	y, err := locator.ParseYear(year)
	if err != nil {
		log.Warn("Rejected year parameter", "year", year, "error", err)
		return message(http.StatusBadRequest, fmt.Sprintf("Invalid parameter 'year': %v", year))
	}
	span.SetAttributes(attribute.String("balanco.year", y.String()))
	log = log.With("year", y.String())

	result, err := h.run(ctx, log, y)
	if errors.Is(err, errNoData) {
		return message(http.StatusNotFound, fmt.Sprintf("No data found for year %s", y))
	}
	if err != nil {
		err = classify(err)
		kind := faults.KindOf(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("error.kind", string(kind)))
		log.Error("Consolidation failed", "error", err, "kind", kind)
		return message(http.StatusInternalServerError, fmt.Sprintf("Critical error: %v", err))
	}

	log.Info("Consolidation finished", "records", result.RecordsProcessed, "location", result.Location)
	return respond(http.StatusOK, result)
}

var errNoData = errors.New("no data")

// classify tags an error that carries no fault kind as internal.
func classify(err error) error {
	var fe *faults.Error
	if errors.As(err, &fe) {
		return err
	}
	return faults.Internal("", err)
}

func (h *Handler) run(ctx context.Context, log *slog.Logger, year locator.Year) (*Result, error) {
	log.Info("Starting processing")

	search := h.locator.Locate(ctx, year, h.datasetID)

	var (
		tables       []*table.Table
		skippedCells int
	)
	for name, t := range search.Tables() {
		t = table.Clean(t)
		if t.Empty() {
			continue
		}
		for _, col := range h.numericColumns {
			bad, err := numeric.ConvertColumn(t, col, h.policy)
			if err != nil {
				return nil, fmt.Errorf("resource %s: %w", name, err)
			}
			for _, c := range bad {
				log.Warn("Unparseable numeric cell set to null", "resource", name, "column", col, "row", c.Row, "value", c.Value)
			}
			skippedCells += len(bad)
		}
		tables = append(tables, t)
	}
	if err := search.Err(); err != nil {
		return nil, err
	}

	if failures := search.Failures(); len(failures) > 0 && h.strict {
		return nil, faults.Transport("", fmt.Errorf("%w: %d of %d matching resources failed: %s", ErrPartialResult, len(failures), search.Matched(), failures[0].Reason))
	}
	if len(tables) == 0 {
		return nil, errNoData
	}

	log.Info("Consolidating files", "count", len(tables))
	final := table.Concat(tables...)

	data, err := columnar.Encode(final)
	if err != nil {
		return nil, err
	}

	key := ObjectKey(h.prefix, h.now(), year.String())
	if err := h.put(ctx, key, data); err != nil {
		return nil, err
	}

	return &Result{
		Message:          fmt.Sprintf("Consolidated data for %s saved to %s", year, h.store.Describe()),
		RecordsProcessed: final.Len(),
		Location:         h.store.Location(key),
		SourceFilesCount: len(tables),
		SkippedResources: search.Skipped(),
		SkippedCells:     skippedCells,
	}, nil
}

func (h *Handler) put(ctx context.Context, key string, data []byte) error {
	ctx, span := h.tracer.Start(ctx, "storage.put", trace.WithAttributes(
		attribute.String("storage.backend", h.store.Describe()),
		attribute.String("storage.key", key),
		attribute.Int("storage.bytes", len(data)),
	))
	defer span.End()

	if err := h.store.Put(ctx, key, data); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// recoverPanic converts a panic into a 500 response.
func (h *Handler) recoverPanic(ctx context.Context, log *slog.Logger, resp *Response) {
	if r := recover(); r != nil {
		_, span := h.tracer.Start(ctx, "CriticalPanic")
		stack := debug.Stack()
		err := faults.Internal("panic", fmt.Errorf("%v", r))

		span.RecordError(err, trace.WithStackTrace(true))
		span.SetStatus(codes.Error, "CRITICAL FAILURE")
		span.SetAttributes(
			attribute.String("crash.reason", fmt.Sprintf("%v", r)),
			attribute.String("error.kind", string(faults.KindInternal)),
		)
		span.End()

		log.Error("CRITICAL FAILURE", "error", err, "kind", faults.KindOf(err), "stack", string(stack))
		*resp = message(http.StatusInternalServerError, fmt.Sprintf("Critical error: %v", r))
	}
}
