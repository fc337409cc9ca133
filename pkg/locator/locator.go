// Package locator finds the datastore resources of a dataset that belong to
// a given year and fetches them one at a time.
package locator

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/unicode/norm"

	"github.com/DrSkyle/balanco/pkg/ckan"
	"github.com/DrSkyle/balanco/pkg/table"
	"github.com/DrSkyle/balanco/pkg/telemetry"
)

const (
	// DefaultDatasetID is the balance-sheet dataset of the BNDES portal.
	DefaultDatasetID = "balanco-patrimonial"
	// DefaultRecordLimit bounds a single datastore_search page.
	DefaultRecordLimit = 50_000
)

// API is the part of the CKAN client the locator needs.
type API interface {
	PackageShow(ctx context.Context, datasetID string) (*ckan.Package, error)
	DatastoreSearch(ctx context.Context, resourceID string, limit int) (*ckan.DatastoreResult, error)
}

// Locator discovers year-scoped resources.
type Locator struct {
	api    API
	limit  int
	logger *slog.Logger
	tracer trace.Tracer
}

// Option defines a functional configuration override.
type Option func(*Locator)

// WithRecordLimit sets the per-resource record bound.
func WithRecordLimit(n int) Option {
	return func(l *Locator) {
		if n > 0 {
			l.limit = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Locator) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates a Locator over an explicitly provided API client.
func New(api API, opts ...Option) *Locator {
	l := &Locator{
		api:    api,
		limit:  DefaultRecordLimit,
		logger: slog.Default(),
		tracer: telemetry.Tracer("locator"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Skip records a matching resource that produced no table.
type Skip struct {
	ResourceID string `json:"resource_id"`
	Name       string `json:"name"`
	Reason     string `json:"reason"`
	Err        error  `json:"-"`
}

// Failed reports whether the skip was caused by an error rather than an
// empty resource.
func (s Skip) Failed() bool { return s.Err != nil }

// Search is one locate call. Its sequence is lazy and can be consumed once.
type Search struct {
	ctx       context.Context
	locator   *Locator
	year      Year
	datasetID string

	started bool
	matched int
	skipped []Skip
	err     error
}

// Locate prepares a search for the resources of datasetID whose name contains
// year and whose datastore is active. Nothing is fetched until Tables is
// iterated.
func (l *Locator) Locate(ctx context.Context, year Year, datasetID string) *Search {
	if datasetID == "" {
		datasetID = DefaultDatasetID
	}
	return &Search{ctx: ctx, locator: l, year: year, datasetID: datasetID}
}

// Tables yields (resource name, table) pairs, fetching each resource as the
// consumer advances. Failures never escape the iterator: a metadata failure
// ends the sequence and is reported by Err, a failed or empty resource is
// recorded in Skipped and iteration moves on. A second call yields nothing.
func (s *Search) Tables() iter.Seq2[string, *table.Table] {
	return func(yield func(string, *table.Table) bool) {
		if s.started {
			return
		}
		s.started = true
		s.run(yield)
	}
}

// Matched returns how many descriptors matched the year so far.
func (s *Search) Matched() int { return s.matched }

// Skipped returns the diagnostics accumulated so far.
func (s *Search) Skipped() []Skip { return s.skipped }

// Failures returns the skips caused by errors.
func (s *Search) Failures() []Skip {
	var out []Skip
	for _, sk := range s.skipped {
		if sk.Failed() {
			out = append(out, sk)
		}
	}
	return out
}

// Err returns the error that ended the sequence early, if any.
func (s *Search) Err() error { return s.err }

func (s *Search) run(yield func(string, *table.Table) bool) {
	l := s.locator
	log := l.logger.With("dataset", s.datasetID, "year", s.year.String())

	log.Info("Fetching dataset metadata")
	pkg, err := l.api.PackageShow(s.ctx, s.datasetID)
	if err != nil {
		log.Error("Metadata fetch failed", "error", err)
		s.err = err
		return
	}

	yielded := 0
	for _, res := range pkg.Resources {
		if !s.matches(res) {
			continue
		}
		s.matched++

		tbl, err := s.fetch(res)
		if err != nil {
			if ctxErr := s.ctx.Err(); ctxErr != nil {
				s.err = ctxErr
				return
			}
			log.Warn("Skipping resource", "resource", res.Name, "resource_id", res.ID, "error", err)
			s.skipped = append(s.skipped, Skip{ResourceID: res.ID, Name: res.Name, Reason: err.Error(), Err: err})
			continue
		}
		if tbl.Empty() {
			log.Info("No records found in datastore", "resource", res.Name, "resource_id", res.ID)
			s.skipped = append(s.skipped, Skip{ResourceID: res.ID, Name: res.Name, Reason: "no records"})
			continue
		}

		yielded++
		if !yield(res.Name, tbl) {
			return
		}
	}

	if yielded == 0 {
		log.Info("No matching resources with active datastore found")
	}
}

func (s *Search) matches(res ckan.Resource) bool {
	return res.DatastoreActive && strings.Contains(norm.NFC.String(res.Name), s.year.String())
}

func (s *Search) fetch(res ckan.Resource) (*table.Table, error) {
	l := s.locator
	ctx, span := l.tracer.Start(s.ctx, "locator.fetch", trace.WithAttributes(
		attribute.String("resource.id", res.ID),
		attribute.String("resource.name", res.Name),
	))
	defer span.End()

	l.logger.Info("Fetching records", "resource", res.Name, "resource_id", res.ID, "limit", l.limit)
	result, err := l.api.DatastoreSearch(ctx, res.ID, l.limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if result == nil {
		return nil, errors.New("empty datastore response")
	}

	tbl := result.Table()
	if !tbl.Empty() {
		tbl.Tag(res.Name, res.ID)
	}
	span.SetAttributes(attribute.Int("resource.records", tbl.Len()))
	return tbl, nil
}
