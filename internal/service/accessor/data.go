package accessor

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/davidleathers/aire-backend/internal/domain/risk"
	"github.com/davidleathers/aire-backend/internal/infrastructure/repository"
)

// DefaultSummaryRecent is the number of recent records per collection in a
// summary when the caller passes a non-positive count.
const DefaultSummaryRecent = 5

// SummaryCache stores rendered summaries. Cached records come back through
// JSON, so timestamps are RFC 3339 strings on a hit.
type SummaryCache interface {
	Load(ctx context.Context, recent int, dest interface{}) (bool, error)
	Save(ctx context.Context, recent int, summary interface{}) error
}

// CollectionSummary is the total row count and, for dated collections, the
// most recent records.
type CollectionSummary struct {
	Total  int           `json:"total"`
	Recent []risk.Record `json:"recent,omitempty"`
}

// Summary describes every collection.
type Summary struct {
	Incidents     CollectionSummary `json:"incidents"`
	Benchmarks    CollectionSummary `json:"benchmarks"`
	Evaluations   CollectionSummary `json:"evaluations"`
	ModelVersions CollectionSummary `json:"model_versions"`
	ModelCatalog  CollectionSummary `json:"model_catalog"`
}

// DataAccessor groups the per-collection accessors over one reader.
type DataAccessor struct {
	Incidents   *IncidentAccessor
	Benchmarks  *BenchmarkAccessor
	Evaluations *EvaluationAccessor
	Versions    *VersionAccessor
	Catalog     *CatalogAccessor

	cache  SummaryCache
	logger *zap.Logger
}

// Option configures a DataAccessor.
type Option func(*DataAccessor)

// WithSummaryCache consults c before building a summary. Cache failures are
// logged and otherwise ignored.
func WithSummaryCache(c SummaryCache) Option {
	return func(d *DataAccessor) { d.cache = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(d *DataAccessor) { d.logger = l }
}

func NewDataAccessor(r repository.Reader, opts ...Option) *DataAccessor {
	d := &DataAccessor{
		Incidents:   NewIncidentAccessor(r),
		Benchmarks:  NewBenchmarkAccessor(r),
		Evaluations: NewEvaluationAccessor(r),
		Versions:    NewVersionAccessor(r),
		Catalog:     NewCatalogAccessor(r),
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.Named("accessor")
	return d
}

// Summary counts every collection and lists the most recent incidents,
// benchmarks and evaluations.
func (d *DataAccessor) Summary(ctx context.Context, recent int) (*Summary, error) {
	if recent <= 0 {
		recent = DefaultSummaryRecent
	}

	if d.cache != nil {
		var cached Summary
		hit, err := d.cache.Load(ctx, recent, &cached)
		if err != nil {
			d.logger.Warn("summary cache read failed", zap.Error(err))
		} else if hit {
			return &cached, nil
		}
	}

	s := &Summary{}
	var err error
	if s.Incidents, err = d.summarize(ctx, d.Incidents.base, d.Incidents.GetRecent, recent); err != nil {
		return nil, err
	}
	if s.Benchmarks, err = d.summarize(ctx, d.Benchmarks.base, d.Benchmarks.GetRecent, recent); err != nil {
		return nil, err
	}
	if s.Evaluations, err = d.summarize(ctx, d.Evaluations.base, d.Evaluations.GetRecent, recent); err != nil {
		return nil, err
	}
	if s.ModelVersions, err = d.summarize(ctx, d.Versions.base, nil, recent); err != nil {
		return nil, err
	}
	if s.ModelCatalog, err = d.summarize(ctx, d.Catalog.base, nil, recent); err != nil {
		return nil, err
	}

	if d.cache != nil {
		if err := d.cache.Save(ctx, recent, s.JSONSafe()); err != nil {
			d.logger.Warn("summary cache write failed", zap.Error(err))
		}
	}
	return s, nil
}

type recentFunc func(ctx context.Context, n int) ([]risk.Record, error)

func (d *DataAccessor) summarize(ctx context.Context, b base, getRecent recentFunc, n int) (CollectionSummary, error) {
	total, err := b.count(ctx)
	if err != nil {
		return CollectionSummary{}, fmt.Errorf("counting %s: %w", b.collection, err)
	}
	out := CollectionSummary{Total: total}
	if getRecent == nil {
		return out, nil
	}
	if out.Recent, err = getRecent(ctx, n); err != nil {
		return CollectionSummary{}, fmt.Errorf("loading recent %s: %w", b.collection, err)
	}
	return out, nil
}

// JSONSafe returns a copy with non-finite floats in recent records set to nil.
func (s *Summary) JSONSafe() *Summary {
	out := *s
	for _, cs := range []*CollectionSummary{&out.Incidents, &out.Benchmarks, &out.Evaluations, &out.ModelVersions, &out.ModelCatalog} {
		cs.Recent = risk.JSONSafeAll(cs.Recent)
	}
	return &out
}
