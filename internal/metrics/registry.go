package metrics

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Registry holds the pipeline's OpenTelemetry instruments
type Registry struct {
	meter metric.Meter

	// Collection
	RecordsCollected metric.Int64Counter
	Fallbacks        metric.Int64Counter

	// Processing
	RecordsDropped metric.Int64Counter

	// Scoring
	ScoringDuration metric.Float64Histogram
	ModelTrainings  metric.Int64Counter

	// Storage
	RecordsStored  metric.Int64Counter
	StoreFailures  metric.Int64Counter
	DBPoolAcquired metric.Int64ObservableGauge

	mu         sync.RWMutex
	dbAcquired int64
}

// NewRegistry creates a registry on the global meter provider
func NewRegistry(meterName string) (*Registry, error) {
	return NewRegistryWithMeter(otel.Meter(meterName))
}

// NewRegistryWithMeter creates a registry on an explicit meter
func NewRegistryWithMeter(meter metric.Meter) (*Registry, error) {
	r := &Registry{meter: meter}

	if err := r.initCollectionMetrics(); err != nil {
		return nil, err
	}
	if err := r.initScoringMetrics(); err != nil {
		return nil, err
	}
	if err := r.initStorageMetrics(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) initCollectionMetrics() error {
	var err error

	r.RecordsCollected, err = r.meter.Int64Counter(
		"aire.pipeline.records_collected",
		metric.WithDescription("Raw records produced by collectors"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return err
	}

	r.Fallbacks, err = r.meter.Int64Counter(
		"aire.pipeline.fallbacks",
		metric.WithDescription("Collector runs served from sample data"),
	)
	if err != nil {
		return err
	}

	r.RecordsDropped, err = r.meter.Int64Counter(
		"aire.pipeline.records_dropped",
		metric.WithDescription("Records removed by validation or parsing"),
		metric.WithUnit("{record}"),
	)
	return err
}

func (r *Registry) initScoringMetrics() error {
	var err error

	r.ScoringDuration, err = r.meter.Float64Histogram(
		"aire.scoring.duration",
		metric.WithDescription("Duration of risk assessment in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.5, 1, 5, 10, 50, 100, 500),
	)
	if err != nil {
		return err
	}

	r.ModelTrainings, err = r.meter.Int64Counter(
		"aire.scoring.trainings",
		metric.WithDescription("Risk assessments, split by whether a model was trained"),
	)
	return err
}

func (r *Registry) initStorageMetrics() error {
	var err error

	r.RecordsStored, err = r.meter.Int64Counter(
		"aire.store.records_inserted",
		metric.WithDescription("Records written to the store"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return err
	}

	r.StoreFailures, err = r.meter.Int64Counter(
		"aire.store.failures",
		metric.WithDescription("Failed insert batches"),
	)
	if err != nil {
		return err
	}

	r.DBPoolAcquired, err = r.meter.Int64ObservableGauge(
		"aire.store.pool_acquired_connections",
		metric.WithDescription("Connections currently checked out of the pool"),
		metric.WithInt64Callback(func(ctx context.Context, o metric.Int64Observer) error {
			r.mu.RLock()
			defer r.mu.RUnlock()
			o.Observe(r.dbAcquired)
			return nil
		}),
	)
	return err
}

// SetDBPoolAcquired records the pool's acquired connection count
func (r *Registry) SetDBPoolAcquired(n int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dbAcquired = n
}

func keyAttrs(domain, kind string) metric.MeasurementOption {
	return metric.WithAttributes(
		attribute.String("domain", domain),
		attribute.String("kind", kind),
	)
}

// RecordCollection records one collector run
func (r *Registry) RecordCollection(ctx context.Context, domain, kind string, records int) {
	r.RecordsCollected.Add(ctx, int64(records), keyAttrs(domain, kind))
}

// RecordFallback counts a collector run that served sample data
func (r *Registry) RecordFallback(ctx context.Context, domain, kind string) {
	r.Fallbacks.Add(ctx, 1, keyAttrs(domain, kind))
}

// RecordDropped counts records lost between collection and processing
func (r *Registry) RecordDropped(ctx context.Context, domain, kind string, dropped int) {
	if dropped <= 0 {
		return
	}
	r.RecordsDropped.Add(ctx, int64(dropped), keyAttrs(domain, kind))
}

// RecordScoring records one AssessRisks call
func (r *Registry) RecordScoring(ctx context.Context, duration time.Duration, domain string, trained bool) {
	attrs := metric.WithAttributes(
		attribute.String("domain", domain),
		attribute.Bool("trained", trained),
	)
	r.ScoringDuration.Record(ctx, float64(duration)/float64(time.Millisecond), attrs)
	r.ModelTrainings.Add(ctx, 1, attrs)
}

// RecordStore records an insert into collection
func (r *Registry) RecordStore(ctx context.Context, collection string, inserted int, err error) {
	attrs := metric.WithAttributes(attribute.String("collection", collection))
	if err != nil {
		r.StoreFailures.Add(ctx, 1, attrs)
		return
	}
	r.RecordsStored.Add(ctx, int64(inserted), attrs)
}
