// Package pipeline runs collection, processing, scoring and storage for each
// registered (domain, kind) in order.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/davidleathers/aire-backend/internal/domain/risk"
	"github.com/davidleathers/aire-backend/internal/domain/validation"
	"github.com/davidleathers/aire-backend/internal/infrastructure/config"
	"github.com/davidleathers/aire-backend/internal/infrastructure/repository"
	"github.com/davidleathers/aire-backend/internal/infrastructure/telemetry"
	"github.com/davidleathers/aire-backend/internal/metrics"
	"github.com/davidleathers/aire-backend/internal/service/collection"
	"github.com/davidleathers/aire-backend/internal/service/processing"
	"github.com/davidleathers/aire-backend/internal/service/scoring"
)

// SummaryInvalidator drops cached summaries once new records are stored.
type SummaryInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Pipeline owns the collector registry and the scoring model. Runs are
// serialized.
type Pipeline struct {
	registry  *collection.Registry
	model     *scoring.Model
	writer    repository.Writer
	summaries SummaryInvalidator
	metrics   *metrics.Registry
	tracer    trace.Tracer
	logger    *zap.Logger

	runMu     sync.Mutex
	fallbacks *fallbackTracker
}

// Option configures a Pipeline.
type Option func(*settings)

type settings struct {
	writer        repository.Writer
	summaries     SummaryInvalidator
	metrics       *metrics.Registry
	tracer        trace.Tracer
	collectorOpts []collection.Option
}

// WithWriter enables the store stage. Without a writer the pipeline stops
// after scoring.
func WithWriter(w repository.Writer) Option {
	return func(s *settings) { s.writer = w }
}

func WithSummaryInvalidator(i SummaryInvalidator) Option {
	return func(s *settings) { s.summaries = i }
}

func WithMetrics(m *metrics.Registry) Option {
	return func(s *settings) { s.metrics = m }
}

func WithTracer(t trace.Tracer) Option {
	return func(s *settings) { s.tracer = t }
}

// WithCollectorOptions passes options through to the collector registry.
func WithCollectorOptions(opts ...collection.Option) Option {
	return func(s *settings) { s.collectorOpts = append(s.collectorOpts, opts...) }
}

func New(sources config.SourcesConfig, model *scoring.Model, logger *zap.Logger, opts ...Option) *Pipeline {
	s := &settings{tracer: noop.NewTracerProvider().Tracer("pipeline")}
	for _, opt := range opts {
		opt(s)
	}

	p := &Pipeline{
		model:     model,
		writer:    s.writer,
		summaries: s.summaries,
		metrics:   s.metrics,
		tracer:    s.tracer,
		logger:    logger.Named("pipeline"),
		fallbacks: newFallbackTracker(),
	}
	collectorOpts := append([]collection.Option{collection.WithFallbackHook(p.fallbacks.record)}, s.collectorOpts...)
	p.registry = collection.NewRegistry(sources, logger, collectorOpts...)
	return p
}

// Keys lists every key the pipeline can run.
func (p *Pipeline) Keys() []collection.Key {
	return p.registry.Keys()
}

// RunOptions selects what a Run does.
type RunOptions struct {
	// Keys restricts the run; empty means every registered key.
	Keys []collection.Key
	// DryRun skips the store stage.
	DryRun bool
}

// Run processes the selected keys in order. A store failure stops the run
// and is returned with the report built so far.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (*RunReport, error) {
	p.runMu.Lock()
	defer p.runMu.Unlock()

	keys := opts.Keys
	if len(keys) == 0 {
		keys = p.registry.Keys()
	}

	report := &RunReport{StartedAt: time.Now().UTC(), DryRun: opts.DryRun}
	ctx, span := telemetry.StartStageSpan(ctx, p.tracer, "run",
		attribute.Int("aire.keys", len(keys)),
		attribute.Bool("aire.dry_run", opts.DryRun))
	defer span.End()

	var stored int
	for _, key := range keys {
		kr, err := p.runKey(ctx, key, opts.DryRun)
		report.Keys = append(report.Keys, kr)
		stored += kr.Stored
		if err != nil {
			report.Duration = time.Since(report.StartedAt)
			telemetry.RecordError(span, err)
			return report, err
		}
	}
	report.Duration = time.Since(report.StartedAt)

	if stored > 0 && p.summaries != nil {
		if err := p.summaries.Invalidate(ctx); err != nil {
			p.logger.Warn("summary invalidation failed", zap.Error(err))
		}
	}

	collected, processed, _ := report.Totals()
	p.logger.Info("pipeline run complete",
		append(telemetry.ZapTraceFields(ctx),
			zap.Int("keys", len(report.Keys)),
			zap.Int("collected", collected),
			zap.Int("processed", processed),
			zap.Int("stored", stored),
			zap.Int("fallbacks", report.Fallbacks()),
			zap.Duration("duration", report.Duration))...)
	return report, nil
}

func (p *Pipeline) runKey(ctx context.Context, key collection.Key, dryRun bool) (KeyReport, error) {
	kr := KeyReport{Key: key, Domain: string(key.Domain), Kind: key.Kind.String()}
	domain, kind := kr.Domain, kr.Kind

	ctx, span := telemetry.StartStageSpan(ctx, p.tracer, "key",
		telemetry.AttrDomain.String(domain),
		telemetry.AttrKind.String(kind))
	defer span.End()

	raw, err := p.registry.Collect(ctx, key)
	if err != nil {
		telemetry.RecordError(span, err)
		return kr, err
	}
	kr.Collected = len(raw)
	if fell, reason := p.fallbacks.take(key); fell {
		kr.Fallback = true
		if reason != nil {
			kr.FallbackReason = reason.Error()
		}
		if p.metrics != nil {
			p.metrics.RecordFallback(ctx, domain, kind)
		}
	}
	if p.metrics != nil {
		p.metrics.RecordCollection(ctx, domain, kind, kr.Collected)
	}
	span.SetAttributes(telemetry.AttrFallback.Bool(kr.Fallback))

	processor, err := processing.ForKind(key.Kind)
	if err != nil {
		telemetry.RecordError(span, err)
		return kr, err
	}
	records := processor.Process(raw)
	kr.Processed = len(records)
	kr.Dropped = validation.Dropped(kr.Collected, kr.Processed)
	if p.metrics != nil {
		p.metrics.RecordDropped(ctx, domain, kind, kr.Dropped)
	}

	if key.Kind == risk.KindIncident {
		start := time.Now()
		var state scoring.TrainingState
		records, state = p.model.AssessRisks(records)
		kr.Trained = state.Trained
		if p.metrics != nil {
			p.metrics.RecordScoring(ctx, time.Since(start), domain, state.Trained)
		}
	}
	kr.Records = records
	span.SetAttributes(telemetry.AttrRecords.Int(len(records)))

	if dryRun || p.writer == nil || len(records) == 0 {
		p.logger.Debug("key processed",
			zap.Stringer("key", key),
			zap.Int("collected", kr.Collected),
			zap.Int("processed", kr.Processed),
			zap.Bool("fallback", kr.Fallback))
		return kr, nil
	}

	target, err := repository.CollectionFor(key.Kind)
	if err != nil {
		telemetry.RecordError(span, err)
		return kr, err
	}
	n, err := p.writer.InsertMany(ctx, target, records)
	if p.metrics != nil {
		p.metrics.RecordStore(ctx, string(target), n, err)
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return kr, fmt.Errorf("storing %s: %w", key, err)
	}
	kr.Stored = n

	p.logger.Debug("key stored",
		zap.Stringer("key", key),
		zap.String("collection", string(target)),
		zap.Int("stored", n))
	return kr, nil
}

// fallbackTracker remembers which keys fell back since they were last taken.
type fallbackTracker struct {
	mu   sync.Mutex
	seen map[collection.Key]error
}

func newFallbackTracker() *fallbackTracker {
	return &fallbackTracker{seen: make(map[collection.Key]error)}
}

func (t *fallbackTracker) record(key collection.Key, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seen[key] = err
}

func (t *fallbackTracker) take(key collection.Key) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	err, ok := t.seen[key]
	delete(t.seen, key)
	return ok, err
}
