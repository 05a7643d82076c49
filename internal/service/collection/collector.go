// Package collection gathers raw risk records per (domain, kind). Every
// collector always produces output: a live source when one is configured and
// reachable, otherwise a fixed sample set.
package collection

import (
	"context"

	"go.uber.org/zap"

	"github.com/davidleathers/aire-backend/internal/domain/risk"
)

// Collector produces raw records for one domain and kind. Collect never fails.
type Collector interface {
	Domain() risk.Domain
	Kind() risk.Kind
	Collect(ctx context.Context) []risk.Record
}

// Source fetches records from a live upstream.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]risk.Record, error)
}

// FallbackHook is told whenever a collector serves sample data. err is nil
// when no source is configured or the source returned nothing.
type FallbackHook func(key Key, err error)

type fallbackCollector struct {
	key     Key
	source  Source
	samples []risk.Record
	onFall  FallbackHook
	logger  *zap.Logger
}

func newFallbackCollector(key Key, source Source, samples []risk.Record, onFall FallbackHook, logger *zap.Logger) *fallbackCollector {
	return &fallbackCollector{
		key:     key,
		source:  source,
		samples: samples,
		onFall:  onFall,
		logger:  logger,
	}
}

func (c *fallbackCollector) Domain() risk.Domain { return c.key.Domain }
func (c *fallbackCollector) Kind() risk.Kind     { return c.key.Kind }

func (c *fallbackCollector) Collect(ctx context.Context) []risk.Record {
	if c.source == nil {
		return c.fallback(nil)
	}

	records, err := c.source.Fetch(ctx)
	if err != nil {
		c.logger.Warn("source unavailable, serving sample data",
			zap.String("source", c.source.Name()),
			zap.Stringer("key", c.key),
			zap.Error(err))
		return c.fallback(err)
	}
	if len(records) == 0 {
		c.logger.Info("source returned no records, serving sample data",
			zap.String("source", c.source.Name()),
			zap.Stringer("key", c.key))
		return c.fallback(nil)
	}

	c.logger.Debug("collected from source",
		zap.String("source", c.source.Name()),
		zap.Stringer("key", c.key),
		zap.Int("records", len(records)))
	return records
}

func (c *fallbackCollector) fallback(err error) []risk.Record {
	if c.onFall != nil {
		c.onFall(c.key, err)
	}
	return risk.CloneAll(c.samples)
}
