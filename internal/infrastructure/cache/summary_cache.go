package cache

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const summaryKeyPrefix = "aire:summary:"

// SummaryCache stores rendered data summaries keyed by the recent-record
// count they were built with.
type SummaryCache struct {
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewSummaryCache wraps a Cache with the summary key scheme and TTL.
func NewSummaryCache(c Cache, ttl time.Duration, logger *zap.Logger) *SummaryCache {
	return &SummaryCache{cache: c, ttl: ttl, logger: logger.Named("summary_cache")}
}

// Load decodes a cached summary into dest. A miss returns false and no error.
func (s *SummaryCache) Load(ctx context.Context, recent int, dest interface{}) (bool, error) {
	err := s.cache.GetJSON(ctx, summaryKey(recent), dest)
	if IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Save stores a summary for the TTL.
func (s *SummaryCache) Save(ctx context.Context, recent int, summary interface{}) error {
	return s.cache.SetJSON(ctx, summaryKey(recent), summary, s.ttl)
}

// Invalidate drops every cached summary. Called after new records are stored.
func (s *SummaryCache) Invalidate(ctx context.Context) error {
	n, err := s.cache.DeletePrefix(ctx, summaryKeyPrefix)
	if err != nil {
		return err
	}
	s.logger.Debug("summaries invalidated", zap.Int("keys", n))
	return nil
}

func summaryKey(recent int) string {
	return fmt.Sprintf("%s%d", summaryKeyPrefix, recent)
}
