package collection

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/davidleathers/aire-backend/internal/domain/risk"
	"github.com/davidleathers/aire-backend/internal/infrastructure/config"
)

// Key identifies one collector.
type Key struct {
	Domain risk.Domain
	Kind   risk.Kind
}

func (k Key) String() string {
	return k.Domain.Slug() + "/" + k.Kind.String()
}

// Registry holds one collector per (domain, kind).
type Registry struct {
	collectors map[Key]Collector
	keys       []Key
}

// Option customizes registry construction.
type Option func(*options)

type options struct {
	client *http.Client
	onFall FallbackHook
	// overrides replaces the live source for a key; a nil Source disables it.
	overrides map[Key]Source
}

// WithHTTPClient sets the client used by live sources.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.client = c }
}

// WithFallbackHook registers a callback for every sample-data fallback.
func WithFallbackHook(h FallbackHook) Option {
	return func(o *options) { o.onFall = h }
}

// WithSource overrides the live source for key.
func WithSource(key Key, s Source) Option {
	return func(o *options) { o.overrides[key] = s }
}

// NewRegistry builds the nine collectors. Only AI incidents has a live source
// by default, and only when a URL is configured.
func NewRegistry(cfg config.SourcesConfig, logger *zap.Logger, opts ...Option) *Registry {
	o := &options{overrides: make(map[Key]Source)}
	for _, opt := range opts {
		opt(o)
	}

	sources := make(map[Key]Source)
	if cfg.AIIncidentsURL != "" {
		sources[Key{risk.DomainAI, risk.KindIncident}] = NewAIIncidentSource(cfg, o.client)
	}
	for k, s := range o.overrides {
		sources[k] = s
	}

	r := &Registry{collectors: make(map[Key]Collector)}
	logger = logger.Named("collector")
	for _, d := range risk.Domains() {
		for _, kind := range risk.Kinds() {
			key := Key{Domain: d, Kind: kind}
			r.keys = append(r.keys, key)
			r.collectors[key] = newFallbackCollector(key, sources[key], sampleData[key], o.onFall, logger)
		}
	}
	return r
}

// Get returns the collector for domain and kind.
func (r *Registry) Get(d risk.Domain, k risk.Kind) (Collector, bool) {
	c, ok := r.collectors[Key{Domain: d, Kind: k}]
	return c, ok
}

// Keys lists registered keys by domain, then kind.
func (r *Registry) Keys() []Key {
	out := make([]Key, len(r.keys))
	copy(out, r.keys)
	return out
}

// Collect runs the collector registered under key.
func (r *Registry) Collect(ctx context.Context, key Key) ([]risk.Record, error) {
	c, ok := r.collectors[key]
	if !ok {
		return nil, fmt.Errorf("no collector registered for %s", key)
	}
	return c.Collect(ctx), nil
}
