package pipeline

import (
	"time"

	"github.com/davidleathers/aire-backend/internal/domain/risk"
	"github.com/davidleathers/aire-backend/internal/service/collection"
)

// KeyReport describes one (domain, kind) pass through the pipeline.
type KeyReport struct {
	Domain    string `json:"domain"`
	Kind      string `json:"kind"`
	Collected int    `json:"collected"`
	Processed int    `json:"processed"`
	Dropped   int    `json:"dropped"`
	Fallback  bool   `json:"fallback"`
	// FallbackReason is empty when no source was configured or it returned nothing.
	FallbackReason string `json:"fallback_reason,omitempty"`
	Trained        bool   `json:"trained,omitempty"`
	Stored         int    `json:"stored"`

	Key     collection.Key `json:"-"`
	Records []risk.Record  `json:"-"`
}

// RunReport summarizes one Run.
type RunReport struct {
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	DryRun    bool          `json:"dry_run"`
	Keys      []KeyReport   `json:"keys"`
}

// Totals sums record counts across keys.
func (r *RunReport) Totals() (collected, processed, stored int) {
	for _, k := range r.Keys {
		collected += k.Collected
		processed += k.Processed
		stored += k.Stored
	}
	return collected, processed, stored
}

// Fallbacks counts keys that were served sample data.
func (r *RunReport) Fallbacks() int {
	n := 0
	for _, k := range r.Keys {
		if k.Fallback {
			n++
		}
	}
	return n
}
