package repository

import (
	"context"

	"github.com/davidleathers/aire-backend/internal/domain/risk"
)

// Reader runs caller-built filters against the store.
type Reader interface {
	// Find returns matching records; never nil on success
	Find(ctx context.Context, f *Filter) ([]risk.Record, error)

	// Count returns the number of matching rows
	Count(ctx context.Context, f *Filter) (int, error)
}

// Writer persists batches of records.
type Writer interface {
	// InsertMany stores records in one collection and reports how many were new
	InsertMany(ctx context.Context, c Collection, records []risk.Record) (int, error)
}

// ReadWriter is the full store surface.
type ReadWriter interface {
	Reader
	Writer
}

var _ ReadWriter = (*Store)(nil)
