// Package accessor exposes typed, read-only lookups over the stored
// collections. Singular lookups report absence as (nil, false, nil); plural
// lookups return an empty, non-nil slice when nothing matches.
package accessor

import (
	"context"

	"github.com/google/uuid"

	"github.com/davidleathers/aire-backend/internal/domain/risk"
	"github.com/davidleathers/aire-backend/internal/infrastructure/repository"
)

// DefaultRecentLimit applies when GetRecent is called with a non-positive n.
const DefaultRecentLimit = 10

type base struct {
	reader     repository.Reader
	collection repository.Collection
}

func (b base) filter() *repository.Filter {
	return repository.NewFilter(b.collection)
}

func (b base) findMany(ctx context.Context, f *repository.Filter) ([]risk.Record, error) {
	records, err := b.reader.Find(ctx, f)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []risk.Record{}
	}
	return records, nil
}

func (b base) findOne(ctx context.Context, f *repository.Filter) (risk.Record, bool, error) {
	records, err := b.reader.Find(ctx, f.Limit(1))
	if err != nil {
		return nil, false, err
	}
	if len(records) == 0 {
		return nil, false, nil
	}
	return records[0], true, nil
}

// getByID treats an id that is not a UUID as absent rather than an error.
func (b base) getByID(ctx context.Context, id string) (risk.Record, bool, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, false, nil
	}
	return b.findOne(ctx, b.filter().Eq(risk.FieldID, parsed))
}

func (b base) getAll(ctx context.Context, limit int) ([]risk.Record, error) {
	return b.findMany(ctx, b.filter().Limit(limit))
}

func (b base) getRecent(ctx context.Context, dateField string, n int) ([]risk.Record, error) {
	if n <= 0 {
		n = DefaultRecentLimit
	}
	return b.findMany(ctx, b.filter().OrderDesc(dateField).Limit(n))
}

func (b base) count(ctx context.Context) (int, error) {
	return b.reader.Count(ctx, b.filter())
}
