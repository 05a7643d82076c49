package accessor

import (
	"context"

	"github.com/davidleathers/aire-backend/internal/domain/risk"
	"github.com/davidleathers/aire-backend/internal/infrastructure/repository"
)

// AvailabilityOpen marks a benchmark whose dataset is publicly available.
const AvailabilityOpen = "Open"

type BenchmarkAccessor struct {
	base
}

func NewBenchmarkAccessor(r repository.Reader) *BenchmarkAccessor {
	return &BenchmarkAccessor{base{reader: r, collection: repository.CollectionBenchmarks}}
}

func (a *BenchmarkAccessor) GetAll(ctx context.Context, limit int) ([]risk.Record, error) {
	return a.getAll(ctx, limit)
}

func (a *BenchmarkAccessor) GetByID(ctx context.Context, id string) (risk.Record, bool, error) {
	return a.getByID(ctx, id)
}

// GetByName looks a benchmark up by its benchmark name.
func (a *BenchmarkAccessor) GetByName(ctx context.Context, name string) (risk.Record, bool, error) {
	return a.findOne(ctx, a.filter().Eq(risk.FieldBenchmark, name))
}

func (a *BenchmarkAccessor) GetByRiskCategory(ctx context.Context, category string) ([]risk.Record, error) {
	return a.findMany(ctx, a.filter().Contains(risk.FieldRiskCats, category))
}

func (a *BenchmarkAccessor) GetRecent(ctx context.Context, n int) ([]risk.Record, error) {
	return a.getRecent(ctx, risk.FieldDate, n)
}

// GetOpenSource returns benchmarks with open availability.
func (a *BenchmarkAccessor) GetOpenSource(ctx context.Context) ([]risk.Record, error) {
	return a.findMany(ctx, a.filter().Eq(risk.FieldAvailability, AvailabilityOpen))
}
