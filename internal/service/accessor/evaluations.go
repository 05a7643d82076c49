package accessor

import (
	"context"

	"github.com/davidleathers/aire-backend/internal/domain/risk"
	"github.com/davidleathers/aire-backend/internal/infrastructure/repository"
)

type EvaluationAccessor struct {
	base
}

func NewEvaluationAccessor(r repository.Reader) *EvaluationAccessor {
	return &EvaluationAccessor{base{reader: r, collection: repository.CollectionEvaluations}}
}

func (a *EvaluationAccessor) GetAll(ctx context.Context, limit int) ([]risk.Record, error) {
	return a.getAll(ctx, limit)
}

func (a *EvaluationAccessor) GetByID(ctx context.Context, id string) (risk.Record, bool, error) {
	return a.getByID(ctx, id)
}

func (a *EvaluationAccessor) GetByPublicID(ctx context.Context, publicID string) (risk.Record, bool, error) {
	return a.findOne(ctx, a.filter().Eq(risk.FieldPublicID, publicID))
}

func (a *EvaluationAccessor) GetByOrganization(ctx context.Context, org string) ([]risk.Record, error) {
	return a.findMany(ctx, a.filter().Contains(risk.FieldOrganizations, org))
}

func (a *EvaluationAccessor) GetByModel(ctx context.Context, model string) ([]risk.Record, error) {
	return a.findMany(ctx, a.filter().Contains(risk.FieldModels, model))
}

func (a *EvaluationAccessor) GetByRiskCategory(ctx context.Context, category string) ([]risk.Record, error) {
	return a.findMany(ctx, a.filter().Contains(risk.FieldRiskCats, category))
}

// GetRecent orders by release date.
func (a *EvaluationAccessor) GetRecent(ctx context.Context, n int) ([]risk.Record, error) {
	return a.getRecent(ctx, risk.FieldReleaseDate, n)
}

func (a *EvaluationAccessor) GetReviewed(ctx context.Context) ([]risk.Record, error) {
	return a.findMany(ctx, a.filter().IsTrue(risk.FieldReviewed))
}
