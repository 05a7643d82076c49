package accessor

import (
	"context"

	"github.com/davidleathers/aire-backend/internal/domain/risk"
	"github.com/davidleathers/aire-backend/internal/infrastructure/repository"
)

// IncidentAccessor reads the incidents collection.
type IncidentAccessor struct {
	base
}

func NewIncidentAccessor(r repository.Reader) *IncidentAccessor {
	return &IncidentAccessor{base{reader: r, collection: repository.CollectionIncidents}}
}

// GetAll returns every incident, or at most limit when limit is positive.
func (a *IncidentAccessor) GetAll(ctx context.Context, limit int) ([]risk.Record, error) {
	return a.getAll(ctx, limit)
}

func (a *IncidentAccessor) GetByID(ctx context.Context, id string) (risk.Record, bool, error) {
	return a.getByID(ctx, id)
}

// GetByRiskCategory returns incidents tagged with category.
func (a *IncidentAccessor) GetByRiskCategory(ctx context.Context, category string, limit int) ([]risk.Record, error) {
	return a.findMany(ctx, a.filter().Contains(risk.FieldRiskCats, category).Limit(limit))
}

// GetByQuarter matches the quarter label exactly, e.g. "Q3 2025".
func (a *IncidentAccessor) GetByQuarter(ctx context.Context, quarter string) ([]risk.Record, error) {
	return a.findMany(ctx, a.filter().Eq(risk.FieldQuarter, quarter))
}

func (a *IncidentAccessor) GetByActorOrigin(ctx context.Context, origin string) ([]risk.Record, error) {
	return a.findMany(ctx, a.filter().Contains(risk.FieldActorsOrigin, origin))
}

// SearchByKeyword matches keyword in the headline or the description.
func (a *IncidentAccessor) SearchByKeyword(ctx context.Context, keyword string) ([]risk.Record, error) {
	return a.findMany(ctx, a.filter().ILikeAny(keyword, risk.FieldHeadline, risk.FieldDescription))
}

// GetRecent returns the n latest incidents by reporting date.
func (a *IncidentAccessor) GetRecent(ctx context.Context, n int) ([]risk.Record, error) {
	return a.getRecent(ctx, risk.FieldReportingDate, n)
}
