package accessor

import (
	"context"

	"github.com/davidleathers/aire-backend/internal/domain/risk"
	"github.com/davidleathers/aire-backend/internal/infrastructure/repository"
)

// VersionAccessor reads model versions.
type VersionAccessor struct {
	base
}

func NewVersionAccessor(r repository.Reader) *VersionAccessor {
	return &VersionAccessor{base{reader: r, collection: repository.CollectionModelVersions}}
}

func (a *VersionAccessor) GetAll(ctx context.Context) ([]risk.Record, error) {
	return a.getAll(ctx, 0)
}

func (a *VersionAccessor) GetByID(ctx context.Context, id string) (risk.Record, bool, error) {
	return a.getByID(ctx, id)
}

// GetByName matches the version name exactly.
func (a *VersionAccessor) GetByName(ctx context.Context, name string) (risk.Record, bool, error) {
	return a.findOne(ctx, a.filter().Eq(risk.FieldName, name))
}

// SearchByName matches keyword anywhere in the name, ignoring case.
func (a *VersionAccessor) SearchByName(ctx context.Context, keyword string) ([]risk.Record, error) {
	return a.findMany(ctx, a.filter().ILikeAny(keyword, risk.FieldName))
}

// CatalogAccessor reads the external model catalog. Entries are opaque.
type CatalogAccessor struct {
	base
}

func NewCatalogAccessor(r repository.Reader) *CatalogAccessor {
	return &CatalogAccessor{base{reader: r, collection: repository.CollectionModelCatalog}}
}

func (a *CatalogAccessor) GetAll(ctx context.Context, limit int) ([]risk.Record, error) {
	return a.getAll(ctx, limit)
}

func (a *CatalogAccessor) GetByID(ctx context.Context, id string) (risk.Record, bool, error) {
	return a.getByID(ctx, id)
}
