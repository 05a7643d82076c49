package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/davidleathers/aire-backend/internal/domain/risk"
	"github.com/davidleathers/aire-backend/internal/infrastructure/repository"
)

// Finder mocks the read side of repository.Store.
type Finder struct {
	mock.Mock
}

func (m *Finder) Find(ctx context.Context, f *repository.Filter) ([]risk.Record, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]risk.Record), args.Error(1)
}

func (m *Finder) Count(ctx context.Context, f *repository.Filter) (int, error) {
	args := m.Called(ctx, f)
	return args.Int(0), args.Error(1)
}

// RecordWriter mocks the write side of repository.Store.
type RecordWriter struct {
	mock.Mock
}

func (m *RecordWriter) InsertMany(ctx context.Context, c repository.Collection, records []risk.Record) (int, error) {
	args := m.Called(ctx, c, records)
	return args.Int(0), args.Error(1)
}
