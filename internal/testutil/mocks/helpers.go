package mocks

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/davidleathers/aire-backend/internal/infrastructure/repository"
)

// FilterSQL matches a *repository.Filter that renders to the given SELECT
// statement and parameters.
func FilterSQL(sql string, params ...interface{}) interface{} {
	return mock.MatchedBy(func(f *repository.Filter) bool {
		got, gotParams, err := f.SelectSQL()
		if err != nil || got != sql || len(gotParams) != len(params) {
			return false
		}
		for i := range params {
			if !assert.ObjectsAreEqual(params[i], gotParams[i]) {
				return false
			}
		}
		return true
	})
}

// CountSQL matches a *repository.Filter whose COUNT rendering equals sql.
func CountSQL(sql string, params ...interface{}) interface{} {
	return mock.MatchedBy(func(f *repository.Filter) bool {
		got, gotParams, err := f.CountSQL()
		if err != nil || got != sql || len(gotParams) != len(params) {
			return false
		}
		for i := range params {
			if !assert.ObjectsAreEqual(params[i], gotParams[i]) {
				return false
			}
		}
		return true
	})
}

// ForCollection matches any filter over the given collection.
func ForCollection(c repository.Collection) interface{} {
	return mock.MatchedBy(func(f *repository.Filter) bool {
		return f.Collection() == c
	})
}
