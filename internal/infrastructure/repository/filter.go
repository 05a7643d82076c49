package repository

import (
	"fmt"
	"strings"

	"github.com/davidleathers/aire-backend/internal/infrastructure/querybuilder"
)

// Filter accumulates predicates, ordering and a limit for one collection.
// It is a plain value owned by the caller and only touches the database when
// passed to Store.Find or Store.Count. Unknown columns are reported there.
type Filter struct {
	collection Collection
	conditions []querybuilder.Condition
	orderBy    []string
	limit      *int
	err        error
}

// NewFilter starts an unconstrained filter over collection.
func NewFilter(collection Collection) *Filter {
	f := &Filter{collection: collection}
	if _, err := schemaFor(collection); err != nil {
		f.err = err
	}
	return f
}

// Collection returns the collection the filter reads from.
func (f *Filter) Collection() Collection { return f.collection }

// Eq matches rows whose column equals value.
func (f *Filter) Eq(col string, value interface{}) *Filter {
	return f.where(col, querybuilder.Equal, value)
}

// Contains matches rows whose array column holds every given value.
func (f *Filter) Contains(col string, values ...string) *Filter {
	return f.where(col, querybuilder.Contains, values)
}

// IsTrue matches rows whose boolean column is true.
func (f *Filter) IsTrue(col string) *Filter {
	return f.where(col, querybuilder.IsTrue, nil)
}

// ILikeAny matches rows where any of cols contains keyword, ignoring case.
// LIKE wildcards in keyword are matched literally.
func (f *Filter) ILikeAny(keyword string, cols ...string) *Filter {
	pattern := "%" + escapeLike(keyword) + "%"
	group := make([]querybuilder.Condition, 0, len(cols))
	for _, col := range cols {
		if !f.checkColumn(col) {
			return f
		}
		group = append(group, querybuilder.Condition{Column: col, Operator: querybuilder.ILike, Value: pattern})
	}
	if len(group) > 0 {
		f.conditions = append(f.conditions, querybuilder.Condition{Logical: querybuilder.And, Group: group})
	}
	return f
}

// OrderDesc sorts by col, newest or largest first, with missing values last.
func (f *Filter) OrderDesc(col string) *Filter {
	if f.checkColumn(col) {
		f.orderBy = append(f.orderBy, col)
	}
	return f
}

// Limit caps the number of returned rows. Non-positive values are ignored.
func (f *Filter) Limit(n int) *Filter {
	if n > 0 {
		f.limit = &n
	}
	return f
}

// Err reports the first construction error, if any.
func (f *Filter) Err() error { return f.err }

// SelectSQL renders the filter as a SELECT over the collection's columns.
func (f *Filter) SelectSQL() (string, []interface{}, error) {
	if f.err != nil {
		return "", nil, f.err
	}
	cols, _ := schemaFor(f.collection)

	qb := querybuilder.New().Select(columnNames(cols)...).From(string(f.collection))
	f.apply(qb)
	for _, col := range f.orderBy {
		qb.OrderByDescNullsLast(col)
	}
	if f.limit != nil {
		qb.Limit(*f.limit)
	}
	return qb.ToSQL()
}

// CountSQL renders the filter as a COUNT(*). Ordering and limit do not apply.
func (f *Filter) CountSQL() (string, []interface{}, error) {
	if f.err != nil {
		return "", nil, f.err
	}
	qb := querybuilder.New().Count().From(string(f.collection))
	f.apply(qb)
	return qb.ToSQL()
}

func (f *Filter) apply(qb *querybuilder.QueryBuilder) {
	for _, c := range f.conditions {
		if len(c.Group) > 0 {
			qb.WhereAnyOf(c.Group...)
			continue
		}
		qb.Where(c.Column, c.Operator, c.Value)
	}
}

func (f *Filter) where(col string, op querybuilder.Operator, value interface{}) *Filter {
	if f.checkColumn(col) {
		f.conditions = append(f.conditions, querybuilder.Condition{
			Column:   col,
			Operator: op,
			Value:    value,
			Logical:  querybuilder.And,
		})
	}
	return f
}

func (f *Filter) checkColumn(col string) bool {
	if f.err != nil {
		return false
	}
	cols, _ := schemaFor(f.collection)
	if _, ok := lookupColumn(cols, col); !ok {
		f.err = fmt.Errorf("collection %s has no column %q", f.collection, col)
		return false
	}
	return true
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
