package querybuilder

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryBuilder_Select(t *testing.T) {
	tests := []struct {
		name           string
		builder        func() *QueryBuilder
		expectedSQL    string
		expectedParams []interface{}
	}{
		{
			name: "simple select all",
			builder: func() *QueryBuilder {
				return New().Select().From("incidents")
			},
			expectedSQL: "SELECT * FROM incidents",
		},
		{
			name: "select specific columns",
			builder: func() *QueryBuilder {
				return New().Select("id", "headline").From("incidents")
			},
			expectedSQL: "SELECT id, headline FROM incidents",
		},
		{
			name: "equality and containment",
			builder: func() *QueryBuilder {
				return New().Select().From("incidents").
					WhereEqual("quarter", "2024-Q1").
					WhereContains("risk_cats", []string{"Misinformation"})
			},
			expectedSQL:    "SELECT * FROM incidents WHERE quarter = $1 AND risk_cats @> $2",
			expectedParams: []interface{}{"2024-Q1", []string{"Misinformation"}},
		},
		{
			name: "OR condition",
			builder: func() *QueryBuilder {
				return New().Select().From("benchmarks").
					WhereEqual("availability", "Open").
					OrWhere("availability", Equal, "Closed")
			},
			expectedSQL:    "SELECT * FROM benchmarks WHERE availability = $1 OR availability = $2",
			expectedParams: []interface{}{"Open", "Closed"},
		},
		{
			name: "grouped ILIKE keeps outer AND",
			builder: func() *QueryBuilder {
				return New().Select().From("incidents").
					WhereEqual("quarter", "2024-Q2").
					WhereAnyOf(
						Condition{Column: "headline", Operator: ILike, Value: "%deepfake%"},
						Condition{Column: "description", Operator: ILike, Value: "%deepfake%"},
					).
					Limit(10)
			},
			expectedSQL:    "SELECT * FROM incidents WHERE quarter = $1 AND (headline ILIKE $2 OR description ILIKE $3) LIMIT $4",
			expectedParams: []interface{}{"2024-Q2", "%deepfake%", "%deepfake%", 10},
		},
		{
			name: "empty group is ignored",
			builder: func() *QueryBuilder {
				return New().Select().From("model_versions").WhereAnyOf()
			},
			expectedSQL: "SELECT * FROM model_versions",
		},
		{
			name: "IN and IS TRUE",
			builder: func() *QueryBuilder {
				return New().Select().From("evaluations").
					WhereIn("public_id", []interface{}{"E-1", "E-2"}).
					Where("reviewed", IsTrue, nil)
			},
			expectedSQL:    "SELECT * FROM evaluations WHERE public_id IN ($1, $2) AND reviewed IS TRUE",
			expectedParams: []interface{}{"E-1", "E-2"},
		},
		{
			name: "NULL check",
			builder: func() *QueryBuilder {
				return New().Select().From("incidents").WhereNotNull("reporting_date")
			},
			expectedSQL: "SELECT * FROM incidents WHERE reporting_date IS NOT NULL",
		},
		{
			name: "ordering",
			builder: func() *QueryBuilder {
				return New().Select().From("incidents").
					OrderByDescNullsLast("reporting_date").
					OrderByAsc("id")
			},
			expectedSQL: "SELECT * FROM incidents ORDER BY reporting_date DESC NULLS LAST, id ASC",
		},
		{
			name: "limit and offset",
			builder: func() *QueryBuilder {
				return New().Select().From("incidents").Limit(5).Offset(10)
			},
			expectedSQL:    "SELECT * FROM incidents LIMIT $1 OFFSET $2",
			expectedParams: []interface{}{5, 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params, err := tt.builder().ToSQL()
			require.NoError(t, err)
			assert.Equal(t, tt.expectedSQL, sql)
			if tt.expectedParams == nil {
				assert.Empty(t, params)
			} else {
				assert.Equal(t, tt.expectedParams, params)
			}
		})
	}
}

func TestQueryBuilder_Count(t *testing.T) {
	sql, params, err := New().Count().From("evaluations").
		WhereContains("organizations", []string{"OpenAI"}).
		OrderByDesc("release_date").
		Limit(3).
		ToSQL()

	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM evaluations WHERE organizations @> $1", sql)
	assert.Equal(t, []interface{}{[]string{"OpenAI"}}, params)
}

func TestQueryBuilder_Insert(t *testing.T) {
	id1, id2 := uuid.New(), uuid.New()

	sql, params, err := New().Insert("incidents", "id", "title", "severity").
		Values(id1, "first", 0.5).
		Values(id2, "second", nil).
		OnConflictDoNothing("id").
		Returning("id").
		ToSQL()

	require.NoError(t, err)
	assert.Equal(t,
		"INSERT INTO incidents (id, title, severity) VALUES ($1, $2, $3), ($4, $5, $6) ON CONFLICT (id) DO NOTHING RETURNING id",
		sql)
	assert.Equal(t, []interface{}{id1, "first", 0.5, id2, "second", nil}, params)
}

func TestQueryBuilder_Errors(t *testing.T) {
	tests := []struct {
		name    string
		builder *QueryBuilder
	}{
		{"select without table", New().Select("*")},
		{"count without table", New().Count()},
		{"insert without rows", New().Insert("incidents", "id")},
		{"insert without columns", New().Insert("incidents").Values(1)},
		{"insert row width mismatch", New().Insert("incidents", "id", "title").Values(1)},
		{"empty IN list", New().Select().From("incidents").WhereIn("id", nil)},
		{"no query type", &QueryBuilder{queryType: QueryType(99)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := tt.builder.ToSQL()
			assert.Error(t, err)
		})
	}
}
