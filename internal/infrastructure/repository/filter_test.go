package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidleathers/aire-backend/internal/domain/risk"
)

const incidentColumns = "id, title, headline, description, date, category, severity, reporting_date, risk_cats, actors_origin, quarter, attributes"

func TestFilter_SelectSQL(t *testing.T) {
	tests := []struct {
		name           string
		filter         *Filter
		expectedSQL    string
		expectedParams []interface{}
	}{
		{
			name:        "unconstrained",
			filter:      NewFilter(CollectionModelCatalog),
			expectedSQL: "SELECT id, name, attributes FROM model_catalog",
		},
		{
			name:           "risk category with limit",
			filter:         NewFilter(CollectionIncidents).Contains(risk.FieldRiskCats, "Misinformation").Limit(50),
			expectedSQL:    "SELECT " + incidentColumns + " FROM incidents WHERE risk_cats @> $1 LIMIT $2",
			expectedParams: []interface{}{[]string{"Misinformation"}, 50},
		},
		{
			name: "keyword across two columns",
			filter: NewFilter(CollectionIncidents).
				Eq(risk.FieldQuarter, "2024-Q1").
				ILikeAny("deep_fake 100%", risk.FieldHeadline, risk.FieldDescription),
			expectedSQL:    "SELECT " + incidentColumns + " FROM incidents WHERE quarter = $1 AND (headline ILIKE $2 OR description ILIKE $3)",
			expectedParams: []interface{}{"2024-Q1", `%deep\_fake 100\%%`, `%deep\_fake 100\%%`},
		},
		{
			name:           "most recent",
			filter:         NewFilter(CollectionBenchmarks).OrderDesc(risk.FieldDate).Limit(5),
			expectedSQL:    "SELECT id, name, metric, value, category, benchmark, publication, availability, risk_cats, dataset_link, date, attributes FROM benchmarks ORDER BY date DESC NULLS LAST LIMIT $1",
			expectedParams: []interface{}{5},
		},
		{
			name:        "reviewed evaluations",
			filter:      NewFilter(CollectionEvaluations).IsTrue(risk.FieldReviewed).Limit(0),
			expectedSQL: "SELECT id, assessment, score, category, date, publication, public_id, organizations, models, risk_cats, release_date, reviewed, attributes FROM evaluations WHERE reviewed IS TRUE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params, err := tt.filter.SelectSQL()
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

func TestFilter_CountSQLIgnoresOrderAndLimit(t *testing.T) {
	f := NewFilter(CollectionEvaluations).
		Contains(risk.FieldOrganizations, "OpenAI").
		OrderDesc(risk.FieldReleaseDate).
		Limit(10)

	sql, params, err := f.CountSQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM evaluations WHERE organizations @> $1", sql)
	assert.Equal(t, []interface{}{[]string{"OpenAI"}}, params)
}

func TestFilter_IsReusable(t *testing.T) {
	f := NewFilter(CollectionModelVersions).ILikeAny("gpt", risk.FieldName)

	first, _, err := f.SelectSQL()
	require.NoError(t, err)
	second, _, err := f.SelectSQL()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFilter_Errors(t *testing.T) {
	tests := []struct {
		name   string
		filter *Filter
	}{
		{"unknown collection", NewFilter(Collection("users"))},
		{"unknown column", NewFilter(CollectionIncidents).Eq("password", "x")},
		{"unknown order column", NewFilter(CollectionBenchmarks).OrderDesc("reporting_date")},
		{"unknown keyword column", NewFilter(CollectionModelVersions).ILikeAny("x", risk.FieldName, "notes")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.filter.Err())
			_, _, err := tt.filter.SelectSQL()
			assert.Error(t, err)
			_, _, err = tt.filter.CountSQL()
			assert.Error(t, err)
		})
	}
}

func TestCollectionFor(t *testing.T) {
	for _, kind := range []risk.Kind{risk.KindIncident, risk.KindBenchmark, risk.KindEvaluation, risk.KindModelVersion, risk.KindModelCatalogEntry} {
		c, err := CollectionFor(kind)
		require.NoError(t, err)
		assert.Equal(t, kind.String(), c.String())
	}
	_, err := CollectionFor(risk.Kind(42))
	assert.Error(t, err)
}
