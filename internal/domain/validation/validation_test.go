package validation

import (
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidleathers/aire-backend/internal/domain/risk"
)

func TestValidateIncidents(t *testing.T) {
	complete := risk.Record{
		"title":       "AI Chatbot Generates Harmful Content",
		"description": "An AI chatbot produced inappropriate responses.",
		"date":        "2023-01-15",
		"category":    "AI",
		"severity":    0.5,
	}
	missingSeverity := risk.Record{
		"title":       "Autonomous Vehicle Accident",
		"description": "Self-driving car caused collision.",
		"date":        "2023-02-20",
		"category":    "AI",
	}
	nilValues := risk.Record{
		"title":       nil,
		"description": "",
		"date":        nil,
		"category":    "AI",
		"severity":    nil,
		"extra":       "passes through",
	}

	got := ValidateIncidents([]risk.Record{complete, missingSeverity, nilValues})

	require.Len(t, got, 2)
	assert.Equal(t, complete, got[0])
	assert.Equal(t, "passes through", got[1]["extra"])
}

func TestValidateByKind(t *testing.T) {
	tests := []struct {
		name    string
		kind    risk.Kind
		records []risk.Record
		want    int
	}{
		{
			name: "benchmarks",
			kind: risk.KindBenchmark,
			records: []risk.Record{
				{"name": "GLUE Score", "metric": "Average Score", "value": 92.3, "category": "AI"},
				{"name": "GLUE Score", "metric": "Average Score", "category": "AI"},
			},
			want: 1,
		},
		{
			name: "evaluations",
			kind: risk.KindEvaluation,
			records: []risk.Record{
				{"assessment": "Bias Audit", "score": 7.5, "category": "AI", "date": "2023-04-01"},
				{"assessment": "Safety Review", "score": 8.2, "category": "AI"},
				{},
			},
			want: 1,
		},
		{
			name:    "empty input",
			kind:    risk.KindIncident,
			records: nil,
			want:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateKind(tt.kind, tt.records)
			assert.NotNil(t, got)
			assert.Len(t, got, tt.want)
		})
	}

	assert.Len(t, ValidateBenchmarks(tests[0].records), 1)
	assert.Len(t, ValidateEvaluations(tests[1].records), 1)
}

func TestValidate_Properties(t *testing.T) {
	required := risk.RequiredFields(risk.KindIncident)

	// Each mask bit decides whether one required key is present.
	property := func(masks []uint8) bool {
		records := make([]risk.Record, len(masks))
		expected := 0
		for i, mask := range masks {
			r := risk.Record{"row": i}
			for j, field := range required {
				if mask&(1<<j) != 0 {
					r[field] = nil
				}
			}
			if mask&0x1f == 0x1f {
				expected++
			}
			records[i] = r
		}

		out := Validate(records, required)
		if len(out) != expected || len(out) > len(records) {
			return false
		}
		for _, r := range out {
			if !HasFields(r, required) {
				return false
			}
		}
		return true
	}

	require.NoError(t, quick.Check(property, nil))
}

func TestDropped(t *testing.T) {
	assert.Equal(t, 3, Dropped(5, 2))
	assert.Equal(t, 0, Dropped(2, 2))
	assert.Equal(t, 0, Dropped(1, 4))
}
