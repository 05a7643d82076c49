package repository

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidleathers/aire-backend/internal/domain/risk"
)

func TestEncodeRecord_Incident(t *testing.T) {
	cols := schemas[CollectionIncidents]
	id := uuid.New()

	row, err := encodeRecord(cols, risk.Record{
		"id":                 id.String(),
		"title":              "Deepfake robocall",
		"description":        "Synthetic voice used in election calls.",
		"date":               "2024-01-21",
		"category":           "AI",
		"severity":           math.NaN(),
		"risk_cats":          []interface{}{"Misinformation", "Fraud"},
		"description_length": 39,
		"predicted_risk":     0.4,
		"source":             "newsroom",
		"confidence":         math.Inf(1),
	})
	require.NoError(t, err)
	require.Len(t, row, len(cols)+1)

	assert.Equal(t, id, row[0])
	assert.Equal(t, "Deepfake robocall", row[1])
	assert.Nil(t, row[2], "headline absent")
	assert.Equal(t, time.Date(2024, 1, 21, 0, 0, 0, 0, time.UTC), row[4])
	assert.True(t, math.IsNaN(row[6].(float64)))
	assert.Equal(t, []string{"Misinformation", "Fraud"}, row[8])

	var attrs map[string]interface{}
	require.NoError(t, json.Unmarshal(row[len(row)-1].([]byte), &attrs))
	assert.Equal(t, map[string]interface{}{"source": "newsroom", "confidence": nil}, attrs)
}

func TestEncodeRecord_Coercions(t *testing.T) {
	cols := schemas[CollectionEvaluations]

	row, err := encodeRecord(cols, risk.Record{
		"id":         "EVAL-7",
		"assessment": "Bias Audit",
		"score":      "7.5",
		"date":       "not a date",
		"reviewed":   "true",
	})
	require.NoError(t, err)

	_, isUUID := row[0].(uuid.UUID)
	assert.True(t, isUUID)
	assert.Equal(t, 7.5, row[2])
	assert.Nil(t, row[4], "unparseable date is stored as NULL")
	assert.Equal(t, true, row[11])

	var attrs map[string]interface{}
	require.NoError(t, json.Unmarshal(row[len(row)-1].([]byte), &attrs))
	assert.Equal(t, "EVAL-7", attrs[sourceIDAttribute])
}

func TestEncodeID(t *testing.T) {
	fixed := uuid.New()

	id, src := encodeID(nil)
	assert.NotEqual(t, uuid.Nil, id)
	assert.Empty(t, src)

	id, src = encodeID(fixed)
	assert.Equal(t, fixed, id)
	assert.Empty(t, src)

	id, src = encodeID([16]byte(fixed))
	assert.Equal(t, fixed, id)
	assert.Empty(t, src)

	_, src = encodeID(12)
	assert.Equal(t, "12", src)
}

func TestDecodeRow(t *testing.T) {
	cols := schemas[CollectionBenchmarks]
	id := uuid.New()
	when := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

	rec := decodeRow(cols, map[string]interface{}{
		"id":           [16]byte(id),
		"name":         "GLUE Score",
		"value":        92.3,
		"risk_cats":    []interface{}{"Capabilities"},
		"availability": nil,
		"date":         when,
		"attributes":   map[string]interface{}{"source": "papers", "name": "shadowed"},
	})

	assert.Equal(t, id.String(), rec["id"])
	assert.Equal(t, "GLUE Score", rec["name"], "columns win over attributes")
	assert.Equal(t, []string{"Capabilities"}, rec["risk_cats"])
	assert.True(t, rec.Has("availability"))
	assert.Nil(t, rec["availability"])
	assert.Equal(t, when, rec["date"])
	assert.Equal(t, "papers", rec["source"])
	assert.NotContains(t, rec, "attributes")
}
