package processing

import (
	"math"
	"unicode/utf8"

	"github.com/davidleathers/aire-backend/internal/domain/risk"
	"github.com/davidleathers/aire-backend/internal/domain/validation"
)

// IncidentsProcessor validates incidents, parses their dates, adds text
// length features and rescales severity into [0, 1] across the batch.
type IncidentsProcessor struct{}

func (IncidentsProcessor) Kind() risk.Kind { return risk.KindIncident }

func (IncidentsProcessor) Process(records []risk.Record) []risk.Record {
	valid := validation.ValidateIncidents(records)
	if len(valid) == 0 {
		return valid
	}

	valid = parseDates(valid, risk.FieldDate)
	if len(valid) == 0 {
		return valid
	}

	for _, r := range valid {
		r[risk.FieldDescriptionLength] = utf8.RuneCountInString(r.String(risk.FieldDescription))
		r[risk.FieldTitleLength] = utf8.RuneCountInString(r.String(risk.FieldTitle))
	}

	severities := make([]float64, len(valid))
	for i, r := range valid {
		severities[i] = numericOrNaN(r, risk.FieldSeverity)
	}
	for i, s := range MinMaxScale(severities) {
		valid[i][risk.FieldSeverity] = s
	}
	return valid
}

// MinMaxScale maps values onto [0, 1] using the finite minimum and maximum.
// Non-finite inputs come back as NaN. When the range is zero, including a
// single value, every result is NaN.
func MinMaxScale(values []float64) []float64 {
	out := make([]float64, len(values))
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	span := hi - lo
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) || !(span > 0) {
			out[i] = math.NaN()
			continue
		}
		out[i] = (v - lo) / span
	}
	return out
}

func numericOrNaN(r risk.Record, field string) float64 {
	f, ok := r.Float(field)
	if !ok {
		return math.NaN()
	}
	return f
}
