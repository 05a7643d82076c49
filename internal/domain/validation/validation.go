package validation

import (
	"github.com/davidleathers/aire-backend/internal/domain/risk"
)

// Validate keeps the records that carry every required key. Only key presence
// is checked: a present key with an empty or nil value still counts. Records
// that fail are dropped silently and the input slice is left untouched.
func Validate(records []risk.Record, required []string) []risk.Record {
	validated := make([]risk.Record, 0, len(records))
	for _, record := range records {
		if HasFields(record, required) {
			validated = append(validated, record)
		}
	}
	return validated
}

// HasFields reports whether the record carries every key in fields.
func HasFields(record risk.Record, fields []string) bool {
	for _, field := range fields {
		if !record.Has(field) {
			return false
		}
	}
	return true
}

// ValidateIncidents filters incident records
func ValidateIncidents(records []risk.Record) []risk.Record {
	return Validate(records, risk.RequiredFields(risk.KindIncident))
}

// ValidateBenchmarks filters benchmark records
func ValidateBenchmarks(records []risk.Record) []risk.Record {
	return Validate(records, risk.RequiredFields(risk.KindBenchmark))
}

// ValidateEvaluations filters evaluation records
func ValidateEvaluations(records []risk.Record) []risk.Record {
	return Validate(records, risk.RequiredFields(risk.KindEvaluation))
}

// ValidateKind filters records against the required-field set of kind.
func ValidateKind(kind risk.Kind, records []risk.Record) []risk.Record {
	return Validate(records, risk.RequiredFields(kind))
}

// Dropped is the number of records lost between two stages.
func Dropped(before, after int) int {
	if after >= before {
		return 0
	}
	return before - after
}
