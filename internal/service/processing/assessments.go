package processing

import (
	"github.com/davidleathers/aire-backend/internal/domain/risk"
	"github.com/davidleathers/aire-backend/internal/domain/validation"
)

// BenchmarksProcessor validates benchmarks and coerces value to a float.
type BenchmarksProcessor struct{}

func (BenchmarksProcessor) Kind() risk.Kind { return risk.KindBenchmark }

func (BenchmarksProcessor) Process(records []risk.Record) []risk.Record {
	return coerceFloats(validation.ValidateBenchmarks(records), risk.FieldValue)
}

// EvaluationsProcessor validates evaluations, parses their dates and coerces
// score to a float.
type EvaluationsProcessor struct{}

func (EvaluationsProcessor) Kind() risk.Kind { return risk.KindEvaluation }

func (EvaluationsProcessor) Process(records []risk.Record) []risk.Record {
	valid := parseDates(validation.ValidateEvaluations(records), risk.FieldDate)
	return coerceFloats(valid, risk.FieldScore)
}
