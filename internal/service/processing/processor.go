// Package processing turns validated raw records into model-ready records.
// Processors mutate the records they keep and return them; rejected records
// are dropped without error.
package processing

import (
	"fmt"

	"github.com/davidleathers/aire-backend/internal/domain/risk"
)

// Processor prepares one kind of record for scoring and storage.
type Processor interface {
	Kind() risk.Kind
	Process(records []risk.Record) []risk.Record
}

// ForKind returns the processor registered for kind.
func ForKind(kind risk.Kind) (Processor, error) {
	switch kind {
	case risk.KindIncident:
		return IncidentsProcessor{}, nil
	case risk.KindBenchmark:
		return BenchmarksProcessor{}, nil
	case risk.KindEvaluation:
		return EvaluationsProcessor{}, nil
	default:
		return nil, fmt.Errorf("no processor for kind %s", kind)
	}
}

// parseDates replaces the value under field with a UTC time and drops
// records whose value cannot be parsed.
func parseDates(records []risk.Record, field string) []risk.Record {
	kept := make([]risk.Record, 0, len(records))
	for _, r := range records {
		t, ok := risk.ParseTime(r[field])
		if !ok {
			continue
		}
		r[field] = t
		kept = append(kept, r)
	}
	return kept
}

// coerceFloats converts the value under field to float64 and drops records
// where that is not possible.
func coerceFloats(records []risk.Record, field string) []risk.Record {
	kept := make([]risk.Record, 0, len(records))
	for _, r := range records {
		f, ok := r.Float(field)
		if !ok {
			continue
		}
		r[field] = f
		kept = append(kept, r)
	}
	return kept
}
