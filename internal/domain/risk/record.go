package risk

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Record is a single flat risk record. Required keys depend on the record kind;
// any other keys pass through untouched.
type Record map[string]interface{}

// Field names shared across record kinds
const (
	FieldID          = "id"
	FieldTitle       = "title"
	FieldHeadline    = "headline"
	FieldDescription = "description"
	FieldDate        = "date"
	FieldCategory    = "category"
	FieldSeverity    = "severity"

	FieldReportingDate = "reporting_date"
	FieldRiskCats      = "risk_cats"
	FieldActorsOrigin  = "actors_origin"
	FieldQuarter       = "quarter"

	FieldName         = "name"
	FieldMetric       = "metric"
	FieldValue        = "value"
	FieldBenchmark    = "benchmark"
	FieldPublication  = "publication"
	FieldAvailability = "availability"
	FieldDatasetLink  = "dataset_link"

	FieldAssessment    = "assessment"
	FieldScore         = "score"
	FieldPublicID      = "public_id"
	FieldOrganizations = "organizations"
	FieldModels        = "models"
	FieldReleaseDate   = "release_date"
	FieldReviewed      = "reviewed"
)

// Derived fields added during processing and scoring. They are read-time
// annotations and are never persisted.
const (
	FieldDescriptionLength = "description_length"
	FieldTitleLength       = "title_length"
	FieldCategoryEncoded   = "category_encoded"
	FieldPredictedRisk     = "predicted_risk"
)

// DerivedFields lists every key the pipeline computes rather than collects.
var DerivedFields = []string{
	FieldDescriptionLength,
	FieldTitleLength,
	FieldCategoryEncoded,
	FieldPredictedRisk,
}

// IsDerived reports whether key is a computed annotation.
func IsDerived(key string) bool {
	for _, f := range DerivedFields {
		if f == key {
			return true
		}
	}
	return false
}

// Has reports whether the key is present, regardless of its value.
func (r Record) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// String returns the value under key as a string. Missing and nil values
// yield "".
func (r Record) String(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Float returns the numeric value under key. The second result is false when
// the key is missing or the value cannot be read as a number.
func (r Record) Float(key string) (float64, bool) {
	return ToFloat(r[key])
}

// Bool returns the boolean value under key.
func (r Record) Bool(key string) (bool, bool) {
	switch v := r[key].(type) {
	case bool:
		return v, true
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, false
		}
		return b, true
	default:
		return false, false
	}
}

// Time returns the value under key when it already holds a time.Time.
func (r Record) Time(key string) (time.Time, bool) {
	switch v := r[key].(type) {
	case time.Time:
		return v, true
	case *time.Time:
		if v == nil {
			return time.Time{}, false
		}
		return *v, true
	default:
		return time.Time{}, false
	}
}

// Strings returns a set-valued field as a string slice.
func (r Record) Strings(key string) []string {
	switch v := r[key].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if item == nil {
				continue
			}
			out = append(out, fmt.Sprint(item))
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	default:
		return nil
	}
}

// Clone returns a shallow copy. Slice values are copied so the clone can be
// mutated without touching the original.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		switch tv := v.(type) {
		case []string:
			out[k] = append([]string(nil), tv...)
		case []interface{}:
			out[k] = append([]interface{}(nil), tv...)
		default:
			out[k] = v
		}
	}
	return out
}

// CloneAll copies every record in the slice.
func CloneAll(records []Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}

// ToFloat converts the numeric shapes that arrive from JSON decoding, the
// database driver or hand-built records.
func ToFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return math.NaN(), false
	}
}

// JSONSafe returns a copy in which NaN and infinite floats are nil, since
// encoding/json rejects them.
func (r Record) JSONSafe() Record {
	out := make(Record, len(r))
	for k, v := range r {
		switch f := v.(type) {
		case float64:
			if math.IsNaN(f) || math.IsInf(f, 0) {
				out[k] = nil
				continue
			}
		case float32:
			if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
				out[k] = nil
				continue
			}
		}
		out[k] = v
	}
	return out
}

// JSONSafeAll applies JSONSafe to every record.
func JSONSafeAll(records []Record) []Record {
	if records == nil {
		return nil
	}
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r.JSONSafe()
	}
	return out
}
