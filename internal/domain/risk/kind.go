package risk

import "fmt"

// Domain is a top-level risk category.
type Domain string

const (
	DomainAI            Domain = "AI"
	DomainBio           Domain = "Bio"
	DomainLossOfControl Domain = "Loss of Control"
)

// Domains returns the three domains in a stable order.
func Domains() []Domain {
	return []Domain{DomainAI, DomainBio, DomainLossOfControl}
}

func (d Domain) String() string {
	return string(d)
}

// Slug is the short identifier used in flags and metric attributes.
func (d Domain) Slug() string {
	switch d {
	case DomainAI:
		return "ai"
	case DomainBio:
		return "bio"
	case DomainLossOfControl:
		return "loss_of_control"
	default:
		return "unknown"
	}
}

// ParseDomain accepts either the label or the slug of a domain.
func ParseDomain(s string) (Domain, error) {
	for _, d := range Domains() {
		if s == string(d) || s == d.Slug() {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown risk domain %q", s)
}

// Kind is the schema family of a record.
type Kind int

const (
	KindIncident Kind = iota
	KindBenchmark
	KindEvaluation
	KindModelVersion
	KindModelCatalogEntry
)

// Kinds returns the record kinds produced by collectors.
func Kinds() []Kind {
	return []Kind{KindIncident, KindBenchmark, KindEvaluation}
}

func (k Kind) String() string {
	switch k {
	case KindIncident:
		return "incidents"
	case KindBenchmark:
		return "benchmarks"
	case KindEvaluation:
		return "evaluations"
	case KindModelVersion:
		return "model_versions"
	case KindModelCatalogEntry:
		return "model_catalog"
	default:
		return "unknown"
	}
}

// ParseKind converts the plural kind name back into a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range []Kind{KindIncident, KindBenchmark, KindEvaluation, KindModelVersion, KindModelCatalogEntry} {
		if s == k.String() {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown record kind %q", s)
}

var requiredFields = map[Kind][]string{
	KindIncident:   {FieldTitle, FieldDescription, FieldDate, FieldCategory, FieldSeverity},
	KindBenchmark:  {FieldName, FieldMetric, FieldValue, FieldCategory},
	KindEvaluation: {FieldAssessment, FieldScore, FieldCategory, FieldDate},
}

// RequiredFields returns the keys a record of the given kind must carry to be
// admitted for processing. Auxiliary kinds have no required fields.
func RequiredFields(k Kind) []string {
	fields := requiredFields[k]
	out := make([]string, len(fields))
	copy(out, fields)
	return out
}
