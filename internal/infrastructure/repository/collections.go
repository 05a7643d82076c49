package repository

import (
	"fmt"

	"github.com/davidleathers/aire-backend/internal/domain/risk"
)

// Collection names a persisted table.
type Collection string

const (
	CollectionIncidents     Collection = "incidents"
	CollectionBenchmarks    Collection = "benchmarks"
	CollectionEvaluations   Collection = "evaluations"
	CollectionModelVersions Collection = "model_versions"
	CollectionModelCatalog  Collection = "model_catalog"
)

// Collections returns every collection in a stable order.
func Collections() []Collection {
	return []Collection{
		CollectionIncidents,
		CollectionBenchmarks,
		CollectionEvaluations,
		CollectionModelVersions,
		CollectionModelCatalog,
	}
}

func (c Collection) String() string { return string(c) }

// CollectionFor maps a record kind to the collection that stores it.
func CollectionFor(kind risk.Kind) (Collection, error) {
	switch kind {
	case risk.KindIncident:
		return CollectionIncidents, nil
	case risk.KindBenchmark:
		return CollectionBenchmarks, nil
	case risk.KindEvaluation:
		return CollectionEvaluations, nil
	case risk.KindModelVersion:
		return CollectionModelVersions, nil
	case risk.KindModelCatalogEntry:
		return CollectionModelCatalog, nil
	default:
		return "", fmt.Errorf("no collection for record kind %d", kind)
	}
}

type columnType int

const (
	colUUID columnType = iota
	colText
	colFloat
	colTimestamp
	colTextArray
	colBool
)

type column struct {
	name string
	typ  columnType
}

// attributesColumn holds every non-derived key without a dedicated column.
const attributesColumn = "attributes"

// sourceIDAttribute keeps an incoming id that is not a UUID.
const sourceIDAttribute = "source_id"

var schemas = map[Collection][]column{
	CollectionIncidents: {
		{risk.FieldID, colUUID},
		{risk.FieldTitle, colText},
		{risk.FieldHeadline, colText},
		{risk.FieldDescription, colText},
		{risk.FieldDate, colTimestamp},
		{risk.FieldCategory, colText},
		{risk.FieldSeverity, colFloat},
		{risk.FieldReportingDate, colTimestamp},
		{risk.FieldRiskCats, colTextArray},
		{risk.FieldActorsOrigin, colTextArray},
		{risk.FieldQuarter, colText},
	},
	CollectionBenchmarks: {
		{risk.FieldID, colUUID},
		{risk.FieldName, colText},
		{risk.FieldMetric, colText},
		{risk.FieldValue, colFloat},
		{risk.FieldCategory, colText},
		{risk.FieldBenchmark, colText},
		{risk.FieldPublication, colText},
		{risk.FieldAvailability, colText},
		{risk.FieldRiskCats, colTextArray},
		{risk.FieldDatasetLink, colText},
		{risk.FieldDate, colTimestamp},
	},
	CollectionEvaluations: {
		{risk.FieldID, colUUID},
		{risk.FieldAssessment, colText},
		{risk.FieldScore, colFloat},
		{risk.FieldCategory, colText},
		{risk.FieldDate, colTimestamp},
		{risk.FieldPublication, colText},
		{risk.FieldPublicID, colText},
		{risk.FieldOrganizations, colTextArray},
		{risk.FieldModels, colTextArray},
		{risk.FieldRiskCats, colTextArray},
		{risk.FieldReleaseDate, colTimestamp},
		{risk.FieldReviewed, colBool},
	},
	CollectionModelVersions: {
		{risk.FieldID, colUUID},
		{risk.FieldName, colText},
	},
	CollectionModelCatalog: {
		{risk.FieldID, colUUID},
		{risk.FieldName, colText},
	},
}

func schemaFor(c Collection) ([]column, error) {
	cols, ok := schemas[c]
	if !ok {
		return nil, fmt.Errorf("unknown collection %q", c)
	}
	return cols, nil
}

// columnNames lists the table's columns in insert/select order, attributes last.
func columnNames(cols []column) []string {
	names := make([]string, 0, len(cols)+1)
	for _, c := range cols {
		names = append(names, c.name)
	}
	return append(names, attributesColumn)
}

func lookupColumn(cols []column, name string) (column, bool) {
	for _, c := range cols {
		if c.name == name {
			return c, true
		}
	}
	return column{}, false
}
