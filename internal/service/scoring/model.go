// Package scoring estimates a predicted_risk for incident records. With too
// little data the estimate is the normalized severity itself; otherwise a
// ridge regression is fitted on a deterministic train split.
package scoring

import (
	"math"
	"math/rand/v2"

	"github.com/davidleathers/aire-backend/internal/domain/risk"
	"github.com/davidleathers/aire-backend/internal/infrastructure/config"
)

// featureFields is the model's feature row, in column order.
var featureFields = []string{
	risk.FieldSeverity,
	risk.FieldDescriptionLength,
	risk.FieldTitleLength,
	risk.FieldCategoryEncoded,
}

// Model holds scoring options only. Fitted parameters live in TrainingState,
// so one Model may serve concurrent calls.
type Model struct {
	seed     uint64
	testSize float64
	minRows  int
	lambda   float64
}

// TrainingState is the result of Fit. When Trained is false, Predict returns
// each record's severity unchanged.
type TrainingState struct {
	Encoder   *LabelEncoder
	Estimator *RidgeRegressor
	Trained   bool
	TrainRows int
	TestRows  int
}

func NewModel(cfg config.ScoringConfig) *Model {
	return &Model{
		seed:     cfg.Seed,
		testSize: cfg.TestSize,
		minRows:  cfg.MinTrainingRows,
		lambda:   cfg.RidgeLambda,
	}
}

// Fit encodes categories and, when there are more than the minimum number of
// records, trains the estimator on the training side of the split. Rows with
// a non-finite feature or target are left out of training.
func (m *Model) Fit(records []risk.Record) TrainingState {
	if len(records) == 0 {
		return TrainingState{}
	}

	labels := make([]string, len(records))
	for i, r := range records {
		labels[i] = r.String(risk.FieldCategory)
	}
	state := TrainingState{Encoder: NewLabelEncoder(labels)}
	if len(records) <= m.minRows {
		return state
	}

	train, test := m.split(len(records))
	state.TestRows = len(test)

	var x [][]float64
	var y []float64
	for _, i := range train {
		row := features(records[i], state.Encoder)
		target := row[0]
		if !finite(target) || !allFinite(row) {
			continue
		}
		x = append(x, row)
		y = append(y, target)
	}
	state.TrainRows = len(x)
	if len(x) == 0 {
		return state
	}

	est, err := FitRidge(x, y, m.lambda)
	if err != nil {
		return state
	}
	state.Estimator = est
	state.Trained = true
	return state
}

// Predict scores every record against state. Records whose features cannot
// be computed score NaN.
func (m *Model) Predict(state TrainingState, records []risk.Record) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		if !state.Trained {
			out[i] = severity(r)
			continue
		}
		out[i] = state.Estimator.Predict(features(r, state.Encoder))
	}
	return out
}

// AssessRisks fits on records, then annotates each one with category_encoded
// and predicted_risk. No record is dropped.
func (m *Model) AssessRisks(records []risk.Record) ([]risk.Record, TrainingState) {
	if len(records) == 0 {
		return []risk.Record{}, TrainingState{}
	}

	state := m.Fit(records)
	predictions := m.Predict(state, records)
	for i, r := range records {
		if code, ok := state.Encoder.Encode(r.String(risk.FieldCategory)); ok {
			r[risk.FieldCategoryEncoded] = code
		}
		r[risk.FieldPredictedRisk] = predictions[i]
	}
	return records, state
}

// split shuffles row indices with the fixed seed and holds out
// ceil(testSize*n) of them.
func (m *Model) split(n int) (train, test []int) {
	rng := rand.New(rand.NewPCG(m.seed, m.seed))
	perm := rng.Perm(n)

	nTest := int(math.Ceil(m.testSize * float64(n)))
	if nTest >= n {
		nTest = n - 1
	}
	return perm[nTest:], perm[:nTest]
}

func features(r risk.Record, enc *LabelEncoder) []float64 {
	row := make([]float64, len(featureFields))
	for j, f := range featureFields[:3] {
		v, ok := r.Float(f)
		if !ok {
			v = math.NaN()
		}
		row[j] = v
	}
	code, ok := enc.Encode(r.String(risk.FieldCategory))
	if ok {
		row[3] = float64(code)
	} else {
		row[3] = math.NaN()
	}
	return row
}

func severity(r risk.Record) float64 {
	v, ok := r.Float(risk.FieldSeverity)
	if !ok {
		return math.NaN()
	}
	return v
}

func allFinite(row []float64) bool {
	for _, v := range row {
		if !finite(v) {
			return false
		}
	}
	return true
}
