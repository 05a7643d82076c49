package scoring

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var errNoTrainingRows = errors.New("no training rows")

// RidgeRegressor is an L2-regularized linear model. Features are standardized
// before fitting and the intercept is not penalized.
type RidgeRegressor struct {
	lambda    float64
	mean      []float64
	scale     []float64
	coef      []float64
	intercept float64
}

// FitRidge trains on rows x against targets y.
func FitRidge(x [][]float64, y []float64, lambda float64) (*RidgeRegressor, error) {
	n := len(x)
	if n == 0 {
		return nil, errNoTrainingRows
	}
	if len(y) != n {
		return nil, fmt.Errorf("feature rows %d and targets %d differ", n, len(y))
	}
	p := len(x[0])

	r := &RidgeRegressor{
		lambda: lambda,
		mean:   make([]float64, p),
		scale:  make([]float64, p),
	}

	col := make([]float64, n)
	for j := 0; j < p; j++ {
		for i := range x {
			col[i] = x[i][j]
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		r.mean[j], r.scale[j] = mean, std
	}

	yMean := stat.Mean(y, nil)
	design := mat.NewDense(n, p, nil)
	target := mat.NewVecDense(n, nil)
	for i, row := range x {
		for j, v := range row {
			design.Set(i, j, (v-r.mean[j])/r.scale[j])
		}
		target.SetVec(i, y[i]-yMean)
	}

	// (XᵀX + λI) β = Xᵀy on centered data
	var gram mat.Dense
	gram.Mul(design.T(), design)
	for j := 0; j < p; j++ {
		gram.Set(j, j, gram.At(j, j)+lambda)
	}
	var rhs mat.VecDense
	rhs.MulVec(design.T(), target)

	var beta mat.VecDense
	if err := beta.SolveVec(&gram, &rhs); err != nil {
		return nil, fmt.Errorf("solving normal equations: %w", err)
	}

	r.coef = make([]float64, p)
	for j := range r.coef {
		r.coef[j] = beta.AtVec(j)
	}
	r.intercept = yMean
	return r, nil
}

// Predict returns the model output for one feature row. A row of the wrong
// width or with non-finite values yields NaN.
func (r *RidgeRegressor) Predict(row []float64) float64 {
	if len(row) != len(r.coef) {
		return math.NaN()
	}
	out := r.intercept
	for j, v := range row {
		if !finite(v) {
			return math.NaN()
		}
		out += r.coef[j] * (v - r.mean[j]) / r.scale[j]
	}
	return out
}

// Coefficients are reported on the standardized feature scale.
func (r *RidgeRegressor) Coefficients() []float64 {
	out := make([]float64, len(r.coef))
	copy(out, r.coef)
	return out
}

func (r *RidgeRegressor) Intercept() float64 { return r.intercept }

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
