package analysis

import (
	"fmt"
	"math"
	"sort"

	"pairstat/domain/core"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ModelKind distinguishes the fitted model families
type ModelKind string

const (
	ModelLinear ModelKind = "linear"
	ModelLogLog ModelKind = "loglog"
)

// Model is a fitted single-variable regression. For log-log models Slope
// and Intercept are β and α in log10 space.
type Model struct {
	Kind      ModelKind `json:"kind"`
	Slope     float64   `json:"slope"`
	Intercept float64   `json:"intercept"`
	RSquared  float64   `json:"r_squared"`
	N         int       `json:"n"`
}

// Point is one (x, y) pair of a chart series
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// IsLogLog reports whether the model was fitted on log10-transformed data
func (m Model) IsLogLog() bool {
	return m.Kind == ModelLogLog
}

// Coefficient returns c in y = c·x^β for log-log models, and the intercept otherwise.
func (m Model) Coefficient() float64 {
	if m.IsLogLog() {
		return math.Pow(10, m.Intercept)
	}
	return m.Intercept
}

// Equation renders the fitted model for reports
func (m Model) Equation() string {
	if m.IsLogLog() {
		return fmt.Sprintf("log10(y) = %.4f + %.4f·log10(x)", m.Intercept, m.Slope)
	}
	return fmt.Sprintf("y = %.4f + %.4f·x", m.Intercept, m.Slope)
}

// FitLinear fits y = a + b·x by ordinary least squares over the rows where
// both values are non-null.
func FitLinear(x, y []float64) (Model, error) {
	xs, ys, err := finitePairs(x, y)
	if err != nil {
		return Model{}, err
	}
	return fitOLS(ModelLinear, xs, ys)
}

// FitLogLog fits log10(y) = α + β·log10(x). Every observation must be
// strictly positive; a single non-positive value fails the fit rather than
// being dropped.
func FitLogLog(x, y []float64) (Model, error) {
	xs, ys, err := finitePairs(x, y)
	if err != nil {
		return Model{}, err
	}
	for i := range xs {
		if xs[i] <= 0 {
			return Model{}, core.NewNonPositiveValueError("x", i, xs[i])
		}
		if ys[i] <= 0 {
			return Model{}, core.NewNonPositiveValueError("y", i, ys[i])
		}
	}

	logX := make([]float64, len(xs))
	logY := make([]float64, len(ys))
	for i := range xs {
		logX[i] = math.Log10(xs[i])
		logY[i] = math.Log10(ys[i])
	}
	m, err := fitOLS(ModelLogLog, logX, logY)
	if err != nil {
		return Model{}, err
	}
	if err := checkFinite("coefficient 10^α", m.Coefficient()); err != nil {
		return Model{}, err
	}
	return m, nil
}

// fitOLS fits on values scaled by powers of two so that large inputs do not
// overflow the sums of squares; slope and intercept are scaled back exactly.
func fitOLS(kind ModelKind, xs, ys []float64) (Model, error) {
	n := len(xs)
	if n < 2 {
		return Model{}, core.NewInsufficientDataError(n, 2)
	}
	if isConstant(xs) {
		return Model{}, core.NewDegenerateVarianceError("x is constant, slope undefined")
	}
	if isConstant(ys) {
		return Model{}, core.NewDegenerateVarianceError("y is constant, R² undefined")
	}

	ex, ey := scaleExp(xs), scaleExp(ys)
	sx, sy := rescale(xs, ex), rescale(ys, ey)
	alpha, beta := stat.LinearRegression(sx, sy, nil, false)
	r2 := stat.RSquared(sx, sy, nil, alpha, beta)

	m := Model{
		Kind:      kind,
		Slope:     math.Ldexp(beta, ey-ex),
		Intercept: math.Ldexp(alpha, ey),
		RSquared:  r2,
		N:         n,
	}
	if err := checkFinite("fitted coefficients", m.Slope, m.Intercept, m.RSquared); err != nil {
		return Model{}, err
	}
	return m, nil
}

// Predict applies the fitted model. Log-log models back-transform with
// ŷ = 10^α · x^β and reject non-positive inputs.
func (m Model) Predict(xs []float64) ([]float64, error) {
	out := make([]float64, len(xs))
	for i, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, fmt.Errorf("%w: x[%d]", core.ErrNonFiniteValue, i)
		}
		if m.IsLogLog() {
			if x <= 0 {
				return nil, core.NewNonPositiveValueError("x", i, x)
			}
			out[i] = math.Pow(10, m.Intercept+m.Slope*math.Log10(x))
		} else {
			out[i] = m.Intercept + m.Slope*x
		}
		if math.IsInf(out[i], 0) || math.IsNaN(out[i]) {
			return nil, core.NewNonFiniteValueError(fmt.Sprintf("prediction at x[%d] = %g", i, x))
		}
	}
	return out, nil
}

// FittedLine returns the model's predictions at the distinct values of xs in
// ascending order, ready to be drawn as a line over a scatter plot.
func FittedLine(m Model, xs []float64) ([]Point, error) {
	sorted := dropNaN(xs)
	sort.Float64s(sorted)
	sorted = dedupSorted(sorted)

	ys, err := m.Predict(sorted)
	if err != nil {
		return nil, err
	}
	line := make([]Point, len(sorted))
	for i := range sorted {
		line[i] = Point{X: sorted[i], Y: ys[i]}
	}
	return line, nil
}

// Residuals returns y − ŷ for each observation
func Residuals(m Model, x, y []float64) ([]float64, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("%w: %d vs %d", core.ErrLengthMismatch, len(x), len(y))
	}
	pred, err := m.Predict(x)
	if err != nil {
		return nil, err
	}
	res := make([]float64, len(y))
	floats.SubTo(res, y, pred)
	if err := checkFinite("residuals", res...); err != nil {
		return nil, err
	}
	return res, nil
}

func dedupSorted(values []float64) []float64 {
	if len(values) == 0 {
		return values
	}
	out := values[:1]
	for _, v := range values[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}
