package analysis

import (
	"fmt"
	"math"

	"pairstat/domain/core"

	"gonum.org/v1/gonum/floats"
)

// scaleExp returns e such that every |v|·2^−e is below 2. Scaling by a power
// of two is exact, so sums of squares computed on the scaled values cannot
// overflow and rescaling with math.Ldexp loses nothing.
func scaleExp(values []float64) int {
	var m float64
	for _, v := range values {
		if a := math.Abs(v); a > m {
			m = a
		}
	}
	if m == 0 {
		return 0
	}
	_, exp := math.Frexp(m)
	return exp - 1
}

// rescale returns values·2^−e
func rescale(values []float64, e int) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = math.Ldexp(v, -e)
	}
	return out
}

func rejectInf(name string, values []float64) error {
	for i, v := range values {
		if math.IsInf(v, 0) {
			return core.NewNonFiniteValueError(fmt.Sprintf("%s[%d] = %g", name, i, v))
		}
	}
	return nil
}

func checkFinite(what string, values ...float64) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return core.NewNonFiniteValueError(what + " out of float64 range")
		}
	}
	return nil
}

// isConstant compares the extremes exactly; a sum of squared deviations is
// not reliably zero for constants such as 0.1.
func isConstant(values []float64) bool {
	return floats.Min(values) == floats.Max(values)
}

// finitePairs is pairs plus the rejection of infinite observations
func finitePairs(x, y []float64) ([]float64, []float64, error) {
	xs, ys, err := pairs(x, y)
	if err != nil {
		return nil, nil, err
	}
	if err := rejectInf("x", xs); err != nil {
		return nil, nil, err
	}
	if err := rejectInf("y", ys); err != nil {
		return nil, nil, err
	}
	return xs, ys, nil
}
