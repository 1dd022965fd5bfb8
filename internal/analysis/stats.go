// Package analysis holds the statistics and regression computations for a
// pair of numeric columns. Every function is pure: inputs are never
// modified and NaN entries mark null observations.
package analysis

import (
	"fmt"
	"math"

	"pairstat/domain/core"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// SummaryStatistics describes one column
type SummaryStatistics struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
}

// CorrelationDetail exposes the sums behind Pearson's r
type CorrelationDetail struct {
	R         float64 `json:"r"`
	N         int     `json:"n"`
	MeanX     float64 `json:"mean_x"`
	MeanY     float64 `json:"mean_y"`
	Numerator float64 `json:"numerator"` // Σ(x−x̄)(y−ȳ)
	SumSqX    float64 `json:"sum_sq_x"`  // Σ(x−x̄)²
	SumSqY    float64 `json:"sum_sq_y"`  // Σ(y−ȳ)²
	// PValue is the two-sided t-test of r = 0. It is 1 when n < 3.
	PValue float64 `json:"p_value"`
}

// RatioStatistics summarizes k = y/x over rows with x ≠ 0
type RatioStatistics struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
}

// Summarize computes count, min, max, mean and median over the non-null
// values of a column. Infinite values fail with ErrNonFiniteValue.
func Summarize(values []float64) (SummaryStatistics, error) {
	data := dropNaN(values)
	if len(data) == 0 {
		return SummaryStatistics{}, core.ErrEmptyColumn
	}
	if err := rejectInf("value", data); err != nil {
		return SummaryStatistics{}, err
	}

	min, _ := stats.Min(data)
	max, _ := stats.Max(data)
	e := scaleExp(data)
	scaled := rescale(data, e)
	mean, _ := stats.Mean(scaled)
	median, _ := stats.Median(scaled)

	summary := SummaryStatistics{
		Count:  len(data),
		Min:    min,
		Max:    max,
		Mean:   math.Ldexp(mean, e),
		Median: math.Ldexp(median, e),
	}
	if err := checkFinite("summary", summary.Mean, summary.Median); err != nil {
		return SummaryStatistics{}, err
	}
	return summary, nil
}

// pearsonSums holds the centred sums of a pair of columns, computed on
// values scaled by 2^−ex and 2^−ey.
type pearsonSums struct {
	n             int
	ex, ey        int
	meanX, meanY  float64
	num, sxx, syy float64
}

func (p pearsonSums) r() float64 {
	return clamp(p.num/math.Sqrt(p.sxx*p.syy), -1, 1)
}

func pearson(x, y []float64) (pearsonSums, error) {
	xs, ys, err := finitePairs(x, y)
	if err != nil {
		return pearsonSums{}, err
	}
	n := len(xs)
	if n < 2 {
		return pearsonSums{}, core.NewInsufficientDataError(n, 2)
	}
	if isConstant(xs) {
		return pearsonSums{}, core.NewDegenerateVarianceError("x is constant")
	}
	if isConstant(ys) {
		return pearsonSums{}, core.NewDegenerateVarianceError("y is constant")
	}

	p := pearsonSums{n: n, ex: scaleExp(xs), ey: scaleExp(ys)}
	xs, ys = rescale(xs, p.ex), rescale(ys, p.ey)
	p.meanX, _ = stats.Mean(xs)
	p.meanY, _ = stats.Mean(ys)
	for i := range xs {
		dx := xs[i] - p.meanX
		dy := ys[i] - p.meanY
		p.num += dx * dy
		p.sxx += dx * dx
		p.syy += dy * dy
	}
	if p.sxx == 0 || p.syy == 0 {
		return pearsonSums{}, core.NewDegenerateVarianceError("values too close to separate")
	}
	return p, nil
}

// Correlate returns Pearson's r over the rows where both x and y are non-null.
func Correlate(x, y []float64) (float64, error) {
	p, err := pearson(x, y)
	if err != nil {
		return 0, err
	}
	return p.r(), nil
}

// Correlation computes Pearson's r together with its intermediate sums and
// significance. Sums that do not fit in a float64 fail with
// ErrNonFiniteValue; Correlate still works on such data.
func Correlation(x, y []float64) (CorrelationDetail, error) {
	p, err := pearson(x, y)
	if err != nil {
		return CorrelationDetail{}, err
	}
	r := p.r()
	detail := CorrelationDetail{
		R:         r,
		N:         p.n,
		MeanX:     math.Ldexp(p.meanX, p.ex),
		MeanY:     math.Ldexp(p.meanY, p.ey),
		Numerator: math.Ldexp(p.num, p.ex+p.ey),
		SumSqX:    math.Ldexp(p.sxx, 2*p.ex),
		SumSqY:    math.Ldexp(p.syy, 2*p.ey),
		PValue:    correlationPValue(r, p.n),
	}
	if err := checkFinite("correlation sums", detail.Numerator, detail.SumSqX, detail.SumSqY); err != nil {
		return CorrelationDetail{}, err
	}
	return detail, nil
}

// correlationPValue tests r = 0 with t = r·sqrt((n−2)/(1−r²)) on n−2 degrees of freedom.
func correlationPValue(r float64, n int) float64 {
	if n < 3 {
		return 1
	}
	if math.Abs(r) == 1 {
		return 0
	}
	df := float64(n - 2)
	t := r * math.Sqrt(df/(1-r*r))
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return clamp(2*(1-tDist.CDF(math.Abs(t))), 0, 1)
}

// RatioStats summarizes k = y/x over the rows where x ≠ 0.
func RatioStats(x, y []float64) (RatioStatistics, error) {
	ks, err := Ratios(x, y)
	if err != nil {
		return RatioStatistics{}, err
	}
	data := dropNaN(ks)
	if len(data) == 0 {
		return RatioStatistics{}, fmt.Errorf("%w: no rows with x ≠ 0", core.ErrEmptyResult)
	}

	min, _ := stats.Min(data)
	max, _ := stats.Max(data)
	e := scaleExp(data)
	median, _ := stats.Median(rescale(data, e))

	return RatioStatistics{
		Count:  len(data),
		Min:    min,
		Max:    max,
		Median: math.Ldexp(median, e),
	}, nil
}

// Ratios returns k = y/x per row, with NaN where x is 0 or either value is
// null. An infinite input or a quotient beyond the float64 range fails with
// ErrNonFiniteValue.
func Ratios(x, y []float64) ([]float64, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("%w: %d vs %d", core.ErrLengthMismatch, len(x), len(y))
	}
	ks := make([]float64, len(x))
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) || x[i] == 0 {
			ks[i] = math.NaN()
			continue
		}
		k := y[i] / x[i]
		if math.IsInf(x[i], 0) || math.IsInf(y[i], 0) || math.IsInf(k, 0) {
			return nil, core.NewNonFiniteValueError(fmt.Sprintf("k[%d] = %g/%g", i, y[i], x[i]))
		}
		ks[i] = k
	}
	return ks, nil
}

// pairs returns copies of x and y restricted to rows where both are non-null.
func pairs(x, y []float64) ([]float64, []float64, error) {
	if len(x) != len(y) {
		return nil, nil, fmt.Errorf("%w: %d vs %d", core.ErrLengthMismatch, len(x), len(y))
	}
	xs := make([]float64, 0, len(x))
	ys := make([]float64, 0, len(y))
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	return xs, ys, nil
}

func dropNaN(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
