package analysis

import (
	"fmt"
	"math"
	"sort"

	"pairstat/domain/core"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Histogram holds equal-width bin edges and the count in each bin.
// Bin i covers [Edges[i], Edges[i+1]); the last bin also holds its upper edge.
type Histogram struct {
	Edges  []float64 `json:"edges"`
	Counts []float64 `json:"counts"`
}

// NewHistogram bins the non-null values into the requested number of
// equal-width bins. Constant input yields a single bin. Infinite values fail
// with ErrNonFiniteValue.
func NewHistogram(values []float64, bins int) (Histogram, error) {
	if bins < 1 {
		return Histogram{}, fmt.Errorf("histogram: bins must be positive, got %d", bins)
	}
	data := dropNaN(values)
	if len(data) == 0 {
		return Histogram{}, core.ErrEmptyColumn
	}
	if err := rejectInf("value", data); err != nil {
		return Histogram{}, err
	}
	sort.Float64s(data)

	lo, hi := data[0], data[len(data)-1]
	var edges []float64
	if lo == hi {
		edges = []float64{lo - 0.5, hi + 0.5}
	} else {
		// span on scaled bounds so hi − lo cannot overflow
		e := scaleExp([]float64{lo, hi})
		edges = floats.Span(make([]float64, bins+1), math.Ldexp(lo, -e), math.Ldexp(hi, -e))
		for i := range edges {
			edges[i] = math.Ldexp(edges[i], e)
		}
		edges[0], edges[bins] = lo, hi
	}

	// stat.Histogram wants every value below the top edge, so values equal
	// to it are added to the last bin by hand
	top := edges[len(edges)-1]
	below := sort.SearchFloat64s(data, top)
	counts := make([]float64, len(edges)-1)
	if below > 0 {
		counts = stat.Histogram(counts, edges, data[:below], nil)
	}
	counts[len(counts)-1] += float64(len(data) - below)
	return Histogram{Edges: edges, Counts: counts}, nil
}

// Total returns the number of binned observations
func (h Histogram) Total() float64 {
	return floats.Sum(h.Counts)
}
