package app

import (
	"time"

	"pairstat/domain/core"
	"pairstat/domain/dataset"
	"pairstat/internal/analysis"
	"pairstat/internal/cleaning"
)

// Step names used as keys of Report.Errors
const (
	StepCorrelation      = "correlation"
	StepRatio            = "ratio"
	StepLinear           = "linear"
	StepLogLog           = "loglog"
	StepHistogram        = "histogram"
	StepLinearPrediction = "linear_prediction"
	StepLogLogPrediction = "loglog_prediction"
)

// Request selects what one analysis session computes
type Request struct {
	Selection dataset.Selection `json:"selection"`
	// Category filter; applied only when both fields are set and the column exists.
	CategoryColumn string `json:"category_column,omitempty"`
	CategoryValue  string `json:"category_value,omitempty"`
	// KeepZeroX keeps rows with x == 0 regardless of configuration.
	KeepZeroX bool `json:"keep_zero_x,omitempty"`
	// Predict lists x values to evaluate both fitted models at.
	Predict []float64 `json:"predict,omitempty"`
	Source  string    `json:"source,omitempty"`
}

// CategoryFilter records the filter that was applied
type CategoryFilter struct {
	Column string `json:"column"`
	Value  string `json:"value"`
}

// ModelReport is one fitted model with its chart series
type ModelReport struct {
	analysis.Model
	Equation    string           `json:"equation"`
	Coefficient float64          `json:"coefficient"`
	Line        []analysis.Point `json:"line"`
	// Residuals are y − ŷ per cleaned row, in the original units of y
	Residuals   []float64        `json:"residuals,omitempty"`
	Predictions []analysis.Point `json:"predictions,omitempty"`
}

// Table is a rendered slice of a dataset
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Report is the full result of one analysis session. A nil section means
// the step failed; its error is in Errors under the step name.
type Report struct {
	ID        core.ReportID     `json:"id"`
	CreatedAt time.Time         `json:"created_at"`
	Source    string            `json:"source,omitempty"`
	Selection dataset.Selection `json:"selection"`
	Category  *CategoryFilter   `json:"category,omitempty"`
	Cleaning  cleaning.Result   `json:"cleaning"`

	SummaryX analysis.SummaryStatistics `json:"summary_x"`
	SummaryY analysis.SummaryStatistics `json:"summary_y"`

	Correlation    *analysis.CorrelationDetail `json:"correlation,omitempty"`
	Ratio          *analysis.RatioStatistics   `json:"ratio,omitempty"`
	RatioHistogram *analysis.Histogram         `json:"ratio_histogram,omitempty"`
	Linear         *ModelReport                `json:"linear,omitempty"`
	LogLog         *ModelReport                `json:"loglog,omitempty"`

	Scatter []analysis.Point  `json:"scatter"`
	Preview Table             `json:"preview"`
	Errors  map[string]string `json:"errors,omitempty"`

	// Data is the cleaned dataset the statistics were computed on.
	Data *dataset.Dataset `json:"-"`
}

// Failed reports whether the named step recorded an error
func (r *Report) Failed(step string) bool {
	_, ok := r.Errors[step]
	return ok
}

func (r *Report) recordError(step string, err error) {
	if r.Errors == nil {
		r.Errors = make(map[string]string)
	}
	r.Errors[step] = err.Error()
}

// PairResult is one row of a sweep. Err is set when the pair could not be
// analyzed; the numeric fields are then zero.
type PairResult struct {
	Selection dataset.Selection `json:"selection"`
	N         int               `json:"n"`
	R         float64           `json:"r"`
	PValue    float64           `json:"p_value"`
	Slope     float64           `json:"slope"`
	Intercept float64           `json:"intercept"`
	RSquared  float64           `json:"r_squared"`
	Error     string            `json:"error,omitempty"`
	Err       error             `json:"-"`
}
