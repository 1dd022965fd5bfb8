// Package cleaning turns raw tabular input into a dataset of paired numeric
// observations.
package cleaning

import (
	"fmt"
	"math"
	"strings"

	"pairstat/adapters/datareadiness/coercer"
	"pairstat/domain/core"
	"pairstat/domain/dataset"
	"pairstat/internal"
)

// DefaultMissingTokens lists the cell values treated as missing. Matching is
// case-insensitive on the trimmed cell, so whitespace-only cells match "".
func DefaultMissingTokens() []string {
	return []string{"not specified", "na", "n/a", ""}
}

// Options controls a cleaning pass
type Options struct {
	MissingTokens []string
	// DropZeroX removes rows whose x value is 0, as the ratio flows require.
	DropZeroX bool
	// Keep lists extra columns carried into the result. Columns that do not
	// exist are skipped.
	Keep     []string
	Coercion coercer.CoercionConfig
}

// DefaultOptions returns the options used by the terminal flow
func DefaultOptions() Options {
	return Options{
		MissingTokens: DefaultMissingTokens(),
		Coercion:      coercer.DefaultCoercionConfig(),
	}
}

// Result is a cleaned dataset together with what was dropped on the way.
type Result struct {
	Data      *dataset.Dataset  `json:"-"`
	Selection dataset.Selection `json:"selection"`

	RowsIn         int `json:"rows_in"`
	RowsOut        int `json:"rows_out"`
	DroppedMissing int `json:"dropped_missing"`
	DroppedZeroX   int `json:"dropped_zero_x"`
}

// X returns the cleaned x column
func (r *Result) X() []float64 {
	xs, _ := r.Data.Floats(r.Selection.X)
	return xs
}

// Y returns the cleaned y column
func (r *Result) Y() []float64 {
	ys, _ := r.Data.Floats(r.Selection.Y)
	return ys
}

// Cleaner normalizes datasets for a column pair
type Cleaner struct {
	logger *internal.Logger
}

// NewCleaner creates a Cleaner with the given logger
func NewCleaner(logger *internal.Logger) *Cleaner {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Cleaner{logger: logger.With("cleaner")}
}

// Clean runs a cleaning pass with the default logger
func Clean(ds *dataset.Dataset, sel dataset.Selection, opts Options) (*Result, error) {
	return NewCleaner(nil).Clean(ds, sel, opts)
}

// Clean trims text cells, maps missing tokens to missing, coerces the
// selected columns to numbers and drops every row without two numeric
// values. The input dataset is left untouched.
func (c *Cleaner) Clean(ds *dataset.Dataset, sel dataset.Selection, opts Options) (*Result, error) {
	if ds == nil {
		return nil, fmt.Errorf("%w: no dataset", core.ErrEmptyResult)
	}
	if err := sel.Validate(ds); err != nil {
		return nil, err
	}

	tokens := make(map[string]struct{}, len(opts.MissingTokens))
	for _, tok := range opts.MissingTokens {
		tokens[strings.ToLower(strings.TrimSpace(tok))] = struct{}{}
	}
	tc := coercer.NewTypeCoercer(opts.Coercion)

	normalized := ds.MapValues(func(column string, v dataset.Value) dataset.Value {
		if v.IsString() {
			s := strings.TrimSpace(v.Str)
			if _, missing := tokens[strings.ToLower(s)]; missing {
				v = dataset.Missing()
			} else {
				v = dataset.Text(s)
			}
		}
		if column == sel.X || column == sel.Y {
			return tc.ToNumeric(v)
		}
		return v
	})

	columns := []string{sel.X, sel.Y}
	for _, name := range opts.Keep {
		if name == sel.X || name == sel.Y || contains(columns, name) {
			continue
		}
		if !normalized.Has(name) {
			c.logger.Debug("retained column %q not present, skipping", name)
			continue
		}
		columns = append(columns, name)
	}
	selected, err := normalized.Select(columns...)
	if err != nil {
		return nil, err
	}

	xs, _ := selected.Floats(sel.X)
	ys, _ := selected.Floats(sel.Y)
	result := &Result{Selection: sel, RowsIn: ds.Len()}
	cleaned := selected.FilterRows(func(r int) bool {
		if !isNumber(xs[r]) || !isNumber(ys[r]) {
			result.DroppedMissing++
			return false
		}
		if opts.DropZeroX && xs[r] == 0 {
			result.DroppedZeroX++
			return false
		}
		return true
	})

	result.Data = cleaned
	result.RowsOut = cleaned.Len()
	c.logger.Debug("%s/%s: %d rows in, %d dropped missing, %d dropped x=0, %d kept",
		sel.X, sel.Y, result.RowsIn, result.DroppedMissing, result.DroppedZeroX, result.RowsOut)

	if result.RowsOut == 0 {
		return nil, fmt.Errorf("%w: all %d rows dropped while cleaning %s/%s", core.ErrEmptyResult, result.RowsIn, sel.X, sel.Y)
	}
	return result, nil
}

// FilterByCategory keeps the rows whose column equals value. A dataset
// without the column is returned unchanged.
func FilterByCategory(ds *dataset.Dataset, column, value string) *dataset.Dataset {
	if !ds.Has(column) {
		return ds
	}
	want := strings.TrimSpace(value)
	col, _ := ds.Column(column)
	return ds.FilterRows(func(r int) bool {
		v := col.Values[r]
		return !v.IsMissing() && strings.TrimSpace(v.String()) == want
	})
}

// Categories returns the distinct non-missing values of column in first-seen
// order, or nil when the column is absent.
func Categories(ds *dataset.Dataset, column string) []string {
	col, err := ds.Column(column)
	if err != nil {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, v := range col.Values {
		if v.IsMissing() {
			continue
		}
		s := strings.TrimSpace(v.String())
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func isNumber(f float64) bool {
	return !math.IsNaN(f)
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
