package app

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"pairstat/adapters/tabular"
	"pairstat/domain/core"
	"pairstat/domain/dataset"
	"pairstat/internal"
	"pairstat/internal/analysis"
	"pairstat/internal/cleaning"
	"pairstat/internal/config"

	"golang.org/x/sync/errgroup"
)

// RatioColumn is the name of the derived k = y/x column in exports
const RatioColumn = "k"

// AnalysisService runs analysis sessions over datasets
type AnalysisService struct {
	cfg     config.AnalysisConfig
	cleaner *cleaning.Cleaner
	logger  *internal.Logger
}

// NewAnalysisService creates an analysis service
func NewAnalysisService(cfg config.AnalysisConfig, logger *internal.Logger) *AnalysisService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &AnalysisService{
		cfg:     cfg,
		cleaner: cleaning.NewCleaner(logger),
		logger:  logger.With("analysis"),
	}
}

// Analyze runs one session: category filter, cleaning, summaries,
// correlation, ratio statistics and both regression models. Cleaning and
// the summaries are mandatory and abort the session; the remaining steps
// record their error in the report and leave their section nil.
func (s *AnalysisService) Analyze(ctx context.Context, ds *dataset.Dataset, req Request) (*Report, error) {
	start := time.Now()
	if ds == nil {
		return nil, fmt.Errorf("%w: no dataset", core.ErrEmptyResult)
	}
	if err := req.Selection.Validate(ds); err != nil {
		return nil, err
	}

	report := &Report{
		ID:        core.NewReportID(),
		CreatedAt: time.Now().UTC(),
		Source:    req.Source,
		Selection: req.Selection,
	}

	input := ds
	if req.CategoryColumn != "" && req.CategoryValue != "" {
		if ds.Has(req.CategoryColumn) {
			input = cleaning.FilterByCategory(ds, req.CategoryColumn, req.CategoryValue)
			report.Category = &CategoryFilter{Column: req.CategoryColumn, Value: strings.TrimSpace(req.CategoryValue)}
			s.logger.Debug("category %s=%q keeps %d of %d rows", req.CategoryColumn, req.CategoryValue, input.Len(), ds.Len())
		} else {
			s.logger.Warn("column %q not found, skipping category filter %q", req.CategoryColumn, req.CategoryValue)
		}
	}

	opts := s.cfg.CleaningOptions()
	if req.KeepZeroX {
		opts.DropZeroX = false
	}
	if s.cfg.CategoryColumn != "" {
		opts.Keep = append(opts.Keep, s.cfg.CategoryColumn)
	}
	if req.CategoryColumn != "" {
		opts.Keep = append(opts.Keep, req.CategoryColumn)
	}

	cleaned, err := s.cleaner.Clean(input, req.Selection, opts)
	if err != nil {
		return nil, err
	}
	report.Cleaning = *cleaned
	report.Data = cleaned.Data
	xs, ys := cleaned.X(), cleaned.Y()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if report.SummaryX, err = analysis.Summarize(xs); err != nil {
		return nil, fmt.Errorf("summary of %s: %w", req.Selection.X, err)
	}
	if report.SummaryY, err = analysis.Summarize(ys); err != nil {
		return nil, fmt.Errorf("summary of %s: %w", req.Selection.Y, err)
	}

	if detail, err := analysis.Correlation(xs, ys); err != nil {
		report.recordError(StepCorrelation, err)
	} else {
		report.Correlation = &detail
	}

	if ratio, err := analysis.RatioStats(xs, ys); err != nil {
		report.recordError(StepRatio, err)
	} else {
		report.Ratio = &ratio
		ks, _ := analysis.Ratios(xs, ys)
		if hist, err := analysis.NewHistogram(ks, s.cfg.HistogramBins); err != nil {
			report.recordError(StepHistogram, err)
		} else {
			report.RatioHistogram = &hist
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if model, err := analysis.FitLinear(xs, ys); err != nil {
		report.recordError(StepLinear, err)
	} else {
		report.Linear = s.modelReport(report, model, xs, ys, req.Predict, StepLinearPrediction)
	}

	if model, err := analysis.FitLogLog(xs, ys); err != nil {
		report.recordError(StepLogLog, err)
	} else {
		report.LogLog = s.modelReport(report, model, xs, ys, req.Predict, StepLogLogPrediction)
	}

	report.Scatter = make([]analysis.Point, len(xs))
	for i := range xs {
		report.Scatter[i] = analysis.Point{X: xs[i], Y: ys[i]}
	}
	report.Preview = previewTable(cleaned.Data, s.cfg.PreviewRows)

	s.logger.Info("analysis %s of %s/%s done in %.2fms (%d rows, %d step errors)",
		report.ID.Short(), req.Selection.X, req.Selection.Y,
		float64(time.Since(start).Nanoseconds())/1e6, cleaned.RowsOut, len(report.Errors))
	return report, nil
}

func (s *AnalysisService) modelReport(report *Report, model analysis.Model, xs, ys, predict []float64, step string) *ModelReport {
	mr := &ModelReport{Model: model, Equation: model.Equation(), Coefficient: model.Coefficient()}
	if line, err := analysis.FittedLine(model, xs); err == nil {
		mr.Line = line
	}
	if res, err := analysis.Residuals(model, xs, ys); err == nil {
		mr.Residuals = res
	} else {
		s.logger.Debug("%s residuals unavailable: %v", model.Kind, err)
	}
	if len(predict) > 0 {
		ys, err := model.Predict(predict)
		if err != nil {
			report.recordError(step, err)
			return mr
		}
		mr.Predictions = make([]analysis.Point, len(predict))
		for i := range predict {
			mr.Predictions[i] = analysis.Point{X: predict[i], Y: ys[i]}
		}
	}
	return mr
}

func previewTable(ds *dataset.Dataset, n int) Table {
	head := ds.Head(n)
	table := Table{Columns: head.Columns(), Rows: make([][]string, head.Len())}
	for r := 0; r < head.Len(); r++ {
		row := head.Row(r)
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = v.String()
		}
		table.Rows[r] = cells
	}
	return table
}

// Sweep correlates and fits every unordered pair of columns concurrently.
// With no columns given, every column holding numeric cells takes part.
// Failing pairs are returned with their error; results are ordered by |r|
// descending with failed pairs last.
func (s *AnalysisService) Sweep(ctx context.Context, ds *dataset.Dataset, columns []string) ([]PairResult, error) {
	if ds == nil {
		return nil, fmt.Errorf("%w: no dataset", core.ErrEmptyResult)
	}
	if len(columns) == 0 {
		columns = ds.NumericColumns(2)
	}
	for _, name := range columns {
		if !ds.Has(name) {
			return nil, core.NewColumnNotFoundError(name)
		}
	}
	columns = unique(columns)
	if len(columns) < 2 {
		return nil, core.NewInsufficientDataError(len(columns), 2)
	}

	var selections []dataset.Selection
	for i := 0; i < len(columns); i++ {
		for j := i + 1; j < len(columns); j++ {
			selections = append(selections, dataset.Selection{X: columns[i], Y: columns[j]})
		}
	}

	workers := s.cfg.SweepWorkers
	if workers < 1 {
		workers = 1
	}
	s.logger.Info("sweeping %d pairs across %d columns with %d workers", len(selections), len(columns), workers)

	results := make([]PairResult, len(selections))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, sel := range selections {
		i, sel := i, sel
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.analyzePair(ds, sel)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(a, b int) bool {
		ra, rb := results[a], results[b]
		if (ra.Err == nil) != (rb.Err == nil) {
			return ra.Err == nil
		}
		return math.Abs(ra.R) > math.Abs(rb.R)
	})
	return results, nil
}

// analyzePair works on the shared dataset read-only; cleaning returns a
// private copy.
func (s *AnalysisService) analyzePair(ds *dataset.Dataset, sel dataset.Selection) PairResult {
	result := PairResult{Selection: sel}
	fail := func(err error) PairResult {
		result.Err = err
		result.Error = err.Error()
		return result
	}

	opts := s.cfg.CleaningOptions()
	opts.DropZeroX = false
	cleaned, err := s.cleaner.Clean(ds, sel, opts)
	if err != nil {
		return fail(err)
	}
	xs, ys := cleaned.X(), cleaned.Y()

	detail, err := analysis.Correlation(xs, ys)
	if err != nil {
		return fail(err)
	}
	model, err := analysis.FitLinear(xs, ys)
	if err != nil {
		return fail(err)
	}

	result.N = detail.N
	result.R = detail.R
	result.PValue = detail.PValue
	result.Slope = model.Slope
	result.Intercept = model.Intercept
	result.RSquared = model.RSquared
	return result
}

func unique(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

// Export writes the cleaned data of report plus the derived k column
func (s *AnalysisService) Export(w io.Writer, report *Report, format tabular.Format) error {
	data, err := ExportDataset(report)
	if err != nil {
		return err
	}
	if err := tabular.Write(w, data, format); err != nil {
		return fmt.Errorf("export %s: %w", format, err)
	}
	s.logger.Debug("exported report %s as %s (%d rows)", report.ID.Short(), format, data.Len())
	return nil
}

// ExportDataset returns the cleaned columns of report with k = y/x appended.
// Rows where x is 0 get a missing k.
func ExportDataset(report *Report) (*dataset.Dataset, error) {
	if report == nil || report.Data == nil {
		return nil, fmt.Errorf("%w: report has no data", core.ErrEmptyResult)
	}
	xs, err := report.Data.Floats(report.Selection.X)
	if err != nil {
		return nil, err
	}
	ys, err := report.Data.Floats(report.Selection.Y)
	if err != nil {
		return nil, err
	}
	ks, err := analysis.Ratios(xs, ys)
	if err != nil {
		return nil, err
	}
	return report.Data.WithFloatColumn(RatioColumn, ks)
}

// ExportFileName builds the download name for a report export
func ExportFileName(report *Report, format tabular.Format) string {
	return fmt.Sprintf("pairstat-%s.%s", report.ID.Short(), format)
}
