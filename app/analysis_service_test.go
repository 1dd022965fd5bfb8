package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"pairstat/adapters/tabular"
	"pairstat/domain/core"
	"pairstat/domain/dataset"
	"pairstat/internal"
	"pairstat/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *AnalysisService {
	return NewAnalysisService(config.Default().Analysis, internal.NewDiscardLogger())
}

func num(f float64) dataset.Value { return dataset.Numeric(f) }
func text(s string) dataset.Value { return dataset.Text(s) }
func row(v ...dataset.Value) []dataset.Value { return v }

// powerLaw holds y = 3·x² for the owner "ana", plus a missing row, an x = 0
// row and a row owned by "bob".
func powerLaw(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.New([]string{"Area", "Price", "Owner"}, [][]dataset.Value{
		row(num(1), num(3), text("ana")),
		row(num(2), num(12), text(" ana ")),
		row(text("Not Specified"), num(5), text("ana")),
		row(num(3), num(27), text("ana")),
		row(num(0), num(9), text("bob")),
		row(num(4), num(48), text("ana")),
		row(num(5), num(70), text("bob")),
	})
	require.NoError(t, err)
	return ds
}

func TestAnalyze_FullSession(t *testing.T) {
	svc := newTestService()
	ds := powerLaw(t)

	report, err := svc.Analyze(context.Background(), ds, Request{
		Selection: dataset.Selection{X: "Area", Y: "Price"},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, report.ID)
	assert.Empty(t, report.Errors)
	assert.Equal(t, 7, report.Cleaning.RowsIn)
	assert.Equal(t, 5, report.Cleaning.RowsOut)
	assert.Equal(t, 1, report.Cleaning.DroppedMissing)
	assert.Equal(t, 1, report.Cleaning.DroppedZeroX)

	assert.Equal(t, 5, report.SummaryX.Count)
	assert.Equal(t, 1.0, report.SummaryX.Min)
	assert.Equal(t, 5.0, report.SummaryX.Max)

	require.NotNil(t, report.Correlation)
	assert.Greater(t, report.Correlation.R, 0.9)
	require.NotNil(t, report.Ratio)
	assert.Equal(t, 5, report.Ratio.Count)
	require.NotNil(t, report.RatioHistogram)
	assert.Equal(t, 5.0, report.RatioHistogram.Total())

	require.NotNil(t, report.Linear)
	require.NotNil(t, report.LogLog)
	assert.True(t, report.LogLog.IsLogLog())
	assert.Len(t, report.Linear.Line, 5)
	assert.Len(t, report.Scatter, 5)

	assert.Equal(t, []string{"Area", "Price", "Owner"}, report.Preview.Columns)
	assert.Len(t, report.Preview.Rows, 5)
	assert.Equal(t, []string{"2", "12", "ana"}, report.Preview.Rows[1])

	// input untouched
	v, _ := cellAt(ds, 1, "Owner")
	assert.Equal(t, " ana ", v.Str)
}

func TestAnalyze_CategoryFilter(t *testing.T) {
	report, err := newTestService().Analyze(context.Background(), powerLaw(t), Request{
		Selection:      dataset.Selection{X: "Area", Y: "Price"},
		CategoryColumn: "Owner",
		CategoryValue:  "ana",
	})
	require.NoError(t, err)

	require.NotNil(t, report.Category)
	assert.Equal(t, "ana", report.Category.Value)
	assert.Equal(t, 4, report.Cleaning.RowsOut)

	require.NotNil(t, report.LogLog)
	assert.InDelta(t, 2.0, report.LogLog.Slope, 1e-9)
	assert.InDelta(t, 3.0, report.LogLog.Coefficient, 1e-9)
	assert.InDelta(t, 1.0, report.LogLog.RSquared, 1e-9)
}

func TestAnalyze_CategoryWithoutColumnIsIgnored(t *testing.T) {
	var logs bytes.Buffer
	svc := NewAnalysisService(config.Default().Analysis, internal.NewWriterLogger(&logs, internal.LogLevelWarn))

	report, err := svc.Analyze(context.Background(), powerLaw(t), Request{
		Selection:      dataset.Selection{X: "Area", Y: "Price"},
		CategoryColumn: "Agent",
		CategoryValue:  "x",
	})
	require.NoError(t, err)
	assert.Nil(t, report.Category)
	assert.Equal(t, 5, report.Cleaning.RowsOut)
	assert.Contains(t, logs.String(), `[WARN] [analysis] column "Agent" not found, skipping category filter`)
}

func TestAnalyze_UnknownCategoryEmptiesResult(t *testing.T) {
	_, err := newTestService().Analyze(context.Background(), powerLaw(t), Request{
		Selection:      dataset.Selection{X: "Area", Y: "Price"},
		CategoryColumn: "Owner",
		CategoryValue:  "carl",
	})
	assert.True(t, errors.Is(err, core.ErrEmptyResult))
}

func TestAnalyze_KeepZeroX(t *testing.T) {
	report, err := newTestService().Analyze(context.Background(), powerLaw(t), Request{
		Selection: dataset.Selection{X: "Area", Y: "Price"},
		KeepZeroX: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 6, report.Cleaning.RowsOut)
	require.NotNil(t, report.Ratio)
	assert.Equal(t, 5, report.Ratio.Count)
	// log-log cannot take x = 0
	assert.Nil(t, report.LogLog)
	assert.True(t, report.Failed(StepLogLog))
	assert.NotNil(t, report.Linear)
}

func TestAnalyze_NegativeValuesFailOnlyLogLog(t *testing.T) {
	ds, err := dataset.FromFloats([]string{"x", "y"}, []float64{1, 2, 3}, []float64{-1, 2, 5})
	require.NoError(t, err)

	report, err := newTestService().Analyze(context.Background(), ds, Request{Selection: dataset.Selection{X: "x", Y: "y"}})
	require.NoError(t, err)

	assert.Nil(t, report.LogLog)
	assert.Contains(t, report.Errors[StepLogLog], core.ErrNonPositiveValue.Error())
	assert.NotNil(t, report.Linear)
	assert.NotNil(t, report.Correlation)
}

func TestAnalyze_ConstantYRecordsStepErrors(t *testing.T) {
	ds, err := dataset.FromFloats([]string{"x", "y"}, []float64{1, 2, 3}, []float64{4, 4, 4})
	require.NoError(t, err)

	report, err := newTestService().Analyze(context.Background(), ds, Request{Selection: dataset.Selection{X: "x", Y: "y"}})
	require.NoError(t, err)

	assert.Equal(t, 3, report.SummaryY.Count)
	assert.Nil(t, report.Correlation)
	assert.Nil(t, report.Linear)
	assert.Nil(t, report.LogLog)
	assert.True(t, report.Failed(StepCorrelation))
	assert.True(t, report.Failed(StepLinear))
	assert.True(t, report.Failed(StepLogLog))
	assert.NotNil(t, report.Ratio)
}

func TestAnalyze_MandatoryFailures(t *testing.T) {
	svc := newTestService()
	ds := powerLaw(t)

	_, err := svc.Analyze(context.Background(), ds, Request{Selection: dataset.Selection{X: "Area", Y: "Missing"}})
	assert.True(t, errors.Is(err, core.ErrColumnNotFound))

	_, err = svc.Analyze(context.Background(), ds, Request{Selection: dataset.Selection{X: "Area", Y: "Area"}})
	assert.True(t, errors.Is(err, core.ErrSameColumn))

	_, err = svc.Analyze(context.Background(), ds, Request{Selection: dataset.Selection{X: "Area", Y: "Owner"}})
	assert.True(t, errors.Is(err, core.ErrEmptyResult))

	_, err = svc.Analyze(context.Background(), nil, Request{})
	assert.True(t, errors.Is(err, core.ErrEmptyResult))
}

func TestAnalyze_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestService().Analyze(ctx, powerLaw(t), Request{Selection: dataset.Selection{X: "Area", Y: "Price"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyze_Predictions(t *testing.T) {
	report, err := newTestService().Analyze(context.Background(), powerLaw(t), Request{
		Selection:      dataset.Selection{X: "Area", Y: "Price"},
		CategoryColumn: "Owner",
		CategoryValue:  "ana",
		Predict:        []float64{5, 0},
	})
	require.NoError(t, err)

	require.NotNil(t, report.Linear)
	require.Len(t, report.Linear.Predictions, 2)
	assert.Equal(t, 5.0, report.Linear.Predictions[0].X)

	// log-log prediction at x = 0 fails, the model itself is kept
	require.NotNil(t, report.LogLog)
	assert.Empty(t, report.LogLog.Predictions)
	assert.True(t, report.Failed(StepLogLogPrediction))
	assert.False(t, report.Failed(StepLinearPrediction))
}

func TestSweep(t *testing.T) {
	ds, err := dataset.FromFloats([]string{"a", "b", "c", "d"},
		[]float64{1, 2, 3, 4, 5},
		[]float64{2, 4, 6, 8, 10},
		[]float64{5, 1, 4, 2, 3},
		[]float64{7, 7, 7, 7, 7},
	)
	require.NoError(t, err)

	results, err := newTestService().Sweep(context.Background(), ds, nil)
	require.NoError(t, err)
	require.Len(t, results, 6)

	assert.Equal(t, dataset.Selection{X: "a", Y: "b"}, results[0].Selection)
	assert.InDelta(t, 1.0, results[0].R, 1e-9)
	assert.InDelta(t, 2.0, results[0].Slope, 1e-9)
	assert.Equal(t, 5, results[0].N)

	for i := 1; i < 3; i++ {
		assert.NoError(t, results[i].Err)
		assert.GreaterOrEqual(t, abs(results[i-1].R), abs(results[i].R))
	}
	// every pair with the constant column fails and sorts last
	for _, r := range results[3:] {
		assert.True(t, errors.Is(r.Err, core.ErrDegenerateVariance), r.Selection)
		assert.NotEmpty(t, r.Error)
	}
}

func TestSweep_Errors(t *testing.T) {
	ds, err := dataset.FromFloats([]string{"a", "b"}, []float64{1, 2}, []float64{3, 4})
	require.NoError(t, err)
	svc := newTestService()

	_, err = svc.Sweep(context.Background(), ds, []string{"a", "zzz"})
	assert.True(t, errors.Is(err, core.ErrColumnNotFound))

	_, err = svc.Sweep(context.Background(), ds, []string{"a", "a"})
	assert.True(t, errors.Is(err, core.ErrInsufficientData))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.Sweep(ctx, ds, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExport(t *testing.T) {
	ds, err := dataset.New([]string{"x", "y", "Owner", "note"}, [][]dataset.Value{
		row(num(1), num(2), text("a"), text("dropped")),
		row(num(2), num(8), text("b"), text("dropped")),
	})
	require.NoError(t, err)

	svc := newTestService()
	report, err := svc.Analyze(context.Background(), ds, Request{Selection: dataset.Selection{X: "x", Y: "y"}})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.Export(&buf, report, tabular.FormatCSV))
	assert.Equal(t, "x,y,Owner,k\n1,2,a,2\n2,8,b,4\n", buf.String())

	buf.Reset()
	require.NoError(t, svc.Export(&buf, report, tabular.FormatXLSX))
	assert.NotZero(t, buf.Len())

	assert.Error(t, svc.Export(&buf, &Report{}, tabular.FormatCSV))
	assert.Equal(t, "pairstat-"+report.ID.Short()+".xlsx", ExportFileName(report, tabular.FormatXLSX))
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func cellAt(ds *dataset.Dataset, r int, name string) (dataset.Value, error) {
	col, err := ds.Column(name)
	if err != nil {
		return dataset.Value{}, err
	}
	return col.Values[r], nil
}

func TestAnalyze_RatioOverflowIsAStepError(t *testing.T) {
	ds, err := tabular.Read(context.Background(),
		strings.NewReader("Area,Price\n1e-300,1e300\n1,2\n2,5\n3,7\n"),
		tabular.FormatCSV, tabular.DefaultReaderOptions())
	require.NoError(t, err)

	report, err := newTestService().Analyze(context.Background(), ds, Request{
		Selection: dataset.Selection{X: "Area", Y: "Price"},
	})
	require.NoError(t, err)

	assert.True(t, report.Failed(StepRatio))
	assert.Nil(t, report.Ratio)
	assert.Nil(t, report.RatioHistogram)
	assert.Contains(t, report.Errors[StepRatio], core.ErrNonFiniteValue.Error())
	require.NotNil(t, report.Linear)

	// nothing in the report is Inf or NaN, so it encodes
	_, err = json.Marshal(report)
	assert.NoError(t, err)
}

func TestAnalyze_Residuals(t *testing.T) {
	report, err := newTestService().Analyze(context.Background(), powerLaw(t), Request{
		Selection:      dataset.Selection{X: "Area", Y: "Price"},
		CategoryColumn: "Owner",
		CategoryValue:  "ana",
	})
	require.NoError(t, err)

	require.Len(t, report.LogLog.Residuals, 4)
	require.Len(t, report.Linear.Residuals, 4)
	// the "ana" rows follow y = 3·x² exactly
	for _, r := range report.LogLog.Residuals {
		assert.InDelta(t, 0.0, r, 1e-9)
	}

	// OLS residuals with an intercept sum to zero
	var sum float64
	for _, r := range report.Linear.Residuals {
		sum += r
	}
	assert.InDelta(t, 0.0, sum, 1e-9)
}
