package cleaning

import (
	"errors"
	"testing"

	"pairstat/domain/core"
	"pairstat/domain/dataset"
	"pairstat/internal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.New(
		[]string{"Owner", "Area", "Price", "Notes"},
		[][]dataset.Value{
			{dataset.Text(" ana "), dataset.Text(" 10 "), dataset.Numeric(100), dataset.Text(" ok ")},
			{dataset.Text("bob"), dataset.Text("Not Specified"), dataset.Numeric(200), dataset.Text("x")},
			{dataset.Text("ana"), dataset.Numeric(20), dataset.Text("N/A"), dataset.Text("y")},
			{dataset.Text("carl"), dataset.Text("   "), dataset.Numeric(300), dataset.Text("z")},
			{dataset.Text("bob"), dataset.Numeric(0), dataset.Numeric(50), dataset.Text("na")},
			{dataset.Text("ana"), dataset.Text("abc"), dataset.Numeric(1), dataset.Missing()},
			{dataset.Text("bob"), dataset.Numeric(40), dataset.Text("400"), dataset.Text("w")},
		},
	)
	require.NoError(t, err)
	return ds
}

func newTestCleaner() *Cleaner {
	return NewCleaner(internal.NewDiscardLogger())
}

func TestClean_DropsMissingAndNonNumericRows(t *testing.T) {
	ds := rawDataset(t)
	sel := dataset.Selection{X: "Area", Y: "Price"}

	result, err := newTestCleaner().Clean(ds, sel, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"Area", "Price"}, result.Data.Columns())
	assert.Equal(t, []float64{10, 0, 40}, result.X())
	assert.Equal(t, []float64{100, 50, 400}, result.Y())
	assert.Equal(t, 7, result.RowsIn)
	assert.Equal(t, 3, result.RowsOut)
	assert.Equal(t, 4, result.DroppedMissing)
	assert.Equal(t, 0, result.DroppedZeroX)
}

func TestClean_DropZeroX(t *testing.T) {
	opts := DefaultOptions()
	opts.DropZeroX = true

	result, err := newTestCleaner().Clean(rawDataset(t), dataset.Selection{X: "Area", Y: "Price"}, opts)
	require.NoError(t, err)

	assert.Equal(t, []float64{10, 40}, result.X())
	assert.Equal(t, 1, result.DroppedZeroX)
}

func TestClean_KeepsRetainedColumnsTrimmed(t *testing.T) {
	opts := DefaultOptions()
	opts.Keep = []string{"Owner", "Absent", "Price"}

	result, err := newTestCleaner().Clean(rawDataset(t), dataset.Selection{X: "Area", Y: "Price"}, opts)
	require.NoError(t, err)

	assert.Equal(t, []string{"Area", "Price", "Owner"}, result.Data.Columns())
	owner, err := cellAt(result.Data, 0, "Owner")
	require.NoError(t, err)
	assert.Equal(t, "ana", owner.Str)
}

func TestClean_DoesNotMutateInput(t *testing.T) {
	ds := rawDataset(t)
	before := rawDataset(t)

	_, err := newTestCleaner().Clean(ds, dataset.Selection{X: "Area", Y: "Price"}, DefaultOptions())
	require.NoError(t, err)

	assert.True(t, ds.Equal(before))
}

func TestClean_Idempotent(t *testing.T) {
	sel := dataset.Selection{X: "Area", Y: "Price"}
	opts := DefaultOptions()
	opts.Keep = []string{"Owner"}

	first, err := newTestCleaner().Clean(rawDataset(t), sel, opts)
	require.NoError(t, err)
	second, err := newTestCleaner().Clean(first.Data, sel, opts)
	require.NoError(t, err)

	assert.True(t, first.Data.Equal(second.Data))
	assert.Equal(t, 0, second.DroppedMissing)
}

func TestClean_EveryRowIsNumeric(t *testing.T) {
	result, err := newTestCleaner().Clean(rawDataset(t), dataset.Selection{X: "Price", Y: "Area"}, DefaultOptions())
	require.NoError(t, err)

	for r := 0; r < result.Data.Len(); r++ {
		x, _ := cellAt(result.Data, r, "Price")
		y, _ := cellAt(result.Data, r, "Area")
		assert.True(t, x.IsNumeric(), "row %d x", r)
		assert.True(t, y.IsNumeric(), "row %d y", r)
	}
}

func TestClean_Errors(t *testing.T) {
	ds := rawDataset(t)
	c := newTestCleaner()

	_, err := c.Clean(ds, dataset.Selection{X: "Area", Y: "Missing"}, DefaultOptions())
	assert.True(t, errors.Is(err, core.ErrColumnNotFound))

	_, err = c.Clean(ds, dataset.Selection{X: "Area", Y: "Area"}, DefaultOptions())
	assert.True(t, errors.Is(err, core.ErrSameColumn))

	_, err = c.Clean(ds, dataset.Selection{X: "Owner", Y: "Price"}, DefaultOptions())
	assert.True(t, errors.Is(err, core.ErrEmptyResult))

	_, err = c.Clean(nil, dataset.Selection{X: "a", Y: "b"}, DefaultOptions())
	assert.True(t, errors.Is(err, core.ErrEmptyResult))
}

func TestClean_CustomMissingTokens(t *testing.T) {
	ds, err := dataset.New([]string{"x", "y"}, [][]dataset.Value{
		{dataset.Text("-"), dataset.Numeric(1)},
		{dataset.Numeric(2), dataset.Text("?")},
		{dataset.Numeric(3), dataset.Numeric(4)},
	})
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.MissingTokens = []string{"-", "?"}
	result, err := newTestCleaner().Clean(ds, dataset.Selection{X: "x", Y: "y"}, opts)
	require.NoError(t, err)

	assert.Equal(t, []float64{3}, result.X())
}

func TestFilterByCategory(t *testing.T) {
	ds := rawDataset(t)

	filtered := FilterByCategory(ds, "Owner", "ana")
	assert.Equal(t, 3, filtered.Len())
	assert.Equal(t, 7, ds.Len())

	assert.Same(t, ds, FilterByCategory(ds, "Team", "x"))
	assert.Equal(t, 0, FilterByCategory(ds, "Owner", "nobody").Len())
}

func TestCategories(t *testing.T) {
	ds := rawDataset(t)

	assert.Equal(t, []string{"ana", "bob", "carl"}, Categories(ds, "Owner"))
	assert.Nil(t, Categories(ds, "Team"))
}

func cellAt(ds *dataset.Dataset, r int, name string) (dataset.Value, error) {
	col, err := ds.Column(name)
	if err != nil {
		return dataset.Value{}, err
	}
	return col.Values[r], nil
}
