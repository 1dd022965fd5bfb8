package dataset

import (
	"errors"
	"math"
	"testing"

	"pairstat/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset(t *testing.T) *Dataset {
	t.Helper()
	ds, err := New(
		[]string{"Owner", "x", "y"},
		[][]Value{
			{Text("ana"), Numeric(1), Numeric(2)},
			{Text("bob"), Text("n/a"), Numeric(4)},
			{Text("ana"), Numeric(3)},
		},
	)
	require.NoError(t, err)
	return ds
}

func TestNew_PadsShortRows(t *testing.T) {
	ds := sampleDataset(t)

	assert.Equal(t, 3, ds.Len())
	assert.Equal(t, []string{"Owner", "x", "y"}, ds.Columns())

	v, err := cellAt(ds, 2, "y")
	require.NoError(t, err)
	assert.True(t, v.IsMissing())
}

func TestNew_RejectsDuplicateHeaders(t *testing.T) {
	_, err := New([]string{"a", "a"}, nil)
	assert.Error(t, err)
}

func TestNew_NamesBlankHeaders(t *testing.T) {
	ds, err := New([]string{"a", " "}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "column_2"}, ds.Columns())
}

func TestFloats_NonNumericIsNaN(t *testing.T) {
	ds := sampleDataset(t)

	xs, err := ds.Floats("x")
	require.NoError(t, err)
	assert.Equal(t, 1.0, xs[0])
	assert.True(t, math.IsNaN(xs[1]))
	assert.Equal(t, 3.0, xs[2])

	_, err = ds.Floats("missing")
	assert.True(t, errors.Is(err, core.ErrColumnNotFound))
}

func TestFilterRows_DoesNotMutateReceiver(t *testing.T) {
	ds := sampleDataset(t)

	filtered := ds.FilterRows(func(r int) bool { return r != 1 })

	assert.Equal(t, 2, filtered.Len())
	assert.Equal(t, 3, ds.Len())
}

func TestMapValues_ReturnsCopy(t *testing.T) {
	ds := sampleDataset(t)

	mapped := ds.MapValues(func(_ string, v Value) Value { return Missing() })

	v, _ := cellAt(mapped, 0, "x")
	assert.True(t, v.IsMissing())
	orig, _ := cellAt(ds, 0, "x")
	assert.Equal(t, 1.0, orig.Num)
}

func TestColumn_ReturnsCopy(t *testing.T) {
	ds := sampleDataset(t)

	col, err := ds.Column("x")
	require.NoError(t, err)
	col.Values[0] = Numeric(99)

	v, _ := cellAt(ds, 0, "x")
	assert.Equal(t, 1.0, v.Num)
}

func TestSelectAndWithColumn(t *testing.T) {
	ds := sampleDataset(t)

	sel, err := ds.Select("y", "x")
	require.NoError(t, err)
	assert.Equal(t, []string{"y", "x"}, sel.Columns())

	withK, err := sel.WithFloatColumn("k", []float64{2, math.NaN(), 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"y", "x", "k"}, withK.Columns())
	k, _ := cellAt(withK, 1, "k")
	assert.True(t, k.IsMissing())

	_, err = sel.WithFloatColumn("k", []float64{1})
	assert.Error(t, err)

	_, err = ds.Select("nope")
	assert.True(t, errors.Is(err, core.ErrColumnNotFound))
}

func TestEqual(t *testing.T) {
	a := sampleDataset(t)
	b := sampleDataset(t)
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(a.Head(1)))
}

func TestNumericColumns(t *testing.T) {
	ds, err := FromFloats([]string{"a", "b"}, []float64{1, 2}, []float64{math.NaN(), math.NaN()})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ds.NumericColumns(1))

	// the "n/a" text cell in x does not disqualify it
	mixed := sampleDataset(t)
	assert.Equal(t, []string{"x", "y"}, mixed.NumericColumns(2))
	assert.Empty(t, mixed.NumericColumns(3))
}

func TestSelection_Validate(t *testing.T) {
	ds := sampleDataset(t)

	assert.NoError(t, Selection{X: "x", Y: "y"}.Validate(ds))
	assert.True(t, errors.Is(Selection{X: "x", Y: "z"}.Validate(ds), core.ErrColumnNotFound))
	assert.True(t, errors.Is(Selection{X: "x", Y: "x"}.Validate(ds), core.ErrSameColumn))
}

func TestValue_String(t *testing.T) {
	assert.Equal(t, "2.5", Numeric(2.5).String())
	assert.Equal(t, "abc", Text("abc").String())
	assert.Equal(t, "", Missing().String())
	assert.True(t, Numeric(math.Inf(1)).IsMissing())
	assert.True(t, Value{}.IsMissing())
}

func cellAt(ds *Dataset, r int, name string) (Value, error) {
	col, err := ds.Column(name)
	if err != nil {
		return Value{}, err
	}
	return col.Values[r], nil
}
