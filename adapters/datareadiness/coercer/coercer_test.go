package coercer

import (
	"testing"

	"pairstat/domain/dataset"

	"github.com/stretchr/testify/assert"
)

func TestCoerceValue(t *testing.T) {
	c := NewTypeCoercer(DefaultCoercionConfig())

	assert.True(t, c.CoerceValue(nil).IsMissing())
	assert.Equal(t, dataset.Numeric(3), c.CoerceValue(3))
	assert.Equal(t, dataset.Numeric(2.5), c.CoerceValue(2.5))
	assert.Equal(t, dataset.Text("abc"), c.CoerceValue("  abc "))
	assert.Equal(t, dataset.Text("true"), c.CoerceValue(true))
}

func TestToNumeric_Strict(t *testing.T) {
	c := NewTypeCoercer(DefaultCoercionConfig())

	tests := []struct {
		input   string
		want    float64
		numeric bool
	}{
		{"42", 42, true},
		{" -1.5 ", -1.5, true},
		{"1e3", 1000, true},
		{"abc", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"1,5", 0, false},
		{"$10", 0, false},
		{"", 0, false},
	}

	for _, test := range tests {
		got := c.ToNumeric(dataset.Text(test.input))
		assert.Equal(t, test.numeric, got.IsNumeric(), "input %q", test.input)
		if test.numeric {
			assert.Equal(t, test.want, got.Num, "input %q", test.input)
		}
	}
}

func TestToNumeric_Lenient(t *testing.T) {
	c := NewTypeCoercer(CoercionConfig{LenientNumbers: true, TrimStrings: true})

	tests := []struct {
		input string
		want  float64
	}{
		{"1,5", 1.5},
		{"1.234,56", 1234.56},
		{"1,234.56", 1234.56},
		{"1,234", 1234},
		{"$10", 10},
		{"(12)", -12},
		{"45%", 45},
		{"R$ 3,50", 3.5},
	}

	for _, test := range tests {
		got := c.ToNumeric(dataset.Text(test.input))
		if assert.True(t, got.IsNumeric(), "input %q", test.input) {
			assert.InDelta(t, test.want, got.Num, 1e-9, "input %q", test.input)
		}
	}
}

func TestToNumeric_KeepsNumbersAndMissing(t *testing.T) {
	c := NewTypeCoercer(DefaultCoercionConfig())

	assert.Equal(t, dataset.Numeric(7), c.ToNumeric(dataset.Numeric(7)))
	assert.True(t, c.ToNumeric(dataset.Missing()).IsMissing())
}

func TestAnalyzeTypeDistribution(t *testing.T) {
	c := NewTypeCoercer(DefaultCoercionConfig())

	analysis := c.AnalyzeTypeDistribution([]dataset.Value{
		dataset.Numeric(1), dataset.Text("2"), dataset.Text("x"), dataset.Missing(),
	})

	assert.Equal(t, 4, analysis.TotalCount)
	assert.Equal(t, 3, analysis.ValidCount)
	assert.Equal(t, 2, analysis.NumericCount)
	assert.InDelta(t, 2.0/3.0, analysis.NumericRatio, 1e-12)
}
