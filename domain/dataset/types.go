package dataset

import (
	"fmt"
	"strings"

	"pairstat/domain/core"
)

// Column is a named sequence of cells
type Column struct {
	Name   string  `json:"name"`
	Values []Value `json:"values"`
}

// Dataset is an ordered collection of equally long named columns.
//
// A Dataset is never modified after construction: every transforming method
// returns a new Dataset and accessors hand out copies.
type Dataset struct {
	columns []Column
	index   map[string]int
	rows    int
}

// New builds a dataset from a header row and data rows. Short rows are padded
// with missing values; cells beyond the header are ignored.
func New(headers []string, rows [][]Value) (*Dataset, error) {
	cols := make([]Column, len(headers))
	for i, h := range headers {
		cols[i] = Column{Name: h, Values: make([]Value, len(rows))}
	}
	for r, row := range rows {
		for c := range cols {
			if c < len(row) {
				cols[c].Values[r] = row[c]
			} else {
				cols[c].Values[r] = Missing()
			}
		}
	}
	return build(cols, len(rows))
}

// FromColumns builds a dataset from whole columns, which must share a length.
func FromColumns(cols ...Column) (*Dataset, error) {
	n := 0
	if len(cols) > 0 {
		n = len(cols[0].Values)
	}
	copied := make([]Column, len(cols))
	for i, col := range cols {
		if len(col.Values) != n {
			return nil, fmt.Errorf("column %q has %d values, expected %d", col.Name, len(col.Values), n)
		}
		copied[i] = Column{Name: col.Name, Values: append([]Value(nil), col.Values...)}
	}
	return build(copied, n)
}

// FromFloats is a convenience constructor for all-numeric datasets. NaN
// entries become missing.
func FromFloats(names []string, values ...[]float64) (*Dataset, error) {
	if len(names) != len(values) {
		return nil, fmt.Errorf("got %d names for %d columns", len(names), len(values))
	}
	cols := make([]Column, len(names))
	for i, name := range names {
		vals := make([]Value, len(values[i]))
		for j, f := range values[i] {
			vals[j] = Numeric(f)
		}
		cols[i] = Column{Name: name, Values: vals}
	}
	return FromColumns(cols...)
}

func build(cols []Column, rows int) (*Dataset, error) {
	index := make(map[string]int, len(cols))
	for i, col := range cols {
		name := strings.TrimSpace(col.Name)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("duplicate column name %q", name)
		}
		cols[i].Name = name
		index[name] = i
	}
	return &Dataset{columns: cols, index: index, rows: rows}, nil
}

// Len returns the number of rows
func (d *Dataset) Len() int {
	return d.rows
}

// Columns returns the column names in order
func (d *Dataset) Columns() []string {
	names := make([]string, len(d.columns))
	for i, col := range d.columns {
		names[i] = col.Name
	}
	return names
}

// Has reports whether the dataset contains the named column
func (d *Dataset) Has(name string) bool {
	_, ok := d.index[name]
	return ok
}

// Column returns a copy of the named column
func (d *Dataset) Column(name string) (Column, error) {
	i, ok := d.index[name]
	if !ok {
		return Column{}, core.NewColumnNotFoundError(name)
	}
	col := d.columns[i]
	return Column{Name: col.Name, Values: append([]Value(nil), col.Values...)}, nil
}

// Floats returns the named column as float64, with NaN for every
// non-numeric cell.
func (d *Dataset) Floats(name string) ([]float64, error) {
	i, ok := d.index[name]
	if !ok {
		return nil, core.NewColumnNotFoundError(name)
	}
	out := make([]float64, d.rows)
	for r, v := range d.columns[i].Values {
		out[r] = v.Float()
	}
	return out, nil
}

// Row returns a copy of row r in column order
func (d *Dataset) Row(r int) []Value {
	row := make([]Value, len(d.columns))
	for c, col := range d.columns {
		row[c] = col.Values[r]
	}
	return row
}

// Select returns a dataset holding only the named columns, in the given order.
func (d *Dataset) Select(names ...string) (*Dataset, error) {
	cols := make([]Column, 0, len(names))
	for _, name := range names {
		col, err := d.Column(name)
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	return build(cols, d.rows)
}

// FilterRows returns a dataset holding the rows for which keep returns true.
func (d *Dataset) FilterRows(keep func(r int) bool) *Dataset {
	var kept []int
	for r := 0; r < d.rows; r++ {
		if keep(r) {
			kept = append(kept, r)
		}
	}
	cols := make([]Column, len(d.columns))
	for c, col := range d.columns {
		vals := make([]Value, len(kept))
		for i, r := range kept {
			vals[i] = col.Values[r]
		}
		cols[c] = Column{Name: col.Name, Values: vals}
	}
	return &Dataset{columns: cols, index: d.cloneIndex(), rows: len(kept)}
}

// MapValues returns a dataset with fn applied to every cell.
func (d *Dataset) MapValues(fn func(column string, v Value) Value) *Dataset {
	cols := make([]Column, len(d.columns))
	for c, col := range d.columns {
		vals := make([]Value, len(col.Values))
		for r, v := range col.Values {
			vals[r] = fn(col.Name, v)
		}
		cols[c] = Column{Name: col.Name, Values: vals}
	}
	return &Dataset{columns: cols, index: d.cloneIndex(), rows: d.rows}
}

// WithColumn returns a dataset with col appended, or replacing a column of
// the same name.
func (d *Dataset) WithColumn(col Column) (*Dataset, error) {
	if len(col.Values) != d.rows {
		return nil, fmt.Errorf("column %q has %d values, dataset has %d rows", col.Name, len(col.Values), d.rows)
	}
	cols := d.cloneColumns()
	added := Column{Name: col.Name, Values: append([]Value(nil), col.Values...)}
	if i, ok := d.index[col.Name]; ok {
		cols[i] = added
	} else {
		cols = append(cols, added)
	}
	return build(cols, d.rows)
}

// WithFloatColumn appends or replaces a numeric column. NaN entries become missing.
func (d *Dataset) WithFloatColumn(name string, values []float64) (*Dataset, error) {
	vals := make([]Value, len(values))
	for i, f := range values {
		vals[i] = Numeric(f)
	}
	return d.WithColumn(Column{Name: name, Values: vals})
}

// Head returns the first n rows
func (d *Dataset) Head(n int) *Dataset {
	return d.FilterRows(func(r int) bool { return r < n })
}

// Equal reports whether both datasets hold the same columns and cells.
// Numeric cells compare exactly.
func (d *Dataset) Equal(other *Dataset) bool {
	if d.rows != other.rows || len(d.columns) != len(other.columns) {
		return false
	}
	for c, col := range d.columns {
		oc := other.columns[c]
		if col.Name != oc.Name {
			return false
		}
		for r, v := range col.Values {
			o := oc.Values[r]
			if v.IsMissing() && o.IsMissing() {
				continue
			}
			if v.Type != o.Type || v.Str != o.Str || (v.IsNumeric() && v.Num != o.Num) {
				return false
			}
		}
	}
	return true
}

func (d *Dataset) cloneColumns() []Column {
	cols := make([]Column, len(d.columns))
	for c, col := range d.columns {
		cols[c] = Column{Name: col.Name, Values: append([]Value(nil), col.Values...)}
	}
	return cols
}

func (d *Dataset) cloneIndex() map[string]int {
	index := make(map[string]int, len(d.index))
	for k, v := range d.index {
		index[k] = v
	}
	return index
}

// NumericColumns returns the names of columns holding at least atLeast numeric
// cells. Text cells such as missing-value tokens do not disqualify a column.
func (d *Dataset) NumericColumns(atLeast int) []string {
	var names []string
	for _, col := range d.columns {
		n := 0
		for _, v := range col.Values {
			if v.IsNumeric() {
				n++
			}
		}
		if n >= atLeast {
			names = append(names, col.Name)
		}
	}
	return names
}

// Selection is the pair of columns an analysis runs on
type Selection struct {
	X string `json:"x"`
	Y string `json:"y"`
}

// Validate checks that both columns exist and are distinct.
func (s Selection) Validate(d *Dataset) error {
	for _, name := range []string{s.X, s.Y} {
		if !d.Has(name) {
			return core.NewColumnNotFoundError(name)
		}
	}
	if s.X == s.Y {
		return fmt.Errorf("%w: %q", core.ErrSameColumn, s.X)
	}
	return nil
}
