package dataset

import (
	"math"
	"strconv"
)

// ValueType defines the storage type of a cell
type ValueType string

const (
	ValueTypeNumeric ValueType = "numeric"
	ValueTypeString  ValueType = "string"
	ValueTypeMissing ValueType = "missing"
)

// Value is a single typed cell. The zero Value is missing.
type Value struct {
	Type ValueType `json:"type"`
	Num  float64   `json:"num,omitempty"`
	Str  string    `json:"str,omitempty"`
}

// Numeric creates a numeric value. NaN and infinities are stored as missing.
func Numeric(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Missing()
	}
	return Value{Type: ValueTypeNumeric, Num: f}
}

// Text creates a string value
func Text(s string) Value {
	return Value{Type: ValueTypeString, Str: s}
}

// Missing creates a missing value
func Missing() Value {
	return Value{Type: ValueTypeMissing}
}

// IsMissing returns true for missing and zero values
func (v Value) IsMissing() bool {
	return v.Type == ValueTypeMissing || v.Type == ""
}

// IsNumeric returns true if the value holds a finite number
func (v Value) IsNumeric() bool {
	return v.Type == ValueTypeNumeric
}

// IsString returns true if the value holds text
func (v Value) IsString() bool {
	return v.Type == ValueTypeString
}

// Float returns the numeric value, or NaN when the value is not numeric.
func (v Value) Float() float64 {
	if v.Type != ValueTypeNumeric {
		return math.NaN()
	}
	return v.Num
}

// String renders the value the way it is written to exports.
func (v Value) String() string {
	switch v.Type {
	case ValueTypeNumeric:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case ValueTypeString:
		return v.Str
	}
	return ""
}
