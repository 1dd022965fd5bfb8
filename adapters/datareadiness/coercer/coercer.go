package coercer

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"pairstat/domain/dataset"
)

// TypeCoercer handles deterministic conversion of raw cells to typed values
type TypeCoercer struct {
	config CoercionConfig
}

// CoercionConfig defines the coercion rules
type CoercionConfig struct {
	// LenientNumbers accepts currency symbols, percent signs, thousands
	// separators, decimal commas and (123) negatives. When false only
	// strconv.ParseFloat syntax is numeric.
	LenientNumbers bool `json:"lenient_numbers"`
	// TrimStrings removes leading/trailing whitespace from text cells.
	TrimStrings bool `json:"trim_strings"`
}

// DefaultCoercionConfig returns sensible defaults
func DefaultCoercionConfig() CoercionConfig {
	return CoercionConfig{
		LenientNumbers: false,
		TrimStrings:    true,
	}
}

// NewTypeCoercer creates a coercer with the given config
func NewTypeCoercer(config CoercionConfig) *TypeCoercer {
	return &TypeCoercer{config: config}
}

// CoerceValue converts a raw reader value into a typed cell. Numbers stay
// numeric, strings stay text (numeric-looking strings are not converted
// here; see ToNumeric), nil becomes missing.
func (c *TypeCoercer) CoerceValue(rawValue interface{}) dataset.Value {
	switch v := rawValue.(type) {
	case nil:
		return dataset.Missing()
	case dataset.Value:
		return v
	case float64:
		return dataset.Numeric(v)
	case float32:
		return dataset.Numeric(float64(v))
	case int:
		return dataset.Numeric(float64(v))
	case int64:
		return dataset.Numeric(float64(v))
	case int32:
		return dataset.Numeric(float64(v))
	case uint64:
		return dataset.Numeric(float64(v))
	case bool:
		return dataset.Text(strconv.FormatBool(v))
	case string:
		if c.config.TrimStrings {
			v = strings.TrimSpace(v)
		}
		return dataset.Text(v)
	default:
		return dataset.Text(fmt.Sprintf("%v", v))
	}
}

// ToNumeric converts a cell to a numeric value, or missing when it cannot
// be parsed.
func (c *TypeCoercer) ToNumeric(v dataset.Value) dataset.Value {
	switch v.Type {
	case dataset.ValueTypeNumeric:
		return v
	case dataset.ValueTypeString:
		if f, ok := c.ParseNumber(v.Str); ok {
			return dataset.Numeric(f)
		}
	}
	return dataset.Missing()
}

// ParseNumber parses s according to the coercer's rules. NaN and infinities
// are never accepted.
func (c *TypeCoercer) ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if c.config.LenientNumbers {
		s = normalizeNumber(s)
	}
	val, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(val, 0) || math.IsNaN(val) {
		return 0, false
	}
	return val, true
}

// normalizeNumber rewrites international number formats into ParseFloat syntax:
// parentheses for negatives, currency symbols, European decimals.
func normalizeNumber(cleanVal string) string {
	isNegative := false
	if strings.HasPrefix(cleanVal, "(") && strings.HasSuffix(cleanVal, ")") {
		cleanVal = strings.TrimSuffix(strings.TrimPrefix(cleanVal, "("), ")")
		isNegative = true
	}

	for _, symbol := range []string{"R$", "$", "€", "£", "¥", "USD", "EUR", "GBP", "BRL"} {
		cleanVal = strings.ReplaceAll(cleanVal, symbol, "")
	}
	cleanVal = strings.TrimSpace(cleanVal)
	cleanVal = strings.ReplaceAll(cleanVal, "%", "")

	hasComma := strings.Contains(cleanVal, ",")
	hasPeriod := strings.Contains(cleanVal, ".")
	hasSpace := strings.Contains(cleanVal, " ")

	switch {
	case hasComma && (hasPeriod || hasSpace):
		// 1.234,56 or 1 234,56 when the comma comes last
		commaIdx := strings.LastIndex(cleanVal, ",")
		if commaIdx > strings.LastIndex(cleanVal, ".") {
			cleanVal = strings.ReplaceAll(cleanVal, ".", "")
			cleanVal = strings.ReplaceAll(cleanVal, " ", "")
			cleanVal = strings.ReplaceAll(cleanVal, ",", ".")
		} else {
			cleanVal = strings.ReplaceAll(cleanVal, ",", "")
			cleanVal = strings.ReplaceAll(cleanVal, " ", "")
		}
	case hasComma:
		// a lone comma with exactly three trailing digits is a thousands separator
		parts := strings.Split(cleanVal, ",")
		if len(parts) > 2 || (len(parts) == 2 && len(parts[1]) == 3) {
			cleanVal = strings.ReplaceAll(cleanVal, ",", "")
		} else {
			cleanVal = strings.ReplaceAll(cleanVal, ",", ".")
		}
	default:
		cleanVal = strings.ReplaceAll(cleanVal, " ", "")
	}

	if isNegative {
		cleanVal = "-" + cleanVal
	}
	return cleanVal
}

// AnalyzeTypeDistribution counts how many cells of a column are numeric
// under the coercer's rules.
func (c *TypeCoercer) AnalyzeTypeDistribution(values []dataset.Value) TypeAnalysis {
	analysis := TypeAnalysis{TotalCount: len(values)}
	for _, v := range values {
		if v.IsMissing() {
			continue
		}
		analysis.ValidCount++
		if c.ToNumeric(v).IsNumeric() {
			analysis.NumericCount++
		}
	}
	if analysis.ValidCount > 0 {
		analysis.NumericRatio = float64(analysis.NumericCount) / float64(analysis.ValidCount)
	}
	return analysis
}

// TypeAnalysis contains the results of type distribution analysis
type TypeAnalysis struct {
	TotalCount   int     `json:"total_count"`
	ValidCount   int     `json:"valid_count"`
	NumericCount int     `json:"numeric_count"`
	NumericRatio float64 `json:"numeric_ratio"`
}
