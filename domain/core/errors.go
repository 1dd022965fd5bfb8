package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Selection errors
	ErrColumnNotFound = errors.New("column not found")
	ErrSameColumn     = errors.New("x and y columns must be distinct")

	// Empty data errors
	ErrEmptyColumn = errors.New("column has no valid values")
	ErrEmptyResult = errors.New("no valid rows remain")

	// Statistical errors
	ErrDegenerateVariance = errors.New("zero variance")
	ErrInsufficientData   = errors.New("insufficient data for analysis")
	ErrNonPositiveValue   = errors.New("log-log requires strictly positive values")
	ErrLengthMismatch     = errors.New("x and y lengths differ")
	ErrNonFiniteValue     = errors.New("value is NaN or infinite")

	// Input errors
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// Error constructors with context
func NewColumnNotFoundError(column string) error {
	return fmt.Errorf("%w: %q", ErrColumnNotFound, column)
}

func NewDegenerateVarianceError(what string) error {
	return fmt.Errorf("%w: %s", ErrDegenerateVariance, what)
}

func NewInsufficientDataError(got, need int) error {
	return fmt.Errorf("%w: %d observations, need at least %d", ErrInsufficientData, got, need)
}

func NewNonPositiveValueError(column string, index int, value float64) error {
	return fmt.Errorf("%w: %s[%d] = %g", ErrNonPositiveValue, column, index, value)
}

// NewNonFiniteValueError reports an infinite input or a result that does not
// fit in a float64.
func NewNonFiniteValueError(what string) error {
	return fmt.Errorf("%w: %s", ErrNonFiniteValue, what)
}

func NewUnsupportedFormatError(ext, reason string) error {
	return fmt.Errorf("%w %q: %s", ErrUnsupportedFormat, ext, reason)
}

// Error checking helpers
func IsSelectionError(err error) bool {
	return errors.Is(err, ErrColumnNotFound) || errors.Is(err, ErrSameColumn)
}

func IsEmptyError(err error) bool {
	return errors.Is(err, ErrEmptyColumn) || errors.Is(err, ErrEmptyResult)
}

// IsStatisticalError reports whether err comes from a computation that
// cannot be carried out on the given data.
func IsStatisticalError(err error) bool {
	return errors.Is(err, ErrDegenerateVariance) ||
		errors.Is(err, ErrInsufficientData) ||
		errors.Is(err, ErrNonPositiveValue) ||
		errors.Is(err, ErrLengthMismatch) ||
		errors.Is(err, ErrNonFiniteValue)
}
