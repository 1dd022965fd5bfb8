package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"pairstat/domain/core"
)

// AppError represents a structured application error
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context. Domain errors keep their code.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    GetCode(err),
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode adds an error code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    code,
			Message: appErr.Message,
			Cause:   appErr.Cause,
		}
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetCode returns the code of the outermost AppError in the chain, the code
// of a wrapped domain sentinel, or CodeInternalError.
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	for _, m := range domainCodes {
		if stderrors.Is(err, m.sentinel) {
			return m.code
		}
	}
	return CodeInternalError
}

// Predefined error codes
const (
	CodeConfigInvalid      = "CONFIG_INVALID"
	CodeValidationError    = "VALIDATION_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeInternalError      = "INTERNAL_ERROR"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeColumnNotFound     = "COLUMN_NOT_FOUND"
	CodeSameColumn         = "SAME_COLUMN"
	CodeEmptyColumn        = "EMPTY_COLUMN"
	CodeEmptyResult        = "EMPTY_RESULT"
	CodeDegenerateVariance = "DEGENERATE_VARIANCE"
	CodeInsufficientData   = "INSUFFICIENT_DATA"
	CodeNonPositiveValue   = "NON_POSITIVE_VALUE"
	CodeLengthMismatch     = "LENGTH_MISMATCH"
	CodeNonFiniteValue     = "NON_FINITE_VALUE"
	CodeUnsupportedFormat  = "UNSUPPORTED_FORMAT"
	CodeRequestTooLarge    = "REQUEST_TOO_LARGE"
)

var domainCodes = []struct {
	sentinel error
	code     string
}{
	{core.ErrColumnNotFound, CodeColumnNotFound},
	{core.ErrSameColumn, CodeSameColumn},
	{core.ErrEmptyColumn, CodeEmptyColumn},
	{core.ErrEmptyResult, CodeEmptyResult},
	{core.ErrDegenerateVariance, CodeDegenerateVariance},
	{core.ErrInsufficientData, CodeInsufficientData},
	{core.ErrNonPositiveValue, CodeNonPositiveValue},
	{core.ErrLengthMismatch, CodeLengthMismatch},
	{core.ErrNonFiniteValue, CodeNonFiniteValue},
	{core.ErrUnsupportedFormat, CodeUnsupportedFormat},
}

// FromDomain converts any error into an AppError carrying a stable code.
// The message is the error text itself.
func FromDomain(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return &AppError{Code: GetCode(err), Message: err.Error(), Cause: err}
}

// HTTPStatus picks the status the dashboard responds with. Domain errors are
// classified by the core helpers: selection and format errors are 400, data
// the statistics cannot handle is 422. Application codes decide the rest.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case core.IsSelectionError(err), stderrors.Is(err, core.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case core.IsEmptyError(err), core.IsStatisticalError(err):
		return http.StatusUnprocessableEntity
	}
	switch GetCode(err) {
	case CodeValidationError, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeRequestTooLarge:
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func ValidationError(message string) *AppError {
	return New(CodeValidationError, message)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}
