package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"pairstat/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCode_DomainSentinels(t *testing.T) {
	assert.Equal(t, CodeColumnNotFound, GetCode(core.NewColumnNotFoundError("Area")))
	assert.Equal(t, CodeDegenerateVariance, GetCode(fmt.Errorf("fit: %w", core.ErrDegenerateVariance)))
	assert.Equal(t, CodeUnsupportedFormat, GetCode(core.NewUnsupportedFormatError(".sql", "no")))
	assert.Equal(t, CodeInternalError, GetCode(stderrors.New("boom")))
}

func TestWrap_KeepsCodeAndChain(t *testing.T) {
	err := Wrap(core.ErrEmptyResult, "cleaning failed")

	assert.Equal(t, CodeEmptyResult, GetCode(err))
	assert.True(t, stderrors.Is(err, core.ErrEmptyResult))
	assert.Equal(t, "cleaning failed: "+core.ErrEmptyResult.Error(), err.Error())
	assert.Nil(t, Wrap(nil, "ignored"))
}

func TestWithCode(t *testing.T) {
	err := WithCode(CodeInvalidInput, stderrors.New("bad"))
	assert.Equal(t, CodeInvalidInput, GetCode(err))
	assert.True(t, IsAppError(err))
	assert.Nil(t, WithCode(CodeInvalidInput, nil))
}

func TestFromDomain(t *testing.T) {
	app := FromDomain(fmt.Errorf("%w: x", core.ErrNonPositiveValue))
	require.NotNil(t, app)
	assert.Equal(t, CodeNonPositiveValue, app.Code)
	assert.Contains(t, app.Message, "x")

	existing := ValidationError("x is required")
	assert.Same(t, existing, FromDomain(fmt.Errorf("handler: %w", existing)))
	assert.Nil(t, FromDomain(nil))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(core.NewColumnNotFoundError("Area")))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(fmt.Errorf("%w: x", core.ErrSameColumn)))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(core.NewUnsupportedFormatError(".sql", "no")))
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(core.NewDegenerateVarianceError("x")))
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(core.NewNonFiniteValueError("k")))
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(fmt.Errorf("clean: %w", core.ErrEmptyResult)))
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(Wrap(core.ErrLengthMismatch, "fit")))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(ValidationError("x is required")))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NotFound("report")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, HTTPStatus(New(CodeRequestTooLarge, "too big")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(InternalError("boom")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(fmt.Errorf("disk full")))
}
