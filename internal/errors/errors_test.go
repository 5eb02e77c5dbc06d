package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		err  *Error
		want int
	}{
		{ValidationError("bad input"), http.StatusBadRequest},
		{NotFoundError("missing"), http.StatusNotFound},
		{InternalError("boom", nil), http.StatusInternalServerError},
		{ExternalError("bridge down", nil), http.StatusBadGateway},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.HTTPStatus())
	}
}

func TestErrorString(t *testing.T) {
	err := ValidationError("interval out of range")
	assert.Equal(t, "validation: interval out of range", err.Error())

	cause := stderrors.New("connection refused")
	wrapped := ExternalError("twitch send failed", cause)
	assert.Equal(t, "external: twitch send failed: connection refused", wrapped.Error())
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("underlying")
	err := InternalError("wrapped", cause)
	assert.ErrorIs(t, err, cause)
}

func TestWithField(t *testing.T) {
	err := ValidationError("bad input").WithField("field", "message").WithField("limit", 300)
	assert.Equal(t, "message", err.Context["field"])
	assert.Equal(t, 300, err.Context["limit"])
}

func TestAsStructuredError(t *testing.T) {
	structured := ValidationError("already structured")
	assert.Same(t, structured, AsStructuredError(structured))

	wrapped := AsStructuredError(fmt.Errorf("wrapping: %w", structured))
	assert.Same(t, structured, wrapped)

	plain := AsStructuredError(stderrors.New("plain"))
	assert.Equal(t, TypeInternal, plain.Type)

	assert.Nil(t, AsStructuredError(nil))
}

func TestIsValidation(t *testing.T) {
	assert.True(t, IsValidation(ValidationError("nope")))
	assert.False(t, IsValidation(InternalError("boom", nil)))
	assert.False(t, IsValidation(stderrors.New("plain")))
}
