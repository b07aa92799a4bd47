package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorError(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "without internal error",
			err:      New(http.StatusNotFound, "not_found", "Resource not found"),
			expected: "not_found: Resource not found",
		},
		{
			name:     "with internal error",
			err:      NewInternal("Something went wrong", errors.New("store closed")),
			expected: "internal_error: Something went wrong (store closed)",
		},
		{
			name:     "empty message",
			err:      New(http.StatusBadRequest, "bad_request", ""),
			expected: "bad_request: ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestWithHelpersCopy(t *testing.T) {
	cause := errors.New("cause")
	err := ErrBadRequest.
		WithMessage("invalid property").
		WithDetails(map[string]any{"property": "p1"}).
		WithInternal(cause)

	assert.Equal(t, "Invalid request", ErrBadRequest.Message, "sentinel must not be mutated")
	assert.Equal(t, "invalid property", err.Message)
	assert.Equal(t, "p1", err.Details["property"])
	assert.Same(t, cause, err.Unwrap())
}

func TestErrorsIsMatchesCopies(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewNotFound("vertex", "42"))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrBadRequest))
}

func TestFromStatus(t *testing.T) {
	tests := []struct {
		status   int
		wantCode string
		wantHTTP int
	}{
		{http.StatusBadRequest, "bad_request", http.StatusBadRequest},
		{http.StatusNotFound, "not_found", http.StatusNotFound},
		{http.StatusServiceUnavailable, "service_unavailable", http.StatusServiceUnavailable},
		{http.StatusTeapot, "i'm_a_teapot", http.StatusTeapot},
		{0, "internal_error", http.StatusInternalServerError},
		{http.StatusOK, "internal_error", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			err := FromStatus(tt.status, "remote said no")
			assert.Equal(t, tt.wantHTTP, err.HTTPStatus)
			assert.Equal(t, tt.wantCode, err.Code)
			assert.Equal(t, "remote said no", err.Message)
		})
	}
}

func TestAsAndStatusOf(t *testing.T) {
	assert.Nil(t, As(nil))
	assert.Equal(t, http.StatusOK, StatusOf(nil))

	plain := errors.New("boom")
	appErr := As(plain)
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusInternalServerError, appErr.HTTPStatus)
	assert.Same(t, plain, appErr.Unwrap())

	wrapped := fmt.Errorf("ctx: %w", ErrPreconditionFailed)
	assert.Equal(t, http.StatusPreconditionFailed, StatusOf(wrapped))
}

func TestToHTTPError(t *testing.T) {
	status, body := ToHTTPError(NewBadRequest("nope").WithDetails(map[string]any{"k": "v"}))
	assert.Equal(t, http.StatusBadRequest, status)
	errBody := body["error"].(map[string]any)
	assert.Equal(t, "bad_request", errBody["code"])
	assert.Equal(t, "nope", errBody["message"])
	assert.Equal(t, map[string]any{"k": "v"}, errBody["details"])

	status, body = ToHTTPError(errors.New("raw"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal_error", body["error"].(map[string]any)["code"])
}
