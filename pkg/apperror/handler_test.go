package apperror

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runHandler(t *testing.T, method string, err error) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	HTTPErrorHandler(slog.Default())(err, c)

	if rec.Body.Len() == 0 {
		return rec, nil
	}
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp["error"].(map[string]any)
}

func TestHTTPErrorHandler_AppError(t *testing.T) {
	rec, errObj := runHandler(t, http.MethodGet,
		NewBadRequest("invalid property").WithDetails(map[string]any{"property": "p9"}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "bad_request", errObj["code"])
	assert.Equal(t, "invalid property", errObj["message"])
	assert.Equal(t, map[string]any{"property": "p9"}, errObj["details"])
}

func TestHTTPErrorHandler_EchoError(t *testing.T) {
	rec, errObj := runHandler(t, http.MethodGet, echo.NewHTTPError(http.StatusNotFound, "route not found"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", errObj["code"])
	assert.Equal(t, "route not found", errObj["message"])
}

func TestHTTPErrorHandler_StructuredEchoError(t *testing.T) {
	rec, errObj := runHandler(t, http.MethodGet, ErrPreconditionFailed.ToEchoError())

	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
	assert.Equal(t, "precondition_failed", errObj["code"])
}

func TestHTTPErrorHandler_PlainError(t *testing.T) {
	rec, errObj := runHandler(t, http.MethodGet, assert.AnError)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_error", errObj["code"])
}

func TestHTTPErrorHandler_Head(t *testing.T) {
	rec, errObj := runHandler(t, http.MethodHead, ErrNotFound)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Nil(t, errObj)
}
