package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"app/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runWriteError(t *testing.T, debug bool, err error) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.Debug = debug
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, writeError(c, err))
	return rec
}

// Test: HTTPErrorはステータスとコードをそのまま返す
func TestWriteErrorHTTPError(t *testing.T) {
	rec := runWriteError(t, false,
		usecase.NewHTTPError(http.StatusBadRequest, usecase.CodeOutOfStock, "out of stock"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"out of stock","code":"OUT_OF_STOCK"}`, rec.Body.String())
}

// Test: 500の元エラーは本番では隠す
func TestWriteErrorInternalHidesCause(t *testing.T) {
	rec := runWriteError(t, false, usecase.WrapInternal(errors.New("pq: connection refused")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
	assert.Contains(t, rec.Body.String(), "INTERNAL")
}

// Test: devモードでは500の元エラーを本文に出す
func TestWriteErrorInternalShowsCauseInDebug(t *testing.T) {
	rec := runWriteError(t, true, usecase.WrapInternal(errors.New("pq: connection refused")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

// Test: 素のerrorは500の汎用メッセージに丸める
func TestWriteErrorPlainError(t *testing.T) {
	rec := runWriteError(t, false, errors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "boom")
}
