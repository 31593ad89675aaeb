package handler

import (
	"net/http"

	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// usecaseのHTTPErrorをレスポンスへ変換する。
// 500の元エラーはdev（e.Debug）のときだけ本文に出す
func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		msg := he.Message
		if he.Status == http.StatusInternalServerError && he.Cause != nil && c.Echo().Debug {
			msg = he.Cause.Error()
		}
		return c.JSON(he.Status, ErrorResponse{Error: msg, Code: he.Code})
	}

	//500
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error", Code: usecase.CodeInternal})
}

func getUserIDFromContext(c echo.Context) (int64, bool) {
	v := c.Get("user_id")
	if v == nil {
		return 0, false
	}

	id, ok := v.(int64)
	if !ok {
		return 0, false
	}

	return id, true
}
