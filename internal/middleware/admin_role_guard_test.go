package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runGuard(t *testing.T, role interface{}) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/admin/orders", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if role != nil {
		c.Set(CtxUserRoleKey, role)
	}

	handler := AdminRoleGuard()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	return rec
}

// Test: ADMINだけ通す
func TestAdminRoleGuard(t *testing.T) {
	assert.Equal(t, http.StatusOK, runGuard(t, "ADMIN").Code)
	assert.Equal(t, http.StatusForbidden, runGuard(t, "USER").Code)
	assert.Equal(t, http.StatusUnauthorized, runGuard(t, nil).Code)
}
