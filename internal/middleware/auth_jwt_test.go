package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"app/internal/config"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func runAuth(t *testing.T, authz string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := AuthJWT(config.Config{JWTSecret: testSecret})
	handler := mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	return rec, c
}

// Test: 正しいトークンならuser_idとroleがcontextに入る
func TestAuthJWTValidToken(t *testing.T) {
	token := signToken(t, testSecret, jwt.MapClaims{
		"sub":  "7",
		"role": "USER",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	rec, c := runAuth(t, "Bearer "+token)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), c.Get(CtxUserIDKey))
	assert.Equal(t, "USER", c.Get(CtxUserRoleKey))
}

// Test: subは数値でも通る
func TestAuthJWTNumericSub(t *testing.T) {
	token := signToken(t, testSecret, jwt.MapClaims{
		"sub":  7,
		"role": "ADMIN",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	rec, c := runAuth(t, "Bearer "+token)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), c.Get(CtxUserIDKey))
}

// Test: ヘッダなしは401
func TestAuthJWTMissingHeader(t *testing.T) {
	rec, _ := runAuth(t, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// Test: Bearer形式でないヘッダは401
func TestAuthJWTMalformedHeader(t *testing.T) {
	rec, _ := runAuth(t, "Token abc")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// Test: 署名が違うトークンは401
func TestAuthJWTWrongSignature(t *testing.T) {
	token := signToken(t, "other-secret", jwt.MapClaims{
		"sub":  "7",
		"role": "USER",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	rec, _ := runAuth(t, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// Test: 期限切れトークンは401
func TestAuthJWTExpiredToken(t *testing.T) {
	token := signToken(t, testSecret, jwt.MapClaims{
		"sub":  "7",
		"role": "USER",
		"exp":  time.Now().Add(-time.Hour).Unix(),
	})

	rec, _ := runAuth(t, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// Test: roleが無いトークンは401
func TestAuthJWTMissingRole(t *testing.T) {
	token := signToken(t, testSecret, jwt.MapClaims{
		"sub": "7",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	rec, _ := runAuth(t, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
