package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zerobertocosta/Karibu/internal/config"
	"github.com/zerobertocosta/Karibu/internal/tenant"
)

const testSecret = "test-secret"

func testConfig() config.Config {
	return config.Config{Auth: config.Auth{JWTSecret: testSecret}}
}

func mintToken(t *testing.T, establishmentID int64, role string, secret string) string {
	t.Helper()
	claims := Claims{
		EstablishmentID: establishmentID,
		Role:            role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func runRequest(t *testing.T, decorate func(*http.Request)) (*httptest.ResponseRecorder, tenant.Context, bool) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	decorate(req)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var actor tenant.Context
	var seen bool
	handler := TenantAuth(testConfig())(func(c echo.Context) error {
		actor, seen = tenant.FromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	return rec, actor, seen
}

func TestTenantAuthValidToken(t *testing.T) {
	token := mintToken(t, 7, "staff", testSecret)

	rec, actor, seen := runRequest(t, func(req *http.Request) {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	require.True(t, seen)
	assert.Equal(t, int64(7), actor.EstablishmentID)
	assert.Equal(t, tenant.RoleStaff, actor.Role)
}

func TestTenantAuthQueryTokenFallback(t *testing.T) {
	token := mintToken(t, 7, "manager", testSecret)

	rec, actor, seen := runRequest(t, func(req *http.Request) {
		q := req.URL.Query()
		q.Set("token", token)
		req.URL.RawQuery = q.Encode()
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	require.True(t, seen)
	assert.Equal(t, tenant.RoleManager, actor.Role)
}

func TestTenantAuthMissingToken(t *testing.T) {
	rec, _, seen := runRequest(t, func(*http.Request) {})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, seen)
}

func TestTenantAuthWrongSignature(t *testing.T) {
	token := mintToken(t, 7, "staff", "other-secret")

	rec, _, seen := runRequest(t, func(req *http.Request) {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, seen)
}

func TestTenantAuthRejectsUnknownRole(t *testing.T) {
	token := mintToken(t, 7, "intruder", testSecret)

	rec, _, seen := runRequest(t, func(req *http.Request) {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, seen)
}

func TestRequestIDGenerated(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := RequestID()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))

	assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))
}

func TestRequestIDHonorsClientValue(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := RequestID()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))

	assert.Equal(t, "abc-123", rec.Header().Get(HeaderRequestID))
}
