package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aviary-labs/flightdesk/internal/model"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func runAuth(t *testing.T, authorization string) (*httptest.ResponseRecorder, model.Actor) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var actor model.Actor
	handler := Auth(testSecret)(func(c echo.Context) error {
		actor = ActorFrom(c)
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	return rec, actor
}

func TestAuthResolvesActor(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"sub": "stu-1", "role": "student"})
	rec, actor := runAuth(t, "Bearer "+token)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.Actor{UserID: "stu-1", Role: model.RoleStudent}, actor)
}

func TestAuthRejectsMissingHeader(t *testing.T) {
	rec, _ := runAuth(t, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejectsBadSignature(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "stu-1", "role": "student"})
	signed, err := token.SignedString([]byte("another-secret"))
	require.NoError(t, err)

	rec, _ := runAuth(t, "Bearer "+signed)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejectsUnknownRole(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"sub": "stu-1", "role": "superuser"})
	rec, _ := runAuth(t, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejectsMissingSubject(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"role": "student"})
	rec, _ := runAuth(t, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	guard := RequireRole(model.RoleAdministrator, model.RoleInstructor)(next)

	run := func(actor model.Actor) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set("actor", actor)
		require.NoError(t, guard(c))
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, run(model.Actor{UserID: "a", Role: model.RoleAdministrator}))
	assert.Equal(t, http.StatusOK, run(model.Actor{UserID: "i", Role: model.RoleInstructor}))
	assert.Equal(t, http.StatusForbidden, run(model.Actor{UserID: "s", Role: model.RoleStudent}))
}
