package authhandler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openhrm/hrm/internal/domain/auth"
	"github.com/openhrm/hrm/internal/transport/http/middleware"
)

type fakeAuth struct {
	email, password string
}

func (f fakeAuth) Login(_ context.Context, email, password string) (auth.LoginResult, error) {
	if email != f.email || password != f.password {
		return auth.LoginResult{}, auth.ErrInvalidCredentials
	}
	return auth.LoginResult{AccessToken: "tok", UserID: "u1", Role: auth.RoleHR, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func newRouter() http.Handler {
	r := chi.NewRouter()
	NewHandler(fakeAuth{email: "hr@example.com", password: "secret"}).RegisterRoutes(r)
	return r
}

func post(h http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestLogin(t *testing.T) {
	rec := post(newRouter(), `{"email":"hr@example.com","password":"secret"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data auth.LoginResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "tok", body.Data.AccessToken)
	assert.Equal(t, auth.RoleHR, body.Data.Role)
}

func TestLoginFailures(t *testing.T) {
	h := newRouter()
	assert.Equal(t, http.StatusUnauthorized, post(h, `{"email":"hr@example.com","password":"wrong"}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(h, `{"email":""}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(h, `not json`).Code)
}

func TestMeRequiresUser(t *testing.T) {
	h := newRouter()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req = req.WithContext(middleware.WithUser(req.Context(), auth.UserContext{UserID: "u1", RoleName: auth.RoleEmployee}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), auth.PermPayrollSelf)
}
