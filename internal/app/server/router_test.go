package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openhrm/hrm/internal/domain/auth"
	"github.com/openhrm/hrm/internal/platform/config"
	"github.com/openhrm/hrm/internal/platform/metrics"
	"github.com/openhrm/hrm/internal/transport/http/api"
	"github.com/openhrm/hrm/internal/transport/http/middleware"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

// whoami echoes the authenticated user so tests can see what Auth attached.
type whoami struct{}

func (whoami) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireAuth).Get("/whoami", func(w http.ResponseWriter, r *http.Request) {
		user, _ := middleware.GetUser(r.Context())
		api.Success(w, user.UserID, middleware.GetRequestID(r.Context()))
	})
	r.Post("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func testConfig() config.Config {
	return config.Config{
		JWTSecret:          "test-secret",
		Environment:        "test",
		MaxBodyBytes:       1 << 20,
		RateLimitPerMinute: 4,
		MetricsEnabled:     true,
		CORSAllowedOrigins: []string{"http://localhost:5173"},
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter(cfg config.Config, pinger Pinger) (http.Handler, *metrics.Collector) {
	collector := metrics.New()
	return NewRouter(RouterConfig{
		Config:  cfg,
		Logger:  quietLogger(),
		Pinger:  pinger,
		Routes:  []RouteRegistrar{whoami{}},
		Metrics: collector,
	}), collector
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndReadiness(t *testing.T) {
	h, _ := newTestRouter(testConfig(), fakePinger{})
	assert.Equal(t, http.StatusOK, serve(h, httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)
	assert.Equal(t, http.StatusOK, serve(h, httptest.NewRequest(http.MethodGet, "/readyz", nil)).Code)

	down, _ := newTestRouter(testConfig(), fakePinger{err: errors.New("down")})
	assert.Equal(t, http.StatusServiceUnavailable, serve(down, httptest.NewRequest(http.MethodGet, "/readyz", nil)).Code)
}

func TestV1AuthAndHeaders(t *testing.T) {
	cfg := testConfig()
	h, _ := newTestRouter(cfg, fakePinger{})

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/v1/whoami", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	token, err := auth.GenerateToken(cfg.JWTSecret, auth.Claims{UserID: "u-42", RoleName: auth.RoleHR}, time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/v1/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = serve(h, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "u-42")
}

func TestV1UnknownRouteIsJSON(t *testing.T) {
	h, _ := newTestRouter(testConfig(), fakePinger{})
	rec := serve(h, httptest.NewRequest(http.MethodGet, "/v1/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"not_found"`)
}

func TestLoginIsRateLimited(t *testing.T) {
	h, _ := newTestRouter(testConfig(), fakePinger{})
	login := func() int {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(`{"email":"a@example.com"}`))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "198.51.100.7:1000"
		return serve(h, req).Code
	}
	assert.Equal(t, http.StatusNoContent, login())
	assert.Equal(t, http.StatusTooManyRequests, login())
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := newTestRouter(testConfig(), fakePinger{})
	serve(h, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `hrm_http_requests_total{method="GET",route="/healthz",status="200"} 1`)

	cfg := testConfig()
	cfg.MetricsEnabled = false
	off, _ := newTestRouter(cfg, fakePinger{})
	assert.NotEqual(t, http.StatusOK, serve(off, httptest.NewRequest(http.MethodGet, "/metrics", nil)).Code)
}

func TestSPAFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>app</html>"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o600))

	cfg := testConfig()
	cfg.FrontendDir = dir
	h, _ := newTestRouter(cfg, fakePinger{})

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/payroll/periods", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "app</html>")

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/app.js", nil))
	assert.Contains(t, rec.Body.String(), "console.log")
}
