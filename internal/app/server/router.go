package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"

	"github.com/openhrm/hrm/internal/platform/config"
	"github.com/openhrm/hrm/internal/platform/metrics"
	"github.com/openhrm/hrm/internal/transport/http/api"
	"github.com/openhrm/hrm/internal/transport/http/middleware"
)

type RouteRegistrar interface {
	RegisterRoutes(r chi.Router)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterConfig struct {
	Config  config.Config
	Logger  *slog.Logger
	Pinger  Pinger
	Routes  []RouteRegistrar
	Metrics *metrics.Collector
}

func NewRouter(rc RouterConfig) http.Handler {
	cfg := rc.Config
	logger := rc.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  cfg.SlogLevel(),
		Schema: httplog.SchemaECS,
	}))
	router.Use(chimw.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-Job-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	headerPolicy := middleware.HeaderPolicy{HSTS: cfg.Environment == "production"}
	if cfg.FrontendDir != "" {
		headerPolicy.ContentSecurityPolicy = middleware.AppContentSecurityPolicy
	}
	router.Use(middleware.SecureHeaders(headerPolicy))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	if cfg.MetricsEnabled && rc.Metrics != nil {
		router.Use(middleware.Metrics(rc.Metrics))
		router.Method(http.MethodGet, "/metrics", rc.Metrics.Handler())
	}

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if rc.Pinger == nil {
			http.Error(w, "db not configured", http.StatusServiceUnavailable)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := rc.Pinger.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			api.Fail(w, http.StatusNotFound, "not_found", "route not found", middleware.GetRequestID(r.Context()))
		})
		for _, reg := range rc.Routes {
			reg.RegisterRoutes(r)
		}
	})

	if cfg.FrontendDir != "" {
		router.Mount("/", spaHandler{staticPath: cfg.FrontendDir, indexPath: "index.html"})
	}
	return router
}
