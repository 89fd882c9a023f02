package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/httplog/v3"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openhrm/hrm/internal/domain/attendance"
	"github.com/openhrm/hrm/internal/domain/auth"
	"github.com/openhrm/hrm/internal/domain/employee"
	"github.com/openhrm/hrm/internal/domain/payroll"
	"github.com/openhrm/hrm/internal/domain/salary"
	"github.com/openhrm/hrm/internal/platform/config"
	"github.com/openhrm/hrm/internal/platform/db"
	"github.com/openhrm/hrm/internal/platform/jobs"
	"github.com/openhrm/hrm/internal/platform/metrics"
	attendancehandler "github.com/openhrm/hrm/internal/transport/http/handlers/attendance"
	authhandler "github.com/openhrm/hrm/internal/transport/http/handlers/auth"
	employeehandler "github.com/openhrm/hrm/internal/transport/http/handlers/employees"
	jobshandler "github.com/openhrm/hrm/internal/transport/http/handlers/jobs"
	payrollhandler "github.com/openhrm/hrm/internal/transport/http/handlers/payroll"
	salaryhandler "github.com/openhrm/hrm/internal/transport/http/handlers/salary"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	Config  config.Config
	DB      *pgxpool.Pool
	Jobs    *jobs.Service
	Metrics *metrics.Collector
	Router  http.Handler
}

// NewLogger builds the process logger: JSON to stdout with ECS field names so
// request logs from httplog and application logs share one schema.
func NewLogger(cfg config.Config) *slog.Logger {
	format := httplog.SchemaECS.Concise(cfg.Environment != "production")
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.SlogLevel(),
		ReplaceAttr: format.ReplaceAttr,
	})).With(
		slog.String("app", "hrm"),
		slog.String("env", cfg.Environment),
	)
}

// New connects to Postgres, applies migrations and seed data as configured,
// and wires every service behind the HTTP router.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}

	if cfg.RunMigrations {
		if err := db.Migrate(pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}

	authStore := auth.NewStore(pool)
	if cfg.RunSeed {
		if err := Seed(ctx, authStore, cfg); err != nil {
			pool.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	collector := metrics.New()
	runner := jobs.New(jobs.NewStore(pool), cfg.JobQueueSize)

	employees := employee.NewService(employee.NewStore(pool))
	ledger := attendance.NewService(attendance.NewStore(pool), cfg.Attendance)
	structures := salary.NewService(salary.NewStore(pool))
	payrollSvc := payroll.NewService(payroll.NewStore(pool), payroll.ServiceConfig{
		Policy:   payroll.PolicyFromConfig(cfg.Payroll),
		Timeout:  cfg.Payroll.CalculationTimeout,
		Observer: collector,
	})

	router := NewRouter(RouterConfig{
		Config: cfg,
		Logger: logger,
		Pinger: pool,
		Routes: []RouteRegistrar{
			authhandler.NewHandler(auth.NewService(authStore, cfg.JWTSecret, cfg.JWTTTL)),
			employeehandler.NewHandler(employees, authStore),
			attendancehandler.NewHandler(ledger, employees, authStore),
			salaryhandler.NewHandler(structures, authStore),
			payrollhandler.NewHandler(payrollSvc, runner, authStore, collector),
			jobshandler.NewHandler(runner, authStore),
		},
		Metrics: collector,
	})

	return &App{Config: cfg, DB: pool, Jobs: runner, Metrics: collector, Router: router}, nil
}

// Run serves HTTP and the job worker until ctx is cancelled, then drains both.
func (a *App) Run(ctx context.Context) error {
	workerCtx, stopWorker := context.WithCancel(context.WithoutCancel(ctx))
	defer stopWorker()
	a.Jobs.Start(workerCtx)

	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("hrm server listening", "addr", a.Config.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		stopWorker()
		a.Jobs.Wait()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	stopWorker()
	a.Jobs.Wait()
	return err
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}
