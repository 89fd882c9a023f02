package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
)

const (
	JobPayrollCalculation = "payroll_calculation"

	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

var (
	ErrQueueFull    = errors.New("job queue is full")
	ErrShuttingDown = errors.New("job worker stopped before the run started")
)

type RunFunc func(context.Context) (any, error)

type RunStore interface {
	CreateRun(ctx context.Context, jobType, status, createdBy string) (string, error)
	SetStatus(ctx context.Context, runID, status string) error
	FinishRun(ctx context.Context, runID, status string, detailsJSON []byte) error
	GetRun(ctx context.Context, runID string) (Run, error)
}

type Service struct {
	store RunStore
	queue chan job
	wg    sync.WaitGroup

	mu      sync.Mutex
	stopped bool
}

type job struct {
	RunID string
	Type  string
	Run   RunFunc
}

func New(store RunStore, queueSize int) *Service {
	if queueSize <= 0 {
		queueSize = 32
	}
	return &Service{store: store, queue: make(chan job, queueSize)}
}

// Start launches the worker. It stops when ctx is cancelled; Wait blocks until it has.
func (s *Service) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.worker(ctx)
	}()
}

func (s *Service) Wait() {
	s.wg.Wait()
}

// Enqueue records a queued run and hands it to the worker, returning the run id to poll.
func (s *Service) Enqueue(ctx context.Context, jobType, createdBy string, run RunFunc) (string, error) {
	runID, err := s.store.CreateRun(ctx, jobType, StatusQueued, createdBy)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		s.finish(context.WithoutCancel(ctx), runID, StatusFailed, map[string]string{"error": ErrShuttingDown.Error()})
		return "", ErrShuttingDown
	}
	select {
	case s.queue <- job{RunID: runID, Type: jobType, Run: run}:
		return runID, nil
	default:
		slog.Warn("job queue full", "jobType", jobType, "runId", runID)
		s.finish(context.WithoutCancel(ctx), runID, StatusFailed, map[string]string{"error": ErrQueueFull.Error()})
		return "", ErrQueueFull
	}
}

// RunNow executes run on the caller's goroutine while still recording it in job_runs.
func (s *Service) RunNow(ctx context.Context, jobType, createdBy string, run RunFunc) (string, any, error) {
	runID, err := s.store.CreateRun(ctx, jobType, StatusRunning, createdBy)
	if err != nil {
		slog.Warn("job run insert failed", "jobType", jobType, "err", err)
	}
	details, err := s.execute(ctx, job{RunID: runID, Type: jobType, Run: run})
	return runID, details, err
}

func (s *Service) Get(ctx context.Context, runID string) (Run, error) {
	return s.store.GetRun(ctx, runID)
}

func (s *Service) worker(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			s.drain(context.WithoutCancel(ctx))
			return
		}
		select {
		case <-ctx.Done():
			s.drain(context.WithoutCancel(ctx))
			return
		case j := <-s.queue:
			if err := s.store.SetStatus(ctx, j.RunID, StatusRunning); err != nil {
				slog.Warn("job run status update failed", "runId", j.RunID, "err", err)
			}
			if _, err := s.execute(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "runId", j.RunID, "err", err)
			}
		}
	}
}

// drain fails every run still waiting in the queue so none is left queued forever.
func (s *Service) drain(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for {
		select {
		case j := <-s.queue:
			slog.Warn("job run dropped on shutdown", "jobType", j.Type, "runId", j.RunID)
			s.finish(ctx, j.RunID, StatusFailed, map[string]string{"error": ErrShuttingDown.Error()})
		default:
			return
		}
	}
}

func (s *Service) execute(ctx context.Context, j job) (any, error) {
	details, err := j.Run(ctx)
	status := StatusCompleted
	if err != nil {
		status = StatusFailed
		details = map[string]any{"error": err.Error(), "result": details}
	}
	if j.RunID != "" {
		s.finish(context.WithoutCancel(ctx), j.RunID, status, details)
	}
	return details, err
}

func (s *Service) finish(ctx context.Context, runID, status string, details any) {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		slog.Warn("job details marshal failed", "runId", runID, "err", err)
		detailsJSON = []byte("{}")
	}
	if err := s.store.FinishRun(ctx, runID, status, detailsJSON); err != nil {
		slog.Warn("job run update failed", "runId", runID, "err", err)
	}
}
