package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/openhrm/hrm/internal/platform/db"
)

var ErrRunNotFound = errors.New("job run not found")

type Run struct {
	ID          string          `json:"id"`
	JobType     string          `json:"job_type"`
	Status      string          `json:"status"`
	Details     json.RawMessage `json:"details"`
	CreatedBy   *string         `json:"created_by,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

type Store struct {
	DB db.Querier
}

func NewStore(q db.Querier) *Store {
	return &Store{DB: q}
}

func (s *Store) CreateRun(ctx context.Context, jobType, status, createdBy string) (string, error) {
	var id string
	var creator any
	if createdBy != "" {
		creator = createdBy
	}
	err := s.DB.QueryRow(ctx, `
    INSERT INTO job_runs (job_type, status, created_by)
    VALUES ($1, $2, $3)
    RETURNING id
  `, jobType, status, creator).Scan(&id)
	return id, err
}

func (s *Store) SetStatus(ctx context.Context, runID, status string) error {
	_, err := s.DB.Exec(ctx, "UPDATE job_runs SET status = $1 WHERE id = $2", status, runID)
	return err
}

func (s *Store) FinishRun(ctx context.Context, runID, status string, detailsJSON []byte) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE job_runs
    SET status = $1, details_json = $2, completed_at = now()
    WHERE id = $3
  `, status, detailsJSON, runID)
	return err
}

func (s *Store) GetRun(ctx context.Context, runID string) (Run, error) {
	var run Run
	var details []byte
	err := s.DB.QueryRow(ctx, `
    SELECT id, job_type, status, details_json, created_by::text, created_at, completed_at
    FROM job_runs
    WHERE id = $1
  `, runID).Scan(&run.ID, &run.JobType, &run.Status, &details, &run.CreatedBy, &run.CreatedAt, &run.CompletedAt)
	var pgErr *pgconn.PgError
	if errors.Is(err, pgx.ErrNoRows) || (errors.As(err, &pgErr) && pgErr.Code == "22P02") {
		return Run{}, ErrRunNotFound
	}
	if err != nil {
		return Run{}, err
	}
	run.Details = details
	return run, nil
}
