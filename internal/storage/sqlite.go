package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/docqa/internal/models"
)

// SQLiteStorage implements Storage using SQLite. Timestamps are stored as Unix milliseconds.
type SQLiteStorage struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db, now: time.Now}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		document_url TEXT NOT NULL,
		questions TEXT NOT NULL,
		status TEXT NOT NULL,
		message TEXT NOT NULL DEFAULT '',
		progress INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at);

	CREATE TABLE IF NOT EXISTS job_results (
		job_id TEXT PRIMARY KEY,
		result TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (job_id) REFERENCES jobs(id) ON DELETE CASCADE
	);
	`
	_, err := db.Exec(schema)
	return err
}

// CreateJob inserts a job with status idle and returns its ID.
func (s *SQLiteStorage) CreateJob(ctx context.Context, req *models.ProcessingRequest) (string, error) {
	questionsJSON, err := json.Marshal(req.Questions)
	if err != nil {
		return "", fmt.Errorf("failed to marshal questions: %w", err)
	}
	id := uuid.New().String()
	now := s.now().UnixMilli()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, document_url, questions, status, message, progress, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
		id, req.Documents, string(questionsJSON), string(models.StatusIdle), "Request received", now, now,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create job: %w", err)
	}
	return id, nil
}

// GetJob returns a job by ID.
func (s *SQLiteStorage) GetJob(ctx context.Context, id string) (*Job, error) {
	var (
		job                  Job
		questionsJSON        string
		status               string
		createdAt, updatedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, document_url, questions, status, message, progress, created_at, updated_at
		 FROM jobs WHERE id = ?`, id,
	).Scan(&job.ID, &job.DocumentURL, &questionsJSON, &status, &job.Status.Message, &job.Status.Progress, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(questionsJSON), &job.Questions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal questions: %w", err)
	}
	job.Status.Status = models.Status(status)
	job.CreatedAt = time.UnixMilli(createdAt)
	job.UpdatedAt = time.UnixMilli(updatedAt)
	job.Status.UpdatedAt = job.UpdatedAt
	return &job, nil
}

// UpdateStatus replaces the status of job id.
func (s *SQLiteStorage) UpdateStatus(ctx context.Context, id string, status models.ProcessingStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, message = ?, progress = ?, updated_at = ? WHERE id = ?`,
		string(status.Status), status.Message, status.Progress, s.now().UnixMilli(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}
	return expectRow(res, id)
}

// GetStatus returns the latest status of job id.
func (s *SQLiteStorage) GetStatus(ctx context.Context, id string) (*models.ProcessingStatus, error) {
	job, err := s.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	return &job.Status, nil
}

// SaveResult stores or replaces the result of job id.
func (s *SQLiteStorage) SaveResult(ctx context.Context, id string, result *models.ProcessingResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO job_results (job_id, result, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(job_id) DO UPDATE SET result = excluded.result, created_at = excluded.created_at`,
		id, string(data), s.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to save result for job %s: %w", id, err)
	}
	return nil
}

// GetResult returns the stored result of job id.
func (s *SQLiteStorage) GetResult(ctx context.Context, id string) (*models.ProcessingResult, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT result FROM job_results WHERE job_id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("result for job %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	var result models.ProcessingResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return &result, nil
}

// ListJobsBefore returns the IDs of jobs created before t, oldest first.
func (s *SQLiteStorage) ListJobsBefore(ctx context.Context, t time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM jobs WHERE created_at < ? ORDER BY created_at`, t.UnixMilli())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteJobsBefore removes jobs created before t. Results are removed by cascade.
func (s *SQLiteStorage) DeleteJobsBefore(ctx context.Context, t time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE created_at < ?`, t.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to delete jobs: %w", err)
	}
	return res.RowsAffected()
}

// CountJobs returns the number of stored jobs.
func (s *SQLiteStorage) CountJobs(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM jobs").Scan(&n)
	return n, err
}

// Ping checks that the database is reachable.
func (s *SQLiteStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func expectRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	return nil
}
