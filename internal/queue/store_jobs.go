package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"castos/internal/casting"
)

// NewJob describes a job submission.
type NewJob struct {
	Title     string
	Plot      string
	BudgetCap float64
	Industry  string
}

// Create inserts a pending job.
func (s *Store) Create(ctx context.Context, in NewJob) (*Job, error) {
	if strings.TrimSpace(in.Plot) == "" {
		return nil, errors.New("plot is required")
	}
	if in.BudgetCap <= 0 {
		return nil, errors.New("budget cap must be positive")
	}
	timestamp := formatTime(time.Now())

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO jobs (title, plot, budget_cap, industry, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		strings.TrimSpace(in.Title),
		in.Plot,
		in.BudgetCap,
		casting.NormalizeIndustry(in.Industry),
		StatusPending,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a job. It returns nil, nil when the job does not exist.
func (s *Store) GetByID(ctx context.Context, id int64) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// Save persists the job's status and payloads. The write applies only while
// the stored row is still pending (or already holds the same status), so
// terminal jobs are never regressed and deleted jobs are never recreated.
// Saving a job back to pending is rejected.
func (s *Store) Save(ctx context.Context, job *Job) error {
	if job == nil {
		return errors.New("job is nil")
	}
	if !job.Status.IsTerminal() {
		return fmt.Errorf("%w: cannot save job %d as %q", ErrInvalidTransition, job.ID, job.Status)
	}
	job.UpdatedAt = time.Now().UTC()
	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs
         SET status = ?, raw_characters = ?, optimization_result = ?, error_message = ?, updated_at = ?
         WHERE id = ? AND status IN (?, ?)`,
		job.Status,
		nullableString(job.RawCharactersJSON),
		nullableString(job.OptimizationResultJSON),
		nullableString(job.ErrorMessage),
		formatTime(job.UpdatedAt),
		job.ID,
		StatusPending,
		job.Status,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	current, err := s.GetByID(ctx, job.ID)
	if err != nil {
		return err
	}
	if current == nil {
		return fmt.Errorf("%w: %d", ErrJobNotFound, job.ID)
	}
	return fmt.Errorf("%w: job %d is %s, cannot become %s", ErrInvalidTransition, job.ID, current.Status, job.Status)
}

// List returns jobs filtered by status (all jobs when none are given), newest
// first.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs`
	var args []any
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		args = statusArgs(statuses)
	}
	rows, err := s.db.QueryContext(ctx, query+` ORDER BY id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return scanJobs(rows)
}

// Pending returns up to limit pending jobs, oldest first, skipping the given
// ids. A non-positive limit returns all of them.
func (s *Store) Pending(ctx context.Context, limit int, exclude ...int64) ([]*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE status = ?`
	args := []any{StatusPending}
	if len(exclude) > 0 {
		query += ` AND id NOT IN (` + makePlaceholders(len(exclude)) + `)`
		for _, id := range exclude {
			args = append(args, id)
		}
	}
	query += ` ORDER BY id`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list pending jobs: %w", err)
	}
	return scanJobs(rows)
}

// Remove deletes a job by identifier.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ClearFinished removes completed and failed jobs.
func (s *Store) ClearFinished(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM jobs WHERE status IN (?, ?)`, StatusCompleted, StatusFailed)
	if err != nil {
		return 0, fmt.Errorf("clear finished: %w", err)
	}
	return res.RowsAffected()
}

// Stats counts jobs per status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.execWithoutResultRetry(ctx, `SELECT 1`)
}
