// Package db provides PostgreSQL storage for job search run history.
package db

import (
	"context"
	_ "embed"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/job-agent/internal/types"
)

//go:embed schema.sql
var schemaSQL string

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// EnsureSchema creates the run history tables if they do not exist
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schemaSQL); err != nil {
		return errors.Wrap(err, "failed to create schema")
	}
	return nil
}

// CreateRun creates a new run record and returns its ID
func (db *DB) CreateRun(ctx context.Context, input RunInput) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO job_runs (job_title, location, resume_path, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		input.JobTitle, input.Location, input.ResumePath, RunStatusRunning,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, errors.Wrap(err, "failed to create run")
	}
	return id, nil
}

// SaveExpandedTitles records the candidate titles searched for in a run
func (db *DB) SaveExpandedTitles(ctx context.Context, runID uuid.UUID, titles []string) error {
	data, err := json.Marshal(titles)
	if err != nil {
		return errors.Wrap(err, "failed to marshal titles")
	}
	_, err = db.pool.Exec(ctx, `UPDATE job_runs SET expanded = $1 WHERE id = $2`, data, runID)
	if err != nil {
		return errors.Wrap(err, "failed to save expanded titles")
	}
	return nil
}

// SaveRankedJobs replaces the ranked posting list of a run
func (db *DB) SaveRankedJobs(ctx context.Context, runID uuid.UUID, jobs []types.Posting) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM run_postings WHERE run_id = $1`, runID); err != nil {
		return errors.Wrap(err, "failed to clear ranked jobs")
	}

	rows := make([][]any, len(jobs))
	for i, job := range jobs {
		rows[i] = []any{runID, i + 1, job.Title, job.Company, job.Location, job.URL, job.MatchScore, job.Suggestions}
	}
	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"run_postings"},
		[]string{"run_id", "rank", "title", "company", "location", "url", "match_score", "suggestions"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return errors.Wrap(err, "failed to save ranked jobs")
	}

	return errors.Wrap(tx.Commit(ctx), "failed to commit ranked jobs")
}

// SaveApplication records one application attempt
func (db *DB) SaveApplication(ctx context.Context, runID uuid.UUID, result types.ApplicationResult) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO run_applications (run_id, url, resume_path, site, status, error)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		runID, result.URL, result.ResumePath, result.Site, string(result.Status), result.Err,
	)
	if err != nil {
		return errors.Wrap(err, "failed to save application")
	}
	return nil
}

// CompleteRun marks a run as finished with the given status
func (db *DB) CompleteRun(ctx context.Context, runID uuid.UUID, status string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE job_runs SET status = $1, completed_at = NOW() WHERE id = $2`,
		status, runID,
	)
	if err != nil {
		return errors.Wrap(err, "failed to complete run")
	}
	return nil
}

// GetRun retrieves a run by ID, or nil if it does not exist
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	var run Run
	var expanded []byte
	err := db.pool.QueryRow(ctx,
		`SELECT id, job_title, location, resume_path, expanded, status, created_at, completed_at
		 FROM job_runs WHERE id = $1`,
		runID,
	).Scan(&run.ID, &run.JobTitle, &run.Location, &run.ResumePath, &expanded,
		&run.Status, &run.CreatedAt, &run.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get run")
	}
	if run.Expanded, err = decodeExpanded(expanded); err != nil {
		return nil, errors.Wrapf(err, "run %s", runID)
	}
	return &run, nil
}

// decodeExpanded parses the expanded titles column; NULL means none were saved
func decodeExpanded(raw []byte) ([]string, error) {
	if raw == nil {
		return nil, nil
	}
	var titles []string
	if err := json.Unmarshal(raw, &titles); err != nil {
		return nil, errors.Wrap(err, "failed to decode expanded titles")
	}
	return titles, nil
}

// ListRuns returns the most recent runs with posting and application counts
func (db *DB) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.pool.Query(ctx,
		`SELECT r.id, r.job_title, r.location, r.resume_path, r.status, r.created_at, r.completed_at,
		        (SELECT COUNT(*) FROM run_postings p WHERE p.run_id = r.id),
		        (SELECT COUNT(*) FROM run_applications a WHERE a.run_id = r.id)
		 FROM job_runs r
		 ORDER BY r.created_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list runs")
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var s RunSummary
		if err := rows.Scan(&s.ID, &s.JobTitle, &s.Location, &s.ResumePath, &s.Status,
			&s.CreatedAt, &s.CompletedAt, &s.Postings, &s.Applications); err != nil {
			return nil, errors.Wrap(err, "failed to scan run")
		}
		runs = append(runs, s)
	}
	return runs, errors.Wrap(rows.Err(), "failed to iterate runs")
}

// ListRunPostings returns the ranked postings of a run in rank order
func (db *DB) ListRunPostings(ctx context.Context, runID uuid.UUID) ([]RunPosting, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT run_id, rank, title, company, location, url, match_score, suggestions
		 FROM run_postings WHERE run_id = $1 ORDER BY rank`,
		runID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list run postings")
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[RunPosting])
}

// ListRunApplications returns the application attempts of a run in order
func (db *DB) ListRunApplications(ctx context.Context, runID uuid.UUID) ([]RunApplication, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, run_id, url, resume_path, site, status, error, created_at
		 FROM run_applications WHERE run_id = $1 ORDER BY created_at`,
		runID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list run applications")
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[RunApplication])
}
