package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ListRuns returns summaries of the most recent runs, newest first. A
// limit of zero or less returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	query := `
		SELECT id, started_at, finished_at, suites, total, passed, failed, skipped
		FROM runs
		ORDER BY started_at DESC, id COLLATE BINARY ASC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunSummary{}
	for rows.Next() {
		sum, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadRun loads a run with its cases and exports. Unknown IDs return
// ErrNotFound.
func (s *Store) ReadRun(ctx context.Context, id string) (*RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, suites, total, passed, failed, skipped
		FROM runs WHERE id = ?
	`, id)
	sum, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	rec := &RunRecord{
		ID:         sum.ID,
		StartedAt:  sum.StartedAt,
		FinishedAt: sum.FinishedAt,
		Suites:     sum.Suites,
		Exports:    map[string]any{},
	}
	if rec.Cases, err = s.readCases(ctx, id); err != nil {
		return nil, err
	}
	if err := s.readExports(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// LatestRun loads the most recently started run.
func (s *Store) LatestRun(ctx context.Context) (*RunRecord, error) {
	runs, err := s.ListRuns(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, ErrNotFound
	}
	return s.ReadRun(ctx, runs[0].ID)
}

// CaseHistory returns the recorded outcomes of one test across runs,
// newest run first.
func (s *Store) CaseHistory(ctx context.Context, testID string, limit int) ([]CaseRecord, error) {
	query := `
		SELECT c.test_id, c.status, c.command, c.duration_ms, c.errors
		FROM cases c JOIN runs r ON r.id = c.run_id
		WHERE c.test_id = ?
		ORDER BY r.started_at DESC, c.run_id COLLATE BINARY ASC, c.seq ASC
	`
	args := []any{testID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query case history: %w", err)
	}
	defer rows.Close()
	return scanCases(rows)
}

func (s *Store) readCases(ctx context.Context, runID string) ([]CaseRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT test_id, status, command, duration_ms, errors
		FROM cases WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query cases: %w", err)
	}
	defer rows.Close()
	return scanCases(rows)
}

func (s *Store) readExports(ctx context.Context, rec *RunRecord) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, value FROM exports WHERE run_id = ? ORDER BY key COLLATE BINARY ASC
	`, rec.ID)
	if err != nil {
		return fmt.Errorf("query exports: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			return fmt.Errorf("scan export: %w", err)
		}
		v, err := decodeValue(raw)
		if err != nil {
			return fmt.Errorf("export %s: %w", key, err)
		}
		rec.Exports[key] = v
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate exports: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(row scanner) (RunSummary, error) {
	var (
		sum            RunSummary
		started, ended string
		suites         string
	)
	err := row.Scan(&sum.ID, &started, &ended, &suites, &sum.Total, &sum.Passed, &sum.Failed, &sum.Skipped)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RunSummary{}, err
		}
		return RunSummary{}, fmt.Errorf("scan run: %w", err)
	}
	if sum.StartedAt, err = parseTime(started); err != nil {
		return RunSummary{}, err
	}
	if sum.FinishedAt, err = parseTime(ended); err != nil {
		return RunSummary{}, err
	}
	if sum.Suites, err = decodeStrings(suites); err != nil {
		return RunSummary{}, err
	}
	return sum, nil
}

func scanCases(rows *sql.Rows) ([]CaseRecord, error) {
	cases := []CaseRecord{}
	for rows.Next() {
		var (
			c    CaseRecord
			ms   int64
			errs string
		)
		if err := rows.Scan(&c.TestID, &c.Status, &c.Command, &ms, &errs); err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		c.Duration = time.Duration(ms) * time.Millisecond
		var err error
		if c.Errors, err = decodeStrings(errs); err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cases: %w", err)
	}
	return cases, nil
}
