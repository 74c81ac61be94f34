package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// SaveRun writes rec in one transaction and returns its ID. A run without
// an ID gets a new UUID.
func (s *Store) SaveRun(ctx context.Context, rec RunRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	sum := rec.Summary()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, finished_at, suites, total, passed, failed, skipped)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, formatTime(rec.StartedAt), formatTime(rec.FinishedAt), encodeStrings(rec.Suites),
		sum.Total, sum.Passed, sum.Failed, sum.Skipped)
	if err != nil {
		return "", fmt.Errorf("insert run %s: %w", rec.ID, err)
	}

	if err := insertCases(ctx, tx, rec); err != nil {
		return "", err
	}
	if err := insertExports(ctx, tx, rec); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run %s: %w", rec.ID, err)
	}
	s.logger.Debug("run saved", "id", rec.ID, "cases", sum.Total, "failed", sum.Failed)
	return rec.ID, nil
}

func insertCases(ctx context.Context, tx *sql.Tx, rec RunRecord) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cases (run_id, seq, test_id, status, command, duration_ms, errors)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare case insert: %w", err)
	}
	defer stmt.Close()

	for i, c := range rec.Cases {
		if _, err := stmt.ExecContext(ctx, rec.ID, i, c.TestID, c.Status, c.Command,
			c.Duration.Milliseconds(), encodeStrings(c.Errors)); err != nil {
			return fmt.Errorf("insert case %s: %w", c.TestID, err)
		}
	}
	return nil
}

func insertExports(ctx context.Context, tx *sql.Tx, rec RunRecord) error {
	keys := make([]string, 0, len(rec.Exports))
	for k := range rec.Exports {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO exports (run_id, key, value) VALUES (?, ?, ?)
		`, rec.ID, k, encodeValue(rec.Exports[k])); err != nil {
			return fmt.Errorf("insert export %s: %w", k, err)
		}
	}
	return nil
}
