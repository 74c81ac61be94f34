package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func sampleRun(start time.Time) RunRecord {
	return RunRecord{
		StartedAt:  start,
		FinishedAt: start.Add(2 * time.Second),
		Suites:     []string{"suites/basic.yaml"},
		Cases: []CaseRecord{
			{TestID: "general/echo", Status: StatusPassed, Command: "general", Duration: 3 * time.Millisecond},
			{TestID: "general/broken", Status: StatusFailed, Command: "general", Errors: []string{"Assertion failed: equal"}},
			{TestID: "general/later", Status: StatusSkipped},
		},
		Exports: map[string]any{
			"$output": map[string]any{"foo": "bar"},
			"$count":  3,
		},
	}
}

func TestSaveRun_AssignsUUID(t *testing.T) {
	s := openMemory(t)

	id, err := s.SaveRun(context.Background(), sampleRun(baseTime))
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	assert.NoError(t, err)

	var total, passed, failed, skipped int
	require.NoError(t, s.db.QueryRow(`SELECT total, passed, failed, skipped FROM runs WHERE id = ?`, id).
		Scan(&total, &passed, &failed, &skipped))
	assert.Equal(t, []int{3, 1, 1, 1}, []int{total, passed, failed, skipped})
}

func TestSaveRun_KeepsGivenID(t *testing.T) {
	s := openMemory(t)
	rec := sampleRun(baseTime)
	rec.ID = "fixed-id"

	id, err := s.SaveRun(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", id)

	_, err = s.SaveRun(context.Background(), rec)
	assert.Error(t, err, "duplicate run IDs are rejected")

	var cases int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM cases WHERE run_id = ?`, id).Scan(&cases))
	assert.Equal(t, 3, cases, "failed save must not leave partial rows")
}

func TestSaveRun_UnserializableExport(t *testing.T) {
	s := openMemory(t)
	rec := sampleRun(baseTime)
	rec.Exports = map[string]any{"$fn": func() {}}

	id, err := s.SaveRun(context.Background(), rec)
	require.NoError(t, err)

	got, err := s.ReadRun(context.Background(), id)
	require.NoError(t, err)
	assert.IsType(t, "", got.Exports["$fn"])
}
