package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tester/internal/store"
)

func seedHistory(t *testing.T) (string, []string) {
	t.Helper()
	db := filepath.Join(t.TempDir(), "history.db")
	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var ids []string
	for i, status := range []string{store.StatusPassed, store.StatusFailed} {
		id, err := st.SaveRun(t.Context(), store.RunRecord{
			StartedAt:  base.Add(time.Duration(i) * time.Minute),
			FinishedAt: base.Add(time.Duration(i)*time.Minute + time.Second),
			Suites:     []string{"suites/login.yaml"},
			Cases: []store.CaseRecord{
				{TestID: "login/works", Status: status, Command: "http.get", Duration: 12 * time.Millisecond},
			},
			Exports: map[string]any{"$token": "abc"},
		})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return db, ids
}

func executeHistory(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewHistoryCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

func TestHistoryList(t *testing.T) {
	db, ids := seedHistory(t)

	out, err := executeHistory(t, "json", "--db", db)
	require.NoError(t, err)

	var resp struct {
		Data []RunView `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, ids[1], resp.Data[0].ID, "newest first")
	assert.Equal(t, 1, resp.Data[0].Failed)
	assert.Empty(t, resp.Data[0].Cases)

	out, err = executeHistory(t, "text", "--db", db, "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "PASSED")
	assert.Contains(t, out, ids[1])
	assert.NotContains(t, out, ids[0])
}

func TestHistoryShow(t *testing.T) {
	db, ids := seedHistory(t)

	out, err := executeHistory(t, "text", "--db", db, "latest")
	require.NoError(t, err)
	assert.Contains(t, out, "Run "+ids[1])
	assert.Contains(t, out, "FAILED  login/works")
	assert.Contains(t, out, "Duration: 1s")

	out, err = executeHistory(t, "json", "--db", db, ids[0])
	require.NoError(t, err)
	var resp struct {
		Data RunView `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "abc", resp.Data.Exports["$token"])
	require.Len(t, resp.Data.Cases, 1)
	assert.Equal(t, int64(12), resp.Data.Cases[0].DurationMS)
}

func TestHistoryTest(t *testing.T) {
	db, _ := seedHistory(t)

	out, err := executeHistory(t, "text", "--db", db, "--test", "login/works")
	require.NoError(t, err)
	assert.Equal(t, "FAILED  12ms\nPASSED  12ms\n", out)
}

func TestHistoryErrors(t *testing.T) {
	db, _ := seedHistory(t)

	tests := []struct {
		name string
		args []string
		code string
	}{
		{"no database", nil, CodeInvalidArguments},
		{"missing database", []string{"--db", filepath.Join(t.TempDir(), "none.db")}, CodeStoreFailed},
		{"unknown run", []string{"--db", db, "no-such-run"}, CodeRunNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := executeHistory(t, "json", tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}
