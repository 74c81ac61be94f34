package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tester/internal/fault"
)

func executeValidate(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

func TestValidateValidSuites(t *testing.T) {
	out, err := executeValidate(t, "text", filepath.Join("testdata", "pass"), filepath.Join("testdata", "web"))
	require.NoError(t, err)
	assert.Contains(t, out, "✓ All suites valid (2 files, 7 testcases)")
}

func TestValidateValidSuitesJSON(t *testing.T) {
	out, err := executeValidate(t, "json", filepath.Join("testdata", "pass"))
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, 4, resp.Data.Cases)
}

func TestValidateReportsEveryProblem(t *testing.T) {
	out, err := executeValidate(t, "json", filepath.Join("testdata", "invalid"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, CodeInvalidSuite, resp.Error.Code)
	assert.False(t, resp.Data.Valid)

	codes := make([]fault.Code, 0, len(resp.Data.Errors))
	for _, e := range resp.Data.Errors {
		codes = append(codes, e.Code)
	}
	assert.Equal(t, []fault.Code{
		fault.CodeUnknownAssertion,
		fault.CodeMissingCommand,
		fault.CodeInvalidExport,
		fault.CodeUndefinedReference,
	}, codes)
	assert.Equal(t, "problems/unknown kind#expectedData[0]", resp.Data.Errors[0].Path)
}

func TestValidateText(t *testing.T) {
	out, err := executeValidate(t, "text", filepath.Join("testdata", "invalid"))
	require.Error(t, err)
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "problems/unknown command: MISSING_COMMAND")
	assert.Contains(t, out, "validation failed with 4 error(s)")
}

func TestValidateNonExistentPath(t *testing.T) {
	out, err := executeValidate(t, "text", filepath.Join("testdata", "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E_LOAD]")
}
