package env

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnv_OverridesWin(t *testing.T) {
	t.Setenv("TESTER_ENV_KEY", "from process")
	e := New()

	assert.Equal(t, "from process", e.Get("TESTER_ENV_KEY"))

	e.Set("TESTER_ENV_KEY", 42)
	assert.Equal(t, 42, e.Get("TESTER_ENV_KEY"))
	assert.Equal(t, "42", e.GetString("TESTER_ENV_KEY"))
	assert.Equal(t, "from process", os.Getenv("TESTER_ENV_KEY"))
}

func TestEnv_Missing(t *testing.T) {
	e := New()
	v, ok := e.Lookup("TESTER_ENV_DEFINITELY_UNSET")
	assert.False(t, ok)
	assert.Nil(t, v)
	assert.Equal(t, "", e.GetString("TESTER_ENV_DEFINITELY_UNSET"))
}

func TestEnv_LoadDotenv(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.env")
	second := filepath.Join(dir, "second.env")
	require.NoError(t, os.WriteFile(first, []byte("API_URL=http://localhost:1\nTOKEN=abc\n"), 0o644))
	require.NoError(t, os.WriteFile(second, []byte("# override\nAPI_URL=\"http://localhost:2\"\n"), 0o644))

	e := New()
	require.NoError(t, e.LoadDotenv(first, second))
	assert.Equal(t, "http://localhost:2", e.Get("API_URL"))
	assert.Equal(t, "abc", e.Get("TOKEN"))

	err := e.LoadDotenv(filepath.Join(dir, "missing.env"))
	assert.Error(t, err)
}
