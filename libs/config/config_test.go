package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPort(t *testing.T) {
	t.Setenv("PORT", "8083")
	p, err := Port("PORT", "1")
	require.NoError(t, err)
	assert.Equal(t, "8083", p)

	t.Setenv("PORT", "70000")
	_, err = Port("PORT", "1")
	assert.Error(t, err)
}

func TestDuration(t *testing.T) {
	t.Setenv("TTL", "")
	d, err := Duration("TTL", 5*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, d)

	t.Setenv("TTL", "90")
	d, err = Duration("TTL", 0)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, d)

	t.Setenv("TTL", "2m30s")
	d, err = Duration("TTL", 0)
	require.NoError(t, err)
	assert.Equal(t, 150*time.Second, d)

	t.Setenv("TTL", "soon")
	_, err = Duration("TTL", 0)
	assert.Error(t, err)
}

func TestInt(t *testing.T) {
	t.Setenv("CODE_LENGTH", "8")
	n, err := Int("CODE_LENGTH", 6)
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	t.Setenv("CODE_LENGTH", "eight")
	_, err = Int("CODE_LENGTH", 6)
	assert.Error(t, err)
}

func TestBoolAndList(t *testing.T) {
	for _, v := range []string{"1", "true", "YES", " on "} {
		assert.True(t, IsTruthy(v), v)
	}
	for _, v := range []string{"", "0", "false", "nope"} {
		assert.False(t, IsTruthy(v), v)
	}

	t.Setenv("ORIGINS", " https://a.example , ,https://b.example")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, List("ORIGINS"))
	assert.True(t, Bool("MISSING_FLAG_FOR_TEST", true))
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("SALONBOOK_DOTENV_TEST=from-file\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("SALONBOOK_DOTENV_TEST") })

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-file", String("SALONBOOK_DOTENV_TEST", ""))

	assert.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))
}
