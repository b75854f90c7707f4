package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{
		"ALL":      LevelAll,
		"":         LevelAll,
		"warnings": LevelWarnings,
		"nothing":  LevelNothing,
		"off":      LevelNothing,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestNothingDiscards(t *testing.T) {
	dir := t.TempDir()
	l, cleanup, err := New(Config{Level: LevelNothing, Dir: dir})
	require.NoError(t, err)
	l.Info("dropped")
	require.NoError(t, cleanup())

	_, err = os.Stat(filepath.Join(dir, "logs"))
	assert.True(t, os.IsNotExist(err))
}

func TestFileSink(t *testing.T) {
	dir := t.TempDir()
	l, cleanup, err := New(Config{Level: LevelAll, Dir: dir})
	require.NoError(t, err)
	l.WithName("test").Info("hello", "k", 1)
	l.V(DEBUG).Info("detail")
	l.V(TRACE).Info("hidden")
	require.NoError(t, cleanup())

	b, err := os.ReadFile(filepath.Join(dir, "logs", "rltune.log"))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"msg":"hello"`)
	assert.Contains(t, string(b), `"msg":"detail"`)
	assert.NotContains(t, string(b), "hidden")
}
