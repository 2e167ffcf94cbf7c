package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesToFile(t *testing.T) {
	dir := t.TempDir()
	l, closer, err := New(Config{DataDir: dir, Level: "info"})
	require.NoError(t, err)

	l.Debug("hidden")
	l.Info("habit toggled", "habit", "h1")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(filepath.Join(dir, "logs", FileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "habit toggled")
	assert.Contains(t, string(data), "focusflow")
	assert.NotContains(t, string(data), "hidden")
	assert.Equal(t, log.InfoLevel, l.GetLevel())
}

func TestDefaultLevelIsWarn(t *testing.T) {
	l, closer, err := New(Config{DataDir: t.TempDir()})
	require.NoError(t, err)
	defer closer.Close()
	assert.Equal(t, log.WarnLevel, l.GetLevel())
}

func TestDebugMirrorsToStderr(t *testing.T) {
	var stderr bytes.Buffer
	l, closer, err := New(Config{DataDir: t.TempDir(), Level: "error", Debug: true, Stderr: &stderr})
	require.NoError(t, err)
	defer closer.Close()

	l.Debug("tick", "remaining", "24:59")
	assert.Equal(t, log.DebugLevel, l.GetLevel())
	assert.Contains(t, stderr.String(), "tick")
}

func TestInvalidLevel(t *testing.T) {
	_, _, err := New(Config{DataDir: t.TempDir(), Level: "loud"})
	assert.Error(t, err)
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() { Discard().Error("nothing") })
}
