package fsutil

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestWriteJSONKeepsBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")

	require.NoError(t, WriteJSON(path, doc{Name: "first", Count: 1}))
	require.NoError(t, WriteJSON(path, doc{Name: "second", Count: 2}))

	var got doc
	found, err := ReadJSON(path, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, doc{Name: "second", Count: 2}, got)

	var bak doc
	found, err = ReadJSON(path+".bak", &bak)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "first", bak.Name)

	info, err := os.Stat(path)
	require.NoError(t, err)
	if runtime.GOOS != "windows" {
		assert.Equal(t, FilePerm, info.Mode().Perm())
	}
}

func TestReadJSONMissing(t *testing.T) {
	var got doc
	found, err := ReadJSON(filepath.Join(t.TempDir(), "nope.json"), &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestReadJSONCorrupt(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"empty.json":   "   \n",
		"garbage.json": "{not json",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

			var got doc
			found, err := ReadJSON(path, &got)
			assert.True(t, found)
			assert.True(t, errors.Is(err, ErrCorrupt), "err = %v", err)
		})
	}
}

func TestQuarantine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	at := time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)
	dest, err := Quarantine(path, at)
	require.NoError(t, err)
	assert.Equal(t, path+".corrupt.20240304-050607", dest)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(dest)
	assert.NoError(t, err)
}
