package backup

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stepClock returns a clock that advances one second per call.
func stepClock() func() time.Time {
	t := time.Date(2025, 9, 3, 18, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func writeFile(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))
}

func seed(t *testing.T, dir string) {
	t.Helper()
	writeFile(t, filepath.Join(dir, "habits.json"), map[string]any{
		"habits": []map[string]any{{"id": "h1", "title": "Read"}, {"id": "h2", "title": "Run"}},
	})
	writeFile(t, filepath.Join(dir, "completions.json"), map[string]any{
		"completions": []map[string]any{{"id": "c1", "habitId": "h1", "date": "2025-09-03", "count": 1}},
	})
	writeFile(t, filepath.Join(dir, "sessions.json"), map[string]any{"sessions": []any{}})
	writeFile(t, filepath.Join(dir, "achievements.json"), map[string]any{
		"unlockedIds": []string{"first_habit"},
	})
}

func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()
	dir := t.TempDir()
	return NewManager(dir, "test", WithClock(stepClock())), dir
}

func TestCreate_CopiesPresentFilesAndStats(t *testing.T) {
	m, dir := newTestManager(t)
	seed(t, dir)

	name, err := m.Create()
	require.NoError(t, err)
	assert.Equal(t, "2025-09-03_180001_000", name)

	info, err := m.Get(name)
	require.NoError(t, err)
	assert.ElementsMatch(t,
		[]string{"habits.json", "completions.json", "sessions.json", "achievements.json"},
		info.Files)
	assert.Equal(t, map[string]int{
		"habits":       2,
		"completions":  1,
		"sessions":     0,
		"achievements": 1,
	}, info.Stats)

	for _, f := range info.Files {
		assert.FileExists(t, filepath.Join(info.Path, f))
	}
	assert.FileExists(t, filepath.Join(info.Path, ManifestFile))
	assert.NoFileExists(t, filepath.Join(info.Path, "focusflow.db"))
}

func TestCreate_IncludesSQLiteDatabase(t *testing.T) {
	m, dir := newTestManager(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "focusflow.db"), []byte("SQLite format 3\x00"), 0o600))

	name, err := m.Create()
	require.NoError(t, err)
	info, err := m.Get(name)
	require.NoError(t, err)
	assert.Equal(t, []string{"focusflow.db"}, info.Files)
	assert.Empty(t, info.Stats)
}

func TestCreate_SameSecondGetsDistinctNames(t *testing.T) {
	dir := t.TempDir()
	fixed := time.Date(2025, 9, 3, 18, 0, 0, 0, time.UTC)
	m := NewManager(dir, "test", WithClock(func() time.Time { return fixed }))

	a, err := m.Create()
	require.NoError(t, err)
	b, err := m.Create()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestList_NewestFirst(t *testing.T) {
	m, dir := newTestManager(t)

	backups, err := m.List()
	require.NoError(t, err)
	assert.Empty(t, backups)

	seed(t, dir)
	first, err := m.Create()
	require.NoError(t, err)
	second, err := m.Create()
	require.NoError(t, err)

	// Stray entries are ignored.
	require.NoError(t, os.MkdirAll(filepath.Join(dir, BackupsDir, "not-a-backup"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, BackupsDir, "notes.txt"), nil, 0o600))

	backups, err = m.List()
	require.NoError(t, err)
	require.Len(t, backups, 2)
	assert.Equal(t, second, backups[0].Name)
	assert.Equal(t, first, backups[1].Name)
}

func TestRestore_ReplacesDataAndKeepsSafetyCopy(t *testing.T) {
	m, dir := newTestManager(t)
	seed(t, dir)
	name, err := m.Create()
	require.NoError(t, err)

	writeFile(t, filepath.Join(dir, "habits.json"), map[string]any{"habits": []any{}})

	safety, err := m.Restore(name)
	require.NoError(t, err)
	require.NotEmpty(t, safety)

	n, err := countItems(filepath.Join(dir, "habits.json"), "habits")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	info, err := m.Get(safety)
	require.NoError(t, err)
	assert.Equal(t, 0, info.Stats["habits"])
}

func TestRestore_RejectsCorruptBackup(t *testing.T) {
	m, dir := newTestManager(t)
	seed(t, dir)
	name, err := m.Create()
	require.NoError(t, err)

	info, err := m.Get(name)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(info.Path, "habits.json"), []byte("{broken"), 0o600))

	_, err = m.Restore(name)
	require.Error(t, err)

	// Data directory untouched and no safety backup taken.
	n, err := countItems(filepath.Join(dir, "habits.json"), "habits")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	backups, err := m.List()
	require.NoError(t, err)
	assert.Len(t, backups, 1)
}

func TestRestoreLatest(t *testing.T) {
	m, _ := newTestManager(t)
	_, _, err := m.RestoreLatest()
	assert.ErrorIs(t, err, ErrNoBackups)

	name, err := m.Create()
	require.NoError(t, err)
	restored, safety, err := m.RestoreLatest()
	require.NoError(t, err)
	assert.Equal(t, name, restored)
	assert.NotEqual(t, name, safety)
}

func TestNames_AreValidated(t *testing.T) {
	m, _ := newTestManager(t)

	for _, name := range []string{"", "../etc", "a/b", `a\b`, "yesterday"} {
		_, err := m.Get(name)
		assert.ErrorIs(t, err, ErrInvalidName, name)
		assert.ErrorIs(t, m.Delete(name), ErrInvalidName, name)
	}

	_, err := m.Get("2025-01-01_000000_000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParseName(t *testing.T) {
	got, err := parseName("2025-09-03_180102_250")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 9, 3, 18, 1, 2, 250*int(time.Millisecond), time.UTC), got)

	got, err = parseName("2025-09-03_180102")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 9, 3, 18, 1, 2, 0, time.UTC), got)

	_, err = parseName("2025-09-03_180102-250")
	assert.Error(t, err)
}

func TestPrune(t *testing.T) {
	m, _ := newTestManager(t)
	var names []string
	for i := 0; i < 4; i++ {
		name, err := m.Create()
		require.NoError(t, err)
		names = append(names, name)
	}

	deleted, err := m.Prune(2)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	backups, err := m.List()
	require.NoError(t, err)
	require.Len(t, backups, 2)
	assert.Equal(t, names[3], backups[0].Name)
	assert.Equal(t, names[2], backups[1].Name)

	_, err = m.Prune(-1)
	assert.Error(t, err)
}
