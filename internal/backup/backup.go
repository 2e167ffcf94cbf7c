// Package backup keeps timestamped copies of the focusflow data directory
// and restores them.
package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"focusflow/internal/fsutil"
	"focusflow/internal/localstate"
	"focusflow/internal/storage"
)

const (
	ManifestVersion = "1"
	ManifestFile    = "manifest.json"
	BackupsDir      = "backups"

	nameLayout = "2006-01-02_150405"
)

var (
	// ErrNotFound is returned when a named backup does not exist.
	ErrNotFound = errors.New("backup not found")
	// ErrInvalidName is returned for names that are not backup directories.
	ErrInvalidName = errors.New("invalid backup name")
	// ErrNoBackups is returned by RestoreLatest when nothing has been saved.
	ErrNoBackups = errors.New("no backups available")
)

// DataFiles returns every file in the data directory that a backup covers.
func DataFiles() []string {
	files := append([]string{}, storage.DataFiles...)
	return append(files,
		storage.SQLiteFile,
		localstate.AchievementsFile,
		localstate.RemindersFile,
		localstate.LastReminderFile,
	)
}

// statKeys maps a data file to the top-level array counted for its stats.
var statKeys = map[string]string{
	"habits.json":               "habits",
	"completions.json":          "completions",
	"sessions.json":             "sessions",
	localstate.AchievementsFile: "unlockedIds",
}

// Manifest describes one backup.
type Manifest struct {
	Version    string         `json:"version"`
	CreatedAt  time.Time      `json:"created_at"`
	AppVersion string         `json:"app_version"`
	Files      []string       `json:"files"`
	Stats      map[string]int `json:"stats"`
}

// Info summarizes a backup for listing.
type Info struct {
	Name      string
	Path      string
	CreatedAt time.Time
	Files     []string
	Stats     map[string]int
}

// Manager creates, lists and restores backups under <dataDir>/backups.
type Manager struct {
	dataDir    string
	backupDir  string
	appVersion string
	files      []string
	now        func() time.Time
	logger     *log.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithClock overrides time.Now for backup names.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager creates a manager for dataDir.
func NewManager(dataDir, appVersion string, opts ...Option) *Manager {
	m := &Manager{
		dataDir:    dataDir,
		backupDir:  filepath.Join(dataDir, BackupsDir),
		appVersion: appVersion,
		files:      DataFiles(),
		now:        time.Now,
		logger:     log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create copies every present data file into a new backup and returns its
// name.
func (m *Manager) Create() (string, error) {
	if err := os.MkdirAll(m.backupDir, fsutil.DirPerm); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}

	now := m.now()
	name, err := m.freeName(now)
	if err != nil {
		return "", err
	}
	dir := filepath.Join(m.backupDir, name)
	if err := os.MkdirAll(dir, fsutil.DirPerm); err != nil {
		return "", fmt.Errorf("create backup: %w", err)
	}

	manifest := Manifest{
		Version:    ManifestVersion,
		CreatedAt:  now,
		AppVersion: m.appVersion,
		Files:      []string{},
		Stats:      map[string]int{},
	}
	for _, file := range m.files {
		src := filepath.Join(m.dataDir, file)
		if _, err := os.Stat(src); os.IsNotExist(err) {
			continue
		}
		if err := copyFileAtomic(src, filepath.Join(dir, file)); err != nil {
			_ = os.RemoveAll(dir)
			return "", fmt.Errorf("copy %s: %w", file, err)
		}
		manifest.Files = append(manifest.Files, file)
		if key, ok := statKeys[file]; ok {
			if n, err := countItems(src, key); err == nil {
				manifest.Stats[statName(file)] = n
			}
		}
	}

	if err := writeJSON(filepath.Join(dir, ManifestFile), manifest); err != nil {
		_ = os.RemoveAll(dir)
		return "", fmt.Errorf("write manifest: %w", err)
	}
	m.logger.Info("backup created", "name", name, "files", len(manifest.Files))
	return name, nil
}

// freeName returns a name for now that is not yet taken.
func (m *Manager) freeName(now time.Time) (string, error) {
	ms := now.Nanosecond() / int(time.Millisecond)
	for i := 0; i < 1000; i++ {
		name := fmt.Sprintf("%s_%03d", now.Format(nameLayout), (ms+i)%1000)
		if _, err := os.Stat(filepath.Join(m.backupDir, name)); os.IsNotExist(err) {
			return name, nil
		}
	}
	return "", fmt.Errorf("no free backup name for %s", now.Format(nameLayout))
}

// List returns every backup, newest first.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.backupDir)
	if os.IsNotExist(err) {
		return []Info{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read backup directory: %w", err)
	}

	backups := []Info{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := m.info(entry.Name())
		if err != nil {
			m.logger.Debug("skipping backup", "name", entry.Name(), "err", err)
			continue
		}
		backups = append(backups, info)
	}
	sort.SliceStable(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}

// Get returns one backup by name.
func (m *Manager) Get(name string) (Info, error) {
	if err := validateName(name); err != nil {
		return Info{}, err
	}
	if _, err := os.Stat(filepath.Join(m.backupDir, name)); os.IsNotExist(err) {
		return Info{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return m.info(name)
}

func (m *Manager) info(name string) (Info, error) {
	dir := filepath.Join(m.backupDir, name)
	var manifest Manifest
	if err := readJSON(filepath.Join(dir, ManifestFile), &manifest); err != nil {
		createdAt, perr := parseName(name)
		if perr != nil {
			return Info{}, fmt.Errorf("%w: %s", ErrInvalidName, name)
		}
		manifest.CreatedAt = createdAt
	}
	if manifest.Stats == nil {
		manifest.Stats = map[string]int{}
	}
	return Info{
		Name:      name,
		Path:      dir,
		CreatedAt: manifest.CreatedAt,
		Files:     manifest.Files,
		Stats:     manifest.Stats,
	}, nil
}

// Restore copies a backup's files over the data directory. A safety backup
// of the current state is taken first and its name returned.
func (m *Manager) Restore(name string) (string, error) {
	info, err := m.Get(name)
	if err != nil {
		return "", err
	}
	files := info.Files
	if len(files) == 0 {
		files = m.files
	}

	// Validate before touching the data directory.
	for _, file := range files {
		if err := validateFile(filepath.Join(info.Path, file)); err != nil {
			return "", fmt.Errorf("backup file %s is invalid: %w", file, err)
		}
	}

	safety, err := m.Create()
	if err != nil {
		return "", fmt.Errorf("create safety backup: %w", err)
	}

	for _, file := range files {
		src := filepath.Join(info.Path, file)
		if _, err := os.Stat(src); os.IsNotExist(err) {
			continue
		}
		if err := copyFileAtomic(src, filepath.Join(m.dataDir, file)); err != nil {
			return safety, fmt.Errorf("restore %s (safety backup %s): %w", file, safety, err)
		}
	}
	m.logger.Info("backup restored", "name", name, "safety", safety)
	return safety, nil
}

// RestoreLatest restores the newest backup.
func (m *Manager) RestoreLatest() (string, string, error) {
	backups, err := m.List()
	if err != nil {
		return "", "", err
	}
	if len(backups) == 0 {
		return "", "", ErrNoBackups
	}
	safety, err := m.Restore(backups[0].Name)
	return backups[0].Name, safety, err
}

// Delete removes a backup.
func (m *Manager) Delete(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	dir := filepath.Join(m.backupDir, name)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return os.RemoveAll(dir)
}

// Prune keeps the keep newest backups and deletes the rest.
func (m *Manager) Prune(keep int) (int, error) {
	if keep < 0 {
		return 0, fmt.Errorf("keep must be non-negative, got %d", keep)
	}
	backups, err := m.List()
	if err != nil {
		return 0, err
	}
	deleted := 0
	for i := keep; i < len(backups); i++ {
		if err := m.Delete(backups[i].Name); err != nil {
			return deleted, err
		}
		deleted++
	}
	if deleted > 0 {
		m.logger.Info("pruned backups", "deleted", deleted, "kept", keep)
	}
	return deleted, nil
}

func validateName(name string) error {
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if _, err := parseName(name); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// parseName reads the timestamp from 2006-01-02_150405 or
// 2006-01-02_150405_000.
func parseName(name string) (time.Time, error) {
	if len(name) == len(nameLayout)+4 {
		base, err := time.Parse(nameLayout, name[:len(nameLayout)])
		if err != nil {
			return time.Time{}, err
		}
		if name[len(nameLayout)] != '_' {
			return time.Time{}, fmt.Errorf("missing millisecond separator")
		}
		ms, err := strconv.Atoi(name[len(nameLayout)+1:])
		if err != nil || ms < 0 {
			return time.Time{}, fmt.Errorf("bad milliseconds %q", name[len(nameLayout)+1:])
		}
		return base.Add(time.Duration(ms) * time.Millisecond), nil
	}
	return time.Parse(nameLayout, name)
}

func statName(file string) string {
	if file == localstate.AchievementsFile {
		return "achievements"
	}
	return strings.TrimSuffix(file, ".json")
}

func copyFileAtomic(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(dst, data, fsutil.FilePerm)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(path, data, fsutil.FilePerm)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// validateFile checks that a JSON backup file parses. Missing files and
// non-JSON files pass.
func validateFile(path string) error {
	if filepath.Ext(path) != ".json" {
		return nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if !json.Valid(data) {
		return errors.New("not valid JSON")
	}
	return nil
}

// countItems returns the length of the top-level array key in a JSON file.
func countItems(path, key string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return 0, err
	}
	var items []json.RawMessage
	if raw, ok := doc[key]; ok {
		if err := json.Unmarshal(raw, &items); err != nil {
			return 0, err
		}
	}
	return len(items), nil
}
