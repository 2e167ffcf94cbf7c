// Package localstate persists small device-local documents (achievement
// unlocks, reminder preferences) next to the data directory.
//
// Documents are read once at startup and written on every mutation. A file
// that cannot be decoded is moved aside and treated as empty.
package localstate

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"focusflow/internal/fsutil"
)

const (
	AchievementsFile = "achievements.json"
	RemindersFile    = "reminders.json"
	LastReminderFile = "reminder_last.json"
)

// File is a typed JSON document on disk.
type File[T any] struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// Open returns the document stored at path. Nothing is read until Load.
func Open[T any](path string) *File[T] {
	return &File[T]{path: path, now: time.Now}
}

// OpenIn returns the document called name inside dir.
func OpenIn[T any](dir, name string) *File[T] {
	return Open[T](filepath.Join(dir, name))
}

// Path returns the location of the document.
func (f *File[T]) Path() string { return f.path }

// SetNowFunc overrides the clock used to name quarantined files.
func (f *File[T]) SetNowFunc(now func() time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if now == nil {
		now = time.Now
	}
	f.now = now
}

// Load returns the stored value, or the zero value when the file is missing.
// A corrupt file is quarantined, the zero value is returned, and the error
// wraps fsutil.ErrCorrupt so callers can log it without failing.
func (f *File[T]) Load() (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var v, zero T
	found, err := fsutil.ReadJSON(f.path, &v)
	switch {
	case err == nil:
		return v, nil
	case !found || !errors.Is(err, fsutil.ErrCorrupt):
		return zero, err
	}
	moved, qerr := fsutil.Quarantine(f.path, f.now())
	if qerr != nil {
		return zero, fmt.Errorf("%w (treated as empty)", err)
	}
	return zero, fmt.Errorf("%w (treated as empty; original moved to %s)", err, moved)
}

// Save writes v atomically.
func (f *File[T]) Save(v T) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := fsutil.WriteJSON(f.path, v); err != nil {
		return fmt.Errorf("save %s: %w", filepath.Base(f.path), err)
	}
	return nil
}

// IsCorrupt reports whether err came from an unreadable document that was
// reset to empty.
func IsCorrupt(err error) bool {
	return errors.Is(err, fsutil.ErrCorrupt)
}
