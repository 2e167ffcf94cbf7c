package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"focusflow/internal/fsutil"
)

const (
	habitsFile      = "habits.json"
	completionsFile = "completions.json"
	sessionsFile    = "sessions.json"
)

// DataFiles lists the files a FileStore keeps in its data directory.
var DataFiles = []string{habitsFile, completionsFile, sessionsFile}

type habitDoc struct {
	Habits []Habit `json:"habits"`
}

type completionDoc struct {
	Completions []HabitCompletion `json:"completions"`
}

type sessionDoc struct {
	Sessions []FocusSession `json:"sessions"`
}

// FileStore is a Repository backed by JSON files in a data directory.
// Every write replaces the whole file atomically and keeps a .bak copy.
type FileStore struct {
	mu      sync.Mutex
	dataDir string
	now     func() time.Time
	logger  *log.Logger
}

var _ Repository = (*FileStore)(nil)

// FileOption configures a FileStore.
type FileOption func(*FileStore)

// WithFileLogger sets the logger used to report recovered files.
func WithFileLogger(l *log.Logger) FileOption {
	return func(s *FileStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewFileStore opens (creating if needed) a JSON store in dataDir.
func NewFileStore(dataDir string, opts ...FileOption) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, fsutil.DirPerm); err != nil {
		return nil, fmt.Errorf("create data directory: %w: %w", ErrStorage, err)
	}
	s := &FileStore{dataDir: dataDir, now: time.Now, logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(s)
	}

	for name, empty := range map[string]any{
		habitsFile:      habitDoc{Habits: []Habit{}},
		completionsFile: completionDoc{Completions: []HabitCompletion{}},
		sessionsFile:    sessionDoc{Sessions: []FocusSession{}},
	} {
		if _, err := os.Stat(s.path(name)); os.IsNotExist(err) {
			if err := s.writeJSON(name, empty); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}

// SetNowFunc overrides the clock used for timestamps. nil restores time.Now.
func (s *FileStore) SetNowFunc(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now == nil {
		now = time.Now
	}
	s.now = now
}

// DataDir returns the directory holding the JSON files.
func (s *FileStore) DataDir() string { return s.dataDir }

func (s *FileStore) Close() error { return nil }

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dataDir, name)
}

func (s *FileStore) writeJSON(name string, v any) error {
	if err := fsutil.WriteJSON(s.path(name), v); err != nil {
		return wrapStorage("write "+name, err)
	}
	return nil
}

// loadJSON reads name into v. Empty or unparseable files are restored from
// their .bak copy when possible, otherwise moved aside and reset to v's
// initial value.
func (s *FileStore) loadJSON(name string, v any) error {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return s.writeJSON(name, v)
		}
		return wrapStorage("read "+name, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return s.recover(name, v, fmt.Errorf("%s is empty", name))
	}
	if err := json.Unmarshal(data, v); err != nil {
		return s.recover(name, v, fmt.Errorf("parse %s: %w", name, err))
	}
	return nil
}

func (s *FileStore) recover(name string, v any, cause error) error {
	path := s.path(name)

	var restored bool
	if bak, err := os.ReadFile(path + ".bak"); err == nil && len(bytes.TrimSpace(bak)) > 0 {
		restored = json.Unmarshal(bak, v) == nil
	}

	moved, err := fsutil.Quarantine(path, s.now())
	if err != nil {
		moved = "(not moved)"
	}
	if restored {
		s.logger.Warn("recovered data file from backup", "file", name, "cause", cause, "moved", moved)
	} else {
		s.logger.Warn("reset corrupt data file", "file", name, "cause", cause, "moved", moved)
	}
	return s.writeJSON(name, v)
}

func (s *FileStore) loadHabits() (*habitDoc, error) {
	doc := habitDoc{Habits: []Habit{}}
	err := s.loadJSON(habitsFile, &doc)
	return &doc, err
}

func (s *FileStore) loadCompletions() (*completionDoc, error) {
	doc := completionDoc{Completions: []HabitCompletion{}}
	err := s.loadJSON(completionsFile, &doc)
	return &doc, err
}

func (s *FileStore) loadSessions() (*sessionDoc, error) {
	doc := sessionDoc{Sessions: []FocusSession{}}
	err := s.loadJSON(sessionsFile, &doc)
	return &doc, err
}

// ============================================================================
// Habits
// ============================================================================

func (s *FileStore) ListHabits(ctx context.Context, userID string) ([]Habit, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapStorage("list habits", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadHabits()
	if err != nil {
		return nil, err
	}
	out := make([]Habit, 0, len(doc.Habits))
	for _, h := range doc.Habits {
		if h.UserID == userID {
			out = append(out, h)
		}
	}
	sortHabits(out)
	return out, nil
}

func (s *FileStore) GetHabit(ctx context.Context, id string) (Habit, error) {
	if err := ctx.Err(); err != nil {
		return Habit{}, wrapStorage("get habit", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadHabits()
	if err != nil {
		return Habit{}, err
	}
	for _, h := range doc.Habits {
		if h.ID == id {
			return h, nil
		}
	}
	return Habit{}, notFound("habit", id)
}

func (s *FileStore) CreateHabit(ctx context.Context, h Habit) (Habit, error) {
	if err := ctx.Err(); err != nil {
		return Habit{}, wrapStorage("create habit", err)
	}
	h = NormalizeHabit(h)
	if err := ValidateHabit(h); err != nil {
		return Habit{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.loadHabits()
	if err != nil {
		return Habit{}, err
	}
	h.ID = newID()
	if h.CreatedAt.IsZero() {
		h.CreatedAt = s.now()
	}
	doc.Habits = append(doc.Habits, h)
	if err := s.writeJSON(habitsFile, doc); err != nil {
		return Habit{}, err
	}
	return h, nil
}

func (s *FileStore) UpdateHabit(ctx context.Context, h Habit) (Habit, error) {
	if err := ctx.Err(); err != nil {
		return Habit{}, wrapStorage("update habit", err)
	}
	h = NormalizeHabit(h)
	if err := ValidateHabit(h); err != nil {
		return Habit{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.loadHabits()
	if err != nil {
		return Habit{}, err
	}
	for i, existing := range doc.Habits {
		if existing.ID != h.ID {
			continue
		}
		h.UserID = existing.UserID
		h.CreatedAt = existing.CreatedAt
		doc.Habits[i] = h
		if err := s.writeJSON(habitsFile, doc); err != nil {
			return Habit{}, err
		}
		return h, nil
	}
	return Habit{}, notFound("habit", h.ID)
}

// DeleteHabit removes the habit and its completions. Completions are written
// first; if the habit write then fails the habit is still listed and the
// delete can be retried.
func (s *FileStore) DeleteHabit(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return wrapStorage("delete habit", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	habits, err := s.loadHabits()
	if err != nil {
		return err
	}
	kept := habits.Habits[:0]
	found := false
	for _, h := range habits.Habits {
		if h.ID == id {
			found = true
			continue
		}
		kept = append(kept, h)
	}
	if !found {
		return notFound("habit", id)
	}
	habits.Habits = kept

	comps, err := s.loadCompletions()
	if err != nil {
		return err
	}
	keptComps := comps.Completions[:0]
	for _, c := range comps.Completions {
		if c.HabitID != id {
			keptComps = append(keptComps, c)
		}
	}
	comps.Completions = keptComps

	if err := s.writeJSON(completionsFile, comps); err != nil {
		return err
	}
	return s.writeJSON(habitsFile, habits)
}

// ============================================================================
// Completions
// ============================================================================

func (s *FileStore) ListCompletions(ctx context.Context, userID string, r DateRange) ([]HabitCompletion, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapStorage("list completions", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadCompletions()
	if err != nil {
		return nil, err
	}
	out := make([]HabitCompletion, 0)
	for _, c := range doc.Completions {
		if c.UserID == userID && r.Contains(c.Date) {
			out = append(out, c)
		}
	}
	sortCompletions(out)
	return out, nil
}

func (s *FileStore) GetCompletion(ctx context.Context, habitID, date string) (HabitCompletion, bool, error) {
	if err := ctx.Err(); err != nil {
		return HabitCompletion{}, false, wrapStorage("get completion", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadCompletions()
	if err != nil {
		return HabitCompletion{}, false, err
	}
	for _, c := range doc.Completions {
		if c.HabitID == habitID && c.Date == date {
			return c, true, nil
		}
	}
	return HabitCompletion{}, false, nil
}

// UpsertCompletion sets the count for (habitID, date). Duplicate rows left
// by older files are collapsed into the first one.
func (s *FileStore) UpsertCompletion(ctx context.Context, habitID, date string, count int) (HabitCompletion, error) {
	if err := ctx.Err(); err != nil {
		return HabitCompletion{}, wrapStorage("upsert completion", err)
	}
	if err := validateDate(date); err != nil {
		return HabitCompletion{}, err
	}
	if err := validateCount(count); err != nil {
		return HabitCompletion{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	habits, err := s.loadHabits()
	if err != nil {
		return HabitCompletion{}, err
	}
	var owner *Habit
	for i := range habits.Habits {
		if habits.Habits[i].ID == habitID {
			owner = &habits.Habits[i]
			break
		}
	}
	if owner == nil {
		return HabitCompletion{}, notFound("habit", habitID)
	}

	doc, err := s.loadCompletions()
	if err != nil {
		return HabitCompletion{}, err
	}
	var result *HabitCompletion
	kept := doc.Completions[:0]
	for _, c := range doc.Completions {
		if c.HabitID == habitID && c.Date == date {
			if result != nil {
				continue
			}
			c.Count = count
			kept = append(kept, c)
			result = &kept[len(kept)-1]
			continue
		}
		kept = append(kept, c)
	}
	doc.Completions = kept
	if result == nil {
		doc.Completions = append(doc.Completions, HabitCompletion{
			ID: newID(), HabitID: habitID, UserID: owner.UserID, Date: date, Count: count,
		})
		result = &doc.Completions[len(doc.Completions)-1]
	}
	out := *result
	if err := s.writeJSON(completionsFile, doc); err != nil {
		return HabitCompletion{}, err
	}
	return out, nil
}

func (s *FileStore) DeleteCompletion(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return wrapStorage("delete completion", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadCompletions()
	if err != nil {
		return err
	}
	kept := doc.Completions[:0]
	found := false
	for _, c := range doc.Completions {
		if c.ID == id {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		return notFound("completion", id)
	}
	doc.Completions = kept
	return s.writeJSON(completionsFile, doc)
}

// ============================================================================
// Focus sessions
// ============================================================================

// CreateFocusSession starts a new incomplete session, discarding any session
// the user left in progress.
func (s *FileStore) CreateFocusSession(ctx context.Context, userID string, durationMinutes int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", wrapStorage("create focus session", err)
	}
	if durationMinutes < 1 {
		return "", errorf(ErrValidation, "duration must be at least 1 minute")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.loadSessions()
	if err != nil {
		return "", err
	}
	kept := doc.Sessions[:0]
	for _, fs := range doc.Sessions {
		if fs.UserID == userID && fs.InProgress() {
			continue
		}
		kept = append(kept, fs)
	}
	session := FocusSession{ID: newID(), UserID: userID, DurationMinutes: durationMinutes, StartedAt: s.now()}
	doc.Sessions = append(kept, session)
	if err := s.writeJSON(sessionsFile, doc); err != nil {
		return "", err
	}
	return session.ID, nil
}

func (s *FileStore) CompleteFocusSession(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return wrapStorage("complete focus session", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadSessions()
	if err != nil {
		return err
	}
	for i := range doc.Sessions {
		if doc.Sessions[i].ID != id {
			continue
		}
		if doc.Sessions[i].Completed {
			return nil
		}
		now := s.now()
		doc.Sessions[i].Completed = true
		doc.Sessions[i].CompletedAt = &now
		return s.writeJSON(sessionsFile, doc)
	}
	return notFound("focus session", id)
}

func (s *FileStore) DeleteFocusSession(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return wrapStorage("delete focus session", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadSessions()
	if err != nil {
		return err
	}
	kept := doc.Sessions[:0]
	found := false
	for _, fs := range doc.Sessions {
		if fs.ID == id {
			found = true
			continue
		}
		kept = append(kept, fs)
	}
	if !found {
		return notFound("focus session", id)
	}
	doc.Sessions = kept
	return s.writeJSON(sessionsFile, doc)
}

func (s *FileStore) ListTodayFocusSessions(ctx context.Context, userID string, today time.Time) ([]FocusSession, error) {
	return s.listSessions(ctx, userID, func(fs FocusSession) bool {
		return DayKey(fs.StartedAt.In(today.Location())) == DayKey(today)
	})
}

func (s *FileStore) ListFocusSessions(ctx context.Context, userID string, r DateRange) ([]FocusSession, error) {
	return s.listSessions(ctx, userID, func(fs FocusSession) bool {
		return r.Contains(DayKey(fs.StartedAt))
	})
}

func (s *FileStore) listSessions(ctx context.Context, userID string, keep func(FocusSession) bool) ([]FocusSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapStorage("list focus sessions", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadSessions()
	if err != nil {
		return nil, err
	}
	out := make([]FocusSession, 0)
	for _, fs := range doc.Sessions {
		if fs.UserID == userID && keep(fs) {
			out = append(out, fs)
		}
	}
	sortSessions(out)
	return out, nil
}
