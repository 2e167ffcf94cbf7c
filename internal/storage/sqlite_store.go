package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS habits (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	color TEXT NOT NULL,
	category TEXT NOT NULL,
	target_per_day INTEGER NOT NULL CHECK (target_per_day >= 1),
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_habits_user ON habits(user_id);

CREATE TABLE IF NOT EXISTS habit_completions (
	id TEXT PRIMARY KEY,
	habit_id TEXT NOT NULL REFERENCES habits(id) ON DELETE CASCADE,
	user_id TEXT NOT NULL,
	date TEXT NOT NULL,
	count INTEGER NOT NULL CHECK (count >= 0),
	UNIQUE(habit_id, date)
);
CREATE INDEX IF NOT EXISTS idx_completions_user_date ON habit_completions(user_id, date);

CREATE TABLE IF NOT EXISTS focus_sessions (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	duration_minutes INTEGER NOT NULL,
	completed INTEGER NOT NULL DEFAULT 0,
	started_at TEXT NOT NULL,
	started_day TEXT NOT NULL,
	completed_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_user_day ON focus_sessions(user_id, started_day);
`

// SQLiteFile is the database file name used when no path is configured.
const SQLiteFile = "focusflow.db"

// SQLiteStore is a Repository backed by a SQLite database file.
type SQLiteStore struct {
	path string
	db   *sql.DB
	now  func() time.Time
}

var _ Repository = (*SQLiteStore)(nil)

// OpenSQLiteStore opens or creates the database at path and applies the
// schema.
func OpenSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, wrapStorage("create database directory", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, wrapStorage("open database", err)
	}
	// One connection keeps PRAGMAs and write ordering predictable.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, wrapStorage("enable foreign keys", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, wrapStorage("apply schema", err)
	}
	return &SQLiteStore{path: path, db: db, now: time.Now}, nil
}

// SetNowFunc overrides the clock used for timestamps. nil restores time.Now.
func (s *SQLiteStore) SetNowFunc(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	s.now = now
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHabit(row rowScanner) (Habit, error) {
	var h Habit
	var category, createdAt string
	if err := row.Scan(&h.ID, &h.UserID, &h.Title, &h.Description, &h.Color, &category, &h.TargetPerDay, &createdAt); err != nil {
		return Habit{}, err
	}
	h.Category = Category(category)
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Habit{}, fmt.Errorf("parse created_at for habit %s: %w", h.ID, err)
	}
	h.CreatedAt = t
	return h, nil
}

func scanSession(row rowScanner) (FocusSession, error) {
	var fs FocusSession
	var completed int
	var startedAt string
	var completedAt sql.NullString
	if err := row.Scan(&fs.ID, &fs.UserID, &fs.DurationMinutes, &completed, &startedAt, &completedAt); err != nil {
		return FocusSession{}, err
	}
	fs.Completed = completed != 0
	t, err := time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return FocusSession{}, fmt.Errorf("parse started_at for session %s: %w", fs.ID, err)
	}
	fs.StartedAt = t
	if completedAt.Valid {
		ct, err := time.Parse(time.RFC3339Nano, completedAt.String)
		if err != nil {
			return FocusSession{}, fmt.Errorf("parse completed_at for session %s: %w", fs.ID, err)
		}
		fs.CompletedAt = &ct
	}
	return fs, nil
}

const habitColumns = `id, user_id, title, description, color, category, target_per_day, created_at`

func (s *SQLiteStore) ListHabits(ctx context.Context, userID string) ([]Habit, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+habitColumns+` FROM habits WHERE user_id = ? ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, wrapStorage("list habits", err)
	}
	defer rows.Close()

	out := make([]Habit, 0)
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, wrapStorage("list habits", err)
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStorage("list habits", err)
	}
	sortHabits(out)
	return out, nil
}

func (s *SQLiteStore) GetHabit(ctx context.Context, id string) (Habit, error) {
	h, err := scanHabit(s.db.QueryRowContext(ctx, `SELECT `+habitColumns+` FROM habits WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Habit{}, notFound("habit", id)
	}
	if err != nil {
		return Habit{}, wrapStorage("get habit", err)
	}
	return h, nil
}

func (s *SQLiteStore) CreateHabit(ctx context.Context, h Habit) (Habit, error) {
	h = NormalizeHabit(h)
	if err := ValidateHabit(h); err != nil {
		return Habit{}, err
	}
	h.ID = newID()
	if h.CreatedAt.IsZero() {
		h.CreatedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO habits (`+habitColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.UserID, h.Title, h.Description, h.Color, string(h.Category), h.TargetPerDay,
		h.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return Habit{}, wrapStorage("create habit", err)
	}
	return h, nil
}

func (s *SQLiteStore) UpdateHabit(ctx context.Context, h Habit) (Habit, error) {
	h = NormalizeHabit(h)
	if err := ValidateHabit(h); err != nil {
		return Habit{}, err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE habits SET title = ?, description = ?, color = ?, category = ?, target_per_day = ?
		WHERE id = ?`,
		h.Title, h.Description, h.Color, string(h.Category), h.TargetPerDay, h.ID)
	if err != nil {
		return Habit{}, wrapStorage("update habit", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return Habit{}, notFound("habit", h.ID)
	}
	return s.GetHabit(ctx, h.ID)
}

func (s *SQLiteStore) DeleteHabit(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapStorage("delete habit", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM habit_completions WHERE habit_id = ?`, id); err != nil {
		return wrapStorage("delete habit completions", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM habits WHERE id = ?`, id)
	if err != nil {
		return wrapStorage("delete habit", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notFound("habit", id)
	}
	if err := tx.Commit(); err != nil {
		return wrapStorage("delete habit", err)
	}
	return nil
}

func (s *SQLiteStore) ListCompletions(ctx context.Context, userID string, r DateRange) ([]HabitCompletion, error) {
	from, to := r.From, r.To
	if to == "" {
		to = "9999-12-31"
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, habit_id, user_id, date, count FROM habit_completions
		WHERE user_id = ? AND date >= ? AND date <= ?
		ORDER BY date, habit_id`, userID, from, to)
	if err != nil {
		return nil, wrapStorage("list completions", err)
	}
	defer rows.Close()

	out := make([]HabitCompletion, 0)
	for rows.Next() {
		var c HabitCompletion
		if err := rows.Scan(&c.ID, &c.HabitID, &c.UserID, &c.Date, &c.Count); err != nil {
			return nil, wrapStorage("list completions", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStorage("list completions", err)
	}
	return out, nil
}

func (s *SQLiteStore) GetCompletion(ctx context.Context, habitID, date string) (HabitCompletion, bool, error) {
	var c HabitCompletion
	err := s.db.QueryRowContext(ctx, `
		SELECT id, habit_id, user_id, date, count FROM habit_completions
		WHERE habit_id = ? AND date = ?`, habitID, date).
		Scan(&c.ID, &c.HabitID, &c.UserID, &c.Date, &c.Count)
	if errors.Is(err, sql.ErrNoRows) {
		return HabitCompletion{}, false, nil
	}
	if err != nil {
		return HabitCompletion{}, false, wrapStorage("get completion", err)
	}
	return c, true, nil
}

func (s *SQLiteStore) UpsertCompletion(ctx context.Context, habitID, date string, count int) (HabitCompletion, error) {
	if err := validateDate(date); err != nil {
		return HabitCompletion{}, err
	}
	if err := validateCount(count); err != nil {
		return HabitCompletion{}, err
	}
	h, err := s.GetHabit(ctx, habitID)
	if err != nil {
		return HabitCompletion{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO habit_completions (id, habit_id, user_id, date, count)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(habit_id, date) DO UPDATE SET
			count = excluded.count`,
		newID(), habitID, h.UserID, date, count)
	if err != nil {
		return HabitCompletion{}, wrapStorage("upsert completion", err)
	}
	c, ok, err := s.GetCompletion(ctx, habitID, date)
	if err != nil {
		return HabitCompletion{}, err
	}
	if !ok {
		return HabitCompletion{}, wrapStorage("upsert completion", fmt.Errorf("row for %s on %s vanished", habitID, date))
	}
	return c, nil
}

func (s *SQLiteStore) DeleteCompletion(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM habit_completions WHERE id = ?`, id)
	if err != nil {
		return wrapStorage("delete completion", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notFound("completion", id)
	}
	return nil
}

// CreateFocusSession starts a new incomplete session, discarding any session
// the user left in progress.
func (s *SQLiteStore) CreateFocusSession(ctx context.Context, userID string, durationMinutes int) (string, error) {
	if durationMinutes < 1 {
		return "", errorf(ErrValidation, "duration must be at least 1 minute")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", wrapStorage("create focus session", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM focus_sessions
		WHERE user_id = ? AND completed = 0 AND completed_at IS NULL`, userID); err != nil {
		return "", wrapStorage("discard abandoned sessions", err)
	}
	id := newID()
	started := s.now()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO focus_sessions (id, user_id, duration_minutes, completed, started_at, started_day)
		VALUES (?, ?, ?, 0, ?, ?)`,
		id, userID, durationMinutes, started.Format(time.RFC3339Nano), DayKey(started)); err != nil {
		return "", wrapStorage("create focus session", err)
	}
	if err := tx.Commit(); err != nil {
		return "", wrapStorage("create focus session", err)
	}
	return id, nil
}

func (s *SQLiteStore) CompleteFocusSession(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE focus_sessions SET completed = 1, completed_at = COALESCE(completed_at, ?)
		WHERE id = ?`, s.now().Format(time.RFC3339Nano), id)
	if err != nil {
		return wrapStorage("complete focus session", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notFound("focus session", id)
	}
	return nil
}

func (s *SQLiteStore) DeleteFocusSession(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM focus_sessions WHERE id = ?`, id)
	if err != nil {
		return wrapStorage("delete focus session", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notFound("focus session", id)
	}
	return nil
}

// ListTodayFocusSessions widens the day query by one day on each side since
// started_day is recorded in the writer's zone, then filters in today's zone.
func (s *SQLiteStore) ListTodayFocusSessions(ctx context.Context, userID string, today time.Time) ([]FocusSession, error) {
	day := StartOfDay(today)
	r := DateRange{From: DayKey(day.AddDate(0, 0, -1)), To: DayKey(day.AddDate(0, 0, 1))}
	all, err := s.ListFocusSessions(ctx, userID, r)
	if err != nil {
		return nil, err
	}
	out := make([]FocusSession, 0, len(all))
	for _, fs := range all {
		if DayKey(fs.StartedAt.In(today.Location())) == DayKey(today) {
			out = append(out, fs)
		}
	}
	return out, nil
}

func (s *SQLiteStore) ListFocusSessions(ctx context.Context, userID string, r DateRange) ([]FocusSession, error) {
	from, to := r.From, r.To
	if to == "" {
		to = "9999-12-31"
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, duration_minutes, completed, started_at, completed_at
		FROM focus_sessions
		WHERE user_id = ? AND started_day >= ? AND started_day <= ?
		ORDER BY started_at, id`, userID, from, to)
	if err != nil {
		return nil, wrapStorage("list focus sessions", err)
	}
	defer rows.Close()

	out := make([]FocusSession, 0)
	for rows.Next() {
		fs, err := scanSession(rows)
		if err != nil {
			return nil, wrapStorage("list focus sessions", err)
		}
		out = append(out, fs)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStorage("list focus sessions", err)
	}
	sortSessions(out)
	return out, nil
}
