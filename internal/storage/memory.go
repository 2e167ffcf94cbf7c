package storage

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is a Repository kept entirely in memory.
type MemoryStore struct {
	mu          sync.RWMutex
	habits      map[string]Habit
	completions map[string]HabitCompletion
	byDay       map[string]string // habitID|date -> completion id
	sessions    map[string]FocusSession
	now         func() time.Time
}

var _ Repository = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		habits:      make(map[string]Habit),
		completions: make(map[string]HabitCompletion),
		byDay:       make(map[string]string),
		sessions:    make(map[string]FocusSession),
		now:         time.Now,
	}
}

// SetNowFunc overrides the clock used for timestamps. nil restores time.Now.
func (m *MemoryStore) SetNowFunc(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if now == nil {
		now = time.Now
	}
	m.now = now
}

func (m *MemoryStore) Close() error { return nil }

func dayIndexKey(habitID, date string) string {
	return habitID + "|" + date
}

func (m *MemoryStore) ListHabits(ctx context.Context, userID string) ([]Habit, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapStorage("list habits", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Habit, 0, len(m.habits))
	for _, h := range m.habits {
		if h.UserID == userID {
			out = append(out, h)
		}
	}
	sortHabits(out)
	return out, nil
}

func (m *MemoryStore) GetHabit(ctx context.Context, id string) (Habit, error) {
	if err := ctx.Err(); err != nil {
		return Habit{}, wrapStorage("get habit", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	h, ok := m.habits[id]
	if !ok {
		return Habit{}, notFound("habit", id)
	}
	return h, nil
}

func (m *MemoryStore) CreateHabit(ctx context.Context, h Habit) (Habit, error) {
	if err := ctx.Err(); err != nil {
		return Habit{}, wrapStorage("create habit", err)
	}
	h = NormalizeHabit(h)
	if err := ValidateHabit(h); err != nil {
		return Habit{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	h.ID = newID()
	if h.CreatedAt.IsZero() {
		h.CreatedAt = m.now()
	}
	m.habits[h.ID] = h
	return h, nil
}

func (m *MemoryStore) UpdateHabit(ctx context.Context, h Habit) (Habit, error) {
	if err := ctx.Err(); err != nil {
		return Habit{}, wrapStorage("update habit", err)
	}
	h = NormalizeHabit(h)
	if err := ValidateHabit(h); err != nil {
		return Habit{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.habits[h.ID]
	if !ok {
		return Habit{}, notFound("habit", h.ID)
	}
	h.UserID = existing.UserID
	h.CreatedAt = existing.CreatedAt
	m.habits[h.ID] = h
	return h, nil
}

func (m *MemoryStore) DeleteHabit(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return wrapStorage("delete habit", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.habits[id]; !ok {
		return notFound("habit", id)
	}
	delete(m.habits, id)
	for cid, c := range m.completions {
		if c.HabitID == id {
			delete(m.completions, cid)
			delete(m.byDay, dayIndexKey(c.HabitID, c.Date))
		}
	}
	return nil
}

func (m *MemoryStore) ListCompletions(ctx context.Context, userID string, r DateRange) ([]HabitCompletion, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapStorage("list completions", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]HabitCompletion, 0)
	for _, c := range m.completions {
		if c.UserID == userID && r.Contains(c.Date) {
			out = append(out, c)
		}
	}
	sortCompletions(out)
	return out, nil
}

func (m *MemoryStore) GetCompletion(ctx context.Context, habitID, date string) (HabitCompletion, bool, error) {
	if err := ctx.Err(); err != nil {
		return HabitCompletion{}, false, wrapStorage("get completion", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byDay[dayIndexKey(habitID, date)]
	if !ok {
		return HabitCompletion{}, false, nil
	}
	return m.completions[id], true, nil
}

func (m *MemoryStore) UpsertCompletion(ctx context.Context, habitID, date string, count int) (HabitCompletion, error) {
	if err := ctx.Err(); err != nil {
		return HabitCompletion{}, wrapStorage("upsert completion", err)
	}
	if err := validateDate(date); err != nil {
		return HabitCompletion{}, err
	}
	if err := validateCount(count); err != nil {
		return HabitCompletion{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.habits[habitID]
	if !ok {
		return HabitCompletion{}, notFound("habit", habitID)
	}

	key := dayIndexKey(habitID, date)
	if id, ok := m.byDay[key]; ok {
		c := m.completions[id]
		c.Count = count
		m.completions[id] = c
		return c, nil
	}
	c := HabitCompletion{ID: newID(), HabitID: habitID, UserID: h.UserID, Date: date, Count: count}
	m.completions[c.ID] = c
	m.byDay[key] = c.ID
	return c, nil
}

func (m *MemoryStore) DeleteCompletion(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return wrapStorage("delete completion", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.completions[id]
	if !ok {
		return notFound("completion", id)
	}
	delete(m.completions, id)
	delete(m.byDay, dayIndexKey(c.HabitID, c.Date))
	return nil
}

// CreateFocusSession starts a new incomplete session. Any session the user
// left in progress is discarded so only one is ever open.
func (m *MemoryStore) CreateFocusSession(ctx context.Context, userID string, durationMinutes int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", wrapStorage("create focus session", err)
	}
	if durationMinutes < 1 {
		return "", errorf(ErrValidation, "duration must be at least 1 minute")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if s.UserID == userID && s.InProgress() {
			delete(m.sessions, id)
		}
	}
	s := FocusSession{ID: newID(), UserID: userID, DurationMinutes: durationMinutes, StartedAt: m.now()}
	m.sessions[s.ID] = s
	return s.ID, nil
}

func (m *MemoryStore) CompleteFocusSession(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return wrapStorage("complete focus session", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return notFound("focus session", id)
	}
	if s.Completed {
		return nil
	}
	now := m.now()
	s.Completed = true
	s.CompletedAt = &now
	m.sessions[id] = s
	return nil
}

func (m *MemoryStore) DeleteFocusSession(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return wrapStorage("delete focus session", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return notFound("focus session", id)
	}
	delete(m.sessions, id)
	return nil
}

func (m *MemoryStore) ListTodayFocusSessions(ctx context.Context, userID string, today time.Time) ([]FocusSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapStorage("list today focus sessions", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	day := DayKey(today)
	out := make([]FocusSession, 0)
	for _, s := range m.sessions {
		if s.UserID == userID && DayKey(s.StartedAt.In(today.Location())) == day {
			out = append(out, s)
		}
	}
	sortSessions(out)
	return out, nil
}

func (m *MemoryStore) ListFocusSessions(ctx context.Context, userID string, r DateRange) ([]FocusSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapStorage("list focus sessions", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]FocusSession, 0)
	for _, s := range m.sessions {
		if s.UserID == userID && r.Contains(DayKey(s.StartedAt)) {
			out = append(out, s)
		}
	}
	sortSessions(out)
	return out, nil
}

func sortHabits(hs []Habit) {
	sort.SliceStable(hs, func(i, j int) bool {
		if !hs[i].CreatedAt.Equal(hs[j].CreatedAt) {
			return hs[i].CreatedAt.Before(hs[j].CreatedAt)
		}
		return hs[i].ID < hs[j].ID
	})
}

func sortCompletions(cs []HabitCompletion) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].Date != cs[j].Date {
			return cs[i].Date < cs[j].Date
		}
		return cs[i].HabitID < cs[j].HabitID
	})
}

func sortSessions(ss []FocusSession) {
	sort.SliceStable(ss, func(i, j int) bool {
		if !ss[i].StartedAt.Equal(ss[j].StartedAt) {
			return ss[i].StartedAt.Before(ss[j].StartedAt)
		}
		return ss[i].ID < ss[j].ID
	})
}
