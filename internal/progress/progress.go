// Package progress ties the repository to the completion, streak, stats and
// achievement engines. The CLI and the TUI both go through a Service.
package progress

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"focusflow/internal/achievements"
	"focusflow/internal/completion"
	"focusflow/internal/stats"
	"focusflow/internal/storage"
	"focusflow/internal/streak"
)

// ErrAmbiguous is returned when a habit reference matches more than one habit.
var ErrAmbiguous = errors.New("habit reference is ambiguous")

// Service answers progress questions for one user.
type Service struct {
	repo         storage.Repository
	completions  *completion.Engine
	achievements *achievements.Engine
	userID       string
	now          func() time.Time
	logger       *log.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService returns a Service. ach may be nil, in which case nothing is
// unlocked.
func NewService(repo storage.Repository, ach *achievements.Engine, userID string, opts ...Option) *Service {
	s := &Service{
		repo:         repo,
		achievements: ach,
		userID:       userID,
		now:          time.Now,
		logger:       log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.completions = completion.NewEngine(repo, completion.WithLogger(s.logger))
	return s
}

// UserID returns the user the service works for.
func (s *Service) UserID() string { return s.userID }

// Now returns the service clock.
func (s *Service) Now() time.Time { return s.now() }

// Achievements returns the achievement engine, or nil.
func (s *Service) Achievements() *achievements.Engine { return s.achievements }

// HabitProgress is one row of the dashboard.
type HabitProgress struct {
	Habit  storage.Habit `json:"habit"`
	Today  int           `json:"today"`
	Done   bool          `json:"done"`
	Streak int           `json:"streak"`
}

// Dashboard is everything the main screen shows.
type Dashboard struct {
	Date           string                `json:"date"`
	Habits         []HabitProgress       `json:"habits"`
	CompletedToday int                   `json:"completed_today"`
	OverallStreak  int                   `json:"overall_streak"`
	Week           []stats.DayStat       `json:"week"`
	FocusToday     int                   `json:"focus_today"`
	Snapshot       achievements.Snapshot `json:"snapshot"`
	Unlocked       int                   `json:"unlocked"`
	Achievements   int                   `json:"achievements"`
}

// AllDone reports whether every habit met its target today.
func (d Dashboard) AllDone() bool {
	return len(d.Habits) > 0 && d.CompletedToday == len(d.Habits)
}

// data is one consistent read of the user's records.
type data struct {
	habits      []storage.Habit
	completions []storage.HabitCompletion
	sessions    []storage.FocusSession
}

func (s *Service) load(ctx context.Context) (data, error) {
	var d data
	var err error
	if d.habits, err = s.repo.ListHabits(ctx, s.userID); err != nil {
		return data{}, fmt.Errorf("load habits: %w", err)
	}
	if d.completions, err = s.repo.ListCompletions(ctx, s.userID, storage.DateRange{}); err != nil {
		return data{}, fmt.Errorf("load completions: %w", err)
	}
	if d.sessions, err = s.repo.ListFocusSessions(ctx, s.userID, storage.DateRange{}); err != nil {
		return data{}, fmt.Errorf("load focus sessions: %w", err)
	}
	return d, nil
}

func (d data) snapshot(today time.Time) achievements.Snapshot {
	overall := streak.Overall(d.habits, d.completions, today)
	return achievements.BuildSnapshot(d.habits, d.completions, stats.CompletedMinutes(d.sessions), overall, today)
}

// Dashboard loads the current progress.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	d, err := s.load(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	today := s.now()
	key := storage.DayKey(today)
	idx := streak.NewIndex(d.completions)

	dash := Dashboard{
		Date:   key,
		Habits: make([]HabitProgress, 0, len(d.habits)),
		Week:   stats.Weekly(d.habits, d.completions, today),
	}
	for _, h := range d.habits {
		hp := HabitProgress{
			Habit:  h,
			Today:  idx.Count(h.ID, key),
			Done:   idx.Met(h, key),
			Streak: streak.Habit(h, d.completions, today),
		}
		if hp.Done {
			dash.CompletedToday++
		}
		dash.Habits = append(dash.Habits, hp)
	}
	dash.Snapshot = d.snapshot(today)
	dash.OverallStreak = dash.Snapshot.OverallStreak
	dash.FocusToday = stats.Focus(d.sessions, today, 1).TotalMinutes
	if s.achievements != nil {
		dash.Unlocked = s.achievements.UnlockedCount()
		dash.Achievements = len(achievements.Catalog())
	}
	return dash, nil
}

// Snapshot derives the achievement snapshot from the repository.
func (s *Service) Snapshot(ctx context.Context) (achievements.Snapshot, error) {
	d, err := s.load(ctx)
	if err != nil {
		return achievements.Snapshot{}, err
	}
	return d.snapshot(s.now()), nil
}

// Evaluate rebuilds the snapshot and runs the achievement engine over it.
func (s *Service) Evaluate(ctx context.Context) (achievements.Evaluation, error) {
	if s.achievements == nil {
		return achievements.Evaluation{}, nil
	}
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return achievements.Evaluation{}, err
	}
	ev := s.achievements.Evaluate(snap)
	for _, a := range ev.Unlocked {
		s.logger.Info("achievement unlocked", "id", a.ID, "title", a.Title)
	}
	return ev, nil
}

// evaluateAfter runs Evaluate after a successful write. A failure to
// evaluate is logged; the write already happened.
func (s *Service) evaluateAfter(ctx context.Context, op string) achievements.Evaluation {
	ev, err := s.Evaluate(ctx)
	if err != nil {
		s.logger.Warn("achievement evaluation failed", "after", op, "err", err)
	}
	return ev
}

// ToggleResult is a completion toggle plus whatever it unlocked.
type ToggleResult struct {
	completion.Result
	Habit      storage.Habit
	Evaluation achievements.Evaluation
}

// Toggle advances today's count for the habit ref names.
func (s *Service) Toggle(ctx context.Context, ref string) (ToggleResult, error) {
	h, err := s.FindHabit(ctx, ref)
	if err != nil {
		return ToggleResult{}, err
	}
	res, err := s.completions.Toggle(ctx, h.ID, s.now())
	if err != nil {
		return ToggleResult{}, err
	}
	return ToggleResult{Result: res, Habit: h, Evaluation: s.evaluateAfter(ctx, "toggle")}, nil
}

// Habits lists the user's habits, optionally limited to one category.
func (s *Service) Habits(ctx context.Context, category storage.Category) ([]storage.Habit, error) {
	hs, err := s.repo.ListHabits(ctx, s.userID)
	if err != nil {
		return nil, err
	}
	if category == "" {
		return hs, nil
	}
	out := hs[:0]
	for _, h := range hs {
		if h.Category == category {
			out = append(out, h)
		}
	}
	return out, nil
}

// FindHabit resolves ref to one of the user's habits. ref may be a full id,
// a unique id prefix, or a title (case-insensitive).
func (s *Service) FindHabit(ctx context.Context, ref string) (storage.Habit, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return storage.Habit{}, fmt.Errorf("empty habit reference: %w", storage.ErrNotFound)
	}
	hs, err := s.repo.ListHabits(ctx, s.userID)
	if err != nil {
		return storage.Habit{}, err
	}

	var byTitle, byPrefix []storage.Habit
	for _, h := range hs {
		switch {
		case h.ID == ref:
			return h, nil
		case strings.EqualFold(h.Title, ref):
			byTitle = append(byTitle, h)
		case strings.HasPrefix(h.ID, ref):
			byPrefix = append(byPrefix, h)
		}
	}
	for _, matches := range [][]storage.Habit{byTitle, byPrefix} {
		switch len(matches) {
		case 0:
			continue
		case 1:
			return matches[0], nil
		default:
			return storage.Habit{}, fmt.Errorf("%q matches %d habits: %w", ref, len(matches), ErrAmbiguous)
		}
	}
	return storage.Habit{}, fmt.Errorf("habit %q: %w", ref, storage.ErrNotFound)
}

// CreateHabit stores a new habit for the user and evaluates achievements.
func (s *Service) CreateHabit(ctx context.Context, h storage.Habit) (storage.Habit, achievements.Evaluation, error) {
	h.ID = ""
	h.UserID = s.userID
	if h.TargetPerDay == 0 {
		h.TargetPerDay = 1
	}
	created, err := s.repo.CreateHabit(ctx, h)
	if err != nil {
		return storage.Habit{}, achievements.Evaluation{}, err
	}
	s.logger.Info("habit created", "id", created.ID, "title", created.Title)
	return created, s.evaluateAfter(ctx, "create habit"), nil
}

// CreateFromTemplate stores the habit a template describes.
func (s *Service) CreateFromTemplate(ctx context.Context, templateID string) (storage.Habit, achievements.Evaluation, error) {
	t, ok := TemplateByID(templateID)
	if !ok {
		return storage.Habit{}, achievements.Evaluation{}, fmt.Errorf("template %q: %w", templateID, storage.ErrNotFound)
	}
	return s.CreateHabit(ctx, t.Habit(s.userID))
}

// HabitPatch lists the fields to change; nil fields are left alone.
type HabitPatch struct {
	Title        *string
	Description  *string
	Color        *string
	Category     *storage.Category
	TargetPerDay *int
}

// UpdateHabit applies patch to the habit ref names.
func (s *Service) UpdateHabit(ctx context.Context, ref string, patch HabitPatch) (storage.Habit, error) {
	h, err := s.FindHabit(ctx, ref)
	if err != nil {
		return storage.Habit{}, err
	}
	if patch.Title != nil {
		h.Title = *patch.Title
	}
	if patch.Description != nil {
		h.Description = *patch.Description
	}
	if patch.Color != nil {
		h.Color = *patch.Color
	}
	if patch.Category != nil {
		h.Category = *patch.Category
	}
	if patch.TargetPerDay != nil {
		h.TargetPerDay = *patch.TargetPerDay
	}
	updated, err := s.repo.UpdateHabit(ctx, h)
	if err != nil {
		return storage.Habit{}, err
	}
	s.logger.Info("habit updated", "id", updated.ID)
	return updated, nil
}

// DeleteHabit removes the habit ref names and its completions.
func (s *Service) DeleteHabit(ctx context.Context, ref string) (storage.Habit, error) {
	h, err := s.FindHabit(ctx, ref)
	if err != nil {
		return storage.Habit{}, err
	}
	if err := s.repo.DeleteHabit(ctx, h.ID); err != nil {
		return storage.Habit{}, err
	}
	s.logger.Info("habit deleted", "id", h.ID, "title", h.Title)
	return h, nil
}

// HabitStreak is one habit's current streak.
type HabitStreak struct {
	Habit  storage.Habit `json:"habit"`
	Streak int           `json:"streak"`
}

// Streaks returns the overall streak and each habit's streak, longest first.
func (s *Service) Streaks(ctx context.Context) (int, []HabitStreak, error) {
	today := s.now()
	hs, err := s.repo.ListHabits(ctx, s.userID)
	if err != nil {
		return 0, nil, err
	}
	cs, err := s.repo.ListCompletions(ctx, s.userID, storage.LastDays(today, streak.MaxLookbackDays))
	if err != nil {
		return 0, nil, err
	}
	out := make([]HabitStreak, len(hs))
	for i, h := range hs {
		out[i] = HabitStreak{Habit: h, Streak: streak.Habit(h, cs, today)}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Streak > out[j].Streak })
	return streak.Overall(hs, cs, today), out, nil
}

// Period returns habit stats for the days-long window ending today.
func (s *Service) Period(ctx context.Context, days int) (stats.PeriodStats, error) {
	today := s.now()
	hs, err := s.repo.ListHabits(ctx, s.userID)
	if err != nil {
		return stats.PeriodStats{}, err
	}
	cs, err := s.repo.ListCompletions(ctx, s.userID, storage.LastDays(today, days))
	if err != nil {
		return stats.PeriodStats{}, err
	}
	return stats.Period(hs, cs, today, days), nil
}

// FocusHistory summarises completed focus sessions over the last days.
func (s *Service) FocusHistory(ctx context.Context, days int) (stats.FocusSummary, error) {
	today := s.now()
	ss, err := s.repo.ListFocusSessions(ctx, s.userID, storage.LastDays(today, days))
	if err != nil {
		return stats.FocusSummary{}, err
	}
	return stats.Focus(ss, today, days), nil
}
