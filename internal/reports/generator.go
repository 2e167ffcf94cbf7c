package reports

import (
	"context"
	"math"
	"time"

	"focusflow/internal/achievements"
	"focusflow/internal/stats"
	"focusflow/internal/storage"
	"focusflow/internal/streak"
)

// Source is the read side of the repository.
type Source interface {
	ListHabits(ctx context.Context, userID string) ([]storage.Habit, error)
	ListCompletions(ctx context.Context, userID string, r storage.DateRange) ([]storage.HabitCompletion, error)
	ListFocusSessions(ctx context.Context, userID string, r storage.DateRange) ([]storage.FocusSession, error)
}

// Generator creates reports for one user.
type Generator struct {
	src          Source
	userID       string
	achievements *achievements.Engine
	now          func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithAchievements lists achievements unlocked during the report window.
func WithAchievements(e *achievements.Engine) Option {
	return func(g *Generator) { g.achievements = e }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// NewGenerator returns a Generator reading from src.
func NewGenerator(src Source, userID string, opts ...Option) *Generator {
	g := &Generator{src: src, userID: userID, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// inputs are the records a report needs. Completions reach back far enough
// to compute streaks at the end of the window.
type inputs struct {
	habits      []storage.Habit
	completions []storage.HabitCompletion
	sessions    []storage.FocusSession
}

func (g *Generator) load(ctx context.Context, first, last time.Time) (inputs, error) {
	var in inputs
	var err error
	if in.habits, err = g.src.ListHabits(ctx, g.userID); err != nil {
		return inputs{}, err
	}
	lookback := storage.DateRange{
		From: storage.DayKey(last.AddDate(0, 0, -(streak.MaxLookbackDays - 1))),
		To:   storage.DayKey(last),
	}
	if in.completions, err = g.src.ListCompletions(ctx, g.userID, lookback); err != nil {
		return inputs{}, err
	}
	window := storage.DateRange{From: storage.DayKey(first), To: storage.DayKey(last)}
	if in.sessions, err = g.src.ListFocusSessions(ctx, g.userID, window); err != nil {
		return inputs{}, err
	}
	return in, nil
}

// GenerateDaily builds the report for the day containing date.
func (g *Generator) GenerateDaily(ctx context.Context, date time.Time) (*DailyReport, error) {
	day := storage.StartOfDay(date)
	in, err := g.load(ctx, day, day)
	if err != nil {
		return nil, err
	}
	key := storage.DayKey(day)
	idx := streak.NewIndex(in.completions)

	summary := HabitSummary{Habits: make([]HabitStatus, 0, len(in.habits)), TotalCount: len(in.habits)}
	for _, h := range in.habits {
		status := HabitStatus{
			ID:       h.ID,
			Title:    h.Title,
			Category: h.Category,
			Count:    idx.Count(h.ID, key),
			Target:   h.TargetPerDay,
			Done:     idx.Met(h, key),
			Streak:   streak.Habit(h, in.completions, day),
		}
		if status.Done {
			summary.CompletedCount++
		}
		summary.Habits = append(summary.Habits, status)
	}
	summary.CompletionRate = rate(summary.CompletedCount, summary.TotalCount)

	return &DailyReport{
		Date:          key,
		Habits:        summary,
		Focus:         stats.Focus(in.sessions, day, 1),
		OverallStreak: streak.Overall(in.habits, in.completions, day),
		Unlocked:      g.unlockedBetween(day, day.AddDate(0, 0, 1)),
		GeneratedAt:   g.now(),
	}, nil
}

// GenerateWeekly builds the report for the Monday-to-Sunday week containing
// date.
func (g *Generator) GenerateWeekly(ctx context.Context, date time.Time) (*WeeklyReport, error) {
	start := stats.WeekStart(date)
	end := start.AddDate(0, 0, 6)
	in, err := g.load(ctx, start, end)
	if err != nil {
		return nil, err
	}
	idx := streak.NewIndex(in.completions)
	period := stats.Period(in.habits, in.completions, end, 7)

	weekly := WeeklyHabits{Habits: make([]WeeklyHabitStatus, 0, len(in.habits))}
	for _, h := range in.habits {
		status := WeeklyHabitStatus{
			ID:            h.ID,
			Title:         h.Title,
			DaysCompleted: make([]bool, 7),
			Streak:        streak.Habit(h, in.completions, end),
		}
		for i := range status.DaysCompleted {
			if idx.Met(h, storage.DayKey(start.AddDate(0, 0, i))) {
				status.DaysCompleted[i] = true
				status.CompletedCount++
			}
		}
		status.CompletionRate = rate(status.CompletedCount, 7)
		weekly.TotalCompleted += status.CompletedCount
		weekly.TotalExpected += 7
		weekly.Habits = append(weekly.Habits, status)
	}
	weekly.OverallRate = rate(weekly.TotalCompleted, weekly.TotalExpected)

	return &WeeklyReport{
		StartDate:     storage.DayKey(start),
		EndDate:       storage.DayKey(end),
		Habits:        weekly,
		Days:          period.Days,
		AverageRate:   period.AverageRate,
		PerfectDays:   period.PerfectDays,
		Trend:         period.Trend,
		Focus:         stats.Focus(in.sessions, end, 7),
		OverallStreak: streak.Overall(in.habits, in.completions, end),
		Unlocked:      g.unlockedBetween(start, end.AddDate(0, 0, 1)),
		GeneratedAt:   g.now(),
	}, nil
}

func (g *Generator) unlockedBetween(from, to time.Time) []UnlockedAchievement {
	if g.achievements == nil {
		return nil
	}
	var out []UnlockedAchievement
	for _, a := range g.achievements.Achievements() {
		if !a.Unlocked || a.UnlockedAt.Before(from) || !a.UnlockedAt.Before(to) {
			continue
		}
		out = append(out, UnlockedAchievement{ID: a.ID, Title: a.Title, Icon: a.Icon, UnlockedAt: a.UnlockedAt})
	}
	return out
}

func rate(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}
