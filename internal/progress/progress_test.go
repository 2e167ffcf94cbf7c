package progress

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focusflow/internal/achievements"
	"focusflow/internal/storage"
)

type fixture struct {
	svc   *Service
	repo  *storage.MemoryStore
	ach   *achievements.Engine
	clock *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	now := time.Date(2025, 9, 3, 18, 0, 0, 0, time.UTC)
	f := &fixture{clock: &now}
	nowFn := func() time.Time { return *f.clock }

	f.repo = storage.NewMemoryStore()
	f.repo.SetNowFunc(nowFn)
	f.ach = achievements.NewEngine(
		achievements.NewFileStore(filepath.Join(t.TempDir(), "achievements.json")),
		achievements.WithClock(nowFn))
	f.svc = NewService(f.repo, f.ach, "u1", WithClock(nowFn))
	return f
}

func (f *fixture) habit(t *testing.T, title string, target int) storage.Habit {
	t.Helper()
	h, _, err := f.svc.CreateHabit(context.Background(), storage.Habit{Title: title, TargetPerDay: target})
	require.NoError(t, err)
	return h
}

func (f *fixture) complete(t *testing.T, h storage.Habit, daysAgo int) {
	t.Helper()
	date := storage.DayKey(f.clock.AddDate(0, 0, -daysAgo))
	_, err := f.repo.UpsertCompletion(context.Background(), h.ID, date, h.TargetPerDay)
	require.NoError(t, err)
}

func TestFirstHabitUnlocksAchievement(t *testing.T) {
	f := newFixture(t)
	h, ev, err := f.svc.CreateHabit(context.Background(), storage.Habit{Title: "Read"})
	require.NoError(t, err)
	assert.Equal(t, 1, h.TargetPerDay)
	assert.Equal(t, "u1", h.UserID)
	require.NotNil(t, ev.Notify)
	assert.Equal(t, "first_habit", ev.Notify.ID)
}

func TestToggleCompletesAndUnlocksPerfectDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h := f.habit(t, "Meditation", 2)

	res, err := f.svc.Toggle(ctx, "meditation")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)
	assert.False(t, res.JustCompleted)
	assert.Nil(t, res.Evaluation.Notify)

	res, err = f.svc.Toggle(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
	assert.True(t, res.JustCompleted)
	require.NotNil(t, res.Evaluation.Notify)
	assert.Equal(t, "perfect_day", res.Evaluation.Notify.ID)

	res, err = f.svc.Toggle(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Count)
	assert.True(t, f.ach.IsUnlocked("perfect_day"), "unlocks stay after the count drops")
}

func TestStreakSevenScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.habit(t, "Walk", 1)
	b := f.habit(t, "Water", 1)
	for d := 1; d <= 6; d++ {
		f.complete(t, a, d)
		f.complete(t, b, d)
	}
	f.complete(t, a, 0)

	ev, err := f.svc.Evaluate(ctx)
	require.NoError(t, err)
	assert.True(t, f.ach.IsUnlocked("streak_3"))
	assert.False(t, f.ach.IsUnlocked("streak_7"))
	assert.NotEmpty(t, ev.Unlocked)

	res, err := f.svc.Toggle(ctx, "water")
	require.NoError(t, err)
	require.NotNil(t, res.Evaluation.Notify)
	assert.True(t, f.ach.IsUnlocked("streak_7"))
	assert.True(t, f.ach.IsUnlocked("perfect_day"))

	overall, per, err := f.svc.Streaks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, overall)
	require.Len(t, per, 2)
	assert.Equal(t, 7, per[0].Streak)
	assert.Equal(t, 7, per[1].Streak)
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.habit(t, "Walk", 1)
	b := f.habit(t, "Pushups", 3)
	f.complete(t, a, 0)
	f.complete(t, a, 1)
	_, err := f.repo.UpsertCompletion(ctx, b.ID, storage.DayKey(*f.clock), 1)
	require.NoError(t, err)

	id, err := f.repo.CreateFocusSession(ctx, "u1", 25)
	require.NoError(t, err)
	require.NoError(t, f.repo.CompleteFocusSession(ctx, id))

	dash, err := f.svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2025-09-03", dash.Date)
	require.Len(t, dash.Habits, 2)
	assert.Equal(t, 1, dash.CompletedToday)
	assert.False(t, dash.AllDone())
	assert.Equal(t, 0, dash.OverallStreak)
	assert.Equal(t, 25, dash.FocusToday)
	assert.Len(t, dash.Week, 7)
	assert.Equal(t, 19, dash.Achievements)

	byTitle := map[string]HabitProgress{}
	for _, hp := range dash.Habits {
		byTitle[hp.Habit.Title] = hp
	}
	assert.Equal(t, 2, byTitle["Walk"].Streak)
	assert.True(t, byTitle["Walk"].Done)
	assert.Equal(t, 1, byTitle["Pushups"].Today)
	assert.False(t, byTitle["Pushups"].Done)

	assert.Equal(t, achievements.Snapshot{
		OverallStreak:     0,
		TotalCompletions:  3,
		TotalFocusMinutes: 25,
		HabitCount:        2,
	}, dash.Snapshot)
}

func TestFindHabit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	read := f.habit(t, "Read", 1)
	f.habit(t, "Run", 1)

	h, err := f.svc.FindHabit(ctx, "READ")
	require.NoError(t, err)
	assert.Equal(t, read.ID, h.ID)

	h, err = f.svc.FindHabit(ctx, read.ID[:8])
	require.NoError(t, err)
	assert.Equal(t, read.ID, h.ID)

	_, err = f.svc.FindHabit(ctx, "swim")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = f.svc.FindHabit(ctx, "  ")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFindHabitAmbiguousTitle(t *testing.T) {
	f := newFixture(t)
	f.habit(t, "Read", 1)
	f.habit(t, "read", 1)
	_, err := f.svc.FindHabit(context.Background(), "Read")
	assert.ErrorIs(t, err, ErrAmbiguous)
}

func TestUpdateAndDeleteHabit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h := f.habit(t, "Read", 1)
	f.complete(t, h, 0)

	title, target, cat := "Read 20 pages", 2, storage.CategoryLearning
	updated, err := f.svc.UpdateHabit(ctx, h.ID, HabitPatch{Title: &title, TargetPerDay: &target, Category: &cat})
	require.NoError(t, err)
	assert.Equal(t, "Read 20 pages", updated.Title)
	assert.Equal(t, 2, updated.TargetPerDay)
	assert.Equal(t, storage.CategoryLearning, updated.Category)

	zero := 0
	_, err = f.svc.UpdateHabit(ctx, h.ID, HabitPatch{TargetPerDay: &zero})
	assert.ErrorIs(t, err, storage.ErrValidation)

	deleted, err := f.svc.DeleteHabit(ctx, "read 20 pages")
	require.NoError(t, err)
	assert.Equal(t, h.ID, deleted.ID)

	cs, err := f.repo.ListCompletions(ctx, "u1", storage.DateRange{})
	require.NoError(t, err)
	assert.Empty(t, cs)
}

func TestHabitsByCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, _, err := f.svc.CreateFromTemplate(ctx, "meditation")
	require.NoError(t, err)
	_, _, err = f.svc.CreateFromTemplate(ctx, "Deep Work Session")
	require.NoError(t, err)
	_, _, err = f.svc.CreateFromTemplate(ctx, "nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	work, err := f.svc.Habits(ctx, storage.CategoryWork)
	require.NoError(t, err)
	require.Len(t, work, 1)
	assert.Equal(t, "Deep Work Session", work[0].Title)
	assert.Equal(t, "#8B5CF6", work[0].Color)

	all, err := f.svc.Habits(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestPeriodAndFocusHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h := f.habit(t, "Walk", 1)
	for d := 0; d < 3; d++ {
		f.complete(t, h, d)
	}
	f.complete(t, h, 10)

	week, err := f.svc.Period(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, week.Days, 7)
	assert.Equal(t, 3, week.TotalCompleted)
	assert.Equal(t, 7, week.TotalPossible)
	assert.Equal(t, 3, week.PerfectDays)
	assert.Positive(t, week.Trend)

	for _, minutes := range []int{25, 50} {
		id, err := f.repo.CreateFocusSession(ctx, "u1", minutes)
		require.NoError(t, err)
		require.NoError(t, f.repo.CompleteFocusSession(ctx, id))
	}
	_, err = f.repo.CreateFocusSession(ctx, "u1", 25)
	require.NoError(t, err)

	hist, err := f.svc.FocusHistory(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 75, hist.TotalMinutes)
	assert.Equal(t, 2, hist.Sessions)
	assert.Equal(t, 11, hist.AvgPerDay)
	assert.Equal(t, 75, hist.ByDay[6].Minutes)
}

func TestTemplatesCatalog(t *testing.T) {
	all := Templates("")
	assert.Len(t, all, 18)
	seen := map[string]bool{}
	for _, tpl := range all {
		assert.False(t, seen[tpl.ID], tpl.ID)
		seen[tpl.ID] = true
		assert.True(t, tpl.Category.Valid(), tpl.ID)
		assert.NoError(t, storage.ValidateHabit(storage.NormalizeHabit(tpl.Habit("u1"))), tpl.ID)
	}
	for _, c := range storage.Categories {
		assert.Len(t, Templates(c), 3, string(c))
	}
}
