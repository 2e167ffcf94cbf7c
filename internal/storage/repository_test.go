package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clockedRepo interface {
	Repository
	SetNowFunc(func() time.Time)
}

// backends returns a fresh instance of every Repository implementation.
func backends(t *testing.T) map[string]clockedRepo {
	t.Helper()

	file, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	db, err := OpenSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "focusflow.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return map[string]clockedRepo{
		"memory": NewMemoryStore(),
		"file":   file,
		"sqlite": db,
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestRepository_HabitLifecycle(t *testing.T) {
	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo.SetNowFunc(fixedClock(time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)))

			h, err := repo.CreateHabit(ctx, Habit{UserID: "u1", Title: "  Read  ", TargetPerDay: 2})
			require.NoError(t, err)
			assert.NotEmpty(t, h.ID)
			assert.Equal(t, "Read", h.Title)
			assert.Equal(t, DefaultColor, h.Color)
			assert.Equal(t, CategoryPersonal, h.Category)
			assert.False(t, h.CreatedAt.IsZero())

			_, err = repo.CreateHabit(ctx, Habit{UserID: "u2", Title: "Other user", TargetPerDay: 1})
			require.NoError(t, err)

			list, err := repo.ListHabits(ctx, "u1")
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, h.ID, list[0].ID)

			h.Title = "Read fiction"
			h.Category = CategoryLearning
			updated, err := repo.UpdateHabit(ctx, h)
			require.NoError(t, err)
			assert.Equal(t, "Read fiction", updated.Title)
			assert.Equal(t, CategoryLearning, updated.Category)
			assert.Equal(t, "u1", updated.UserID)

			got, err := repo.GetHabit(ctx, h.ID)
			require.NoError(t, err)
			assert.Equal(t, "Read fiction", got.Title)

			require.NoError(t, repo.DeleteHabit(ctx, h.ID))
			_, err = repo.GetHabit(ctx, h.ID)
			assert.True(t, errors.Is(err, ErrNotFound))
			assert.True(t, errors.Is(repo.DeleteHabit(ctx, h.ID), ErrNotFound))
		})
	}
}

func TestRepository_CreateHabitValidation(t *testing.T) {
	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			cases := []Habit{
				{UserID: "u1", Title: "", TargetPerDay: 1},
				{UserID: "u1", Title: "x", TargetPerDay: 0},
				{UserID: "u1", Title: "x", TargetPerDay: -3},
				{UserID: "u1", Title: "x", TargetPerDay: 1, Color: "purple"},
				{UserID: "u1", Title: "x", TargetPerDay: 1, Category: "chores"},
			}
			for _, h := range cases {
				_, err := repo.CreateHabit(ctx, h)
				assert.True(t, errors.Is(err, ErrValidation), "habit %+v: err = %v", h, err)
			}
			list, err := repo.ListHabits(ctx, "u1")
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}

func TestRepository_UpsertCompletionKeepsOneRowPerDay(t *testing.T) {
	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			h, err := repo.CreateHabit(ctx, Habit{UserID: "u1", Title: "Water", TargetPerDay: 3})
			require.NoError(t, err)

			first, err := repo.UpsertCompletion(ctx, h.ID, "2025-03-01", 1)
			require.NoError(t, err)
			second, err := repo.UpsertCompletion(ctx, h.ID, "2025-03-01", 2)
			require.NoError(t, err)
			assert.Equal(t, first.ID, second.ID)
			assert.Equal(t, 2, second.Count)
			assert.Equal(t, "u1", second.UserID)

			_, err = repo.UpsertCompletion(ctx, h.ID, "2025-03-02", 1)
			require.NoError(t, err)

			all, err := repo.ListCompletions(ctx, "u1", DateRange{})
			require.NoError(t, err)
			require.Len(t, all, 2)
			assert.Equal(t, "2025-03-01", all[0].Date)

			onlyFirst, err := repo.ListCompletions(ctx, "u1", DateRange{From: "2025-03-01", To: "2025-03-01"})
			require.NoError(t, err)
			require.Len(t, onlyFirst, 1)

			got, ok, err := repo.GetCompletion(ctx, h.ID, "2025-03-01")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, 2, got.Count)

			require.NoError(t, repo.DeleteCompletion(ctx, got.ID))
			_, ok, err = repo.GetCompletion(ctx, h.ID, "2025-03-01")
			require.NoError(t, err)
			assert.False(t, ok)
			assert.True(t, errors.Is(repo.DeleteCompletion(ctx, got.ID), ErrNotFound))
		})
	}
}

func TestRepository_UpsertCompletionRejectsBadInput(t *testing.T) {
	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			h, err := repo.CreateHabit(ctx, Habit{UserID: "u1", Title: "Stretch", TargetPerDay: 1})
			require.NoError(t, err)

			_, err = repo.UpsertCompletion(ctx, "missing", "2025-03-01", 1)
			assert.True(t, errors.Is(err, ErrNotFound))
			_, err = repo.UpsertCompletion(ctx, h.ID, "03/01/2025", 1)
			assert.True(t, errors.Is(err, ErrValidation))
			_, err = repo.UpsertCompletion(ctx, h.ID, "2025-03-01", -1)
			assert.True(t, errors.Is(err, ErrValidation))
		})
	}
}

func TestRepository_DeleteHabitCascades(t *testing.T) {
	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			keep, err := repo.CreateHabit(ctx, Habit{UserID: "u1", Title: "Keep", TargetPerDay: 1})
			require.NoError(t, err)
			drop, err := repo.CreateHabit(ctx, Habit{UserID: "u1", Title: "Drop", TargetPerDay: 1})
			require.NoError(t, err)

			_, err = repo.UpsertCompletion(ctx, keep.ID, "2025-03-01", 1)
			require.NoError(t, err)
			_, err = repo.UpsertCompletion(ctx, drop.ID, "2025-03-01", 1)
			require.NoError(t, err)

			require.NoError(t, repo.DeleteHabit(ctx, drop.ID))

			all, err := repo.ListCompletions(ctx, "u1", DateRange{})
			require.NoError(t, err)
			require.Len(t, all, 1)
			assert.Equal(t, keep.ID, all[0].HabitID)
		})
	}
}

func TestRepository_FocusSessions(t *testing.T) {
	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			now := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)
			repo.SetNowFunc(func() time.Time { return now })

			_, err := repo.CreateFocusSession(ctx, "u1", 0)
			assert.True(t, errors.Is(err, ErrValidation))

			id, err := repo.CreateFocusSession(ctx, "u1", 25)
			require.NoError(t, err)

			today, err := repo.ListTodayFocusSessions(ctx, "u1", now)
			require.NoError(t, err)
			require.Len(t, today, 1)
			assert.True(t, today[0].InProgress())
			assert.Equal(t, 25, today[0].DurationMinutes)

			now = now.Add(25 * time.Minute)
			require.NoError(t, repo.CompleteFocusSession(ctx, id))
			today, err = repo.ListTodayFocusSessions(ctx, "u1", now)
			require.NoError(t, err)
			require.Len(t, today, 1)
			assert.True(t, today[0].Completed)
			require.NotNil(t, today[0].CompletedAt)
			assert.True(t, today[0].CompletedAt.Equal(now))

			yesterday, err := repo.ListTodayFocusSessions(ctx, "u1", now.AddDate(0, 0, -1))
			require.NoError(t, err)
			assert.Empty(t, yesterday)

			ranged, err := repo.ListFocusSessions(ctx, "u1", DateRange{From: "2025-03-01", To: "2025-03-02"})
			require.NoError(t, err)
			assert.Len(t, ranged, 1)

			assert.True(t, errors.Is(repo.CompleteFocusSession(ctx, "missing"), ErrNotFound))
			require.NoError(t, repo.DeleteFocusSession(ctx, id))
			assert.True(t, errors.Is(repo.DeleteFocusSession(ctx, id), ErrNotFound))
		})
	}
}

func TestRepository_OneInProgressSessionPerUser(t *testing.T) {
	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			now := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)
			repo.SetNowFunc(func() time.Time { return now })

			_, err := repo.CreateFocusSession(ctx, "u1", 25)
			require.NoError(t, err)
			now = now.Add(time.Minute)
			second, err := repo.CreateFocusSession(ctx, "u1", 50)
			require.NoError(t, err)

			sessions, err := repo.ListTodayFocusSessions(ctx, "u1", now)
			require.NoError(t, err)
			require.Len(t, sessions, 1)
			assert.Equal(t, second, sessions[0].ID)
		})
	}
}
