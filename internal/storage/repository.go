package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// HabitRepository stores habits. DeleteHabit removes the habit's
// completions as well.
type HabitRepository interface {
	ListHabits(ctx context.Context, userID string) ([]Habit, error)
	GetHabit(ctx context.Context, id string) (Habit, error)
	CreateHabit(ctx context.Context, h Habit) (Habit, error)
	UpdateHabit(ctx context.Context, h Habit) (Habit, error)
	DeleteHabit(ctx context.Context, id string) error
}

// CompletionRepository stores per-day completion counts. UpsertCompletion
// updates the existing (habit, date) row when there is one.
type CompletionRepository interface {
	ListCompletions(ctx context.Context, userID string, r DateRange) ([]HabitCompletion, error)
	GetCompletion(ctx context.Context, habitID, date string) (HabitCompletion, bool, error)
	UpsertCompletion(ctx context.Context, habitID, date string, count int) (HabitCompletion, error)
	DeleteCompletion(ctx context.Context, id string) error
}

// SessionRepository stores focus sessions.
type SessionRepository interface {
	CreateFocusSession(ctx context.Context, userID string, durationMinutes int) (string, error)
	CompleteFocusSession(ctx context.Context, id string) error
	DeleteFocusSession(ctx context.Context, id string) error
	ListTodayFocusSessions(ctx context.Context, userID string, today time.Time) ([]FocusSession, error)
	ListFocusSessions(ctx context.Context, userID string, r DateRange) ([]FocusSession, error)
}

// Repository is everything the engines need from a backend.
type Repository interface {
	HabitRepository
	CompletionRepository
	SessionRepository
	Close() error
}

func newID() string {
	return uuid.NewString()
}

func validateCount(count int) error {
	if count < 0 {
		return errorf(ErrValidation, "count must not be negative")
	}
	return nil
}

func validateDate(date string) error {
	if _, err := ParseDay(date, time.UTC); err != nil {
		return errorf(ErrValidation, "invalid date %q: expected YYYY-MM-DD", date)
	}
	return nil
}
