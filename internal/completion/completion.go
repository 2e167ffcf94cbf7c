// Package completion records habit completions for the current day.
//
// Each toggle advances the day's count along the cycle 0 → 1 → … → target → 0.
package completion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"focusflow/internal/storage"
)

// ErrBusy is returned when a toggle for the same habit is already running.
var ErrBusy = errors.New("toggle already in progress")

// Next returns the count after one toggle and whether that toggle reached
// the target from below. Negative counts are treated as 0.
func Next(count, target int) (next int, reached bool) {
	if count < 0 {
		count = 0
	}
	if target < 1 {
		target = 1
	}
	if count >= target {
		return 0, false
	}
	next = count + 1
	return next, next == target
}

// Result describes the outcome of a toggle.
type Result struct {
	HabitID       string
	Date          string
	Count         int
	Target        int
	JustCompleted bool
}

// Done reports whether the habit met its target for the day.
func (r Result) Done() bool {
	return r.Count >= r.Target
}

// Store is the part of the repository the engine writes to.
type Store interface {
	GetHabit(ctx context.Context, id string) (storage.Habit, error)
	GetCompletion(ctx context.Context, habitID, date string) (storage.HabitCompletion, bool, error)
	UpsertCompletion(ctx context.Context, habitID, date string, count int) (storage.HabitCompletion, error)
	DeleteCompletion(ctx context.Context, id string) error
}

// Engine applies toggles. It keeps no cached counts, so a failed write
// leaves nothing behind.
type Engine struct {
	store    Store
	logger   *log.Logger
	mu       sync.Mutex
	inFlight map[string]struct{}
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine returns an Engine writing through store.
func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		logger:   log.New(io.Discard),
		inFlight: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Toggle advances habitID's count for the day containing today.
func (e *Engine) Toggle(ctx context.Context, habitID string, today time.Time) (Result, error) {
	if !e.acquire(habitID) {
		return Result{}, fmt.Errorf("toggle %s: %w", habitID, ErrBusy)
	}
	defer e.release(habitID)

	date := storage.DayKey(today)
	habit, err := e.store.GetHabit(ctx, habitID)
	if err != nil {
		return Result{}, fmt.Errorf("toggle %s: %w", habitID, err)
	}
	existing, found, err := e.store.GetCompletion(ctx, habitID, date)
	if err != nil {
		return Result{}, fmt.Errorf("toggle %s: %w", habitID, err)
	}

	current := 0
	if found {
		current = existing.Count
	}
	next, reached := Next(current, habit.TargetPerDay)

	// next is only 0 when a row at or above target exists.
	if next == 0 {
		err = e.store.DeleteCompletion(ctx, existing.ID)
	} else {
		_, err = e.store.UpsertCompletion(ctx, habitID, date, next)
	}
	if err != nil {
		e.logger.Error("toggle write failed", "habit", habitID, "date", date, "err", err)
		return Result{}, fmt.Errorf("toggle %s: %w", habitID, err)
	}

	e.logger.Debug("toggled habit", "habit", habitID, "date", date, "from", current, "to", next)
	return Result{
		HabitID:       habitID,
		Date:          date,
		Count:         next,
		Target:        habit.TargetPerDay,
		JustCompleted: reached,
	}, nil
}

func (e *Engine) acquire(habitID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.inFlight[habitID]; busy {
		return false
	}
	e.inFlight[habitID] = struct{}{}
	return true
}

func (e *Engine) release(habitID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inFlight, habitID)
}
