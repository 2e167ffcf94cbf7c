package completion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focusflow/internal/storage"
)

var today = time.Date(2025, 5, 10, 14, 0, 0, 0, time.UTC)

func TestNext(t *testing.T) {
	tests := []struct {
		count, target int
		next          int
		reached       bool
	}{
		{0, 1, 1, true},
		{1, 1, 0, false},
		{0, 3, 1, false},
		{2, 3, 3, true},
		{3, 3, 0, false},
		{7, 3, 0, false},
		{-4, 2, 1, false},
		{0, 0, 1, true},
	}
	for _, tt := range tests {
		next, reached := Next(tt.count, tt.target)
		assert.Equal(t, tt.next, next, "Next(%d, %d)", tt.count, tt.target)
		assert.Equal(t, tt.reached, reached, "Next(%d, %d) reached", tt.count, tt.target)
	}
}

func newHabit(t *testing.T, repo *storage.MemoryStore, target int) storage.Habit {
	t.Helper()
	h, err := repo.CreateHabit(context.Background(), storage.Habit{UserID: "u1", Title: "Water", TargetPerDay: target})
	require.NoError(t, err)
	return h
}

func TestToggleCyclesBackToZero(t *testing.T) {
	for _, target := range []int{1, 2, 5} {
		repo := storage.NewMemoryStore()
		h := newHabit(t, repo, target)
		engine := NewEngine(repo)
		ctx := context.Background()

		completedEvents := 0
		for i := 1; i <= target; i++ {
			res, err := engine.Toggle(ctx, h.ID, today)
			require.NoError(t, err)
			assert.Equal(t, i, res.Count)
			if res.JustCompleted {
				completedEvents++
			}
		}
		assert.Equal(t, 1, completedEvents, "target %d", target)

		res, err := engine.Toggle(ctx, h.ID, today)
		require.NoError(t, err)
		assert.Equal(t, 0, res.Count)
		assert.False(t, res.JustCompleted)

		_, found, err := repo.GetCompletion(ctx, h.ID, "2025-05-10")
		require.NoError(t, err)
		assert.False(t, found, "row should be deleted after a full cycle")
	}
}

func TestToggleNotFound(t *testing.T) {
	engine := NewEngine(storage.NewMemoryStore())

	_, err := engine.Toggle(context.Background(), "missing", today)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestToggleClampsNegativeStoredCount(t *testing.T) {
	repo := storage.NewMemoryStore()
	h := newHabit(t, repo, 2)
	stub := &failingStore{MemoryStore: repo, negative: true}
	engine := NewEngine(stub)

	res, err := engine.Toggle(context.Background(), h.ID, today)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)
}

func TestToggleStorageErrorLeavesStateUnchanged(t *testing.T) {
	repo := storage.NewMemoryStore()
	h := newHabit(t, repo, 3)
	ctx := context.Background()
	_, err := repo.UpsertCompletion(ctx, h.ID, "2025-05-10", 2)
	require.NoError(t, err)

	engine := NewEngine(&failingStore{MemoryStore: repo, failWrites: true})
	_, err = engine.Toggle(ctx, h.ID, today)
	assert.True(t, errors.Is(err, storage.ErrStorage))

	c, found, err := repo.GetCompletion(ctx, h.ID, "2025-05-10")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 2, c.Count)

	// A later successful toggle continues from the stored value.
	res, err := NewEngine(repo).Toggle(ctx, h.ID, today)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Count)
	assert.True(t, res.JustCompleted)
}

func TestToggleRejectsConcurrentToggleOfSameHabit(t *testing.T) {
	repo := storage.NewMemoryStore()
	h := newHabit(t, repo, 2)
	other := newHabit(t, repo, 1)

	blocking := &failingStore{
		MemoryStore: repo,
		holdHabit:   h.ID,
		entered:     make(chan struct{}),
		hold:        make(chan struct{}),
	}
	engine := NewEngine(blocking)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := engine.Toggle(ctx, h.ID, today)
		done <- err
	}()
	<-blocking.entered

	_, err := engine.Toggle(ctx, h.ID, today)
	assert.True(t, errors.Is(err, ErrBusy))

	res, err := engine.Toggle(ctx, other.ID, today)
	require.NoError(t, err, "other habits are not blocked")
	assert.Equal(t, 1, res.Count)

	close(blocking.hold)
	require.NoError(t, <-done)

	blocking.holdHabit = ""
	res, err = engine.Toggle(ctx, h.ID, today)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
}

// failingStore wraps a MemoryStore with injectable failures.
type failingStore struct {
	*storage.MemoryStore
	failWrites bool
	negative   bool

	// GetCompletion for holdHabit signals entered and waits for hold.
	holdHabit string
	entered   chan struct{}
	hold      chan struct{}
}

func (f *failingStore) GetCompletion(ctx context.Context, habitID, date string) (storage.HabitCompletion, bool, error) {
	if f.holdHabit != "" && habitID == f.holdHabit {
		close(f.entered)
		<-f.hold
	}
	if f.negative {
		return storage.HabitCompletion{ID: "neg", HabitID: habitID, Date: date, Count: -5}, true, nil
	}
	return f.MemoryStore.GetCompletion(ctx, habitID, date)
}

func (f *failingStore) UpsertCompletion(ctx context.Context, habitID, date string, count int) (storage.HabitCompletion, error) {
	if f.failWrites {
		return storage.HabitCompletion{}, errors.Join(storage.ErrStorage, errors.New("disk full"))
	}
	return f.MemoryStore.UpsertCompletion(ctx, habitID, date, count)
}

func (f *failingStore) DeleteCompletion(ctx context.Context, id string) error {
	if f.failWrites {
		return errors.Join(storage.ErrStorage, errors.New("disk full"))
	}
	return f.MemoryStore.DeleteCompletion(ctx, id)
}
