// Package streak computes consecutive-day streaks from completion history.
//
// The scan starts at today and walks backwards one calendar day at a time.
// Today not yet meeting its target does not end a streak, but any earlier
// day that misses does. Scans stop after MaxLookbackDays days.
package streak

import (
	"time"

	"focusflow/internal/storage"
)

// MaxLookbackDays caps the scan so long histories stay cheap to evaluate.
// Streaks longer than this are reported as MaxLookbackDays.
const MaxLookbackDays = 365

// Index maps habit id and date to that day's completion count.
type Index map[string]map[string]int

// NewIndex builds an Index. Duplicate rows for the same day are summed.
func NewIndex(completions []storage.HabitCompletion) Index {
	idx := make(Index)
	for _, c := range completions {
		days, ok := idx[c.HabitID]
		if !ok {
			days = make(map[string]int)
			idx[c.HabitID] = days
		}
		days[c.Date] += c.Count
	}
	return idx
}

// Count returns the stored count for habitID on date, or 0.
func (idx Index) Count(habitID, date string) int {
	return idx[habitID][date]
}

// Met reports whether h reached its target on date.
func (idx Index) Met(h storage.Habit, date string) bool {
	target := h.TargetPerDay
	if target < 1 {
		target = 1
	}
	return idx.Count(h.ID, date) >= target
}

// Habit returns the current streak for h.
func Habit(h storage.Habit, completions []storage.HabitCompletion, today time.Time) int {
	idx := NewIndex(completions)
	return walk(today, func(date string) bool { return idx.Met(h, date) })
}

// Overall returns the number of consecutive days on which every habit met
// its target. It is 0 when habits is empty.
func Overall(habits []storage.Habit, completions []storage.HabitCompletion, today time.Time) int {
	if len(habits) == 0 {
		return 0
	}
	idx := NewIndex(completions)
	return walk(today, func(date string) bool { return AllMet(idx, habits, date) })
}

// AllMet reports whether every habit met its target on date.
func AllMet(idx Index, habits []storage.Habit, date string) bool {
	if len(habits) == 0 {
		return false
	}
	for _, h := range habits {
		if !idx.Met(h, date) {
			return false
		}
	}
	return true
}

func walk(today time.Time, qualifies func(date string) bool) int {
	start := storage.StartOfDay(today)
	streak := 0
	for offset := 0; offset < MaxLookbackDays; offset++ {
		date := storage.DayKey(start.AddDate(0, 0, -offset))
		if qualifies(date) {
			streak++
			continue
		}
		if offset > 0 {
			break
		}
	}
	return streak
}
