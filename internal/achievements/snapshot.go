package achievements

import (
	"time"

	"focusflow/internal/storage"
	"focusflow/internal/streak"
)

// Snapshot is the derived progress the catalog is evaluated against.
type Snapshot struct {
	OverallStreak     int  `json:"overall_streak"`
	TotalCompletions  int  `json:"total_completions"`
	TotalFocusMinutes int  `json:"total_focus_minutes"`
	HabitCount        int  `json:"habit_count"`
	HadPerfectDay     bool `json:"had_perfect_day"`
}

// BuildSnapshot derives a Snapshot. TotalCompletions is the sum of every
// completion count passed in, and HadPerfectDay is true when every habit met
// its target on today.
func BuildSnapshot(habits []storage.Habit, completions []storage.HabitCompletion, focusMinutes, overallStreak int, today time.Time) Snapshot {
	total := 0
	for _, c := range completions {
		if c.Count > 0 {
			total += c.Count
		}
	}
	idx := streak.NewIndex(completions)
	return Snapshot{
		OverallStreak:     overallStreak,
		TotalCompletions:  total,
		TotalFocusMinutes: focusMinutes,
		HabitCount:        len(habits),
		HadPerfectDay:     streak.AllMet(idx, habits, storage.DayKey(today)),
	}
}
