// Package reports builds daily and weekly progress reports and renders them
// as Markdown or JSON.
package reports

import (
	"time"

	"focusflow/internal/stats"
	"focusflow/internal/storage"
)

// DailyReport covers a single day.
type DailyReport struct {
	Date          string                `json:"date"`
	Habits        HabitSummary          `json:"habits"`
	Focus         stats.FocusSummary    `json:"focus"`
	OverallStreak int                   `json:"overall_streak"`
	Unlocked      []UnlockedAchievement `json:"unlocked,omitempty"`
	GeneratedAt   time.Time             `json:"generated_at"`
}

// WeeklyReport covers Monday through Sunday.
type WeeklyReport struct {
	StartDate     string                `json:"start_date"`
	EndDate       string                `json:"end_date"`
	Habits        WeeklyHabits          `json:"habits"`
	Days          []stats.DayStat       `json:"days"`
	AverageRate   int                   `json:"average_rate"`
	PerfectDays   int                   `json:"perfect_days"`
	Trend         float64               `json:"trend"`
	Focus         stats.FocusSummary    `json:"focus"`
	OverallStreak int                   `json:"overall_streak"`
	Unlocked      []UnlockedAchievement `json:"unlocked,omitempty"`
	GeneratedAt   time.Time             `json:"generated_at"`
}

// HabitSummary is the state of every habit on one day.
type HabitSummary struct {
	Habits         []HabitStatus `json:"habits"`
	CompletedCount int           `json:"completed_count"`
	TotalCount     int           `json:"total_count"`
	CompletionRate int           `json:"completion_rate"`
}

// HabitStatus is one habit on one day.
type HabitStatus struct {
	ID       string           `json:"id"`
	Title    string           `json:"title"`
	Category storage.Category `json:"category"`
	Count    int              `json:"count"`
	Target   int              `json:"target"`
	Done     bool             `json:"done"`
	Streak   int              `json:"streak"`
}

// WeeklyHabits is per-habit completion over a week.
type WeeklyHabits struct {
	Habits         []WeeklyHabitStatus `json:"habits"`
	TotalCompleted int                 `json:"total_completed"`
	TotalExpected  int                 `json:"total_expected"`
	OverallRate    int                 `json:"overall_rate"`
}

// WeeklyHabitStatus is one habit across the seven days.
type WeeklyHabitStatus struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	DaysCompleted  []bool `json:"days_completed"` // Monday first
	CompletedCount int    `json:"completed_count"`
	CompletionRate int    `json:"completion_rate"`
	Streak         int    `json:"streak"`
}

// UnlockedAchievement is an achievement unlocked inside the report window.
type UnlockedAchievement struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Icon       string    `json:"icon"`
	UnlockedAt time.Time `json:"unlocked_at"`
}
