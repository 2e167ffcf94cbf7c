// Package stats aggregates completions and focus sessions into per-day and
// per-period figures for charts and reports.
package stats

import (
	"math"
	"time"

	"focusflow/internal/storage"
	"focusflow/internal/streak"
)

// DayStat is one day of habit progress. Completed never exceeds Total.
type DayStat struct {
	Date       string `json:"date"`
	Weekday    string `json:"weekday"`
	Completed  int    `json:"completed"`
	Total      int    `json:"total"`
	Percentage int    `json:"percentage"`
}

// Perfect reports whether every habit met its target that day.
func (d DayStat) Perfect() bool {
	return d.Total > 0 && d.Completed == d.Total
}

// PeriodStats summarises a trailing window of days.
type PeriodStats struct {
	Days           []DayStat `json:"days"`
	TotalCompleted int       `json:"total_completed"`
	TotalPossible  int       `json:"total_possible"`
	AverageRate    int       `json:"average_rate"`
	PerfectDays    int       `json:"perfect_days"`
	// Trend is the mean rate of the second half of the window minus the
	// mean rate of the first half, in percentage points.
	Trend float64 `json:"trend"`
}

// Day computes the stats for a single date.
func Day(habits []storage.Habit, idx streak.Index, date time.Time) DayStat {
	key := storage.DayKey(date)
	stat := DayStat{Date: key, Weekday: date.Weekday().String()[:3]}
	for _, h := range habits {
		target := h.TargetPerDay
		if target < 1 {
			target = 1
		}
		count := idx.Count(h.ID, key)
		if count < 0 {
			count = 0
		}
		stat.Completed += min(count, target)
		stat.Total += target
	}
	stat.Percentage = percent(stat.Completed, stat.Total)
	return stat
}

// WeekStart returns the Monday on or before t.
func WeekStart(t time.Time) time.Time {
	d := storage.StartOfDay(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// Weekly returns the seven days, Monday first, of the week containing
// weekStart.
func Weekly(habits []storage.Habit, completions []storage.HabitCompletion, weekStart time.Time) []DayStat {
	idx := streak.NewIndex(completions)
	monday := WeekStart(weekStart)
	out := make([]DayStat, 7)
	for i := range out {
		out[i] = Day(habits, idx, monday.AddDate(0, 0, i))
	}
	return out
}

// Period returns stats for the days-long window ending on today.
func Period(habits []storage.Habit, completions []storage.HabitCompletion, today time.Time, days int) PeriodStats {
	if days < 1 {
		days = 1
	}
	idx := streak.NewIndex(completions)
	first := storage.StartOfDay(today).AddDate(0, 0, -(days - 1))

	ps := PeriodStats{Days: make([]DayStat, days)}
	rateSum := 0
	for i := 0; i < days; i++ {
		d := Day(habits, idx, first.AddDate(0, 0, i))
		ps.Days[i] = d
		ps.TotalCompleted += d.Completed
		ps.TotalPossible += d.Total
		rateSum += d.Percentage
		if d.Perfect() {
			ps.PerfectDays++
		}
	}
	ps.AverageRate = int(math.Round(float64(rateSum) / float64(days)))

	mid := days / 2
	if mid > 0 {
		ps.Trend = meanRate(ps.Days[mid:]) - meanRate(ps.Days[:mid])
	}
	return ps
}

// FocusDay is one day of completed focus time.
type FocusDay struct {
	Date     string `json:"date"`
	Minutes  int    `json:"minutes"`
	Sessions int    `json:"sessions"`
}

// FocusSummary totals completed focus sessions over a window.
type FocusSummary struct {
	TotalMinutes int        `json:"total_minutes"`
	Sessions     int        `json:"sessions"`
	AvgPerDay    int        `json:"avg_per_day"`
	ByDay        []FocusDay `json:"by_day"`
}

// Focus summarises completed sessions started in the days-long window
// ending on today. Abandoned and in-progress sessions are ignored.
func Focus(sessions []storage.FocusSession, today time.Time, days int) FocusSummary {
	if days < 1 {
		days = 1
	}
	first := storage.StartOfDay(today).AddDate(0, 0, -(days - 1))
	summary := FocusSummary{ByDay: make([]FocusDay, days)}
	pos := make(map[string]int, days)
	for i := range summary.ByDay {
		key := storage.DayKey(first.AddDate(0, 0, i))
		summary.ByDay[i].Date = key
		pos[key] = i
	}

	for _, s := range sessions {
		if !s.Completed {
			continue
		}
		i, ok := pos[storage.DayKey(s.StartedAt.In(today.Location()))]
		if !ok {
			continue
		}
		summary.ByDay[i].Minutes += s.DurationMinutes
		summary.ByDay[i].Sessions++
		summary.TotalMinutes += s.DurationMinutes
		summary.Sessions++
	}
	summary.AvgPerDay = int(math.Round(float64(summary.TotalMinutes) / float64(days)))
	return summary
}

// CompletedMinutes sums the planned minutes of completed sessions.
func CompletedMinutes(sessions []storage.FocusSession) int {
	total := 0
	for _, s := range sessions {
		if s.Completed {
			total += s.DurationMinutes
		}
	}
	return total
}

func percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	p := int(math.Round(float64(part) / float64(whole) * 100))
	return max(0, min(100, p))
}

func meanRate(days []DayStat) float64 {
	if len(days) == 0 {
		return 0
	}
	sum := 0
	for _, d := range days {
		sum += d.Percentage
	}
	return float64(sum) / float64(len(days))
}
