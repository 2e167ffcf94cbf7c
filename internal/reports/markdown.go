package reports

import (
	"fmt"
	"strings"
)

// FormatDailyMarkdown renders a daily report.
func FormatDailyMarkdown(r *DailyReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Daily Report: %s\n\n", r.Date)

	fmt.Fprintf(&b, "## Habits (%d/%d, %d%%)\n\n", r.Habits.CompletedCount, r.Habits.TotalCount, r.Habits.CompletionRate)
	if len(r.Habits.Habits) == 0 {
		b.WriteString("_No habits yet._\n")
	}
	for _, h := range r.Habits.Habits {
		mark := " "
		if h.Done {
			mark = "x"
		}
		fmt.Fprintf(&b, "- [%s] %s (%d/%d)", mark, h.Title, h.Count, h.Target)
		if h.Streak > 0 {
			fmt.Fprintf(&b, " · %s", plural(h.Streak, "day"))
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nOverall streak: %s\n", plural(r.OverallStreak, "day"))

	b.WriteString("\n## Focus\n\n")
	fmt.Fprintf(&b, "%s in %s\n", formatMinutes(r.Focus.TotalMinutes), plural(r.Focus.Sessions, "session"))

	writeUnlocked(&b, r.Unlocked)
	fmt.Fprintf(&b, "\n---\n_Generated %s_\n", r.GeneratedAt.Format("2006-01-02 15:04"))
	return b.String()
}

// FormatWeeklyMarkdown renders a weekly report.
func FormatWeeklyMarkdown(r *WeeklyReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Weekly Report: %s to %s\n\n", r.StartDate, r.EndDate)

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "- Average completion: %d%%\n", r.AverageRate)
	fmt.Fprintf(&b, "- Perfect days: %d/7\n", r.PerfectDays)
	fmt.Fprintf(&b, "- Trend: %s\n", formatTrend(r.Trend))
	fmt.Fprintf(&b, "- Overall streak: %s\n", plural(r.OverallStreak, "day"))
	fmt.Fprintf(&b, "- Focus: %s in %s (avg %s/day)\n",
		formatMinutes(r.Focus.TotalMinutes), plural(r.Focus.Sessions, "session"), formatMinutes(r.Focus.AvgPerDay))

	b.WriteString("\n## Habits\n\n")
	if len(r.Habits.Habits) == 0 {
		b.WriteString("_No habits yet._\n")
	} else {
		b.WriteString("| Habit | Mon | Tue | Wed | Thu | Fri | Sat | Sun | Rate | Streak |\n")
		b.WriteString("|---|---|---|---|---|---|---|---|---|---|\n")
		for _, h := range r.Habits.Habits {
			fmt.Fprintf(&b, "| %s |", escapeCell(h.Title))
			for _, done := range h.DaysCompleted {
				if done {
					b.WriteString(" ✓ |")
				} else {
					b.WriteString(" · |")
				}
			}
			fmt.Fprintf(&b, " %d%% | %d |\n", h.CompletionRate, h.Streak)
		}
		fmt.Fprintf(&b, "\n%d/%d habit-days completed (%d%%)\n",
			r.Habits.TotalCompleted, r.Habits.TotalExpected, r.Habits.OverallRate)
	}

	b.WriteString("\n## Daily Breakdown\n\n")
	b.WriteString("| Day | Date | Done | Rate | Focus |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for i, d := range r.Days {
		focus := 0
		if i < len(r.Focus.ByDay) {
			focus = r.Focus.ByDay[i].Minutes
		}
		fmt.Fprintf(&b, "| %s | %s | %d/%d | %d%% | %s |\n",
			d.Weekday, d.Date, d.Completed, d.Total, d.Percentage, formatMinutes(focus))
	}

	writeUnlocked(&b, r.Unlocked)
	fmt.Fprintf(&b, "\n---\n_Generated %s_\n", r.GeneratedAt.Format("2006-01-02 15:04"))
	return b.String()
}

func writeUnlocked(b *strings.Builder, unlocked []UnlockedAchievement) {
	if len(unlocked) == 0 {
		return
	}
	b.WriteString("\n## Achievements Unlocked\n\n")
	for _, a := range unlocked {
		fmt.Fprintf(b, "- %s %s\n", a.Icon, a.Title)
	}
}

func formatMinutes(m int) string {
	if m < 60 {
		return fmt.Sprintf("%dm", m)
	}
	if m%60 == 0 {
		return fmt.Sprintf("%dh", m/60)
	}
	return fmt.Sprintf("%dh %dm", m/60, m%60)
}

func formatTrend(t float64) string {
	switch {
	case t > 0:
		return fmt.Sprintf("↑ %.1f points", t)
	case t < 0:
		return fmt.Sprintf("↓ %.1f points", -t)
	default:
		return "steady"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
