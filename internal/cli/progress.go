package cli

import (
	"fmt"
	"strings"

	"focusflow/internal/achievements"
)

type StreakCmd struct {
	JSON bool `help:"Print JSON."`
}

func (c *StreakCmd) Run(ctx *Context) error {
	svc, err := ctx.Service()
	if err != nil {
		return err
	}
	overall, perHabit, err := svc.Streaks(ctx.context())
	if err != nil {
		return err
	}
	if c.JSON {
		return ctx.writeJSON(map[string]any{"overall": overall, "habits": perHabit})
	}

	ctx.printf("🔥 Overall streak: %d %s\n", overall, plural(overall, "day", "days"))
	if len(perHabit) == 0 {
		return nil
	}
	ctx.println()
	for _, hs := range perHabit {
		ctx.printf("  %-30s %3d %s\n", truncate(hs.Habit.Title, 30), hs.Streak, plural(hs.Streak, "day", "days"))
	}
	return nil
}

type StatsCmd struct {
	Period string `short:"p" enum:"week,month" default:"week" help:"Window: week (7 days) or month (30 days)."`
	JSON   bool   `help:"Print JSON."`
}

func periodDays(p string) int {
	if p == "month" {
		return 30
	}
	return 7
}

func (c *StatsCmd) Run(ctx *Context) error {
	svc, err := ctx.Service()
	if err != nil {
		return err
	}
	ps, err := svc.Period(ctx.context(), periodDays(c.Period))
	if err != nil {
		return err
	}
	if c.JSON {
		return ctx.writeJSON(ps)
	}

	ctx.printf("📈 Last %d days\n\n", len(ps.Days))
	ctx.printf("  Completed:    %d/%d\n", ps.TotalCompleted, ps.TotalPossible)
	ctx.printf("  Average rate: %d%%\n", ps.AverageRate)
	ctx.printf("  Perfect days: %d\n", ps.PerfectDays)
	ctx.printf("  Trend:        %+.0f pts\n\n", ps.Trend)
	for _, d := range ps.Days {
		bar := strings.Repeat("█", d.Percentage/10) + strings.Repeat("░", 10-d.Percentage/10)
		ctx.printf("  %s %s %s %3d%%  %d/%d\n", d.Date, d.Weekday, bar, d.Percentage, d.Completed, d.Total)
	}
	return nil
}

type FocusHistoryCmd struct {
	Period string `short:"p" enum:"week,month" default:"week" help:"Window: week (7 days) or month (30 days)."`
	JSON   bool   `help:"Print JSON."`
}

func (c *FocusHistoryCmd) Run(ctx *Context) error {
	svc, err := ctx.Service()
	if err != nil {
		return err
	}
	fs, err := svc.FocusHistory(ctx.context(), periodDays(c.Period))
	if err != nil {
		return err
	}
	if c.JSON {
		return ctx.writeJSON(fs)
	}

	ctx.printf("⏱  Focus over the last %d days\n\n", len(fs.ByDay))
	ctx.printf("  Total:    %s in %d %s\n", formatMinutes(fs.TotalMinutes), fs.Sessions, plural(fs.Sessions, "session", "sessions"))
	ctx.printf("  Average:  %s/day\n\n", formatMinutes(fs.AvgPerDay))
	for _, d := range fs.ByDay {
		if d.Sessions == 0 {
			continue
		}
		ctx.printf("  %s  %-7s %d %s\n", d.Date, formatMinutes(d.Minutes), d.Sessions, plural(d.Sessions, "session", "sessions"))
	}
	return nil
}

type AchievementsCmd struct {
	JSON bool `help:"Print JSON."`
}

func (c *AchievementsCmd) Run(ctx *Context) error {
	svc, err := ctx.Service()
	if err != nil {
		return err
	}
	// Catch up on anything earned outside the dashboard.
	ev, err := svc.Evaluate(ctx.context())
	if err != nil {
		return err
	}
	snap, err := svc.Snapshot(ctx.context())
	if err != nil {
		return err
	}
	all := svc.Achievements().Achievements()
	if c.JSON {
		return ctx.writeJSON(all)
	}

	ctx.announce(ev)
	ctx.printf("🏆 Achievements %d/%d\n\n", svc.Achievements().UnlockedCount(), len(all))
	for _, a := range all {
		ctx.println(formatAchievement(a, snap))
	}
	return nil
}

func formatAchievement(a achievements.Achievement, snap achievements.Snapshot) string {
	if a.Unlocked {
		return fmt.Sprintf("  ✓ %s %-20s %s (%s)", a.Icon, a.Title, a.Description, a.UnlockedAt.Format("Jan 2, 2006"))
	}
	cur, target := achievements.Progress(a.Definition, snap)
	return fmt.Sprintf("  · %s %-20s %s [%d/%d]", a.Icon, a.Title, a.Description, cur, target)
}
