package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"focusflow/internal/achievements"
	"focusflow/internal/progress"
)

// barHeight is the number of rows in the weekly chart.
const barHeight = 5

// WeekPane shows this week's completion chart, the overall streak and
// recent achievements.
type WeekPane struct {
	styles  *Styles
	focused bool
	width   int
	height  int

	dash   progress.Dashboard
	badges []achievements.Achievement
}

// NewWeekPane creates an empty week pane.
func NewWeekPane(styles *Styles) *WeekPane {
	return &WeekPane{styles: styles}
}

// SetSize sets the pane dimensions.
func (p *WeekPane) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// SetFocused sets whether this pane is focused.
func (p *WeekPane) SetFocused(focused bool) {
	p.focused = focused
}

// SetData replaces the dashboard and achievement list.
func (p *WeekPane) SetData(d progress.Dashboard, badges []achievements.Achievement) {
	p.dash = d
	p.badges = badges
}

// View renders the pane.
func (p *WeekPane) View() string {
	var b strings.Builder

	b.WriteString(p.styles.PaneTitleStyle.Render("📈 PROGRESS"))
	b.WriteString("\n")
	b.WriteString(p.muted(strings.Repeat("─", max(10, p.width-4))))
	b.WriteString("\n\n")

	b.WriteString("  " + p.styles.StatLabelStyle.Render("Streak: ") +
		p.styles.HabitStreakStyle.Render(fmt.Sprintf("%d %s 🔥", p.dash.OverallStreak, plural(p.dash.OverallStreak, "day", "days"))))
	b.WriteString("\n")
	b.WriteString("  " + p.styles.StatLabelStyle.Render("Today:  ") +
		p.styles.StatValueStyle.Render(fmt.Sprintf("%d/%d habits", p.dash.CompletedToday, len(p.dash.Habits))))
	b.WriteString("\n\n")

	b.WriteString(p.renderChart())
	b.WriteString("\n")

	b.WriteString("  " + p.styles.StatLabelStyle.Render(
		fmt.Sprintf("Achievements %d/%d", p.dash.Unlocked, p.dash.Achievements)))
	b.WriteString("\n")
	for _, a := range recentUnlocks(p.badges, 3) {
		b.WriteString(fmt.Sprintf("  %s %s\n", a.Icon, a.Title))
	}
	if next, ok := nextBadge(p.badges, p.dash); ok {
		cur, target := achievements.Progress(next.Definition, p.dash.Snapshot)
		b.WriteString(p.muted(fmt.Sprintf("  Next: %s %s (%d/%d)", next.Icon, next.Title, cur, target)))
		b.WriteString("\n")
	}

	style := p.styles.PaneStyle
	if p.focused {
		style = p.styles.PaneFocusedStyle
	}
	return style.Width(p.width).Height(p.height).Render(b.String())
}

// renderChart draws one column per weekday, Monday first.
func (p *WeekPane) renderChart() string {
	if len(p.dash.Week) == 0 {
		return p.muted("  No data this week.") + "\n"
	}

	var b strings.Builder
	for row := barHeight; row >= 1; row-- {
		b.WriteString("  ")
		for _, day := range p.dash.Week {
			filled := (day.Percentage*barHeight + 99) / 100
			cell := p.styles.BarEmptyStyle.Render("░░")
			if filled >= row {
				cell = p.styles.BarFilledStyle.Render("██")
			}
			b.WriteString(cell + " ")
		}
		b.WriteString("\n")
	}
	b.WriteString("  ")
	for _, day := range p.dash.Week {
		label := day.Weekday
		if len(label) > 2 {
			label = label[:2]
		}
		style := p.styles.StatLabelStyle
		if day.Date == p.dash.Date {
			style = p.styles.StatValueStyle
		}
		b.WriteString(style.Render(fmt.Sprintf("%-2s", label)) + " ")
	}
	b.WriteString("\n")
	return b.String()
}

// recentUnlocks returns up to n unlocked badges, newest first.
func recentUnlocks(all []achievements.Achievement, n int) []achievements.Achievement {
	var out []achievements.Achievement
	for _, a := range all {
		if a.Unlocked {
			out = append(out, a)
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].UnlockedAt.After(out[j-1].UnlockedAt); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// nextBadge picks the locked badge closest to unlocking.
func nextBadge(all []achievements.Achievement, d progress.Dashboard) (achievements.Achievement, bool) {
	var best achievements.Achievement
	bestShare := -1.0
	for _, a := range all {
		if a.Unlocked {
			continue
		}
		cur, target := achievements.Progress(a.Definition, d.Snapshot)
		if target <= 0 {
			continue
		}
		share := float64(cur) / float64(target)
		if share > bestShare {
			best, bestShare = a, share
		}
	}
	return best, bestShare >= 0
}

func (p *WeekPane) muted(s string) string {
	return lipgloss.NewStyle().Foreground(p.styles.ColorTextMuted).Render(s)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
