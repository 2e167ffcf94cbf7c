package ui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focusflow/internal/achievements"
	"focusflow/internal/progress"
	"focusflow/internal/stats"
)

func badge(id string, unlocked bool, at time.Time) achievements.Achievement {
	d, _ := achievements.Lookup(id)
	return achievements.Achievement{Definition: d, Unlocked: unlocked, UnlockedAt: at}
}

func TestRecentUnlocksNewestFirst(t *testing.T) {
	all := []achievements.Achievement{
		badge("streak_3", true, testNow.Add(-3*time.Hour)),
		badge("streak_7", false, time.Time{}),
		badge("first_habit", true, testNow.Add(-time.Hour)),
		badge("complete_10", true, testNow.Add(-2*time.Hour)),
	}

	got := recentUnlocks(all, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "first_habit", got[0].ID)
	assert.Equal(t, "complete_10", got[1].ID)
}

func TestNextBadgePicksClosest(t *testing.T) {
	all := []achievements.Achievement{
		badge("streak_3", true, testNow),
		badge("streak_7", false, time.Time{}),
		badge("focus_60", false, time.Time{}),
	}
	d := progress.Dashboard{Snapshot: achievements.Snapshot{OverallStreak: 3, TotalFocusMinutes: 50}}

	next, ok := nextBadge(all, d)
	require.True(t, ok)
	assert.Equal(t, "focus_60", next.ID)

	_, ok = nextBadge([]achievements.Achievement{badge("streak_3", true, testNow)}, d)
	assert.False(t, ok)
}

func TestWeekPaneView(t *testing.T) {
	setupTest(t)
	p := NewWeekPane(createTestStyles())
	p.SetSize(40, 24)

	assert.Contains(t, p.View(), "No data this week.")

	week := make([]stats.DayStat, 7)
	for i, wd := range []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"} {
		week[i] = stats.DayStat{Weekday: wd, Total: 2}
	}
	week[0].Completed, week[0].Percentage = 2, 100
	p.SetData(progress.Dashboard{
		Date:          "2025-09-03",
		OverallStreak: 4,
		Week:          week,
		Unlocked:      1,
		Achievements:  19,
	}, []achievements.Achievement{badge("streak_3", true, testNow)})

	view := p.View()
	assert.Contains(t, view, "4 days")
	assert.Contains(t, view, "Mo Tu We Th Fr Sa Su")
	assert.Contains(t, view, "██ ░░")
	assert.Contains(t, view, "Achievements 1/19")
	assert.Contains(t, view, "Getting Started")
}

func TestNextBreakChoiceCycles(t *testing.T) {
	assert.Equal(t, 10, nextBreakChoice(5))
	assert.Equal(t, 5, nextBreakChoice(20))
	assert.Equal(t, 5, nextBreakChoice(7))
}

func TestFormatMinutes(t *testing.T) {
	assert.Equal(t, "25m", formatMinutes(25))
	assert.Equal(t, "1h 05m", formatMinutes(65))
}
