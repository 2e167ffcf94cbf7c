// Package ui provides the terminal dashboard for focusflow.
// This file contains tea.Cmd factories wrapping progress service and timer
// calls. They run off the event loop; each returns a message from
// messages.go.
package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"focusflow/internal/notify"
	"focusflow/internal/progress"
	"focusflow/internal/timer"
)

// =============================================================================
// Habit Commands
// =============================================================================

func loadDashboardCmd(ctx context.Context, svc *progress.Service) tea.Cmd {
	return func() tea.Msg {
		dash, err := svc.Dashboard(ctx)
		return dashboardLoadedMsg{dash: dash, err: err}
	}
}

func toggleHabitCmd(ctx context.Context, svc *progress.Service, id string) tea.Cmd {
	return func() tea.Msg {
		res, err := svc.Toggle(ctx, id)
		return habitToggledMsg{result: res, err: err}
	}
}

func addHabitCmd(ctx context.Context, svc *progress.Service, h habitDraft) tea.Cmd {
	return func() tea.Msg {
		habit, eval, err := svc.CreateHabit(ctx, h.habit())
		return habitAddedMsg{habit: habit, eval: eval, err: err}
	}
}

func addTemplateCmd(ctx context.Context, svc *progress.Service, templateID string) tea.Cmd {
	return func() tea.Msg {
		habit, eval, err := svc.CreateFromTemplate(ctx, templateID)
		return habitAddedMsg{habit: habit, eval: eval, err: err}
	}
}

func deleteHabitCmd(ctx context.Context, svc *progress.Service, id string) tea.Cmd {
	return func() tea.Msg {
		habit, err := svc.DeleteHabit(ctx, id)
		return habitDeletedMsg{habit: habit, err: err}
	}
}

func evaluateCmd(ctx context.Context, svc *progress.Service) tea.Cmd {
	return func() tea.Msg {
		eval, err := svc.Evaluate(ctx)
		return evaluatedMsg{eval: eval, err: err}
	}
}

// =============================================================================
// Timer Commands
// =============================================================================

// Machine methods that emit events must not run on the event loop: the
// listener forwards them with Program.Send, which blocks until Update is
// free.

func startTimerCmd(ctx context.Context, m *timer.Machine) tea.Cmd {
	return func() tea.Msg {
		return timerActionMsg{action: "start", err: m.Start(ctx)}
	}
}

func pauseTimerCmd(m *timer.Machine) tea.Cmd {
	return func() tea.Msg {
		return timerActionMsg{action: "pause", err: m.Pause()}
	}
}

func resumeTimerCmd(m *timer.Machine) tea.Cmd {
	return func() tea.Msg {
		return timerActionMsg{action: "resume", err: m.Resume()}
	}
}

func resetTimerCmd(ctx context.Context, m *timer.Machine) tea.Cmd {
	return func() tea.Msg {
		return timerActionMsg{action: "reset", err: m.Reset(ctx)}
	}
}

func skipBreakCmd(m *timer.Machine) tea.Cmd {
	return func() tea.Msg {
		return timerActionMsg{action: "skip", err: m.SkipBreak()}
	}
}

func refreshTodayCmd(ctx context.Context, m *timer.Machine) tea.Cmd {
	return func() tea.Msg {
		minutes, err := m.RefreshToday(ctx)
		return todayFocusMsg{minutes: minutes, err: err}
	}
}

// =============================================================================
// Misc Commands
// =============================================================================

func notifyCmd(n notify.Notifier, note notify.Notification) tea.Cmd {
	if n == nil {
		return nil
	}
	return func() tea.Msg {
		return notifiedMsg{err: n.Notify(note)}
	}
}

// clockMsg refreshes the title bar and expires status lines and toasts.
type clockMsg time.Time

func clockCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return clockMsg(t)
	})
}
