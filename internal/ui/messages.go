// Package ui provides the terminal dashboard for focusflow.
// This file defines the messages returned by the commands in commands.go.
// Storage and timer calls never run inside Update.
package ui

import (
	"focusflow/internal/achievements"
	"focusflow/internal/progress"
	"focusflow/internal/storage"
	"focusflow/internal/timer"
)

// =============================================================================
// Habit Messages
// =============================================================================

// dashboardLoadedMsg carries a fresh dashboard.
type dashboardLoadedMsg struct {
	dash progress.Dashboard
	err  error
}

// habitToggledMsg is sent when a habit was logged for today.
type habitToggledMsg struct {
	result progress.ToggleResult
	err    error
}

// habitAddedMsg is sent when a habit was created.
type habitAddedMsg struct {
	habit storage.Habit
	eval  achievements.Evaluation
	err   error
}

// habitDeletedMsg is sent when a habit was removed.
type habitDeletedMsg struct {
	habit storage.Habit
	err   error
}

// =============================================================================
// Timer Messages
// =============================================================================

// timerEventMsg wraps an event from the focus timer.
type timerEventMsg struct {
	event timer.Event
}

// timerActionMsg is sent when a timer action finished.
type timerActionMsg struct {
	action string
	err    error
}

// todayFocusMsg carries today's focus minutes.
type todayFocusMsg struct {
	minutes int
	err     error
}

// evaluatedMsg is sent after achievements were re-evaluated outside a
// habit operation, e.g. after a focus session completed.
type evaluatedMsg struct {
	eval achievements.Evaluation
	err  error
}

// notifiedMsg is sent after a desktop notification was attempted.
type notifiedMsg struct {
	err error
}
