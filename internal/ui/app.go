// Package ui provides the terminal dashboard for focusflow.
// This file contains the App model, which coordinates the panes and routes
// messages using the Bubble Tea architecture.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"focusflow/internal/achievements"
	"focusflow/internal/completion"
	"focusflow/internal/notify"
	"focusflow/internal/progress"
	"focusflow/internal/timer"
)

// PaneID identifies each pane in the application.
type PaneID int

const (
	PaneHabits PaneID = iota
	PaneTimer
	PaneWeek
)

// LayoutMode determines how panes are arranged based on terminal width.
type LayoutMode int

const (
	// LayoutWide shows all three panes side-by-side.
	LayoutWide LayoutMode = iota
	// LayoutNarrow shows only the focused pane with a tab bar.
	LayoutNarrow
)

const toastTTL = 6 * time.Second

// AppConfig holds user configuration for the app behavior.
type AppConfig struct {
	ConfirmDeletions      bool
	ShowOnboarding        bool
	NarrowLayoutThreshold int
	StartPane             PaneID
	// Notifier receives focus and achievement notifications; nil disables
	// them.
	Notifier notify.Notifier
}

// DefaultAppConfig returns the settings used when none are given.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		ConfirmDeletions:      true,
		ShowOnboarding:        true,
		NarrowLayoutThreshold: 80,
	}
}

// App is the main application model that coordinates all panes.
type App struct {
	ctx     context.Context
	svc     *progress.Service
	machine *timer.Machine
	now     func() time.Time

	styles      *Styles
	config      *AppConfig
	habitsPane  *HabitsPane
	timerPane   *TimerPane
	weekPane    *WeekPane
	helpOverlay *HelpOverlay

	dash        progress.Dashboard
	loaded      bool
	confirmDel  *confirmDeleteState
	toast       *achievements.Achievement
	toastUntil  time.Time
	activePane  PaneID
	layoutMode  LayoutMode
	showHelp    bool
	showWelcome bool
	width       int
	height      int
	status      string
	statusErr   bool
	statusUntil time.Time
	quitting    bool

	keys        GlobalKeyMap
	confirmKeys ConfirmKeyMap
}

type confirmDeleteState struct {
	title string
	body  string
	cmd   tea.Cmd
}

// NewApp creates the dashboard. Data loading is deferred to Init.
func NewApp(ctx context.Context, svc *progress.Service, m *timer.Machine, styles *Styles, cfg *AppConfig) *App {
	if cfg == nil {
		cfg = DefaultAppConfig()
	}

	app := &App{
		ctx:         ctx,
		svc:         svc,
		machine:     m,
		now:         time.Now,
		styles:      styles,
		config:      cfg,
		habitsPane:  NewHabitsPane(ctx, svc, styles),
		timerPane:   NewTimerPane(ctx, m, styles),
		weekPane:    NewWeekPane(styles),
		helpOverlay: NewHelpOverlay(styles),
		keys:        DefaultGlobalKeyMap(),
		confirmKeys: DefaultConfirmKeyMap(),
	}
	app.setActivePane(cfg.StartPane)
	return app
}

// Init starts the clock and loads the dashboard.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		clockCmd(),
		loadDashboardCmd(a.ctx, a.svc),
		refreshTodayCmd(a.ctx, a.machine),
	)
}

// Update handles all messages and routes them appropriately.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Async results are handled whatever pane is active.
	switch msg := msg.(type) {
	case dashboardLoadedMsg:
		if msg.err != nil {
			a.SetStatus("Load: "+msg.err.Error(), true)
			return a, nil
		}
		a.applyDashboard(msg.dash)
		return a, nil

	case habitToggledMsg:
		if msg.err != nil {
			if errors.Is(msg.err, completion.ErrBusy) {
				a.SetStatus("Still saving, try again", true)
			} else {
				a.SetStatus("Log habit: "+msg.err.Error(), true)
			}
			return a, nil
		}
		a.SetStatus(toggleStatus(msg.result), false)
		return a, tea.Batch(loadDashboardCmd(a.ctx, a.svc), a.announce(msg.result.Evaluation))

	case habitAddedMsg:
		if msg.err != nil {
			a.SetStatus("Add habit: "+msg.err.Error(), true)
			return a, nil
		}
		a.SetStatus("Added "+msg.habit.Title, false)
		return a, tea.Batch(loadDashboardCmd(a.ctx, a.svc), a.announce(msg.eval))

	case habitDeletedMsg:
		if msg.err != nil {
			a.SetStatus("Delete habit: "+msg.err.Error(), true)
			return a, nil
		}
		a.SetStatus("Deleted "+msg.habit.Title, false)
		return a, loadDashboardCmd(a.ctx, a.svc)

	case confirmDeleteMsg:
		cmd := deleteHabitCmd(a.ctx, a.svc, msg.id)
		if !a.config.ConfirmDeletions {
			return a, cmd
		}
		a.confirmDel = &confirmDeleteState{
			title: "Delete habit?",
			body:  truncateText(msg.title, 60) + "\nIts completion history is deleted too.",
			cmd:   cmd,
		}
		return a, nil

	case evaluatedMsg:
		if msg.err != nil {
			a.SetStatus("Achievements: "+msg.err.Error(), true)
			return a, nil
		}
		return a, a.announce(msg.eval)

	case timerEventMsg:
		return a, a.handleTimerEvent(msg.event)

	case timerActionMsg:
		a.timerPane.Observe(a.machine.Snapshot())
		switch {
		case errors.Is(msg.err, timer.ErrSessionNotRecorded):
			a.SetStatus("Timer running, but this session will not be saved", true)
		case errors.Is(msg.err, timer.ErrInvalidTransition):
			// A stale key press; the snapshot above already corrected the pane.
		case msg.err != nil:
			a.SetStatus("Timer: "+msg.err.Error(), true)
		case msg.action == "reset":
			a.SetStatus("Session reset", false)
		}
		return a, nil

	case todayFocusMsg:
		if msg.err != nil {
			a.SetStatus("Focus: "+msg.err.Error(), true)
			return a, nil
		}
		a.timerPane.SetTodayMinutes(msg.minutes)
		return a, nil

	case notifiedMsg:
		// Desktop notifications are best effort.
		return a, nil

	case clockMsg:
		now := time.Time(msg)
		if a.status != "" && !a.statusUntil.IsZero() && now.After(a.statusUntil) {
			a.status = ""
			a.statusErr = false
			a.statusUntil = time.Time{}
		}
		if a.toast != nil && now.After(a.toastUntil) {
			a.toast = nil
		}
		return a, clockCmd()

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.updateLayout()
		return a, nil

	case tea.KeyMsg:
		if cmd, handled := a.handleKey(msg); handled {
			return a, cmd
		}
	}

	if a.showHelp {
		return a, nil
	}
	switch a.activePane {
	case PaneHabits:
		return a, a.habitsPane.Update(msg)
	case PaneTimer:
		return a, a.timerPane.Update(msg)
	}
	return a, nil
}

// handleKey processes overlays and global keys. It reports whether the key
// was consumed.
func (a *App) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if a.showWelcome {
		a.showWelcome = false
		return nil, true
	}

	if a.confirmDel != nil {
		switch {
		case key.Matches(msg, a.confirmKeys.Yes):
			cmd := a.confirmDel.cmd
			a.confirmDel = nil
			return cmd, true
		case key.Matches(msg, a.confirmKeys.No):
			a.confirmDel = nil
			a.SetStatus("Canceled", false)
		}
		return nil, true
	}

	if a.showHelp {
		if key.Matches(msg, a.keys.Help) || msg.String() == "esc" || msg.String() == "q" {
			a.showHelp = false
		}
		return nil, true
	}

	// Typing into a form must not trigger global shortcuts.
	if a.habitsPane.IsInputMode() {
		return nil, false
	}

	switch {
	case key.Matches(msg, a.keys.Quit):
		a.quitting = true
		return tea.Quit, true
	case key.Matches(msg, a.keys.Help):
		a.showHelp = true
	case key.Matches(msg, a.keys.NextPane):
		a.setActivePane((a.activePane + 1) % 3)
	case key.Matches(msg, a.keys.Pane1):
		a.setActivePane(PaneHabits)
	case key.Matches(msg, a.keys.Pane2):
		a.setActivePane(PaneTimer)
	case key.Matches(msg, a.keys.Pane3):
		a.setActivePane(PaneWeek)
	case key.Matches(msg, a.keys.Refresh):
		return tea.Batch(loadDashboardCmd(a.ctx, a.svc), refreshTodayCmd(a.ctx, a.machine)), true
	default:
		return nil, false
	}
	return nil, true
}

func (a *App) handleTimerEvent(e timer.Event) tea.Cmd {
	a.timerPane.Observe(e.Snapshot)

	switch e.Kind {
	case timer.EventFocusCompleted:
		if e.Recorded {
			a.SetStatus(fmt.Sprintf("Focus session complete. %s today", formatMinutes(e.Snapshot.TodayMinutes)), false)
		} else {
			a.SetStatus("Focus session complete, but it was not saved", true)
		}
		body := "Nice work. Time for a break."
		if e.Snapshot.State != timer.StateBreak {
			body = "Nice work."
		}
		return tea.Batch(
			notifyCmd(a.config.Notifier, notify.Notification{Title: "Focus session complete", Body: body, Sound: true}),
			evaluateCmd(a.ctx, a.svc),
			loadDashboardCmd(a.ctx, a.svc),
		)

	case timer.EventBreakCompleted:
		a.SetStatus("Break over", false)
		return notifyCmd(a.config.Notifier, notify.Notification{Title: "Break over", Body: "Ready for another session?", Sound: true})

	case timer.EventWarning:
		// Start failures are reported through timerActionMsg.
		if e.Err != nil && !errors.Is(e.Err, timer.ErrSessionNotRecorded) {
			a.SetStatus("Timer: "+e.Err.Error(), true)
		}
	}
	return nil
}

// announce shows the toast for ev's announced achievement, if any.
func (a *App) announce(ev achievements.Evaluation) tea.Cmd {
	if ev.Notify == nil {
		return nil
	}
	badge := *ev.Notify
	a.toast = &badge
	a.toastUntil = a.now().Add(toastTTL)
	return notifyCmd(a.config.Notifier, notify.Notification{
		Title: "Achievement unlocked",
		Body:  badge.Icon + " " + badge.Title,
	})
}

func (a *App) applyDashboard(d progress.Dashboard) {
	first := !a.loaded
	a.loaded = true
	a.dash = d
	a.habitsPane.SetRows(d.Habits)
	var badges []achievements.Achievement
	if eng := a.svc.Achievements(); eng != nil {
		badges = eng.Achievements()
	}
	a.weekPane.SetData(d, badges)
	if first && a.config.ShowOnboarding && len(d.Habits) == 0 {
		a.showWelcome = true
	}
}

func toggleStatus(r progress.ToggleResult) string {
	switch {
	case r.JustCompleted:
		return fmt.Sprintf("%s done for today", r.Habit.Title)
	case r.Count == 0:
		return fmt.Sprintf("%s cleared for today", r.Habit.Title)
	default:
		return fmt.Sprintf("%s %d/%d", r.Habit.Title, r.Count, r.Target)
	}
}

// setActivePane sets the active pane and updates focus states.
func (a *App) setActivePane(pane PaneID) {
	a.activePane = pane
	a.habitsPane.SetFocused(pane == PaneHabits)
	a.timerPane.SetFocused(pane == PaneTimer)
	a.weekPane.SetFocused(pane == PaneWeek)
}

// updateLayout recalculates pane sizes based on terminal dimensions.
func (a *App) updateLayout() {
	// Title bar, help bar and toast line.
	contentHeight := max(10, a.height-5)
	a.helpOverlay.SetSize(a.width, a.height)
	totalWidth := a.width - 4

	threshold := a.config.NarrowLayoutThreshold
	if threshold <= 0 {
		threshold = 80
	}

	if a.width < threshold {
		a.layoutMode = LayoutNarrow
		h := max(8, contentHeight-1)
		w := max(20, totalWidth)
		a.habitsPane.SetSize(w, h)
		a.timerPane.SetSize(w, h)
		a.weekPane.SetSize(w, h)
		return
	}

	a.layoutMode = LayoutWide
	habitsWidth := (totalWidth * 38) / 100
	timerWidth := (totalWidth * 30) / 100
	weekWidth := totalWidth - habitsWidth - timerWidth - 2
	if totalWidth >= 120 {
		habitsWidth = min(habitsWidth, 55)
		timerWidth = min(timerWidth, 40)
		weekWidth = min(weekWidth, 45)
	}
	a.habitsPane.SetSize(habitsWidth, contentHeight)
	a.timerPane.SetSize(timerWidth, contentHeight)
	a.weekPane.SetSize(weekWidth, contentHeight)
}

// View renders the entire app.
func (a *App) View() string {
	if a.quitting {
		return a.renderGoodbye()
	}
	if a.showWelcome {
		return a.renderWelcome()
	}
	if a.confirmDel != nil {
		return a.renderConfirmDelete()
	}
	if a.showHelp {
		return a.helpOverlay.View()
	}

	var b strings.Builder
	b.WriteString(a.renderTitleBar())
	b.WriteString("\n")
	if a.layoutMode == LayoutNarrow {
		b.WriteString(a.renderNarrowContent())
	} else {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			a.habitsPane.View(), " ", a.timerPane.View(), " ", a.weekPane.View()))
	}
	b.WriteString("\n")
	if a.toast != nil {
		b.WriteString(a.renderToast())
		b.WriteString("\n")
	}
	b.WriteString(a.renderHelpBar())
	return b.String()
}

func (a *App) renderToast() string {
	t := a.toast
	return a.styles.ToastStyle.Render(
		a.styles.ToastTitleStyle.Render("Achievement unlocked! ") + t.Icon + " " + t.Title + " · " + t.Description)
}

func (a *App) renderWelcome() string {
	overlayWidth := 60
	if a.width > 0 {
		overlayWidth = min(60, max(20, a.width-4))
	}

	overlayStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(a.styles.ColorPrimary).
		Padding(1, 2).
		Width(overlayWidth)
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(a.styles.ColorPrimary)
	bodyStyle := lipgloss.NewStyle().Foreground(a.styles.ColorText)
	mutedStyle := lipgloss.NewStyle().Foreground(a.styles.ColorTextMuted).Italic(true)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Welcome to focusflow"))
	b.WriteString("\n\n")
	b.WriteString(bodyStyle.Render("Add a habit with 'a', or pick a template with 't'.\n"))
	b.WriteString(bodyStyle.Render("Space logs it for today. Tab moves to the focus timer.\n"))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("Press any key to continue"))

	return RenderCentered(overlayStyle.Render(b.String()), a.width, a.height)
}

func (a *App) renderConfirmDelete() string {
	overlayWidth := 60
	if a.width > 0 {
		overlayWidth = min(60, max(20, a.width-4))
	}

	overlayStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(a.styles.ColorDanger).
		Padding(1, 2).
		Width(overlayWidth)
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(a.styles.ColorDanger)
	bodyStyle := lipgloss.NewStyle().Foreground(a.styles.ColorText)
	hintStyle := lipgloss.NewStyle().Foreground(a.styles.ColorTextMuted)

	var b strings.Builder
	b.WriteString(titleStyle.Render(a.confirmDel.title))
	b.WriteString("\n\n")
	b.WriteString(bodyStyle.Render(a.confirmDel.body))
	b.WriteString("\n\n")
	b.WriteString(hintStyle.Render("[y/enter] delete    [n/esc] cancel"))

	return RenderCentered(overlayStyle.Render(b.String()), a.width, a.height)
}

func (a *App) renderNarrowContent() string {
	var b strings.Builder
	b.WriteString(a.renderPaneTabs())
	b.WriteString("\n")
	switch a.activePane {
	case PaneHabits:
		b.WriteString(a.habitsPane.View())
	case PaneTimer:
		b.WriteString(a.timerPane.View())
	case PaneWeek:
		b.WriteString(a.weekPane.View())
	}
	return b.String()
}

func (a *App) renderPaneTabs() string {
	tabs := []struct {
		id    PaneID
		label string
	}{
		{PaneHabits, "Habits"},
		{PaneTimer, "Focus"},
		{PaneWeek, "Progress"},
	}

	activeTab := lipgloss.NewStyle().Foreground(a.styles.ColorPrimary).Bold(true)
	inactiveTab := lipgloss.NewStyle().Foreground(a.styles.ColorTextMuted)

	parts := make([]string, 0, len(tabs))
	for _, tab := range tabs {
		if tab.id == a.activePane {
			parts = append(parts, activeTab.Render("["+tab.label+"]"))
		} else {
			parts = append(parts, inactiveTab.Render(" "+tab.label+" "))
		}
	}

	bar := strings.Join(parts, "  ")
	if pad := (a.width - lipgloss.Width(bar)) / 2; pad > 0 {
		bar = strings.Repeat(" ", pad) + bar
	}
	return bar
}

func (a *App) renderGoodbye() string {
	var b strings.Builder
	b.WriteString("\n  See you tomorrow!\n\n")
	if total := len(a.dash.Habits); total > 0 {
		b.WriteString(fmt.Sprintf("     Habits: %d/%d done today\n", a.dash.CompletedToday, total))
	}
	if m := a.timerPane.Snapshot().TodayMinutes; m > 0 {
		b.WriteString(fmt.Sprintf("     Focus:  %s\n", formatMinutes(m)))
	}
	if a.dash.OverallStreak > 0 {
		b.WriteString(fmt.Sprintf("     Streak: %d %s\n", a.dash.OverallStreak, plural(a.dash.OverallStreak, "day", "days")))
	}
	b.WriteString("\n")
	return b.String()
}

func (a *App) renderTitleBar() string {
	title := a.styles.TitleStyle.Render(" focusflow ")

	var items []string
	if total := len(a.dash.Habits); total > 0 {
		items = append(items, fmt.Sprintf("Habits: %d/%d", a.dash.CompletedToday, total))
	}
	if a.dash.OverallStreak > 0 {
		items = append(items, fmt.Sprintf("Streak: %d", a.dash.OverallStreak))
	}
	stats := a.styles.StatLabelStyle.Render(strings.Join(items, "  "))

	var timerStatus string
	snap := a.timerPane.Snapshot()
	switch snap.State {
	case timer.StateRunning:
		timerStatus = a.styles.TimerFocusStyle.Render("▶ " + snap.Remaining.String())
	case timer.StatePaused:
		timerStatus = a.styles.TimerPausedStyle.Render("❚❚ " + snap.Remaining.String())
	case timer.StateBreak:
		timerStatus = a.styles.TimerBreakStyle.Render("☕ " + snap.Remaining.String())
	}

	date := a.styles.DateStyle.Render(a.now().Format("Mon Jan 2 · 15:04"))

	used := lipgloss.Width(title) + lipgloss.Width(stats) + lipgloss.Width(timerStatus) + lipgloss.Width(date)
	spacer := max(2, a.width-used-6)
	left := strings.Repeat(" ", spacer/2)
	right := strings.Repeat(" ", spacer-spacer/2)

	return title + "  " + stats + left + timerStatus + right + date
}

func (a *App) renderHelpBar() string {
	if a.status != "" {
		if a.statusErr {
			return a.styles.ErrorStyle.Render(a.status)
		}
		return a.styles.StatusStyle.Render(a.status)
	}

	if a.habitsPane.IsInputMode() {
		if a.habitsPane.mode == habitsAdding && a.habitsPane.addStep == stepCategory {
			return a.styles.RenderHelp("tab", "category", "enter", "next", "esc", "cancel")
		}
		return a.styles.RenderHelp("enter", "next/save", "esc", "cancel")
	}

	switch a.activePane {
	case PaneHabits:
		return a.styles.RenderHelp("space", "log", "a", "add", "t", "template", "x", "del", "tab", "pane", "?", "help")
	case PaneTimer:
		switch a.timerPane.Snapshot().State {
		case timer.StateRunning:
			return a.styles.RenderHelp("space", "pause", "r", "reset", "tab", "pane", "?", "help")
		case timer.StatePaused:
			return a.styles.RenderHelp("space", "resume", "r", "reset", "tab", "pane", "?", "help")
		case timer.StateBreak:
			return a.styles.RenderHelp("s", "skip break", "tab", "pane", "?", "help")
		}
		return a.styles.RenderHelp("space", "start", "+/-", "length", "b", "break", "tab", "pane", "?", "help")
	}
	return a.styles.RenderHelp("ctrl+r", "reload", "tab", "pane", "?", "help", "q", "quit")
}

// SetStatus sets a status message to display to the user.
func (a *App) SetStatus(msg string, isErr bool) {
	a.status = msg
	a.statusErr = isErr
	ttl := 5 * time.Second
	if isErr {
		ttl = 8 * time.Second
	}
	a.statusUntil = a.now().Add(ttl)
}

func truncateText(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// eventRelay forwards timer events to the running program.
type eventRelay struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

func (r *eventRelay) attach(send func(tea.Msg)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.send = send
}

func (r *eventRelay) forward(e timer.Event) {
	r.mu.Lock()
	send := r.send
	r.mu.Unlock()
	if send != nil {
		send(timerEventMsg{event: e})
	}
}

// Run starts the dashboard. The timer machine is built here so its events
// can be forwarded to the program. A session still running on quit is
// abandoned.
func Run(ctx context.Context, svc *progress.Service, sessions timer.Sessions, tcfg timer.Config, styles *Styles, cfg *AppConfig, opts ...timer.Option) error {
	relay := &eventRelay{}
	opts = append(opts, timer.WithListener(relay.forward))
	machine := timer.New(sessions, tcfg, opts...)
	defer machine.Close()

	app := NewApp(ctx, svc, machine, styles, cfg)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	relay.attach(p.Send)
	_, err := p.Run()
	relay.attach(nil)

	switch machine.Snapshot().State {
	case timer.StateRunning, timer.StatePaused:
		if rerr := machine.Reset(context.WithoutCancel(ctx)); rerr != nil {
			err = errors.Join(err, rerr)
		}
	}
	return err
}
