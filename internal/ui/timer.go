package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"focusflow/internal/timer"
)

// focusStep is how much +/- changes the focus length.
const focusStep = 5

// TimerPane shows the focus timer and sends its actions to the machine.
type TimerPane struct {
	ctx     context.Context
	machine *timer.Machine
	styles  *Styles
	focused bool
	width   int
	height  int

	snap timer.Snapshot
	bar  progress.Model
	keys TimerKeyMap
}

// NewTimerPane creates a timer pane for m.
func NewTimerPane(ctx context.Context, m *timer.Machine, styles *Styles) *TimerPane {
	bar := progress.New(
		progress.WithSolidFill(string(styles.ColorPrimary)),
		progress.WithoutPercentage(),
	)
	return &TimerPane{
		ctx:     ctx,
		machine: m,
		styles:  styles,
		snap:    m.Snapshot(),
		bar:     bar,
		keys:    DefaultTimerKeyMap(),
	}
}

// SetSize sets the pane dimensions.
func (p *TimerPane) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.bar.Width = max(10, width-6)
}

// SetFocused sets whether this pane is focused.
func (p *TimerPane) SetFocused(focused bool) {
	p.focused = focused
}

// Snapshot returns the last state the pane rendered.
func (p *TimerPane) Snapshot() timer.Snapshot {
	return p.snap
}

// Observe records a snapshot delivered with a timer event.
func (p *TimerPane) Observe(s timer.Snapshot) {
	p.snap = s
}

// SetTodayMinutes updates today's focus total.
func (p *TimerPane) SetTodayMinutes(minutes int) {
	p.snap.TodayMinutes = minutes
}

// Update handles key input for the pane.
func (p *TimerPane) Update(msg tea.Msg) tea.Cmd {
	if !p.focused {
		return nil
	}
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}

	switch {
	case key.Matches(km, p.keys.Toggle):
		switch p.snap.State {
		case timer.StateIdle:
			return startTimerCmd(p.ctx, p.machine)
		case timer.StateRunning:
			return pauseTimerCmd(p.machine)
		case timer.StatePaused:
			return resumeTimerCmd(p.machine)
		case timer.StateBreak:
			return skipBreakCmd(p.machine)
		}

	case key.Matches(km, p.keys.Reset):
		if p.snap.State != timer.StateIdle {
			return resetTimerCmd(p.ctx, p.machine)
		}

	case key.Matches(km, p.keys.SkipBreak):
		if p.snap.State == timer.StateBreak {
			return skipBreakCmd(p.machine)
		}

	// Setters do not emit events, so they are safe to call here.
	case key.Matches(km, p.keys.Longer):
		p.setDuration(p.snap.FocusMinutes + focusStep)

	case key.Matches(km, p.keys.Shorter):
		p.setDuration(p.snap.FocusMinutes - focusStep)

	case key.Matches(km, p.keys.BreakLength):
		if p.machine.SetBreakDuration(nextBreakChoice(p.snap.BreakMinutes)) {
			p.snap = p.machine.Snapshot()
		}

	case key.Matches(km, p.keys.BreakToggle):
		if p.machine.SetBreakEnabled(!p.snap.BreakEnabled) {
			p.snap = p.machine.Snapshot()
		}
	}
	return nil
}

func (p *TimerPane) setDuration(minutes int) {
	if p.machine.SetDuration(minutes) {
		p.snap = p.machine.Snapshot()
	}
}

// nextBreakChoice cycles through the suggested break lengths.
func nextBreakChoice(current int) int {
	for i, c := range timer.BreakChoices {
		if c == current {
			return timer.BreakChoices[(i+1)%len(timer.BreakChoices)]
		}
	}
	return timer.BreakChoices[0]
}

// View renders the pane.
func (p *TimerPane) View() string {
	var b strings.Builder

	b.WriteString(p.styles.PaneTitleStyle.Render("⏱ FOCUS"))
	b.WriteString("\n")
	b.WriteString(p.muted(strings.Repeat("─", max(10, p.width-4))))
	b.WriteString("\n\n")

	label, style := p.stateLabel()
	b.WriteString("  " + style.Render(label))
	b.WriteString("\n\n")

	clock := lipgloss.NewStyle().Bold(true).Foreground(p.styles.ColorText).Render(p.snap.Remaining.String())
	b.WriteString("  " + clock)
	b.WriteString("\n\n")

	b.WriteString("  " + p.bar.ViewAs(p.snap.Progress()/100))
	b.WriteString("\n\n")

	breaks := "off"
	if p.snap.BreakEnabled {
		breaks = fmt.Sprintf("%d min", p.snap.BreakMinutes)
	}
	b.WriteString("  " + p.styles.StatLabelStyle.Render("Focus: ") +
		p.styles.StatValueStyle.Render(fmt.Sprintf("%d min", p.snap.FocusMinutes)))
	b.WriteString("   " + p.styles.StatLabelStyle.Render("Break: ") + p.styles.StatValueStyle.Render(breaks))
	b.WriteString("\n")
	b.WriteString("  " + p.styles.StatLabelStyle.Render("Today: ") +
		p.styles.StatValueStyle.Render(formatMinutes(p.snap.TodayMinutes)))
	b.WriteString("\n")

	style = p.styles.PaneStyle
	if p.focused {
		style = p.styles.PaneFocusedStyle
	}
	return style.Width(p.width).Height(p.height).Render(b.String())
}

func (p *TimerPane) stateLabel() (string, lipgloss.Style) {
	switch p.snap.State {
	case timer.StateRunning:
		return "● Focusing", p.styles.TimerFocusStyle
	case timer.StatePaused:
		return "❚❚ Paused", p.styles.TimerPausedStyle
	case timer.StateBreak:
		return "☕ Break", p.styles.TimerBreakStyle
	default:
		return "Ready", p.styles.TimerIdleStyle
	}
}

func (p *TimerPane) muted(s string) string {
	return lipgloss.NewStyle().Foreground(p.styles.ColorTextMuted).Render(s)
}

// formatMinutes renders a minute total as "1h 05m" or "25m".
func formatMinutes(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh %02dm", minutes/60, minutes%60)
}
