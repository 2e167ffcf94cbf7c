package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// HelpOverlay renders the keyboard shortcut screen.
type HelpOverlay struct {
	width  int
	height int
	styles *Styles
}

// NewHelpOverlay creates a help overlay.
func NewHelpOverlay(styles *Styles) *HelpOverlay {
	return &HelpOverlay{styles: styles}
}

// SetSize sets the overlay dimensions.
func (h *HelpOverlay) SetSize(width, height int) {
	h.width = width
	h.height = height
}

type helpSection struct {
	title string
	rows  [][2]string
}

var helpSections = []helpSection{
	{"Global", [][2]string{
		{"Tab", "Switch pane"},
		{"1 / 2 / 3", "Habits / Focus / Progress"},
		{"Ctrl+R", "Reload"},
		{"?", "Toggle help"},
		{"q", "Quit"},
	}},
	{"Habits", [][2]string{
		{"Space", "Log once for today"},
		{"a", "Add habit"},
		{"t", "Add from template"},
		{"x", "Delete habit"},
		{"j / k", "Navigate"},
	}},
	{"Focus", [][2]string{
		{"Space", "Start / pause / resume"},
		{"r", "Reset session"},
		{"s", "Skip break"},
		{"+ / -", "Focus length ±5 min"},
		{"b", "Cycle break length"},
		{"B", "Breaks on/off"},
	}},
	{"Forms", [][2]string{
		{"Enter", "Next / save"},
		{"Tab", "Next choice"},
		{"Esc", "Cancel"},
	}},
}

// View renders the overlay centered in the terminal.
func (h *HelpOverlay) View() string {
	overlayWidth := 60
	if h.width > 0 {
		overlayWidth = min(60, max(20, h.width-4))
	}

	overlayStyle := boxed(h.styles.ColorPrimary).Padding(1, 2).Width(overlayWidth)
	titleStyle := strong(h.styles.ColorPrimary)
	sectionStyle := strong(h.styles.ColorAccent)
	keyStyle := fg(h.styles.ColorWarning).Width(12)
	descStyle := fg(h.styles.ColorText)
	mutedStyle := fg(h.styles.ColorTextMuted).Italic(true)

	var b strings.Builder
	b.WriteString(titleStyle.Render("📖 focusflow - Keyboard Shortcuts"))
	b.WriteString("\n")

	for _, sec := range helpSections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(sec.title))
		b.WriteString("\n")
		for _, row := range sec.rows {
			b.WriteString(keyStyle.Render(row[0]) + descStyle.Render(row[1]) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("Press ? or Esc to close"))

	return RenderCentered(overlayStyle.Render(b.String()), h.width, h.height)
}

// RenderCentered centers content in the terminal.
func RenderCentered(content string, width, height int) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
