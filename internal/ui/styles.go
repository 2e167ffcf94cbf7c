package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"focusflow/internal/config"
)

// Styles holds all application styles, built from the theme configuration.
type Styles struct {
	// Colors
	ColorPrimary   lipgloss.Color
	ColorAccent    lipgloss.Color
	ColorMuted     lipgloss.Color
	ColorWarning   lipgloss.Color
	ColorDanger    lipgloss.Color
	ColorSuccess   lipgloss.Color
	ColorBgLight   lipgloss.Color
	ColorText      lipgloss.Color
	ColorTextMuted lipgloss.Color

	TitleStyle       lipgloss.Style
	DateStyle        lipgloss.Style
	PaneStyle        lipgloss.Style
	PaneFocusedStyle lipgloss.Style
	PaneTitleStyle   lipgloss.Style
	SelectedStyle    lipgloss.Style

	HabitDoneIcon    string
	HabitPendingIcon string
	HabitDoneStyle   lipgloss.Style
	HabitStreakStyle lipgloss.Style
	HabitCountStyle  lipgloss.Style

	TimerFocusStyle  lipgloss.Style
	TimerBreakStyle  lipgloss.Style
	TimerPausedStyle lipgloss.Style
	TimerIdleStyle   lipgloss.Style

	BarFilledStyle lipgloss.Style
	BarEmptyStyle  lipgloss.Style

	ToastStyle      lipgloss.Style
	ToastTitleStyle lipgloss.Style

	HelpStyle    lipgloss.Style
	HelpKeyStyle lipgloss.Style

	StatusStyle lipgloss.Style
	ErrorStyle  lipgloss.Style

	InputPromptStyle lipgloss.Style

	StatLabelStyle lipgloss.Style
	StatValueStyle lipgloss.Style
}

// NewStyles creates styles from the loaded configuration.
func NewStyles(cfg *config.Config) *Styles {
	return NewStylesFromTheme(&cfg.Theme)
}

// NewStylesFromTheme creates styles from a ThemeConfig. Empty colors fall
// back to the built-in palette.
func NewStylesFromTheme(theme *config.ThemeConfig) *Styles {
	s := &Styles{}

	s.ColorPrimary = colorOrDefault(theme.Primary, "#8B5CF6")
	s.ColorAccent = colorOrDefault(theme.Accent, "#10B981")
	s.ColorMuted = colorOrDefault(theme.Muted, "#6B7280")
	s.ColorWarning = colorOrDefault(theme.Warning, "#F59E0B")

	// Fixed semantic colors
	s.ColorDanger = lipgloss.Color("#EF4444")
	s.ColorSuccess = lipgloss.Color("#10B981")
	s.ColorBgLight = lipgloss.Color("#374151")
	s.ColorText = lipgloss.Color("#F9FAFB")
	s.ColorTextMuted = lipgloss.Color("#9CA3AF")

	s.initComponentStyles()
	return s
}

func colorOrDefault(hex, defaultHex string) lipgloss.Color {
	if hex != "" {
		return lipgloss.Color(hex)
	}
	return lipgloss.Color(defaultHex)
}

func fg(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

func strong(c lipgloss.Color) lipgloss.Style {
	return fg(c).Bold(true)
}

func boxed(border lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1)
}

func (s *Styles) initComponentStyles() {
	s.TitleStyle = strong(s.ColorText).Background(s.ColorPrimary).Padding(0, 1)
	s.DateStyle = fg(s.ColorTextMuted)
	s.PaneStyle = boxed(s.ColorMuted)
	s.PaneFocusedStyle = boxed(s.ColorPrimary)
	s.PaneTitleStyle = strong(s.ColorPrimary).MarginBottom(1)
	s.SelectedStyle = strong(s.ColorText).Background(s.ColorBgLight)

	s.HabitDoneIcon = fg(s.ColorSuccess).Render("●")
	s.HabitPendingIcon = fg(s.ColorMuted).Render("○")
	s.HabitDoneStyle = fg(s.ColorTextMuted)
	s.HabitStreakStyle = strong(s.ColorWarning)
	s.HabitCountStyle = fg(s.ColorAccent)

	s.TimerFocusStyle = strong(s.ColorPrimary)
	s.TimerBreakStyle = strong(s.ColorSuccess)
	s.TimerPausedStyle = strong(s.ColorWarning)
	s.TimerIdleStyle = fg(s.ColorText)

	s.BarFilledStyle = fg(s.ColorAccent)
	s.BarEmptyStyle = fg(s.ColorBgLight)

	// Achievement toast
	s.ToastStyle = boxed(s.ColorWarning)
	s.ToastTitleStyle = strong(s.ColorWarning)

	s.HelpStyle = fg(s.ColorTextMuted)
	s.HelpKeyStyle = strong(s.ColorAccent)
	s.StatusStyle = fg(s.ColorSuccess).Italic(true)
	s.ErrorStyle = strong(s.ColorDanger)
	s.InputPromptStyle = strong(s.ColorPrimary)
	s.StatLabelStyle = fg(s.ColorTextMuted)
	s.StatValueStyle = strong(s.ColorText)
}

// RenderHelp renders key/description pairs for the help bar.
func (s *Styles) RenderHelp(keys ...string) string {
	parts := make([]string, 0, len(keys)/2)
	for i := 0; i+1 < len(keys); i += 2 {
		parts = append(parts, s.HelpKeyStyle.Render("["+keys[i]+"]")+" "+s.HelpStyle.Render(keys[i+1]))
	}
	return strings.Join(parts, "  ")
}

// HabitColor returns a habit's own color, or the primary color when unset.
func (s *Styles) HabitColor(hex string) lipgloss.Color {
	return colorOrDefault(hex, string(s.ColorPrimary))
}
