package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestHelpOverlay_ContentStructure(t *testing.T) {
	setupTest(t)

	help := NewHelpOverlay(createTestStyles())
	help.SetSize(100, 50)
	output := help.View()

	for _, section := range []string{"Global", "Habits", "Focus", "Forms"} {
		assert.Contains(t, output, section)
	}
	assert.Contains(t, output, "Skip break")
	assert.Contains(t, output, "Add from template")
	assert.Contains(t, output, "Press ? or Esc to close")
}

func TestHelpOverlay_FitsTerminal(t *testing.T) {
	setupTest(t)

	for _, width := range []int{50, 70, 100} {
		help := NewHelpOverlay(createTestStyles())
		help.SetSize(width, 50)
		for _, line := range strings.Split(help.View(), "\n") {
			assert.LessOrEqual(t, lipgloss.Width(line), width, "width %d", width)
		}
	}
}
