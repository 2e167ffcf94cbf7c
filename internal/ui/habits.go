package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"focusflow/internal/progress"
	"focusflow/internal/storage"
)

type habitsMode int

const (
	habitsList habitsMode = iota
	habitsAdding
	habitsTemplates
)

// Steps of the add form.
const (
	stepTitle = iota
	stepCategory
	stepTarget
)

// habitDraft is the habit being typed into the add form.
type habitDraft struct {
	title    string
	category int
	target   int
}

func (d habitDraft) habit() storage.Habit {
	return storage.Habit{
		Title:        d.title,
		Category:     storage.Categories[d.category],
		TargetPerDay: d.target,
	}
}

// confirmDeleteMsg asks the app to confirm deleting a habit.
type confirmDeleteMsg struct {
	id    string
	title string
}

// HabitsPane lists today's habits and handles logging, adding and
// deleting them.
type HabitsPane struct {
	ctx     context.Context
	svc     *progress.Service
	styles  *Styles
	focused bool
	width   int
	height  int

	rows   []progress.HabitProgress
	cursor int

	mode      habitsMode
	addStep   int
	draft     habitDraft
	input     textinput.Model
	templates []progress.Template
	tplCursor int

	keys      HabitKeyMap
	inputKeys InputKeyMap
}

// NewHabitsPane creates a habits pane backed by svc.
func NewHabitsPane(ctx context.Context, svc *progress.Service, styles *Styles) *HabitsPane {
	ti := textinput.New()
	ti.CharLimit = 60
	ti.Width = 30

	return &HabitsPane{
		ctx:       ctx,
		svc:       svc,
		styles:    styles,
		input:     ti,
		templates: progress.Templates(""),
		keys:      DefaultHabitKeyMap(),
		inputKeys: DefaultInputKeyMap(),
	}
}

// SetSize sets the pane dimensions.
func (p *HabitsPane) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.input.Width = max(10, width-12)
}

// SetFocused sets whether this pane is focused.
func (p *HabitsPane) SetFocused(focused bool) {
	p.focused = focused
}

// IsInputMode reports whether the add form or template picker is open.
func (p *HabitsPane) IsInputMode() bool {
	return p.mode != habitsList
}

// SetRows replaces the habit rows, keeping the cursor in range.
func (p *HabitsPane) SetRows(rows []progress.HabitProgress) {
	p.rows = rows
	if p.cursor >= len(rows) {
		p.cursor = max(0, len(rows)-1)
	}
}

// Selected returns the habit under the cursor.
func (p *HabitsPane) Selected() (progress.HabitProgress, bool) {
	if p.cursor < 0 || p.cursor >= len(p.rows) {
		return progress.HabitProgress{}, false
	}
	return p.rows[p.cursor], true
}

// Update handles key input for the pane. Loaded data arrives through the
// app via SetRows.
func (p *HabitsPane) Update(msg tea.Msg) tea.Cmd {
	switch p.mode {
	case habitsAdding:
		return p.updateAdd(msg)
	case habitsTemplates:
		return p.updateTemplates(msg)
	}

	if !p.focused {
		return nil
	}
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}

	switch {
	case key.Matches(km, p.keys.Down):
		if len(p.rows) > 0 {
			p.cursor = min(p.cursor+1, len(p.rows)-1)
		}

	case key.Matches(km, p.keys.Up):
		if len(p.rows) > 0 {
			p.cursor = max(p.cursor-1, 0)
		}

	case key.Matches(km, p.keys.Toggle):
		if row, ok := p.Selected(); ok {
			return toggleHabitCmd(p.ctx, p.svc, row.Habit.ID)
		}

	case key.Matches(km, p.keys.Add):
		p.mode = habitsAdding
		p.addStep = stepTitle
		p.draft = habitDraft{category: categoryIndex(storage.CategoryPersonal), target: 1}
		p.input.Reset()
		p.input.Placeholder = "Habit name (e.g., Drink water)"
		p.input.CharLimit = 60
		p.input.Focus()
		return textinput.Blink

	case key.Matches(km, p.keys.Template):
		p.mode = habitsTemplates
		p.tplCursor = 0

	case key.Matches(km, p.keys.Delete):
		if row, ok := p.Selected(); ok {
			id, title := row.Habit.ID, row.Habit.Title
			return func() tea.Msg { return confirmDeleteMsg{id: id, title: title} }
		}
	}
	return nil
}

func (p *HabitsPane) updateAdd(msg tea.Msg) tea.Cmd {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(km, p.inputKeys.Cancel):
			p.resetAddMode()
			return nil

		case key.Matches(km, p.inputKeys.Confirm):
			return p.advance()

		case p.addStep == stepCategory && key.Matches(km, p.inputKeys.Next):
			p.draft.category = (p.draft.category + 1) % len(storage.Categories)
			return nil

		case p.addStep == stepCategory && key.Matches(km, p.inputKeys.Prev):
			n := len(storage.Categories)
			p.draft.category = (p.draft.category + n - 1) % n
			return nil
		}
	}
	if p.addStep == stepCategory {
		return nil
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return cmd
}

// advance moves the add form to its next step, creating the habit after
// the last one.
func (p *HabitsPane) advance() tea.Cmd {
	switch p.addStep {
	case stepTitle:
		title := strings.TrimSpace(p.input.Value())
		if title == "" {
			return nil
		}
		p.draft.title = title
		p.addStep = stepCategory
		p.input.Blur()
		return nil

	case stepCategory:
		p.addStep = stepTarget
		p.input.Reset()
		p.input.Placeholder = "Times per day (1)"
		p.input.CharLimit = 3
		p.input.Focus()
		return textinput.Blink

	default:
		raw := strings.TrimSpace(p.input.Value())
		if raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				return nil
			}
			p.draft.target = n
		}
		draft := p.draft
		p.resetAddMode()
		return addHabitCmd(p.ctx, p.svc, draft)
	}
}

func (p *HabitsPane) updateTemplates(msg tea.Msg) tea.Cmd {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	switch {
	case key.Matches(km, p.inputKeys.Cancel):
		p.mode = habitsList
	case key.Matches(km, p.inputKeys.Next), key.Matches(km, p.keys.Down):
		p.tplCursor = min(p.tplCursor+1, len(p.templates)-1)
	case key.Matches(km, p.inputKeys.Prev), key.Matches(km, p.keys.Up):
		p.tplCursor = max(p.tplCursor-1, 0)
	case key.Matches(km, p.inputKeys.Confirm):
		p.mode = habitsList
		if p.tplCursor < len(p.templates) {
			return addTemplateCmd(p.ctx, p.svc, p.templates[p.tplCursor].ID)
		}
	}
	return nil
}

func (p *HabitsPane) resetAddMode() {
	p.mode = habitsList
	p.addStep = stepTitle
	p.draft = habitDraft{}
	p.input.Reset()
	p.input.Blur()
}

func categoryIndex(c storage.Category) int {
	for i, known := range storage.Categories {
		if known == c {
			return i
		}
	}
	return 0
}

// View renders the pane.
func (p *HabitsPane) View() string {
	var b strings.Builder

	b.WriteString(p.styles.PaneTitleStyle.Render("✅ HABITS"))
	b.WriteString("\n")
	b.WriteString(p.muted(strings.Repeat("─", max(10, p.width-4))))
	b.WriteString("\n")

	switch p.mode {
	case habitsTemplates:
		b.WriteString(p.renderTemplates())
	default:
		b.WriteString(p.renderRows())
		if p.mode == habitsAdding {
			b.WriteString("\n")
			b.WriteString(p.renderAddForm())
		}
	}

	style := p.styles.PaneStyle
	if p.focused {
		style = p.styles.PaneFocusedStyle
	}
	return style.Width(p.width).Height(p.height).Render(b.String())
}

func (p *HabitsPane) renderRows() string {
	var b strings.Builder
	if len(p.rows) == 0 {
		b.WriteString("\n")
		b.WriteString(p.muted("  No habits yet."))
		b.WriteString("\n")
		b.WriteString(p.muted("  Press 'a' to add one or 't' for a template."))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString("\n")
	for i, row := range p.rows {
		selected := i == p.cursor && p.focused && p.mode == habitsList
		prefix := "  "
		if selected {
			prefix = "▶ "
		}

		icon := p.styles.HabitPendingIcon
		if row.Done {
			icon = p.styles.HabitDoneIcon
		}
		dot := lipgloss.NewStyle().Foreground(p.styles.HabitColor(row.Habit.Color)).Render("▌")

		title := row.Habit.Title
		if row.Done {
			title = p.styles.HabitDoneStyle.Render(title)
		}
		line := fmt.Sprintf("%s%s %s %s  %s", prefix, icon, dot, title,
			p.styles.HabitCountStyle.Render(fmt.Sprintf("%d/%d", row.Today, row.Habit.TargetPerDay)))
		if row.Streak > 0 {
			line += " " + p.styles.HabitStreakStyle.Render(fmt.Sprintf("🔥%d", row.Streak))
		}
		if selected {
			line = p.styles.SelectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (p *HabitsPane) renderAddForm() string {
	var b strings.Builder
	switch p.addStep {
	case stepTitle:
		b.WriteString("  " + p.styles.InputPromptStyle.Render("Name: ") + p.input.View())
	case stepCategory:
		b.WriteString("  " + p.styles.InputPromptStyle.Render("Name: ") + p.draft.title + "\n")
		b.WriteString("  " + p.styles.InputPromptStyle.Render("Category: ") + "◀ " +
			string(storage.Categories[p.draft.category]) + " ▶")
	default:
		b.WriteString("  " + p.styles.InputPromptStyle.Render("Name: ") + p.draft.title + "\n")
		b.WriteString("  " + p.styles.InputPromptStyle.Render("Category: ") +
			string(storage.Categories[p.draft.category]) + "\n")
		b.WriteString("  " + p.styles.InputPromptStyle.Render("Per day: ") + p.input.View())
	}
	b.WriteString("\n")
	return b.String()
}

func (p *HabitsPane) renderTemplates() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(p.muted("  Pick a template (enter adds, esc closes)"))
	b.WriteString("\n\n")

	// Keep the cursor on screen.
	visible := max(3, p.height-8)
	start := 0
	if p.tplCursor >= visible {
		start = p.tplCursor - visible + 1
	}
	end := min(len(p.templates), start+visible)

	var lastCategory storage.Category
	for i := start; i < end; i++ {
		t := p.templates[i]
		if t.Category != lastCategory {
			b.WriteString("  " + p.styles.StatLabelStyle.Render(strings.ToUpper(string(t.Category))) + "\n")
			lastCategory = t.Category
		}
		line := "    " + t.Title
		if i == p.tplCursor {
			line = p.styles.SelectedStyle.Render("  ▶ " + t.Title)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (p *HabitsPane) muted(s string) string {
	return lipgloss.NewStyle().Foreground(p.styles.ColorTextMuted).Render(s)
}
