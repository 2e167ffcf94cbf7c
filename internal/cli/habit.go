package cli

import (
	"fmt"
	"strings"

	"focusflow/internal/achievements"
	"focusflow/internal/progress"
	"focusflow/internal/storage"
)

type HabitAddCmd struct {
	Title       string `arg:"" optional:"" help:"Habit title."`
	Description string `short:"d" help:"Longer description."`
	Category    string `short:"c" enum:"health,work,personal,learning,fitness,mindfulness" default:"personal" help:"Category (${enum})."`
	Target      int    `short:"n" default:"1" help:"Times per day that count as done."`
	Color       string `help:"Hex color, e.g. #10B981."`
	Template    string `short:"t" help:"Create from a template id instead (see 'habit templates')."`
}

func (c *HabitAddCmd) Run(ctx *Context) error {
	svc, err := ctx.Service()
	if err != nil {
		return err
	}

	var (
		created storage.Habit
		ev      achievements.Evaluation
	)
	if c.Template != "" {
		created, ev, err = svc.CreateFromTemplate(ctx.context(), c.Template)
	} else {
		if strings.TrimSpace(c.Title) == "" {
			return fmt.Errorf("a title or --template is required")
		}
		if c.Target < 1 {
			return fmt.Errorf("--target must be at least 1, got %d", c.Target)
		}
		cat, _ := storage.ParseCategory(c.Category)
		created, ev, err = svc.CreateHabit(ctx.context(), storage.Habit{
			Title:        strings.TrimSpace(c.Title),
			Description:  c.Description,
			Color:        c.Color,
			Category:     cat,
			TargetPerDay: c.Target,
		})
	}
	if err != nil {
		return err
	}

	ctx.printf("✓ Added habit: %s (%s, %d/day) [%s]\n",
		created.Title, created.Category, created.TargetPerDay, shortID(created.ID))
	ctx.announce(ev)
	return nil
}

type HabitListCmd struct {
	Category string `short:"c" help:"Only show one category."`
	JSON     bool   `help:"Print JSON."`
}

func (c *HabitListCmd) Run(ctx *Context) error {
	svc, err := ctx.Service()
	if err != nil {
		return err
	}
	dash, err := svc.Dashboard(ctx.context())
	if err != nil {
		return err
	}

	rows := dash.Habits
	if c.Category != "" {
		cat, ok := storage.ParseCategory(c.Category)
		if !ok {
			return fmt.Errorf("unknown category %q", c.Category)
		}
		rows = rows[:0:0]
		for _, r := range dash.Habits {
			if r.Habit.Category == cat {
				rows = append(rows, r)
			}
		}
	}

	if c.JSON {
		return ctx.writeJSON(rows)
	}
	if len(rows) == 0 {
		ctx.println("No habits yet. Add one with 'focusflow habit add TITLE'.")
		return nil
	}

	ctx.printf("Habits for %s (%d/%d done):\n\n", dash.Date, dash.CompletedToday, len(dash.Habits))
	for _, r := range rows {
		mark := "○"
		if r.Done {
			mark = "●"
		}
		line := fmt.Sprintf("  %s %-8s %-30s %d/%d  %-11s", mark, shortID(r.Habit.ID),
			truncate(r.Habit.Title, 30), r.Today, r.Habit.TargetPerDay, r.Habit.Category)
		if r.Streak > 0 {
			line += fmt.Sprintf("  🔥 %d", r.Streak)
		}
		ctx.println(strings.TrimRight(line, " "))
	}
	return nil
}

type HabitEditCmd struct {
	Habit       string  `arg:"" help:"Habit id, id prefix or title."`
	Title       *string `help:"New title."`
	Description *string `short:"d" help:"New description."`
	Category    *string `short:"c" help:"New category."`
	Target      *int    `short:"n" help:"New times per day."`
	Color       *string `help:"New hex color."`
}

func (c *HabitEditCmd) Run(ctx *Context) error {
	patch := progress.HabitPatch{
		Title:        c.Title,
		Description:  c.Description,
		Color:        c.Color,
		TargetPerDay: c.Target,
	}
	if c.Category != nil {
		cat, ok := storage.ParseCategory(*c.Category)
		if !ok {
			return fmt.Errorf("unknown category %q", *c.Category)
		}
		patch.Category = &cat
	}
	if patch == (progress.HabitPatch{}) {
		return fmt.Errorf("nothing to change")
	}

	svc, err := ctx.Service()
	if err != nil {
		return err
	}
	h, err := svc.UpdateHabit(ctx.context(), c.Habit, patch)
	if err != nil {
		return err
	}
	ctx.printf("✓ Updated habit: %s\n", h.Title)
	return nil
}

type HabitDeleteCmd struct {
	Habit string `arg:"" help:"Habit id, id prefix or title."`
	Force bool   `short:"f" help:"Skip the confirmation prompt."`
}

func (c *HabitDeleteCmd) Run(ctx *Context) error {
	svc, err := ctx.Service()
	if err != nil {
		return err
	}
	h, err := svc.FindHabit(ctx.context(), c.Habit)
	if err != nil {
		return err
	}
	if !c.Force {
		ok, err := ctx.confirm(fmt.Sprintf("Delete %q and its history?", h.Title))
		if err != nil {
			return err
		}
		if !ok {
			ctx.println("Cancelled.")
			return nil
		}
	}
	if _, err := svc.DeleteHabit(ctx.context(), h.ID); err != nil {
		return err
	}
	ctx.printf("✓ Deleted habit: %s\n", h.Title)
	return nil
}

type HabitTemplatesCmd struct {
	Category string `arg:"" optional:"" help:"Only show one category."`
}

func (c *HabitTemplatesCmd) Run(ctx *Context) error {
	var cat storage.Category
	if c.Category != "" {
		var ok bool
		if cat, ok = storage.ParseCategory(c.Category); !ok {
			return fmt.Errorf("unknown category %q", c.Category)
		}
	}

	var last storage.Category
	for _, t := range progress.Templates(cat) {
		if t.Category != last {
			if last != "" {
				ctx.println()
			}
			ctx.printf("%s\n", strings.ToUpper(string(t.Category)))
			last = t.Category
		}
		ctx.printf("  %-15s %s - %s\n", t.ID, t.Title, t.Description)
	}
	ctx.println()
	ctx.println("Add one with 'focusflow habit add --template ID'.")
	return nil
}

type ToggleCmd struct {
	Habit string `arg:"" help:"Habit id, id prefix or title."`
}

func (c *ToggleCmd) Run(ctx *Context) error {
	svc, err := ctx.Service()
	if err != nil {
		return err
	}
	res, err := svc.Toggle(ctx.context(), c.Habit)
	if err != nil {
		return err
	}
	switch {
	case res.Count == 0:
		ctx.printf("○ %s cleared for today\n", res.Habit.Title)
	case res.JustCompleted:
		ctx.printf("● %s done for today (%d/%d)\n", res.Habit.Title, res.Count, res.Target)
	default:
		ctx.printf("◐ %s %d/%d\n", res.Habit.Title, res.Count, res.Target)
	}
	ctx.announce(res.Evaluation)
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
