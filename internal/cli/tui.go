package cli

import (
	"fmt"

	"focusflow/internal/timer"
	"focusflow/internal/ui"
)

type TuiCmd struct {
	NoConfirm bool `help:"Delete habits without asking."`
}

func (c *TuiCmd) Run(ctx *Context) error {
	return runDashboard(ctx, ui.PaneHabits, ctx.timerConfig(), !c.NoConfirm)
}

type TimerCmd struct {
	Minutes int  `short:"m" help:"Focus length in minutes (default from config)."`
	Break   int  `short:"b" help:"Break length in minutes; 0 uses the config value."`
	NoBreak bool `help:"Skip the break after the session."`
}

func (c *TimerCmd) Run(ctx *Context) error {
	tcfg := ctx.timerConfig()
	if c.Minutes < 0 || c.Minutes > 240 {
		return fmt.Errorf("--minutes must be between 1 and 240, got %d", c.Minutes)
	}
	if c.Minutes > 0 {
		tcfg.FocusMinutes = c.Minutes
	}
	if c.Break < 0 || c.Break > 60 {
		return fmt.Errorf("--break must be between 1 and 60, got %d", c.Break)
	}
	if c.Break > 0 {
		tcfg.BreakMinutes = c.Break
		tcfg.BreakEnabled = true
	}
	if c.NoBreak {
		tcfg.BreakEnabled = false
	}
	return runDashboard(ctx, ui.PaneTimer, tcfg, true)
}

func (c *Context) timerConfig() timer.Config {
	return timer.Config{
		UserID:       c.Config.UserID,
		FocusMinutes: c.Config.Timer.FocusMinutes,
		BreakMinutes: c.Config.Timer.BreakMinutes,
		BreakEnabled: c.Config.Timer.BreakEnabled,
	}
}

func runDashboard(ctx *Context, pane ui.PaneID, tcfg timer.Config, confirmDeletes bool) error {
	svc, err := ctx.Service()
	if err != nil {
		return err
	}
	repo, err := ctx.Repository()
	if err != nil {
		return err
	}

	cfg := ui.DefaultAppConfig()
	cfg.StartPane = pane
	cfg.ConfirmDeletions = confirmDeletes
	cfg.Notifier = ctx.notifier()

	return ui.Run(ctx.context(), svc, repo, tcfg, ui.NewStyles(ctx.Config), cfg,
		timer.WithLogger(ctx.logger()),
		timer.WithClock(ctx.now))
}
