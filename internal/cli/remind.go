package cli

import (
	"context"
	"errors"
	"time"
)

type RemindStatusCmd struct{}

func (c *RemindStatusCmd) Run(ctx *Context) error {
	r := ctx.reminders()
	p := r.Prefs()
	state := "off"
	if p.Enabled {
		state = "on"
	}
	ctx.printf("Daily reminder: %s at %s\n", state, p.Time)
	if last := r.LastShown(); last != "" {
		ctx.printf("Last sent: %s\n", last)
	}
	if p.Enabled && !ctx.notifier().Available() {
		ctx.println("⚠ Desktop notifications are unavailable or disabled in config.")
	}
	return nil
}

type RemindEnableCmd struct{}

func (c *RemindEnableCmd) Run(ctx *Context) error {
	r := ctx.reminders()
	if err := r.SetEnabled(true); err != nil {
		return err
	}
	ctx.printf("✓ Daily reminder on at %s\n", r.Prefs().Time)
	return nil
}

type RemindDisableCmd struct{}

func (c *RemindDisableCmd) Run(ctx *Context) error {
	if err := ctx.reminders().SetEnabled(false); err != nil {
		return err
	}
	ctx.println("✓ Daily reminder off")
	return nil
}

type RemindSetCmd struct {
	Time string `arg:"" help:"Reminder time as HH:MM (24h)."`
}

func (c *RemindSetCmd) Run(ctx *Context) error {
	r := ctx.reminders()
	if err := r.SetTime(c.Time); err != nil {
		return err
	}
	p := r.Prefs()
	ctx.printf("✓ Reminder time set to %s\n", p.Time)
	if !p.Enabled {
		ctx.println("  Reminders are off; run 'focusflow remind enable' to turn them on.")
	}
	return nil
}

type RemindWatchCmd struct {
	Interval time.Duration `default:"1m" help:"How often to check the clock."`
}

// Run blocks until interrupted, sending the reminder when it is due.
func (c *RemindWatchCmd) Run(ctx *Context) error {
	r := ctx.reminders()
	p := r.Prefs()
	if !p.Enabled {
		ctx.println("Reminders are off; enable them with 'focusflow remind enable'.")
	}
	ctx.printf("Watching for %s reminders (Ctrl+C to stop)...\n", p.Time)
	err := r.Run(ctx.context(), c.Interval)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
