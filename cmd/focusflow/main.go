// Command focusflow is a terminal habit tracker with a focus timer.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"focusflow/internal/cli"
	"focusflow/internal/config"
	"focusflow/internal/logger"
)

// Set by the release build.
var (
	version = "dev"
	commit  = "none"
)

var CLI struct {
	Version kong.VersionFlag `help:"Show version information."`
	Debug   bool             `help:"Log at debug level and mirror the log to stderr."`

	Tui   cli.TuiCmd `cmd:"" help:"Open the dashboard." default:"1"`
	Habit struct {
		Add       cli.HabitAddCmd       `cmd:"" help:"Add a habit."`
		List      cli.HabitListCmd      `cmd:"" help:"List habits with today's progress." default:"1"`
		Edit      cli.HabitEditCmd      `cmd:"" help:"Change a habit."`
		Delete    cli.HabitDeleteCmd    `cmd:"" help:"Delete a habit and its history."`
		Templates cli.HabitTemplatesCmd `cmd:"" help:"Show suggested habits."`
	} `cmd:"" help:"Manage habits."`
	Toggle cli.ToggleCmd `cmd:"" help:"Log a habit once for today; at the target it wraps to zero."`
	Streak cli.StreakCmd `cmd:"" help:"Show streaks."`
	Stats  cli.StatsCmd  `cmd:"" help:"Show completion statistics."`
	Focus  struct {
		History cli.FocusHistoryCmd `cmd:"" help:"Show completed focus sessions." default:"1"`
	} `cmd:"" help:"Focus session history."`
	Timer        cli.TimerCmd        `cmd:"" help:"Open the dashboard on the focus timer."`
	Achievements cli.AchievementsCmd `cmd:"" help:"Show achievements and progress toward them."`
	Remind       struct {
		Status  cli.RemindStatusCmd  `cmd:"" help:"Show reminder settings." default:"1"`
		Enable  cli.RemindEnableCmd  `cmd:"" help:"Turn the daily reminder on."`
		Disable cli.RemindDisableCmd `cmd:"" help:"Turn the daily reminder off."`
		Set     cli.RemindSetCmd     `cmd:"" help:"Set the reminder time."`
		Watch   cli.RemindWatchCmd   `cmd:"" help:"Run in the foreground and send the reminder when due."`
	} `cmd:"" help:"Daily reminder."`
	Report  cli.ReportCmd  `cmd:"" help:"Generate a daily or weekly report."`
	Backup  cli.BackupCmd  `cmd:"" help:"Back up the data directory."`
	Restore cli.RestoreCmd `cmd:"" help:"Restore the data directory from a backup."`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("focusflow"),
		kong.Description("Habit tracking and focus sessions in your terminal."),
		kong.UsageOnError(),
		kong.Vars{"version": fmt.Sprintf("focusflow %s (%s)", version, commit)},
	)

	if err := run(kctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(kctx *kong.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, closer, err := logger.New(logger.Config{
		DataDir: cfg.GetDataDir(),
		Level:   cfg.Log.Level,
		Debug:   cfg.Log.Debug || CLI.Debug,
	})
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appCtx := &cli.Context{
		Ctx:     ctx,
		Config:  cfg,
		Logger:  log,
		Version: version,
	}
	defer func() {
		if cerr := appCtx.Close(); cerr != nil {
			log.Warn("closing store failed", "err", cerr)
		}
	}()

	log.Debug("running command", "cmd", kctx.Command())
	return kctx.Run(appCtx)
}
