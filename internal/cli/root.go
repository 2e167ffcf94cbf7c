// Package cli holds the focusflow commands. Each command is a kong node whose
// Run method receives the shared *Context.
package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"focusflow/internal/achievements"
	"focusflow/internal/config"
	"focusflow/internal/fsutil"
	"focusflow/internal/localstate"
	"focusflow/internal/notify"
	"focusflow/internal/progress"
	"focusflow/internal/reminder"
	"focusflow/internal/storage"
)

// Context is passed to every command. Repo and the services are opened on
// first use so commands that never touch the store (backup, restore) leave
// the database closed.
type Context struct {
	Ctx     context.Context
	Config  *config.Config
	Logger  *log.Logger
	Version string

	Out io.Writer
	In  io.Reader
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
	// Notifier overrides the desktop notifier built from Config.
	Notifier notify.Notifier
	// Repo overrides the store selected by Config.Storage.
	Repo storage.Repository

	svc     *progress.Service
	closers []io.Closer
}

func (c *Context) context() context.Context {
	if c.Ctx == nil {
		return context.Background()
	}
	return c.Ctx
}

func (c *Context) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

func (c *Context) logger() *log.Logger {
	if c.Logger == nil {
		c.Logger = log.New(io.Discard)
	}
	return c.Logger
}

func (c *Context) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

func (c *Context) in() io.Reader {
	if c.In == nil {
		return os.Stdin
	}
	return c.In
}

func (c *Context) printf(format string, args ...any) {
	fmt.Fprintf(c.out(), format, args...)
}

func (c *Context) println(args ...any) {
	fmt.Fprintln(c.out(), args...)
}

func (c *Context) dataDir() string {
	return c.Config.GetDataDir()
}

// Repository opens the configured store once.
func (c *Context) Repository() (storage.Repository, error) {
	if c.Repo != nil {
		return c.Repo, nil
	}
	switch c.Config.Storage.Driver {
	case config.DriverSQLite:
		path := c.Config.SQLitePath()
		if err := os.MkdirAll(filepath.Dir(path), fsutil.DirPerm); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		s, err := storage.OpenSQLiteStore(c.context(), path)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, s)
		c.Repo = s
	default:
		s, err := storage.NewFileStore(c.dataDir(), storage.WithFileLogger(c.logger()))
		if err != nil {
			return nil, err
		}
		c.Repo = s
	}
	if c.Now != nil {
		if s, ok := c.Repo.(interface{ SetNowFunc(func() time.Time) }); ok {
			s.SetNowFunc(c.Now)
		}
	}
	c.logger().Debug("store opened", "driver", c.Config.Storage.Driver)
	return c.Repo, nil
}

// Service returns the progress service for the configured user.
func (c *Context) Service() (*progress.Service, error) {
	if c.svc != nil {
		return c.svc, nil
	}
	repo, err := c.Repository()
	if err != nil {
		return nil, err
	}
	ach := achievements.NewEngine(
		achievements.NewFileStore(filepath.Join(c.dataDir(), localstate.AchievementsFile)),
		achievements.WithLogger(c.logger()),
		achievements.WithClock(c.now))
	c.svc = progress.NewService(repo, ach, c.Config.UserID,
		progress.WithLogger(c.logger()),
		progress.WithClock(c.now))
	return c.svc, nil
}

// notifier applies the notification settings to the platform notifier.
func (c *Context) notifier() notify.Notifier {
	n := c.Notifier
	if n == nil {
		n = notify.New()
	}
	return notify.WithSettings(n, notify.Settings{
		Enabled: c.Config.Notifications.Enabled,
		Sound:   c.Config.Notifications.Sound,
	})
}

func (c *Context) reminders() *reminder.Service {
	return reminder.NewService(c.dataDir(), c.notifier(),
		reminder.WithLogger(c.logger()),
		reminder.WithClock(c.now))
}

// Close releases whatever the commands opened.
func (c *Context) Close() error {
	var errs []error
	for _, cl := range c.closers {
		errs = append(errs, cl.Close())
	}
	c.closers = nil
	return errors.Join(errs...)
}

// announce prints the achievement a mutating command unlocked. When several
// unlock at once only the last one in catalog order is announced; the rest
// show up in 'focusflow achievements'.
func (c *Context) announce(ev achievements.Evaluation) {
	if ev.Notify == nil {
		return
	}
	c.printf("🏆 Achievement unlocked: %s %s\n", ev.Notify.Icon, ev.Notify.Title)
}

func (c *Context) writeJSON(v any) error {
	enc := json.NewEncoder(c.out())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// confirm asks a yes/no question on In. Anything but y/yes is no.
func (c *Context) confirm(question string) (bool, error) {
	c.printf("%s [y/N]: ", question)
	answer, err := bufio.NewReader(c.in()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}

func parseDate(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return now, nil
	}
	d, err := storage.ParseDay(s, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return d, nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func formatMinutes(m int) string {
	if m < 60 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %02dm", m/60, m%60)
}
