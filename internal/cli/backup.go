package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"focusflow/internal/backup"
)

type BackupCmd struct {
	List  bool `short:"l" help:"List available backups instead of creating one."`
	Prune int  `help:"After creating, keep only the N newest backups (0 keeps all)."`
}

func (c *Context) backups() *backup.Manager {
	return backup.NewManager(c.dataDir(), c.Version,
		backup.WithLogger(c.logger()),
		backup.WithClock(c.now))
}

func (c *BackupCmd) Run(ctx *Context) error {
	mgr := ctx.backups()
	if c.List {
		return listBackups(ctx, mgr)
	}

	name, err := mgr.Create()
	if err != nil {
		return fmt.Errorf("create backup: %w", err)
	}
	info, err := mgr.Get(name)
	if err != nil {
		return err
	}
	ctx.printf("✓ Backup created: %s\n", name)
	ctx.printf("  %s\n", formatStats(info.Stats))
	ctx.printf("  Location: %s\n", info.Path)

	if c.Prune > 0 {
		n, err := mgr.Prune(c.Prune)
		if err != nil {
			return fmt.Errorf("prune backups: %w", err)
		}
		if n > 0 {
			ctx.printf("  Removed %d old %s\n", n, plural(n, "backup", "backups"))
		}
	}
	return nil
}

func listBackups(ctx *Context, mgr *backup.Manager) error {
	list, err := mgr.List()
	if err != nil {
		return err
	}
	if len(list) == 0 {
		ctx.println("No backups available.")
		ctx.println("Run 'focusflow backup' to create one.")
		return nil
	}
	ctx.println("Available backups:")
	for _, b := range list {
		ctx.printf("  %s  (%s)  %s\n", b.Name, formatAge(ctx.now().Sub(b.CreatedAt)), formatStats(b.Stats))
	}
	return nil
}

type RestoreCmd struct {
	Name   string `arg:"" optional:"" help:"Backup name (see 'backup --list')."`
	Latest bool   `help:"Restore the most recent backup."`
	Force  bool   `short:"f" help:"Skip the confirmation prompt."`
}

func (c *RestoreCmd) Run(ctx *Context) error {
	mgr := ctx.backups()

	name := c.Name
	switch {
	case c.Latest && name != "":
		return fmt.Errorf("give a backup name or --latest, not both")
	case c.Latest:
		list, err := mgr.List()
		if err != nil {
			return err
		}
		if len(list) == 0 {
			return backup.ErrNoBackups
		}
		name = list[0].Name
	case name == "":
		return fmt.Errorf("a backup name or --latest is required")
	}

	info, err := mgr.Get(name)
	if err != nil {
		return err
	}
	ctx.printf("Restoring from backup: %s\n", info.Name)
	ctx.printf("  Created: %s\n", info.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	ctx.printf("  %s\n\n", formatStats(info.Stats))

	if !c.Force {
		ok, err := ctx.confirm("⚠ This will overwrite your current data. Continue?")
		if err != nil {
			return err
		}
		if !ok {
			ctx.println("Restore cancelled.")
			return nil
		}
	}

	// The database must not be open while its file is replaced.
	if err := ctx.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	safety, err := mgr.Restore(name)
	if err != nil {
		return err
	}
	ctx.printf("✓ Safety backup: %s\n", safety)
	ctx.printf("✓ Restored successfully from %s\n", name)
	return nil
}

var statOrder = []string{"habits", "completions", "sessions", "achievements"}

func formatStats(stats map[string]int) string {
	if len(stats) == 0 {
		return "no JSON data files"
	}
	keys := make([]string, 0, len(stats))
	seen := map[string]bool{}
	for _, k := range statOrder {
		if _, ok := stats[k]; ok {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	var rest []string
	for k := range stats {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	keys = append(keys, rest...)

	parts := make([]string, len(keys))
	for i, k := range keys {
		label := strings.ToUpper(k[:1]) + k[1:]
		parts[i] = fmt.Sprintf("%s: %d", label, stats[k])
	}
	return strings.Join(parts, ", ")
}

func formatAge(d time.Duration) string {
	unit := func(n int, one string) string {
		if n == 1 {
			return "1 " + one + " ago"
		}
		return fmt.Sprintf("%d %ss ago", n, one)
	}
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return unit(int(d.Minutes()), "minute")
	case d < 24*time.Hour:
		return unit(int(d.Hours()), "hour")
	case d < 7*24*time.Hour:
		return unit(int(d.Hours()/24), "day")
	default:
		return unit(int(d.Hours()/24/7), "week")
	}
}
