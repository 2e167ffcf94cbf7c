package cli

import (
	"fmt"

	"focusflow/internal/fsutil"
	"focusflow/internal/reports"
)

type ReportCmd struct {
	Weekly bool   `short:"w" help:"Report the Monday-Sunday week containing DATE."`
	Format string `short:"f" enum:"markdown,json" default:"markdown" help:"Output format (${enum})."`
	Output string `short:"o" type:"path" help:"Write to FILE instead of stdout."`
	Date   string `arg:"" optional:"" help:"Day to report on (YYYY-MM-DD). Defaults to today."`
}

func (c *ReportCmd) Run(ctx *Context) error {
	date, err := parseDate(c.Date, ctx.now())
	if err != nil {
		return err
	}
	repo, err := ctx.Repository()
	if err != nil {
		return err
	}
	svc, err := ctx.Service()
	if err != nil {
		return err
	}
	gen := reports.NewGenerator(repo, ctx.Config.UserID,
		reports.WithAchievements(svc.Achievements()),
		reports.WithClock(ctx.now))

	var out []byte
	if c.Weekly {
		r, err := gen.GenerateWeekly(ctx.context(), date)
		if err != nil {
			return fmt.Errorf("generate weekly report: %w", err)
		}
		out, err = render(c.Format, r, reports.FormatWeeklyJSON, reports.FormatWeeklyMarkdown)
		if err != nil {
			return err
		}
	} else {
		r, err := gen.GenerateDaily(ctx.context(), date)
		if err != nil {
			return fmt.Errorf("generate daily report: %w", err)
		}
		out, err = render(c.Format, r, reports.FormatDailyJSON, reports.FormatDailyMarkdown)
		if err != nil {
			return err
		}
	}

	if c.Output == "" {
		_, err := ctx.out().Write(out)
		return err
	}
	if err := fsutil.WriteFileAtomic(c.Output, out, fsutil.FilePerm); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	ctx.printf("✓ Report written to %s\n", c.Output)
	return nil
}

func render[R any](format string, r R, asJSON func(R) ([]byte, error), asMarkdown func(R) string) ([]byte, error) {
	if format == "json" {
		data, err := asJSON(r)
		if err != nil {
			return nil, fmt.Errorf("encode report: %w", err)
		}
		return append(data, '\n'), nil
	}
	return []byte(asMarkdown(r)), nil
}
