package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"

	"navboard/internal/models"
	"navboard/internal/render"
	"navboard/internal/service"
)

type snapshotCmd struct {
	raw    bool
	record bool
	watch  int
}

func (*snapshotCmd) Name() string     { return "snapshot" }
func (*snapshotCmd) Synopsis() string { return "value the portfolio and display the snapshot" }
func (*snapshotCmd) Usage() string {
	return `navctl snapshot [-raw] [-record] [-w n]

  Reads positions, quotes and account metrics from the database, values the
  portfolio and prints the summary and composition tables.
`
}

func (c *snapshotCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.raw, "raw", false, "print markdown without terminal styling")
	f.BoolVar(&c.record, "record", false, "append the snapshot to the history")
	f.IntVar(&c.watch, "w", 0, "run every n seconds")
}

func (c *snapshotCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := open(ctx)
	if err != nil {
		return fail(err)
	}
	defer e.Close()

	v := service.NewValuator(service.Feeds{Positions: e.repo, Quotes: e.repo, Metrics: e.repo}, e.repo, nil, e.log)
	for {
		if err := c.once(ctx, v, e.cfg.Currency); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			if c.watch == 0 {
				return subcommands.ExitFailure
			}
		}
		if c.watch <= 0 {
			return subcommands.ExitSuccess
		}
		time.Sleep(time.Duration(c.watch) * time.Second)
	}
}

func (c *snapshotCmd) once(ctx context.Context, v *service.Valuator, currency string) error {
	snap := v.Snapshot
	if c.record {
		snap = func(ctx context.Context) (s models.PortfolioSnapshot, err error) {
			s, _, err = v.Record(ctx)
			return s, err
		}
	}
	s, err := snap(ctx)
	if err != nil {
		return err
	}
	md := render.Markdown(s, currency)
	if c.watch > 0 {
		fmt.Println("\033[2J")
	}
	if c.raw {
		fmt.Print(md)
		return nil
	}
	printMarkdown(md)
	return nil
}

type historyCmd struct {
	limit int
	raw   bool
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "display recorded snapshots" }
func (*historyCmd) Usage() string {
	return `navctl history [-n limit] [-raw]

  Prints the most recent recorded snapshots, oldest first.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.limit, "n", 30, "number of snapshots to show")
	f.BoolVar(&c.raw, "raw", false, "print markdown without terminal styling")
}

func (c *historyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.limit <= 0 {
		fmt.Fprintln(os.Stderr, "Error: -n must be positive")
		return subcommands.ExitUsageError
	}
	e, err := open(ctx)
	if err != nil {
		return fail(err)
	}
	defer e.Close()

	points, err := e.repo.GetHistory(ctx, c.limit)
	if err != nil {
		return fail(err)
	}
	md := render.HistoryMarkdown(points, e.cfg.Currency)
	if c.raw {
		fmt.Print(md)
	} else {
		printMarkdown(md)
	}
	return subcommands.ExitSuccess
}
