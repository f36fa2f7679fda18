package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"navboard/internal/config"
	"navboard/internal/database"
)

var configPath = flag.String("config", "", "path to navboard.yaml (defaults to $NAVBOARD_CONFIG or ./navboard.yaml)")

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(&snapshotCmd{}, "")
	commander.Register(&historyCmd{}, "")
	commander.Register(&seedCmd{}, "")
	commander.Register(&migrateCmd{}, "")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

// env is what every subcommand needs to talk to the database.
type env struct {
	cfg  config.Config
	log  *logrus.Logger
	db   *sqlx.DB
	repo *database.Repo
}

func open(ctx context.Context) (*env, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, err
	}
	log := cfg.NewLogger()
	// keep the terminal for the report
	if log.GetLevel() > logrus.WarnLevel {
		log.SetLevel(logrus.WarnLevel)
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("db connect failed: %w", err)
	}
	return &env{cfg: cfg, log: log, db: db, repo: database.New(db, log)}, nil
}

func (e *env) Close() error {
	return e.db.Close()
}

// printMarkdown renders md for the terminal, or prints it raw when
// rendering fails.
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(160))
	if err == nil {
		if out, err := r.Render(md); err == nil {
			fmt.Print(out)
			return
		}
	}
	fmt.Print(md)
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}
