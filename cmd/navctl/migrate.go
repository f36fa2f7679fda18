package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"navboard/internal/database"
)

type migrateCmd struct {
	dir  string
	down bool
}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "apply the schema migrations" }
func (*migrateCmd) Usage() string {
	return `navctl migrate [-dir migrations] [-down]

  Applies every pending NNNN_name.up.sql file in dir, or rolls every applied
  migration back with -down. The applied version is tracked in the
  schema_migrations table, so running it twice is a no-op.
`
}

func (c *migrateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dir, "dir", "migrations", "directory holding the .sql files")
	f.BoolVar(&c.down, "down", false, "roll back instead of applying")
}

func (c *migrateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := open(ctx)
	if err != nil {
		return fail(err)
	}
	defer e.Close()

	version, err := database.Migrate(e.db, c.dir, c.down)
	if err != nil {
		return fail(err)
	}
	fmt.Printf("schema at version %d\n", version)
	return subcommands.ExitSuccess
}
