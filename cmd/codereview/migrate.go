package main

import (
	"context"
	"fmt"
	"io"

	"github.com/fwojciec/codereview/postgres"
	"github.com/spf13/cobra"
)

// Migrator applies the storage schema.
type Migrator interface {
	Migrate(ctx context.Context) error
}

// MigrateApp applies the schema and reports the outcome.
type MigrateApp struct {
	Migrator Migrator
	Out      io.Writer
}

// Run applies the schema. It is safe to run repeatedly.
func (a *MigrateApp) Run(ctx context.Context) error {
	if err := a.Migrator.Migrate(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.Out, "Schema is up to date.")
	return nil
}

func newMigrateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:         "migrate",
		Short:       "Create the analysis tables",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{consoleLogAnnotation: ""},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := c.cfg.ValidateDatabase(); err != nil {
				return err
			}
			pool, err := postgres.Open(ctx, c.cfg.Database.URL)
			if err != nil {
				return err
			}
			defer pool.Close()
			app := &MigrateApp{Migrator: postgres.New(pool, c.logger), Out: c.stdout}
			return app.Run(ctx)
		},
	}
}
