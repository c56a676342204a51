package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/tutorhub/tutorhub/db"
	"github.com/tutorhub/tutorhub/pkg/config"
	"github.com/tutorhub/tutorhub/pkg/pg"
)

func newMigrateCmd(a *app) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Run the Postgres profile directory migrations",
		Long:      "Runs goose against PG_CONN_URL. Migrations are embedded in the binary unless --dir points at a directory on disk.",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{string(pg.MigrateUp), string(pg.MigrateDown), string(pg.MigrateStatus)},
		RunE: func(cmd *cobra.Command, args []string) error {
			command := pg.MigrateUp
			if len(args) == 1 {
				command = pg.MigrateCommand(args[0])
			}
			return a.migrate(cmd.Context(), command, dir)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "read migrations from this directory instead of the embedded set")
	return cmd
}

func (a *app) migrate(ctx context.Context, command pg.MigrateCommand, dir string) error {
	var cfg pg.Config
	if err := config.Load(&cfg); err != nil {
		return err
	}

	var opts []pg.MigrateOption
	if dir != "" {
		cfg.MigrationsPath = dir
	} else {
		cfg.MigrationsPath = db.MigrationsDir
		opts = append(opts, pg.WithMigrationsFS(db.Migrations))
	}

	pool, err := pg.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	return pg.Migrate(ctx, pool, cfg, a.log, command, opts...)
}
