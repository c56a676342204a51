// Package pg opens the PostgreSQL pool used by the profile directory and runs
// goose migrations against it.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	err = pg.Migrate(ctx, pool, cfg, log, pg.MigrateUp, pg.WithMigrationsFS(db.Migrations))
//
// Connect retries with a linearly growing delay (RetryInterval times the
// attempt number). Ping plugs into the readiness endpoint.
package pg
