package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/tutorhub/tutorhub/pkg/logger"
)

// MigrateCommand selects the goose operation run by Migrate.
type MigrateCommand string

const (
	MigrateUp     MigrateCommand = "up"
	MigrateDown   MigrateCommand = "down"
	MigrateStatus MigrateCommand = "status"
)

type migrateOptions struct {
	fsys fs.FS
}

// MigrateOption configures Migrate.
type MigrateOption func(*migrateOptions)

// WithMigrationsFS reads migrations from fsys instead of the local disk.
func WithMigrationsFS(fsys fs.FS) MigrateOption {
	return func(o *migrateOptions) { o.fsys = fsys }
}

// Migrate runs a goose command against the pool. Goose output is routed
// through log.
func Migrate(ctx context.Context, pool *pgxpool.Pool, cfg Config, log *slog.Logger, cmd MigrateCommand, opts ...MigrateOption) error {
	if cfg.MigrationsPath == "" {
		return errors.Join(ErrFailedToApplyMigrations, ErrMigrationPathNotProvided)
	}
	if log == nil {
		log = logger.Discard()
	}
	o := &migrateOptions{}
	for _, opt := range opts {
		opt(o)
	}

	if o.fsys != nil {
		if _, err := fs.Stat(o.fsys, cfg.MigrationsPath); err != nil {
			return errors.Join(ErrMigrationsDirNotFound, err)
		}
		goose.SetBaseFS(o.fsys)
		defer goose.SetBaseFS(nil)
	} else if _, err := os.Stat(cfg.MigrationsPath); err != nil {
		if os.IsNotExist(err) {
			return errors.Join(ErrMigrationsDirNotFound, err)
		}
		return errors.Join(ErrFailedToApplyMigrations, err)
	}

	// goose needs database/sql; the wrapper shares the pool's connections.
	db := stdlib.OpenDBFromPool(pool)
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			log.ErrorContext(ctx, "failed to close migration db handle", logger.Error(err))
		}
	}(db)

	goose.SetLogger(gooseLogger{log: log})
	goose.SetTableName(cfg.MigrationsTable)
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}

	var err error
	switch cmd {
	case MigrateUp, "":
		err = goose.UpContext(ctx, db, cfg.MigrationsPath)
	case MigrateDown:
		err = goose.DownContext(ctx, db, cfg.MigrationsPath)
	case MigrateStatus:
		err = goose.StatusContext(ctx, db, cfg.MigrationsPath)
	default:
		err = fmt.Errorf("unknown migrate command %q", cmd)
	}
	if err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}
	return nil
}

// gooseLogger adapts goose's printf logging to slog.
type gooseLogger struct {
	log *slog.Logger
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.log.Error(fmt.Sprintf(format, v...), logger.Component("goose"))
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.log.Info(fmt.Sprintf(format, v...), logger.Component("goose"))
}
