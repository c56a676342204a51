package main

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/tutorhub/tutorhub/pkg/config"
	"github.com/tutorhub/tutorhub/pkg/environment"
	"github.com/tutorhub/tutorhub/pkg/logger"
	"github.com/tutorhub/tutorhub/pkg/requestid"
)

// appConfig holds the process-wide settings. Component settings are loaded by
// the component that needs them, so a memory-backed run never requires
// PG_CONN_URL.
type appConfig struct {
	Env            string `env:"APP_ENV" envDefault:"development"`
	ServiceName    string `env:"APP_NAME" envDefault:"tutorhub"`
	ProfileBackend string `env:"PROFILE_BACKEND" envDefault:"memory"`
}

type app struct {
	cfg appConfig
	log *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{log: logger.Discard()}
	var envFiles []string
	var started time.Time

	root := &cobra.Command{
		Use:           "tutorhub",
		Short:         "Tutorhub billing service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.init(envFiles); err != nil {
				return err
			}
			started = time.Now()
			cmd.SetContext(requestid.WithContext(cmd.Context(), requestid.New()))
			a.log.InfoContext(cmd.Context(), "command start", logger.Component(cmd.CommandPath()))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			a.log.InfoContext(cmd.Context(), "command end",
				logger.Component(cmd.CommandPath()),
				logger.Duration(time.Since(started)),
			)
		},
	}
	root.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load before reading the environment")

	root.AddCommand(
		newServeCmd(a),
		newMigrateCmd(a),
		newReconcileCmd(a),
	)
	return root
}

func (a *app) init(envFiles []string) error {
	if len(envFiles) > 0 {
		if err := config.LoadEnv(envFiles...); err != nil {
			return err
		}
	}
	if err := config.Load(&a.cfg); err != nil {
		return err
	}
	var logCfg logger.Config
	if err := config.Load(&logCfg); err != nil {
		return err
	}

	a.log = logger.New(
		logger.WithEnvironment(a.cfg.Env, a.cfg.ServiceName),
		logger.WithConfig(logCfg),
		logger.WithContextExtractors(
			requestid.LoggerExtractor(),
			environment.LoggerExtractor(),
		),
	)
	logger.SetAsDefault(a.log)
	return nil
}
