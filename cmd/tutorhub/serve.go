package main

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	billingmod "github.com/tutorhub/tutorhub/modules/billing"
	"github.com/tutorhub/tutorhub/pkg/config"
	"github.com/tutorhub/tutorhub/pkg/environment"
	"github.com/tutorhub/tutorhub/pkg/httpserver"
	"github.com/tutorhub/tutorhub/pkg/jwt"
	"github.com/tutorhub/tutorhub/pkg/requestid"
	"github.com/tutorhub/tutorhub/svc/billing"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the billing API, webhooks, health checks and metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	d, err := a.buildDeps(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	svc, billingCfg, err := a.buildService(d, billing.WithMetrics(billing.NewMetrics(reg)))
	if err != nil {
		return err
	}

	var jwtCfg jwt.Config
	if err := config.Load(&jwtCfg); err != nil {
		return err
	}
	sessions, err := jwt.NewFromConfig(jwtCfg)
	if err != nil {
		return err
	}

	var httpCfg httpserver.Config
	if err := config.Load(&httpCfg); err != nil {
		return err
	}

	router := newRouter(routerDeps{
		env:      environment.Parse(a.cfg.Env),
		log:      a.log,
		registry: reg,
		checks:   d.checks,
		billing:  billingmod.New(svc, sessions, billingmod.WithLogger(a.log)),
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// The reconciler stops with the server.
		defer cancel()
		return httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(a.log)).Run(gctx, router)
	})
	if billingCfg.ReconcileInterval > 0 {
		a.log.InfoContext(ctx, "periodic reconciliation enabled",
			slog.Duration("interval", billingCfg.ReconcileInterval))
		g.Go(func() error {
			billing.RunReconciler(gctx, svc, billingCfg.ReconcileInterval, a.log)
			return nil
		})
	}
	return g.Wait()
}

type routerDeps struct {
	env      environment.Environment
	log      *slog.Logger
	registry *prometheus.Registry
	checks   []httpserver.Check
	billing  *billingmod.Module
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer,
		requestid.Middleware,
		environment.Middleware(d.env),
	)

	r.Get("/health/live", httpserver.LivenessHandler())
	r.Get("/health/ready", httpserver.ReadinessHandler(d.log, d.checks...))
	r.Handle("/metrics", promhttp.HandlerFor(d.registry, promhttp.HandlerOpts{Registry: d.registry}))
	r.Mount("/billing", d.billing.Handle())

	return r
}
