package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tutorhub/tutorhub/pkg/config"
	"github.com/tutorhub/tutorhub/pkg/email"
	"github.com/tutorhub/tutorhub/pkg/httpserver"
	"github.com/tutorhub/tutorhub/pkg/lease"
	"github.com/tutorhub/tutorhub/pkg/logger"
	"github.com/tutorhub/tutorhub/pkg/mongo"
	"github.com/tutorhub/tutorhub/pkg/payment"
	"github.com/tutorhub/tutorhub/pkg/pg"
	"github.com/tutorhub/tutorhub/pkg/profile"
	"github.com/tutorhub/tutorhub/pkg/redis"
	"github.com/tutorhub/tutorhub/pkg/tier"
	"github.com/tutorhub/tutorhub/svc/billing"
)

// deps are the billing service collaborators plus what is needed to probe and
// release them.
type deps struct {
	catalog   *tier.Catalog
	processor payment.Processor
	profiles  *profile.Store
	locker    lease.Locker
	notifier  billing.Notifier
	checks    []httpserver.Check
	closers   []func()
}

// Close releases resources in reverse order of acquisition.
func (d *deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

func (a *app) buildDeps(ctx context.Context) (_ *deps, err error) {
	d := &deps{}
	defer func() {
		if err != nil {
			d.Close()
		}
	}()

	if d.catalog, err = a.buildCatalog(); err != nil {
		return nil, err
	}

	var stripeCfg payment.StripeConfig
	if err = config.Load(&stripeCfg); err != nil {
		return nil, err
	}
	if d.processor, err = payment.NewStripe(stripeCfg, payment.WithStripeLogger(a.log)); err != nil {
		return nil, err
	}

	dir, err := a.openDirectory(ctx, d)
	if err != nil {
		return nil, err
	}
	d.profiles = profile.NewStore(dir)

	if d.locker, err = a.openLocker(ctx, d); err != nil {
		return nil, err
	}

	var emailCfg email.Config
	if err = config.Load(&emailCfg); err != nil {
		return nil, err
	}
	sender, err := email.New(emailCfg)
	if err != nil {
		return nil, err
	}
	if !emailCfg.PostmarkEnabled() {
		a.log.Warn("postmark is not configured, billing notices are written to disk",
			slog.String("dir", emailCfg.DevDir))
	}
	d.notifier = billing.NewEmailNotifier(sender)

	return d, nil
}

// buildCatalog resolves prices from the env vars, then the YAML catalog file,
// then the legacy monthly-only variables.
func (a *app) buildCatalog() (*tier.Catalog, error) {
	var (
		envPrices    tier.EnvPrices
		legacyPrices tier.LegacyEnvPrices
		catalogCfg   tier.CatalogConfig
	)
	for _, load := range []func() error{
		func() error { return config.Load(&envPrices) },
		func() error { return config.Load(&legacyPrices) },
		func() error { return config.Load(&catalogCfg) },
	} {
		if err := load(); err != nil {
			return nil, err
		}
	}

	file, err := tier.LoadFileSource(catalogCfg.File)
	if err != nil {
		return nil, err
	}
	catalog, err := tier.NewCatalog(envPrices, file, legacyPrices)
	if err != nil {
		return nil, err
	}

	for _, t := range tier.Paid {
		for _, i := range tier.Intervals {
			if _, err := catalog.PriceID(t, i); err != nil {
				a.log.Warn("price not configured, requests for it will fail",
					logger.Tier(t), slog.String("interval", string(i)))
			}
		}
	}
	return catalog, nil
}

func (a *app) openDirectory(ctx context.Context, d *deps) (profile.Directory, error) {
	switch a.cfg.ProfileBackend {
	case "memory", "":
		a.log.Warn("profiles are kept in memory and lost on restart")
		return profile.NewMemoryDirectory(), nil

	case "postgres":
		var cfg pg.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		pool, err := pg.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, pool.Close)
		d.checks = append(d.checks, httpserver.Check{Name: "postgres", Fn: pg.Ping(pool)})
		return profile.NewPGDirectory(pool), nil

	case "mongo":
		var cfg mongo.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		client, err := mongo.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, func() { _ = client.Disconnect(context.Background()) })
		d.checks = append(d.checks, httpserver.Check{Name: "mongo", Fn: mongo.Ping(client)})
		return profile.NewMongoDirectory(client.Database(cfg.Database)), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProfileBackend, a.cfg.ProfileBackend)
	}
}

// openLocker uses Redis when REDIS_URL is set. The in-process lease only
// serializes changes within one instance.
func (a *app) openLocker(ctx context.Context, d *deps) (lease.Locker, error) {
	var cfg redis.Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	if !cfg.Enabled() {
		a.log.Warn("REDIS_URL is not set, using the in-process billing lease")
		return lease.NewMemory(), nil
	}

	client, err := redis.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	d.closers = append(d.closers, func() { _ = client.Close() })
	d.checks = append(d.checks, httpserver.Check{Name: "redis", Fn: redis.Ping(client)})
	return lease.NewRedis(client), nil
}

func (a *app) buildService(d *deps, opts ...billing.ServiceOption) (billing.Service, billing.Config, error) {
	var cfg billing.Config
	if err := config.Load(&cfg); err != nil {
		return nil, cfg, err
	}
	opts = append([]billing.ServiceOption{
		billing.WithLogger(a.log.With(logger.Component("billing"))),
		billing.WithLocker(d.locker),
		billing.WithNotifier(d.notifier),
		billing.WithConfig(cfg),
	}, opts...)
	return billing.NewService(d.catalog, d.processor, d.profiles, opts...), cfg, nil
}
