package billing

import (
	"log/slog"

	"github.com/tutorhub/tutorhub/pkg/lease"
)

// ServiceOption configures a Service instance.
type ServiceOption func(*service)

func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *service) {
		if l != nil {
			s.log = l.With(slog.String("component", "billing"))
		}
	}
}

// WithLocker serializes mutating calls per user. Without it no lease is taken.
func WithLocker(l lease.Locker) ServiceOption {
	return func(s *service) {
		if l != nil {
			s.locker = l
		}
	}
}

// WithNotifier sends best-effort notices for scheduled downgrades and pending payments.
func WithNotifier(n Notifier) ServiceOption {
	return func(s *service) {
		if n != nil {
			s.notifier = n
		}
	}
}

func WithMetrics(m *Metrics) ServiceOption {
	return func(s *service) { s.metrics = m }
}

// WithConfig overrides the lease and sweep settings. Zero values keep the defaults;
// ReconcileInterval is read by RunReconciler callers, not the service.
func WithConfig(cfg Config) ServiceOption {
	return func(s *service) {
		if cfg.LeaseTTL > 0 {
			s.cfg.LeaseTTL = cfg.LeaseTTL
		}
		if cfg.ReconcileBatch > 0 {
			s.cfg.ReconcileBatch = cfg.ReconcileBatch
		}
		if cfg.ReconcileWorkers > 0 {
			s.cfg.ReconcileWorkers = cfg.ReconcileWorkers
		}
	}
}
