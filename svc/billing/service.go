package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tutorhub/tutorhub/pkg/lease"
	"github.com/tutorhub/tutorhub/pkg/logger"
	"github.com/tutorhub/tutorhub/pkg/payment"
	"github.com/tutorhub/tutorhub/pkg/profile"
	"github.com/tutorhub/tutorhub/pkg/tier"
)

// Service is the billing API used by the HTTP module and the CLI.
type Service interface {
	// RequestTransition moves an existing subscription to desired, or drops a user
	// without one to free.
	RequestTransition(ctx context.Context, userID string, desired tier.Tier) (*TransitionResult, error)
	// PreviewTransition reports what RequestTransition (or a signup) would cost
	// without changing anything.
	PreviewTransition(ctx context.Context, userID string, desired tier.Tier, interval tier.Interval) (*PreviewResult, error)
	CancelPendingChange(ctx context.Context, userID string) (*CancelResult, error)

	Subscribe(ctx context.Context, params SubscribeParams) (*TransitionResult, error)
	// ConfirmPayment re-checks payment after out-of-band authentication.
	// paymentIntentID is optional.
	ConfirmPayment(ctx context.Context, userID, paymentIntentID string) (*TransitionResult, error)
	Summary(ctx context.Context, userID string) (*Summary, error)

	// HandleWebhook verifies and applies a processor event.
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
	// Reconcile re-syncs every subscribed profile from live processor state.
	Reconcile(ctx context.Context) (*ReconcileReport, error)
}

// ProfileStore persists billing profiles. *profile.Store implements it.
type ProfileStore interface {
	Load(ctx context.Context, userID string) (*profile.Profile, error)
	Save(ctx context.Context, p *profile.Profile) error
	Subscribed(ctx context.Context, afterUserID string, limit int) ([]string, error)
}

// Config holds tunables read from the environment.
type Config struct {
	LeaseTTL          time.Duration `env:"BILLING_LEASE_TTL" envDefault:"30s"`
	ReconcileInterval time.Duration `env:"RECONCILE_INTERVAL" envDefault:"0"`
	ReconcileBatch    int           `env:"RECONCILE_BATCH" envDefault:"100"`
	ReconcileWorkers  int           `env:"RECONCILE_WORKERS" envDefault:"4"`
}

type service struct {
	catalog   *tier.Catalog
	processor payment.Processor
	profiles  ProfileStore
	locker    lease.Locker
	notifier  Notifier
	metrics   *Metrics
	log       *slog.Logger
	cfg       Config
	now       func() time.Time
}

// NewService wires the billing engines. Catalog, processor and profile store are
// required; NewService panics without them so misconfiguration fails at startup.
func NewService(catalog *tier.Catalog, processor payment.Processor, profiles ProfileStore, opts ...ServiceOption) Service {
	if catalog == nil {
		panic("billing: tier catalog is required")
	}
	if processor == nil {
		panic("billing: payment processor is required")
	}
	if profiles == nil {
		panic("billing: profile store is required")
	}

	s := &service{
		catalog:   catalog,
		processor: processor,
		profiles:  profiles,
		locker:    lease.Noop{},
		notifier:  noopNotifier{},
		log:       logger.Discard(),
		now:       time.Now,
		cfg: Config{
			LeaseTTL:         30 * time.Second,
			ReconcileBatch:   100,
			ReconcileWorkers: 4,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// acquire takes the per-user lease for a read-decide-write sequence.
func (s *service) acquire(ctx context.Context, userID string) (func(), error) {
	release, ok, err := s.locker.TryAcquire(ctx, "billing:"+userID, s.cfg.LeaseTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire billing lease: %w", err)
	}
	if !ok {
		return nil, ErrTransitionInProgress
	}
	return release, nil
}

func (s *service) loadProfile(ctx context.Context, userID string) (*profile.Profile, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	p, err := s.profiles.Load(ctx, userID)
	switch {
	case err == nil:
		return p, nil
	case errors.Is(err, profile.ErrUserNotFound):
		return nil, errors.Join(ErrUnauthorized, err)
	default:
		return nil, errors.Join(ErrProfileUnavailable, err)
	}
}

// ownedSubscription fetches live subscription state and checks the owner tag.
func (s *service) ownedSubscription(ctx context.Context, userID, subscriptionID string) (*payment.Subscription, error) {
	sub, err := s.processor.GetSubscription(ctx, subscriptionID)
	if err != nil {
		if errors.Is(err, payment.ErrNotFound) {
			return nil, errors.Join(ErrNoActiveSubscription, err)
		}
		return nil, processorError("failed to get subscription", err)
	}
	if sub.OwnerID != userID {
		s.log.WarnContext(ctx, "subscription owner mismatch",
			logger.UserID(userID),
			logger.SubscriptionID(sub.ID),
			slog.String("owner_id", sub.OwnerID),
		)
		return nil, ErrForbidden
	}
	return sub, nil
}

// currentKey resolves the tier and interval a subscription is billed at.
func (s *service) currentKey(sub *payment.Subscription) (tier.Key, error) {
	if sub.PriceID == "" {
		return tier.Key{}, fmt.Errorf("%w: subscription %s has no price", ErrIncompleteResponse, sub.ID)
	}
	key, ok := s.catalog.Lookup(sub.PriceID)
	if !ok {
		return tier.Key{}, fmt.Errorf("%w: price %s is not in the catalog", ErrMissingPriceConfiguration, sub.PriceID)
	}
	return key, nil
}

func (s *service) priceFor(t tier.Tier, i tier.Interval) (string, error) {
	id, err := s.catalog.PriceID(t, i)
	if err != nil {
		return "", errors.Join(ErrMissingPriceConfiguration, err)
	}
	return id, nil
}

// persist writes the profile after the processor already accepted a change. A
// failed write is logged and left for the reconciler.
func (s *service) persist(ctx context.Context, p *profile.Profile) {
	if err := s.profiles.Save(ctx, p); err != nil {
		s.metrics.profileWriteFailed()
		s.log.ErrorContext(ctx, "profile write failed after processor change",
			logger.UserID(p.UserID),
			logger.SubscriptionID(p.SubscriptionID),
			logger.Error(err),
		)
	}
}

func processorError(op string, err error) error {
	if errors.Is(err, payment.ErrIncompleteResponse) {
		return errors.Join(ErrIncompleteResponse, fmt.Errorf("%s: %w", op, err))
	}
	return errors.Join(ErrProcessor, fmt.Errorf("%s: %w", op, err))
}
