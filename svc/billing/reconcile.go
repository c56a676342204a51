package billing

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tutorhub/tutorhub/pkg/logger"
	"github.com/tutorhub/tutorhub/pkg/payment"
	"github.com/tutorhub/tutorhub/pkg/profile"
	"github.com/tutorhub/tutorhub/pkg/requestid"
	"github.com/tutorhub/tutorhub/pkg/tier"
)

// HandleWebhook verifies the event signature before anything else; a forged or
// malformed event returns ErrInvalidWebhook and changes nothing. Events that
// cannot be attributed to a tracked subscription are acknowledged and ignored.
// A returned error other than ErrInvalidWebhook asks the processor to redeliver.
func (s *service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	ev, err := s.processor.ParseEvent(payload, signature)
	if err != nil {
		s.metrics.webhook("unverified", "rejected")
		s.log.WarnContext(ctx, "webhook rejected", logger.Error(err))
		return errors.Join(ErrInvalidWebhook, err)
	}

	log := s.log.With(logger.EventID(ev.ID), logger.EventType(ev.ProviderEvent))
	eventType := string(ev.Type)

	if ev.Type == payment.EventOther || ev.Subscription == nil {
		s.metrics.webhook(eventType, "ignored")
		return nil
	}
	sub := ev.Subscription
	if sub.OwnerID == "" {
		log.InfoContext(ctx, "webhook subscription has no owner tag", logger.SubscriptionID(sub.ID))
		s.metrics.webhook(eventType, "ignored")
		return nil
	}

	// A busy lease fails the delivery so the processor retries it after the
	// running transition has written its profile.
	release, err := s.acquire(ctx, sub.OwnerID)
	if err != nil {
		s.metrics.webhook(eventType, "busy")
		log.InfoContext(ctx, "webhook deferred", logger.UserID(sub.OwnerID), logger.Error(err))
		return err
	}
	defer release()

	p, err := s.profiles.Load(ctx, sub.OwnerID)
	if err != nil {
		if errors.Is(err, profile.ErrUserNotFound) {
			log.WarnContext(ctx, "webhook for unknown user", logger.UserID(sub.OwnerID))
			s.metrics.webhook(eventType, "ignored")
			return nil
		}
		s.metrics.webhook(eventType, "failed")
		return errors.Join(ErrProfileUnavailable, err)
	}

	deleted := ev.Type == payment.EventSubscriptionDeleted
	if !tracks(p, sub, deleted) {
		log.InfoContext(ctx, "webhook for untracked subscription",
			logger.UserID(p.UserID), logger.SubscriptionID(sub.ID))
		s.metrics.webhook(eventType, "ignored")
		return nil
	}

	changed, err := s.apply(ctx, p, sub, deleted)
	if err != nil {
		s.metrics.webhook(eventType, "failed")
		log.ErrorContext(ctx, "failed to apply webhook", logger.UserID(p.UserID), logger.Error(err))
		return err
	}

	result := "unchanged"
	if changed {
		result = "applied"
	}
	s.metrics.webhook(eventType, result)
	log.InfoContext(ctx, "webhook reconciled",
		logger.UserID(p.UserID),
		logger.SubscriptionID(sub.ID),
		logger.Tier(p.Tier),
		slog.Bool("changed", changed),
	)
	return nil
}

// tracks reports whether an event about sub concerns the profile's subscription.
// Events of superseded subscriptions are ignored. A profile that lost its id (a
// failed write after subscribing) adopts a live subscription it owns.
func tracks(p *profile.Profile, sub *payment.Subscription, deleted bool) bool {
	if p.SubscriptionID != "" {
		return p.SubscriptionID == sub.ID
	}
	return !deleted && !sub.Status.Terminal()
}

// apply folds processor state into p and saves it when anything changed.
func (s *service) apply(ctx context.Context, p *profile.Profile, sub *payment.Subscription, deleted bool) (bool, error) {
	before := stateOf(p)
	if err := s.derive(ctx, p, sub, deleted); err != nil {
		return false, err
	}
	if stateOf(p) == before {
		return false, nil
	}
	if err := s.profiles.Save(ctx, p); err != nil {
		return false, errors.Join(ErrProfileUnavailable, err)
	}
	return true, nil
}

// derive overwrites the billing fields of p from sub. It depends only on processor
// state, so applying the same state twice yields the same profile.
func (s *service) derive(ctx context.Context, p *profile.Profile, sub *payment.Subscription, deleted bool) error {
	if deleted || sub.Status.Terminal() {
		p.Tier = tier.Free
		p.ClearSubscription()
		p.BillingInterval = ""
		p.SubscriptionStatus = string(payment.StatusCanceled)
		if !deleted {
			p.SubscriptionStatus = string(sub.Status)
		}
		return nil
	}

	p.SubscriptionID = sub.ID
	p.SubscriptionStatus = string(sub.Status)

	key, ok := s.catalog.Lookup(sub.PriceID)
	if !ok {
		// Never guess entitlement from a price we do not know.
		s.log.WarnContext(ctx, "subscription price is not in the catalog",
			logger.UserID(p.UserID),
			logger.SubscriptionID(sub.ID),
			slog.String("price_id", sub.PriceID),
		)
		return nil
	}
	p.BillingInterval = key.Interval

	switch {
	case tier.Rank(key.Tier) <= tier.Rank(p.Tier):
		p.Tier = key.Tier
	case !sub.Status.Entitled():
		s.log.InfoContext(ctx, "not raising tier of unentitled subscription",
			logger.UserID(p.UserID), logger.SubscriptionID(sub.ID), logger.Tier(key.Tier))
	default:
		settled, err := s.invoiceSettled(ctx, sub)
		if err != nil {
			return err
		}
		if settled {
			p.Tier = key.Tier
		}
	}

	switch {
	case sub.CancelAtPeriodEnd:
		p.SetPending(tier.Free, sub.CurrentPeriodEnd)
	case sub.ScheduleID != "":
		return s.derivePending(ctx, p, sub)
	default:
		p.ClearPending()
	}
	return nil
}

// derivePending reads the attached schedule and records the first phase that
// starts after the current period began with a price other than the billed one.
// A schedule whose last phase is already running (the boundary has passed, the
// open-ended phase keeps it attached) leaves nothing pending.
func (s *service) derivePending(ctx context.Context, p *profile.Profile, sub *payment.Subscription) error {
	sched, err := s.processor.GetSchedule(ctx, sub.ScheduleID)
	if err != nil {
		if errors.Is(err, payment.ErrNotFound) {
			p.ClearPending()
			return nil
		}
		return processorError("failed to get schedule", err)
	}

	from := sub.CurrentPeriodStart
	if from.IsZero() {
		from = s.now()
	}
	for _, ph := range sched.Phases {
		if !ph.StartDate.After(from) || ph.PriceID == sub.PriceID {
			continue
		}
		key, ok := s.catalog.Lookup(ph.PriceID)
		if !ok {
			s.log.WarnContext(ctx, "scheduled price is not in the catalog",
				logger.UserID(p.UserID),
				logger.SubscriptionID(sub.ID),
				slog.String("price_id", ph.PriceID),
			)
			break
		}
		p.SetPending(key.Tier, ph.StartDate)
		return nil
	}
	p.ClearPending()
	return nil
}

// invoiceSettled reports whether the latest invoice, typically the proration of a
// price swap, is paid. Raising a tier waits for it.
func (s *service) invoiceSettled(ctx context.Context, sub *payment.Subscription) (bool, error) {
	if sub.LatestInvoiceID == "" {
		return true, nil
	}
	inv, err := s.processor.GetInvoice(ctx, sub.LatestInvoiceID)
	if err != nil {
		if errors.Is(err, payment.ErrNotFound) {
			return true, nil
		}
		return false, processorError("failed to get invoice", err)
	}
	return !inv.Due(), nil
}

type billingState struct {
	tier, pendingTier tier.Tier
	pendingEffective  int64
	interval          tier.Interval
	subscriptionID    string
	status            string
}

func stateOf(p *profile.Profile) billingState {
	st := billingState{
		tier:           p.Tier,
		pendingTier:    p.PendingTier,
		interval:       p.BillingInterval,
		subscriptionID: p.SubscriptionID,
		status:         p.SubscriptionStatus,
	}
	if !p.PendingTierEffective.IsZero() {
		st.pendingEffective = p.PendingTierEffective.Unix()
	}
	return st
}

// Reconcile walks every profile that tracks a subscription and re-derives it from
// live processor state. Per-user failures are counted, not returned.
func (s *service) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	var (
		report ReconcileReport
		mu     sync.Mutex
		after  string
	)

	for {
		ids, err := s.profiles.Subscribed(ctx, after, s.cfg.ReconcileBatch)
		if err != nil {
			return &report, errors.Join(ErrProfileUnavailable, err)
		}
		if len(ids) == 0 {
			break
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.cfg.ReconcileWorkers)
		for _, id := range ids {
			g.Go(func() error {
				changed, err := s.reconcileUser(gctx, id)

				mu.Lock()
				defer mu.Unlock()
				report.Checked++
				switch {
				case err != nil:
					report.Failed++
					s.metrics.reconciled("failed")
					s.log.WarnContext(gctx, "reconcile failed", logger.UserID(id), logger.Error(err))
				case changed:
					report.Updated++
					s.metrics.reconciled("updated")
				default:
					s.metrics.reconciled("unchanged")
				}
				return nil
			})
		}
		_ = g.Wait()

		if err := ctx.Err(); err != nil {
			return &report, err
		}
		if len(ids) < s.cfg.ReconcileBatch {
			break
		}
		after = ids[len(ids)-1]
	}

	s.log.InfoContext(ctx, "reconcile sweep finished",
		slog.Int("checked", report.Checked),
		slog.Int("updated", report.Updated),
		slog.Int("failed", report.Failed),
	)
	return &report, nil
}

func (s *service) reconcileUser(ctx context.Context, userID string) (bool, error) {
	release, err := s.acquire(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrTransitionInProgress) {
			// The running change writes the profile itself.
			return false, nil
		}
		return false, err
	}
	defer release()

	p, err := s.loadProfile(ctx, userID)
	if err != nil {
		return false, err
	}
	if p.SubscriptionID == "" {
		return false, nil
	}

	deleted := false
	sub, err := s.processor.GetSubscription(ctx, p.SubscriptionID)
	switch {
	case errors.Is(err, payment.ErrNotFound):
		deleted = true
		sub = &payment.Subscription{ID: p.SubscriptionID, OwnerID: userID}
	case err != nil:
		return false, processorError("failed to get subscription", err)
	case sub.OwnerID != userID:
		return false, ErrForbidden
	}

	return s.apply(ctx, p, sub, deleted)
}

// RunReconciler sweeps every interval until ctx is canceled. Each sweep gets
// its own request id so its log lines can be grouped.
func RunReconciler(ctx context.Context, svc Service, interval time.Duration, log *slog.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runCtx := requestid.WithContext(ctx, requestid.New())
			if _, err := svc.Reconcile(runCtx); err != nil && ctx.Err() == nil {
				log.ErrorContext(runCtx, "reconcile sweep failed", logger.Error(err))
			}
		}
	}
}
