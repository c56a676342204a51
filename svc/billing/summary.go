package billing

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/tutorhub/tutorhub/pkg/payment"
)

// Summary reads the profile, then the live subscription and the payment method
// flag concurrently. A subscription the processor no longer knows is omitted.
func (s *service) Summary(ctx context.Context, userID string) (*Summary, error) {
	p, err := s.loadProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	var (
		sub       *payment.Subscription
		hasMethod bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		hasMethod, err = s.hasPaymentMethod(gctx, p)
		return err
	})
	if p.SubscriptionID != "" {
		g.Go(func() error {
			var err error
			sub, err = s.ownedSubscription(gctx, userID, p.SubscriptionID)
			if errors.Is(err, ErrNoActiveSubscription) {
				return nil
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &Summary{
		Tier:                 p.Tier,
		PendingTier:          p.PendingTier,
		PendingTierEffective: timePtr(p.PendingTierEffective),
		Interval:             p.BillingInterval,
		SubscriptionStatus:   p.SubscriptionStatus,
		HasPaymentMethod:     hasMethod,
	}
	if sub != nil {
		view := &SubscriptionView{
			ID:                sub.ID,
			Status:            string(sub.Status),
			Amount:            sub.UnitAmount,
			Currency:          sub.Currency,
			CurrentPeriodEnd:  sub.CurrentPeriodEnd.UTC(),
			CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
			Scheduled:         sub.ScheduleID != "",
		}
		if key, ok := s.catalog.Lookup(sub.PriceID); ok {
			view.Tier = key.Tier
		}
		out.Subscription = view
	}
	return out, nil
}
