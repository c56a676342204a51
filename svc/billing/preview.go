package billing

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/tutorhub/tutorhub/pkg/payment"
	"github.com/tutorhub/tutorhub/pkg/profile"
	"github.com/tutorhub/tutorhub/pkg/tier"
)

// PreviewTransition only reads. Upgrades are priced with the processor's invoice
// preview; signups and deferred changes use the static catalog price since no
// proration applies to them.
func (s *service) PreviewTransition(ctx context.Context, userID string, desired tier.Tier, interval tier.Interval) (res *PreviewResult, err error) {
	defer func() {
		if err != nil {
			s.metrics.outcome("preview", Code(err))
		} else {
			s.metrics.outcome("preview", string(res.Action))
		}
	}()

	if !desired.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTier, desired)
	}
	interval, err = tier.ParseInterval(string(interval))
	if err != nil {
		return nil, errors.Join(ErrInvalidInterval, err)
	}

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

	res = &PreviewResult{
		CurrentTier:           p.Tier,
		TargetTier:            desired,
		Interval:              interval,
		RequiresPaymentMethod: desired != tier.Free && !hasMethod,
	}

	if sub == nil || sub.Status.Terminal() {
		return s.previewSignup(ctx, res, desired, interval)
	}
	return s.previewChange(ctx, p, sub, res, desired)
}

func (s *service) previewSignup(ctx context.Context, res *PreviewResult, desired tier.Tier, interval tier.Interval) (*PreviewResult, error) {
	if desired == tier.Free {
		res.Action = ActionNone
		return res, nil
	}
	price, err := s.catalogPrice(ctx, desired, interval)
	if err != nil {
		return nil, err
	}
	res.Action = ActionSignup
	res.DueNow = price.UnitAmount
	res.NextAmount = price.UnitAmount
	res.Currency = price.Currency
	return res, nil
}

func (s *service) previewChange(ctx context.Context, p *profile.Profile, sub *payment.Subscription, res *PreviewResult, desired tier.Tier) (*PreviewResult, error) {
	current, err := s.currentKey(sub)
	if err != nil {
		return nil, err
	}
	res.CurrentTier = current.Tier
	res.Interval = current.Interval
	res.Currency = sub.Currency

	if desired == tier.Free {
		res.Action = ActionCancel
		res.EffectiveDate = timePtr(sub.CurrentPeriodEnd)
		return res, nil
	}

	priceID, err := s.priceFor(desired, current.Interval)
	if err != nil {
		return nil, err
	}

	switch tier.Compare(current.Tier, desired) {
	case tier.Lateral:
		res.Action = ActionNone
		res.NextAmount = sub.UnitAmount
		return res, nil

	case tier.Downgrade:
		price, err := s.getPrice(ctx, priceID)
		if err != nil {
			return nil, err
		}
		res.Action = ActionDowngrade
		res.NextAmount = price.UnitAmount
		res.Currency = price.Currency
		res.EffectiveDate = timePtr(sub.CurrentPeriodEnd)
		return res, nil
	}

	if sub.ItemID == "" {
		return nil, fmt.Errorf("%w: subscription %s has no item", ErrIncompleteResponse, sub.ID)
	}

	var (
		inv   *payment.Invoice
		price *payment.Price
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		inv, err = s.processor.PreviewInvoice(gctx, payment.PreviewParams{
			CustomerID:     sub.CustomerID,
			SubscriptionID: sub.ID,
			ItemID:         sub.ItemID,
			PriceID:        priceID,
		})
		if err != nil {
			return processorError("failed to preview invoice", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		price, err = s.getPrice(gctx, priceID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res.Action = ActionUpgrade
	res.DueNow = inv.AmountDue
	res.NextAmount = price.UnitAmount
	res.Currency = inv.Currency
	return res, nil
}

func (s *service) hasPaymentMethod(ctx context.Context, p *profile.Profile) (bool, error) {
	if p.CustomerID == "" {
		return false, nil
	}
	ok, err := s.processor.HasPaymentMethod(ctx, p.CustomerID)
	if err != nil {
		if errors.Is(err, payment.ErrNotFound) {
			return false, nil
		}
		return false, processorError("failed to check payment methods", err)
	}
	return ok, nil
}

func (s *service) catalogPrice(ctx context.Context, t tier.Tier, i tier.Interval) (*payment.Price, error) {
	priceID, err := s.priceFor(t, i)
	if err != nil {
		return nil, err
	}
	return s.getPrice(ctx, priceID)
}

func (s *service) getPrice(ctx context.Context, priceID string) (*payment.Price, error) {
	price, err := s.processor.GetPrice(ctx, priceID)
	if err != nil {
		return nil, processorError("failed to get price", err)
	}
	return price, nil
}
