package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/tutorhub/tutorhub/pkg/logger"
	"github.com/tutorhub/tutorhub/pkg/payment"
	"github.com/tutorhub/tutorhub/pkg/profile"
	"github.com/tutorhub/tutorhub/pkg/tier"
)

// Subscribe creates the user's paid subscription. Any subscription tracked before
// is canceled once the new one exists, so at most one is ever billed.
func (s *service) Subscribe(ctx context.Context, params SubscribeParams) (res *TransitionResult, err error) {
	defer func() { s.record("subscribe", res, err) }()

	if params.UserID == "" {
		return nil, ErrUnauthorized
	}
	if !params.Tier.Valid() || params.Tier == tier.Free {
		return nil, fmt.Errorf("%w: %q is not a paid tier", ErrInvalidTier, params.Tier)
	}
	interval, err := tier.ParseInterval(string(params.Interval))
	if err != nil {
		return nil, errors.Join(ErrInvalidInterval, err)
	}
	if params.PaymentMethodID == "" {
		return nil, ErrMissingPaymentMethod
	}
	priceID, err := s.priceFor(params.Tier, interval)
	if err != nil {
		return nil, err
	}

	release, err := s.acquire(ctx, params.UserID)
	if err != nil {
		return nil, err
	}
	defer release()

	p, err := s.loadProfile(ctx, params.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.ensureCustomer(ctx, p); err != nil {
		return nil, err
	}
	if err := s.processor.AttachPaymentMethod(ctx, p.CustomerID, params.PaymentMethodID); err != nil {
		return nil, processorError("failed to attach payment method", err)
	}
	if err := s.processor.SetDefaultPaymentMethod(ctx, p.CustomerID, params.PaymentMethodID); err != nil {
		return nil, processorError("failed to set default payment method", err)
	}

	sub, err := s.processor.CreateSubscription(ctx, payment.CreateSubscriptionParams{
		CustomerID:      p.CustomerID,
		OwnerID:         p.UserID,
		PriceID:         priceID,
		PaymentMethodID: params.PaymentMethodID,
		IdempotencyKey:  fmt.Sprintf("subscribe:%s:%s:%s:%s", p.UserID, params.Tier, params.PaymentMethodID, interval),
	})
	if err != nil {
		return nil, processorError("failed to create subscription", err)
	}

	previous := p.SubscriptionID
	if previous != "" && previous != sub.ID {
		s.cancelSuperseded(ctx, p.UserID, previous)
		// Whatever the old subscription entitled is gone with it.
		p.Tier = tier.Free
	}

	p.SubscriptionID = sub.ID
	p.SubscriptionStatus = string(sub.Status)
	p.BillingInterval = interval
	p.ClearPending()

	res = &TransitionResult{
		Mode:           ModeSubscribed,
		Tier:           params.Tier,
		Interval:       interval,
		SubscriptionID: sub.ID,
		Status:         string(sub.Status),
	}

	if sub.Status.Entitled() {
		p.Tier = params.Tier
		s.persist(ctx, p)
		s.log.InfoContext(ctx, "subscription created",
			logger.UserID(p.UserID),
			logger.SubscriptionID(sub.ID),
			logger.Tier(params.Tier),
		)
		return res, nil
	}

	s.persist(ctx, p)

	inv, err := s.latestInvoice(ctx, sub)
	if err != nil {
		return nil, err
	}
	res.Mode = ModePaymentRequired
	res.Tier = p.Tier
	res.ClientSecret = inv.ClientSecret
	res.AmountDue = inv.AmountRemaining
	res.Currency = inv.Currency
	s.notify(ctx, p, noticeFromResult(NoticePaymentRequired, res))
	return res, nil
}

// ensureCustomer creates the processor customer once per user. The id is written
// immediately because it is reused for the lifetime of the account.
func (s *service) ensureCustomer(ctx context.Context, p *profile.Profile) error {
	if p.CustomerID != "" {
		return nil
	}
	c, err := s.processor.CreateCustomer(ctx, payment.CustomerParams{
		OwnerID:        p.UserID,
		Email:          p.Email,
		Name:           p.DisplayName(),
		IdempotencyKey: "customer:" + p.UserID,
	})
	if err != nil {
		return processorError("failed to create customer", err)
	}
	if c.ID == "" {
		return fmt.Errorf("%w: customer without id", ErrIncompleteResponse)
	}
	p.CustomerID = c.ID
	s.persist(ctx, p)
	return nil
}

// cancelSuperseded cancels a replaced subscription. Failures are logged and ignored.
func (s *service) cancelSuperseded(ctx context.Context, userID, subscriptionID string) {
	old, err := s.processor.GetSubscription(ctx, subscriptionID)
	if err != nil {
		if !errors.Is(err, payment.ErrNotFound) {
			s.log.WarnContext(ctx, "failed to read superseded subscription",
				logger.UserID(userID), logger.SubscriptionID(subscriptionID), logger.Error(err))
		}
		return
	}
	if old.OwnerID != userID || old.Status.Terminal() {
		return
	}
	if err := s.processor.CancelSubscription(ctx, subscriptionID); err != nil {
		s.log.WarnContext(ctx, "failed to cancel superseded subscription",
			logger.UserID(userID), logger.SubscriptionID(subscriptionID), logger.Error(err))
		return
	}
	s.log.InfoContext(ctx, "superseded subscription canceled",
		logger.UserID(userID), logger.SubscriptionID(subscriptionID))
}

func (s *service) latestInvoice(ctx context.Context, sub *payment.Subscription) (*payment.Invoice, error) {
	if sub.LatestInvoiceID == "" {
		return nil, fmt.Errorf("%w: subscription %s has no invoice", ErrIncompleteResponse, sub.ID)
	}
	inv, err := s.processor.GetInvoice(ctx, sub.LatestInvoiceID)
	if err != nil {
		return nil, processorError("failed to get invoice", err)
	}
	return inv, nil
}

// ConfirmPayment commits the tier billed by the live subscription once its latest
// invoice is settled.
func (s *service) ConfirmPayment(ctx context.Context, userID, paymentIntentID string) (res *TransitionResult, err error) {
	defer func() { s.record("confirm", res, err) }()

	if userID == "" {
		return nil, ErrUnauthorized
	}
	release, err := s.acquire(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer release()

	p, err := s.loadProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p.SubscriptionID == "" {
		return nil, ErrNoActiveSubscription
	}
	sub, err := s.ownedSubscription(ctx, userID, p.SubscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.Status.Terminal() {
		return nil, ErrNoActiveSubscription
	}
	key, err := s.currentKey(sub)
	if err != nil {
		return nil, err
	}

	// The intent only has to belong to this customer. Whether the tier is paid
	// for is always decided by the subscription's latest invoice.
	if paymentIntentID != "" {
		pi, err := s.processor.GetPaymentIntent(ctx, paymentIntentID)
		if err != nil {
			return nil, processorError("failed to get payment intent", err)
		}
		if pi.CustomerID == "" || pi.CustomerID != sub.CustomerID {
			return nil, ErrForbidden
		}
	}
	inv, err := s.latestInvoice(ctx, sub)
	if err != nil {
		return nil, err
	}
	paid := !inv.Due()

	p.SubscriptionStatus = string(sub.Status)
	res = &TransitionResult{
		Tier:           p.Tier,
		Interval:       key.Interval,
		SubscriptionID: sub.ID,
		Status:         string(sub.Status),
	}

	if !paid {
		if err := s.profiles.Save(ctx, p); err != nil {
			return nil, errors.Join(ErrProfileUnavailable, err)
		}
		res.Mode = ModePaymentRequired
		res.ClientSecret = inv.ClientSecret
		res.AmountDue = inv.AmountRemaining
		res.Currency = inv.Currency
		return res, nil
	}

	p.Tier = key.Tier
	p.BillingInterval = key.Interval
	if !sub.CancelAtPeriodEnd && sub.ScheduleID == "" {
		p.ClearPending()
	}
	if err := s.profiles.Save(ctx, p); err != nil {
		return nil, errors.Join(ErrProfileUnavailable, err)
	}

	res.Mode = ModeUpgraded
	res.Tier = key.Tier
	return res, nil
}
