package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tutorhub/tutorhub/pkg/logger"
	"github.com/tutorhub/tutorhub/pkg/payment"
	"github.com/tutorhub/tutorhub/pkg/profile"
	"github.com/tutorhub/tutorhub/pkg/tier"
)

func (s *service) RequestTransition(ctx context.Context, userID string, desired tier.Tier) (res *TransitionResult, err error) {
	defer func() { s.record("transition", res, err) }()

	if !desired.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTier, desired)
	}
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
		if desired != tier.Free {
			return nil, ErrNoActiveSubscription
		}
		return s.dropToFree(ctx, p)
	}

	sub, err := s.ownedSubscription(ctx, userID, p.SubscriptionID)
	if err != nil {
		// The processor no longer knows the tracked subscription.
		if desired == tier.Free && errors.Is(err, ErrNoActiveSubscription) {
			p.ClearSubscription()
			return s.dropToFree(ctx, p)
		}
		return nil, err
	}
	if sub.Status.Terminal() {
		if desired != tier.Free {
			return nil, ErrNoActiveSubscription
		}
		p.ClearSubscription()
		p.SubscriptionStatus = string(sub.Status)
		return s.dropToFree(ctx, p)
	}

	if desired == tier.Free {
		return s.scheduleCancel(ctx, p, sub)
	}

	// Everything that can fail a precondition is checked before the first mutation.
	current, err := s.currentKey(sub)
	if err != nil {
		return nil, err
	}
	priceID, err := s.priceFor(desired, current.Interval)
	if err != nil {
		return nil, err
	}
	direction := tier.Compare(current.Tier, desired)
	switch direction {
	case tier.Downgrade:
		if sub.CurrentPeriodEnd.IsZero() {
			return nil, fmt.Errorf("%w: subscription %s has no current period end", ErrIncompleteResponse, sub.ID)
		}
	case tier.Upgrade:
		if sub.ItemID == "" {
			return nil, fmt.Errorf("%w: subscription %s has no item", ErrIncompleteResponse, sub.ID)
		}
	}

	// A paid selection supersedes a pending move to free.
	if sub.CancelAtPeriodEnd {
		updated, err := s.processor.SetCancelAtPeriodEnd(ctx, sub.ID, false)
		if err != nil {
			return nil, processorError("failed to clear scheduled cancellation", err)
		}
		sub = keepPeriod(updated, sub)
	}

	switch direction {
	case tier.Downgrade:
		return s.scheduleDowngrade(ctx, p, sub, desired, priceID, current.Interval)
	case tier.Lateral:
		return s.keepCurrent(ctx, p, sub, current)
	default:
		return s.upgrade(ctx, p, sub, desired, priceID, current.Interval)
	}
}

func (s *service) dropToFree(ctx context.Context, p *profile.Profile) (*TransitionResult, error) {
	p.Tier = tier.Free
	p.ClearPending()
	if p.SubscriptionID == "" {
		p.BillingInterval = ""
	}
	if err := s.profiles.Save(ctx, p); err != nil {
		return nil, errors.Join(ErrProfileUnavailable, err)
	}
	return &TransitionResult{Mode: ModeFreeImmediate, Tier: tier.Free, Status: p.SubscriptionStatus}, nil
}

// scheduleCancel keeps access through the paid period and records free as pending.
func (s *service) scheduleCancel(ctx context.Context, p *profile.Profile, sub *payment.Subscription) (*TransitionResult, error) {
	if sub.CurrentPeriodEnd.IsZero() {
		return nil, fmt.Errorf("%w: subscription %s has no current period end", ErrIncompleteResponse, sub.ID)
	}

	// A schedule owns the subscription until released; the cancel flag cannot be
	// set while it is attached.
	if sub.ScheduleID != "" {
		if err := s.processor.ReleaseSchedule(ctx, sub.ScheduleID); err != nil {
			return nil, processorError("failed to release schedule", err)
		}
	}

	updated, err := s.processor.SetCancelAtPeriodEnd(ctx, sub.ID, true)
	if err != nil {
		return nil, processorError("failed to schedule cancellation", err)
	}
	updated = keepPeriod(updated, sub)

	p.SetPending(tier.Free, updated.CurrentPeriodEnd)
	p.SubscriptionStatus = string(updated.Status)
	s.persist(ctx, p)

	res := &TransitionResult{
		Mode:           ModeDowngradeScheduled,
		Tier:           p.Tier,
		PendingTier:    tier.Free,
		EffectiveDate:  timePtr(updated.CurrentPeriodEnd),
		Interval:       p.BillingInterval,
		SubscriptionID: updated.ID,
		Status:         string(updated.Status),
	}
	s.notify(ctx, p, noticeFromResult(NoticeDowngradeScheduled, res))
	return res, nil
}

// scheduleDowngrade defers a cheaper tier to the period boundary with a two-phase
// schedule: the current price until the period end, then the new price open-ended.
func (s *service) scheduleDowngrade(ctx context.Context, p *profile.Profile, sub *payment.Subscription, desired tier.Tier, priceID string, interval tier.Interval) (*TransitionResult, error) {
	var (
		sched *payment.Schedule
		err   error
	)
	if sub.ScheduleID != "" {
		sched, err = s.processor.GetSchedule(ctx, sub.ScheduleID)
	} else {
		sched, err = s.processor.CreateScheduleFromSubscription(ctx, sub.ID)
	}
	if err != nil {
		return nil, processorError("failed to obtain schedule", err)
	}
	if len(sched.Phases) == 0 || sched.Phases[0].StartDate.IsZero() {
		return nil, fmt.Errorf("%w: schedule %s has no current phase", ErrIncompleteResponse, sched.ID)
	}

	end := sub.CurrentPeriodEnd
	// The processor rejects any change to the start of a phase already in progress.
	phases := []payment.SchedulePhase{
		{PriceID: sub.PriceID, Quantity: 1, StartDate: sched.Phases[0].StartDate, EndDate: end},
		{PriceID: priceID, Quantity: 1, StartDate: end},
	}
	if _, err := s.processor.UpdateSchedulePhases(ctx, sched.ID, phases); err != nil {
		return nil, processorError("failed to update schedule phases", err)
	}

	p.SetPending(desired, end)
	p.BillingInterval = interval
	p.SubscriptionStatus = string(sub.Status)
	s.persist(ctx, p)

	s.log.InfoContext(ctx, "downgrade scheduled",
		logger.UserID(p.UserID),
		logger.SubscriptionID(sub.ID),
		logger.Tier(desired),
	)

	res := &TransitionResult{
		Mode:           ModeDowngradeScheduled,
		Tier:           p.Tier,
		PendingTier:    desired,
		EffectiveDate:  timePtr(end),
		Interval:       interval,
		SubscriptionID: sub.ID,
		Status:         string(sub.Status),
	}
	s.notify(ctx, p, noticeFromResult(NoticeDowngradeScheduled, res))
	return res, nil
}

// keepCurrent handles a request for the tier already billed: any pending change
// is withdrawn and nothing is charged.
func (s *service) keepCurrent(ctx context.Context, p *profile.Profile, sub *payment.Subscription, current tier.Key) (*TransitionResult, error) {
	if sub.ScheduleID != "" {
		if err := s.processor.ReleaseSchedule(ctx, sub.ScheduleID); err != nil {
			return nil, processorError("failed to release schedule", err)
		}
	}

	if sub.Status.Entitled() {
		p.Tier = current.Tier
	}
	p.ClearPending()
	p.BillingInterval = current.Interval
	p.SubscriptionStatus = string(sub.Status)
	s.persist(ctx, p)

	return &TransitionResult{
		Mode:           ModeUpgraded,
		Tier:           p.Tier,
		Interval:       current.Interval,
		SubscriptionID: sub.ID,
		Status:         string(sub.Status),
	}, nil
}

// upgrade swaps the price now with proration and entitles the new tier only once
// the proration invoice is settled.
func (s *service) upgrade(ctx context.Context, p *profile.Profile, sub *payment.Subscription, desired tier.Tier, priceID string, interval tier.Interval) (*TransitionResult, error) {
	if sub.ScheduleID != "" {
		if err := s.processor.ReleaseSchedule(ctx, sub.ScheduleID); err != nil {
			return nil, processorError("failed to release schedule", err)
		}
	}

	updated, err := s.processor.SwapPrice(ctx, payment.SwapPriceParams{
		SubscriptionID: sub.ID,
		ItemID:         sub.ItemID,
		PriceID:        priceID,
	})
	if err != nil {
		return nil, processorError("failed to swap price", err)
	}

	p.ClearPending()
	p.BillingInterval = interval
	p.SubscriptionStatus = string(updated.Status)

	if updated.LatestInvoiceID == "" {
		s.persist(ctx, p)
		return nil, fmt.Errorf("%w: subscription %s has no proration invoice", ErrIncompleteResponse, updated.ID)
	}

	inv, paid, err := s.settleInvoice(ctx, updated.LatestInvoiceID)
	if err != nil {
		s.persist(ctx, p)
		return nil, err
	}

	if !paid {
		s.persist(ctx, p)
		if inv.ClientSecret == "" {
			return nil, fmt.Errorf("%w: invoice %s has no confirmation secret", ErrIncompleteResponse, inv.ID)
		}
		res := &TransitionResult{
			Mode:           ModePaymentRequired,
			Tier:           p.Tier,
			Interval:       interval,
			SubscriptionID: updated.ID,
			Status:         string(updated.Status),
			ClientSecret:   inv.ClientSecret,
			AmountDue:      inv.AmountRemaining,
			Currency:       inv.Currency,
		}
		s.notify(ctx, p, noticeFromResult(NoticePaymentRequired, res))
		return res, nil
	}

	p.Tier = desired
	s.persist(ctx, p)

	s.log.InfoContext(ctx, "tier upgraded",
		logger.UserID(p.UserID),
		logger.SubscriptionID(updated.ID),
		logger.Tier(desired),
	)

	return &TransitionResult{
		Mode:           ModeUpgraded,
		Tier:           desired,
		Interval:       interval,
		SubscriptionID: updated.ID,
		Status:         string(updated.Status),
	}, nil
}

// settleInvoice finalizes a draft invoice and tries to pay what is due. paid is
// false when the customer still has to act; the returned invoice then carries the
// confirmation secret.
func (s *service) settleInvoice(ctx context.Context, invoiceID string) (*payment.Invoice, bool, error) {
	inv, err := s.processor.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, false, processorError("failed to get invoice", err)
	}
	if inv.Status == payment.InvoiceDraft {
		if inv, err = s.processor.FinalizeInvoice(ctx, inv.ID); err != nil {
			return nil, false, processorError("failed to finalize invoice", err)
		}
	}
	if !inv.Due() {
		return inv, true, nil
	}

	paidInv, err := s.processor.PayInvoice(ctx, inv.ID)
	switch {
	case err == nil:
		if !paidInv.Due() {
			return paidInv, true, nil
		}
	case errors.Is(err, payment.ErrPaymentActionRequired), errors.Is(err, payment.ErrPaymentFailed):
		s.log.InfoContext(ctx, "invoice needs customer action",
			logger.Error(err),
			slog.String("invoice_id", inv.ID),
		)
	default:
		return nil, false, processorError("failed to pay invoice", err)
	}

	// Re-read to pick up the payment's confirmation secret.
	fresh, err := s.processor.GetInvoice(ctx, inv.ID)
	if err != nil {
		return nil, false, processorError("failed to get invoice", err)
	}
	return fresh, !fresh.Due(), nil
}

// keepPeriod fills period fields missing from an update response with the values
// read before the update.
func keepPeriod(updated, before *payment.Subscription) *payment.Subscription {
	if updated.CurrentPeriodEnd.IsZero() {
		updated.CurrentPeriodEnd = before.CurrentPeriodEnd
	}
	if updated.CurrentPeriodStart.IsZero() {
		updated.CurrentPeriodStart = before.CurrentPeriodStart
	}
	if updated.PriceID == "" {
		updated.PriceID = before.PriceID
		updated.ItemID = before.ItemID
	}
	return updated
}

func (s *service) record(operation string, res *TransitionResult, err error) {
	switch {
	case err != nil:
		s.metrics.outcome(operation, Code(err))
	case res != nil:
		s.metrics.outcome(operation, string(res.Mode))
	}
}
