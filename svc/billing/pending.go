package billing

import (
	"context"
	"errors"

	"github.com/tutorhub/tutorhub/pkg/logger"
)

// CancelPendingChange withdraws a scheduled downgrade or cancellation. The
// schedule is released and the cancel flag cleared; the entitled tier is then
// whatever the subscription is billed at right now.
func (s *service) CancelPendingChange(ctx context.Context, userID string) (res *CancelResult, err error) {
	defer func() {
		if err != nil {
			s.metrics.outcome("cancel_pending", Code(err))
		} else {
			s.metrics.outcome("cancel_pending", "ok")
		}
	}()

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

	if sub.ScheduleID == "" && !sub.CancelAtPeriodEnd && !p.HasPending() {
		return nil, ErrNoPendingChange
	}
	key, err := s.currentKey(sub)
	if err != nil {
		return nil, err
	}

	mutated := false
	if sub.ScheduleID != "" {
		if err := s.processor.ReleaseSchedule(ctx, sub.ScheduleID); err != nil {
			return nil, processorError("failed to release schedule", err)
		}
		mutated = true
	}
	if sub.CancelAtPeriodEnd {
		updated, err := s.processor.SetCancelAtPeriodEnd(ctx, sub.ID, false)
		if err != nil {
			return nil, processorError("failed to clear scheduled cancellation", err)
		}
		sub = keepPeriod(updated, sub)
		mutated = true
	}

	if sub.Status.Entitled() {
		p.Tier = key.Tier
	}
	p.ClearPending()
	p.BillingInterval = key.Interval
	p.SubscriptionStatus = string(sub.Status)

	if mutated {
		s.persist(ctx, p)
	} else if err := s.profiles.Save(ctx, p); err != nil {
		// Only stale profile fields were cleared; nothing changed at the processor.
		return nil, errors.Join(ErrProfileUnavailable, err)
	}

	s.log.InfoContext(ctx, "pending change canceled",
		logger.UserID(userID),
		logger.SubscriptionID(sub.ID),
		logger.Tier(p.Tier),
	)

	return &CancelResult{OK: true, Tier: p.Tier, Interval: key.Interval}, nil
}

