package billing_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tutorhub/tutorhub/pkg/payment"
	"github.com/tutorhub/tutorhub/pkg/profile"
	"github.com/tutorhub/tutorhub/pkg/tier"
	"github.com/tutorhub/tutorhub/svc/billing"
)

func TestRequestTransition_WithoutSubscription(t *testing.T) {
	t.Parallel()

	t.Run("free is applied immediately", func(t *testing.T) {
		t.Parallel()

		u := freeUser("user_1")
		u.UnsafeMetadata = map[string]any{
			profile.KeyTier:                 "lessons",
			profile.KeyPendingTier:          "free",
			profile.KeyPendingTierEffective: periodEnd.Format(time.RFC3339),
		}
		f := newFixture(t, u)

		res, err := f.svc.RequestTransition(context.Background(), "user_1", tier.Free)
		require.NoError(t, err)
		assert.Equal(t, billing.ModeFreeImmediate, res.Mode)
		assert.Equal(t, tier.Free, res.Tier)

		p := f.profile(t, "user_1")
		assert.Equal(t, tier.Free, p.Tier)
		assert.False(t, p.HasPending())
	})

	t.Run("paid tier needs the subscribe flow", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, freeUser("user_1"))

		_, err := f.svc.RequestTransition(context.Background(), "user_1", tier.Lessons)
		assert.ErrorIs(t, err, billing.ErrNoActiveSubscription)
		assert.Equal(t, "no_active_subscription", billing.Code(err))
	})
}

func TestRequestTransition_Validation(t *testing.T) {
	t.Parallel()

	f := newFixture(t, freeUser("user_1"))

	_, err := f.svc.RequestTransition(context.Background(), "user_1", tier.Tier("platinum"))
	assert.ErrorIs(t, err, billing.ErrInvalidTier)

	_, err = f.svc.RequestTransition(context.Background(), "", tier.Free)
	assert.ErrorIs(t, err, billing.ErrUnauthorized)

	_, err = f.svc.RequestTransition(context.Background(), "ghost", tier.Free)
	assert.ErrorIs(t, err, billing.ErrUnauthorized)
}

func TestRequestTransition_OwnerMismatchIsForbidden(t *testing.T) {
	t.Parallel()

	f := newFixture(t, paidUser("user_1", tier.Lessons, "sub_1"))
	f.proc.On("GetSubscription", mock.Anything, "sub_1").
		Return(activeSub("sub_1", "user_2", priceLessonsMonthly), nil)

	_, err := f.svc.RequestTransition(context.Background(), "user_1", tier.LessonsAI)
	assert.ErrorIs(t, err, billing.ErrForbidden)
	f.proc.AssertNotCalled(t, "SwapPrice", mock.Anything, mock.Anything)
}

func TestRequestTransition_ScheduledDowngrade(t *testing.T) {
	t.Parallel()

	f := newFixture(t, paidUser("user_1", tier.LessonsAI, "sub_1"))
	sub := activeSub("sub_1", "user_1", priceAIMonthly)
	phaseStart := time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)

	f.proc.On("GetSubscription", mock.Anything, "sub_1").Return(sub, nil).Once()
	f.proc.On("CreateScheduleFromSubscription", mock.Anything, "sub_1").Return(&payment.Schedule{
		ID:             "sub_sched_1",
		SubscriptionID: "sub_1",
		Phases:         []payment.SchedulePhase{{PriceID: priceAIMonthly, Quantity: 1, StartDate: phaseStart, EndDate: periodEnd}},
	}, nil).Once()
	wantPhases := []payment.SchedulePhase{
		{PriceID: priceAIMonthly, Quantity: 1, StartDate: phaseStart, EndDate: periodEnd},
		{PriceID: priceLessonsMonthly, Quantity: 1, StartDate: periodEnd},
	}
	f.proc.On("UpdateSchedulePhases", mock.Anything, "sub_sched_1", wantPhases).
		Return(&payment.Schedule{ID: "sub_sched_1", Phases: wantPhases}, nil).Once()

	res, err := f.svc.RequestTransition(context.Background(), "user_1", tier.Lessons)
	require.NoError(t, err)
	assert.Equal(t, billing.ModeDowngradeScheduled, res.Mode)
	require.NotNil(t, res.EffectiveDate)
	assert.True(t, periodEnd.Equal(*res.EffectiveDate))
	assert.Equal(t, tier.LessonsAI, res.Tier)
	assert.Equal(t, tier.Lessons, res.PendingTier)

	// Entitlement does not move until the boundary.
	p := f.profile(t, "user_1")
	assert.Equal(t, tier.LessonsAI, p.Tier)
	assert.Equal(t, tier.Lessons, p.PendingTier)
	assert.True(t, periodEnd.Equal(p.PendingTierEffective))

	// Withdrawing the change releases the schedule and restores the profile.
	f.proc.On("GetSubscription", mock.Anything, "sub_1").
		Return(with(sub, func(s *payment.Subscription) { s.ScheduleID = "sub_sched_1" }), nil).Once()
	f.proc.On("ReleaseSchedule", mock.Anything, "sub_sched_1").Return(nil).Once()

	cancel, err := f.svc.CancelPendingChange(context.Background(), "user_1")
	require.NoError(t, err)
	assert.Equal(t, &billing.CancelResult{OK: true, Tier: tier.LessonsAI, Interval: tier.Monthly}, cancel)

	p = f.profile(t, "user_1")
	assert.Equal(t, tier.LessonsAI, p.Tier)
	assert.False(t, p.HasPending())
	assert.NotContains(t, f.metadata(t, "user_1"), profile.KeyPendingTier)
}

func TestRequestTransition_RescheduleKeepsPhaseStart(t *testing.T) {
	t.Parallel()

	f := newFixture(t, paidUser("user_1", tier.LessonsAI, "sub_1"))
	sub := with(activeSub("sub_1", "user_1", priceAIMonthly), func(s *payment.Subscription) {
		s.ScheduleID = "sub_sched_1"
	})
	phaseStart := time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC)

	f.proc.On("GetSubscription", mock.Anything, "sub_1").Return(sub, nil)
	f.proc.On("GetSchedule", mock.Anything, "sub_sched_1").Return(&payment.Schedule{
		ID: "sub_sched_1",
		Phases: []payment.SchedulePhase{
			{PriceID: priceAIMonthly, Quantity: 1, StartDate: phaseStart, EndDate: periodEnd},
			{PriceID: priceLessonsMonthly, Quantity: 1, StartDate: periodEnd},
		},
	}, nil)
	f.proc.On("UpdateSchedulePhases", mock.Anything, "sub_sched_1", mock.MatchedBy(func(phases []payment.SchedulePhase) bool {
		return len(phases) == 2 && phases[0].StartDate.Equal(phaseStart) && phases[1].PriceID == priceLessonsMonthly
	})).Return(&payment.Schedule{ID: "sub_sched_1"}, nil)

	res, err := f.svc.RequestTransition(context.Background(), "user_1", tier.Lessons)
	require.NoError(t, err)
	assert.Equal(t, billing.ModeDowngradeScheduled, res.Mode)
	f.proc.AssertNotCalled(t, "CreateScheduleFromSubscription", mock.Anything, mock.Anything)
}

func TestRequestTransition_EmptyScheduleIsFatal(t *testing.T) {
	t.Parallel()

	f := newFixture(t, paidUser("user_1", tier.LessonsAI, "sub_1"))
	f.proc.On("GetSubscription", mock.Anything, "sub_1").Return(activeSub("sub_1", "user_1", priceAIMonthly), nil)
	f.proc.On("CreateScheduleFromSubscription", mock.Anything, "sub_1").Return(&payment.Schedule{ID: "sub_sched_1"}, nil)

	_, err := f.svc.RequestTransition(context.Background(), "user_1", tier.Lessons)
	assert.ErrorIs(t, err, billing.ErrIncompleteResponse)
	f.proc.AssertNotCalled(t, "UpdateSchedulePhases", mock.Anything, mock.Anything, mock.Anything)
}

func TestRequestTransition_DowngradeToFree(t *testing.T) {
	t.Parallel()

	f := newFixture(t, paidUser("user_1", tier.Lessons, "sub_1"))
	sub := activeSub("sub_1", "user_1", priceLessonsMonthly)
	f.proc.On("GetSubscription", mock.Anything, "sub_1").Return(sub, nil)
	f.proc.On("SetCancelAtPeriodEnd", mock.Anything, "sub_1", true).
		Return(with(sub, func(s *payment.Subscription) { s.CancelAtPeriodEnd = true }), nil)

	res, err := f.svc.RequestTransition(context.Background(), "user_1", tier.Free)
	require.NoError(t, err)
	assert.Equal(t, billing.ModeDowngradeScheduled, res.Mode)
	assert.Equal(t, tier.Free, res.PendingTier)

	p := f.profile(t, "user_1")
	assert.Equal(t, tier.Lessons, p.Tier)
	assert.Equal(t, tier.Free, p.PendingTier)
	assert.True(t, periodEnd.Equal(p.PendingTierEffective))
	assert.Equal(t, "sub_1", p.SubscriptionID)
}

func TestRequestTransition_PaidChoiceClearsScheduledCancellation(t *testing.T) {
	t.Parallel()

	u := paidUser("user_1", tier.Lessons, "sub_1")
	u.UnsafeMetadata[profile.KeyPendingTier] = "free"
	f := newFixture(t, u)

	sub := with(activeSub("sub_1", "user_1", priceLessonsMonthly), func(s *payment.Subscription) {
		s.CancelAtPeriodEnd = true
	})
	f.proc.On("GetSubscription", mock.Anything, "sub_1").Return(sub, nil)
	f.proc.On("SetCancelAtPeriodEnd", mock.Anything, "sub_1", false).
		Return(activeSub("sub_1", "user_1", priceLessonsMonthly), nil)

	res, err := f.svc.RequestTransition(context.Background(), "user_1", tier.Lessons)
	require.NoError(t, err)
	assert.Equal(t, billing.ModeUpgraded, res.Mode)

	p := f.profile(t, "user_1")
	assert.Equal(t, tier.Lessons, p.Tier)
	assert.False(t, p.HasPending())
}

func TestRequestTransition_Upgrade(t *testing.T) {
	t.Parallel()

	t.Run("payment settles synchronously", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, paidUser("user_1", tier.Lessons, "sub_1"))
		sub := activeSub("sub_1", "user_1", priceLessonsMonthly)
		f.proc.On("GetSubscription", mock.Anything, "sub_1").Return(sub, nil)
		f.proc.On("SwapPrice", mock.Anything, payment.SwapPriceParams{
			SubscriptionID: "sub_1", ItemID: "si_sub_1", PriceID: priceAIMonthly,
		}).Return(with(sub, func(s *payment.Subscription) {
			s.PriceID = priceAIMonthly
			s.LatestInvoiceID = "in_proration"
		}), nil)
		f.proc.On("GetInvoice", mock.Anything, "in_proration").Return(&payment.Invoice{
			ID: "in_proration", Status: payment.InvoiceDraft, AmountDue: 1000, AmountRemaining: 1000, Currency: "usd",
		}, nil)
		f.proc.On("FinalizeInvoice", mock.Anything, "in_proration").Return(&payment.Invoice{
			ID: "in_proration", Status: payment.InvoiceOpen, AmountDue: 1000, AmountRemaining: 1000, Currency: "usd",
		}, nil)
		f.proc.On("PayInvoice", mock.Anything, "in_proration").Return(&payment.Invoice{
			ID: "in_proration", Status: payment.InvoicePaid, AmountDue: 1000, Currency: "usd",
		}, nil)

		res, err := f.svc.RequestTransition(context.Background(), "user_1", tier.LessonsAI)
		require.NoError(t, err)
		assert.Equal(t, billing.ModeUpgraded, res.Mode)
		assert.Equal(t, tier.LessonsAI, res.Tier)
		assert.Equal(t, tier.LessonsAI, f.profile(t, "user_1").Tier)
	})

	t.Run("payment needs customer action", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, paidUser("user_1", tier.Lessons, "sub_1"))
		sub := activeSub("sub_1", "user_1", priceLessonsMonthly)
		f.proc.On("GetSubscription", mock.Anything, "sub_1").Return(sub, nil)
		f.proc.On("SwapPrice", mock.Anything, mock.Anything).Return(with(sub, func(s *payment.Subscription) {
			s.PriceID = priceAIMonthly
			s.LatestInvoiceID = "in_proration"
		}), nil)
		f.proc.On("GetInvoice", mock.Anything, "in_proration").Return(&payment.Invoice{
			ID: "in_proration", Status: payment.InvoiceOpen, AmountDue: 1000, AmountRemaining: 1000, Currency: "usd",
		}, nil).Once()
		f.proc.On("PayInvoice", mock.Anything, "in_proration").
			Return(nil, errors.Join(payment.ErrPaymentActionRequired, errors.New("authentication required")))
		f.proc.On("GetInvoice", mock.Anything, "in_proration").Return(&payment.Invoice{
			ID: "in_proration", Status: payment.InvoiceOpen, AmountDue: 1000, AmountRemaining: 1000,
			Currency: "usd", ClientSecret: "pi_secret_123",
		}, nil).Once()

		res, err := f.svc.RequestTransition(context.Background(), "user_1", tier.LessonsAI)
		require.NoError(t, err)
		assert.Equal(t, billing.ModePaymentRequired, res.Mode)
		assert.Equal(t, "pi_secret_123", res.ClientSecret)
		assert.Equal(t, int64(1000), res.AmountDue)
		assert.Equal(t, "usd", res.Currency)
		assert.Equal(t, tier.Lessons, res.Tier)

		assert.Equal(t, tier.Lessons, f.profile(t, "user_1").Tier, "unpaid upgrade must not entitle")
	})

	t.Run("processor failure surfaces", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, paidUser("user_1", tier.Lessons, "sub_1"))
		f.proc.On("GetSubscription", mock.Anything, "sub_1").Return(activeSub("sub_1", "user_1", priceLessonsMonthly), nil)
		f.proc.On("SwapPrice", mock.Anything, mock.Anything).
			Return(nil, errors.Join(payment.ErrProcessor, errors.New("No such price")))

		_, err := f.svc.RequestTransition(context.Background(), "user_1", tier.LessonsAI)
		assert.ErrorIs(t, err, billing.ErrProcessor)
		assert.Equal(t, "processor_error", billing.Code(err))
		assert.Equal(t, tier.Lessons, f.profile(t, "user_1").Tier)
	})
}

func TestRequestTransition_RepeatedUpgradeTracksOneSubscription(t *testing.T) {
	t.Parallel()

	f := newFixture(t, paidUser("user_1", tier.Lessons, "sub_1"))
	before := activeSub("sub_1", "user_1", priceLessonsMonthly)
	after := with(before, func(s *payment.Subscription) {
		s.PriceID = priceAIMonthly
		s.LatestInvoiceID = "in_proration"
	})

	f.proc.On("GetSubscription", mock.Anything, "sub_1").Return(before, nil).Once()
	f.proc.On("SwapPrice", mock.Anything, mock.Anything).Return(after, nil).Once()
	f.proc.On("GetInvoice", mock.Anything, "in_proration").
		Return(&payment.Invoice{ID: "in_proration", Status: payment.InvoicePaid, Currency: "usd"}, nil).Once()
	f.proc.On("GetSubscription", mock.Anything, "sub_1").Return(after, nil).Once()

	for range 2 {
		res, err := f.svc.RequestTransition(context.Background(), "user_1", tier.LessonsAI)
		require.NoError(t, err)
		assert.Equal(t, billing.ModeUpgraded, res.Mode)
		assert.Equal(t, "sub_1", res.SubscriptionID)
	}

	f.proc.AssertNumberOfCalls(t, "SwapPrice", 1)
	f.proc.AssertNotCalled(t, "CreateSubscription", mock.Anything, mock.Anything)
	p := f.profile(t, "user_1")
	assert.Equal(t, "sub_1", p.SubscriptionID)
	assert.Equal(t, tier.LessonsAI, p.Tier)
}

func TestRequestTransition_MissingPriceFailsClosed(t *testing.T) {
	t.Parallel()

	catalog, err := tier.NewCatalog(tier.MapSource{
		{Tier: tier.LessonsAI, Interval: tier.Yearly}: priceAIYearly,
	})
	require.NoError(t, err)

	proc := &mockProcessor{}
	dir := profile.NewMemoryDirectory(paidUser("user_1", tier.LessonsAI, "sub_1"))
	svc := billing.NewService(catalog, proc, profile.NewStore(dir))

	proc.On("GetSubscription", mock.Anything, "sub_1").Return(with(activeSub("sub_1", "user_1", priceAIYearly), func(s *payment.Subscription) {
		s.CancelAtPeriodEnd = true
	}), nil)

	_, err = svc.RequestTransition(context.Background(), "user_1", tier.Lessons)
	assert.ErrorIs(t, err, billing.ErrMissingPriceConfiguration)
	// No mutation happens after a failed precondition.
	proc.AssertNotCalled(t, "SetCancelAtPeriodEnd", mock.Anything, mock.Anything, mock.Anything)
	proc.AssertNotCalled(t, "CreateScheduleFromSubscription", mock.Anything, mock.Anything)
}

func TestRequestTransition_UnknownLivePrice(t *testing.T) {
	t.Parallel()

	f := newFixture(t, paidUser("user_1", tier.Lessons, "sub_1"))
	f.proc.On("GetSubscription", mock.Anything, "sub_1").Return(activeSub("sub_1", "user_1", "price_legacy"), nil)

	_, err := f.svc.RequestTransition(context.Background(), "user_1", tier.LessonsAI)
	assert.ErrorIs(t, err, billing.ErrMissingPriceConfiguration)
}

type failingWrites struct {
	*profile.MemoryDirectory
}

func (failingWrites) UpdateUser(context.Context, string, profile.UserUpdate) error {
	return errors.New("identity provider unavailable")
}

func TestRequestTransition_ProfileWriteFailureStillSucceeds(t *testing.T) {
	t.Parallel()

	dir := profile.NewMemoryDirectory(paidUser("user_1", tier.Lessons, "sub_1"))
	proc := &mockProcessor{}
	svc := billing.NewService(newCatalog(t), proc, profile.NewStore(failingWrites{dir}))

	sub := activeSub("sub_1", "user_1", priceLessonsMonthly)
	proc.On("GetSubscription", mock.Anything, "sub_1").Return(sub, nil)
	proc.On("SetCancelAtPeriodEnd", mock.Anything, "sub_1", true).
		Return(with(sub, func(s *payment.Subscription) { s.CancelAtPeriodEnd = true }), nil)

	res, err := svc.RequestTransition(context.Background(), "user_1", tier.Free)
	require.NoError(t, err)
	assert.Equal(t, billing.ModeDowngradeScheduled, res.Mode)
	proc.AssertExpectations(t)
}

func TestRequestTransition_LeaseBusy(t *testing.T) {
	t.Parallel()

	f := newFixture(t, paidUser("user_1", tier.Lessons, "sub_1"))
	release, ok, err := f.locker.TryAcquire(context.Background(), "billing:user_1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	defer release()

	_, err = f.svc.RequestTransition(context.Background(), "user_1", tier.LessonsAI)
	assert.ErrorIs(t, err, billing.ErrTransitionInProgress)
	assert.Equal(t, "transition_in_progress", billing.Code(err))
}

func TestRequestTransition_NotifiesScheduledDowngrade(t *testing.T) {
	t.Parallel()

	notifier := &mockNotifier{}
	proc := &mockProcessor{}
	dir := profile.NewMemoryDirectory(paidUser("user_1", tier.Lessons, "sub_1"))
	svc := billing.NewService(newCatalog(t), proc, profile.NewStore(dir), billing.WithNotifier(notifier))

	sub := activeSub("sub_1", "user_1", priceLessonsMonthly)
	proc.On("GetSubscription", mock.Anything, "sub_1").Return(sub, nil)
	proc.On("SetCancelAtPeriodEnd", mock.Anything, "sub_1", true).Return(sub, nil)
	notifier.On("Notify", mock.Anything, mock.MatchedBy(func(n billing.Notice) bool {
		return n.Kind == billing.NoticeDowngradeScheduled &&
			n.Email == "user_1@example.com" &&
			n.Name == "Ada Lovelace" &&
			n.PendingTier == tier.Free &&
			n.EffectiveDate.Equal(periodEnd)
	})).Return(errors.New("mail is down"))

	_, err := svc.RequestTransition(context.Background(), "user_1", tier.Free)
	require.NoError(t, err, "notice failures are not fatal")
	notifier.AssertExpectations(t)
}
