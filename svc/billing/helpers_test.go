package billing_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tutorhub/tutorhub/pkg/lease"
	"github.com/tutorhub/tutorhub/pkg/payment"
	"github.com/tutorhub/tutorhub/pkg/profile"
	"github.com/tutorhub/tutorhub/pkg/tier"
	"github.com/tutorhub/tutorhub/svc/billing"
)

const (
	priceLessonsMonthly = "price_lessons_m"
	priceAIMonthly      = "price_ai_m"
	priceLessonsYearly  = "price_lessons_y"
	priceAIYearly       = "price_ai_y"
)

var (
	periodStart = time.Date(2026, time.September, 14, 9, 30, 0, 0, time.UTC)
	periodEnd   = time.Date(2026, time.October, 14, 9, 30, 0, 0, time.UTC)
)

func newCatalog(t *testing.T) *tier.Catalog {
	t.Helper()
	c, err := tier.NewCatalog(tier.MapSource{
		{Tier: tier.Lessons, Interval: tier.Monthly}:   priceLessonsMonthly,
		{Tier: tier.LessonsAI, Interval: tier.Monthly}: priceAIMonthly,
		{Tier: tier.Lessons, Interval: tier.Yearly}:    priceLessonsYearly,
		{Tier: tier.LessonsAI, Interval: tier.Yearly}:  priceAIYearly,
	})
	require.NoError(t, err)
	return c
}

type fixture struct {
	proc   *mockProcessor
	dir    *profile.MemoryDirectory
	store  *profile.Store
	locker *lease.Memory
	svc    billing.Service
}

func newFixture(t *testing.T, users ...profile.User) *fixture {
	t.Helper()
	f := &fixture{
		proc:   &mockProcessor{},
		dir:    profile.NewMemoryDirectory(users...),
		locker: lease.NewMemory(),
	}
	f.store = profile.NewStore(f.dir)
	f.svc = billing.NewService(newCatalog(t), f.proc, f.store, billing.WithLocker(f.locker))
	t.Cleanup(func() { f.proc.AssertExpectations(t) })
	return f
}

func (f *fixture) profile(t *testing.T, userID string) *profile.Profile {
	t.Helper()
	p, err := f.store.Load(context.Background(), userID)
	require.NoError(t, err)
	return p
}

func (f *fixture) metadata(t *testing.T, userID string) map[string]any {
	t.Helper()
	u, err := f.dir.GetUser(context.Background(), userID)
	require.NoError(t, err)
	return u.UnsafeMetadata
}

func freeUser(id string) profile.User {
	return profile.User{ID: id, Email: id + "@example.com", FirstName: "Ada", LastName: "Lovelace"}
}

func paidUser(id string, t tier.Tier, subscriptionID string) profile.User {
	u := freeUser(id)
	u.UnsafeMetadata = map[string]any{
		profile.KeyTier:               string(t),
		profile.KeyCustomerID:         "cus_" + id,
		profile.KeySubscriptionID:     subscriptionID,
		profile.KeyBillingInterval:    string(tier.Monthly),
		profile.KeySubscriptionStatus: "active",
	}
	return u
}

func activeSub(id, owner, priceID string) *payment.Subscription {
	return &payment.Subscription{
		ID:                 id,
		CustomerID:         "cus_" + owner,
		OwnerID:            owner,
		Status:             payment.StatusActive,
		ItemID:             "si_" + id,
		PriceID:            priceID,
		Interval:           "month",
		UnitAmount:         2999,
		Currency:           "usd",
		CurrentPeriodStart: periodStart,
		CurrentPeriodEnd:   periodEnd,
		LatestInvoiceID:    "in_" + id,
	}
}

func with(sub *payment.Subscription, fn func(s *payment.Subscription)) *payment.Subscription {
	cp := *sub
	fn(&cp)
	return &cp
}
