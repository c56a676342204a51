package billing

import (
	"time"

	"github.com/tutorhub/tutorhub/pkg/tier"
)

// Mode tells the client what a billing change did.
type Mode string

const (
	ModeFreeImmediate      Mode = "free_immediate"
	ModeDowngradeScheduled Mode = "downgrade_scheduled"
	ModeUpgraded           Mode = "upgraded"
	ModeSubscribed         Mode = "subscribed"
	ModePaymentRequired    Mode = "payment_required"
)

// TransitionResult describes the outcome of a transition, subscription or payment
// confirmation. ClientSecret, AmountDue and Currency are set only for
// ModePaymentRequired; the client completes payment out of band with them.
type TransitionResult struct {
	Mode           Mode          `json:"mode"`
	Tier           tier.Tier     `json:"tier"`
	PendingTier    tier.Tier     `json:"pendingTier,omitempty"`
	EffectiveDate  *time.Time    `json:"effectiveDate,omitempty"`
	Interval       tier.Interval `json:"interval,omitempty"`
	SubscriptionID string        `json:"subscriptionId,omitempty"`
	Status         string        `json:"status,omitempty"`
	ClientSecret   string        `json:"clientSecret,omitempty"`
	AmountDue      int64         `json:"amountDue,omitempty"`
	Currency       string        `json:"currency,omitempty"`
}

// PreviewAction classifies a previewed transition.
type PreviewAction string

const (
	ActionSignup    PreviewAction = "signup"
	ActionUpgrade   PreviewAction = "upgrade"
	ActionDowngrade PreviewAction = "downgrade"
	ActionCancel    PreviewAction = "cancel"
	ActionNone      PreviewAction = "none"
)

// PreviewResult is what a transition would cost. Amounts are minor currency units.
// DueNow is charged at confirmation; NextAmount is the recurring charge afterwards.
type PreviewResult struct {
	Action                PreviewAction `json:"action"`
	CurrentTier           tier.Tier     `json:"currentTier"`
	TargetTier            tier.Tier     `json:"targetTier"`
	Interval              tier.Interval `json:"interval,omitempty"`
	DueNow                int64         `json:"dueNow"`
	NextAmount            int64         `json:"nextAmount"`
	Currency              string        `json:"currency,omitempty"`
	EffectiveDate         *time.Time    `json:"effectiveDate,omitempty"`
	RequiresPaymentMethod bool          `json:"requiresPaymentMethod"`
}

// SubscribeParams starts a new paid subscription.
type SubscribeParams struct {
	UserID          string
	Tier            tier.Tier
	Interval        tier.Interval
	PaymentMethodID string
}

// CancelResult is returned after a pending change was withdrawn.
type CancelResult struct {
	OK       bool          `json:"ok"`
	Tier     tier.Tier     `json:"tier"`
	Interval tier.Interval `json:"interval,omitempty"`
}

// Summary is the billing page view of a user.
type Summary struct {
	Tier                 tier.Tier         `json:"tier"`
	PendingTier          tier.Tier         `json:"pendingTier,omitempty"`
	PendingTierEffective *time.Time        `json:"pendingTierEffective,omitempty"`
	Interval             tier.Interval     `json:"interval,omitempty"`
	SubscriptionStatus   string            `json:"subscriptionStatus,omitempty"`
	Subscription         *SubscriptionView `json:"subscription,omitempty"`
	HasPaymentMethod     bool              `json:"hasPaymentMethod"`
}

// SubscriptionView is the live processor subscription as shown to its owner.
type SubscriptionView struct {
	ID                string    `json:"id"`
	Status            string    `json:"status"`
	Tier              tier.Tier `json:"tier,omitempty"`
	Amount            int64     `json:"amount"`
	Currency          string    `json:"currency"`
	CurrentPeriodEnd  time.Time `json:"currentPeriodEnd"`
	CancelAtPeriodEnd bool      `json:"cancelAtPeriodEnd"`
	Scheduled         bool      `json:"scheduled"`
}

// ReconcileReport counts the outcome of one sweep.
type ReconcileReport struct {
	Checked int `json:"checked"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}
