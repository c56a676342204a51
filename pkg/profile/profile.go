package profile

import (
	"strings"
	"time"

	"github.com/tutorhub/tutorhub/pkg/tier"
)

// Metadata keys of the billing fields inside the unsafe metadata bag.
const (
	KeyTier                 = "subscriptionTier"
	KeyPendingTier          = "pendingTier"
	KeyPendingTierEffective = "pendingTierEffective"
	KeyBillingInterval      = "billingInterval"
	KeyCustomerID           = "stripeCustomerId"
	KeySubscriptionID       = "stripeSubscriptionId"
	KeySubscriptionStatus   = "subscriptionStatus"
)

// Profile is a user's billing state.
//
// Tier is the tier the user is entitled to right now. PendingTier is set only while a
// scheduled change exists with the processor; PendingTierEffective is its boundary.
// SubscriptionStatus is a display mirror and must not drive authorization.
type Profile struct {
	UserID    string
	Email     string
	FirstName string
	LastName  string

	Tier                 tier.Tier
	PendingTier          tier.Tier
	PendingTierEffective time.Time
	BillingInterval      tier.Interval
	CustomerID           string
	SubscriptionID       string
	SubscriptionStatus   string

	// customer id as loaded, used to keep CustomerID write-once
	loadedCustomerID string
}

// HasPending reports whether a scheduled change is recorded.
func (p *Profile) HasPending() bool { return p.PendingTier != "" }

// SetPending records a scheduled change taking effect at at.
func (p *Profile) SetPending(t tier.Tier, at time.Time) {
	p.PendingTier = t
	p.PendingTierEffective = at.UTC()
}

// ClearPending drops any recorded scheduled change.
func (p *Profile) ClearPending() {
	p.PendingTier = ""
	p.PendingTierEffective = time.Time{}
}

// ClearSubscription forgets the tracked subscription. The customer id is kept.
func (p *Profile) ClearSubscription() {
	p.SubscriptionID = ""
	p.ClearPending()
}

// DisplayName joins the first and last name.
func (p *Profile) DisplayName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

func decode(u *User) *Profile {
	md := u.UnsafeMetadata
	p := &Profile{
		UserID:             u.ID,
		Email:              u.Email,
		FirstName:          u.FirstName,
		LastName:           u.LastName,
		Tier:               tier.Free,
		CustomerID:         stringValue(md[KeyCustomerID]),
		SubscriptionID:     stringValue(md[KeySubscriptionID]),
		SubscriptionStatus: stringValue(md[KeySubscriptionStatus]),
	}
	p.loadedCustomerID = p.CustomerID

	// Unknown tier strings never grant entitlement.
	if t, err := tier.Parse(stringValue(md[KeyTier])); err == nil {
		p.Tier = t
	}
	if t, err := tier.Parse(stringValue(md[KeyPendingTier])); err == nil {
		p.PendingTier = t
		p.PendingTierEffective = timeValue(md[KeyPendingTierEffective])
	}
	if raw := stringValue(md[KeyBillingInterval]); raw != "" {
		if i, err := tier.ParseInterval(raw); err == nil {
			p.BillingInterval = i
		}
	}

	return p
}

// encode returns the metadata patch for p. Cleared fields map to nil so the
// directory removes them. The customer id is never removed.
func encode(p *Profile) map[string]any {
	patch := map[string]any{
		KeyTier:                 string(p.Tier),
		KeyPendingTier:          nil,
		KeyPendingTierEffective: nil,
		KeyBillingInterval:      nil,
		KeySubscriptionID:       nil,
		KeySubscriptionStatus:   nil,
	}
	if p.Tier == "" {
		patch[KeyTier] = string(tier.Free)
	}
	if p.PendingTier != "" {
		patch[KeyPendingTier] = string(p.PendingTier)
		if !p.PendingTierEffective.IsZero() {
			patch[KeyPendingTierEffective] = p.PendingTierEffective.UTC().Format(time.RFC3339)
		}
	}
	if p.BillingInterval != "" {
		patch[KeyBillingInterval] = string(p.BillingInterval)
	}
	if p.CustomerID != "" {
		patch[KeyCustomerID] = p.CustomerID
	}
	if p.SubscriptionID != "" {
		patch[KeySubscriptionID] = p.SubscriptionID
	}
	if p.SubscriptionStatus != "" {
		patch[KeySubscriptionStatus] = p.SubscriptionStatus
	}
	return patch
}

func stringValue(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// timeValue accepts RFC3339 strings and unix seconds as stored by older writers.
func timeValue(v any) time.Time {
	switch t := v.(type) {
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		if err != nil {
			return time.Time{}
		}
		return parsed.UTC()
	case time.Time:
		return t.UTC()
	case float64:
		return time.Unix(int64(t), 0).UTC()
	case int64:
		return time.Unix(t, 0).UTC()
	case int32:
		return time.Unix(int64(t), 0).UTC()
	case int:
		return time.Unix(int64(t), 0).UTC()
	}
	return time.Time{}
}
