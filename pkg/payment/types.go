package payment

import "time"

// OwnerMetadataKey is the metadata key tagging processor objects with the owning user id.
const OwnerMetadataKey = "userId"

// SubscriptionStatus mirrors the processor's subscription status.
type SubscriptionStatus string

const (
	StatusActive            SubscriptionStatus = "active"
	StatusTrialing          SubscriptionStatus = "trialing"
	StatusPastDue           SubscriptionStatus = "past_due"
	StatusIncomplete        SubscriptionStatus = "incomplete"
	StatusIncompleteExpired SubscriptionStatus = "incomplete_expired"
	StatusUnpaid            SubscriptionStatus = "unpaid"
	StatusPaused            SubscriptionStatus = "paused"
	StatusCanceled          SubscriptionStatus = "canceled"
)

// Entitled reports whether the status grants access to the subscribed tier.
func (s SubscriptionStatus) Entitled() bool {
	return s == StatusActive || s == StatusTrialing
}

// Terminal reports whether the subscription can no longer be changed.
func (s SubscriptionStatus) Terminal() bool {
	return s == StatusCanceled || s == StatusIncompleteExpired
}

// Customer is a processor customer.
type Customer struct {
	ID                     string
	Email                  string
	OwnerID                string
	DefaultPaymentMethodID string
}

// Subscription is the typed view of a processor subscription. Only single-item
// subscriptions are modelled; ItemID and PriceID describe that item.
type Subscription struct {
	ID                     string
	CustomerID             string
	OwnerID                string
	Status                 SubscriptionStatus
	ItemID                 string
	PriceID                string
	Interval               string
	UnitAmount             int64
	Currency               string
	CancelAtPeriodEnd      bool
	CurrentPeriodStart     time.Time
	CurrentPeriodEnd       time.Time
	ScheduleID             string
	LatestInvoiceID        string
	DefaultPaymentMethodID string
}

// SchedulePhase is one price phase of a subscription schedule.
// A zero EndDate marks an open-ended phase.
type SchedulePhase struct {
	PriceID   string
	Quantity  int64
	StartDate time.Time
	EndDate   time.Time
}

// Schedule is a processor subscription schedule.
type Schedule struct {
	ID             string
	SubscriptionID string
	Status         string
	EndBehavior    string
	Phases         []SchedulePhase
}

// InvoiceStatus mirrors the processor's invoice status.
type InvoiceStatus string

const (
	InvoiceDraft         InvoiceStatus = "draft"
	InvoiceOpen          InvoiceStatus = "open"
	InvoicePaid          InvoiceStatus = "paid"
	InvoiceVoid          InvoiceStatus = "void"
	InvoiceUncollectible InvoiceStatus = "uncollectible"
)

// Invoice is a processor invoice or an invoice preview.
// Amounts are integer minor currency units.
type Invoice struct {
	ID              string
	SubscriptionID  string
	Status          InvoiceStatus
	AmountDue       int64
	AmountRemaining int64
	Total           int64
	Currency        string
	ClientSecret    string
	PeriodEnd       time.Time
}

// Due reports whether the invoice still expects a payment.
func (i *Invoice) Due() bool {
	return i.Status != InvoicePaid && i.AmountRemaining > 0
}

// PaymentIntentStatus mirrors the processor's payment intent status.
type PaymentIntentStatus string

const (
	PaymentSucceeded             PaymentIntentStatus = "succeeded"
	PaymentProcessing            PaymentIntentStatus = "processing"
	PaymentRequiresAction        PaymentIntentStatus = "requires_action"
	PaymentRequiresConfirmation  PaymentIntentStatus = "requires_confirmation"
	PaymentRequiresPaymentMethod PaymentIntentStatus = "requires_payment_method"
	PaymentCanceled              PaymentIntentStatus = "canceled"
)

// PaymentIntent is a processor payment intent.
type PaymentIntent struct {
	ID           string
	CustomerID   string
	Status       PaymentIntentStatus
	ClientSecret string
	Amount       int64
	Currency     string
}

// Price is a recurring processor price.
type Price struct {
	ID         string
	UnitAmount int64
	Currency   string
	Interval   string
}

// EventType is the normalized webhook event type.
type EventType string

const (
	EventSubscriptionUpdated EventType = "subscription.updated"
	EventSubscriptionDeleted EventType = "subscription.deleted"
	EventOther               EventType = "other"
)

// Event is a verified webhook event. Subscription is set for subscription events.
type Event struct {
	ID            string
	Type          EventType
	ProviderEvent string
	Subscription  *Subscription
}
