package payment

import "context"

// Processor is the set of payment processor operations the billing engines use.
// Implementations return typed results and wrap failures with the errors in errors.go.
type Processor interface {
	CreateCustomer(ctx context.Context, params CustomerParams) (*Customer, error)
	GetCustomer(ctx context.Context, customerID string) (*Customer, error)
	SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error

	// AttachPaymentMethod treats an already attached method as success.
	AttachPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error
	HasPaymentMethod(ctx context.Context, customerID string) (bool, error)

	CreateSubscription(ctx context.Context, params CreateSubscriptionParams) (*Subscription, error)
	GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)
	SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) (*Subscription, error)

	// SwapPrice replaces the subscription item price immediately with proration,
	// keeps the billing cycle anchor, and leaves payment to explicit confirmation.
	SwapPrice(ctx context.Context, params SwapPriceParams) (*Subscription, error)
	CancelSubscription(ctx context.Context, subscriptionID string) error

	GetSchedule(ctx context.Context, scheduleID string) (*Schedule, error)
	CreateScheduleFromSubscription(ctx context.Context, subscriptionID string) (*Schedule, error)
	UpdateSchedulePhases(ctx context.Context, scheduleID string, phases []SchedulePhase) (*Schedule, error)
	ReleaseSchedule(ctx context.Context, scheduleID string) error

	GetInvoice(ctx context.Context, invoiceID string) (*Invoice, error)
	FinalizeInvoice(ctx context.Context, invoiceID string) (*Invoice, error)
	PayInvoice(ctx context.Context, invoiceID string) (*Invoice, error)
	PreviewInvoice(ctx context.Context, params PreviewParams) (*Invoice, error)

	GetPaymentIntent(ctx context.Context, paymentIntentID string) (*PaymentIntent, error)
	GetPrice(ctx context.Context, priceID string) (*Price, error)

	// ParseEvent verifies the signature before decoding anything.
	ParseEvent(payload []byte, signature string) (*Event, error)
}

// CustomerParams describes a new customer.
type CustomerParams struct {
	OwnerID        string
	Email          string
	Name           string
	IdempotencyKey string
}

// CreateSubscriptionParams describes a new single-item subscription.
type CreateSubscriptionParams struct {
	CustomerID      string
	OwnerID         string
	PriceID         string
	PaymentMethodID string
	IdempotencyKey  string
}

// SwapPriceParams describes an immediate price change.
type SwapPriceParams struct {
	SubscriptionID string
	ItemID         string
	PriceID        string
}

// PreviewParams describes a hypothetical price substitution on a subscription.
type PreviewParams struct {
	CustomerID     string
	SubscriptionID string
	ItemID         string
	PriceID        string
}
