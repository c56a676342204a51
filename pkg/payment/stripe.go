package payment

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

// StripeConfig configures the Stripe processor.
type StripeConfig struct {
	SecretKey        string        `env:"STRIPE_SECRET_KEY,required"`
	WebhookSecret    string        `env:"STRIPE_WEBHOOK_SECRET,required"`
	WebhookTolerance time.Duration `env:"STRIPE_WEBHOOK_TOLERANCE" envDefault:"5m"`
	BreakerFailures  uint32        `env:"STRIPE_BREAKER_FAILURES" envDefault:"5"`
	BreakerTimeout   time.Duration `env:"STRIPE_BREAKER_TIMEOUT" envDefault:"30s"`
}

// Stripe implements Processor on top of stripe-go.
type Stripe struct {
	api           *client.API
	backends      *stripe.Backends
	webhookSecret string
	tolerance     time.Duration
	breaker       *gobreaker.CircuitBreaker[any]
	log           *slog.Logger
}

// StripeOption configures a Stripe processor.
type StripeOption func(*Stripe)

// WithStripeLogger sets the logger used for breaker state changes.
func WithStripeLogger(l *slog.Logger) StripeOption {
	return func(s *Stripe) {
		if l != nil {
			s.log = l
		}
	}
}

// WithStripeBackends overrides the Stripe HTTP backends, e.g. to point at a local stub.
func WithStripeBackends(b *stripe.Backends) StripeOption {
	return func(s *Stripe) { s.backends = b }
}

// NewStripe builds a Stripe processor with its own API client. No global stripe.Key is set.
func NewStripe(cfg StripeConfig, opts ...StripeOption) (*Stripe, error) {
	if cfg.SecretKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}
	if cfg.WebhookTolerance <= 0 {
		cfg.WebhookTolerance = 5 * time.Minute
	}

	s := &Stripe{
		webhookSecret: cfg.WebhookSecret,
		tolerance:     cfg.WebhookTolerance,
		log:           slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.api = &client.API{}
	s.api.Init(cfg.SecretKey, s.backends)
	s.breaker = newBreaker("stripe", cfg, s.log)

	return s, nil
}

// call runs fn through the circuit breaker and normalizes its error.
func call[T any](s *Stripe, fn func() (T, error)) (T, error) {
	res, err := s.breaker.Execute(func() (any, error) { return fn() })
	if err != nil {
		var zero T
		return zero, wrapError(err)
	}
	v, _ := res.(T)
	return v, nil
}

func (s *Stripe) CreateCustomer(ctx context.Context, p CustomerParams) (*Customer, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx
	if p.Email != "" {
		params.Email = stripe.String(p.Email)
	}
	if p.Name != "" {
		params.Name = stripe.String(p.Name)
	}
	params.AddMetadata(OwnerMetadataKey, p.OwnerID)
	if p.IdempotencyKey != "" {
		params.SetIdempotencyKey(p.IdempotencyKey)
	}

	c, err := call(s, func() (*stripe.Customer, error) { return s.api.Customers.New(params) })
	if err != nil {
		return nil, err
	}
	return toCustomer(c)
}

func (s *Stripe) GetCustomer(ctx context.Context, customerID string) (*Customer, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx

	c, err := call(s, func() (*stripe.Customer, error) { return s.api.Customers.Get(customerID, params) })
	if err != nil {
		return nil, err
	}
	if c != nil && c.Deleted {
		return nil, ErrNotFound
	}
	return toCustomer(c)
}

func (s *Stripe) SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error {
	params := &stripe.CustomerParams{
		InvoiceSettings: &stripe.CustomerInvoiceSettingsParams{
			DefaultPaymentMethod: stripe.String(paymentMethodID),
		},
	}
	params.Context = ctx

	_, err := call(s, func() (*stripe.Customer, error) { return s.api.Customers.Update(customerID, params) })
	return err
}

func (s *Stripe) AttachPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error {
	params := &stripe.PaymentMethodAttachParams{Customer: stripe.String(customerID)}
	params.Context = ctx

	_, err := call(s, func() (*stripe.PaymentMethod, error) { return s.api.PaymentMethods.Attach(paymentMethodID, params) })
	if err != nil && isAlreadyAttached(err) {
		return nil
	}
	return err
}

func (s *Stripe) HasPaymentMethod(ctx context.Context, customerID string) (bool, error) {
	params := &stripe.PaymentMethodListParams{
		Customer: stripe.String(customerID),
		Type:     stripe.String("card"),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(1)

	return call(s, func() (bool, error) {
		it := s.api.PaymentMethods.List(params)
		found := it.Next()
		return found, it.Err()
	})
}

func (s *Stripe) CreateSubscription(ctx context.Context, p CreateSubscriptionParams) (*Subscription, error) {
	params := &stripe.SubscriptionParams{
		Customer: stripe.String(p.CustomerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(p.PriceID)},
		},
		PaymentBehavior: stripe.String("default_incomplete"),
	}
	params.Context = ctx
	if p.PaymentMethodID != "" {
		params.DefaultPaymentMethod = stripe.String(p.PaymentMethodID)
	}
	params.AddMetadata(OwnerMetadataKey, p.OwnerID)
	params.AddExpand("latest_invoice")
	if p.IdempotencyKey != "" {
		params.SetIdempotencyKey(p.IdempotencyKey)
	}

	sub, err := call(s, func() (*stripe.Subscription, error) { return s.api.Subscriptions.New(params) })
	if err != nil {
		return nil, err
	}
	return toSubscription(sub)
}

func (s *Stripe) GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := call(s, func() (*stripe.Subscription, error) { return s.api.Subscriptions.Get(subscriptionID, params) })
	if err != nil {
		return nil, err
	}
	return toSubscription(sub)
}

func (s *Stripe) SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) (*Subscription, error) {
	params := &stripe.SubscriptionParams{CancelAtPeriodEnd: stripe.Bool(cancel)}
	params.Context = ctx

	sub, err := call(s, func() (*stripe.Subscription, error) { return s.api.Subscriptions.Update(subscriptionID, params) })
	if err != nil {
		return nil, err
	}
	return toSubscription(sub)
}

func (s *Stripe) SwapPrice(ctx context.Context, p SwapPriceParams) (*Subscription, error) {
	params := &stripe.SubscriptionParams{
		Items: []*stripe.SubscriptionItemsParams{
			{ID: stripe.String(p.ItemID), Price: stripe.String(p.PriceID)},
		},
		ProrationBehavior:           stripe.String("always_invoice"),
		BillingCycleAnchorUnchanged: stripe.Bool(true),
		PaymentBehavior:             stripe.String("default_incomplete"),
	}
	params.Context = ctx
	params.AddExpand("latest_invoice")

	sub, err := call(s, func() (*stripe.Subscription, error) { return s.api.Subscriptions.Update(p.SubscriptionID, params) })
	if err != nil {
		return nil, err
	}
	return toSubscription(sub)
}

func (s *Stripe) CancelSubscription(ctx context.Context, subscriptionID string) error {
	params := &stripe.SubscriptionCancelParams{}
	params.Context = ctx

	_, err := call(s, func() (*stripe.Subscription, error) { return s.api.Subscriptions.Cancel(subscriptionID, params) })
	return err
}

func (s *Stripe) GetSchedule(ctx context.Context, scheduleID string) (*Schedule, error) {
	params := &stripe.SubscriptionScheduleParams{}
	params.Context = ctx

	sched, err := call(s, func() (*stripe.SubscriptionSchedule, error) {
		return s.api.SubscriptionSchedules.Get(scheduleID, params)
	})
	if err != nil {
		return nil, err
	}
	return toSchedule(sched)
}

func (s *Stripe) CreateScheduleFromSubscription(ctx context.Context, subscriptionID string) (*Schedule, error) {
	params := &stripe.SubscriptionScheduleParams{FromSubscription: stripe.String(subscriptionID)}
	params.Context = ctx

	sched, err := call(s, func() (*stripe.SubscriptionSchedule, error) { return s.api.SubscriptionSchedules.New(params) })
	if err != nil {
		return nil, err
	}
	return toSchedule(sched)
}

func (s *Stripe) UpdateSchedulePhases(ctx context.Context, scheduleID string, phases []SchedulePhase) (*Schedule, error) {
	params := &stripe.SubscriptionScheduleParams{
		EndBehavior:       stripe.String("release"),
		ProrationBehavior: stripe.String("none"),
	}
	params.Context = ctx

	for _, ph := range phases {
		qty := ph.Quantity
		if qty <= 0 {
			qty = 1
		}
		pp := &stripe.SubscriptionSchedulePhaseParams{
			Items: []*stripe.SubscriptionSchedulePhaseItemParams{
				{Price: stripe.String(ph.PriceID), Quantity: stripe.Int64(qty)},
			},
			StartDate: stripe.Int64(ph.StartDate.Unix()),
		}
		if !ph.EndDate.IsZero() {
			pp.EndDate = stripe.Int64(ph.EndDate.Unix())
		}
		params.Phases = append(params.Phases, pp)
	}

	sched, err := call(s, func() (*stripe.SubscriptionSchedule, error) {
		return s.api.SubscriptionSchedules.Update(scheduleID, params)
	})
	if err != nil {
		return nil, err
	}
	return toSchedule(sched)
}

func (s *Stripe) ReleaseSchedule(ctx context.Context, scheduleID string) error {
	params := &stripe.SubscriptionScheduleReleaseParams{}
	params.Context = ctx

	_, err := call(s, func() (*stripe.SubscriptionSchedule, error) {
		return s.api.SubscriptionSchedules.Release(scheduleID, params)
	})
	return err
}

func (s *Stripe) GetInvoice(ctx context.Context, invoiceID string) (*Invoice, error) {
	params := &stripe.InvoiceParams{}
	params.Context = ctx
	params.AddExpand("confirmation_secret")

	inv, err := call(s, func() (*stripe.Invoice, error) { return s.api.Invoices.Get(invoiceID, params) })
	if err != nil {
		return nil, err
	}
	return toInvoice(inv)
}

func (s *Stripe) FinalizeInvoice(ctx context.Context, invoiceID string) (*Invoice, error) {
	params := &stripe.InvoiceFinalizeInvoiceParams{}
	params.Context = ctx
	params.AddExpand("confirmation_secret")

	inv, err := call(s, func() (*stripe.Invoice, error) { return s.api.Invoices.FinalizeInvoice(invoiceID, params) })
	if err != nil {
		return nil, err
	}
	return toInvoice(inv)
}

func (s *Stripe) PayInvoice(ctx context.Context, invoiceID string) (*Invoice, error) {
	params := &stripe.InvoicePayParams{}
	params.Context = ctx

	inv, err := call(s, func() (*stripe.Invoice, error) { return s.api.Invoices.Pay(invoiceID, params) })
	if err != nil {
		return nil, err
	}
	return toInvoice(inv)
}

func (s *Stripe) PreviewInvoice(ctx context.Context, p PreviewParams) (*Invoice, error) {
	params := &stripe.InvoiceCreatePreviewParams{
		Customer:     stripe.String(p.CustomerID),
		Subscription: stripe.String(p.SubscriptionID),
		SubscriptionDetails: &stripe.InvoiceCreatePreviewSubscriptionDetailsParams{
			Items: []*stripe.InvoiceCreatePreviewSubscriptionDetailsItemParams{
				{ID: stripe.String(p.ItemID), Price: stripe.String(p.PriceID)},
			},
			ProrationBehavior: stripe.String("always_invoice"),
		},
	}
	params.Context = ctx

	inv, err := call(s, func() (*stripe.Invoice, error) { return s.api.Invoices.CreatePreview(params) })
	if err != nil {
		return nil, err
	}
	return toInvoice(inv)
}

func (s *Stripe) GetPaymentIntent(ctx context.Context, paymentIntentID string) (*PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := call(s, func() (*stripe.PaymentIntent, error) { return s.api.PaymentIntents.Get(paymentIntentID, params) })
	if err != nil {
		return nil, err
	}
	return toPaymentIntent(pi)
}

func (s *Stripe) GetPrice(ctx context.Context, priceID string) (*Price, error) {
	params := &stripe.PriceParams{}
	params.Context = ctx

	p, err := call(s, func() (*stripe.Price, error) { return s.api.Prices.Get(priceID, params) })
	if err != nil {
		return nil, err
	}
	return toPrice(p)
}

var _ Processor = (*Stripe)(nil)
