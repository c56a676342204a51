// Package payment is the payment processor adapter used by the billing engines.
//
// The Processor interface exposes the customer, subscription, subscription schedule,
// invoice, payment method and webhook operations the engines need, and returns typed
// results (Subscription, Schedule, Invoice, PaymentIntent, Price) so callers never see
// untyped processor payloads.
//
// Stripe is the production implementation. It owns a dedicated stripe-go API client
// and routes every call through a gobreaker circuit breaker; card declines and other
// client errors do not count against the breaker.
//
// Errors are classified with the sentinels in errors.go:
//
//	sub, err := proc.GetSubscription(ctx, id)
//	switch {
//	case errors.Is(err, payment.ErrNotFound):
//	case errors.Is(err, payment.ErrProcessorUnavailable):
//	case err != nil:
//		log.Error("stripe failed", logger.Error(err), slog.String("message", payment.Message(err)))
//	}
package payment
