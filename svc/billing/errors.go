package billing

import "errors"

var (
	ErrUnauthorized              = errors.New("unauthorized")
	ErrForbidden                 = errors.New("subscription does not belong to the user")
	ErrInvalidTier               = errors.New("invalid tier")
	ErrInvalidInterval           = errors.New("invalid billing interval")
	ErrMissingPaymentMethod      = errors.New("payment method is required")
	ErrNoActiveSubscription      = errors.New("no active subscription")
	ErrMissingPriceConfiguration = errors.New("missing price configuration")
	ErrProcessor                 = errors.New("payment processor error")
	ErrIncompleteResponse        = errors.New("incomplete processor response")
	ErrTransitionInProgress      = errors.New("another billing change is in progress")
	ErrNoPendingChange           = errors.New("no pending change")
	ErrProfileUnavailable        = errors.New("billing profile unavailable")
	ErrInvalidWebhook            = errors.New("invalid webhook")
)

// Code returns the stable error code for err, used in API responses and metrics.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrInvalidTier):
		return "invalid_tier"
	case errors.Is(err, ErrInvalidInterval):
		return "invalid_interval"
	case errors.Is(err, ErrMissingPaymentMethod):
		return "missing_payment_method"
	case errors.Is(err, ErrNoActiveSubscription):
		return "no_active_subscription"
	case errors.Is(err, ErrTransitionInProgress):
		return "transition_in_progress"
	case errors.Is(err, ErrNoPendingChange):
		return "no_pending_change"
	case errors.Is(err, ErrMissingPriceConfiguration):
		return "missing_price_configuration"
	case errors.Is(err, ErrIncompleteResponse):
		return "incomplete_processor_response"
	case errors.Is(err, ErrProcessor):
		return "processor_error"
	case errors.Is(err, ErrInvalidWebhook):
		return "invalid_webhook"
	case errors.Is(err, ErrProfileUnavailable):
		return "profile_unavailable"
	default:
		return "internal_error"
	}
}
