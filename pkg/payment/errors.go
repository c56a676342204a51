package payment

import "errors"

var (
	ErrProcessor             = errors.New("payment processor error")
	ErrProcessorUnavailable  = errors.New("payment processor unavailable")
	ErrNotFound              = errors.New("payment processor resource not found")
	ErrPaymentActionRequired = errors.New("payment requires customer action")
	ErrPaymentFailed         = errors.New("payment failed")
	ErrIncompleteResponse    = errors.New("incomplete payment processor response")

	ErrMissingAPIKey        = errors.New("payment processor API key is required")
	ErrMissingWebhookSecret = errors.New("payment processor webhook secret is required")
	ErrInvalidSignature     = errors.New("webhook signature verification failed")
	ErrMalformedEvent       = errors.New("malformed webhook event")
)
