package payment

import (
	"errors"
	"strings"

	"github.com/sony/gobreaker/v2"
	"github.com/stripe/stripe-go/v82"
)

const (
	codeInvoiceRequiresAction = "invoice_payment_intent_requires_action"
	codeResourceExists        = "resource_already_exists"
)

// wrapError classifies a Stripe or breaker failure. The original error stays in the
// chain so Message can surface the processor's own text.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return errors.Join(ErrProcessorUnavailable, err)
	}

	var se *stripe.Error
	if errors.As(err, &se) {
		switch {
		case se.Code == stripe.ErrorCodeResourceMissing:
			return errors.Join(ErrNotFound, err)
		case string(se.Code) == codeInvoiceRequiresAction:
			return errors.Join(ErrPaymentActionRequired, err)
		case se.Type == stripe.ErrorTypeCard:
			return errors.Join(ErrPaymentFailed, err)
		}
	}

	return errors.Join(ErrProcessor, err)
}

func isAlreadyAttached(err error) bool {
	var se *stripe.Error
	if !errors.As(err, &se) {
		return false
	}
	return string(se.Code) == codeResourceExists || strings.Contains(se.Msg, "already been attached")
}

// Message returns the processor's human readable message when there is one.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var se *stripe.Error
	if errors.As(err, &se) && se.Msg != "" {
		return se.Msg
	}
	return err.Error()
}

// ProcessorMessage returns the processor's own message, or "" when err did not
// come from the processor. Unlike Message it never falls back to err.Error().
func ProcessorMessage(err error) string {
	var se *stripe.Error
	if errors.As(err, &se) {
		return se.Msg
	}
	return ""
}
