package payment

import (
	"encoding/json"
	"errors"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// ParseEvent verifies the Stripe-Signature header and normalizes the event.
// Nothing in the payload is decoded before the signature checks out.
func (s *Stripe) ParseEvent(payload []byte, signature string) (*Event, error) {
	if signature == "" {
		return nil, ErrInvalidSignature
	}

	ev, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret, webhook.ConstructEventOptions{
		Tolerance:                s.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, errors.Join(ErrInvalidSignature, err)
	}

	out := &Event{
		ID:            ev.ID,
		ProviderEvent: string(ev.Type),
		Type:          EventOther,
	}

	switch ev.Type {
	case stripe.EventTypeCustomerSubscriptionCreated,
		stripe.EventTypeCustomerSubscriptionUpdated,
		stripe.EventTypeCustomerSubscriptionPaused,
		stripe.EventTypeCustomerSubscriptionResumed:
		out.Type = EventSubscriptionUpdated
	case stripe.EventTypeCustomerSubscriptionDeleted:
		out.Type = EventSubscriptionDeleted
	default:
		return out, nil
	}

	if ev.Data == nil || len(ev.Data.Raw) == 0 {
		return nil, ErrMalformedEvent
	}
	var sub stripe.Subscription
	if err := json.Unmarshal(ev.Data.Raw, &sub); err != nil {
		return nil, errors.Join(ErrMalformedEvent, err)
	}
	out.Subscription, err = toSubscription(&sub)
	if err != nil {
		return nil, errors.Join(ErrMalformedEvent, err)
	}

	return out, nil
}
