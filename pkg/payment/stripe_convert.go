package payment

import (
	"time"

	"github.com/stripe/stripe-go/v82"
)

func unixTime(v int64) time.Time {
	if v <= 0 {
		return time.Time{}
	}
	return time.Unix(v, 0).UTC()
}

func toCustomer(c *stripe.Customer) (*Customer, error) {
	if c == nil || c.ID == "" {
		return nil, ErrIncompleteResponse
	}
	out := &Customer{
		ID:      c.ID,
		Email:   c.Email,
		OwnerID: c.Metadata[OwnerMetadataKey],
	}
	if c.InvoiceSettings != nil && c.InvoiceSettings.DefaultPaymentMethod != nil {
		out.DefaultPaymentMethodID = c.InvoiceSettings.DefaultPaymentMethod.ID
	}
	return out, nil
}

// toSubscription does not require the price item: deleted subscriptions may arrive
// without one. Callers that need the price check PriceID themselves.
func toSubscription(s *stripe.Subscription) (*Subscription, error) {
	if s == nil || s.ID == "" {
		return nil, ErrIncompleteResponse
	}

	out := &Subscription{
		ID:                s.ID,
		OwnerID:           s.Metadata[OwnerMetadataKey],
		Status:            SubscriptionStatus(s.Status),
		CancelAtPeriodEnd: s.CancelAtPeriodEnd,
	}
	if s.Customer != nil {
		out.CustomerID = s.Customer.ID
	}
	if s.Schedule != nil {
		out.ScheduleID = s.Schedule.ID
	}
	if s.LatestInvoice != nil {
		out.LatestInvoiceID = s.LatestInvoice.ID
	}
	if s.DefaultPaymentMethod != nil {
		out.DefaultPaymentMethodID = s.DefaultPaymentMethod.ID
	}

	if s.Items != nil && len(s.Items.Data) > 0 && s.Items.Data[0] != nil {
		item := s.Items.Data[0]
		out.ItemID = item.ID
		out.CurrentPeriodStart = unixTime(item.CurrentPeriodStart)
		out.CurrentPeriodEnd = unixTime(item.CurrentPeriodEnd)
		if item.Price != nil {
			out.PriceID = item.Price.ID
			out.UnitAmount = item.Price.UnitAmount
			out.Currency = string(item.Price.Currency)
			if item.Price.Recurring != nil {
				out.Interval = string(item.Price.Recurring.Interval)
			}
		}
	}

	return out, nil
}

func toSchedule(s *stripe.SubscriptionSchedule) (*Schedule, error) {
	if s == nil || s.ID == "" {
		return nil, ErrIncompleteResponse
	}

	out := &Schedule{
		ID:          s.ID,
		Status:      string(s.Status),
		EndBehavior: string(s.EndBehavior),
	}
	if s.Subscription != nil {
		out.SubscriptionID = s.Subscription.ID
	}

	for _, ph := range s.Phases {
		if ph == nil {
			continue
		}
		phase := SchedulePhase{
			StartDate: unixTime(ph.StartDate),
			EndDate:   unixTime(ph.EndDate),
		}
		if len(ph.Items) > 0 && ph.Items[0] != nil {
			phase.Quantity = ph.Items[0].Quantity
			if ph.Items[0].Price != nil {
				phase.PriceID = ph.Items[0].Price.ID
			}
		}
		out.Phases = append(out.Phases, phase)
	}

	return out, nil
}

func toInvoice(inv *stripe.Invoice) (*Invoice, error) {
	if inv == nil {
		return nil, ErrIncompleteResponse
	}

	out := &Invoice{
		ID:              inv.ID,
		Status:          InvoiceStatus(inv.Status),
		AmountDue:       inv.AmountDue,
		AmountRemaining: inv.AmountRemaining,
		Total:           inv.Total,
		Currency:        string(inv.Currency),
		PeriodEnd:       unixTime(inv.PeriodEnd),
	}
	if inv.ConfirmationSecret != nil {
		out.ClientSecret = inv.ConfirmationSecret.ClientSecret
	}
	if inv.Parent != nil && inv.Parent.SubscriptionDetails != nil && inv.Parent.SubscriptionDetails.Subscription != nil {
		out.SubscriptionID = inv.Parent.SubscriptionDetails.Subscription.ID
	}

	return out, nil
}

func toPaymentIntent(pi *stripe.PaymentIntent) (*PaymentIntent, error) {
	if pi == nil || pi.ID == "" {
		return nil, ErrIncompleteResponse
	}
	out := &PaymentIntent{
		ID:           pi.ID,
		Status:       PaymentIntentStatus(pi.Status),
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
	}
	if pi.Customer != nil {
		out.CustomerID = pi.Customer.ID
	}
	return out, nil
}

func toPrice(p *stripe.Price) (*Price, error) {
	if p == nil || p.ID == "" {
		return nil, ErrIncompleteResponse
	}
	out := &Price{
		ID:         p.ID,
		UnitAmount: p.UnitAmount,
		Currency:   string(p.Currency),
	}
	if p.Recurring != nil {
		out.Interval = string(p.Recurring.Interval)
	}
	return out, nil
}
