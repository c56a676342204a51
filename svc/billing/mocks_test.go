package billing_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/tutorhub/tutorhub/pkg/email"
	"github.com/tutorhub/tutorhub/pkg/payment"
	"github.com/tutorhub/tutorhub/svc/billing"
)

type mockProcessor struct {
	mock.Mock
}

var _ payment.Processor = (*mockProcessor)(nil)

func (m *mockProcessor) CreateCustomer(ctx context.Context, params payment.CustomerParams) (*payment.Customer, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Customer), args.Error(1)
}

func (m *mockProcessor) GetCustomer(ctx context.Context, customerID string) (*payment.Customer, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Customer), args.Error(1)
}

func (m *mockProcessor) SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error {
	return m.Called(ctx, customerID, paymentMethodID).Error(0)
}

func (m *mockProcessor) AttachPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error {
	return m.Called(ctx, customerID, paymentMethodID).Error(0)
}

func (m *mockProcessor) HasPaymentMethod(ctx context.Context, customerID string) (bool, error) {
	args := m.Called(ctx, customerID)
	return args.Bool(0), args.Error(1)
}

func (m *mockProcessor) CreateSubscription(ctx context.Context, params payment.CreateSubscriptionParams) (*payment.Subscription, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Subscription), args.Error(1)
}

func (m *mockProcessor) GetSubscription(ctx context.Context, subscriptionID string) (*payment.Subscription, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Subscription), args.Error(1)
}

func (m *mockProcessor) SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) (*payment.Subscription, error) {
	args := m.Called(ctx, subscriptionID, cancel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Subscription), args.Error(1)
}

func (m *mockProcessor) SwapPrice(ctx context.Context, params payment.SwapPriceParams) (*payment.Subscription, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Subscription), args.Error(1)
}

func (m *mockProcessor) CancelSubscription(ctx context.Context, subscriptionID string) error {
	return m.Called(ctx, subscriptionID).Error(0)
}

func (m *mockProcessor) GetSchedule(ctx context.Context, scheduleID string) (*payment.Schedule, error) {
	args := m.Called(ctx, scheduleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Schedule), args.Error(1)
}

func (m *mockProcessor) CreateScheduleFromSubscription(ctx context.Context, subscriptionID string) (*payment.Schedule, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Schedule), args.Error(1)
}

func (m *mockProcessor) UpdateSchedulePhases(ctx context.Context, scheduleID string, phases []payment.SchedulePhase) (*payment.Schedule, error) {
	args := m.Called(ctx, scheduleID, phases)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Schedule), args.Error(1)
}

func (m *mockProcessor) ReleaseSchedule(ctx context.Context, scheduleID string) error {
	return m.Called(ctx, scheduleID).Error(0)
}

func (m *mockProcessor) GetInvoice(ctx context.Context, invoiceID string) (*payment.Invoice, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Invoice), args.Error(1)
}

func (m *mockProcessor) FinalizeInvoice(ctx context.Context, invoiceID string) (*payment.Invoice, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Invoice), args.Error(1)
}

func (m *mockProcessor) PayInvoice(ctx context.Context, invoiceID string) (*payment.Invoice, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Invoice), args.Error(1)
}

func (m *mockProcessor) PreviewInvoice(ctx context.Context, params payment.PreviewParams) (*payment.Invoice, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Invoice), args.Error(1)
}

func (m *mockProcessor) GetPaymentIntent(ctx context.Context, paymentIntentID string) (*payment.PaymentIntent, error) {
	args := m.Called(ctx, paymentIntentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.PaymentIntent), args.Error(1)
}

func (m *mockProcessor) GetPrice(ctx context.Context, priceID string) (*payment.Price, error) {
	args := m.Called(ctx, priceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Price), args.Error(1)
}

func (m *mockProcessor) ParseEvent(payload []byte, signature string) (*payment.Event, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Event), args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, n billing.Notice) error {
	return m.Called(ctx, n).Error(0)
}

type mockEmailSender struct {
	mock.Mock
}

func (m *mockEmailSender) SendEmail(ctx context.Context, params email.SendEmailParams) error {
	return m.Called(ctx, params).Error(0)
}
