package billing_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/tutorhub/tutorhub/pkg/tier"
	billingsvc "github.com/tutorhub/tutorhub/svc/billing"
)

type mockService struct {
	mock.Mock
}

var _ billingsvc.Service = (*mockService)(nil)

func (m *mockService) RequestTransition(ctx context.Context, userID string, desired tier.Tier) (*billingsvc.TransitionResult, error) {
	args := m.Called(ctx, userID, desired)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingsvc.TransitionResult), args.Error(1)
}

func (m *mockService) PreviewTransition(ctx context.Context, userID string, desired tier.Tier, interval tier.Interval) (*billingsvc.PreviewResult, error) {
	args := m.Called(ctx, userID, desired, interval)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingsvc.PreviewResult), args.Error(1)
}

func (m *mockService) CancelPendingChange(ctx context.Context, userID string) (*billingsvc.CancelResult, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingsvc.CancelResult), args.Error(1)
}

func (m *mockService) Subscribe(ctx context.Context, params billingsvc.SubscribeParams) (*billingsvc.TransitionResult, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingsvc.TransitionResult), args.Error(1)
}

func (m *mockService) ConfirmPayment(ctx context.Context, userID, paymentIntentID string) (*billingsvc.TransitionResult, error) {
	args := m.Called(ctx, userID, paymentIntentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingsvc.TransitionResult), args.Error(1)
}

func (m *mockService) Summary(ctx context.Context, userID string) (*billingsvc.Summary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingsvc.Summary), args.Error(1)
}

func (m *mockService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	return m.Called(ctx, payload, signature).Error(0)
}

func (m *mockService) Reconcile(ctx context.Context) (*billingsvc.ReconcileReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingsvc.ReconcileReport), args.Error(1)
}
