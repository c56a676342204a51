package billing

import (
	"github.com/tutorhub/tutorhub/handler"
	"github.com/tutorhub/tutorhub/pkg/jwt"
	"github.com/tutorhub/tutorhub/pkg/tier"
	billingsvc "github.com/tutorhub/tutorhub/svc/billing"
)

type transitionRequest struct {
	Tier string `json:"tier"`
}

type previewRequest struct {
	Tier     string `json:"tier"`
	Interval string `json:"interval"`
}

type subscribeRequest struct {
	Tier            string `json:"tier"`
	Interval        string `json:"interval"`
	PaymentMethodID string `json:"paymentMethodId"`
}

type confirmRequest struct {
	PaymentIntentID string `json:"paymentIntentId"`
}

type emptyRequest struct{}

func (m *Module) transition(ctx handler.Context, req transitionRequest) handler.Response {
	res, err := m.svc.RequestTransition(ctx, jwt.UserID(ctx), tier.Tier(req.Tier))
	if err != nil {
		return fail(err)
	}
	return handler.JSON(res)
}

func (m *Module) preview(ctx handler.Context, req previewRequest) handler.Response {
	res, err := m.svc.PreviewTransition(ctx, jwt.UserID(ctx), tier.Tier(req.Tier), tier.Interval(req.Interval))
	if err != nil {
		return fail(err)
	}
	return handler.JSON(res)
}

func (m *Module) cancelPending(ctx handler.Context, _ emptyRequest) handler.Response {
	res, err := m.svc.CancelPendingChange(ctx, jwt.UserID(ctx))
	if err != nil {
		return fail(err)
	}
	return handler.JSON(res)
}

func (m *Module) subscribe(ctx handler.Context, req subscribeRequest) handler.Response {
	res, err := m.svc.Subscribe(ctx, billingsvc.SubscribeParams{
		UserID:          jwt.UserID(ctx),
		Tier:            tier.Tier(req.Tier),
		Interval:        tier.Interval(req.Interval),
		PaymentMethodID: req.PaymentMethodID,
	})
	if err != nil {
		return fail(err)
	}
	return handler.JSON(res)
}

func (m *Module) confirm(ctx handler.Context, req confirmRequest) handler.Response {
	res, err := m.svc.ConfirmPayment(ctx, jwt.UserID(ctx), req.PaymentIntentID)
	if err != nil {
		return fail(err)
	}
	return handler.JSON(res)
}

func (m *Module) summary(ctx handler.Context, _ emptyRequest) handler.Response {
	res, err := m.svc.Summary(ctx, jwt.UserID(ctx))
	if err != nil {
		return fail(err)
	}
	return handler.JSON(res)
}
