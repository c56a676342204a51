package billing

import (
	"errors"
	"io"
	"net/http"

	"github.com/tutorhub/tutorhub/core"
	"github.com/tutorhub/tutorhub/handler"
)

type webhookRequest struct {
	Payload   []byte
	Signature string
}

// bindWebhook keeps the body byte-for-byte; the signature covers the raw payload.
func (m *Module) bindWebhook(r *http.Request, v any) error {
	req, ok := v.(*webhookRequest)
	if !ok {
		return errors.New("billing module: webhook binder needs *webhookRequest")
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, m.maxWebhookBytes+1))
	if err != nil {
		return errors.Join(core.ErrBadRequest.WithMessage("unreadable webhook payload"), err)
	}
	if int64(len(body)) > m.maxWebhookBytes {
		return core.ErrRequestEntityTooLarge.WithMessage("webhook payload too large")
	}
	req.Payload = body
	req.Signature = r.Header.Get(SignatureHeader)
	return nil
}

func (m *Module) webhook(ctx handler.Context, req webhookRequest) handler.Response {
	if err := m.svc.HandleWebhook(ctx, req.Payload, req.Signature); err != nil {
		return fail(err)
	}
	return handler.Text("ok")
}
