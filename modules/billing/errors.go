package billing

import (
	"errors"
	"net/http"

	"github.com/tutorhub/tutorhub/core"
	"github.com/tutorhub/tutorhub/handler"
	"github.com/tutorhub/tutorhub/pkg/payment"
	billingsvc "github.com/tutorhub/tutorhub/svc/billing"
)

type apiError struct {
	status  int
	message string
}

// apiErrors maps billing error codes to responses. Unknown codes are 500.
var apiErrors = map[string]apiError{
	"unauthorized":                  {http.StatusUnauthorized, "sign in to manage billing"},
	"forbidden":                     {http.StatusForbidden, "subscription belongs to another account"},
	"invalid_tier":                  {http.StatusBadRequest, "unknown tier"},
	"invalid_interval":              {http.StatusBadRequest, "unknown billing interval"},
	"missing_payment_method":        {http.StatusBadRequest, "a payment method is required"},
	"invalid_webhook":               {http.StatusBadRequest, "invalid webhook payload or signature"},
	"no_active_subscription":        {http.StatusConflict, "no active subscription"},
	"transition_in_progress":        {http.StatusConflict, "another billing change is in progress"},
	"no_pending_change":             {http.StatusConflict, "no pending change to cancel"},
	"missing_price_configuration":   {http.StatusInternalServerError, "pricing is not configured"},
	"incomplete_processor_response": {http.StatusInternalServerError, "payment processor returned an incomplete response"},
	"processor_error":               {http.StatusInternalServerError, "payment processor error"},
	"profile_unavailable":           {http.StatusInternalServerError, "billing profile is unavailable"},
}

// httpError joins err with the core.HTTPError its billing code maps to. The
// processor's own message is surfaced for processor errors.
func httpError(err error) error {
	code := billingsvc.Code(err)
	ae, ok := apiErrors[code]
	if !ok {
		return errors.Join(core.ErrInternalServerError, err)
	}
	he := core.NewHTTPError(ae.status, code).WithMessage(ae.message)
	if code == "processor_error" {
		if msg := payment.ProcessorMessage(err); msg != "" {
			he = he.WithMessage(msg)
		}
	}
	return errors.Join(he, err)
}

func fail(err error) handler.Response {
	return handler.Fail(httpError(err))
}

func (m *Module) unauthorized(w http.ResponseWriter, r *http.Request, err error) {
	m.errorHandler(handler.NewContext(w, r), errors.Join(
		core.ErrUnauthorized.WithMessage(apiErrors["unauthorized"].message), err,
	))
}
