package billing

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tutorhub/tutorhub/handler"
	"github.com/tutorhub/tutorhub/pkg/binder"
	"github.com/tutorhub/tutorhub/pkg/jwt"
	"github.com/tutorhub/tutorhub/pkg/logger"
	billingsvc "github.com/tutorhub/tutorhub/svc/billing"
)

// SignatureHeader carries the processor's webhook signature.
const SignatureHeader = "Stripe-Signature"

const defaultMaxWebhookBytes = 64 << 10

// Module serves the billing API. Every route except the webhook requires a
// session token.
type Module struct {
	svc             billingsvc.Service
	sessions        *jwt.Service
	log             *slog.Logger
	errorHandler    handler.ErrorHandler[handler.Context]
	maxWebhookBytes int64
}

type Option func(*Module)

func WithLogger(l *slog.Logger) Option {
	return func(m *Module) {
		if l != nil {
			m.log = l
		}
	}
}

// WithMaxWebhookBytes caps the webhook body size.
func WithMaxWebhookBytes(n int64) Option {
	return func(m *Module) {
		if n > 0 {
			m.maxWebhookBytes = n
		}
	}
}

func New(svc billingsvc.Service, sessions *jwt.Service, opts ...Option) *Module {
	if svc == nil {
		panic("billing module: service is required")
	}
	if sessions == nil {
		panic("billing module: session verifier is required")
	}
	m := &Module{
		svc:             svc,
		sessions:        sessions,
		log:             logger.Discard(),
		maxWebhookBytes: defaultMaxWebhookBytes,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.errorHandler = handler.NewErrorHandler(m.log.With(logger.Component("billing_api")))
	return m
}

// Handle returns the router to mount under /billing.
//
//	r.Mount("/billing", billing.New(svc, sessions, billing.WithLogger(log)).Handle())
func (m *Module) Handle() http.Handler {
	r := chi.NewRouter()

	r.Post("/webhook", handler.Wrap(m.webhook,
		handler.WithBinder[handler.Context, webhookRequest](m.bindWebhook),
		handler.WithErrorHandler[handler.Context, webhookRequest](m.errorHandler),
	))

	r.Group(func(r chi.Router) {
		r.Use(jwt.MiddlewareWithConfig(jwt.MiddlewareConfig{
			Service: m.sessions,
			OnError: m.unauthorized,
		}))

		r.Post("/transition", jsonRoute(m, m.transition))
		r.Post("/preview", jsonRoute(m, m.preview))
		r.Post("/pending/cancel", bareRoute(m, m.cancelPending))
		r.Post("/subscribe", jsonRoute(m, m.subscribe))
		r.Post("/confirm", jsonRoute(m, m.confirm))
		r.Get("/summary", bareRoute(m, m.summary))
	})

	return r
}

func jsonRoute[R any](m *Module, h handler.HandlerFunc[handler.Context, R]) http.HandlerFunc {
	return handler.Wrap(h,
		handler.WithBinder[handler.Context, R](binder.JSON()),
		handler.WithErrorHandler[handler.Context, R](m.errorHandler),
	)
}

// bareRoute ignores any request body.
func bareRoute(m *Module, h handler.HandlerFunc[handler.Context, emptyRequest]) http.HandlerFunc {
	return handler.Wrap(h, handler.WithErrorHandler[handler.Context, emptyRequest](m.errorHandler))
}
