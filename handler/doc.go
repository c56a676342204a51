// Package handler adapts typed handler functions to net/http.
//
// A HandlerFunc receives a Context and a request value already populated by the
// configured binders, and returns a Response:
//
//	func transition(ctx handler.Context, req TransitionRequest) handler.Response {
//		res, err := svc.RequestTransition(ctx, userID, req.Tier)
//		if err != nil {
//			return handler.JSONError(err)
//		}
//		return handler.JSON(res)
//	}
//
//	r.Post("/transition", handler.Wrap(transition,
//		handler.WithBinder[handler.Context, TransitionRequest](binder.JSON()),
//		handler.WithErrorHandler[handler.Context, TransitionRequest](errorHandler),
//	))
//
// Binding and rendering failures go to the ErrorHandler. NewErrorHandler renders
// them as JSON and maps core.HTTPError and core.ValidationError to their status.
package handler
