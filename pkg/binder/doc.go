// Package binder decodes JSON request bodies into typed request values.
//
// Decoding is strict: unknown fields, trailing data and bodies above the size
// limit are rejected, and string fields are trimmed. Failures carry a
// core.HTTPError so the error handler answers 400, 413 or 415 without further
// mapping. A request with neither body nor Content-Type yields
// ErrBinderNotApplicable and the handler receives the zero value.
package binder
