// Package billing exposes the billing service over HTTP as a chi router
// mounted under /billing.
//
// Session routes read the user id from the verified session token and answer
// with the handler package's JSON envelope. Billing error codes become the
// envelope's error code and pick the status: 400 for bad input, 401 without a
// session, 403 for a foreign subscription, 409 for state conflicts and 500 for
// configuration or processor failures.
//
// POST /billing/webhook takes the raw processor payload and its
// Stripe-Signature header and answers "ok" once the event is applied or
// deliberately ignored.
package billing
