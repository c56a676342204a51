// Package billing moves users between the free, lessons and lessons_ai tiers.
//
// The Service owns the transition engine, its side-effect free preview, the
// subscription creation and payment confirmation flows, and the reconciler that
// folds processor webhooks (and a periodic sweep) back into the billing profile.
//
// Writes always go processor first, profile second. When the profile write fails
// after the processor accepted a change the call still succeeds: processor state
// is authoritative and the reconciler repairs the profile on the next event or sweep.
//
// Mutating calls for one user are serialized with a short lease (see pkg/lease);
// a busy lease surfaces as ErrTransitionInProgress.
package billing
