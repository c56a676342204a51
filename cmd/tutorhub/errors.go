package main

import "errors"

var (
	ErrUnknownProfileBackend = errors.New("unknown PROFILE_BACKEND, expected memory, postgres or mongo")
	ErrReconcileIncomplete   = errors.New("some profiles could not be reconciled")
)
