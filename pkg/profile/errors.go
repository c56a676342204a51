package profile

import "errors"

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrMissingUserID        = errors.New("user id is required")
	ErrCustomerIDImmutable  = errors.New("processor customer id cannot change once set")
	ErrInvalidProfile       = errors.New("invalid billing profile metadata")
	ErrFailedToLoadProfile  = errors.New("failed to load billing profile")
	ErrFailedToSaveProfile  = errors.New("failed to save billing profile")
	ErrFailedToListProfiles = errors.New("failed to list billing profiles")
	ErrUnsupportedDirectory = errors.New("unsupported profile directory backend")
)
