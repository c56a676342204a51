package profile

import (
	"context"
	"errors"
	"fmt"
)

// Store reads and writes billing profiles through a Directory.
type Store struct {
	dir Directory
}

// NewStore panics on a nil directory to fail fast during wiring.
func NewStore(dir Directory) *Store {
	if dir == nil {
		panic("profile: Directory is required")
	}
	return &Store{dir: dir}
}

// Load returns the billing profile of userID. Users without billing metadata get a
// free profile.
func (s *Store) Load(ctx context.Context, userID string) (*Profile, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}
	u, err := s.dir.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		return nil, errors.Join(ErrFailedToLoadProfile, err)
	}
	return decode(u), nil
}

// Save writes every billing field of p and leaves unrelated metadata alone.
func (s *Store) Save(ctx context.Context, p *Profile) error {
	if p == nil || p.UserID == "" {
		return ErrMissingUserID
	}
	if p.loadedCustomerID != "" && p.CustomerID != p.loadedCustomerID {
		return fmt.Errorf("%w: user %s", ErrCustomerIDImmutable, p.UserID)
	}

	if err := s.dir.UpdateUser(ctx, p.UserID, UserUpdate{UnsafeMetadata: encode(p)}); err != nil {
		return errors.Join(ErrFailedToSaveProfile, err)
	}
	p.loadedCustomerID = p.CustomerID
	return nil
}

// Subscribed pages through users that track a processor subscription.
func (s *Store) Subscribed(ctx context.Context, afterUserID string, limit int) ([]string, error) {
	lister, ok := s.dir.(Lister)
	if !ok {
		return nil, fmt.Errorf("%w: directory cannot list users", ErrUnsupportedDirectory)
	}
	ids, err := lister.ListSubscribed(ctx, afterUserID, limit)
	if err != nil {
		return nil, errors.Join(ErrFailedToListProfiles, err)
	}
	return ids, nil
}
