package profile

import "context"

// User is the identity provider's view of a user.
type User struct {
	ID              string
	Email           string
	FirstName       string
	LastName        string
	UnsafeMetadata  map[string]any
	PrivateMetadata map[string]any
}

// UserUpdate is a partial update. Nil name fields are left alone; metadata maps are
// merged key by key and a nil value deletes the key.
type UserUpdate struct {
	FirstName       *string
	LastName        *string
	UnsafeMetadata  map[string]any
	PrivateMetadata map[string]any
}

// Directory is the identity provider's user store.
type Directory interface {
	// GetUser returns ErrUserNotFound for unknown ids.
	GetUser(ctx context.Context, userID string) (*User, error)
	UpdateUser(ctx context.Context, userID string, upd UserUpdate) error
}

// Lister enumerates users that reference a processor subscription, ordered by id.
// It backs the reconciliation sweep.
type Lister interface {
	ListSubscribed(ctx context.Context, afterUserID string, limit int) ([]string, error)
}

func mergeMetadata(dst, patch map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(patch))
	}
	for k, v := range patch {
		if v == nil {
			delete(dst, k)
			continue
		}
		dst[k] = v
	}
	return dst
}
