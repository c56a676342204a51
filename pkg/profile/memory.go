package profile

import (
	"context"
	"maps"
	"slices"
	"sync"
)

// MemoryDirectory is an in-process Directory.
type MemoryDirectory struct {
	mu    sync.RWMutex
	users map[string]*User
}

func NewMemoryDirectory(users ...User) *MemoryDirectory {
	d := &MemoryDirectory{users: make(map[string]*User, len(users))}
	for _, u := range users {
		d.Put(u)
	}
	return d
}

// Put creates or replaces a user.
func (d *MemoryDirectory) Put(u User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[u.ID] = cloneUser(&u)
}

func (d *MemoryDirectory) GetUser(_ context.Context, userID string) (*User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	u, ok := d.users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (d *MemoryDirectory) UpdateUser(_ context.Context, userID string, upd UserUpdate) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	u, ok := d.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	if upd.FirstName != nil {
		u.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		u.LastName = *upd.LastName
	}
	if upd.UnsafeMetadata != nil {
		u.UnsafeMetadata = mergeMetadata(u.UnsafeMetadata, upd.UnsafeMetadata)
	}
	if upd.PrivateMetadata != nil {
		u.PrivateMetadata = mergeMetadata(u.PrivateMetadata, upd.PrivateMetadata)
	}
	return nil
}

func (d *MemoryDirectory) ListSubscribed(_ context.Context, afterUserID string, limit int) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ids := make([]string, 0)
	for id, u := range d.users {
		if id <= afterUserID {
			continue
		}
		if stringValue(u.UnsafeMetadata[KeySubscriptionID]) == "" {
			continue
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func cloneUser(u *User) *User {
	c := *u
	c.UnsafeMetadata = maps.Clone(u.UnsafeMetadata)
	c.PrivateMetadata = maps.Clone(u.PrivateMetadata)
	return &c
}
