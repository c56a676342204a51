// Package lease provides short-lived, per-key mutual exclusion used to serialize
// read-decide-write sequences for a single user across processes.
package lease

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrInvalidTTL  = errors.New("lease ttl must be positive")
	ErrEmptyKey    = errors.New("lease key is required")
	ErrLeaseFailed = errors.New("failed to acquire lease")
)

// Locker hands out leases. TryAcquire never blocks: acquired is false when another
// holder owns the key. Leases expire after ttl even if release is never called.
type Locker interface {
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (release func(), acquired bool, err error)
}

func validate(key string, ttl time.Duration) error {
	if key == "" {
		return ErrEmptyKey
	}
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	return nil
}

// Noop always grants the lease.
type Noop struct{}

func (Noop) TryAcquire(context.Context, string, time.Duration) (func(), bool, error) {
	return func() {}, true, nil
}

// Memory is a single-process Locker.
type Memory struct {
	mu      sync.Mutex
	held    map[string]memoryEntry
	now     func() time.Time
	counter uint64
}

type memoryEntry struct {
	token   uint64
	expires time.Time
}

func NewMemory() *Memory {
	return &Memory{held: make(map[string]memoryEntry), now: time.Now}
}

func (m *Memory) TryAcquire(_ context.Context, key string, ttl time.Duration) (func(), bool, error) {
	if err := validate(key, ttl); err != nil {
		return nil, false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if e, ok := m.held[key]; ok && now.Before(e.expires) {
		return nil, false, nil
	}

	m.counter++
	token := m.counter
	m.held[key] = memoryEntry{token: token, expires: now.Add(ttl)}

	var once sync.Once
	release := func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if e, ok := m.held[key]; ok && e.token == token {
				delete(m.held, key)
			}
		})
	}
	return release, true, nil
}
