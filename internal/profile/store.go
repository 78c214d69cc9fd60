package profile

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrNotFound = errors.New("profile not found")

// Profile is what is remembered about an identity between sessions.
type Profile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store persists profiles. Get returns ErrNotFound for unknown ids.
type Store interface {
	Get(ctx context.Context, id string) (Profile, error)
	Save(ctx context.Context, p Profile) error
}

type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[string]Profile)}
}

func (m *MemoryStore) Get(ctx context.Context, id string) (Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[id]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return p, nil
}

func (m *MemoryStore) Save(ctx context.Context, p Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.ID] = p
	return nil
}
