package game

import (
	"math/rand"
	"strings"
	"sync"
	"time"
)

const roomCodeLength = 5

// Repository stores live rooms. The registry owns code generation and the
// identity index on top of it.
type Repository interface {
	// Insert stores the room unless its id is taken and reports whether it did.
	Insert(room *Room) bool
	Get(id string) (*Room, bool)
	Delete(id string)
	List() []*Room
}

// MemoryRepository keeps rooms in a map; rooms never outlive the process.
type MemoryRepository struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{rooms: make(map[string]*Room)}
}

func (m *MemoryRepository) Insert(room *Room) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.rooms[room.ID]; taken {
		return false
	}
	m.rooms[room.ID] = room
	return true
}

func (m *MemoryRepository) Get(id string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	return r, ok
}

func (m *MemoryRepository) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, id)
}

func (m *MemoryRepository) List() []*Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, r)
	}
	return out
}

// Registry maps room codes to rooms and identities to the room they play in.
// It never takes a room lock, so it is safe to call while holding one.
type Registry struct {
	repo Repository

	mu      sync.RWMutex
	members map[string]string // userID -> roomID
	newCode func() string
	now     func() time.Time
}

func NewRegistry(repo Repository) *Registry {
	return &Registry{
		repo:    repo,
		members: make(map[string]string),
		newCode: func() string { return randomCode(roomCodeLength) },
		now:     time.Now,
	}
}

// Create allocates a fresh room code, retrying on collision with a live room.
func (reg *Registry) Create() *Room {
	for {
		r := newRoom(reg.newCode(), reg.now())
		if reg.repo.Insert(r) {
			return r
		}
	}
}

func (reg *Registry) Get(id string) (*Room, error) {
	r, ok := reg.repo.Get(NormalizeCode(id))
	if !ok {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

// Delete drops the room and every identity bound to it.
func (reg *Registry) Delete(id string) {
	reg.repo.Delete(id)
	reg.mu.Lock()
	defer reg.mu.Unlock()
	for user, room := range reg.members {
		if room == id {
			delete(reg.members, user)
		}
	}
}

func (reg *Registry) List() []*Room {
	return reg.repo.List()
}

func (reg *Registry) Bind(userID, roomID string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.members[userID] = roomID
}

// Unbind removes the binding only if it still points at roomID.
func (reg *Registry) Unbind(userID, roomID string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if reg.members[userID] == roomID {
		delete(reg.members, userID)
	}
}

// RoomOf returns the room an identity currently belongs to, or "".
func (reg *Registry) RoomOf(userID string) string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.members[userID]
}

// NormalizeCode makes user-typed room codes comparable.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func randomCode(n int) string {
	letters := []rune("ABCDEFGHJKLMNPQRSTUVWXYZ23456789")
	b := make([]rune, n)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}
	return string(b)
}
