package profile

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/kiliankoe/botornot/internal/game"
)

const maxNameLength = 24

var ErrInvalidName = errors.New("name must be 1-24 characters")

// Handshake is what a client states about itself when it connects.
type Handshake struct {
	UserID string
	Name   string
	Avatar string
}

// Provider turns connection handshakes into stable identities. A stored
// profile wins over what the handshake claims, so renames survive
// reconnects.
type Provider struct {
	store Store
	now   func() time.Time
}

func NewProvider(store Store) *Provider {
	return &Provider{store: store, now: time.Now}
}

func (p *Provider) Resolve(ctx context.Context, h Handshake) (game.Identity, error) {
	id := strings.TrimSpace(h.UserID)
	if id == "" {
		id = uuid.NewString()
	}

	stored, err := p.store.Get(ctx, id)
	switch {
	case err == nil:
		if stored.Avatar == "" && h.Avatar != "" {
			stored.Avatar = h.Avatar
			stored.UpdatedAt = p.now().UTC()
			if err := p.store.Save(ctx, stored); err != nil {
				return game.Identity{}, err
			}
		}
		return game.Identity{ID: stored.ID, Name: stored.Name, Avatar: stored.Avatar}, nil
	case !errors.Is(err, ErrNotFound):
		return game.Identity{}, err
	}

	name, ok := cleanName(h.Name)
	if !ok {
		name = "Player " + strings.ToUpper(shortID(id))
	}
	prof := Profile{ID: id, Name: name, Avatar: h.Avatar, UpdatedAt: p.now().UTC()}
	if err := p.store.Save(ctx, prof); err != nil {
		return game.Identity{}, err
	}
	return game.Identity{ID: prof.ID, Name: prof.Name, Avatar: prof.Avatar}, nil
}

// Update renames an identity. An empty avatar keeps the current one.
func (p *Provider) Update(ctx context.Context, id, name, avatar string) (game.Identity, error) {
	name, ok := cleanName(name)
	if !ok {
		return game.Identity{}, ErrInvalidName
	}
	prof, err := p.store.Get(ctx, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return game.Identity{}, err
	}
	prof.ID = id
	prof.Name = name
	if avatar != "" {
		prof.Avatar = avatar
	}
	prof.UpdatedAt = p.now().UTC()
	if err := p.store.Save(ctx, prof); err != nil {
		return game.Identity{}, err
	}
	return game.Identity{ID: prof.ID, Name: prof.Name, Avatar: prof.Avatar}, nil
}

func cleanName(s string) (string, bool) {
	s = strings.TrimSpace(s)
	n := utf8.RuneCountInString(s)
	return s, n > 0 && n <= maxNameLength
}

func shortID(id string) string {
	id = strings.ReplaceAll(id, "-", "")
	if len(id) > 4 {
		return id[:4]
	}
	return id
}
