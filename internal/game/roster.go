package game

import (
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
)

const maxReactionLength = 8

// CreateRoom opens a new lobby hosted by id. An identity plays in one room
// at a time, so any previous room is left first.
func (e *Engine) CreateRoom(id Identity, conn string) (string, error) {
	e.leaveCurrent(id.ID)

	r := e.rooms.Create()
	err := e.withRoom(r, func(out *outbox) error {
		r.hostID = id.ID
		e.addPlayer(r, id, conn)
		out.to(conn, EventRoomCreated, r.view())
		out.room(r, EventUpdatePlayers, r.publicPlayers())
		out.then(e.broadcastRoomList)
		return nil
	})
	if err != nil {
		return "", err
	}
	log.Info().Str("room", r.ID).Str("host", id.ID).Msg("room created")
	return r.ID, nil
}

// JoinRoom adds id to a lobby. An identity already on the roster is rebound
// to conn instead of added twice, in any phase. The previous room is only
// left once the join has gone through.
func (e *Engine) JoinRoom(id Identity, conn, roomID string) error {
	prev := e.rooms.RoomOf(id.ID)
	var joined string
	err := e.withRoomID(roomID, func(r *Room, out *outbox) error {
		if p := r.player(id.ID); p != nil {
			e.bringOnline(r, p, conn, out)
			out.to(conn, EventJoinedRoom, r.view())
			out.room(r, EventUpdatePlayers, r.publicPlayers())
			if r.phase != PhaseLobby {
				e.restore(r, p, out)
			}
			joined = r.ID
			return nil
		}
		if r.phase != PhaseLobby {
			return ErrGameInProgress
		}
		e.addPlayer(r, id, conn)
		out.to(conn, EventJoinedRoom, r.view())
		out.room(r, EventUpdatePlayers, r.publicPlayers())
		out.then(e.broadcastRoomList)
		joined = r.ID
		log.Info().Str("room", r.ID).Str("player", id.ID).Int("players", len(r.players)).Msg("player joined")
		return nil
	})
	if err != nil {
		return err
	}
	if prev != "" && prev != joined {
		_ = e.LeaveRoom(id.ID, prev)
	}
	return nil
}

// LeaveRoom removes the player in the lobby. During a game the entry stays
// (offline) so the score survives and the identity can join back.
func (e *Engine) LeaveRoom(userID, roomID string) error {
	return e.withRoomID(roomID, func(r *Room, out *outbox) error {
		p := r.player(userID)
		if p == nil {
			return ErrNotInRoom
		}
		e.rooms.Unbind(userID, r.ID)
		if r.phase == PhaseLobby {
			r.removePlayer(userID)
			log.Info().Str("room", r.ID).Str("player", userID).Msg("player left lobby")
			if len(r.players) == 0 {
				e.closeRoom(r, out)
				return nil
			}
			if r.hostID == userID {
				e.transferHost(r, out, false)
			}
			out.room(r, EventUpdatePlayers, r.publicPlayers())
			out.then(e.broadcastRoomList)
			return nil
		}
		e.takeOffline(r, p, out)
		log.Info().Str("room", r.ID).Str("player", userID).Str("phase", string(r.phase)).Msg("player left game")
		return nil
	})
}

// Disconnect marks the player offline, unless conn is an older socket the
// player has already replaced.
func (e *Engine) Disconnect(userID, conn string) {
	roomID := e.rooms.RoomOf(userID)
	if roomID == "" {
		return
	}
	_ = e.withRoomID(roomID, func(r *Room, out *outbox) error {
		p := r.player(userID)
		if p == nil || p.conn != conn || !p.Online {
			return nil
		}
		e.takeOffline(r, p, out)
		log.Info().Str("room", r.ID).Str("player", userID).Msg("player disconnected")
		return nil
	})
}

// UpdateProfile copies a renamed identity into the roster it plays in.
func (e *Engine) UpdateProfile(id Identity) {
	roomID := e.rooms.RoomOf(id.ID)
	if roomID == "" {
		return
	}
	_ = e.withRoomID(roomID, func(r *Room, out *outbox) error {
		p := r.player(id.ID)
		if p == nil {
			return nil
		}
		p.Name = id.Name
		p.Avatar = id.Avatar
		out.room(r, EventUpdatePlayers, r.publicPlayers())
		return nil
	})
}

// SendReaction relays an emoji to the whole room.
func (e *Engine) SendReaction(userID, roomID, emoji string) error {
	emoji = strings.TrimSpace(emoji)
	if emoji == "" || utf8.RuneCountInString(emoji) > maxReactionLength {
		return ErrBadReaction
	}
	return e.withRoomID(roomID, func(r *Room, out *outbox) error {
		if r.player(userID) == nil {
			return ErrNotInRoom
		}
		out.room(r, EventReaction, Reaction{PlayerID: userID, Emoji: emoji})
		return nil
	})
}

func (e *Engine) leaveCurrent(userID string) {
	if cur := e.rooms.RoomOf(userID); cur != "" {
		_ = e.LeaveRoom(userID, cur)
	}
}

// Callers of the helpers below hold r.mu.

func (e *Engine) addPlayer(r *Room, id Identity, conn string) *Player {
	p := &Player{
		ID:       id.ID,
		Name:     id.Name,
		Avatar:   id.Avatar,
		Online:   true,
		JoinedAt: e.now().UTC(),
		conn:     conn,
	}
	r.players = append(r.players, p)
	e.rooms.Bind(id.ID, r.ID)
	e.stopIdle(r)
	return p
}

// bringOnline rebinds p to conn. A host that is no longer online hands
// authority to the returning player.
func (e *Engine) bringOnline(r *Room, p *Player, conn string, out *outbox) {
	wasOnline := p.Online
	p.conn = conn
	p.Online = true
	e.rooms.Bind(p.ID, r.ID)
	e.stopIdle(r)
	if !wasOnline {
		log.Info().Str("room", r.ID).Str("player", p.ID).Msg("player back online")
	}
	if h := r.player(r.hostID); r.hostID != p.ID && (h == nil || !h.Online) {
		log.Info().Str("room", r.ID).Str("from", r.hostID).Str("to", p.ID).Msg("host transferred")
		r.hostID = p.ID
		out.room(r, EventHostTransferred, p.ID)
	}
}

func (e *Engine) takeOffline(r *Room, p *Player, out *outbox) {
	p.Online = false
	p.conn = ""
	if r.hostID == p.ID {
		e.transferHost(r, out, true)
	}
	out.room(r, EventUpdatePlayers, r.publicPlayers())
	if len(r.onlinePlayers()) == 0 {
		e.armIdle(r)
		return
	}
	// The player who dropped no longer counts toward quorum.
	e.checkQuorum(r, out)
}

// transferHost hands authority to the first online player other than the
// current host. With onlineOnly unset it falls back to any remaining player.
func (e *Engine) transferHost(r *Room, out *outbox, onlineOnly bool) {
	var next *Player
	for _, p := range r.players {
		if p.ID != r.hostID && p.Online {
			next = p
			break
		}
	}
	if next == nil && !onlineOnly {
		for _, p := range r.players {
			if p.ID != r.hostID {
				next = p
				break
			}
		}
	}
	if next == nil {
		return
	}
	log.Info().Str("room", r.ID).Str("from", r.hostID).Str("to", next.ID).Msg("host transferred")
	r.hostID = next.ID
	out.room(r, EventHostTransferred, next.ID)
}

func (e *Engine) armIdle(r *Room) {
	e.stopIdle(r)
	r.idle = e.sched.AfterFunc(e.opts.IdleTimeout, func() {
		_ = e.withRoom(r, func(out *outbox) error {
			if len(r.onlinePlayers()) > 0 {
				return nil
			}
			log.Info().Str("room", r.ID).Msg("room idle, closing")
			e.closeRoom(r, out)
			return nil
		})
	})
}

func (e *Engine) stopIdle(r *Room) {
	if r.idle != nil {
		r.idle.Stop()
		r.idle = nil
	}
}
