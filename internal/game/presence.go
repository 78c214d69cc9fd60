package game

import (
	"github.com/rs/zerolog/log"
)

// Resume is called when a resolved identity connects. If the identity still
// belongs to a live room it is rebound to conn and receives a snapshot;
// otherwise it is told there is no session to return to.
func (e *Engine) Resume(id Identity, conn string) bool {
	roomID := e.rooms.RoomOf(id.ID)
	if roomID == "" {
		e.notFound(conn)
		return false
	}
	err := e.withRoomID(roomID, func(r *Room, out *outbox) error {
		p := r.player(id.ID)
		if p == nil {
			e.rooms.Unbind(id.ID, r.ID)
			return ErrNotInRoom
		}
		if r.phase == PhaseGameOver {
			return ErrRoomNotFound
		}
		if r.phase == PhaseLobby && len(r.players) == 1 && !p.Online {
			log.Info().Str("room", r.ID).Str("player", id.ID).Msg("lone lobby abandoned, closing")
			e.closeRoom(r, out)
			return ErrRoomNotFound
		}
		e.bringOnline(r, p, conn, out)
		e.restore(r, p, out)
		out.room(r, EventUpdatePlayers, r.publicPlayers())
		return nil
	})
	if err != nil {
		e.notFound(conn)
		return false
	}
	return true
}

// RequestState re-sends the snapshot for roomID to conn. It is the explicit
// "refresh my state" path and shares its payload with Resume.
func (e *Engine) RequestState(userID, conn, roomID string) error {
	err := e.withRoomID(roomID, func(r *Room, out *outbox) error {
		p := r.player(userID)
		if p == nil {
			return ErrNotInRoom
		}
		if r.phase == PhaseGameOver {
			if r.finalStats != nil {
				out.to(conn, EventGameOverStats, r.finalStats)
				return nil
			}
			return ErrRoomNotFound
		}
		if p.conn != conn || !p.Online {
			e.bringOnline(r, p, conn, out)
			out.room(r, EventUpdatePlayers, r.publicPlayers())
		}
		e.restore(r, p, out)
		return nil
	})
	if err != nil {
		e.notFound(conn)
	}
	return err
}

// snapshot builds the state view for one player. Callers hold r.mu.
func (e *Engine) snapshot(r *Room, p *Player) Snapshot {
	s := Snapshot{
		RoomID:  r.ID,
		IsHost:  r.hostID == p.ID,
		Phase:   r.phase,
		Players: r.publicPlayers(),
	}
	if r.phase == PhaseLobby {
		return s
	}
	s.Round = r.roundInfo()
	switch r.phase {
	case PhaseWriting:
		if a := r.answerBy(p.ID); a != nil {
			s.MyAnswer = a.Text
		}
	case PhaseVoting:
		s.Voting = r.votingInfo(e.opts.VoteDuration)
		_, s.HasVoted = r.votes[p.ID]
	case PhaseReveal:
		s.Results = r.lastResult
	}
	return s
}

// restore sends p its snapshot on its current connection. Callers hold r.mu.
func (e *Engine) restore(r *Room, p *Player, out *outbox) {
	s := e.snapshot(r, p)
	out.to(p.conn, EventReconnect, s)
	if s.MyAnswer != "" {
		out.to(p.conn, EventRestoreAnswer, s.MyAnswer)
	}
	log.Debug().Str("room", r.ID).Str("player", p.ID).Str("phase", string(r.phase)).Msg("state restored")
}

func (e *Engine) notFound(conn string) {
	if e.out != nil && conn != "" {
		e.out.Emit(conn, EventSessionNotFound, nil)
	}
}
