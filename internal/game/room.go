package game

import (
	"sync"
	"time"
)

const (
	DefaultRounds    = 5
	MaxRounds        = 20
	DefaultTimeLimit = 60 // seconds
	MinTimeLimit     = 10
	MaxTimeLimit     = 600
	MinPlayers       = 2
)

// Room is one play session. Every field below mu is guarded by it; the
// engine only touches them from inside Engine.withRoom.
type Room struct {
	ID        string
	CreatedAt time.Time

	mu     sync.Mutex
	closed bool

	hostID        string
	phase         Phase
	round         int
	maxRounds     int
	timerDuration int // seconds, writing phase
	topics        []string

	players []*Player

	questions []Prompt
	prompt    Prompt
	endTime   time.Time

	answers    []Answer
	votes      map[string]VoteSet
	shuffled   []VotingAnswer
	lastResult *RoundResult
	history    []RoundRecord
	finalStats *GameOverStats
	deadline   deadline
	idle       Timer
	cleanup    Timer
}

func newRoom(id string, now time.Time) *Room {
	return &Room{
		ID:            id,
		CreatedAt:     now.UTC(),
		phase:         PhaseLobby,
		round:         1,
		maxRounds:     DefaultRounds,
		timerDuration: DefaultTimeLimit,
		votes:         make(map[string]VoteSet),
	}
}

func (r *Room) player(id string) *Player {
	for _, p := range r.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r *Room) removePlayer(id string) {
	for i, p := range r.players {
		if p.ID == id {
			r.players = append(r.players[:i], r.players[i+1:]...)
			return
		}
	}
}

func (r *Room) onlinePlayers() []*Player {
	out := make([]*Player, 0, len(r.players))
	for _, p := range r.players {
		if p.Online {
			out = append(out, p)
		}
	}
	return out
}

// conns returns the transport handles of everyone currently online.
func (r *Room) conns() []string {
	out := make([]string, 0, len(r.players))
	for _, p := range r.players {
		if p.Online && p.conn != "" {
			out = append(out, p.conn)
		}
	}
	return out
}

func (r *Room) publicPlayers() []Player {
	out := make([]Player, 0, len(r.players))
	for _, p := range r.players {
		cp := *p
		cp.IsHost = p.ID == r.hostID
		cp.conn = ""
		out = append(out, cp)
	}
	return out
}

func (r *Room) answerBy(authorID string) *Answer {
	for i := range r.answers {
		if r.answers[i].AuthorID == authorID {
			return &r.answers[i]
		}
	}
	return nil
}

func (r *Room) answerByID(id string) *Answer {
	for i := range r.answers {
		if r.answers[i].ID == id {
			return &r.answers[i]
		}
	}
	return nil
}

func (r *Room) view() RoomView {
	return RoomView{
		ID:            r.ID,
		HostID:        r.hostID,
		Phase:         r.phase,
		Round:         r.round,
		MaxRounds:     r.maxRounds,
		TimerDuration: r.timerDuration,
		Players:       r.publicPlayers(),
	}
}

func (r *Room) summary() RoomSummary {
	s := RoomSummary{
		ID:          r.ID,
		PlayerCount: len(r.players),
		OnlineCount: len(r.onlinePlayers()),
		Phase:       r.phase,
		Round:       r.round,
		MaxRounds:   r.maxRounds,
	}
	if h := r.player(r.hostID); h != nil {
		s.HostName = h.Name
	}
	return s
}

func (r *Room) roundInfo() *RoundInfo {
	return &RoundInfo{
		Round:       r.round,
		TotalRounds: r.maxRounds,
		Question:    r.prompt.Text,
		TopicEmoji:  r.prompt.TopicEmoji,
		TopicName:   r.prompt.TopicName,
		EndTime:     r.endTime.UnixMilli(),
		Duration:    r.timerDuration,
	}
}

// Phase reads the current phase under the room lock.
func (r *Room) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// Round reads the current round counter under the room lock.
func (r *Room) Round() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.round
}

// HostID reads the current host under the room lock.
func (r *Room) HostID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hostID
}

// Players returns a copy of the roster.
func (r *Room) Players() []Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.publicPlayers()
}

// Summary returns the list entry for this room.
func (r *Room) Summary() RoomSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.summary()
}
