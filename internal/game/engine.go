package game

import (
	"context"
	"time"
)

// Outbound event names, as the client expects them.
const (
	EventProfile         = "profile"
	EventRoomCreated     = "room_created"
	EventJoinedRoom      = "joined_room"
	EventUpdatePlayers   = "update_players"
	EventTopicsList      = "topics_list"
	EventGameStarted     = "game_started"
	EventNewRound        = "new_round"
	EventPlayerSubmitted = "player_submitted"
	EventRestoreAnswer   = "restore_my_answer"
	EventPhaseChange     = "phase_change"
	EventStartVoting     = "start_voting"
	EventPlayerVoted     = "player_voted"
	EventRoundResults    = "round_results"
	EventGameOverStats   = "game_over_stats"
	EventHostTransferred = "host_transferred"
	EventReconnect       = "reconnect_success"
	EventSessionNotFound = "session_not_found"
	EventRoomsList       = "rooms_list_update"
	EventError           = "error"
	EventReaction        = "reaction"
)

// Broadcaster delivers events to transport connections. Delivery is best
// effort; the engine never calls it while holding a room lock.
type Broadcaster interface {
	Emit(conn string, event string, payload any)
	EmitAll(event string, payload any)
}

// Catalog is the read-only prompt source. With no topic ids it returns
// every prompt it knows.
type Catalog interface {
	Prompts(topicIDs ...string) []Prompt
	Topics() []TopicInfo
}

type TopicInfo struct {
	ID          string `json:"id"`
	Emoji       string `json:"emoji"`
	Name        string `json:"name"`
	Description string `json:"desc"`
}

// Generator writes the synthetic answer for a round.
type Generator interface {
	Generate(ctx context.Context, question string, answers []string) (string, error)
}

// Options tune the engine; zero values fall back to the defaults.
type Options struct {
	VoteDuration      time.Duration
	GameOverGrace     time.Duration
	IdleTimeout       time.Duration
	GenerationTimeout time.Duration
	MinAnswerLength   int
	MaxAnswerLength   int
	DebugControls     bool
	ExportFile        string
}

func (o Options) withDefaults() Options {
	if o.VoteDuration <= 0 {
		o.VoteDuration = 60 * time.Second
	}
	if o.GameOverGrace <= 0 {
		o.GameOverGrace = 60 * time.Second
	}
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = 10 * time.Minute
	}
	if o.GenerationTimeout <= 0 {
		o.GenerationTimeout = 20 * time.Second
	}
	if o.MinAnswerLength <= 0 {
		o.MinAnswerLength = 3
	}
	if o.MaxAnswerLength <= 0 {
		o.MaxAnswerLength = 280
	}
	return o
}

// Engine runs every room of the process. Each inbound event is applied to
// one room under that room's lock; rooms never wait on each other.
type Engine struct {
	rooms   *Registry
	catalog Catalog
	gen     Generator
	out     Broadcaster
	opts    Options

	sched   Scheduler
	async   func(func())
	now     func() time.Time
	shuffle func(n int, swap func(i, j int))
	newID   func() string
}

func NewEngine(rooms *Registry, catalog Catalog, gen Generator, b Broadcaster, opts Options) *Engine {
	return &Engine{
		rooms:   rooms,
		catalog: catalog,
		gen:     gen,
		out:     b,
		opts:    opts.withDefaults(),
		sched:   realScheduler{},
		async:   func(f func()) { go f() },
		now:     time.Now,
		shuffle: defaultShuffle,
		newID:   newAnswerID,
	}
}

func (e *Engine) SetScheduler(s Scheduler) { e.sched = s }
func (e *Engine) SetAsync(f func(func())) { e.async = f }
func (e *Engine) SetClock(f func() time.Time) { e.now = f }
func (e *Engine) SetBroadcaster(b Broadcaster) { e.out = b }

func (e *Engine) Registry() *Registry { return e.rooms }

// outbox collects what a locked section wants to say and do, so it can be
// sent after the lock is released.
type outbox struct {
	msgs  []envelope
	after []func()
}

type envelope struct {
	conn    string
	event   string
	payload any
}

func (o *outbox) to(conn, event string, payload any) {
	if conn == "" {
		return
	}
	o.msgs = append(o.msgs, envelope{conn: conn, event: event, payload: payload})
}

// room addresses everyone online in r at the time of the call.
func (o *outbox) room(r *Room, event string, payload any) {
	for _, c := range r.conns() {
		o.to(c, event, payload)
	}
}

func (o *outbox) then(f func()) {
	o.after = append(o.after, f)
}

func (e *Engine) flush(o *outbox) {
	if e.out != nil {
		for _, m := range o.msgs {
			e.out.Emit(m.conn, m.event, m.payload)
		}
	}
	for _, f := range o.after {
		f()
	}
}

// withRoom runs fn as one atomic step against r, then delivers its output.
func (e *Engine) withRoom(r *Room, fn func(out *outbox) error) error {
	out := &outbox{}
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrRoomNotFound
	}
	err := fn(out)
	r.mu.Unlock()
	e.flush(out)
	return err
}

func (e *Engine) withRoomID(id string, fn func(r *Room, out *outbox) error) error {
	r, err := e.rooms.Get(id)
	if err != nil {
		return err
	}
	return e.withRoom(r, func(out *outbox) error { return fn(r, out) })
}

// closeRoom stops every timer and schedules the registry removal.
// Callers hold r.mu.
func (e *Engine) closeRoom(r *Room, out *outbox) {
	if r.closed {
		return
	}
	r.closed = true
	e.cancelDeadline(r)
	if r.idle != nil {
		r.idle.Stop()
		r.idle = nil
	}
	if r.cleanup != nil {
		r.cleanup.Stop()
		r.cleanup = nil
	}
	id := r.ID
	out.then(func() {
		e.rooms.Delete(id)
		e.broadcastRoomList()
	})
}

// DeleteRoom closes the room with the given code, if it is still live.
func (e *Engine) DeleteRoom(id string) {
	_ = e.withRoomID(id, func(r *Room, out *outbox) error {
		e.closeRoom(r, out)
		return nil
	})
}

// Rooms lists every live room. It takes each room lock in turn, so it must
// not be called while holding one.
func (e *Engine) Rooms() []RoomSummary {
	rooms := e.rooms.List()
	out := make([]RoomSummary, 0, len(rooms))
	for _, r := range rooms {
		r.mu.Lock()
		if !r.closed {
			out = append(out, r.summary())
		}
		r.mu.Unlock()
	}
	sortSummaries(out)
	return out
}

func (e *Engine) broadcastRoomList() {
	if e.out == nil {
		return
	}
	e.out.EmitAll(EventRoomsList, e.Rooms())
}

// Topics answers get_topics.
func (e *Engine) Topics(conn string) {
	if e.out == nil {
		return
	}
	e.out.Emit(conn, EventTopicsList, e.catalog.Topics())
}

// ListRooms answers request_room_list.
func (e *Engine) ListRooms(conn string) {
	if e.out == nil {
		return
	}
	e.out.Emit(conn, EventRoomsList, e.Rooms())
}

// HasRoom reports whether a room with the given code is live.
func (e *Engine) HasRoom(id string) bool {
	_, err := e.rooms.Get(id)
	return err == nil
}
