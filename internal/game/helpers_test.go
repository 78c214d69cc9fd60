package game

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// manualScheduler never fires on its own; tests fire timers explicitly.
type manualScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	s.timers = append(s.timers, t)
	return t
}

// active returns the first armed timer with duration d, or nil.
func (s *manualScheduler) active(d time.Duration) *fakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.timers {
		if t.d == d && !t.stopped && !t.fired {
			return t
		}
	}
	return nil
}

func (s *manualScheduler) fire(t *testing.T, d time.Duration) {
	t.Helper()
	tm := s.active(d)
	if tm == nil {
		t.Fatalf("no armed timer with duration %v", d)
	}
	tm.fired = true
	tm.f()
}

type sent struct {
	conn    string
	event   string
	payload any
}

// recorder is a Broadcaster that remembers everything.
type recorder struct {
	mu   sync.Mutex
	msgs []sent
}

func (r *recorder) Emit(conn, event string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, sent{conn: conn, event: event, payload: payload})
}

func (r *recorder) EmitAll(event string, payload any) {
	r.Emit("*", event, payload)
}

func (r *recorder) to(conn, event string) []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []any
	for _, m := range r.msgs {
		if m.conn == conn && m.event == event {
			out = append(out, m.payload)
		}
	}
	return out
}

func (r *recorder) last(conn, event string) any {
	all := r.to(conn, event)
	if len(all) == 0 {
		return nil
	}
	return all[len(all)-1]
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = nil
}

type fakeCatalog struct {
	prompts map[string][]Prompt
	order   []string
}

func newFakeCatalog() *fakeCatalog {
	c := &fakeCatalog{prompts: map[string][]Prompt{}}
	c.add("food", "🍕", "Food", "Best pizza topping?", "Worst breakfast?", "Favourite snack?")
	c.add("animals", "🐾", "Animals", "Which animal would be rude?", "Best pet name?")
	return c
}

func (c *fakeCatalog) add(id, emoji, name string, questions ...string) {
	c.order = append(c.order, id)
	for _, q := range questions {
		c.prompts[id] = append(c.prompts[id], Prompt{Text: q, TopicEmoji: emoji, TopicName: name})
	}
}

func (c *fakeCatalog) Prompts(ids ...string) []Prompt {
	if len(ids) == 0 {
		ids = c.order
	}
	var out []Prompt
	for _, id := range ids {
		out = append(out, c.prompts[id]...)
	}
	return out
}

func (c *fakeCatalog) Topics() []TopicInfo {
	out := make([]TopicInfo, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, TopicInfo{ID: id, Name: c.prompts[id][0].TopicName})
	}
	return out
}

type fakeGen struct {
	mu        sync.Mutex
	text      string
	err       error
	calls     int
	questions []string
	answers   [][]string
}

func (g *fakeGen) Generate(ctx context.Context, question string, answers []string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.questions = append(g.questions, question)
	g.answers = append(g.answers, append([]string(nil), answers...))
	return g.text, g.err
}

const (
	testTimeLimit = 30
	writingTimer  = testTimeLimit*time.Second + writingSlack
	votingTimer   = 45 * time.Second
	graceTimer    = 90 * time.Second
	idleTimer     = 5 * time.Minute
)

type harness struct {
	e     *Engine
	sched *manualScheduler
	rec   *recorder
	gen   *fakeGen
	ids   int
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	h := &harness{sched: &manualScheduler{}, rec: &recorder{}, gen: &fakeGen{text: "beep boop"}}
	if opts.VoteDuration == 0 {
		opts.VoteDuration = votingTimer
	}
	if opts.GameOverGrace == 0 {
		opts.GameOverGrace = graceTimer
	}
	if opts.IdleTimeout == 0 {
		opts.IdleTimeout = idleTimer
	}
	reg := NewRegistry(NewMemoryRepository())
	h.e = NewEngine(reg, newFakeCatalog(), h.gen, h.rec, opts)
	h.e.SetScheduler(h.sched)
	h.e.SetAsync(func(f func()) { f() })
	h.e.SetClock(func() time.Time { return time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC) })
	h.e.shuffle = func(n int, swap func(i, j int)) {}
	h.e.newID = func() string {
		h.ids++
		return fmt.Sprintf("ans-%d", h.ids)
	}
	return h
}

func ident(id string) Identity {
	return Identity{ID: id, Name: "Name " + id}
}

func conn(id string) string { return "conn-" + id }

// lobby creates a room hosted by the first id and joins the rest.
func (h *harness) lobby(t *testing.T, ids ...string) string {
	t.Helper()
	code, err := h.e.CreateRoom(ident(ids[0]), conn(ids[0]))
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	for _, id := range ids[1:] {
		if err := h.e.JoinRoom(ident(id), conn(id), code); err != nil {
			t.Fatalf("join %s: %v", id, err)
		}
	}
	return code
}

// started returns a room in its first writing phase.
func (h *harness) started(t *testing.T, rounds int, ids ...string) (string, *Room) {
	t.Helper()
	code := h.lobby(t, ids...)
	if err := h.e.StartGame(ids[0], code, Settings{Rounds: rounds, TimeLimit: testTimeLimit}); err != nil {
		t.Fatalf("start game: %v", err)
	}
	return code, h.room(t, code)
}

func (h *harness) room(t *testing.T, code string) *Room {
	t.Helper()
	r, err := h.e.Registry().Get(code)
	if err != nil {
		t.Fatalf("room %s: %v", code, err)
	}
	return r
}

// answerAll submits an answer for every id.
func (h *harness) answerAll(t *testing.T, code string, ids ...string) {
	t.Helper()
	for _, id := range ids {
		if err := h.e.SubmitAnswer(id, code, "answer from "+id); err != nil {
			t.Fatalf("submit %s: %v", id, err)
		}
	}
}

// answerIDs maps author to answer id for the current round.
func answerIDs(r *Room) map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]string, len(r.answers))
	for _, a := range r.answers {
		out[a.AuthorID] = a.ID
	}
	return out
}

func score(r *Room, id string) int {
	for _, p := range r.Players() {
		if p.ID == id {
			return p.Score
		}
	}
	return 0
}
