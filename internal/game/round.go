package game

import (
	"context"
	"math/rand"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// placeholderPrompt stands in when the question pool runs dry.
var placeholderPrompt = Prompt{Text: "Questions failed to load. Say anything!", TopicEmoji: "⚠️", TopicName: "Error"}

// fallbackAnswers replace the generated answer when generation fails.
var fallbackAnswers = []string{
	"my internet is lagging, hold on...",
	"ugh, hard to come up with something",
	"no idea what to even say",
	"oh, whatever",
	"error 404, brain not found",
}

// StartGame moves the lobby into the first writing phase.
func (e *Engine) StartGame(userID, roomID string, s Settings) error {
	return e.withRoomID(roomID, func(r *Room, out *outbox) error {
		if r.hostID != userID {
			return ErrNotHost
		}
		if r.phase != PhaseLobby {
			return ErrInvalidPhase
		}
		if len(r.players) < MinPlayers {
			return ErrNotEnoughPlayers
		}

		r.maxRounds = clamp(s.Rounds, 1, MaxRounds, DefaultRounds)
		r.timerDuration = clamp(s.TimeLimit, MinTimeLimit, MaxTimeLimit, DefaultTimeLimit)
		r.topics = append([]string(nil), s.Topics...)

		pool := e.catalog.Prompts(r.topics...)
		if len(pool) == 0 {
			pool = e.catalog.Prompts()
		}
		pool = append([]Prompt(nil), pool...)
		e.shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
		if len(pool) > r.maxRounds {
			pool = pool[:r.maxRounds]
		}
		r.questions = pool
		r.round = 1

		log.Info().Str("room", r.ID).Int("rounds", r.maxRounds).Int("timeLimit", r.timerDuration).Int("questions", len(pool)).Msg("game started")
		out.room(r, EventGameStarted, r.view())
		e.startRound(r, out)
		out.then(e.broadcastRoomList)
		return nil
	})
}

// SubmitAnswer records one answer per player per round.
func (e *Engine) SubmitAnswer(userID, roomID, text string) error {
	text = strings.TrimSpace(text)
	return e.withRoomID(roomID, func(r *Room, out *outbox) error {
		if r.phase != PhaseWriting {
			return ErrInvalidPhase
		}
		p := r.player(userID)
		if p == nil {
			return ErrNotInRoom
		}
		if n := utf8.RuneCountInString(text); n < e.opts.MinAnswerLength {
			return ErrAnswerTooShort
		} else if n > e.opts.MaxAnswerLength {
			return ErrAnswerTooLong
		}
		if r.answerBy(userID) != nil {
			return ErrAlreadySubmitted
		}
		r.answers = append(r.answers, Answer{ID: e.newID(), Text: text, AuthorID: userID})
		out.room(r, EventPlayerSubmitted, userID)
		e.checkQuorum(r, out)
		return nil
	})
}

// SubmitVotes records a player's judgments for the round. Judgments about
// the voter's own answer, unknown answers or unknown types are dropped.
func (e *Engine) SubmitVotes(userID, roomID string, votes VoteSet) error {
	return e.withRoomID(roomID, func(r *Room, out *outbox) error {
		if r.phase != PhaseVoting {
			return ErrInvalidPhase
		}
		if r.player(userID) == nil {
			return ErrNotInRoom
		}
		if _, done := r.votes[userID]; done {
			return ErrAlreadyVoted
		}
		clean := make(VoteSet, len(votes))
		for answerID, j := range votes {
			a := r.answerByID(answerID)
			if a == nil || a.AuthorID == userID {
				continue
			}
			switch j.Type {
			case GuessAI:
				clean[answerID] = Judgment{Type: GuessAI}
			case GuessHuman:
				clean[answerID] = Judgment{Type: GuessHuman, PlayerID: j.PlayerID}
			}
		}
		r.votes[userID] = clean
		out.room(r, EventPlayerVoted, userID)
		e.checkQuorum(r, out)
		return nil
	})
}

// NextRound is the host's request to leave the reveal.
func (e *Engine) NextRound(userID, roomID string) error {
	return e.withRoomID(roomID, func(r *Room, out *outbox) error {
		if r.hostID != userID {
			return ErrNotHost
		}
		if r.phase != PhaseReveal {
			return ErrInvalidPhase
		}
		r.round++
		if r.round > r.maxRounds {
			e.finishGame(r, out)
			return nil
		}
		e.startRound(r, out)
		return nil
	})
}

// SkipTimer is the debug control that fires the current deadline now.
func (e *Engine) SkipTimer(userID, roomID string) error {
	if !e.opts.DebugControls {
		return ErrDebugDisabled
	}
	return e.withRoomID(roomID, func(r *Room, out *outbox) error {
		if r.player(userID) == nil {
			return ErrNotInRoom
		}
		if !e.advance(r, out) {
			return ErrInvalidPhase
		}
		return nil
	})
}

// ForceAdvance is the operator variant of SkipTimer.
func (e *Engine) ForceAdvance(roomID string) error {
	return e.withRoomID(roomID, func(r *Room, out *outbox) error {
		if !e.advance(r, out) {
			return ErrInvalidPhase
		}
		return nil
	})
}

// Everything below runs with r.mu held.

// advance is the single entry point shared by deadlines, quorum and the skip
// controls. It only acts on the phase it finds, so the second of two racing
// triggers sees a phase that has already moved on and does nothing.
func (e *Engine) advance(r *Room, out *outbox) bool {
	switch r.phase {
	case PhaseWriting:
		e.endWriting(r, out)
		return true
	case PhaseVoting:
		e.endVoting(r, out)
		return true
	}
	return false
}

func (e *Engine) checkQuorum(r *Room, out *outbox) {
	online := r.onlinePlayers()
	if len(online) == 0 {
		return
	}
	switch r.phase {
	case PhaseWriting:
		for _, p := range online {
			if r.answerBy(p.ID) == nil {
				return
			}
		}
	case PhaseVoting:
		for _, p := range online {
			if _, ok := r.votes[p.ID]; !ok {
				return
			}
		}
	default:
		return
	}
	log.Debug().Str("room", r.ID).Str("phase", string(r.phase)).Msg("everyone responded")
	e.advance(r, out)
}

func (e *Engine) startRound(r *Room, out *outbox) {
	r.phase = PhaseWriting
	r.answers = nil
	r.votes = make(map[string]VoteSet)
	r.shuffled = nil
	r.lastResult = nil
	if r.round-1 < len(r.questions) {
		r.prompt = r.questions[r.round-1]
	} else {
		log.Warn().Str("room", r.ID).Int("round", r.round).Msg("question pool exhausted, using placeholder")
		r.prompt = placeholderPrompt
	}

	d := time.Duration(r.timerDuration) * time.Second
	r.endTime = e.now().Add(d)
	e.armDeadline(r, PhaseWriting, d+writingSlack)

	log.Info().Str("room", r.ID).Int("round", r.round).Str("question", r.prompt.Text).Msg("round started")
	out.room(r, EventNewRound, r.roundInfo())
}

func (e *Engine) endWriting(r *Room, out *outbox) {
	if r.phase != PhaseWriting {
		return
	}
	e.cancelDeadline(r)
	r.phase = PhaseAIProcessing
	out.room(r, EventPhaseChange, r.phase)

	round := r.round
	question := r.prompt.Text
	human := make([]string, 0, len(r.answers))
	for _, a := range r.answers {
		human = append(human, a.Text)
	}
	// The round is suspended, not the room: generation runs after the lock
	// is released and reports back through finishGeneration.
	out.then(func() {
		e.async(func() { e.generate(r, round, question, human) })
	})
}

func (e *Engine) generate(r *Room, round int, question string, human []string) {
	text := ""
	if e.gen != nil {
		ctx, cancel := context.WithTimeout(context.Background(), e.opts.GenerationTimeout)
		var err error
		text, err = e.gen.Generate(ctx, question, human)
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("room", r.ID).Int("round", round).Msg("answer generation failed, using fallback")
			text = ""
		}
	}
	if strings.TrimSpace(text) == "" {
		text = fallbackAnswers[rand.Intn(len(fallbackAnswers))]
	}
	_ = e.withRoom(r, func(out *outbox) error {
		e.finishGeneration(r, round, text, out)
		return nil
	})
}

func (e *Engine) finishGeneration(r *Room, round int, text string, out *outbox) {
	if r.phase != PhaseAIProcessing || r.round != round {
		return
	}
	r.answers = append(r.answers, Answer{ID: e.newID(), Text: text, AuthorID: AIAuthorID})

	shuffled := make([]VotingAnswer, 0, len(r.answers))
	for _, a := range r.answers {
		shuffled = append(shuffled, VotingAnswer{ID: a.ID, Text: a.Text})
	}
	e.shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	r.shuffled = shuffled

	r.phase = PhaseVoting
	r.endTime = e.now().Add(e.opts.VoteDuration)
	e.armDeadline(r, PhaseVoting, e.opts.VoteDuration)

	log.Info().Str("room", r.ID).Int("round", r.round).Int("answers", len(r.answers)).Msg("voting started")
	out.room(r, EventStartVoting, r.votingInfo(e.opts.VoteDuration))
}

func (e *Engine) endVoting(r *Room, out *outbox) {
	if r.phase != PhaseVoting {
		return
	}
	e.cancelDeadline(r)

	voters := make([]string, 0, len(r.players))
	for _, p := range r.players {
		voters = append(voters, p.ID)
	}
	score := ScoreRound(r.answers, r.votes, voters)
	for _, p := range r.players {
		p.Score += score.Deltas[p.ID]
	}
	r.history = append(r.history, RoundRecord{Round: r.round, Question: r.prompt.Text, Judgments: score.Judgments})

	r.phase = PhaseReveal
	r.lastResult = &RoundResult{
		Deltas:      score.Deltas,
		Votes:       score.Verdicts,
		FullAnswers: append([]Answer(nil), r.answers...),
		Players:     r.publicPlayers(),
	}
	log.Info().Str("room", r.ID).Int("round", r.round).Int("voters", len(r.votes)).Msg("round revealed")
	out.room(r, EventPhaseChange, r.phase)
	out.room(r, EventRoundResults, r.lastResult)
}

func (e *Engine) finishGame(r *Room, out *outbox) {
	e.cancelDeadline(r)
	r.phase = PhaseGameOver

	players := r.publicPlayers()
	sort.SliceStable(players, func(i, j int) bool { return players[i].Score > players[j].Score })
	order := make([]string, 0, len(r.players))
	for _, p := range r.players {
		order = append(order, p.ID)
	}
	r.finalStats = &GameOverStats{Players: players, Achievements: Awards(r.history, order)}

	log.Info().Str("room", r.ID).Int("rounds", len(r.history)).Msg("game over")
	out.room(r, EventPhaseChange, r.phase)
	out.room(r, EventGameOverStats, r.finalStats)

	if e.opts.ExportFile != "" {
		rec := r.exportRecord(e.now())
		out.then(func() {
			if err := ExportGame(rec, e.opts.ExportFile); err != nil {
				log.Error().Err(err).Str("room", rec.RoomID).Msg("failed to export game results")
			}
		})
	}
	r.cleanup = e.sched.AfterFunc(e.opts.GameOverGrace, func() {
		_ = e.withRoom(r, func(out *outbox) error {
			log.Info().Str("room", r.ID).Msg("grace period over, closing room")
			e.closeRoom(r, out)
			return nil
		})
	})
	out.then(e.broadcastRoomList)
}

func (r *Room) votingInfo(d time.Duration) *VotingInfo {
	return &VotingInfo{
		Answers:  append([]VotingAnswer(nil), r.shuffled...),
		EndTime:  r.endTime.UnixMilli(),
		Duration: int(d / time.Second),
	}
}

func clamp(v, lo, hi, def int) int {
	if v <= 0 {
		return def
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func defaultShuffle(n int, swap func(i, j int)) {
	rand.Shuffle(n, swap)
}

func newAnswerID() string {
	return uuid.NewString()
}

func sortSummaries(s []RoomSummary) {
	sort.Slice(s, func(i, j int) bool { return s[i].ID < s[j].ID })
}
