package game

import (
	"time"
)

type Phase string

const (
	PhaseLobby        Phase = "lobby"
	PhaseWriting      Phase = "writing"
	PhaseAIProcessing Phase = "ai_processing"
	PhaseVoting       Phase = "voting"
	PhaseReveal       Phase = "reveal"
	PhaseGameOver     Phase = "game_over"
)

// AIAuthorID is the author id of the generated answer in every round.
const AIAuthorID = "ai"

// Judgment types a voter may attach to an answer.
const (
	GuessAI    = "ai"
	GuessHuman = "human"
)

// Identity is what the profile provider resolves a connection to.
type Identity struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// Settings arrive with start_game.
type Settings struct {
	Rounds    int      `json:"rounds"`
	TimeLimit int      `json:"timeLimit"` // seconds
	Topics    []string `json:"topics"`
}

// Prompt is fixed once a round starts and never mutated afterwards.
type Prompt struct {
	Text       string `json:"text"`
	TopicEmoji string `json:"topicEmoji"`
	TopicName  string `json:"topicName"`
}

type Player struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Avatar   string    `json:"avatar,omitempty"`
	Score    int       `json:"score"`
	Online   bool      `json:"online"`
	IsHost   bool      `json:"isHost"`
	JoinedAt time.Time `json:"joinedAt"`

	conn string
}

type Answer struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	AuthorID string `json:"authorId"`
}

// VotingAnswer is an answer with its author hidden.
type VotingAnswer struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type Judgment struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId,omitempty"`
}

// VoteSet maps answer id to the voter's judgment about it.
type VoteSet map[string]Judgment

// Verdict is one voter's judgment on one answer as shown at reveal.
type Verdict struct {
	PlayerID   string `json:"playerId"`
	IsCorrect  bool   `json:"isCorrect"`
	IsDeceived bool   `json:"isDeceived"`
}

// JudgmentRecord is kept in the round history for end-of-game awards.
type JudgmentRecord struct {
	VoterID         string `json:"voterId"`
	TargetID        string `json:"targetId"`
	GuessType       string `json:"guessType"`
	GuessedPlayerID string `json:"guessedPlayerId,omitempty"`
	IsCorrect       bool   `json:"isCorrect"`
}

type RoundRecord struct {
	Round     int              `json:"round"`
	Question  string           `json:"question"`
	Judgments []JudgmentRecord `json:"votes"`
}

type RoundResult struct {
	Deltas      map[string]int       `json:"deltas"`
	Votes       map[string][]Verdict `json:"votes"`
	FullAnswers []Answer             `json:"fullAnswers"`
	Players     []Player             `json:"players"`
}

type RoundInfo struct {
	Round       int    `json:"round"`
	TotalRounds int    `json:"totalRounds"`
	Question    string `json:"question"`
	TopicEmoji  string `json:"topicEmoji"`
	TopicName   string `json:"topicName"`
	EndTime     int64  `json:"endTime"` // epoch ms
	Duration    int    `json:"duration"`
}

type VotingInfo struct {
	Answers  []VotingAnswer `json:"answers"`
	EndTime  int64          `json:"endTime"`
	Duration int            `json:"duration"`
}

type Achievement struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Description string `json:"desc"`
	PlayerID    string `json:"playerId"`
	Count       int    `json:"count"`
}

type GameOverStats struct {
	Players      []Player      `json:"players"`
	Achievements []Achievement `json:"achievements"`
}

// RoomView is what room_created and joined_room carry.
type RoomView struct {
	ID            string   `json:"id"`
	HostID        string   `json:"hostId"`
	Phase         Phase    `json:"phase"`
	Round         int      `json:"round"`
	MaxRounds     int      `json:"maxRounds"`
	TimerDuration int      `json:"timerDuration"`
	Players       []Player `json:"players"`
}

// RoomSummary is one entry of rooms_list_update.
type RoomSummary struct {
	ID          string `json:"id"`
	HostName    string `json:"hostName"`
	PlayerCount int    `json:"playerCount"`
	OnlineCount int    `json:"onlineCount"`
	Phase       Phase  `json:"phase"`
	Round       int    `json:"round"`
	MaxRounds   int    `json:"maxRounds"`
}

// Snapshot is delivered on reconnect and on request_game_state.
type Snapshot struct {
	RoomID   string       `json:"roomId"`
	IsHost   bool         `json:"isHost"`
	Phase    Phase        `json:"phase"`
	Players  []Player     `json:"players"`
	Round    *RoundInfo   `json:"round,omitempty"`
	MyAnswer string       `json:"myAnswer,omitempty"`
	Voting   *VotingInfo  `json:"voting,omitempty"`
	HasVoted bool         `json:"hasVoted"`
	Results  *RoundResult `json:"results,omitempty"`
}

type Reaction struct {
	PlayerID string `json:"playerId"`
	Emoji    string `json:"emoji"`
}
