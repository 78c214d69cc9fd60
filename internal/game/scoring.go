package game

// Points per judgment.
const (
	RewardAIDetected    = 100 // called the generated answer "ai"
	RewardAuthorGuessed = 25  // named the right author of a human answer
	PenaltyWrongGuess   = 50  // any wrong judgment
	RewardDeception     = 75  // to the author whose answer was called "ai"
)

// RoundScore is the outcome of one round's judgments.
type RoundScore struct {
	Deltas    map[string]int
	Verdicts  map[string][]Verdict // answer id -> judgments about it
	Judgments []JudgmentRecord
}

// ScoreRound judges every vote set against the true authors. players gives
// the roster in order; only players on it receive deltas, and a player
// without a vote set is skipped. Deltas are only summed here; the caller
// applies them to scores once.
func ScoreRound(answers []Answer, votes map[string]VoteSet, players []string) RoundScore {
	rs := RoundScore{
		Deltas:   make(map[string]int, len(players)),
		Verdicts: make(map[string][]Verdict),
	}
	for _, id := range players {
		rs.Deltas[id] = 0
	}

	for _, voter := range players {
		set, ok := votes[voter]
		if !ok {
			continue
		}
		for _, a := range answers {
			j, ok := set[a.ID]
			if !ok {
				continue
			}
			correct, deceived := false, false
			switch {
			case j.Type == GuessAI && a.AuthorID == AIAuthorID:
				rs.Deltas[voter] += RewardAIDetected
				correct = true
			case j.Type == GuessAI:
				rs.Deltas[voter] -= PenaltyWrongGuess
				if _, known := rs.Deltas[a.AuthorID]; known {
					rs.Deltas[a.AuthorID] += RewardDeception
				}
				deceived = true
			case j.Type == GuessHuman && j.PlayerID == a.AuthorID:
				rs.Deltas[voter] += RewardAuthorGuessed
				correct = true
			default:
				rs.Deltas[voter] -= PenaltyWrongGuess
			}

			rs.Verdicts[a.ID] = append(rs.Verdicts[a.ID], Verdict{PlayerID: voter, IsCorrect: correct, IsDeceived: deceived})
			rec := JudgmentRecord{VoterID: voter, TargetID: a.AuthorID, GuessType: j.Type, IsCorrect: correct}
			if j.Type == GuessHuman {
				rec.GuessedPlayerID = j.PlayerID
			}
			rs.Judgments = append(rs.Judgments, rec)
		}
	}
	return rs
}

// Award keys.
const (
	AwardDetective = "detective"
	AwardCyborg    = "cyborg"
	AwardOpenBook  = "open_book"
)

// Awards derives the end-of-game titles from the round history. Ties go to
// the player who comes first in players.
func Awards(history []RoundRecord, players []string) []Achievement {
	type counters struct{ correct, mistakenForAI, seenThrough int }
	stats := make(map[string]*counters, len(players))
	for _, id := range players {
		stats[id] = &counters{}
	}

	for _, round := range history {
		for _, v := range round.Judgments {
			if s := stats[v.VoterID]; s != nil && v.IsCorrect {
				s.correct++
			}
			if v.TargetID == AIAuthorID {
				continue
			}
			s := stats[v.TargetID]
			if s == nil {
				continue
			}
			if v.GuessType == GuessAI {
				s.mistakenForAI++
			}
			if v.GuessType == GuessHuman && v.IsCorrect {
				s.seenThrough++
			}
		}
	}

	best := func(field func(*counters) int) (string, int) {
		id, top := "", -1
		for _, p := range players {
			if n := field(stats[p]); n > top {
				id, top = p, n
			}
		}
		return id, top
	}

	out := make([]Achievement, 0, 3)
	add := func(key, title, desc string, field func(*counters) int) {
		id, n := best(field)
		if id == "" {
			return
		}
		out = append(out, Achievement{Key: key, Title: title, Description: desc, PlayerID: id, Count: n})
	}
	add(AwardDetective, "🕵️ Sherlock Holmes", "Most correct guesses", func(c *counters) int { return c.correct })
	add(AwardCyborg, "🤖 Terminator", "Most often mistaken for the bot", func(c *counters) int { return c.mistakenForAI })
	add(AwardOpenBook, "📖 Open Book", "Most predictable player", func(c *counters) int { return c.seenThrough })
	return out
}
