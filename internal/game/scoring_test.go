package game

import "testing"

func TestScoreDetectingAI(t *testing.T) {
	answers := []Answer{
		{ID: "a1", Text: "x", AuthorID: "A"},
		{ID: "b1", Text: "y", AuthorID: "B"},
		{ID: "ai", Text: "z", AuthorID: AIAuthorID},
	}
	votes := map[string]VoteSet{"A": {"ai": {Type: GuessAI}}}

	rs := ScoreRound(answers, votes, []string{"A", "B"})
	if rs.Deltas["A"] != RewardAIDetected {
		t.Fatalf("expected A +%d, got %d", RewardAIDetected, rs.Deltas["A"])
	}
	if rs.Deltas["B"] != 0 {
		t.Fatalf("B should not change, got %d", rs.Deltas["B"])
	}
	v := rs.Verdicts["ai"]
	if len(v) != 1 || !v[0].IsCorrect || v[0].IsDeceived || v[0].PlayerID != "A" {
		t.Fatalf("unexpected verdicts %+v", v)
	}
}

func TestScoreCallingHumanAI(t *testing.T) {
	answers := []Answer{
		{ID: "a1", AuthorID: "A"},
		{ID: "b1", AuthorID: "B"},
		{ID: "ai", AuthorID: AIAuthorID},
	}
	votes := map[string]VoteSet{"A": {"b1": {Type: GuessAI}}}

	rs := ScoreRound(answers, votes, []string{"A", "B"})
	if rs.Deltas["A"] != -PenaltyWrongGuess {
		t.Fatalf("expected A -%d, got %d", PenaltyWrongGuess, rs.Deltas["A"])
	}
	if rs.Deltas["B"] != RewardDeception {
		t.Fatalf("expected B +%d, got %d", RewardDeception, rs.Deltas["B"])
	}
	v := rs.Verdicts["b1"]
	if len(v) != 1 || v[0].IsCorrect || !v[0].IsDeceived {
		t.Fatalf("unexpected verdicts %+v", v)
	}
}

func TestScoreHumanGuesses(t *testing.T) {
	answers := []Answer{
		{ID: "a1", AuthorID: "A"},
		{ID: "b1", AuthorID: "B"},
		{ID: "c1", AuthorID: "C"},
		{ID: "ai", AuthorID: AIAuthorID},
	}
	votes := map[string]VoteSet{
		"A": {
			"b1": {Type: GuessHuman, PlayerID: "B"}, // right
			"c1": {Type: GuessHuman, PlayerID: "B"}, // wrong author
			"ai": {Type: GuessHuman, PlayerID: "C"}, // fooled by the bot
		},
	}
	rs := ScoreRound(answers, votes, []string{"A", "B", "C"})
	want := RewardAuthorGuessed - 2*PenaltyWrongGuess
	if rs.Deltas["A"] != want {
		t.Fatalf("expected A %d, got %d", want, rs.Deltas["A"])
	}
	if rs.Deltas["B"] != 0 || rs.Deltas["C"] != 0 {
		t.Fatalf("human guesses do not move the authors: %+v", rs.Deltas)
	}
	if len(rs.Judgments) != 3 {
		t.Fatalf("expected 3 judgment records, got %d", len(rs.Judgments))
	}
	if rs.Judgments[0].GuessedPlayerID != "B" || !rs.Judgments[0].IsCorrect {
		t.Fatalf("unexpected first record %+v", rs.Judgments[0])
	}
}

func TestScoreSkipsNonVotersAndUnknownPlayers(t *testing.T) {
	answers := []Answer{{ID: "x1", AuthorID: "GONE"}, {ID: "ai", AuthorID: AIAuthorID}}
	votes := map[string]VoteSet{
		"A":        {"x1": {Type: GuessAI}},
		"STRANGER": {"ai": {Type: GuessAI}},
	}
	rs := ScoreRound(answers, votes, []string{"A", "B"})
	if rs.Deltas["B"] != 0 {
		t.Fatalf("non-voter must have zero delta, got %d", rs.Deltas["B"])
	}
	if _, ok := rs.Deltas["GONE"]; ok {
		t.Fatal("authors off the roster receive no delta")
	}
	if _, ok := rs.Deltas["STRANGER"]; ok {
		t.Fatal("voters off the roster are ignored")
	}
}

func TestScoreRoundIsDeterministic(t *testing.T) {
	answers := []Answer{{ID: "a1", AuthorID: "A"}, {ID: "b1", AuthorID: "B"}, {ID: "ai", AuthorID: AIAuthorID}}
	votes := map[string]VoteSet{
		"A": {"b1": {Type: GuessAI}, "ai": {Type: GuessHuman, PlayerID: "B"}},
		"B": {"a1": {Type: GuessHuman, PlayerID: "A"}, "ai": {Type: GuessAI}},
	}
	first := ScoreRound(answers, votes, []string{"A", "B"})
	for i := 0; i < 20; i++ {
		again := ScoreRound(answers, votes, []string{"A", "B"})
		for id, d := range first.Deltas {
			if again.Deltas[id] != d {
				t.Fatalf("run %d: delta for %s changed %d -> %d", i, id, d, again.Deltas[id])
			}
		}
		for j := range first.Judgments {
			if again.Judgments[j] != first.Judgments[j] {
				t.Fatalf("run %d: judgment order changed", i)
			}
		}
	}
}

func TestAwards(t *testing.T) {
	history := []RoundRecord{{
		Round: 1,
		Judgments: []JudgmentRecord{
			{VoterID: "A", TargetID: AIAuthorID, GuessType: GuessAI, IsCorrect: true},
			{VoterID: "A", TargetID: "B", GuessType: GuessHuman, GuessedPlayerID: "B", IsCorrect: true},
			{VoterID: "B", TargetID: "C", GuessType: GuessAI},
			{VoterID: "A", TargetID: "C", GuessType: GuessAI},
		},
	}}
	got := map[string]Achievement{}
	for _, a := range Awards(history, []string{"A", "B", "C"}) {
		got[a.Key] = a
	}
	if a := got[AwardDetective]; a.PlayerID != "A" || a.Count != 2 {
		t.Fatalf("detective: %+v", a)
	}
	if a := got[AwardCyborg]; a.PlayerID != "C" || a.Count != 2 {
		t.Fatalf("cyborg: %+v", a)
	}
	if a := got[AwardOpenBook]; a.PlayerID != "B" || a.Count != 1 {
		t.Fatalf("open book: %+v", a)
	}
}

func TestAwardsTieGoesToFirstPlayer(t *testing.T) {
	got := Awards(nil, []string{"B", "A"})
	if len(got) != 3 {
		t.Fatalf("expected 3 awards, got %d", len(got))
	}
	for _, a := range got {
		if a.PlayerID != "B" || a.Count != 0 {
			t.Fatalf("ties go to the first player: %+v", a)
		}
	}
	if len(Awards(nil, nil)) != 0 {
		t.Fatal("no players, no awards")
	}
}
