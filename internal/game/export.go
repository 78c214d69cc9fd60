package game

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// GameRecord is everything ExportGame writes about a finished game.
type GameRecord struct {
	RoomID   string
	Finished time.Time
	Players  []Player
	Names    map[string]string
	Rounds   []RoundRecord
	Awards   []Achievement
}

// exportRecord copies what the export needs. Callers hold r.mu.
func (r *Room) exportRecord(now time.Time) GameRecord {
	rec := GameRecord{
		RoomID:   r.ID,
		Finished: now,
		Players:  r.publicPlayers(),
		Names:    map[string]string{AIAuthorID: "AI"},
		Rounds:   append([]RoundRecord(nil), r.history...),
	}
	for _, p := range r.players {
		rec.Names[p.ID] = p.Name
	}
	if r.finalStats != nil {
		rec.Awards = r.finalStats.Achievements
	}
	return rec
}

// ExportGame appends a finished game to a text file.
func ExportGame(rec GameRecord, filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	name := func(id string) string {
		if n, ok := rec.Names[id]; ok && n != "" {
			return n
		}
		return "Unknown"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Bot or Not Results - Room %s\n", rec.RoomID))
	sb.WriteString(fmt.Sprintf("Finished: %s\n", rec.Finished.Format("2006-01-02 15:04:05")))
	sb.WriteString(strings.Repeat("=", 50) + "\n\n")

	for _, round := range rec.Rounds {
		sb.WriteString(fmt.Sprintf("Round %d: \"%s\"\n", round.Round, round.Question))
		sb.WriteString(strings.Repeat("-", 40) + "\n")
		for _, v := range round.Judgments {
			guess := "AI"
			if v.GuessType == GuessHuman {
				guess = name(v.GuessedPlayerID)
			}
			mark := "wrong"
			if v.IsCorrect {
				mark = "right"
			}
			sb.WriteString(fmt.Sprintf("- %s said %s wrote %s's answer (%s)\n", name(v.VoterID), guess, name(v.TargetID), mark))
		}
		sb.WriteString("\n")
	}

	players := append([]Player(nil), rec.Players...)
	sort.SliceStable(players, func(i, j int) bool { return players[i].Score > players[j].Score })
	sb.WriteString("Final scores:\n")
	for _, p := range players {
		sb.WriteString(fmt.Sprintf("- %s: %d points\n", p.Name, p.Score))
	}
	if len(rec.Awards) > 0 {
		sb.WriteString("\nAwards:\n")
		for _, a := range rec.Awards {
			sb.WriteString(fmt.Sprintf("- %s: %s (%d)\n", a.Title, name(a.PlayerID), a.Count))
		}
	}
	sb.WriteString(strings.Repeat("=", 50) + "\n\n")

	if _, err := file.WriteString(sb.String()); err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}
	return nil
}
