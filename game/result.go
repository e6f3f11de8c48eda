package game

import (
	"bgarena/utils"
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Markers are the engine's symbols for seat 0 and seat 1, in seat order.
var Markers = []string{"X", "O"}

// Winner is a seat index, or Unknown when the game ended without a recorded
// winner.
type Winner int

const (
	Unknown   Winner = -1
	PlayerOne Winner = SeatOne
	PlayerTwo Winner = SeatTwo
)

// WinnerFromMarker maps the engine's winner symbol to a seat.
func WinnerFromMarker(marker string) Winner {
	return Winner(utils.FindIndex(Markers, marker))
}

func (w Winner) Known() bool {
	return w == PlayerOne || w == PlayerTwo
}

// Opponent returns the other seat, Unknown stays Unknown.
func (w Winner) Opponent() Winner {
	if !w.Known() {
		return Unknown
	}
	return Winner(Other(int(w)))
}

func (w Winner) String() string {
	if !w.Known() {
		return "unknown"
	}
	return strconv.Itoa(int(w))
}

func (w Winner) MarshalJSON() ([]byte, error) {
	if !w.Known() {
		return []byte(`"unknown"`), nil
	}
	return []byte(strconv.Itoa(int(w))), nil
}

func (w *Winner) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte(`"unknown"`)) {
		*w = Unknown
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid winner %s: %w", data, err)
	}
	*w = Winner(n)
	if !w.Known() {
		*w = Unknown
	}
	return nil
}

// GameType classifies how badly the loser was beaten.
type GameType string

const (
	Normal     GameType = "normal"
	Gammon     GameType = "gammon"
	Backgammon GameType = "backgammon"
)

// Classify determines the game type from the loser's final board. A loser
// that bore nothing off is gammoned, and backgammoned if a checker is still
// in the winner's home board or on the bar.
func Classify(loser Side) GameType {
	if loser.Checkers() < CheckersPerSide {
		return Normal
	}
	if loser.InZone(NumPoints-HomePoints, BarIndex) > 0 {
		return Backgammon
	}
	return Gammon
}

// PlayerStatistics are the per-player counters accumulated during a game.
type PlayerStatistics struct {
	Name              string `json:"name"`
	InvalidMoves      int    `json:"invalid_moves"`
	TotalMoves        int    `json:"total_moves"`
	CheckersRemaining int    `json:"checkers_remaining"`
	CheckersOnBar     int    `json:"checkers_on_bar"`
	PipCount          int    `json:"pip_count"`
	CubeDecisions     int    `json:"cube_decisions"`
	CubeAccepts       int    `json:"cube_accepts"`
	CubeRejects       int    `json:"cube_rejects"`
}

// GameResult is the record produced once per game. Its JSON layout is read
// by the run evaluation tooling.
type GameResult struct {
	GameID               string           `json:"game_id"`
	Winner               Winner           `json:"winner"`
	Loser                Winner           `json:"loser"`
	WinnerName           string           `json:"winner_name"`
	LoserName            string           `json:"loser_name"`
	TotalTurns           int              `json:"total_turns"`
	GameDuration         float64          `json:"game_duration"`
	Player1Stats         PlayerStatistics `json:"player1_stats"`
	Player2Stats         PlayerStatistics `json:"player2_stats"`
	FinalScoreDifference int              `json:"final_score_difference"`
	GameType             GameType         `json:"game_type"`
}

// Stats returns the statistics of the given seat.
func (r GameResult) Stats(seat int) PlayerStatistics {
	if seat == SeatTwo {
		return r.Player2Stats
	}
	return r.Player1Stats
}
