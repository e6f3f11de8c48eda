package metrics

import (
	"bgarena/game"
	"context"
	"time"
)

// Outcomes of a turn's move resolution.
const (
	OutcomeApplied   = "applied"
	OutcomeExhausted = "exhausted"
	OutcomePass      = "pass"
)

// MoveMetric describes how one turn was resolved.
type MoveMetric struct {
	Turn     int
	Seat     int
	Attempts int
	Outcome  string
	Move     game.Move
	Duration time.Duration
}

type GameMetric struct {
	GameID     string
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	TotalTurns int
	Winner     game.Winner
}

// Source provides the final board readings indexed by seat. Reads report
// false when the engine could not answer.
type Source interface {
	SeatBoards(ctx context.Context) ([2]game.Side, bool)
	PipCount(ctx context.Context) ([2]int, bool)
	CheckersRemaining(ctx context.Context) ([2]int, bool)
	CheckersOnBar(ctx context.Context) ([2]int, bool)
}

type Option func(c *Collector)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Collector) {
		c.now = now
	}
}

// Collector accumulates per-player statistics during one game and freezes
// them into a GameResult. It is owned by a single game loop and is not safe
// for concurrent use.
type Collector struct {
	now       func() time.Time
	gameID    string
	stats     [2]game.PlayerStatistics
	moves     []MoveMetric
	startTime time.Time
	finalized bool
	game      GameMetric
}

func NewCollector(opts ...Option) *Collector {
	c := &Collector{now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start resets the counters for a new game.
func (c *Collector) Start(gameID string, names [2]string) {
	c.gameID = gameID
	c.stats = [2]game.PlayerStatistics{{Name: names[0]}, {Name: names[1]}}
	c.moves = nil
	c.startTime = c.now()
	c.finalized = false
	c.game = GameMetric{}
}

// RecordAttempt accounts one resolved move for seat.
func (c *Collector) RecordAttempt(seat int, valid bool) {
	c.stats[seat].TotalMoves++
	if !valid {
		c.stats[seat].InvalidMoves++
	}
}

func (c *Collector) RecordCubeDecision(seat int, outcome game.CubeOutcome) {
	c.stats[seat].CubeDecisions++
	switch outcome {
	case game.CubeAccepted:
		c.stats[seat].CubeAccepts++
	case game.CubeRejected:
		c.stats[seat].CubeRejects++
	}
}

func (c *Collector) RecordMove(m MoveMetric) {
	c.moves = append(c.moves, m)
}

func (c *Collector) Stats(seat int) game.PlayerStatistics {
	return c.stats[seat]
}

func (c *Collector) Moves() []MoveMetric {
	return c.moves
}

// Game returns the game level metric, valid after Finalize.
func (c *Collector) Game() GameMetric {
	return c.game
}

// Finalize reads the final board from src and produces the game result. It
// must be called exactly once per game.
func (c *Collector) Finalize(ctx context.Context, winner game.Winner, turns int, src Source) game.GameResult {
	if c.finalized {
		panic("statistics already finalized for game " + c.gameID)
	}
	c.finalized = true
	end := c.now()

	if remaining, ok := src.CheckersRemaining(ctx); ok {
		for seat := range c.stats {
			c.stats[seat].CheckersRemaining = remaining[seat]
		}
	}
	if bar, ok := src.CheckersOnBar(ctx); ok {
		for seat := range c.stats {
			c.stats[seat].CheckersOnBar = bar[seat]
		}
	}
	boards, haveBoards := src.SeatBoards(ctx)
	pips, havePips := src.PipCount(ctx)
	if !havePips && haveBoards {
		pips, havePips = [2]int{boards[0].Pips(), boards[1].Pips()}, true
	}
	if havePips {
		for seat := range c.stats {
			c.stats[seat].PipCount = pips[seat]
		}
	}

	if !winner.Known() {
		winner = game.Unknown
	}
	loser := winner.Opponent()
	result := game.GameResult{
		GameID:               c.gameID,
		Winner:               winner,
		Loser:                loser,
		WinnerName:           c.name(winner),
		LoserName:            c.name(loser),
		TotalTurns:           turns,
		GameDuration:         end.Sub(c.startTime).Seconds(),
		Player1Stats:         c.stats[game.SeatOne],
		Player2Stats:         c.stats[game.SeatTwo],
		FinalScoreDifference: abs(pips[0] - pips[1]),
		GameType:             game.Normal,
	}
	if loser.Known() && haveBoards {
		result.GameType = game.Classify(boards[loser])
	}

	c.game = GameMetric{
		GameID:     c.gameID,
		StartTime:  c.startTime,
		EndTime:    end,
		Duration:   end.Sub(c.startTime),
		TotalTurns: turns,
		Winner:     winner,
	}
	return result
}

func (c *Collector) name(w game.Winner) string {
	if !w.Known() {
		return "unknown"
	}
	return c.stats[w].Name
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
