package engine

import (
	"bgarena/game"
	"bgarena/gamemaster"
	"bgarena/meta"
	"bgarena/utils"
	"context"
	"sort"

	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"
)

// Adapter reads the engine state into normalized values for agents and
// statistics. Engine failures are logged and read as empty results.
type Adapter struct {
	engine gamemaster.Engine
	rng    *rand.Rand
	logger zerolog.Logger
}

func NewAdapter(engine gamemaster.Engine, seed uint64, logger zerolog.Logger) *Adapter {
	return &Adapter{
		engine: engine,
		rng:    rand.New(rand.NewSource(seed)),
		logger: logger,
	}
}

func (a *Adapter) position(ctx context.Context) (gamemaster.Position, bool) {
	pos, err := a.engine.Position(ctx)
	if err != nil {
		a.logger.Debug().Err(err).Msg("position unavailable")
		return gamemaster.Position{}, false
	}
	return pos, true
}

// Snapshot returns the board with the side to move first.
func (a *Adapter) Snapshot(ctx context.Context) (game.Snapshot, bool) {
	pos, ok := a.position(ctx)
	if !ok {
		return game.Snapshot{}, false
	}
	return game.NewSnapshot(pos.Seats(), pos.Turn, pos.Dice), true
}

// Dice returns the current roll, absent before a roll or during a cube
// decision.
func (a *Adapter) Dice(ctx context.Context) ([2]int, bool) {
	pos, ok := a.position(ctx)
	if !ok || pos.Dice == [2]int{} {
		return [2]int{}, false
	}
	return pos.Dice, true
}

// IsCubeDecision reports the no-dice sentinel the engine shows after a roll
// when a cube decision is pending.
func (a *Adapter) IsCubeDecision(ctx context.Context) bool {
	pos, ok := a.position(ctx)
	return ok && pos.Dice == [2]int{}
}

// Turn returns the seat to move, -1 when unknown.
func (a *Adapter) Turn(ctx context.Context) int {
	pos, ok := a.position(ctx)
	if !ok {
		return -1
	}
	return pos.Turn
}

func (a *Adapter) hints(ctx context.Context) []game.Hint {
	hints, err := a.engine.Hints(ctx)
	if err != nil {
		a.logger.Debug().Err(err).Msg("hints unavailable")
		return nil
	}
	return hints
}

// PossibleMoves returns every legal move in a fresh random order.
func (a *Adapter) PossibleMoves(ctx context.Context) []game.Move {
	hints := a.hints(ctx)
	moves := make([]game.Move, len(hints))
	for i, h := range hints {
		moves[i] = h.Move
	}
	a.rng.Shuffle(len(moves), func(i, j int) {
		moves[i], moves[j] = moves[j], moves[i]
	})
	return moves
}

// Hints returns at most limit hints by descending equity. A non-positive
// limit uses meta.HINT_LIMIT.
func (a *Adapter) Hints(ctx context.Context, limit int) []game.Hint {
	if limit <= 0 {
		limit = meta.HINT_LIMIT
	}
	hints := append([]game.Hint(nil), a.hints(ctx)...)
	sort.SliceStable(hints, func(i, j int) bool {
		return hints[i].Equity > hints[j].Equity
	})
	if len(hints) > limit {
		hints = hints[:limit]
	}
	return hints
}

// BestMove returns the move with the highest equity, absent without hints.
func (a *Adapter) BestMove(ctx context.Context) (game.Move, bool) {
	hints := a.hints(ctx)
	if len(hints) == 0 {
		return "", false
	}
	best := hints[0]
	for _, h := range hints[1:] {
		if h.Equity > best.Equity {
			best = h
		}
	}
	return best.Move, true
}

// PipCount returns the pip counts indexed by seat.
func (a *Adapter) PipCount(ctx context.Context) ([2]int, bool) {
	pips, err := a.engine.PipCount(ctx)
	if err != nil {
		a.logger.Debug().Err(err).Msg("pip count unavailable")
		return [2]int{}, false
	}
	return pips, true
}

// SeatBoards returns both sides indexed by seat.
func (a *Adapter) SeatBoards(ctx context.Context) ([2]game.Side, bool) {
	pos, ok := a.position(ctx)
	if !ok {
		return [2]game.Side{}, false
	}
	return pos.Seats(), true
}

// CheckersRemaining returns the checkers left on the board per seat.
func (a *Adapter) CheckersRemaining(ctx context.Context) ([2]int, bool) {
	boards, ok := a.SeatBoards(ctx)
	if !ok {
		return [2]int{}, false
	}
	return [2]int{boards[0].Checkers(), boards[1].Checkers()}, true
}

func (a *Adapter) CheckersOnBar(ctx context.Context) ([2]int, bool) {
	boards, ok := a.SeatBoards(ctx)
	if !ok {
		return [2]int{}, false
	}
	return [2]int{boards[0].Bar(), boards[1].Bar()}, true
}

// WinnerMarker returns the engine's recorded winner symbol, empty when none.
func (a *Adapter) WinnerMarker(ctx context.Context) string {
	marker, err := a.engine.MatchResult(ctx)
	if err != nil {
		a.logger.Debug().Err(err).Msg("match result unavailable")
		return ""
	}
	return marker
}

// Bundle fetches only the inputs caps declares. Undeclared fields stay
// absent; a granted best move the engine cannot name is present and empty.
func (a *Adapter) Bundle(ctx context.Context, caps game.Capabilities, hintLimit int) game.Bundle {
	var b game.Bundle
	if caps.PossibleMoves {
		b.PossibleMoves = utils.Some(a.PossibleMoves(ctx))
	}
	if caps.Hints {
		b.Hints = utils.Some(a.Hints(ctx, hintLimit))
	}
	if caps.BestMove {
		move, _ := a.BestMove(ctx)
		b.BestMove = utils.Some(move)
	}
	return b.Filter(caps)
}
