package engine

import (
	"bgarena/game"
	"bgarena/gamemaster"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// readEngine answers adapter reads from fixed values or fails them all.
type readEngine struct {
	fakeEngine
	hints []game.Hint
	pips  [2]int
	err   error
}

func (r *readEngine) Position(ctx context.Context) (gamemaster.Position, error) {
	if r.err != nil {
		return gamemaster.Position{}, r.err
	}
	return r.pos, nil
}

func (r *readEngine) Hints(ctx context.Context) ([]game.Hint, error) {
	if r.err != nil {
		return nil, r.err
	}
	if len(r.hints) == 0 {
		return nil, gamemaster.ErrNoHints
	}
	return append([]game.Hint(nil), r.hints...), nil
}

func (r *readEngine) PipCount(ctx context.Context) ([2]int, error) {
	return r.pips, r.err
}

func (r *readEngine) MatchResult(ctx context.Context) (string, error) {
	return r.marker, r.err
}

// unsortedHints returns n hints whose equities are out of order; the best is
// "m7" at 0.9.
func unsortedHints(n int) []game.Hint {
	hints := make([]game.Hint, n)
	for i := range hints {
		equity := float64((i*5)%n) / 100
		if i == 7 {
			equity = 0.9
		}
		hints[i] = game.Hint{Move: game.Move(fmt.Sprintf("m%d", i)), Equity: equity}
	}
	return hints
}

func TestAdapter(t *testing.T) {
	ctx := context.Background()

	t.Run("board reads", func(t *testing.T) {
		var bar game.Side
		bar[0] = 13
		bar[game.BarIndex] = 2
		eng := &readEngine{}
		eng.pos = gamemaster.Position{Board: [2]game.Side{bar, game.StartingSide()}, Turn: game.SeatTwo, Dice: [2]int{6, 4}}
		a := NewAdapter(eng, 1, zerolog.Nop())

		require.Equal(t, game.SeatTwo, a.Turn(ctx))
		dice, ok := a.Dice(ctx)
		require.True(t, ok)
		require.Equal(t, [2]int{6, 4}, dice)
		require.False(t, a.IsCubeDecision(ctx))

		snap, ok := a.Snapshot(ctx)
		require.True(t, ok)
		require.Equal(t, bar, snap.Mover())
		require.Equal(t, game.StartingSide(), snap.Seat(game.SeatOne))

		remaining, ok := a.CheckersRemaining(ctx)
		require.True(t, ok)
		require.Equal(t, [2]int{15, 15}, remaining)
		onBar, ok := a.CheckersOnBar(ctx)
		require.True(t, ok)
		require.Equal(t, [2]int{0, 2}, onBar)

		eng.pos.Dice = [2]int{}
		_, ok = a.Dice(ctx)
		require.False(t, ok)
		require.True(t, a.IsCubeDecision(ctx))
	})

	t.Run("possible moves are reshuffled on every call", func(t *testing.T) {
		eng := &readEngine{hints: unsortedHints(12)}
		a := NewAdapter(eng, 7, zerolog.Nop())

		first := a.PossibleMoves(ctx)
		require.Len(t, first, 12)
		reordered := false
		for range 10 {
			next := a.PossibleMoves(ctx)
			require.ElementsMatch(t, first, next)
			if fmt.Sprint(next) != fmt.Sprint(first) {
				reordered = true
			}
		}
		require.True(t, reordered)
	})

	t.Run("hints are the top ten by equity", func(t *testing.T) {
		eng := &readEngine{hints: unsortedHints(12)}
		a := NewAdapter(eng, 1, zerolog.Nop())

		hints := a.Hints(ctx, 0)
		require.Len(t, hints, 10)
		require.Equal(t, game.Move("m7"), hints[0].Move)
		for i := 1; i < len(hints); i++ {
			require.GreaterOrEqual(t, hints[i-1].Equity, hints[i].Equity)
		}
		require.Len(t, a.Hints(ctx, 3), 3)
		require.Equal(t, unsortedHints(12), eng.hints, "engine hints left untouched")
	})

	t.Run("best move is the highest equity", func(t *testing.T) {
		eng := &readEngine{hints: unsortedHints(12)}
		a := NewAdapter(eng, 1, zerolog.Nop())
		move, ok := a.BestMove(ctx)
		require.True(t, ok)
		require.Equal(t, game.Move("m7"), move)

		eng.hints = nil
		_, ok = a.BestMove(ctx)
		require.False(t, ok)
	})

	t.Run("bundle holds only granted inputs", func(t *testing.T) {
		eng := &readEngine{hints: unsortedHints(4)}
		a := NewAdapter(eng, 1, zerolog.Nop())

		b := a.Bundle(ctx, game.Capabilities{Hints: true}, 2)
		require.Equal(t, game.Capabilities{Hints: true}, b.Granted())
		require.Len(t, b.Hints.OrElse(nil), 2)

		eng.hints = nil
		b = a.Bundle(ctx, game.Capabilities{BestMove: true}, 0)
		best, ok := b.BestMove.Get()
		require.True(t, ok, "granted best move stays present without hints")
		require.Empty(t, best)
		require.False(t, a.Bundle(ctx, game.Capabilities{}, 0).Granted().Any())
	})

	t.Run("engine errors read as empty results", func(t *testing.T) {
		eng := &readEngine{hints: unsortedHints(4), err: errors.New("evaluation unavailable")}
		a := NewAdapter(eng, 1, zerolog.Nop())

		_, ok := a.Snapshot(ctx)
		require.False(t, ok)
		_, ok = a.Dice(ctx)
		require.False(t, ok)
		require.False(t, a.IsCubeDecision(ctx))
		require.Equal(t, -1, a.Turn(ctx))
		require.Empty(t, a.PossibleMoves(ctx))
		require.Empty(t, a.Hints(ctx, 0))
		_, ok = a.BestMove(ctx)
		require.False(t, ok)
		_, ok = a.PipCount(ctx)
		require.False(t, ok)
		_, ok = a.SeatBoards(ctx)
		require.False(t, ok)
		_, ok = a.CheckersRemaining(ctx)
		require.False(t, ok)
		_, ok = a.CheckersOnBar(ctx)
		require.False(t, ok)
		require.Empty(t, a.WinnerMarker(ctx))
	})
}
