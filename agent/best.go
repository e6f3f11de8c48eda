package agent

import (
	"bgarena/game"
	"context"

	"golang.org/x/exp/rand"
)

const BestMoveAgentName = "BestMoveAgent"

// BestMoveAgent plays the engine's top rated move.
type BestMoveAgent struct {
	base
	rng      *rand.Rand
	possible []game.Move
}

func NewBestMoveAgent(opts Options) (Agent, error) {
	return &BestMoveAgent{
		base: newBase(BestMoveAgentName, opts, game.Capabilities{BestMove: true}),
		rng:  opts.rng(),
	}, nil
}

func (a *BestMoveAgent) ChooseMove(ctx context.Context, board game.Snapshot, input game.Bundle) (game.Move, bool) {
	a.possible = input.PossibleMoves.OrElse(nil)
	move, ok := input.BestMove.Get()
	switch {
	case !ok:
		a.logger.Warn().Msg("best move not provided")
	case move == "":
		a.logger.Debug().Msg("engine has no best move")
	}
	return move, move != ""
}

// HandleInvalidMove falls back to a random possible move when those were
// granted.
func (a *BestMoveAgent) HandleInvalidMove(ctx context.Context, previous game.Move) (game.Move, bool) {
	return pick(a.rng, a.possible, previous)
}
