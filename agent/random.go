package agent

import (
	"bgarena/game"
	"context"

	"golang.org/x/exp/rand"
)

const RandomAgentName = "RandomAgent"

// RandomAgent plays a uniformly random legal move.
type RandomAgent struct {
	base
	rng  *rand.Rand
	last []game.Move
}

func NewRandomAgent(opts Options) (Agent, error) {
	return &RandomAgent{
		base: newBase(RandomAgentName, opts, game.Capabilities{PossibleMoves: true}),
		rng:  opts.rng(),
	}, nil
}

func (a *RandomAgent) ChooseMove(ctx context.Context, board game.Snapshot, input game.Bundle) (game.Move, bool) {
	a.last = input.PossibleMoves.OrElse(nil)
	move, ok := pick(a.rng, a.last, "")
	if !ok {
		a.logger.Warn().Msg("no possible moves")
	}
	return move, ok
}

func (a *RandomAgent) HandleInvalidMove(ctx context.Context, previous game.Move) (game.Move, bool) {
	return pick(a.rng, a.last, previous)
}
