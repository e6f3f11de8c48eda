package agent

import (
	"bgarena/game"
	"context"
	"math"

	"golang.org/x/exp/rand"
)

const HintSamplerAgentName = "HintSamplerAgent"

// HintSamplerAgent samples among the engine hints, weighting each by
// exp(equity / temperature). Low temperatures approach the best move, high
// ones approach a uniform pick.
type HintSamplerAgent struct {
	base
	rng         *rand.Rand
	temperature float64
	hints       []game.Hint
}

func NewHintSamplerAgent(opts Options) (Agent, error) {
	t := opts.Temperature
	if t <= 0 {
		t = 1
	}
	return &HintSamplerAgent{
		base:        newBase(HintSamplerAgentName, opts, game.Capabilities{Hints: true}),
		rng:         opts.rng(),
		temperature: t,
	}, nil
}

func (a *HintSamplerAgent) ChooseMove(ctx context.Context, board game.Snapshot, input game.Bundle) (game.Move, bool) {
	a.hints = input.Hints.OrElse(nil)
	return sample(a.rng, policy(a.hints, a.temperature, ""))
}

// HandleInvalidMove samples again without the rejected move.
func (a *HintSamplerAgent) HandleInvalidMove(ctx context.Context, previous game.Move) (game.Move, bool) {
	return sample(a.rng, policy(a.hints, a.temperature, previous))
}

type weighted struct {
	move game.Move
	prob float64
}

// policy turns hints into move probabilities at the given temperature.
func policy(hints []game.Hint, temperature float64, exclude game.Move) []weighted {
	out := make([]weighted, 0, len(hints))
	top := math.Inf(-1)
	for _, h := range hints {
		if h.Move != exclude {
			top = math.Max(top, h.Equity)
		}
	}
	sum := 0.0
	for _, h := range hints {
		if h.Move == exclude {
			continue
		}
		// shifted by the top equity so exp never overflows
		p := math.Exp((h.Equity - top) / temperature)
		out = append(out, weighted{move: h.Move, prob: p})
		sum += p
	}
	for i := range out {
		out[i].prob /= sum
	}
	return out
}

func sample(rng *rand.Rand, policy []weighted) (game.Move, bool) {
	if len(policy) == 0 {
		return "", false
	}
	sampled := rng.Float64()
	cumulative := 0.0
	for _, w := range policy {
		cumulative += w.prob
		if sampled < cumulative {
			return w.move, true
		}
	}
	return policy[len(policy)-1].move, true // rounding
}
