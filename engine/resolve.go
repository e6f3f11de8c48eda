package engine

import (
	"bgarena/agent"
	"bgarena/game"
	"bgarena/gamemaster"
	"bgarena/meta"
	"bgarena/notation"
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

type ResolveState string

const (
	StateProposed   ResolveState = "proposed"
	StateValidating ResolveState = "validating"
	StateApplying   ResolveState = "applying"
	StateRepairing  ResolveState = "repairing"
	StateApplied    ResolveState = "applied"
	StateExhausted  ResolveState = "exhausted"
)

func (s ResolveState) IsTerminal() bool {
	return s == StateApplied || s == StateExhausted
}

// Resolution is the outcome of one move request.
type Resolution struct {
	State ResolveState
	// Move is the applied move, or the last rejected one when exhausted.
	Move     game.Move
	Attempts int
	// Trace lists every state visited, in order.
	Trace []ResolveState
}

// Resolver drives a single agent from its first proposal to an applied move
// or to exhaustion. It never plays on the agent's behalf.
type Resolver struct {
	engine      gamemaster.Engine
	maxAttempts int
	logger      zerolog.Logger
}

func NewResolver(engine gamemaster.Engine, maxAttempts int, logger zerolog.Logger) *Resolver {
	if maxAttempts <= 0 {
		maxAttempts = meta.MAX_ATTEMPTS
	}
	return &Resolver{engine: engine, maxAttempts: maxAttempts, logger: logger}
}

func (r *Resolver) Resolve(ctx context.Context, a agent.Agent, tc game.TurnContext) Resolution {
	res := Resolution{Attempts: 1}
	visit := func(s ResolveState) {
		res.State = s
		res.Trace = append(res.Trace, s)
	}

	move, ok := r.propose(func() (game.Move, bool) {
		return a.ChooseMove(ctx, tc.Board, tc.Input)
	})
	visit(StateProposed)
	if !ok {
		r.logger.Warn().Int("attempt", res.Attempts).Msg("agent proposed no move")
	}

	for !res.State.IsTerminal() {
		switch res.State {
		case StateProposed:
			res.Move = move
			if !ok {
				visit(StateRepairing)
				continue
			}
			visit(StateValidating)

		case StateValidating:
			if err := notation.Validate(string(move)); err != nil {
				r.logger.Info().Str("move", string(move)).Str("reason", notation.KindOf(err).String()).Msg("malformed move")
				visit(StateRepairing)
				continue
			}
			visit(StateApplying)

		case StateApplying:
			if err := r.engine.Move(ctx, string(move)); err != nil {
				if errors.Is(err, gamemaster.ErrIllegalMove) {
					r.logger.Info().Str("move", string(move)).Msg("engine rejected move")
				} else {
					r.logger.Error().Err(err).Str("move", string(move)).Msg("engine failed to apply move")
				}
				visit(StateRepairing)
				continue
			}
			visit(StateApplied)

		case StateRepairing:
			if res.Attempts >= r.maxAttempts {
				visit(StateExhausted)
				continue
			}
			previous := move
			move, ok = r.propose(func() (game.Move, bool) {
				return a.HandleInvalidMove(ctx, previous)
			})
			if !ok {
				visit(StateExhausted)
				continue
			}
			res.Attempts++
			visit(StateProposed)
		}
	}
	r.logger.Debug().Msgf("turn %d resolved %s after %d attempts: %s", tc.Number, res.State, res.Attempts, res.Move)
	return res
}

// propose calls the agent, turning a panic into no proposal.
func (r *Resolver) propose(call func() (game.Move, bool)) (move game.Move, ok bool) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error().Err(fmt.Errorf("agent panic: %v", p)).Msg("agent failed")
			move, ok = "", false
		}
	}()
	return call()
}
