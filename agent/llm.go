package agent

import (
	"bgarena/game"
	"bgarena/llm"
	"context"
	"errors"
)

const LLMAgentName = "LLMAgent"

var ErrNoLLM = errors.New("agent needs a language model client")

// LLMAgent asks a language model for each move and re-prompts it with the
// rejection reason when the move is refused.
type LLMAgent struct {
	base
	client llm.Client
	system string
	prompt string
}

func NewLLMAgent(opts Options) (Agent, error) {
	if opts.LLM == nil {
		return nil, ErrNoLLM
	}
	system := opts.SystemPrompt
	if system == "" {
		system = defaultSystemPrompt
	}
	return &LLMAgent{
		base:   newBase(LLMAgentName, opts, game.Capabilities{}),
		client: opts.LLM,
		system: system,
	}, nil
}

func (a *LLMAgent) ChooseMove(ctx context.Context, board game.Snapshot, input game.Bundle) (game.Move, bool) {
	a.prompt = movePrompt(board, input)
	return a.ask(ctx, a.prompt)
}

func (a *LLMAgent) HandleInvalidMove(ctx context.Context, previous game.Move) (game.Move, bool) {
	if a.prompt == "" {
		return "", false
	}
	return a.ask(ctx, a.prompt+"\n"+rejection(previous)+" Pick a different move.")
}

func (a *LLMAgent) ask(ctx context.Context, prompt string) (game.Move, bool) {
	content, err := a.client.Complete(ctx, a.system, prompt)
	if err != nil {
		a.logger.Error().Err(err).Msg("llm request failed")
		return "", false
	}
	move, ok := llm.ExtractMove(content)
	if !ok {
		a.logger.Warn().Str("response", content).Msg("no move in llm response")
		return "", false
	}
	a.logger.Debug().Str("move", string(move)).Msg("llm move")
	return move, true
}
