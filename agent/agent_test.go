package agent

import (
	"bgarena/game"
	"bgarena/utils"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Shopify/go-lua"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	replies []string
	prompts []string
	err     error
}

func (f *fakeLLM) Complete(ctx context.Context, system, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	reply := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return reply, nil
}

func openingBoard() game.Snapshot {
	return game.NewSnapshot([2]game.Side{game.StartingSide(), game.StartingSide()}, 0, [2]int{3, 1})
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()
	require.Equal(t, []string{BestMoveAgentName, HintSamplerAgentName, LLMAgentName, LiveCodeAgentName, RandomAgentName}, r.Names())

	t.Run("capabilities are unioned with strategy needs", func(t *testing.T) {
		a, err := r.New(RandomAgentName, Options{Capabilities: game.Capabilities{Hints: true}, Seed: 1})
		require.NoError(t, err)
		require.Equal(t, game.Capabilities{PossibleMoves: true, Hints: true}, a.Capabilities())

		a, err = r.New(BestMoveAgentName, Options{Seed: 1})
		require.NoError(t, err)
		require.Equal(t, game.Capabilities{BestMove: true}, a.Capabilities())
		require.Equal(t, BestMoveAgentName, a.Name())
	})

	t.Run("unknown name", func(t *testing.T) {
		_, err := r.New("DeepBlue", Options{})
		require.ErrorIs(t, err, ErrUnknownAgent)
	})

	t.Run("missing dependencies", func(t *testing.T) {
		_, err := r.New(LLMAgentName, Options{})
		require.ErrorIs(t, err, ErrNoLLM)
		_, err = r.New(LiveCodeAgentName, Options{})
		require.ErrorIs(t, err, ErrNoScript)
	})

	t.Run("duplicate registration panics", func(t *testing.T) {
		require.Panics(t, func() { r.Register(RandomAgentName, NewRandomAgent) })
	})
}

func TestRandomAgent(t *testing.T) {
	ctx := context.Background()
	a, err := NewRandomAgent(Options{Seed: 7})
	require.NoError(t, err)

	moves := []game.Move{"8/5 6/5", "24/21 24/23", "13/10 6/5"}
	input := game.Bundle{PossibleMoves: utils.Some(moves)}

	t.Run("picks a possible move", func(t *testing.T) {
		move, ok := a.ChooseMove(ctx, openingBoard(), input)
		require.True(t, ok)
		require.Contains(t, moves, move)

		repair, ok := a.HandleInvalidMove(ctx, move)
		require.True(t, ok)
		require.Contains(t, moves, repair)
		require.NotEqual(t, move, repair)
	})

	t.Run("nothing to pick", func(t *testing.T) {
		_, ok := a.ChooseMove(ctx, openingBoard(), game.Bundle{})
		require.False(t, ok)
		_, ok = a.HandleInvalidMove(ctx, "8/5 6/5")
		require.False(t, ok)
	})
}

func TestBestMoveAgent(t *testing.T) {
	ctx := context.Background()
	a, err := NewBestMoveAgent(Options{Seed: 3})
	require.NoError(t, err)

	move, ok := a.ChooseMove(ctx, openingBoard(), game.Bundle{BestMove: utils.Some(game.Move("8/5 6/5"))})
	require.True(t, ok)
	require.Equal(t, game.Move("8/5 6/5"), move)

	_, ok = a.HandleInvalidMove(ctx, move)
	require.False(t, ok, "no possible moves granted")

	_, ok = a.ChooseMove(ctx, openingBoard(), game.Bundle{
		BestMove:      utils.Some(game.Move("8/5 6/5")),
		PossibleMoves: utils.Some([]game.Move{"8/5 6/5", "13/10 6/5"}),
	})
	require.True(t, ok)
	repair, ok := a.HandleInvalidMove(ctx, "8/5 6/5")
	require.True(t, ok)
	require.Equal(t, game.Move("13/10 6/5"), repair)

	_, ok = a.ChooseMove(ctx, openingBoard(), game.Bundle{})
	require.False(t, ok)

	_, ok = a.ChooseMove(ctx, openingBoard(), game.Bundle{BestMove: utils.Some(game.Move(""))})
	require.False(t, ok, "granted but the engine had none")
}

func TestLLMAgent(t *testing.T) {
	ctx := context.Background()

	t.Run("move and repair", func(t *testing.T) {
		model := &fakeLLM{replies: []string{`{"move": "8/5 6/5"}`, "```json\n{\"move\": \"24/21 24/23\"}\n```"}}
		a, err := NewLLMAgent(Options{LLM: model, Capabilities: game.Capabilities{Hints: true}})
		require.NoError(t, err)
		require.Equal(t, game.Capabilities{Hints: true}, a.Capabilities())

		input := game.Bundle{Hints: utils.Some([]game.Hint{{Move: "8/5 6/5", Equity: 0.12}})}
		move, ok := a.ChooseMove(ctx, openingBoard(), input)
		require.True(t, ok)
		require.Equal(t, game.Move("8/5 6/5"), move)
		require.Contains(t, model.prompts[0], "Dice: 3-1.")
		require.Contains(t, model.prompts[0], "8/5 6/5 0.120")
		require.Contains(t, model.prompts[0], "Your checkers: 24:2 13:5 8:3 6:5 bar:0 off:0")

		move, ok = a.HandleInvalidMove(ctx, "25/22")
		require.True(t, ok)
		require.Equal(t, game.Move("24/21 24/23"), move)
		require.Contains(t, model.prompts[1], `"25/22" is not valid notation (bad_origin)`)
	})

	t.Run("model failure is none", func(t *testing.T) {
		a, err := NewLLMAgent(Options{LLM: &fakeLLM{err: errors.New("rate limited")}})
		require.NoError(t, err)
		_, ok := a.ChooseMove(ctx, openingBoard(), game.Bundle{})
		require.False(t, ok)
	})

	t.Run("reply without a move", func(t *testing.T) {
		a, err := NewLLMAgent(Options{LLM: &fakeLLM{replies: []string{"I am not sure."}}})
		require.NoError(t, err)
		_, ok := a.ChooseMove(ctx, openingBoard(), game.Bundle{})
		require.False(t, ok)
	})
}

func TestScriptAgent(t *testing.T) {
	ctx := context.Background()

	t.Run("reads the input table", func(t *testing.T) {
		script := `
function choose_move(input)
  if input.best_move then return input.best_move end
  if input.dice[1] == 3 and input.board.mover[24] == 2 then
    return input.possible_moves[#input.possible_moves]
  end
  return nil
end

function handle_invalid_move(previous, input)
  return input.possible_moves[1]
end`
		a, err := NewScriptAgent(Options{Script: script, Capabilities: game.Capabilities{PossibleMoves: true}})
		require.NoError(t, err)

		input := game.Bundle{PossibleMoves: utils.Some([]game.Move{"8/5 6/5", "24/21 24/23"})}
		move, ok := a.ChooseMove(ctx, openingBoard(), input)
		require.True(t, ok)
		require.Equal(t, game.Move("24/21 24/23"), move)

		move, ok = a.HandleInvalidMove(ctx, move)
		require.True(t, ok)
		require.Equal(t, game.Move("8/5 6/5"), move)
	})

	t.Run("sandbox has no loaders", func(t *testing.T) {
		a, err := NewScriptAgent(Options{Script: `
function choose_move(input)
  if io == nil and os == nil and dofile == nil and load == nil and require == nil then
    return "13/10 6/5"
  end
  return "24/21 24/23"
end`})
		require.NoError(t, err)
		move, ok := a.ChooseMove(ctx, openingBoard(), game.Bundle{})
		require.True(t, ok)
		require.Equal(t, game.Move("13/10 6/5"), move)
	})

	t.Run("runaway script times out", func(t *testing.T) {
		a, err := NewScriptAgent(Options{
			Script:        "function choose_move(input) while true do end end",
			ScriptTimeout: 20 * time.Millisecond,
		})
		require.NoError(t, err)
		start := time.Now()
		_, ok := a.ChooseMove(ctx, openingBoard(), game.Bundle{})
		require.False(t, ok)
		require.Less(t, time.Since(start), 5*time.Second)

		_, err = a.(*ScriptAgent).run("choose_move", func(l *lua.State) { l.PushNil() })
		require.ErrorIs(t, err, ErrScriptTimeout)
	})

	t.Run("timeout cannot be caught", func(t *testing.T) {
		a, err := NewScriptAgent(Options{
			Script: `
function choose_move(input)
  while true do
    pcall(function() while true do end end)
  end
end`,
			ScriptTimeout: 100 * time.Millisecond,
		})
		require.NoError(t, err)

		done := make(chan bool, 1)
		go func() {
			_, ok := a.ChooseMove(ctx, openingBoard(), game.Bundle{})
			done <- ok
		}()
		select {
		case ok := <-done:
			require.False(t, ok)
		case <-time.After(3 * time.Second):
			t.Fatal("script still running long after its timeout")
		}

		guarded, err := NewScriptAgent(Options{Script: `
function choose_move(input)
  if pcall == nil and xpcall == nil then
    return "13/10 6/5"
  end
  return "24/21 24/23"
end`})
		require.NoError(t, err)
		move, ok := guarded.ChooseMove(ctx, openingBoard(), game.Bundle{})
		require.True(t, ok)
		require.Equal(t, game.Move("13/10 6/5"), move)
	})

	t.Run("string.rep is bounded", func(t *testing.T) {
		a, err := NewScriptAgent(Options{Script: `
function choose_move(input)
  if string.rep("ab", 3, "-") == "ab-ab-ab" and string.rep("x", 0) == "" then
    return "13/10 6/5"
  end
  return "24/21 24/23"
end`})
		require.NoError(t, err)
		move, ok := a.ChooseMove(ctx, openingBoard(), game.Bundle{})
		require.True(t, ok)
		require.Equal(t, game.Move("13/10 6/5"), move)

		huge, err := NewScriptAgent(Options{
			Script:        `function choose_move(input) local s = string.rep("x", 1e12) return "8/5 6/5" end`,
			ScriptTimeout: 100 * time.Millisecond,
		})
		require.NoError(t, err)
		start := time.Now()
		_, ok = huge.ChooseMove(ctx, openingBoard(), game.Bundle{})
		require.False(t, ok)
		require.Less(t, time.Since(start), 3*time.Second)
	})

	t.Run("broken script and missing repair", func(t *testing.T) {
		a, err := NewScriptAgent(Options{Script: "function choose_move(input"})
		require.NoError(t, err)
		_, ok := a.ChooseMove(ctx, openingBoard(), game.Bundle{})
		require.False(t, ok)
		_, ok = a.HandleInvalidMove(ctx, "8/5 6/5")
		require.False(t, ok)
	})

	t.Run("oversized script", func(t *testing.T) {
		_, err := NewScriptAgent(Options{Script: strings.Repeat("-", MaxScriptSize+1)})
		require.ErrorIs(t, err, ErrScriptTooLarge)
	})

	t.Run("generated once by the model", func(t *testing.T) {
		model := &fakeLLM{replies: []string{"```lua\nfunction choose_move(input) return \"8/5 6/5\" end\n```"}}
		a, err := NewScriptAgent(Options{LLM: model})
		require.NoError(t, err)
		for i := 0; i < 2; i++ {
			move, ok := a.ChooseMove(ctx, openingBoard(), game.Bundle{})
			require.True(t, ok)
			require.Equal(t, game.Move("8/5 6/5"), move)
		}
		require.Len(t, model.prompts, 1)
	})
}

func TestHintSamplerAgent(t *testing.T) {
	ctx := context.Background()
	hints := []game.Hint{{Move: "8/5 6/5", Equity: 0.3}, {Move: "24/21 24/23", Equity: 0.1}, {Move: "13/10 6/5", Equity: -0.2}}

	t.Run("policy", func(t *testing.T) {
		p := policy(hints, 1, "")
		require.Len(t, p, 3)
		sum := 0.0
		for _, w := range p {
			sum += w.prob
		}
		require.InDelta(t, 1, sum, 1e-9)
		require.Greater(t, p[0].prob, p[1].prob)
		require.Greater(t, p[1].prob, p[2].prob)

		cold := policy(hints, 0.001, "")
		require.InDelta(t, 1, cold[0].prob, 1e-9)

		without := policy(hints, 1, "8/5 6/5")
		require.Len(t, without, 2)
		require.Equal(t, game.Move("24/21 24/23"), without[0].move)
	})

	t.Run("choose and repair", func(t *testing.T) {
		a, err := NewHintSamplerAgent(Options{Seed: 5, Temperature: 0.001})
		require.NoError(t, err)
		require.Equal(t, game.Capabilities{Hints: true}, a.Capabilities())

		move, ok := a.ChooseMove(ctx, openingBoard(), game.Bundle{Hints: utils.Some(hints)})
		require.True(t, ok)
		require.Equal(t, game.Move("8/5 6/5"), move)

		move, ok = a.HandleInvalidMove(ctx, move)
		require.True(t, ok)
		require.Equal(t, game.Move("24/21 24/23"), move)

		_, ok = a.ChooseMove(ctx, openingBoard(), game.Bundle{})
		require.False(t, ok)
	})
}
