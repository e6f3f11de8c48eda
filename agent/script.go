package agent

import (
	"bgarena/game"
	"bgarena/llm"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Shopify/go-lua"
)

const (
	LiveCodeAgentName = "LiveCodeAgent"

	MaxScriptSize        = 64 << 10
	DefaultScriptTimeout = time.Second
	// maxStringSize bounds strings built by string.rep.
	maxStringSize = 1 << 20
	// hookInterval is the instruction count between deadline checks.
	hookInterval = 1000
)

var (
	ErrNoScript       = errors.New("agent needs a script or a language model client")
	ErrScriptTooLarge = errors.New("script exceeds size limit")
	ErrScriptTimeout  = errors.New("script timed out")
	ErrStringTooLarge = errors.New("string too large")
)

const scriptPrompt = `Write a Lua 5.2 function choose_move(input) that returns the move to play as a string.
input.dice is {d1, d2}. input.board.mover and input.board.opponent are arrays indexed 1..25 with checker counts per point, 25 being the bar, each from its own side's point of view.
When available, input.possible_moves is an array of move strings, input.hints an array of {move=..., equity=...} and input.best_move a string, empty when the engine has none.
Only the base, string, table and math libraries exist. Reply with the code in a single lua code block.`

// ScriptAgent runs a Lua choose_move(input) function in a sandbox. The
// script is given up front or written once by a language model.
type ScriptAgent struct {
	base
	client  llm.Client
	system  string
	script  string
	timeout time.Duration
	board   game.Snapshot
	input   game.Bundle
}

func NewScriptAgent(opts Options) (Agent, error) {
	if opts.Script == "" && opts.LLM == nil {
		return nil, ErrNoScript
	}
	if len(opts.Script) > MaxScriptSize {
		return nil, ErrScriptTooLarge
	}
	timeout := opts.ScriptTimeout
	if timeout <= 0 {
		timeout = DefaultScriptTimeout
	}
	system := opts.SystemPrompt
	if system == "" {
		system = defaultSystemPrompt
	}
	return &ScriptAgent{
		base:    newBase(LiveCodeAgentName, opts, game.Capabilities{}),
		client:  opts.LLM,
		system:  system,
		script:  opts.Script,
		timeout: timeout,
	}, nil
}

func (a *ScriptAgent) ChooseMove(ctx context.Context, board game.Snapshot, input game.Bundle) (game.Move, bool) {
	a.board, a.input = board, input
	if a.script == "" {
		if err := a.generate(ctx, board, input); err != nil {
			a.logger.Error().Err(err).Msg("failed to generate script")
			return "", false
		}
	}
	move, err := a.run("choose_move", func(l *lua.State) { pushInput(l, board, input) })
	if err != nil {
		a.logger.Warn().Err(err).Msg("script failed")
		return "", false
	}
	return move, move != ""
}

// HandleInvalidMove calls the script's optional handle_invalid_move(previous).
func (a *ScriptAgent) HandleInvalidMove(ctx context.Context, previous game.Move) (game.Move, bool) {
	if a.script == "" {
		return "", false
	}
	move, err := a.run("handle_invalid_move", func(l *lua.State) {
		l.PushString(string(previous))
		pushInput(l, a.board, a.input)
	})
	if err != nil {
		a.logger.Debug().Err(err).Msg("no repair from script")
		return "", false
	}
	return move, move != ""
}

func (a *ScriptAgent) generate(ctx context.Context, board game.Snapshot, input game.Bundle) error {
	content, err := a.client.Complete(ctx, a.system, scriptPrompt+"\n\nCurrent position:\n"+describeBoard(board)+describeInput(input))
	if err != nil {
		return err
	}
	script := llm.ExtractScript(content)
	if len(script) > MaxScriptSize {
		return ErrScriptTooLarge
	}
	a.script = script
	a.logger.Debug().Str("script", script).Msg("generated script")
	return nil
}

// run calls the global function fn with the arguments pushArgs leaves on
// the stack and returns its string result.
func (a *ScriptAgent) run(fn string, pushArgs func(l *lua.State)) (game.Move, error) {
	l := sandbox()
	deadline := time.Now().Add(a.timeout)
	// Once expired, every later hook raises again.
	expired := false
	lua.SetDebugHook(l, func(l *lua.State, _ lua.Debug) {
		if expired || time.Now().After(deadline) {
			expired = true
			lua.Errorf(l, "%s", ErrScriptTimeout.Error())
		}
	}, lua.MaskCount, hookInterval)

	if err := lua.LoadString(l, a.script); err != nil {
		return "", fmt.Errorf("load script: %w", err)
	}
	if err := l.ProtectedCall(0, 0, 0); err != nil {
		if expired {
			return "", ErrScriptTimeout
		}
		return "", fmt.Errorf("run script: %w", err)
	}
	l.Global(fn)
	if !l.IsFunction(-1) {
		l.Pop(1)
		return "", fmt.Errorf("script defines no %s function", fn)
	}
	before := l.Top()
	pushArgs(l)
	if err := l.ProtectedCall(l.Top()-before, 1, 0); err != nil {
		if expired {
			return "", fmt.Errorf("%s: %w", fn, ErrScriptTimeout)
		}
		return "", fmt.Errorf("%s: %w", fn, err)
	}
	move, _ := l.ToString(-1)
	l.Pop(1)
	return game.Move(move), nil
}

// sandbox opens only the pure libraries. Loaders and error catching are
// stripped from base so the deadline hook cannot be intercepted.
func sandbox() *lua.State {
	l := lua.NewState()
	for _, lib := range []lua.RegistryFunction{
		{Name: "_G", Function: lua.BaseOpen},
		{Name: "string", Function: lua.StringOpen},
		{Name: "table", Function: lua.TableOpen},
		{Name: "math", Function: lua.MathOpen},
	} {
		lua.Require(l, lib.Name, lib.Function, true)
		l.Pop(1)
	}
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "collectgarbage", "pcall", "xpcall"} {
		l.PushNil()
		l.SetGlobal(name)
	}
	l.Global("string")
	l.PushGoFunction(boundedRep)
	l.SetField(-2, "rep")
	l.Pop(1)
	return l
}

// boundedRep is string.rep refusing results over maxStringSize, which a
// single instruction could otherwise allocate past the deadline hook.
func boundedRep(l *lua.State) int {
	s := lua.CheckString(l, 1)
	n := lua.CheckInteger(l, 2)
	sep := lua.OptString(l, 3, "")
	if n <= 0 {
		l.PushString("")
		return 1
	}
	if unit := len(s) + len(sep); unit > 0 && n > maxStringSize/unit {
		lua.Errorf(l, "%s", ErrStringTooLarge.Error())
	}
	l.PushString(strings.Repeat(s+sep, n-1) + s)
	return 1
}

func pushInput(l *lua.State, board game.Snapshot, input game.Bundle) {
	l.NewTable()

	l.CreateTable(2, 0)
	for i, d := range board.Dice {
		l.PushInteger(d)
		l.RawSetInt(-2, i+1)
	}
	l.SetField(-2, "dice")

	l.PushInteger(board.Turn)
	l.SetField(-2, "turn")

	l.NewTable()
	pushSide(l, board.Mover())
	l.SetField(-2, "mover")
	pushSide(l, board.Opponent())
	l.SetField(-2, "opponent")
	l.SetField(-2, "board")

	if moves, ok := input.PossibleMoves.Get(); ok {
		l.CreateTable(len(moves), 0)
		for i, m := range moves {
			l.PushString(string(m))
			l.RawSetInt(-2, i+1)
		}
		l.SetField(-2, "possible_moves")
	}
	if hints, ok := input.Hints.Get(); ok {
		l.CreateTable(len(hints), 0)
		for i, h := range hints {
			l.CreateTable(0, 2)
			l.PushString(string(h.Move))
			l.SetField(-2, "move")
			l.PushNumber(h.Equity)
			l.SetField(-2, "equity")
			l.RawSetInt(-2, i+1)
		}
		l.SetField(-2, "hints")
	}
	if best, ok := input.BestMove.Get(); ok {
		l.PushString(string(best))
		l.SetField(-2, "best_move")
	}
}

func pushSide(l *lua.State, side game.Side) {
	l.CreateTable(len(side), 0)
	for i, n := range side {
		l.PushInteger(n)
		l.RawSetInt(-2, i+1)
	}
}
