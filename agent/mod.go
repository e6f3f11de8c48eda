package agent

import (
	"bgarena/game"
	"bgarena/llm"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"
)

// Agent picks moves for one seat. Implementations return false when they
// have nothing to offer; they are never asked to move when the roll has no
// legal play.
type Agent interface {
	Name() string
	// Capabilities is fixed for the lifetime of the agent.
	Capabilities() game.Capabilities
	ChooseMove(ctx context.Context, board game.Snapshot, input game.Bundle) (game.Move, bool)
	// HandleInvalidMove is called after previous was rejected, with the
	// board and inputs of the last ChooseMove call still current.
	HandleInvalidMove(ctx context.Context, previous game.Move) (game.Move, bool)
}

type Options struct {
	// Capabilities are unioned with what the strategy itself needs.
	Capabilities game.Capabilities
	LLM          llm.Client
	SystemPrompt string
	// Script is Lua source defining choose_move(input).
	Script        string
	ScriptTimeout time.Duration
	// Temperature shapes HintSamplerAgent's choices, 1 when unset.
	Temperature float64
	Seed        uint64
	Logger      zerolog.Logger
}

func (o Options) rng() *rand.Rand {
	seed := o.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewSource(seed))
}

type Factory func(opts Options) (Agent, error)

var ErrUnknownAgent = errors.New("unknown agent")

// Registry maps agent names to their constructors.
type Registry struct {
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register panics when name is already taken.
func (r *Registry) Register(name string, f Factory) {
	if _, ok := r.factories[name]; ok {
		panic("agent already registered: " + name)
	}
	r.factories[name] = f
}

func (r *Registry) New(name string, opts Options) (Agent, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", ErrUnknownAgent, name, r.Names())
	}
	a, err := f(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", name, err)
	}
	return a, nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry knows every built-in strategy.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(RandomAgentName, NewRandomAgent)
	r.Register(BestMoveAgentName, NewBestMoveAgent)
	r.Register(LLMAgentName, NewLLMAgent)
	r.Register(LiveCodeAgentName, NewScriptAgent)
	r.Register(HintSamplerAgentName, NewHintSamplerAgent)
	return r
}

type base struct {
	name   string
	caps   game.Capabilities
	logger zerolog.Logger
}

func newBase(name string, opts Options, needs game.Capabilities) base {
	return base{
		name:   name,
		caps:   opts.Capabilities.Union(needs),
		logger: opts.Logger.With().Str("agent", name).Logger(),
	}
}

func (b base) Name() string {
	return b.name
}

func (b base) Capabilities() game.Capabilities {
	return b.caps
}

// pick returns a random move from moves other than exclude.
func pick(rng *rand.Rand, moves []game.Move, exclude game.Move) (game.Move, bool) {
	candidates := make([]game.Move, 0, len(moves))
	for _, m := range moves {
		if m != exclude {
			candidates = append(candidates, m)
		}
	}
	if len(candidates) == 0 {
		return "", false
	}
	return candidates[rng.Intn(len(candidates))], true
}
