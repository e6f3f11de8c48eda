package gamemaster

import (
	"bgarena/game"
	"bgarena/notation"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"
)

type Option func(e *LocalEngine)

// WithSeed makes dice and cube decisions reproducible.
func WithSeed(seed uint64) Option {
	return func(e *LocalEngine) {
		e.rng = rand.New(rand.NewSource(seed))
	}
}

// WithCubeRate makes a roll present a cube decision first with probability p.
func WithCubeRate(p float64) Option {
	return func(e *LocalEngine) {
		e.cubeRate = p
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(e *LocalEngine) {
		e.logger = logger
	}
}

// WithWeights replaces the evaluation weights used to rank hints.
func WithWeights(weights []float64) Option {
	return func(e *LocalEngine) {
		if len(weights) == numFeatures {
			e.weights = weights
		}
	}
}

// LocalEngine is an in-process Engine. Seats that are not marked human are
// played by the engine itself whenever the turn passes to them.
type LocalEngine struct {
	mu       sync.Mutex
	rng      *rand.Rand
	logger   zerolog.Logger
	cubeRate float64
	weights  []float64

	started     bool
	board       [2]game.Side // indexed by seat
	turn        int
	dice        [2]int
	cubePending bool
	plays       []play
	human       [2]bool
	winner      int
}

var _ Engine = (*LocalEngine)(nil)

func NewLocalEngine(opts ...Option) *LocalEngine {
	e := &LocalEngine{
		logger:  zerolog.Nop(),
		weights: defaultWeights,
		winner:  -1,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}
	return e
}

func (e *LocalEngine) NewGame(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.started = true
	e.board = [2]game.Side{game.StartingSide(), game.StartingSide()}
	e.turn = e.rng.Intn(2)
	e.dice = [2]int{}
	e.cubePending = false
	e.plays = nil
	e.human = [2]bool{}
	e.winner = -1
	e.logger.Debug().Msgf("new game, seat %d starts", e.turn)
	return nil
}

func (e *LocalEngine) SetPlayerHuman(ctx context.Context, seat int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if seat != game.SeatOne && seat != game.SeatTwo {
		return fmt.Errorf("%w: %d", ErrInvalidSeat, seat)
	}
	e.human[seat] = true
	return nil
}

func (e *LocalEngine) Roll(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ready(); err != nil {
		return err
	}
	e.playComputer()
	if e.winner >= 0 {
		return ErrGameOver
	}
	if e.rolled() {
		return ErrDiceRolled
	}
	if !e.cubePending && e.cubeRate > 0 && e.rng.Float64() < e.cubeRate {
		e.cubePending = true
		e.logger.Debug().Msgf("seat %d faces a cube decision", e.turn)
		return nil
	}
	e.cubePending = false
	if !e.roll() {
		e.playComputer()
	}
	return nil
}

func (e *LocalEngine) Move(ctx context.Context, move string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ready(); err != nil {
		return err
	}
	if !e.rolled() {
		return ErrNoDice
	}
	parsed, err := notation.Parse(move)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}
	mover, other := e.sides()
	p, err := matchPlay(e.plays, mover, other, parsed)
	if err != nil {
		return err
	}
	e.commit(p)
	e.playComputer()
	return nil
}

func (e *LocalEngine) AutoPlay(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ready(); err != nil {
		return err
	}
	if !e.rolled() {
		e.cubePending = false
		if !e.roll() {
			// no legal play, the turn already passed
			e.playComputer()
			return nil
		}
	}
	e.commit(e.best())
	e.playComputer()
	return nil
}

func (e *LocalEngine) Position(ctx context.Context) (Position, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started {
		return Position{}, ErrNoGame
	}
	mover, other := e.sides()
	return Position{
		Board: [2]game.Side{mover, other},
		Turn:  e.turn,
		Dice:  e.dice,
	}, nil
}

func (e *LocalEngine) Hints(ctx context.Context) ([]game.Hint, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ready(); err != nil {
		return nil, err
	}
	if !e.rolled() {
		return nil, ErrNoDice
	}
	if len(e.plays) == 0 {
		return nil, ErrNoHints
	}
	hints := make([]game.Hint, len(e.plays))
	for i, p := range e.plays {
		hints[i] = game.Hint{Move: game.Move(p.String()), Equity: p.equity}
	}
	return hints, nil
}

func (e *LocalEngine) PipCount(ctx context.Context) ([2]int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started {
		return [2]int{}, ErrNoGame
	}
	return [2]int{e.board[game.SeatOne].Pips(), e.board[game.SeatTwo].Pips()}, nil
}

func (e *LocalEngine) MatchResult(ctx context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started {
		return "", ErrNoGame
	}
	if e.winner < 0 {
		return "", nil
	}
	return game.Markers[e.winner], nil
}

func (e *LocalEngine) ready() error {
	if !e.started {
		return ErrNoGame
	}
	if e.winner >= 0 {
		return ErrGameOver
	}
	return nil
}

func (e *LocalEngine) rolled() bool {
	return e.dice != [2]int{}
}

func (e *LocalEngine) sides() (game.Side, game.Side) {
	return e.board[e.turn], e.board[game.Other(e.turn)]
}

// roll rolls real dice for the side to move and computes its legal plays.
// Without a legal play the turn passes and roll reports false.
func (e *LocalEngine) roll() bool {
	e.dice = [2]int{e.rng.Intn(6) + 1, e.rng.Intn(6) + 1}
	mover, other := e.sides()
	e.plays = legalPlays(mover, other, e.dice)
	if len(e.plays) == 0 {
		e.logger.Debug().Msgf("seat %d cannot move with %v", e.turn, e.dice)
		e.endTurn()
		return false
	}
	for i := range e.plays {
		e.plays[i].equity = evaluate(e.plays[i].mover, e.plays[i].other, e.weights)
	}
	sort.SliceStable(e.plays, func(i, j int) bool {
		return e.plays[i].equity > e.plays[j].equity
	})
	return true
}

func (e *LocalEngine) best() play {
	return e.plays[0]
}

func (e *LocalEngine) commit(p play) {
	e.board[e.turn] = p.mover
	e.board[game.Other(e.turn)] = p.other
	e.logger.Debug().Msgf("seat %d plays %v: %s", e.turn, e.dice, p)
	if p.mover.Checkers() == 0 {
		e.winner = e.turn
		e.dice = [2]int{}
		e.plays = nil
		e.logger.Debug().Msgf("seat %d wins", e.turn)
		return
	}
	e.endTurn()
}

func (e *LocalEngine) endTurn() {
	e.turn = game.Other(e.turn)
	e.dice = [2]int{}
	e.plays = nil
}

// playComputer plays every turn that belongs to a seat not marked human.
func (e *LocalEngine) playComputer() {
	for e.winner < 0 && !e.human[e.turn] {
		if !e.rolled() && !e.roll() {
			continue
		}
		e.commit(e.best())
	}
}
