package engine

import (
	"bgarena/agent"
	"bgarena/experiments/metrics"
	"bgarena/game"
	"bgarena/gamemaster"
	"bgarena/meta"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Phase string

const (
	PhaseInit          Phase = "init"
	PhaseRollPending   Phase = "roll_pending"
	PhaseCubeCheck     Phase = "cube_check"
	PhaseMoveRequested Phase = "move_requested"
	PhaseMoveResolving Phase = "move_resolving"
	PhaseTurnComplete  Phase = "turn_complete"
	PhaseGameOver      Phase = "game_over"
)

var (
	ErrTooManyCubeDecisions = errors.New("engine kept offering cube decisions")
	ErrNoPosition           = errors.New("engine position unavailable")
)

type Option func(c *Controller)

func WithMaxTurns(n int) Option {
	return func(c *Controller) {
		c.maxTurns = n
	}
}

func WithMaxAttempts(n int) Option {
	return func(c *Controller) {
		c.maxAttempts = n
	}
}

func WithHintLimit(n int) Option {
	return func(c *Controller) {
		c.hintLimit = n
	}
}

// WithSettleDelay pauses between turns, for engines that need time to
// catch up.
func WithSettleDelay(d time.Duration) Option {
	return func(c *Controller) {
		c.settle = d
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

func WithGameID(id string) Option {
	return func(c *Controller) {
		c.gameID = id
	}
}

// WithSeed seeds the shuffling of possible moves.
func WithSeed(seed uint64) Option {
	return func(c *Controller) {
		c.seed = seed
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// WithMaxCubeRerolls bounds the re-rolls after cube decisions in one turn;
// the decision following the last allowed re-roll fails the game.
func WithMaxCubeRerolls(n int) Option {
	return func(c *Controller) {
		c.maxCubeRerolls = n
	}
}

// Controller runs one game between two agents against an engine. Seat 0 is
// the engine's X and seat 1 its O.
type Controller struct {
	engine         gamemaster.Engine
	agents         [2]agent.Agent
	caps           [2]game.Capabilities
	maxTurns       int
	maxAttempts    int
	hintLimit      int
	maxCubeRerolls int
	settle         time.Duration
	gameID         string
	seed           uint64
	now            func() time.Time
	logger         zerolog.Logger

	adapter  *Adapter
	resolver *Resolver
	stats    *metrics.Collector
	phase    Phase
	turns    int
}

func NewController(engine gamemaster.Engine, agents [2]agent.Agent, opts ...Option) *Controller {
	if agents[0] == nil || agents[1] == nil {
		panic("controller needs two agents")
	}
	c := &Controller{
		engine:         engine,
		agents:         agents,
		maxTurns:       meta.MAX_TURNS,
		maxAttempts:    meta.MAX_ATTEMPTS,
		hintLimit:      meta.HINT_LIMIT,
		maxCubeRerolls: meta.MAX_CUBE_REROLLS,
		settle:         meta.SETTLE_DELAY,
		now:            time.Now,
		logger:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.gameID == "" {
		c.gameID = uuid.NewString()
	}
	if c.seed == 0 {
		c.seed = uint64(c.now().UnixNano())
	}
	c.logger = c.logger.With().Str("game_id", c.gameID).Logger()
	for seat, a := range agents {
		c.caps[seat] = a.Capabilities()
	}
	c.adapter = NewAdapter(engine, c.seed, c.logger)
	c.resolver = NewResolver(engine, c.maxAttempts, c.logger)
	c.stats = metrics.NewCollector(metrics.WithClock(c.now))
	return c
}

func (c *Controller) GameID() string {
	return c.gameID
}

func (c *Controller) Phase() Phase {
	return c.phase
}

// Moves returns how every turn of the last game was resolved.
func (c *Controller) Moves() []metrics.MoveMetric {
	return c.stats.Moves()
}

func (c *Controller) enter(p Phase) {
	c.phase = p
	c.logger.Trace().Str("phase", string(p)).Int("turn", c.turns).Msg("phase")
}

// Run plays a full game. Hitting the turn ceiling is not an error: the
// result then has an unknown winner. Cancellation is honoured between
// turns.
func (c *Controller) Run(ctx context.Context) (game.GameResult, error) {
	if err := c.init(ctx); err != nil {
		return game.GameResult{}, err
	}
	c.logger.Info().Msgf("starting game %s: %s vs %s", c.gameID, c.agents[0].Name(), c.agents[1].Name())

	for {
		if err := ctx.Err(); err != nil {
			return game.GameResult{}, err
		}
		err := c.playTurn(ctx)
		if err != nil {
			return game.GameResult{}, fmt.Errorf("turn %d: %w", c.turns+1, err)
		}

		c.enter(PhaseTurnComplete)
		c.turns++
		if c.finished(ctx) || c.turns >= c.maxTurns {
			break
		}
		if err := c.pause(ctx); err != nil {
			return game.GameResult{}, err
		}
	}
	return c.gameOver(ctx), nil
}

func (c *Controller) init(ctx context.Context) error {
	c.enter(PhaseInit)
	c.turns = 0
	if err := c.engine.NewGame(ctx); err != nil {
		return fmt.Errorf("failed to start game: %w", err)
	}
	for _, seat := range []int{game.SeatOne, game.SeatTwo} {
		if err := c.engine.SetPlayerHuman(ctx, seat); err != nil {
			return fmt.Errorf("failed to claim seat %d: %w", seat, err)
		}
	}
	c.stats.Start(c.gameID, [2]string{c.agents[0].Name(), c.agents[1].Name()})
	return nil
}

func (c *Controller) playTurn(ctx context.Context) error {
	start := c.now()
	c.enter(PhaseRollPending)
	seat := c.adapter.Turn(ctx)
	if seat < 0 {
		return ErrNoPosition
	}

	passed, err := c.roll(ctx, seat)
	if err != nil {
		return err
	}
	if passed {
		// no legal play, the engine already passed the turn
		c.logger.Debug().Msgf("seat %d has no legal play", seat)
		c.stats.RecordAttempt(seat, true)
		c.stats.RecordMove(metrics.MoveMetric{
			Turn:     c.turns + 1,
			Seat:     seat,
			Attempts: 1,
			Outcome:  metrics.OutcomePass,
			Duration: c.now().Sub(start),
		})
		return nil
	}

	c.enter(PhaseMoveRequested)
	board, ok := c.adapter.Snapshot(ctx)
	if !ok {
		return ErrNoPosition
	}
	dice, ok := c.adapter.Dice(ctx)
	if !ok {
		return ErrNoPosition
	}
	tc := game.TurnContext{
		Number: c.turns + 1,
		Seat:   seat,
		Dice:   dice,
		Board:  board,
		Input:  c.adapter.Bundle(ctx, c.caps[seat], c.hintLimit),
	}
	c.logger.Debug().Interface("inputs", tc.Input.Granted()).Msgf("seat %d to move with %d-%d", seat, dice[0], dice[1])

	c.enter(PhaseMoveResolving)
	res := c.resolver.Resolve(ctx, c.agents[seat], tc)
	outcome := metrics.OutcomeApplied
	if res.State == StateExhausted {
		outcome = metrics.OutcomeExhausted
		c.logger.Warn().Msgf("%s exhausted %d attempts, engine plays seat %d", c.agents[seat].Name(), res.Attempts, seat)
		if err := c.engine.AutoPlay(ctx); err != nil {
			return fmt.Errorf("forced play failed: %w", err)
		}
	}
	c.stats.RecordAttempt(seat, res.State == StateApplied)
	c.stats.RecordMove(metrics.MoveMetric{
		Turn:     tc.Number,
		Seat:     seat,
		Attempts: res.Attempts,
		Outcome:  outcome,
		Move:     res.Move,
		Duration: c.now().Sub(start),
	})
	return nil
}

// roll rolls until real dice show, never doubling on the way. It reports
// whether the engine passed the turn because seat has no legal play.
func (c *Controller) roll(ctx context.Context, seat int) (bool, error) {
	for rerolls := 0; ; rerolls++ {
		if err := c.engine.Roll(ctx); err != nil {
			return false, fmt.Errorf("failed to roll: %w", err)
		}
		c.enter(PhaseCubeCheck)
		turn := c.adapter.Turn(ctx)
		if turn < 0 {
			return false, ErrNoPosition
		}
		if turn != seat {
			return true, nil
		}
		if !c.adapter.IsCubeDecision(ctx) {
			return false, nil
		}
		c.logger.Debug().Msgf("seat %d does not double", seat)
		c.stats.RecordCubeDecision(seat, game.CubeNoDouble)
		if rerolls >= c.maxCubeRerolls {
			return false, ErrTooManyCubeDecisions
		}
	}
}

// finished reports whether a side has borne off or the engine recorded a
// winner.
func (c *Controller) finished(ctx context.Context) bool {
	if remaining, ok := c.adapter.CheckersRemaining(ctx); ok && (remaining[0] == 0 || remaining[1] == 0) {
		return true
	}
	return c.adapter.WinnerMarker(ctx) != ""
}

func (c *Controller) pause(ctx context.Context) error {
	if c.settle <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.settle):
		return nil
	}
}

func (c *Controller) gameOver(ctx context.Context) game.GameResult {
	c.enter(PhaseGameOver)
	winner := game.WinnerFromMarker(c.adapter.WinnerMarker(ctx))
	if !winner.Known() {
		if remaining, ok := c.adapter.CheckersRemaining(ctx); ok {
			switch {
			case remaining[0] == 0:
				winner = game.PlayerOne
			case remaining[1] == 0:
				winner = game.PlayerTwo
			}
		}
	}
	result := c.stats.Finalize(ctx, winner, c.turns, c.adapter)
	c.logger.Info().Msgf("game %s over after %d turns, winner %s", c.gameID, c.turns, result.Winner)
	return result
}
