package experiments

import (
	"bgarena/agent"
	"bgarena/communication/client"
	"bgarena/config"
	"bgarena/engine"
	"bgarena/experiments/metrics"
	"bgarena/game"
	"bgarena/gamemaster"
	"bgarena/llm"
	"context"
	"fmt"
	"hash/fnv"
	"os"

	"github.com/rs/zerolog"
)

// Runner plays one game and reports its result. dir is the folder the
// game's result file belongs in.
type Runner interface {
	RunGame(ctx context.Context, gameID, dir string) (game.GameResult, []metrics.MoveMetric, error)
}

// LocalRunner plays games inside this process, as configured by Config.
type LocalRunner struct {
	Config   config.Config
	Registry *agent.Registry
	// LLM overrides the client built from Config.LLM.
	LLM llm.Client
	// Logger replaces the per-game log file.
	Logger *zerolog.Logger
}

func (r LocalRunner) RunGame(ctx context.Context, gameID, dir string) (game.GameResult, []metrics.MoveMetric, error) {
	cfg := r.Config
	cfg.GameID = gameID

	logger, closeLog, err := r.logger(cfg)
	if err != nil {
		return game.GameResult{}, nil, err
	}
	defer closeLog()

	eng, closeEngine, err := r.engine(ctx, cfg, logger)
	if err != nil {
		return game.GameResult{}, nil, err
	}
	defer closeEngine()

	agents, err := r.agents(cfg, logger)
	if err != nil {
		return game.GameResult{}, nil, err
	}

	c := engine.NewController(eng, agents,
		engine.WithGameID(gameID),
		engine.WithMaxTurns(cfg.MaxTurns),
		engine.WithMaxAttempts(cfg.MaxAttempts),
		engine.WithSettleDelay(cfg.SettleDelay),
		engine.WithSeed(gameSeed(cfg.Seed, gameID, 0)),
		engine.WithLogger(logger),
	)
	result, err := c.Run(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("game failed")
		return game.GameResult{}, nil, err
	}
	return result, c.Moves(), nil
}

func (r LocalRunner) logger(cfg config.Config) (zerolog.Logger, func(), error) {
	if r.Logger != nil {
		return r.Logger.With().Str("game_id", cfg.GameID).Logger(), func() {}, nil
	}
	cfg.LogFile = cfg.LogFile + "_" + cfg.GameID
	logger, closer, err := config.NewGameLogger(cfg, cfg.GameID)
	if err != nil {
		return logger, nil, err
	}
	return logger, func() { _ = closer.Close() }, nil
}

func (r LocalRunner) engine(ctx context.Context, cfg config.Config, logger zerolog.Logger) (gamemaster.Engine, func(), error) {
	if cfg.EngineURL != "" {
		remote, err := client.DialEngine(ctx, cfg.EngineURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to reach engine: %w", err)
		}
		return remote, func() { _ = remote.Close() }, nil
	}
	opts := []gamemaster.Option{
		gamemaster.WithCubeRate(cfg.CubeRate),
		gamemaster.WithLogger(logger),
	}
	if seed := gameSeed(cfg.Seed, cfg.GameID, 1); seed != 0 {
		opts = append(opts, gamemaster.WithSeed(seed))
	}
	return gamemaster.NewLocalEngine(opts...), func() {}, nil
}

func (r LocalRunner) agents(cfg config.Config, logger zerolog.Logger) ([2]agent.Agent, error) {
	var agents [2]agent.Agent
	registry := r.Registry
	if registry == nil {
		registry = agent.DefaultRegistry()
	}

	model := r.LLM
	if model == nil && cfg.LLM.Enabled() {
		model = llm.NewOpenAI(cfg.LLM.APIKey,
			llm.WithBaseURL(cfg.LLM.APIURL),
			llm.WithModel(cfg.LLM.Model),
			llm.WithMaxTokens(cfg.LLM.MaxTokens),
			llm.WithLogger(logger),
		)
	}
	var script string
	if cfg.ScriptPath != "" {
		data, err := os.ReadFile(cfg.ScriptPath)
		if err != nil {
			return agents, fmt.Errorf("failed to read script: %w", err)
		}
		script = string(data)
	}

	for seat, name := range []string{cfg.Agent1, cfg.Agent2} {
		a, err := registry.New(name, agent.Options{
			Capabilities: cfg.Capabilities,
			LLM:          model,
			SystemPrompt: cfg.LLM.SystemPrompt,
			Script:       script,
			Temperature:  cfg.Temperature,
			Seed:         gameSeed(cfg.Seed, cfg.GameID, uint64(seat)+2),
			Logger:       logger,
		})
		if err != nil {
			return agents, fmt.Errorf("seat %d: %w", seat, err)
		}
		agents[seat] = a
	}
	return agents, nil
}

// gameSeed derives a per-game, per-component seed. A zero base seed stays
// zero so components pick their own.
func gameSeed(base uint64, gameID string, component uint64) uint64 {
	if base == 0 {
		return 0
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(gameID))
	return base ^ h.Sum64() ^ (component * 0x9e3779b97f4a7c15)
}
