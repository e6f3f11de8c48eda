package config

import (
	"bgarena/game"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the game configuration read from GAME_* and LLM_* variables.
type Config struct {
	GameID    string `env:"GAME_ID"`
	LogFile   string `env:"GAME_LOG_FILE" envDefault:"game"`
	LogPath   string `env:"GAME_LOG_PATH" envDefault:"output"`
	OutputDir string `env:"GAME_OUTPUT_DIR" envDefault:"output"`
	Agent1    string `env:"GAME_AGENT1" envDefault:"BestMoveAgent"`
	Agent2    string `env:"GAME_AGENT2" envDefault:"RandomAgent"`
	DebugMode bool   `env:"GAME_DEBUG_MODE" envDefault:"true"`

	// Capabilities are granted to both agents on top of their own needs.
	Capabilities game.Capabilities

	MaxTurns    int           `env:"GAME_MAX_TURNS" envDefault:"200"`
	MaxAttempts int           `env:"GAME_MAX_ATTEMPTS" envDefault:"3"`
	SettleDelay time.Duration `env:"GAME_SETTLE_DELAY" envDefault:"0s"`
	// EngineURL selects a remote engine; empty runs one in process.
	EngineURL  string  `env:"GAME_ENGINE_URL"`
	Seed       uint64  `env:"GAME_SEED"`
	CubeRate   float64 `env:"GAME_CUBE_RATE"`
	ScriptPath string  `env:"GAME_SCRIPT_PATH"`
	ResultsDB  string  `env:"GAME_RESULTS_DB"`
	// Temperature is the HintSamplerAgent sampling temperature.
	Temperature float64 `env:"GAME_TEMPERATURE" envDefault:"1"`

	LLM LLMConfig
}

type LLMConfig struct {
	APIURL       string `env:"LLM_API_URL"`
	APIKey       string `env:"LLM_API_KEY"`
	Model        string `env:"LLM_MODEL" envDefault:"gpt-4o"`
	MaxTokens    int    `env:"LLM_MAX_TOKENS" envDefault:"8000"`
	SystemPrompt string `env:"LLM_SYSTEM_PROMPT"`
}

// Enabled reports whether a language model endpoint is configured.
func (c LLMConfig) Enabled() bool {
	return c.APIKey != "" || c.APIURL != ""
}

// Load reads an optional .env file, then the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.validate()
}

// FromMap parses vars instead of the process environment.
func FromMap(vars map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.MaxTurns <= 0 {
		return fmt.Errorf("GAME_MAX_TURNS must be positive, got %d", c.MaxTurns)
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("GAME_MAX_ATTEMPTS must be positive, got %d", c.MaxAttempts)
	}
	if c.Temperature <= 0 {
		return fmt.Errorf("GAME_TEMPERATURE must be positive, got %v", c.Temperature)
	}
	if c.CubeRate < 0 || c.CubeRate > 1 {
		return fmt.Errorf("GAME_CUBE_RATE must be within [0, 1], got %v", c.CubeRate)
	}
	return nil
}

// Environ renders the configuration as KEY=value pairs for a child process.
func (c Config) Environ() []string {
	vars := [][2]string{
		{"GAME_ID", c.GameID},
		{"GAME_LOG_FILE", c.LogFile},
		{"GAME_LOG_PATH", c.LogPath},
		{"GAME_OUTPUT_DIR", c.OutputDir},
		{"GAME_AGENT1", c.Agent1},
		{"GAME_AGENT2", c.Agent2},
		{"GAME_DEBUG_MODE", strconv.FormatBool(c.DebugMode)},
		{"GAME_POSSIBLE_MOVES", strconv.FormatBool(c.Capabilities.PossibleMoves)},
		{"GAME_HINTS", strconv.FormatBool(c.Capabilities.Hints)},
		{"GAME_BEST_MOVE", strconv.FormatBool(c.Capabilities.BestMove)},
		{"GAME_MAX_TURNS", strconv.Itoa(c.MaxTurns)},
		{"GAME_MAX_ATTEMPTS", strconv.Itoa(c.MaxAttempts)},
		{"GAME_SETTLE_DELAY", c.SettleDelay.String()},
		{"GAME_ENGINE_URL", c.EngineURL},
		{"GAME_SEED", strconv.FormatUint(c.Seed, 10)},
		{"GAME_CUBE_RATE", strconv.FormatFloat(c.CubeRate, 'g', -1, 64)},
		{"GAME_SCRIPT_PATH", c.ScriptPath},
		{"GAME_TEMPERATURE", strconv.FormatFloat(c.Temperature, 'g', -1, 64)},
		{"GAME_RESULTS_DB", c.ResultsDB},
		{"LLM_API_URL", c.LLM.APIURL},
		{"LLM_API_KEY", c.LLM.APIKey},
		{"LLM_MODEL", c.LLM.Model},
		{"LLM_MAX_TOKENS", strconv.Itoa(c.LLM.MaxTokens)},
		{"LLM_SYSTEM_PROMPT", c.LLM.SystemPrompt},
	}
	out := make([]string, 0, len(vars))
	for _, kv := range vars {
		out = append(out, kv[0]+"="+kv[1])
	}
	return out
}
