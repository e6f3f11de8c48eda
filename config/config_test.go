package config

import (
	"bgarena/game"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFromMap(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := FromMap(map[string]string{})
		require.NoError(t, err)
		require.Equal(t, "BestMoveAgent", cfg.Agent1)
		require.Equal(t, "RandomAgent", cfg.Agent2)
		require.Equal(t, 200, cfg.MaxTurns)
		require.Equal(t, 3, cfg.MaxAttempts)
		require.True(t, cfg.DebugMode)
		require.Equal(t, game.Capabilities{}, cfg.Capabilities)
		require.Equal(t, "gpt-4o", cfg.LLM.Model)
		require.Equal(t, 8000, cfg.LLM.MaxTokens)
		require.Equal(t, 1.0, cfg.Temperature)
		require.False(t, cfg.LLM.Enabled())
	})

	t.Run("overrides", func(t *testing.T) {
		cfg, err := FromMap(map[string]string{
			"GAME_ID":           "42",
			"GAME_AGENT1":       "LLMAgent",
			"GAME_HINTS":        "true",
			"GAME_BEST_MOVE":    "true",
			"GAME_MAX_TURNS":    "50",
			"GAME_SETTLE_DELAY": "250ms",
			"GAME_SEED":         "7",
			"GAME_DEBUG_MODE":   "false",
			"LLM_API_KEY":       "secret",
		})
		require.NoError(t, err)
		require.Equal(t, "42", cfg.GameID)
		require.Equal(t, "LLMAgent", cfg.Agent1)
		require.Equal(t, game.Capabilities{Hints: true, BestMove: true}, cfg.Capabilities)
		require.Equal(t, 50, cfg.MaxTurns)
		require.Equal(t, 250*time.Millisecond, cfg.SettleDelay)
		require.Equal(t, uint64(7), cfg.Seed)
		require.False(t, cfg.DebugMode)
		require.True(t, cfg.LLM.Enabled())
	})

	t.Run("invalid values", func(t *testing.T) {
		_, err := FromMap(map[string]string{"GAME_MAX_TURNS": "0"})
		require.Error(t, err)
		_, err = FromMap(map[string]string{"GAME_TEMPERATURE": "0"})
		require.Error(t, err)
		_, err = FromMap(map[string]string{"GAME_CUBE_RATE": "1.5"})
		require.Error(t, err)
		_, err = FromMap(map[string]string{"GAME_MAX_TURNS": "many"})
		require.Error(t, err)
	})

	t.Run("environ round trip", func(t *testing.T) {
		cfg, err := FromMap(map[string]string{"GAME_ID": "9", "GAME_POSSIBLE_MOVES": "true", "GAME_CUBE_RATE": "0.25"})
		require.NoError(t, err)
		vars := map[string]string{}
		for _, kv := range cfg.Environ() {
			k, v, _ := strings.Cut(kv, "=")
			vars[k] = v
		}
		back, err := FromMap(vars)
		require.NoError(t, err)
		require.Equal(t, cfg, back)
	})
}

func TestGameLogger(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{LogPath: dir, LogFile: "game", DebugMode: false}
	var console bytes.Buffer

	logger, closer, err := newGameLogger(cfg, "g1", time.Date(2024, 5, 1, 9, 8, 7, 0, time.UTC), &console)
	require.NoError(t, err)
	logger.Debug().Msg("hidden")
	logger.Info().Msg("turn played")
	logger.Error().Msg("engine crashed")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(filepath.Join(dir, "game_20240501_090807.log"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], `"game_id":"g1"`)
	require.Contains(t, lines[0], "turn played")

	require.Contains(t, console.String(), "engine crashed")
	require.NotContains(t, console.String(), "turn played")
}
