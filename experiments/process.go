package experiments

import (
	"bgarena/config"
	"bgarena/experiments/metrics"
	"bgarena/game"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
)

// Exit codes of the play command.
const (
	ExitPlayerOne = 0
	ExitPlayerTwo = 1
	ExitUnknown   = 2
	ExitError     = 3
)

// ExitCode maps a finished game to the play command's exit status.
func ExitCode(result game.GameResult) int {
	switch result.Winner {
	case game.PlayerOne:
		return ExitPlayerOne
	case game.PlayerTwo:
		return ExitPlayerTwo
	}
	return ExitUnknown
}

// ProcessRunner plays every game in its own child process running the
// binary's play command, so a crashing engine or agent only loses that game.
type ProcessRunner struct {
	Binary string
	Config config.Config
	Stdout io.Writer
	Stderr io.Writer
}

func (r ProcessRunner) RunGame(ctx context.Context, gameID, dir string) (game.GameResult, []metrics.MoveMetric, error) {
	cfg := r.Config
	cfg.GameID = gameID
	cfg.OutputDir = dir

	cmd := exec.CommandContext(ctx, r.Binary, "play")
	cmd.Env = append(os.Environ(), cfg.Environ()...)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	code := 0
	err := cmd.Run()
	var exitErr *exec.ExitError
	switch {
	case errors.As(err, &exitErr):
		code = exitErr.ExitCode()
	case err != nil:
		return game.GameResult{}, nil, fmt.Errorf("failed to start game process: %w", err)
	}
	if code == ExitError || code < 0 || code > ExitError {
		return game.GameResult{}, nil, fmt.Errorf("game process exited with status %d", code)
	}

	result, err := metrics.ReadResult(filepath.Join(dir, gameID+metrics.StatsSuffix))
	if err != nil {
		return game.GameResult{}, nil, err
	}
	if ExitCode(result) != code {
		return result, nil, fmt.Errorf("game process exited with status %d but recorded winner %s", code, result.Winner)
	}
	return result, nil, nil
}
