package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// NewGameLogger logs one game as JSON lines into
// <LogPath>/<LogFile>_<timestamp>.log, mirroring errors to stderr. The
// returned closer releases the file.
func NewGameLogger(cfg Config, gameID string) (zerolog.Logger, io.Closer, error) {
	return newGameLogger(cfg, gameID, time.Now(), os.Stderr)
}

func newGameLogger(cfg Config, gameID string, now time.Time, console io.Writer) (zerolog.Logger, io.Closer, error) {
	err := os.MkdirAll(cfg.LogPath, 0755)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	path := filepath.Join(cfg.LogPath, fmt.Sprintf("%s_%s.log", cfg.LogFile, now.Format("20060102_150405")))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("failed to open log file: %w", err)
	}

	level := zerolog.InfoLevel
	if cfg.DebugMode {
		level = zerolog.DebugLevel
	}
	w := zerolog.MultiLevelWriter(f, errorsOnly{zerolog.ConsoleWriter{Out: console, NoColor: true}})
	logger := zerolog.New(w).Level(level).With().Timestamp().Str("game_id", gameID).Logger()
	return logger, f, nil
}

// errorsOnly forwards error and fatal events only.
type errorsOnly struct {
	w io.Writer
}

func (e errorsOnly) Write(p []byte) (int, error) {
	return len(p), nil
}

func (e errorsOnly) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level < zerolog.ErrorLevel {
		return len(p), nil
	}
	return e.w.Write(p)
}
