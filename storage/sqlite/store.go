// Package sqlite stores finished game results in SQLite.
package sqlite

import (
	"bgarena/game"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

var (
	ErrNotFound  = errors.New("game result not found")
	ErrDuplicate = errors.New("game result already stored")
)

const schema = `
CREATE TABLE IF NOT EXISTS game_results (
  game_id TEXT PRIMARY KEY,
  winner INTEGER NOT NULL,
  winner_name TEXT NOT NULL,
  loser_name TEXT NOT NULL,
  total_turns INTEGER NOT NULL,
  game_duration REAL NOT NULL,
  game_type TEXT NOT NULL,
  final_score_difference INTEGER NOT NULL,
  result_json TEXT NOT NULL,
  created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS game_results_created_at ON game_results (created_at);
`

// Store persists game results. It is safe for concurrent use.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// SaveResult inserts one result. Storing the same game id twice fails with
// ErrDuplicate.
func (s *Store) SaveResult(ctx context.Context, result game.GameResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(result.GameID) == "" {
		return fmt.Errorf("game id is required")
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode game result: %w", err)
	}
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO game_results (
		   game_id, winner, winner_name, loser_name, total_turns, game_duration,
		   game_type, final_score_difference, result_json, created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.GameID,
		int(result.Winner),
		result.WinnerName,
		result.LoserName,
		result.TotalTurns,
		result.GameDuration,
		string(result.GameType),
		result.FinalScoreDifference,
		string(data),
		s.now().UTC().UnixMilli(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicate, result.GameID)
		}
		return fmt.Errorf("insert game result: %w", err)
	}
	return nil
}

func (s *Store) GetResult(ctx context.Context, gameID string) (game.GameResult, error) {
	var data string
	err := s.sqlDB.QueryRowContext(ctx, `SELECT result_json FROM game_results WHERE game_id = ?`, gameID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return game.GameResult{}, fmt.Errorf("%w: %s", ErrNotFound, gameID)
	}
	if err != nil {
		return game.GameResult{}, fmt.Errorf("get game result: %w", err)
	}
	return decode(data)
}

// ListResults returns every stored result in insertion order.
func (s *Store) ListResults(ctx context.Context) ([]game.GameResult, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT result_json FROM game_results ORDER BY created_at, game_id`)
	if err != nil {
		return nil, fmt.Errorf("list game results: %w", err)
	}
	defer rows.Close()

	var results []game.GameResult
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan game result: %w", err)
		}
		result, err := decode(data)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list game results: %w", err)
	}
	return results, nil
}

// WinCounts returns how many stored games each seat won, and how many ended
// without a winner.
func (s *Store) WinCounts(ctx context.Context) (wins [2]int, unknown int, err error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT winner, COUNT(*) FROM game_results GROUP BY winner`)
	if err != nil {
		return wins, 0, fmt.Errorf("count wins: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var winner, count int
		if err := rows.Scan(&winner, &count); err != nil {
			return wins, 0, fmt.Errorf("scan win count: %w", err)
		}
		if winner == int(game.PlayerOne) || winner == int(game.PlayerTwo) {
			wins[winner] = count
		} else {
			unknown += count
		}
	}
	return wins, unknown, rows.Err()
}

func decode(data string) (game.GameResult, error) {
	var result game.GameResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return result, fmt.Errorf("decode game result: %w", err)
	}
	return result, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
