package metrics

import (
	"bgarena/game"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// StatsSuffix names the per-game result files a run directory holds.
const StatsSuffix = "_stats.json"

type MoveRecord struct {
	GameID string
	MoveMetric
}

type Writer struct {
	baseDir string
}

// NewWriter writes into dir, creating it when needed.
func NewWriter(dir string) (*Writer, error) {
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	return &Writer{baseDir: dir}, nil
}

// NewRunWriter writes into a fresh run_<timestamp> folder under outputDir.
// A folder left by an earlier run in the same second gets a _2, _3, ...
// suffix instead of being reused.
func NewRunWriter(outputDir string, now time.Time) (*Writer, error) {
	err := os.MkdirAll(outputDir, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	name := "run_" + now.Format("20060102_150405")
	for n := 1; ; n++ {
		dir := filepath.Join(outputDir, name)
		if n > 1 {
			dir += "_" + strconv.Itoa(n)
		}
		err = os.Mkdir(dir, 0755)
		if err == nil {
			return &Writer{baseDir: dir}, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("failed to create run directory: %w", err)
		}
	}
}

func (w *Writer) Dir() string {
	return w.baseDir
}

// WriteResult stores the result as <game_id>_stats.json and returns its path.
func (w *Writer) WriteResult(result game.GameResult) (string, error) {
	path := filepath.Join(w.baseDir, result.GameID+StatsSuffix)
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode game result: %w", err)
	}
	err = os.WriteFile(path, data, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to write game result: %w", err)
	}
	return path, nil
}

func ReadResult(path string) (game.GameResult, error) {
	var result game.GameResult
	data, err := os.ReadFile(path)
	if err != nil {
		return result, fmt.Errorf("failed to read game result: %w", err)
	}
	err = json.Unmarshal(data, &result)
	if err != nil {
		return result, fmt.Errorf("failed to decode game result %s: %w", path, err)
	}
	return result, nil
}

func (w *Writer) WriteGameRecords(results []game.GameResult) error {
	// Create a file
	path := filepath.Join(w.baseDir, "game_records.csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create game records file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	defer writer.Flush()

	header := []string{
		"game_id", "player1", "player2", "winner", "winner_name", "total_turns", "duration",
		"game_type", "final_score_difference", "player1_invalid_moves", "player2_invalid_moves",
	}
	err = writer.Write(header)
	if err != nil {
		return fmt.Errorf("failed to write game records header: %w", err)
	}

	for _, r := range results {
		row := []string{
			r.GameID,
			r.Player1Stats.Name,
			r.Player2Stats.Name,
			r.Winner.String(),
			r.WinnerName,
			strconv.Itoa(r.TotalTurns),
			strconv.FormatFloat(r.GameDuration, 'f', 3, 64),
			string(r.GameType),
			strconv.Itoa(r.FinalScoreDifference),
			strconv.Itoa(r.Player1Stats.InvalidMoves),
			strconv.Itoa(r.Player2Stats.InvalidMoves),
		}
		err = writer.Write(row)
		if err != nil {
			return fmt.Errorf("failed to write game record row: %w", err)
		}
	}

	return nil
}

func (w *Writer) WriteMoveRecords(records []MoveRecord) error {
	// Create a file
	path := filepath.Join(w.baseDir, "move_records.csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create move records file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	defer writer.Flush()

	header := []string{"game_id", "turn", "seat", "attempts", "outcome", "move", "duration"}
	err = writer.Write(header)
	if err != nil {
		return fmt.Errorf("failed to write move records header: %w", err)
	}

	for _, record := range records {
		row := []string{
			record.GameID,
			strconv.Itoa(record.Turn),
			strconv.Itoa(record.Seat),
			strconv.Itoa(record.Attempts),
			record.Outcome,
			string(record.Move),
			record.Duration.String(),
		}
		err = writer.Write(row)
		if err != nil {
			return fmt.Errorf("failed to write move record row: %w", err)
		}
	}

	return nil
}
