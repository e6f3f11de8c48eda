package experiments

import (
	"bgarena/experiments/metrics"
	"bgarena/game"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

var ErrNoRuns = errors.New("no run folders found")

// RunAnalysis aggregates the games of one run folder.
type RunAnalysis struct {
	RunName           string
	RunFolder         string
	NumGames          int
	Agent1Name        string
	Agent2Name        string
	Agent1Wins        int
	Agent2Wins        int
	UnknownWins       int
	Agent1WinRate     float64
	Agent2WinRate     float64
	TotalDuration     float64
	AvgDuration       float64
	TotalTurns        int
	AvgTurns          float64
	InvalidMovesP1    int
	InvalidMovesP2    int
	TotalMovesP1      int
	TotalMovesP2      int
	InvalidMoveRateP1 float64
	InvalidMoveRateP2 float64
	GameTypes         map[game.GameType]int
	Games             []game.GameResult
	Error             string
}

// FindRuns returns the run_* folders of outputDir in name order.
func FindRuns(outputDir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(outputDir, "run_*"))
	if err != nil {
		return nil, err
	}
	var runs []string
	for _, m := range matches {
		if info, err := os.Stat(m); err == nil && info.IsDir() {
			runs = append(runs, m)
		}
	}
	sort.Strings(runs)
	return runs, nil
}

// AnalyzeRun reads every *_stats.json file in dir. Unreadable files are
// skipped with a warning.
func AnalyzeRun(dir string) RunAnalysis {
	a := RunAnalysis{
		RunName:   filepath.Base(dir),
		RunFolder: dir,
		GameTypes: map[game.GameType]int{game.Normal: 0, game.Gammon: 0, game.Backgammon: 0},
	}
	files, _ := filepath.Glob(filepath.Join(dir, "*"+metrics.StatsSuffix))
	sort.Strings(files)
	for _, f := range files {
		result, err := metrics.ReadResult(f)
		if err != nil {
			log.Warn().Err(err).Msgf("could not read %s", f)
			continue
		}
		a.Games = append(a.Games, result)
	}
	if len(a.Games) == 0 {
		a.Error = "No game statistics found"
		return a
	}

	a.NumGames = len(a.Games)
	a.Agent1Name = a.Games[0].Player1Stats.Name
	a.Agent2Name = a.Games[0].Player2Stats.Name
	for _, g := range a.Games {
		switch g.Winner {
		case game.PlayerOne:
			a.Agent1Wins++
		case game.PlayerTwo:
			a.Agent2Wins++
		default:
			a.UnknownWins++
		}
		a.InvalidMovesP1 += g.Player1Stats.InvalidMoves
		a.InvalidMovesP2 += g.Player2Stats.InvalidMoves
		a.TotalMovesP1 += g.Player1Stats.TotalMoves
		a.TotalMovesP2 += g.Player2Stats.TotalMoves
		a.TotalDuration += g.GameDuration
		a.TotalTurns += g.TotalTurns
		gameType := g.GameType
		if gameType == "" {
			gameType = game.Normal
		}
		a.GameTypes[gameType]++
	}

	n := float64(a.NumGames)
	a.Agent1WinRate = float64(a.Agent1Wins) / n * 100
	a.Agent2WinRate = float64(a.Agent2Wins) / n * 100
	a.AvgDuration = a.TotalDuration / n
	a.AvgTurns = float64(a.TotalTurns) / n
	a.InvalidMoveRateP1 = percent(a.InvalidMovesP1, a.TotalMovesP1)
	a.InvalidMoveRateP2 = percent(a.InvalidMovesP2, a.TotalMovesP2)
	return a
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// EvaluateRuns analyzes every run folder of outputDir.
func EvaluateRuns(outputDir string) ([]RunAnalysis, error) {
	runs, err := FindRuns(outputDir)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoRuns, outputDir)
	}
	analyses := make([]RunAnalysis, len(runs))
	for i, run := range runs {
		analyses[i] = AnalyzeRun(run)
	}
	return analyses, nil
}

var rule = strings.Repeat("=", 80)

// WriteReport prints the per-run report. Summary only leaves out the
// game-by-game tables.
func WriteReport(w io.Writer, runs []RunAnalysis, summaryOnly bool) {
	total := 0
	for _, r := range runs {
		total += r.NumGames
	}
	fmt.Fprintf(w, "%s\n%-80s\n%s\n", rule, "GAME RUN EVALUATION REPORT", rule)
	fmt.Fprintf(w, "\nSUMMARY:\n   Total runs analyzed: %d\n   Total games across all runs: %d\n", len(runs), total)

	for _, r := range runs {
		if r.Error != "" {
			fmt.Fprintf(w, "\n%s: %s\n", r.RunName, r.Error)
			continue
		}
		fmt.Fprintf(w, "\n%s\nRUN: %s\n%s\n", rule, r.RunName, rule)
		fmt.Fprintf(w, "\nOVERALL RESULTS:\n")
		fmt.Fprintf(w, "   %s won: %d times (%.1f%%)\n", r.Agent1Name, r.Agent1Wins, r.Agent1WinRate)
		fmt.Fprintf(w, "   %s won: %d times (%.1f%%)\n", r.Agent2Name, r.Agent2Wins, r.Agent2WinRate)
		if r.UnknownWins > 0 {
			fmt.Fprintf(w, "   undecided: %d games\n", r.UnknownWins)
		}

		if !summaryOnly {
			fmt.Fprintf(w, "\nGAME-BY-GAME RESULTS:\n")
			fmt.Fprintf(w, "%-12s %-14s %-14s %-9s %-6s %-14s %-14s %-10s\n",
				"Game", "Winner", "Loser", "Duration", "Turns", "Invalid P1/P2", "Loser checkers", "Type")
			fmt.Fprintln(w, strings.Repeat("-", 106))
			for _, g := range r.Games {
				loserCheckers := "N/A"
				if g.Loser.Known() {
					loserCheckers = fmt.Sprint(g.Stats(int(g.Loser)).CheckersRemaining)
				}
				fmt.Fprintf(w, "%-12s %-14s %-14s %-9s %-6d %-14s %-14s %-10s\n",
					truncate(g.GameID, 12), truncate(g.WinnerName, 12), truncate(g.LoserName, 12),
					fmt.Sprintf("%.1fs", g.GameDuration), g.TotalTurns,
					fmt.Sprintf("%d/%d", g.Player1Stats.InvalidMoves, g.Player2Stats.InvalidMoves),
					loserCheckers, g.GameType)
			}
		}

		fmt.Fprintf(w, "\nAGGREGATE STATISTICS:\n")
		fmt.Fprintf(w, "   Total games: %d\n", r.NumGames)
		fmt.Fprintf(w, "   Average game duration: %.2f seconds\n", r.AvgDuration)
		fmt.Fprintf(w, "   Average turns per game: %.1f\n", r.AvgTurns)
		fmt.Fprintf(w, "   Total invalid moves - %s: %d, %s: %d\n", r.Agent1Name, r.InvalidMovesP1, r.Agent2Name, r.InvalidMovesP2)
		fmt.Fprintf(w, "   Invalid move rate - %s: %.2f%%\n", r.Agent1Name, r.InvalidMoveRateP1)
		fmt.Fprintf(w, "   Invalid move rate - %s: %.2f%%\n", r.Agent2Name, r.InvalidMoveRateP2)

		fmt.Fprintf(w, "\nGAME TYPES:\n")
		for _, t := range []game.GameType{game.Normal, game.Gammon, game.Backgammon} {
			if n := r.GameTypes[t]; n > 0 {
				fmt.Fprintf(w, "   %s: %d games (%.1f%%)\n", t, n, percent(n, r.NumGames))
			}
		}
	}
	fmt.Fprintf(w, "\n%s\n", rule)
}

// WriteComparison prints one line per valid run.
func WriteComparison(w io.Writer, runs []RunAnalysis) {
	var valid []RunAnalysis
	for _, r := range runs {
		if r.Error == "" {
			valid = append(valid, r)
		}
	}
	fmt.Fprintf(w, "\n%s\n%-80s\n%s\n", rule, "RUN COMPARISON", rule)
	if len(valid) < 2 {
		fmt.Fprintln(w, "Need at least 2 valid runs for comparison.")
		return
	}
	fmt.Fprintf(w, "%-22s %-6s %-12s %-12s %-13s %-10s\n", "Run", "Games", "Agent1 Win%", "Agent2 Win%", "Avg Duration", "Avg Turns")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, r := range valid {
		fmt.Fprintf(w, "%-22s %-6d %-12s %-12s %-13s %-10.1f\n", r.RunName, r.NumGames,
			fmt.Sprintf("%.1f%%", r.Agent1WinRate), fmt.Sprintf("%.1f%%", r.Agent2WinRate),
			fmt.Sprintf("%.2fs", r.AvgDuration), r.AvgTurns)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
