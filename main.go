package main

import (
	"bgarena/communication/server"
	"bgarena/config"
	"bgarena/experiments"
	"bgarena/experiments/metrics"
	"bgarena/game"
	"bgarena/gamemaster"
	"bgarena/storage/sqlite"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const usage = `usage: bgarena <command> [flags]

commands:
  play       play one game configured by GAME_* variables (default)
  batch      play many games into a run folder
  evaluate   summarize run folders
  serve      host engines over websocket`

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, args := "play", os.Args[1:]
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	var code int
	switch cmd {
	case "play":
		code = play(ctx, args)
	case "batch":
		code = batch(ctx, args)
	case "evaluate":
		code = evaluate(args)
	case "serve":
		code = serve(ctx, args)
	default:
		fmt.Fprintln(os.Stderr, usage)
		code = 2
	}
	stop()
	os.Exit(code)
}

func play(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("play", flag.ExitOnError)
	fs.Parse(args)

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return experiments.ExitError
	}
	if cfg.GameID == "" {
		cfg.GameID = uuid.NewString()
	}

	result, _, err := experiments.LocalRunner{Config: cfg}.RunGame(ctx, cfg.GameID, cfg.OutputDir)
	if err != nil {
		log.Error().Err(err).Msgf("game %s failed", cfg.GameID)
		return experiments.ExitError
	}

	writer, err := metrics.NewWriter(cfg.OutputDir)
	if err == nil {
		_, err = writer.WriteResult(result)
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to store game result")
		return experiments.ExitError
	}
	if cfg.ResultsDB != "" {
		if err := saveResult(ctx, cfg.ResultsDB, result); err != nil {
			log.Warn().Err(err).Msg("failed to store game result in database")
		}
	}

	log.Info().Msgf("game %s over after %d turns: winner %s (%s), %s", result.GameID, result.TotalTurns, result.Winner, result.WinnerName, result.GameType)
	return experiments.ExitCode(result)
}

func saveResult(ctx context.Context, path string, result game.GameResult) error {
	store, err := sqlite.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.SaveResult(ctx, result)
}

func batch(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	games := fs.Int("games", 10, "number of games")
	parallel := fs.Int("parallel", 1, "games played at the same time")
	isolate := fs.Bool("isolate", false, "play every game in its own process")
	db := fs.String("db", "", "sqlite file receiving every result (defaults to GAME_RESULTS_DB)")
	fs.Parse(args)

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return 1
	}

	var runner experiments.Runner = experiments.LocalRunner{Config: cfg}
	if *isolate {
		bin, err := os.Executable()
		if err != nil {
			log.Error().Err(err).Msg("cannot locate own binary")
			return 1
		}
		runner = experiments.ProcessRunner{Binary: bin, Config: cfg, Stderr: os.Stderr}
	}

	b := experiments.Batch{Games: *games, Parallel: *parallel, OutputDir: cfg.OutputDir}
	if *db == "" {
		*db = cfg.ResultsDB
	}
	if *db != "" {
		store, err := sqlite.Open(*db)
		if err != nil {
			log.Error().Err(err).Msg("failed to open results database")
			return 1
		}
		defer store.Close()
		b.Store = store
	}

	summary, err := experiments.RunBatch(ctx, b, runner)
	if err != nil {
		log.Error().Err(err).Msg("batch failed")
		return 1
	}
	wins := summary.Wins()
	played := len(summary.Results)
	if played > 0 {
		log.Info().Msgf("%s won %d times (%.1f%%), %s won %d times (%.1f%%)",
			cfg.Agent1, wins[0], float64(wins[0])/float64(played)*100,
			cfg.Agent2, wins[1], float64(wins[1])/float64(played)*100)
	}
	for _, f := range summary.Failures {
		log.Warn().Err(f.Err).Msgf("game %s failed", f.GameID)
	}
	return 0
}

func evaluate(args []string) int {
	fs := flag.NewFlagSet("evaluate", flag.ExitOnError)
	dir := fs.String("dir", "output", "directory containing run folders")
	run := fs.String("run", "", "analyze a single run folder")
	compare := fs.Bool("compare", false, "compare performance across runs")
	quiet := fs.Bool("quiet", false, "leave out game-by-game tables")
	fs.Parse(args)

	if _, err := os.Stat(*dir); err != nil {
		log.Error().Msgf("output directory %q does not exist", *dir)
		return 1
	}

	var runs []experiments.RunAnalysis
	if *run != "" {
		path := filepath.Join(*dir, *run)
		if _, err := os.Stat(path); err != nil {
			log.Error().Msgf("run folder %q does not exist", path)
			return 1
		}
		runs = []experiments.RunAnalysis{experiments.AnalyzeRun(path)}
	} else {
		var err error
		runs, err = experiments.EvaluateRuns(*dir)
		if err != nil {
			log.Error().Err(err).Msg("evaluation failed")
			return 1
		}
	}

	experiments.WriteReport(os.Stdout, runs, *quiet)
	if *compare && len(runs) > 1 {
		experiments.WriteComparison(os.Stdout, runs)
	}
	return 0
}

func serve(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", ":8765", "listen address")
	cubeRate := fs.Float64("cube-rate", 0, "probability that a roll starts with a cube decision")
	fs.Parse(args)

	logger := log.Logger
	srv := server.New(func() gamemaster.Engine {
		return gamemaster.NewLocalEngine(gamemaster.WithCubeRate(*cubeRate), gamemaster.WithLogger(logger))
	}, server.WithLogger(logger))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(*addr)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("server stopped")
			return 1
		}
		return 0
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
		return 1
	}
	log.Info().Msg("engine server stopped")
	return 0
}
