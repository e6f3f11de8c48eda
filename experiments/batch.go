package experiments

import (
	"bgarena/experiments/metrics"
	"bgarena/game"
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ResultStore is an optional durable sink for finished games.
type ResultStore interface {
	SaveResult(ctx context.Context, result game.GameResult) error
}

type Batch struct {
	// ID prefixes every game id of the batch, a fresh short id when unset.
	ID    string
	Games int
	// Parallel bounds the games in flight, 1 when unset.
	Parallel  int
	OutputDir string
	Store     ResultStore
	// Now stamps the run directory, time.Now when unset.
	Now func() time.Time
}

type Failure struct {
	GameID string
	Err    error
}

type Summary struct {
	Dir      string
	Results  []game.GameResult
	Failures []Failure
}

// Wins counts the games won by each seat.
func (s Summary) Wins() [2]int {
	var wins [2]int
	for _, r := range s.Results {
		if r.Winner.Known() {
			wins[r.Winner]++
		}
	}
	return wins
}

// RunBatch plays independent games into a fresh run directory. A failed
// game is recorded and skipped; only setup and write errors abort the
// batch.
func RunBatch(ctx context.Context, b Batch, runner Runner) (Summary, error) {
	if b.Games <= 0 {
		return Summary{}, fmt.Errorf("batch needs at least one game, got %d", b.Games)
	}
	parallel := max(b.Parallel, 1)
	now := b.Now
	if now == nil {
		now = time.Now
	}

	batchID := b.ID
	if batchID == "" {
		batchID = uuid.NewString()[:8]
	}

	writer, err := metrics.NewRunWriter(b.OutputDir, now())
	if err != nil {
		return Summary{}, err
	}
	summary := Summary{Dir: writer.Dir()}
	log.Info().Msgf("starting batch %s of %d games (%d in parallel) into %s", batchID, b.Games, parallel, writer.Dir())

	results := make([]*game.GameResult, b.Games)
	moves := make([][]metrics.MoveMetric, b.Games)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i := 0; i < b.Games; i++ {
		gameID := batchID + "-" + strconv.Itoa(i+1)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result, mm, err := runner.RunGame(gctx, gameID, writer.Dir())
			if err == nil {
				_, err = writer.WriteResult(result)
			}
			if err != nil {
				log.Warn().Err(err).Msgf("game %s failed", gameID)
				mu.Lock()
				summary.Failures = append(summary.Failures, Failure{GameID: gameID, Err: err})
				mu.Unlock()
				return nil
			}
			if b.Store != nil {
				if err := b.Store.SaveResult(gctx, result); err != nil {
					log.Warn().Err(err).Msgf("failed to store game %s", gameID)
				}
			}
			results[i] = &result
			moves[i] = mm
			log.Info().Msgf("completed game %s of %d with winner: %s", gameID, b.Games, result.Winner)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return summary, err
	}

	var records []metrics.MoveRecord
	for i, r := range results {
		if r == nil {
			continue
		}
		summary.Results = append(summary.Results, *r)
		for _, m := range moves[i] {
			records = append(records, metrics.MoveRecord{GameID: r.GameID, MoveMetric: m})
		}
	}

	err = writer.WriteGameRecords(summary.Results)
	if err != nil {
		return summary, err
	}
	log.Info().Msg("stored game records")
	err = writer.WriteMoveRecords(records)
	if err != nil {
		return summary, err
	}
	log.Info().Msg("stored move records")

	wins := summary.Wins()
	log.Info().Msgf("batch done: %d played, %d failed, seat 0 won %d, seat 1 won %d",
		len(summary.Results), len(summary.Failures), wins[0], wins[1])
	return summary, ctx.Err()
}
