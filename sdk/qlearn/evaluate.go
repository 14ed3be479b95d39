package qlearn

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/lox/blackjackrl/internal/deck"
	"github.com/lox/blackjackrl/internal/randutil"
)

// EvalConfig controls a greedy evaluation run.
type EvalConfig struct {
	Hands   int
	Seed    int64
	Workers int
}

// EvalResult holds the outcome of every evaluated hand.
type EvalResult struct {
	Stats   Stats
	Rewards []float64
}

// Evaluate plays cfg.Hands hands greedily without learning. The caller's table
// is never modified; each worker reads its own copy. Results are deterministic
// for a given seed and worker count.
func Evaluate(ctx context.Context, table *Table, cfg EvalConfig) (EvalResult, error) {
	if cfg.Hands <= 0 {
		return EvalResult{}, fmt.Errorf("%w: hands must be > 0", ErrInvalidConfig)
	}
	workers := max(cfg.Workers, 1)

	rewards := make([]float64, cfg.Hands)
	results := make([]Stats, workers)

	g, gctx := errgroup.WithContext(ctx)
	per := (cfg.Hands + workers - 1) / workers
	for w := 0; w < workers; w++ {
		lo := w * per
		hi := min(lo+per, cfg.Hands)
		if lo >= hi {
			break
		}
		rng := randutil.Derive(cfg.Seed, w)
		agent := NewAgent(table.Clone(), Hyperparameters{}, rng)
		stats := &results[w]
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				out, err := PlayHand(deck.New(rng), agent, PlayOptions{})
				if err != nil {
					return fmt.Errorf("evaluation hand %d: %w", i, err)
				}
				rewards[i] = out.Reward
				stats.Record(out)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return EvalResult{}, err
	}

	var res EvalResult
	for _, s := range results {
		res.Stats.Add(s)
	}
	res.Rewards = rewards
	return res, nil
}
