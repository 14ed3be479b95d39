package qlearn

import (
	"context"
	"fmt"
	rand "math/rand/v2"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lox/blackjackrl/internal/deck"
	"github.com/lox/blackjackrl/internal/randutil"
)

// Stats accumulates hand outcomes.
type Stats struct {
	Episodes    int64
	Wins        int64
	Losses      int64
	Pushes      int64
	PlayerBusts int64
	DealerBusts int64
	Blackjacks  int64
	Decisions   int64
	TotalReward float64
}

// Record adds a single outcome.
func (s *Stats) Record(o Outcome) {
	s.Episodes++
	s.Decisions += int64(o.Decisions)
	s.TotalReward += o.Reward
	switch {
	case o.Reward > 0:
		s.Wins++
	case o.Reward < 0:
		s.Losses++
	default:
		s.Pushes++
	}
	if o.PlayerBust {
		s.PlayerBusts++
	}
	if o.DealerBust {
		s.DealerBusts++
	}
	if o.Blackjack {
		s.Blackjacks++
	}
}

// Add folds other into s.
func (s *Stats) Add(other Stats) {
	s.Episodes += other.Episodes
	s.Wins += other.Wins
	s.Losses += other.Losses
	s.Pushes += other.Pushes
	s.PlayerBusts += other.PlayerBusts
	s.DealerBusts += other.DealerBusts
	s.Blackjacks += other.Blackjacks
	s.Decisions += other.Decisions
	s.TotalReward += other.TotalReward
}

// MeanReward returns the average reward per episode.
func (s Stats) MeanReward() float64 {
	if s.Episodes == 0 {
		return 0
	}
	return s.TotalReward / float64(s.Episodes)
}

// Rate returns n/Episodes, or zero before any episode has finished.
func (s Stats) Rate(n int64) float64 {
	if s.Episodes == 0 {
		return 0
	}
	return float64(n) / float64(s.Episodes)
}

// Progress is emitted at batch boundaries during a run.
type Progress struct {
	Episode        int
	TableSize      int
	Stats          Stats
	Elapsed        time.Duration
	EpisodesPerSec float64
}

// CheckpointFunc persists an intermediate table.
type CheckpointFunc func(ctx context.Context, t *Table) error

// Trainer runs self-play episodes and updates its table.
type Trainer struct {
	cfg            TrainingConfig
	table          *Table
	clock          quartz.Clock
	logger         zerolog.Logger
	runID          string
	seed           int64
	rngs           []*rand.Rand
	checkpoint     CheckpointFunc
	statsMu        sync.Mutex
	stats          Stats
	completed      int
	lastCheckpoint time.Time
}

// TrainerOption customises a Trainer.
type TrainerOption func(*Trainer)

// WithTable trains on an existing table instead of a fresh one.
func WithTable(t *Table) TrainerOption {
	return func(tr *Trainer) {
		if t != nil {
			tr.table = t
		}
	}
}

// WithClock overrides the wall clock, mostly for tests.
func WithClock(c quartz.Clock) TrainerOption {
	return func(tr *Trainer) { tr.clock = c }
}

// WithLogger sets the logger used for run lifecycle messages.
func WithLogger(l zerolog.Logger) TrainerOption {
	return func(tr *Trainer) { tr.logger = l }
}

// WithCheckpoint calls fn at batch boundaries once cfg.CheckpointEvery has
// elapsed since the previous checkpoint.
func WithCheckpoint(fn CheckpointFunc) TrainerOption {
	return func(tr *Trainer) { tr.checkpoint = fn }
}

// NewTrainer validates cfg and constructs a trainer.
func NewTrainer(cfg TrainingConfig, opts ...TrainerOption) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	t := &Trainer{
		cfg:    cfg,
		table:  NewTable(),
		clock:  quartz.NewReal(),
		logger: zerolog.Nop(),
		runID:  uuid.NewString(),
	}
	for _, opt := range opts {
		opt(t)
	}

	t.seed = cfg.Seed
	if t.seed == 0 {
		t.seed = t.clock.Now().UnixNano()
	}
	if cfg.Workers == 1 {
		t.rngs = []*rand.Rand{randutil.New(t.seed)}
	} else {
		t.rngs = make([]*rand.Rand, cfg.Workers)
		for i := range t.rngs {
			t.rngs[i] = randutil.Derive(t.seed, i)
		}
	}
	return t, nil
}

// Table returns the table being trained.
func (t *Trainer) Table() *Table { return t.table }

// RunID identifies this trainer in logs and persisted snapshots.
func (t *Trainer) RunID() string { return t.runID }

// Seed returns the effective seed.
func (t *Trainer) Seed() int64 { return t.seed }

// TrainingConfig returns the configuration the trainer was built with.
func (t *Trainer) TrainingConfig() TrainingConfig { return t.cfg }

// Stats returns the outcomes accumulated by the current or most recent run.
func (t *Trainer) Stats() Stats {
	t.statsMu.Lock()
	defer t.statsMu.Unlock()
	return t.stats
}

// Train plays totalEpisodes more hands without progress reporting.
func (t *Trainer) Train(ctx context.Context, totalEpisodes int) error {
	if totalEpisodes <= 0 {
		return fmt.Errorf("%w: episodes must be > 0", ErrInvalidConfig)
	}
	t.cfg.Episodes = totalEpisodes
	return t.Run(ctx, nil)
}

// Run plays cfg.Episodes hands. With one worker every episode runs to
// completion on the trainer's table before the next begins. With more, each
// batch is split across workers that own a copy of the table and their own
// random stream; the copies are averaged back per cell when the batch ends.
// Cancelling ctx stops the run between episodes and returns ctx.Err().
// Stats count only the episodes of this run whose updates reached the table.
func (t *Trainer) Run(ctx context.Context, progress func(Progress)) error {
	start := t.clock.Now()
	t.lastCheckpoint = start
	t.completed = 0
	t.statsMu.Lock()
	t.stats = Stats{}
	t.statsMu.Unlock()
	batch := t.cfg.batchSize()

	t.logger.Info().
		Str("run_id", t.runID).
		Int("episodes", t.cfg.Episodes).
		Int("workers", t.cfg.Workers).
		Int64("seed", t.seed).
		Float64("alpha", t.cfg.Hyper.Alpha).
		Float64("gamma", t.cfg.Hyper.Gamma).
		Float64("epsilon", t.cfg.Hyper.Epsilon).
		Int("initial_states", t.table.Size()).
		Msg("training started")

	var agent *Agent
	if t.cfg.Workers == 1 {
		agent = NewAgent(t.table, t.cfg.Hyper, t.rngs[0])
	}

	for t.completed < t.cfg.Episodes {
		n := min(batch, t.cfg.Episodes-t.completed)

		var (
			stats Stats
			err   error
		)
		if agent != nil {
			stats, err = t.runSequential(ctx, agent, n)
		} else {
			stats, err = t.runParallel(ctx, n)
		}
		t.statsMu.Lock()
		t.stats.Add(stats)
		t.statsMu.Unlock()
		t.completed += int(stats.Episodes)
		if err != nil {
			return err
		}

		if err := t.maybeCheckpoint(ctx); err != nil {
			return err
		}
		if progress != nil {
			progress(t.progress(start))
		}
	}

	p := t.progress(start)
	t.logger.Info().
		Str("run_id", t.runID).
		Int("episodes", p.Episode).
		Int("states", p.TableSize).
		Float64("mean_reward", p.Stats.MeanReward()).
		Dur("elapsed", p.Elapsed).
		Msg("training complete")
	return nil
}

func (t *Trainer) runSequential(ctx context.Context, agent *Agent, n int) (Stats, error) {
	var stats Stats
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		out, err := PlayHand(deck.New(t.rngs[0]), agent, PlayOptions{Learn: true})
		if err != nil {
			return stats, fmt.Errorf("episode %d: %w", t.completed+i+1, err)
		}
		stats.Record(out)
	}
	return stats, nil
}

func (t *Trainer) runParallel(ctx context.Context, n int) (Stats, error) {
	workers := t.cfg.Workers
	parts := make([]*Table, workers)
	results := make([]Stats, workers)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		share := n / workers
		if w < n%workers {
			share++
		}
		if share == 0 {
			continue
		}
		parts[w] = t.table.Clone()
		agent := NewAgent(parts[w], t.cfg.Hyper, t.rngs[w])
		rng := t.rngs[w]
		stats := &results[w]
		g.Go(func() error {
			for i := 0; i < share; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				out, err := PlayHand(deck.New(rng), agent, PlayOptions{Learn: true})
				if err != nil {
					return fmt.Errorf("worker episode: %w", err)
				}
				stats.Record(out)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// The worker tables are discarded, so none of the batch counts.
		return Stats{}, err
	}

	var total Stats
	for _, s := range results {
		total.Add(s)
	}
	t.table.MergeAverage(parts...)
	return total, nil
}

func (t *Trainer) maybeCheckpoint(ctx context.Context) error {
	if t.checkpoint == nil || t.cfg.CheckpointEvery <= 0 {
		return nil
	}
	now := t.clock.Now()
	if now.Sub(t.lastCheckpoint) < t.cfg.CheckpointEvery {
		return nil
	}
	if err := t.checkpoint(ctx, t.table); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	t.lastCheckpoint = now
	t.logger.Debug().Str("run_id", t.runID).Int("episode", t.completed).Msg("checkpoint written")
	return nil
}

func (t *Trainer) progress(start time.Time) Progress {
	elapsed := t.clock.Since(start)
	rate := 0.0
	if elapsed > 0 {
		rate = float64(t.completed) / elapsed.Seconds()
	}
	return Progress{
		Episode:        t.completed,
		TableSize:      t.table.Size(),
		Stats:          t.Stats(),
		Elapsed:        elapsed,
		EpisodesPerSec: rate,
	}
}
