package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lox/blackjackrl/internal/config"
	"github.com/lox/blackjackrl/internal/store"
	"github.com/lox/blackjackrl/sdk/qlearn"
)

type TrainCmd struct {
	Store           string        `help:"table location: file path (.json/.toml) or postgres:// URL"`
	Episodes        int           `help:"number of self-play episodes (0 uses config)" default:"0"`
	Seed            int64         `help:"random seed; 0 uses config or a time seed" default:"0"`
	Workers         int           `help:"concurrent workers (0 uses config)" default:"0"`
	Alpha           float64       `help:"learning rate; negative uses config" default:"-1"`
	Gamma           float64       `help:"discount factor; negative uses config" default:"-1"`
	Epsilon         float64       `help:"exploration rate; negative uses config" default:"-1"`
	ProgressEvery   int           `help:"log progress every N episodes (0 => episodes/100)" default:"0"`
	CheckpointEvery time.Duration `help:"save the table at most this often during training (0 disables)" default:"0s"`
	Force           bool          `help:"train even when the store already holds a table"`
}

// trainingConfig layers the command's flags over cfg.
func (cmd *TrainCmd) trainingConfig(cfg config.Config) qlearn.TrainingConfig {
	train := cfg.Training
	if cmd.Episodes > 0 {
		train.Episodes = cmd.Episodes
	}
	if cmd.Seed != 0 {
		train.Seed = cmd.Seed
	}
	if cmd.Workers > 0 {
		train.Workers = cmd.Workers
	}
	if cmd.Alpha >= 0 {
		train.Hyper.Alpha = cmd.Alpha
	}
	if cmd.Gamma >= 0 {
		train.Hyper.Gamma = cmd.Gamma
	}
	if cmd.Epsilon >= 0 {
		train.Hyper.Epsilon = cmd.Epsilon
	}
	if cmd.ProgressEvery > 0 {
		train.ProgressEvery = cmd.ProgressEvery
	}
	if cmd.CheckpointEvery > 0 {
		train.CheckpointEvery = cmd.CheckpointEvery
	}
	return train
}

func (cmd *TrainCmd) Run(ctx context.Context, cfg config.Config) error {
	st, table, err := loadTable(ctx, cmd.Store, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	if !qlearn.ShouldTrain(table) && !cmd.Force {
		log.Info().Int("states", table.Size()).Msg("table already trained, skipping (use --force to continue training)")
		return nil
	}

	fileStore, isFile := st.(*store.FileStore)
	var baseEpisodes int64
	if isFile {
		baseEpisodes = fileStore.LoadedMeta.Episodes
	}

	var trainer *qlearn.Trainer
	trainer, err = qlearn.NewTrainer(cmd.trainingConfig(cfg),
		qlearn.WithTable(table),
		qlearn.WithLogger(log.Logger),
		qlearn.WithCheckpoint(checkpointFunc(st, baseEpisodes, func() int64 { return trainer.Stats().Episodes })),
	)
	if err != nil {
		return err
	}
	if isFile {
		fileStore.Meta = store.Meta{RunID: trainer.RunID(), Episodes: baseEpisodes}
	}

	progress := func(p qlearn.Progress) {
		log.Info().
			Int("episode", p.Episode).
			Int("states", p.TableSize).
			Float64("mean_reward", p.Stats.MeanReward()).
			Float64("bust_rate", p.Stats.Rate(p.Stats.PlayerBusts)).
			Float64("episodes_per_sec", p.EpisodesPerSec).
			Msg("progress")
	}

	start := time.Now()
	if err := trainer.Run(ctx, progress); err != nil {
		return err
	}

	stats := trainer.Stats()
	log.Info().
		Str("run_id", trainer.RunID()).
		Int64("seed", trainer.Seed()).
		Int("workers", trainer.TrainingConfig().Workers).
		Dur("duration", time.Since(start)).
		Int("states", trainer.Table().Size()).
		Float64("win_rate", stats.Rate(stats.Wins)).
		Float64("mean_reward", stats.MeanReward()).
		Msg("training summary")

	if isFile {
		fileStore.Meta.Episodes = baseEpisodes + stats.Episodes
	}
	if err := st.Save(ctx, trainer.Table()); err != nil {
		return fmt.Errorf("save table: %w", err)
	}
	log.Info().Int("states", trainer.Table().Size()).Msg("table saved")
	return nil
}

// checkpointFunc saves intermediate tables. File snapshots record the episodes
// trained up to the checkpoint.
func checkpointFunc(st store.Store, baseEpisodes int64, trained func() int64) qlearn.CheckpointFunc {
	return func(ctx context.Context, t *qlearn.Table) error {
		if fs, ok := st.(*store.FileStore); ok {
			fs.Meta.Episodes = baseEpisodes + trained()
		}
		log.Info().Int("states", t.Size()).Msg("checkpoint")
		return st.Save(ctx, t)
	}
}
