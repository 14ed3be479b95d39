package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lox/blackjackrl/internal/config"
	"github.com/lox/blackjackrl/internal/evaluation"
	"github.com/lox/blackjackrl/sdk/qlearn"
)

var errUntrained = errors.New("table is untrained")

type EvalCmd struct {
	Store   string `help:"table location: file path (.json/.toml) or postgres:// URL"`
	Hands   int    `help:"number of hands to play" default:"100000"`
	Seed    int64  `help:"random seed; 0 uses time seed" default:"0"`
	Workers int    `help:"concurrent workers" default:"1"`
}

func (cmd *EvalCmd) Run(ctx context.Context, cfg config.Config) error {
	if cmd.Hands <= 0 {
		return fmt.Errorf("hands must be positive (got %d)", cmd.Hands)
	}
	st, table, err := loadTable(ctx, cmd.Store, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	if qlearn.ShouldTrain(table) {
		return errUntrained
	}

	seed := cmd.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	evalCfg := qlearn.EvalConfig{Hands: cmd.Hands, Seed: seed, Workers: cmd.Workers}

	start := time.Now()
	res, err := qlearn.Evaluate(ctx, table, evalCfg)
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}
	// An empty table stands everywhere; the same seed deals it the same cards.
	baseline, err := qlearn.Evaluate(ctx, qlearn.NewTable(), evalCfg)
	if err != nil {
		return fmt.Errorf("evaluate baseline: %w", err)
	}

	learned := evaluation.SummarizeResult(res)
	always := evaluation.SummarizeResult(baseline)
	cmp := evaluation.Compare(learned, always)

	log.Info().
		Int("hands", learned.Hands).
		Int64("seed", seed).
		Dur("duration", time.Since(start)).
		Msg("evaluation complete")
	log.Info().
		Float64("win_rate", res.Stats.Rate(res.Stats.Wins)).
		Float64("loss_rate", res.Stats.Rate(res.Stats.Losses)).
		Float64("push_rate", res.Stats.Rate(res.Stats.Pushes)).
		Float64("bust_rate", res.Stats.Rate(res.Stats.PlayerBusts)).
		Int64("blackjacks", res.Stats.Blackjacks).
		Msg("outcomes")
	log.Info().
		Float64("mean", learned.Mean).
		Float64("std_dev", learned.StdDev).
		Float64("ci95_low", learned.CI95Low).
		Float64("ci95_high", learned.CI95High).
		Msg("learned policy reward")
	log.Info().
		Float64("mean", always.Mean).
		Float64("ci95_low", always.CI95Low).
		Float64("ci95_high", always.CI95High).
		Msg("always-stand reward")
	log.Info().
		Float64("difference", cmp.Difference).
		Float64("p_value", cmp.PValue).
		Str("significance", evaluation.InterpretPValue(cmp.PValue, 0.05)).
		Float64("effect_size", cmp.EffectSize).
		Str("effect", evaluation.InterpretEffectSize(cmp.EffectSize)).
		Msg("learned vs always-stand")
	return nil
}
