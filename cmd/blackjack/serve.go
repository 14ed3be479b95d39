package main

import (
	"context"
	"fmt"
	"os"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/rs/zerolog/log"

	"github.com/lox/blackjackrl/internal/config"
	"github.com/lox/blackjackrl/internal/randutil"
	"github.com/lox/blackjackrl/internal/server"
	"github.com/lox/blackjackrl/sdk/qlearn"
)

type DecideCmd struct {
	Store        string `help:"table location: file path (.json/.toml) or postgres:// URL"`
	PlayerTotal  int    `name:"player-total" help:"player's hand total" required:""`
	DealerUpCard int    `name:"dealer-up-card" help:"dealer's visible card value (2-11)" required:""`
	Soft         bool   `help:"player holds an ace counted as 11"`
}

func (cmd *DecideCmd) Run(ctx context.Context, cfg config.Config) error {
	req := server.DecideRequest{PlayerTotal: cmd.PlayerTotal, DealerUpCard: cmd.DealerUpCard, Soft: cmd.Soft}
	state, err := req.State()
	if err != nil {
		return err
	}

	st, table, err := loadTable(ctx, cmd.Store, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	if qlearn.ShouldTrain(table) {
		log.Warn().Msg("table is untrained, answering from zero estimates")
	}

	values := table.Peek(state)
	agent := qlearn.NewAgent(table, cfg.Training.Hyper, randutil.New(time.Now().UnixNano()))
	action := agent.Decide(state, false)
	fmt.Printf("%s: %s (stand=%.4f hit=%.4f)\n", state, action, values.Stand, values.Hit)
	return nil
}

type ServeCmd struct {
	Store string `help:"table location: file path (.json/.toml) or postgres:// URL"`
	Addr  string `help:"listen address (defaults to config)"`
}

func (cmd *ServeCmd) Run(ctx context.Context, cfg config.Config, cli *CLI) error {
	st, table, err := loadTable(ctx, cmd.Store, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	if qlearn.ShouldTrain(table) {
		log.Warn().Msg("serving an untrained table; every decision will be stand")
	}

	addr := cfg.Address
	if cmd.Addr != "" {
		addr = cmd.Addr
	}

	level := charmlog.InfoLevel
	if cli.Debug {
		level = charmlog.DebugLevel
	}
	logger := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		ReportTimestamp: true,
		Level:           level,
	})
	if cli.JSONLogs {
		logger.SetFormatter(charmlog.JSONFormatter)
	}

	agent := qlearn.NewAgent(table, cfg.Training.Hyper, randutil.New(time.Now().UnixNano()))
	return server.New(agent, logger).ListenAndServe(ctx, addr)
}
