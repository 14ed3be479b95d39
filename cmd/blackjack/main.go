package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lox/blackjackrl/internal/config"
	"github.com/lox/blackjackrl/internal/store"
	"github.com/lox/blackjackrl/sdk/qlearn"
)

type CLI struct {
	Debug    bool     `help:"enable debug logging"`
	JSONLogs bool     `name:"json-logs" help:"emit structured JSON logs instead of console output"`
	Config   string   `help:"path to an HCL config file" default:"blackjack.hcl" type:"path"`
	EnvFile  []string `name:"env-file" help:"dotenv files to load before reading the environment" default:".env"`

	Train  TrainCmd  `cmd:"" help:"train the agent by self-play and persist the table"`
	Eval   EvalCmd   `cmd:"" help:"evaluate the persisted table with greedy play"`
	Decide DecideCmd `cmd:"" help:"print the action for a single situation"`
	Serve  ServeCmd  `cmd:"" help:"serve decisions over HTTP and WebSocket"`
	Dump   DumpCmd   `cmd:"" help:"print the persisted table"`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("blackjack"),
		kong.Description("Tabular Q-learning for blackjack hit/stand decisions"),
		kong.UsageOnError(),
	)

	setupLogger(cli.Debug, cli.JSONLogs)

	if err := config.LoadEnv(cli.EnvFile...); err != nil {
		log.Fatal().Err(err).Msg("failed to load environment")
	}
	cfg, err := config.Load(cli.Config)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx := setupSignalHandler(log.Logger)
	kctx.BindTo(ctx, (*context.Context)(nil))
	kctx.Bind(cfg, &cli)
	if err := kctx.Run(); err != nil {
		log.Fatal().Err(err).Str("command", kctx.Command()).Msg("command failed")
	}
}

func setupLogger(debug, jsonLogs bool) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	if jsonLogs {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger().Level(level)
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level)
}

// setupSignalHandler returns a context cancelled on SIGINT or SIGTERM.
func setupSignalHandler(logger zerolog.Logger) context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info().Str("signal", sig.String()).Msg("Received signal, shutting down gracefully")
		cancel()
	}()

	return ctx
}

// openStore resolves the store location (flag over config) and opens it.
func openStore(ctx context.Context, flag string, cfg config.Config) (store.Store, error) {
	location := cfg.Store
	if flag != "" {
		location = flag
	}
	log.Debug().Str("store", location).Msg("opening store")
	return store.Open(ctx, location)
}

// loadTable opens the store and loads its table, degrading to an empty table
// when the contents cannot be read.
func loadTable(ctx context.Context, flag string, cfg config.Config) (store.Store, *qlearn.Table, error) {
	st, err := openStore(ctx, flag, cfg)
	if err != nil {
		return nil, nil, err
	}
	return st, store.LoadOrEmpty(ctx, st, log.Logger), nil
}
