// Package config loads run settings from an HCL file and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/joho/godotenv"

	"github.com/lox/blackjackrl/sdk/qlearn"
)

// Environment variables consulted after the HCL file.
const (
	EnvStore   = "BLACKJACK_STORE"
	EnvAddress = "BLACKJACK_ADDR"
)

// DefaultStore is used when nothing else names a store.
const DefaultStore = "blackjack_q.json"

// File mirrors the HCL layout. Every attribute is optional; absent values keep
// their defaults.
type File struct {
	Training *TrainingSettings `hcl:"training,block"`
	Store    *StoreSettings    `hcl:"store,block"`
	Server   *ServerSettings   `hcl:"server,block"`
}

// TrainingSettings configures self-play.
type TrainingSettings struct {
	Episodes        *int     `hcl:"episodes,optional"`
	Seed            *int64   `hcl:"seed,optional"`
	Workers         *int     `hcl:"workers,optional"`
	ProgressEvery   *int     `hcl:"progress_every,optional"`
	CheckpointEvery *string  `hcl:"checkpoint_every,optional"`
	Alpha           *float64 `hcl:"alpha,optional"`
	Gamma           *float64 `hcl:"gamma,optional"`
	Epsilon         *float64 `hcl:"epsilon,optional"`
}

// StoreSettings names the persistence backend.
type StoreSettings struct {
	Location string `hcl:"location"`
}

// ServerSettings configures the decision service.
type ServerSettings struct {
	Address string `hcl:"address,optional"`
}

// Config is the resolved configuration.
type Config struct {
	Training qlearn.TrainingConfig
	Store    string
	Address  string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Training: qlearn.DefaultTrainingConfig(),
		Store:    DefaultStore,
		Address:  ":8080",
	}
}

// LoadEnv reads .env style files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load env file %s: %w", f, err)
		}
	}
	return nil
}

// Load resolves defaults, then the HCL file at path (when it exists), then
// the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			file, err := parseFile(path)
			if err != nil {
				return Config{}, err
			}
			if err := file.apply(&cfg); err != nil {
				return Config{}, fmt.Errorf("%s: %w", path, err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("stat config: %w", err)
		}
	}

	if v := os.Getenv(EnvStore); v != "" {
		cfg.Store = v
	}
	if v := os.Getenv(EnvAddress); v != "" {
		cfg.Address = v
	}
	return cfg, nil
}

func parseFile(path string) (*File, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var file File
	diags = gohcl.DecodeBody(hclFile.Body, nil, &file)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}
	return &file, nil
}

func (f *File) apply(cfg *Config) error {
	if t := f.Training; t != nil {
		tc := &cfg.Training
		setIf(&tc.Episodes, t.Episodes)
		setIf(&tc.Seed, t.Seed)
		setIf(&tc.Workers, t.Workers)
		setIf(&tc.ProgressEvery, t.ProgressEvery)
		setIf(&tc.Hyper.Alpha, t.Alpha)
		setIf(&tc.Hyper.Gamma, t.Gamma)
		setIf(&tc.Hyper.Epsilon, t.Epsilon)
		if t.CheckpointEvery != nil {
			d, err := time.ParseDuration(*t.CheckpointEvery)
			if err != nil {
				return fmt.Errorf("training.checkpoint_every: %w", err)
			}
			tc.CheckpointEvery = d
		}
	}
	if f.Store != nil && f.Store.Location != "" {
		cfg.Store = f.Store.Location
	}
	if f.Server != nil && f.Server.Address != "" {
		cfg.Address = f.Server.Address
	}
	return nil
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
