package qlearn

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig wraps every configuration validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Hyperparameters control the learning rule and exploration rate.
type Hyperparameters struct {
	// Alpha is the learning rate applied to each Bellman update.
	Alpha float64
	// Gamma discounts the successor value.
	Gamma float64
	// Epsilon is the probability of a uniformly random action while training.
	Epsilon float64
}

// DefaultHyperparameters returns alpha 0.1, gamma 0.9 and epsilon 0.2.
func DefaultHyperparameters() Hyperparameters {
	return Hyperparameters{
		Alpha:   0.1,
		Gamma:   0.9,
		Epsilon: 0.2,
	}
}

// Validate ensures the hyperparameters are in range.
func (h Hyperparameters) Validate() error {
	if h.Alpha <= 0 || h.Alpha > 1 {
		return fmt.Errorf("%w: alpha must be in (0, 1], got %v", ErrInvalidConfig, h.Alpha)
	}
	if h.Gamma < 0 || h.Gamma > 1 {
		return fmt.Errorf("%w: gamma must be in [0, 1], got %v", ErrInvalidConfig, h.Gamma)
	}
	if h.Epsilon < 0 || h.Epsilon > 1 {
		return fmt.Errorf("%w: epsilon must be in [0, 1], got %v", ErrInvalidConfig, h.Epsilon)
	}
	return nil
}

// TrainingConfig aggregates parameters that control a self-play run.
type TrainingConfig struct {
	Episodes int
	// Seed drives card shuffling and exploration. Zero uses a time seed.
	Seed int64
	// Workers > 1 plays episodes concurrently on per-worker table copies that
	// are averaged together after every batch.
	Workers int
	// ProgressEvery is the batch size between progress reports; zero means
	// Episodes/100.
	ProgressEvery int
	// CheckpointEvery is the minimum wall time between checkpoint callbacks.
	// Zero disables checkpoints.
	CheckpointEvery time.Duration
	Hyper           Hyperparameters
}

// DefaultTrainingConfig returns the production configuration: 250,000
// sequential episodes with the default hyperparameters.
func DefaultTrainingConfig() TrainingConfig {
	return TrainingConfig{
		Episodes: 250_000,
		Seed:     0,
		Workers:  1,
		Hyper:    DefaultHyperparameters(),
	}
}

// Validate ensures the training parameters are safe to use.
func (c TrainingConfig) Validate() error {
	if c.Episodes <= 0 {
		return fmt.Errorf("%w: episodes must be > 0", ErrInvalidConfig)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("%w: workers must be > 0", ErrInvalidConfig)
	}
	if c.ProgressEvery < 0 {
		return fmt.Errorf("%w: progress interval cannot be negative", ErrInvalidConfig)
	}
	if c.CheckpointEvery < 0 {
		return fmt.Errorf("%w: checkpoint interval cannot be negative", ErrInvalidConfig)
	}
	return c.Hyper.Validate()
}

func (c TrainingConfig) batchSize() int {
	if c.ProgressEvery > 0 {
		return c.ProgressEvery
	}
	return max(c.Episodes/100, 1)
}
