package engine

import (
	"errors"
	"fmt"
	"time"

	score "github.com/donaldgifford/deal-finder/pkg/scorer"
)

// Settings holds the pipeline tunables.
type Settings struct {
	// MaxPages bounds the pages fetched per search query.
	MaxPages int
	// BatchSize bounds the listings sent in one classification call.
	BatchSize int
	Weights   score.Weights
	// Concurrency bounds the in-flight scoring calls.
	Concurrency int
	Markdown    bool
	DebugScores bool
	// MaxListings caps the listings shown in the summary.
	MaxListings int
	// RunTimeout bounds a whole run. Zero means no bound beyond the
	// caller's context.
	RunTimeout time.Duration
}

// DefaultSettings returns the default pipeline settings.
func DefaultSettings() Settings {
	return Settings{
		MaxPages:    20,
		BatchSize:   20,
		Weights:     score.DefaultWeights(),
		Concurrency: 4,
		Markdown:    true,
		MaxListings: 20,
	}
}

// Validate reports every out-of-range tunable as a *ConfigurationError.
func (s *Settings) Validate() error {
	var errs []error
	if s.MaxPages < 1 {
		errs = append(errs, fmt.Errorf("max pages must be >= 1, got %d", s.MaxPages))
	}
	if s.BatchSize < 1 {
		errs = append(errs, fmt.Errorf("listings batch size must be >= 1, got %d", s.BatchSize))
	}
	if s.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("scoring concurrency must be >= 1, got %d", s.Concurrency))
	}
	if s.MaxListings < 1 {
		errs = append(errs, fmt.Errorf("summary max listings must be >= 1, got %d", s.MaxListings))
	}
	if s.RunTimeout < 0 {
		errs = append(errs, fmt.Errorf("run timeout must be >= 0, got %s", s.RunTimeout))
	}
	if err := s.Weights.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return &ConfigurationError{Err: errors.Join(errs...)}
	}
	return nil
}
