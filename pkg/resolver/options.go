package resolver

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackadvisor/pkg/errors"
	"github.com/matzehuels/stackadvisor/pkg/resolution"
)

// Default option values.
const (
	DefaultBeamWidth = 10000
	DefaultLimit     = 10000
	DefaultCount     = 3
	DefaultSeed      = 42
)

// Options configures a resolver run. Zero values select the defaults.
type Options struct {
	// BeamWidth bounds the number of live states.
	BeamWidth int `json:"beam_width,omitempty"`
	// Limit stops the run after this many accepted final states.
	Limit int `json:"limit,omitempty"`
	// Count is the number of products reported.
	Count int `json:"count,omitempty"`
	// MaxIterations bounds expansions; 0 means unbounded.
	MaxIterations int `json:"max_iterations,omitempty"`
	// TimeLimit bounds the run's wall clock time; 0 means none.
	TimeLimit time.Duration `json:"time_limit,omitempty"`
	// MemoryLimit bounds the Go heap in bytes; 0 means none.
	MemoryLimit uint64 `json:"memory_limit,omitempty"`
	// Seed makes runs reproducible.
	Seed uint64 `json:"seed,omitempty"`
	// Dev includes the project's dev requirements.
	Dev bool `json:"dev,omitempty"`

	RecommendationType resolution.RecommendationType `json:"recommendation_type,omitempty"`

	Logger *log.Logger `json:"-"`
}

// WithDefaults returns a copy of o with zero fields set to their defaults.
func (o Options) WithDefaults() Options {
	if o.BeamWidth == 0 {
		o.BeamWidth = DefaultBeamWidth
	}
	if o.Limit == 0 {
		o.Limit = DefaultLimit
	}
	if o.Count == 0 {
		o.Count = DefaultCount
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.RecommendationType == "" {
		o.RecommendationType = resolution.RecommendationStable
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return o
}

// Validate rejects options no run can honor.
func (o Options) Validate() error {
	if o.BeamWidth < 1 {
		return errors.New(errors.ErrCodeInvalidWidth, "beam width must be at least 1, got %d", o.BeamWidth)
	}
	if o.Limit < 1 {
		return errors.New(errors.ErrCodeInvalidBudget, "limit must be at least 1, got %d", o.Limit)
	}
	if o.Count < 1 {
		return errors.New(errors.ErrCodeInvalidBudget, "count must be at least 1, got %d", o.Count)
	}
	if o.MaxIterations < 0 {
		return errors.New(errors.ErrCodeInvalidBudget, "max iterations must not be negative, got %d", o.MaxIterations)
	}
	if o.TimeLimit < 0 {
		return errors.New(errors.ErrCodeInvalidBudget, "time limit must not be negative, got %s", o.TimeLimit)
	}
	if _, err := resolution.ParseRecommendationType(string(o.RecommendationType)); err != nil {
		return err
	}
	return nil
}
