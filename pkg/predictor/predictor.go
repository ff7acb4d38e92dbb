// Package predictor decides which state the resolver expands next and
// which unresolved dependency of it is resolved.
//
// Predictors only select: they never add or remove beam states. After each
// expansion the resolver reports a reward through SetRewardSignal:
//
//   - NaN: the expansion was rejected by a unit or was inconsistent.
//   - +Inf: the expansion produced an accepted final state.
//   - otherwise: the score change of the expanded state.
package predictor

import (
	"fmt"
	"slices"

	"github.com/matzehuels/stackadvisor/pkg/errors"
	"github.com/matzehuels/stackadvisor/pkg/python"
	"github.com/matzehuels/stackadvisor/pkg/resolution"
	"github.com/matzehuels/stackadvisor/pkg/state"
)

// Predictor selects the next (state, tuple) pair to expand.
type Predictor interface {
	// PreRun resets per-run state.
	PreRun(c *resolution.Context)

	// Run selects a live beam state and one of its unresolved tuples. It
	// returns beam.ErrEmptyBeam when nothing is left to expand.
	Run(c *resolution.Context) (*state.State, python.PackageTuple, error)

	// SetRewardSignal reports the outcome of expanding t in s.
	SetRewardSignal(c *resolution.Context, s *state.State, t python.PackageTuple, reward float64)

	// PostRun is called once after the resolver finished.
	PostRun(c *resolution.Context)
}

// Predictor names accepted by [New].
const (
	NameLatest       = "latest"
	NameCombinations = "combinations"
	NameRandomWalk   = "random_walk"
	NameHillClimbing = "hill_climbing"
)

// Names lists the available predictors.
var Names = []string{NameLatest, NameCombinations, NameRandomWalk, NameHillClimbing}

// New returns the predictor called name. The empty name selects Latest.
func New(name string) (Predictor, error) {
	switch name {
	case "", NameLatest:
		return NewLatest(), nil
	case NameCombinations:
		return NewCombinations(), nil
	case NameRandomWalk:
		return NewRandomWalk(), nil
	case NameHillClimbing:
		return NewHillClimbing(), nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown predictor %q (must be one of: %v)", name, Names)
	}
}

// noHooks implements the optional parts of [Predictor].
type noHooks struct{}

func (noHooks) PreRun(*resolution.Context)                                                   {}
func (noHooks) SetRewardSignal(*resolution.Context, *state.State, python.PackageTuple, float64) {}
func (noHooks) PostRun(*resolution.Context)                                                  {}

func selectionError(s *state.State, err error) error {
	return fmt.Errorf("select dependency of %s: %w", s, err)
}

// sortedNames returns a copy of names in ascending order.
func sortedNames(names []string) []string {
	out := slices.Clone(names)
	slices.Sort(out)
	return out
}
