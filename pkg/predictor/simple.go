package predictor

import (
	"github.com/matzehuels/stackadvisor/pkg/python"
	"github.com/matzehuels/stackadvisor/pkg/resolution"
	"github.com/matzehuels/stackadvisor/pkg/state"
)

// RandomWalk expands a random state with a random candidate of a random
// unresolved package.
type RandomWalk struct{ noHooks }

var _ Predictor = (*RandomWalk)(nil)

// NewRandomWalk returns a RandomWalk predictor.
func NewRandomWalk() *RandomWalk { return &RandomWalk{} }

// Run implements [Predictor].
func (p *RandomWalk) Run(c *resolution.Context) (*state.State, python.PackageTuple, error) {
	s, err := c.Beam.Random(c.RNG)
	if err != nil {
		return nil, python.PackageTuple{}, err
	}
	t, err := s.RandomUnresolvedDependency(c.RNG, "", false)
	if err != nil {
		return nil, python.PackageTuple{}, selectionError(s, err)
	}
	return s, t, nil
}

// HillClimbing always expands the best state with the newest candidate of
// its first unresolved package.
type HillClimbing struct{ noHooks }

var _ Predictor = (*HillClimbing)(nil)

// NewHillClimbing returns a HillClimbing predictor.
func NewHillClimbing() *HillClimbing { return &HillClimbing{} }

// Run implements [Predictor].
func (p *HillClimbing) Run(c *resolution.Context) (*state.State, python.PackageTuple, error) {
	s, err := c.Beam.Max()
	if err != nil {
		return nil, python.PackageTuple{}, err
	}
	t, err := s.FirstUnresolvedDependency()
	if err != nil {
		return nil, python.PackageTuple{}, selectionError(s, err)
	}
	return s, t, nil
}
