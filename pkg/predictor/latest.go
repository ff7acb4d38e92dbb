package predictor

import (
	"math"

	"github.com/matzehuels/stackadvisor/pkg/python"
	"github.com/matzehuels/stackadvisor/pkg/resolution"
	"github.com/matzehuels/stackadvisor/pkg/state"
)

// Latest resolves depth first from the most recently added state, taking
// the newest candidate of the first unresolved package. After a rejected
// expansion it "hops": the next dependency is drawn at random, preferring
// recent versions, until an expansion succeeds again.
type Latest struct {
	hop bool
}

var _ Predictor = (*Latest)(nil)

// NewLatest returns a Latest predictor.
func NewLatest() *Latest { return &Latest{} }

// PreRun implements [Predictor].
func (p *Latest) PreRun(*resolution.Context) { p.hop = false }

// Run implements [Predictor].
func (p *Latest) Run(c *resolution.Context) (*state.State, python.PackageTuple, error) {
	s := c.Beam.Last()
	if s == nil {
		var err error
		if s, err = c.Beam.Random(c.RNG); err != nil {
			return nil, python.PackageTuple{}, err
		}
	}

	var (
		t   python.PackageTuple
		err error
	)
	if p.hop {
		t, err = s.RandomUnresolvedDependency(c.RNG, "", true)
	} else {
		t, err = s.FirstUnresolvedDependency()
	}
	if err != nil {
		return nil, python.PackageTuple{}, selectionError(s, err)
	}
	return s, t, nil
}

// SetRewardSignal implements [Predictor].
func (p *Latest) SetRewardSignal(_ *resolution.Context, _ *state.State, _ python.PackageTuple, reward float64) {
	p.hop = math.IsNaN(reward)
}

// PostRun implements [Predictor].
func (p *Latest) PostRun(*resolution.Context) {}
