package predictor

import (
	"github.com/matzehuels/stackadvisor/pkg/python"
	"github.com/matzehuels/stackadvisor/pkg/resolution"
	"github.com/matzehuels/stackadvisor/pkg/state"
)

// Combinations enumerates stacks exhaustively, depth first. Packages
// outside the declared set are resolved first (newest candidate first) so
// that the declared packages, resolved last, vary fastest. Combined with
// the resolver removing explored candidates from their parent state, this
// walks the cross product of the declared packages' candidates.
type Combinations struct {
	noHooks
	declared map[string]bool
	fixed    []string
}

var _ Predictor = (*Combinations)(nil)

// NewCombinations returns a Combinations predictor over the given package
// names. Without names the project's direct dependencies are used.
func NewCombinations(names ...string) *Combinations {
	p := &Combinations{fixed: sortedNames(names)}
	return p
}

// PreRun implements [Predictor].
func (p *Combinations) PreRun(c *resolution.Context) {
	p.declared = make(map[string]bool)
	names := p.fixed
	if len(names) == 0 && c.Project != nil {
		for _, r := range c.Project.DirectRequirements(false) {
			names = append(names, r.Name)
		}
	}
	for _, n := range names {
		p.declared[python.NormalizeName(n)] = true
	}
}

// Run implements [Predictor].
func (p *Combinations) Run(c *resolution.Context) (*state.State, python.PackageTuple, error) {
	s := c.Beam.Last()
	if s == nil {
		var err error
		if s, err = c.Beam.Max(); err != nil {
			return nil, python.PackageTuple{}, err
		}
	}

	names := s.UnresolvedNames()
	pick := ""
	for _, n := range names {
		if !p.declared[n] {
			pick = n
			break
		}
	}
	if pick == "" && len(names) > 0 {
		pick = names[0]
	}
	t, err := s.FirstUnresolvedDependency(pick)
	if err != nil {
		return nil, python.PackageTuple{}, selectionError(s, err)
	}
	return s, t, nil
}
