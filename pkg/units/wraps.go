package units

import (
	"fmt"
	"strconv"

	"github.com/matzehuels/stackadvisor/pkg/pipeline"
	"github.com/matzehuels/stackadvisor/pkg/resolution"
	"github.com/matzehuels/stackadvisor/pkg/state"
)

// Info annotates every accepted stack with a summary record.
var Info = &pipeline.Descriptor{
	Name:          "info",
	Kind:          pipeline.KindWrap,
	Defaults:      pipeline.Configuration{},
	New:           func(b pipeline.Base) (pipeline.Unit, error) { return &InfoWrap{Base: b}, nil },
	ShouldInclude: always,
}

// InfoWrap adds an INFO record describing how the stack was found.
type InfoWrap struct {
	pipeline.Base
}

// Run implements [pipeline.Wrap].
func (w *InfoWrap) Run(c *resolution.Context, s *state.State) {
	j := state.Info(fmt.Sprintf("Stack of %d packages found in iteration %d with score %.3f",
		s.ResolvedCount(), s.Iteration, s.Score))
	j.Details = map[string]string{
		"recommendation_type": string(c.RecommendationType),
		"accepted":            strconv.Itoa(c.AcceptedFinalStates),
	}
	s.AddJustification(j)
}
