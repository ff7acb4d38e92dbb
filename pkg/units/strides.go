package units

import (
	"context"
	"fmt"
	"math"

	"github.com/matzehuels/stackadvisor/pkg/pipeline"
	"github.com/matzehuels/stackadvisor/pkg/resolution"
	"github.com/matzehuels/stackadvisor/pkg/state"
)

// Performance scores final states with the knowledge base's performance
// observations.
var Performance = &pipeline.Descriptor{
	Name:          "performance",
	Kind:          pipeline.KindStride,
	Defaults:      pipeline.Configuration{"weight": 1.0},
	New:           newPerformanceStride,
	ShouldInclude: only(resolution.RecommendationPerformance),
}

// PerformanceStride adds weight × average performance to a final state's
// score. When nothing is known a warning is reported once per run.
type PerformanceStride struct {
	pipeline.Base
	weight float64
	warned bool
}

func newPerformanceStride(b pipeline.Base) (pipeline.Unit, error) {
	weight, err := b.Config().Float("weight")
	if err != nil {
		return nil, err
	}
	return &PerformanceStride{Base: b, weight: weight}, nil
}

// PreRun implements [pipeline.Unit].
func (s *PerformanceStride) PreRun(*resolution.Context) error {
	s.warned = false
	return nil
}

// Run implements [pipeline.Stride].
func (s *PerformanceStride) Run(ctx context.Context, c *resolution.Context, st *state.State) error {
	avg, err := c.KB.ComputeAveragePerformance(ctx, st.ResolvedDependencies(), c.Environment())
	if err != nil {
		return err
	}
	if math.IsNaN(avg) {
		if !s.warned {
			s.warned = true
			c.AddStackInfo(state.Warning("No performance data available for the resolved stacks in the target environment"))
		}
		return nil
	}

	st.Score += s.weight * avg
	st.AddJustification(state.Info(fmt.Sprintf("Average performance indicator of the stack is %.3f", avg)))
	return nil
}

// ScoreFilter rejects final states scoring below a threshold.
var ScoreFilter = &pipeline.Descriptor{
	Name:          "score_filter",
	Kind:          pipeline.KindStride,
	Defaults:      pipeline.Configuration{"score_threshold": 0.0},
	New:           newScoreFilterStride,
	ShouldInclude: only(resolution.RecommendationSecurity),
}

// ScoreFilterStride rejects final states whose score is below the
// configured threshold.
type ScoreFilterStride struct {
	pipeline.Base
	threshold float64
}

func newScoreFilterStride(b pipeline.Base) (pipeline.Unit, error) {
	threshold, err := b.Config().Float("score_threshold")
	if err != nil {
		return nil, err
	}
	return &ScoreFilterStride{Base: b, threshold: threshold}, nil
}

// Run implements [pipeline.Stride].
func (s *ScoreFilterStride) Run(_ context.Context, _ *resolution.Context, st *state.State) error {
	if st.Score < s.threshold {
		return fmt.Errorf("%w: score %.3f below %.3f", pipeline.ErrNotAcceptable, st.Score, s.threshold)
	}
	return nil
}
