package units

import (
	"fmt"

	"github.com/matzehuels/stackadvisor/pkg/pipeline"
	"github.com/matzehuels/stackadvisor/pkg/python"
	"github.com/matzehuels/stackadvisor/pkg/resolution"
	"github.com/matzehuels/stackadvisor/pkg/state"
)

// BuildError removes candidates known to fail to build.
var BuildError = &pipeline.Descriptor{
	Name:          "build_error",
	Kind:          pipeline.KindStep,
	Defaults:      pipeline.Configuration{},
	New:           func(b pipeline.Base) (pipeline.Unit, error) { return &BuildErrorStep{Base: b}, nil },
	ShouldInclude: always,
}

// BuildErrorStep rejects candidates with a build error recorded for the
// run's environment.
type BuildErrorStep struct {
	pipeline.Base
}

// Run implements [pipeline.Step].
func (s *BuildErrorStep) Run(c *resolution.Context, _ *state.State, t python.PackageTuple) (*pipeline.StepResult, error) {
	broken, err := c.KB.HasBuildError(c.Ctx(), t, c.Environment())
	if err != nil {
		return nil, err
	}
	if !broken {
		return nil, nil
	}

	j := state.Warning(fmt.Sprintf("Removing %s==%s: it fails to build in the target environment", t.Name, t.Version))
	j.Package = t.Name
	j.Version = t.Version
	j.Index = t.Index
	c.AddStackInfoOnce("build_error:"+t.String(), j)
	return nil, fmt.Errorf("%w: %s has a build error", pipeline.ErrNotAcceptable, t)
}
