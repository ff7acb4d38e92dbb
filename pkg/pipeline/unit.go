package pipeline

import (
	"context"
	"errors"

	"github.com/matzehuels/stackadvisor/pkg/python"
	"github.com/matzehuels/stackadvisor/pkg/resolution"
	"github.com/matzehuels/stackadvisor/pkg/state"
)

// Score bounds a step should keep its per-candidate score within. The
// resolver does not enforce them.
const (
	ScoreMin = -1.0
	ScoreMax = 1.0
)

// Outcomes a unit reports through its error return.
var (
	// ErrNotAcceptable rejects the candidate (steps) or the final state
	// (strides). The branch is discarded, the run continues.
	ErrNotAcceptable = errors.New("not acceptable")

	// ErrSkipPackage drops the package from the resolution altogether.
	ErrSkipPackage = errors.New("skip package")

	// ErrCannotRemovePackage signals that a unit would have to remove the
	// last candidate of a package. It discards the branch in steps and
	// aborts the run in sieves.
	ErrCannotRemovePackage = errors.New("cannot remove package")
)

// Kind is the role of a unit in the pipeline.
type Kind string

const (
	KindSieve  Kind = "sieve"
	KindStep   Kind = "step"
	KindStride Kind = "stride"
	KindWrap   Kind = "wrap"
)

// Kinds lists unit kinds in the order they are configured.
var Kinds = []Kind{KindSieve, KindStep, KindStride, KindWrap}

// Unit is what every pipeline unit implements.
type Unit interface {
	Name() string
	Kind() Kind
	Configuration() Configuration

	// PreRun is called once before the resolver starts, PostRun once after
	// it finished, in pipeline order.
	PreRun(c *resolution.Context) error
	PostRun(c *resolution.Context)
}

// StepResult is the score change and justification a step attaches to a
// candidate. A nil result leaves the state unchanged.
type StepResult struct {
	Score         float64
	Justification []state.Justification
}

// Step scores or rejects a candidate tuple about to be resolved in s.
// s must not be modified.
type Step interface {
	Unit
	// MultiPackageResolution reports whether the step must be evaluated on
	// every expansion. When false the resolver evaluates it once per
	// tuple and reuses the outcome.
	MultiPackageResolution() bool
	Run(c *resolution.Context, s *state.State, candidate python.PackageTuple) (*StepResult, error)
}

// Stride inspects a final state. It may adjust the score and add
// justification, or reject the state with [ErrNotAcceptable].
type Stride interface {
	Unit
	Run(ctx context.Context, c *resolution.Context, s *state.State) error
}

// Wrap annotates an accepted final state.
type Wrap interface {
	Unit
	Run(c *resolution.Context, s *state.State)
}

// Sieve filters the candidates of one direct dependency before the search
// starts. Candidates share a name and are ordered newest first; the order
// of kept candidates must be preserved.
type Sieve interface {
	Unit
	Run(c *resolution.Context, candidates []python.PackageTuple) ([]python.PackageTuple, error)
}
