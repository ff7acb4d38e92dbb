// Package resolution holds the run-scoped context shared by the resolver,
// its predictor and every pipeline unit.
//
// A [Context] is created once per resolver run and is owned by the resolver
// goroutine: it is not safe for concurrent use. Knowledge base answers are
// memoized in it, so units may query freely without repeating network or
// database round trips within a run.
package resolution

import (
	"context"
	"io"
	"math/rand/v2"
	"slices"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackadvisor/pkg/beam"
	"github.com/matzehuels/stackadvisor/pkg/errors"
	"github.com/matzehuels/stackadvisor/pkg/knowledge"
	"github.com/matzehuels/stackadvisor/pkg/python"
	"github.com/matzehuels/stackadvisor/pkg/state"
)

// RecommendationType selects which units a pipeline is assembled from.
type RecommendationType string

const (
	RecommendationLatest      RecommendationType = "latest"
	RecommendationStable      RecommendationType = "stable"
	RecommendationSecurity    RecommendationType = "security"
	RecommendationPerformance RecommendationType = "performance"
	RecommendationTesting     RecommendationType = "testing"
)

// RecommendationTypes lists the valid recommendation types.
var RecommendationTypes = []RecommendationType{
	RecommendationLatest,
	RecommendationStable,
	RecommendationSecurity,
	RecommendationPerformance,
	RecommendationTesting,
}

// ParseRecommendationType validates s. The empty string means stable.
func ParseRecommendationType(s string) (RecommendationType, error) {
	if s == "" {
		return RecommendationStable, nil
	}
	t := RecommendationType(s)
	if !slices.Contains(RecommendationTypes, t) {
		return "", errors.New(errors.ErrCodeInvalidInput, "invalid recommendation type %q (must be one of: latest, stable, security, performance, testing)", s)
	}
	return t, nil
}

// Context is the state of one resolver run.
type Context struct {
	KB                 knowledge.KnowledgeBase
	Project            *python.Project
	Beam               *beam.Beam
	RNG                *rand.Rand
	Logger             *log.Logger
	RecommendationType RecommendationType

	// Iteration counts expansions performed so far.
	Iteration int
	// AcceptedFinalStates counts final states accepted by every stride.
	AcceptedFinalStates int
	// DiscardedStates counts states dropped by units or consistency checks.
	DiscardedStates int
	// Limit is the number of accepted final states after which the run stops.
	Limit int
	// Count is the number of products reported.
	Count int

	// StackInfo collects run level messages reported with the result.
	StackInfo []state.Justification

	ctx        context.Context
	env        python.RuntimeEnvironment
	versions   map[string][]python.PackageTuple
	deps       map[python.PackageTuple][]python.Requirement
	dependents map[string]map[python.PackageTuple]struct{}
	infoSeen   map[string]bool
}

// New returns a Context for a run over project. The beam and RNG must be
// set by the caller before the run starts.
func New(ctx context.Context, kb knowledge.KnowledgeBase, project *python.Project) *Context {
	env := project.RuntimeEnvironment
	env.PythonVersion = project.EffectivePythonVersion()
	return &Context{
		KB:                 kb,
		Project:            project,
		Logger:             log.NewWithOptions(io.Discard, log.Options{}),
		RecommendationType: RecommendationStable,
		ctx:                ctx,
		env:                env,
		versions:           make(map[string][]python.PackageTuple),
		deps:               make(map[python.PackageTuple][]python.Requirement),
		dependents:         make(map[string]map[python.PackageTuple]struct{}),
		infoSeen:           make(map[string]bool),
	}
}

// Ctx returns the run's context.Context. Units pass it to blocking calls.
func (c *Context) Ctx() context.Context { return c.ctx }

// SetCtx replaces the run's context.Context.
func (c *Context) SetCtx(ctx context.Context) { c.ctx = ctx }

// Environment returns the runtime environment the stack is resolved for,
// with the effective Python version filled in.
func (c *Context) Environment() python.RuntimeEnvironment { return c.env }

// PackageVersions returns the releases of name known to the knowledge base,
// newest first. Answers are memoized for the run.
func (c *Context) PackageVersions(name string) ([]python.PackageTuple, error) {
	name = python.NormalizeName(name)
	if v, ok := c.versions[name]; ok {
		return v, nil
	}
	v, err := c.KB.GetPackageVersions(c.ctx, name, c.env)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeKnowledgeBase, err, "versions of %s", name)
	}
	c.versions[name] = v
	return v, nil
}

// Dependencies returns the requirements of t. Answers are memoized for the
// run.
func (c *Context) Dependencies(t python.PackageTuple) ([]python.Requirement, error) {
	if d, ok := c.deps[t]; ok {
		return d, nil
	}
	d, err := c.KB.GetDependencies(c.ctx, t, c.env)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeKnowledgeBase, err, "requirements of %s", t)
	}
	c.deps[t] = d
	return d, nil
}

// RegisterDependent records that dependent requires a package called name.
func (c *Context) RegisterDependent(name string, dependent python.PackageTuple) {
	name = python.NormalizeName(name)
	set, ok := c.dependents[name]
	if !ok {
		set = make(map[python.PackageTuple]struct{})
		c.dependents[name] = set
	}
	set[dependent] = struct{}{}
}

// Dependents returns every tuple seen requiring a package called name,
// sorted.
func (c *Context) Dependents(name string) []python.PackageTuple {
	set := c.dependents[python.NormalizeName(name)]
	out := make([]python.PackageTuple, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// AddStackInfo appends a run level message.
func (c *Context) AddStackInfo(j state.Justification) {
	c.StackInfo = append(c.StackInfo, j)
}

// AddStackInfoOnce appends j unless a message with the same key was added
// before.
func (c *Context) AddStackInfoOnce(key string, j state.Justification) {
	if c.infoSeen[key] {
		return
	}
	c.infoSeen[key] = true
	c.AddStackInfo(j)
}
