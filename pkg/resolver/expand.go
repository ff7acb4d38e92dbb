package resolver

import (
	stderrors "errors"
	"fmt"
	"math"
	"slices"

	"github.com/matzehuels/stackadvisor/pkg/errors"
	"github.com/matzehuels/stackadvisor/pkg/pipeline"
	"github.com/matzehuels/stackadvisor/pkg/python"
	"github.com/matzehuels/stackadvisor/pkg/state"
	"github.com/matzehuels/stackadvisor/pkg/version"
)

// errBranch marks failures that only discard the state being built.
var errBranch = stderrors.New("branch discarded")

// initialState resolves candidates for every direct requirement and runs
// the sieves over them.
func (rn *run) initialState(direct []python.Requirement) (*state.State, error) {
	if len(direct) == 0 {
		return nil, errors.New(errors.ErrCodeNoDependencies, "project declares no direct dependencies")
	}

	deps := make(map[string][]python.PackageTuple, len(direct))
	for _, req := range direct {
		versions, err := rn.c.PackageVersions(req.Name)
		if err != nil {
			return nil, err
		}
		if len(versions) == 0 {
			return nil, errors.New(errors.ErrCodeNoDependencies, "no versions of direct dependency %s are known", req.Name)
		}
		candidates, err := rn.matching(req, versions)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPackage, err, "direct dependency %s", req)
		}
		if len(candidates) == 0 {
			return nil, errors.New(errors.ErrCodeNoDependencies, "no version of direct dependency %s matches %q on the project's indexes", req.Name, req.Specifier)
		}
		candidates, err = rn.sieve(candidates)
		if err != nil {
			if stderrors.Is(err, pipeline.ErrCannotRemovePackage) {
				return nil, errors.Wrap(errors.ErrCodeNoDependencies, err, "direct dependency %s", req.Name)
			}
			return nil, err
		}
		if len(candidates) == 0 {
			return nil, errors.Wrap(errors.ErrCodeNoDependencies, pipeline.ErrCannotRemovePackage,
				"sieves removed every candidate of direct dependency %s", req.Name)
		}
		deps[req.Name] = append(deps[req.Name], candidates...)
		rn.logger.Debug("direct dependency", "name", req.Name, "specifier", req.Specifier, "candidates", len(candidates))
	}
	return state.FromDirectDependencies(deps), nil
}

// matching filters versions (newest first) by req's specifier and by the
// indexes req may be installed from. Prereleases are only considered when
// the project allows them or nothing else matches.
func (rn *run) matching(req python.Requirement, versions []python.PackageTuple) ([]python.PackageTuple, error) {
	spec, err := version.ParseSpecifier(req.Specifier)
	if err != nil {
		return nil, err
	}
	indexes := rn.c.Project.IndexURLs()
	if req.Index != "" {
		indexes = []string{req.Index}
	}

	filter := func(allowPre bool) []python.PackageTuple {
		var out []python.PackageTuple
		for _, t := range versions {
			if len(indexes) > 0 && !slices.Contains(indexes, t.Index) {
				continue
			}
			if spec.Contains(t.Version, allowPre) {
				out = append(out, t)
			}
		}
		return out
	}

	out := filter(rn.c.Project.AllowPrereleases)
	if len(out) == 0 && !rn.c.Project.AllowPrereleases {
		out = filter(true)
	}
	return out, nil
}

// sieve runs every sieve in order over the candidates of one package.
func (rn *run) sieve(candidates []python.PackageTuple) ([]python.PackageTuple, error) {
	var err error
	for _, s := range rn.pipeline.Sieves {
		if candidates, err = s.Run(rn.c, candidates); err != nil {
			if stderrors.Is(err, pipeline.ErrCannotRemovePackage) {
				return nil, err
			}
			return nil, errors.Wrap(errors.ErrCodeKnowledgeBase, err, "sieve %s", s.Name())
		}
		if len(candidates) == 0 {
			break
		}
	}
	return candidates, nil
}

type verdict int

const (
	verdictAccept verdict = iota
	verdictReject
	verdictSkip
	verdictBranch
)

// branchFatal reports whether a unit error only discards the branch.
func branchFatal(err error) bool {
	return stderrors.Is(err, pipeline.ErrCannotRemovePackage) || stderrors.Is(err, state.ErrStateConsistency)
}

// expand resolves t in a clone of parent and returns the reward for the
// predictor. Errors are run-fatal.
func (rn *run) expand(parent *state.State, t python.PackageTuple) (float64, error) {
	c := rn.c
	child := parent.Clone()
	c.Iteration++
	child.Iteration = c.Iteration

	v, unit, err := rn.runSteps(child, t)
	if err != nil {
		return 0, err
	}
	switch v {
	case verdictSkip:
		rn.discard(child, unit, "skip")
		return math.NaN(), rn.skip(parent, t, unit)
	case verdictReject:
		rn.discard(child, unit, "not_acceptable")
		rn.consume(parent, t)
		return math.NaN(), nil
	case verdictBranch:
		rn.discard(child, unit, "consistency")
		rn.consume(parent, t)
		return math.NaN(), nil
	}
	rn.consume(parent, t)
	return rn.grow(parent, child, t)
}

// runSteps scores t into child. On rejection, skip or a branch-fatal error
// it returns the name of the deciding step.
func (rn *run) runSteps(child *state.State, t python.PackageTuple) (verdict, string, error) {
	for i, step := range rn.pipeline.Steps {
		res, err := rn.runStep(i, step, child, t)
		switch {
		case err == nil:
		case stderrors.Is(err, pipeline.ErrNotAcceptable):
			return verdictReject, step.Name(), nil
		case stderrors.Is(err, pipeline.ErrSkipPackage):
			return verdictSkip, step.Name(), nil
		case branchFatal(err):
			return verdictBranch, step.Name(), nil
		default:
			return verdictReject, step.Name(), errors.Wrap(errors.ErrCodeKnowledgeBase, err, "step %s on %s", step.Name(), t)
		}
		if res != nil {
			child.Score += res.Score
			child.AddJustification(res.Justification...)
		}
	}
	return verdictAccept, "", nil
}

// runStep runs step, replaying the first outcome for t unless the step
// asks to be run again for every expansion.
func (rn *run) runStep(i int, step pipeline.Step, child *state.State, t python.PackageTuple) (*pipeline.StepResult, error) {
	if step.MultiPackageResolution() {
		return step.Run(rn.c, child, t)
	}
	if o, ok := rn.stepMemo[i][t]; ok {
		return o.result, o.err
	}
	res, err := step.Run(rn.c, child, t)
	if err == nil || stderrors.Is(err, pipeline.ErrNotAcceptable) || stderrors.Is(err, pipeline.ErrSkipPackage) || branchFatal(err) {
		rn.stepMemo[i][t] = stepOutcome{result: res, err: err}
	}
	return res, err
}

// consume removes t from parent's candidates. Once a package has no
// candidate left the parent's subtree is fully explored and it leaves the
// beam.
func (rn *run) consume(parent *state.State, t python.PackageTuple) {
	parent.RemoveUnresolvedDependency(t)
	if !parent.IsUnresolved(t.Name) {
		_ = rn.c.Beam.Remove(parent)
	}
}

// skip drops every candidate of t's package from parent so that no
// descendant installs it. A parent left without unresolved packages is
// finalized.
func (rn *run) skip(parent *state.State, t python.PackageTuple, unit string) error {
	c := rn.c
	parent.RemoveUnresolvedName(t.Name)
	parent.AddJustification(state.Justification{
		Type:    state.TypeInfo,
		Message: fmt.Sprintf("Package %s was removed from the stack by %s", t.Name, unit),
		Package: t.Name,
	})
	if !parent.IsFinal() {
		return nil
	}
	_ = c.Beam.Remove(parent)
	_, err := rn.finalize(parent)
	return err
}

// grow resolves t in child, expands t's requirements and either finalizes
// child or puts it in the beam.
func (rn *run) grow(parent, child *state.State, t python.PackageTuple) (float64, error) {
	c := rn.c
	if err := child.MarkDependencyResolved(t); err != nil {
		rn.discard(child, "", "consistency")
		return math.NaN(), nil
	}

	if err := rn.expandRequirements(child, t); err != nil {
		if stderrors.Is(err, errBranch) || stderrors.Is(err, state.ErrStateConsistency) {
			rn.discard(child, "", "consistency")
			rn.logger.Debug("branch discarded", "tuple", t, "reason", err)
			return math.NaN(), nil
		}
		return 0, err
	}

	if child.IsFinal() {
		accepted, err := rn.finalize(child)
		if err != nil {
			return 0, err
		}
		return reward(accepted), nil
	}

	if !c.Beam.Add(child) {
		rn.discard(child, "", "evicted")
	}
	return child.Score - parent.Score, nil
}

// expandRequirements adds t's requirements to s: resolved packages must
// satisfy them, unresolved candidates are narrowed, new packages get fresh
// candidates.
func (rn *run) expandRequirements(s *state.State, t python.PackageTuple) error {
	c := rn.c
	reqs, err := c.Dependencies(t)
	if err != nil {
		return err
	}

	for _, req := range reqs {
		if req.Optional() {
			continue
		}
		c.RegisterDependent(req.Name, t)

		spec, err := version.ParseSpecifier(req.Specifier)
		if err != nil {
			c.AddStackInfoOnce("specifier:"+t.String()+":"+req.String(), state.Warning(fmt.Sprintf(
				"Cannot parse requirement %s of %s: %v", req, t, err)))
			return fmt.Errorf("%w: %v", errBranch, err)
		}

		if resolved, ok := s.ResolvedDependency(req.Name); ok {
			if !spec.Contains(resolved.Version, true) {
				return fmt.Errorf("%w: %s requires %s, stack has %s", state.ErrStateConsistency, t, req, resolved)
			}
			continue
		}

		if s.IsUnresolved(req.Name) {
			var kept []python.PackageTuple
			for _, u := range s.UnresolvedCandidates(req.Name) {
				if spec.Contains(u.Version, true) {
					kept = append(kept, u)
				}
			}
			if len(kept) == 0 {
				return fmt.Errorf("%w: no candidate of %s satisfies %s required by %s", errBranch, req.Name, req, t)
			}
			s.SetUnresolvedCandidates(req.Name, kept)
			continue
		}

		candidates, err := rn.transitiveCandidates(req)
		if err != nil {
			return err
		}
		if len(candidates) == 0 {
			c.AddStackInfoOnce("unresolvable:"+req.String(), state.Justification{
				Type:    state.TypeWarning,
				Message: fmt.Sprintf("No version of %s satisfies %s required by %s", req.Name, req, t),
				Package: req.Name,
			})
			return fmt.Errorf("%w: nothing satisfies %s", errBranch, req)
		}
		for _, u := range candidates {
			s.AddUnresolvedDependency(u)
		}
	}
	return nil
}

// transitiveCandidates returns the sieved candidates for a requirement,
// memoized for the run.
func (rn *run) transitiveCandidates(req python.Requirement) ([]python.PackageTuple, error) {
	key := req.Name + " " + req.Specifier
	if out, ok := rn.sieved[key]; ok {
		return out, nil
	}
	versions, err := rn.c.PackageVersions(req.Name)
	if err != nil {
		return nil, err
	}
	out, err := rn.matching(python.Requirement{Name: req.Name, Specifier: req.Specifier}, versions)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBranch, err)
	}
	if len(out) > 0 {
		out, err = rn.sieve(out)
		if stderrors.Is(err, pipeline.ErrCannotRemovePackage) {
			out, err = nil, nil
		}
		if err != nil {
			return nil, err
		}
	}
	rn.sieved[key] = out
	return out, nil
}
