// Package resolver runs the beam search that turns a project's direct
// requirements into fully pinned, scored stacks.
//
// A run follows a fixed cycle:
//
//	INIT → EXPANDING → (ACCEPTING_FINAL | CONTINUE) → … → DONE
//
// The predictor picks a live state and one of its unresolved tuples, the
// resolver clones the state, lets the pipeline steps score or reject the
// tuple, resolves it and expands its own requirements. Final states are
// passed through the strides and, once accepted, annotated by the wraps.
// Non-final states go back into the beam.
//
// The run ends when the accepted-state limit is reached, the beam runs
// dry, the iteration budget is spent or the context is done. A context
// cancelled with [ErrCPUTimeExhausted] or [ErrMemoryExhausted] as its cause
// ends the run early with a warning instead of an error; the accepted
// products found so far are still reported.
package resolver

import (
	"context"
	stderrors "errors"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/matzehuels/stackadvisor/pkg/beam"
	"github.com/matzehuels/stackadvisor/pkg/errors"
	"github.com/matzehuels/stackadvisor/pkg/knowledge"
	"github.com/matzehuels/stackadvisor/pkg/observability"
	"github.com/matzehuels/stackadvisor/pkg/pipeline"
	"github.com/matzehuels/stackadvisor/pkg/predictor"
	"github.com/matzehuels/stackadvisor/pkg/python"
	"github.com/matzehuels/stackadvisor/pkg/resolution"
	"github.com/matzehuels/stackadvisor/pkg/state"
)

var (
	// ErrCPUTimeExhausted is the cancellation cause of a run that hit its
	// time limit.
	ErrCPUTimeExhausted = stderrors.New("resolver ran out of CPU time")

	// ErrMemoryExhausted is the cancellation cause of a run that hit its
	// memory limit.
	ErrMemoryExhausted = stderrors.New("resolver ran out of memory")
)

// memoryCheckInterval is the number of iterations between heap checks.
const memoryCheckInterval = 256

var tracer = otel.Tracer("github.com/matzehuels/stackadvisor/pkg/resolver")

// Resolver drives a pipeline and a predictor over a beam. A Resolver may be
// reused for several runs, but not concurrently: units and predictors keep
// per-run state.
type Resolver struct {
	pipeline  *pipeline.Pipeline
	predictor predictor.Predictor
	opts      Options
}

// New validates opts and returns a resolver. A nil predictor selects
// [predictor.Latest].
func New(p *pipeline.Pipeline, pred predictor.Predictor, opts Options) (*Resolver, error) {
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if p == nil {
		p = &pipeline.Pipeline{}
	}
	if pred == nil {
		pred = predictor.NewLatest()
	}
	return &Resolver{pipeline: p, predictor: pred, opts: opts}, nil
}

// Options returns the effective options.
func (r *Resolver) Options() Options { return r.opts }

// run is the mutable state of one Resolve call.
type run struct {
	*Resolver
	c        *resolution.Context
	logger   *log.Logger
	cancel   context.CancelCauseFunc
	products ranked
	// stepMemo replays single package step outcomes: step index → tuple.
	stepMemo []map[python.PackageTuple]stepOutcome
	// sieved memoizes transitive candidates per requirement.
	sieved map[string][]python.PackageTuple
}

type stepOutcome struct {
	result *pipeline.StepResult
	err    error
}

// Resolve runs the search for project against kb.
//
// Run-fatal failures (no resolvable direct dependency, knowledge base
// errors, unit misconfiguration) are returned as errors together with a
// report holding whatever was accepted before the failure.
func (r *Resolver) Resolve(ctx context.Context, kb knowledge.KnowledgeBase, project *python.Project) (report *Report, err error) {
	start := time.Now()
	report = &Report{ID: uuid.NewString()}

	ctx, span := tracer.Start(ctx, "resolver.Resolve", trace.WithAttributes(
		attribute.String("run_id", report.ID),
		attribute.String("recommendation_type", string(r.opts.RecommendationType)),
		attribute.Int("beam_width", r.opts.BeamWidth),
		attribute.Int("limit", r.opts.Limit),
	))
	defer span.End()

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	if r.opts.TimeLimit > 0 {
		var stop context.CancelFunc
		runCtx, stop = context.WithTimeoutCause(runCtx, r.opts.TimeLimit, ErrCPUTimeExhausted)
		defer stop()
	}

	b, err := beam.New(r.opts.BeamWidth)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidWidth, err, "create beam")
	}
	c := resolution.New(runCtx, kb, project)
	c.Beam = b
	c.RNG = rand.New(rand.NewPCG(r.opts.Seed, r.opts.Seed))
	c.Logger = r.opts.Logger
	c.RecommendationType = r.opts.RecommendationType
	c.Limit = r.opts.Limit
	c.Count = r.opts.Count

	rn := &run{
		Resolver: r,
		c:        c,
		logger:   r.opts.Logger,
		cancel:   cancel,
		products: ranked{count: r.opts.Count},
		stepMemo: make([]map[python.PackageTuple]stepOutcome, len(r.pipeline.Steps)),
		sieved:   make(map[string][]python.PackageTuple),
	}
	for i := range rn.stepMemo {
		rn.stepMemo[i] = make(map[python.PackageTuple]stepOutcome)
	}

	direct := project.DirectRequirements(r.opts.Dev)
	observability.Resolver().OnRunStart(ctx, report.ID, len(direct))
	r.opts.Logger.Info("resolution started",
		"run", report.ID,
		"direct", len(direct),
		"type", r.opts.RecommendationType,
		"beam_width", r.opts.BeamWidth)

	termination, err := rn.loop(direct)

	r.predictor.PostRun(c)
	r.pipeline.PostRun(c)

	for _, s := range rn.products.states {
		report.Products = append(report.Products, newProduct(c, s))
	}
	report.StackInfo = c.StackInfo
	if report.StackInfo == nil {
		report.StackInfo = []state.Justification{}
	}
	report.Stats = Stats{
		Iterations:  c.Iteration,
		Accepted:    c.AcceptedFinalStates,
		Discarded:   c.DiscardedStates,
		Duration:    time.Since(start),
		Termination: termination,
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(
		attribute.Int("iterations", report.Stats.Iterations),
		attribute.Int("accepted", report.Stats.Accepted),
		attribute.String("termination", termination))
	observability.Resolver().OnRunComplete(ctx, report.ID, observability.RunStats{
		Iterations:  report.Stats.Iterations,
		Accepted:    report.Stats.Accepted,
		Discarded:   report.Stats.Discarded,
		Duration:    report.Stats.Duration,
		Termination: termination,
	}, err)
	r.opts.Logger.Info("resolution finished",
		"run", report.ID,
		"iterations", report.Stats.Iterations,
		"accepted", report.Stats.Accepted,
		"discarded", report.Stats.Discarded,
		"products", len(report.Products),
		"termination", termination,
		"duration", report.Stats.Duration)
	return report, err
}

// loop runs the pre-run hooks, seeds the beam and expands until a
// termination condition holds.
func (rn *run) loop(direct []python.Requirement) (string, error) {
	c := rn.c
	if err := rn.pipeline.PreRun(c); err != nil {
		return TerminationError, err
	}
	rn.predictor.PreRun(c)

	initial, err := rn.initialState(direct)
	if err != nil {
		if term := rn.budgetExhausted(); term != "" {
			return term, nil
		}
		return TerminationError, err
	}
	c.Beam.Add(initial)

	for {
		if term := rn.budgetExhausted(); term != "" {
			return term, nil
		}

		s, t, err := rn.predictor.Run(c)
		if stderrors.Is(err, beam.ErrEmptyBeam) {
			return TerminationExhausted, nil
		}
		if err != nil {
			return TerminationError, errors.Wrap(errors.ErrCodeInternal, err, "predictor")
		}

		reward, err := rn.expand(s, t)
		if err != nil {
			if term := rn.budgetExhausted(); term != "" {
				return term, nil
			}
			return TerminationError, err
		}
		rn.predictor.SetRewardSignal(c, s, t, reward)

		if c.AcceptedFinalStates >= c.Limit {
			return TerminationLimit, nil
		}
	}
}

// budgetExhausted reports the termination reason once a budget is spent,
// recording a warning for early kills.
func (rn *run) budgetExhausted() string {
	c := rn.c
	if rn.opts.MemoryLimit > 0 && c.Iteration%memoryCheckInterval == 0 {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		if ms.HeapAlloc > rn.opts.MemoryLimit {
			rn.cancel(ErrMemoryExhausted)
		}
	}

	if c.Ctx().Err() != nil {
		cause := context.Cause(c.Ctx())
		switch {
		case stderrors.Is(cause, ErrCPUTimeExhausted), stderrors.Is(cause, context.DeadlineExceeded):
			c.AddStackInfoOnce("kill", state.Warning(fmt.Sprintf(
				"Resolver was stopped because it ran out of CPU time after %d iterations; results are partial", c.Iteration)))
			return TerminationTimeout
		case stderrors.Is(cause, ErrMemoryExhausted):
			c.AddStackInfoOnce("kill", state.Warning(fmt.Sprintf(
				"Resolver was stopped because it ran out of memory after %d iterations; results are partial", c.Iteration)))
			return TerminationMemory
		default:
			c.AddStackInfoOnce("kill", state.Warning(fmt.Sprintf(
				"Resolver was cancelled after %d iterations: %v; results are partial", c.Iteration, cause)))
			return TerminationCancelled
		}
	}

	if rn.opts.MaxIterations > 0 && c.Iteration >= rn.opts.MaxIterations {
		c.AddStackInfoOnce("iterations", state.Warning(fmt.Sprintf(
			"Resolver reached the iteration budget of %d; results are partial", rn.opts.MaxIterations)))
		return TerminationIterations
	}
	return ""
}

// discard counts a dropped state.
func (rn *run) discard(s *state.State, unit, reason string) {
	rn.c.DiscardedStates++
	observability.Resolver().OnStateDiscarded(rn.c.Ctx(), unit, reason)
	rn.logger.Debug("state discarded", "state", s, "unit", unit, "reason", reason)
}

// finalize passes a final state through the strides and, if every stride
// accepts it, records it and runs the wraps. It reports whether s was
// accepted.
func (rn *run) finalize(s *state.State) (bool, error) {
	c := rn.c
	ctx, span := tracer.Start(c.Ctx(), "resolver.strides", trace.WithAttributes(
		attribute.Int("iteration", s.Iteration),
		attribute.Int("strides", len(rn.pipeline.Strides)),
	))
	defer span.End()

	for _, stride := range rn.pipeline.Strides {
		err := stride.Run(ctx, c, s)
		if stderrors.Is(err, pipeline.ErrNotAcceptable) {
			span.SetAttributes(attribute.String("rejected_by", stride.Name()))
			rn.discard(s, stride.Name(), "not_acceptable")
			return false, nil
		}
		if branchFatal(err) {
			span.SetAttributes(attribute.String("rejected_by", stride.Name()))
			rn.discard(s, stride.Name(), "consistency")
			return false, nil
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return false, errors.Wrap(errors.ErrCodeKnowledgeBase, err, "stride %s", stride.Name())
		}
	}

	c.AcceptedFinalStates++
	for _, w := range rn.pipeline.Wraps {
		w.Run(c, s)
	}
	rn.products.add(s)
	observability.Resolver().OnStateAccepted(ctx, s.Score)
	rn.logger.Debug("final state accepted", "score", s.Score, "iteration", s.Iteration, "accepted", c.AcceptedFinalStates)
	return true, nil
}

func reward(accepted bool) float64 {
	if accepted {
		return math.Inf(1)
	}
	return math.NaN()
}
