// Package advise runs the complete parse → assemble → resolve → render
// flow for one project. The CLI and the API server both use a [Runner] so
// that a manifest gives the same recommendation through either.
package advise

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackadvisor/pkg/errors"
	"github.com/matzehuels/stackadvisor/pkg/knowledge"
	"github.com/matzehuels/stackadvisor/pkg/pipeline"
	"github.com/matzehuels/stackadvisor/pkg/predictor"
	"github.com/matzehuels/stackadvisor/pkg/python"
	"github.com/matzehuels/stackadvisor/pkg/resolution"
	"github.com/matzehuels/stackadvisor/pkg/resolver"
	"github.com/matzehuels/stackadvisor/pkg/units"
)

// Runner executes advise runs against one knowledge base.
//
// The Runner is stateless except for the knowledge base and logger - it
// doesn't store reports. Multiple goroutines can safely use the same
// Runner with different options as long as the knowledge base is safe for
// concurrent use (every bundled one is).
type Runner struct {
	KB       knowledge.KnowledgeBase
	Registry *pipeline.Registry
	Logger   *log.Logger
}

// NewRunner creates a runner. A nil registry selects the built-in units,
// a nil logger the default logger.
func NewRunner(kb knowledge.KnowledgeBase, reg *pipeline.Registry, logger *log.Logger) *Runner {
	if reg == nil {
		reg = units.Registry()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{KB: kb, Registry: reg, Logger: logger}
}

// Result contains the outputs of an advise run.
type Result struct {
	// Report is the resolver's report; on run-fatal errors it holds the
	// partial outcome.
	Report *resolver.Report

	// Project is the parsed manifest.
	Project *python.Project

	// Pipeline describes the units the run used.
	Pipeline *pipeline.Config

	// Artifacts contains rendered outputs for the best product keyed by
	// format.
	Artifacts map[string][]byte

	// Stats contains timing information.
	Stats Stats
}

// Stats contains run timing.
type Stats struct {
	ParseTime   time.Duration
	ResolveTime time.Duration
	RenderTime  time.Duration
}

// Execute runs the complete flow. When resolution fails after it started,
// the partial result is returned together with the error.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	result := &Result{Artifacts: make(map[string][]byte)}

	// Stage 1: Parse
	parseStart := time.Now()
	project, err := ParseProject(opts)
	if err != nil {
		return nil, err
	}
	result.Project = project
	result.Stats.ParseTime = time.Since(parseStart)

	r.Logger.Info("parsed project",
		"requirements", len(project.Requirements),
		"sources", len(project.Sources),
		"python", project.EffectivePythonVersion())

	// Stage 2: Assemble
	p, err := r.BuildPipeline(opts, project)
	if err != nil {
		return nil, err
	}
	result.Pipeline = p.Config()
	r.Logger.Debug("assembled pipeline",
		"sieves", len(p.Sieves),
		"steps", len(p.Steps),
		"strides", len(p.Strides),
		"wraps", len(p.Wraps))

	// Stage 3: Resolve
	pred, err := predictor.New(opts.Predictor)
	if err != nil {
		return nil, err
	}
	res, err := resolver.New(p, pred, opts.ResolverOptions())
	if err != nil {
		return nil, err
	}
	resolveStart := time.Now()
	report, err := res.Resolve(ctx, r.KB, project)
	result.Report = report
	result.Stats.ResolveTime = time.Since(resolveStart)
	if err != nil {
		return result, err
	}

	// Stage 4: Render
	renderStart := time.Now()
	artifacts, err := Render(ctx, report.Best(), project, opts)
	if err != nil {
		return result, errors.Wrap(errors.ErrCodeInternal, err, "render")
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// BuildPipeline builds the pipeline opts describe: the configured units if
// opts.Pipeline is set, otherwise every unit that asks to be included for
// the recommendation type.
func (r *Runner) BuildPipeline(opts Options, project *python.Project) (*pipeline.Pipeline, error) {
	if opts.Pipeline != nil {
		return pipeline.FromConfig(r.Registry, opts.Pipeline)
	}
	bc := pipeline.NewBuildContext(resolution.RecommendationType(opts.RecommendationType), project)
	if opts.Logger != nil {
		bc.Logger = opts.Logger
	}
	return pipeline.Assemble(r.Registry, bc)
}

// Close releases the knowledge base.
func (r *Runner) Close() error {
	if r.KB != nil {
		return r.KB.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
