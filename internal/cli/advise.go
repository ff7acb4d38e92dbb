package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stackadvisor/pkg/advise"
	"github.com/matzehuels/stackadvisor/pkg/errors"
	"github.com/matzehuels/stackadvisor/pkg/pipeline"
	"github.com/matzehuels/stackadvisor/pkg/predictor"
	"github.com/matzehuels/stackadvisor/pkg/python"
	"github.com/matzehuels/stackadvisor/pkg/resolver"
	"github.com/matzehuels/stackadvisor/pkg/store"
)

// adviseOpts holds the command-line flags for the advise command.
type adviseOpts struct {
	kbOpts

	pipeline   string // pipeline YAML
	runtimeEnv string // runtime environment YAML
	recType    string
	predictor  string
	dev        bool

	beamWidth     int
	limit         int
	count         int
	maxIterations int
	timeLimit     time.Duration
	seed          uint64

	output      string // Pipfile.lock of the best product
	graph       string // SVG or DOT of the best product's graph
	detailed    bool
	interactive bool
	noSave      bool
}

// adviseCommand creates the advise command.
func (c *CLI) adviseCommand() *cobra.Command {
	opts := adviseOpts{
		beamWidth: resolver.DefaultBeamWidth,
		limit:     resolver.DefaultLimit,
		count:     resolver.DefaultCount,
		seed:      resolver.DefaultSeed,
		predictor: predictor.NameLatest,
	}

	cmd := &cobra.Command{
		Use:   "advise <Pipfile|requirements.txt>",
		Short: "Recommend pinned dependency stacks for a project",
		Long: `Resolve a Pipfile or requirements file into fully pinned dependency stacks.

The knowledge base is PyPI by default, MongoDB when STACKADVISOR_MONGO_URI is
set, or a YAML snapshot given with --kb.

Examples:
  stackadvisor advise Pipfile
  stackadvisor advise requirements.txt --type security --count 5
  stackadvisor advise Pipfile --output Pipfile.lock --graph stack.svg
  stackadvisor advise Pipfile --kb snapshot.yaml --predictor combinations -i`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAdvise(cmd.Context(), args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.path, "kb", "", "knowledge base snapshot (YAML)")
	f.BoolVar(&opts.noCache, "no-cache", false, "disable the response cache")
	f.BoolVar(&opts.refresh, "refresh", false, "bypass cached responses")
	f.StringVar(&opts.pipeline, "pipeline", "", "pipeline configuration (YAML); assembled automatically if empty")
	f.StringVar(&opts.runtimeEnv, "runtime-env", "", "runtime environment (YAML)")
	f.StringVarP(&opts.recType, "type", "t", "stable", "recommendation type (latest, stable, security, performance, testing)")
	f.StringVarP(&opts.predictor, "predictor", "p", opts.predictor, "predictor ("+strings.Join(predictor.Names, ", ")+")")
	f.BoolVar(&opts.dev, "dev", false, "include development requirements")
	f.IntVar(&opts.beamWidth, "beam-width", opts.beamWidth, "maximum number of live states")
	f.IntVar(&opts.limit, "limit", opts.limit, "stop after this many accepted stacks")
	f.IntVarP(&opts.count, "count", "c", opts.count, "number of stacks to report")
	f.IntVar(&opts.maxIterations, "max-iterations", 0, "stop after this many expansions (0 = unbounded)")
	f.DurationVar(&opts.timeLimit, "time-limit", 0, "stop after this duration (0 = none)")
	f.Uint64Var(&opts.seed, "seed", opts.seed, "random seed")
	f.StringVarP(&opts.output, "output", "o", "", "write the best stack as Pipfile.lock")
	f.StringVarP(&opts.graph, "graph", "g", "", "write the best stack's dependency graph (.svg or .dot)")
	f.BoolVar(&opts.detailed, "detailed", false, "include indexes and warnings in graph labels")
	f.BoolVarP(&opts.interactive, "interactive", "i", false, "browse the stacks interactively")
	f.BoolVar(&opts.noSave, "no-save", false, "do not keep the report for later 'report' calls")

	return cmd
}

func (c *CLI) runAdvise(ctx context.Context, manifestPath string, opts adviseOpts) error {
	aopts, err := opts.adviseOptions(manifestPath)
	if err != nil {
		return err
	}
	aopts.Logger = c.Logger

	kb, err := c.openKnowledgeBase(ctx, opts.kbOpts)
	if err != nil {
		return err
	}
	runner := advise.NewRunner(kb, nil, c.Logger)
	defer runner.Close()

	var spinner *Spinner
	if c.Logger.GetLevel() > log.DebugLevel {
		spinner = newSpinnerWithContext(ctx, "Resolving "+filepath.Base(manifestPath))
		spinner.Start()
	}
	prog := newProgress(c.Logger)
	result, err := runner.Execute(ctx, aopts)
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		if result != nil && result.Report != nil {
			printRunStats(result.Report.Stats)
		}
		return err
	}
	prog.done("Resolution finished")

	report := result.Report
	if report.Stats.Termination != resolver.TerminationLimit && report.Stats.Termination != resolver.TerminationExhausted {
		printWarning("Search stopped early: %s", report.Stats.Termination)
	}

	if !opts.noSave {
		if err := c.saveReport(ctx, result); err != nil {
			c.Logger.Warn("report not saved", "error", err)
		}
	}

	if len(report.Products) == 0 {
		printStackInfo(report)
		return errors.New(errors.ErrCodeNoDependencies, "no stack satisfies the requirements")
	}

	if opts.interactive {
		if err := browse(report); err != nil {
			return err
		}
	} else {
		printReport(report)
	}

	for format, path := range map[string]string{advise.FormatLock: opts.output, graphFormat(opts.graph): opts.graph} {
		if path == "" {
			continue
		}
		if err := os.WriteFile(path, result.Artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	return nil
}

// adviseOptions reads the input files and maps flags to [advise.Options].
func (o adviseOpts) adviseOptions(manifestPath string) (advise.Options, error) {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return advise.Options{}, errors.Wrap(errors.ErrCodeInvalidPath, err, "read %s", manifestPath)
	}

	opts := advise.Options{
		Manifest:           string(data),
		ManifestFilename:   filepath.Base(manifestPath),
		RecommendationType: o.recType,
		Predictor:          o.predictor,
		BeamWidth:          o.beamWidth,
		Limit:              o.limit,
		Count:              o.count,
		MaxIterations:      o.maxIterations,
		TimeLimit:          o.timeLimit,
		Seed:               o.seed,
		Dev:                o.dev,
		Detailed:           o.detailed,
	}
	if o.pipeline != "" {
		if opts.Pipeline, err = pipeline.LoadConfig(o.pipeline); err != nil {
			return advise.Options{}, err
		}
	}
	if o.runtimeEnv != "" {
		env, err := python.LoadRuntimeEnvironment(o.runtimeEnv)
		if err != nil {
			return advise.Options{}, err
		}
		opts.RuntimeEnvironment = &env
	}
	if o.output != "" {
		opts.Formats = append(opts.Formats, advise.FormatLock)
	}
	if o.graph != "" {
		opts.Formats = append(opts.Formats, graphFormat(o.graph))
	}
	return opts, nil
}

// graphFormat picks the graph artifact by file extension.
func graphFormat(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".dot") {
		return advise.FormatDOT
	}
	return advise.FormatSVG
}

func (c *CLI) saveReport(ctx context.Context, result *advise.Result) error {
	fs, err := store.NewFileStore("")
	if err != nil {
		return err
	}
	defer fs.Close()

	if err := fs.Cleanup(ctx); err != nil {
		c.Logger.Debug("report cleanup failed", "error", err)
	}
	rec := store.NewRecord(result.Report, result.Project, store.DefaultTTL)
	rec.Pipeline = result.Pipeline
	if err := fs.Put(ctx, rec); err != nil {
		return err
	}
	printDetail("Report %s", rec.ID)
	return nil
}

// browse runs the interactive product browser.
func browse(report *resolver.Report) error {
	_, err := tea.NewProgram(newProductBrowser(report), tea.WithAltScreen()).Run()
	return err
}
