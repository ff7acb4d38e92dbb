package advise

import (
	"io"
	"path/filepath"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackadvisor/pkg/errors"
	"github.com/matzehuels/stackadvisor/pkg/pipeline"
	"github.com/matzehuels/stackadvisor/pkg/predictor"
	"github.com/matzehuels/stackadvisor/pkg/python"
	"github.com/matzehuels/stackadvisor/pkg/resolution"
	"github.com/matzehuels/stackadvisor/pkg/resolver"
)

// Artifact formats rendered for the best product.
const (
	FormatLock = "lock" // Pipfile.lock JSON
	FormatDOT  = "dot"  // Graphviz source of the dependency graph
	FormatSVG  = "svg"  // rendered dependency graph
)

// ValidFormats lists the supported artifact formats.
var ValidFormats = map[string]bool{
	FormatLock: true,
	FormatDOT:  true,
	FormatSVG:  true,
}

// Options configures one advise run: the project to resolve, how to
// assemble the pipeline and the search budget.
type Options struct {
	// Manifest is the content of a Pipfile or requirements file.
	Manifest string `json:"manifest"`
	// ManifestFilename selects the parser (Pipfile, requirements*.txt).
	ManifestFilename string `json:"manifest_filename"`
	// RuntimeEnvironment overrides the project's target environment.
	RuntimeEnvironment *python.RuntimeEnvironment `json:"runtime_environment,omitempty"`

	RecommendationType string `json:"recommendation_type,omitempty"`
	Predictor          string `json:"predictor,omitempty"`
	// Pipeline replaces automatic assembly when set.
	Pipeline *pipeline.Config `json:"pipeline,omitempty"`

	BeamWidth     int           `json:"beam_width,omitempty"`
	Limit         int           `json:"limit,omitempty"`
	Count         int           `json:"count,omitempty"`
	MaxIterations int           `json:"max_iterations,omitempty"`
	TimeLimit     time.Duration `json:"time_limit,omitempty"`
	MemoryLimit   uint64        `json:"memory_limit,omitempty"`
	Seed          uint64        `json:"seed,omitempty"`
	Dev           bool          `json:"dev,omitempty"`

	// Formats lists the artifacts to render for the best product.
	Formats []string `json:"formats,omitempty"`
	// Detailed adds index and warning details to graph labels.
	Detailed bool `json:"detailed,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid format: %q (must be one of: lock, dot, svg)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateManifestFilename checks that name is a relative path to a
// manifest a parser exists for.
func ValidateManifestFilename(name string) error {
	if err := errors.ValidatePath(name); err != nil {
		return err
	}
	base := filepath.Base(name)
	if base != "Pipfile" && !python.SupportsRequirementsFile(base) {
		return errors.New(errors.ErrCodeUnsupported, "unsupported manifest %q (want Pipfile or requirements*.txt)", base)
	}
	return nil
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Manifest == "" {
		return errors.New(errors.ErrCodeInvalidInput, "manifest is required")
	}
	if o.ManifestFilename == "" {
		return errors.New(errors.ErrCodeInvalidInput, "manifest_filename is required")
	}
	if err := ValidateManifestFilename(o.ManifestFilename); err != nil {
		return err
	}

	rt, err := resolution.ParseRecommendationType(o.RecommendationType)
	if err != nil {
		return err
	}
	o.RecommendationType = string(rt)

	if o.Predictor == "" {
		o.Predictor = predictor.NameLatest
	}
	if !slices.Contains(predictor.Names, o.Predictor) {
		return errors.New(errors.ErrCodeInvalidInput, "invalid predictor %q (must be one of: %v)", o.Predictor, predictor.Names)
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if err := o.ResolverOptions().WithDefaults().Validate(); err != nil {
		return err
	}

	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// ResolverOptions maps the search settings to resolver options.
func (o *Options) ResolverOptions() resolver.Options {
	return resolver.Options{
		BeamWidth:          o.BeamWidth,
		Limit:              o.Limit,
		Count:              o.Count,
		MaxIterations:      o.MaxIterations,
		TimeLimit:          o.TimeLimit,
		MemoryLimit:        o.MemoryLimit,
		Seed:               o.Seed,
		Dev:                o.Dev,
		RecommendationType: resolution.RecommendationType(o.RecommendationType),
		Logger:             o.Logger,
	}
}
