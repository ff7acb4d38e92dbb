package advise

import (
	"path/filepath"
	"strings"

	"github.com/matzehuels/stackadvisor/pkg/errors"
	"github.com/matzehuels/stackadvisor/pkg/python"
)

// ParseProject parses the manifest in opts and applies the runtime
// environment override.
func ParseProject(opts Options) (*python.Project, error) {
	var (
		project *python.Project
		err     error
	)
	switch base := filepath.Base(opts.ManifestFilename); {
	case base == "Pipfile":
		project, err = python.ParsePipfile([]byte(opts.Manifest))
	case python.SupportsRequirementsFile(base):
		project, err = python.ParseRequirements(strings.NewReader(opts.Manifest))
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "no parser for manifest: %s", opts.ManifestFilename)
	}
	if err != nil {
		return nil, err
	}

	if opts.RuntimeEnvironment != nil {
		project.RuntimeEnvironment = *opts.RuntimeEnvironment
	}
	return project, nil
}
