package python

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/matzehuels/stackadvisor/pkg/errors"
)

// Source is a package index declared by the project.
type Source struct {
	Name      string `json:"name" yaml:"name"`
	URL       string `json:"url" yaml:"url"`
	VerifySSL bool   `json:"verify_ssl" yaml:"verify_ssl"`
}

// DefaultSource returns the PyPI source used when none is declared.
func DefaultSource() Source {
	return Source{Name: "pypi", URL: DefaultIndexURL, VerifySSL: true}
}

// Project describes what should be resolved: direct requirements, indexes,
// the prerelease policy and the environment the stack will run in.
type Project struct {
	Requirements       []Requirement      `json:"requirements"`
	DevRequirements    []Requirement      `json:"dev_requirements,omitempty"`
	Sources            []Source           `json:"sources"`
	AllowPrereleases   bool               `json:"allow_prereleases"`
	PythonVersion      string             `json:"python_version,omitempty"`
	RuntimeEnvironment RuntimeEnvironment `json:"runtime_environment"`
}

// LoadProject reads a Pipfile or a requirements file from disk, chosen by
// the file name.
func LoadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read %s", path)
	}
	base := filepath.Base(path)
	switch {
	case base == "Pipfile":
		return ParsePipfile(data)
	case SupportsRequirementsFile(base):
		return ParseRequirements(bytes.NewReader(data))
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported project file %q (want Pipfile or requirements*.txt)", base)
	}
}

// Source returns the declared source with the given name.
func (p *Project) Source(name string) (Source, bool) {
	for _, s := range p.Sources {
		if s.Name == name {
			return s, true
		}
	}
	return Source{}, false
}

// SourceByURL returns the declared source with the given URL.
func (p *Project) SourceByURL(url string) (Source, bool) {
	for _, s := range p.Sources {
		if s.URL == url {
			return s, true
		}
	}
	return Source{}, false
}

// IndexURLs lists the declared index URLs in declaration order.
func (p *Project) IndexURLs() []string {
	urls := make([]string, 0, len(p.Sources))
	for _, s := range p.Sources {
		urls = append(urls, s.URL)
	}
	return urls
}

// DirectRequirements returns the requirements to resolve. Dev requirements
// are appended when dev is true; a name declared in both keeps the default
// entry.
func (p *Project) DirectRequirements(dev bool) []Requirement {
	reqs := append([]Requirement(nil), p.Requirements...)
	if !dev {
		return reqs
	}
	seen := make(map[string]bool, len(reqs))
	for _, r := range reqs {
		seen[r.Name] = true
	}
	for _, r := range p.DevRequirements {
		if !seen[r.Name] {
			reqs = append(reqs, r)
		}
	}
	return reqs
}

// EffectivePythonVersion returns the runtime environment Python version,
// falling back to the one pinned by the project.
func (p *Project) EffectivePythonVersion() string {
	if p.RuntimeEnvironment.PythonVersion != "" {
		return p.RuntimeEnvironment.PythonVersion
	}
	return p.PythonVersion
}

func (p *Project) addSource(url string) {
	if _, ok := p.SourceByURL(url); ok {
		return
	}
	name := "pypi"
	if url != DefaultIndexURL {
		name = fmt.Sprintf("index-%d", len(p.Sources))
	}
	p.Sources = append(p.Sources, Source{Name: name, URL: url, VerifySSL: true})
}
