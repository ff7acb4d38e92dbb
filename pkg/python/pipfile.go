package python

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/stackadvisor/pkg/errors"
)

type pipfile struct {
	Sources     []pipfileSource   `toml:"source"`
	Packages    map[string]any    `toml:"packages"`
	DevPackages map[string]any    `toml:"dev-packages"`
	Requires    map[string]string `toml:"requires"`
	Pipenv      struct {
		AllowPrereleases bool `toml:"allow_prereleases"`
	} `toml:"pipenv"`
}

type pipfileSource struct {
	Name      string `toml:"name"`
	URL       string `toml:"url"`
	VerifySSL *bool  `toml:"verify_ssl"`
}

// ParsePipfile parses a Pipfile document.
//
// Package entries may be plain specifier strings ("==1.0", "*") or tables
// with version, index and extras keys. An index key names a [[source]]
// entry; the requirement carries the source URL.
func ParsePipfile(data []byte) (*Project, error) {
	var pf pipfile
	if err := toml.Unmarshal(data, &pf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPipfile, err, "parse Pipfile")
	}

	p := &Project{
		AllowPrereleases: pf.Pipenv.AllowPrereleases,
		PythonVersion:    pf.Requires["python_version"],
	}
	if v := pf.Requires["python_full_version"]; v != "" && p.PythonVersion == "" {
		p.PythonVersion = v
	}

	for _, s := range pf.Sources {
		if s.URL == "" {
			return nil, errors.New(errors.ErrCodeInvalidPipfile, "source %q has no url", s.Name)
		}
		src := Source{Name: s.Name, URL: s.URL, VerifySSL: true}
		if s.VerifySSL != nil {
			src.VerifySSL = *s.VerifySSL
		}
		if src.Name == "" {
			src.Name = fmt.Sprintf("source-%d", len(p.Sources))
		}
		p.Sources = append(p.Sources, src)
	}
	if len(p.Sources) == 0 {
		p.Sources = []Source{DefaultSource()}
	}

	var err error
	if p.Requirements, err = pipfileRequirements(p, pf.Packages); err != nil {
		return nil, err
	}
	if p.DevRequirements, err = pipfileRequirements(p, pf.DevPackages); err != nil {
		return nil, err
	}
	return p, nil
}

func pipfileRequirements(p *Project, packages map[string]any) ([]Requirement, error) {
	names := make([]string, 0, len(packages))
	for name := range packages {
		names = append(names, name)
	}
	sort.Strings(names)

	reqs := make([]Requirement, 0, len(names))
	for _, name := range names {
		if err := errors.ValidatePythonPackageName(name); err != nil {
			return nil, err
		}
		req := Requirement{Name: NormalizeName(name)}
		switch v := packages[name].(type) {
		case string:
			req.Specifier = normalizeSpecifier(v)
		case map[string]any:
			if s, ok := v["version"].(string); ok {
				req.Specifier = normalizeSpecifier(s)
			}
			if idx, ok := v["index"].(string); ok {
				src, ok := p.Source(idx)
				if !ok {
					return nil, errors.New(errors.ErrCodeInvalidPipfile, "package %s refers to unknown index %q", name, idx)
				}
				req.Index = src.URL
			}
			if m, ok := v["markers"].(string); ok {
				req.Markers = m
			}
			if extras, ok := v["extras"].([]any); ok {
				for _, e := range extras {
					if s, ok := e.(string); ok {
						req.Extras = append(req.Extras, NormalizeName(s))
					}
				}
			}
			if _, ok := v["git"]; ok {
				return nil, errors.New(errors.ErrCodeUnsupported, "package %s: VCS requirements are not supported", name)
			}
			if _, ok := v["path"]; ok {
				return nil, errors.New(errors.ErrCodeUnsupported, "package %s: path requirements are not supported", name)
			}
		default:
			return nil, errors.New(errors.ErrCodeInvalidPipfile, "package %s: unexpected entry %v", name, v)
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

// PipfileString renders the project back into Pipfile TOML. It is used by the
// API client side of the CLI and in tests.
func (p *Project) PipfileString() string {
	var b strings.Builder
	for _, s := range p.Sources {
		fmt.Fprintf(&b, "[[source]]\nname = %q\nurl = %q\nverify_ssl = %t\n\n", s.Name, s.URL, s.VerifySSL)
	}
	writeSection := func(title string, reqs []Requirement) {
		b.WriteString("[" + title + "]\n")
		for _, r := range reqs {
			spec := r.Specifier
			if spec == "" {
				spec = "*"
			}
			if r.Index == "" {
				fmt.Fprintf(&b, "%s = %q\n", r.Name, spec)
				continue
			}
			name := r.Index
			if src, ok := p.SourceByURL(r.Index); ok {
				name = src.Name
			}
			fmt.Fprintf(&b, "%s = {version = %q, index = %q}\n", r.Name, spec, name)
		}
		b.WriteString("\n")
	}
	writeSection("packages", p.Requirements)
	writeSection("dev-packages", p.DevRequirements)
	if p.PythonVersion != "" {
		fmt.Fprintf(&b, "[requires]\npython_version = %q\n\n", p.PythonVersion)
	}
	if p.AllowPrereleases {
		b.WriteString("[pipenv]\nallow_prereleases = true\n")
	}
	return b.String()
}
