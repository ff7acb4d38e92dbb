package python

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/matzehuels/stackadvisor/pkg/errors"
)

var (
	reqNameRE   = regexp.MustCompile(`^([A-Za-z0-9][-A-Za-z0-9._]*)\s*(\[[^\]]*\])?\s*(.*)$`)
	extraMarkRE = regexp.MustCompile(`\bextra\s*==`)
)

// Requirement is a single dependency declaration: a package name, a version
// specifier and optionally the index it must be installed from.
type Requirement struct {
	Name      string   `json:"name" yaml:"name"`
	Specifier string   `json:"specifier,omitempty" yaml:"specifier,omitempty"`
	Extras    []string `json:"extras,omitempty" yaml:"extras,omitempty"`
	Markers   string   `json:"markers,omitempty" yaml:"markers,omitempty"`
	Index     string   `json:"index,omitempty" yaml:"index,omitempty"`
}

// ParseRequirement parses a PEP 508 requirement string such as
// "requests[security]>=2.0,<3; python_version >= '3.8'".
// URL and VCS requirements are rejected.
func ParseRequirement(s string) (Requirement, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Requirement{}, errors.New(errors.ErrCodeInvalidInput, "empty requirement")
	}
	if strings.Contains(s, "://") || strings.HasPrefix(s, "git+") {
		return Requirement{}, errors.New(errors.ErrCodeUnsupported, "direct reference requirements are not supported: %q", s)
	}

	var markers string
	if i := strings.Index(s, ";"); i >= 0 {
		markers = strings.TrimSpace(s[i+1:])
		s = strings.TrimSpace(s[:i])
	}

	m := reqNameRE.FindStringSubmatch(s)
	if m == nil {
		return Requirement{}, errors.New(errors.ErrCodeInvalidPackage, "invalid requirement: %q", s)
	}

	req := Requirement{
		Name:      NormalizeName(m[1]),
		Specifier: normalizeSpecifier(m[3]),
		Markers:   markers,
	}
	if m[2] != "" {
		for _, extra := range strings.Split(strings.Trim(m[2], "[]"), ",") {
			if extra = strings.TrimSpace(extra); extra != "" {
				req.Extras = append(req.Extras, NormalizeName(extra))
			}
		}
	}
	return req, nil
}

// normalizeSpecifier strips parentheses and whitespace: "(>=1.0, <2)" -> ">=1.0,<2".
func normalizeSpecifier(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "(")
	s = strings.TrimSuffix(s, ")")
	s = strings.ReplaceAll(s, " ", "")
	if s == "*" {
		return ""
	}
	return s
}

// Optional reports whether the requirement only applies when an extra is
// requested. Optional requirements are not followed during resolution.
func (r Requirement) Optional() bool {
	return extraMarkRE.MatchString(r.Markers)
}

// String renders the requirement in PEP 508 form.
func (r Requirement) String() string {
	s := r.Name
	if len(r.Extras) > 0 {
		s += "[" + strings.Join(r.Extras, ",") + "]"
	}
	s += r.Specifier
	if r.Markers != "" {
		s = fmt.Sprintf("%s; %s", s, r.Markers)
	}
	return s
}
