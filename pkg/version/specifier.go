package version

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSpecifier is returned for malformed version specifiers.
var ErrInvalidSpecifier = errors.New("invalid specifier")

type operator string

const (
	opEqual     operator = "=="
	opNotEqual  operator = "!="
	opGreaterEq operator = ">="
	opLessEq    operator = "<="
	opGreater   operator = ">"
	opLess      operator = "<"
	opCompat    operator = "~="
	opArbitrary operator = "==="
)

// ordered longest first so that "===" is not read as "==" + "=".
var operators = []operator{opArbitrary, opEqual, opNotEqual, opGreaterEq, opLessEq, opCompat, opGreater, opLess}

type clause struct {
	op       operator
	raw      string
	version  *Version
	wildcard bool
}

// Specifier is a comma separated conjunction of PEP 440 clauses such as
// ">=1.0,!=1.3.*,<2". The empty specifier (and "*") matches every version.
type Specifier struct {
	raw     string
	clauses []clause
}

// ParseSpecifier parses a specifier string.
func ParseSpecifier(s string) (*Specifier, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	spec := &Specifier{raw: s}
	if s == "" || s == "*" {
		return spec, nil
	}

	for _, part := range strings.Split(s, ",") {
		if part == "" {
			continue
		}
		c, err := parseClause(part)
		if err != nil {
			return nil, err
		}
		spec.clauses = append(spec.clauses, c)
	}
	return spec, nil
}

func parseClause(part string) (clause, error) {
	var c clause
	for _, op := range operators {
		if strings.HasPrefix(part, string(op)) {
			c.op = op
			c.raw = part[len(op):]
			break
		}
	}
	if c.op == "" {
		// a bare version means ==
		c.op, c.raw = opEqual, part
	}
	if c.raw == "" {
		return clause{}, fmt.Errorf("%w: %q", ErrInvalidSpecifier, part)
	}
	if c.op == opArbitrary {
		return c, nil
	}

	body := c.raw
	if strings.HasSuffix(body, ".*") {
		if c.op != opEqual && c.op != opNotEqual {
			return clause{}, fmt.Errorf("%w: wildcard only allowed with == and !=: %q", ErrInvalidSpecifier, part)
		}
		c.wildcard = true
		body = strings.TrimSuffix(body, ".*")
	}
	v, err := Parse(body)
	if err != nil {
		return clause{}, fmt.Errorf("%w: %q: %v", ErrInvalidSpecifier, part, err)
	}
	if c.op == opCompat && len(v.release) < 2 {
		return clause{}, fmt.Errorf("%w: ~= needs at least two release segments: %q", ErrInvalidSpecifier, part)
	}
	c.version = v
	return c, nil
}

// String returns the specifier as written, without whitespace.
func (s *Specifier) String() string { return s.raw }

// Any reports whether the specifier matches every version.
func (s *Specifier) Any() bool { return len(s.clauses) == 0 }

// explicitPrerelease reports whether a clause names a prerelease, which
// opts the whole specifier into matching prereleases.
func (s *Specifier) explicitPrerelease() bool {
	for _, c := range s.clauses {
		if c.version != nil && c.version.IsPrerelease() {
			return true
		}
	}
	return false
}

// Contains reports whether version v satisfies every clause. Prereleases
// only match when allowPre is set or a clause names a prerelease.
func (s *Specifier) Contains(v string, allowPre bool) bool {
	pv, err := Parse(v)
	if err != nil {
		// only arbitrary equality can match an unparsable version
		for _, c := range s.clauses {
			if c.op != opArbitrary || c.raw != v {
				return false
			}
		}
		return true
	}
	if pv.IsPrerelease() && !allowPre && !s.explicitPrerelease() {
		return false
	}
	for _, c := range s.clauses {
		if !c.matches(v, pv) {
			return false
		}
	}
	return true
}

func (c clause) matches(raw string, v *Version) bool {
	switch c.op {
	case opArbitrary:
		return raw == c.raw
	case opEqual:
		if c.wildcard {
			return hasReleasePrefix(v, c.version)
		}
		return v.Compare(c.version) == 0
	case opNotEqual:
		if c.wildcard {
			return !hasReleasePrefix(v, c.version)
		}
		return v.Compare(c.version) != 0
	case opGreaterEq:
		return v.Compare(c.version) >= 0
	case opLessEq:
		return v.Compare(c.version) <= 0
	case opGreater:
		if v.Compare(c.version) <= 0 {
			return false
		}
		// >1.0 does not match 1.0.post1
		return !(v.post >= 0 && c.version.post < 0 && v.compareRelease(c.version) == 0)
	case opLess:
		if v.Compare(c.version) >= 0 {
			return false
		}
		// <2.0 does not match 2.0rc1
		return !(v.IsPrerelease() && !c.version.IsPrerelease() && v.compareRelease(c.version) == 0)
	case opCompat:
		if v.Compare(c.version) < 0 {
			return false
		}
		prefix := &Version{epoch: c.version.epoch, release: c.version.release[:len(c.version.release)-1]}
		return hasReleasePrefix(v, prefix)
	}
	return false
}

func hasReleasePrefix(v, prefix *Version) bool {
	if v.epoch != prefix.epoch {
		return false
	}
	for i, seg := range prefix.release {
		if v.segment(i) != seg {
			return false
		}
	}
	return true
}

// Filter returns the versions matched by spec, newest first.
func Filter(spec string, versions []string, allowPre bool) ([]string, error) {
	s, err := ParseSpecifier(spec)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(versions))
	for _, v := range versions {
		if s.Contains(v, allowPre) {
			out = append(out, v)
		}
	}
	SortDescending(out)
	return out, nil
}
