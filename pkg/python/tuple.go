package python

import (
	"regexp"
	"strings"
)

// DefaultIndexURL is the index used when a project declares no sources.
const DefaultIndexURL = "https://pypi.org/simple"

var nameSepRE = regexp.MustCompile(`[-_.]+`)

// NormalizeName converts a distribution name to its PEP 503 canonical form:
// lowercase, with runs of "-", "_" and "." collapsed to a single "-".
func NormalizeName(name string) string {
	return nameSepRE.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

// PackageTuple identifies one release of a package on one index.
//
// An empty Version or Index denotes a tuple that is not resolved yet. Such
// tuples are used transiently and never reach a final state. PackageTuple is
// comparable and is used directly as a map key.
type PackageTuple struct {
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version" yaml:"version"`
	Index   string `json:"index" yaml:"index"`
}

// NewPackageTuple builds a tuple with a normalized name.
func NewPackageTuple(name, version, index string) PackageTuple {
	return PackageTuple{Name: NormalizeName(name), Version: version, Index: index}
}

// Locked reports whether both version and index are set.
func (t PackageTuple) Locked() bool {
	return t.Version != "" && t.Index != ""
}

// String renders the tuple as name==version (index).
func (t PackageTuple) String() string {
	var b strings.Builder
	b.WriteString(t.Name)
	if t.Version != "" {
		b.WriteString("==")
		b.WriteString(t.Version)
	}
	if t.Index != "" {
		b.WriteString(" (")
		b.WriteString(t.Index)
		b.WriteString(")")
	}
	return b.String()
}
