package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Keyer builds cache keys for knowledge base lookups and stored reports.
//
// Package names are expected in normalized form; index URLs are kept verbatim
// because two indexes may serve different artifacts under the same name.
type Keyer interface {
	// HTTPKey generates a key for a raw HTTP response body.
	HTTPKey(namespace, key string) string
	// VersionsKey generates a key for the known versions of a package on an index.
	VersionsKey(index, name string) string
	// DependenciesKey generates a key for the requirements of one package tuple.
	DependenciesKey(name, version, index string, env EnvKeyOpts) string
	// CVEKey generates a key for the vulnerability records of one package tuple.
	CVEKey(name, version, index string) string
	// BuildErrorKey generates a key for the build-error flag of one package tuple.
	BuildErrorKey(name, version, index string, env EnvKeyOpts) string
	// IndexKey generates a key for the enabled flag of an index.
	IndexKey(index string) string
	// PerformanceKey generates a key for an averaged performance indicator.
	PerformanceKey(name, version, index string, env EnvKeyOpts) string
	// ReportKey generates a key for a stored advise report.
	ReportKey(id string) string
}

// EnvKeyOpts captures the runtime environment fields that change the answer of
// an environment-sensitive query.
type EnvKeyOpts struct {
	OS            string `json:"os,omitempty"`
	OSVersion     string `json:"os_version,omitempty"`
	PythonVersion string `json:"python_version,omitempty"`
	Hardware      string `json:"hardware,omitempty"`
}

// DefaultKeyer is the standard [Keyer] implementation.
//
// Simple lookups use readable keys (versions:<index>:<name>), tuple lookups
// hash their inputs so that long environment descriptions stay bounded.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// HTTPKey generates a key for HTTP response caching.
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// VersionsKey generates a key for package version listings.
func (DefaultKeyer) VersionsKey(index, name string) string {
	return "versions:" + index + ":" + strings.ToLower(name)
}

// DependenciesKey generates a key for package requirements.
func (DefaultKeyer) DependenciesKey(name, version, index string, env EnvKeyOpts) string {
	return tupleKey("deps", name, version, index, &env)
}

// CVEKey generates a key for vulnerability records.
func (DefaultKeyer) CVEKey(name, version, index string) string {
	return tupleKey("cve", name, version, index, nil)
}

// BuildErrorKey generates a key for build-error flags.
func (DefaultKeyer) BuildErrorKey(name, version, index string, env EnvKeyOpts) string {
	return tupleKey("builderr", name, version, index, &env)
}

// IndexKey generates a key for index enabled flags.
func (DefaultKeyer) IndexKey(index string) string {
	return "index:" + index
}

// PerformanceKey generates a key for performance indicators.
func (DefaultKeyer) PerformanceKey(name, version, index string, env EnvKeyOpts) string {
	return tupleKey("perf", name, version, index, &env)
}

// ReportKey generates a key for stored reports.
func (DefaultKeyer) ReportKey(id string) string {
	return "report:" + id
}

var _ Keyer = DefaultKeyer{}

// tupleKey hashes a package tuple and its environment into prefix:<hex>.
// Fields are separated by NUL so that adjacent values cannot run together.
func tupleKey(prefix, name, version, index string, env *EnvKeyOpts) string {
	h := sha256.New()
	fields := []string{strings.ToLower(name), version, index}
	if env != nil {
		fields = append(fields, env.OS, env.OSVersion, env.PythonVersion, env.Hardware)
	}
	for _, f := range fields {
		h.Write([]byte(f))
		h.Write([]byte{0})
	}
	return prefix + ":" + hex.EncodeToString(h.Sum(nil))
}
