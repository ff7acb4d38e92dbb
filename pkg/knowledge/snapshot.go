package knowledge

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/stackadvisor/pkg/errors"
	"github.com/matzehuels/stackadvisor/pkg/python"
)

// Snapshot is a serializable dump of a knowledge base.
type Snapshot struct {
	Indexes     []IndexRecord       `json:"indexes,omitempty" yaml:"indexes,omitempty"`
	Packages    []PackageRecord     `json:"packages,omitempty" yaml:"packages,omitempty"`
	CVEs        []CVERecord         `json:"cves,omitempty" yaml:"cves,omitempty"`
	Performance []PerformanceRecord `json:"performance,omitempty" yaml:"performance,omitempty"`
}

// IndexRecord marks an index as enabled or disabled.
type IndexRecord struct {
	URL     string `json:"url" yaml:"url" bson:"url"`
	Enabled bool   `json:"enabled" yaml:"enabled" bson:"enabled"`
}

// PackageRecord is one release together with its requirements and the
// environments it failed to build in.
type PackageRecord struct {
	Name        string        `json:"name" yaml:"name" bson:"name"`
	Version     string        `json:"version" yaml:"version" bson:"version"`
	Index       string        `json:"index,omitempty" yaml:"index,omitempty" bson:"index"`
	Requires    []string      `json:"requires,omitempty" yaml:"requires,omitempty" bson:"-"`
	BuildErrors []EnvSelector `json:"build_errors,omitempty" yaml:"build_errors,omitempty" bson:"-"`
}

// Tuple returns the release identity.
func (r PackageRecord) Tuple() python.PackageTuple {
	return python.NewPackageTuple(r.Name, r.Version, indexOrDefault(r.Index))
}

// PerformanceRecord is a performance indicator observed for a release.
type PerformanceRecord struct {
	Name        string  `json:"name" yaml:"name" bson:"name"`
	Version     string  `json:"version" yaml:"version" bson:"version"`
	Index       string  `json:"index,omitempty" yaml:"index,omitempty" bson:"index"`
	Score       float64 `json:"score" yaml:"score" bson:"score"`
	EnvSelector `yaml:",inline" bson:",inline"`
}

// Tuple returns the release identity.
func (r PerformanceRecord) Tuple() python.PackageTuple {
	return python.NewPackageTuple(r.Name, r.Version, indexOrDefault(r.Index))
}

// ParseSnapshot decodes a YAML snapshot.
func ParseSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse knowledge snapshot")
	}
	for i, p := range s.Packages {
		if p.Name == "" || p.Version == "" {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "knowledge snapshot: package #%d needs name and version", i)
		}
		for _, r := range p.Requires {
			if _, err := python.ParseRequirement(r); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "knowledge snapshot: %s==%s", p.Name, p.Version)
			}
		}
	}
	return &s, nil
}

// LoadSnapshot reads a YAML snapshot file.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read %s", path)
	}
	return ParseSnapshot(data)
}
