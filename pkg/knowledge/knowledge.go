package knowledge

import (
	"context"

	"github.com/matzehuels/stackadvisor/pkg/python"
)

// CVERecord is a vulnerability affecting a range of versions of a package.
type CVERecord struct {
	ID           string `json:"id" yaml:"id" bson:"id"`
	Package      string `json:"package" yaml:"package" bson:"package"`
	Advisory     string `json:"advisory,omitempty" yaml:"advisory,omitempty" bson:"advisory,omitempty"`
	VersionRange string `json:"version_range,omitempty" yaml:"version_range,omitempty" bson:"version_range,omitempty"`
	Link         string `json:"link,omitempty" yaml:"link,omitempty" bson:"link,omitempty"`
}

// KnowledgeBase answers the queries the resolver and its pipeline units make.
//
// Environment sensitive queries take the runtime environment of the
// project; zero fields in it match anything. Implementations must be safe
// for concurrent use.
type KnowledgeBase interface {
	// GetPackageVersions lists every known release of name across all
	// indexes, newest first.
	GetPackageVersions(ctx context.Context, name string, env python.RuntimeEnvironment) ([]python.PackageTuple, error)

	// GetDependencies returns the requirements declared by a release.
	// Unknown releases have no requirements.
	GetDependencies(ctx context.Context, t python.PackageTuple, env python.RuntimeEnvironment) ([]python.Requirement, error)

	// HasBuildError reports whether the release is known to fail to build
	// in env.
	HasBuildError(ctx context.Context, t python.PackageTuple, env python.RuntimeEnvironment) (bool, error)

	// GetCVERecords returns the vulnerabilities affecting name at version.
	GetCVERecords(ctx context.Context, name, version string) ([]CVERecord, error)

	// ComputeAveragePerformance averages the performance indicators
	// recorded for the given releases in env. It returns NaN when nothing is
	// known.
	ComputeAveragePerformance(ctx context.Context, tuples []python.PackageTuple, env python.RuntimeEnvironment) (float64, error)

	// IsIndexEnabled reports whether packages may be installed from url.
	IsIndexEnabled(ctx context.Context, url string) (bool, error)

	// Close releases any held resources.
	Close() error
}

// EnvSelector restricts an observation to an environment. Empty fields
// match anything.
type EnvSelector struct {
	OS            string `json:"os,omitempty" yaml:"os,omitempty" bson:"os,omitempty"`
	OSVersion     string `json:"os_version,omitempty" yaml:"os_version,omitempty" bson:"os_version,omitempty"`
	PythonVersion string `json:"python_version,omitempty" yaml:"python_version,omitempty" bson:"python_version,omitempty"`
	CPUFamily     string `json:"cpu_family,omitempty" yaml:"cpu_family,omitempty" bson:"cpu_family,omitempty"`
	CPUModel      string `json:"cpu_model,omitempty" yaml:"cpu_model,omitempty" bson:"cpu_model,omitempty"`
	GPUModel      string `json:"gpu_model,omitempty" yaml:"gpu_model,omitempty" bson:"gpu_model,omitempty"`
}

// Matches reports whether env is covered by the selector. A field unset on
// either side matches.
func (s EnvSelector) Matches(env python.RuntimeEnvironment) bool {
	return field(s.OS, env.OperatingSystem.Name) &&
		field(s.OSVersion, env.OperatingSystem.Version) &&
		field(s.PythonVersion, env.PythonVersion) &&
		field(s.CPUFamily, env.Hardware.CPUFamily) &&
		field(s.CPUModel, env.Hardware.CPUModel) &&
		field(s.GPUModel, env.Hardware.GPUModel)
}

func field(want, got string) bool {
	return want == "" || got == "" || want == got
}

func indexOrDefault(index string) string {
	if index == "" {
		return python.DefaultIndexURL
	}
	return index
}
