package knowledge

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/matzehuels/stackadvisor/pkg/integrations"
	"github.com/matzehuels/stackadvisor/pkg/integrations/pypi"
	"github.com/matzehuels/stackadvisor/pkg/python"
	"github.com/matzehuels/stackadvisor/pkg/version"
)

// DefaultPyPIRate is the request rate used against pypi.org.
const DefaultPyPIRate = 20

// PyPI is a [KnowledgeBase] backed by the PyPI JSON API. Only releases on
// [python.DefaultIndexURL] are known; build errors and performance are not.
type PyPI struct {
	client  *pypi.Client
	refresh bool
}

var _ KnowledgeBase = (*PyPI)(nil)

// NewPyPI wraps client. Requests are paced to [DefaultPyPIRate] per second.
// When refresh is set, cached API responses are ignored.
func NewPyPI(client *pypi.Client, refresh bool) *PyPI {
	client.SetRateLimit(DefaultPyPIRate, DefaultPyPIRate)
	return &PyPI{client: client, refresh: refresh}
}

// GetPackageVersions implements [KnowledgeBase].
func (p *PyPI) GetPackageVersions(ctx context.Context, name string, env python.RuntimeEnvironment) ([]python.PackageTuple, error) {
	info, err := p.client.FetchPackage(ctx, name, p.refresh)
	if errors.Is(err, integrations.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	versions := make([]string, 0, len(info.Versions))
	for _, v := range info.Versions {
		if rp := info.Requires[v]; rp != "" && !pythonCompatible(rp, env.PythonVersion) {
			continue
		}
		versions = append(versions, v)
	}
	version.SortDescending(versions)

	tuples := make([]python.PackageTuple, 0, len(versions))
	for _, v := range versions {
		tuples = append(tuples, python.NewPackageTuple(info.Name, v, python.DefaultIndexURL))
	}
	return tuples, nil
}

// pythonCompatible evaluates Requires-Python against the target
// interpreter. An unknown interpreter or an unparsable constraint is
// treated as compatible.
func pythonCompatible(requires, pythonVersion string) bool {
	if pythonVersion == "" {
		return true
	}
	spec, err := version.ParseSpecifier(requires)
	if err != nil {
		return true
	}
	return spec.Contains(pythonVersion, true)
}

// GetDependencies implements [KnowledgeBase]. Requirements PyPI serves in a
// form this package does not understand are skipped.
func (p *PyPI) GetDependencies(ctx context.Context, t python.PackageTuple, _ python.RuntimeEnvironment) ([]python.Requirement, error) {
	if indexOrDefault(t.Index) != python.DefaultIndexURL {
		return nil, nil
	}
	rel, err := p.client.FetchRelease(ctx, t.Name, t.Version, p.refresh)
	if errors.Is(err, integrations.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	reqs := make([]python.Requirement, 0, len(rel.RequiresDist))
	for _, s := range rel.RequiresDist {
		req, err := python.ParseRequirement(s)
		if err != nil {
			continue
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

// HasBuildError implements [KnowledgeBase]. PyPI carries no build data.
func (p *PyPI) HasBuildError(context.Context, python.PackageTuple, python.RuntimeEnvironment) (bool, error) {
	return false, nil
}

// GetCVERecords implements [KnowledgeBase] from the vulnerabilities PyPI
// attaches to the release.
func (p *PyPI) GetCVERecords(ctx context.Context, name, ver string) ([]CVERecord, error) {
	rel, err := p.client.FetchRelease(ctx, name, ver, p.refresh)
	if errors.Is(err, integrations.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	records := make([]CVERecord, 0, len(rel.Vulnerabilities))
	for _, v := range rel.Vulnerabilities {
		rec := CVERecord{
			ID:       v.ID,
			Package:  python.NormalizeName(name),
			Advisory: v.Summary,
			Link:     v.Link,
		}
		for _, alias := range v.Aliases {
			if strings.HasPrefix(alias, "CVE-") {
				rec.ID = alias
				break
			}
		}
		if rec.Advisory == "" {
			rec.Advisory = v.Details
		}
		if len(v.FixedIn) > 0 {
			rec.VersionRange = "<" + v.FixedIn[0]
		}
		records = append(records, rec)
	}
	return records, nil
}

// ComputeAveragePerformance implements [KnowledgeBase]. PyPI carries no
// performance data.
func (p *PyPI) ComputeAveragePerformance(context.Context, []python.PackageTuple, python.RuntimeEnvironment) (float64, error) {
	return math.NaN(), nil
}

// IsIndexEnabled implements [KnowledgeBase].
func (p *PyPI) IsIndexEnabled(context.Context, string) (bool, error) {
	return true, nil
}

// Close implements [KnowledgeBase].
func (p *PyPI) Close() error { return nil }
