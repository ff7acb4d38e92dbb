package knowledge

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/matzehuels/stackadvisor/pkg/python"
	"github.com/matzehuels/stackadvisor/pkg/version"
)

// Memory is a [KnowledgeBase] held entirely in memory.
type Memory struct {
	mu          sync.RWMutex
	releases    map[string][]PackageRecord // normalized name -> releases
	cves        map[string][]CVERecord     // normalized name -> records
	performance map[python.PackageTuple][]PerformanceRecord
	indexes     map[string]bool
}

var _ KnowledgeBase = (*Memory)(nil)

// NewMemory returns an empty in-memory knowledge base.
func NewMemory() *Memory {
	return &Memory{
		releases:    make(map[string][]PackageRecord),
		cves:        make(map[string][]CVERecord),
		performance: make(map[python.PackageTuple][]PerformanceRecord),
		indexes:     make(map[string]bool),
	}
}

// NewMemoryFromSnapshot returns a knowledge base populated from s.
func NewMemoryFromSnapshot(s *Snapshot) *Memory {
	m := NewMemory()
	m.Load(s)
	return m
}

// LoadMemory reads a YAML snapshot file into a new knowledge base.
func LoadMemory(path string) (*Memory, error) {
	s, err := LoadSnapshot(path)
	if err != nil {
		return nil, err
	}
	return NewMemoryFromSnapshot(s), nil
}

// Load merges s into the knowledge base. A release already present is
// replaced.
func (m *Memory) Load(s *Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, idx := range s.Indexes {
		m.indexes[idx.URL] = idx.Enabled
	}
	for _, p := range s.Packages {
		p.Name = python.NormalizeName(p.Name)
		p.Index = indexOrDefault(p.Index)
		m.putRelease(p)
	}
	for _, c := range s.CVEs {
		name := python.NormalizeName(c.Package)
		c.Package = name
		m.cves[name] = append(m.cves[name], c)
	}
	for _, p := range s.Performance {
		p.Name = python.NormalizeName(p.Name)
		p.Index = indexOrDefault(p.Index)
		m.performance[p.Tuple()] = append(m.performance[p.Tuple()], p)
	}
}

func (m *Memory) putRelease(p PackageRecord) {
	list := m.releases[p.Name]
	for i, existing := range list {
		if existing.Version == p.Version && existing.Index == p.Index {
			list[i] = p
			return
		}
	}
	list = append(list, p)
	sort.SliceStable(list, func(i, j int) bool {
		return version.Compare(list[i].Version, list[j].Version) > 0
	})
	m.releases[p.Name] = list
}

func (m *Memory) release(t python.PackageTuple) (PackageRecord, bool) {
	for _, r := range m.releases[python.NormalizeName(t.Name)] {
		if r.Version == t.Version && r.Index == indexOrDefault(t.Index) {
			return r, true
		}
	}
	return PackageRecord{}, false
}

// GetPackageVersions implements [KnowledgeBase].
func (m *Memory) GetPackageVersions(_ context.Context, name string, _ python.RuntimeEnvironment) ([]python.PackageTuple, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := m.releases[python.NormalizeName(name)]
	tuples := make([]python.PackageTuple, 0, len(list))
	for _, r := range list {
		tuples = append(tuples, r.Tuple())
	}
	return tuples, nil
}

// GetDependencies implements [KnowledgeBase].
func (m *Memory) GetDependencies(_ context.Context, t python.PackageTuple, _ python.RuntimeEnvironment) ([]python.Requirement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.release(t)
	if !ok {
		return nil, nil
	}
	reqs := make([]python.Requirement, 0, len(r.Requires))
	for _, s := range r.Requires {
		req, err := python.ParseRequirement(s)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

// HasBuildError implements [KnowledgeBase].
func (m *Memory) HasBuildError(_ context.Context, t python.PackageTuple, env python.RuntimeEnvironment) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.release(t)
	if !ok {
		return false, nil
	}
	for _, sel := range r.BuildErrors {
		if sel.Matches(env) {
			return true, nil
		}
	}
	return false, nil
}

// GetCVERecords implements [KnowledgeBase].
func (m *Memory) GetCVERecords(_ context.Context, name, ver string) ([]CVERecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []CVERecord
	for _, c := range m.cves[python.NormalizeName(name)] {
		spec, err := version.ParseSpecifier(c.VersionRange)
		if err != nil {
			return nil, err
		}
		if spec.Contains(ver, true) {
			out = append(out, c)
		}
	}
	return out, nil
}

// ComputeAveragePerformance implements [KnowledgeBase].
func (m *Memory) ComputeAveragePerformance(_ context.Context, tuples []python.PackageTuple, env python.RuntimeEnvironment) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var sum float64
	var n int
	for _, t := range tuples {
		t.Name = python.NormalizeName(t.Name)
		t.Index = indexOrDefault(t.Index)
		for _, p := range m.performance[t] {
			if p.Matches(env) {
				sum += p.Score
				n++
			}
		}
	}
	if n == 0 {
		return math.NaN(), nil
	}
	return sum / float64(n), nil
}

// IsIndexEnabled implements [KnowledgeBase].
func (m *Memory) IsIndexEnabled(_ context.Context, url string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	enabled, ok := m.indexes[url]
	return !ok || enabled, nil
}

// Snapshot dumps the knowledge base content.
func (m *Memory) Snapshot() *Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := &Snapshot{}
	for url, enabled := range m.indexes {
		s.Indexes = append(s.Indexes, IndexRecord{URL: url, Enabled: enabled})
	}
	sort.Slice(s.Indexes, func(i, j int) bool { return s.Indexes[i].URL < s.Indexes[j].URL })

	for _, name := range sortedKeys(m.releases) {
		s.Packages = append(s.Packages, m.releases[name]...)
	}
	for _, name := range sortedKeys(m.cves) {
		s.CVEs = append(s.CVEs, m.cves[name]...)
	}
	perf := make([]python.PackageTuple, 0, len(m.performance))
	for t := range m.performance {
		perf = append(perf, t)
	}
	sort.Slice(perf, func(i, j int) bool { return perf[i].String() < perf[j].String() })
	for _, t := range perf {
		s.Performance = append(s.Performance, m.performance[t]...)
	}
	return s
}

// Close implements [KnowledgeBase].
func (m *Memory) Close() error { return nil }

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
