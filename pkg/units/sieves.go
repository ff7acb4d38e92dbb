package units

import (
	"fmt"

	"github.com/matzehuels/stackadvisor/pkg/pipeline"
	"github.com/matzehuels/stackadvisor/pkg/python"
	"github.com/matzehuels/stackadvisor/pkg/resolution"
	"github.com/matzehuels/stackadvisor/pkg/state"
	"github.com/matzehuels/stackadvisor/pkg/version"
)

// IndexEnabled removes candidates served from disabled indexes.
var IndexEnabled = &pipeline.Descriptor{
	Name:          "index_enabled",
	Kind:          pipeline.KindSieve,
	Defaults:      pipeline.Configuration{},
	New:           func(b pipeline.Base) (pipeline.Unit, error) { return &IndexEnabledSieve{Base: b}, nil },
	ShouldInclude: always,
}

// IndexEnabledSieve keeps candidates whose index the knowledge base
// reports as enabled.
type IndexEnabledSieve struct {
	pipeline.Base
	enabled map[string]bool
}

// PreRun implements [pipeline.Unit].
func (s *IndexEnabledSieve) PreRun(*resolution.Context) error {
	s.enabled = make(map[string]bool)
	return nil
}

// Run implements [pipeline.Sieve].
func (s *IndexEnabledSieve) Run(c *resolution.Context, candidates []python.PackageTuple) ([]python.PackageTuple, error) {
	if s.enabled == nil {
		s.enabled = make(map[string]bool)
	}
	kept := candidates[:0:0]
	for _, t := range candidates {
		enabled, ok := s.enabled[t.Index]
		if !ok {
			var err error
			if enabled, err = c.KB.IsIndexEnabled(c.Ctx(), t.Index); err != nil {
				return nil, err
			}
			s.enabled[t.Index] = enabled
			if !enabled {
				c.AddStackInfoOnce("index_disabled:"+t.Index, state.Warning(fmt.Sprintf("Index %s is disabled, its packages are not considered", t.Index)))
			}
		}
		if enabled {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 && len(candidates) > 0 {
		return nil, fmt.Errorf("%w: every candidate of %s comes from a disabled index", pipeline.ErrCannotRemovePackage, candidates[0].Name)
	}
	return kept, nil
}

// CutPrereleases removes prereleases for projects that do not allow them.
var CutPrereleases = &pipeline.Descriptor{
	Name:     "cut_prereleases",
	Kind:     pipeline.KindSieve,
	Defaults: pipeline.Configuration{},
	New:      func(b pipeline.Base) (pipeline.Unit, error) { return &CutPrereleasesSieve{Base: b}, nil },
	ShouldInclude: func(bc *pipeline.BuildContext) []pipeline.Configuration {
		if bc.Project != nil && bc.Project.AllowPrereleases {
			return nil
		}
		return always(bc)
	},
}

// CutPrereleasesSieve drops prerelease candidates. When a package has
// nothing but prereleases they are kept: the specifier asked for them.
type CutPrereleasesSieve struct {
	pipeline.Base
}

// Run implements [pipeline.Sieve].
func (s *CutPrereleasesSieve) Run(c *resolution.Context, candidates []python.PackageTuple) ([]python.PackageTuple, error) {
	kept := candidates[:0:0]
	for _, t := range candidates {
		if !version.IsPrerelease(t.Version) {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		return candidates, nil
	}
	return kept, nil
}

// DefaultLimitLatestVersions is how many candidates limit_latest_versions
// keeps.
const DefaultLimitLatestVersions = 5

// LimitLatestVersions bounds the candidates considered per package.
var LimitLatestVersions = &pipeline.Descriptor{
	Name:          "limit_latest_versions",
	Kind:          pipeline.KindSieve,
	Defaults:      pipeline.Configuration{"limit_latest_versions": DefaultLimitLatestVersions},
	New:           newLimitLatestVersionsSieve,
	ShouldInclude: only(resolution.RecommendationLatest),
}

// LimitLatestVersionsSieve keeps the newest N candidates. A non-positive
// limit keeps everything.
type LimitLatestVersionsSieve struct {
	pipeline.Base
	limit int
}

func newLimitLatestVersionsSieve(b pipeline.Base) (pipeline.Unit, error) {
	limit, err := b.Config().Int("limit_latest_versions")
	if err != nil {
		return nil, err
	}
	return &LimitLatestVersionsSieve{Base: b, limit: limit}, nil
}

// Run implements [pipeline.Sieve].
func (s *LimitLatestVersionsSieve) Run(_ *resolution.Context, candidates []python.PackageTuple) ([]python.PackageTuple, error) {
	if s.limit <= 0 || len(candidates) <= s.limit {
		return candidates, nil
	}
	return candidates[:s.limit], nil
}
