// Package units provides the built-in pipeline units.
//
// Steps:
//   - cve_penalization: lowers the score of candidates with known
//     vulnerabilities.
//   - build_error: rejects candidates that fail to build in the target
//     environment.
//
// Sieves:
//   - index_enabled: removes candidates hosted on disabled indexes.
//   - cut_prereleases: removes prereleases unless the project allows them.
//   - limit_latest_versions: keeps only the newest N candidates.
//
// Strides:
//   - performance: scores final states by observed performance.
//   - score_filter: rejects final states scoring below a threshold.
//
// Wraps:
//   - info: summarizes accepted final states.
//
// [All] lists every descriptor; pass it to [pipeline.NewRegistry].
package units

import (
	"github.com/matzehuels/stackadvisor/pkg/pipeline"
	"github.com/matzehuels/stackadvisor/pkg/resolution"
)

// All is every built-in unit in the order they are assembled.
var All = []*pipeline.Descriptor{
	IndexEnabled,
	CutPrereleases,
	LimitLatestVersions,
	BuildError,
	CvePenalization,
	Performance,
	ScoreFilter,
	Info,
}

// Registry returns a registry of the built-in units.
func Registry() *pipeline.Registry {
	reg, err := pipeline.NewRegistry(All...)
	if err != nil {
		panic(err) // names are unique by construction
	}
	return reg
}

func always(*pipeline.BuildContext) []pipeline.Configuration {
	return []pipeline.Configuration{nil}
}

func unless(types ...resolution.RecommendationType) func(*pipeline.BuildContext) []pipeline.Configuration {
	return func(bc *pipeline.BuildContext) []pipeline.Configuration {
		for _, t := range types {
			if bc.RecommendationType == t {
				return nil
			}
		}
		return always(bc)
	}
}

func only(types ...resolution.RecommendationType) func(*pipeline.BuildContext) []pipeline.Configuration {
	return func(bc *pipeline.BuildContext) []pipeline.Configuration {
		for _, t := range types {
			if bc.RecommendationType == t {
				return always(bc)
			}
		}
		return nil
	}
}
