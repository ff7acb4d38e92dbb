package resolver

import (
	"slices"
	"time"

	"github.com/matzehuels/stackadvisor/pkg/python"
	"github.com/matzehuels/stackadvisor/pkg/resolution"
	"github.com/matzehuels/stackadvisor/pkg/state"
)

// Termination reasons reported in [Stats].
const (
	TerminationLimit      = "limit"
	TerminationExhausted  = "exhausted"
	TerminationIterations = "iterations"
	TerminationTimeout    = "timeout"
	TerminationMemory     = "memory"
	TerminationCancelled  = "cancelled"
	TerminationError      = "error"
)

// Report is the outcome of a resolver run.
type Report struct {
	ID        string                `json:"id"`
	Products  []Product             `json:"products"`
	StackInfo []state.Justification `json:"stack_info"`
	Stats     Stats                 `json:"stats"`
}

// Stats summarizes a run.
type Stats struct {
	Iterations  int           `json:"iterations"`
	Accepted    int           `json:"accepted"`
	Discarded   int           `json:"discarded"`
	Duration    time.Duration `json:"duration"`
	Termination string        `json:"termination"`
}

// Product is one recommended stack.
type Product struct {
	Score                     float64                    `json:"score"`
	Iteration                 int                        `json:"iteration"`
	Justification             []state.Justification      `json:"justification"`
	Lockfile                  *python.Lockfile           `json:"lockfile"`
	AdvisedRuntimeEnvironment *python.RuntimeEnvironment `json:"advised_runtime_environment,omitempty"`
	Packages                  []python.PackageTuple      `json:"packages"`
	// Dependencies maps a package name to the names it requires within
	// the stack.
	Dependencies map[string][]string `json:"dependencies"`
}

// Best returns the top product, or nil when none was found.
func (r *Report) Best() *Product {
	if r == nil || len(r.Products) == 0 {
		return nil
	}
	return &r.Products[0]
}

// ranked holds the best accepted final states, ordered by score
// descending, then creation iteration ascending, then acceptance order.
type ranked struct {
	count  int
	states []*state.State
}

func better(a, b *state.State) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Iteration < b.Iteration
}

func (r *ranked) add(s *state.State) {
	i, _ := slices.BinarySearchFunc(r.states, s, func(e, t *state.State) int {
		if better(t, e) {
			return 1
		}
		return -1
	})
	if i >= r.count {
		return
	}
	r.states = slices.Insert(r.states, i, s)
	if len(r.states) > r.count {
		r.states[len(r.states)-1] = nil
		r.states = r.states[:r.count]
	}
}

func newProduct(c *resolution.Context, s *state.State) Product {
	pkgs := s.ResolvedDependencies()
	deps := make(map[string][]string, len(pkgs))
	for _, t := range pkgs {
		names := []string{}
		reqs, err := c.Dependencies(t)
		if err == nil {
			for _, r := range reqs {
				if _, ok := s.ResolvedDependency(r.Name); ok && !slices.Contains(names, r.Name) {
					names = append(names, r.Name)
				}
			}
		}
		slices.Sort(names)
		deps[t.Name] = names
	}
	return Product{
		Score:                     s.Score,
		Iteration:                 s.Iteration,
		Justification:             s.Justification,
		Lockfile:                  python.NewLockfile(c.Project, pkgs),
		AdvisedRuntimeEnvironment: s.AdvisedRuntimeEnvironment,
		Packages:                  pkgs,
		Dependencies:              deps,
	}
}
