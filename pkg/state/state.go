package state

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"weak"

	"github.com/matzehuels/stackadvisor/pkg/python"
)

// DefaultEpsilon is the probability of leaving the first candidate when
// picking an unresolved dependency with preferRecent set.
const DefaultEpsilon = 0.1

var (
	// ErrStateConsistency is returned by [State.MarkDependencyResolved] when a
	// different tuple is already resolved for the same package name. It is
	// branch-fatal: the state being built is discarded.
	ErrStateConsistency = errors.New("state consistency violated")

	// ErrNoUnresolvedDependency is returned when an unresolved dependency is
	// requested from a state (or a name) that has none. Callers are expected
	// to check [State.IsFinal] first, so this signals a programming error.
	ErrNoUnresolvedDependency = errors.New("no unresolved dependency")
)

// State is a node in the resolution search tree: a partially or fully
// resolved assignment of package tuples.
//
// Every package name is either unresolved, with an ordered set of candidate
// tuples still viable for it, or resolved to exactly one tuple. Insertion order
// of unresolved names and of the candidates within a name is preserved and
// defines the default expansion order.
//
// The zero value is not usable; create states with [New] or
// [FromDirectDependencies]. A State is not safe for concurrent use.
type State struct {
	// Score accumulated by pipeline units; higher is better.
	Score float64
	// Iteration of the resolver loop that created the state.
	Iteration int
	// AdvisedRuntimeEnvironment holds environment adjustments derived by
	// pipeline units, nil when there are none.
	AdvisedRuntimeEnvironment *python.RuntimeEnvironment
	// Justification is the append-only annotation log.
	Justification []Justification

	unresolved unresolvedMap
	resolved   map[string]python.PackageTuple
	parent     weak.Pointer[State]
}

// New creates an empty state, which is final.
func New() *State {
	return &State{
		unresolved: newUnresolvedMap(),
		resolved:   make(map[string]python.PackageTuple),
	}
}

// FromDirectDependencies builds the initial state of a resolution: every
// given tuple becomes an unresolved candidate. Names are inserted in sorted
// order so that the expansion order does not depend on map iteration; the
// order of tuples within a name is kept.
func FromDirectDependencies(deps map[string][]python.PackageTuple) *State {
	s := New()
	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, t := range deps[name] {
			s.AddUnresolvedDependency(t)
		}
	}
	return s
}

// AddUnresolvedDependency inserts t as a candidate for t.Name. Adding the same
// tuple twice has no effect.
func (s *State) AddUnresolvedDependency(t python.PackageTuple) {
	s.unresolved.getOrCreate(t.Name).add(t)
}

// RemoveUnresolvedDependency drops one candidate. The name itself is dropped
// when its last candidate goes. It reports whether t was present.
func (s *State) RemoveUnresolvedDependency(t python.PackageTuple) bool {
	b, ok := s.unresolved.get(t.Name)
	if !ok || !b.remove(t) {
		return false
	}
	if len(b.items) == 0 {
		s.unresolved.delete(t.Name)
	}
	return true
}

// RemoveUnresolvedName drops every candidate of name. It reports whether the
// name was unresolved.
func (s *State) RemoveUnresolvedName(name string) bool {
	return s.unresolved.delete(name)
}

// SetUnresolvedCandidates replaces the candidates of name, keeping the name's
// position in the expansion order. An empty list removes the name.
func (s *State) SetUnresolvedCandidates(name string, tuples []python.PackageTuple) {
	if len(tuples) == 0 {
		s.unresolved.delete(name)
		return
	}
	b := newBucket()
	for _, t := range tuples {
		b.add(t)
	}
	if _, ok := s.unresolved.get(name); !ok {
		s.unresolved.names = append(s.unresolved.names, name)
	}
	s.unresolved.buckets[name] = b
}

// MarkDependencyResolved removes t's name from the unresolved set and records
// t as the resolved tuple for the name. It fails with [ErrStateConsistency]
// if a different tuple is already resolved for the name; resolving the same
// tuple again is a no-op.
func (s *State) MarkDependencyResolved(t python.PackageTuple) error {
	if prev, ok := s.resolved[t.Name]; ok && prev != t {
		return fmt.Errorf("%w: %s already resolved to %s, cannot resolve to %s",
			ErrStateConsistency, t.Name, prev, t)
	}
	s.unresolved.delete(t.Name)
	s.resolved[t.Name] = t
	return nil
}

// FirstUnresolvedDependency returns the first inserted candidate of the given
// name or, when no name is passed, of the first inserted unresolved name.
func (s *State) FirstUnresolvedDependency(name ...string) (python.PackageTuple, error) {
	b, err := s.bucketFor(name...)
	if err != nil {
		return python.PackageTuple{}, err
	}
	return b.items[0], nil
}

// RandomUnresolvedDependency picks a candidate of the given name, or of a
// uniformly chosen unresolved name when name is empty.
//
// With preferRecent the choice is epsilon-greedy: with probability 1-ε the
// first candidate (the newest, since candidates are inserted newest first)
// is taken; otherwise an index is drawn from a triangular distribution that
// favors low indices. Without preferRecent every candidate is equally likely.
func (s *State) RandomUnresolvedDependency(rng *rand.Rand, name string, preferRecent bool) (python.PackageTuple, error) {
	if name == "" && s.unresolved.len() > 0 {
		name = s.unresolved.names[rng.IntN(s.unresolved.len())]
	}
	b, err := s.bucketFor(name)
	if err != nil {
		return python.PackageTuple{}, err
	}
	n := len(b.items)
	if !preferRecent {
		return b.items[rng.IntN(n)], nil
	}
	if rng.Float64() >= DefaultEpsilon {
		return b.items[0], nil
	}
	u := rng.Float64() * float64(TriangularNumber(n))
	return b.items[triangularIndex(n, u)], nil
}

func (s *State) bucketFor(name ...string) (*bucket, error) {
	if len(name) == 0 || name[0] == "" {
		if s.unresolved.len() == 0 {
			return nil, ErrNoUnresolvedDependency
		}
		return s.unresolved.buckets[s.unresolved.names[0]], nil
	}
	b, ok := s.unresolved.get(name[0])
	if !ok || len(b.items) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoUnresolvedDependency, name[0])
	}
	return b, nil
}

// UnresolvedNames lists unresolved package names in insertion order.
func (s *State) UnresolvedNames() []string {
	return append([]string(nil), s.unresolved.names...)
}

// UnresolvedCandidates lists the candidates of name in insertion order.
func (s *State) UnresolvedCandidates(name string) []python.PackageTuple {
	b, ok := s.unresolved.get(name)
	if !ok {
		return nil
	}
	return append([]python.PackageTuple(nil), b.items...)
}

// IsUnresolved reports whether name has unresolved candidates.
func (s *State) IsUnresolved(name string) bool {
	_, ok := s.unresolved.get(name)
	return ok
}

// UnresolvedCount returns the number of unresolved package names.
func (s *State) UnresolvedCount() int { return s.unresolved.len() }

// ResolvedDependency returns the tuple resolved for name.
func (s *State) ResolvedDependency(name string) (python.PackageTuple, bool) {
	t, ok := s.resolved[name]
	return t, ok
}

// ResolvedDependencies returns the resolved tuples sorted by name.
func (s *State) ResolvedDependencies() []python.PackageTuple {
	out := make([]python.PackageTuple, 0, len(s.resolved))
	for _, t := range s.resolved {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ResolvedCount returns the number of resolved package names.
func (s *State) ResolvedCount() int { return len(s.resolved) }

// AddJustification appends records to the justification log.
func (s *State) AddJustification(j ...Justification) {
	s.Justification = append(s.Justification, j...)
}

// IsFinal reports whether no unresolved dependency remains.
func (s *State) IsFinal() bool {
	return s.unresolved.len() == 0
}

// Parent returns the state s was cloned from, or nil if it has been
// reclaimed or s is a root. The parent is kept for diagnostics only.
func (s *State) Parent() *State {
	return s.parent.Value()
}

// Clone returns an independent copy of s whose parent is s. Containers are
// copied so that mutating the clone never affects s.
func (s *State) Clone() *State {
	c := &State{
		Score:                     s.Score,
		Iteration:                 s.Iteration,
		AdvisedRuntimeEnvironment: s.AdvisedRuntimeEnvironment.Clone(),
		unresolved:                s.unresolved.clone(),
		resolved:                  make(map[string]python.PackageTuple, len(s.resolved)),
		parent:                    weak.Make(s),
	}
	for name, t := range s.resolved {
		c.resolved[name] = t
	}
	if s.Justification != nil {
		c.Justification = make([]Justification, len(s.Justification))
		for i, j := range s.Justification {
			c.Justification[i] = j.clone()
		}
	}
	return c
}

// String summarizes the state for logs.
func (s *State) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "State(score=%g, iteration=%d, resolved=%d, unresolved=[", s.Score, s.Iteration, len(s.resolved))
	b.WriteString(strings.Join(s.unresolved.names, " "))
	b.WriteString("])")
	return b.String()
}
