// Package beam implements the bounded working set of a beam search.
//
// A [Beam] holds at most Width live states. States are ordered by score,
// ties broken by the iteration that created them (older first) and then by
// insertion order (earlier first). When the beam is full a new state only
// enters by evicting the worst live state, and only if its score is strictly
// higher, so the first registered state wins ties.
//
// Membership is by identity: adding the same *State twice is a no-op, two
// distinct states with equal scores are both kept.
package beam

import (
	"container/heap"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/matzehuels/stackadvisor/pkg/state"
)

var (
	// ErrInvalidWidth is returned by [New] for widths below 1.
	ErrInvalidWidth = errors.New("beam width must be at least 1")

	// ErrEmptyBeam is returned by [Beam.Max] and [Beam.Random] on an empty beam.
	ErrEmptyBeam = errors.New("beam is empty")

	// ErrNotFound is returned by [Beam.Remove] for states that are not live.
	ErrNotFound = errors.New("state not found in beam")
)

type entry struct {
	state   *state.State
	seq     uint64
	index   int
	removed bool
}

// worse reports whether a ranks below b: lower score, then higher
// iteration, then later insertion.
func worse(a, b *entry) bool {
	if a.state.Score != b.state.Score {
		return a.state.Score < b.state.Score
	}
	if a.state.Iteration != b.state.Iteration {
		return a.state.Iteration > b.state.Iteration
	}
	return a.seq > b.seq
}

// minHeap keeps the worst live state at the root.
type minHeap []*entry

func (h minHeap) Len() int           { return len(h) }
func (h minHeap) Less(i, j int) bool { return worse(h[i], h[j]) }

func (h minHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *minHeap) Push(x any) {
	e := x.(*entry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *minHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// Beam is a width-bounded set of live states.
//
// A state's Score and Iteration must not change while it is live; remove it,
// mutate, and add it again instead. Beam is not safe for concurrent use.
type Beam struct {
	width   int
	heap    minHeap
	members map[*state.State]*entry
	order   []*entry // insertion order, removed entries trimmed lazily
	seq     uint64
}

// New creates an empty beam holding at most width states.
func New(width int) (*Beam, error) {
	if width < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWidth, width)
	}
	return &Beam{
		width:   width,
		members: make(map[*state.State]*entry),
	}, nil
}

// Width returns the capacity fixed at construction.
func (b *Beam) Width() int { return b.width }

// Len returns the number of live states.
func (b *Beam) Len() int { return len(b.heap) }

// Contains reports whether s is live in the beam.
func (b *Beam) Contains(s *state.State) bool {
	_, ok := b.members[s]
	return ok
}

// Add inserts s. Below capacity s is always inserted. At capacity s replaces
// the worst live state only when its score is strictly higher; otherwise it
// is dropped. Add reports whether s is live afterwards.
func (b *Beam) Add(s *state.State) bool {
	if b.Contains(s) {
		return true
	}
	if len(b.heap) >= b.width {
		if s.Score <= b.heap[0].state.Score {
			return false
		}
		b.drop(heap.Pop(&b.heap).(*entry))
	}

	b.seq++
	e := &entry{state: s, seq: b.seq}
	heap.Push(&b.heap, e)
	b.members[s] = e
	b.order = append(b.order, e)
	return true
}

// Remove deletes s from the beam.
func (b *Beam) Remove(s *state.State) error {
	e, ok := b.members[s]
	if !ok {
		return ErrNotFound
	}
	heap.Remove(&b.heap, e.index)
	b.drop(e)
	return nil
}

func (b *Beam) drop(e *entry) {
	e.removed = true
	delete(b.members, e.state)
	// compact once dead entries dominate the insertion log
	if len(b.order) > 2*len(b.heap)+64 {
		live := b.order[:0]
		for _, o := range b.order {
			if !o.removed {
				live = append(live, o)
			}
		}
		clear(b.order[len(live):])
		b.order = live
	}
}

// Max returns the best live state.
func (b *Beam) Max() (*state.State, error) {
	if len(b.heap) == 0 {
		return nil, ErrEmptyBeam
	}
	best := b.heap[0]
	for _, e := range b.heap[1:] {
		if worse(best, e) {
			best = e
		}
	}
	return best.state, nil
}

// Min returns the worst live state, the next eviction candidate.
func (b *Beam) Min() (*state.State, error) {
	if len(b.heap) == 0 {
		return nil, ErrEmptyBeam
	}
	return b.heap[0].state, nil
}

// Last returns the most recently added live state, or nil if the beam is
// empty.
func (b *Beam) Last() *state.State {
	for len(b.order) > 0 {
		e := b.order[len(b.order)-1]
		if !e.removed {
			return e.state
		}
		b.order[len(b.order)-1] = nil
		b.order = b.order[:len(b.order)-1]
	}
	return nil
}

// Random returns a live state chosen uniformly.
func (b *Beam) Random(rng *rand.Rand) (*state.State, error) {
	if len(b.heap) == 0 {
		return nil, ErrEmptyBeam
	}
	return b.heap[rng.IntN(len(b.heap))].state, nil
}

// States returns the live states in no particular order.
func (b *Beam) States() []*state.State {
	out := make([]*state.State, len(b.heap))
	for i, e := range b.heap {
		out[i] = e.state
	}
	return out
}

// Sorted returns the live states ordered best first when reverse is true,
// worst first otherwise. The order is total, so equal scores always come out
// the same way.
func (b *Beam) Sorted(reverse bool) []*state.State {
	entries := append([]*entry(nil), b.heap...)
	sort.Slice(entries, func(i, j int) bool {
		if reverse {
			return worse(entries[j], entries[i])
		}
		return worse(entries[i], entries[j])
	})
	out := make([]*state.State, len(entries))
	for i, e := range entries {
		out[i] = e.state
	}
	return out
}

// Wipe removes every state.
func (b *Beam) Wipe() {
	for _, e := range b.heap {
		e.removed = true
	}
	b.heap = nil
	b.order = nil
	b.members = make(map[*state.State]*entry)
}
