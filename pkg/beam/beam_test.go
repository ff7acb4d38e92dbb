package beam

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/matzehuels/stackadvisor/pkg/state"
)

func newState(score float64, iteration int) *state.State {
	s := state.New()
	s.Score = score
	s.Iteration = iteration
	return s
}

func TestNewInvalidWidth(t *testing.T) {
	for _, w := range []int{0, -1, -100} {
		if _, err := New(w); !errors.Is(err, ErrInvalidWidth) {
			t.Errorf("New(%d) error = %v, want ErrInvalidWidth", w, err)
		}
	}
	b, err := New(1)
	if err != nil || b.Width() != 1 {
		t.Errorf("New(1) = %v, %v", b, err)
	}
}

func TestWidthInvariant(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for _, width := range []int{1, 2, 5, 17} {
		b, _ := New(width)
		for i := 0; i < 200; i++ {
			b.Add(newState(rng.Float64()*2-1, rng.IntN(10)))
			if b.Len() > width {
				t.Fatalf("width %d: Len() = %d after %d adds", width, b.Len(), i+1)
			}
			if i%7 == 0 && b.Len() > 0 {
				s, _ := b.Random(rng)
				if err := b.Remove(s); err != nil {
					t.Fatal(err)
				}
			}
		}
		if b.Width() != width {
			t.Errorf("Width() changed to %d", b.Width())
		}
	}
}

func TestEvictionKeepsHighest(t *testing.T) {
	b, _ := New(3)
	states := make([]*state.State, 6)
	for i := range states {
		states[i] = newState(float64(i), i)
		b.Add(states[i])
	}
	if b.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", b.Len())
	}
	for i, s := range states {
		if want := i >= 3; b.Contains(s) != want {
			t.Errorf("state with score %d live = %v, want %v", i, b.Contains(s), want)
		}
	}
}

func TestEvictionInScoreOrder(t *testing.T) {
	b, _ := New(2)
	low, mid, high := newState(-1, 0), newState(0, 0), newState(1, 0)
	b.Add(mid)
	b.Add(low)
	b.Add(high)
	if b.Contains(low) || !b.Contains(mid) || !b.Contains(high) {
		t.Error("the lowest score should be evicted first")
	}
	if b.Add(newState(-0.5, 0)) {
		t.Error("a state scoring below the minimum should not enter a full beam")
	}
}

func TestAddStateOrderSingle(t *testing.T) {
	b, _ := New(1)
	first := newState(0, 1)
	second := newState(0, 0)

	b.Add(first)
	b.Add(second)

	if b.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", b.Len())
	}
	if !b.Contains(first) {
		t.Error("the first registered state should win a score tie")
	}
}

func TestAddDuplicateIdentity(t *testing.T) {
	b, _ := New(3)
	s := newState(1, 0)
	b.Add(s)
	b.Add(s)
	if b.Len() != 1 {
		t.Errorf("Len() = %d, want 1", b.Len())
	}
	b.Add(newState(1, 0))
	if b.Len() != 2 {
		t.Errorf("equal scores are distinct states, Len() = %d, want 2", b.Len())
	}
}

func TestMaxSortedConsistency(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 7))
	b, _ := New(50)
	for i := 0; i < 120; i++ {
		// coarse scores force plenty of ties
		b.Add(newState(float64(rng.IntN(5)), rng.IntN(4)))

		max, err := b.Max()
		if err != nil {
			t.Fatal(err)
		}
		sorted := b.Sorted(true)
		if sorted[0] != max {
			t.Fatalf("Max() = %v, Sorted(true)[0] = %v", max, sorted[0])
		}
		min, _ := b.Min()
		if asc := b.Sorted(false); asc[0] != min {
			t.Fatalf("Min() = %v, Sorted(false)[0] = %v", min, asc[0])
		}
	}
}

func TestSortedTieBreak(t *testing.T) {
	b, _ := New(10)
	a := newState(1, 2)
	c := newState(1, 1)
	d := newState(1, 1)
	e := newState(2, 5)
	for _, s := range []*state.State{a, c, d, e} {
		b.Add(s)
	}
	got := b.Sorted(true)
	want := []*state.State{e, c, d, a}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Sorted(true)[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	asc := b.Sorted(false)
	for i := range want {
		if asc[len(asc)-1-i] != want[i] {
			t.Fatalf("Sorted(false) is not the reverse of Sorted(true)")
		}
	}
}

func TestLast(t *testing.T) {
	b, _ := New(10)
	if b.Last() != nil {
		t.Error("Last() on an empty beam should be nil")
	}
	s1, s2, s3 := newState(0, 0), newState(5, 0), newState(1, 0)
	b.Add(s1)
	b.Add(s2)
	b.Add(s3)
	if b.Last() != s3 {
		t.Error("Last() should return the most recently added state")
	}
	if err := b.Remove(s3); err != nil {
		t.Fatal(err)
	}
	if b.Last() != s2 {
		t.Error("Last() should skip removed states")
	}
	b.Remove(s2)
	b.Remove(s1)
	if b.Last() != nil {
		t.Error("Last() should be nil once every state is removed")
	}
}

func TestLastAfterEviction(t *testing.T) {
	b, _ := New(1)
	s1, s2 := newState(0, 0), newState(1, 0)
	b.Add(s1)
	b.Add(s2)
	if b.Last() != s2 {
		t.Error("Last() should not return an evicted state")
	}
}

func TestRandom(t *testing.T) {
	b, _ := New(4)
	rng := rand.New(rand.NewPCG(3, 3))
	if _, err := b.Random(rng); !errors.Is(err, ErrEmptyBeam) {
		t.Errorf("Random() error = %v, want ErrEmptyBeam", err)
	}
	for i := 0; i < 4; i++ {
		b.Add(newState(float64(i), 0))
	}
	seen := make(map[*state.State]int)
	for i := 0; i < 4000; i++ {
		s, err := b.Random(rng)
		if err != nil {
			t.Fatal(err)
		}
		seen[s]++
	}
	for s, n := range seen {
		if n < 800 || n > 1200 {
			t.Errorf("state %v drawn %d times, want about 1000", s, n)
		}
	}
}

func TestRemoveAndWipe(t *testing.T) {
	b, _ := New(3)
	s := newState(0, 0)
	if err := b.Remove(s); !errors.Is(err, ErrNotFound) {
		t.Errorf("Remove() error = %v, want ErrNotFound", err)
	}
	b.Add(s)
	b.Add(newState(1, 0))
	if err := b.Remove(s); err != nil {
		t.Errorf("Remove() error = %v", err)
	}
	if err := b.Remove(s); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Remove() error = %v, want ErrNotFound", err)
	}

	b.Wipe()
	if b.Len() != 0 || len(b.States()) != 0 || b.Last() != nil {
		t.Error("Wipe() should remove every state")
	}
	if _, err := b.Max(); !errors.Is(err, ErrEmptyBeam) {
		t.Errorf("Max() error = %v, want ErrEmptyBeam", err)
	}
}

func TestInsertionLogCompaction(t *testing.T) {
	b, _ := New(2)
	keep := newState(100, 0)
	b.Add(keep)
	for i := 0; i < 1000; i++ {
		s := newState(0, i)
		b.Add(s)
		b.Remove(s)
	}
	if len(b.order) > 2*b.Len()+65 {
		t.Errorf("insertion log not compacted: %d entries for %d live states", len(b.order), b.Len())
	}
	if b.Last() != keep {
		t.Error("compaction lost the live state")
	}
}
