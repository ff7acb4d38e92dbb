package state

import "github.com/matzehuels/stackadvisor/pkg/python"

// bucket is an insertion ordered set of candidate tuples for one name.
type bucket struct {
	items []python.PackageTuple
	set   map[python.PackageTuple]struct{}
}

func newBucket() *bucket {
	return &bucket{set: make(map[python.PackageTuple]struct{})}
}

func (b *bucket) add(t python.PackageTuple) {
	if _, ok := b.set[t]; ok {
		return
	}
	b.set[t] = struct{}{}
	b.items = append(b.items, t)
}

func (b *bucket) remove(t python.PackageTuple) bool {
	if _, ok := b.set[t]; !ok {
		return false
	}
	delete(b.set, t)
	for i, it := range b.items {
		if it == t {
			b.items = append(b.items[:i:i], b.items[i+1:]...)
			break
		}
	}
	return true
}

func (b *bucket) clone() *bucket {
	c := &bucket{
		items: append([]python.PackageTuple(nil), b.items...),
		set:   make(map[python.PackageTuple]struct{}, len(b.set)),
	}
	for t := range b.set {
		c.set[t] = struct{}{}
	}
	return c
}

// unresolvedMap is an insertion ordered map from package name to bucket.
// Go maps do not keep insertion order, which expansion order relies on.
type unresolvedMap struct {
	names   []string
	buckets map[string]*bucket
}

func newUnresolvedMap() unresolvedMap {
	return unresolvedMap{buckets: make(map[string]*bucket)}
}

func (m *unresolvedMap) get(name string) (*bucket, bool) {
	b, ok := m.buckets[name]
	return b, ok
}

func (m *unresolvedMap) getOrCreate(name string) *bucket {
	if b, ok := m.buckets[name]; ok {
		return b
	}
	b := newBucket()
	m.buckets[name] = b
	m.names = append(m.names, name)
	return b
}

func (m *unresolvedMap) delete(name string) bool {
	if _, ok := m.buckets[name]; !ok {
		return false
	}
	delete(m.buckets, name)
	for i, n := range m.names {
		if n == name {
			m.names = append(m.names[:i:i], m.names[i+1:]...)
			break
		}
	}
	return true
}

func (m *unresolvedMap) len() int { return len(m.names) }

func (m *unresolvedMap) clone() unresolvedMap {
	c := unresolvedMap{
		names:   append([]string(nil), m.names...),
		buckets: make(map[string]*bucket, len(m.buckets)),
	}
	for name, b := range m.buckets {
		c.buckets[name] = b.clone()
	}
	return c
}
