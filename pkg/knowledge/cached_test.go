package knowledge

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/stackadvisor/pkg/cache"
	"github.com/matzehuels/stackadvisor/pkg/observability"
	"github.com/matzehuels/stackadvisor/pkg/python"
)

// countingKB counts calls reaching the wrapped backend.
type countingKB struct {
	KnowledgeBase
	calls atomic.Int32
	delay time.Duration
}

func (c *countingKB) GetPackageVersions(ctx context.Context, name string, env python.RuntimeEnvironment) ([]python.PackageTuple, error) {
	c.calls.Add(1)
	time.Sleep(c.delay)
	return c.KnowledgeBase.GetPackageVersions(ctx, name, env)
}

func (c *countingKB) ComputeAveragePerformance(ctx context.Context, tuples []python.PackageTuple, env python.RuntimeEnvironment) (float64, error) {
	c.calls.Add(1)
	return c.KnowledgeBase.ComputeAveragePerformance(ctx, tuples, env)
}

type recordingCacheHooks struct {
	observability.NoopCacheHooks
	mu     sync.Mutex
	hits   int
	misses int
}

func (r *recordingCacheHooks) OnCacheHit(context.Context, string) {
	r.mu.Lock()
	r.hits++
	r.mu.Unlock()
}

func (r *recordingCacheHooks) OnCacheMiss(context.Context, string) {
	r.mu.Lock()
	r.misses++
	r.mu.Unlock()
}

func TestCachedServesFromCache(t *testing.T) {
	hooks := &recordingCacheHooks{}
	observability.SetCacheHooks(hooks)
	defer observability.Reset()

	inner := &countingKB{KnowledgeBase: testMemory(t)}
	kb := NewCached(inner, cache.NewMemoryCache(), WithTTL(time.Hour))
	ctx := context.Background()

	first, err := kb.GetPackageVersions(ctx, "flask", python.RuntimeEnvironment{})
	if err != nil {
		t.Fatal(err)
	}
	second, err := kb.GetPackageVersions(ctx, "Flask", python.RuntimeEnvironment{})
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 3 || len(second) != 3 {
		t.Errorf("versions = %v then %v", first, second)
	}
	if got := inner.calls.Load(); got != 1 {
		t.Errorf("backend calls = %d, want 1", got)
	}
	if hooks.hits != 1 || hooks.misses != 1 {
		t.Errorf("hits/misses = %d/%d, want 1/1", hooks.hits, hooks.misses)
	}
}

func TestCachedRefreshBypassesCache(t *testing.T) {
	inner := &countingKB{KnowledgeBase: testMemory(t)}
	c := cache.NewMemoryCache()
	ctx := context.Background()

	_, _ = NewCached(inner, c).GetPackageVersions(ctx, "flask", python.RuntimeEnvironment{})
	_, _ = NewCached(inner, c, WithRefresh(true)).GetPackageVersions(ctx, "flask", python.RuntimeEnvironment{})
	if got := inner.calls.Load(); got != 2 {
		t.Errorf("backend calls = %d, want 2", got)
	}
}

func TestCachedDeduplicatesInFlight(t *testing.T) {
	inner := &countingKB{KnowledgeBase: testMemory(t), delay: 50 * time.Millisecond}
	kb := NewCached(inner, cache.NewNullCache())

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := kb.GetPackageVersions(context.Background(), "flask", python.RuntimeEnvironment{}); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if got := inner.calls.Load(); got >= 8 {
		t.Errorf("backend calls = %d, want concurrent queries to be shared", got)
	}
}

func TestCachedPerformanceNaN(t *testing.T) {
	inner := &countingKB{KnowledgeBase: testMemory(t)}
	kb := NewCached(inner, cache.NewMemoryCache())
	ctx := context.Background()
	unknown := []python.PackageTuple{python.NewPackageTuple("click", "7.0", python.DefaultIndexURL)}

	for range 2 {
		got, err := kb.ComputeAveragePerformance(ctx, unknown, python.RuntimeEnvironment{})
		if err != nil {
			t.Fatal(err)
		}
		if !math.IsNaN(got) {
			t.Errorf("average = %v, want NaN", got)
		}
	}
	if got := inner.calls.Load(); got != 1 {
		t.Errorf("backend calls = %d, want NaN to be cached", got)
	}

	known := []python.PackageTuple{python.NewPackageTuple("flask", "1.0.2", python.DefaultIndexURL)}
	got, _ := kb.ComputeAveragePerformance(ctx, known, python.RuntimeEnvironment{})
	if got != 0.4 {
		t.Errorf("average = %v, want 0.4", got)
	}
}

func TestCachedScopedKeyer(t *testing.T) {
	c := cache.NewMemoryCache()
	kb := NewCached(testMemory(t), c, WithKeyer(cache.NewScopedKeyer(cache.NewDefaultKeyer(), "tenant-a")))

	if _, err := kb.IsIndexEnabled(context.Background(), python.DefaultIndexURL); err != nil {
		t.Fatal(err)
	}
	key := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "tenant-a").IndexKey(python.DefaultIndexURL)
	if _, ok, _ := c.Get(context.Background(), key); !ok {
		t.Errorf("expected entry under %q", key)
	}
}
