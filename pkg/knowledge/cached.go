package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/stackadvisor/pkg/cache"
	"github.com/matzehuels/stackadvisor/pkg/observability"
	"github.com/matzehuels/stackadvisor/pkg/python"
)

// DefaultCacheTTL is how long knowledge base answers are cached.
const DefaultCacheTTL = 24 * time.Hour

// Cached memoizes another [KnowledgeBase] in a [cache.Cache]. Concurrent
// identical queries share one call to the wrapped backend.
type Cached struct {
	inner   KnowledgeBase
	cache   cache.Cache
	keyer   cache.Keyer
	ttl     time.Duration
	refresh bool
	group   singleflight.Group
}

var _ KnowledgeBase = (*Cached)(nil)

// CachedOption configures a [Cached] knowledge base.
type CachedOption func(*Cached)

// WithKeyer replaces the default keyer, for example with a
// [cache.NewScopedKeyer] to isolate tenants.
func WithKeyer(k cache.Keyer) CachedOption {
	return func(c *Cached) {
		if k != nil {
			c.keyer = k
		}
	}
}

// WithTTL sets the cache entry lifetime.
func WithTTL(ttl time.Duration) CachedOption {
	return func(c *Cached) { c.ttl = ttl }
}

// WithRefresh makes every query bypass (and then overwrite) cached answers.
func WithRefresh(refresh bool) CachedOption {
	return func(c *Cached) { c.refresh = refresh }
}

// NewCached wraps inner with c. A nil cache disables caching.
func NewCached(inner KnowledgeBase, c cache.Cache, opts ...CachedOption) *Cached {
	if c == nil {
		c = cache.NewNullCache()
	}
	kb := &Cached{
		inner: inner,
		cache: c,
		keyer: cache.NewDefaultKeyer(),
		ttl:   DefaultCacheTTL,
	}
	for _, opt := range opts {
		opt(kb)
	}
	return kb
}

// cached looks key up, otherwise runs fetch once per key across concurrent
// callers and stores the JSON encoded result.
func cached[T any](ctx context.Context, c *Cached, keyType, key string, fetch func() (T, error)) (T, error) {
	hooks := observability.Cache()
	if !c.refresh {
		if data, ok, err := c.cache.Get(ctx, key); err == nil && ok {
			var v T
			if json.Unmarshal(data, &v) == nil {
				hooks.OnCacheHit(ctx, keyType)
				return v, nil
			}
		}
		hooks.OnCacheMiss(ctx, keyType)
	}

	res, err, _ := c.group.Do(key, func() (any, error) {
		v, err := fetch()
		if err != nil {
			return v, err
		}
		if data, err := json.Marshal(v); err == nil {
			if c.cache.Set(ctx, key, data, c.ttl) == nil {
				hooks.OnCacheSet(ctx, keyType, len(data))
			}
		}
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return res.(T), nil
}

func envKey(env python.RuntimeEnvironment) cache.EnvKeyOpts {
	hw := env.Hardware
	return cache.EnvKeyOpts{
		OS:            env.OperatingSystem.Name,
		OSVersion:     env.OperatingSystem.Version,
		PythonVersion: env.PythonVersion,
		Hardware:      strings.Join([]string{hw.CPUFamily, hw.CPUModel, hw.GPUModel}, "/"),
	}
}

// GetPackageVersions implements [KnowledgeBase].
func (c *Cached) GetPackageVersions(ctx context.Context, name string, env python.RuntimeEnvironment) ([]python.PackageTuple, error) {
	name = python.NormalizeName(name)
	// versions span all indexes but depend on the interpreter via Requires-Python
	key := c.keyer.VersionsKey("python"+env.PythonVersion, name)
	return cached(ctx, c, "versions", key, func() ([]python.PackageTuple, error) {
		return c.inner.GetPackageVersions(ctx, name, env)
	})
}

// GetDependencies implements [KnowledgeBase].
func (c *Cached) GetDependencies(ctx context.Context, t python.PackageTuple, env python.RuntimeEnvironment) ([]python.Requirement, error) {
	key := c.keyer.DependenciesKey(python.NormalizeName(t.Name), t.Version, t.Index, envKey(env))
	return cached(ctx, c, "deps", key, func() ([]python.Requirement, error) {
		return c.inner.GetDependencies(ctx, t, env)
	})
}

// HasBuildError implements [KnowledgeBase].
func (c *Cached) HasBuildError(ctx context.Context, t python.PackageTuple, env python.RuntimeEnvironment) (bool, error) {
	key := c.keyer.BuildErrorKey(python.NormalizeName(t.Name), t.Version, t.Index, envKey(env))
	return cached(ctx, c, "builderr", key, func() (bool, error) {
		return c.inner.HasBuildError(ctx, t, env)
	})
}

// GetCVERecords implements [KnowledgeBase].
func (c *Cached) GetCVERecords(ctx context.Context, name, ver string) ([]CVERecord, error) {
	key := c.keyer.CVEKey(python.NormalizeName(name), ver, "")
	return cached(ctx, c, "cve", key, func() ([]CVERecord, error) {
		return c.inner.GetCVERecords(ctx, name, ver)
	})
}

// ComputeAveragePerformance implements [KnowledgeBase]. NaN answers are
// cached as null.
func (c *Cached) ComputeAveragePerformance(ctx context.Context, tuples []python.PackageTuple, env python.RuntimeEnvironment) (float64, error) {
	ids := make([]string, len(tuples))
	for i, t := range tuples {
		ids[i] = t.String()
	}
	sort.Strings(ids)
	key := c.keyer.PerformanceKey(strings.Join(ids, ";"), "", "", envKey(env))

	v, err := cached(ctx, c, "perf", key, func() (*float64, error) {
		avg, err := c.inner.ComputeAveragePerformance(ctx, tuples, env)
		if err != nil || math.IsNaN(avg) {
			return nil, err
		}
		return &avg, nil
	})
	if err != nil {
		return 0, err
	}
	if v == nil {
		return math.NaN(), nil
	}
	return *v, nil
}

// IsIndexEnabled implements [KnowledgeBase].
func (c *Cached) IsIndexEnabled(ctx context.Context, url string) (bool, error) {
	return cached(ctx, c, "index", c.keyer.IndexKey(url), func() (bool, error) {
		return c.inner.IsIndexEnabled(ctx, url)
	})
}

// Close closes the wrapped knowledge base and the cache.
func (c *Cached) Close() error {
	err := c.inner.Close()
	if cerr := c.cache.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("close cached knowledge base: %w", err)
	}
	return nil
}
