package cli

import (
	"context"
	"os"

	"github.com/matzehuels/stackadvisor/pkg/cache"
	"github.com/matzehuels/stackadvisor/pkg/integrations/pypi"
	"github.com/matzehuels/stackadvisor/pkg/knowledge"
	"github.com/matzehuels/stackadvisor/pkg/store"
)

// kbOpts selects and configures the knowledge base.
type kbOpts struct {
	path    string // YAML snapshot; empty selects MongoDB or PyPI
	noCache bool   // disable the response cache
	refresh bool   // bypass cached answers
}

// openCache returns the response cache: Redis when STACKADVISOR_REDIS_URL
// is set, the file cache otherwise. A missing cache directory degrades to
// no caching.
func (c *CLI) openCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if url := redisURL(); url != "" {
		c.Logger.Debug("using redis cache")
		return cache.NewRedisCache(ctx, url, appName+":")
	}
	dir, err := cacheDir()
	if err != nil {
		c.Logger.Warn("cache disabled", "error", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// openKnowledgeBase picks the knowledge base: a snapshot file, MongoDB when
// STACKADVISOR_MONGO_URI is set, or the PyPI JSON API. Remote backends are
// wrapped in the response cache.
func (c *CLI) openKnowledgeBase(ctx context.Context, opts kbOpts) (knowledge.KnowledgeBase, error) {
	if opts.path != "" {
		c.Logger.Debug("loading knowledge snapshot", "path", opts.path)
		return knowledge.LoadMemory(opts.path)
	}

	backend, err := c.openCache(ctx, opts.noCache)
	if err != nil {
		return nil, err
	}

	var inner knowledge.KnowledgeBase
	if uri := os.Getenv(envMongoURI); uri != "" {
		c.Logger.Debug("using mongodb knowledge base")
		m, err := knowledge.NewMongo(ctx, uri, os.Getenv(envMongoDB))
		if err != nil {
			backend.Close()
			return nil, err
		}
		inner = m
	} else {
		inner = knowledge.NewPyPI(pypi.NewClient(backend, knowledge.DefaultCacheTTL), opts.refresh)
	}
	return knowledge.NewCached(inner, backend, knowledge.WithRefresh(opts.refresh)), nil
}

// openStore returns the report store for the API server: Redis backed when
// STACKADVISOR_REDIS_URL is set, in memory otherwise.
func (c *CLI) openStore(ctx context.Context) (store.Store, error) {
	if url := redisURL(); url != "" {
		rc, err := cache.NewRedisCache(ctx, url, appName+":")
		if err != nil {
			return nil, err
		}
		return store.NewCacheStore(rc, cache.NewDefaultKeyer()), nil
	}
	return store.NewMemoryStore(), nil
}
