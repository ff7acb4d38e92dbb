package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/matzehuels/stackadvisor/pkg/cache"
)

// CacheStore keeps records in a [cache.Cache] under [cache.Keyer.ReportKey].
// Expiry is delegated to the cache's TTL, so Cleanup does nothing. Backed by
// [cache.RedisCache] it shares reports between server replicas.
type CacheStore struct {
	cache cache.Cache
	keyer cache.Keyer
}

// NewCacheStore wraps c. A nil keyer selects [cache.NewDefaultKeyer].
func NewCacheStore(c cache.Cache, keyer cache.Keyer) *CacheStore {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	return &CacheStore{cache: c, keyer: keyer}
}

func (s *CacheStore) Get(ctx context.Context, id string) (*Record, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	data, hit, err := s.cache.Get(ctx, s.keyer.ReportKey(id))
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	if !hit {
		return nil, nil
	}
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}
	if r.IsExpired() {
		return nil, nil
	}
	return &r, nil
}

func (s *CacheStore) Put(ctx context.Context, r *Record) error {
	if err := ValidateID(r.ID); err != nil {
		return err
	}
	ttl := time.Until(r.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return s.cache.Set(ctx, s.keyer.ReportKey(r.ID), data, ttl)
}

func (s *CacheStore) Delete(ctx context.Context, id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	return s.cache.Delete(ctx, s.keyer.ReportKey(id))
}

func (s *CacheStore) Cleanup(context.Context) error { return nil }

func (s *CacheStore) Close() error { return s.cache.Close() }

var _ Store = (*CacheStore)(nil)
