// Package integrations provides the HTTP plumbing for package index APIs.
//
// # Overview
//
// Index specific clients live in subpackages:
//
//   - [pypi]: Python Package Index JSON API
//
// # Client Pattern
//
// Index clients embed [Client] and follow a consistent pattern:
//
//	c := pypi.NewClient(cache.NewNullCache(), 24*time.Hour)
//	rel, err := c.FetchRelease(ctx, "flask", "2.0.0", false) // false = use cache
//
// [Client] handles:
//   - JSON requests with retry (5xx and 429 are retried with backoff)
//   - Response caching in a [cache.Cache] with a configurable TTL
//   - Request pacing through a token bucket ([Client.SetRateLimit])
//
// [pypi]: github.com/matzehuels/stackadvisor/pkg/integrations/pypi
// [cache.Cache]: github.com/matzehuels/stackadvisor/pkg/cache.Cache
package integrations
