// Package pypi provides an HTTP client for the Python Package Index JSON API.
//
// # Usage
//
//	client := pypi.NewClient(cache.NewNullCache(), 24*time.Hour)
//
//	pkg, err := client.FetchPackage(ctx, "flask", false) // false = use cache
//	fmt.Println(pkg.Versions)
//
//	rel, err := client.FetchRelease(ctx, "flask", "0.12.0", false)
//	fmt.Println(rel.RequiresDist, rel.Vulnerabilities)
//
// # Endpoints
//
//   - /pypi/<name>/json: project metadata and the release list. Releases
//     whose files are all yanked are left out.
//   - /pypi/<name>/<version>/json: requires_dist of one release together
//     with the vulnerabilities PyPI (via OSV) attaches to it.
//
// # Caching
//
// Decoded responses are cached in a [cache.Cache]; pass refresh=true to
// bypass it. Package names are normalized following PEP 503.
//
// [cache.Cache]: github.com/matzehuels/stackadvisor/pkg/cache.Cache
package pypi
