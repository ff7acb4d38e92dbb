// Package knowledge provides read access to what is known about Python
// packages: released versions, their requirements, build failures,
// vulnerabilities, performance observations and which indexes are trusted.
//
// # Backends
//
//   - [Memory]: a snapshot loaded from YAML. Used by tests and by
//     `stackadvisor advise --kb snapshot.yaml`.
//   - [Mongo]: the same data stored in MongoDB collections.
//   - [PyPI]: the public PyPI JSON API. It knows versions, requirements and
//     vulnerabilities but nothing about build errors or performance.
//   - [Cached]: a decorator memoizing any backend in a [cache.Cache] with
//     in-flight de-duplication of identical queries.
//
// # Snapshot format
//
//	indexes:
//	  - url: https://pypi.org/simple
//	    enabled: true
//	packages:
//	  - name: flask
//	    version: 0.12.0
//	    requires: ["werkzeug>=0.7", "click>=2.0"]
//	    build_errors:
//	      - {os: fedora, python_version: "3.6"}
//	cves:
//	  - package: flask
//	    id: CVE-2018-1000656
//	    version_range: "<0.12.3"
//	performance:
//	  - {name: tensorflow, version: 2.1.0, score: 0.3, cpu_family: "6"}
//
// Packages without an index belong to https://pypi.org/simple. Indexes not
// listed are enabled.
//
// [cache.Cache]: github.com/matzehuels/stackadvisor/pkg/cache.Cache
package knowledge
