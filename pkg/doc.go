// Package pkg provides the libraries behind stackadvisor, a recommender of
// pinned Python dependency stacks.
//
// # Overview
//
// A project (Pipfile or requirements file) is resolved by a beam search over
// partially resolved states. Pluggable pipeline units filter candidates,
// score expansions, judge final states and annotate the results:
//
//	Pipfile / requirements.txt
//	         ↓
//	    [python] package (project, requirements, lockfile)
//	         ↓
//	    [pipeline] + [units] (sieves, steps, strides, wraps)
//	         ↓
//	    [resolver] (beam search driven by a [predictor])
//	         ↓
//	    [render] (Pipfile.lock, DOT, SVG)
//
// # Main Packages
//
// [resolver] - The resolution loop: expansion, transitive dependencies,
// budgets and the final report.
//
// [beam], [state] - The bounded working set and the partially resolved
// states it holds.
//
// [predictor] - Strategies choosing which state to expand next and with
// which package.
//
// [pipeline], [units] - The unit interfaces, registry and assembly, and the
// built-in units.
//
// [knowledge] - Where versions, dependencies, CVEs and performance numbers
// come from: an in-memory snapshot, MongoDB or PyPI, optionally cached.
//
// [advise] - One complete parse, assemble, resolve and render run as used by
// the CLI and the HTTP API.
//
// # Infrastructure
//
// [cache] - File, Redis, memory and null caches with a shared key scheme.
//
// [store] - Report storage keyed by run ID.
//
// [observability] - Hooks for metrics, with a Prometheus implementation.
//
// [integrations] - HTTP clients for package indexes (PyPI).
//
// [errors] - Structured error codes shared by the CLI and the API.
package pkg
