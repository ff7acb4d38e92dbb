// Package python models the Python project a recommendation is computed for.
//
// # Identity
//
// [PackageTuple] is the addressable unit used throughout the adviser: a
// package name, a version, and the source index it is served from. Names are
// normalized with [NormalizeName] (PEP 503) before they enter a tuple, so two
// spellings of the same distribution always compare equal.
//
// # Project inputs
//
// A [Project] is loaded from either a Pipfile ([ParsePipfile]) or a
// requirements.txt file ([ParseRequirements]). It carries the direct
// [Requirement] list, the declared [Source] indexes, the prerelease flag and
// the target [RuntimeEnvironment].
//
// # Output
//
// [NewLockfile] turns a fully pinned set of tuples into a Pipfile.lock
// document that pipenv can install from.
package python
