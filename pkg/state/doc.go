// Package state models the nodes of the resolution search tree.
//
// A [State] holds a score, the package names still to resolve together with
// their viable candidate tuples, the tuples already resolved, and an
// append-only [Justification] log. Cloning a state yields a value-independent
// child that keeps a weak reference to its parent, so ancestry is available
// for diagnostics without keeping discarded branches alive.
//
// # Candidate selection
//
// [State.FirstUnresolvedDependency] returns candidates in insertion order.
// [State.RandomUnresolvedDependency] implements an epsilon-greedy choice with
// a triangular fallback: index i of n candidates is drawn with probability
// proportional to n-i, computed through [InverseTriangularNumber].
package state
