package state

import "math"

// TriangularNumber returns T(n) = n(n+1)/2, the count of items in a
// triangle with n rows.
func TriangularNumber(n int) int {
	return n * (n + 1) / 2
}

// InverseTriangularNumber returns the real k with T(k) = x.
func InverseTriangularNumber(x float64) float64 {
	return -0.5 + math.Sqrt(0.25+2*x)
}

// triangularIndex maps u drawn uniformly from [0, T(n)) to an index in
// [0, n). Index i is returned with probability (n-i)/T(n), so earlier
// entries are preferred linearly.
func triangularIndex(n int, u float64) int {
	idx := n - 1 - int(math.Floor(InverseTriangularNumber(u)))
	return min(max(idx, 0), n-1)
}
