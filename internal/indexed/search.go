package indexed

import "golang.org/x/exp/constraints"

// searchLE returns the largest i in [0, n) such that key(i) <= target,
// given key is non-decreasing over [0, n). Callers must ensure n > 0 and
// key(0) <= target, matching useIdx's invariant that elems[0] is always
// (head.k, head) and head.k is the least possible key.
//
// Generic over constraints.Ordered so it isn't tied to Key specifically,
// following catrate.ringBuffer's use of the same constraint for its own
// index-shaped generic structure.
func searchLE[K constraints.Ordered](n int, target K, key func(int) K) int {
	lo, hi := 0, n-1
	for lo < hi {
		mid := lo + (hi-lo+1)/2
		if key(mid) <= target {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}
