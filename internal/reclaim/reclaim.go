// Package reclaim implements the deferred-free garbage collection scheme
// used by the indexed ordered list: each participant accumulates retired
// nodes in an unshared local queue, and splices that queue onto a single
// global freelist once it crosses a threshold. A maintenance goroutine later
// claims the whole global freelist (Cut) and, after proving via RCU that no
// reader can still be holding a reference, frees it (Free).
//
// It is generic over the node type so it isn't coupled to the indexed
// list's node layout; a node only needs to be able to carry one extra
// "next" link dedicated to this package.
package reclaim

import "sync/atomic"

// DefaultThreshold is the number of locally-deferred nodes a participant
// accumulates before attempting to splice its queue onto the global
// freelist, matching GC_THRES from the source this package is ported from.
const DefaultThreshold = 10

// Entry is implemented by *T for the node type T a Freelist manages. It
// exposes the single gcnext-style link reclaim needs, independent of
// whatever other links T uses for its own data structure.
type Entry[T any] interface {
	*T
	SetGCNext(*T)
	GCNext() *T
}

// Local is a participant's unshared queue of retired nodes, awaiting
// splice onto the Freelist's global head. It must never be touched by any
// goroutine other than its owner.
type Local[T any, E Entry[T]] struct {
	head, tail *T
	count      int
}

// Freelist is the global deferred-free list.
type Freelist[T any, E Entry[T]] struct {
	head      atomic.Pointer[T]
	threshold int
}

// New constructs a Freelist that splices a participant's Local queue onto
// the global list once it holds threshold entries. threshold <= 0 uses
// DefaultThreshold.
func New[T any, E Entry[T]](threshold int) *Freelist[T, E] {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Freelist[T, E]{threshold: threshold}
}

// Defer retires n into local. Once local crosses the configured threshold,
// Defer attempts a single CAS to splice local onto the global freelist; on
// failure the tail's link is restored to nil and the next Defer call will
// retry the splice (this does not spin).
func (f *Freelist[T, E]) Defer(local *Local[T, E], n *T) {
	E(n).SetGCNext(local.head)
	local.head = n
	if local.tail == nil {
		local.tail = n
	}
	local.count++

	if local.count < f.threshold {
		return
	}

	head := f.head.Load()
	E(local.tail).SetGCNext(head)
	if f.head.CompareAndSwap(head, local.head) {
		local.head, local.tail, local.count = nil, nil, 0
		return
	}
	E(local.tail).SetGCNext(nil)
}

// Cut atomically claims the entire global freelist, returning its head (or
// nil if empty) and leaving the global list empty.
func (f *Freelist[T, E]) Cut() *T {
	for {
		head := f.head.Load()
		if f.head.CompareAndSwap(head, nil) {
			return head
		}
	}
}

// Free walks the list starting at head (as linked by Entry.GCNext) and
// calls free on every node. Callers must have already waited out a grace
// period proving no reader can still reach any node in this list.
func Free[T any, E Entry[T]](head *T, free func(*T)) {
	for head != nil {
		next := E(head).GCNext()
		free(head)
		head = next
	}
}
