// Package indexed implements the lock-free indexed ordered list: a
// backward-linked list whose nodes multiplex liveness into a single
// atomic field, an array index maintained by a background worker as a
// binary-search fast path, and RCU-guarded traversal with deferred-free
// reclamation. It is the core back-end of this module, ported from the
// source's skiplist.c/garbage.c/urcu.c/background.c quartet.
//
// Thread model: the source assumes a fixed pool of OS threads, each
// registered once via a stable id that indexes directly into per-thread
// RCU and GC slot arrays — pthreads give every thread a stable identity to
// key that array by. Goroutines have no such identity (they migrate across
// OS threads, and Go deliberately exposes no thread-local storage), so
// this port replaces "one slot per registered thread, used implicitly by
// whichever code that thread runs" with a pool of NumThreads slots
// acquired for the duration of one top-level Contains/Insert/Remove call
// and released afterward (slot NumThreads, the last of the NumThreads+1
// RCU/GC slots, is reserved for the background worker). This preserves the correctness contract RCU and
// the garbage collector actually need — a bounded number of concurrently
// active read sections, each with its own counter and deferred-free queue
// — without assuming a goroutine has a fixed OS-thread affinity.
// RegisterThread/UnregisterThread remain on Set (range-checking id) purely
// for interface parity with the other four back-ends; the slots they would
// have claimed are already sized at construction time.
package indexed

import (
	"math"
	"sync/atomic"
)

type Key = int64

const (
	KeyMin Key = math.MinInt64
	KeyMax Key = math.MaxInt64
)

// live is the shared sentinel stored in node.v to mean "present". Its
// identity is all that matters; it is never dereferenced for content. This
// realizes spec.md §9's "Live(V)" case for a set with no associated
// payload beyond presence.
var live = &node{}

// node is a single list element. v multiplexes the three-state machine
// from spec.md §4.7: nil means logically deleted, live means present, and
// a node pointing to ITSELF means physically pending removal (the node is
// its own "marker" for that state, following the source exactly).
type node struct {
	k      Key
	v      atomic.Pointer[node]
	next   atomic.Pointer[node]
	prev   atomic.Pointer[node] // approximate hint only; see §7 of SPEC_FULL.md
	marker bool                 // true only for helpRemove's junk splice nodes
	gcnext *node
}

func newNode(k Key, v *node, prev, next *node) *node {
	n := &node{k: k}
	n.v.Store(v)
	n.prev.Store(prev)
	n.next.Store(next)
	return n
}

// SetGCNext and GCNext satisfy internal/reclaim.Entry, letting *node be
// threaded into a deferred-free queue.
func (n *node) SetGCNext(next *node) { n.gcnext = next }
func (n *node) GCNext() *node        { return n.gcnext }
