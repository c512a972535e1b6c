package indexed

import "github.com/joeycumines/go-ordset/internal/reclaim"

// BackgroundSlot is the participant slot reserved for internal/background,
// distinct from the NumThreads slots acquired dynamically by Contains,
// Insert, and Remove (see package doc).
func (s *Set) BackgroundSlot() int { return s.numThreads }

// Batch is an opaque handle on a freelist claimed via CutFreelist, to be
// passed to FreeBatch once a grace period has elapsed.
type Batch struct{ head *node }

// CutFreelist claims every node retired since the last cut, per spec.md
// §4.2's gc_cut.
func (s *Set) CutFreelist() Batch {
	return Batch{head: s.free.Cut()}
}

// FreeBatch walks a claimed batch, severing each node's reclaim-queue
// link. The node's memory itself is reclaimed by the Go garbage collector
// once this was the last reference to it — there is no manual free step
// to port, since Go (unlike the source's C) has no fallible or explicit
// deallocation.
func (s *Set) FreeBatch(b Batch) {
	reclaim.Free[node, *node](b.head, func(n *node) { n.gcnext = nil })
}

// Synchronize blocks until every read section in progress at the time of
// the call has completed, per spec.md §4.1.
func (s *Set) Synchronize() { s.rcu.Synchronize() }

// MaxGap computes, without mutating anything, the longest run of raw
// next-hops between consecutive entries of the current index (and from
// the last entry to the end of the list), per spec.md §4.7's background
// worker step 2 and tested by testable property 11.
func (s *Set) MaxGap() int {
	ix := s.idx.Load()
	maxGap := 0
	for i, e := range ix.elems {
		var stop *node
		if i < len(ix.elems)-1 {
			stop = ix.elems[i+1].node
		}
		gap := 0
		for curr := e.node; curr != stop; curr = curr.next.Load() {
			gap++
		}
		if gap > maxGap {
			maxGap = gap
		}
	}
	return maxGap
}

// Restructure rebuilds the index from a fresh walk of the list, sampling
// one entry every idxGap live nodes, and promotes every logically-deleted
// node it passes over to physically-pending (try_mark_phys_remove) along
// the way — the only place that promotion happens, keeping it off user
// threads' hot path per spec.md §4.7.
func (s *Set) Restructure(idxGap int) {
	b := newIndexBuilder(1)
	b.append(s.head.k, s.head)

	listpos := 0
	for curr := s.head.next.Load(); curr != nil; curr = curr.next.Load() {
		val := curr.v.Load()

		if val == nil {
			curr.v.CompareAndSwap(nil, curr)
			continue
		}
		if val == curr {
			continue
		}

		listpos++
		if listpos%idxGap == 0 {
			b.append(curr.k, curr)
		}
	}

	s.idx.Store(b.build())
}

// ScanAll runs a dummy Contains(KeyMax) with the index fast path disabled,
// forcing the traversal to walk the entire list from head and helpRemove
// any physically-pending node it encounters. This is the source's
// set_scanall, used by the background worker after every restructure pass
// (SPEC_FULL.md §10); it is exported for internal/background's use but
// deliberately absent from the ordset.Set interface, since it is a
// maintenance operation, not a set operation.
func (s *Set) ScanAll() {
	slot := s.BackgroundSlot()
	s.rcu.ReadLock(slot)
	defer s.rcu.ReadUnlock(slot)
	s.doOperation(slot, opContains, KeyMax, false)
}
