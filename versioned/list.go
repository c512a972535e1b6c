// Package versioned implements a sorted integer set using optimistic
// per-node version locks: readers and the initial traversal never block,
// and a writer only takes a lock after re-validating that its predecessor
// is unchanged since it was last observed. Ported from the source's
// versioned.c.
package versioned

import (
	"math"
	"sync/atomic"

	"github.com/joeycumines/go-ordset/internal/config"
)

type Key = int64

const (
	KeyMin Key = math.MinInt64
	KeyMax Key = math.MaxInt64
)

// vlock packs a version counter into the upper bits and a lock bit into
// the LSB, following the original's vlock_t layout.
type vlock = uint64

const lockedBit vlock = 1

type node struct {
	val     Key
	next    atomic.Pointer[node]
	deleted atomic.Bool
	vlock   atomic.Uint64
}

// version strips the lock bit, returning just the version counter.
func version(v vlock) vlock { return v &^ lockedBit }

func (n *node) getVersion() vlock {
	return version(n.vlock.Load())
}

// tryLockAtVersion succeeds only if n's lock word still equals ver
// (unlocked, at that version), atomically bumping it to ver+1 (locked).
func (n *node) tryLockAtVersion(ver vlock) bool {
	return n.vlock.CompareAndSwap(ver, ver+1)
}

// lockAtCurrentVersion spins until it observes n unlocked and wins the CAS.
func (n *node) lockAtCurrentVersion() {
	for {
		ver := n.getVersion()
		if n.vlock.CompareAndSwap(ver, ver+1) {
			return
		}
	}
}

// unlockAndIncrement releases n's lock and bumps its version in one step.
// Because the lock bit and version share the same word, a locked value is
// always odd (version<<0 + 1), so adding 1 both clears the lock bit and
// advances the version — this is done with an atomic add rather than the
// load-then-store the original uses, since unlockAndIncrement must itself
// be safe to call without relying on no concurrent writer (SPEC_FULL.md
// §11.4): only the lock holder ever calls it, but other threads may read
// vlock concurrently via getVersion, so the update itself must be atomic.
func (n *node) unlockAndIncrement() {
	n.vlock.Add(1)
}

// Set is a sorted linked list using optimistic per-node version locks.
type Set struct {
	head *node
}

func New(cfg *config.Config) *Set {
	_ = cfg
	tail := &node{val: KeyMax}
	head := &node{val: KeyMin}
	head.next.Store(tail)
	return &Set{head: head}
}

func (s *Set) RegisterThread(id int) {
	if id < 0 {
		panic(`versioned: RegisterThread: negative id`)
	}
}

func (s *Set) UnregisterThread() {}

// waitfreeTraversal returns the last node strictly less than val. It never
// locks and never retries.
func waitfreeTraversal(head *node, val Key) *node {
	prev, curr := head, head
	for curr.val < val {
		prev = curr
		curr = curr.next.Load()
	}
	return prev
}

// validate re-walks forward from prev until outPrev < val <= outCurr,
// failing if prev itself turns out to be deleted. outVer is prev's
// version at the moment it was accepted as the predecessor, used by the
// caller as the tryLockAtVersion comparand.
func validate(val Key, prev *node) (outPrev *node, outVer vlock, outCurr *node, ok bool) {
retryValidate:
	pVer := prev.getVersion()
	if prev.deleted.Load() {
		return nil, 0, nil, false
	}
	curr := prev.next.Load()
	for curr.val < val {
		pVer = curr.getVersion()
		if curr.deleted.Load() {
			goto retryValidate
		}
		prev = curr
		curr = curr.next.Load()
	}
	return prev, pVer, curr, true
}

// Contains never locks: the deleted flag is set before physical unlinking
// so a racing reader either sees the node gone or sees it marked.
func (s *Set) Contains(val Key) bool {
	curr := s.head
	for curr.val < val {
		curr = curr.next.Load()
	}
	return curr.val == val && !curr.deleted.Load()
}

func (s *Set) Insert(val Key) bool {
retryInsertFull:
	prev := waitfreeTraversal(s.head, val)
	for {
		p, pVer, curr, ok := validate(val, prev)
		if !ok {
			goto retryInsertFull
		}
		if curr.deleted.Load() {
			prev = p
			continue
		}
		if curr.val == val {
			return false
		}

		newnode := &node{val: val}
		newnode.next.Store(curr)
		if !p.tryLockAtVersion(pVer) {
			prev = p
			continue
		}
		p.next.Store(newnode)
		p.unlockAndIncrement()
		return true
	}
}

func (s *Set) Remove(val Key) bool {
retryRemoveFull:
	prev := waitfreeTraversal(s.head, val)
	for {
		p, pVer, curr, ok := validate(val, prev)
		if !ok {
			goto retryRemoveFull
		}
		if curr.val != val || curr.deleted.Load() {
			return false
		}
		if !p.tryLockAtVersion(pVer) {
			prev = p
			continue
		}

		curr.lockAtCurrentVersion()
		curr.deleted.Store(true)
		p.next.Store(curr.next.Load())
		p.unlockAndIncrement()
		curr.unlockAndIncrement()
		return true
	}
}

// Size walks live (non-deleted) nodes, excluding the sentinels.
func (s *Set) Size() int {
	size := 0
	for curr := s.head.next.Load(); curr.next.Load() != nil; curr = curr.next.Load() {
		if !curr.deleted.Load() {
			size++
		}
	}
	return size
}
