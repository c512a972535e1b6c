// Package coupling implements a sorted singly-linked integer set using
// hand-over-hand locking: every traversal holds a predecessor's lock and
// its successor's lock simultaneously, releasing the predecessor only once
// the successor is held. It's the simplest of the four non-trivial
// back-ends in this module — a direct port of the source's coupling.c,
// generalized from a single ALGONAME list into one of several
// interchangeable Set implementations.
package coupling

import (
	"math"
	"sync"

	"github.com/joeycumines/go-ordset/internal/config"
)

// Key is the element type stored in a Set.
type Key = int64

// KeyMin and KeyMax are reserved sentinels: never insert, remove, or query
// for them (undefined behavior, not checked on the hot path).
const (
	KeyMin Key = math.MinInt64
	KeyMax Key = math.MaxInt64
)

type node struct {
	val  Key
	next *node
	mu   sync.Mutex
}

// Set is a hand-over-hand locked sorted linked list.
type Set struct {
	head *node
}

// New constructs an empty Set. cfg is accepted for interface uniformity
// with the other back-ends but unused: coupling never needs RCU/GC
// participant counts.
func New(cfg *config.Config) *Set {
	_ = cfg
	tail := &node{val: KeyMax}
	head := &node{val: KeyMin, next: tail}
	return &Set{head: head}
}

// RegisterThread and UnregisterThread exist to satisfy ordset.ThreadRegistrar
// uniformly across back-ends. Coupling never blocks on anything but node
// locks, so there is no participant table to join.
func (s *Set) RegisterThread(id int) {
	if id < 0 {
		panic(`coupling: RegisterThread: negative id`)
	}
}

func (s *Set) UnregisterThread() {}

// Contains reports whether val is present. Linearizes at the instant both
// curr's and its predecessor's locks are held and curr.val is inspected.
func (s *Set) Contains(val Key) bool {
	curr := s.head
	curr.mu.Lock()
	next := curr.next
	next.mu.Lock()

	for next.val < val {
		curr.mu.Unlock()
		curr = next
		next = curr.next
		next.mu.Lock()
	}

	found := next.val == val
	curr.mu.Unlock()
	next.mu.Unlock()
	return found
}

// Insert adds val if absent, returning whether it was newly inserted.
// Linearizes at the unlock of the held pair once the splice is visible.
func (s *Set) Insert(val Key) bool {
	curr := s.head
	curr.mu.Lock()
	next := curr.next
	next.mu.Lock()

	for next.val < val {
		curr.mu.Unlock()
		curr = next
		next = curr.next
		next.mu.Lock()
	}

	found := next.val == val
	if !found {
		curr.next = &node{val: val, next: next}
	}
	curr.mu.Unlock()
	next.mu.Unlock()
	return !found
}

// Remove deletes val if present, returning whether it was removed.
func (s *Set) Remove(val Key) bool {
	curr := s.head
	curr.mu.Lock()
	next := curr.next
	next.mu.Lock()

	for next.val < val {
		curr.mu.Unlock()
		curr = next
		next = curr.next
		next.mu.Lock()
	}

	found := next.val == val
	if found {
		curr.next = next.next
	}
	curr.mu.Unlock()
	next.mu.Unlock()
	// No other thread can hold a reference to next: anyone walking into it
	// would have blocked on next.mu, and the link into it is already gone.
	return found
}

// Size walks the list, excluding the head and tail sentinels. It is a
// diagnostic, non-linearizable operation, per the uniform Set contract.
func (s *Set) Size() int {
	size := 0
	for curr := s.head.next; curr.next != nil; curr = curr.next {
		size++
	}
	return size
}
