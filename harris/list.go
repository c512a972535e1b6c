// Package harris implements a lock-free sorted integer set using marked
// pointers for logical deletion, ported from the source's harris.c.
//
// The original encodes the deletion mark in the low bit of the next
// pointer itself. Go gives no portable way to steal a pointer's low bit, so
// this port follows SPEC_FULL.md §5's Go-native realization: next and
// its mark are swapped together as one atomically-replaced struct (link),
// which is exactly the "(node_ref, bool) pair packed into an atomic word"
// alternative the original spec calls out.
package harris

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

// link is the atomically-swapped (next, marked) pair. marked indicates the
// OWNING node (the node whose .next field holds this link) is logically
// deleted.
type link struct {
	next   *node
	marked bool
}

type node struct {
	val  Key
	next atomic.Pointer[link]
}

func newNode(val Key, next *node) *node {
	n := &node{val: val}
	n.next.Store(&link{next: next})
	return n
}

// Set is a lock-free sorted linked list using Harris's marked-pointer
// scheme for logical deletion.
type Set struct {
	head *node
}

func New(cfg *config.Config) *Set {
	_ = cfg
	tail := newNode(KeyMax, nil)
	head := newNode(KeyMin, tail)
	return &Set{head: head}
}

func (s *Set) RegisterThread(id int) {
	if id < 0 {
		panic(`harris: RegisterThread: negative id`)
	}
}

func (s *Set) UnregisterThread() {}

// search returns (left, right, leftLinkPtr) such that left.val < val <=
// right.val, both currently unmarked at the instant of the check, excising
// any run of marked nodes found between them. leftLinkPtr is the exact
// *link pointer currently installed at left.next, returned so callers can
// use it as the CAS comparand without racing a freshly-allocated one
// against pointer identity.
//
// left always starts at head on every attempt — a variant of the source
// this package is grounded on leaves the left candidate uninitialized
// before the first probe; this port never does (SPEC_FULL.md §11.3).
func (s *Set) search(val Key) (left, right *node, leftLinkPtr *link) {
searchAgain:
	for {
		left = s.head
		t := s.head
		tLinkPtr := t.next.Load()
		leftLinkPtr = tLinkPtr

		for {
			if !tLinkPtr.marked {
				left = t
				leftLinkPtr = tLinkPtr
			}
			t = tLinkPtr.next
			next := t.next.Load()
			if next.next == nil {
				// t is the tail sentinel.
				tLinkPtr = next
				break
			}
			tLinkPtr = next
			if !(tLinkPtr.marked || t.val < val) {
				break
			}
		}
		right = t

		if leftLinkPtr.next == right {
			rightLinkPtr := right.next.Load()
			if rightLinkPtr.next != nil && rightLinkPtr.marked {
				continue searchAgain
			}
			return left, right, leftLinkPtr
		}

		// Remove one or more marked nodes by excising the run between left
		// and right in a single CAS.
		excised := &link{next: right}
		if left.next.CompareAndSwap(leftLinkPtr, excised) {
			rightLinkPtr := right.next.Load()
			if rightLinkPtr.next != nil && rightLinkPtr.marked {
				continue searchAgain
			}
			return left, right, excised
		}
	}
}

// Contains runs search and checks the returned right node's key.
func (s *Set) Contains(val Key) bool {
	_, right, _ := s.search(val)
	return right.val == val
}

// Insert splices a new node between left and right if val is absent.
// Linearizes at the successful CAS publishing the new node.
func (s *Set) Insert(val Key) bool {
	for {
		left, right, leftLinkPtr := s.search(val)
		if right.val == val {
			return false
		}
		newnode := newNode(val, right)
		if left.next.CompareAndSwap(leftLinkPtr, &link{next: newnode}) {
			return true
		}
	}
}

// Remove logically deletes right (the node owning val) via a marking CAS,
// then makes a best-effort attempt to physically excise it immediately;
// if that fails, a helper search will excise it later. Linearizes at the
// successful marking CAS.
func (s *Set) Remove(val Key) bool {
	for {
		left, right, leftLinkPtr := s.search(val)
		if right.val != val {
			return false
		}
		rightLinkPtr := right.next.Load()
		if rightLinkPtr.marked {
			// Already logically deleted by a concurrent Remove; the next
			// search pass will skip right entirely.
			continue
		}
		if !right.next.CompareAndSwap(rightLinkPtr, &link{next: rightLinkPtr.next, marked: true}) {
			continue
		}
		if !left.next.CompareAndSwap(leftLinkPtr, &link{next: rightLinkPtr.next}) {
			s.search(right.val)
		}
		return true
	}
}

// Size walks live (unmarked) nodes between the head and tail sentinels. A
// diagnostic, non-linearizable operation.
func (s *Set) Size() int {
	size := 0
	curr := s.head.next.Load().next
	for curr != nil {
		l := curr.next.Load()
		if l.next == nil {
			break // curr is the tail sentinel
		}
		if !l.marked {
			size++
		}
		curr = l.next
	}
	return size
}
