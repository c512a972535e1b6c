// Package lazy implements a sorted integer set whose traversal is
// lock-free: both Insert and Remove walk the list without locking, then
// acquire just the predecessor/successor pair and validate them before
// mutating. It is a direct port of the source's lazy.c.
//
// Reclamation: Remove only logically deletes (sets node.marked) before
// physically unlinking; it never frees the unlinked node. This matches a
// documented limitation of the source list this package is ported from
// (see SPEC_FULL.md §6.3) — callers who need bounded memory under
// sustained insert/remove churn should use the indexed back-end instead,
// which implements real RCU-guarded reclamation.
package lazy

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/joeycumines/go-ordset/internal/config"
)

type Key = int64

const (
	KeyMin Key = math.MinInt64
	KeyMax Key = math.MaxInt64
)

type node struct {
	val    Key
	next   *node
	mu     sync.Mutex
	marked atomic.Bool
}

type Set struct {
	head *node
}

func New(cfg *config.Config) *Set {
	_ = cfg
	tail := &node{val: KeyMax}
	head := &node{val: KeyMin, next: tail}
	return &Set{head: head}
}

func (s *Set) RegisterThread(id int) {
	if id < 0 {
		panic(`lazy: RegisterThread: negative id`)
	}
}

func (s *Set) UnregisterThread() {}

// validate confirms pred and curr are both still unmarked and adjacent.
func validate(pred, curr *node) bool {
	return !pred.marked.Load() && !curr.marked.Load() && pred.next == curr
}

// Contains is wait-free: an unlocked forward walk.
func (s *Set) Contains(val Key) bool {
	curr := s.head
	for curr.val < val {
		curr = curr.next
	}
	return curr.val == val && !curr.marked.Load()
}

func (s *Set) Insert(val Key) bool {
	for {
		pred := s.head
		curr := pred.next
		for curr.val < val {
			pred = curr
			curr = curr.next
		}

		pred.mu.Lock()
		curr.mu.Lock()
		ok := validate(pred, curr)
		if ok {
			found := curr.val == val
			if !found {
				pred.next = &node{val: val, next: curr}
			}
			pred.mu.Unlock()
			curr.mu.Unlock()
			return !found
		}
		pred.mu.Unlock()
		curr.mu.Unlock()
		// validation failed: restart the whole operation
	}
}

func (s *Set) Remove(val Key) bool {
	for {
		pred := s.head
		curr := pred.next
		for curr.val < val {
			pred = curr
			curr = curr.next
		}

		pred.mu.Lock()
		curr.mu.Lock()
		ok := validate(pred, curr)
		if ok {
			found := curr.val == val
			if found {
				// Logical deletion precedes physical unlinking.
				curr.marked.Store(true)
				pred.next = curr.next
			}
			pred.mu.Unlock()
			curr.mu.Unlock()
			return found
		}
		pred.mu.Unlock()
		curr.mu.Unlock()
	}
}

func (s *Set) Size() int {
	size := 0
	curr := s.head.next
	for curr.next != nil {
		if !curr.marked.Load() {
			size++
		}
		curr = curr.next
	}
	return size
}
