package indexed

import (
	"sync/atomic"

	"github.com/joeycumines/go-ordset/internal/config"
	"github.com/joeycumines/go-ordset/internal/reclaim"
	"github.com/joeycumines/go-ordset/internal/rcu"
)

// Set is the indexed lock-free ordered set: the core back-end.
type Set struct {
	head       *node
	idx        atomic.Pointer[index]
	rcu        *rcu.RCU
	free       *reclaim.Freelist[node, *node]
	locals     []reclaim.Local[node, *node]
	slots      chan int
	numThreads int
	cfg        *config.Config
}

// New constructs a Set with cfg's NumThreads participants, plus one
// reserved slot for the background worker (see package doc: slot
// NumThreads is never handed out through RegisterThread/the user pool).
func New(cfg *config.Config) *Set {
	numThreads := cfg.NumThreadsOrDefault()
	head := newNode(KeyMin, live, nil, nil)

	s := &Set{
		head:       head,
		rcu:        rcu.New(numThreads + 1),
		free:       reclaim.New[node, *node](cfg.GCThresholdOrDefault()),
		locals:     make([]reclaim.Local[node, *node], numThreads+1),
		slots:      make(chan int, numThreads),
		numThreads: numThreads,
		cfg:        cfg,
	}
	for i := 0; i < numThreads; i++ {
		s.slots <- i
	}

	b := newIndexBuilder(1)
	b.append(KeyMin, head)
	s.idx.Store(b.build())

	return s
}

// RegisterThread range-checks id; the indexed back-end's RCU/GC slots are
// sized at construction time and acquired dynamically per call (see
// package doc), so registration carries no further state to bind.
func (s *Set) RegisterThread(id int) {
	if id < 0 || id >= s.numThreads {
		panic(`indexed: RegisterThread: id out of range`)
	}
}

func (s *Set) UnregisterThread() {}

// op acquires a participant slot for the duration of one RCU read section
// and runs op/k/fast within it.
func (s *Set) op(kind opKind, k Key, fast bool) bool {
	slot := <-s.slots
	defer func() { s.slots <- slot }()

	s.rcu.ReadLock(slot)
	defer s.rcu.ReadUnlock(slot)

	return s.doOperation(slot, kind, k, fast)
}

func (s *Set) Contains(k Key) bool { return s.op(opContains, k, true) }
func (s *Set) Insert(k Key) bool   { return s.op(opInsert, k, true) }
func (s *Set) Remove(k Key) bool   { return s.op(opRemove, k, true) }

// Size walks live nodes from head, excluding deleted and physically
// pending ones. A diagnostic, non-linearizable operation.
func (s *Set) Size() int {
	size := 0
	for curr := s.head.next.Load(); curr != nil; curr = curr.next.Load() {
		v := curr.v.Load()
		if v != nil && v != curr {
			size++
		}
	}
	return size
}
