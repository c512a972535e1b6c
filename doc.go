// Package ordset implements a library of concurrent ordered-integer set
// data structures, exposing a uniform Set interface over five graded
// synchronization disciplines: a coarse hand-over-hand locked list
// (coupling), a lazy list with optimistic traversal and validated
// mutation, a lock-free Harris list with marked-pointer logical deletion,
// a versioned optimistic list validated against per-node version stamps,
// and an indexed lock-free list — an array index maintained by a
// background worker over a backward-linked RCU-guarded list with
// deferred-free reclamation, the core back-end of this module.
//
// Use New to construct a Set for a given Backend. Every Set also
// implements ThreadRegistrar, accepted uniformly by every back-end. No
// back-end binds per-caller state to RegisterThread: Indexed acquires a
// participant slot itself for each Contains/Insert/Remove call, so
// RegisterThread only validates the id.
package ordset

import (
	"fmt"
	"math"
	"time"

	"github.com/joeycumines/go-ordset/coupling"
	"github.com/joeycumines/go-ordset/harris"
	"github.com/joeycumines/go-ordset/internal/background"
	"github.com/joeycumines/go-ordset/internal/config"
	"github.com/joeycumines/go-ordset/internal/indexed"
	"github.com/joeycumines/go-ordset/internal/telemetry"
	"github.com/joeycumines/go-ordset/lazy"
	"github.com/joeycumines/go-ordset/versioned"
)

// Key is the element type stored in a Set: a totally ordered 64-bit
// integer. KeyMin and KeyMax are reserved sentinels never used by the
// list's own head/tail nodes as user keys; operating on them is undefined
// behavior, consistent with spec.md §7's stance that misuse is not
// defensively checked.
type Key = int64

const (
	KeyMin Key = math.MinInt64
	KeyMax Key = math.MaxInt64
)

// Set is the uniform membership interface every back-end implements.
// Size is a diagnostic, non-linearizable walk.
type Set interface {
	Contains(key Key) bool
	Insert(key Key) bool
	Remove(key Key) bool
	Size() int
}

// ThreadRegistrar binds a concurrent caller to whatever per-participant
// resources a back-end needs. RegisterThread panics (package-prefixed) on
// an invalid id: Indexed rejects any id outside [0, numThreads), the other
// four back-ends reject only negative ids. Operating without ever
// registering is not checked.
type ThreadRegistrar interface {
	RegisterThread(id int)
	UnregisterThread()
}

// Backend selects one of the five graded synchronization disciplines.
type Backend int

const (
	Coupling Backend = iota
	Lazy
	Harris
	Versioned
	Indexed
)

func (b Backend) String() string {
	switch b {
	case Coupling:
		return "coupling"
	case Lazy:
		return "lazy"
	case Harris:
		return "harris"
	case Versioned:
		return "versioned"
	case Indexed:
		return "indexed"
	default:
		return fmt.Sprintf("ordset.Backend(%d)", int(b))
	}
}

// Option configures a Set constructed by New.
type Option func(*config.Config)

// WithNumThreads sets the number of concurrent participants the Indexed
// back-end sizes its RCU/reclaim tables for. Ignored by every other
// back-end. Defaults to 1.
func WithNumThreads(n int) Option {
	return func(c *config.Config) { c.NumThreads = n }
}

// WithIdxGap sets the Indexed back-end's target index sampling interval.
func WithIdxGap(gap int) Option {
	return func(c *config.Config) { c.IdxGap = gap }
}

// WithMaxGapFactor bounds the tolerated index gap as a multiple of IdxGap
// before the background worker restructures.
func WithMaxGapFactor(factor int) Option {
	return func(c *config.Config) { c.MaxGapFactor = factor }
}

// WithGCThreshold sets how many retired nodes an Indexed participant
// accumulates locally before splicing them onto the global freelist.
func WithGCThreshold(n int) Option {
	return func(c *config.Config) { c.GCThreshold = n }
}

// WithBackgroundInterval sets the Indexed back-end's maintenance pass
// period.
func WithBackgroundInterval(d time.Duration) Option {
	return func(c *config.Config) { c.BackgroundInterval = d }
}

// WithLogger sets the logger the Indexed back-end's background worker
// emits lifecycle events through.
func WithLogger(l *telemetry.Logger) Option {
	return func(c *config.Config) { c.Logger = l }
}

// indexedHandle wraps *indexed.Set together with its background worker so
// New can return a single Set satisfying both Set and ThreadRegistrar
// while still starting/owning the maintenance goroutine.
type indexedHandle struct {
	*indexed.Set
	bg *background.Worker
}

// New constructs a Set for the given Backend. numThreads is forwarded to
// the Indexed back-end via WithNumThreads if no such option is supplied
// explicitly; the other four back-ends accept any numThreads value since
// they never need RCU/reclaim sizing.
func New(backend Backend, numThreads int, opts ...Option) (Set, error) {
	cfg := &config.Config{NumThreads: numThreads}
	for _, opt := range opts {
		opt(cfg)
	}

	switch backend {
	case Coupling:
		return coupling.New(cfg), nil
	case Lazy:
		return lazy.New(cfg), nil
	case Harris:
		return harris.New(cfg), nil
	case Versioned:
		return versioned.New(cfg), nil
	case Indexed:
		set := indexed.New(cfg)
		worker := background.Start(set, cfg)
		return &indexedHandle{Set: set, bg: worker}, nil
	default:
		return nil, fmt.Errorf("ordset: unknown backend %v", backend)
	}
}

// Close stops the background worker backing an Indexed Set. The other
// back-ends own no background goroutine and have no Close method; Close is
// not part of the Set interface itself since only Indexed needs it —
// callers that want uniform cleanup can type-assert for io.Closer.
func (h *indexedHandle) Close() error {
	h.bg.Stop()
	return nil
}
