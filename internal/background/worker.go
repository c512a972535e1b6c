// Package background implements the indexed list's maintenance loop: the
// periodic restructure/reclaim pass described in spec.md §4.7's
// "Background worker" section, ported from the source's background.c.
// Shutdown follows the same stopOnce/done-channel idiom this module's
// teacher uses for microbatch.Batcher's goroutine lifecycle, rather than a
// bare close with no synchronization.
package background

import (
	"sync"
	"time"

	"github.com/joeycumines/go-ordset/internal/config"
	"github.com/joeycumines/go-ordset/internal/indexed"
	"github.com/joeycumines/go-ordset/internal/telemetry"
)

// Worker runs the indexed Set's background maintenance pass until Stop is
// called.
type Worker struct {
	set  *indexed.Set
	cfg  *config.Config
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// Start spawns the background goroutine and returns immediately; the first
// pass runs after one BackgroundInterval sleep, matching the source's
// usleep-then-work loop.
func Start(set *indexed.Set, cfg *config.Config) *Worker {
	w := &Worker{
		set:  set,
		cfg:  cfg,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go w.run()
	return w
}

// Stop signals the background goroutine and blocks until it has exited.
// Safe to call more than once.
func (w *Worker) Stop() {
	w.once.Do(func() { close(w.stop) })
	<-w.done
}

func (w *Worker) run() {
	defer close(w.done)

	logger := w.cfg.LoggerOrDefault()
	interval := w.cfg.BackgroundIntervalOrDefault()
	idxGap := w.cfg.IdxGapOrDefault()
	maxGap := w.cfg.MaxGap()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return
		case <-ticker.C:
			w.pass(logger, idxGap, maxGap)
		}
	}
}

func (w *Worker) pass(logger *telemetry.Logger, idxGap, maxGap int) {
	batch := w.set.CutFreelist()

	if gap := w.set.MaxGap(); gap > maxGap {
		logger.Debug().Str("event", telemetry.EventRestructureStart).Int("gap", gap).Log("restructuring index")
		w.set.Restructure(idxGap)
		logger.Debug().Str("event", telemetry.EventRestructureDone).Log("restructure complete")
	}

	logger.Debug().Str("event", telemetry.EventGraceWait).Log("waiting for grace period")
	w.set.Synchronize()

	w.set.FreeBatch(batch)
	logger.Debug().Str("event", telemetry.EventFreelistReclaimed).Log("freelist batch reclaimed")

	w.set.ScanAll()
}
