package evaluation

import (
	"sync/atomic"
)

// Progress is a snapshot of an evaluation
type Progress struct {
	Done   int
	Failed int
	Total  int
}

// ProgressFunc receives progress snapshots
type ProgressFunc func(Progress)

// tracker counts completed rows and notifies a ProgressFunc from its own
// goroutine. Workers only bump counters and post a coalescing signal, so a
// slow callback never delays evaluation.
type tracker struct {
	total     int
	fn        ProgressFunc
	completed atomic.Int64
	failed    atomic.Int64
	signal    chan struct{}
	stop      chan struct{}
	exited    chan struct{}
}

func newTracker(total int, fn ProgressFunc) *tracker {
	t := &tracker{
		total:  total,
		fn:     fn,
		signal: make(chan struct{}, 1),
		stop:   make(chan struct{}),
		exited: make(chan struct{}),
	}
	if fn == nil {
		close(t.exited)
		return t
	}
	go t.loop()
	return t
}

func (t *tracker) done(failed bool) {
	t.completed.Add(1)
	if failed {
		t.failed.Add(1)
	}
	if t.fn == nil {
		return
	}
	select {
	case t.signal <- struct{}{}:
	default:
	}
}

func (t *tracker) snapshot() Progress {
	return Progress{Done: int(t.completed.Load()), Failed: int(t.failed.Load()), Total: t.total}
}

func (t *tracker) loop() {
	defer close(t.exited)
	for {
		select {
		case <-t.signal:
			t.fn(t.snapshot())
		case <-t.stop:
			return
		}
	}
}

// close stops the notifier after delivering a final snapshot
func (t *tracker) close() Progress {
	p := t.snapshot()
	if t.fn != nil {
		close(t.stop)
		<-t.exited
		t.fn(p)
	}
	return p
}
