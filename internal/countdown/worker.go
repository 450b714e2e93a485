package countdown

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

// worker runs every countdown on one long-lived goroutine. Timers are
// tracked by id; Start and Stop never block on the goroutine, so both can be
// called from inside callbacks.
type worker struct {
	tick   time.Duration
	clock  func() time.Time
	logger *slog.Logger

	mu     sync.Mutex
	timers map[string]*timer
	seq    uint64
	closed bool

	wake     chan struct{}
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func newWorker(o options) *worker {
	w := &worker{
		tick:   o.tick,
		clock:  o.clock,
		logger: o.logger,
		timers: make(map[string]*timer),
		wake:   make(chan struct{}, 1),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *worker) Start(durationSeconds int, onTick func(int), onDone func()) StopFunc {
	return w.StartUntil(endAfter(w.clock(), durationSeconds), onTick, onDone)
}

func (w *worker) StartUntil(endAt time.Time, onTick func(int), onDone func()) StopFunc {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return func() {}
	}
	w.seq++
	t := newTimer(w.seq, endAt, onTick, onDone)
	w.timers[t.id] = t
	w.mu.Unlock()

	w.logger.Debug("countdown started", "backend", BackendWorker, "id", t.id, "ends_at", endAt)
	w.poke()

	return func() {
		if t.stopped.Load() {
			return
		}
		t.stop()
		w.logger.Debug("countdown stopped", "backend", BackendWorker, "id", t.id)
		w.poke()
	}
}

func (w *worker) poke() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *worker) Close() error {
	w.stopOnce.Do(func() {
		w.mu.Lock()
		w.closed = true
		for _, t := range w.timers {
			t.stop()
		}
		w.timers = map[string]*timer{}
		w.mu.Unlock()
		close(w.quit)
	})
	<-w.done
	return nil
}

func (w *worker) run() {
	defer close(w.done)

	ticker := time.NewTicker(w.tick)
	defer ticker.Stop()

	for {
		select {
		case <-w.quit:
			return
		case <-w.wake:
			w.fire(true)
		case <-ticker.C:
			w.fire(false)
		}
	}
}

// fire steps due timers in start order. With onlyNew set, only timers that
// have not ticked yet are stepped, giving each countdown its immediate tick.
func (w *worker) fire(onlyNew bool) {
	w.mu.Lock()
	due := make([]*timer, 0, len(w.timers))
	for id, t := range w.timers {
		if t.stopped.Load() {
			delete(w.timers, id)
			continue
		}
		if onlyNew && t.ticked {
			continue
		}
		due = append(due, t)
	}
	w.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].seq < due[j].seq })

	now := w.clock()
	for _, t := range due {
		t.ticked = true
		if t.step(now) {
			w.mu.Lock()
			delete(w.timers, t.id)
			w.mu.Unlock()
		}
	}
}
