package countdown

import (
	"log/slog"
	"sync"
	"time"
)

// interval gives each countdown its own goroutine and ticker.
type interval struct {
	tick   time.Duration
	clock  func() time.Time
	logger *slog.Logger

	mu     sync.Mutex
	timers map[string]*timer
	seq    uint64
	closed bool
	wg     sync.WaitGroup
}

func newInterval(o options) *interval {
	return &interval{
		tick:   o.tick,
		clock:  o.clock,
		logger: o.logger,
		timers: make(map[string]*timer),
	}
}

func (s *interval) Start(durationSeconds int, onTick func(int), onDone func()) StopFunc {
	return s.StartUntil(endAfter(s.clock(), durationSeconds), onTick, onDone)
}

func (s *interval) StartUntil(endAt time.Time, onTick func(int), onDone func()) StopFunc {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return func() {}
	}
	s.seq++
	t := newTimer(s.seq, endAt, onTick, onDone)
	s.timers[t.id] = t
	s.wg.Add(1)
	s.mu.Unlock()

	s.logger.Debug("countdown started", "backend", BackendInterval, "id", t.id, "ends_at", endAt)

	go func() {
		defer s.wg.Done()
		defer s.forget(t.id)

		ticker := time.NewTicker(s.tick)
		defer ticker.Stop()

		if t.step(s.clock()) {
			return
		}
		for {
			select {
			case <-t.quit:
				return
			case <-ticker.C:
				if t.step(s.clock()) {
					return
				}
			}
		}
	}()

	return func() {
		if t.stopped.Load() {
			return
		}
		t.stop()
		s.logger.Debug("countdown stopped", "backend", BackendInterval, "id", t.id)
	}
}

func (s *interval) forget(id string) {
	s.mu.Lock()
	delete(s.timers, id)
	s.mu.Unlock()
}

func (s *interval) Close() error {
	s.mu.Lock()
	s.closed = true
	for _, t := range s.timers {
		t.stop()
	}
	s.mu.Unlock()
	s.wg.Wait()
	return nil
}
