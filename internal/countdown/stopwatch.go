package countdown

import (
	"sync"
	"time"
)

// Stopwatch measures elapsed wall-clock time across pauses.
type Stopwatch struct {
	clock func() time.Time

	mu          sync.Mutex
	running     bool
	startedAt   time.Time
	accumulated time.Duration
}

// NewStopwatch returns a stopped stopwatch at zero. Only WithClock applies.
func NewStopwatch(opts ...Option) *Stopwatch {
	o := buildOptions(opts)
	return &Stopwatch{clock: o.clock}
}

// Start resumes counting. No-op if already running.
func (s *Stopwatch) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.startedAt = s.clock()
}

// Pause stops counting and keeps the elapsed time.
func (s *Stopwatch) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.accumulated += s.clock().Sub(s.startedAt)
	s.running = false
}

// Reset stops the stopwatch and zeroes it.
func (s *Stopwatch) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.accumulated = 0
}

// Running reports whether the stopwatch is counting.
func (s *Stopwatch) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Stopwatch) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return s.accumulated
	}
	return s.accumulated + s.clock().Sub(s.startedAt)
}
