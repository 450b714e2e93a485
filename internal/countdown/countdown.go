// Package countdown runs wall-clock countdowns that report whole seconds
// remaining and signal completion exactly once.
//
// Remaining time is always recomputed from a fixed end timestamp, so a
// delayed or coalesced tick never makes a countdown drift.
package countdown

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Backends accepted by New.
const (
	BackendWorker   = "worker"
	BackendInterval = "interval"
)

// DefaultTick is how often a running countdown recomputes its remaining time.
const DefaultTick = 200 * time.Millisecond

// StopFunc cancels a countdown. It is idempotent and safe to call from inside
// a tick or done callback. Once it returns no further callback is dispatched;
// a callback the countdown goroutine had already begun dispatching when it
// was called may still run to completion. Callers needing a hard cutoff
// against concurrent stops must guard their callbacks.
type StopFunc func()

// Service starts countdowns.
type Service interface {
	// Start begins a countdown of durationSeconds. onTick receives the
	// remaining whole seconds (rounded up, never negative), immediately and
	// then on every tick. onDone fires once when the remaining time reaches 0.
	// A duration <= 0 delivers a single 0 tick followed by done.
	// Either callback may be nil.
	Start(durationSeconds int, onTick func(remaining int), onDone func()) StopFunc

	// StartUntil is Start with an absolute end time. Remaining time is always
	// recomputed from endAt, so restarting a countdown never moves its end.
	StartUntil(endAt time.Time, onTick func(remaining int), onDone func()) StopFunc

	// Close stops every countdown and releases background goroutines.
	// It must not be called from inside a callback.
	Close() error
}

// Option configures a Service or Stopwatch.
type Option func(*options)

type options struct {
	tick   time.Duration
	clock  func() time.Time
	logger *slog.Logger
}

// WithTick sets the recompute interval. Non-positive values are ignored.
func WithTick(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.tick = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		tick:   DefaultTick,
		clock:  time.Now,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New returns the Service for the named backend.
func New(backend string, opts ...Option) (Service, error) {
	o := buildOptions(opts)
	switch backend {
	case BackendWorker, "":
		return newWorker(o), nil
	case BackendInterval:
		return newInterval(o), nil
	default:
		return nil, fmt.Errorf("unknown countdown backend %q", backend)
	}
}

// RemainingSeconds returns ceil((endAt - now) / 1s), clamped at 0.
func RemainingSeconds(endAt, now time.Time) int {
	d := endAt.Sub(now)
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

// timer is one countdown, shared by both backends.
type timer struct {
	id       string
	seq      uint64
	endAt    time.Time
	onTick   func(int)
	onDone   func()
	ticked   bool // worker goroutine only
	stopped  atomic.Bool
	finished atomic.Bool

	quit     chan struct{}
	quitOnce sync.Once
}

// endAfter is now plus durationSeconds, with negative durations treated as 0.
func endAfter(now time.Time, durationSeconds int) time.Time {
	return now.Add(time.Duration(max(durationSeconds, 0)) * time.Second)
}

func newTimer(seq uint64, endAt time.Time, onTick func(int), onDone func()) *timer {
	return &timer{
		id:     uuid.NewString(),
		seq:    seq,
		endAt:  endAt,
		onTick: onTick,
		onDone: onDone,
		quit:   make(chan struct{}),
	}
}

func (t *timer) stop() {
	t.stopped.Store(true)
	t.quitOnce.Do(func() { close(t.quit) })
}

// step delivers one tick and, at zero, the done signal. It reports whether
// the countdown is over (finished or stopped).
func (t *timer) step(now time.Time) bool {
	if t.stopped.Load() {
		return true
	}
	remaining := RemainingSeconds(t.endAt, now)
	if t.onTick != nil {
		t.onTick(remaining)
	}
	if t.stopped.Load() {
		return true
	}
	if remaining > 0 {
		return false
	}
	if t.finished.CompareAndSwap(false, true) && t.onDone != nil {
		t.onDone()
	}
	return true
}
