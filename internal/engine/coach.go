package engine

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/hpungsan/reps/internal/countdown"
	"github.com/hpungsan/reps/internal/workout"
)

// EventType names what a Coach event reports.
type EventType string

const (
	EventTick       EventType = "tick"
	EventRestDone   EventType = "rest_done"
	EventCardioDone EventType = "cardio_done"
	EventFinished   EventType = "finished"
	EventQuit       EventType = "quit"
)

// TimerKind says which countdown a tick belongs to.
type TimerKind string

const (
	TimerRest   TimerKind = "rest"
	TimerCardio TimerKind = "cardio"
)

// Event is delivered to the Coach listener.
type Event struct {
	Type      EventType              `json:"type"`
	Timer     TimerKind              `json:"timer,omitempty"`
	Remaining int                    `json:"remaining,omitempty"`
	Result    *workout.WorkoutResult `json:"result,omitempty"`
}

// CoachOption configures a Coach.
type CoachOption func(*Coach)

// WithCoachClock replaces time.Now. It should match the engine's clock.
func WithCoachClock(clock func() time.Time) CoachOption {
	return func(c *Coach) {
		if clock != nil {
			c.clock = clock
		}
	}
}

func WithCoachLogger(logger *slog.Logger) CoachOption {
	return func(c *Coach) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithListener sets the event listener. It may be called from countdown
// goroutines and must not block for long.
func WithListener(fn func(Event)) CoachOption {
	return func(c *Coach) {
		c.listener = fn
	}
}

// Coach runs the rest and cardio countdowns for an Engine. Countdown
// callbacks are turned into ordinary engine commands. At most one rest and
// one cardio countdown run at a time, and every countdown is stopped before
// the workout it belongs to is discarded.
type Coach struct {
	engine   *Engine
	timers   countdown.Service
	clock    func() time.Time
	logger   *slog.Logger
	listener func(Event)

	mu         sync.Mutex
	restStop   countdown.StopFunc
	restEndsAt time.Time
	restGen    uint64
	cardioStop countdown.StopFunc
	cardioGen  uint64
}

// NewCoach wraps engine with countdowns from timers.
func NewCoach(engine *Engine, timers countdown.Service, opts ...CoachOption) *Coach {
	c := &Coach{
		engine: engine,
		timers: timers,
		clock:  time.Now,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Engine returns the wrapped engine for read-only queries.
func (c *Coach) Engine() *Engine { return c.engine }

// Status is Engine.Status plus whether a cardio countdown is running.
func (c *Coach) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.engine.Status()
	st.CardioRunning = c.cardioStop != nil
	return st
}

func (c *Coach) StartSingleExerciseWorkout(exerciseID string, level int) {
	c.run(func() []Event {
		c.stopAll()
		c.engine.StartSingleExerciseWorkout(exerciseID, level)
		return nil
	})
}

func (c *Coach) StartSessionWorkout(sessionID string) {
	c.run(func() []Event {
		c.stopAll()
		c.engine.StartSessionWorkout(sessionID)
		return nil
	})
}

// CompleteSet completes the current set, stopping a running cardio countdown.
func (c *Coach) CompleteSet() {
	c.run(func() []Event {
		c.stopCardio()
		c.engine.CompleteSet()
		return nil
	})
}

// RestComplete ends the current rest early or answers the advance prompt.
func (c *Coach) RestComplete() {
	c.run(func() []Event {
		c.stopRest()
		c.engine.RestComplete()
		return nil
	})
}

// SkipRest is RestComplete under the name the interactive surfaces use.
func (c *Coach) SkipRest() { c.RestComplete() }

// SetRestEndsAt moves the rest end time and restarts the rest countdown.
func (c *Coach) SetRestEndsAt(t *time.Time) {
	c.run(func() []Event {
		c.stopRest()
		c.engine.SetRestEndsAt(t)
		return nil
	})
}

// Quit stops every countdown and discards the workout.
func (c *Coach) Quit() {
	c.mu.Lock()
	had := c.engine.State() != NoWorkout
	c.stopAll()
	c.engine.QuitWorkout()
	c.mu.Unlock()

	if had {
		c.emit(Event{Type: EventQuit})
	}
}

// Resume recomputes the rest countdown from the stored end time, for use
// after the process was suspended. An elapsed rest completes immediately.
func (c *Coach) Resume() {
	c.run(func() []Event {
		c.stopRest()
		return nil
	})
}

// StartCardioSet starts the countdown for the current cardio set. It reports
// false when not in a cardio set.
func (c *Coach) StartCardioSet() bool {
	c.mu.Lock()
	if c.engine.State() != InSet {
		c.mu.Unlock()
		return false
	}
	info, ok := c.engine.CurrentSetInfo()
	if !ok || info.Duration == nil {
		c.mu.Unlock()
		return false
	}

	c.stopCardio()
	c.cardioGen++
	gen := c.cardioGen
	c.cardioStop = c.timers.Start(*info.Duration,
		func(remaining int) { c.onTick(TimerCardio, gen, remaining) },
		func() { c.onCardioDone(gen) },
	)
	c.mu.Unlock()
	return true
}

// CompleteEarly ends a running cardio countdown and completes the set.
func (c *Coach) CompleteEarly() bool {
	c.mu.Lock()
	if c.cardioStop == nil {
		c.mu.Unlock()
		return false
	}
	c.mu.Unlock()
	c.CompleteSet()
	return true
}

// CardioRunning reports whether a cardio countdown is in progress.
func (c *Coach) CardioRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cardioStop != nil
}

// Close stops all countdowns. The workout itself is kept.
func (c *Coach) Close() {
	c.mu.Lock()
	c.stopAll()
	c.mu.Unlock()
}

// run executes cmd under the coach lock, re-syncs countdowns with the engine
// and emits the collected events after unlocking.
func (c *Coach) run(cmd func() []Event) {
	c.mu.Lock()
	before := c.lastResultID()
	events := cmd()
	events = append(events, c.sync(before)...)
	c.mu.Unlock()

	c.emit(events...)
}

// sync makes the running countdowns match the engine state. Caller holds c.mu.
func (c *Coach) sync(beforeResult string) []Event {
	var events []Event
	for {
		w := c.engine.Active()
		if w == nil {
			c.stopAll()
			if r := c.engine.LastResult(); r != nil && r.ID != beforeResult {
				events = append(events, Event{Type: EventFinished, Result: r})
			}
			return events
		}
		if !w.IsResting {
			c.stopRest()
			return events
		}
		c.stopCardio()
		if w.RestEndsAt == nil {
			// Zero-length rest: wait for RestComplete.
			c.stopRest()
			return events
		}
		if c.restStop != nil && c.restEndsAt.Equal(*w.RestEndsAt) {
			return events
		}

		c.stopRest()
		endsAt := *w.RestEndsAt
		if countdown.RemainingSeconds(endsAt, c.clock()) == 0 {
			c.engine.RestComplete()
			events = append(events, Event{Type: EventRestDone, Timer: TimerRest})
			continue
		}

		// The engine's end time stays authoritative; the countdown follows it.
		c.restEndsAt = endsAt
		c.restGen++
		gen := c.restGen
		c.restStop = c.timers.StartUntil(endsAt,
			func(rem int) { c.onTick(TimerRest, gen, rem) },
			func() { c.onRestDone(gen) },
		)
		c.logger.Debug("rest countdown started", "ends_at", endsAt, "between_exercises", w.IsRestBetweenExercises)
		return events
	}
}

func (c *Coach) onTick(kind TimerKind, gen uint64, remaining int) {
	c.mu.Lock()
	current := (kind == TimerRest && gen == c.restGen && c.restStop != nil) ||
		(kind == TimerCardio && gen == c.cardioGen && c.cardioStop != nil)
	c.mu.Unlock()
	if current {
		c.emit(Event{Type: EventTick, Timer: kind, Remaining: remaining})
	}
}

func (c *Coach) onRestDone(gen uint64) {
	c.mu.Lock()
	if gen != c.restGen || c.restStop == nil {
		c.mu.Unlock()
		return
	}
	c.restStop = nil
	before := c.lastResultID()
	c.engine.RestComplete()
	events := append([]Event{{Type: EventRestDone, Timer: TimerRest}}, c.sync(before)...)
	c.mu.Unlock()

	c.emit(events...)
}

func (c *Coach) onCardioDone(gen uint64) {
	c.mu.Lock()
	if gen != c.cardioGen || c.cardioStop == nil {
		c.mu.Unlock()
		return
	}
	c.cardioStop = nil
	before := c.lastResultID()
	c.engine.CompleteSet()
	events := append([]Event{{Type: EventCardioDone, Timer: TimerCardio}}, c.sync(before)...)
	c.mu.Unlock()

	c.emit(events...)
}

func (c *Coach) lastResultID() string {
	if r := c.engine.LastResult(); r != nil {
		return r.ID
	}
	return ""
}

func (c *Coach) stopRest() {
	if c.restStop != nil {
		c.restStop()
		c.restStop = nil
	}
	c.restEndsAt = time.Time{}
}

func (c *Coach) stopCardio() {
	if c.cardioStop != nil {
		c.cardioStop()
		c.cardioStop = nil
	}
}

func (c *Coach) stopAll() {
	c.stopRest()
	c.stopCardio()
}

func (c *Coach) emit(events ...Event) {
	if c.listener == nil {
		return
	}
	for _, ev := range events {
		c.listener(ev)
	}
}
