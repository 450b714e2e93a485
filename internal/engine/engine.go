// Package engine drives the single active workout: starting it, advancing
// through sets and exercises, resting, quitting, and finishing into a result.
//
// Commands never return errors. A command whose preconditions do not hold
// (unknown id, empty session, no workout in progress) leaves state unchanged.
package engine

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/hpungsan/reps/internal/workout"
)

// Catalog supplies read-only snapshots of the stored exercises and sessions.
type Catalog interface {
	Exercises() []workout.Exercise
	Sessions() []workout.Session
}

// Recorder persists finished workouts. Failures are logged and never affect
// engine state.
type Recorder interface {
	SaveWorkoutResult(workout.WorkoutResult) error
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithIDGenerator replaces workout.NewID for workout and result ids.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) {
		if newID != nil {
			e.newID = newID
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Engine owns the active workout and the last finished result. All commands
// and queries are serialized by one mutex.
type Engine struct {
	catalog  Catalog
	recorder Recorder
	clock    func() time.Time
	newID    func() string
	logger   *slog.Logger

	mu         sync.Mutex
	active     *workout.ActiveWorkout
	lastResult *workout.WorkoutResult
}

// New creates an Engine with no workout in progress. recorder may be nil.
func New(catalog Catalog, recorder Recorder, opts ...Option) *Engine {
	e := &Engine{
		catalog:  catalog,
		recorder: recorder,
		clock:    time.Now,
		newID:    workout.NewID,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// StartSingleExerciseWorkout replaces any active workout with a one-exercise
// plan. No-op if the exercise or level does not exist.
func (e *Engine) StartSingleExerciseWorkout(exerciseID string, level int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ex, ok := findExercise(e.catalog.Exercises(), exerciseID)
	if !ok {
		return
	}
	if _, ok := ex.FindLevel(level); !ok {
		return
	}
	e.begin([]workout.WorkoutExercise{{Exercise: ex.Clone(), Level: level}}, 0)
}

// StartSessionWorkout replaces any active workout with the session's plan in
// session order. No-op if the session is missing or empty, or if any entry
// references an exercise or level that no longer exists.
func (e *Engine) StartSessionWorkout(sessionID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var (
		session workout.Session
		found   bool
	)
	for _, s := range e.catalog.Sessions() {
		if s.ID == sessionID {
			session, found = s, true
			break
		}
	}
	if !found || len(session.Exercises) == 0 {
		return
	}

	exercises := e.catalog.Exercises()
	plan := make([]workout.WorkoutExercise, 0, len(session.Exercises))
	for _, entry := range session.Exercises {
		ex, ok := findExercise(exercises, entry.ExerciseID)
		if !ok {
			return
		}
		if _, ok := ex.FindLevel(entry.Level); !ok {
			return
		}
		plan = append(plan, workout.WorkoutExercise{Exercise: ex.Clone(), Level: entry.Level})
	}
	e.begin(plan, session.RestBetweenExercises)
}

func (e *Engine) begin(plan []workout.WorkoutExercise, restBetweenExercises int) {
	e.active = &workout.ActiveWorkout{
		ID:                   e.newID(),
		StartedAt:            e.clock(),
		Exercises:            plan,
		CurrentExerciseIndex: 0,
		CurrentSet:           1,
		RestBetweenExercises: restBetweenExercises,
	}
	e.logger.Debug("workout started", "workout_id", e.active.ID, "exercises", len(plan))
}

// CompleteSet records the current set. It rests before the next set, rests
// before the next exercise, or finishes the workout after the final set.
// Only valid while in a set.
func (e *Engine) CompleteSet() {
	e.mu.Lock()
	defer e.mu.Unlock()

	w := e.active
	if w == nil || w.IsResting {
		return
	}
	cur := w.Current()
	if cur == nil {
		return
	}

	total := cur.TotalSets()
	isLastSet := cur.CompletedSets+1 >= total
	if cur.CompletedSets < total {
		cur.CompletedSets++
	}

	if isLastSet {
		if w.IsLastExercise() {
			e.finish()
			return
		}
		w.IsResting = true
		w.IsRestBetweenExercises = true
		w.RestEndsAt = e.restEnd(w.RestBetweenExercises)
		return
	}

	w.IsResting = true
	w.IsRestBetweenExercises = false
	w.RestEndsAt = e.restEnd(cur.Exercise.RestBetweenSets)
}

func (e *Engine) restEnd(seconds int) *time.Time {
	if seconds <= 0 {
		return nil
	}
	t := e.clock().Add(time.Duration(seconds) * time.Second)
	return &t
}

// RestComplete ends the current rest: the next set of the same exercise, the
// first set of the next exercise, or finish when no exercise is left.
func (e *Engine) RestComplete() {
	e.mu.Lock()
	defer e.mu.Unlock()

	w := e.active
	if w == nil || !w.IsResting {
		return
	}

	if w.IsRestBetweenExercises {
		next := w.CurrentExerciseIndex + 1
		if next >= len(w.Exercises) {
			e.finish()
			return
		}
		w.CurrentExerciseIndex = next
		w.CurrentSet = 1
	} else {
		w.CurrentSet++
	}
	w.IsResting = false
	w.IsRestBetweenExercises = false
	w.RestEndsAt = nil
}

// QuitWorkout discards the active workout without recording anything.
func (e *Engine) QuitWorkout() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active == nil {
		return
	}
	e.logger.Debug("workout quit", "workout_id", e.active.ID)
	e.active = nil
}

// SetRestEndsAt overwrites the rest end time of the active workout.
func (e *Engine) SetRestEndsAt(t *time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active == nil {
		return
	}
	if t == nil {
		e.active.RestEndsAt = nil
		return
	}
	v := *t
	e.active.RestEndsAt = &v
}

// FinishWorkout converts the active workout into a result, records it and
// exposes it as the last result.
func (e *Engine) FinishWorkout() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active == nil {
		return
	}
	e.finish()
}

func (e *Engine) finish() {
	result := BuildResult(e.active, e.newID(), e.clock())
	e.active = nil
	e.lastResult = &result

	e.logger.Info("workout finished", "result_id", result.ID, "sets", len(result.CompletedSets), "duration_s", result.TotalDurationSeconds)

	if e.recorder == nil {
		return
	}
	if err := e.recorder.SaveWorkoutResult(cloneResult(result)); err != nil {
		e.logger.Error("saving workout result", "result_id", result.ID, "error", err)
	}
}

// ClearLastResult empties the last-result slot.
func (e *Engine) ClearLastResult() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastResult = nil
}

// Active returns a copy of the active workout, or nil.
func (e *Engine) Active() *workout.ActiveWorkout {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active.Clone()
}

// LastResult returns a copy of the most recently finished result, or nil.
func (e *Engine) LastResult() *workout.WorkoutResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.lastResult == nil {
		return nil
	}
	r := cloneResult(*e.lastResult)
	return &r
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return StateOf(e.active)
}

// CurrentSetInfo returns the target of the set being performed (or about to
// be performed after rest). ok is false with no workout in progress.
func (e *Engine) CurrentSetInfo() (workout.SetInfo, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return currentSetInfo(e.active)
}

func currentSetInfo(w *workout.ActiveWorkout) (workout.SetInfo, bool) {
	cur := w.Current()
	if cur == nil {
		return workout.SetInfo{}, false
	}
	return workout.CurrentSetInfo(&cur.Exercise, cur.Level, w.CurrentSet), true
}

// RestRemaining returns max(0, restEndsAt - now). ok is false unless resting
// with an end time.
func (e *Engine) RestRemaining() (time.Duration, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return restRemaining(e.active, e.clock())
}

func restRemaining(w *workout.ActiveWorkout, now time.Time) (time.Duration, bool) {
	if w == nil || !w.IsResting || w.RestEndsAt == nil {
		return 0, false
	}
	d := w.RestEndsAt.Sub(now)
	if d < 0 {
		d = 0
	}
	return d, true
}

func findExercise(exercises []workout.Exercise, id string) (workout.Exercise, bool) {
	for _, ex := range exercises {
		if ex.ID == id {
			return ex, true
		}
	}
	return workout.Exercise{}, false
}

func cloneResult(r workout.WorkoutResult) workout.WorkoutResult {
	out := r
	out.CompletedSets = make([]workout.CompletedSet, len(r.CompletedSets))
	for i, cs := range r.CompletedSets {
		if cs.Reps != nil {
			v := *cs.Reps
			cs.Reps = &v
		}
		if cs.Duration != nil {
			v := *cs.Duration
			cs.Duration = &v
		}
		out.CompletedSets[i] = cs
	}
	out.ExerciseNames = append([]string(nil), r.ExerciseNames...)
	return out
}
