package engine

import (
	"fmt"
	"time"

	"github.com/hpungsan/reps/internal/workout"
)

// State is derived from the active workout's fields.
type State int

const (
	NoWorkout State = iota
	InSet
	Resting
	RestingBetweenExercises
)

var stateNames = [...]string{
	NoWorkout:               "no_workout",
	InSet:                   "in_set",
	Resting:                 "resting",
	RestingBetweenExercises: "resting_between_exercises",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// StateOf derives the state of w.
func StateOf(w *workout.ActiveWorkout) State {
	switch {
	case w == nil:
		return NoWorkout
	case !w.IsResting:
		return InSet
	case w.IsRestBetweenExercises:
		return RestingBetweenExercises
	default:
		return Resting
	}
}

// Status is a consistent read of everything a surface shows about the
// active workout.
type Status struct {
	State                State                  `json:"state"`
	Workout              *workout.ActiveWorkout `json:"workout,omitempty"`
	ExerciseName         string                 `json:"exercise_name,omitempty"`
	ExerciseIndex        int                    `json:"exercise_index,omitempty"` // 1-based
	ExerciseCount        int                    `json:"exercise_count,omitempty"`
	Set                  int                    `json:"set,omitempty"`
	TotalSets            int                    `json:"total_sets,omitempty"`
	SetInfo              *workout.SetInfo       `json:"set_info,omitempty"`
	RestRemainingSeconds *int                   `json:"rest_remaining_seconds,omitempty"`
	CardioRunning        bool                   `json:"cardio_running,omitempty"`
}

// Status returns the active workout and its derived fields under one lock.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := Status{State: StateOf(e.active)}
	if e.active == nil {
		return st
	}
	st.Workout = e.active.Clone()
	st.ExerciseIndex = e.active.CurrentExerciseIndex + 1
	st.ExerciseCount = len(e.active.Exercises)
	st.Set = e.active.CurrentSet
	if cur := e.active.Current(); cur != nil {
		st.ExerciseName = cur.Exercise.Name
		st.TotalSets = cur.TotalSets()
	}
	if info, ok := currentSetInfo(e.active); ok {
		st.SetInfo = &info
	}
	if d, ok := restRemaining(e.active, e.clock()); ok {
		secs := int((d + time.Second - 1) / time.Second)
		st.RestRemainingSeconds = &secs
	}
	return st
}
