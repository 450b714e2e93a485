package workout

import "time"

// WorkoutExercise is one step of an active workout's plan. Exercise is a
// snapshot taken at start; later edits to the stored exercise do not affect it.
type WorkoutExercise struct {
	Exercise      Exercise `json:"exercise"`
	Level         int      `json:"level"`
	CompletedSets int      `json:"completed_sets"`
}

// TotalSets is the number of sets at the entry's level.
func (we *WorkoutExercise) TotalSets() int {
	return we.Exercise.LevelSetCount(we.Level)
}

// ActiveWorkout is the in-progress execution of one exercise or one session.
type ActiveWorkout struct {
	ID                     string            `json:"id"`
	StartedAt              time.Time         `json:"started_at"`
	Exercises              []WorkoutExercise `json:"exercises"`
	CurrentExerciseIndex   int               `json:"current_exercise_index"`
	CurrentSet             int               `json:"current_set"` // 1-based
	IsResting              bool              `json:"is_resting"`
	RestEndsAt             *time.Time        `json:"rest_ends_at"`
	IsRestBetweenExercises bool              `json:"is_rest_between_exercises"`
	RestBetweenExercises   int               `json:"rest_between_exercises"`
}

// Current returns the entry being performed, or nil if the index is out of range.
func (w *ActiveWorkout) Current() *WorkoutExercise {
	if w == nil || w.CurrentExerciseIndex < 0 || w.CurrentExerciseIndex >= len(w.Exercises) {
		return nil
	}
	return &w.Exercises[w.CurrentExerciseIndex]
}

// IsLastExercise reports whether the current entry is the final one in the plan.
func (w *ActiveWorkout) IsLastExercise() bool {
	return w.CurrentExerciseIndex >= len(w.Exercises)-1
}

// Clone returns a deep copy so callers can read it without holding a lock.
func (w *ActiveWorkout) Clone() *ActiveWorkout {
	if w == nil {
		return nil
	}
	out := *w
	out.Exercises = make([]WorkoutExercise, len(w.Exercises))
	for i, we := range w.Exercises {
		we.Exercise = we.Exercise.Clone()
		out.Exercises[i] = we
	}
	if w.RestEndsAt != nil {
		t := *w.RestEndsAt
		out.RestEndsAt = &t
	}
	return &out
}
