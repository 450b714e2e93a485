package workout

import "time"

// CompletedSet is one performed set. Exactly one of Reps and Duration is set.
type CompletedSet struct {
	ExerciseID   string `json:"exercise_id"`
	ExerciseName string `json:"exercise_name"`
	SetIndex     int    `json:"set_index"` // 1-based
	Level        int    `json:"level"`
	Reps         *int   `json:"reps,omitempty"`
	Duration     *int   `json:"duration,omitempty"`
	Weight       Weight `json:"weight"`
}

// WorkoutResult is the immutable record of a finished workout.
type WorkoutResult struct {
	ID                   string         `json:"id"`
	CompletedAt          time.Time      `json:"completed_at"`
	TotalDurationSeconds int            `json:"total_duration_seconds"`
	CompletedSets        []CompletedSet `json:"completed_sets"`
	ExerciseNames        []string       `json:"exercise_names"`
}
