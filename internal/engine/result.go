package engine

import (
	"math"
	"time"

	"github.com/hpungsan/reps/internal/workout"
)

// BuildResult reconstructs the completed sets of w by replaying each entry's
// level up to its completed-set counter. It is a pure function of its inputs.
//
// Entries whose level is missing are skipped. TotalDurationSeconds is
// wall-clock time since start, rests included.
func BuildResult(w *workout.ActiveWorkout, id string, now time.Time) workout.WorkoutResult {
	result := workout.WorkoutResult{
		ID:            id,
		CompletedAt:   now,
		CompletedSets: []workout.CompletedSet{},
		ExerciseNames: []string{},
	}
	if w == nil {
		return result
	}

	if secs := math.Round(now.Sub(w.StartedAt).Seconds()); secs > 0 {
		result.TotalDurationSeconds = int(secs)
	}

	seen := make(map[string]bool, len(w.Exercises))
	for _, we := range w.Exercises {
		if !seen[we.Exercise.Name] {
			seen[we.Exercise.Name] = true
			result.ExerciseNames = append(result.ExerciseNames, we.Exercise.Name)
		}
	}

	for _, we := range w.Exercises {
		level, ok := we.Exercise.FindLevel(we.Level)
		if !ok {
			continue
		}
		n := min(we.CompletedSets, len(level.Sets))
		for i := 0; i < n; i++ {
			cs := workout.CompletedSet{
				ExerciseID:   we.Exercise.ID,
				ExerciseName: we.Exercise.Name,
				SetIndex:     i + 1,
				Level:        we.Level,
			}
			switch s := level.Sets[i].(type) {
			case workout.StrengthSet:
				reps := s.Reps
				cs.Reps = &reps
				cs.Weight = s.Weight
			case workout.CardioSet:
				d := s.Duration
				cs.Duration = &d
				cs.Weight = workout.Bodyweight
				if s.Weight != nil {
					cs.Weight = *s.Weight
				}
			default:
				continue
			}
			result.CompletedSets = append(result.CompletedSets, cs)
		}
	}
	return result
}
