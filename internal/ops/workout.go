package ops

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hpungsan/reps/internal/engine"
	"github.com/hpungsan/reps/internal/errors"
)

// WorkoutStarter is satisfied by engine.Engine and engine.Coach.
type WorkoutStarter interface {
	StartSingleExerciseWorkout(exerciseID string, level int)
	StartSessionWorkout(sessionID string)
	Status() engine.Status
}

// StartWorkoutInput names what a workout starts from: one exercise at a
// level, or a session.
type StartWorkoutInput struct {
	ExerciseID string
	Level      int // default: 1
	SessionID  string
}

// StartWorkout checks that the target exists and starts it. The engine
// ignores unknown targets silently, so surfaces go through here to get an
// error instead.
func StartWorkout(ctx context.Context, database *sql.DB, starter WorkoutStarter, input StartWorkoutInput) (engine.Status, error) {
	switch {
	case input.SessionID != "" && input.ExerciseID != "":
		return engine.Status{}, errors.NewInvalidRequest("give either an exercise or a session, not both")

	case input.SessionID != "":
		session, err := GetSession(ctx, database, input.SessionID)
		if err != nil {
			return engine.Status{}, err
		}
		if len(session.Exercises) == 0 {
			return engine.Status{}, errors.NewInvalidRequest(fmt.Sprintf("session %s has no exercises", session.Name))
		}
		starter.StartSessionWorkout(session.ID)

	case input.ExerciseID != "":
		ex, err := GetExercise(ctx, database, input.ExerciseID)
		if err != nil {
			return engine.Status{}, err
		}
		level := input.Level
		if level == 0 {
			level = 1
		}
		if _, ok := ex.FindLevel(level); !ok {
			return engine.Status{}, errors.NewInvalidRequest(fmt.Sprintf("exercise %s has no level %d", ex.Name, level))
		}
		starter.StartSingleExerciseWorkout(ex.ID, level)

	default:
		return engine.Status{}, errors.NewInvalidRequest("an exercise or a session is required")
	}

	status := starter.Status()
	if status.State == engine.NoWorkout {
		return status, errors.NewInvalidRequest("workout could not be started; a session exercise or level no longer exists")
	}
	return status, nil
}
