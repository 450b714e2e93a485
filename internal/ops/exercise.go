package ops

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hpungsan/reps/internal/db"
	"github.com/hpungsan/reps/internal/errors"
	"github.com/hpungsan/reps/internal/workout"
)

// DefaultRestBetweenSets applies when an exercise is created without a rest.
const DefaultRestBetweenSets = 60

// CreateExerciseInput contains parameters for CreateExercise.
type CreateExerciseInput struct {
	Name            string          // required, trimmed, 2-35 chars
	Kind            workout.Kind    // default: strength
	RestBetweenSets int             // seconds, default: 60
	Levels          []workout.Level // default: LevelCount default levels
	LevelCount      int             // used only when Levels is empty, default: 1
}

// CreateExercise validates and stores a new exercise.
func CreateExercise(ctx context.Context, database *sql.DB, input CreateExerciseInput) (*workout.Exercise, error) {
	if input.Kind == "" {
		input.Kind = workout.KindStrength
	}
	if input.RestBetweenSets == 0 {
		input.RestBetweenSets = DefaultRestBetweenSets
	}

	levels := input.Levels
	if len(levels) == 0 {
		n := input.LevelCount
		if n <= 0 {
			n = 1
		}
		if n > workout.MaxLevels {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("level_count must be 1-%d", workout.MaxLevels))
		}
		levels = make([]workout.Level, 0, n)
		for i := 1; i <= n; i++ {
			levels = append(levels, workout.DefaultLevel(input.Kind, i))
		}
	}

	ex := &workout.Exercise{
		ID:              workout.NewID(),
		Name:            workout.NormalizeName(input.Name),
		RestBetweenSets: input.RestBetweenSets,
		Kind:            input.Kind,
		Levels:          levels,
	}
	if err := workout.ValidateExercise(ex); err != nil {
		return nil, err
	}

	if err := db.InsertExercise(ctx, database, ex, nowMillis()); err != nil {
		return nil, err
	}
	return ex, nil
}

// GetExercise retrieves one exercise.
func GetExercise(ctx context.Context, database *sql.DB, id string) (*workout.Exercise, error) {
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	return db.GetExercise(ctx, database, id)
}

// ListExercises returns every exercise in creation order.
func ListExercises(ctx context.Context, database *sql.DB) ([]workout.Exercise, error) {
	return db.ListExercises(ctx, database)
}

// UpdateExerciseInput contains parameters for UpdateExercise.
// Nil fields are left unchanged.
type UpdateExerciseInput struct {
	ID              string
	Name            *string
	Kind            *workout.Kind
	RestBetweenSets *int
	Levels          []workout.Level
}

// UpdateExercise applies a partial update and re-validates the result.
// Changing Kind without new Levels fails validation because the stored sets
// no longer match.
func UpdateExercise(ctx context.Context, database *sql.DB, input UpdateExerciseInput) (*workout.Exercise, error) {
	if input.ID == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	if input.Name == nil && input.Kind == nil && input.RestBetweenSets == nil && input.Levels == nil {
		return nil, errors.NewInvalidRequest("at least one field must be provided")
	}

	var out *workout.Exercise
	err := withTx(ctx, database, func(tx *sql.Tx) error {
		ex, err := db.GetExercise(ctx, tx, input.ID)
		if err != nil {
			return err
		}
		if input.Name != nil {
			ex.Name = workout.NormalizeName(*input.Name)
		}
		if input.Kind != nil {
			ex.Kind = *input.Kind
		}
		if input.RestBetweenSets != nil {
			ex.RestBetweenSets = *input.RestBetweenSets
		}
		if input.Levels != nil {
			ex.Levels = input.Levels
		}
		if err := workout.ValidateExercise(ex); err != nil {
			return err
		}
		if err := db.UpdateExercise(ctx, tx, ex, nowMillis()); err != nil {
			return err
		}
		out = ex
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteExerciseOutput reports which sessions lost entries to the cascade.
type DeleteExerciseOutput struct {
	Deleted          bool     `json:"deleted"`
	ID               string   `json:"id"`
	AffectedSessions []string `json:"affected_sessions"`
}

// DeleteExercise removes an exercise and every session entry that referenced it.
// Sessions themselves are kept, even when left with no entries.
func DeleteExercise(ctx context.Context, database *sql.DB, id string) (*DeleteExerciseOutput, error) {
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	var affected []string
	err := withTx(ctx, database, func(tx *sql.Tx) error {
		var err error
		affected, err = db.SessionIDsReferencingExercise(ctx, tx, id)
		if err != nil {
			return err
		}
		return db.DeleteExercise(ctx, tx, id)
	})
	if err != nil {
		return nil, err
	}

	if affected == nil {
		affected = []string{}
	}
	return &DeleteExerciseOutput{Deleted: true, ID: id, AffectedSessions: affected}, nil
}
