package ops

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hpungsan/reps/internal/db"
	"github.com/hpungsan/reps/internal/errors"
	"github.com/hpungsan/reps/internal/workout"
)

// CreateSessionInput contains parameters for CreateSession.
type CreateSessionInput struct {
	Name                 string
	RestBetweenExercises int // seconds, 0 = advance manually
	Exercises            []workout.SessionEntry
}

// CreateSession validates and stores a new session. Every entry must name an
// existing exercise and one of its levels.
func CreateSession(ctx context.Context, database *sql.DB, input CreateSessionInput) (*workout.Session, error) {
	s := &workout.Session{
		ID:                   workout.NewID(),
		Name:                 workout.NormalizeName(input.Name),
		RestBetweenExercises: input.RestBetweenExercises,
		Exercises:            append([]workout.SessionEntry(nil), input.Exercises...),
	}
	if err := workout.ValidateSession(s); err != nil {
		return nil, err
	}

	err := withTx(ctx, database, func(tx *sql.Tx) error {
		if err := checkSessionEntries(ctx, tx, s.Exercises); err != nil {
			return err
		}
		return db.InsertSession(ctx, tx, s, nowMillis())
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// checkSessionEntries verifies each entry's exercise and level exist.
func checkSessionEntries(ctx context.Context, q db.Querier, entries []workout.SessionEntry) error {
	seen := make(map[string]*workout.Exercise)
	for i, e := range entries {
		ex, ok := seen[e.ExerciseID]
		if !ok {
			var err error
			ex, err = db.GetExercise(ctx, q, e.ExerciseID)
			if err != nil {
				return err
			}
			seen[e.ExerciseID] = ex
		}
		if _, ok := ex.FindLevel(e.Level); !ok {
			return errors.NewInvalidRequest(
				fmt.Sprintf("exercises[%d]: %s has no level %d", i, ex.Name, e.Level))
		}
	}
	return nil
}

// GetSession retrieves one session with its ordered entries.
func GetSession(ctx context.Context, database *sql.DB, id string) (*workout.Session, error) {
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	return db.GetSession(ctx, database, id)
}

// ListSessions returns every session in creation order.
func ListSessions(ctx context.Context, database *sql.DB) ([]workout.Session, error) {
	return db.ListSessions(ctx, database)
}

// UpdateSessionInput contains parameters for UpdateSession. Nil fields are
// left unchanged; a non-nil Exercises replaces the whole ordered list.
type UpdateSessionInput struct {
	ID                   string
	Name                 *string
	RestBetweenExercises *int
	Exercises            []workout.SessionEntry
}

// UpdateSession applies a partial update and re-validates the result.
func UpdateSession(ctx context.Context, database *sql.DB, input UpdateSessionInput) (*workout.Session, error) {
	if input.ID == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	if input.Name == nil && input.RestBetweenExercises == nil && input.Exercises == nil {
		return nil, errors.NewInvalidRequest("at least one field must be provided")
	}

	return mutateSession(ctx, database, input.ID, func(s *workout.Session) error {
		if input.Name != nil {
			s.Name = workout.NormalizeName(*input.Name)
		}
		if input.RestBetweenExercises != nil {
			s.RestBetweenExercises = *input.RestBetweenExercises
		}
		if input.Exercises != nil {
			s.Exercises = append([]workout.SessionEntry(nil), input.Exercises...)
		}
		return nil
	})
}

// MoveSessionEntryInput moves the entry at From to index To (both 0-based).
type MoveSessionEntryInput struct {
	SessionID string
	From      int
	To        int
}

// MoveSessionEntry reorders one entry within a session.
func MoveSessionEntry(ctx context.Context, database *sql.DB, input MoveSessionEntryInput) (*workout.Session, error) {
	if input.SessionID == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	return mutateSession(ctx, database, input.SessionID, func(s *workout.Session) error {
		n := len(s.Exercises)
		if input.From < 0 || input.From >= n || input.To < 0 || input.To >= n {
			return errors.NewInvalidRequest(fmt.Sprintf("positions must be within 0..%d", n-1))
		}
		entry := s.Exercises[input.From]
		rest := append(s.Exercises[:input.From:input.From], s.Exercises[input.From+1:]...)
		moved := make([]workout.SessionEntry, 0, n)
		moved = append(moved, rest[:input.To]...)
		moved = append(moved, entry)
		moved = append(moved, rest[input.To:]...)
		s.Exercises = moved
		return nil
	})
}

// mutateSession loads, edits, validates and writes a session in one transaction.
func mutateSession(ctx context.Context, database *sql.DB, id string, edit func(*workout.Session) error) (*workout.Session, error) {
	var out *workout.Session
	err := withTx(ctx, database, func(tx *sql.Tx) error {
		s, err := db.GetSession(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := edit(s); err != nil {
			return err
		}
		if err := workout.ValidateSession(s); err != nil {
			return err
		}
		if err := checkSessionEntries(ctx, tx, s.Exercises); err != nil {
			return err
		}
		if err := db.UpdateSession(ctx, tx, s, nowMillis()); err != nil {
			return err
		}
		out = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteSession removes a session and its entries.
func DeleteSession(ctx context.Context, database *sql.DB, id string) (*DeleteOutput, error) {
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	if err := db.DeleteSession(ctx, database, id); err != nil {
		return nil, err
	}
	return &DeleteOutput{Deleted: true, ID: id}, nil
}
