package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/hpungsan/reps/internal/errors"
	"github.com/hpungsan/reps/internal/workout"
)

// ErrUniqueConstraint is returned when an insert violates a UNIQUE constraint.
var ErrUniqueConstraint = &errors.RepsError{
	Code:    "UNIQUE_CONSTRAINT",
	Status:  409,
	Message: "unique constraint violation",
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	// SQLite returns "UNIQUE constraint failed: ..." for unique violations
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isForeignKeyError checks if the error is a SQLite FOREIGN KEY violation.
func isForeignKeyError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// InsertExercise stores a new exercise. now is unix milliseconds.
func InsertExercise(ctx context.Context, q Querier, ex *workout.Exercise, now int64) error {
	levelsJSON, err := json.Marshal(ex.Levels)
	if err != nil {
		return errors.NewInternal(err)
	}

	query := `
		INSERT INTO exercises (id, name, kind, rest_between_sets, levels_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = q.ExecContext(ctx, query,
		ex.ID, ex.Name, string(ex.Kind), ex.RestBetweenSets, string(levelsJSON), now, now,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUniqueConstraint
		}
		return errors.NewInternal(err)
	}
	return nil
}

// UpdateExercise overwrites every mutable field of an existing exercise.
func UpdateExercise(ctx context.Context, q Querier, ex *workout.Exercise, now int64) error {
	levelsJSON, err := json.Marshal(ex.Levels)
	if err != nil {
		return errors.NewInternal(err)
	}

	query := `
		UPDATE exercises
		SET name = ?, kind = ?, rest_between_sets = ?, levels_json = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := q.ExecContext(ctx, query,
		ex.Name, string(ex.Kind), ex.RestBetweenSets, string(levelsJSON), now, ex.ID,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return requireAffected(result, "exercise", ex.ID)
}

const exerciseColumns = `id, name, kind, rest_between_sets, levels_json`

// GetExercise retrieves an exercise by id.
func GetExercise(ctx context.Context, q Querier, id string) (*workout.Exercise, error) {
	row := q.QueryRowContext(ctx, `SELECT `+exerciseColumns+` FROM exercises WHERE id = ?`, id)
	ex, err := scanExercise(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("exercise", id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return ex, nil
}

// ListExercises returns all exercises in creation order.
func ListExercises(ctx context.Context, q Querier) ([]workout.Exercise, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+exerciseColumns+` FROM exercises ORDER BY created_at, rowid`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	exercises := []workout.Exercise{}
	for rows.Next() {
		ex, err := scanExercise(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		exercises = append(exercises, *ex)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return exercises, nil
}

// DeleteExercise removes an exercise. Session entries referencing it are
// removed by the foreign key cascade.
func DeleteExercise(ctx context.Context, q Querier, id string) error {
	result, err := q.ExecContext(ctx, `DELETE FROM exercises WHERE id = ?`, id)
	if err != nil {
		return errors.NewInternal(err)
	}
	return requireAffected(result, "exercise", id)
}

// SessionIDsReferencingExercise lists the sessions that contain exerciseID.
func SessionIDsReferencingExercise(ctx context.Context, q Querier, exerciseID string) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT DISTINCT session_id FROM session_exercises WHERE exercise_id = ? ORDER BY session_id`, exerciseID)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.NewInternal(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return ids, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanExercise(row rowScanner) (*workout.Exercise, error) {
	var (
		ex         workout.Exercise
		kind       string
		levelsJSON string
	)
	if err := row.Scan(&ex.ID, &ex.Name, &kind, &ex.RestBetweenSets, &levelsJSON); err != nil {
		return nil, err
	}
	ex.Kind = workout.Kind(kind)

	levels, err := workout.UnmarshalLevels(ex.Kind, []byte(levelsJSON))
	if err != nil {
		return nil, err
	}
	ex.Levels = levels
	return &ex, nil
}

// InsertSession stores a session and its ordered entries. Callers should
// pass a transaction so the row and its entries land together.
func InsertSession(ctx context.Context, q Querier, s *workout.Session, now int64) error {
	query := `
		INSERT INTO sessions (id, name, rest_between_exercises, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`
	if _, err := q.ExecContext(ctx, query, s.ID, s.Name, s.RestBetweenExercises, now, now); err != nil {
		if isUniqueConstraintError(err) {
			return ErrUniqueConstraint
		}
		return errors.NewInternal(err)
	}
	return insertEntries(ctx, q, s)
}

// UpdateSession overwrites the session's fields and replaces its entries.
func UpdateSession(ctx context.Context, q Querier, s *workout.Session, now int64) error {
	query := `
		UPDATE sessions
		SET name = ?, rest_between_exercises = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := q.ExecContext(ctx, query, s.Name, s.RestBetweenExercises, now, s.ID)
	if err != nil {
		return errors.NewInternal(err)
	}
	if err := requireAffected(result, "session", s.ID); err != nil {
		return err
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM session_exercises WHERE session_id = ?`, s.ID); err != nil {
		return errors.NewInternal(err)
	}
	return insertEntries(ctx, q, s)
}

func insertEntries(ctx context.Context, q Querier, s *workout.Session) error {
	for i, e := range s.Exercises {
		_, err := q.ExecContext(ctx,
			`INSERT INTO session_exercises (session_id, position, exercise_id, level) VALUES (?, ?, ?, ?)`,
			s.ID, i, e.ExerciseID, e.Level,
		)
		if err != nil {
			if isForeignKeyError(err) {
				return errors.NewNotFound("exercise", e.ExerciseID)
			}
			return errors.NewInternal(err)
		}
	}
	return nil
}

// GetSession retrieves a session and its entries by id.
func GetSession(ctx context.Context, q Querier, id string) (*workout.Session, error) {
	var s workout.Session
	err := q.QueryRowContext(ctx,
		`SELECT id, name, rest_between_exercises FROM sessions WHERE id = ?`, id,
	).Scan(&s.ID, &s.Name, &s.RestBetweenExercises)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("session", id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	entries, err := loadEntries(ctx, q, `WHERE session_id = ?`, id)
	if err != nil {
		return nil, err
	}
	s.Exercises = entries[s.ID]
	if s.Exercises == nil {
		s.Exercises = []workout.SessionEntry{}
	}
	return &s, nil
}

// ListSessions returns all sessions with their entries, in creation order.
func ListSessions(ctx context.Context, q Querier) ([]workout.Session, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, name, rest_between_exercises FROM sessions ORDER BY created_at, rowid`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	sessions := []workout.Session{}
	for rows.Next() {
		var s workout.Session
		if err := rows.Scan(&s.ID, &s.Name, &s.RestBetweenExercises); err != nil {
			return nil, errors.NewInternal(err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	rows.Close()

	entries, err := loadEntries(ctx, q, "")
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		sessions[i].Exercises = entries[sessions[i].ID]
		if sessions[i].Exercises == nil {
			sessions[i].Exercises = []workout.SessionEntry{}
		}
	}
	return sessions, nil
}

// loadEntries returns entries grouped by session id, each group in position order.
func loadEntries(ctx context.Context, q Querier, where string, args ...any) (map[string][]workout.SessionEntry, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT session_id, exercise_id, level FROM session_exercises `+where+` ORDER BY session_id, position`, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	out := make(map[string][]workout.SessionEntry)
	for rows.Next() {
		var (
			sessionID string
			e         workout.SessionEntry
		)
		if err := rows.Scan(&sessionID, &e.ExerciseID, &e.Level); err != nil {
			return nil, errors.NewInternal(err)
		}
		out[sessionID] = append(out[sessionID], e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// DeleteSession removes a session and its entries.
func DeleteSession(ctx context.Context, q Querier, id string) error {
	result, err := q.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return errors.NewInternal(err)
	}
	return requireAffected(result, "session", id)
}

// requireAffected converts a zero-row update or delete into NOT_FOUND.
func requireAffected(result sql.Result, kind, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if n == 0 {
		return errors.NewNotFound(kind, id)
	}
	return nil
}
