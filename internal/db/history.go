package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/hpungsan/reps/internal/errors"
	"github.com/hpungsan/reps/internal/workout"
)

// InsertResult appends a result as the newest history entry, then trims the
// history to the newest limit entries. limit <= 0 disables trimming.
// It returns how many old entries were trimmed.
func InsertResult(ctx context.Context, q Querier, r *workout.WorkoutResult, limit int) (int, error) {
	setsJSON, err := json.Marshal(nonNilSets(r.CompletedSets))
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	namesJSON, err := json.Marshal(nonNilNames(r.ExerciseNames))
	if err != nil {
		return 0, errors.NewInternal(err)
	}

	query := `
		INSERT INTO workout_history (id, completed_at, total_duration_seconds, completed_sets_json, exercise_names_json)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err = q.ExecContext(ctx, query,
		r.ID, r.CompletedAt.UnixMilli(), r.TotalDurationSeconds, string(setsJSON), string(namesJSON),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return 0, ErrUniqueConstraint
		}
		return 0, errors.NewInternal(err)
	}

	if limit <= 0 {
		return 0, nil
	}
	return TrimHistory(ctx, q, limit)
}

// TrimHistory deletes all but the newest limit entries.
func TrimHistory(ctx context.Context, q Querier, limit int) (int, error) {
	result, err := q.ExecContext(ctx, `
		DELETE FROM workout_history
		WHERE seq NOT IN (SELECT seq FROM workout_history ORDER BY seq DESC LIMIT ?)
	`, limit)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return int(n), nil
}

const resultColumns = `id, completed_at, total_duration_seconds, completed_sets_json, exercise_names_json`

// GetResult retrieves one history entry by id.
func GetResult(ctx context.Context, q Querier, id string) (*workout.WorkoutResult, error) {
	row := q.QueryRowContext(ctx, `SELECT `+resultColumns+` FROM workout_history WHERE id = ?`, id)
	r, err := scanResult(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("result", id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return r, nil
}

// ListResults returns history newest first. limit <= 0 returns everything.
func ListResults(ctx context.Context, q Querier, limit, offset int) ([]workout.WorkoutResult, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := q.QueryContext(ctx,
		`SELECT `+resultColumns+` FROM workout_history ORDER BY seq DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	results := []workout.WorkoutResult{}
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		results = append(results, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return results, nil
}

// CountResults returns the number of history entries.
func CountResults(ctx context.Context, q Querier) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM workout_history`).Scan(&n); err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

// DeleteResult removes one history entry.
func DeleteResult(ctx context.Context, q Querier, id string) error {
	result, err := q.ExecContext(ctx, `DELETE FROM workout_history WHERE id = ?`, id)
	if err != nil {
		return errors.NewInternal(err)
	}
	return requireAffected(result, "result", id)
}

// ClearResults removes every history entry and returns how many were removed.
func ClearResults(ctx context.Context, q Querier) (int, error) {
	result, err := q.ExecContext(ctx, `DELETE FROM workout_history`)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return int(n), nil
}

func scanResult(row rowScanner) (*workout.WorkoutResult, error) {
	var (
		r           workout.WorkoutResult
		completedAt int64
		setsJSON    string
		namesJSON   string
	)
	if err := row.Scan(&r.ID, &completedAt, &r.TotalDurationSeconds, &setsJSON, &namesJSON); err != nil {
		return nil, err
	}
	r.CompletedAt = time.UnixMilli(completedAt).UTC()
	if err := json.Unmarshal([]byte(setsJSON), &r.CompletedSets); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(namesJSON), &r.ExerciseNames); err != nil {
		return nil, err
	}
	r.CompletedSets = nonNilSets(r.CompletedSets)
	r.ExerciseNames = nonNilNames(r.ExerciseNames)
	return &r, nil
}

func nonNilSets(s []workout.CompletedSet) []workout.CompletedSet {
	if s == nil {
		return []workout.CompletedSet{}
	}
	return s
}

func nonNilNames(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
