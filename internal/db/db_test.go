package db

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) (*sql.DB, string) {
	t.Helper()
	dir := t.TempDir()
	db, err := Init(dir)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, dir
}

func TestInit_Layout(t *testing.T) {
	db, dir := openTemp(t)

	_, err := os.Stat(filepath.Join(dir, FileName))
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(dir, "exports"))
	require.NoError(t, err)
	require.True(t, info.IsDir())

	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	require.Equal(t, "wal", mode)

	var fk int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	require.Equal(t, 1, fk)
}

func TestInit_NestedBaseDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "home", "user", ".reps")
	db, err := Init(dir)
	require.NoError(t, err)
	defer db.Close()

	_, err = os.Stat(filepath.Join(dir, "exports"))
	require.NoError(t, err)
}

func TestInit_Schema(t *testing.T) {
	db, _ := openTemp(t)

	objects := []struct {
		kind string
		name string
	}{
		{"table", "exercises"},
		{"table", "sessions"},
		{"table", "session_exercises"},
		{"table", "workout_history"},
		{"index", "idx_exercises_created"},
		{"index", "idx_session_exercises_exercise"},
	}
	for _, o := range objects {
		t.Run(o.name, func(t *testing.T) {
			var name string
			err := db.QueryRow("SELECT name FROM sqlite_master WHERE type = ? AND name = ?", o.kind, o.name).Scan(&name)
			require.NoError(t, err, "%s %s missing", o.kind, o.name)
		})
	}
}

func TestMigrate_Versioning(t *testing.T) {
	db, dir := openTemp(t)

	v, err := GetUserVersion(db)
	require.NoError(t, err)
	require.Equal(t, CurrentSchemaVersion, v)

	// Reopening must not rerun or fail on the applied migrations.
	db.Close()
	db2, err := Init(dir)
	require.NoError(t, err)
	defer db2.Close()

	v, err = GetUserVersion(db2)
	require.NoError(t, err)
	require.Equal(t, CurrentSchemaVersion, v)
}

func TestMigrate_RerunFromZero(t *testing.T) {
	db, dir := openTemp(t)

	// A reset version replays every statement; IF NOT EXISTS keeps it safe.
	require.NoError(t, SetUserVersion(db, 0))
	db.Close()

	db2, err := Init(dir)
	require.NoError(t, err)
	defer db2.Close()

	v, err := GetUserVersion(db2)
	require.NoError(t, err)
	require.Equal(t, CurrentSchemaVersion, v)
}

func TestSchema_ExerciseDeleteCascades(t *testing.T) {
	db, _ := openTemp(t)

	mustExec(t, db, `INSERT INTO exercises (id, name, kind, rest_between_sets, levels_json, created_at, updated_at)
		VALUES ('ex1', 'Push-ups', 'strength', 60, '[]', 1, 1)`)
	mustExec(t, db, `INSERT INTO sessions (id, name, rest_between_exercises, created_at, updated_at)
		VALUES ('s1', 'Upper', 90, 1, 1)`)
	mustExec(t, db, `INSERT INTO session_exercises (session_id, position, exercise_id, level) VALUES ('s1', 0, 'ex1', 1)`)

	mustExec(t, db, `DELETE FROM exercises WHERE id = 'ex1'`)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM session_exercises`).Scan(&n))
	require.Zero(t, n)
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&n))
	require.Equal(t, 1, n, "session survives its exercises")
}

func TestSchema_KindConstraint(t *testing.T) {
	db, _ := openTemp(t)

	_, err := db.Exec(`INSERT INTO exercises (id, name, kind, rest_between_sets, levels_json, created_at, updated_at)
		VALUES ('ex1', 'Yoga', 'flexibility', 60, '[]', 1, 1)`)
	require.Error(t, err)
}

func TestSchema_HistorySeqMonotonic(t *testing.T) {
	db, _ := openTemp(t)

	for _, id := range []string{"a", "b", "c"} {
		mustExec(t, db, `INSERT INTO workout_history (id, completed_at, total_duration_seconds, completed_sets_json, exercise_names_json)
			VALUES (?, 100, 10, '[]', '[]')`, id)
	}
	mustExec(t, db, `DELETE FROM workout_history WHERE id = 'c'`)
	mustExec(t, db, `INSERT INTO workout_history (id, completed_at, total_duration_seconds, completed_sets_json, exercise_names_json)
		VALUES ('d', 100, 10, '[]', '[]')`)

	// AUTOINCREMENT never reuses the deleted seq.
	var seq int
	require.NoError(t, db.QueryRow(`SELECT seq FROM workout_history WHERE id = 'd'`).Scan(&seq))
	require.Equal(t, 4, seq)
}

func mustExec(t *testing.T, db *sql.DB, query string, args ...any) {
	t.Helper()
	_, err := db.Exec(query, args...)
	require.NoError(t, err)
}
