package ops

import (
	"context"
	"testing"

	"github.com/hpungsan/reps/internal/errors"
	"github.com/hpungsan/reps/internal/workout"
)

func TestCreateSession_ChecksReferences(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()
	ex := mustCreateExercise(t, database, "Push-ups", 2)

	tests := []struct {
		name    string
		entries []workout.SessionEntry
		code    errors.ErrorCode
	}{
		{"empty", nil, errors.ErrInvalidRequest},
		{"unknown exercise", []workout.SessionEntry{{ExerciseID: "ghost", Level: 1}}, errors.ErrNotFound},
		{"unknown level", []workout.SessionEntry{{ExerciseID: ex.ID, Level: 3}}, errors.ErrInvalidRequest},
		{"zero level", []workout.SessionEntry{{ExerciseID: ex.ID, Level: 0}}, errors.ErrInvalidRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := CreateSession(ctx, database, CreateSessionInput{Name: "Morning", Exercises: tc.entries})
			if !errors.Is(err, tc.code) {
				t.Errorf("error = %v, want %s", err, tc.code)
			}
		})
	}

	s, err := CreateSession(ctx, database, CreateSessionInput{
		Name: "Morning", RestBetweenExercises: 90,
		Exercises: []workout.SessionEntry{{ExerciseID: ex.ID, Level: 2}, {ExerciseID: ex.ID, Level: 1}},
	})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	list, err := ListSessions(ctx, database)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(list) != 1 || list[0].ID != s.ID || len(list[0].Exercises) != 2 {
		t.Errorf("ListSessions = %+v", list)
	}
}

func TestUpdateSession(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()
	a := mustCreateExercise(t, database, "Push-ups", 1)
	b := mustCreateExercise(t, database, "Squats", 1)

	s, err := CreateSession(ctx, database, CreateSessionInput{Name: "Legs", Exercises: []workout.SessionEntry{{ExerciseID: a.ID, Level: 1}}})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	rest := 45
	got, err := UpdateSession(ctx, database, UpdateSessionInput{
		ID: s.ID, RestBetweenExercises: &rest,
		Exercises: []workout.SessionEntry{{ExerciseID: b.ID, Level: 1}, {ExerciseID: a.ID, Level: 1}},
	})
	if err != nil {
		t.Fatalf("UpdateSession failed: %v", err)
	}
	if got.Name != "Legs" || got.RestBetweenExercises != 45 || got.Exercises[0].ExerciseID != b.ID {
		t.Errorf("updated = %+v", got)
	}

	neg := -1
	if _, err := UpdateSession(ctx, database, UpdateSessionInput{ID: s.ID, RestBetweenExercises: &neg}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("negative rest error = %v, want INVALID_REQUEST", err)
	}
	if _, err := UpdateSession(ctx, database, UpdateSessionInput{ID: "missing", RestBetweenExercises: &rest}); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("missing session error = %v, want NOT_FOUND", err)
	}
}

func TestMoveSessionEntry(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()
	a := mustCreateExercise(t, database, "Ex A", 1)
	b := mustCreateExercise(t, database, "Ex B", 1)
	c := mustCreateExercise(t, database, "Ex C", 1)

	s, err := CreateSession(ctx, database, CreateSessionInput{Name: "Order", Exercises: []workout.SessionEntry{
		{ExerciseID: a.ID, Level: 1}, {ExerciseID: b.ID, Level: 1}, {ExerciseID: c.ID, Level: 1},
	}})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	tests := []struct {
		from, to int
		want     []string
	}{
		{0, 2, []string{b.ID, c.ID, a.ID}},
		{2, 0, []string{a.ID, b.ID, c.ID}},
		{1, 1, []string{a.ID, b.ID, c.ID}},
		{1, 2, []string{a.ID, c.ID, b.ID}},
	}
	for _, tc := range tests {
		got, err := MoveSessionEntry(ctx, database, MoveSessionEntryInput{SessionID: s.ID, From: tc.from, To: tc.to})
		if err != nil {
			t.Fatalf("MoveSessionEntry(%d, %d) failed: %v", tc.from, tc.to, err)
		}
		for i, id := range tc.want {
			if got.Exercises[i].ExerciseID != id {
				t.Errorf("move(%d, %d): position %d = %s, want %s", tc.from, tc.to, i, got.Exercises[i].ExerciseID, id)
			}
		}
	}

	if _, err := MoveSessionEntry(ctx, database, MoveSessionEntryInput{SessionID: s.ID, From: 0, To: 3}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("out-of-range error = %v, want INVALID_REQUEST", err)
	}
}

func TestDeleteSession(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()
	a := mustCreateExercise(t, database, "Push-ups", 1)

	s, err := CreateSession(ctx, database, CreateSessionInput{Name: "Quick", Exercises: []workout.SessionEntry{{ExerciseID: a.ID, Level: 1}}})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	out, err := DeleteSession(ctx, database, s.ID)
	if err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if !out.Deleted || out.ID != s.ID {
		t.Errorf("out = %+v", out)
	}
	if _, err := GetSession(ctx, database, s.ID); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("GetSession after delete = %v, want NOT_FOUND", err)
	}
	// Exercise survives
	if _, err := GetExercise(ctx, database, a.ID); err != nil {
		t.Errorf("exercise should remain: %v", err)
	}
}
