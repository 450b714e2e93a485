package ops

import (
	"context"
	"testing"

	"github.com/hpungsan/reps/internal/errors"
	"github.com/hpungsan/reps/internal/workout"
)

func TestCreateExercise_Defaults(t *testing.T) {
	database := openTestDB(t)

	ex, err := CreateExercise(context.Background(), database, CreateExerciseInput{Name: "  Push-ups  ", LevelCount: 3})
	if err != nil {
		t.Fatalf("CreateExercise failed: %v", err)
	}
	if ex.ID == "" {
		t.Error("ID should be set")
	}
	if ex.Name != "Push-ups" {
		t.Errorf("Name = %q, want trimmed", ex.Name)
	}
	if ex.Kind != workout.KindStrength || ex.RestBetweenSets != DefaultRestBetweenSets {
		t.Errorf("defaults: kind=%s rest=%d", ex.Kind, ex.RestBetweenSets)
	}
	if len(ex.Levels) != 3 {
		t.Fatalf("levels = %d, want 3", len(ex.Levels))
	}
	for i, l := range ex.Levels {
		if l.Level != i+1 || len(l.Sets) != workout.DefaultSetsPerLevel {
			t.Errorf("level %d = %+v", i, l)
		}
		s := l.Sets[0].(workout.StrengthSet)
		if s.Reps != workout.DefaultStrengthReps || !s.Weight.IsBodyweight() {
			t.Errorf("default set = %+v", s)
		}
	}

	got, err := GetExercise(context.Background(), database, ex.ID)
	if err != nil {
		t.Fatalf("GetExercise failed: %v", err)
	}
	if got.Name != "Push-ups" || len(got.Levels) != 3 {
		t.Errorf("stored = %+v", got)
	}
}

func TestCreateExercise_CardioDefaults(t *testing.T) {
	database := openTestDB(t)

	ex, err := CreateExercise(context.Background(), database, CreateExerciseInput{
		Name: "Plank", Kind: workout.KindCardio, RestBetweenSets: 30,
	})
	if err != nil {
		t.Fatalf("CreateExercise failed: %v", err)
	}
	set := ex.Levels[0].Sets[0].(workout.CardioSet)
	if set.Duration != workout.DefaultCardioDuration {
		t.Errorf("Duration = %d, want %d", set.Duration, workout.DefaultCardioDuration)
	}
}

func TestCreateExercise_Validation(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input CreateExerciseInput
	}{
		{"short name", CreateExerciseInput{Name: " a "}},
		{"long name", CreateExerciseInput{Name: "abcdefghijklmnopqrstuvwxyz0123456789"}},
		{"negative rest", CreateExerciseInput{Name: "Rows", RestBetweenSets: -1}},
		{"bad kind", CreateExerciseInput{Name: "Rows", Kind: "yoga"}},
		{"too many levels", CreateExerciseInput{Name: "Rows", LevelCount: 11}},
		{"mismatched set", CreateExerciseInput{Name: "Rows", Levels: []workout.Level{
			{Level: 1, Sets: []workout.Set{workout.CardioSet{Duration: 30}}},
		}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := CreateExercise(ctx, database, tc.input)
			if !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("error = %v, want INVALID_REQUEST", err)
			}
		})
	}

	list, err := ListExercises(ctx, database)
	if err != nil {
		t.Fatalf("ListExercises failed: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("invalid creates stored %d exercises", len(list))
	}
}

func TestUpdateExercise(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()
	ex := mustCreateExercise(t, database, "Squats", 1)

	name := " Goblet squats "
	rest := 90
	levels := []workout.Level{
		{Level: 1, Sets: []workout.Set{workout.StrengthSet{Reps: 10, Weight: workout.Kilograms(16)}}},
		{Level: 2, Sets: []workout.Set{workout.StrengthSet{Reps: 8, Weight: workout.Kilograms(20)}}},
	}
	updated, err := UpdateExercise(ctx, database, UpdateExerciseInput{ID: ex.ID, Name: &name, RestBetweenSets: &rest, Levels: levels})
	if err != nil {
		t.Fatalf("UpdateExercise failed: %v", err)
	}
	if updated.Name != "Goblet squats" || updated.RestBetweenSets != 90 || len(updated.Levels) != 2 {
		t.Errorf("updated = %+v", updated)
	}

	// Kind change without new levels leaves mismatched sets
	cardio := workout.KindCardio
	_, err = UpdateExercise(ctx, database, UpdateExerciseInput{ID: ex.ID, Kind: &cardio})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("kind change error = %v, want INVALID_REQUEST", err)
	}

	got, err := GetExercise(ctx, database, ex.ID)
	if err != nil {
		t.Fatalf("GetExercise failed: %v", err)
	}
	if got.Kind != workout.KindStrength || got.Name != "Goblet squats" {
		t.Errorf("failed update changed stored exercise: %+v", got)
	}

	if _, err := UpdateExercise(ctx, database, UpdateExerciseInput{ID: ex.ID}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("empty update error = %v, want INVALID_REQUEST", err)
	}
	if _, err := UpdateExercise(ctx, database, UpdateExerciseInput{ID: "missing", Name: &name}); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("missing update error = %v, want NOT_FOUND", err)
	}
}

func TestDeleteExercise_RemovesSessionEntries(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()
	a := mustCreateExercise(t, database, "Push-ups", 1)
	b := mustCreateExercise(t, database, "Squats", 1)

	mixed, err := CreateSession(ctx, database, CreateSessionInput{Name: "Mixed", Exercises: []workout.SessionEntry{
		{ExerciseID: a.ID, Level: 1}, {ExerciseID: b.ID, Level: 1},
	}})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	only, err := CreateSession(ctx, database, CreateSessionInput{Name: "Only A", Exercises: []workout.SessionEntry{
		{ExerciseID: a.ID, Level: 1},
	}})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	out, err := DeleteExercise(ctx, database, a.ID)
	if err != nil {
		t.Fatalf("DeleteExercise failed: %v", err)
	}
	if !out.Deleted || len(out.AffectedSessions) != 2 {
		t.Errorf("out = %+v", out)
	}

	got, err := GetSession(ctx, database, mixed.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if len(got.Exercises) != 1 || got.Exercises[0].ExerciseID != b.ID {
		t.Errorf("mixed entries = %+v", got.Exercises)
	}

	got, err = GetSession(ctx, database, only.ID)
	if err != nil {
		t.Fatalf("emptied session should remain: %v", err)
	}
	if len(got.Exercises) != 0 {
		t.Errorf("only-A entries = %+v", got.Exercises)
	}

	if _, err := DeleteExercise(ctx, database, a.ID); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("second delete error = %v, want NOT_FOUND", err)
	}
}
