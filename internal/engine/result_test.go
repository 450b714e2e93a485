package engine

import (
	"testing"
	"time"

	"github.com/hpungsan/reps/internal/workout"
)

func TestBuildResult(t *testing.T) {
	start := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	ten := workout.Kilograms(10)

	squats := strengthExercise("sq", "Squats", 60,
		workout.StrengthSet{Reps: 10, Weight: workout.Kilograms(40)},
		workout.StrengthSet{Reps: 8, Weight: workout.Kilograms(50)},
		workout.StrengthSet{Reps: 6, Weight: workout.Kilograms(60)},
	)
	carry := workout.Exercise{
		ID: "carry", Name: "Carry", RestBetweenSets: 30, Kind: workout.KindCardio,
		Levels: []workout.Level{{Level: 2, Sets: []workout.Set{
			workout.CardioSet{Duration: 40, Weight: &ten},
			workout.CardioSet{Duration: 30},
		}}},
	}

	tests := []struct {
		name      string
		workout   *workout.ActiveWorkout
		now       time.Time
		wantSets  int
		wantNames []string
		wantSecs  int
		check     func(t *testing.T, r workout.WorkoutResult)
	}{
		{
			name:      "nil workout",
			workout:   nil,
			now:       start,
			wantNames: []string{},
		},
		{
			name: "partial progress replays up to counter",
			workout: &workout.ActiveWorkout{
				StartedAt: start,
				Exercises: []workout.WorkoutExercise{{Exercise: squats, Level: 1, CompletedSets: 2}},
			},
			now:       start.Add(90*time.Second + 400*time.Millisecond),
			wantSets:  2,
			wantNames: []string{"Squats"},
			wantSecs:  90,
			check: func(t *testing.T, r workout.WorkoutResult) {
				cs := r.CompletedSets[1]
				if cs.SetIndex != 2 || *cs.Reps != 8 || cs.Weight != workout.Kilograms(50) || cs.Duration != nil {
					t.Errorf("second set = %+v", cs)
				}
			},
		},
		{
			name: "duration rounds half up",
			workout: &workout.ActiveWorkout{
				StartedAt: start,
				Exercises: []workout.WorkoutExercise{{Exercise: squats, Level: 1}},
			},
			now:       start.Add(1500 * time.Millisecond),
			wantNames: []string{"Squats"},
			wantSecs:  2,
		},
		{
			name: "counter beyond set count is clamped",
			workout: &workout.ActiveWorkout{
				StartedAt: start,
				Exercises: []workout.WorkoutExercise{{Exercise: squats, Level: 1, CompletedSets: 9}},
			},
			now:       start,
			wantSets:  3,
			wantNames: []string{"Squats"},
		},
		{
			name: "cardio weight defaults to bodyweight",
			workout: &workout.ActiveWorkout{
				StartedAt: start,
				Exercises: []workout.WorkoutExercise{{Exercise: carry, Level: 2, CompletedSets: 2}},
			},
			now:       start,
			wantSets:  2,
			wantNames: []string{"Carry"},
			check: func(t *testing.T, r workout.WorkoutResult) {
				if r.CompletedSets[0].Weight != ten || *r.CompletedSets[0].Duration != 40 || r.CompletedSets[0].Reps != nil {
					t.Errorf("first set = %+v", r.CompletedSets[0])
				}
				if r.CompletedSets[1].Weight != workout.Bodyweight {
					t.Errorf("second set weight = %v, want bodyweight", r.CompletedSets[1].Weight)
				}
				if r.CompletedSets[1].Level != 2 {
					t.Errorf("level = %d, want 2", r.CompletedSets[1].Level)
				}
			},
		},
		{
			name: "names deduplicated in plan order, missing level skipped",
			workout: &workout.ActiveWorkout{
				StartedAt: start,
				Exercises: []workout.WorkoutExercise{
					{Exercise: carry, Level: 2, CompletedSets: 0},
					{Exercise: squats, Level: 1, CompletedSets: 1},
					{Exercise: carry, Level: 5, CompletedSets: 2},
					{Exercise: squats, Level: 1, CompletedSets: 1},
				},
			},
			now:       start,
			wantSets:  2,
			wantNames: []string{"Carry", "Squats"},
		},
		{
			name: "clock behind start gives zero duration",
			workout: &workout.ActiveWorkout{
				StartedAt: start,
				Exercises: []workout.WorkoutExercise{{Exercise: squats, Level: 1}},
			},
			now:       start.Add(-time.Minute),
			wantNames: []string{"Squats"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := BuildResult(tt.workout, "res-1", tt.now)
			if r.ID != "res-1" || !r.CompletedAt.Equal(tt.now) {
				t.Errorf("ID/CompletedAt = %q/%v", r.ID, r.CompletedAt)
			}
			if len(r.CompletedSets) != tt.wantSets {
				t.Fatalf("len(CompletedSets) = %d, want %d", len(r.CompletedSets), tt.wantSets)
			}
			if len(r.ExerciseNames) != len(tt.wantNames) {
				t.Fatalf("ExerciseNames = %v, want %v", r.ExerciseNames, tt.wantNames)
			}
			for i := range tt.wantNames {
				if r.ExerciseNames[i] != tt.wantNames[i] {
					t.Errorf("ExerciseNames = %v, want %v", r.ExerciseNames, tt.wantNames)
				}
			}
			if r.TotalDurationSeconds != tt.wantSecs {
				t.Errorf("TotalDurationSeconds = %d, want %d", r.TotalDurationSeconds, tt.wantSecs)
			}
			if tt.check != nil {
				tt.check(t, r)
			}
		})
	}
}

func TestBuildResult_Pure(t *testing.T) {
	start := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	w := &workout.ActiveWorkout{
		StartedAt: start,
		Exercises: []workout.WorkoutExercise{{Exercise: pushUps(), Level: 1, CompletedSets: 2}},
	}
	before := w.Clone()

	a := BuildResult(w, "x", start.Add(time.Minute))
	b := BuildResult(w, "x", start.Add(time.Minute))

	if len(a.CompletedSets) != len(b.CompletedSets) || a.TotalDurationSeconds != b.TotalDurationSeconds {
		t.Fatalf("BuildResult not deterministic: %+v vs %+v", a, b)
	}
	if w.Exercises[0].CompletedSets != before.Exercises[0].CompletedSets {
		t.Error("BuildResult mutated its input")
	}
}
