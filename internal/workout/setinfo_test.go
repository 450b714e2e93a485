package workout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCurrentSetInfo(t *testing.T) {
	five := Kilograms(5)
	strength := Exercise{
		Kind: KindStrength,
		Levels: []Level{
			{Level: 1, Sets: []Set{StrengthSet{Reps: 8, Weight: Bodyweight}, StrengthSet{Reps: 6, Weight: Kilograms(20)}}},
		},
	}
	cardio := Exercise{
		Kind: KindCardio,
		Levels: []Level{
			{Level: 1, Sets: []Set{CardioSet{Duration: 60}, CardioSet{Duration: 30, Weight: &five}}},
		},
	}

	info := CurrentSetInfo(&strength, 1, 2)
	require.NotNil(t, info.Reps)
	require.Equal(t, 6, *info.Reps)
	require.Nil(t, info.Duration)
	require.Equal(t, Kilograms(20), info.Weight)
	require.Equal(t, "6 reps @ 20 kg", info.String())

	info = CurrentSetInfo(&cardio, 1, 1)
	require.Nil(t, info.Reps)
	require.Equal(t, 60, *info.Duration)
	require.Equal(t, Bodyweight, info.Weight)
	require.Equal(t, "1:00 @ bodyweight", info.String())

	info = CurrentSetInfo(&cardio, 1, 2)
	require.Equal(t, five, info.Weight)

	for _, tc := range []struct{ level, set int }{{2, 1}, {1, 0}, {1, 3}} {
		info = CurrentSetInfo(&strength, tc.level, tc.set)
		require.Equal(t, SetInfo{Weight: Bodyweight}, info)
		require.Equal(t, "-", info.String())
	}
}

func TestFormatSeconds(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0:00"},
		{5, "0:05"},
		{60, "1:00"},
		{95, "1:35"},
		{3600, "60:00"},
		{-3, "0:00"},
	}
	for _, tt := range tests {
		if got := FormatSeconds(tt.in); got != tt.want {
			t.Errorf("FormatSeconds(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestActiveWorkout_Clone(t *testing.T) {
	ends := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	w := &ActiveWorkout{
		ID:         "w1",
		Exercises:  []WorkoutExercise{{Exercise: validStrength(), Level: 1}},
		CurrentSet: 1,
		RestEndsAt: &ends,
	}

	c := w.Clone()
	c.Exercises[0].CompletedSets = 2
	c.Exercises[0].Exercise.Name = "changed"
	*c.RestEndsAt = ends.Add(time.Hour)

	require.Equal(t, 0, w.Exercises[0].CompletedSets)
	require.Equal(t, "Push-ups", w.Exercises[0].Exercise.Name)
	require.Equal(t, ends, *w.RestEndsAt)

	var nilWorkout *ActiveWorkout
	require.Nil(t, nilWorkout.Clone())
	require.Nil(t, nilWorkout.Current())
}

func TestWorkoutExercise_TotalSets(t *testing.T) {
	we := WorkoutExercise{Exercise: validStrength(), Level: 1}
	require.Equal(t, 2, we.TotalSets())
	we.Level = 9
	require.Equal(t, 0, we.TotalSets())
}

func TestNewID_Unique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewID()
		require.Len(t, id, 26)
		require.False(t, seen[id])
		seen[id] = true
	}
}
