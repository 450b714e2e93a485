package engine

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/reps/internal/workout"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 7, 30, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type memCatalog struct {
	mu        sync.Mutex
	exercises []workout.Exercise
	sessions  []workout.Session
}

func (c *memCatalog) Exercises() []workout.Exercise {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]workout.Exercise(nil), c.exercises...)
}

func (c *memCatalog) Sessions() []workout.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]workout.Session(nil), c.sessions...)
}

type memRecorder struct {
	mu      sync.Mutex
	results []workout.WorkoutResult
	err     error
}

func (r *memRecorder) SaveWorkoutResult(res workout.WorkoutResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.results = append([]workout.WorkoutResult{res}, r.results...)
	return nil
}

func (r *memRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.results)
}

func sequentialIDs() func() string {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%03d", n)
	}
}

func strengthExercise(id, name string, rest int, sets ...workout.Set) workout.Exercise {
	return workout.Exercise{
		ID:              id,
		Name:            name,
		RestBetweenSets: rest,
		Kind:            workout.KindStrength,
		Levels:          []workout.Level{{Level: 1, Sets: sets}},
	}
}

func reps(n int) workout.Set {
	return workout.StrengthSet{Reps: n, Weight: workout.Bodyweight}
}

func pushUps() workout.Exercise {
	return strengthExercise("pushups", "Push-ups", 60, reps(8), reps(8))
}

func plank() workout.Exercise {
	return workout.Exercise{
		ID:              "plank",
		Name:            "Plank",
		RestBetweenSets: 30,
		Kind:            workout.KindCardio,
		Levels:          []workout.Level{{Level: 1, Sets: []workout.Set{workout.CardioSet{Duration: 60}}}},
	}
}

type fixture struct {
	clock    *fakeClock
	catalog  *memCatalog
	recorder *memRecorder
	engine   *Engine
}

func newFixture(exercises []workout.Exercise, sessions []workout.Session) *fixture {
	f := &fixture{
		clock:    newFakeClock(),
		catalog:  &memCatalog{exercises: exercises, sessions: sessions},
		recorder: &memRecorder{},
	}
	f.engine = New(f.catalog, f.recorder, WithClock(f.clock.Now), WithIDGenerator(sequentialIDs()))
	return f
}

func TestSingleExerciseRestThenFinish(t *testing.T) {
	f := newFixture([]workout.Exercise{pushUps()}, nil)
	e := f.engine

	e.StartSingleExerciseWorkout("pushups", 1)
	require.Equal(t, InSet, e.State())

	e.CompleteSet()
	w := e.Active()
	require.NotNil(t, w)
	require.True(t, w.IsResting)
	require.False(t, w.IsRestBetweenExercises)
	require.Equal(t, 1, w.CurrentSet)
	require.Equal(t, 1, w.Exercises[0].CompletedSets)
	require.Equal(t, f.clock.Now().Add(60*time.Second), *w.RestEndsAt)
	require.Equal(t, Resting, e.State())

	e.RestComplete()
	w = e.Active()
	require.Equal(t, 2, w.CurrentSet)
	require.False(t, w.IsResting)
	require.Nil(t, w.RestEndsAt)

	e.CompleteSet()
	require.Nil(t, e.Active())
	require.Equal(t, NoWorkout, e.State())

	res := e.LastResult()
	require.NotNil(t, res)
	require.Len(t, res.CompletedSets, 2)
	first := res.CompletedSets[0]
	require.Equal(t, 1, first.SetIndex)
	require.Equal(t, 8, *first.Reps)
	require.Nil(t, first.Duration)
	require.Equal(t, workout.Bodyweight, first.Weight)
	require.Equal(t, []string{"Push-ups"}, res.ExerciseNames)
	require.Equal(t, 1, f.recorder.count())
}

func TestSessionRestBetweenExercises(t *testing.T) {
	a := strengthExercise("a", "Squats", 45, reps(10))
	b := strengthExercise("b", "Lunges", 45, reps(12))
	session := workout.Session{
		ID:                   "s1",
		Name:                 "Legs",
		RestBetweenExercises: 90,
		Exercises:            []workout.SessionEntry{{ExerciseID: "a", Level: 1}, {ExerciseID: "b", Level: 1}},
	}
	f := newFixture([]workout.Exercise{a, b}, []workout.Session{session})
	e := f.engine

	e.StartSessionWorkout("s1")
	w := e.Active()
	require.Len(t, w.Exercises, 2)
	require.Equal(t, 90, w.RestBetweenExercises)

	e.CompleteSet()
	w = e.Active()
	require.True(t, w.IsResting)
	require.True(t, w.IsRestBetweenExercises)
	require.Equal(t, f.clock.Now().Add(90*time.Second), *w.RestEndsAt)
	require.Equal(t, RestingBetweenExercises, e.State())

	e.RestComplete()
	w = e.Active()
	require.Equal(t, 1, w.CurrentExerciseIndex)
	require.Equal(t, 1, w.CurrentSet)
	require.False(t, w.IsResting)
	require.False(t, w.IsRestBetweenExercises)

	f.clock.Advance(5 * time.Minute)
	e.CompleteSet()
	res := e.LastResult()
	require.NotNil(t, res)
	require.Equal(t, []string{"Squats", "Lunges"}, res.ExerciseNames)
	require.Equal(t, 300, res.TotalDurationSeconds)
}

func TestStartMissingExerciseIsNoOp(t *testing.T) {
	f := newFixture([]workout.Exercise{pushUps()}, nil)

	f.engine.StartSingleExerciseWorkout("missing-id", 1)
	require.Nil(t, f.engine.Active())

	f.engine.StartSingleExerciseWorkout("pushups", 7)
	require.Nil(t, f.engine.Active(), "missing level is a no-op")
}

func TestCardioSetRecordsDuration(t *testing.T) {
	f := newFixture([]workout.Exercise{plank()}, nil)
	e := f.engine

	e.StartSingleExerciseWorkout("plank", 1)
	e.CompleteSet()

	res := e.LastResult()
	require.NotNil(t, res)
	require.Len(t, res.CompletedSets, 1)
	require.Equal(t, 60, *res.CompletedSets[0].Duration)
	require.Nil(t, res.CompletedSets[0].Reps)
	require.Equal(t, workout.Bodyweight, res.CompletedSets[0].Weight)
}

func TestStartSession_NoOps(t *testing.T) {
	sessions := []workout.Session{
		{ID: "empty", Name: "Empty"},
		{ID: "dangling", Name: "Dangling", Exercises: []workout.SessionEntry{{ExerciseID: "pushups", Level: 1}, {ExerciseID: "gone", Level: 1}}},
		{ID: "badlevel", Name: "Bad level", Exercises: []workout.SessionEntry{{ExerciseID: "pushups", Level: 4}}},
	}
	f := newFixture([]workout.Exercise{pushUps()}, sessions)

	for _, id := range []string{"nope", "empty", "dangling", "badlevel"} {
		f.engine.StartSessionWorkout(id)
		require.Nil(t, f.engine.Active(), "session %s", id)
	}
}

func TestStart_ReplacesActiveWorkout(t *testing.T) {
	f := newFixture([]workout.Exercise{pushUps(), plank()}, nil)
	e := f.engine

	e.StartSingleExerciseWorkout("pushups", 1)
	e.CompleteSet()
	first := e.Active().ID

	e.StartSingleExerciseWorkout("plank", 1)
	w := e.Active()
	require.NotEqual(t, first, w.ID)
	require.Equal(t, "plank", w.Exercises[0].Exercise.ID)
	require.Equal(t, 0, w.Exercises[0].CompletedSets)
	require.False(t, w.IsResting)
	require.Equal(t, 0, f.recorder.count())
}

func TestCommands_GuardsAreNoOps(t *testing.T) {
	f := newFixture([]workout.Exercise{pushUps()}, nil)
	e := f.engine

	// No workout.
	e.CompleteSet()
	e.RestComplete()
	e.FinishWorkout()
	now := f.clock.Now()
	e.SetRestEndsAt(&now)
	require.Nil(t, e.Active())
	require.Nil(t, e.LastResult())

	e.StartSingleExerciseWorkout("pushups", 1)

	// RestComplete while in a set.
	e.RestComplete()
	require.Equal(t, 1, e.Active().CurrentSet)

	// CompleteSet while resting.
	e.CompleteSet()
	e.CompleteSet()
	w := e.Active()
	require.Equal(t, 1, w.Exercises[0].CompletedSets)
	require.True(t, w.IsResting)
}

func TestQuitWorkout_Idempotent(t *testing.T) {
	f := newFixture([]workout.Exercise{pushUps()}, nil)
	e := f.engine

	e.QuitWorkout()
	require.Nil(t, e.Active())

	e.StartSingleExerciseWorkout("pushups", 1)
	e.CompleteSet()
	e.QuitWorkout()
	e.QuitWorkout()

	require.Nil(t, e.Active())
	require.Nil(t, e.LastResult())
	require.Equal(t, 0, f.recorder.count())
}

func TestSetRestEndsAt(t *testing.T) {
	f := newFixture([]workout.Exercise{pushUps()}, nil)
	e := f.engine

	e.StartSingleExerciseWorkout("pushups", 1)
	e.CompleteSet()

	later := f.clock.Now().Add(10 * time.Second)
	p := &later
	e.SetRestEndsAt(p)
	*p = p.Add(time.Hour) // caller's value must not alias

	w := e.Active()
	require.Equal(t, f.clock.Now().Add(10*time.Second), *w.RestEndsAt)
	require.True(t, w.IsResting)

	d, ok := e.RestRemaining()
	require.True(t, ok)
	require.Equal(t, 10*time.Second, d)

	f.clock.Advance(time.Minute)
	d, ok = e.RestRemaining()
	require.True(t, ok)
	require.Equal(t, time.Duration(0), d)

	e.SetRestEndsAt(nil)
	require.Nil(t, e.Active().RestEndsAt)
	_, ok = e.RestRemaining()
	require.False(t, ok)
}

func TestZeroRestBetweenExercises(t *testing.T) {
	a := strengthExercise("a", "Dips", 60, reps(5))
	b := strengthExercise("b", "Rows", 60, reps(5))
	session := workout.Session{ID: "s", Name: "Pull push", Exercises: []workout.SessionEntry{{ExerciseID: "a", Level: 1}, {ExerciseID: "b", Level: 1}}}
	f := newFixture([]workout.Exercise{a, b}, []workout.Session{session})

	f.engine.StartSessionWorkout("s")
	f.engine.CompleteSet()

	w := f.engine.Active()
	require.True(t, w.IsRestBetweenExercises)
	require.Nil(t, w.RestEndsAt)
	_, ok := f.engine.RestRemaining()
	require.False(t, ok)
}

func TestRecorderFailureKeepsResult(t *testing.T) {
	f := newFixture([]workout.Exercise{plank()}, nil)
	f.recorder.err = errors.New("disk full")

	f.engine.StartSingleExerciseWorkout("plank", 1)
	f.engine.CompleteSet()

	require.Nil(t, f.engine.Active())
	require.NotNil(t, f.engine.LastResult())

	f.engine.ClearLastResult()
	require.Nil(t, f.engine.LastResult())
}

func TestSnapshotIgnoresCatalogChanges(t *testing.T) {
	f := newFixture([]workout.Exercise{pushUps()}, nil)
	f.engine.StartSingleExerciseWorkout("pushups", 1)

	f.catalog.mu.Lock()
	f.catalog.exercises[0].Name = "Renamed"
	f.catalog.exercises[0].Levels[0].Sets = []workout.Set{reps(1)}
	f.catalog.mu.Unlock()

	w := f.engine.Active()
	require.Equal(t, "Push-ups", w.Exercises[0].Exercise.Name)
	require.Equal(t, 2, w.Exercises[0].TotalSets())
}

func TestActiveIsACopy(t *testing.T) {
	f := newFixture([]workout.Exercise{pushUps()}, nil)
	f.engine.StartSingleExerciseWorkout("pushups", 1)

	w := f.engine.Active()
	w.CurrentSet = 99
	w.Exercises[0].CompletedSets = 99

	got := f.engine.Active()
	require.Equal(t, 1, got.CurrentSet)
	require.Equal(t, 0, got.Exercises[0].CompletedSets)
}

func TestZeroSetLevelIsTreatedAsLastSet(t *testing.T) {
	legacy := workout.Exercise{
		ID:              "legacy",
		Name:            "Legacy",
		RestBetweenSets: 30,
		Kind:            workout.KindStrength,
		Levels:          []workout.Level{{Level: 1}},
	}
	f := newFixture([]workout.Exercise{legacy}, nil)

	f.engine.StartSingleExerciseWorkout("legacy", 1)
	require.NotNil(t, f.engine.Active())

	f.engine.CompleteSet()
	require.Nil(t, f.engine.Active())
	res := f.engine.LastResult()
	require.NotNil(t, res)
	require.Empty(t, res.CompletedSets)
}

func TestCurrentSetInfo(t *testing.T) {
	ex := strengthExercise("x", "Curls", 30,
		workout.StrengthSet{Reps: 10, Weight: workout.Kilograms(8)},
		workout.StrengthSet{Reps: 8, Weight: workout.Kilograms(10)},
	)
	f := newFixture([]workout.Exercise{ex}, nil)

	_, ok := f.engine.CurrentSetInfo()
	require.False(t, ok)

	f.engine.StartSingleExerciseWorkout("x", 1)
	info, ok := f.engine.CurrentSetInfo()
	require.True(t, ok)
	require.Equal(t, 10, *info.Reps)
	require.Equal(t, workout.Kilograms(8), info.Weight)

	f.engine.CompleteSet()
	f.engine.RestComplete()
	info, _ = f.engine.CurrentSetInfo()
	require.Equal(t, 8, *info.Reps)

	st := f.engine.Status()
	require.Equal(t, InSet, st.State)
	require.Equal(t, "Curls", st.ExerciseName)
	require.Equal(t, 2, st.Set)
	require.Equal(t, 2, st.TotalSets)
	require.Equal(t, 1, st.ExerciseIndex)
	require.Equal(t, 1, st.ExerciseCount)
}

// TestInvariantsUnderRandomCommands drives the engine with a seeded random
// command stream and checks the position invariants after every command.
func TestInvariantsUnderRandomCommands(t *testing.T) {
	a := strengthExercise("a", "Squats", 30, reps(5), reps(5), reps(5))
	b := workout.Exercise{
		ID: "b", Name: "Bike", RestBetweenSets: 20, Kind: workout.KindCardio,
		Levels: []workout.Level{
			{Level: 1, Sets: []workout.Set{workout.CardioSet{Duration: 30}}},
			{Level: 2, Sets: []workout.Set{workout.CardioSet{Duration: 30}, workout.CardioSet{Duration: 45}}},
		},
	}
	c := strengthExercise("c", "Pull-ups", 90, reps(3))
	sessions := []workout.Session{{
		ID: "s", Name: "Mixed", RestBetweenExercises: 60,
		Exercises: []workout.SessionEntry{{ExerciseID: "a", Level: 1}, {ExerciseID: "b", Level: 2}, {ExerciseID: "c", Level: 1}, {ExerciseID: "a", Level: 1}},
	}}
	f := newFixture([]workout.Exercise{a, b, c}, sessions)
	e := f.engine
	rng := rand.New(rand.NewSource(42))

	type progress struct {
		index, set, completed int
	}
	var prev *progress

	for step := 0; step < 2000; step++ {
		switch op := rng.Intn(10); {
		case op == 0:
			e.StartSessionWorkout("s")
			prev = nil
		case op == 1:
			e.StartSingleExerciseWorkout("b", 2)
			prev = nil
		case op == 2 && rng.Intn(5) == 0:
			e.QuitWorkout()
			prev = nil
		case op < 6:
			e.CompleteSet()
		default:
			e.RestComplete()
		}
		f.clock.Advance(time.Duration(rng.Intn(30)) * time.Second)

		w := e.Active()
		if w == nil {
			prev = nil
			continue
		}
		require.GreaterOrEqual(t, w.CurrentExerciseIndex, 0)
		require.Less(t, w.CurrentExerciseIndex, len(w.Exercises))
		cur := w.Exercises[w.CurrentExerciseIndex]
		require.GreaterOrEqual(t, w.CurrentSet, 1)
		require.LessOrEqual(t, w.CurrentSet, cur.TotalSets())
		for _, we := range w.Exercises {
			require.LessOrEqual(t, we.CompletedSets, we.TotalSets())
		}

		completed := 0
		for _, we := range w.Exercises {
			completed += we.CompletedSets
		}
		now := &progress{index: w.CurrentExerciseIndex, set: w.CurrentSet, completed: completed}
		if prev != nil {
			require.GreaterOrEqual(t, now.index, prev.index, "exercise index never regresses")
			if now.index == prev.index {
				require.GreaterOrEqual(t, now.set, prev.set, "set never regresses")
			}
			require.GreaterOrEqual(t, now.completed, prev.completed)
		}
		prev = now
	}
}

func TestFullCompletionRoundTrip(t *testing.T) {
	a := strengthExercise("a", "Squats", 30, reps(5), reps(5), reps(5))
	b := plank()
	b.Levels = append(b.Levels, workout.Level{Level: 2, Sets: []workout.Set{workout.CardioSet{Duration: 20}, workout.CardioSet{Duration: 40}}})
	session := workout.Session{ID: "s", Name: "Round", RestBetweenExercises: 0,
		Exercises: []workout.SessionEntry{{ExerciseID: "a", Level: 1}, {ExerciseID: "plank", Level: 2}}}
	f := newFixture([]workout.Exercise{a, b}, []workout.Session{session})
	e := f.engine

	e.StartSessionWorkout("s")
	for i := 0; i < 100 && e.Active() != nil; i++ {
		if e.State() == InSet {
			e.CompleteSet()
		} else {
			e.RestComplete()
		}
	}

	require.Nil(t, e.Active())
	res := e.LastResult()
	require.NotNil(t, res)
	require.Len(t, res.CompletedSets, 5)
	require.Equal(t, 20, *res.CompletedSets[3].Duration)
	require.Equal(t, 2, res.CompletedSets[4].SetIndex)
	require.Equal(t, 1, f.recorder.count())
}
