package workout

// SessionEntry references one exercise at one level within a session.
type SessionEntry struct {
	ExerciseID string `json:"exercise_id"`
	Level      int    `json:"level"`
}

// Session is an ordered list of exercise/level pairs.
type Session struct {
	ID                   string         `json:"id"`
	Name                 string         `json:"name"`
	RestBetweenExercises int            `json:"rest_between_exercises"` // seconds, 0 = manual advance
	Exercises            []SessionEntry `json:"exercises"`
}

// Clone returns a copy of s that shares no slices with it.
func (s Session) Clone() Session {
	out := s
	out.Exercises = append([]SessionEntry(nil), s.Exercises...)
	return out
}

// WithoutExercise returns a copy of s with every entry referencing
// exerciseID removed, and whether anything was removed.
func (s Session) WithoutExercise(exerciseID string) (Session, bool) {
	out := s
	out.Exercises = make([]SessionEntry, 0, len(s.Exercises))
	for _, e := range s.Exercises {
		if e.ExerciseID != exerciseID {
			out.Exercises = append(out.Exercises, e)
		}
	}
	return out, len(out.Exercises) != len(s.Exercises)
}
