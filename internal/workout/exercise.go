package workout

import (
	"encoding/json"
	"fmt"
)

// Kind distinguishes strength from cardio exercises and decides the Set
// variant every level of the exercise holds.
type Kind string

const (
	KindStrength Kind = "strength"
	KindCardio   Kind = "cardio"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindStrength || k == KindCardio
}

// Set is one unit of work within a level. It is a closed sum type:
// the only implementations are StrengthSet and CardioSet.
type Set interface {
	Kind() Kind
	isSet()
}

// StrengthSet is a reps-and-weight set.
type StrengthSet struct {
	Reps   int    `json:"reps"`
	Weight Weight `json:"weight"`
}

// CardioSet is a timed set with optional load.
type CardioSet struct {
	Duration int     `json:"duration"` // seconds
	Weight   *Weight `json:"weight,omitempty"`
}

func (StrengthSet) Kind() Kind { return KindStrength }
func (StrengthSet) isSet()     {}
func (CardioSet) Kind() Kind   { return KindCardio }
func (CardioSet) isSet()       {}

// Level is one difficulty tier of an exercise.
type Level struct {
	Level int   `json:"level"`
	Sets  []Set `json:"sets"`
}

// Exercise is a reusable movement definition.
type Exercise struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	RestBetweenSets int     `json:"rest_between_sets"` // seconds
	Kind            Kind    `json:"kind"`
	Levels          []Level `json:"levels"`
}

// FindLevel returns the level with the given number.
func (e *Exercise) FindLevel(level int) (Level, bool) {
	for _, l := range e.Levels {
		if l.Level == level {
			return l, true
		}
	}
	return Level{}, false
}

// LevelSetCount returns the number of sets at the given level (0 if the
// level does not exist).
func (e *Exercise) LevelSetCount(level int) int {
	l, ok := e.FindLevel(level)
	if !ok {
		return 0
	}
	return len(l.Sets)
}

// Clone returns a deep copy of e, used to snapshot exercises into a workout.
func (e Exercise) Clone() Exercise {
	out := e
	out.Levels = make([]Level, len(e.Levels))
	for i, l := range e.Levels {
		sets := make([]Set, len(l.Sets))
		for j, s := range l.Sets {
			sets[j] = cloneSet(s)
		}
		out.Levels[i] = Level{Level: l.Level, Sets: sets}
	}
	return out
}

func cloneSet(s Set) Set {
	switch v := s.(type) {
	case StrengthSet:
		return v
	case CardioSet:
		if v.Weight != nil {
			w := *v.Weight
			v.Weight = &w
		}
		return v
	case nil:
		return nil
	default:
		panic(fmt.Sprintf("workout: unknown set type %T", s))
	}
}

// Defaults used for levels created without explicit sets.
const (
	DefaultSetsPerLevel   = 3
	DefaultStrengthReps   = 8
	DefaultCardioDuration = 60
)

// DefaultLevel builds a level of DefaultSetsPerLevel sets for the given kind:
// 8 reps at bodyweight for strength, 60 seconds for cardio.
func DefaultLevel(kind Kind, level int) Level {
	sets := make([]Set, DefaultSetsPerLevel)
	for i := range sets {
		if kind == KindCardio {
			sets[i] = CardioSet{Duration: DefaultCardioDuration}
		} else {
			sets[i] = StrengthSet{Reps: DefaultStrengthReps, Weight: Bodyweight}
		}
	}
	return Level{Level: level, Sets: sets}
}

// rawSet carries either set shape before the exercise kind is known.
type rawSet struct {
	Reps     *int    `json:"reps"`
	Duration *int    `json:"duration"`
	Weight   *Weight `json:"weight"`
}

// rawLevel accepts both the sets-array shape and the legacy one-set-per-level
// shape (reps/weight or duration/weight directly on the level).
type rawLevel struct {
	Level *int      `json:"level"`
	Sets  *[]rawSet `json:"sets"`
	rawSet
}

type rawExercise struct {
	ID                    string     `json:"id"`
	Name                  string     `json:"name"`
	RestBetweenSets       *int       `json:"rest_between_sets"`
	LegacyRestBetweenSets *int       `json:"restBetweenSets"`
	Kind                  Kind       `json:"kind"`
	LegacyIsCardio        *bool      `json:"isCardio"`
	Levels                []rawLevel `json:"levels"`
}

// UnmarshalJSON decodes an exercise, resolving each set to the variant its
// kind demands and migrating legacy level shapes to sets arrays.
func (e *Exercise) UnmarshalJSON(data []byte) error {
	var raw rawExercise
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	kind := raw.Kind
	if kind == "" {
		kind = KindStrength
		if raw.LegacyIsCardio != nil && *raw.LegacyIsCardio {
			kind = KindCardio
		}
	}
	if !kind.Valid() {
		return fmt.Errorf("unknown exercise kind %q", kind)
	}

	rest := 0
	switch {
	case raw.RestBetweenSets != nil:
		rest = *raw.RestBetweenSets
	case raw.LegacyRestBetweenSets != nil:
		rest = *raw.LegacyRestBetweenSets
	}

	*e = Exercise{
		ID:              raw.ID,
		Name:            raw.Name,
		RestBetweenSets: rest,
		Kind:            kind,
		Levels:          buildLevels(kind, raw.Levels),
	}
	return nil
}

// UnmarshalLevels decodes a JSON array of levels for an exercise of the given
// kind, accepting the same legacy shapes as Exercise.UnmarshalJSON.
func UnmarshalLevels(kind Kind, data []byte) ([]Level, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown exercise kind %q", kind)
	}
	var raw []rawLevel
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return buildLevels(kind, raw), nil
}

func buildLevels(kind Kind, raw []rawLevel) []Level {
	levels := make([]Level, 0, len(raw))
	for _, rl := range raw {
		levelNum := 1
		if rl.Level != nil {
			levelNum = *rl.Level
		}
		var sets []Set
		if rl.Sets != nil {
			sets = make([]Set, 0, len(*rl.Sets))
			for _, rs := range *rl.Sets {
				sets = append(sets, rs.toSet(kind))
			}
		} else {
			sets = []Set{rl.rawSet.toSet(kind)}
		}
		levels = append(levels, Level{Level: levelNum, Sets: sets})
	}
	return levels
}

func (rs rawSet) toSet(kind Kind) Set {
	switch kind {
	case KindCardio:
		s := CardioSet{Weight: rs.Weight}
		if rs.Duration != nil {
			s.Duration = *rs.Duration
		}
		return s
	default:
		s := StrengthSet{Reps: DefaultStrengthReps, Weight: Bodyweight}
		if rs.Reps != nil {
			s.Reps = *rs.Reps
		}
		if rs.Weight != nil {
			s.Weight = *rs.Weight
		}
		return s
	}
}
