package workout

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hpungsan/reps/internal/errors"
)

// Limits enforced at creation and update.
const (
	MinNameLength = 2
	MaxNameLength = 35
	MaxLevels     = 10
)

// NormalizeName trims surrounding whitespace.
func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}

// ValidateName checks the trimmed name is 2–35 characters long.
func ValidateName(field, name string) error {
	n := utf8.RuneCountInString(NormalizeName(name))
	if n < MinNameLength || n > MaxNameLength {
		return errors.NewInvalidRequest(fmt.Sprintf("%s must be %d-%d characters, got %d", field, MinNameLength, MaxNameLength, n))
	}
	return nil
}

// ValidateExercise checks every structural rule of an exercise definition.
// It does not look at the ID.
func ValidateExercise(e *Exercise) error {
	if err := ValidateName("name", e.Name); err != nil {
		return err
	}
	if e.RestBetweenSets <= 0 {
		return errors.NewInvalidRequest("rest_between_sets must be a positive number of seconds")
	}
	if !e.Kind.Valid() {
		return errors.NewInvalidRequest(fmt.Sprintf("kind must be %q or %q", KindStrength, KindCardio))
	}
	if len(e.Levels) == 0 {
		return errors.NewInvalidRequest("exercise must have at least one level")
	}
	if len(e.Levels) > MaxLevels {
		return errors.NewInvalidRequest(fmt.Sprintf("exercise may have at most %d levels, got %d", MaxLevels, len(e.Levels)))
	}

	seen := make(map[int]bool, len(e.Levels))
	for _, l := range e.Levels {
		if l.Level < 1 || l.Level > len(e.Levels) {
			return errors.NewInvalidRequest(fmt.Sprintf("level numbers must be 1..%d, got %d", len(e.Levels), l.Level))
		}
		if seen[l.Level] {
			return errors.NewInvalidRequest(fmt.Sprintf("duplicate level %d", l.Level))
		}
		seen[l.Level] = true

		if len(l.Sets) == 0 {
			return errors.NewInvalidRequest(fmt.Sprintf("level %d must have at least one set", l.Level))
		}
		for i, s := range l.Sets {
			if err := validateSet(e.Kind, s); err != nil {
				return errors.NewInvalidRequest(fmt.Sprintf("level %d set %d: %s", l.Level, i+1, err))
			}
		}
	}
	return nil
}

func validateSet(kind Kind, s Set) error {
	switch v := s.(type) {
	case StrengthSet:
		if kind != KindStrength {
			return fmt.Errorf("strength set in %s exercise", kind)
		}
		if v.Reps <= 0 {
			return fmt.Errorf("reps must be positive")
		}
		if !v.Weight.valid() {
			return fmt.Errorf("weight must be non-negative")
		}
	case CardioSet:
		if kind != KindCardio {
			return fmt.Errorf("cardio set in %s exercise", kind)
		}
		if v.Duration <= 0 {
			return fmt.Errorf("duration must be positive")
		}
		if v.Weight != nil && !v.Weight.valid() {
			return fmt.Errorf("weight must be non-negative")
		}
	case nil:
		return fmt.Errorf("missing set")
	default:
		return fmt.Errorf("unknown set type %T", s)
	}
	return nil
}

// ValidateSession checks the session's own fields. Whether the referenced
// exercises and levels exist is checked by the caller against storage.
func ValidateSession(s *Session) error {
	if err := ValidateName("name", s.Name); err != nil {
		return err
	}
	if s.RestBetweenExercises < 0 {
		return errors.NewInvalidRequest("rest_between_exercises must not be negative")
	}
	if len(s.Exercises) == 0 {
		return errors.NewInvalidRequest("session must have at least one exercise")
	}
	for i, e := range s.Exercises {
		if strings.TrimSpace(e.ExerciseID) == "" {
			return errors.NewInvalidRequest(fmt.Sprintf("exercises[%d]: exercise_id is required", i))
		}
		if e.Level < 1 {
			return errors.NewInvalidRequest(fmt.Sprintf("exercises[%d]: level must be >= 1", i))
		}
	}
	return nil
}
