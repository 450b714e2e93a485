package workout

import "fmt"

// SetInfo is the target for one set: reps for strength, duration for cardio.
type SetInfo struct {
	Reps     *int   `json:"reps,omitempty"`
	Duration *int   `json:"duration,omitempty"`
	Weight   Weight `json:"weight"`
}

// CurrentSetInfo resolves the target of the 1-based setIndex at level.
// A missing level or set yields an empty info at bodyweight.
func CurrentSetInfo(e *Exercise, level, setIndex int) SetInfo {
	l, ok := e.FindLevel(level)
	if !ok || setIndex < 1 || setIndex > len(l.Sets) {
		return SetInfo{Weight: Bodyweight}
	}
	switch s := l.Sets[setIndex-1].(type) {
	case StrengthSet:
		reps := s.Reps
		return SetInfo{Reps: &reps, Weight: s.Weight}
	case CardioSet:
		d := s.Duration
		w := Bodyweight
		if s.Weight != nil {
			w = *s.Weight
		}
		return SetInfo{Duration: &d, Weight: w}
	default:
		return SetInfo{Weight: Bodyweight}
	}
}

// String renders e.g. "8 reps @ bodyweight" or "1:00 @ 10 kg".
func (si SetInfo) String() string {
	switch {
	case si.Reps != nil:
		return fmt.Sprintf("%d reps @ %s", *si.Reps, si.Weight)
	case si.Duration != nil:
		return fmt.Sprintf("%s @ %s", FormatSeconds(*si.Duration), si.Weight)
	default:
		return "-"
	}
}

// FormatSeconds renders a second count as m:ss. Negative input renders as 0:00.
func FormatSeconds(sec int) string {
	if sec < 0 {
		sec = 0
	}
	return fmt.Sprintf("%d:%02d", sec/60, sec%60)
}
