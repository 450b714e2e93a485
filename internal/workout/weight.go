package workout

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// bodyweightToken is the JSON and CLI spelling of the bodyweight sentinel.
const bodyweightToken = "bodyweight"

// Weight is a load in kilograms or the bodyweight sentinel.
// The zero value is 0 kg.
type Weight struct {
	kg         float64
	bodyweight bool
}

// Bodyweight is the "no external load" sentinel.
var Bodyweight = Weight{bodyweight: true}

// Kilograms returns a weight of kg kilograms.
func Kilograms(kg float64) Weight {
	return Weight{kg: kg}
}

// IsBodyweight reports whether w is the bodyweight sentinel.
func (w Weight) IsBodyweight() bool { return w.bodyweight }

// Kg returns the load in kilograms (0 for bodyweight).
func (w Weight) Kg() float64 {
	if w.bodyweight {
		return 0
	}
	return w.kg
}

// String renders "bodyweight" or e.g. "22.5 kg".
func (w Weight) String() string {
	if w.bodyweight {
		return bodyweightToken
	}
	return strconv.FormatFloat(w.kg, 'f', -1, 64) + " kg"
}

func (w Weight) valid() bool {
	if w.bodyweight {
		return true
	}
	return w.kg >= 0 && !math.IsNaN(w.kg) && !math.IsInf(w.kg, 0)
}

// MarshalJSON encodes bodyweight as the string "bodyweight" and loads as numbers.
func (w Weight) MarshalJSON() ([]byte, error) {
	if w.bodyweight {
		return json.Marshal(bodyweightToken)
	}
	return json.Marshal(w.kg)
}

// UnmarshalJSON accepts a number, a numeric string, "bodyweight" or null (bodyweight).
func (w *Weight) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*w = Bodyweight
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParseWeight(s)
		if err != nil {
			return err
		}
		*w = parsed
		return nil
	}
	var kg float64
	if err := json.Unmarshal(data, &kg); err != nil {
		return fmt.Errorf("weight must be a number or %q: %w", bodyweightToken, err)
	}
	*w = Kilograms(kg)
	return nil
}

// ParseWeight parses user input: "", "bw" and "bodyweight" mean bodyweight,
// anything else must be a non-negative number of kilograms (an optional
// "kg" suffix is allowed).
func ParseWeight(s string) (Weight, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "bw", bodyweightToken:
		return Bodyweight, nil
	}
	s = strings.TrimSpace(strings.TrimSuffix(s, "kg"))
	kg, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Weight{}, fmt.Errorf("invalid weight %q", s)
	}
	w := Kilograms(kg)
	if !w.valid() {
		return Weight{}, fmt.Errorf("weight must be a non-negative number, got %q", s)
	}
	return w, nil
}
