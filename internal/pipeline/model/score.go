package model

import "strconv"

// Score is a float64 feature/contribution/confidence value that always
// marshals to exactly 3 fractional digits, so a RunArtifact's wire contract
// never leaks full float64 precision (e.g. 0.6000000000000001) to
// consumers. It carries no range restriction of its own — callers clamp
// composite scores to [0,1] before wrapping them in Score
type Score float64

// MarshalJSON writes s as a JSON number with exactly 3 fractional digits
func (s Score) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(float64(s), 'f', 3, 64)), nil
}
