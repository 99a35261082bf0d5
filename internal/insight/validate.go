package insight

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Validation reasons.
const (
	ReasonTooShort = "too short"
	ReasonTooLong  = "too long"
)

// ValidationError is returned before any network call when the trimmed
// observation falls outside the allowed length.
type ValidationError struct {
	Reason string
	Length int
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "invalid observation"
	}
	switch e.Reason {
	case ReasonTooShort:
		return fmt.Sprintf("Observation is too short: please enter at least %d characters (currently %d).", MinObservationLength, e.Length)
	case ReasonTooLong:
		return fmt.Sprintf("Observation is too long: please keep it to %d characters or fewer (currently %d).", MaxObservationLength, e.Length)
	default:
		return "Observation is invalid: " + e.Reason
	}
}

// Length counts characters the way users see them in the counter.
func Length(text string) int {
	return utf8.RuneCountInString(text)
}

// Validate trims the observation and checks it against the length bounds.
// It returns the trimmed text on success.
func Validate(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	n := Length(trimmed)
	switch {
	case n < MinObservationLength:
		return "", &ValidationError{Reason: ReasonTooShort, Length: n}
	case n > MaxObservationLength:
		return "", &ValidationError{Reason: ReasonTooLong, Length: n}
	}
	return trimmed, nil
}
