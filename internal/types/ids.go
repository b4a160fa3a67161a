package types

import (
	"fmt"

	"github.com/google/uuid"
)

// NewPatternID generates a UUIDv7 pattern identifier.
// Time-ordered IDs keep list-patterns (ORDER BY created_at, pattern_id)
// stable for patterns created within the same second.
func NewPatternID() PatternID {
	return PatternID(newV7())
}

// NewAPIKeyID generates a UUIDv7 API key identifier.
func NewAPIKeyID() string {
	return newV7()
}

// newV7 panics on clock regression (uuid.Must); acceptable for ID generation.
func newV7() string {
	return uuid.Must(uuid.NewV7()).String()
}

// ParsePatternID validates and converts a string to PatternID.
// Only canonical lower-case UUIDs are accepted, so a parsed ID compares
// equal to the stored one.
func ParsePatternID(s string) (PatternID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid pattern id %q: %w", s, err)
	}
	if u.String() != s {
		return "", fmt.Errorf("invalid pattern id %q: not in canonical form", s)
	}
	return PatternID(s), nil
}
