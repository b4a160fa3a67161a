// Package types provides domain models shared across EventTrail components.
//
// Zero-dependency design: the event model (attributes, values, events) and
// pattern definitions use only the standard library so the matcher can be
// embedded without pulling in storage or transport deps. ID utilities in
// ids.go import uuid but are isolated from the rest of the model.
//
// Closed sets: Attribute is a fixed enum and Value is a sealed interface, so
// a value variant outside {String, Identifier, EmailAddress, DateTime}
// cannot be constructed outside this package.
package types

// PatternID represents a UUIDv7 stored-pattern identifier.
// String alias enables type safety while maintaining JSON string serialization.
type PatternID string

// TenantID identifies the API key owner that stored patterns belong to.
type TenantID string

// Resource limits enforced at compile and decode time to bound evaluation cost.
const (
	// MaxPatternDepth prevents stack overflow during recursive matching.
	// 32 levels covers deeply nested repeat/sequence trees from generated rules.
	MaxPatternDepth = 32

	// MaxPatternNodes caps the size of a single pattern tree.
	MaxPatternNodes = 256

	// MaxRepeatBound caps explicit min/max repeat bounds.
	// Bounds above any realistic history length only waste mandatory-phase work.
	MaxRepeatBound = 10000

	// MaxHistoryLength limits decoded histories to bound memory per request.
	MaxHistoryLength = 100000

	// MaxPatternNameLength bounds human-readable pattern names.
	MaxPatternNameLength = 128
)
