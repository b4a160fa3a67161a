// internal/types/patterns.go
package types

/*
 * Declarative pattern definitions.
 *
 * Provides the document form of a history pattern as stored in the registry,
 * sent over the MatchAPI and written in pattern files. These types are
 * wire-format agnostic (json and yaml tags only); internal/patterns compiles
 * them into immutable pattern trees.
 *
 * Key types:
 *   - PatternDefinition: one node; exactly one variant must be set
 *   - EventDefinition: single-event predicate (any event, or attribute = value)
 *   - RepeatDefinition: bounded repetition of a nested definition
 *
 * Example (YAML):
 *
 *   sequence:
 *     - repeat:
 *         pattern: {event: {attribute: event_type, value: add_item}}
 *         min: 1
 *     - event: {attribute: event_type, value: abandon}
 */

// PatternDefinition is one node of a pattern document.
// A nil Sequence means "not set"; an empty non-nil Sequence is MatchesAny.
type PatternDefinition struct {
	Any      bool                `json:"any,omitempty" yaml:"any,omitempty"`
	Event    *EventDefinition    `json:"event,omitempty" yaml:"event,omitempty"`
	Sequence []PatternDefinition `json:"sequence,omitempty" yaml:"sequence,omitempty"`
	Repeat   *RepeatDefinition   `json:"repeat,omitempty" yaml:"repeat,omitempty"`
}

// EventDefinition describes a predicate over one event.
type EventDefinition struct {
	Any       bool   `json:"any,omitempty" yaml:"any,omitempty"`
	Attribute string `json:"attribute,omitempty" yaml:"attribute,omitempty"`
	Kind      string `json:"kind,omitempty" yaml:"kind,omitempty"` // defaults to the attribute's natural kind
	Value     any    `json:"value,omitempty" yaml:"value,omitempty"`
}

// RepeatDefinition describes Repeat(pattern, min, max).
// Nil Min means 0; nil Max means unbounded.
type RepeatDefinition struct {
	Pattern PatternDefinition `json:"pattern" yaml:"pattern"`
	Min     *int              `json:"min,omitempty" yaml:"min,omitempty"`
	Max     *int              `json:"max,omitempty" yaml:"max,omitempty"`
}

// StoredPattern is a named definition persisted in the registry.
type StoredPattern struct {
	PatternID  PatternID
	TenantID   TenantID
	Name       string
	Definition PatternDefinition
	Checksum   string // sha256 of the canonical definition JSON
	CreatedAt  string // RFC3339
}
