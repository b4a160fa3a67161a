// internal/types/event.go
package types

import (
	"fmt"
	"sort"
	"strings"
)

/*
 * Event model: attributes, value kinds and immutable events.
 *
 * An Event is one observed user action at one instant, stored as a mapping
 * from Attribute to Value. Keys are unique by construction (map). The
 * backing map is copied on construction and never handed out, so an Event
 * cannot be mutated after NewEvent returns.
 *
 * Each Attribute has a natural ValueKind used when decoding raw events:
 *   - event_type, user_name: String
 *   - cart_id, session_id:   Identifier
 *   - email:                 EmailAddress
 *   - timestamp:             DateTime
 *
 * Patterns may still compare an attribute against a value of another kind;
 * such a comparison never matches (values of different variants are never
 * equal).
 */

// Attribute identifies a field slot on an event. Fixed, closed set.
type Attribute int

const (
	AttrUnspecified Attribute = iota
	AttrEventType
	AttrUserName
	AttrCartID
	AttrEmail
	AttrSessionID
	AttrTimestamp
)

var attributeNames = map[Attribute]string{
	AttrEventType: "event_type",
	AttrUserName:  "user_name",
	AttrCartID:    "cart_id",
	AttrEmail:     "email",
	AttrSessionID: "session_id",
	AttrTimestamp: "timestamp",
}

// Attributes lists every known attribute in declaration order.
func Attributes() []Attribute {
	return []Attribute{AttrEventType, AttrUserName, AttrCartID, AttrEmail, AttrSessionID, AttrTimestamp}
}

// String returns the wire name of the attribute.
func (a Attribute) String() string {
	if name, ok := attributeNames[a]; ok {
		return name
	}
	return fmt.Sprintf("attribute(%d)", int(a))
}

// Valid reports whether a is one of the known attributes.
func (a Attribute) Valid() bool {
	_, ok := attributeNames[a]
	return ok
}

// Kind returns the natural value kind for the attribute.
func (a Attribute) Kind() ValueKind {
	switch a {
	case AttrEventType, AttrUserName:
		return KindString
	case AttrCartID, AttrSessionID:
		return KindIdentifier
	case AttrEmail:
		return KindEmailAddress
	case AttrTimestamp:
		return KindDateTime
	default:
		return KindUnspecified
	}
}

// ParseAttribute converts a wire name to an Attribute.
// Returns ErrUnknownAttribute for names outside the closed set.
func ParseAttribute(name string) (Attribute, error) {
	name = strings.TrimSpace(name)
	for attr, n := range attributeNames {
		if n == name {
			return attr, nil
		}
	}
	return AttrUnspecified, fmt.Errorf("%w: %q", ErrUnknownAttribute, name)
}

// Event is one immutable observed user action.
type Event struct {
	attrs map[Attribute]Value
}

// NewEvent creates an event from attribute bindings. The map is copied;
// nil values and unknown attributes are dropped.
func NewEvent(attrs map[Attribute]Value) Event {
	copied := make(map[Attribute]Value, len(attrs))
	for attr, v := range attrs {
		if v == nil || !attr.Valid() {
			continue
		}
		copied[attr] = v
	}
	return Event{attrs: copied}
}

// Get returns the value bound to attr, if any.
func (e Event) Get(attr Attribute) (Value, bool) {
	v, ok := e.attrs[attr]
	return v, ok
}

// Len returns the number of bound attributes.
func (e Event) Len() int {
	return len(e.attrs)
}

// Attributes returns bound attributes in declaration order.
func (e Event) Attributes() []Attribute {
	attrs := make([]Attribute, 0, len(e.attrs))
	for attr := range e.attrs {
		attrs = append(attrs, attr)
	}
	sort.Slice(attrs, func(i, j int) bool { return attrs[i] < attrs[j] })
	return attrs
}

// Equal reports whether both events bind the same attributes to equal values.
func (e Event) Equal(other Event) bool {
	if len(e.attrs) != len(other.attrs) {
		return false
	}
	for attr, v := range e.attrs {
		ov, ok := other.attrs[attr]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// String renders the event as {attr=value, ...} in attribute order.
func (e Event) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, attr := range e.Attributes() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(attr.String())
		b.WriteByte('=')
		b.WriteString(e.attrs[attr].String())
	}
	b.WriteByte('}')
	return b.String()
}

// History is a chronological, finite sequence of events for one user or session.
// Insertion order is significant.
type History []Event
