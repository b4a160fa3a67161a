// internal/types/values.go
package types

import (
	"fmt"
	"strconv"
	"time"
)

// ValueKind tags the variant of a Value.
type ValueKind int

const (
	KindUnspecified ValueKind = iota
	KindString
	KindIdentifier
	KindEmailAddress
	KindDateTime
)

var kindNames = map[ValueKind]string{
	KindString:       "string",
	KindIdentifier:   "identifier",
	KindEmailAddress: "email",
	KindDateTime:     "datetime",
}

// String returns the wire name of the kind.
func (k ValueKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseValueKind converts a wire name to a ValueKind.
func ParseValueKind(name string) (ValueKind, error) {
	for kind, n := range kindNames {
		if n == name {
			return kind, nil
		}
	}
	return KindUnspecified, fmt.Errorf("%w: %q", ErrUnknownValueKind, name)
}

// Value is a sealed interface over the event value variants.
// Only String, Identifier, EmailAddress and DateTime implement it.
type Value interface {
	Kind() ValueKind
	// Equal reports same variant and same payload.
	Equal(other Value) bool
	String() string
	value()
}

// String is free text, e.g. an event type name.
type String string

func (String) value() {}

// Kind implements Value.
func (String) Kind() ValueKind { return KindString }

// Equal implements Value.
func (s String) Equal(other Value) bool {
	o, ok := other.(String)
	return ok && o == s
}

func (s String) String() string { return strconv.Quote(string(s)) }

// Identifier is an opaque id such as a cart or session id.
type Identifier string

func (Identifier) value() {}

// Kind implements Value.
func (Identifier) Kind() ValueKind { return KindIdentifier }

// Equal implements Value.
func (id Identifier) Equal(other Value) bool {
	o, ok := other.(Identifier)
	return ok && o == id
}

func (id Identifier) String() string { return "id:" + strconv.Quote(string(id)) }

// EmailAddress is a parsed RFC 5322 address (addr-spec only).
type EmailAddress string

func (EmailAddress) value() {}

// Kind implements Value.
func (EmailAddress) Kind() ValueKind { return KindEmailAddress }

// Equal implements Value.
func (a EmailAddress) Equal(other Value) bool {
	o, ok := other.(EmailAddress)
	return ok && o == a
}

func (a EmailAddress) String() string { return "email:" + strconv.Quote(string(a)) }

// DateTime is an instant. Equality compares instants, not zones.
type DateTime struct {
	t time.Time
}

// NewDateTime wraps t, dropping the monotonic clock reading.
func NewDateTime(t time.Time) DateTime {
	return DateTime{t: t.Round(0)}
}

func (DateTime) value() {}

// Kind implements Value.
func (DateTime) Kind() ValueKind { return KindDateTime }

// Time returns the wrapped instant.
func (d DateTime) Time() time.Time { return d.t }

// Equal implements Value.
func (d DateTime) Equal(other Value) bool {
	o, ok := other.(DateTime)
	return ok && o.t.Equal(d.t)
}

func (d DateTime) String() string { return "time:" + d.t.UTC().Format(time.RFC3339Nano) }

// Raw returns the payload in its wire form: strings for the text variants,
// RFC3339Nano (UTC) for DateTime.
func Raw(v Value) string {
	switch val := v.(type) {
	case String:
		return string(val)
	case Identifier:
		return string(val)
	case EmailAddress:
		return string(val)
	case DateTime:
		return val.t.UTC().Format(time.RFC3339Nano)
	default:
		return ""
	}
}
