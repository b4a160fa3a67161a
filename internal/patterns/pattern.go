// internal/patterns/pattern.go
package patterns

import "github.com/solatis/eventtrail/internal/types"

/*
 * Pattern trees.
 *
 * Two closed sum types, each sealed by an unexported marker method:
 *
 *   EventPattern   - predicate over one event
 *     AnyEvent            satisfied by every event
 *     HasAttributeValue   event binds Attribute to a value equal to Value
 *
 *   HistoryPattern - predicate over a prefix of a history
 *     AnyPattern          consumes nothing, always matches
 *     EventStep           consumes exactly one event
 *     SequencePattern     First, then Second on the remainder
 *     RepeatPattern       Pattern applied Min..Max times
 *
 * Nodes are plain values. Combinators build new nodes and never modify
 * their arguments, so a tree can be shared freely between goroutines and
 * matched any number of times. Construct nodes by value; pointer forms of
 * the variants are not recognized by the matcher.
 */

// Unbounded is the Max of a repeat with no upper bound.
// Any negative Max is treated as unbounded.
const Unbounded = -1

// EventPattern is a predicate over a single event.
type EventPattern interface {
	Matches(e types.Event) bool
	eventPattern()
}

// AnyEvent is satisfied by every event.
type AnyEvent struct{}

func (AnyEvent) eventPattern() {}

// Matches implements EventPattern.
func (AnyEvent) Matches(types.Event) bool { return true }

// HasAttributeValue is satisfied iff the event binds Attribute to a value
// equal to Value. An absent attribute is a non-match, not a fault.
type HasAttributeValue struct {
	Attribute types.Attribute
	Value     types.Value
}

func (HasAttributeValue) eventPattern() {}

// Matches implements EventPattern.
func (p HasAttributeValue) Matches(e types.Event) bool {
	if p.Value == nil {
		return false
	}
	v, ok := e.Get(p.Attribute)
	return ok && v.Equal(p.Value)
}

// HistoryPattern is a predicate over a prefix of a history.
type HistoryPattern interface {
	String() string
	historyPattern()
}

// AnyPattern consumes zero events and always matches.
type AnyPattern struct{}

// EventStep consumes one event and matches iff Pattern accepts it.
// A nil Pattern never matches.
type EventStep struct {
	Pattern EventPattern
}

// SequencePattern matches First and then Second on what First left over.
type SequencePattern struct {
	First  HistoryPattern
	Second HistoryPattern
}

// RepeatPattern applies Pattern at least Min and at most Max times.
// Negative Min is treated as 0; negative Max as Unbounded.
type RepeatPattern struct {
	Pattern HistoryPattern
	Min     int
	Max     int
}

func (AnyPattern) historyPattern()      {}
func (EventStep) historyPattern()       {}
func (SequencePattern) historyPattern() {}
func (RepeatPattern) historyPattern()   {}

func (p AnyPattern) String() string      { return Describe(p) }
func (p EventStep) String() string       { return Describe(p) }
func (p SequencePattern) String() string { return Describe(p) }
func (p RepeatPattern) String() string   { return Describe(p) }

// MatchesAny returns the pattern that consumes nothing and always matches.
func MatchesAny() HistoryPattern {
	return AnyPattern{}
}

// Event returns a pattern consuming one event that satisfies p.
func Event(p EventPattern) HistoryPattern {
	return EventStep{Pattern: p}
}

// SingleEvent returns a pattern consuming exactly one event of any shape.
func SingleEvent() HistoryPattern {
	return EventStep{Pattern: AnyEvent{}}
}

// EventWith returns a pattern consuming one event whose attr equals value.
func EventWith(attr types.Attribute, value types.Value) HistoryPattern {
	return EventStep{Pattern: HasAttributeValue{Attribute: attr, Value: value}}
}

// EventType is sugar for EventWith(AttrEventType, String(name)).
func EventType(name string) HistoryPattern {
	return EventWith(types.AttrEventType, types.String(name))
}

// Sequence returns a pattern matching a and then b.
func Sequence(a, b HistoryPattern) HistoryPattern {
	return SequencePattern{First: a, Second: b}
}

// Seq folds ps into right-nested sequences: Seq(a, b, c) is
// Sequence(a, Sequence(b, c)). Seq() is MatchesAny and Seq(p) is p.
func Seq(ps ...HistoryPattern) HistoryPattern {
	if len(ps) == 0 {
		return MatchesAny()
	}
	result := ps[len(ps)-1]
	for i := len(ps) - 2; i >= 0; i-- {
		result = Sequence(ps[i], result)
	}
	return result
}

// Repeat returns p repeated zero or more times.
func Repeat(p HistoryPattern) HistoryPattern {
	return RepeatPattern{Pattern: p, Min: 0, Max: Unbounded}
}

// AtLeast returns p repeated n or more times.
func AtLeast(p HistoryPattern, n int) HistoryPattern {
	return RepeatPattern{Pattern: p, Min: n, Max: Unbounded}
}

// AtMost returns p repeated up to n times.
func AtMost(p HistoryPattern, n int) HistoryPattern {
	return RepeatPattern{Pattern: p, Min: 0, Max: n}
}

// Between returns p repeated min to max times.
func Between(p HistoryPattern, min, max int) HistoryPattern {
	return RepeatPattern{Pattern: p, Min: min, Max: max}
}

// bounds normalizes repeat bounds: min >= 0, max < 0 means unbounded.
func (r RepeatPattern) bounds() (min int, max int, bounded bool) {
	min = r.Min
	if min < 0 {
		min = 0
	}
	if r.Max < 0 {
		return min, Unbounded, false
	}
	return min, r.Max, true
}
