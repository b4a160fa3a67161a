// internal/patterns/describe.go
package patterns

import (
	"strconv"
	"strings"

	"github.com/solatis/eventtrail/internal/types"
)

/*
 * Rendering and definition export.
 *
 * Describe renders a tree in a compact canonical text form used in logs,
 * CLI output and test failure messages:
 *
 *   any
 *   event(*)
 *   event(event_type="add_item")
 *   seq(a, b, c)            right-nested sequences are flattened
 *   repeat(p, 1, *)         * = unbounded
 *
 * Definition converts a tree back to its document form. Compile(Definition(p))
 * rebuilds a tree with the same structure: only the right-nested chain of a
 * sequence is flattened, which is exactly what Compile folds back.
 */

// Describe renders pattern in canonical text form.
func Describe(pattern HistoryPattern) string {
	var b strings.Builder
	describe(&b, pattern)
	return b.String()
}

func describe(b *strings.Builder, pattern HistoryPattern) {
	switch p := pattern.(type) {
	case AnyPattern:
		b.WriteString("any")
	case EventStep:
		b.WriteString("event(")
		describeEvent(b, p.Pattern)
		b.WriteByte(')')
	case SequencePattern:
		b.WriteString("seq(")
		for i, part := range sequenceChain(p) {
			if i > 0 {
				b.WriteString(", ")
			}
			describe(b, part)
		}
		b.WriteByte(')')
	case RepeatPattern:
		min, max, bounded := p.bounds()
		b.WriteString("repeat(")
		describe(b, p.Pattern)
		b.WriteString(", ")
		b.WriteString(strconv.Itoa(min))
		b.WriteString(", ")
		if bounded {
			b.WriteString(strconv.Itoa(max))
		} else {
			b.WriteByte('*')
		}
		b.WriteByte(')')
	default:
		b.WriteString("nil")
	}
}

func describeEvent(b *strings.Builder, pattern EventPattern) {
	switch p := pattern.(type) {
	case AnyEvent:
		b.WriteByte('*')
	case HasAttributeValue:
		b.WriteString(p.Attribute.String())
		b.WriteByte('=')
		if p.Value == nil {
			b.WriteString("nil")
		} else {
			b.WriteString(p.Value.String())
		}
	default:
		b.WriteString("nil")
	}
}

// sequenceChain flattens the right-nested chain of a sequence.
func sequenceChain(p SequencePattern) []HistoryPattern {
	parts := []HistoryPattern{p.First}
	next := p.Second
	for {
		seq, ok := next.(SequencePattern)
		if !ok {
			return append(parts, next)
		}
		parts = append(parts, seq.First)
		next = seq.Second
	}
}

// Definition converts pattern to its document form.
func Definition(pattern HistoryPattern) *types.PatternDefinition {
	switch p := pattern.(type) {
	case AnyPattern:
		return &types.PatternDefinition{Any: true}
	case EventStep:
		return &types.PatternDefinition{Event: eventDefinition(p.Pattern)}
	case SequencePattern:
		chain := sequenceChain(p)
		defs := make([]types.PatternDefinition, 0, len(chain))
		for _, part := range chain {
			defs = append(defs, *Definition(part))
		}
		return &types.PatternDefinition{Sequence: defs}
	case RepeatPattern:
		min, max, bounded := p.bounds()
		rd := &types.RepeatDefinition{Pattern: *Definition(p.Pattern)}
		if min > 0 {
			rd.Min = &min
		}
		if bounded {
			rd.Max = &max
		}
		return &types.PatternDefinition{Repeat: rd}
	default:
		// Unrepresentable; Compile rejects it as empty.
		return &types.PatternDefinition{}
	}
}

func eventDefinition(pattern EventPattern) *types.EventDefinition {
	switch p := pattern.(type) {
	case AnyEvent:
		return &types.EventDefinition{Any: true}
	case HasAttributeValue:
		def := &types.EventDefinition{Attribute: p.Attribute.String()}
		if p.Value != nil {
			def.Value = types.Raw(p.Value)
			if p.Value.Kind() != p.Attribute.Kind() {
				def.Kind = p.Value.Kind().String()
			}
		}
		return def
	default:
		return &types.EventDefinition{}
	}
}
