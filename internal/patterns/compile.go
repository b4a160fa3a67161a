// internal/patterns/compile.go
package patterns

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/solatis/eventtrail/internal/types"
)

/*
 * Pattern compilation and validation.
 *
 * Compiles types.PatternDefinition to CompiledPattern: an immutable pattern
 * tree plus span bounds and a content checksum.
 *
 * Compilation workflow:
 *   1. Validate the node shape (exactly one variant set per node)
 *   2. Validate resource limits (definition depth, node count, repeat bounds)
 *   3. Resolve attributes and coerce literal values to their kinds
 *   4. Build the tree with the same combinators library callers use
 *   5. Calculate MinSpan/MaxSpan and the definition checksum
 *
 * Compile-time validation moves error detection to pattern creation so
 * that matching never has to fail: every tree Compile returns is well
 * formed, and Consume has no error path.
 *
 * Sequences fold right: [a, b, c] becomes Sequence(a, Sequence(b, c)).
 * Sequencing is associative in effect, so the fold direction only matters
 * for round-tripping through Definition.
 */

// CompiledPattern is a validated pattern ready for evaluation.
type CompiledPattern struct {
	PatternID types.PatternID
	Name      string
	Pattern   HistoryPattern
	MinSpan   int    // fewest events a successful match consumes
	MaxSpan   int    // most events a successful match consumes, Unbounded if none
	Checksum  string // sha256 of the definition JSON
	Nodes     int
}

// Compile validates def and builds its pattern tree.
func Compile(def *types.PatternDefinition) (*CompiledPattern, error) {
	if def == nil {
		return nil, types.ErrEmptyDefinition
	}

	c := &compiler{}
	pattern, err := c.compile(def, 1, "$")
	if err != nil {
		return nil, err
	}

	checksum, err := Checksum(def)
	if err != nil {
		return nil, err
	}

	return &CompiledPattern{
		Pattern:  pattern,
		MinSpan:  MinSpan(pattern),
		MaxSpan:  MaxSpan(pattern),
		Checksum: checksum,
		Nodes:    c.nodes,
	}, nil
}

// Validate reports whether a tree built with combinators satisfies the
// same limits Compile enforces on definitions.
func Validate(pattern HistoryPattern) error {
	if r, ok := findBadBounds(pattern); ok {
		return fmt.Errorf("%w: min %d, max %d", types.ErrInvalidBounds, r.Min, r.Max)
	}
	_, err := Compile(Definition(pattern))
	return err
}

// Checksum returns the sha256 hex digest of the definition's JSON form.
func Checksum(def *types.PatternDefinition) (string, error) {
	data, err := json.Marshal(def)
	if err != nil {
		return "", fmt.Errorf("failed to encode definition: %w", err)
	}
	return fmt.Sprintf("%x", sha256.Sum256(data)), nil
}

type compiler struct {
	nodes int
}

// compile builds one node. path locates the node in error messages.
func (c *compiler) compile(def *types.PatternDefinition, depth int, path string) (HistoryPattern, error) {
	if depth > types.MaxPatternDepth {
		return nil, fmt.Errorf("%s: %w", path, types.ErrPatternTooDeep)
	}
	c.nodes++
	if c.nodes > types.MaxPatternNodes {
		return nil, fmt.Errorf("%s: %w", path, types.ErrTooManyNodes)
	}

	set := 0
	if def.Any {
		set++
	}
	if def.Event != nil {
		set++
	}
	if def.Sequence != nil {
		set++
	}
	if def.Repeat != nil {
		set++
	}
	if set == 0 {
		return nil, fmt.Errorf("%s: %w", path, types.ErrEmptyDefinition)
	}
	if set > 1 {
		return nil, fmt.Errorf("%s: %w", path, types.ErrAmbiguousDefinition)
	}

	switch {
	case def.Any:
		return MatchesAny(), nil

	case def.Event != nil:
		ep, err := compileEventPattern(def.Event)
		if err != nil {
			return nil, fmt.Errorf("%s.event: %w", path, err)
		}
		return Event(ep), nil

	case def.Sequence != nil:
		parts := make([]HistoryPattern, 0, len(def.Sequence))
		for i := range def.Sequence {
			part, err := c.compile(&def.Sequence[i], depth+1, fmt.Sprintf("%s.sequence[%d]", path, i))
			if err != nil {
				return nil, err
			}
			parts = append(parts, part)
		}
		return Seq(parts...), nil

	default:
		return c.compileRepeat(def.Repeat, depth, path)
	}
}

// compileRepeat validates bounds and builds Between/AtLeast nodes.
// Nil Min defaults to 0; nil Max means unbounded.
func (c *compiler) compileRepeat(def *types.RepeatDefinition, depth int, path string) (HistoryPattern, error) {
	min := 0
	if def.Min != nil {
		min = *def.Min
	}
	max := Unbounded
	if def.Max != nil {
		max = *def.Max
	}

	if min < 0 || (def.Max != nil && max < 0) {
		return nil, fmt.Errorf("%s.repeat: %w: bounds must be non-negative", path, types.ErrInvalidBounds)
	}
	if def.Max != nil && max < min {
		return nil, fmt.Errorf("%s.repeat: %w: max %d < min %d", path, types.ErrInvalidBounds, max, min)
	}
	if min > types.MaxRepeatBound || max > types.MaxRepeatBound {
		return nil, fmt.Errorf("%s.repeat: %w", path, types.ErrRepeatTooLarge)
	}

	inner, err := c.compile(&def.Pattern, depth+1, path+".repeat.pattern")
	if err != nil {
		return nil, err
	}
	return Between(inner, min, max), nil
}

// compileEventPattern resolves the attribute and coerces the literal value.
// Kind defaults to the attribute's natural kind.
func compileEventPattern(def *types.EventDefinition) (EventPattern, error) {
	if def.Any {
		if def.Attribute != "" || def.Value != nil || def.Kind != "" {
			return nil, types.ErrAmbiguousDefinition
		}
		return AnyEvent{}, nil
	}

	attr, err := types.ParseAttribute(def.Attribute)
	if err != nil {
		return nil, err
	}

	kind := attr.Kind()
	if def.Kind != "" {
		kind, err = types.ParseValueKind(def.Kind)
		if err != nil {
			return nil, err
		}
	}

	value, err := Coerce(def.Value, kind)
	if err != nil {
		return nil, err
	}

	return HasAttributeValue{Attribute: attr, Value: value}, nil
}

// findBadBounds finds a repeat whose bounds Definition would silently
// normalize (negative min, or bounded max below min).
func findBadBounds(pattern HistoryPattern) (RepeatPattern, bool) {
	switch p := pattern.(type) {
	case SequencePattern:
		if r, ok := findBadBounds(p.First); ok {
			return r, true
		}
		return findBadBounds(p.Second)
	case RepeatPattern:
		if p.Min < 0 || (p.Max >= 0 && p.Max < p.Min) {
			return p, true
		}
		return findBadBounds(p.Pattern)
	default:
		return RepeatPattern{}, false
	}
}
