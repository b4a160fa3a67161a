// internal/patterns/span.go
package patterns

import "math"

/*
 * Span model for pattern trees.
 *
 * MinSpan and MaxSpan bound how many events a successful match consumes:
 *
 *   pattern             MinSpan               MaxSpan
 *   AnyPattern          0                     0
 *   EventStep           1                     1
 *   Sequence(a, b)      min(a) + min(b)       max(a) + max(b)
 *   Repeat(p, lo, hi)   lo * min(p)           max(lo, hi) * max(p)
 *
 * MaxSpan is Unbounded when any unbounded repeat wraps a pattern that can
 * consume events. A repeat of a zero-span pattern stays at 0: every
 * application after the first is a fixed point.
 *
 * Why spans: a successful match consumes at least MinSpan events, so
 * len(history) < MinSpan rejects without walking the tree. Evaluate uses
 * this as its fast path. MaxSpan is the window a caller needs to keep to
 * decide a match and is reported with compiled patterns.
 *
 * Arithmetic saturates at math.MaxInt so deep repeat nesting cannot wrap.
 */

// MinSpan returns the fewest events any successful match of p consumes.
func MinSpan(p HistoryPattern) int {
	switch v := p.(type) {
	case AnyPattern:
		return 0
	case EventStep:
		return 1
	case SequencePattern:
		return satAdd(MinSpan(v.First), MinSpan(v.Second))
	case RepeatPattern:
		min, _, _ := v.bounds()
		return satMul(min, MinSpan(v.Pattern))
	default:
		return 0
	}
}

// MaxSpan returns the most events any successful match of p consumes,
// or Unbounded.
func MaxSpan(p HistoryPattern) int {
	switch v := p.(type) {
	case AnyPattern:
		return 0
	case EventStep:
		return 1
	case SequencePattern:
		first, second := MaxSpan(v.First), MaxSpan(v.Second)
		if first == Unbounded || second == Unbounded {
			return Unbounded
		}
		return satAdd(first, second)
	case RepeatPattern:
		inner := MaxSpan(v.Pattern)
		if inner == 0 {
			return 0
		}
		min, max, bounded := v.bounds()
		if !bounded || inner == Unbounded {
			return Unbounded
		}
		if max < min {
			max = min
		}
		return satMul(max, inner)
	default:
		return 0
	}
}

func satAdd(a, b int) int {
	if a > math.MaxInt-b {
		return math.MaxInt
	}
	return a + b
}

func satMul(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	if a > math.MaxInt/b {
		return math.MaxInt
	}
	return a * b
}
