// internal/patterns/match.go
package patterns

import "github.com/solatis/eventtrail/internal/types"

/*
 * History matching.
 *
 * Consume interprets a HistoryPattern against a history by recursive
 * descent, consuming a prefix and reporting what is left plus whether the
 * pattern matched. Matches discards the remainder.
 *
 * Evaluation rules:
 *   - EventStep: consumes the head (even when the predicate rejects it);
 *     on an empty history it fails without consuming
 *   - AnyPattern: consumes nothing, matches
 *   - SequencePattern: First; on failure return immediately without trying
 *     Second; otherwise Second on the remainder. No backtracking into First.
 *   - RepeatPattern: mandatory phase, then optional phase (below)
 *
 * Repeat phases:
 *   1. Mandatory: Pattern is applied Min times in sequence. The first
 *      failure fails the repeat, returning the remainder at that failure.
 *   2. Optional: up to Max-Min more applications (unbounded: at most the
 *      remaining history length). The first failure is absorbed and the
 *      repeat matches at the position just before that attempt.
 *
 * Mandatory failures propagate and optional failures do not. This models
 * "at least Min, try for up to Max, never penalize falling short of Max".
 *
 * Termination: matching is a pure function of (history, pattern), so an
 * application that matches without consuming anything is a fixed point
 * and every further application would return the same result. Both phases
 * stop there, which keeps Repeat(MatchesAny) and friends finite.
 */

// Result is the outcome of Consume.
type Result struct {
	Remaining types.History // suffix left after the consumed prefix
	Matched   bool
}

// Consumed returns how many events of from were consumed to reach r.
func (r Result) Consumed(from types.History) int {
	return len(from) - len(r.Remaining)
}

// Matches reports whether pattern matches a prefix of history.
func Matches(history types.History, pattern HistoryPattern) bool {
	return Consume(history, pattern).Matched
}

// Consume matches pattern against a prefix of history.
// A nil pattern never matches and consumes nothing.
func Consume(history types.History, pattern HistoryPattern) Result {
	switch p := pattern.(type) {
	case AnyPattern:
		return Result{Remaining: history, Matched: true}
	case EventStep:
		if len(history) == 0 {
			return Result{Remaining: history, Matched: false}
		}
		matched := p.Pattern != nil && p.Pattern.Matches(history[0])
		return Result{Remaining: history[1:], Matched: matched}
	case SequencePattern:
		first := Consume(history, p.First)
		if !first.Matched {
			return first
		}
		return Consume(first.Remaining, p.Second)
	case RepeatPattern:
		return consumeRepeat(history, p)
	default:
		return Result{Remaining: history, Matched: false}
	}
}

// consumeRepeat runs the mandatory and optional phases of a repeat.
func consumeRepeat(history types.History, r RepeatPattern) Result {
	min, max, bounded := r.bounds()
	current := history

	for i := 0; i < min; i++ {
		step := Consume(current, r.Pattern)
		if !step.Matched {
			return Result{Remaining: step.Remaining, Matched: false}
		}
		if len(step.Remaining) == len(current) {
			// Fixed point: all remaining applications match here too.
			return Result{Remaining: current, Matched: true}
		}
		current = step.Remaining
	}

	optional := len(current)
	if bounded && max-min < optional {
		optional = max - min
	}

	for i := 0; i < optional; i++ {
		step := Consume(current, r.Pattern)
		if !step.Matched || len(step.Remaining) == len(current) {
			break
		}
		current = step.Remaining
	}

	return Result{Remaining: current, Matched: true}
}
