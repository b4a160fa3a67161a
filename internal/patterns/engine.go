// internal/patterns/engine.go
package patterns

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/solatis/eventtrail/internal/types"
	"golang.org/x/sync/errgroup"
)

/*
 * Evaluation orchestration.
 *
 * Evaluate runs one compiled pattern against one history. Engine adds a
 * cache of compiled stored patterns (keyed by id, invalidated by checksum)
 * and parallel evaluation over many histories.
 *
 * Evaluation flow:
 *   1. Span fast-path: len(history) < MinSpan cannot match
 *   2. Consume the pattern over the history
 *   3. Report Matched plus the consumed prefix length on success
 *
 * Concurrency: compiled trees are immutable and Consume has no shared
 * state, so EvaluateMany fans histories out over GOMAXPROCS workers with
 * errgroup. Only the cache map needs a lock.
 */

// MatchResult contains the outcome of evaluating one history.
type MatchResult struct {
	Matched     bool
	Consumed    int // prefix length consumed by a successful match, 0 otherwise
	PatternID   types.PatternID
	PatternName string
}

// Evaluate checks whether the compiled pattern matches the history.
func Evaluate(cp *CompiledPattern, history types.History) MatchResult {
	result := MatchResult{
		PatternID:   cp.PatternID,
		PatternName: cp.Name,
	}

	if len(history) < cp.MinSpan {
		return result
	}

	r := Consume(history, cp.Pattern)
	if r.Matched {
		result.Matched = true
		result.Consumed = r.Consumed(history)
	}
	return result
}

// Engine caches compiled stored patterns and evaluates them.
type Engine struct {
	mu    sync.RWMutex
	cache map[types.PatternID]*CompiledPattern
}

// NewEngine creates a new engine with an empty cache.
func NewEngine() *Engine {
	return &Engine{
		cache: make(map[types.PatternID]*CompiledPattern),
	}
}

// Load returns the compiled form of sp, compiling it only when the cache
// has no entry for sp.PatternID with the same checksum.
func (e *Engine) Load(sp *types.StoredPattern) (*CompiledPattern, error) {
	checksum, err := Checksum(&sp.Definition)
	if err != nil {
		return nil, err
	}

	e.mu.RLock()
	cached, ok := e.cache[sp.PatternID]
	e.mu.RUnlock()
	if ok && cached.Checksum == checksum {
		return cached, nil
	}

	cp, err := Compile(&sp.Definition)
	if err != nil {
		return nil, fmt.Errorf("pattern %s: %w", sp.PatternID, err)
	}
	cp.PatternID = sp.PatternID
	cp.Name = sp.Name

	e.mu.Lock()
	e.cache[sp.PatternID] = cp
	e.mu.Unlock()

	return cp, nil
}

// Forget drops a cached pattern.
func (e *Engine) Forget(id types.PatternID) {
	e.mu.Lock()
	delete(e.cache, id)
	e.mu.Unlock()
}

// Len returns the number of cached patterns.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.cache)
}

// EvaluateMany evaluates cp against every history in parallel.
// Results are in input order. Returns ctx.Err() if ctx is cancelled first.
func (e *Engine) EvaluateMany(ctx context.Context, cp *CompiledPattern, histories []types.History) ([]MatchResult, error) {
	results := make([]MatchResult, len(histories))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, history := range histories {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = Evaluate(cp, history)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
