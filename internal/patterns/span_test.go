// internal/patterns/span_test.go
package patterns

import (
	"math"
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestSpan(t *testing.T) {
	tests := []struct {
		name    string
		pattern HistoryPattern
		wantMin int
		wantMax int
	}{
		{"any", MatchesAny(), 0, 0},
		{"event", SingleEvent(), 1, 1},
		{"sequence", Seq(SingleEvent(), MatchesAny(), SingleEvent()), 2, 2},
		{"between", Between(SingleEvent(), 2, 5), 2, 5},
		{"at least", AtLeast(SingleEvent(), 3), 3, Unbounded},
		{"at most", AtMost(Seq(SingleEvent(), SingleEvent()), 3), 0, 6},
		{"repeat of any", Repeat(MatchesAny()), 0, 0},
		{"nested unbounded", Seq(SingleEvent(), Repeat(SingleEvent())), 1, Unbounded},
		{"max below min", Between(SingleEvent(), 4, 1), 4, 4},
		{"nil", nil, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MinSpan(tt.pattern); got != tt.wantMin {
				t.Errorf("MinSpan() = %d, want %d", got, tt.wantMin)
			}
			if got := MaxSpan(tt.pattern); got != tt.wantMax {
				t.Errorf("MaxSpan() = %d, want %d", got, tt.wantMax)
			}
		})
	}
}

func TestSpan_Saturates(t *testing.T) {
	p := SingleEvent()
	for i := 0; i < 8; i++ {
		p = Between(p, 10000, 10000)
	}
	if got := MinSpan(p); got != math.MaxInt {
		t.Errorf("MinSpan() = %d, want MaxInt", got)
	}
	if got := MaxSpan(p); got != math.MaxInt {
		t.Errorf("MaxSpan() = %d, want MaxInt", got)
	}
}

// Property-based test: spans bound what Consume actually consumes
func TestSpan_BoundsConsume(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	properties.Property("successful matches consume within span", prop.ForAll(
		func(seed int64, n int) bool {
			r := rand.New(rand.NewSource(seed))
			p := randomPattern(r, 4)
			h := randomHistory(r, n)

			res := Consume(h, p)
			if !res.Matched {
				return true
			}
			k := res.Consumed(h)
			max := MaxSpan(p)
			return k >= MinSpan(p) && (max == Unbounded || k <= max)
		},
		gen.Int64(),
		gen.IntRange(0, 20),
	))

	properties.Property("histories shorter than MinSpan never match", prop.ForAll(
		func(seed int64) bool {
			r := rand.New(rand.NewSource(seed))
			p := randomPattern(r, 4)
			min := MinSpan(p)
			if min == 0 {
				return true
			}
			return !Matches(randomHistory(r, r.Intn(min)), p)
		},
		gen.Int64(),
	))

	properties.TestingRun(t)
}
