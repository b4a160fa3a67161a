// internal/patterns/coercion.go
package patterns

import (
	"encoding/json"
	"fmt"
	"math"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/solatis/eventtrail/internal/types"
)

/*
 * Value coercion for event decoding and pattern literals.
 *
 * Converts raw JSON/YAML scalars to the closed Value variants. Both decoded
 * events and pattern definitions go through Coerce, so a literal in a
 * pattern and the same literal in an event always produce equal Values.
 *
 * Kind modes:
 *   - String: Lenient - strings, numbers and booleans render as text
 *   - Identifier: non-blank strings and integral numbers (no floats, ids
 *     are exact); the payload is kept verbatim, never trimmed
 *   - EmailAddress: Strict - RFC 5322 address; display names are dropped,
 *     only the addr-spec is kept
 *   - DateTime: RFC3339 strings (fraction optional) or numeric unix seconds
 *
 * Null is not a value: callers decide what an absent binding means
 * (DecodeEvent skips it). Coerce(nil, ...) fails.
 *
 * json.Number is accepted so decoders using UseNumber keep large integer
 * ids exact; any width of integer is kept verbatim, beyond int64 included.
 */

// Coerce converts raw to a Value of the given kind.
// Returns ErrCoercionFailed for impossible coercions and ErrUnknownValueKind
// for kinds outside the closed set.
func Coerce(raw any, kind types.ValueKind) (types.Value, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: null is not a %s", types.ErrCoercionFailed, kind)
	}

	switch kind {
	case types.KindString:
		return coerceString(raw)
	case types.KindIdentifier:
		return coerceIdentifier(raw)
	case types.KindEmailAddress:
		return coerceEmail(raw)
	case types.KindDateTime:
		return coerceDateTime(raw)
	default:
		return nil, fmt.Errorf("%w: %s", types.ErrUnknownValueKind, kind)
	}
}

func coercionFailed(raw any, kind types.ValueKind) error {
	return fmt.Errorf("%w: %v (%T) as %s", types.ErrCoercionFailed, raw, raw, kind)
}

// coerceString renders scalars as text.
func coerceString(raw any) (types.Value, error) {
	switch v := raw.(type) {
	case string:
		return types.String(v), nil
	case json.Number:
		return types.String(v.String()), nil
	case float64:
		return types.String(strconv.FormatFloat(v, 'f', -1, 64)), nil
	case int:
		return types.String(strconv.Itoa(v)), nil
	case int64:
		return types.String(strconv.FormatInt(v, 10)), nil
	case uint64:
		return types.String(strconv.FormatUint(v, 10)), nil
	case bool:
		return types.String(strconv.FormatBool(v)), nil
	default:
		return nil, coercionFailed(raw, types.KindString)
	}
}

// coerceIdentifier accepts non-blank strings and integral numbers.
func coerceIdentifier(raw any) (types.Value, error) {
	switch v := raw.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, coercionFailed(raw, types.KindIdentifier)
		}
		return types.Identifier(v), nil
	case json.Number:
		if !isInteger(v.String()) {
			return nil, coercionFailed(raw, types.KindIdentifier)
		}
		return types.Identifier(v.String()), nil
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) || math.Abs(v) > 1<<53 {
			return nil, coercionFailed(raw, types.KindIdentifier)
		}
		return types.Identifier(strconv.FormatInt(int64(v), 10)), nil
	case int:
		return types.Identifier(strconv.Itoa(v)), nil
	case int64:
		return types.Identifier(strconv.FormatInt(v, 10)), nil
	case uint64:
		return types.Identifier(strconv.FormatUint(v, 10)), nil
	default:
		return nil, coercionFailed(raw, types.KindIdentifier)
	}
}

// isInteger reports whether s is an optionally signed run of decimal
// digits, with no fraction or exponent. Width is unbounded.
func isInteger(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// coerceEmail parses an RFC 5322 address and keeps the addr-spec.
func coerceEmail(raw any) (types.Value, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, coercionFailed(raw, types.KindEmailAddress)
	}
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return nil, coercionFailed(raw, types.KindEmailAddress)
	}
	return types.EmailAddress(addr.Address), nil
}

// coerceDateTime parses RFC3339 strings or unix seconds.
func coerceDateTime(raw any) (types.Value, error) {
	switch v := raw.(type) {
	case string:
		t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(v))
		if err != nil {
			return nil, coercionFailed(raw, types.KindDateTime)
		}
		return types.NewDateTime(t), nil
	case time.Time:
		return types.NewDateTime(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil, coercionFailed(raw, types.KindDateTime)
		}
		return unixSeconds(f), nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, coercionFailed(raw, types.KindDateTime)
		}
		return unixSeconds(v), nil
	case int:
		return types.NewDateTime(time.Unix(int64(v), 0)), nil
	case int64:
		return types.NewDateTime(time.Unix(v, 0)), nil
	default:
		return nil, coercionFailed(raw, types.KindDateTime)
	}
}

func unixSeconds(f float64) types.Value {
	sec, frac := math.Modf(f)
	return types.NewDateTime(time.Unix(int64(sec), int64(frac*1e9)))
}
