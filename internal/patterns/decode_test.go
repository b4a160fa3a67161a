// internal/patterns/decode_test.go
package patterns

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/solatis/eventtrail/internal/types"
)

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    types.Event
		wantErr error
	}{
		{
			name: "all attributes",
			data: `{"event_type": "add_item", "user_name": "ada", "cart_id": 42, "email": "ada@example.com",
			        "session_id": "s-1", "timestamp": "2024-05-01T10:00:00Z"}`,
			want: types.NewEvent(map[types.Attribute]types.Value{
				types.AttrEventType: types.String("add_item"),
				types.AttrUserName:  types.String("ada"),
				types.AttrCartID:    types.Identifier("42"),
				types.AttrEmail:     types.EmailAddress("ada@example.com"),
				types.AttrSessionID: types.Identifier("s-1"),
				types.AttrTimestamp: mustCoerce(t, "2024-05-01T10:00:00Z", types.KindDateTime),
			}),
		},
		{
			name: "null skipped",
			data: `{"event_type": "abandon", "cart_id": null}`,
			want: types.NewEvent(map[types.Attribute]types.Value{
				types.AttrEventType: types.String("abandon"),
			}),
		},
		{
			name: "empty object",
			data: `{}`,
			want: types.NewEvent(nil),
		},
		{name: "unknown attribute", data: `{"recipient": "x"}`, wantErr: types.ErrUnknownAttribute},
		{name: "bad email", data: `{"email": "nope"}`, wantErr: types.ErrCoercionFailed},
		{name: "fractional id", data: `{"cart_id": 1.5}`, wantErr: types.ErrCoercionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeEvent(json.RawMessage(tt.data))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("DecodeEvent() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeEvent() error = %v, want nil", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("DecodeEvent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecodeEvent_Malformed(t *testing.T) {
	for _, data := range []string{`null`, `[]`, `"add_item"`, `{`, ``} {
		t.Run(data, func(t *testing.T) {
			if _, err := DecodeEvent(json.RawMessage(data)); err == nil {
				t.Errorf("DecodeEvent(%q) error = nil, want error", data)
			}
		})
	}
}

func TestDecodeHistory(t *testing.T) {
	h, err := DecodeHistory(json.RawMessage(`[
		{"event_type": "add_item", "cart_id": "c1"},
		{"event_type": "add_item", "cart_id": "c1"},
		{"event_type": "abandon"}
	]`))
	if err != nil {
		t.Fatalf("DecodeHistory() error = %v, want nil", err)
	}
	if len(h) != 3 {
		t.Fatalf("len(history) = %d, want 3", len(h))
	}

	pattern := Sequence(AtLeast(EventType("add_item"), 1), EventType("abandon"))
	if !Matches(h, pattern) {
		t.Errorf("Matches() = false, want true")
	}
}

func TestDecodeHistory_Errors(t *testing.T) {
	t.Run("error carries index", func(t *testing.T) {
		_, err := DecodeHistory(json.RawMessage(`[{"event_type": "a"}, {"colour": "red"}]`))
		if !errors.Is(err, types.ErrUnknownAttribute) {
			t.Fatalf("DecodeHistory() error = %v, want ErrUnknownAttribute", err)
		}
		if !strings.HasPrefix(err.Error(), "event[1]:") {
			t.Errorf("DecodeHistory() error = %q, want event[1] prefix", err)
		}
	})

	t.Run("not an array", func(t *testing.T) {
		if _, err := DecodeHistory(json.RawMessage(`{"event_type": "a"}`)); err == nil {
			t.Errorf("DecodeHistory() error = nil, want error")
		}
	})

	t.Run("too long", func(t *testing.T) {
		var b strings.Builder
		b.WriteByte('[')
		for i := 0; i <= types.MaxHistoryLength; i++ {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString("{}")
		}
		b.WriteByte(']')

		_, err := DecodeHistory(json.RawMessage(b.String()))
		if !errors.Is(err, types.ErrHistoryTooLong) {
			t.Errorf("DecodeHistory() error = %v, want ErrHistoryTooLong", err)
		}
	})

	t.Run("empty", func(t *testing.T) {
		h, err := DecodeHistory(json.RawMessage(`[]`))
		if err != nil || len(h) != 0 {
			t.Errorf("DecodeHistory([]) = %v, %v; want empty, nil", h, err)
		}
	})
}

func mustCoerce(t *testing.T, raw any, kind types.ValueKind) types.Value {
	t.Helper()
	v, err := Coerce(raw, kind)
	if err != nil {
		t.Fatalf("Coerce(%v, %s) error = %v", raw, kind, err)
	}
	return v
}
