// internal/patterns/decode.go
package patterns

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/solatis/eventtrail/internal/types"
)

/*
 * Event and history decoding from JSON.
 *
 * An event is a JSON object keyed by attribute wire names; each value is
 * coerced to the attribute's natural kind:
 *
 *   {"event_type": "add_item", "cart_id": 42, "timestamp": "2024-05-01T10:00:00Z"}
 *
 * A history is a JSON array of such objects, in chronological order.
 *
 * Unknown keys are rejected (ErrUnknownAttribute): the attribute set is
 * closed, and silently dropping a misspelled key would turn a match into a
 * non-match with no diagnostic. Null values are skipped, i.e. the attribute
 * is absent from the event.
 *
 * Numbers are decoded with UseNumber so integral ids survive unchanged.
 */

// DecodeEvent decodes one JSON object into an Event.
func DecodeEvent(data json.RawMessage) (types.Event, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return types.Event{}, fmt.Errorf("invalid event JSON: %w", err)
	}
	if raw == nil {
		return types.Event{}, errors.New("event must be a JSON object")
	}

	attrs := make(map[types.Attribute]types.Value, len(raw))
	for name, rv := range raw {
		attr, err := types.ParseAttribute(name)
		if err != nil {
			return types.Event{}, err
		}
		if rv == nil {
			continue
		}
		v, err := Coerce(rv, attr.Kind())
		if err != nil {
			return types.Event{}, fmt.Errorf("%s: %w", name, err)
		}
		attrs[attr] = v
	}

	return types.NewEvent(attrs), nil
}

// DecodeHistory decodes a JSON array of event objects.
// Returns ErrHistoryTooLong beyond MaxHistoryLength events.
func DecodeHistory(data json.RawMessage) (types.History, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("invalid history JSON: %w", err)
	}
	if len(raws) > types.MaxHistoryLength {
		return nil, fmt.Errorf("%w: %d events", types.ErrHistoryTooLong, len(raws))
	}

	history := make(types.History, 0, len(raws))
	for i, r := range raws {
		ev, err := DecodeEvent(r)
		if err != nil {
			return nil, fmt.Errorf("event[%d]: %w", i, err)
		}
		history = append(history, ev)
	}
	return history, nil
}
