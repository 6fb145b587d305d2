package client

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/okian/planner/internal/domain/model"
)

// Shape names the layout an events payload arrived in.
type Shape string

// Known events payload layouts.
const (
	ShapeArray    Shape = "array"     // [ ...events ]
	ShapeEvents   Shape = "events"    // { events: [...], categories?: [...] }
	ShapeData     Shape = "data"      // { data: [...] }
	ShapeDataWrap Shape = "data-wrap" // { data: { events: [...], categories?: [...] } }
)

// EventsPayload is the normalized result of GET /events.
// HasCategories is false when the payload carried no categories field, in
// which case Categories must not replace the local list.
type EventsPayload struct {
	Shape         Shape
	Events        []model.Event
	Categories    []model.Category
	HasCategories bool
}

// DecodeEvents normalizes every known GET /events layout.
func DecodeEvents(body []byte) (EventsPayload, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return EventsPayload{}, fmt.Errorf("%w: empty body", ErrDecode)
	}

	switch body[0] {
	case '[':
		var events []model.Event
		if err := json.Unmarshal(body, &events); err != nil {
			return EventsPayload{}, fmt.Errorf("%w: %w", ErrDecode, err)
		}
		return EventsPayload{Shape: ShapeArray, Events: events}, nil
	case '{':
	default:
		return EventsPayload{}, fmt.Errorf("%w: unexpected %q", ErrDecode, body[0])
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return EventsPayload{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	// A data array wins over events, which wins over a wrapped data object.
	data, hasData := present(obj, "data")
	if hasData && isArray(data) {
		p := EventsPayload{Shape: ShapeData}
		if err := json.Unmarshal(data, &p.Events); err != nil {
			return EventsPayload{}, fmt.Errorf("%w: data: %w", ErrDecode, err)
		}
		if err := decodeCategories(obj, &p); err != nil {
			return EventsPayload{}, err
		}
		return p, nil
	}

	if raw, ok := present(obj, "events"); ok {
		p := EventsPayload{Shape: ShapeEvents}
		if err := json.Unmarshal(raw, &p.Events); err != nil {
			return EventsPayload{}, fmt.Errorf("%w: events: %w", ErrDecode, err)
		}
		if err := decodeCategories(obj, &p); err != nil {
			return EventsPayload{}, err
		}
		return p, nil
	}

	if hasData {
		inner, err := DecodeEvents(data)
		if err != nil {
			return EventsPayload{}, err
		}
		inner.Shape = ShapeDataWrap
		if !inner.HasCategories {
			if err := decodeCategories(obj, &inner); err != nil {
				return EventsPayload{}, err
			}
		}
		return inner, nil
	}

	return EventsPayload{}, fmt.Errorf("%w: no events or data field", ErrDecode)
}

// DecodeCategories accepts { categories: [...] } or a bare array.
func DecodeCategories(body []byte) ([]model.Category, error) {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		var list []model.Category
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDecode, err)
		}
		return list, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	var p EventsPayload
	if err := decodeCategories(obj, &p); err != nil {
		return nil, err
	}
	if !p.HasCategories {
		return nil, fmt.Errorf("%w: no categories field", ErrDecode)
	}
	return p.Categories, nil
}

// decodeEntity reads { <field>: {...} }, falling back to the bare object.
func decodeEntity(body []byte, field string, out any) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	raw, ok := present(obj, field)
	if !ok {
		if _, hasID := obj["id"]; !hasID {
			return fmt.Errorf("%w: no %s field", ErrDecode, field)
		}
		raw = body
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDecode, field, err)
	}
	return nil
}

func decodeCategories(obj map[string]json.RawMessage, p *EventsPayload) error {
	raw, ok := present(obj, "categories")
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, &p.Categories); err != nil {
		return fmt.Errorf("%w: categories: %w", ErrDecode, err)
	}
	if p.Categories == nil {
		p.Categories = []model.Category{}
	}
	p.HasCategories = true
	return nil
}

func isArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}

// present returns obj[key] unless it is missing or JSON null.
func present(obj map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	raw, ok := obj[key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, false
	}
	return raw, true
}
