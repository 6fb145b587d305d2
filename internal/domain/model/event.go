// Package model contains domain models passed between layers.
package model

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/okian/planner/internal/domain/datekey"
)

// Event is a short text note attached to one calendar day.
// JSON field names match the backend wire format.
type Event struct {
	ID         string      `json:"id"`
	Text       string      `json:"text"`
	Date       datekey.Key `json:"date"`
	CategoryID *string     `json:"categoryId"` // nil means uncategorized
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  *time.Time  `json:"updatedAt,omitempty"`
}

// Clone returns a copy that shares no pointers with e.
func (e Event) Clone() Event {
	out := e
	if e.CategoryID != nil {
		id := *e.CategoryID
		out.CategoryID = &id
	}
	if e.UpdatedAt != nil {
		ts := *e.UpdatedAt
		out.UpdatedAt = &ts
	}
	return out
}

// HasCategory reports whether e references categoryID.
func (e Event) HasCategory(categoryID string) bool {
	return e.CategoryID != nil && *e.CategoryID == categoryID
}

// EventPatch carries the fields of a partial event update.
//
// categoryId has three states on the wire: absent (leave as is), null
// (clear) and a string (set). SetCategory distinguishes absent from null.
type EventPatch struct {
	Text        *string
	Date        *string
	SetCategory bool
	CategoryID  *string
}

// Empty reports whether the patch changes nothing.
func (p EventPatch) Empty() bool {
	return p.Text == nil && p.Date == nil && !p.SetCategory
}

// Apply returns e with the patch applied. Date is taken verbatim; callers
// normalize it first.
func (p EventPatch) Apply(e Event) Event {
	out := e.Clone()
	if p.Text != nil {
		out.Text = *p.Text
	}
	if p.Date != nil {
		out.Date = datekey.Key(*p.Date)
	}
	if p.SetCategory {
		out.CategoryID = nil
		if p.CategoryID != nil {
			id := *p.CategoryID
			out.CategoryID = &id
		}
	}
	return out
}

// MarshalJSON writes only the fields the patch touches.
func (p EventPatch) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, 3)
	if p.Text != nil {
		m["text"] = *p.Text
	}
	if p.Date != nil {
		m["date"] = *p.Date
	}
	if p.SetCategory {
		if p.CategoryID == nil {
			m["categoryId"] = nil
		} else {
			m["categoryId"] = *p.CategoryID
		}
	}
	return json.Marshal(m)
}

// UnmarshalJSON records whether categoryId was present, even when null.
func (p *EventPatch) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = EventPatch{}
	if v, ok := raw["text"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return err
		}
		p.Text = &s
	}
	if v, ok := raw["date"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return err
		}
		p.Date = &s
	}
	if v, ok := raw["categoryId"]; ok {
		p.SetCategory = true
		if !bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				return err
			}
			p.CategoryID = &s
		}
	}
	return nil
}
