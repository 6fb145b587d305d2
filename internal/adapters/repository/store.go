// Package repository holds the client-side event and category stores.
package repository

import (
	"context"

	"github.com/okian/planner/internal/domain/datekey"
	"github.com/okian/planner/internal/domain/model"
)

// Events is the date-indexed event cache the sync engine mutates.
type Events interface {
	// ReplaceAll drops every bucket, rebuilds from events and returns how
	// many were kept.
	ReplaceAll(ctx context.Context, events []model.Event) int
	// Insert appends e to the bucket for its date.
	Insert(ctx context.Context, e model.Event) error
	// Update replaces e in place, moving it when its date changed.
	Update(ctx context.Context, e model.Event) error
	// Remove deletes the event with id. dateHint may be empty.
	// Returns false when no such event exists.
	Remove(ctx context.Context, id string, dateHint datekey.Key) bool
	// NullifyCategory clears categoryID on every referencing event and
	// returns how many were changed.
	NullifyCategory(ctx context.Context, categoryID string) int

	Bucket(key datekey.Key) []model.Event
	Find(id string) (model.Event, bool)
	Snapshot() map[datekey.Key][]model.Event
	Len() int
}

// Categories is the category cache the sync engine mutates.
type Categories interface {
	ReplaceAll(ctx context.Context, categories []model.Category)
	// Insert adds c, replacing any category with the same id.
	Insert(ctx context.Context, c model.Category)
	// Update applies patch to the category with id.
	// Returns ErrNotFound if the id is unknown.
	Update(ctx context.Context, id string, patch model.CategoryPatch) (model.Category, error)
	// Remove deletes the category with id. Returns false when missing.
	Remove(ctx context.Context, id string) bool

	List() []model.Category
	Get(id string) (model.Category, bool)
	Len() int
}

// Snapshotter persists and restores JSON blobs by key.
type Snapshotter interface {
	SaveJSON(key string, v any) error
	LoadJSON(key string, v any) (bool, error)
}

// ChangeKind names a store mutation.
type ChangeKind string

// Change kinds published by the stores.
const (
	ChangeReplaced  ChangeKind = "replaced"
	ChangeRestored  ChangeKind = "restored"
	ChangeInserted  ChangeKind = "inserted"
	ChangeUpdated   ChangeKind = "updated"
	ChangeMoved     ChangeKind = "moved"
	ChangeRemoved   ChangeKind = "removed"
	ChangeNullified ChangeKind = "nullified"
)

// Change describes one applied mutation. From and To are bucket keys for
// event changes; Count is the number of affected entities.
type Change struct {
	Kind  ChangeKind
	ID    string
	From  datekey.Key
	To    datekey.Key
	Count int
}
