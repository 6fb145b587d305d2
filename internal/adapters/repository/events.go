package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/okian/planner/internal/adapters/snapshot"
	"github.com/okian/planner/internal/domain/datekey"
	"github.com/okian/planner/internal/domain/model"
	"github.com/okian/planner/internal/domain/observe"
	"github.com/okian/planner/pkg/logger"
	"github.com/okian/planner/pkg/metrics"
)

// EventStore maps day keys to events in display order.
//
// Invariants, held whenever mu is not write-locked:
//   - every event sits in exactly one bucket, the one named by its Date;
//   - no bucket is empty;
//   - index[id] names the bucket holding id.
type EventStore struct {
	mu      sync.RWMutex
	buckets map[datekey.Key][]model.Event
	index   map[string]datekey.Key

	codec   *datekey.Codec
	snap    Snapshotter
	snapKey string
	log     logger.Logger
	changes observe.Hub[Change]
}

var _ Events = (*EventStore)(nil)

// NewEventStore returns an empty store.
func NewEventStore(opts ...Option) *EventStore {
	s := &EventStore{
		buckets: make(map[datekey.Key][]model.Event),
		index:   make(map[string]datekey.Key),
		codec:   datekey.New(),
		snapKey: snapshot.EventsKey,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers fn for every applied mutation.
func (s *EventStore) Subscribe(fn func(Change)) (unsubscribe func()) {
	return s.changes.Subscribe(fn)
}

// ReplaceAll rebuilds the mapping from events and returns how many were
// kept. Events with an unreadable date or no id are dropped and logged.
func (s *EventStore) ReplaceAll(ctx context.Context, events []model.Event) int {
	s.mu.Lock()
	s.rebuildLocked(ctx, events)
	n := len(s.index)
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.changes.Publish(Change{Kind: ChangeReplaced, Count: n})
	return n
}

// Restore loads the last persisted mapping, if any. It never writes back.
func (s *EventStore) Restore(ctx context.Context) (bool, error) {
	if s.snap == nil {
		return false, nil
	}
	var saved map[datekey.Key][]model.Event
	found, err := s.snap.LoadJSON(s.snapKey, &saved)
	if err != nil {
		metrics.RecordSnapshotError()
		return false, fmt.Errorf("restore events: %w", err)
	}
	if !found {
		return false, nil
	}

	flat := make([]model.Event, 0, len(saved))
	for _, key := range sortedKeys(saved) {
		flat = append(flat, saved[key]...)
	}

	s.mu.Lock()
	s.rebuildLocked(ctx, flat)
	n := len(s.index)
	metrics.UpdateStoreSize(len(s.buckets), n)
	s.mu.Unlock()

	s.changes.Publish(Change{Kind: ChangeRestored, Count: n})
	return true, nil
}

// Insert appends e to the bucket for its date. An event with the same id
// already present is replaced, so an id never appears twice.
func (s *EventStore) Insert(ctx context.Context, e model.Event) error {
	if e.ID == "" {
		return ErrMissingID
	}
	key, err := s.codec.Parse(string(e.Date))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDate, err)
	}
	e = e.Clone()
	e.Date = key

	s.mu.Lock()
	if _, ok := s.index[e.ID]; ok {
		s.detachLocked(e.ID)
	}
	s.appendLocked(e)
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.changes.Publish(Change{Kind: ChangeInserted, ID: e.ID, To: key, Count: 1})
	return nil
}

// Update replaces the stored copy of e. When the date changed the event is
// detached from its old bucket and appended to the new one under the same
// write lock, so no reader sees it in zero or two buckets. Unknown ids are
// inserted.
func (s *EventStore) Update(ctx context.Context, e model.Event) error {
	if e.ID == "" {
		return ErrMissingID
	}
	key, err := s.codec.Parse(string(e.Date))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDate, err)
	}
	e = e.Clone()
	e.Date = key

	s.mu.Lock()
	from, known := s.index[e.ID]
	change := Change{Kind: ChangeUpdated, ID: e.ID, From: from, To: key, Count: 1}
	switch {
	case !known:
		s.appendLocked(e)
		change.Kind = ChangeInserted
	case from == key:
		bucket := s.buckets[key]
		for i := range bucket {
			if bucket[i].ID == e.ID {
				bucket[i] = e
				break
			}
		}
	default:
		s.detachLocked(e.ID)
		s.appendLocked(e)
		change.Kind = ChangeMoved
	}
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.changes.Publish(change)
	return nil
}

// Remove deletes the event with id. dateHint, when set, names the bucket to
// search first. Removing an unknown id is a no-op.
func (s *EventStore) Remove(ctx context.Context, id string, dateHint datekey.Key) bool {
	s.mu.Lock()
	key, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	if dateHint != "" && dateHint != key {
		s.log.Debug(ctx, "remove hint does not match bucket",
			logger.String("id", id),
			logger.String("hint", string(dateHint)),
			logger.String("bucket", string(key)))
	}
	s.detachLocked(id)
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.changes.Publish(Change{Kind: ChangeRemoved, ID: id, From: key, Count: 1})
	return true
}

// NullifyCategory clears categoryID on every event referencing it.
func (s *EventStore) NullifyCategory(ctx context.Context, categoryID string) int {
	s.mu.Lock()
	n := 0
	for _, bucket := range s.buckets {
		for i := range bucket {
			if bucket[i].HasCategory(categoryID) {
				bucket[i].CategoryID = nil
				n++
			}
		}
	}
	if n > 0 {
		s.persistLocked(ctx)
	}
	s.mu.Unlock()

	if n > 0 {
		metrics.RecordCascadeNullify(n)
		s.changes.Publish(Change{Kind: ChangeNullified, ID: categoryID, Count: n})
	}
	return n
}

// Bucket returns a copy of the events on key, in display order.
func (s *EventStore) Bucket(key datekey.Key) []model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneEvents(s.buckets[key])
}

// Count returns the number of events on key.
func (s *EventStore) Count(key datekey.Key) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.buckets[key])
}

// Find returns the event with id.
func (s *EventStore) Find(id string) (model.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.index[id]
	if !ok {
		return model.Event{}, false
	}
	for _, e := range s.buckets[key] {
		if e.ID == id {
			return e.Clone(), true
		}
	}
	return model.Event{}, false
}

// Snapshot returns a deep copy of the full mapping.
func (s *EventStore) Snapshot() map[datekey.Key][]model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked()
}

// Keys returns the non-empty bucket keys in ascending order.
func (s *EventStore) Keys() []datekey.Key {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.buckets)
}

// Len returns the number of events.
func (s *EventStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.index)
}

// Buckets returns the number of non-empty buckets.
func (s *EventStore) Buckets() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.buckets)
}

func (s *EventStore) rebuildLocked(ctx context.Context, events []model.Event) {
	s.buckets = make(map[datekey.Key][]model.Event)
	s.index = make(map[string]datekey.Key, len(events))
	for _, e := range events {
		key, err := s.codec.Parse(string(e.Date))
		if err != nil || e.ID == "" {
			s.log.Warn(ctx, "dropping unusable event",
				logger.String("id", e.ID),
				logger.String("date", string(e.Date)))
			continue
		}
		e = e.Clone()
		e.Date = key
		if _, dup := s.index[e.ID]; dup {
			s.detachLocked(e.ID)
		}
		s.appendLocked(e)
	}
}

func (s *EventStore) appendLocked(e model.Event) {
	s.buckets[e.Date] = append(s.buckets[e.Date], e)
	s.index[e.ID] = e.Date
}

// detachLocked removes id from its bucket and the index, dropping the
// bucket when it empties.
func (s *EventStore) detachLocked(id string) {
	key := s.index[id]
	bucket := s.buckets[key]
	for i := range bucket {
		if bucket[i].ID == id {
			bucket = append(bucket[:i:i], bucket[i+1:]...)
			break
		}
	}
	if len(bucket) == 0 {
		delete(s.buckets, key)
	} else {
		s.buckets[key] = bucket
	}
	delete(s.index, id)
}

// persistLocked writes the mapping while the write lock is held so
// snapshots land in mutation order. Failures are logged, never returned.
func (s *EventStore) persistLocked(ctx context.Context) {
	metrics.UpdateStoreSize(len(s.buckets), len(s.index))
	if s.snap == nil {
		return
	}
	if err := s.snap.SaveJSON(s.snapKey, s.buckets); err != nil {
		metrics.RecordSnapshotError()
		s.log.Error(ctx, "snapshot write failed", logger.Error(err))
		return
	}
	metrics.RecordSnapshotWrite()
}

func (s *EventStore) copyLocked() map[datekey.Key][]model.Event {
	out := make(map[datekey.Key][]model.Event, len(s.buckets))
	for k, v := range s.buckets {
		out[k] = cloneEvents(v)
	}
	return out
}

func cloneEvents(in []model.Event) []model.Event {
	if in == nil {
		return nil
	}
	out := make([]model.Event, len(in))
	for i, e := range in {
		out[i] = e.Clone()
	}
	return out
}

func sortedKeys[V any](m map[datekey.Key]V) []datekey.Key {
	keys := make([]datekey.Key, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
