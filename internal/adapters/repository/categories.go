package repository

import (
	"context"
	"sync"

	"github.com/okian/planner/internal/domain/model"
	"github.com/okian/planner/internal/domain/observe"
	"github.com/okian/planner/pkg/metrics"
)

// CategoryStore keeps categories in server order, unique by id.
type CategoryStore struct {
	mu      sync.RWMutex
	list    []model.Category
	changes observe.Hub[Change]
}

var _ Categories = (*CategoryStore)(nil)

// NewCategoryStore returns an empty store.
func NewCategoryStore() *CategoryStore {
	return &CategoryStore{}
}

// Subscribe registers fn for every applied mutation.
func (s *CategoryStore) Subscribe(fn func(Change)) (unsubscribe func()) {
	return s.changes.Subscribe(fn)
}

// ReplaceAll swaps in categories. A repeated id keeps its first position and
// the last value.
func (s *CategoryStore) ReplaceAll(_ context.Context, categories []model.Category) {
	list := make([]model.Category, 0, len(categories))
	pos := make(map[string]int, len(categories))
	for _, c := range categories {
		if c.ID == "" {
			continue
		}
		if i, ok := pos[c.ID]; ok {
			list[i] = c
			continue
		}
		pos[c.ID] = len(list)
		list = append(list, c)
	}

	s.mu.Lock()
	s.list = list
	metrics.UpdateCategoryCount(len(list))
	s.mu.Unlock()

	s.changes.Publish(Change{Kind: ChangeReplaced, Count: len(list)})
}

// Insert appends c, or replaces the category that already has its id.
func (s *CategoryStore) Insert(_ context.Context, c model.Category) {
	s.mu.Lock()
	kind := ChangeInserted
	if i := s.indexLocked(c.ID); i >= 0 {
		s.list[i] = c
		kind = ChangeUpdated
	} else {
		s.list = append(s.list, c)
	}
	metrics.UpdateCategoryCount(len(s.list))
	s.mu.Unlock()

	s.changes.Publish(Change{Kind: kind, ID: c.ID, Count: 1})
}

// Update applies patch to the category with id.
func (s *CategoryStore) Update(_ context.Context, id string, patch model.CategoryPatch) (model.Category, error) {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return model.Category{}, ErrNotFound
	}
	s.list[i] = patch.Apply(s.list[i])
	out := s.list[i]
	s.mu.Unlock()

	s.changes.Publish(Change{Kind: ChangeUpdated, ID: id, Count: 1})
	return out, nil
}

// Remove deletes the category with id. It does not touch events; callers
// clear references first.
func (s *CategoryStore) Remove(_ context.Context, id string) bool {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.list = append(s.list[:i:i], s.list[i+1:]...)
	metrics.UpdateCategoryCount(len(s.list))
	s.mu.Unlock()

	s.changes.Publish(Change{Kind: ChangeRemoved, ID: id, Count: 1})
	return true
}

// List returns a copy of all categories.
func (s *CategoryStore) List() []model.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Category, len(s.list))
	copy(out, s.list)
	return out
}

// Get returns the category with id.
func (s *CategoryStore) Get(id string) (model.Category, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.list[i], true
	}
	return model.Category{}, false
}

// Len returns the number of categories.
func (s *CategoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.list)
}

func (s *CategoryStore) indexLocked(id string) int {
	for i := range s.list {
		if s.list[i].ID == id {
			return i
		}
	}
	return -1
}
