// Package backend is the reference implementation of the planner REST
// backend's data layer: two collections kept in memory and written through
// to a snapshot store.
package backend

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/planner/internal/domain/datekey"
	"github.com/okian/planner/internal/domain/model"
	"github.com/okian/planner/pkg/logger"
)

// Keys the collections are persisted under.
const (
	EventsKey     = "events"
	CategoriesKey = "categories"
)

// Persister stores JSON blobs by key.
type Persister interface {
	SaveJSON(key string, v any) error
	LoadJSON(key string, v any) (bool, error)
}

// NewEvent is a create request.
type NewEvent struct {
	Text       string  `json:"text"`
	Date       string  `json:"date"`
	CategoryID *string `json:"categoryId,omitempty"`
}

// NewCategory is a create request.
type NewCategory struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Store is the backend's source of truth.
type Store struct {
	mu         sync.RWMutex
	events     []model.Event
	categories []model.Category

	disk  Persister
	now   func() time.Time
	newID func() string
	log   logger.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithPersister writes every change through p.
func WithPersister(p Persister) Option {
	return func(s *Store) { s.disk = p }
}

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator replaces the uuid generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		now:   time.Now,
		newID: uuid.NewString,
		log:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads both collections from the persister. Missing keys leave the
// collection empty.
func (s *Store) Load(ctx context.Context) error {
	if s.disk == nil {
		return nil
	}
	var events []model.Event
	if _, err := s.disk.LoadJSON(EventsKey, &events); err != nil {
		return fmt.Errorf("load events: %w", err)
	}
	var categories []model.Category
	if _, err := s.disk.LoadJSON(CategoriesKey, &categories); err != nil {
		return fmt.Errorf("load categories: %w", err)
	}

	s.mu.Lock()
	s.events, s.categories = events, categories
	s.mu.Unlock()

	s.log.Info(ctx, "backend data loaded",
		logger.Int("events", len(events)),
		logger.Int("categories", len(categories)))
	return nil
}

// Events returns every event.
func (s *Store) Events(context.Context) []model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Event, len(s.events))
	for i, e := range s.events {
		out[i] = e.Clone()
	}
	return out
}

// Categories returns every category.
func (s *Store) Categories(context.Context) []model.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Category, len(s.categories))
	copy(out, s.categories)
	return out
}

// CreateEvent validates and stores a new event. A timestamp date is cut to
// its first ten characters.
func (s *Store) CreateEvent(_ context.Context, in NewEvent) (model.Event, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" || in.Date == "" {
		return model.Event{}, ErrMissingEventFields
	}
	key, err := normalizeDate(in.Date)
	if err != nil {
		return model.Event{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cat, err := s.categoryRefLocked(in.CategoryID)
	if err != nil {
		return model.Event{}, err
	}
	e := model.Event{
		ID:         s.newID(),
		Text:       text,
		Date:       key,
		CategoryID: cat,
		CreatedAt:  s.now().UTC(),
	}
	next := append(cloneEvents(s.events), e)
	if err := s.saveLocked(EventsKey, next); err != nil {
		return model.Event{}, err
	}
	s.events = next
	return e.Clone(), nil
}

// UpdateEvent applies patch to the event with id and stamps UpdatedAt.
func (s *Store) UpdateEvent(_ context.Context, id string, patch model.EventPatch) (model.Event, error) {
	if patch.Text != nil {
		t := strings.TrimSpace(*patch.Text)
		if t == "" {
			return model.Event{}, ErrEmptyText
		}
		patch.Text = &t
	}
	if patch.Date != nil {
		key, err := normalizeDate(*patch.Date)
		if err != nil {
			return model.Event{}, err
		}
		d := string(key)
		patch.Date = &d
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.eventIndexLocked(id)
	if i < 0 {
		return model.Event{}, ErrEventNotFound
	}
	if patch.SetCategory {
		cat, err := s.categoryRefLocked(patch.CategoryID)
		if err != nil {
			return model.Event{}, err
		}
		patch.CategoryID = cat
	}

	next := cloneEvents(s.events)
	updated := patch.Apply(next[i])
	ts := s.now().UTC()
	updated.UpdatedAt = &ts
	next[i] = updated
	if err := s.saveLocked(EventsKey, next); err != nil {
		return model.Event{}, err
	}
	s.events = next
	return updated.Clone(), nil
}

// DeleteEvent removes the event with id.
func (s *Store) DeleteEvent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.eventIndexLocked(id)
	if i < 0 {
		return ErrEventNotFound
	}
	next := append(cloneEvents(s.events[:i]), cloneEvents(s.events[i+1:])...)
	if err := s.saveLocked(EventsKey, next); err != nil {
		return err
	}
	s.events = next
	return nil
}

// CreateCategory validates and stores a new category.
func (s *Store) CreateCategory(_ context.Context, in NewCategory) (model.Category, error) {
	name, color := strings.TrimSpace(in.Name), strings.TrimSpace(in.Color)
	if name == "" || color == "" {
		return model.Category{}, ErrMissingCategoryFields
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := model.Category{ID: s.newID(), Name: name, Color: color}
	next := append(append([]model.Category(nil), s.categories...), c)
	if err := s.saveLocked(CategoriesKey, next); err != nil {
		return model.Category{}, err
	}
	s.categories = next
	return c, nil
}

// UpdateCategory applies patch to the category with id.
func (s *Store) UpdateCategory(_ context.Context, id string, patch model.CategoryPatch) (model.Category, error) {
	if patch.Name != nil {
		n := strings.TrimSpace(*patch.Name)
		if n == "" {
			return model.Category{}, ErrEmptyName
		}
		patch.Name = &n
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.categoryIndexLocked(id)
	if i < 0 {
		return model.Category{}, ErrCategoryNotFound
	}
	next := append([]model.Category(nil), s.categories...)
	next[i] = patch.Apply(next[i])
	if err := s.saveLocked(CategoriesKey, next); err != nil {
		return model.Category{}, err
	}
	s.categories = next
	return next[i], nil
}

// DeleteCategory removes the category with id and clears every event
// reference to it. It returns how many events were cleared.
func (s *Store) DeleteCategory(_ context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.categoryIndexLocked(id)
	if i < 0 {
		return 0, ErrCategoryNotFound
	}

	events := cloneEvents(s.events)
	cleared := 0
	for j := range events {
		if events[j].HasCategory(id) {
			events[j].CategoryID = nil
			cleared++
		}
	}
	categories := append(append([]model.Category(nil), s.categories[:i]...), s.categories[i+1:]...)

	// Events first: a crash between the writes leaves no dangling reference.
	if cleared > 0 {
		if err := s.saveLocked(EventsKey, events); err != nil {
			return 0, err
		}
	}
	if err := s.saveLocked(CategoriesKey, categories); err != nil {
		return 0, err
	}
	s.events, s.categories = events, categories
	return cleared, nil
}

func (s *Store) categoryRefLocked(id *string) (*string, error) {
	if id == nil || strings.TrimSpace(*id) == "" {
		return nil, nil
	}
	ref := strings.TrimSpace(*id)
	if s.categoryIndexLocked(ref) < 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, ref)
	}
	return &ref, nil
}

func (s *Store) eventIndexLocked(id string) int {
	for i := range s.events {
		if s.events[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) categoryIndexLocked(id string) int {
	for i := range s.categories {
		if s.categories[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) saveLocked(key string, v any) error {
	if s.disk == nil {
		return nil
	}
	if err := s.disk.SaveJSON(key, v); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

func normalizeDate(date string) (datekey.Key, error) {
	key := datekey.Key(datekey.Truncate(strings.TrimSpace(date)))
	if !key.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return key, nil
}

func cloneEvents(in []model.Event) []model.Event {
	out := make([]model.Event, len(in))
	for i, e := range in {
		out[i] = e.Clone()
	}
	return out
}
