// Package engine keeps the local event and category stores in step with the
// backend.
//
// Every mutation follows the same path: validate, send, and only after the
// backend confirms apply the returned entity locally. Failures leave local
// state alone and come back as *Error.
package engine

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/okian/planner/internal/adapters/http/client"
	"github.com/okian/planner/internal/adapters/repository"
	"github.com/okian/planner/internal/domain/datekey"
	"github.com/okian/planner/internal/domain/model"
	"github.com/okian/planner/pkg/logger"
	"github.com/okian/planner/pkg/metrics"
)

// Operation names used in errors, logs and metrics.
const (
	OpLoadEvents     = "load_events"
	OpLoadCategories = "load_categories"
	OpCreateEvent    = "create_event"
	OpUpdateEvent    = "update_event"
	OpDeleteEvent    = "delete_event"
	OpCreateCategory = "create_category"
	OpUpdateCategory = "update_category"
	OpDeleteCategory = "delete_category"
)

// Backend is the REST surface the engine needs.
type Backend interface {
	ListEvents(ctx context.Context) (client.EventsPayload, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateEvent(ctx context.Context, in client.NewEvent) (model.Event, error)
	UpdateEvent(ctx context.Context, id string, patch model.EventPatch) (model.Event, error)
	DeleteEvent(ctx context.Context, id string) error
	CreateCategory(ctx context.Context, in client.NewCategory) (model.Category, error)
	UpdateCategory(ctx context.Context, id string, patch model.CategoryPatch) (model.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

// LoadResult summarizes a LoadEvents call.
type LoadResult struct {
	Shape              client.Shape
	Events             int
	Categories         int
	CategoriesReplaced bool
}

// Engine is the sync engine.
type Engine struct {
	backend    Backend
	events     repository.Events
	categories repository.Categories
	log        logger.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// New wires an engine to a backend and the two stores.
func New(backend Backend, events repository.Events, categories repository.Categories, opts ...Option) *Engine {
	e := &Engine{
		backend:    backend,
		events:     events,
		categories: categories,
		log:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// LoadEvents replaces the event store with the backend collection, and the
// category store too when the payload carries categories.
func (e *Engine) LoadEvents(ctx context.Context) (LoadResult, error) {
	payload, err := e.fetchEvents(ctx)
	if err != nil {
		return LoadResult{}, err
	}
	return e.apply(ctx, payload), nil
}

// LoadCategories replaces the category store.
func (e *Engine) LoadCategories(ctx context.Context) (int, error) {
	list, err := e.fetchCategories(ctx)
	if err != nil {
		return 0, err
	}
	e.categories.ReplaceAll(ctx, list)
	return e.categories.Len(), nil
}

// Reload resynchronizes both stores, discarding anything not yet confirmed.
// Categories are fetched separately only when the events payload had none.
// Nothing is replaced until every request has succeeded.
func (e *Engine) Reload(ctx context.Context) error {
	metrics.RecordReload()
	payload, err := e.fetchEvents(ctx)
	if err != nil {
		return err
	}
	if !payload.HasCategories {
		list, err := e.fetchCategories(ctx)
		if err != nil {
			return err
		}
		payload.Categories, payload.HasCategories = list, true
	}
	e.apply(ctx, payload)
	return nil
}

func (e *Engine) fetchEvents(ctx context.Context) (client.EventsPayload, error) {
	start := time.Now()
	payload, err := e.backend.ListEvents(ctx)
	if err != nil {
		return client.EventsPayload{}, e.fail(ctx, OpLoadEvents, start, classify(OpLoadEvents, err))
	}
	e.ok(OpLoadEvents, start)
	return payload, nil
}

func (e *Engine) fetchCategories(ctx context.Context) ([]model.Category, error) {
	start := time.Now()
	list, err := e.backend.ListCategories(ctx)
	if err != nil {
		return nil, e.fail(ctx, OpLoadCategories, start, classify(OpLoadCategories, err))
	}
	e.ok(OpLoadCategories, start)
	return list, nil
}

// apply replaces categories before events, so an event never references a
// category the store has not received yet.
func (e *Engine) apply(ctx context.Context, payload client.EventsPayload) LoadResult {
	res := LoadResult{Shape: payload.Shape}
	if payload.HasCategories {
		e.categories.ReplaceAll(ctx, payload.Categories)
		res.Categories = e.categories.Len()
		res.CategoriesReplaced = true
	}
	res.Events = e.events.ReplaceAll(ctx, payload.Events)
	e.log.Debug(ctx, "events loaded",
		logger.String("shape", string(res.Shape)),
		logger.Int("events", res.Events),
		logger.Bool("categories_replaced", res.CategoriesReplaced))
	return res
}

// CreateEvent validates and posts a new event, then files the server copy.
// A timestamp date is cut to its first ten characters before sending.
func (e *Engine) CreateEvent(ctx context.Context, text, date string, categoryID *string) (model.Event, error) {
	text = strings.TrimSpace(text)
	if text == "" || strings.TrimSpace(date) == "" {
		return model.Event{}, e.reject(ctx, invalid(OpCreateEvent, "text and date are required"))
	}
	key, verr := normalizeDate(OpCreateEvent, date)
	if verr != nil {
		return model.Event{}, e.reject(ctx, verr)
	}

	start := time.Now()
	created, err := e.backend.CreateEvent(ctx, client.NewEvent{
		Text:       text,
		Date:       string(key),
		CategoryID: optionalID(categoryID),
	})
	if err != nil {
		return model.Event{}, e.fail(ctx, OpCreateEvent, start, classify(OpCreateEvent, err))
	}
	if err := e.events.Insert(ctx, created); err != nil {
		return model.Event{}, e.fail(ctx, OpCreateEvent, start, unusable(OpCreateEvent, err))
	}
	e.ok(OpCreateEvent, start)
	return created, nil
}

// UpdateEvent patches the given fields and applies the server copy, which
// moves the event when its date changed.
func (e *Engine) UpdateEvent(ctx context.Context, id string, patch model.EventPatch) (model.Event, error) {
	if strings.TrimSpace(id) == "" {
		return model.Event{}, e.reject(ctx, invalid(OpUpdateEvent, "id is required"))
	}
	if patch.Empty() {
		return model.Event{}, e.reject(ctx, invalid(OpUpdateEvent, "nothing to update"))
	}
	if patch.Text != nil {
		t := strings.TrimSpace(*patch.Text)
		if t == "" {
			return model.Event{}, e.reject(ctx, invalid(OpUpdateEvent, "text must not be empty"))
		}
		patch.Text = &t
	}
	if patch.Date != nil {
		key, verr := normalizeDate(OpUpdateEvent, *patch.Date)
		if verr != nil {
			return model.Event{}, e.reject(ctx, verr)
		}
		d := string(key)
		patch.Date = &d
	}
	if patch.SetCategory {
		patch.CategoryID = optionalID(patch.CategoryID)
	}

	start := time.Now()
	updated, err := e.backend.UpdateEvent(ctx, id, patch)
	if err != nil {
		return model.Event{}, e.fail(ctx, OpUpdateEvent, start, classify(OpUpdateEvent, err))
	}
	if err := e.events.Update(ctx, updated); err != nil {
		return model.Event{}, e.fail(ctx, OpUpdateEvent, start, unusable(OpUpdateEvent, err))
	}
	e.ok(OpUpdateEvent, start)
	return updated, nil
}

// DeleteEvent deletes by id. dateHint may be empty. A 404 is returned as a
// NotFound error and, like every other failure, leaves the store untouched.
func (e *Engine) DeleteEvent(ctx context.Context, id string, dateHint datekey.Key) error {
	if strings.TrimSpace(id) == "" {
		return e.reject(ctx, invalid(OpDeleteEvent, "id is required"))
	}

	start := time.Now()
	if err := e.backend.DeleteEvent(ctx, id); err != nil {
		return e.fail(ctx, OpDeleteEvent, start, classify(OpDeleteEvent, err))
	}
	e.events.Remove(ctx, id, dateHint)
	e.ok(OpDeleteEvent, start)
	return nil
}

// CreateCategory validates and posts a new category.
func (e *Engine) CreateCategory(ctx context.Context, name, color string) (model.Category, error) {
	name, color = strings.TrimSpace(name), strings.TrimSpace(color)
	if name == "" || color == "" {
		return model.Category{}, e.reject(ctx, invalid(OpCreateCategory, "name and color are required"))
	}

	start := time.Now()
	created, err := e.backend.CreateCategory(ctx, client.NewCategory{Name: name, Color: color})
	if err != nil {
		return model.Category{}, e.fail(ctx, OpCreateCategory, start, classify(OpCreateCategory, err))
	}
	if created.ID == "" {
		return model.Category{}, e.fail(ctx, OpCreateCategory, start, unusable(OpCreateCategory, repository.ErrMissingID))
	}
	e.categories.Insert(ctx, created)
	e.ok(OpCreateCategory, start)
	return created, nil
}

// UpdateCategory patches the given fields and applies the server copy.
func (e *Engine) UpdateCategory(ctx context.Context, id string, patch model.CategoryPatch) (model.Category, error) {
	if strings.TrimSpace(id) == "" {
		return model.Category{}, e.reject(ctx, invalid(OpUpdateCategory, "id is required"))
	}
	if patch.Empty() {
		return model.Category{}, e.reject(ctx, invalid(OpUpdateCategory, "nothing to update"))
	}
	if patch.Name != nil {
		n := strings.TrimSpace(*patch.Name)
		if n == "" {
			return model.Category{}, e.reject(ctx, invalid(OpUpdateCategory, "name must not be empty"))
		}
		patch.Name = &n
	}

	start := time.Now()
	updated, err := e.backend.UpdateCategory(ctx, id, patch)
	if err != nil {
		return model.Category{}, e.fail(ctx, OpUpdateCategory, start, classify(OpUpdateCategory, err))
	}
	confirmed := model.CategoryPatch{Name: &updated.Name, Color: &updated.Color}
	if _, err := e.categories.Update(ctx, id, confirmed); errors.Is(err, repository.ErrNotFound) {
		updated.ID = id
		e.categories.Insert(ctx, updated)
	}
	e.ok(OpUpdateCategory, start)
	return updated, nil
}

// DeleteCategory deletes by id. After the backend confirms, references are
// cleared before the category itself is removed, so no reader ever sees an
// event pointing at a missing category. On failure neither step runs.
func (e *Engine) DeleteCategory(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return e.reject(ctx, invalid(OpDeleteCategory, "id is required"))
	}

	start := time.Now()
	if err := e.backend.DeleteCategory(ctx, id); err != nil {
		return e.fail(ctx, OpDeleteCategory, start, classify(OpDeleteCategory, err))
	}
	n := e.events.NullifyCategory(ctx, id)
	e.categories.Remove(ctx, id)
	e.ok(OpDeleteCategory, start)
	e.log.Debug(ctx, "category deleted", logger.String("id", id), logger.Int("nullified", n))
	return nil
}

func (e *Engine) ok(op string, start time.Time) {
	metrics.RecordSyncRequest(op, "ok", float64(time.Since(start).Milliseconds()))
}

func (e *Engine) fail(ctx context.Context, op string, start time.Time, err *Error) error {
	metrics.RecordSyncRequest(op, string(err.Kind), float64(time.Since(start).Milliseconds()))
	fields := []logger.Field{
		logger.String("op", op),
		logger.String("kind", string(err.Kind)),
		logger.Error(err),
	}
	if err.Kind == KindNotFound {
		e.log.Warn(ctx, "sync operation failed", fields...)
	} else {
		e.log.Error(ctx, "sync operation failed", fields...)
	}
	return err
}

func (e *Engine) reject(ctx context.Context, err *Error) error {
	e.log.Debug(ctx, "rejected before sending", logger.String("op", err.Op), logger.String("reason", err.Message))
	return err
}

// normalizeDate cuts timestamps to their date part and checks the result.
func normalizeDate(op, date string) (datekey.Key, *Error) {
	key := datekey.Key(datekey.Truncate(strings.TrimSpace(date)))
	if !key.Valid() {
		return "", invalid(op, "date must be YYYY-MM-DD or a timestamp")
	}
	return key, nil
}

// optionalID maps a blank id to nil.
func optionalID(id *string) *string {
	if id == nil || strings.TrimSpace(*id) == "" {
		return nil
	}
	v := strings.TrimSpace(*id)
	return &v
}

// unusable reports a 2xx whose entity the store would not accept.
func unusable(op string, err error) *Error {
	return &Error{Op: op, Kind: KindServer, Message: "backend returned an unusable entity", Err: err}
}
