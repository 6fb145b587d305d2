package backend_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/planner/internal/adapters/backend"
	"github.com/okian/planner/internal/adapters/snapshot"
	"github.com/okian/planner/internal/domain/datekey"
	"github.com/okian/planner/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func strp(s string) *string { return &s }

type failingDisk struct{}

func (failingDisk) SaveJSON(string, any) error         { return errors.New("read-only fs") }
func (failingDisk) LoadJSON(string, any) (bool, error) { return false, nil }

func newStore(opts ...backend.Option) *backend.Store {
	n := 0
	clock := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	base := []backend.Option{
		backend.WithIDGenerator(func() string { n++; return fmt.Sprintf("id%d", n) }),
		backend.WithClock(func() time.Time { return clock }),
	}
	return backend.New(append(base, opts...)...)
}

func TestEvents(t *testing.T) {
	Convey("Given an empty backend", t, func() {
		ctx := context.Background()
		s := newStore()

		Convey("CreateEvent assigns an id, timestamp and day key", func() {
			e, err := s.CreateEvent(ctx, backend.NewEvent{Text: "Lunch", Date: "2024-03-05T10:00:00Z"})
			So(err, ShouldBeNil)
			So(e.ID, ShouldEqual, "id1")
			So(e.Date, ShouldEqual, datekey.Key("2024-03-05"))
			So(e.CreatedAt.Equal(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)), ShouldBeTrue)
			So(e.UpdatedAt, ShouldBeNil)
			So(len(s.Events(ctx)), ShouldEqual, 1)
		})

		Convey("CreateEvent rejects missing and malformed fields", func() {
			_, err := s.CreateEvent(ctx, backend.NewEvent{Date: "2024-03-05"})
			So(errors.Is(err, backend.ErrMissingEventFields), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "Missing 'text' or 'date' field")
			_, err = s.CreateEvent(ctx, backend.NewEvent{Text: "x", Date: "2024-13-05"})
			So(errors.Is(err, backend.ErrInvalidDate), ShouldBeTrue)
			_, err = s.CreateEvent(ctx, backend.NewEvent{Text: "x", Date: "2024-03-05", CategoryID: strp("nope")})
			So(errors.Is(err, backend.ErrUnknownCategory), ShouldBeTrue)
			So(s.Events(ctx), ShouldBeEmpty)
		})

		Convey("UpdateEvent patches fields and stamps updatedAt", func() {
			c, _ := s.CreateCategory(ctx, backend.NewCategory{Name: "Work", Color: "red"})
			e, _ := s.CreateEvent(ctx, backend.NewEvent{Text: "Lunch", Date: "2024-03-05"})

			got, err := s.UpdateEvent(ctx, e.ID, model.EventPatch{Date: strp("2024-03-06T00:00:00Z"), SetCategory: true, CategoryID: &c.ID})
			So(err, ShouldBeNil)
			So(got.Date, ShouldEqual, datekey.Key("2024-03-06"))
			So(*got.CategoryID, ShouldEqual, c.ID)
			So(got.UpdatedAt, ShouldNotBeNil)
			So(got.Text, ShouldEqual, "Lunch")

			_, err = s.UpdateEvent(ctx, "missing", model.EventPatch{Text: strp("x")})
			So(errors.Is(err, backend.ErrEventNotFound), ShouldBeTrue)
			_, err = s.UpdateEvent(ctx, e.ID, model.EventPatch{Text: strp(" ")})
			So(errors.Is(err, backend.ErrEmptyText), ShouldBeTrue)
		})

		Convey("DeleteEvent removes once", func() {
			e, _ := s.CreateEvent(ctx, backend.NewEvent{Text: "Lunch", Date: "2024-03-05"})
			So(s.DeleteEvent(ctx, e.ID), ShouldBeNil)
			So(errors.Is(s.DeleteEvent(ctx, e.ID), backend.ErrEventNotFound), ShouldBeTrue)
		})
	})
}

func TestCategories(t *testing.T) {
	Convey("Given a backend with two tagged events", t, func() {
		ctx := context.Background()
		s := newStore()
		work, _ := s.CreateCategory(ctx, backend.NewCategory{Name: " Work ", Color: "red"})
		home, _ := s.CreateCategory(ctx, backend.NewCategory{Name: "Home", Color: "green"})
		_, _ = s.CreateEvent(ctx, backend.NewEvent{Text: "a", Date: "2024-03-05", CategoryID: &work.ID})
		_, _ = s.CreateEvent(ctx, backend.NewEvent{Text: "b", Date: "2024-03-05", CategoryID: &home.ID})

		Convey("Names are trimmed and both fields are required", func() {
			So(work.Name, ShouldEqual, "Work")
			_, err := s.CreateCategory(ctx, backend.NewCategory{Name: "x"})
			So(errors.Is(err, backend.ErrMissingCategoryFields), ShouldBeTrue)
		})

		Convey("DeleteCategory clears only matching references", func() {
			n, err := s.DeleteCategory(ctx, work.ID)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 1)
			for _, e := range s.Events(ctx) {
				if e.Text == "a" {
					So(e.CategoryID, ShouldBeNil)
				} else {
					So(*e.CategoryID, ShouldEqual, home.ID)
				}
			}
			So(len(s.Categories(ctx)), ShouldEqual, 1)

			_, err = s.DeleteCategory(ctx, work.ID)
			So(errors.Is(err, backend.ErrCategoryNotFound), ShouldBeTrue)
		})

		Convey("UpdateCategory applies partial fields", func() {
			c, err := s.UpdateCategory(ctx, home.ID, model.CategoryPatch{Color: strp("blue")})
			So(err, ShouldBeNil)
			So(c.Name, ShouldEqual, "Home")
			So(c.Color, ShouldEqual, "blue")
			_, err = s.UpdateCategory(ctx, home.ID, model.CategoryPatch{Name: strp("")})
			So(errors.Is(err, backend.ErrEmptyName), ShouldBeTrue)
		})
	})
}

func TestPersistence(t *testing.T) {
	Convey("Given a backend persisted through diskv", t, func() {
		ctx := context.Background()
		disk, err := snapshot.Open(filepath.Join(t.TempDir(), "data"))
		So(err, ShouldBeNil)

		s := backend.New(backend.WithPersister(disk))
		c, err := s.CreateCategory(ctx, backend.NewCategory{Name: "Work", Color: "red"})
		So(err, ShouldBeNil)
		_, err = s.CreateEvent(ctx, backend.NewEvent{Text: "Lunch", Date: "2024-03-05", CategoryID: &c.ID})
		So(err, ShouldBeNil)

		Convey("A new store loads the same data", func() {
			again := backend.New(backend.WithPersister(disk))
			So(again.Load(ctx), ShouldBeNil)
			So(again.Events(ctx), ShouldResemble, s.Events(ctx))
			So(again.Categories(ctx), ShouldResemble, s.Categories(ctx))
		})
	})

	Convey("Given a persister that fails", t, func() {
		ctx := context.Background()
		s := backend.New(backend.WithPersister(failingDisk{}))

		Convey("Writes fail and memory is unchanged", func() {
			_, err := s.CreateEvent(ctx, backend.NewEvent{Text: "Lunch", Date: "2024-03-05"})
			So(errors.Is(err, backend.ErrPersist), ShouldBeTrue)
			So(s.Events(ctx), ShouldBeEmpty)
		})
	})
}
