package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/planner/internal/adapters/repository"
	"github.com/okian/planner/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCategoryStore(t *testing.T) {
	Convey("Given a category store", t, func() {
		ctx := context.Background()
		s := repository.NewCategoryStore()
		s.ReplaceAll(ctx, []model.Category{
			{ID: "c1", Name: "Work", Color: "#f00"},
			{ID: "c2", Name: "Home", Color: "green"},
			{ID: "c1", Name: "Job", Color: "#f00"},
			{Name: "no id"},
		})

		Convey("ReplaceAll keeps ids unique", func() {
			So(s.Len(), ShouldEqual, 2)
			list := s.List()
			So(list[0].ID, ShouldEqual, "c1")
			So(list[0].Name, ShouldEqual, "Job")
		})

		Convey("Insert appends new ids and replaces known ones", func() {
			s.Insert(ctx, model.Category{ID: "c3", Name: "Gym", Color: "blue"})
			s.Insert(ctx, model.Category{ID: "c2", Name: "House", Color: "green"})
			So(s.Len(), ShouldEqual, 3)
			c, ok := s.Get("c2")
			So(ok, ShouldBeTrue)
			So(c.Name, ShouldEqual, "House")
		})

		Convey("Update applies partial fields", func() {
			color := "purple"
			c, err := s.Update(ctx, "c2", model.CategoryPatch{Color: &color})
			So(err, ShouldBeNil)
			So(c.Name, ShouldEqual, "Home")
			So(c.Color, ShouldEqual, "purple")

			_, err = s.Update(ctx, "zz", model.CategoryPatch{Color: &color})
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("Remove deletes once", func() {
			var removed int
			s.Subscribe(func(c repository.Change) {
				if c.Kind == repository.ChangeRemoved {
					removed++
				}
			})
			So(s.Remove(ctx, "c1"), ShouldBeTrue)
			So(s.Remove(ctx, "c1"), ShouldBeFalse)
			_, ok := s.Get("c1")
			So(ok, ShouldBeFalse)
			So(removed, ShouldEqual, 1)
		})

		Convey("List returns a copy", func() {
			list := s.List()
			list[0].Name = "changed"
			c, _ := s.Get("c1")
			So(c.Name, ShouldEqual, "Job")
		})
	})
}
