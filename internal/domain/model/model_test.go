package model_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/okian/planner/internal/domain/datekey"
	model "github.com/okian/planner/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func strp(s string) *string { return &s }

func TestEventPatch(t *testing.T) {
	convey.Convey("Given event patches", t, func() {
		convey.Convey("When categoryId is absent, null or set", func() {
			var absent, null, set model.EventPatch
			convey.So(json.Unmarshal([]byte(`{"text":"Lunch"}`), &absent), convey.ShouldBeNil)
			convey.So(json.Unmarshal([]byte(`{"categoryId":null}`), &null), convey.ShouldBeNil)
			convey.So(json.Unmarshal([]byte(`{"categoryId":"c1","date":"2024-03-06"}`), &set), convey.ShouldBeNil)

			convey.Convey("Then the three states are distinguished", func() {
				convey.So(absent.SetCategory, convey.ShouldBeFalse)
				convey.So(*absent.Text, convey.ShouldEqual, "Lunch")
				convey.So(null.SetCategory, convey.ShouldBeTrue)
				convey.So(null.CategoryID, convey.ShouldBeNil)
				convey.So(set.SetCategory, convey.ShouldBeTrue)
				convey.So(*set.CategoryID, convey.ShouldEqual, "c1")
				convey.So(*set.Date, convey.ShouldEqual, "2024-03-06")
			})
		})

		convey.Convey("When marshaling a clearing patch", func() {
			b, err := json.Marshal(model.EventPatch{SetCategory: true})
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(b), convey.ShouldEqual, `{"categoryId":null}`)
		})

		convey.Convey("When marshaling an empty patch", func() {
			p := model.EventPatch{}
			b, err := json.Marshal(p)
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(b), convey.ShouldEqual, `{}`)
			convey.So(p.Empty(), convey.ShouldBeTrue)
		})

		convey.Convey("When applying a patch", func() {
			orig := model.Event{ID: "e1", Text: "Dentist", Date: "2024-03-05", CategoryID: strp("c1"), CreatedAt: time.Now()}
			got := model.EventPatch{Date: strp("2024-03-06"), SetCategory: true}.Apply(orig)

			convey.Convey("Then only the touched fields change", func() {
				convey.So(got.Text, convey.ShouldEqual, "Dentist")
				convey.So(got.Date, convey.ShouldEqual, datekey.Key("2024-03-06"))
				convey.So(got.CategoryID, convey.ShouldBeNil)
				convey.So(*orig.CategoryID, convey.ShouldEqual, "c1")
			})
		})
	})
}

func TestEvent(t *testing.T) {
	convey.Convey("Given an event with a category", t, func() {
		e := model.Event{ID: "e1", CategoryID: strp("c1")}

		convey.Convey("Clone does not share the category pointer", func() {
			c := e.Clone()
			*c.CategoryID = "c2"
			convey.So(*e.CategoryID, convey.ShouldEqual, "c1")
		})

		convey.Convey("HasCategory matches by id", func() {
			convey.So(e.HasCategory("c1"), convey.ShouldBeTrue)
			convey.So(e.HasCategory("c2"), convey.ShouldBeFalse)
			convey.So(model.Event{}.HasCategory("c1"), convey.ShouldBeFalse)
		})

		convey.Convey("A null category serializes as null", func() {
			b, err := json.Marshal(model.Event{ID: "e2", Text: "x", Date: "2024-03-05"})
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(b), convey.ShouldContainSubstring, `"categoryId":null`)
			convey.So(string(b), convey.ShouldNotContainSubstring, `updatedAt`)
		})
	})
}

func TestCategoryPatch(t *testing.T) {
	convey.Convey("Given a category patch", t, func() {
		c := model.Category{ID: "c1", Name: "Work", Color: "#f00"}
		got := model.CategoryPatch{Color: strp("blue")}.Apply(c)
		convey.So(got.Name, convey.ShouldEqual, "Work")
		convey.So(got.Color, convey.ShouldEqual, "blue")
		convey.So(model.CategoryPatch{}.Empty(), convey.ShouldBeTrue)
	})
}
