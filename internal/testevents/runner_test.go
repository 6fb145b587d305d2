package testevents

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/planner/internal/adapters/backend"
	"github.com/okian/planner/internal/adapters/http/api"
	"github.com/okian/planner/internal/domain/datekey"
	"github.com/okian/planner/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithWriter(&bytes.Buffer{})); err != nil {
		panic(err)
	}
}

func TestGenerateSingleEvent(t *testing.T) {
	Convey("Given March 2024", t, func() {
		first := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

		Convey("Every generated event targets a March day", func() {
			for i := 0; i < 200; i++ {
				p := generateSingleEvent(first, 31, []string{"c1", "c2"})
				So(p.Expected.Valid(), ShouldBeTrue)
				So(strings.HasPrefix(string(p.Expected), "2024-03-"), ShouldBeTrue)
				So(datekey.Truncate(p.Request.Date), ShouldEqual, p.Expected.String())
				So(p.Request.Text, ShouldEndWith, "#"+p.Tag)
				if p.Request.CategoryID != nil {
					So([]string{"c1", "c2"}, ShouldContain, *p.Request.CategoryID)
				}
			}
		})
	})
}

func TestGenerateCategories(t *testing.T) {
	Convey("Category names stay unique past the palette size", t, func() {
		cats := generateCategories(len(palette) + 2)
		seen := map[string]bool{}
		for _, c := range cats {
			So(seen[c.Name], ShouldBeFalse)
			seen[c.Name] = true
			So(c.Color, ShouldStartWith, "#")
		}
	})
}

func TestRun(t *testing.T) {
	Convey("Given a reference backend", t, func() {
		store := backend.New()
		srv := httptest.NewServer(api.NewServer(store, nil).Handler())
		defer srv.Close()
		out := filepath.Join(t.TempDir(), "seed", "events.json")

		cfg := &Config{
			BaseURL:       srv.URL,
			NumEvents:     40,
			NumCategories: 3,
			Workers:       4,
			Timeout:       5 * time.Second,
			Month:         time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
			OutputFile:    out,
		}

		Convey("Run seeds and verifies every event", func() {
			stats, err := Run(context.Background(), cfg)
			So(err, ShouldBeNil)
			So(stats.CategoriesCreated, ShouldEqual, 3)
			So(stats.EventsSuccessful, ShouldEqual, 40)
			So(stats.EventsVerified, ShouldEqual, 40)
			So(stats.EventsMissing, ShouldEqual, 0)
			So(len(store.Events(context.Background())), ShouldEqual, 40)

			raw, err := os.ReadFile(out)
			So(err, ShouldBeNil)
			var saved []Planned
			So(json.Unmarshal(raw, &saved), ShouldBeNil)
			So(len(saved), ShouldEqual, 40)
			So(saved[0].ID, ShouldNotBeEmpty)
		})
	})

	Convey("Given an unreachable backend", t, func() {
		srv := httptest.NewServer(nil)
		url := srv.URL
		srv.Close()

		Convey("Run fails at the backend check", func() {
			_, err := Run(context.Background(), &Config{BaseURL: url, NumEvents: 1, Workers: 1, Timeout: time.Second})
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "backend check failed")
		})
	})
}
