package snapshot_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/planner/internal/adapters/snapshot"
	. "github.com/smartystreets/goconvey/convey"
)

func TestStore(t *testing.T) {
	Convey("Given a store in a temp dir", t, func() {
		base := filepath.Join(t.TempDir(), "snap")
		s, err := snapshot.Open(base, snapshot.WithCacheSize(0))
		So(err, ShouldBeNil)
		So(s.BasePath(), ShouldEqual, base)

		Convey("A missing key is reported as not found", func() {
			_, found, err := s.Get(snapshot.EventsKey)
			So(err, ShouldBeNil)
			So(found, ShouldBeFalse)
		})

		Convey("Put then Get returns the blob", func() {
			So(s.Put(snapshot.EventsKey, []byte(`{"a":1}`)), ShouldBeNil)
			val, found, err := s.Get(snapshot.EventsKey)
			So(err, ShouldBeNil)
			So(found, ShouldBeTrue)
			So(string(val), ShouldEqual, `{"a":1}`)

			Convey("The blob survives reopening", func() {
				again, err := snapshot.Open(base)
				So(err, ShouldBeNil)
				val, found, err := again.Get(snapshot.EventsKey)
				So(err, ShouldBeNil)
				So(found, ShouldBeTrue)
				So(string(val), ShouldEqual, `{"a":1}`)
			})

			Convey("Delete removes it and is idempotent", func() {
				So(s.Delete(snapshot.EventsKey), ShouldBeNil)
				So(s.Delete(snapshot.EventsKey), ShouldBeNil)
				_, found, _ := s.Get(snapshot.EventsKey)
				So(found, ShouldBeFalse)
			})
		})

		Convey("JSON helpers round-trip values", func() {
			in := map[string][]string{"2024-03-05": {"e1", "e2"}}
			So(s.SaveJSON("buckets", in), ShouldBeNil)
			var out map[string][]string
			found, err := s.LoadJSON("buckets", &out)
			So(err, ShouldBeNil)
			So(found, ShouldBeTrue)
			So(out, ShouldResemble, in)
		})

		Convey("Corrupt JSON is an encoding error", func() {
			So(os.MkdirAll(base, 0o755), ShouldBeNil)
			So(s.Put("bad", []byte("{not json")), ShouldBeNil)
			var out map[string]any
			_, err := s.LoadJSON("bad", &out)
			So(errors.Is(err, snapshot.ErrEncode), ShouldBeTrue)
		})
	})

	Convey("Given an empty path", t, func() {
		_, err := snapshot.Open("")
		So(errors.Is(err, snapshot.ErrNoPath), ShouldBeTrue)
	})
}
