package datekey_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/planner/internal/domain/datekey"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParse(t *testing.T) {
	Convey("Given a codec pinned to US eastern standard time", t, func() {
		ny := time.FixedZone("EST", -5*3600)
		codec := datekey.New(datekey.WithLocation(ny))

		Convey("Canonical keys are returned unchanged", func() {
			k, err := codec.Parse("2024-03-05")
			So(err, ShouldBeNil)
			So(k, ShouldEqual, datekey.Key("2024-03-05"))
		})

		Convey("UTC timestamps use local calendar fields", func() {
			// 02:00 UTC on the 6th is still the evening of the 5th in New York.
			k, err := codec.Parse("2024-03-06T02:00:00Z")
			So(err, ShouldBeNil)
			So(k, ShouldEqual, datekey.Key("2024-03-05"))
		})

		Convey("Zone-less timestamps are read in the codec location", func() {
			k, err := codec.Parse("2024-03-06 23:30:00")
			So(err, ShouldBeNil)
			So(k, ShouldEqual, datekey.Key("2024-03-06"))
		})

		Convey("Parsing is idempotent", func() {
			for _, in := range []string{"2024-03-05", "2024-03-06T02:00:00Z", "2024-12-31T23:59:59.999+01:00"} {
				k1, err := codec.Parse(in)
				So(err, ShouldBeNil)
				k2, err := codec.Parse(string(k1))
				So(err, ShouldBeNil)
				So(k2, ShouldEqual, k1)
			}
		})

		Convey("Garbage is rejected", func() {
			for _, in := range []string{"", "tomorrow", "2024-02-30", "2024-13-01", "05/03/2024"} {
				_, err := codec.Parse(in)
				So(errors.Is(err, datekey.ErrInvalidKey), ShouldBeTrue)
			}
		})
	})
}

func TestKeyHelpers(t *testing.T) {
	Convey("Given key helpers", t, func() {
		Convey("FromTime keeps the value's own calendar fields", func() {
			tokyo := time.FixedZone("JST", 9*3600)
			ts := time.Date(2024, 3, 6, 1, 0, 0, 0, tokyo)
			So(datekey.FromTime(ts), ShouldEqual, datekey.Key("2024-03-06"))
		})

		Convey("FromParts normalizes overflow", func() {
			So(datekey.FromParts(2024, time.February, 30), ShouldEqual, datekey.Key("2024-03-01"))
		})

		Convey("Key.Time round-trips", func() {
			tm, err := datekey.Key("2024-03-05").Time(time.UTC)
			So(err, ShouldBeNil)
			So(tm.Equal(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)), ShouldBeTrue)
			_, err = datekey.Key("nope").Time(time.UTC)
			So(err, ShouldNotBeNil)
		})

		Convey("Valid only accepts real days", func() {
			So(datekey.Key("2024-02-29").Valid(), ShouldBeTrue)
			So(datekey.Key("2023-02-29").Valid(), ShouldBeFalse)
			So(datekey.Key("2024-3-5").Valid(), ShouldBeFalse)
		})

		Convey("Truncate keeps the first ten characters", func() {
			So(datekey.Truncate("2024-03-05T10:00:00Z"), ShouldEqual, "2024-03-05")
			So(datekey.Truncate("2024-03-05"), ShouldEqual, "2024-03-05")
			So(datekey.Truncate("short"), ShouldEqual, "short")
		})

		Convey("Month helpers", func() {
			mid := time.Date(2024, 1, 31, 15, 0, 0, 0, time.UTC)
			So(datekey.FirstOfMonth(mid).Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)), ShouldBeTrue)
			So(datekey.AddMonths(mid, 1).Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)), ShouldBeTrue)
			So(datekey.AddMonths(mid, -1).Equal(time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC)), ShouldBeTrue)
			So(datekey.DaysIn(2024, time.February), ShouldEqual, 29)
			So(datekey.DaysIn(2023, time.February), ShouldEqual, 28)
			So(datekey.DaysIn(2024, time.April), ShouldEqual, 30)
		})
	})
}
