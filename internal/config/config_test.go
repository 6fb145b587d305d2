package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/planner/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.BaseURL, convey.ShouldEqual, "http://localhost:5000")
			convey.So(cfg.Addr, convey.ShouldEqual, ":5000")
			convey.So(cfg.TransitionDuration(), convey.ShouldEqual, 300*time.Millisecond)
			convey.So(cfg.RequestTimeout(), convey.ShouldEqual, 10*time.Second)
			convey.So(cfg.QueueSize, convey.ShouldEqual, 256)
			convey.So(cfg.WeekStartDay(), convey.ShouldEqual, time.Sunday)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given invalid configs", t, func() {
		cases := map[string]func(c *config.Config){
			"empty base url":    func(c *config.Config) { c.BaseURL = "" },
			"relative base url": func(c *config.Config) { c.BaseURL = "/api" },
			"zero timeout":      func(c *config.Config) { c.RequestTimeoutMS = 0 },
			"negative transit":  func(c *config.Config) { c.TransitionMS = -1 },
			"zero queue":        func(c *config.Config) { c.QueueSize = 0 },
			"bad week start":    func(c *config.Config) { c.WeekStart = "friday" },
			"bad cron":          func(c *config.Config) { c.ResyncCron = "every now and then" },
		}
		for name, mutate := range cases {
			cfg := config.New()
			mutate(cfg)
			err := cfg.Validate()
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			_ = name
		}
	})

	convey.Convey("Given a monday week start", t, func() {
		cfg := config.New()
		cfg.WeekStart = "monday"
		convey.So(cfg.Validate(), convey.ShouldBeNil)
		convey.So(cfg.WeekStartDay(), convey.ShouldEqual, time.Monday)
	})

	convey.Convey("Given resync disabled", t, func() {
		cfg := config.New()
		cfg.ResyncCron = ""
		convey.So(cfg.Validate(), convey.ShouldBeNil)
	})
}
