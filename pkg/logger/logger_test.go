package logger_test

import (
	"context"
	"testing"

	"github.com/pablo-ross/komornicka100/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLogger(t *testing.T) {
	Convey("Given an initialized global logger", t, func() {
		So(logger.Init(), ShouldBeNil)

		Convey("Get returns a non-nil logger", func() {
			So(logger.Get(), ShouldNotBeNil)
		})

		Convey("Named returns a distinct sub-logger", func() {
			l := logger.Named("worker")
			So(l, ShouldNotBeNil)
			So(l, ShouldNotEqual, logger.Get())
		})

		Convey("Logging with fields does not panic", func() {
			l := logger.Get()
			So(func() {
				l.Info(context.Background(), "verified",
					logger.String("user", "u1"),
					logger.Float64("score", 0.93),
					logger.Bool("created", true),
				)
			}, ShouldNotPanic)
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given the level parser", t, func() {
		So(logger.Init(), ShouldBeNil)

		Convey("It accepts known levels", func() {
			for _, lvl := range []string{"debug", "info", "warn", "warning", "error", "", "INFO"} {
				So(logger.SetLevelString(lvl), ShouldBeNil)
			}
		})

		Convey("It rejects unknown levels", func() {
			So(logger.SetLevelString("loud"), ShouldNotBeNil)
		})
	})
}
