package service_test

import (
	"context"
	"testing"

	"github.com/pablo-ross/komornicka100/internal/adapters/store"
	service "github.com/pablo-ross/komornicka100/internal/app"
	"github.com/pablo-ross/komornicka100/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestServiceLifecycle(t *testing.T) {
	Convey("Given a service over an in-memory store", t, func() {
		ctx := context.Background()
		cfg := config.New()
		cfg.SourceGPXPath = t.TempDir()

		mem := store.NewMemory()
		svc := service.New(cfg, service.WithStore(mem))

		Convey("Start wires the component graph", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Verifier(), ShouldNotBeNil)
			So(svc.Reconciler(), ShouldNotBeNil)
			So(svc.Store(), ShouldEqual, mem)

			Convey("Start is idempotent", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})

			Convey("RefreshStats tolerates an empty leaderboard", func() {
				svc.RefreshStats(ctx)
			})

			Convey("Stop releases and can be called twice", func() {
				svc.Stop()
				svc.Stop()
			})
		})

		Convey("The wired reconciler honors the configured window zone", func() {
			So(svc.Start(ctx), ShouldBeNil)
			rec := svc.Reconciler()
			So(rec, ShouldNotBeNil)
		})
	})
}
