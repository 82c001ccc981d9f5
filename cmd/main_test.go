package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/okian/parkrank/internal/adapters/repository"
	service "github.com/okian/parkrank/internal/app"
	"github.com/okian/parkrank/internal/config"
	"github.com/okian/parkrank/internal/domain/model"
	"github.com/okian/parkrank/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init(logger.WithWriter(io.Discard))
}

func TestServiceOptions(t *testing.T) {
	convey.Convey("Given the default configuration", t, func() {
		cfg := config.New()
		store, err := openStore(context.Background(), cfg)
		convey.So(err, convey.ShouldBeNil)
		_, isMemory := store.(*repository.TreapStore)
		convey.So(isMemory, convey.ShouldBeTrue)

		convey.Convey("When the service starts with the mapped options", func() {
			opts, err := serviceOptions(cfg, logger.Get())
			convey.So(err, convey.ShouldBeNil)

			svc := service.New(store, opts...)
			ctx := context.Background()
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer func() { _ = svc.Stop(ctx) }()

			convey.Convey("Then the embedded parks are seeded and served", func() {
				r := newRouter(svc)

				w := httptest.NewRecorder()
				r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/ranking?limit=3", http.NoBody))
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				var parks []model.Park
				convey.So(json.Unmarshal(w.Body.Bytes(), &parks), convey.ShouldBeNil)
				convey.So(parks, convey.ShouldHaveLength, 3)
				convey.So(parks[0].Rank, convey.ShouldEqual, 1)

				w = httptest.NewRecorder()
				r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/openapi.json", http.NoBody))
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)

				stats := svc.GetStats()
				convey.So(stats["kFactor"], convey.ShouldEqual, cfg.KFactor)
			})

			convey.Convey("Then service metrics update without panicking", func() {
				convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When the seed file is missing", func() {
			cfg.SeedFile = "does-not-exist.toml"
			_, err := serviceOptions(cfg, logger.Get())
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestMetricsLoops(t *testing.T) {
	convey.Convey("Given a short-lived context", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		convey.Convey("Then tick runs until the context ends", func() {
			calls := 0
			tick(ctx, 5*time.Millisecond, func() { calls++ })
			convey.So(calls, convey.ShouldBeGreaterThan, 0)
		})

		convey.Convey("Then system metrics update without panicking", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given an ephemeral listen address", t, func() {
		_ = os.Setenv("PARKRANK_ADDR", "127.0.0.1:0")
		_ = os.Setenv("PARKRANK_LOG_LEVEL", "error")
		defer func() {
			_ = os.Unsetenv("PARKRANK_ADDR")
			_ = os.Unsetenv("PARKRANK_LOG_LEVEL")
		}()

		convey.Convey("When the context is cancelled, run shuts down cleanly", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
			defer cancel()
			convey.So(run(ctx), convey.ShouldBeNil)
		})

		convey.Convey("When the configuration is invalid, run fails", func() {
			_ = os.Setenv("PARKRANK_STORE", "postgres")
			defer func() { _ = os.Unsetenv("PARKRANK_STORE") }()
			convey.So(run(context.Background()), convey.ShouldNotBeNil)
		})
	})
}
