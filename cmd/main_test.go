package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/okian/palmares/internal/config"
	"github.com/okian/palmares/pkg/logger"
	"github.com/okian/palmares/pkg/metrics"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithLevel("error")); err != nil {
		panic(err)
	}
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When configuration comes from the environment", func() {
			_ = os.Setenv("PALMARES_ADDR", ":8080")
			_ = os.Setenv("PALMARES_QUEUE_SIZE", "100")
			_ = os.Setenv("PALMARES_WORKER_COUNT", "2")
			_ = os.Setenv("PALMARES_CURRENT_YEAR", "2024")
			defer func() {
				_ = os.Unsetenv("PALMARES_ADDR")
				_ = os.Unsetenv("PALMARES_QUEUE_SIZE")
				_ = os.Unsetenv("PALMARES_WORKER_COUNT")
				_ = os.Unsetenv("PALMARES_CURRENT_YEAR")
			}()

			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the service honours it", func() {
				svc := newService(cfg, logger.Get())
				ctx := context.Background()
				convey.So(svc.Start(ctx), convey.ShouldBeNil)
				defer func() { _ = svc.Stop(ctx) }()

				stats := svc.GetStats()
				convey.So(stats["workerCount"], convey.ShouldEqual, 2)
				convey.So(stats["queueSize"], convey.ShouldEqual, 100)
				convey.So(stats["currentYear"], convey.ShouldEqual, 2024)
			})
		})
	})
}

func TestMux(t *testing.T) {
	convey.Convey("Given the assembled mux", t, func() {
		ctx := context.Background()
		svc := newService(config.New(ctx), logger.Get())
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()
		mux := newMux(ctx, svc)

		convey.Convey("Then the OpenAPI document, health and stats are served", func() {
			for _, path := range []string{"/openapi.yaml", "/healthz", "/stats"} {
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, httptest.NewRequest("GET", path, http.NoBody))
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			}
		})

		convey.Convey("And a submission round-trips into the profile", func() {
			body := `{"year":2024,"pages":["<table><tr><td>01/06/24</td><td>100m</td><td>10''70</td><td>+0.5</td><td></td><td></td><td></td><td></td><td>Lyon</td></tr></table>"]}`
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest("POST", "/athletes/a1/pages", strings.NewReader(body)))
			convey.So(w.Code, convey.ShouldEqual, http.StatusAccepted)

			code := 0
			deadline := time.Now().Add(3 * time.Second)
			for time.Now().Before(deadline) {
				w = httptest.NewRecorder()
				mux.ServeHTTP(w, httptest.NewRequest("GET", "/athletes/a1/records", http.NoBody))
				if code = w.Code; code == http.StatusOK {
					break
				}
				time.Sleep(10 * time.Millisecond)
			}
			convey.So(code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Body.String(), convey.ShouldContainSubstring, `"raw":"10''70"`)
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When updating system metrics", func() {
			updateSystemMetrics()

			convey.Convey("Then the gauges are exported", func() {
				families, err := metrics.GetRegistry().Gather()
				convey.So(err, convey.ShouldBeNil)
				var names []string
				for _, f := range families {
					names = append(names, f.GetName())
				}
				convey.So(names, convey.ShouldContain, "palmares_system_goroutines")
			})
		})

		convey.Convey("When the updaters' context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			go func() {
				startSystemMetricsUpdater(ctx)
				close(done)
			}()
			cancel()

			convey.So(func() { <-done }, convey.ShouldNotPanic)
		})
	})
}
