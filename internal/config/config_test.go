package config_test

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/okian/smarthr/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":4004")
			convey.So(cfg.StoreDriver, convey.ShouldEqual, config.DriverMemory)
			convey.So(cfg.NarrativeProvider, convey.ShouldEqual, config.ProviderNone)
			convey.So(cfg.RescoreQueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.RescoreWorkers, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.NarrativeTimeout(), convey.ShouldEqual, 30*time.Second)
			convey.So(cfg.NarrativeCacheTTL(), convey.ShouldEqual, time.Hour)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then default models follow the provider", func() {
			cfg.NarrativeProvider = config.ProviderGemini
			convey.So(cfg.DefaultModel(), convey.ShouldEqual, "gemini-2.0-flash")
			cfg.NarrativeModel = "custom"
			convey.So(cfg.DefaultModel(), convey.ShouldEqual, "custom")
		})

		convey.Convey("Then allowed origins are split and trimmed", func() {
			cfg.CORSOrigins = "https://a.example, https://b.example ,"
			convey.So(cfg.AllowedOrigins(), convey.ShouldResemble, []string{"https://a.example", "https://b.example"})
		})
	})
}
