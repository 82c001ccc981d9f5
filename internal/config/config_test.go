package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/parkrank/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.KFactor, convey.ShouldEqual, 32)
			convey.So(cfg.Store, convey.ShouldEqual, config.StoreMemory)
			convey.So(cfg.VoteQueueSize, convey.ShouldEqual, 1024)
			convey.So(cfg.VoteTimeout, convey.ShouldEqual, 5*time.Second)
			convey.So(cfg.RecentVotesDefault, convey.ShouldEqual, 10)
			convey.So(cfg.SeedOnStart, convey.ShouldBeTrue)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New()

		convey.Convey("When postgres is selected without a URL", func() {
			cfg.Store = config.StorePostgres
			err := cfg.Validate()

			convey.Convey("Then validation names the missing field", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "DatabaseURL")
			})
		})

		convey.Convey("When the recent-votes cap is below the default", func() {
			cfg.RecentVotesMax = 5
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the K-factor is not positive", func() {
			cfg.KFactor = 0
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the store is unknown", func() {
			cfg.Store = "redis"
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}
