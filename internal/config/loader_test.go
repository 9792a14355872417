package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/bookability/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	"BOOKABILITY_CONFIG",
	"BOOKABILITY_ADDR",
	"BOOKABILITY_QUEUE_SIZE",
	"BOOKABILITY_WORKER_COUNT",
	"BOOKABILITY_LOG_FORMAT",
	"BOOKABILITY_INGEST_RATE_PER_SEC",
	"BOOKABILITY_HISTORY_DSN",
	"BOOKABILITY_MAX_LEADERBOARD_LIMIT",
}

func clearConfigEnvVars() {
	for _, k := range configEnvVars {
		_ = os.Unsetenv(k)
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bookability.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		convey.Reset(clearConfigEnvVars)

		convey.Convey("When loading with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then the defaults are returned", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 100_000)
			})
		})

		convey.Convey("When loading with environment variables", func() {
			_ = os.Setenv("BOOKABILITY_ADDR", ":8080")
			_ = os.Setenv("BOOKABILITY_QUEUE_SIZE", "5000")
			_ = os.Setenv("BOOKABILITY_WORKER_COUNT", "16")
			_ = os.Setenv("BOOKABILITY_LOG_FORMAT", "JSON")
			_ = os.Setenv("BOOKABILITY_INGEST_RATE_PER_SEC", "2.5")
			_ = os.Setenv("BOOKABILITY_HISTORY_DSN", "/tmp/history.db")

			cfg, err := config.Load(ctx)

			convey.Convey("Then env vars override defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 5000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 16)
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.IngestRatePerSec, convey.ShouldEqual, 2.5)
				convey.So(cfg.HistoryDSN, convey.ShouldEqual, "/tmp/history.db")
			})
		})

		convey.Convey("When loading with a YAML file and env vars", func() {
			path := writeConfigFile(t, `
addr: ":9090"
queue_size: 300000
worker_count: 24
top_cache_size: 50
snapshot_interval_ms: 250
`)
			_ = os.Setenv("BOOKABILITY_CONFIG", path)
			_ = os.Setenv("BOOKABILITY_WORKER_COUNT", "32")

			cfg, err := config.Load(ctx)

			convey.Convey("Then env beats file and file beats defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 300000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 32)
				convey.So(cfg.TopCacheSize, convey.ShouldEqual, 50)
				convey.So(cfg.SnapshotInterval().Milliseconds(), convey.ShouldEqual, int64(250))
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 500_000)
			})
		})

		convey.Convey("When the config file does not exist", func() {
			_ = os.Setenv("BOOKABILITY_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

			_, err := config.Load(ctx)

			convey.Convey("Then ErrLoadConfig is returned", func() {
				convey.So(err, convey.ShouldWrap, config.ErrLoadConfig)
			})
		})

		convey.Convey("When the loaded values are invalid", func() {
			_ = os.Setenv("BOOKABILITY_MAX_LEADERBOARD_LIMIT", "0")

			_, err := config.Load(ctx)

			convey.Convey("Then ErrInvalidConfig is returned", func() {
				convey.So(err, convey.ShouldWrap, config.ErrInvalidConfig)
			})
		})
	})
}
