package config_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/internal/config"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldResemble, config.New())
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("CIDER_ADDR", ":8080")
			_ = os.Setenv("CIDER_QUEUE_SIZE", "0")
			_ = os.Setenv("CIDER_YIELD_EVERY", "25")
			_ = os.Setenv("CIDER_DEDUPE_SIZE", "1000")
			_ = os.Setenv("CIDER_LOG_FORMAT", "json")
			_ = os.Setenv("CIDER_SEED_PATH", "/var/lib/cider/seed.yaml")
			_ = os.Setenv("CIDER_METRICS_NAMESPACE", "orchard")
			_ = os.Setenv("CIDER_METRICS_ENABLED", "false")
			_ = os.Setenv("CIDER_METRICS_REFRESH_MS", "2500")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 0)
				convey.So(cfg.YieldEvery, convey.ShouldEqual, 25)
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 1000)
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.SeedPath, convey.ShouldEqual, "/var/lib/cider/seed.yaml")
				convey.So(cfg.DrainTimeoutMS, convey.ShouldEqual, 30_000)
				convey.So(cfg.MetricsNamespace, convey.ShouldEqual, "orchard")
				convey.So(cfg.MetricsEnabled, convey.ShouldBeFalse)
				convey.So(cfg.MetricsRefresh(), convey.ShouldEqual, 2500*time.Millisecond)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
# engine tuning
addr: ":9090"
queue_size: 5000
yield_every: 50
drain_timeout_ms: 1500
diagnostics_size: 32
log_level: debug
metrics_subsystem: engine
metrics_labels:
  region: west
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("CIDER_CONFIG", tmpFile)
			_ = os.Setenv("CIDER_ADDR", ":8080")
			_ = os.Setenv("CIDER_YIELD_EVERY", "5")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.YieldEvery, convey.ShouldEqual, 5)
				convey.So(cfg.QueueSize, convey.ShouldEqual, 5000)
				convey.So(cfg.DrainTimeoutMS, convey.ShouldEqual, 1500)
				convey.So(cfg.DiagnosticsSize, convey.ShouldEqual, 32)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)
				convey.So(cfg.MetricsSubsystem, convey.ShouldEqual, "engine")
				convey.So(cfg.MetricsLabels, convey.ShouldResemble, map[string]string{"region": "west"})
				convey.So(cfg.MetricsEnabled, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("CIDER_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("CIDER_CONFIG", "/non/existent/cider.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestConfigLoaderValidation(t *testing.T) {
	convey.Convey("Given settings that cannot be used", t, func() {
		ctx := context.Background()
		cases := map[string]string{
			"CIDER_QUEUE_SIZE":       "-1",
			"CIDER_YIELD_EVERY":      "0",
			"CIDER_DRAIN_TIMEOUT_MS": "0",
			"CIDER_DIAGNOSTICS_SIZE": "0",
			"CIDER_LOG_FORMAT":       "xml",
			"CIDER_LOG_LEVEL":        "chatty",
		}

		for key, value := range cases {
			clearConfigEnvVars()
			_ = os.Setenv(key, value)

			cfg, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(cfg, convey.ShouldBeNil)
		}
		clearConfigEnvVars()
	})

	convey.Convey("Given a YAML file with an empty addr", t, func() {
		tmpFile := createTempConfigFile("addr: \"\"\nqueue_size: 10\n")
		defer func() { _ = os.Remove(tmpFile) }()
		_ = os.Setenv("CIDER_CONFIG", tmpFile)
		defer clearConfigEnvVars()

		cfg, err := config.Load(context.Background())

		convey.So(err, convey.ShouldNotBeNil)
		convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
		convey.So(cfg, convey.ShouldBeNil)
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"CIDER_CONFIG",
		"CIDER_ADDR",
		"CIDER_LOG_LEVEL",
		"CIDER_LOG_FORMAT",
		"CIDER_QUEUE_SIZE",
		"CIDER_YIELD_EVERY",
		"CIDER_DEDUPE_SIZE",
		"CIDER_SEED_PATH",
		"CIDER_DRAIN_TIMEOUT_MS",
		"CIDER_DIAGNOSTICS_SIZE",
		"CIDER_METRICS_NAMESPACE",
		"CIDER_METRICS_ENABLED",
		"CIDER_METRICS_REFRESH_MS",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "cider-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
