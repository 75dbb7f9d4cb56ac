package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/boddenberg/bpo-leadgen-bfa/internal/config"

	"github.com/smartystreets/goconvey/convey"
)

var configEnvKeys = []string{
	config.FileEnv, "PORT", "LOG_LEVEL", "LLM_RETRY_BACKOFF", "CORS_ALLOWED_ORIGINS",
	"SUPABASE_URL", "SUPABASE_ANON_KEY", "SUPABASE_SERVICE_ROLE_KEY", "DATABASE_URL",
	"RATE_REFRESH_SPEC", "CACHE_TTL", "LLM_RATE_LIMIT", "TRACKING_SESSION_MAX_AGE",
}

func clearConfigEnvVars() {
	for _, k := range configEnvKeys {
		_ = os.Unsetenv(k)
	}
}

func setEnv(kv map[string]string) {
	for k, v := range kv {
		_ = os.Setenv(k, v)
	}
}

func TestLoad(t *testing.T) {
	convey.Convey("Given the config loader", t, func() {
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When nothing is set", func() {
			cfg, err := config.Load()

			convey.Convey("Then the defaults apply", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Port, convey.ShouldEqual, 8080)
				convey.So(cfg.CacheTTL, convey.ShouldEqual, time.Hour)
				convey.So(cfg.LLMRetryBackoff, convey.ShouldEqual, 2*time.Second)
				convey.So(cfg.CORSAllowedOrigins, convey.ShouldResemble, []string{"*"})
				convey.So(cfg.UseSupabase(), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When environment variables are set", func() {
			setEnv(map[string]string{
				"PORT":                 "9090",
				"LLM_RETRY_BACKOFF":    "500ms",
				"CORS_ALLOWED_ORIGINS": "https://a.example,https://b.example",
				"SUPABASE_URL":         "https://x.supabase.co",
				"SUPABASE_ANON_KEY":    "anon",
			})

			cfg, err := config.Load()

			convey.Convey("Then they override the defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Port, convey.ShouldEqual, 9090)
				convey.So(cfg.LLMRetryBackoff, convey.ShouldEqual, 500*time.Millisecond)
				convey.So(cfg.CORSAllowedOrigins, convey.ShouldResemble, []string{"https://a.example", "https://b.example"})
				convey.So(cfg.UseSupabase(), convey.ShouldBeTrue)
				convey.So(cfg.SupabaseKey(), convey.ShouldEqual, "anon")
				convey.So(cfg.SupabaseAPIKey(), convey.ShouldEqual, "anon")
			})
		})

		convey.Convey("When a YAML file is given", func() {
			path := filepath.Join(t.TempDir(), "bfa.yaml")
			data := "port: 7070\nrate_refresh_spec: \"@every 30m\"\nlog_level: debug\n"
			convey.So(os.WriteFile(path, []byte(data), 0o600), convey.ShouldBeNil)
			setEnv(map[string]string{config.FileEnv: path, "LOG_LEVEL": "warn"})

			cfg, err := config.Load()

			convey.Convey("Then env still wins over the file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Port, convey.ShouldEqual, 7070)
				convey.So(cfg.RateRefreshSpec, convey.ShouldEqual, "@every 30m")
				convey.So(cfg.LogLevel, convey.ShouldEqual, "warn")
			})
		})

		convey.Convey("When values are invalid", func() {
			setEnv(map[string]string{"PORT": "70000", "SUPABASE_URL": "https://x.supabase.co"})

			_, err := config.Load()

			convey.Convey("Then every problem is reported", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "port 70000")
				convey.So(err.Error(), convey.ShouldContainSubstring, "supabase_url")
			})
		})
	})
}

func TestLoadDotEnv(t *testing.T) {
	convey.Convey("Given a .env file", t, func() {
		path := filepath.Join(t.TempDir(), ".env")
		data := "# local\nBFA_TEST_A=one\nexport BFA_TEST_B=\"two\"\nBFA_TEST_C=file\nnot a pair\n"
		convey.So(os.WriteFile(path, []byte(data), 0o600), convey.ShouldBeNil)
		t.Setenv("BFA_TEST_C", "env")

		err := config.LoadDotEnv(path)
		t.Cleanup(func() {
			_ = os.Unsetenv("BFA_TEST_A")
			_ = os.Unsetenv("BFA_TEST_B")
		})

		convey.So(err, convey.ShouldBeNil)
		convey.So(os.Getenv("BFA_TEST_A"), convey.ShouldEqual, "one")
		convey.So(os.Getenv("BFA_TEST_B"), convey.ShouldEqual, "two")
		convey.So(os.Getenv("BFA_TEST_C"), convey.ShouldEqual, "env")
	})

	convey.Convey("A missing file is an error the caller may ignore", t, func() {
		convey.So(config.LoadDotEnv(filepath.Join(t.TempDir(), "absent")), convey.ShouldNotBeNil)
	})
}
