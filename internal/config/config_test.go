package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestParseKeepsDefaultsForAbsentKeys(t *testing.T) {
	t.Parallel()

	raw := []byte(`
storage:
  driver: MySQL
  dsn: "user:pass@tcp(localhost:3306)/docketwatch"
ingestion:
  filingDelay: 250ms
ecfs:
  pageSize: 1000
summarizer:
  provider: " OpenAI "
  maxDocuments: 5
`)
	cfg, err := Parse(raw, defaultConfig())
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	if cfg.Storage.Driver != "mysql" {
		t.Fatalf("driver not normalized: %q", cfg.Storage.Driver)
	}
	if cfg.Ingestion.FilingDelay != 250*time.Millisecond {
		t.Fatalf("filing delay %v", cfg.Ingestion.FilingDelay)
	}
	if cfg.Ingestion.DocketDelay != 2*time.Second {
		t.Fatalf("docket delay should keep default, got %v", cfg.Ingestion.DocketDelay)
	}
	if cfg.ECFS.PageSize != 250 {
		t.Fatalf("page size must be capped at 250, got %d", cfg.ECFS.PageSize)
	}
	if cfg.Summarizer.Provider != "openai" {
		t.Fatalf("provider not normalized: %q", cfg.Summarizer.Provider)
	}
	if cfg.Summarizer.MaxDocuments != 2 || cfg.Summarizer.AttemptTimeout != 30*time.Second {
		t.Fatalf("summarizer must cap documents at 2 and keep defaults: %+v", cfg.Summarizer)
	}
	if cfg.Admin.FreeWatchLimit != 1 {
		t.Fatalf("watch limit default lost: %d", cfg.Admin.FreeWatchLimit)
	}
}

func TestParseInvalidYAMLReturnsBase(t *testing.T) {
	t.Parallel()

	base := defaultConfig()
	cfg, err := Parse([]byte("storage: [unterminated"), base)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if cfg.Storage.Driver != base.Storage.Driver {
		t.Fatalf("expected base config back, got %+v", cfg.Storage)
	}
}

func TestLoadAppliesFileThenEnvironment(t *testing.T) {
	path := writeFile(t, "config.yaml", `
server:
  addr: ":9090"
storage:
  driver: sqlite
  dsn: /tmp/from-file.db
scheduler:
  interval: 5m
`)
	t.Setenv(configPathEnv, path)
	t.Setenv(dotenvPathEnv, filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("DATABASE_DSN", "postgres://localhost/docketwatch?sslmode=disable")

	cfg := Load()

	if cfg.Server.Addr != ":9090" {
		t.Fatalf("addr from file lost: %q", cfg.Server.Addr)
	}
	if cfg.Scheduler.Interval != 5*time.Minute {
		t.Fatalf("interval from file lost: %v", cfg.Scheduler.Interval)
	}
	if cfg.Storage.Driver != "postgres" || cfg.Storage.DSN != "postgres://localhost/docketwatch?sslmode=disable" {
		t.Fatalf("environment did not override storage: %+v", cfg.Storage)
	}
}

func TestLoadReadsDotenv(t *testing.T) {
	const key = "TELEGRAM_CHAT_ID"
	if _, ok := os.LookupEnv(key); ok {
		t.Skipf("%s already set in the environment", key)
	}
	t.Cleanup(func() { _ = os.Unsetenv(key) })

	t.Setenv(configPathEnv, "")
	t.Setenv(dotenvPathEnv, writeFile(t, ".env", key+"=-100123\n"))

	cfg := Load()
	if cfg.Notifications.Telegram.ChatID != "-100123" {
		t.Fatalf("dotenv value not applied: %q", cfg.Notifications.Telegram.ChatID)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(dotenvPathEnv, filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("DATABASE_DSN", "")

	cfg := Load()
	if cfg.Storage.Driver != "sqlite" || cfg.Storage.DSN != "data/docketwatch.db" {
		t.Fatalf("unexpected storage defaults %+v", cfg.Storage)
	}
	if cfg.ECFS.BaseURL != "https://publicapi.fcc.gov/ecfs" {
		t.Fatalf("unexpected ecfs base %q", cfg.ECFS.BaseURL)
	}
	if cfg.Telemetry.ServiceName != "docketwatch" {
		t.Fatalf("unexpected service name %q", cfg.Telemetry.ServiceName)
	}
}
