package config

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv  = "DOCKETWATCH_CONFIG"
	dotenvPathEnv  = "DOCKETWATCH_DOTENV"
	defaultDotenv  = ".env"
	defaultService = "docketwatch"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Server        ServerConfig       `yaml:"server"`
	Storage       StorageConfig      `yaml:"storage"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Ingestion     IngestionConfig    `yaml:"ingestion"`
	ECFS          ECFSConfig         `yaml:"ecfs"`
	Summarizer    SummarizerConfig   `yaml:"summarizer"`
	Admin         AdminConfig        `yaml:"admin"`
	Telemetry     TelemetryConfig    `yaml:"telemetry"`
	Notifications NotificationConfig `yaml:"notifications"`
	Seed          SeedConfig         `yaml:"seed"`
}

// LoggingConfig selects slog level and handler format.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// ServerConfig configures the HTTP trigger surface.
type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"HTTP_ADDR"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" env:"HTTP_SHUTDOWN_TIMEOUT"`
}

// StorageConfig picks the docket store implementation.
// Driver is one of memory, sqlite, postgres, mysql.
type StorageConfig struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER"`
	DSN    string `yaml:"dsn" env:"DATABASE_DSN"`
}

// SchedulerConfig defines how often the sweep runs.
type SchedulerConfig struct {
	Enabled  bool          `yaml:"enabled" env:"SCHEDULER_ENABLED"`
	Interval time.Duration `yaml:"interval" env:"SCHEDULER_INTERVAL"`
}

// IngestionConfig holds pacing and deadline settings for one run.
type IngestionConfig struct {
	FilingDelay time.Duration `yaml:"filingDelay" env:"INGESTION_FILING_DELAY"`
	DocketDelay time.Duration `yaml:"docketDelay" env:"INGESTION_DOCKET_DELAY"`
	RunTimeout  time.Duration `yaml:"runTimeout" env:"INGESTION_RUN_TIMEOUT"`
}

// ECFSConfig describes the FCC Electronic Comment Filing System endpoints.
type ECFSConfig struct {
	BaseURL         string        `yaml:"baseUrl" env:"FCC_API_BASE_URL"`
	DownloadBaseURL string        `yaml:"downloadBaseUrl"`
	FilingBaseURL   string        `yaml:"filingBaseUrl"`
	APIKey          string        `yaml:"apiKey" env:"FCC_API_KEY"`
	PageSize        int           `yaml:"pageSize"`
	Timeout         time.Duration `yaml:"timeout"`
}

// SummarizerConfig selects the document summarization backend.
// Provider is one of gemini, openai, none.
type SummarizerConfig struct {
	Provider       string        `yaml:"provider" env:"SUMMARIZER_PROVIDER"`
	MaxDocuments   int           `yaml:"maxDocuments"`
	AttemptTimeout time.Duration `yaml:"attemptTimeout"`
	Gemini         GeminiConfig  `yaml:"gemini"`
	ChatGPT        ChatGPTConfig `yaml:"chatgpt"`
}

// GeminiConfig defines how to contact the Gemini generateContent API.
type GeminiConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model" env:"GEMINI_MODEL"`
	APIKey   string `yaml:"apiKey" env:"GEMINI_API_KEY"`
}

// ChatGPTConfig defines how to contact an OpenAI-compatible chat API.
type ChatGPTConfig struct {
	Endpoint     string `yaml:"endpoint"`
	Model        string `yaml:"model" env:"CHATGPT_MODEL"`
	APIKey       string `yaml:"apiKey" env:"CHATGPT_API_KEY"`
	SystemPrompt string `yaml:"systemPrompt"`
}

// AdminConfig protects administrative endpoints and bounds watch counts.
type AdminConfig struct {
	JWTSecret      string `yaml:"jwtSecret" env:"ADMIN_JWT_SECRET"`
	FreeWatchLimit int    `yaml:"freeWatchLimit"`
}

// TelemetryConfig enables OTLP trace export when Endpoint is set.
type TelemetryConfig struct {
	Endpoint    string `yaml:"endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName string `yaml:"serviceName" env:"OTEL_SERVICE_NAME"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken" env:"TELEGRAM_BOT_TOKEN"`
	ChatID   string `yaml:"chatId" env:"TELEGRAM_CHAT_ID"`
}

// SeedConfig points at a CSV of dockets to watch on startup.
type SeedConfig struct {
	Path       string `yaml:"path" env:"SEED_PATH"`
	Subscriber string `yaml:"subscriber"`
}

// Load reads .env and YAML configuration (if present) and applies environment overrides.
func Load() Config {
	loadDotenv()

	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else if fileCfg, err := Parse(raw, cfg); err != nil {
			log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
		} else {
			cfg = fileCfg
		}
	}

	if err := env.Parse(&cfg); err != nil {
		log.Printf("config: cannot apply environment overrides: %v", err)
	}

	cfg.fillZeroValues()
	return cfg
}

// Parse decodes YAML over base so that absent keys keep base values.
func Parse(raw []byte, base Config) (Config, error) {
	cfg := base
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return base, err
	}
	cfg.fillZeroValues()
	return cfg, nil
}

func loadDotenv() {
	path := os.Getenv(dotenvPathEnv)
	if path == "" {
		path = defaultDotenv
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("config: cannot load %s: %v", path, err)
	}
}

func (c *Config) fillZeroValues() {
	def := defaultConfig()

	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	if c.Storage.Driver == "" {
		c.Storage.Driver = def.Storage.Driver
	}
	if c.Storage.DSN == "" && c.Storage.Driver == def.Storage.Driver {
		c.Storage.DSN = def.Storage.DSN
	}
	if c.Server.Addr == "" {
		c.Server.Addr = def.Server.Addr
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = def.Server.ShutdownTimeout
	}
	if c.Scheduler.Interval <= 0 {
		c.Scheduler.Interval = def.Scheduler.Interval
	}
	if c.Ingestion.FilingDelay < 0 {
		c.Ingestion.FilingDelay = 0
	}
	if c.Ingestion.DocketDelay < 0 {
		c.Ingestion.DocketDelay = 0
	}
	if c.ECFS.BaseURL == "" {
		c.ECFS.BaseURL = def.ECFS.BaseURL
	}
	if c.ECFS.DownloadBaseURL == "" {
		c.ECFS.DownloadBaseURL = def.ECFS.DownloadBaseURL
	}
	if c.ECFS.FilingBaseURL == "" {
		c.ECFS.FilingBaseURL = def.ECFS.FilingBaseURL
	}
	if c.ECFS.PageSize <= 0 || c.ECFS.PageSize > def.ECFS.PageSize {
		c.ECFS.PageSize = def.ECFS.PageSize
	}
	if c.ECFS.Timeout <= 0 {
		c.ECFS.Timeout = def.ECFS.Timeout
	}
	c.Summarizer.Provider = strings.ToLower(strings.TrimSpace(c.Summarizer.Provider))
	if c.Summarizer.Provider == "" {
		c.Summarizer.Provider = def.Summarizer.Provider
	}
	if c.Summarizer.MaxDocuments <= 0 || c.Summarizer.MaxDocuments > def.Summarizer.MaxDocuments {
		c.Summarizer.MaxDocuments = def.Summarizer.MaxDocuments
	}
	if c.Summarizer.AttemptTimeout <= 0 {
		c.Summarizer.AttemptTimeout = def.Summarizer.AttemptTimeout
	}
	if c.Summarizer.Gemini.Endpoint == "" {
		c.Summarizer.Gemini.Endpoint = def.Summarizer.Gemini.Endpoint
	}
	if c.Summarizer.Gemini.Model == "" {
		c.Summarizer.Gemini.Model = def.Summarizer.Gemini.Model
	}
	if c.Summarizer.ChatGPT.Endpoint == "" {
		c.Summarizer.ChatGPT.Endpoint = def.Summarizer.ChatGPT.Endpoint
	}
	if c.Summarizer.ChatGPT.Model == "" {
		c.Summarizer.ChatGPT.Model = def.Summarizer.ChatGPT.Model
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = defaultService
	}
	if c.Seed.Subscriber == "" {
		c.Seed.Subscriber = def.Seed.Subscriber
	}
}

func defaultConfig() Config {
	return Config{
		Logging:   LoggingConfig{Level: "info", Format: "text"},
		Server:    ServerConfig{Addr: ":8080", ShutdownTimeout: 5 * time.Second},
		Storage:   StorageConfig{Driver: "sqlite", DSN: "data/docketwatch.db"},
		Scheduler: SchedulerConfig{Enabled: true, Interval: 15 * time.Minute},
		Ingestion: IngestionConfig{
			FilingDelay: time.Second,
			DocketDelay: 2 * time.Second,
			RunTimeout:  2 * time.Hour,
		},
		ECFS: ECFSConfig{
			BaseURL:         "https://publicapi.fcc.gov/ecfs",
			DownloadBaseURL: "https://ecfs.fcc.gov/api",
			FilingBaseURL:   "https://www.fcc.gov/ecfs/filing",
			PageSize:        250,
			Timeout:         20 * time.Second,
		},
		Summarizer: SummarizerConfig{
			Provider:       "gemini",
			MaxDocuments:   2,
			AttemptTimeout: 30 * time.Second,
			Gemini: GeminiConfig{
				Endpoint: "https://generativelanguage.googleapis.com/v1beta/models",
				Model:    "gemini-1.5-flash",
			},
			ChatGPT: ChatGPTConfig{
				Endpoint:     "https://api.openai.com/v1/chat/completions",
				Model:        "gpt-4o-mini",
				SystemPrompt: "You summarize FCC regulatory filings for non-specialist readers.",
			},
		},
		Admin:     AdminConfig{FreeWatchLimit: 1},
		Telemetry: TelemetryConfig{ServiceName: defaultService},
		Seed:      SeedConfig{Subscriber: "system"},
	}
}
