package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AdminConfig struct {
	Port      int    `yaml:"port"`
	APIKey    string `yaml:"api_key"`
	JWTSecret string `yaml:"jwt_secret"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	// TTL bounds session records in redis. 0 means no expiry; sessions
	// persist across runs and the sweeper ages them out instead.
	TTL time.Duration `yaml:"ttl"`
}

type SourceConfig struct {
	BaseURL     string `yaml:"base_url"`
	AccessToken string `yaml:"access_token"`
}

// DestinationConfig describes the marketplace we write into through its UI.
// Selectors live in the site adapter; only entry URLs are configuration.
type DestinationConfig struct {
	LoginURL      string          `yaml:"login_url"`
	CreateFormURL string          `yaml:"create_form_url"`
	Accounts      []AccountConfig `yaml:"accounts"`
}

// AccountConfig is one destination login the background worker may use.
// Batches reference accounts by key; secrets stay in the config file.
type AccountConfig struct {
	Key      string `yaml:"key"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

type BrowserConfig struct {
	RemoteURL   string        `yaml:"remote_url"` // attach to a running Chrome when set
	Headless    bool          `yaml:"headless"`
	NoSandbox   bool          `yaml:"no_sandbox"` // required for Docker/root
	StepTimeout time.Duration `yaml:"step_timeout"`
	SettleDelay time.Duration `yaml:"settle_delay"` // inter-field delay the destination UI needs
}

type WebhookConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type MigrationConfig struct {
	Concurrency  int           `yaml:"concurrency"`   // units in flight per batch window
	BatchDelay   time.Duration `yaml:"batch_delay"`   // pause between windows
	MaxAttempts  int           `yaml:"max_attempts"`  // per unit
	RetryDelay   time.Duration `yaml:"retry_delay"`   // base inter-attempt delay
	UnitDeadline time.Duration `yaml:"unit_deadline"` // 0 = no per-unit wall clock cap
	Workers      int           `yaml:"workers"`       // background batch workers
}

type SchedulerConfig struct {
	ReconcileInterval time.Duration `yaml:"reconcile_interval"`
	StuckUnitAfter    time.Duration `yaml:"stuck_unit_after"`
	SessionMaxAge     time.Duration `yaml:"session_max_age"`
}

type NotifyConfig struct {
	TelegramToken string `yaml:"telegram_token"`
	ChatID        int64  `yaml:"chat_id"`
}

type Config struct {
	Log         LogConfig         `yaml:"log"`
	Admin       AdminConfig       `yaml:"admin"`
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	Source      SourceConfig      `yaml:"source"`
	Destination DestinationConfig `yaml:"destination"`
	Browser     BrowserConfig     `yaml:"browser"`
	Webhook     WebhookConfig     `yaml:"webhook"`
	Migration   MigrationConfig   `yaml:"migration"`
	Scheduler   SchedulerConfig   `yaml:"scheduler"`
	Notify      NotifyConfig      `yaml:"notify"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Migration.Concurrency <= 0 {
		cfg.Migration.Concurrency = 3
	}
	if cfg.Migration.BatchDelay <= 0 {
		cfg.Migration.BatchDelay = time.Second
	}
	if cfg.Migration.MaxAttempts <= 0 {
		cfg.Migration.MaxAttempts = 3
	}
	if cfg.Migration.RetryDelay <= 0 {
		cfg.Migration.RetryDelay = 5 * time.Second
	}
	if cfg.Migration.Workers <= 0 {
		cfg.Migration.Workers = 2
	}
	if cfg.Browser.StepTimeout <= 0 {
		cfg.Browser.StepTimeout = 30 * time.Second
	}
	if cfg.Browser.SettleDelay <= 0 {
		cfg.Browser.SettleDelay = 500 * time.Millisecond
	}
	if cfg.Webhook.Timeout <= 0 {
		cfg.Webhook.Timeout = 20 * time.Second
	}
	if cfg.Scheduler.ReconcileInterval <= 0 {
		cfg.Scheduler.ReconcileInterval = time.Minute
	}
	if cfg.Scheduler.StuckUnitAfter <= 0 {
		cfg.Scheduler.StuckUnitAfter = 15 * time.Minute
	}
	if cfg.Scheduler.SessionMaxAge <= 0 {
		cfg.Scheduler.SessionMaxAge = 30 * 24 * time.Hour
	}
	if cfg.Redis.TTL < 0 {
		cfg.Redis.TTL = 0
	}
	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Destination.LoginURL == "" {
		return nil, errors.New("destination.login_url is required")
	}
	if cfg.Destination.CreateFormURL == "" {
		return nil, errors.New("destination.create_form_url is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
