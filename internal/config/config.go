package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files, environment variables and flags.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	BaseURL               string        `mapstructure:"base_url"`
	RequestTimeoutSeconds int64         `mapstructure:"request_timeout_seconds"`
	RequestTimeout        time.Duration `mapstructure:"-"`

	ValidEmail      string `mapstructure:"valid_email"`
	ValidPassword   string `mapstructure:"valid_password"`
	ForeignEmail    string `mapstructure:"foreign_email"`
	ForeignPassword string `mapstructure:"foreign_password"`

	FixturesFile  string `mapstructure:"fixtures_file"`
	ReportersFile string `mapstructure:"reporters_file"`

	CheckIntervalSeconds int64         `mapstructure:"check_interval_seconds"`
	CheckInterval        time.Duration `mapstructure:"-"`

	LedgerType       string        `mapstructure:"ledger_type"`
	LedgerPath       string        `mapstructure:"ledger_path"`
	LedgerTTLSeconds int64         `mapstructure:"ledger_ttl_seconds"`
	LedgerTTL        time.Duration `mapstructure:"-"`

	Tracing string `mapstructure:"tracing"`
}

// HasCredentials reports whether a primary account is configured.
func (c *Config) HasCredentials() bool {
	return c.ValidEmail != "" && c.ValidPassword != ""
}

// HasForeignCredentials reports whether a second account is configured.
func (c *Config) HasForeignCredentials() bool {
	return c.ForeignEmail != "" && c.ForeignPassword != ""
}

// flagKeys maps command line flags to config keys.
var flagKeys = map[string]string{
	"base-url":       "base_url",
	"log-level":      "log_level",
	"fixtures":       "fixtures_file",
	"reporters":      "reporters_file",
	"interval":       "check_interval_seconds",
	"ledger-type":    "ledger_type",
	"ledger-path":    "ledger_path",
	"tracing":        "tracing",
	"timeout":        "request_timeout_seconds",
	"valid-email":    "valid_email",
	"valid-password": "valid_password",
}

// RegisterFlags declares the overridable settings on fs. Unset flags leave file and env values intact.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("base-url", "", "PetFriends base URL")
	fs.String("log-level", "", "log level (debug, info, warn, error)")
	fs.String("fixtures", "", "path to the pet fixtures file")
	fs.String("reporters", "", "path to the reporters file")
	fs.Int64("interval", 0, "seconds between check passes (0 runs once)")
	fs.String("ledger-type", "", "created-pet ledger backend (bbolt, none)")
	fs.String("ledger-path", "", "bbolt ledger path")
	fs.String("tracing", "", "trace exporter (none, stdout, otlp)")
	fs.Int64("timeout", 0, "per-request timeout in seconds")
	fs.String("valid-email", "", "account email")
	fs.String("valid-password", "", "account password")
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	return LoadWithFlags(nil)
}

// LoadWithFlags is Load with overrides taken from flags registered by RegisterFlags.
func LoadWithFlags(fs *pflag.FlagSet) (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "petfriends-qa")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("base_url", "https://petfriends.skillfactory.ru")
	v.SetDefault("request_timeout_seconds", 30)
	v.SetDefault("valid_email", "")
	v.SetDefault("valid_password", "")
	v.SetDefault("foreign_email", "")
	v.SetDefault("foreign_password", "")
	v.SetDefault("fixtures_file", "./configs/fixtures.yaml")
	v.SetDefault("reporters_file", "./configs/reporters.yaml")
	v.SetDefault("check_interval_seconds", 0) // single pass
	v.SetDefault("ledger_type", "bbolt")
	v.SetDefault("ledger_path", "./data/ledger.db")
	v.SetDefault("ledger_ttl_seconds", int64((7*24*time.Hour)/time.Second))
	v.SetDefault("tracing", "none")

	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			f := fs.Lookup(name)
			if f == nil || !f.Changed {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("invalid base_url (must not be empty)")
	}

	if cfg.RequestTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid request_timeout_seconds (must be positive seconds)")
	}
	cfg.RequestTimeout = time.Duration(cfg.RequestTimeoutSeconds) * time.Second

	if cfg.CheckIntervalSeconds < 0 {
		return nil, fmt.Errorf("invalid check_interval_seconds (must not be negative)")
	}
	cfg.CheckInterval = time.Duration(cfg.CheckIntervalSeconds) * time.Second

	if cfg.LedgerTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid ledger_ttl_seconds (must be positive seconds)")
	}
	cfg.LedgerTTL = time.Duration(cfg.LedgerTTLSeconds) * time.Second

	cfg.Tracing = strings.ToLower(strings.TrimSpace(cfg.Tracing))
	switch cfg.Tracing {
	case "", "none", "stdout", "otlp":
	default:
		return nil, fmt.Errorf("invalid tracing %q (want none, stdout or otlp)", cfg.Tracing)
	}

	return &cfg, nil
}
