// Package config assembles the bot configuration from defaults, an optional YAML
// file, the environment and command-line overrides, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Session store backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Config is the complete runtime configuration.
type Config struct {
	Token             string        `mapstructure:"token"`
	CredentialsBase64 string        `mapstructure:"google_credentials_base64"`
	CredentialsFile   string        `mapstructure:"google_credentials_file"`
	SheetName         string        `mapstructure:"google_sheet_name"`
	SheetID           string        `mapstructure:"google_sheet_id"`
	Timezone          string        `mapstructure:"timezone"`
	SessionStore      string        `mapstructure:"session_store"`
	RedisURL          string        `mapstructure:"redis_url"`
	SessionTTL        time.Duration `mapstructure:"session_ttl"`
	SessionDir        string        `mapstructure:"session_dir"`
	EncryptionKey     string        `mapstructure:"session_encryption_key"`
	FallbackKeys      []string      `mapstructure:"session_encryption_fallback_keys"`
	Workers           int           `mapstructure:"workers"`
	AdminAddr         string        `mapstructure:"admin_addr"`
	LogLevel          string        `mapstructure:"log_level"`
	LogFormat         string        `mapstructure:"log_format"`
	MessagesFile      string        `mapstructure:"messages_file"`
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() map[string]any {
	return map[string]any{
		"google_credentials_file": "finance-bot-keys.json",
		"google_sheet_name":       "MY_Dvag",
		"timezone":                "CET",
		"session_store":           StoreMemory,
		"session_ttl":             "24h",
		"session_dir":             ".intake/sessions",
		"workers":                 8,
		"admin_addr":              ":2112",
		"log_level":               "info",
		"log_format":              "text",
	}
}

// envKeys maps environment variables to configuration keys.
// Later entries win when several variables map to the same key.
var envKeys = []struct {
	env string
	key string
}{
	{"TELEGRAM_BOT_TOKEN", "token"},
	{"TOKEN", "token"},
	{"GOOGLE_CREDENTIALS_BASE64", "google_credentials_base64"},
	{"GOOGLE_CREDENTIALS_FILE", "google_credentials_file"},
	{"GOOGLE_SHEET_NAME", "google_sheet_name"},
	{"GOOGLE_SHEET_ID", "google_sheet_id"},
	{"TIMEZONE", "timezone"},
	{"SESSION_STORE", "session_store"},
	{"REDIS_URL", "redis_url"},
	{"SESSION_TTL", "session_ttl"},
	{"SESSION_DIR", "session_dir"},
	{"SESSION_ENCRYPTION_KEY", "session_encryption_key"},
	{"SESSION_ENCRYPTION_FALLBACK_KEYS", "session_encryption_fallback_keys"},
	{"WORKERS", "workers"},
	{"ADMIN_ADDR", "admin_addr"},
	{"LOG_LEVEL", "log_level"},
	{"LOG_FORMAT", "log_format"},
	{"MESSAGES_FILE", "messages_file"},
}

// Source describes where Load reads from.
type Source struct {
	// File is an optional YAML file. Empty skips it.
	File string
	// Lookup reads the environment. Nil uses os.LookupEnv.
	Lookup func(string) (string, bool)
	// Overrides are applied last (command-line flags).
	Overrides map[string]any
}

// LoadDotEnv loads .env style files into the process environment without
// overriding variables that are already set.
func LoadDotEnv(files ...string) error {
	return godotenv.Load(files...)
}

// Load resolves the configuration.
func Load(src Source) (*Config, error) {
	lookup := src.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}

	merged := Defaults()

	if src.File != "" {
		fromFile, err := readFile(src.File)
		if err != nil {
			return nil, err
		}
		for k, v := range fromFile {
			merged[strings.ToLower(k)] = v
		}
	}

	for _, e := range envKeys {
		if v, ok := lookup(e.env); ok {
			merged[e.key] = v
		}
	}

	for k, v := range src.Overrides {
		merged[k] = v
	}

	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           cfg,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(merged); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	var errs []error
	switch c.SessionStore {
	case StoreMemory:
	case StoreFile:
		if c.SessionDir == "" {
			errs = append(errs, errors.New("session_store=file requires session_dir"))
		}
	case StoreRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("session_store=redis requires redis_url"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown session_store %q (want %s, %s or %s)", c.SessionStore, StoreMemory, StoreFile, StoreRedis))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	if len(c.FallbackKeys) > 0 && c.EncryptionKey == "" {
		errs = append(errs, errors.New("session_encryption_fallback_keys require session_encryption_key"))
	}
	if c.SessionTTL < 0 {
		errs = append(errs, fmt.Errorf("session_ttl must not be negative, got %s", c.SessionTTL))
	}
	return errors.Join(errs...)
}

func readFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	out := map[string]any{}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return out, nil
}
