package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

const (
	DefaultConfigPath   = "config.toml"
	DefaultHTTPAddr     = ":8080"
	DefaultPGHost       = "127.0.0.1"
	DefaultPGPort       = 5432
	DefaultPGUser       = "postgres"
	DefaultPGDatabase   = "gallbot"
	DefaultPGSSLMode    = "disable"
	DefaultSyncSchedule = "@every 1h"
)

// Default burst-window timings. Discord delivers multi-file uploads as a
// rapid run of messages; one second between them is generous.
const (
	DefaultBurstExtend = time.Second
	DefaultBurstTotal  = 2500 * time.Millisecond
)

type Config struct {
	Log      LogConfig      `toml:"log"`
	Server   ServerConfig   `toml:"server"`
	Discord  DiscordConfig  `toml:"discord"`
	Gall     GallConfig     `toml:"gall"`
	Postgres PostgresConfig `toml:"postgres"`
	Burst    BurstConfig    `toml:"burst"`
	Sync     SyncConfig     `toml:"sync"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type DiscordConfig struct {
	BotToken string `toml:"bot_token" validate:"required"`
	OwnerID  string `toml:"owner_id"`
}

type GallConfig struct {
	// BaseURL is the site root (e.g. https://gall.example/). The API lives
	// under BaseURL + "api" and gallery pages under BaseURL + "gallery/".
	BaseURL string `toml:"base_url" validate:"required,url"`
	Token   string `toml:"token" validate:"required"`
}

type PostgresConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	SSLMode  string `toml:"sslmode"`
}

type BurstConfig struct {
	ExtendMillis int `toml:"extend_ms"`
	TotalMillis  int `toml:"total_ms"`
}

// Extend returns the per-message window extension.
func (b BurstConfig) Extend() time.Duration {
	if b.ExtendMillis <= 0 {
		return DefaultBurstExtend
	}
	return time.Duration(b.ExtendMillis) * time.Millisecond
}

// Total returns the overall collection cap.
func (b BurstConfig) Total() time.Duration {
	if b.TotalMillis <= 0 {
		return DefaultBurstTotal
	}
	return time.Duration(b.TotalMillis) * time.Millisecond
}

type SyncConfig struct {
	// Schedule is a cron expression for the periodic guild/emoji re-sync.
	// Empty disables the job; the ready-time sync still runs.
	Schedule string `toml:"schedule"`
}

func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		Postgres: PostgresConfig{
			Host:     DefaultPGHost,
			Port:     DefaultPGPort,
			User:     DefaultPGUser,
			Database: DefaultPGDatabase,
			SSLMode:  DefaultPGSSLMode,
		},
		Sync: SyncConfig{
			Schedule: DefaultSyncSchedule,
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return cfg, err
		}
	} else if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv lets secrets come from the environment instead of the config file.
func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("BOT_TOKEN")); v != "" {
		cfg.Discord.BotToken = v
	}
	if v := strings.TrimSpace(os.Getenv("OWNER_ID")); v != "" {
		cfg.Discord.OwnerID = v
	}
	if v := strings.TrimSpace(os.Getenv("GALL_URL")); v != "" {
		cfg.Gall.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("GALL_TOKEN")); v != "" {
		cfg.Gall.Token = v
	}
	if v := strings.TrimSpace(os.Getenv("PG_PASSWORD")); v != "" {
		cfg.Postgres.Password = v
	}
}

// Validate checks the loaded configuration for required fields.
func (c Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
