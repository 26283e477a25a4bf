// Package config loads application configuration from an optional YAML file,
// a .env file and environment variables, in ascending precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Env     string `mapstructure:"env"`      // current application environment (local, dev, prod)
	DataDir string `mapstructure:"data_dir"` // directory for the embedded SQLite database

	// DatabaseURL switches storage to PostgreSQL when set; loaded from the
	// DATABASE_URL environment variable only.
	DatabaseURL string `mapstructure:"-"`

	// Timezone resolves local day boundaries; empty means UTC.
	Timezone string `mapstructure:"timezone"`
	// WeekStartsOn is 0 for Sunday, 1 for Monday.
	WeekStartsOn int `mapstructure:"week_starts_on"`

	Schedule Schedule `mapstructure:"schedule"` // retention model tuning section
	Reminder Reminder `mapstructure:"reminder"` // reminder delivery section
}

// Schedule tunes the retention model.
type Schedule struct {
	Mode          string  `mapstructure:"mode"`           // adaptive or fixed
	ReviewTrigger float64 `mapstructure:"review_trigger"` // retention threshold intervals are solved for
	GrowthAlpha   float64 `mapstructure:"growth_alpha"`   // per-review stability growth factor
	LapseBeta     float64 `mapstructure:"lapse_beta"`     // stability penalty per lapse
	Intervals     []int   `mapstructure:"intervals"`      // fallback ladder for fixed-mode topics
}

// Reminder configures the daily review digest.
type Reminder struct {
	Hour int `mapstructure:"hour"` // local hour the digest is sent at

	// Telegram credentials are loaded from the environment only. Both empty
	// means the digest goes to the log.
	TelegramToken  string `mapstructure:"-"`
	TelegramChatID int64  `mapstructure:"-"`
}

// Load reads configuration from config files and environment variables.
func Load() (*Config, error) {
	// A local .env is optional; environment variables win either way.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("env", "local")
	v.SetDefault("data_dir", "data")
	v.SetDefault("timezone", "")
	v.SetDefault("week_starts_on", 1)
	v.SetDefault("schedule.mode", "adaptive")
	v.SetDefault("schedule.review_trigger", 0.7)
	v.SetDefault("schedule.growth_alpha", 0.25)
	v.SetDefault("schedule.lapse_beta", 0.15)
	v.SetDefault("schedule.intervals", []int{1, 4, 14, 30, 60})
	v.SetDefault("reminder.hour", 9)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("telegram_token", "TELEGRAM_TOKEN")
	_ = v.BindEnv("telegram_chat_id", "TELEGRAM_CHAT_ID")
	_ = v.BindEnv("env", "APP_ENV")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	cfg.DatabaseURL = v.GetString("database_url")
	cfg.Reminder.TelegramToken = v.GetString("telegram_token")
	cfg.Reminder.TelegramChatID = v.GetInt64("telegram_chat_id")

	return &cfg, nil
}
