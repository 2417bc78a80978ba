// Package config loads cscoach settings from a YAML file, the environment
// and defaults, in that order of precedence after command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pable/cs-coach/internal/log"
	"github.com/pable/cs-coach/internal/rating"
	"github.com/pable/cs-coach/internal/window"
)

// Config is the full application configuration.
type Config struct {
	DBPath string       `mapstructure:"db_path"`
	Log    LogConfig    `mapstructure:"log"`
	Rating RatingConfig `mapstructure:"rating"`
	Coach  CoachConfig  `mapstructure:"coach"`
	Faceit FaceitConfig `mapstructure:"faceit"`
	Parse  ParseConfig  `mapstructure:"parse"`
}

type LogConfig struct {
	Level log.Level `mapstructure:"level"`
	// If set to a non-empty path, logs will also be written to the log file.
	File string `mapstructure:"file"`
}

// RatingConfig holds the detector windows.
type RatingConfig struct {
	TradeWindowTicks float64 `mapstructure:"trade_window_ticks"`
	FlashWindowTicks float64 `mapstructure:"flash_window_ticks"`
	MinBlindMS       int     `mapstructure:"min_blind_ms"`
}

type CoachConfig struct {
	Model  string `mapstructure:"model"`
	APIKey string `mapstructure:"api_key"`
	Style  string `mapstructure:"style"`
}

type FaceitConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type ParseConfig struct {
	Jobs int `mapstructure:"jobs"`
}

// RatingOptions converts the configured windows into engine options.
func (c Config) RatingOptions() rating.Options {
	return rating.Options{Window: window.Options{
		TradeWindowTicks: c.Rating.TradeWindowTicks,
		FlashWindowTicks: c.Rating.FlashWindowTicks,
		MinBlindDuration: time.Duration(c.Rating.MinBlindMS) * time.Millisecond,
	}}
}

// DefaultDir is the per-user state directory.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".cscoach")
}

func setDefaults(v *viper.Viper) {
	defaults := map[string]any{
		"db_path":                   filepath.Join(DefaultDir(), "cscoach.db"),
		"log.level":                 string(log.Info),
		"log.file":                  "",
		"rating.trade_window_ticks": 128,
		"rating.flash_window_ticks": 96,
		"rating.min_blind_ms":       700,
		"coach.model":               "claude-haiku-4-5-20251001",
		"coach.api_key":             "",
		"coach.style":               "auto",
		"faceit.api_key":            "",
		"parse.jobs":                2,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

// Load reads configuration. An explicit path must exist; otherwise cscoach.yaml
// is looked up in the state directory and the working directory and may be absent.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("cscoach")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("cscoach")
		v.SetConfigType("yaml")
		v.AddConfigPath(DefaultDir())
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Coach.APIKey == "" {
		cfg.Coach.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if cfg.Parse.Jobs < 1 {
		cfg.Parse.Jobs = 1
	}
	return cfg, nil
}
