package commands

import (
	"errors"
	"log/slog"
	"os"
	"strconv"

	"storywatch-backend/lib/configutil"
	configlibsql "storywatch-backend/lib/configutil/libsql"
	"storywatch-backend/services/notify"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
)

type ScraperConfig struct {
	BaseUrl        string `json:"base_url"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// NotifyConfig enables sinks, events are only logged when none are
// enabled.
type NotifyConfig struct {
	Log   bool                `json:"log"`
	Feed  *notify.FeedConfig  `json:"feed"`
	Email *notify.EmailConfig `json:"email"`
	Redis *notify.RedisConfig `json:"redis"`
}

type ServerConfig struct {
	Port        int    `json:"port"`
	AccessToken string `json:"access_token"`
	// cron specs, "@every 1h" style durations are accepted
	LiveStatsSchedule   string `json:"live_stats_schedule"`
	RisingStarsSchedule string `json:"rising_stars_schedule"`
	// IANA name of the zone schedules are evaluated in
	Timezone string `json:"timezone"`
}

type Config struct {
	Database configlibsql.Struct `json:"database"`
	Scraper  ScraperConfig       `json:"scraper"`
	Notify   NotifyConfig        `json:"notify"`
	Server   ServerConfig        `json:"server"`
	// stories evaluated concurrently by batch runs
	Workers int `json:"workers"`
}

func defaultConfig() Config {
	return Config{
		Database: configlibsql.Struct{File: "storywatch.db"},
		Server: ServerConfig{
			Port:                8110,
			LiveStatsSchedule:   "@every 1h",
			RisingStarsSchedule: "@every 15m",
			Timezone:            "UTC",
		},
		Workers: 4,
	}
}

// secrets are read from the environment (or a .env file) and take
// precedence over the config file.
var secretEnv = map[string]func(cfg *Config, value string){
	"STORYWATCH_ACCESS_TOKEN": func(cfg *Config, value string) {
		cfg.Server.AccessToken = value
	},
	"STORYWATCH_DB_AUTH_TOKEN": func(cfg *Config, value string) {
		cfg.Database.AuthToken = value
	},
	"STORYWATCH_SMTP_PASSWORD": func(cfg *Config, value string) {
		if cfg.Notify.Email != nil {
			cfg.Notify.Email.Smtp.Password = value
		}
	},
	"STORYWATCH_REDIS_URL": func(cfg *Config, value string) {
		if cfg.Notify.Redis == nil {
			cfg.Notify.Redis = &notify.RedisConfig{}
		}
		cfg.Notify.Redis.Url = value
	},
	"STORYWATCH_PORT": func(cfg *Config, value string) {
		port, err := strconv.Atoi(value)
		if err != nil {
			slog.Warn("ignoring invalid port", "value", value)
			return
		}
		cfg.Server.Port = port
	},
}

// LoadConfig reads path over the defaults, a missing file leaves the
// defaults in place.
func LoadConfig(path string) (Config, error) {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}

	cfg := defaultConfig()
	read, err := configutil.ReadConfig[Config](path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		slog.Debug("no config file found, using defaults", "path", path)
	case err != nil:
		return Config{}, err
	default:
		err = mergo.Merge(&read, cfg)
		if err != nil {
			return Config{}, err
		}
		cfg = read
	}

	for key, apply := range secretEnv {
		value, ok := os.LookupEnv(key)
		if ok && value != "" {
			apply(&cfg, value)
		}
	}
	return cfg, nil
}
