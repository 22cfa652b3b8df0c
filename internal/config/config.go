package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"StockResearch/internal/errors"
)

// Config holds all application configuration.
type Config struct {
	Provider struct {
		Name          string        `yaml:"name" validate:"oneof=yahoo polygon binance mock"`
		PolygonAPIKey string        `yaml:"polygon_api_key" validate:"required_if=Name polygon"`
		YahooBaseURL  string        `yaml:"yahoo_base_url" validate:"omitempty,url"`
		Timeout       time.Duration `yaml:"timeout" validate:"gt=0"`
	} `yaml:"provider"`
	Analysis struct {
		DefaultPeriod string `yaml:"default_period" validate:"oneof=1mo 3mo 6mo 1y 2y 5y"`
		Concurrency   int    `yaml:"concurrency" validate:"min=1,max=32"`
	} `yaml:"analysis"`
	Cache struct {
		Backend       string        `yaml:"backend" validate:"oneof=none memory redis"`
		TTL           time.Duration `yaml:"ttl" validate:"gte=0"`
		RedisAddr     string        `yaml:"redis_addr" validate:"required_if=Backend redis"`
		RedisPassword string        `yaml:"redis_password"`
		RedisDB       int           `yaml:"redis_db" validate:"min=0"`
	} `yaml:"cache"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id" validate:"required_with=BotToken"`
	} `yaml:"telegram"`
	Schedule struct {
		RefreshCron string `yaml:"refresh_cron"`
	} `yaml:"schedule"`
	Watchlist struct {
		StateFile string   `yaml:"state_file" validate:"required"`
		Tickers   []string `yaml:"tickers" validate:"dive,required"`
	} `yaml:"watchlist"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Server struct {
		Addr string `yaml:"addr" validate:"required"`
	} `yaml:"server"`
	Log struct {
		Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error DEBUG INFO WARN ERROR"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy" validate:"omitempty,url"`
}

// Load reads config from a YAML file, loads any .env files, then applies
// environment variable overrides and defaults. A missing YAML file or env
// file is not an error. When no env files are given ".env" is tried.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "parse config", err)
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		// godotenv never overrides variables already set in the process
		if err := godotenv.Load(f); err != nil {
			return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "load env file %s", f)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString := map[string]*string{
		"STOCKRESEARCH_PROVIDER": &cfg.Provider.Name,
		"POLYGON_API_KEY":        &cfg.Provider.PolygonAPIKey,
		"YAHOO_BASE_URL":         &cfg.Provider.YahooBaseURL,
		"DEFAULT_PERIOD":         &cfg.Analysis.DefaultPeriod,
		"CACHE_BACKEND":          &cfg.Cache.Backend,
		"REDIS_ADDR":             &cfg.Cache.RedisAddr,
		"REDIS_PASSWORD":         &cfg.Cache.RedisPassword,
		"TELEGRAM_BOT_TOKEN":     &cfg.Telegram.BotToken,
		"TELEGRAM_CHAT_ID":       &cfg.Telegram.ChatID,
		"CRON_REFRESH":           &cfg.Schedule.RefreshCron,
		"WATCHLIST_FILE":         &cfg.Watchlist.StateFile,
		"SQLITE_PATH":            &cfg.Database.SQLitePath,
		"LISTEN_ADDR":            &cfg.Server.Addr,
		"LOG_LEVEL":              &cfg.Log.Level,
		"HTTPS_PROXY":            &cfg.Proxy,
	}
	for key, dst := range setString {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("CACHE_TTL"); v != "" {
		ttl, err := parseTTL(v)
		if err != nil {
			return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "CACHE_TTL %q", v)
		}
		cfg.Cache.TTL = ttl
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "REDIS_DB %q", v)
		}
		cfg.Cache.RedisDB = db
	}
	if v := os.Getenv("WATCHLIST"); v != "" {
		cfg.Watchlist.Tickers = nil
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				cfg.Watchlist.Tickers = append(cfg.Watchlist.Tickers, strings.ToUpper(t))
			}
		}
	}
	return nil
}

// parseTTL accepts a Go duration ("90m") or a bare number of seconds ("3600").
func parseTTL(v string) (time.Duration, error) {
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(v)
}

func applyDefaults(cfg *Config) {
	if cfg.Provider.Name == "" {
		cfg.Provider.Name = "yahoo"
	}
	if cfg.Provider.Timeout == 0 {
		cfg.Provider.Timeout = 30 * time.Second
	}
	if cfg.Analysis.DefaultPeriod == "" {
		cfg.Analysis.DefaultPeriod = "1y"
	}
	if cfg.Analysis.Concurrency == 0 {
		cfg.Analysis.Concurrency = 4
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "memory"
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = time.Hour
	}
	if cfg.Schedule.RefreshCron == "" {
		cfg.Schedule.RefreshCron = "0 0 22 * * 1-5"
	}
	if cfg.Watchlist.StateFile == "" {
		cfg.Watchlist.StateFile = "data/watchlist.json"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/stock_research.db"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// cronParser matches the six-field format the scheduler runs with.
var cronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Validate checks field constraints and the refresh schedule.
func (c *Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
	}
	if _, err := cronParser.Parse(c.Schedule.RefreshCron); err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "schedule.refresh_cron %q", c.Schedule.RefreshCron)
	}
	return nil
}

// TelegramEnabled reports whether Telegram credentials are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
