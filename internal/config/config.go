package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

const DefaultPath = "config.json5"

type Config struct {
	Site        SiteConfig        `json:"site"`
	Credentials CredentialsConfig `json:"credentials"`
	Outreach    OutreachConfig    `json:"outreach"`
	Resume      ResumeConfig      `json:"resume"`
	Browser     BrowserConfig     `json:"browser"`
	Redis       RedisConfig       `json:"redis"`
	Database    DatabaseConfig    `json:"database"`
	Server      ServerConfig      `json:"server"`
	Logging     LoggingConfig     `json:"logging"`
}

type SiteConfig struct {
	BaseURL     string `json:"base_url"`
	LoginPath   string `json:"login_path"`
	ListingPath string `json:"listing_path"`
}

func (s SiteConfig) LoginURL() string {
	if s.LoginPath == "" {
		return ""
	}
	return strings.TrimRight(s.BaseURL, "/") + s.LoginPath
}

func (s SiteConfig) ListingURL() string {
	return strings.TrimRight(s.BaseURL, "/") + s.ListingPath
}

type CredentialsConfig struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// OutreachConfig durations are in milliseconds.
type OutreachConfig struct {
	Message                string   `json:"message"`
	Cities                 []string `json:"cities"`
	RunPaged               bool     `json:"run_paged"`
	RunCities              bool     `json:"run_cities"`
	DelayBetweenActionsMS  int      `json:"delay_between_actions_ms"`
	MaxScrollAttempts      int      `json:"max_scroll_attempts"`
	ManualLoginWaitMS      int      `json:"manual_login_wait_ms"`
	ManualNavigationWaitMS int      `json:"manual_navigation_wait_ms"`
}

func (o OutreachConfig) DelayBetweenActions() time.Duration {
	return ms(o.DelayBetweenActionsMS)
}

func (o OutreachConfig) ManualLoginWait() time.Duration {
	return ms(o.ManualLoginWaitMS)
}

func (o OutreachConfig) ManualNavigationWait() time.Duration {
	return ms(o.ManualNavigationWaitMS)
}

type ResumeConfig struct {
	Enabled          bool   `json:"enabled"`
	Backend          string `json:"backend"`
	ProgressFile     string `json:"progress_file"`
	CityProgressFile string `json:"city_progress_file"`
	StartPage        int    `json:"start_page"`
}

type BrowserConfig struct {
	Headless        bool   `json:"headless"`
	SlowMoMS        int    `json:"slow_mo_ms"`
	PageTimeoutMS   int    `json:"page_timeout_ms"`
	ActionTimeoutMS int    `json:"action_timeout_ms"`
	UserAgent       string `json:"user_agent"`
	ViewportWidth   int    `json:"viewport_width"`
	ViewportHeight  int    `json:"viewport_height"`
	AcceptLanguage  string `json:"accept_language"`
	TimezoneID      string `json:"timezone_id"`
	Locale          string `json:"locale"`
	ScreenshotDir   string `json:"screenshot_dir"`
}

func (b BrowserConfig) SlowMo() time.Duration        { return ms(b.SlowMoMS) }
func (b BrowserConfig) PageTimeout() time.Duration   { return ms(b.PageTimeoutMS) }
func (b BrowserConfig) ActionTimeout() time.Duration { return ms(b.ActionTimeoutMS) }

type RedisConfig struct {
	Addr      string `json:"addr"`
	Password  string `json:"password"`
	DB        int    `json:"db"`
	KeyPrefix string `json:"key_prefix"`
}

// DatabaseConfig enables the outreach journal when URL is set.
type DatabaseConfig struct {
	URL      string `json:"url"`
	MaxConns int32  `json:"max_conns"`
}

// ServerConfig enables the status API when Addr is set.
type ServerConfig struct {
	Addr              string   `json:"addr"`
	AllowedOrigins    []string `json:"allowed_origins"`
	ShutdownTimeoutMS int      `json:"shutdown_timeout_ms"`
}

func (s ServerConfig) ShutdownTimeout() time.Duration { return ms(s.ShutdownTimeoutMS) }

type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

func Default() *Config {
	return &Config{
		Site: SiteConfig{
			BaseURL:     "https://meetachef.com",
			LoginPath:   "/log-in",
			ListingPath: "/individuals",
		},
		Outreach: OutreachConfig{
			Message:                defaultMessage,
			Cities:                 defaultCities(),
			RunPaged:               true,
			RunCities:              true,
			DelayBetweenActionsMS:  3000,
			MaxScrollAttempts:      20,
			ManualLoginWaitMS:      10000,
			ManualNavigationWaitMS: 10000,
		},
		Resume: ResumeConfig{
			Enabled:          true,
			Backend:          "file",
			ProgressFile:     ".progress.json",
			CityProgressFile: ".city-progress.json",
			StartPage:        1,
		},
		Browser: BrowserConfig{
			Headless:        false,
			SlowMoMS:        100,
			PageTimeoutMS:   30000,
			ActionTimeoutMS: 10000,
			UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			ViewportWidth:   1920,
			ViewportHeight:  1080,
			AcceptLanguage:  "en-US,en;q=0.9",
			TimezoneID:      "America/New_York",
			Locale:          "en-US",
			ScreenshotDir:   "screenshots",
		},
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			KeyPrefix: "outreach",
		},
		Database: DatabaseConfig{
			MaxConns: 4,
		},
		Server: ServerConfig{
			AllowedOrigins:    []string{"*"},
			ShutdownTimeoutMS: 5000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

const defaultMessage = "Hello! I'm interested in collaborating with you. I'd love to learn more about your culinary expertise and explore potential opportunities to work together. Looking forward to connecting!"

func defaultCities() []string {
	return []string{
		"New York, NY",
		"Los Angeles, CA",
		"Chicago, IL",
		"Houston, TX",
		"Phoenix, AZ",
		"Philadelphia, PA",
		"San Antonio, TX",
		"San Diego, CA",
		"Dallas, TX",
		"San Jose, CA",
		"Austin, TX",
		"Jacksonville, FL",
		"San Francisco, CA",
		"Columbus, OH",
		"Fort Worth, TX",
		"Charlotte, NC",
		"Seattle, WA",
		"Denver, CO",
		"Boston, MA",
		"Nashville, TN",
	}
}

// Load builds the configuration from defaults, the JSON5 file at path, its
// <name>.local.<ext> sibling and finally the environment. Missing files are
// skipped.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if len(data) > 0 {
		if err := json5.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	localPath := LocalPath(path)
	local, err := os.ReadFile(localPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read local config: %w", err)
	}
	if len(local) > 0 {
		var override Config
		if err := json5.Unmarshal(local, &override); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", localPath, err)
		}
		if err := mergo.Merge(cfg, override, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge local config: %w", err)
		}
		slog.Info("merging config with local overrides", "local", localPath)
	}

	applyEnv(cfg)
	return cfg, nil
}

// LocalPath turns dir/name.ext into dir/name.local.ext.
func LocalPath(path string) string {
	dir, base := filepath.Split(path)
	ext := filepath.Ext(base)
	return filepath.Join(dir, strings.TrimSuffix(base, ext)+".local"+ext)
}

func applyEnv(cfg *Config) {
	cfg.Site.BaseURL = getEnvOrDefault("OUTREACH_BASE_URL", cfg.Site.BaseURL)
	cfg.Credentials.Email = getEnvOrDefault("OUTREACH_EMAIL", cfg.Credentials.Email)
	cfg.Credentials.Password = getEnvOrDefault("OUTREACH_PASSWORD", cfg.Credentials.Password)
	cfg.Outreach.Message = getEnvOrDefault("OUTREACH_MESSAGE", cfg.Outreach.Message)
	cfg.Outreach.Cities = getStringSliceOrDefault("OUTREACH_CITIES", cfg.Outreach.Cities)
	cfg.Outreach.RunPaged = getBoolOrDefault("OUTREACH_RUN_PAGED", cfg.Outreach.RunPaged)
	cfg.Outreach.RunCities = getBoolOrDefault("OUTREACH_RUN_CITIES", cfg.Outreach.RunCities)
	cfg.Outreach.DelayBetweenActionsMS = getMillisOrDefault("OUTREACH_DELAY_BETWEEN_ACTIONS", cfg.Outreach.DelayBetweenActionsMS)
	cfg.Resume.Enabled = getBoolOrDefault("RESUME_ENABLED", cfg.Resume.Enabled)
	cfg.Resume.Backend = getEnvOrDefault("PROGRESS_BACKEND", cfg.Resume.Backend)
	cfg.Resume.ProgressFile = getEnvOrDefault("PROGRESS_FILE", cfg.Resume.ProgressFile)
	cfg.Resume.CityProgressFile = getEnvOrDefault("CITY_PROGRESS_FILE", cfg.Resume.CityProgressFile)
	cfg.Resume.StartPage = getIntOrDefault("START_PAGE", cfg.Resume.StartPage)
	cfg.Browser.Headless = getBoolOrDefault("BROWSER_HEADLESS", cfg.Browser.Headless)
	cfg.Browser.SlowMoMS = getMillisOrDefault("BROWSER_SLOW_MO", cfg.Browser.SlowMoMS)
	cfg.Browser.PageTimeoutMS = getMillisOrDefault("BROWSER_TIMEOUT", cfg.Browser.PageTimeoutMS)
	cfg.Browser.ScreenshotDir = getEnvOrDefault("SCREENSHOT_DIR", cfg.Browser.ScreenshotDir)
	cfg.Redis.Addr = getEnvOrDefault("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnvOrDefault("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Database.URL = getEnvOrDefault("DATABASE_URL", cfg.Database.URL)
	cfg.Server.Addr = getEnvOrDefault("STATUS_ADDR", cfg.Server.Addr)
	cfg.Logging.Level = getEnvOrDefault("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnvOrDefault("LOG_FORMAT", cfg.Logging.Format)
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.Site.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("site.base_url must be an absolute URL, got %q", c.Site.BaseURL)
	}

	if c.Outreach.DelayBetweenActionsMS < 0 {
		return fmt.Errorf("outreach.delay_between_actions_ms cannot be negative")
	}

	if c.Outreach.MaxScrollAttempts < 1 {
		return fmt.Errorf("outreach.max_scroll_attempts must be at least 1")
	}

	if c.Resume.StartPage < 1 {
		return fmt.Errorf("resume.start_page must be at least 1")
	}

	switch c.Resume.Backend {
	case "file":
		if c.Resume.ProgressFile == "" || c.Resume.CityProgressFile == "" {
			return fmt.Errorf("resume progress files must be set for the file backend")
		}
		if c.Resume.ProgressFile == c.Resume.CityProgressFile {
			return fmt.Errorf("resume.progress_file and resume.city_progress_file must differ")
		}
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("resume.backend must be file or redis, got %q", c.Resume.Backend)
	}

	if c.Browser.PageTimeoutMS <= 0 || c.Browser.ActionTimeoutMS <= 0 {
		return fmt.Errorf("browser timeouts must be positive")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format must be json or text, got %q", c.Logging.Format)
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getMillisOrDefault reads a Go duration ("3s", "250ms") and returns it in
// milliseconds.
func getMillisOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return int(d / time.Millisecond)
		}
	}
	return defaultValue
}

// getStringSliceOrDefault splits on semicolons; city entries contain commas.
func getStringSliceOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ";")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}
