package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
	} `yaml:"telegram"`
	Route struct {
		Origin       string `yaml:"origin"`
		Destination  string `yaml:"destination"`
		OutboundDate string `yaml:"outbound_date"` // YYYY-MM-DD
		ReturnDate   string `yaml:"return_date"`   // YYYY-MM-DD
		WindowDays   int    `yaml:"window_days"`
	} `yaml:"route"`
	Schedule struct {
		MorningCron string `yaml:"morning_cron"`
		EveningCron string `yaml:"evening_cron"`
		CleanupCron string `yaml:"cleanup_cron"`
	} `yaml:"schedule"`
	Alerts struct {
		DigestDays      []string `yaml:"digest_days"`       // weekdays on which the quiet-price digest rule may fire
		WeeklyDigestDay string   `yaml:"weekly_digest_day"` // weekday of the silent-week summary
		RetentionDays   int      `yaml:"retention_days"`
	} `yaml:"alerts"`
	Scraper struct {
		Headless       bool `yaml:"headless"`
		TimeoutSeconds int  `yaml:"timeout_seconds"`
		Retries        uint `yaml:"retries"`
	} `yaml:"scraper"`
	Notify struct {
		MessageIntervalMS int `yaml:"message_interval_ms"`
	} `yaml:"notify"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
}

// RouteConfig is the parsed, explicit route state passed into the
// pipeline. Nothing in the pipeline reads route data from anywhere else.
type RouteConfig struct {
	Origin       string
	Destination  string
	OutboundDate time.Time
	ReturnDate   time.Time
	WindowDays   int
}

func (r RouteConfig) OutboundRoute() string { return r.Origin + "-" + r.Destination }
func (r RouteConfig) ReturnRoute() string   { return r.Destination + "-" + r.Origin }

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.Scraper.Headless = true

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("FLIGHT_ORIGIN"); v != "" {
		cfg.Route.Origin = v
	}
	if v := os.Getenv("FLIGHT_DESTINATION"); v != "" {
		cfg.Route.Destination = v
	}
	if v := os.Getenv("OUTBOUND_DATE"); v != "" {
		cfg.Route.OutboundDate = v
	}
	if v := os.Getenv("RETURN_DATE"); v != "" {
		cfg.Route.ReturnDate = v
	}
	if v := os.Getenv("CRON_MORNING"); v != "" {
		cfg.Schedule.MorningCron = v
	}
	if v := os.Getenv("CRON_EVENING"); v != "" {
		cfg.Schedule.EveningCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("SCRAPER_HEADLESS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Scraper.Headless = b
		}
	}

	// Defaults
	if cfg.Route.Origin == "" {
		cfg.Route.Origin = "ALC"
	}
	if cfg.Route.Destination == "" {
		cfg.Route.Destination = "KRK"
	}
	if cfg.Route.WindowDays == 0 {
		cfg.Route.WindowDays = 6
	}
	if cfg.Schedule.MorningCron == "" {
		cfg.Schedule.MorningCron = "0 0 8 * * *"
	}
	if cfg.Schedule.EveningCron == "" {
		cfg.Schedule.EveningCron = "0 0 16 * * *"
	}
	if cfg.Schedule.CleanupCron == "" {
		cfg.Schedule.CleanupCron = "0 30 3 * * *"
	}
	if len(cfg.Alerts.DigestDays) == 0 {
		cfg.Alerts.DigestDays = []string{"Monday", "Thursday"}
	}
	if cfg.Alerts.WeeklyDigestDay == "" {
		cfg.Alerts.WeeklyDigestDay = "Monday"
	}
	if cfg.Alerts.RetentionDays == 0 {
		cfg.Alerts.RetentionDays = 90
	}
	if cfg.Scraper.TimeoutSeconds == 0 {
		cfg.Scraper.TimeoutSeconds = 45
	}
	if cfg.Scraper.Retries == 0 {
		cfg.Scraper.Retries = 2
	}
	if cfg.Notify.MessageIntervalMS == 0 {
		cfg.Notify.MessageIntervalMS = 1000
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/flightwatch.db"
	}

	return cfg, nil
}

// Validate checks that all required fields are set and parseable.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	rc, err := c.RouteConfig()
	if err != nil {
		return err
	}
	if rc.ReturnDate.Before(rc.OutboundDate) {
		return fmt.Errorf("route.return_date must not be before route.outbound_date")
	}
	if rc.WindowDays < 1 {
		return fmt.Errorf("route.window_days must be at least 1")
	}
	for _, d := range c.Alerts.DigestDays {
		if _, err := ParseWeekday(d); err != nil {
			return fmt.Errorf("alerts.digest_days: %w", err)
		}
	}
	if _, err := ParseWeekday(c.Alerts.WeeklyDigestDay); err != nil {
		return fmt.Errorf("alerts.weekly_digest_day: %w", err)
	}
	return nil
}

// RouteConfig parses the route section into its explicit form.
func (c *Config) RouteConfig() (RouteConfig, error) {
	out, err := time.Parse("2006-01-02", c.Route.OutboundDate)
	if err != nil {
		return RouteConfig{}, fmt.Errorf("route.outbound_date: %w", err)
	}
	ret, err := time.Parse("2006-01-02", c.Route.ReturnDate)
	if err != nil {
		return RouteConfig{}, fmt.Errorf("route.return_date: %w", err)
	}
	return RouteConfig{
		Origin:       c.Route.Origin,
		Destination:  c.Route.Destination,
		OutboundDate: out,
		ReturnDate:   ret,
		WindowDays:   c.Route.WindowDays,
	}, nil
}

// DigestWeekdays returns the parsed rule digest days.
func (c *Config) DigestWeekdays() []time.Weekday {
	days := make([]time.Weekday, 0, len(c.Alerts.DigestDays))
	for _, d := range c.Alerts.DigestDays {
		if wd, err := ParseWeekday(d); err == nil {
			days = append(days, wd)
		}
	}
	return days
}

var weekdays = map[string]time.Weekday{
	"Sunday":    time.Sunday,
	"Monday":    time.Monday,
	"Tuesday":   time.Tuesday,
	"Wednesday": time.Wednesday,
	"Thursday":  time.Thursday,
	"Friday":    time.Friday,
	"Saturday":  time.Saturday,
}

// ParseWeekday maps an English weekday name to its time.Weekday.
func ParseWeekday(name string) (time.Weekday, error) {
	if wd, ok := weekdays[name]; ok {
		return wd, nil
	}
	return 0, fmt.Errorf("unknown weekday %q", name)
}
