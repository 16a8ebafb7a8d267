package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Route.Origin != "ALC" || cfg.Route.Destination != "KRK" {
		t.Errorf("route defaults = %s-%s, want ALC-KRK", cfg.Route.Origin, cfg.Route.Destination)
	}
	if cfg.Route.WindowDays != 6 {
		t.Errorf("window_days = %d, want 6", cfg.Route.WindowDays)
	}
	if cfg.Schedule.MorningCron != "0 0 8 * * *" {
		t.Errorf("morning_cron = %q", cfg.Schedule.MorningCron)
	}
	if !cfg.Scraper.Headless {
		t.Error("headless should default to true")
	}
	if cfg.Alerts.RetentionDays != 90 {
		t.Errorf("retention_days = %d, want 90", cfg.Alerts.RetentionDays)
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := writeConfig(t, `
telegram:
  bot_token: "from-file"
route:
  origin: "WMI"
  destination: "ALC"
  outbound_date: "2025-09-15"
  return_date: "2025-09-21"
`)
	t.Setenv("TELEGRAM_BOT_TOKEN", "from-env")
	t.Setenv("FLIGHT_ORIGIN", "GDN")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.BotToken != "from-env" {
		t.Errorf("bot_token = %q, environment must win", cfg.Telegram.BotToken)
	}
	if cfg.Route.Origin != "GDN" {
		t.Errorf("origin = %q, environment must win", cfg.Route.Origin)
	}
	if cfg.Route.Destination != "ALC" {
		t.Errorf("destination = %q, file value must survive", cfg.Route.Destination)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		if err != nil {
			t.Fatal(err)
		}
		cfg.Telegram.BotToken = "token"
		cfg.Route.OutboundDate = "2025-09-15"
		cfg.Route.ReturnDate = "2025-09-21"
		return cfg
	}

	if err := base().Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	cfg := base()
	cfg.Telegram.BotToken = ""
	if err := cfg.Validate(); err == nil {
		t.Error("missing bot token accepted")
	}

	cfg = base()
	cfg.Route.ReturnDate = "2025-09-01"
	if err := cfg.Validate(); err == nil {
		t.Error("return before outbound accepted")
	}

	cfg = base()
	cfg.Route.OutboundDate = "15/09/2025"
	if err := cfg.Validate(); err == nil {
		t.Error("malformed date accepted")
	}

	cfg = base()
	cfg.Alerts.WeeklyDigestDay = "Someday"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown weekday accepted")
	}
}

func TestRouteConfig(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	cfg.Route.OutboundDate = "2025-09-15"
	cfg.Route.ReturnDate = "2025-09-21"

	rc, err := cfg.RouteConfig()
	if err != nil {
		t.Fatalf("RouteConfig: %v", err)
	}
	if rc.OutboundRoute() != "ALC-KRK" || rc.ReturnRoute() != "KRK-ALC" {
		t.Errorf("routes = %s / %s", rc.OutboundRoute(), rc.ReturnRoute())
	}
	want := time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC)
	if !rc.OutboundDate.Equal(want) {
		t.Errorf("outbound date = %v, want %v", rc.OutboundDate, want)
	}
}

func TestDigestWeekdays(t *testing.T) {
	cfg := &Config{}
	cfg.Alerts.DigestDays = []string{"Monday", "Thursday"}
	days := cfg.DigestWeekdays()
	if len(days) != 2 || days[0] != time.Monday || days[1] != time.Thursday {
		t.Errorf("DigestWeekdays = %v", days)
	}
}
