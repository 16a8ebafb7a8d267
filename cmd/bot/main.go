package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"FlightWatch/internal/alert"
	"FlightWatch/internal/config"
	"FlightWatch/internal/currency"
	"FlightWatch/internal/notifier"
	"FlightWatch/internal/repository"
	"FlightWatch/internal/rules"
	"FlightWatch/internal/scheduler"
	"FlightWatch/internal/scraper"
)

func main() {
	_ = godotenv.Load()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
	log.Info().Msg("FlightWatch starting")

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	route, err := cfg.RouteConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("route config")
	}
	log.Info().
		Str("outbound", route.OutboundRoute()).
		Str("dates", route.OutboundDate.Format("2006-01-02")+" / "+route.ReturnDate.Format("2006-01-02")).
		Msg("watching route")

	store, err := repository.Open(cfg.Database.SQLitePath, log.With().Str("component", "repository").Logger())
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source, closeBrowser := scraper.NewBrowserSource(ctx, cfg.Scraper.Headless,
		time.Duration(cfg.Scraper.TimeoutSeconds)*time.Second,
		log.With().Str("component", "scraper").Logger())
	defer closeBrowser()

	extractor := scraper.NewExtractor(source, currency.NewNormalizer(), log.With().Str("component", "extractor").Logger())
	assembler := scraper.NewAssembler(extractor)

	legEval := rules.NewLegEvaluator(cfg.DigestWeekdays())
	digestDay, err := config.ParseWeekday(cfg.Alerts.WeeklyDigestDay)
	if err != nil {
		log.Fatal().Err(err).Msg("weekly digest day")
	}
	composer := alert.NewComposer(store, legEval, digestDay, log.With().Str("component", "alert").Logger())

	tn, err := notifier.New(cfg.Telegram.BotToken, store,
		time.Duration(cfg.Notify.MessageIntervalMS)*time.Millisecond,
		log.With().Str("component", "notifier").Logger())
	if err != nil {
		log.Fatal().Err(err).Msg("telegram init")
	}

	sched := scheduler.New(ctx, route, assembler, composer, store, tn,
		cfg.Scraper.Retries, cfg.Alerts.RetentionDays,
		log.With().Str("component", "scheduler").Logger())
	if err := sched.Register(cfg.Schedule.MorningCron, cfg.Schedule.EveningCron, cfg.Schedule.CleanupCron); err != nil {
		log.Fatal().Err(err).Msg("register cron jobs")
	}
	sched.Start()
	defer sched.Stop()

	go tn.Poll(ctx, sched.Commands())

	if os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("RUN_ON_START enabled, checking now")
		go sched.RunOnce()
	}

	log.Info().Msg("FlightWatch is running, Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received")
	cancel()
	log.Info().Msg("FlightWatch stopped")
}
