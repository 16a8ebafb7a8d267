package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"FlightWatch/internal/alert"
	"FlightWatch/internal/config"
	"FlightWatch/internal/model"
	"FlightWatch/internal/notifier"
	"FlightWatch/internal/repository"
	"FlightWatch/internal/scraper"
)

const statsWindowDays = 30

// Scheduler owns the cron jobs and the check pipeline they run:
// scrape the round trip, persist the observations, compose alerts,
// broadcast them.
type Scheduler struct {
	cron      *cron.Cron
	route     config.RouteConfig
	assembler *scraper.Assembler
	composer  *alert.Composer
	store     *repository.Store
	notifier  *notifier.Notifier
	retries   uint
	retention time.Duration
	log       zerolog.Logger
	ctx       context.Context

	// monitorEntries are the morning/evening jobs, used to tell users
	// when the next attempt runs after a failure.
	monitorEntries []cron.EntryID

	mu sync.Mutex
}

func New(ctx context.Context, route config.RouteConfig, asm *scraper.Assembler, comp *alert.Composer,
	store *repository.Store, n *notifier.Notifier, retries uint, retentionDays int, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithSeconds()),
		route:     route,
		assembler: asm,
		composer:  comp,
		store:     store,
		notifier:  n,
		retries:   retries,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		log:       log,
		ctx:       ctx,
	}
}

// Register wires the two daily monitor runs and the retention cleanup.
func (s *Scheduler) Register(morningCron, eveningCron, cleanupCron string) error {
	for _, spec := range []string{morningCron, eveningCron} {
		id, err := s.cron.AddFunc(spec, s.RunOnce)
		if err != nil {
			return fmt.Errorf("register monitor job %q: %w", spec, err)
		}
		s.monitorEntries = append(s.monitorEntries, id)
	}
	if _, err := s.cron.AddFunc(cleanupCron, s.cleanup); err != nil {
		return fmt.Errorf("register cleanup job %q: %w", cleanupCron, err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop stops the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// Commands exposes the pipeline to the bot's chat commands.
func (s *Scheduler) Commands() notifier.Commands {
	return notifier.Commands{
		LatestPrices: s.latestPrices,
		RunCheck:     func() { go s.RunOnce() },
	}
}

// RunOnce executes one full check. Overlapping invocations are
// skipped, not queued: a second run against the same travel dates
// would only duplicate observations.
func (s *Scheduler) RunOnce() {
	if !s.mu.TryLock() {
		s.log.Warn().Msg("check already running, skipping")
		return
	}
	defer s.mu.Unlock()

	started := time.Now()
	s.log.Info().
		Str("route", s.route.OutboundRoute()).
		Time("outbound", s.route.OutboundDate).
		Time("return", s.route.ReturnDate).
		Msg("price check started")

	var trip model.RoundTrip
	scrape := func() error {
		t, err := s.assembler.Assemble(s.ctx, s.route)
		if err != nil {
			s.log.Warn().Err(err).Msg("scrape attempt failed")
			return err
		}
		trip = t
		return nil
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(s.retries)), s.ctx)
	if err := backoff.Retry(scrape, policy); err != nil {
		s.log.Error().Err(err).Msg("price check failed")
		s.notifier.BroadcastError(s.ctx, "scrape", err, s.nextRun())
		return
	}

	if err := s.store.InsertObservations(s.observations(trip, started)); err != nil {
		// History must reflect this run before it is evaluated, so a
		// persist failure aborts the check.
		s.log.Error().Err(err).Msg("persist observations failed")
		s.notifier.BroadcastError(s.ctx, "persist", err, s.nextRun())
		return
	}

	result, err := s.composer.Compose(s.route, trip)
	if err != nil {
		s.log.Error().Err(err).Msg("alert composition failed")
		s.notifier.BroadcastError(s.ctx, "evaluate", err, s.nextRun())
		return
	}
	if err := s.notifier.Broadcast(s.ctx, result.Messages); err != nil {
		s.log.Error().Err(err).Msg("broadcast failed")
	}

	s.log.Info().
		Float64("outbound", trip.Outbound.Price).
		Float64("return", trip.Return.Price).
		Str("verdict", string(result.Recommendation.Verdict)).
		Dur("elapsed", time.Since(started)).
		Msg("price check finished")
}

// observations flattens the trip into storable rows: the resolved
// price per leg plus every priced, available alternative date.
func (s *Scheduler) observations(trip model.RoundTrip, observedAt time.Time) []model.PriceObservation {
	legs := []struct {
		route  string
		leg    model.LegType
		result model.LegResult
	}{
		{s.route.OutboundRoute(), model.LegOutbound, trip.Outbound},
		{s.route.ReturnRoute(), model.LegReturn, trip.Return},
	}

	var out []model.PriceObservation
	for _, l := range legs {
		out = append(out, model.PriceObservation{
			ObservedAt: observedAt,
			TravelDate: l.result.Date,
			Price:      l.result.Price,
			Route:      l.route,
			Leg:        l.leg,
		})
		for _, alt := range l.result.Alternatives {
			if !alt.Available || !alt.HasPrice || alt.Price <= 0 {
				continue
			}
			if model.DateOnly(alt.Date).Equal(model.DateOnly(l.result.Date)) {
				continue
			}
			out = append(out, model.PriceObservation{
				ObservedAt: observedAt,
				TravelDate: alt.Date,
				Price:      alt.Price,
				Route:      l.route,
				Leg:        l.leg,
			})
		}
	}
	return out
}

func (s *Scheduler) cleanup() {
	cutoff := time.Now().Add(-s.retention)
	deleted, err := s.store.DeleteOlderThan(cutoff)
	if err != nil {
		s.log.Error().Err(err).Msg("retention cleanup failed")
		return
	}
	s.log.Info().Int64("deleted", deleted).Time("cutoff", cutoff).Msg("retention cleanup done")
}

// latestPrices backs the /price command.
func (s *Scheduler) latestPrices() (string, error) {
	out, err := s.latestObservation(s.route.OutboundRoute(), model.LegOutbound, s.route.OutboundDate)
	if err != nil {
		return "", err
	}
	ret, err := s.latestObservation(s.route.ReturnRoute(), model.LegReturn, s.route.ReturnDate)
	if err != nil {
		return "", err
	}
	outStats, err := s.store.Stats(s.route.OutboundDate, model.LegOutbound, s.route.OutboundRoute(), statsWindowDays)
	if err != nil {
		return "", err
	}
	retStats, err := s.store.Stats(s.route.ReturnDate, model.LegReturn, s.route.ReturnRoute(), statsWindowDays)
	if err != nil {
		return "", err
	}
	return notifier.FormatLatestPrices(out, ret, outStats, retStats), nil
}

func (s *Scheduler) latestObservation(route string, leg model.LegType, travelDate time.Time) (*model.PriceObservation, error) {
	obs, err := s.store.ObservationsByRoute(route, leg, travelDate, 1)
	if err != nil {
		return nil, err
	}
	if len(obs) == 0 {
		return nil, nil
	}
	return &obs[0], nil
}

// nextRun is the earliest upcoming monitor entry, zero when the cron
// loop is not running yet.
func (s *Scheduler) nextRun() time.Time {
	var next time.Time
	for _, id := range s.monitorEntries {
		e := s.cron.Entry(id)
		if e.Next.IsZero() {
			continue
		}
		if next.IsZero() || e.Next.Before(next) {
			next = e.Next
		}
	}
	return next
}
