package repository

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"FlightWatch/internal/model"
)

// Store persists price observations and subscribers to SQLite. It is
// the sole source of historical truth: the pipeline never caches
// history across runs.
type Store struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// Open opens (or creates) the SQLite database and runs migrations.
func Open(dbPath string, log zerolog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &Store{db: db, log: log}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite store opened")
	return s, nil
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS flight_prices (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			observed_at INTEGER NOT NULL,
			travel_date TEXT NOT NULL,
			price       REAL NOT NULL,
			route       TEXT NOT NULL,
			leg         TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_prices_lookup
			ON flight_prices(route, leg, travel_date, observed_at)`,
		`CREATE INDEX IF NOT EXISTS idx_prices_observed ON flight_prices(observed_at)`,

		`CREATE TABLE IF NOT EXISTS subscribers (
			chat_id    INTEGER PRIMARY KEY,
			chat_title TEXT,
			created_at INTEGER NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// InsertObservations writes a batch of observations in one transaction.
// Non-positive prices are rejected up front: nothing of the batch is
// written if any entry is invalid.
func (s *Store) InsertObservations(observations []model.PriceObservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range observations {
		if o.Price <= 0 {
			return fmt.Errorf("%w: %.2f for %s %s", model.ErrInvalidPrice, o.Price, o.Route, o.TravelDate.Format("2006-01-02"))
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO flight_prices
		(observed_at, travel_date, price, route, leg) VALUES (?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range observations {
		if _, err := stmt.Exec(
			o.ObservedAt.Unix(),
			o.TravelDate.Format("2006-01-02"),
			o.Price,
			o.Route,
			string(o.Leg),
		); err != nil {
			return fmt.Errorf("insert observation: %w", err)
		}
	}
	return tx.Commit()
}

// ObservationsByRoute returns up to limit observations for one
// (route, leg, travel date), newest observation first.
func (s *Store) ObservationsByRoute(route string, leg model.LegType, travelDate time.Time, limit int) ([]model.PriceObservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT observed_at, travel_date, price, route, leg
		FROM flight_prices
		WHERE route = ? AND leg = ? AND travel_date = ?
		ORDER BY observed_at DESC, id DESC
		LIMIT ?`,
		route, string(leg), travelDate.Format("2006-01-02"), limit)
	if err != nil {
		return nil, fmt.Errorf("query observations: %w", err)
	}
	defer rows.Close()

	var out []model.PriceObservation
	for rows.Next() {
		var (
			observedAt int64
			dateStr    string
			o          model.PriceObservation
		)
		if err := rows.Scan(&observedAt, &dateStr, &o.Price, &o.Route, &o.Leg); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		o.ObservedAt = time.Unix(observedAt, 0).UTC()
		if o.TravelDate, err = time.Parse("2006-01-02", dateStr); err != nil {
			return nil, fmt.Errorf("parse travel date %q: %w", dateStr, err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Stats summarizes observation prices for one travel date over a
// trailing window of observation days. Returns nil when no rows match.
func (s *Store) Stats(travelDate time.Time, leg model.LegType, route string, windowDays int) (*model.PriceStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	since := time.Now().AddDate(0, 0, -windowDays).Unix()
	row := s.db.QueryRow(`SELECT AVG(price), MIN(price), MAX(price), COUNT(*)
		FROM flight_prices
		WHERE travel_date = ? AND leg = ? AND route = ? AND observed_at >= ?`,
		travelDate.Format("2006-01-02"), string(leg), route, since)

	var (
		avg, min, max sql.NullFloat64
		count         int
	)
	if err := row.Scan(&avg, &min, &max, &count); err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	if count == 0 {
		return nil, nil
	}
	return &model.PriceStats{
		Avg:   avg.Float64,
		Min:   min.Float64,
		Max:   max.Float64,
		Count: count,
	}, nil
}

// DeleteOlderThan removes observations observed before the cutoff and
// returns how many rows went away.
func (s *Store) DeleteOlderThan(cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM flight_prices WHERE observed_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("delete old observations: %w", err)
	}
	return res.RowsAffected()
}

// UpsertSubscriber registers a chat, refreshing its title on conflict.
func (s *Store) UpsertSubscriber(chatID int64, chatTitle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`INSERT INTO subscribers (chat_id, chat_title, created_at)
		VALUES (?,?,?)
		ON CONFLICT(chat_id) DO UPDATE SET chat_title=excluded.chat_title`,
		chatID, chatTitle, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("upsert subscriber: %w", err)
	}
	return nil
}

// Subscribers lists every registered chat.
func (s *Store) Subscribers() ([]model.Subscriber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT chat_id, COALESCE(chat_title, '') FROM subscribers ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("query subscribers: %w", err)
	}
	defer rows.Close()

	var out []model.Subscriber
	for rows.Next() {
		var sub model.Subscriber
		if err := rows.Scan(&sub.ChatID, &sub.ChatTitle); err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	s.log.Info().Msg("closing sqlite store")
	return s.db.Close()
}
