package repository

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FlightWatch/internal/model"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func obs(observedAt time.Time, price float64) model.PriceObservation {
	return model.PriceObservation{
		ObservedAt: observedAt,
		TravelDate: time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC),
		Price:      price,
		Route:      "ALC-KRK",
		Leg:        model.LegOutbound,
	}
}

func TestInsertAndQueryNewestFirst(t *testing.T) {
	store := setupTestStore(t)

	base := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)
	batch := []model.PriceObservation{
		obs(base, 100),
		obs(base.AddDate(0, 0, 1), 95),
		obs(base.AddDate(0, 0, 2), 90),
	}
	require.NoError(t, store.InsertObservations(batch))

	got, err := store.ObservationsByRoute("ALC-KRK", model.LegOutbound, batch[0].TravelDate, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, 90.0, got[0].Price, "newest observation first")
	assert.Equal(t, 95.0, got[1].Price)
	assert.Equal(t, 100.0, got[2].Price)
	assert.Equal(t, "ALC-KRK", got[0].Route)
	assert.Equal(t, model.LegOutbound, got[0].Leg)
}

func TestQueryRespectsLimitAndKeys(t *testing.T) {
	store := setupTestStore(t)

	base := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)
	var batch []model.PriceObservation
	for i := 0; i < 10; i++ {
		batch = append(batch, obs(base.AddDate(0, 0, i), float64(100-i)))
	}
	// different leg must not leak into the query
	other := obs(base, 999)
	other.Leg = model.LegReturn
	batch = append(batch, other)
	require.NoError(t, store.InsertObservations(batch))

	got, err := store.ObservationsByRoute("ALC-KRK", model.LegOutbound, batch[0].TravelDate, 8)
	require.NoError(t, err)
	require.Len(t, got, 8)
	for _, o := range got {
		assert.NotEqual(t, 999.0, o.Price)
	}
}

func TestInsertRejectsNonPositivePrice(t *testing.T) {
	store := setupTestStore(t)

	now := time.Now()
	err := store.InsertObservations([]model.PriceObservation{obs(now, 50), obs(now, 0)})
	require.ErrorIs(t, err, model.ErrInvalidPrice)

	// the valid entry of the rejected batch must not have been written
	got, err := store.ObservationsByRoute("ALC-KRK", model.LegOutbound, obs(now, 50).TravelDate, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStats(t *testing.T) {
	store := setupTestStore(t)

	now := time.Now().UTC()
	batch := []model.PriceObservation{
		obs(now.AddDate(0, 0, -2), 80),
		obs(now.AddDate(0, 0, -1), 100),
		obs(now, 120),
		// outside the 30-day window
		obs(now.AddDate(0, 0, -45), 10),
	}
	require.NoError(t, store.InsertObservations(batch))

	stats, err := store.Stats(batch[0].TravelDate, model.LegOutbound, "ALC-KRK", 30)
	require.NoError(t, err)
	require.NotNil(t, stats)

	assert.Equal(t, 3, stats.Count)
	assert.InDelta(t, 100.0, stats.Avg, 0.001)
	assert.Equal(t, 80.0, stats.Min)
	assert.Equal(t, 120.0, stats.Max)
}

func TestStatsAbsentWhenNoRows(t *testing.T) {
	store := setupTestStore(t)

	stats, err := store.Stats(time.Now(), model.LegOutbound, "ALC-KRK", 30)
	require.NoError(t, err)
	assert.Nil(t, stats)
}

func TestDeleteOlderThan(t *testing.T) {
	store := setupTestStore(t)

	now := time.Now().UTC()
	batch := []model.PriceObservation{
		obs(now.AddDate(0, 0, -100), 90),
		obs(now.AddDate(0, 0, -95), 91),
		obs(now, 92),
	}
	require.NoError(t, store.InsertObservations(batch))

	deleted, err := store.DeleteOlderThan(now.AddDate(0, 0, -90))
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	got, err := store.ObservationsByRoute("ALC-KRK", model.LegOutbound, batch[0].TravelDate, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 92.0, got[0].Price)
}

func TestSubscriberUpsert(t *testing.T) {
	store := setupTestStore(t)

	require.NoError(t, store.UpsertSubscriber(42, "first title"))
	require.NoError(t, store.UpsertSubscriber(42, "renamed"))
	require.NoError(t, store.UpsertSubscriber(7, ""))

	subs, err := store.Subscribers()
	require.NoError(t, err)
	require.Len(t, subs, 2)

	byID := map[int64]string{}
	for _, s := range subs {
		byID[s.ChatID] = s.ChatTitle
	}
	assert.Equal(t, "renamed", byID[42])
	assert.Contains(t, byID, int64(7))
}
