package main

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strom_dashboard/internal/aggregate"
	"strom_dashboard/internal/store"
)

func TestMeter_CountersNeverDecrease(t *testing.T) {
	m := newMeter("1FAKE", 100, rand.New(rand.NewSource(1)))
	start := time.Date(2025, 4, 9, 0, 0, 0, 0, time.UTC)

	prev := m.bezug
	for i := range 24 * 12 {
		rec := m.next(start.Add(time.Duration(i)*5*time.Minute), 5*time.Minute)
		assert.GreaterOrEqual(t, rec.Bezug, prev)
		assert.GreaterOrEqual(t, rec.Leistung, 0.0)
		prev = rec.Bezug
	}
	// A day of household load is a few kWh.
	assert.InDelta(t, 110, prev, 9)
}

func TestMeter_EveningPeak(t *testing.T) {
	m := newMeter("1FAKE", 0, rand.New(rand.NewSource(1)))
	night := m.power(time.Date(2025, 4, 9, 3, 0, 0, 0, time.UTC))
	evening := m.power(time.Date(2025, 4, 9, 19, 0, 0, 0, time.UTC))
	assert.Greater(t, evening, night+800)
}

func TestMeter_RecordMetadata(t *testing.T) {
	m := newMeter("1FAKE", 0, rand.New(rand.NewSource(1)))
	rec := m.next(time.Date(2025, 4, 9, 12, 0, 0, 0, time.UTC), time.Minute)

	require.NotNil(t, rec.Seriennummer)
	assert.Equal(t, "1FAKE", *rec.Seriennummer)
	require.NotNil(t, rec.Timestamp)
	require.NotNil(t, rec.Zaehlername)
}

func TestMeter_Backfill(t *testing.T) {
	files := store.NewFiles(t.TempDir(), time.UTC)
	m := newMeter("1FAKE", 500, rand.New(rand.NewSource(7)))
	start := time.Date(2025, 4, 8, 22, 0, 0, 0, time.UTC)

	n, err := m.backfill(files, start, start.Add(4*time.Hour), 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	days, err := files.Days(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-04-08", "2025-04-09"}, days)

	today, err := files.Day("2025-04-09")
	require.NoError(t, err)
	assert.Len(t, today, 4)
	assert.Positive(t, aggregate.Consumption(today))

	live, err := files.Live()
	require.NoError(t, err)
	assert.Equal(t, today[3].Bezug, live.Bezug)

	_, err = m.backfill(files, start, start.Add(time.Hour), 0)
	assert.Error(t, err)
}
