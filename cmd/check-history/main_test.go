package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strom_dashboard/internal/fetch"
	"strom_dashboard/internal/model"
	"strom_dashboard/internal/store"
)

var cest = time.FixedZone("CEST", 2*60*60)

func writeDay(t *testing.T, f *store.Files, day string, bezug ...float64) {
	t.Helper()
	start, err := time.ParseInLocation("2006-01-02", day, cest)
	require.NoError(t, err)
	series := make(model.DaySeries, len(bezug))
	for i, b := range bezug {
		series[i] = model.Reading{Timestamp: start.Add(time.Duration(i+1) * time.Hour), Bezug: b}
	}
	require.NoError(t, f.WriteDay(day, series))
}

func TestCollect(t *testing.T) {
	f := store.NewFiles(t.TempDir(), cest)
	writeDay(t, f, "2025-04-07", 10, 12.5)
	writeDay(t, f, "2025-04-08", 12.5)
	writeDay(t, f, "2025-04-09", 12.5, 13, 14.75)

	days, err := f.Days(context.Background())
	require.NoError(t, err)

	got := collect(context.Background(), fetch.NewLoader(f), days, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "2025-04-07", got[0].Date)
	assert.InDelta(t, 2.5, got[0].KWh, 0.001)
	assert.Equal(t, "2025-04-09", got[1].Date)
	assert.InDelta(t, 2.25, got[1].KWh, 0.001)
	assert.Equal(t, 3, got[1].Samples)
}

func TestAnalyze(t *testing.T) {
	days := []dayStats{
		{Date: "2025-04-01", KWh: 5},
		{Date: "2025-04-02", KWh: 5},
		{Date: "2025-04-03", KWh: 5},
		{Date: "2025-04-04", KWh: 5},
		{Date: "2025-04-05", KWh: 5},
		{Date: "2025-04-06", KWh: 5},
		{Date: "2025-04-07", KWh: 5},
		{Date: "2025-04-08", KWh: 25},
		{Date: "2025-04-09", KWh: -3},
	}

	r := analyze(days, 2)
	assert.InDelta(t, 7.5, r.Mean, 0.001)
	require.Len(t, r.Flagged, 2)

	assert.Equal(t, "2025-04-08", r.Flagged[0].Date)
	assert.Equal(t, "HIGH", r.Flagged[0].Category)
	assert.Equal(t, "Very high usage, guests or appliance fault?", r.Flagged[0].Cause)

	assert.Equal(t, "2025-04-09", r.Flagged[1].Date)
	assert.Equal(t, "RESET", r.Flagged[1].Category)
}

func TestAnalyze_UniformDaysFlagNothing(t *testing.T) {
	r := analyze([]dayStats{{KWh: 4}, {KWh: 4}, {KWh: 4}}, 2)
	assert.InDelta(t, 4, r.Mean, 0.001)
	assert.Zero(t, r.StdDev)
	assert.Empty(t, r.Flagged)
}

func TestInferCause(t *testing.T) {
	assert.Equal(t, "Above-normal consumption", inferCause(dayStats{Category: "HIGH", DeviationPct: 40}))
	assert.Equal(t, "No consumption recorded, reader stalled?", inferCause(dayStats{Category: "LOW", DeviationPct: -100}))
	assert.Equal(t, "Very low usage, away from home?", inferCause(dayStats{Category: "LOW", KWh: 1, DeviationPct: -80}))
	assert.Equal(t, "Below-normal consumption", inferCause(dayStats{Category: "LOW", KWh: 3, DeviationPct: -30}))
}
