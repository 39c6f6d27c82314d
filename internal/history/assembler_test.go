package history

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strom_dashboard/internal/model"
)

// fakeLoader serves canned series and sleeps a random amount to shuffle
// completion order.
type fakeLoader struct {
	mu     sync.Mutex
	days   map[string]model.DaySeries
	calls  map[string]int
	jitter bool
}

func (f *fakeLoader) Load(_ context.Context, day string) model.DaySeries {
	if f.jitter {
		time.Sleep(time.Duration(rand.Intn(5)) * time.Millisecond)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[day]++
	if s, ok := f.days[day]; ok {
		return s
	}
	return model.DaySeries{}
}

func bezug(values ...float64) model.DaySeries {
	series := make(model.DaySeries, len(values))
	for i, v := range values {
		series[i] = model.Reading{Bezug: v, Leistung: float64(100 * (i + 1))}
	}
	return series
}

var ref = time.Date(2025, 4, 9, 14, 30, 0, 0, time.UTC)

func TestAssembler_Days(t *testing.T) {
	a := NewAssembler(&fakeLoader{}, time.UTC)

	assert.Equal(t, []string{
		"2025-04-03", "2025-04-04", "2025-04-05", "2025-04-06",
		"2025-04-07", "2025-04-08", "2025-04-09",
	}, a.Days(ref))
}

func TestAssembler_DaysAcrossMonthAndYear(t *testing.T) {
	a := NewAssembler(&fakeLoader{}, time.UTC)

	days := a.Days(time.Date(2025, 1, 2, 0, 5, 0, 0, time.UTC))

	assert.Equal(t, "2024-12-27", days[0])
	assert.Equal(t, "2025-01-02", days[6])
}

func TestAssembler_DaysUseLocation(t *testing.T) {
	cest := time.FixedZone("CEST", 2*60*60)
	a := NewAssembler(&fakeLoader{}, cest)

	// 22:30 UTC is already the next day in CEST.
	days := a.Days(time.Date(2025, 4, 9, 22, 30, 0, 0, time.UTC))

	assert.Equal(t, "2025-04-10", days[6])
}

func TestAssembler_DaysAcrossBerlinDST(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	a := NewAssembler(&fakeLoader{}, berlin)

	tests := []struct {
		name      string
		ref       time.Time
		first     string
		yesterday string
		today     string
	}{
		// 2025-03-30 has 23 hours
		{"late on spring-forward day", time.Date(2025, 3, 30, 21, 30, 0, 0, time.UTC), "2025-03-24", "2025-03-29", "2025-03-30"},
		{"just after spring-forward day", time.Date(2025, 3, 30, 22, 30, 0, 0, time.UTC), "2025-03-25", "2025-03-30", "2025-03-31"},
		{"right after the clocks jump", time.Date(2025, 3, 30, 1, 30, 0, 0, time.UTC), "2025-03-24", "2025-03-29", "2025-03-30"},
		// 2025-10-26 has 25 hours
		{"late on fall-back day", time.Date(2025, 10, 26, 22, 45, 0, 0, time.UTC), "2025-10-20", "2025-10-25", "2025-10-26"},
		{"just after fall-back day", time.Date(2025, 10, 26, 23, 15, 0, 0, time.UTC), "2025-10-21", "2025-10-26", "2025-10-27"},
		{"repeated hour", time.Date(2025, 10, 26, 1, 15, 0, 0, time.UTC), "2025-10-20", "2025-10-25", "2025-10-26"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			days := a.Days(tt.ref)
			require.Len(t, days, WindowDays)
			assert.Equal(t, tt.first, days[0])
			assert.Equal(t, tt.yesterday, days[5])
			assert.Equal(t, tt.today, days[6])

			res := a.Assemble(context.Background(), tt.ref)
			assert.Equal(t, tt.today, res.TodayKey)
			assert.Equal(t, tt.yesterday, res.YesterdayKey)
			assert.Equal(t, days, res.History.Labels())
		})
	}
}

func TestAssembler_Assemble(t *testing.T) {
	loader := &fakeLoader{
		jitter: true,
		days: map[string]model.DaySeries{
			"2025-04-09": bezug(10.00, 12.345),
			"2025-04-08": bezug(5, 6, 7),
			"2025-04-05": bezug(1, 4.5),
		},
	}
	a := NewAssembler(loader, time.UTC)

	res := a.Assemble(context.Background(), ref)

	assert.Equal(t, "2025-04-09", res.TodayKey)
	assert.Equal(t, "2025-04-08", res.YesterdayKey)
	assert.Len(t, res.Today, 2)
	assert.Len(t, res.Yesterday, 3)

	require.Len(t, res.History, WindowDays)
	assert.Equal(t, model.HistoryWindow{
		{Day: "2025-04-03", Consumption: 0},
		{Day: "2025-04-04", Consumption: 0},
		{Day: "2025-04-05", Consumption: 3.5},
		{Day: "2025-04-06", Consumption: 0},
		{Day: "2025-04-07", Consumption: 0},
		{Day: "2025-04-08", Consumption: 2},
		{Day: "2025-04-09", Consumption: 2.35},
	}, res.History)
}

func TestAssembler_OrderStableUnderConcurrency(t *testing.T) {
	loader := &fakeLoader{jitter: true, days: map[string]model.DaySeries{}}
	a := NewAssembler(loader, time.UTC)
	for i, day := range a.Days(ref) {
		loader.days[day] = bezug(0, float64(i+1))
	}

	for range 20 {
		res := a.Assemble(context.Background(), ref)
		assert.Equal(t, []float64{1, 2, 3, 4, 5, 6, 7}, res.History.Values())
		assert.Equal(t, a.Days(ref), res.History.Labels())
	}
}

func TestAssembler_FailedDayIsIsolated(t *testing.T) {
	loader := &fakeLoader{days: map[string]model.DaySeries{
		"2025-04-05": bezug(1, 2),
		// 2025-04-06 cannot be loaded
		"2025-04-07": bezug(3, 5),
	}}
	a := NewAssembler(loader, time.UTC)

	res := a.Assemble(context.Background(), ref)

	assert.Equal(t, 1.0, res.History[2].Consumption)
	assert.Equal(t, 0.0, res.History[3].Consumption)
	assert.Equal(t, 2.0, res.History[4].Consumption)
}

func TestAssembler_LoadsEveryDay(t *testing.T) {
	loader := &fakeLoader{}
	a := NewAssembler(loader, time.UTC)

	a.Assemble(context.Background(), ref)

	for _, day := range a.Days(ref) {
		assert.Positive(t, loader.calls[day], day)
	}
	// today and yesterday are loaded on their own as well as in the window
	assert.Equal(t, 2, loader.calls["2025-04-09"])
	assert.Equal(t, 2, loader.calls["2025-04-08"])
}

func TestAssembler_EmptyEverywhere(t *testing.T) {
	a := NewAssembler(&fakeLoader{}, time.UTC)

	res := a.Assemble(context.Background(), ref)

	assert.Empty(t, res.Today)
	assert.Empty(t, res.Yesterday)
	assert.Equal(t, make([]float64, WindowDays), res.History.Values())
}
