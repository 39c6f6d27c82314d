// Package history assembles the day series and the consumption window that
// make up one dashboard run.
package history

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"strom_dashboard/internal/aggregate"
	"strom_dashboard/internal/model"
)

// WindowDays is the length of the consumption window, including the
// reference day.
const WindowDays = 7

// DayLoader returns the readings of a day and never fails; a day that
// cannot be loaded is empty.
type DayLoader interface {
	Load(ctx context.Context, day string) model.DaySeries
}

// Result is the outcome of one assembly.
type Result struct {
	TodayKey     string
	YesterdayKey string
	Today        model.DaySeries
	Yesterday    model.DaySeries
	History      model.HistoryWindow
}

// Assembler loads today, yesterday and the window days concurrently.
type Assembler struct {
	loader DayLoader
	loc    *time.Location
	days   int
}

// NewAssembler creates an assembler that derives day keys in loc.
func NewAssembler(loader DayLoader, loc *time.Location) *Assembler {
	if loc == nil {
		loc = time.Local
	}
	return &Assembler{loader: loader, loc: loc, days: WindowDays}
}

// Days returns the keys of the window ending at ref, oldest first.
func (a *Assembler) Days(ref time.Time) []string {
	// Anchor at noon so calendar arithmetic never lands in a DST gap.
	r := ref.In(a.loc)
	noon := time.Date(r.Year(), r.Month(), r.Day(), 12, 0, 0, 0, a.loc)

	keys := make([]string, a.days)
	for i := range keys {
		keys[i] = model.DayKey(noon.AddDate(0, 0, i-(a.days-1)))
	}
	return keys
}

// Assemble loads the series of ref's day and the day before, and pairs each
// window day with its consumption. Window entries are ordered oldest first
// regardless of the order in which loads complete.
func (a *Assembler) Assemble(ctx context.Context, ref time.Time) Result {
	days := a.Days(ref)
	res := Result{
		TodayKey:     days[len(days)-1],
		YesterdayKey: days[len(days)-2],
		History:      make(model.HistoryWindow, len(days)),
	}

	var g errgroup.Group
	g.Go(func() error {
		res.Today = a.loader.Load(ctx, res.TodayKey)
		return nil
	})
	g.Go(func() error {
		res.Yesterday = a.loader.Load(ctx, res.YesterdayKey)
		return nil
	})
	for i, day := range days {
		g.Go(func() error {
			series := a.loader.Load(ctx, day)
			res.History[i] = model.HistoryEntry{Day: day, Consumption: aggregate.Consumption(series)}
			return nil
		})
	}
	// Loaders do not fail.
	_ = g.Wait()

	return res
}
