// Package dashboard runs the retrieval and aggregation pipeline and turns
// its result into the values the dashboard displays.
package dashboard

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"strom_dashboard/internal/aggregate"
	"strom_dashboard/internal/history"
	"strom_dashboard/internal/log"
	"strom_dashboard/internal/model"
	"strom_dashboard/internal/status"
)

// Loader is what the pipeline needs from the data source. *fetch.Loader
// implements it.
type Loader interface {
	history.DayLoader
	Live(ctx context.Context) (model.LiveStatus, error)
}

// Options configure a Pipeline.
type Options struct {
	Location      *time.Location
	GaugeCeilingW float64
}

// Series is a labelled chart series.
type Series struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// DayTotals describes one day on the dashboard.
type DayTotals struct {
	Day         string               `json:"day"`
	Available   bool                 `json:"available"`
	Consumption float64              `json:"consumption"`
	Text        string               `json:"text"`
	FeedIn      float64              `json:"feedIn"`
	Power       aggregate.PowerStats `json:"power"`
}

// ViewModel is everything one dashboard render needs. Every part is filled
// independently; a missing source only affects its own fields.
type ViewModel struct {
	GeneratedAt time.Time `json:"generatedAt"`

	Status          model.CurrentStatus `json:"status"`
	LeistungText    string              `json:"leistungText"`
	BezugText       string              `json:"bezugText"`
	EinspeisungText string              `json:"einspeisungText"`
	Gauge           *status.GaugeValue  `json:"gauge"`

	Trend  Series `json:"trend"`
	Weekly Series `json:"weekly"`

	Today     DayTotals         `json:"today"`
	Yesterday DayTotals         `json:"yesterday"`
	Summary   aggregate.Summary `json:"summary"`

	LastUpdateText string `json:"lastUpdateText"`
	SerialText     string `json:"serialText"`
}

// Pipeline performs one linear run per call: fetch, aggregate, project,
// format. It keeps no state between runs.
type Pipeline struct {
	loader    Loader
	assembler *history.Assembler
	loc       *time.Location
	ceiling   float64
	now       func() time.Time
}

func NewPipeline(loader Loader, opts Options) *Pipeline {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	ceiling := opts.GaugeCeilingW
	if ceiling <= 0 {
		ceiling = status.DefaultCeilingW
	}
	return &Pipeline{
		loader:    loader,
		assembler: history.NewAssembler(loader, loc),
		loc:       loc,
		ceiling:   ceiling,
		now:       time.Now,
	}
}

// Now returns the current time in the pipeline's location.
func (p *Pipeline) Now() time.Time {
	return p.now().In(p.loc)
}

// Location returns the location day keys are derived in.
func (p *Pipeline) Location() *time.Location {
	return p.loc
}

// Run assembles the dashboard for the day of ref. The live document is
// fetched alongside the day series.
func (p *Pipeline) Run(ctx context.Context, ref time.Time) ViewModel {
	var (
		res     history.Result
		live    model.LiveStatus
		liveErr error
	)

	var g errgroup.Group
	g.Go(func() error {
		res = p.assembler.Assemble(ctx, ref)
		return nil
	})
	g.Go(func() error {
		live, liveErr = p.loader.Live(ctx)
		return nil
	})
	_ = g.Wait()

	if liveErr != nil {
		log.Debugf("live document unavailable: %v", liveErr)
	}

	vm := ViewModel{
		GeneratedAt: p.now(),
		Weekly:      Series{Labels: res.History.Labels(), Values: res.History.Values()},
		Today:       p.totals(res.TodayKey, res.Today),
		Yesterday:   p.totals(res.YesterdayKey, res.Yesterday),
		Summary:     aggregate.Summarize(res.History, res.TodayKey),
	}
	p.fillStatus(&vm, res.Today)

	meta := live.Meta()
	vm.LastUpdateText = FormatLastUpdate(meta, liveErr, p.loc)
	vm.SerialText = FormatSerial(meta, liveErr)
	return vm
}

func (p *Pipeline) fillStatus(vm *ViewModel, today model.DaySeries) {
	vm.Status = status.Project(today)
	vm.Trend = Series{Labels: []string{}, Values: []float64{}}

	if !vm.Status.Available {
		vm.LeistungText = TextNoData
		vm.BezugText = TextNoData
		vm.EinspeisungText = TextNoData
		return
	}

	vm.LeistungText = FormatPower(vm.Status.Leistung)
	vm.BezugText = FormatEnergy(vm.Status.Bezug)
	vm.EinspeisungText = FormatEnergy(vm.Status.Einspeisung)
	g := status.Gauge(vm.Status.Leistung, p.ceiling)
	vm.Gauge = &g

	for _, r := range today {
		vm.Trend.Labels = append(vm.Trend.Labels, FormatTrendLabel(r.Timestamp, p.loc))
		vm.Trend.Values = append(vm.Trend.Values, r.Leistung)
	}
}

func (p *Pipeline) totals(day string, series model.DaySeries) DayTotals {
	consumption := aggregate.Consumption(series)
	return DayTotals{
		Day:         day,
		Available:   len(series) > 0,
		Consumption: consumption,
		Text:        FormatConsumption(series, consumption),
		FeedIn:      aggregate.FeedIn(series),
		Power:       aggregate.Power(series),
	}
}
