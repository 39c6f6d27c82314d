// Command fake-meter writes synthetic meter readings into a data directory
// in the layout of the real meter reader: history/{day}.json and strom.json.
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"strom_dashboard/internal/log"
	"strom_dashboard/internal/model"
	"strom_dashboard/internal/store"
)

func main() {
	dataDir := flag.String("data-dir", "data", "output data directory")
	interval := flag.Duration("interval", 5*time.Second, "time between readings")
	backfill := flag.Duration("backfill", 0, "write readings for this much past time before starting")
	count := flag.Int("count", 0, "stop after this many live readings (0 = run until interrupted)")
	serial := flag.String("serial", "1FAKE0000000001", "meter serial number")
	startBezug := flag.Float64("bezug", 10000, "initial bezug counter in kWh")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	if err := log.Init(*debug); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	files := store.NewFiles(*dataDir, time.Local)
	m := newMeter(*serial, *startBezug, rand.New(rand.NewSource(*seed)))

	if *backfill > 0 {
		n, err := m.backfill(files, time.Now().Add(-*backfill), time.Now(), *interval)
		if err != nil {
			log.Fatalf("backfill: %v", err)
		}
		log.Infof("Backfilled %d readings", n)
	}

	log.Infof("Writing a reading every %s to %s", *interval, *dataDir)
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	written := 0
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			log.Infof("Stopped after %d readings", written)
			return
		case now := <-ticker.C:
			rec := m.next(now, now.Sub(last))
			last = now
			if err := files.Append(rec); err != nil {
				log.Errorf("appending reading: %v", err)
				continue
			}
			written++
			log.Debugf("leistung=%.0f W bezug=%.4f kWh", rec.Leistung, rec.Bezug)
			if *count > 0 && written >= *count {
				return
			}
		}
	}
}

// meter simulates a household load with a daily profile and noise. The
// counters integrate the drawn power, so bezug never decreases.
type meter struct {
	serial      string
	name        string
	bezug       float64
	einspeisung float64
	rng         *rand.Rand
}

func newMeter(serial string, bezug float64, rng *rand.Rand) *meter {
	return &meter{serial: serial, name: "fake-meter", bezug: bezug, rng: rng}
}

// power returns the demand in W at t: a base load, a morning and an evening
// peak, and noise.
func (m *meter) power(t time.Time) float64 {
	h := float64(t.Hour()) + float64(t.Minute())/60
	w := 180.0
	w += 900 * math.Exp(-math.Pow(h-7.5, 2)/2)
	w += 1400 * math.Exp(-math.Pow(h-19, 2)/3)
	w += m.rng.NormFloat64() * 60
	return math.Max(0, math.Round(w))
}

// next produces the reading at t, dt after the previous one.
func (m *meter) next(t time.Time, dt time.Duration) model.LiveStatus {
	w := m.power(t)
	m.bezug += w * dt.Hours() / 1000
	// Rounded the way the reader reports the register.
	m.bezug = math.Round(m.bezug*1e4) / 1e4

	ts := t
	serial, name := m.serial, m.name
	return model.LiveStatus{
		Timestamp:    &ts,
		Seriennummer: &serial,
		Zaehlername:  &name,
		Leistung:     w,
		Bezug:        m.bezug,
		Einspeisung:  m.einspeisung,
	}
}

// backfill appends readings from start to end at interval.
func (m *meter) backfill(files *store.Files, start, end time.Time, interval time.Duration) (int, error) {
	if interval <= 0 {
		return 0, fmt.Errorf("interval must be positive, got %s", interval)
	}
	n := 0
	for t := start; t.Before(end); t = t.Add(interval) {
		if err := files.Append(m.next(t, interval)); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
