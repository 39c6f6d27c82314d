// Command check-history scans stored day documents and flags days whose
// consumption deviates from the rest or whose bezug counter went backwards.
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"gonum.org/v1/gonum/stat"

	"strom_dashboard/internal/aggregate"
	"strom_dashboard/internal/fetch"
	"strom_dashboard/internal/log"
	"strom_dashboard/internal/store"
)

type dayStats struct {
	Date         string
	KWh          float64
	FeedIn       float64
	Samples      int
	DeviationPct float64
	Category     string
	Cause        string
}

type report struct {
	Days    []dayStats
	Mean    float64
	StdDev  float64
	Flagged []dayStats
}

func main() {
	dataDir := flag.String("data-dir", "data", "directory containing history/")
	sigma := flag.Float64("sigma", 2.0, "standard deviation threshold for flagging days")
	minSamples := flag.Int("min-samples", 2, "minimum readings for a day to be considered")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	if err := log.Init(*debug); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()
	files := store.NewFiles(*dataDir, time.Local)
	days, err := files.Days(ctx)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if len(days) == 0 {
		log.Fatalf("No day documents under %s", *dataDir)
	}

	all := collect(ctx, fetch.NewLoader(files), days, *minSamples)
	if len(all) == 0 {
		fmt.Println("No days with sufficient data found.")
		return
	}
	printReport(analyze(all, *sigma))
}

// collect computes the figures of every day that has at least minSamples
// readings.
func collect(ctx context.Context, loader *fetch.Loader, days []string, minSamples int) []dayStats {
	var out []dayStats
	for _, day := range days {
		series := loader.Load(ctx, day)
		if len(series) < minSamples {
			log.Debugf("Skipping %s: %d readings", day, len(series))
			continue
		}
		out = append(out, dayStats{
			Date:    day,
			KWh:     aggregate.Consumption(series),
			FeedIn:  aggregate.FeedIn(series),
			Samples: len(series),
		})
	}
	return out
}

// analyze flags counter resets and days further than sigma standard
// deviations from the mean consumption.
func analyze(days []dayStats, sigma float64) report {
	values := make([]float64, 0, len(days))
	for _, d := range days {
		if d.KWh >= 0 {
			values = append(values, d.KWh)
		}
	}

	r := report{Days: days}
	if len(values) > 0 {
		r.Mean, r.StdDev = stat.PopMeanStdDev(values, nil)
	}

	for _, d := range days {
		if r.Mean > 0 {
			d.DeviationPct = (d.KWh - r.Mean) / r.Mean * 100
		}
		switch {
		case d.KWh < 0:
			d.Category = "RESET"
			d.Cause = "Counter went backwards, meter swapped or reset?"
		case r.StdDev > 0 && math.Abs(d.KWh-r.Mean) > sigma*r.StdDev:
			if d.KWh > r.Mean {
				d.Category = "HIGH"
			} else {
				d.Category = "LOW"
			}
			d.Cause = inferCause(d)
		default:
			continue
		}
		r.Flagged = append(r.Flagged, d)
	}
	return r
}

func inferCause(d dayStats) string {
	if d.Category == "HIGH" {
		if d.DeviationPct > 100 {
			return "Very high usage, guests or appliance fault?"
		}
		return "Above-normal consumption"
	}
	if d.KWh == 0 {
		return "No consumption recorded, reader stalled?"
	}
	if d.DeviationPct < -50 {
		return "Very low usage, away from home?"
	}
	return "Below-normal consumption"
}

func printReport(r report) {
	fmt.Println()
	fmt.Println("History Check")
	fmt.Printf("  Data: %s to %s (%d days)\n", r.Days[0].Date, r.Days[len(r.Days)-1].Date, len(r.Days))
	fmt.Printf("  Mean consumption: %.2f kWh\n", r.Mean)
	fmt.Printf("  Std deviation:    %.2f kWh\n", r.StdDev)
	fmt.Printf("  Flagged days: %d (%.1f%%)\n", len(r.Flagged), 100*float64(len(r.Flagged))/float64(len(r.Days)))
	fmt.Println()

	if len(r.Flagged) == 0 {
		fmt.Println("  No anomalous days detected.")
		return
	}

	fmt.Printf("  %-12s │ %8s │ %8s │ %8s │ %7s │ %5s │ %s\n",
		"Date", "Bezug", "Einsp.", "Dev %", "Samples", "Type", "Possible Cause")
	fmt.Printf("  ─────────────┼──────────┼──────────┼──────────┼─────────┼───────┼─────────────────────\n")
	for _, d := range r.Flagged {
		fmt.Printf("  %-12s │ %7.2f  │ %7.2f  │ %+7.1f  │ %7d │ %5s │ %s\n",
			d.Date, d.KWh, d.FeedIn, d.DeviationPct, d.Samples, d.Category, d.Cause)
	}
	fmt.Println()
}
