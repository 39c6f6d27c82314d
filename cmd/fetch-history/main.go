// Command fetch-history mirrors day documents from a meter backend into a
// local data directory, so the dashboard can run against a files source.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"time"

	"github.com/joho/godotenv"

	"strom_dashboard/internal/fetch"
	"strom_dashboard/internal/log"
	"strom_dashboard/internal/model"
	"strom_dashboard/internal/store"
)

func main() {
	urlFlag := flag.String("url", "", "meter backend base URL (overrides STROM_BACKEND_URL)")
	days := flag.Int("days", 7, "number of days to mirror, ending today")
	output := flag.String("output", "data", "local data directory")
	delay := flag.Duration("delay", 200*time.Millisecond, "pause between requests")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	_ = godotenv.Load()

	if err := log.Init(*debug); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	baseURL := resolveFlag(*urlFlag, "STROM_BACKEND_URL")
	if baseURL == "" {
		log.Fatalf("STROM_BACKEND_URL not set, use -url or set it in .env")
	}
	if *days < 1 {
		log.Fatalf("-days must be at least 1")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := fetch.NewClient(baseURL, 30*time.Second)
	files := store.NewFiles(*output, time.Local)

	existing, err := files.Days(ctx)
	if err != nil {
		log.Fatalf("listing local days: %v", err)
	}

	wanted := daysToFetch(existing, time.Now(), *days)
	log.Infof("Mirroring %d of %d days from %s into %s", len(wanted), *days, baseURL, *output)

	res, err := mirror(ctx, client, files, wanted, *delay)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if live, err := client.FetchLive(ctx); err == nil {
		if err := files.WriteLive(live); err != nil {
			log.Warnf("writing live document: %v", err)
		}
	} else {
		log.Warnf("live document: %v", err)
	}

	log.Infof("Wrote %d days (%d readings), %d days missing upstream", res.Written, res.Readings, res.Missing)
}

func resolveFlag(flagVal, envKey string) string {
	if flagVal != "" {
		return flagVal
	}
	return os.Getenv(envKey)
}

// daysToFetch returns the last n days ending at now, oldest first, minus the
// ones already mirrored. Today and yesterday are always refetched because
// the meter may still have been writing to them.
func daysToFetch(existing []string, now time.Time, n int) []string {
	noon := time.Date(now.Year(), now.Month(), now.Day(), 12, 0, 0, 0, now.Location())
	recent := map[string]bool{
		model.DayKey(noon):                   true,
		model.DayKey(noon.AddDate(0, 0, -1)): true,
	}

	var days []string
	for i := n - 1; i >= 0; i-- {
		day := model.DayKey(noon.AddDate(0, 0, -i))
		if recent[day] || !slices.Contains(existing, day) {
			days = append(days, day)
		}
	}
	return days
}

type mirrorResult struct {
	Written  int
	Readings int
	Missing  int
}

// mirror copies each day from src to dst. Days the backend does not have are
// counted and skipped; any other failure aborts.
func mirror(ctx context.Context, src fetch.Source, dst *store.Files, days []string, delay time.Duration) (mirrorResult, error) {
	var res mirrorResult
	for i, day := range days {
		series, err := src.FetchDay(ctx, day)
		var fe *fetch.FetchError
		switch {
		case errors.As(err, &fe) && fe.StatusCode == http.StatusNotFound:
			log.Debugf("  %s: not on backend", day)
			res.Missing++
			continue
		case err != nil:
			return res, fmt.Errorf("fetching %s: %w", day, err)
		}

		if err := dst.WriteDay(day, series); err != nil {
			return res, fmt.Errorf("writing %s: %w", day, err)
		}
		res.Written++
		res.Readings += len(series)
		log.Infof("  %s: %d readings", day, len(series))

		if delay > 0 && i < len(days)-1 {
			select {
			case <-ctx.Done():
				return res, ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return res, nil
}
