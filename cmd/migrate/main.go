// Command migrate imports history day documents into the SQLite database
// used by the sqlite source.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"strom_dashboard/internal/fetch"
	"strom_dashboard/internal/log"
	"strom_dashboard/internal/store"
)

func main() {
	dataDir := flag.String("data-dir", "data", "directory containing history/")
	dbPath := flag.String("db", "data/strom.sqlite", "SQLite database path")
	day := flag.String("day", "", "import only this day (YYYY-MM-DD)")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	if err := log.Init(*debug); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()
	files := store.NewFiles(*dataDir, time.Local)

	days, err := selectDays(ctx, files, *day)
	if err != nil {
		log.Fatalf("%v", err)
	}

	db, err := store.OpenSQLite(*dbPath)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer db.Close()

	total, err := migrate(ctx, files, db, days)
	if err != nil {
		log.Fatalf("%v", err)
	}
	log.Infof("Imported %d readings from %d days into %s", total, len(days), *dbPath)
}

func selectDays(ctx context.Context, files *store.Files, day string) ([]string, error) {
	if day == "" {
		return files.Days(ctx)
	}
	if !fetch.ValidDay(day) {
		return nil, fmt.Errorf("invalid -day %q, want YYYY-MM-DD", day)
	}
	return []string{day}, nil
}

// migrate imports every given day and returns the number of new readings.
func migrate(ctx context.Context, files *store.Files, db *store.SQLite, days []string) (int, error) {
	total := 0
	for _, day := range days {
		records, err := files.Records(day)
		if err != nil {
			return total, fmt.Errorf("reading %s: %w", day, err)
		}
		n, err := db.Import(ctx, records)
		if err != nil {
			return total, fmt.Errorf("importing %s: %w", day, err)
		}
		log.Infof("  %s: %d of %d readings new", day, n, len(records))
		total += n
	}
	return total, nil
}
