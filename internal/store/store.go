package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"strom_dashboard/internal/fetch"
	"strom_dashboard/internal/ingest"
	"strom_dashboard/internal/model"
)

const (
	historyDir = "history"
	liveFile   = "strom.json"
)

// ErrNoDay is returned when no document exists for a day.
var ErrNoDay = errors.New("no readings for day")

// Files keeps readings on disk in the layout the meter reader produces:
// history/{YYYY-MM-DD}.json holds one JSON array per day and strom.json
// holds the most recent record.
type Files struct {
	mu     sync.RWMutex
	dir    string
	loc    *time.Location
	parser ingest.Parser
}

// NewFiles returns a store rooted at dir. Records are filed under the day
// of their timestamp in loc.
func NewFiles(dir string, loc *time.Location) *Files {
	if loc == nil {
		loc = time.Local
	}
	return &Files{dir: dir, loc: loc, parser: ingest.DayParser{}}
}

// Dir returns the root directory of the store.
func (f *Files) Dir() string {
	return f.dir
}

func (f *Files) dayFile(day string) string {
	return filepath.Join(f.dir, historyDir, day+".json")
}

func (f *Files) readRecords(day string) ([]model.LiveStatus, error) {
	body, err := os.ReadFile(f.dayFile(day))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", day, ErrNoDay)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", day, err)
	}
	return ingest.ParseRecords(body)
}

// Day returns the readings stored for day in persisted order.
func (f *Files) Day(day string) (model.DaySeries, error) {
	if !fetch.ValidDay(day) {
		return nil, fmt.Errorf("invalid day %q", day)
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	file, err := os.Open(f.dayFile(day))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", day, ErrNoDay)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", day, err)
	}
	defer file.Close()
	return f.parser.Parse(file)
}

// Records returns the full records of day including meter metadata.
func (f *Files) Records(day string) ([]model.LiveStatus, error) {
	if !fetch.ValidDay(day) {
		return nil, fmt.Errorf("invalid day %q", day)
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.readRecords(day)
}

// WriteDay replaces the document of day.
func (f *Files) WriteDay(day string, series model.DaySeries) error {
	if !fetch.ValidDay(day) {
		return fmt.Errorf("invalid day %q", day)
	}
	body, err := ingest.EncodeDay(series)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", day, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return writeAtomic(f.dayFile(day), body)
}

// Append stores rec as the live record and adds it to the document of its
// day. Records without a timestamp are rejected.
func (f *Files) Append(rec model.LiveStatus) error {
	if rec.Timestamp == nil {
		return errors.New("record has no timestamp")
	}
	day := model.DayKey(rec.Timestamp.In(f.loc))

	f.mu.Lock()
	defer f.mu.Unlock()

	records, err := f.readRecords(day)
	if err != nil && !errors.Is(err, ErrNoDay) {
		return err
	}
	records = append(records, rec)

	body, err := ingest.EncodeRecords(records)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", day, err)
	}
	if err := writeAtomic(f.dayFile(day), body); err != nil {
		return err
	}
	return f.writeLive(rec)
}

// WriteLive replaces the live record.
func (f *Files) WriteLive(rec model.LiveStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writeLive(rec)
}

func (f *Files) writeLive(rec model.LiveStatus) error {
	body, err := ingest.EncodeLive(rec)
	if err != nil {
		return fmt.Errorf("encoding live record: %w", err)
	}
	return writeAtomic(filepath.Join(f.dir, liveFile), body)
}

// Live returns the live record.
func (f *Files) Live() (model.LiveStatus, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	body, err := os.ReadFile(filepath.Join(f.dir, liveFile))
	if err != nil {
		return model.LiveStatus{}, fmt.Errorf("reading live record: %w", err)
	}
	return ingest.ParseLive(body)
}

// Days lists the days that have a document, oldest first.
func (f *Files) Days(_ context.Context) ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	entries, err := os.ReadDir(filepath.Join(f.dir, historyDir))
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}

	days := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		day, ok := strings.CutSuffix(e.Name(), ".json")
		if ok && fetch.ValidDay(day) {
			days = append(days, day)
		}
	}
	sort.Strings(days)
	return days, nil
}

// FetchDay implements fetch.Source.
func (f *Files) FetchDay(ctx context.Context, day string) (model.DaySeries, error) {
	if err := ctx.Err(); err != nil {
		return nil, &fetch.FetchError{Doc: day, Err: err}
	}
	series, err := f.Day(day)
	if err != nil {
		return nil, &fetch.FetchError{Doc: fetch.DayPath(day), Err: err}
	}
	return series, nil
}

// FetchLive implements fetch.Source.
func (f *Files) FetchLive(ctx context.Context) (model.LiveStatus, error) {
	if err := ctx.Err(); err != nil {
		return model.LiveStatus{}, &fetch.FetchError{Doc: liveFile, Err: err}
	}
	live, err := f.Live()
	if err != nil {
		return model.LiveStatus{}, &fetch.FetchError{Doc: "/" + liveFile, Err: err}
	}
	return live, nil
}

// writeAtomic writes data to a temp file next to path and renames it into
// place, so readers never observe a partial document.
func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming %s: %w", path, err)
	}
	return nil
}
