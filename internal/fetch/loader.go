// Package fetch retrieves day documents and the live status document.
//
// Sources report failures as *FetchError. Loader sits on top of a Source and
// turns every failure into an empty series, so code above it only ever sees
// data or no data.
package fetch

import (
	"context"
	"fmt"
	"time"

	"strom_dashboard/internal/model"
)

// Source retrieves the persisted documents of the meter backend.
type Source interface {
	FetchDay(ctx context.Context, day string) (model.DaySeries, error)
	FetchLive(ctx context.Context) (model.LiveStatus, error)
}

// FetchError describes why a document could not be retrieved.
// StatusCode is zero when no HTTP response was received.
type FetchError struct {
	Doc        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s: HTTP %d: %v", e.Doc, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetching %s: %v", e.Doc, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ValidDay reports whether day is a YYYY-MM-DD calendar date.
func ValidDay(day string) bool {
	if len(day) != len(model.DayFormat) {
		return false
	}
	_, err := model.ParseDay(day, time.UTC)
	return err == nil
}

// Loader is the total day loader used by the dashboard pipeline.
type Loader struct {
	source Source
}

func NewLoader(source Source) *Loader {
	return &Loader{source: source}
}

// Load returns the readings of day, or an empty series on any failure.
func (l *Loader) Load(ctx context.Context, day string) model.DaySeries {
	if !ValidDay(day) {
		return model.DaySeries{}
	}
	series, err := l.source.FetchDay(ctx, day)
	if err != nil || series == nil {
		return model.DaySeries{}
	}
	return series
}

// Live returns the live status document. Unlike Load it reports failure,
// because the status line distinguishes "unknown" from "error loading".
func (l *Loader) Live(ctx context.Context) (model.LiveStatus, error) {
	return l.source.FetchLive(ctx)
}
