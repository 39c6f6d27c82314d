package model

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// DayFormat is the layout of calendar-day keys used for history documents.
const DayFormat = "2006-01-02"

// timestampLayouts are tried in order. The meter reader writes ISO 8601
// with offset; older documents carry local time without one.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// parseTimestamp decodes a JSON timestamp value. Null, blank, non-string
// and unparseable values report false.
func parseTimestamp(raw json.RawMessage) (time.Time, bool) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}, false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Reading is one persisted meter sample.
type Reading struct {
	Timestamp   time.Time `json:"timestamp"`
	Leistung    float64   `json:"leistung"`    // W
	Bezug       float64   `json:"bezug"`       // kWh, cumulative
	Einspeisung float64   `json:"einspeisung"` // kWh, cumulative
}

// UnmarshalJSON leaves Timestamp zero when the document's timestamp is
// missing or unreadable; the values of the reading are still used.
func (r *Reading) UnmarshalJSON(data []byte) error {
	type plain Reading
	aux := struct {
		*plain
		Timestamp json.RawMessage `json:"timestamp"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.Timestamp, _ = parseTimestamp(aux.Timestamp)
	return nil
}

// DaySeries holds the readings of one calendar day in persisted order.
// It is never re-sorted.
type DaySeries []Reading

// Last returns the final reading of the series.
func (s DaySeries) Last() (Reading, bool) {
	if len(s) == 0 {
		return Reading{}, false
	}
	return s[len(s)-1], true
}

// HistoryEntry pairs a day label with that day's net consumption.
type HistoryEntry struct {
	Day         string  `json:"day"`
	Consumption float64 `json:"consumption"`
}

// HistoryWindow is ordered oldest day first.
type HistoryWindow []HistoryEntry

// Labels returns the day labels of the window.
func (w HistoryWindow) Labels() []string {
	labels := make([]string, len(w))
	for i, e := range w {
		labels[i] = e.Day
	}
	return labels
}

// Values returns the consumption values of the window.
func (w HistoryWindow) Values() []float64 {
	values := make([]float64, len(w))
	for i, e := range w {
		values[i] = e.Consumption
	}
	return values
}

// CurrentStatus is the live projection of today's last reading.
// Available is false when today has no readings; the zero values are then
// meaningless and must not be displayed.
type CurrentStatus struct {
	Available   bool    `json:"available"`
	Leistung    float64 `json:"leistung"`
	Bezug       float64 `json:"bezug"`
	Einspeisung float64 `json:"einspeisung"`
}

// NoData marks the absence of readings for today.
var NoData = CurrentStatus{}

// LiveStatus is the document written by the meter reader on every sample.
// Optional keys stay nil when absent.
type LiveStatus struct {
	Timestamp    *time.Time `json:"timestamp,omitempty"`
	Seriennummer *string    `json:"seriennummer,omitempty"`
	Zaehlername  *string    `json:"zaehlername,omitempty"`
	Leistung     float64    `json:"leistung"`
	Bezug        float64    `json:"bezug"`
	Einspeisung  float64    `json:"einspeisung"`
}

// UnmarshalJSON maps a missing, blank or unreadable timestamp to nil so
// that the remaining fields of the document stay usable.
func (l *LiveStatus) UnmarshalJSON(data []byte) error {
	type plain LiveStatus
	aux := struct {
		*plain
		Timestamp json.RawMessage `json:"timestamp"`
	}{plain: (*plain)(l)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	l.Timestamp = nil
	if t, ok := parseTimestamp(aux.Timestamp); ok {
		l.Timestamp = &t
	}
	return nil
}

// LiveMeta is the subset of LiveStatus shown on the status line.
type LiveMeta struct {
	Timestamp    *time.Time
	Seriennummer *string
}

// Meta extracts the status-line metadata.
func (l LiveStatus) Meta() LiveMeta {
	return LiveMeta{Timestamp: l.Timestamp, Seriennummer: l.Seriennummer}
}

// DayKey formats t as a calendar-day key in t's location.
func DayKey(t time.Time) string {
	return t.Format(DayFormat)
}

// ParseDay parses a calendar-day key in loc.
func ParseDay(day string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DayFormat, day, loc)
}
