package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"strom_dashboard/internal/model"
)

// DayParser parses a history day document: a JSON array of readings.
//
// Expected format:
//
//	[{"timestamp":"2025-04-09T00:00:41+02:00","leistung":312,"bezug":10231.2,"einspeisung":1.5}, ...]
type DayParser struct{}

func (DayParser) Parse(r io.Reader) (model.DaySeries, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading day document: %w", err)
	}
	return ParseDay(body)
}

// ParseDay decodes a day document held in memory. A JSON null or an empty
// body yields an empty series; anything but an array is an error.
func ParseDay(body []byte) (model.DaySeries, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return model.DaySeries{}, nil
	}
	if trimmed[0] != '[' {
		return nil, fmt.Errorf("day document: expected JSON array, got %q", truncate(trimmed, 32))
	}

	var series model.DaySeries
	if err := json.Unmarshal(trimmed, &series); err != nil {
		return nil, fmt.Errorf("decoding day document: %w", err)
	}
	return series, nil
}

// ParseLive decodes the live status document.
func ParseLive(body []byte) (model.LiveStatus, error) {
	var live model.LiveStatus
	if err := json.Unmarshal(body, &live); err != nil {
		return model.LiveStatus{}, fmt.Errorf("decoding live document: %w", err)
	}
	return live, nil
}

// EncodeDay renders a day document the way the meter reader writes it.
func EncodeDay(series model.DaySeries) ([]byte, error) {
	if series == nil {
		series = model.DaySeries{}
	}
	return json.MarshalIndent(series, "", "  ")
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// ParseRecords decodes a day document keeping the per-sample metadata the
// meter reader stores alongside each reading (serial number, meter name).
func ParseRecords(body []byte) ([]model.LiveStatus, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var records []model.LiveStatus
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, fmt.Errorf("decoding day records: %w", err)
	}
	return records, nil
}

// EncodeRecords renders full records as a day document.
func EncodeRecords(records []model.LiveStatus) ([]byte, error) {
	if records == nil {
		records = []model.LiveStatus{}
	}
	return json.MarshalIndent(records, "", "  ")
}

// EncodeLive renders the live status document.
func EncodeLive(live model.LiveStatus) ([]byte, error) {
	return json.MarshalIndent(live, "", "  ")
}
