// Package status projects the current meter state out of today's readings.
package status

import "strom_dashboard/internal/model"

// DefaultCeilingW is the gauge ceiling used when none is configured.
const DefaultCeilingW = 5000

// Project returns the values of the last reading of today, or model.NoData
// when today has no readings. Values are passed through unformatted.
func Project(today model.DaySeries) model.CurrentStatus {
	last, ok := today.Last()
	if !ok {
		return model.NoData
	}
	return model.CurrentStatus{
		Available:   true,
		Leistung:    last.Leistung,
		Bezug:       last.Bezug,
		Einspeisung: last.Einspeisung,
	}
}

// GaugeValue splits the gauge into the drawn power and the rest up to the
// ceiling. Remaining is not clamped: it goes negative and Overflow is set
// when leistung exceeds the ceiling.
type GaugeValue struct {
	Value     float64 `json:"value"`
	Remaining float64 `json:"remaining"`
	Ceiling   float64 `json:"ceiling"`
	Overflow  bool    `json:"overflow"`
}

// Gauge builds the gauge for leistung against ceiling.
func Gauge(leistung, ceiling float64) GaugeValue {
	return GaugeValue{
		Value:     leistung,
		Remaining: ceiling - leistung,
		Ceiling:   ceiling,
		Overflow:  leistung > ceiling,
	}
}
