package dashboard

import (
	"fmt"
	"strconv"
	"time"

	"strom_dashboard/internal/model"
)

// Display texts.
const (
	TextNoData       = "no data available"
	TextUnknown      = "unknown"
	TextErrorLoading = "error loading"
)

const (
	trendLabelLayout = "15:04:05"
	lastUpdateLayout = "02.01.06 15:04:05"
)

// number renders v with the fewest digits that round-trip, so 845 stays
// "845" and 2.35 stays "2.35".
func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatPower renders an instantaneous power value, e.g. "845 W".
func FormatPower(w float64) string {
	return number(w) + " W"
}

// FormatTrendLabel renders the time of day of a reading in loc. Readings
// without a usable timestamp get an empty label.
func FormatTrendLabel(ts time.Time, loc *time.Location) string {
	if ts.IsZero() {
		return ""
	}
	return ts.In(loc).Format(trendLabelLayout)
}

// FormatEnergy renders a counter value with two decimals, e.g. "12.35 kWh".
func FormatEnergy(kwh float64) string {
	return fmt.Sprintf("%.2f kWh", kwh)
}

// FormatConsumption renders a day's consumption, or TextNoData when the
// day has no readings.
func FormatConsumption(series model.DaySeries, consumption float64) string {
	if len(series) == 0 {
		return TextNoData
	}
	return number(consumption) + " kWh"
}

// FormatLastUpdate renders the last-update line value.
func FormatLastUpdate(meta model.LiveMeta, err error, loc *time.Location) string {
	switch {
	case err != nil:
		return TextErrorLoading
	case meta.Timestamp == nil:
		return TextUnknown
	default:
		return meta.Timestamp.In(loc).Format(lastUpdateLayout)
	}
}

// FormatSerial renders the serial-number line value. It stays empty when the
// live document could not be loaded at all.
func FormatSerial(meta model.LiveMeta, err error) string {
	switch {
	case err != nil:
		return ""
	case meta.Seriennummer == nil || *meta.Seriennummer == "":
		return TextUnknown
	default:
		return *meta.Seriennummer
	}
}
