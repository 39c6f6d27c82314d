// Package aggregate derives day figures from persisted readings.
package aggregate

import (
	"github.com/shopspring/decimal"

	"strom_dashboard/internal/model"
)

// Consumption returns the net energy drawn over the series, in kWh rounded
// to two decimals: last bezug minus first bezug. Fewer than two readings
// yield 0. Readings between the first and the last are not consulted, and
// a counter that went backwards produces a negative value.
func Consumption(series model.DaySeries) float64 {
	if len(series) < 2 {
		return 0
	}
	return delta(series[0].Bezug, series[len(series)-1].Bezug)
}

// FeedIn is Consumption for the einspeisung counter.
func FeedIn(series model.DaySeries) float64 {
	if len(series) < 2 {
		return 0
	}
	return delta(series[0].Einspeisung, series[len(series)-1].Einspeisung)
}

// Anomalous reports whether the bezug counter decreased over the series.
func Anomalous(series model.DaySeries) bool {
	if len(series) < 2 {
		return false
	}
	return series[len(series)-1].Bezug < series[0].Bezug
}

// Endstand returns the highest bezug reading of the series, or 0.
func Endstand(series model.DaySeries) float64 {
	var top float64
	for i, r := range series {
		if i == 0 || r.Bezug > top {
			top = r.Bezug
		}
	}
	return top
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// delta subtracts in decimal so that the shortest representations of the
// counter values are what gets rounded, e.g. 12.345 - 10.00 = 2.35.
func delta(first, last float64) float64 {
	f, _ := decimal.NewFromFloat(last).Sub(decimal.NewFromFloat(first)).Round(2).Float64()
	return f
}
