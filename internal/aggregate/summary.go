package aggregate

import (
	"github.com/shopspring/decimal"

	"strom_dashboard/internal/model"
)

// Summary describes a history window.
//
// Highest covers every day of the window. Lowest and Average leave out the
// reference day, which is still in progress, and days with zero
// consumption, which cannot be told apart from days without data.
type Summary struct {
	Highest *model.HistoryEntry `json:"highest,omitempty"`
	Lowest  *model.HistoryEntry `json:"lowest,omitempty"`
	Average float64             `json:"average"`
	Total   float64             `json:"total"`
	Days    int                 `json:"days"`
}

// Summarize computes the window statistics relative to the day label today.
func Summarize(window model.HistoryWindow, today string) Summary {
	var s Summary
	total := decimal.Zero
	completed := decimal.Zero

	for i := range window {
		e := window[i]
		total = total.Add(decimal.NewFromFloat(e.Consumption))
		if s.Highest == nil || e.Consumption > s.Highest.Consumption {
			s.Highest = &e
		}
		if e.Day == today || e.Consumption == 0 {
			continue
		}
		if s.Lowest == nil || e.Consumption < s.Lowest.Consumption {
			s.Lowest = &e
		}
		completed = completed.Add(decimal.NewFromFloat(e.Consumption))
		s.Days++
	}

	s.Total, _ = total.Round(2).Float64()
	if s.Days > 0 {
		s.Average, _ = completed.Div(decimal.NewFromInt(int64(s.Days))).Round(2).Float64()
	}
	return s
}
