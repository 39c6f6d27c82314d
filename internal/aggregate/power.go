package aggregate

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"strom_dashboard/internal/model"
)

// PowerStats summarizes the leistung samples of a day, in W.
type PowerStats struct {
	Max     float64 `json:"max"`
	Min     float64 `json:"min"`
	Avg     float64 `json:"avg"`
	Samples int     `json:"samples"`
}

// Power computes max, min and mean leistung. The mean is rounded to two
// decimals. An empty series yields the zero value.
func Power(series model.DaySeries) PowerStats {
	if len(series) == 0 {
		return PowerStats{}
	}
	values := make([]float64, len(series))
	for i, r := range series {
		values[i] = r.Leistung
	}
	return PowerStats{
		Max:     floats.Max(values),
		Min:     floats.Min(values),
		Avg:     Round2(stat.Mean(values, nil)),
		Samples: len(values),
	}
}
