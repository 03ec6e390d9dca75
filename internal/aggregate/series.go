package aggregate

import "math"

// Momentum summarizes the recent shape of a monthly series.
type Momentum struct {
	Metric Metric
	Months int

	Low, High           float64
	LowMonth, HighMonth string

	// Last12 needs 12 defined months, Prev12 needs 24.
	Last12     float64
	Prev12     float64
	Delta12    float64
	Volatility float64
	// ShareAtOrAbove90 is the share of the last 12 months at or above 90 %
	// on-time. Only defined for the on-time metric.
	ShareAtOrAbove90 float64
}

// Trend reads the monthly series for one metric. Months where the metric is
// undefined are skipped.
func Trend(points []MonthPoint, m Metric) Momentum {
	mo := Momentum{
		Metric: m,
		Low:    math.NaN(), High: math.NaN(),
		Last12: math.NaN(), Prev12: math.NaN(), Delta12: math.NaN(),
		Volatility: math.NaN(), ShareAtOrAbove90: math.NaN(),
	}
	var vals []float64
	var labels []string
	for _, p := range points {
		v := p.Value(m)
		if math.IsNaN(v) {
			continue
		}
		vals = append(vals, v)
		labels = append(labels, p.Label)
	}
	mo.Months = len(vals)
	if len(vals) == 0 {
		return mo
	}
	for i, v := range vals {
		if math.IsNaN(mo.Low) || v < mo.Low {
			mo.Low, mo.LowMonth = v, labels[i]
		}
		if math.IsNaN(mo.High) || v > mo.High {
			mo.High, mo.HighMonth = v, labels[i]
		}
	}

	n := len(vals)
	last := vals[max(0, n-12):]
	if n >= 12 {
		mo.Last12 = NanMean(last)
		mo.Volatility = PopStd(last)
	}
	if n >= 24 {
		mo.Prev12 = NanMean(vals[n-24 : n-12])
		mo.Delta12 = mo.Last12 - mo.Prev12
	}
	if m == MetricOnTime {
		above := 0
		for _, v := range last {
			if v >= 90 {
				above++
			}
		}
		mo.ShareAtOrAbove90 = float64(above) / float64(len(last)) * 100
	}
	return mo
}
