package aggregate

import (
	"sort"
	"time"

	"github.com/KaramelBytes/punctuality-cli/internal/record"
)

// KPI is the headline snapshot over a whole filtered view.
type KPI struct {
	Rows       int
	Planned    int64
	Canceled   int64
	Circulated int64
	LateArr    int64

	OnTimePct     float64
	CancelRatePct float64
	// AvgDelayDelayedMin is weighted by late arrivals.
	AvgDelayDelayedMin float64
}

// Snapshot computes the KPIs over the totals of the view, never as a mean of
// per-row rates.
func Snapshot(t *record.Table) KPI {
	var c counts
	var delay wmean
	if t != nil {
		for i := range t.Records {
			r := &t.Records[i]
			c.add(r)
			delay.add(r.AvgDelayArrDelayed, float64(r.LateArrCount.Or(0)))
		}
	}
	return KPI{
		Rows:               c.Rows,
		Planned:            c.Planned,
		Canceled:           c.Canceled,
		Circulated:         c.Circulated,
		LateArr:            c.LateArr,
		OnTimePct:          OnTimePct(c.Circulated, c.LateArr),
		CancelRatePct:      CancelRatePct(c.Canceled, c.Planned),
		AvgDelayDelayedMin: delay.value(),
	}
}

// MonthPoint is one month of the series.
type MonthPoint struct {
	Month              time.Time
	Label              string
	Circulated         int64
	LateArr            int64
	OnTimePct          float64
	CancelRatePct      float64
	AvgDelayDelayedMin float64
}

// Value returns the point's value for a metric.
func (p MonthPoint) Value(m Metric) float64 {
	switch m {
	case MetricAvgDelay:
		return p.AvgDelayDelayedMin
	case MetricCancelRate:
		return p.CancelRatePct
	default:
		return p.OnTimePct
	}
}

// Monthly groups by calendar month, ascending. Months without rows are absent.
func Monthly(t *record.Table) []MonthPoint {
	if t.Len() == 0 {
		return nil
	}
	keys, idx := groupOrder(t, monthLabel)
	sort.Strings(keys)
	out := make([]MonthPoint, 0, len(keys))
	for _, k := range keys {
		var c counts
		var delay wmean
		for _, i := range idx[k] {
			r := &t.Records[i]
			c.add(r)
			delay.add(r.AvgDelayArrDelayed, float64(r.LateArrCount.Or(0)))
		}
		out = append(out, MonthPoint{
			Month:              t.Records[idx[k][0]].Date,
			Label:              k,
			Circulated:         c.Circulated,
			LateArr:            c.LateArr,
			OnTimePct:          OnTimePct(c.Circulated, c.LateArr),
			CancelRatePct:      CancelRatePct(c.Canceled, c.Planned),
			AvgDelayDelayedMin: delay.value(),
		})
	}
	return out
}

// DurationPoint is the on-time rate of one duration class in one month.
type DurationPoint struct {
	Month         string
	DurationClass string
	Circulated    int64
	OnTimePct     float64
}

// ByDuration groups by (month, duration class), ordered by month then class.
func ByDuration(t *record.Table) []DurationPoint {
	if t.Len() == 0 {
		return nil
	}
	type key struct{ month, class string }
	acc := make(map[key]*counts)
	var keys []key
	for i := range t.Records {
		r := &t.Records[i]
		k := key{monthLabel(r), r.DurationClass}
		c, ok := acc[k]
		if !ok {
			c = &counts{}
			acc[k] = c
			keys = append(keys, k)
		}
		c.add(r)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		if keys[i].month != keys[j].month {
			return keys[i].month < keys[j].month
		}
		return classRank(keys[i].class) < classRank(keys[j].class)
	})
	out := make([]DurationPoint, len(keys))
	for i, k := range keys {
		c := acc[k]
		out[i] = DurationPoint{
			Month:         k.month,
			DurationClass: k.class,
			Circulated:    c.Circulated,
			OnTimePct:     OnTimePct(c.Circulated, c.LateArr),
		}
	}
	return out
}

// classRank orders duration classes short to long, unknown last.
func classRank(c string) int {
	for i, d := range record.DurationClasses {
		if c == d {
			return i
		}
	}
	return len(record.DurationClasses)
}
