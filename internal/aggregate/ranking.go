package aggregate

import (
	"sort"

	"github.com/KaramelBytes/punctuality-cli/internal/liaison"
	"github.com/KaramelBytes/punctuality-cli/internal/record"
)

// LiaisonStat aggregates one liaison key.
type LiaisonStat struct {
	Liaison string
	// Departure and Arrival are the canonical left and right stations in
	// bidirectional mode.
	Departure string
	Arrival   string

	Rows       int
	Planned    int64
	Canceled   int64
	Circulated int64
	LateArr    int64

	// AvgDelayDelayedMin is the unweighted mean across the group's rows.
	AvgDelayDelayedMin float64
	OnTimePct          float64
	CancelRatePct      float64
}

// Value returns the stat's value for a metric.
func (s LiaisonStat) Value(m Metric) float64 {
	switch m {
	case MetricAvgDelay:
		return s.AvgDelayDelayedMin
	case MetricCancelRate:
		return s.CancelRatePct
	default:
		return s.OnTimePct
	}
}

// Ranking is the sorted liaison list with its two ends.
type Ranking struct {
	Metric Metric
	All    []LiaisonStat
	// Head is the first N of All, Tail the last N.
	Head []LiaisonStat
	Tail []LiaisonStat
}

// groupLiaisons aggregates by liaison key in first-appearance order and also
// returns the record indexes of each group.
func groupLiaisons(t *record.Table, bidirectional bool) ([]LiaisonStat, [][]int) {
	if t.Len() == 0 {
		return nil, nil
	}
	keys, idx := groupOrder(t, func(r *record.Record) string {
		return liaison.Key(r.Departure, r.Arrival, bidirectional)
	})
	stats := make([]LiaisonStat, len(keys))
	members := make([][]int, len(keys))
	for g, k := range keys {
		var c counts
		delays := make([]float64, 0, len(idx[k]))
		for _, i := range idx[k] {
			r := &t.Records[i]
			c.add(r)
			delays = append(delays, r.AvgDelayArrDelayed)
		}
		first := &t.Records[idx[k][0]]
		dep, arr := first.Departure, first.Arrival
		if bidirectional {
			_, dep, arr = liaison.Normalize(dep, arr)
		}
		stats[g] = LiaisonStat{
			Liaison:            k,
			Departure:          dep,
			Arrival:            arr,
			Rows:               c.Rows,
			Planned:            c.Planned,
			Canceled:           c.Canceled,
			Circulated:         c.Circulated,
			LateArr:            c.LateArr,
			AvgDelayDelayedMin: NanMean(delays),
			OnTimePct:          OnTimePct(c.Circulated, c.LateArr),
			CancelRatePct:      CancelRatePct(c.Canceled, c.Planned),
		}
		members[g] = idx[k]
	}
	return stats, members
}

// Rank sorts liaisons by the metric: descending for on-time, ascending
// otherwise, undefined values last. Ties keep first-appearance order. Head
// therefore holds the best N liaisons and Tail the worst N.
func Rank(t *record.Table, m Metric, bidirectional bool, topN int) Ranking {
	stats, _ := groupLiaisons(t, bidirectional)
	desc := m == MetricOnTime
	sort.SliceStable(stats, func(i, j int) bool {
		return LessNaNLast(stats[i].Value(m), stats[j].Value(m), desc)
	})
	r := Ranking{Metric: m, All: stats}
	if topN <= 0 {
		topN = len(stats)
	}
	r.Head = stats[:min(topN, len(stats))]
	r.Tail = stats[max(0, len(stats)-topN):]
	return r
}

// LiaisonSummary is a ranking row plus representative labels and late rate.
type LiaisonSummary struct {
	LiaisonStat
	Service       string
	DurationClass string
	LateRatePct   float64
}

// Summarize aggregates every liaison key, sorted by key.
func Summarize(t *record.Table, bidirectional bool) []LiaisonSummary {
	stats, members := groupLiaisons(t, bidirectional)
	out := make([]LiaisonSummary, len(stats))
	for g, s := range stats {
		services, classes := modeCounter{}, modeCounter{}
		for _, i := range members[g] {
			services.add(t.Records[i].Service)
			classes.add(t.Records[i].DurationClass)
		}
		out[g] = LiaisonSummary{
			LiaisonStat:   s,
			Service:       services.mode(),
			DurationClass: classes.mode(),
			LateRatePct:   RatePct(float64(s.LateArr), float64(s.Circulated)),
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Liaison < out[j].Liaison })
	if len(out) == 0 {
		return nil
	}
	return out
}
