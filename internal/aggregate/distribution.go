package aggregate

import (
	"math"
	"sort"

	"github.com/KaramelBytes/punctuality-cli/internal/record"
)

// DelaySample is one defined arrival delay with its duration class.
type DelaySample struct {
	Row                int
	DurationClass      string
	AvgDelayDelayedMin float64
}

// DelaySamples returns the rows with a defined average delay of delayed
// trains, in table order.
func DelaySamples(t *record.Table) []DelaySample {
	if t.Len() == 0 {
		return nil
	}
	var out []DelaySample
	for i := range t.Records {
		r := &t.Records[i]
		if math.IsNaN(r.AvgDelayArrDelayed) {
			continue
		}
		out = append(out, DelaySample{Row: r.Row, DurationClass: r.DurationClass, AvgDelayDelayedMin: r.AvgDelayArrDelayed})
	}
	return out
}

// DelayStats describes the delay distribution of one duration class.
type DelayStats struct {
	DurationClass string
	Count         int
	Mean          float64
	Median        float64
	P90           float64
}

// DelayDistribution summarizes DelaySamples per duration class, short to long.
func DelayDistribution(t *record.Table) []DelayStats {
	byClass := map[string][]float64{}
	for _, s := range DelaySamples(t) {
		byClass[s.DurationClass] = append(byClass[s.DurationClass], s.AvgDelayDelayedMin)
	}
	if len(byClass) == 0 {
		return nil
	}
	classes := make([]string, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Slice(classes, func(i, j int) bool {
		ri, rj := classRank(classes[i]), classRank(classes[j])
		if ri != rj {
			return ri < rj
		}
		return classes[i] < classes[j]
	})
	out := make([]DelayStats, len(classes))
	for i, c := range classes {
		vals := sortedFloats(byClass[c])
		out[i] = DelayStats{
			DurationClass: c,
			Count:         len(vals),
			Mean:          NanMean(vals),
			Median:        Quantile(vals, 0.5),
			P90:           Quantile(vals, 0.9),
		}
	}
	return out
}
