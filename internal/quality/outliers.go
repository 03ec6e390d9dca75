package quality

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/punctuality-cli/internal/aggregate"
	"github.com/KaramelBytes/punctuality-cli/internal/record"
)

// Method selects the outlier rule.
type Method string

const (
	MethodIQR Method = "iqr"
	MethodZ   Method = "z"
)

// ParseMethod accepts "iqr" or "z", case-insensitively.
func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(s))) {
	case MethodIQR:
		return MethodIQR, nil
	case MethodZ, "zscore", "z-score":
		return MethodZ, nil
	}
	return "", fmt.Errorf("unknown outlier method %q", s)
}

// Outlier is a liaison month that is a low outlier against the liaison's own
// history.
type Outlier struct {
	Month     string
	Liaison   string
	OnTimePct float64
}

type liaisonMonth struct {
	month string
	value float64
}

// OutlierMonths averages the row on-time rate per (liaison, month) and flags,
// per liaison, the months below Q1 − k·IQR (iqr) or with z < −k (z, population
// standard deviation). A liaison whose history holds a single distinct value
// is never flagged. Results are sorted by month, then liaison.
func OutlierMonths(t *record.Table, method Method, threshold float64) []Outlier {
	if t.Len() == 0 {
		return nil
	}
	type key struct{ liaison, month string }
	sums := map[key][]float64{}
	var keys []key
	for i := range t.Records {
		r := &t.Records[i]
		if r.Circulated <= 0 || !r.LateArrCount.Valid {
			continue
		}
		v := float64(r.Circulated-r.LateArrCount.V) / float64(r.Circulated) * 100
		k := key{r.Liaison, r.Date.Format(record.MonthLayout)}
		if _, ok := sums[k]; !ok {
			keys = append(keys, k)
		}
		sums[k] = append(sums[k], v)
	}

	history := map[string][]liaisonMonth{}
	var liaisons []string
	for _, k := range keys {
		if _, ok := history[k.liaison]; !ok {
			liaisons = append(liaisons, k.liaison)
		}
		history[k.liaison] = append(history[k.liaison], liaisonMonth{k.month, aggregate.NanMean(sums[k])})
	}

	var out []Outlier
	for _, l := range liaisons {
		h := history[l]
		vals := make([]float64, len(h))
		for i, p := range h {
			vals[i] = p.value
		}
		if distinct(vals) <= 1 {
			continue
		}
		flag := lowerFence(vals, method, threshold)
		for i, p := range h {
			if flag(vals[i]) {
				out = append(out, Outlier{Month: p.month, Liaison: l, OnTimePct: p.value})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Month != out[j].Month {
			return out[i].Month < out[j].Month
		}
		return out[i].Liaison < out[j].Liaison
	})
	return out
}

// lowerFence returns the predicate of the chosen rule over one history.
func lowerFence(vals []float64, method Method, k float64) func(float64) bool {
	if method == MethodZ {
		mean, std := stat.PopMeanStdDev(vals, nil)
		return func(v float64) bool { return (v-mean)/(std+1e-9) < -k }
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	q1 := aggregate.Quantile(sorted, 0.25)
	q3 := aggregate.Quantile(sorted, 0.75)
	lower := q1 - k*(q3-q1+1e-9)
	return func(v float64) bool { return v < lower }
}

func distinct(vals []float64) int {
	seen := map[float64]bool{}
	for _, v := range vals {
		if !math.IsNaN(v) {
			seen[v] = true
		}
	}
	return len(seen)
}
