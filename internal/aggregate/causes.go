package aggregate

import (
	"math"
	"sort"

	"github.com/KaramelBytes/punctuality-cli/internal/record"
)

// CauseShare is one (group, cause) cell of a composition view.
type CauseShare struct {
	Group    string
	Cause    string
	SharePct float64
}

// causeAcc holds the weighted share accumulators of one group.
type causeAcc [record.NumCauses]shareMean

func (a *causeAcc) add(r *record.Record) {
	w := float64(r.LateArrCount.Or(0))
	for _, c := range record.Causes {
		a[c].add(r.Causes[c], w)
	}
}

func (a *causeAcc) values() [record.NumCauses]float64 {
	var out [record.NumCauses]float64
	for _, c := range record.Causes {
		out[c] = a[c].value()
	}
	return out
}

// renormalize scales the defined shares to sum to 100. A zero or undefined
// sum leaves every share undefined.
func renormalize(v [record.NumCauses]float64) [record.NumCauses]float64 {
	var sum float64
	for _, x := range v {
		if !math.IsNaN(x) {
			sum += x
		}
	}
	var out [record.NumCauses]float64
	for i, x := range v {
		if sum == 0 || math.IsNaN(x) {
			out[i] = math.NaN()
			continue
		}
		out[i] = x / sum * 100
	}
	return out
}

// causesByKey accumulates weighted shares per key, keys in first-appearance
// order.
func causesByKey(t *record.Table, key func(*record.Record) string) ([]string, map[string]*causeAcc) {
	keys, idx := groupOrder(t, key)
	acc := make(map[string]*causeAcc, len(keys))
	for _, k := range keys {
		a := &causeAcc{}
		for _, i := range idx[k] {
			a.add(&t.Records[i])
		}
		acc[k] = a
	}
	return keys, acc
}

// topByVolume returns up to n directed liaisons by circulated volume,
// descending. Ties keep first-appearance order. n <= 0 keeps every liaison.
func topByVolume(t *record.Table, n int) []string {
	keys, idx := groupOrder(t, func(r *record.Record) string { return r.Liaison })
	vol := make(map[string]int64, len(keys))
	for _, k := range keys {
		for _, i := range idx[k] {
			vol[k] += t.Records[i].Circulated
		}
	}
	sort.SliceStable(keys, func(i, j int) bool { return vol[keys[i]] > vol[keys[j]] })
	if n > 0 && n < len(keys) {
		keys = keys[:n]
	}
	return keys
}

// Composition is the late-arrival weighted mean share of each cause per group.
// Months are ascending; liaisons are the top N directed liaisons by volume,
// in volume order. Shares are not renormalized.
func Composition(t *record.Table, b Breakdown, topN int) []CauseShare {
	if t.Len() == 0 || !t.HasCauses() {
		return nil
	}
	var groups []string
	var acc map[string]*causeAcc
	if b == ByLiaison {
		_, acc = causesByKey(t, func(r *record.Record) string { return r.Liaison })
		groups = topByVolume(t, topN)
	} else {
		groups, acc = causesByKey(t, monthLabel)
		sort.Strings(groups)
	}
	out := make([]CauseShare, 0, len(groups)*int(record.NumCauses))
	for _, g := range groups {
		vals := acc[g].values()
		for _, c := range record.Causes {
			if !t.Has(c.Column()) {
				continue
			}
			out = append(out, CauseShare{Group: g, Cause: c.LongLabel(), SharePct: vals[c]})
		}
	}
	return out
}

// MonthlyPivot is the month × cause seasonality table: weighted shares
// renormalized to 100 per month.
func MonthlyPivot(t *record.Table) []CauseShare {
	if t.Len() == 0 || !t.HasCauses() {
		return nil
	}
	months, acc := causesByKey(t, monthLabel)
	sort.Strings(months)
	var out []CauseShare
	for _, m := range months {
		vals := renormalize(presentOnly(t, acc[m].values()))
		for _, c := range record.Causes {
			if t.Has(c.Column()) {
				out = append(out, CauseShare{Group: m, Cause: c.Label(), SharePct: vals[c]})
			}
		}
	}
	return out
}

// ByAttribute breaks causes down by service or duration class, renormalized
// to 100 per group with undefined shares reported as 0. Groups are sorted.
func ByAttribute(t *record.Table, attr record.Column) []CauseShare {
	if attr != record.ColService && attr != record.ColDurationClass {
		return nil
	}
	if t.Len() == 0 || !t.HasCauses() || !t.Has(attr) {
		return nil
	}
	groups, acc := causesByKey(t, func(r *record.Record) string {
		s, _ := r.Text(attr)
		return s
	})
	sort.Strings(groups)
	var out []CauseShare
	for _, g := range groups {
		vals := renormalize(presentOnly(t, acc[g].values()))
		for _, c := range record.Causes {
			if !t.Has(c.Column()) {
				continue
			}
			v := vals[c]
			if math.IsNaN(v) {
				v = 0
			}
			out = append(out, CauseShare{Group: g, Cause: c.Label(), SharePct: v})
		}
	}
	return out
}

// presentOnly blanks causes whose column is absent from the source.
func presentOnly(t *record.Table, v [record.NumCauses]float64) [record.NumCauses]float64 {
	for _, c := range record.Causes {
		if !t.Has(c.Column()) {
			v[c] = math.NaN()
		}
	}
	return v
}

// SevereCount is the severity bucket total of one group.
type SevereCount struct {
	Group string
	Count int64
}

// SevereCounts sums a severity bucket per month or per liaison. Liaisons are
// limited to the top N by volume. Rows are sorted by count, descending.
func SevereCounts(t *record.Table, b Breakdown, bucket record.Bucket, topN int) []SevereCount {
	if t.Len() == 0 || !t.Has(bucket.Column()) {
		return nil
	}
	key := monthLabel
	if b == ByLiaison {
		key = func(r *record.Record) string { return r.Liaison }
	}
	keys, idx := groupOrder(t, key)
	if b == ByLiaison {
		keys = topByVolume(t, topN)
	} else {
		sort.Strings(keys)
	}
	out := make([]SevereCount, 0, len(keys))
	for _, k := range keys {
		var n int64
		for _, i := range idx[k] {
			n += t.Records[i].Severe(bucket).Or(0)
		}
		out = append(out, SevereCount{Group: k, Count: n})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}
