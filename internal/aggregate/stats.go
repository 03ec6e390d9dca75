package aggregate

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/punctuality-cli/internal/record"
)

// Quantile interpolates linearly between closest ranks of an ascending slice.
// It returns NaN for an empty slice.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// Defined returns the non-NaN values, in order.
func Defined(vals []float64) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// NanMean is the mean of the defined values, NaN when there are none.
func NanMean(vals []float64) float64 {
	d := Defined(vals)
	if len(d) == 0 {
		return math.NaN()
	}
	return stat.Mean(d, nil)
}

// PopStd is the population standard deviation of the defined values.
func PopStd(vals []float64) float64 {
	d := Defined(vals)
	if len(d) == 0 {
		return math.NaN()
	}
	_, std := stat.PopMeanStdDev(d, nil)
	return std
}

// Round rounds half away from zero to the given number of decimals. NaN is
// preserved.
func Round(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// RatePct is 100·num/den, NaN when den is not positive.
func RatePct(num, den float64) float64 {
	if den <= 0 {
		return math.NaN()
	}
	return num / den * 100
}

// OnTimePct is the share of circulated trains that were not late on arrival,
// clamped to [0,100]. NaN when nothing circulated.
func OnTimePct(circulated, lateArr int64) float64 {
	return clampPct(RatePct(float64(circulated-lateArr), float64(circulated)))
}

// CancelRatePct is Σcanceled/Σplanned in percent, clamped to [0,100].
func CancelRatePct(canceled, planned int64) float64 {
	return clampPct(RatePct(float64(canceled), float64(planned)))
}

func clampPct(v float64) float64 {
	if math.IsNaN(v) {
		return v
	}
	return math.Min(100, math.Max(0, v))
}

// wmean accumulates a weighted mean. Undefined values are skipped entirely.
type wmean struct{ num, den float64 }

func (m *wmean) add(v, w float64) {
	if math.IsNaN(v) || math.IsNaN(w) || w <= 0 {
		return
	}
	m.num += v * w
	m.den += w
}

func (m wmean) value() float64 {
	if m.den <= 0 {
		return math.NaN()
	}
	return m.num / m.den
}

// shareMean accumulates a weighted mean cause share where a missing share
// counts as zero but its weight still enters the denominator.
type shareMean struct{ num, den float64 }

func (m *shareMean) add(share, w float64) {
	if w <= 0 {
		return
	}
	if !math.IsNaN(share) {
		m.num += share * w
	}
	m.den += w
}

func (m shareMean) value() float64 {
	if m.den <= 0 {
		return math.NaN()
	}
	return m.num / m.den
}

// counts sums the volume fields of a group.
type counts struct {
	Rows       int
	Planned    int64
	Canceled   int64
	Circulated int64
	LateArr    int64
}

func (c *counts) add(r *record.Record) {
	c.Rows++
	c.Planned += r.Planned.Or(0)
	c.Canceled += r.Canceled.Or(0)
	c.Circulated += r.Circulated
	c.LateArr += r.LateArrCount.Or(0)
}

// modeCounter finds the most frequent non-empty value; ties go to the
// smallest value.
type modeCounter map[string]int

func (m modeCounter) add(s string) {
	if s != "" {
		m[s]++
	}
}

func (m modeCounter) mode() string {
	best, bestN := "", 0
	for k, n := range m {
		if n > bestN || (n == bestN && k < best) {
			best, bestN = k, n
		}
	}
	return best
}

// groupOrder collects record indexes per key, keys in first-appearance order.
func groupOrder(t *record.Table, key func(*record.Record) string) ([]string, map[string][]int) {
	var keys []string
	idx := make(map[string][]int)
	for i := range t.Records {
		k := key(&t.Records[i])
		if _, ok := idx[k]; !ok {
			keys = append(keys, k)
		}
		idx[k] = append(idx[k], i)
	}
	return keys, idx
}

// monthLabel renders the calendar month of a record.
func monthLabel(r *record.Record) string { return r.Date.Format(record.MonthLayout) }

// sortedFloats returns an ascending copy of the defined values.
func sortedFloats(vals []float64) []float64 {
	d := Defined(vals)
	sort.Float64s(d)
	return d
}

// LessNaNLast orders a before b, NaN last in either direction.
func LessNaNLast(a, b float64, descending bool) bool {
	an, bn := math.IsNaN(a), math.IsNaN(b)
	switch {
	case an && bn:
		return false
	case an:
		return false
	case bn:
		return true
	case descending:
		return a > b
	default:
		return a < b
	}
}

// Mode returns the most frequent non-empty value, ties to the smallest. Empty
// when there is none.
func Mode(vals []string) string {
	m := modeCounter{}
	for _, v := range vals {
		m.add(v)
	}
	return m.mode()
}
