package quality

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/punctuality-cli/internal/record"
)

// KeyColumns form the natural key of a record; the quadruple is expected to be
// unique.
var KeyColumns = []record.Column{record.ColDate, record.ColService, record.ColDeparture, record.ColArrival}

// Missing is the missingness of one column.
type Missing struct {
	Column string
	Count  int
	Pct    float64
}

// Missingness counts missing values per column, canonical columns first and
// unmapped source columns after. Sorted by percentage, descending.
func Missingness(t *record.Table) []Missing {
	n := t.Len()
	if n == 0 {
		return nil
	}
	var out []Missing
	for _, c := range t.Columns() {
		miss := 0
		for i := range t.Records {
			if t.Records[i].Missing(c) {
				miss++
			}
		}
		out = append(out, Missing{Column: string(c), Count: miss, Pct: pct(miss, n)})
	}
	for j, name := range t.Extra {
		miss := 0
		for i := range t.Records {
			if extraCell(&t.Records[i], j) == "" {
				miss++
			}
		}
		out = append(out, Missing{Column: name, Count: miss, Pct: pct(miss, n)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Pct > out[j].Pct })
	return out
}

// MonthMissing is the missing share of one column in one month.
type MonthMissing struct {
	Month  string
	Column string
	Pct    float64
}

// MissingByMonth breaks missingness down by calendar month, months ascending
// and columns in schema order.
func MissingByMonth(t *record.Table) []MonthMissing {
	if t.Len() == 0 {
		return nil
	}
	byMonth := map[string][]int{}
	var months []string
	for i := range t.Records {
		m := t.Records[i].Date.Format(record.MonthLayout)
		if _, ok := byMonth[m]; !ok {
			months = append(months, m)
		}
		byMonth[m] = append(byMonth[m], i)
	}
	sort.Strings(months)
	cols := t.Columns()
	out := make([]MonthMissing, 0, len(months)*len(cols))
	for _, m := range months {
		idx := byMonth[m]
		for _, c := range cols {
			miss := 0
			for _, i := range idx {
				if t.Records[i].Missing(c) {
					miss++
				}
			}
			out = append(out, MonthMissing{Month: m, Column: string(c), Pct: pct(miss, len(idx))})
		}
	}
	return out
}

func pct(n, of int) float64 {
	return math.Round(float64(n)/float64(of)*100*100) / 100
}

func extraCell(r *record.Record, j int) string {
	if j < len(r.Extra) {
		return r.Extra[j]
	}
	return ""
}

// DuplicateGroup is a natural key held by more than one row.
type DuplicateGroup struct {
	Date      string
	Service   string
	Departure string
	Arrival   string
	Count     int
	Rows      []int
}

// DuplicateKeys reports every natural key shared by more than one row, by
// count descending.
func DuplicateKeys(t *record.Table) []DuplicateGroup {
	if t.Len() == 0 {
		return nil
	}
	groups := map[string]*DuplicateGroup{}
	var order []string
	for i := range t.Records {
		r := &t.Records[i]
		parts := make([]string, len(KeyColumns))
		for k, c := range KeyColumns {
			parts[k] = r.Format(c)
		}
		key := strings.Join(parts, "\x00")
		g, ok := groups[key]
		if !ok {
			g = &DuplicateGroup{Date: parts[0], Service: parts[1], Departure: parts[2], Arrival: parts[3]}
			groups[key] = g
			order = append(order, key)
		}
		g.Count++
		g.Rows = append(g.Rows, r.Row)
	}
	var out []DuplicateGroup
	for _, k := range order {
		if g := groups[k]; g.Count > 1 {
			out = append(out, *g)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// FullDuplicates returns the row ids of rows identical to another row on every
// column, in table order.
func FullDuplicates(t *record.Table) []int {
	if t.Len() == 0 {
		return nil
	}
	cols := t.Columns()
	keys := make([]string, t.Len())
	seen := map[string]int{}
	for i := range t.Records {
		r := &t.Records[i]
		var b strings.Builder
		for _, c := range cols {
			b.WriteString(r.Format(c))
			b.WriteByte(0)
		}
		for j := range t.Extra {
			b.WriteString(extraCell(r, j))
			b.WriteByte(0)
		}
		keys[i] = b.String()
		seen[keys[i]]++
	}
	var out []int
	for i, k := range keys {
		if seen[k] > 1 {
			out = append(out, t.Records[i].Row)
		}
	}
	return out
}

// BoundsIssue is one out-of-range value.
type BoundsIssue struct {
	Row    int
	Column string
	Issue  string
	Value  float64
}

// countColumns are the count-like columns that must be non-negative.
func countColumns(t *record.Table) []record.Column {
	seen := map[record.Column]bool{}
	var out []record.Column
	add := func(c record.Column) {
		if t.Has(c) && !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	for _, c := range t.Columns() {
		if strings.HasSuffix(string(c), "_count") {
			add(c)
		}
	}
	for _, c := range []record.Column{record.ColPlanned, record.ColCanceled, record.ColCirculated, record.ColLateArrCount} {
		add(c)
	}
	return out
}

// BoundsIssues checks that percentages lie in [0,100], counts are non-negative
// and durations are strictly positive.
func BoundsIssues(t *record.Table) []BoundsIssue {
	if t.Len() == 0 {
		return nil
	}
	var pcts []record.Column
	for _, c := range t.Columns() {
		if strings.HasPrefix(string(c), "pct_") {
			pcts = append(pcts, c)
		}
	}
	counts := countColumns(t)
	hasDuration := t.Has(record.ColAvgDurationMin)

	var out []BoundsIssue
	for i := range t.Records {
		r := &t.Records[i]
		for _, c := range pcts {
			if v, ok := r.Number(c); ok && (v < 0 || v > 100) {
				out = append(out, BoundsIssue{Row: r.Row, Column: string(c), Issue: fmt.Sprintf("%s outside [0,100]", c), Value: v})
			}
		}
		for _, c := range counts {
			if v, ok := r.Number(c); ok && v < 0 {
				out = append(out, BoundsIssue{Row: r.Row, Column: string(c), Issue: fmt.Sprintf("%s negative", c), Value: v})
			}
		}
		if hasDuration {
			if v, ok := r.Number(record.ColAvgDurationMin); ok && v <= 0 {
				out = append(out, BoundsIssue{Row: r.Row, Column: string(record.ColAvgDurationMin), Issue: fmt.Sprintf("%s non-positive", record.ColAvgDurationMin), Value: v})
			}
		}
	}
	return out
}

// Rule names of the cross-field checks.
const (
	RuleLateWithinCirculated = "late_arr_count ≤ circulated violated"
	Rule15WithinCirculated   = "≥15 ≤ circulated violated"
	Rule30Within15           = "≥30 ≤ ≥15 violated"
	Rule60Within30           = "≥60 ≤ ≥30 violated"
	RuleAllWithinDelayed     = "avg(all) ≤ avg(delayed) violated"
)

// RuleViolation is one failed cross-field rule on one row.
type RuleViolation struct {
	Row     int
	Rule    string
	Details string
}

// LogicalConsistency checks the five cross-field rules independently on every
// row. A rule is skipped when either side is missing; circulated counts as
// missing when planned is.
func LogicalConsistency(t *record.Table) []RuleViolation {
	if t.Len() == 0 {
		return nil
	}
	var out []RuleViolation
	check := func(r *record.Record, rule string, a, b record.Column) {
		if !t.Has(a) || !t.Has(b) {
			return
		}
		av, aok := r.Number(a)
		bv, bok := r.Number(b)
		if b == record.ColCirculated {
			bok = bok && r.Planned.Valid
		}
		if aok && bok && av > bv {
			out = append(out, RuleViolation{Row: r.Row, Rule: rule, Details: r.Format(a) + " > " + r.Format(b)})
		}
	}
	for i := range t.Records {
		r := &t.Records[i]
		check(r, RuleLateWithinCirculated, record.ColLateArrCount, record.ColCirculated)
		check(r, Rule15WithinCirculated, record.ColLateOver15Count, record.ColCirculated)
		check(r, Rule30Within15, record.ColLateOver30Count, record.ColLateOver15Count)
		check(r, Rule60Within30, record.ColLateOver60Count, record.ColLateOver30Count)
		check(r, RuleAllWithinDelayed, record.ColAvgDelayArrAll, record.ColAvgDelayArrDelayed)
	}
	return out
}
