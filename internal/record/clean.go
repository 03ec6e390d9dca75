package record

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"

	"github.com/KaramelBytes/punctuality-cli/internal/liaison"
)

// MonthLayout is the strict year-month format of source dates and of catalog
// and filter bounds.
const MonthLayout = "2006-01"

// Clean converts a string-typed frame with published (or canonical) column
// labels into the canonical table. Unparseable dates and missing required
// columns abort the load; other malformed values become missing.
func Clean(df dataframe.DataFrame) (*Table, error) {
	if df.Err != nil {
		return nil, df.Err
	}
	names := df.Names()
	nrows := df.Nrow()

	cols := make(map[Column][]string)
	var present []Column
	var extra []string
	var extraCols [][]string
	for _, raw := range names {
		h := strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff"))
		values := cellValues(df, raw)
		c, ok := Rename[h]
		if !ok {
			s, known := Spec(Column(h))
			if (known && s.Derived) || strings.HasPrefix(h, "check_") {
				// recomputed below
				continue
			}
			if known {
				c, ok = s.Name, true
			}
		}
		if !ok || cols[c] != nil {
			extra = append(extra, h)
			extraCols = append(extraCols, values)
			continue
		}
		cols[c] = values
		present = append(present, c)
	}

	var missing []Column
	for _, c := range RequiredColumns {
		if cols[c] == nil {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnError{Columns: missing}
	}

	get := func(c Column, row int) string {
		v := cols[c]
		if v == nil {
			return ""
		}
		return v[row]
	}

	records := make([]Record, nrows)
	for i := 0; i < nrows; i++ {
		r := &records[i]
		r.Row = i

		d, err := ParseMonth(get(ColDate, i))
		if err != nil {
			return nil, &ParseError{Row: i, Column: ColDate, Value: get(ColDate, i)}
		}
		r.Date = d
		r.Service = get(ColService, i)
		r.Departure = get(ColDeparture, i)
		r.Arrival = get(ColArrival, i)

		r.AvgDurationMin = ParseInt(get(ColAvgDurationMin, i))
		r.Planned = ParseInt(get(ColPlanned, i))
		r.Canceled = ParseInt(get(ColCanceled, i))
		r.LateDepartCount = ParseInt(get(ColLateDepartCount, i))
		r.LateArrCount = ParseInt(get(ColLateArrCount, i))
		r.LateOver15 = ParseInt(get(ColLateOver15Count, i))
		r.LateOver30 = ParseInt(get(ColLateOver30Count, i))
		r.LateOver60 = ParseInt(get(ColLateOver60Count, i))

		r.AvgDelayDepDelayed = ParseFloat(get(ColAvgDelayDepDelayed, i))
		r.AvgDelayDepAll = ParseFloat(get(ColAvgDelayDepAll, i))
		r.AvgDelayArrDelayed = ParseFloat(get(ColAvgDelayArrDelayed, i))
		r.AvgDelayArrAll = ParseFloat(get(ColAvgDelayArrAll, i))
		r.AvgDelayOver15 = ParseFloat(get(ColAvgDelayOver15, i))
		for _, c := range Causes {
			r.Causes[c] = ParseFloat(get(c.Column(), i))
		}

		r.CancelComment = get(ColCancelComment, i)
		r.DepDelayComment = get(ColDepDelayComment, i)
		r.ArrDelayComment = get(ColArrDelayComment, i)

		if len(extra) > 0 {
			r.Extra = make([]string, len(extra))
			for j, v := range extraCols {
				r.Extra[j] = v[i]
			}
		}
		r.Derive()
	}
	return NewTable(records, present, extra), nil
}

// Derive computes the derived fields and consistency flags, in order: liaison,
// duration class, circulated, cancel rate, then the flags.
func (r *Record) Derive() {
	r.Liaison = liaison.Directed(r.Departure, r.Arrival)
	r.DurationClass = ClassifyDuration(r.AvgDurationMin)
	r.Circulated = max(r.Planned.Or(0)-r.Canceled.Or(0), 0)
	r.CancelRatePct = math.NaN()
	if r.Planned.Valid && r.Planned.V > 0 {
		r.CancelRatePct = 100 * float64(r.Canceled.Or(0)) / float64(r.Planned.V)
	}

	o60, o30, o15 := r.LateOver60.Or(0), r.LateOver30.Or(0), r.LateOver15.Or(0)
	r.LateChainOK = o60 <= o30 && o30 <= o15 && o15 <= r.Circulated
	for _, c := range Causes {
		v := r.Causes[c]
		r.CauseBoundsOK[c] = math.IsNaN(v) || (v >= 0 && v <= 100)
	}
}

// cellValues returns the column as strings with missing cells as "".
func cellValues(df dataframe.DataFrame, name string) []string {
	s := df.Col(name)
	out := s.Records()
	nan := s.IsNaN()
	for i := range out {
		if nan[i] {
			out[i] = ""
		}
	}
	return out
}

// ParseMonth parses a strict YYYY-MM value into the first day of the month, UTC.
func ParseMonth(s string) (time.Time, error) {
	return time.Parse(MonthLayout, strings.TrimSpace(s))
}

// ParseInt coerces a cell to a nullable integer. Fractions round to nearest;
// anything non-numeric is missing.
func ParseInt(s string) Int {
	f := ParseFloat(s)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Int{}
	}
	return IntOf(int64(math.Round(f)))
}

// ParseFloat coerces a cell to float64, NaN when missing or non-numeric. A
// comma is accepted as the decimal mark when no dot is present.
func ParseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "NaN" {
		return math.NaN()
	}
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}
