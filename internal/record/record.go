package record

import (
	"math"
	"strconv"
	"time"
)

// Int is a nullable integer. The zero value is missing.
type Int struct {
	V     int64
	Valid bool
}

// IntOf returns a present Int.
func IntOf(v int64) Int { return Int{V: v, Valid: true} }

// Or returns the value, or def when missing.
func (n Int) Or(def int64) int64 {
	if !n.Valid {
		return def
	}
	return n.V
}

// Float returns the value as float64, NaN when missing.
func (n Int) Float() float64 {
	if !n.Valid {
		return math.NaN()
	}
	return float64(n.V)
}

func (n Int) String() string {
	if !n.Valid {
		return ""
	}
	return strconv.FormatInt(n.V, 10)
}

// Record is one liaison for one month. Missing floats are NaN; missing strings
// are empty.
type Record struct {
	Row int

	Date      time.Time
	Service   string
	Departure string
	Arrival   string

	AvgDurationMin Int
	Planned        Int
	Canceled       Int
	Circulated     int64

	LateDepartCount Int
	LateArrCount    Int
	LateOver15      Int
	LateOver30      Int
	LateOver60      Int

	AvgDelayDepDelayed float64
	AvgDelayDepAll     float64
	AvgDelayArrDelayed float64
	AvgDelayArrAll     float64
	AvgDelayOver15     float64

	Causes [NumCauses]float64

	CancelComment   string
	DepDelayComment string
	ArrDelayComment string

	Liaison       string
	DurationClass string
	CancelRatePct float64

	LateChainOK   bool
	CauseBoundsOK [NumCauses]bool

	// Extra holds unmapped source columns, aligned with Table.Extra.
	Extra []string
}

// Severe returns the count backing a severity bucket.
func (r *Record) Severe(b Bucket) Int {
	switch b {
	case Bucket30:
		return r.LateOver30
	case Bucket60:
		return r.LateOver60
	default:
		return r.LateOver15
	}
}

// Field accessors by canonical column. Circulated is derived and never
// missing, so it is handled separately.
var (
	intFields = map[Column]func(*Record) *Int{
		ColAvgDurationMin:  func(r *Record) *Int { return &r.AvgDurationMin },
		ColPlanned:         func(r *Record) *Int { return &r.Planned },
		ColCanceled:        func(r *Record) *Int { return &r.Canceled },
		ColLateDepartCount: func(r *Record) *Int { return &r.LateDepartCount },
		ColLateArrCount:    func(r *Record) *Int { return &r.LateArrCount },
		ColLateOver15Count: func(r *Record) *Int { return &r.LateOver15 },
		ColLateOver30Count: func(r *Record) *Int { return &r.LateOver30 },
		ColLateOver60Count: func(r *Record) *Int { return &r.LateOver60 },
	}
	floatFields = map[Column]func(*Record) *float64{
		ColAvgDelayDepDelayed: func(r *Record) *float64 { return &r.AvgDelayDepDelayed },
		ColAvgDelayDepAll:     func(r *Record) *float64 { return &r.AvgDelayDepAll },
		ColAvgDelayArrDelayed: func(r *Record) *float64 { return &r.AvgDelayArrDelayed },
		ColAvgDelayArrAll:     func(r *Record) *float64 { return &r.AvgDelayArrAll },
		ColAvgDelayOver15:     func(r *Record) *float64 { return &r.AvgDelayOver15 },
		ColPctCauseExternal:   func(r *Record) *float64 { return &r.Causes[CauseExternal] },
		ColPctCauseInfra:      func(r *Record) *float64 { return &r.Causes[CauseInfra] },
		ColPctCauseTraffic:    func(r *Record) *float64 { return &r.Causes[CauseTraffic] },
		ColPctCauseRolling:    func(r *Record) *float64 { return &r.Causes[CauseRollingStock] },
		ColPctCauseStation:    func(r *Record) *float64 { return &r.Causes[CauseStationReuse] },
		ColPctCausePassengers: func(r *Record) *float64 { return &r.Causes[CausePassengers] },
	}
	textFields = map[Column]func(*Record) *string{
		ColService:         func(r *Record) *string { return &r.Service },
		ColDeparture:       func(r *Record) *string { return &r.Departure },
		ColArrival:         func(r *Record) *string { return &r.Arrival },
		ColCancelComment:   func(r *Record) *string { return &r.CancelComment },
		ColDepDelayComment: func(r *Record) *string { return &r.DepDelayComment },
		ColArrDelayComment: func(r *Record) *string { return &r.ArrDelayComment },
		ColLiaison:         func(r *Record) *string { return &r.Liaison },
		ColDurationClass:   func(r *Record) *string { return &r.DurationClass },
	}
)

// Number returns a numeric canonical column as float64. ok is false for
// non-numeric columns and for missing values.
func (r *Record) Number(c Column) (v float64, ok bool) {
	switch c {
	case ColCirculated:
		return float64(r.Circulated), true
	case ColCancelRatePct:
		return r.CancelRatePct, !math.IsNaN(r.CancelRatePct)
	}
	if f, isInt := intFields[c]; isInt {
		n := *f(r)
		return n.Float(), n.Valid
	}
	if f, isFloat := floatFields[c]; isFloat {
		v := *f(r)
		return v, !math.IsNaN(v)
	}
	return 0, false
}

// Text returns a string canonical column.
func (r *Record) Text(c Column) (string, bool) {
	if f, ok := textFields[c]; ok {
		return *f(r), true
	}
	return "", false
}

// Missing reports whether the canonical column has no value in this record.
// Boolean flags are never missing.
func (r *Record) Missing(c Column) bool {
	if c == ColDate {
		return r.Date.IsZero()
	}
	if s, ok := r.Text(c); ok {
		return s == ""
	}
	spec, ok := Spec(c)
	if !ok || (spec.Kind != KindInt && spec.Kind != KindFloat) {
		return false
	}
	_, present := r.Number(c)
	return !present
}

// Format renders a canonical column as text. Missing values render empty.
func (r *Record) Format(c Column) string {
	switch c {
	case ColDate:
		if r.Date.IsZero() {
			return ""
		}
		return r.Date.Format(MonthLayout)
	case ColCheckLateChainOK:
		return strconv.FormatBool(r.LateChainOK)
	}
	if cause, ok := BoundsCause(c); ok {
		return strconv.FormatBool(r.CauseBoundsOK[cause])
	}
	if s, ok := r.Text(c); ok {
		return s
	}
	if f, isInt := intFields[c]; isInt {
		return f(r).String()
	}
	if c == ColCirculated {
		return strconv.FormatInt(r.Circulated, 10)
	}
	if v, ok := r.Number(c); ok {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

// Table is the canonical record set plus the set of columns present in the
// source it was built from.
type Table struct {
	Records []Record
	// Extra names unmapped source columns in source order.
	Extra   []string
	present map[Column]bool
}

// NewTable builds a table over records with the given source columns present.
// Derived columns are always present.
func NewTable(records []Record, present []Column, extra []string) *Table {
	t := &Table{Records: records, Extra: extra, present: make(map[Column]bool)}
	for _, c := range present {
		t.present[c] = true
	}
	for _, s := range Schema {
		if s.Derived {
			t.present[s.Name] = true
		}
	}
	return t
}

// Len returns the number of records.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// Has reports whether the canonical column is available.
func (t *Table) Has(c Column) bool {
	if t == nil {
		return false
	}
	return t.present[c]
}

// HasCauses reports whether any cause share column is available.
func (t *Table) HasCauses() bool {
	for _, c := range Causes {
		if t.Has(c.Column()) {
			return true
		}
	}
	return false
}

// HasSeverity reports whether any severity bucket count is available.
func (t *Table) HasSeverity() bool {
	for _, b := range Buckets {
		if t.Has(b.Column()) {
			return true
		}
	}
	return false
}

// Columns returns the available canonical columns in schema order.
func (t *Table) Columns() []Column {
	var out []Column
	for _, s := range Schema {
		if t.Has(s.Name) {
			out = append(out, s.Name)
		}
	}
	return out
}

// Present lists available source (non-derived) columns in schema order.
func (t *Table) Present() []Column {
	var out []Column
	for _, s := range Schema {
		if !s.Derived && t.Has(s.Name) {
			out = append(out, s.Name)
		}
	}
	return out
}

// Subset returns a table sharing this table's schema over the given records.
func (t *Table) Subset(records []Record) *Table {
	return &Table{Records: records, Extra: t.Extra, present: t.present}
}
