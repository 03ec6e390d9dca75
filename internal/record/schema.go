package record

// Column is a canonical column name.
type Column string

const (
	ColDate                Column = "date"
	ColService             Column = "service"
	ColDeparture           Column = "departure"
	ColArrival             Column = "arrival"
	ColAvgDurationMin      Column = "avg_duration_min"
	ColPlanned             Column = "planned"
	ColCanceled            Column = "canceled"
	ColCancelComment       Column = "cancel_comment"
	ColLateDepartCount     Column = "late_depart_count"
	ColAvgDelayDepDelayed  Column = "avg_delay_dep_delayed_min"
	ColAvgDelayDepAll      Column = "avg_delay_dep_all_min"
	ColDepDelayComment     Column = "dep_delay_comment"
	ColLateArrCount        Column = "late_arr_count"
	ColAvgDelayArrDelayed  Column = "avg_delay_arr_delayed_min"
	ColAvgDelayArrAll      Column = "avg_delay_arr_all_min"
	ColArrDelayComment     Column = "arr_delay_comment"
	ColLateOver15Count     Column = "late_over_15_count"
	ColAvgDelayOver15      Column = "avg_delay_over15_min"
	ColLateOver30Count     Column = "late_over_30_count"
	ColLateOver60Count     Column = "late_over_60_count"
	ColPctCauseExternal    Column = "pct_cause_external"
	ColPctCauseInfra       Column = "pct_cause_infra"
	ColPctCauseTraffic     Column = "pct_cause_traffic"
	ColPctCauseRolling     Column = "pct_cause_rollingstock"
	ColPctCauseStation     Column = "pct_cause_station_reuse"
	ColPctCausePassengers  Column = "pct_cause_passengers"
	ColLiaison             Column = "liaison"
	ColDurationClass       Column = "duration_class"
	ColCirculated          Column = "circulated"
	ColCancelRatePct       Column = "cancel_rate_pct"
	ColCheckLateChainOK    Column = "check_late_chain_ok"
)

const checkBoundsColumnPrefix = "check_bounds_"

// Kind is the storage kind of a canonical column.
type Kind int

const (
	KindString Kind = iota
	KindMonth
	KindInt
	KindFloat
	KindBool
)

// ColumnSpec describes one canonical column. Source is the column label in the
// published dataset; derived columns have no source.
type ColumnSpec struct {
	Name    Column
	Source  string
	Kind    Kind
	Derived bool
}

// Schema lists the canonical columns in output order. The per-cause bounds
// flags close the list.
var Schema = append([]ColumnSpec{
	{Name: ColDate, Source: "Date", Kind: KindMonth},
	{Name: ColService, Source: "Service", Kind: KindString},
	{Name: ColDeparture, Source: "Gare de départ", Kind: KindString},
	{Name: ColArrival, Source: "Gare d'arrivée", Kind: KindString},
	{Name: ColAvgDurationMin, Source: "Durée moyenne du trajet", Kind: KindInt},
	{Name: ColPlanned, Source: "Nombre de circulations prévues", Kind: KindInt},
	{Name: ColCanceled, Source: "Nombre de trains annulés", Kind: KindInt},
	{Name: ColCancelComment, Source: "Commentaire annulations", Kind: KindString},
	{Name: ColLateDepartCount, Source: "Nombre de trains en retard au départ", Kind: KindInt},
	{Name: ColAvgDelayDepDelayed, Source: "Retard moyen des trains en retard au départ", Kind: KindFloat},
	{Name: ColAvgDelayDepAll, Source: "Retard moyen de tous les trains au départ", Kind: KindFloat},
	{Name: ColDepDelayComment, Source: "Commentaire retards au départ", Kind: KindString},
	{Name: ColLateArrCount, Source: "Nombre de trains en retard à l'arrivée", Kind: KindInt},
	{Name: ColAvgDelayArrDelayed, Source: "Retard moyen des trains en retard à l'arrivée", Kind: KindFloat},
	{Name: ColAvgDelayArrAll, Source: "Retard moyen de tous les trains à l'arrivée", Kind: KindFloat},
	{Name: ColArrDelayComment, Source: "Commentaire retards à l'arrivée", Kind: KindString},
	{Name: ColLateOver15Count, Source: "Nombre trains en retard > 15min", Kind: KindInt},
	{Name: ColAvgDelayOver15, Source: "Retard moyen trains en retard > 15 (si liaison concurrencée par vol)", Kind: KindFloat},
	{Name: ColLateOver30Count, Source: "Nombre trains en retard > 30min", Kind: KindInt},
	{Name: ColLateOver60Count, Source: "Nombre trains en retard > 60min", Kind: KindInt},
	{Name: ColPctCauseExternal, Source: "Prct retard pour causes externes", Kind: KindFloat},
	{Name: ColPctCauseInfra, Source: "Prct retard pour cause infrastructure", Kind: KindFloat},
	{Name: ColPctCauseTraffic, Source: "Prct retard pour cause gestion trafic", Kind: KindFloat},
	{Name: ColPctCauseRolling, Source: "Prct retard pour cause matériel roulant", Kind: KindFloat},
	{Name: ColPctCauseStation, Source: "Prct retard pour cause gestion en gare et réutilisation de matériel", Kind: KindFloat},
	{Name: ColPctCausePassengers, Source: "Prct retard pour cause prise en compte voyageurs (affluence, gestions PSH, correspondances)", Kind: KindFloat},
	{Name: ColLiaison, Kind: KindString, Derived: true},
	{Name: ColDurationClass, Kind: KindString, Derived: true},
	{Name: ColCirculated, Kind: KindInt, Derived: true},
	{Name: ColCancelRatePct, Kind: KindFloat, Derived: true},
	{Name: ColCheckLateChainOK, Kind: KindBool, Derived: true},
}, boundsSchema()...)

func boundsSchema() []ColumnSpec {
	out := make([]ColumnSpec, 0, NumCauses)
	for c := Cause(0); c < NumCauses; c++ {
		out = append(out, ColumnSpec{Name: c.BoundsColumn(), Kind: KindBool, Derived: true})
	}
	return out
}

// RequiredColumns must be present in every source; Clean fails without them.
var RequiredColumns = []Column{ColDate, ColService, ColDeparture, ColArrival}

// Rename maps published column labels to canonical names.
var Rename = func() map[string]Column {
	m := make(map[string]Column, len(Schema))
	for _, c := range Schema {
		if c.Source != "" {
			m[c.Source] = c.Name
		}
	}
	return m
}()

// Spec returns the schema entry for a canonical column.
func Spec(c Column) (ColumnSpec, bool) {
	for _, s := range Schema {
		if s.Name == c {
			return s, true
		}
	}
	return ColumnSpec{}, false
}

// Duration classes. Thresholds are in minutes of average journey time.
const (
	DurationShort   = "<1h30"
	DurationMedium  = "1h30–3h"
	DurationLong    = ">3h"
	DurationUnknown = "unknown"
)

// DurationClasses is the fixed, ordered list offered by the filter catalog.
var DurationClasses = []string{DurationShort, DurationMedium, DurationLong}

// ClassifyDuration buckets an average journey duration.
func ClassifyDuration(mins Int) string {
	if !mins.Valid {
		return DurationUnknown
	}
	switch {
	case mins.V < 90:
		return DurationShort
	case mins.V <= 180:
		return DurationMedium
	default:
		return DurationLong
	}
}

// Cause indexes the six delay-cause share columns in declaration order.
type Cause int

const (
	CauseExternal Cause = iota
	CauseInfra
	CauseTraffic
	CauseRollingStock
	CauseStationReuse
	CausePassengers
	NumCauses
)

// Causes lists every cause in declaration order.
var Causes = [NumCauses]Cause{CauseExternal, CauseInfra, CauseTraffic, CauseRollingStock, CauseStationReuse, CausePassengers}

var causeColumns = [NumCauses]Column{
	ColPctCauseExternal, ColPctCauseInfra, ColPctCauseTraffic,
	ColPctCauseRolling, ColPctCauseStation, ColPctCausePassengers,
}

var causeLabels = [NumCauses]string{
	"External", "Infrastructure", "Traffic", "Rolling stock",
	"Station ops & reuse", "Passengers / PSH / connections",
}

// Column returns the canonical share column of the cause.
func (c Cause) Column() Column { return causeColumns[c] }

// Label is the short display label used by pivots, profiles and dominance.
func (c Cause) Label() string { return causeLabels[c] }

// LongLabel is the label used by the composition-by-group view.
func (c Cause) LongLabel() string {
	if c == CauseTraffic {
		return "Traffic management"
	}
	return causeLabels[c]
}

// BoundsColumn is the name of the per-row bounds flag of the cause.
func (c Cause) BoundsColumn() Column {
	return Column(checkBoundsColumnPrefix + string(causeColumns[c]))
}

// BoundsCause returns the cause whose bounds flag is stored in column c.
func BoundsCause(c Column) (Cause, bool) {
	for i, col := range causeColumns {
		if Column(checkBoundsColumnPrefix+string(col)) == c {
			return Cause(i), true
		}
	}
	return 0, false
}

// Bucket is a severity threshold in minutes of arrival delay.
type Bucket int

const (
	Bucket15 Bucket = 15
	Bucket30 Bucket = 30
	Bucket60 Bucket = 60
)

// Buckets lists the severity buckets in increasing severity.
var Buckets = []Bucket{Bucket15, Bucket30, Bucket60}

// Label renders the bucket as "≥15".
func (b Bucket) Label() string {
	switch b {
	case Bucket15:
		return "≥15"
	case Bucket30:
		return "≥30"
	case Bucket60:
		return "≥60"
	}
	return ""
}

// Column returns the count column backing the bucket.
func (b Bucket) Column() Column {
	switch b {
	case Bucket30:
		return ColLateOver30Count
	case Bucket60:
		return ColLateOver60Count
	default:
		return ColLateOver15Count
	}
}
