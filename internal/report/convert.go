package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/KaramelBytes/punctuality-cli/internal/aggregate"
	"github.com/KaramelBytes/punctuality-cli/internal/geo"
	"github.com/KaramelBytes/punctuality-cli/internal/quality"
	"github.com/KaramelBytes/punctuality-cli/internal/record"
)

// KPI is the single-row headline table.
func KPI(k aggregate.KPI) Table {
	t := New("kpi", "KPI SNAPSHOT",
		"rows", "planned", "canceled", "circulated", "late_arr_count",
		"on_time_pct", "cancel_rate_pct", "avg_delay_arr_delayed_min")
	t.Add(k.Rows, k.Planned, k.Canceled, k.Circulated, k.LateArr, k.OnTimePct, k.CancelRatePct, k.AvgDelayDelayedMin)
	return t
}

// Monthly is the month-by-month series.
func Monthly(points []aggregate.MonthPoint) Table {
	t := New("monthly", "MONTHLY SERIES",
		"month", "circulated", "late_arr_count", "on_time_pct", "cancel_rate_pct", "avg_delay_arr_delayed_min")
	for _, p := range points {
		t.Add(p.Label, p.Circulated, p.LateArr, p.OnTimePct, p.CancelRatePct, p.AvgDelayDelayedMin)
	}
	return t
}

// Durations is the on-time series per duration class.
func Durations(points []aggregate.DurationPoint) Table {
	t := New("duration", "ON-TIME BY DURATION CLASS", "month", "duration_class", "circulated", "on_time_pct")
	for _, p := range points {
		t.Add(p.Month, p.DurationClass, p.Circulated, p.OnTimePct)
	}
	return t
}

// Trend is the single-row momentum summary.
func Trend(m aggregate.Momentum) Table {
	t := New("trend", "MOMENTUM",
		"metric", "months", "low", "low_month", "high", "high_month",
		"last_12", "prev_12", "delta_12", "volatility", "share_ge_90_pct")
	t.Add(string(m.Metric), m.Months, m.Low, m.LowMonth, m.High, m.HighMonth,
		m.Last12, m.Prev12, m.Delta12, m.Volatility, m.ShareAtOrAbove90)
	return t
}

var liaisonColumns = []string{
	"rank", "liaison", "departure", "arrival", "rows", "planned", "canceled", "circulated",
	"late_arr_count", "on_time_pct", "cancel_rate_pct", "avg_delay_arr_delayed_min",
}

func liaisonTable(name, title string, stats []aggregate.LiaisonStat) Table {
	t := New(name, title, liaisonColumns...)
	for i, s := range stats {
		t.Add(i+1, s.Liaison, s.Departure, s.Arrival, s.Rows, s.Planned, s.Canceled, s.Circulated,
			s.LateArr, s.OnTimePct, s.CancelRatePct, s.AvgDelayDelayedMin)
	}
	return t
}

// Ranking returns the best and worst ends of a ranking.
func Ranking(r aggregate.Ranking) []Table {
	label := r.Metric.Label()
	return []Table{
		liaisonTable("ranking_top", "TOP LIAISONS BY "+strings.ToUpper(label), r.Head),
		liaisonTable("ranking_bottom", "BOTTOM LIAISONS BY "+strings.ToUpper(label), r.Tail),
	}
}

// RankingAll is the full sorted ranking.
func RankingAll(r aggregate.Ranking) Table {
	return liaisonTable("ranking", "LIAISON RANKING", r.All)
}

// Summary is the per-liaison summary sorted by key.
func Summary(rows []aggregate.LiaisonSummary) Table {
	t := New("liaisons", "LIAISON SUMMARY",
		"liaison", "service", "duration_class", "circulated", "late_arr_count",
		"late_rate_pct", "on_time_pct", "cancel_rate_pct", "avg_delay_arr_delayed_min")
	for _, s := range rows {
		t.Add(s.Liaison, s.Service, s.DurationClass, s.Circulated, s.LateArr,
			s.LateRatePct, s.OnTimePct, s.CancelRatePct, s.AvgDelayDelayedMin)
	}
	return t
}

// CauseShares renders any of the cause views under the given name.
func CauseShares(name, title string, shares []aggregate.CauseShare) Table {
	t := New(name, title, "group", "cause", "share_pct")
	for _, s := range shares {
		t.Add(s.Group, s.Cause, s.SharePct)
	}
	return t
}

// SevereCounts is the severe-delay count per group.
func SevereCounts(bucket record.Bucket, counts []aggregate.SevereCount) Table {
	t := New("severe", "SEVERE DELAYS "+bucket.Label()+" MIN", "group", "count")
	for _, c := range counts {
		t.Add(c.Group, c.Count)
	}
	return t
}

// Severity is the cause profile per severity bucket.
func Severity(shares []aggregate.SeverityShare) Table {
	t := New("severity", "SEVERITY PROFILE", "bucket", "cause", "share_pct")
	for _, s := range shares {
		t.Add(s.Bucket, s.Cause, s.SharePct)
	}
	return t
}

// Dominance lists each liaison with its cause shares and dominant cause.
func Dominance(rows []aggregate.Dominance) Table {
	cols := []string{"liaison", "on_time_pct", "avg_delay_arr_delayed_min", "late_arr_count"}
	for _, c := range record.Causes {
		cols = append(cols, string(c.Column()))
	}
	cols = append(cols, "dominant_cause")
	t := New("dominance", "DOMINANT CAUSES", cols...)
	for _, d := range rows {
		cells := []any{d.Liaison, d.OnTimePct, d.AvgDelayDelayedMin, d.LateArr}
		for _, v := range d.Shares {
			cells = append(cells, v)
		}
		t.Add(append(cells, d.DominantCause)...)
	}
	return t
}

// Lorenz is the concentration curve of late arrivals.
func Lorenz(curve []aggregate.LorenzPoint) Table {
	t := New("lorenz", "LATE ARRIVAL CONCENTRATION", "rank", "liaison", "liaison_pct", "late_share_pct", "late_arr_count")
	for _, p := range curve {
		t.Add(p.Rank, p.Liaison, p.LiaisonPct, p.LateSharePct, p.LateArr)
	}
	return t
}

// Distribution is the delay distribution per duration class.
func Distribution(stats []aggregate.DelayStats) Table {
	t := New("distribution", "DELAY DISTRIBUTION", "duration_class", "count", "mean", "median", "p90")
	for _, s := range stats {
		t.Add(s.DurationClass, s.Count, s.Mean, s.Median, s.P90)
	}
	return t
}

// Hex renders a colour as #rrggbbaa.
func Hex(c geo.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x%02x", c[0], c[1], c[2], c[3])
}

// Edges lists every edge with its styling hints.
func Edges(edges []geo.Edge) Table {
	t := New("edges", "LIAISON EDGES",
		"liaison", "departure", "arrival", "dep_lat", "dep_lon", "arr_lat", "arr_lon",
		"rows", "planned", "canceled", "circulated", "late_arr_count", "late_over_15_count",
		"on_time_pct", "cancel_rate_pct", "avg_delay_arr_delayed_min",
		"service", "duration_class", "distance_km", "color", "width")
	for _, e := range edges {
		t.Add(e.Liaison, e.Departure, e.Arrival, e.Dep.Lat, e.Dep.Lon, e.Arr.Lat, e.Arr.Lon,
			e.Rows, e.Planned, e.Canceled, e.Circulated, e.LateArr, e.Severe15,
			e.OnTimePct, e.CancelRatePct, e.AvgDelayDelayedMin,
			e.Service, e.DurationClass, e.DistanceKm, Hex(e.Color), e.Width)
	}
	return t
}

// MissingStations lists stations without coordinates.
func MissingStations(names []string) Table {
	t := New("missing_coordinates", "STATIONS WITHOUT COORDINATES", "station")
	for _, n := range names {
		t.Add(n)
	}
	return t
}

// Stations lists per-station metrics.
func Stations(rows []geo.StationMetrics) Table {
	t := New("stations", "STATIONS", "station", "lat", "lon", "circulated", "late_arr_count", "late_rate_pct", "on_time_pct")
	for _, s := range rows {
		t.Add(s.Station, s.Lat, s.Lon, s.Circulated, s.LateArr, s.LateRatePct, s.OnTimePct)
	}
	return t
}

// Hubs lists the most connected stations.
func Hubs(rows []geo.Hub) Table {
	t := New("hubs", "HUBS", "station", "lat", "lon", "partners", "circulated", "on_time_pct")
	for _, h := range rows {
		t.Add(h.Station, h.Lat, h.Lon, h.Partners, h.Circulated, h.OnTimePct)
	}
	return t
}

// Density lists the weighted endpoints.
func Density(points []geo.DensityPoint) Table {
	t := New("density", "LATE ARRIVAL DENSITY", "lat", "lon", "weight")
	for _, p := range points {
		t.Add(p.Lat, p.Lon, p.Weight)
	}
	return t
}

// Correlation is the single-row distance to on-time correlation.
func Correlation(r float64, n int) Table {
	t := New("distance_correlation", "DISTANCE ~ ON-TIME", "r", "n")
	t.Add(r, n)
	return t
}

// Risk lists the weakest edges.
func Risk(rows []geo.Risk) Table {
	t := New("risk", "RISK TABLE", "liaison", "on_time_pct", "late_over_15_count", "circulated", "distance_km", "risk_score")
	for _, r := range rows {
		t.Add(r.Liaison, r.OnTimePct, r.Severe15, r.Circulated, r.DistanceKm, r.Score)
	}
	return t
}

// Quality renders a data-quality report as a summary table followed by one
// table per check.
func Quality(r quality.Report) []Table {
	sum := New("quality_summary", "DATA QUALITY",
		"rows", "columns", "score", "tone", "duplicate_key_groups", "full_duplicate_rows",
		"bounds_issues", "logic_violations", "outlier_months")
	sum.Add(r.Rows, r.Columns, r.Score, quality.Tone(r.Score), len(r.DuplicateKeys), len(r.FullDuplicates),
		len(r.Bounds), len(r.Logic), len(r.Outliers))

	miss := New("quality_missing", "MISSING VALUES", "column", "count", "pct")
	for _, m := range r.Missing {
		miss.Add(m.Column, m.Count, m.Pct)
	}
	byMonth := New("quality_missing_by_month", "MISSING VALUES BY MONTH", "month", "column", "pct")
	for _, m := range r.MissingByMonth {
		byMonth.Add(m.Month, m.Column, m.Pct)
	}
	dups := New("quality_duplicate_keys", "DUPLICATE KEYS", "date", "service", "departure", "arrival", "count", "rows")
	for _, d := range r.DuplicateKeys {
		dups.Add(d.Date, d.Service, d.Departure, d.Arrival, d.Count, joinInts(d.Rows))
	}
	full := New("quality_full_duplicates", "FULL DUPLICATE ROWS", "row")
	for _, row := range r.FullDuplicates {
		full.Add(row)
	}
	bounds := New("quality_bounds", "OUT OF BOUNDS VALUES", "row", "column", "issue", "value")
	for _, b := range r.Bounds {
		bounds.Add(b.Row, b.Column, b.Issue, b.Value)
	}
	logic := New("quality_logic", "LOGICAL CONSISTENCY", "row", "rule", "details")
	for _, v := range r.Logic {
		logic.Add(v.Row, v.Rule, v.Details)
	}
	out := New("quality_outliers", "OUTLIER MONTHS", "month", "liaison", "on_time_pct")
	for _, o := range r.Outliers {
		out.Add(o.Month, o.Liaison, o.OnTimePct)
	}
	return []Table{sum, miss, byMonth, dups, full, bounds, logic, out}
}

func joinInts(vals []int) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, " ")
}
