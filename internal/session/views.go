package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/KaramelBytes/punctuality-cli/internal/aggregate"
	"github.com/KaramelBytes/punctuality-cli/internal/filter"
	"github.com/KaramelBytes/punctuality-cli/internal/geo"
	"github.com/KaramelBytes/punctuality-cli/internal/memo"
	"github.com/KaramelBytes/punctuality-cli/internal/quality"
	"github.com/KaramelBytes/punctuality-cli/internal/record"
	"github.com/KaramelBytes/punctuality-cli/internal/report"
)

// View names one family of results.
type View string

const (
	ViewKPI          View = "kpi"
	ViewMonthly      View = "monthly"
	ViewDuration     View = "duration"
	ViewTrend        View = "trend"
	ViewRanking      View = "ranking"
	ViewLiaisons     View = "liaisons"
	ViewCauses       View = "causes"
	ViewSevere       View = "severe"
	ViewSeverity     View = "severity"
	ViewDominance    View = "dominance"
	ViewLorenz       View = "lorenz"
	ViewDistribution View = "distribution"
	ViewGeo          View = "geo"
	ViewQuality      View = "quality"
)

// AllViews lists every view in report order.
var AllViews = []View{
	ViewKPI, ViewMonthly, ViewDuration, ViewTrend, ViewRanking, ViewLiaisons,
	ViewCauses, ViewSevere, ViewSeverity, ViewDominance, ViewLorenz,
	ViewDistribution, ViewGeo, ViewQuality,
}

// ParseViews accepts view names; none means every view.
func ParseViews(names []string) ([]View, error) {
	if len(names) == 0 {
		return AllViews, nil
	}
	var out []View
	for _, n := range names {
		v := View(strings.ToLower(strings.TrimSpace(n)))
		found := false
		for _, known := range AllViews {
			if v == known {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown view %q", n)
		}
		out = append(out, v)
	}
	return out, nil
}

// Causes groups the three cause views.
type Causes struct {
	Composition []aggregate.CauseShare
	Pivot       []aggregate.CauseShare
	ByAttribute []aggregate.CauseShare
}

// Geo groups the geographic overlays.
type Geo struct {
	Edges        []geo.Edge
	Missing      []string
	Stations     []geo.StationMetrics
	Hubs         []geo.Hub
	Density      []geo.DensityPoint
	Correlation  float64
	CorrelationN int
	Risk         []geo.Risk
}

// RiskRows is the length of the risk table.
const RiskRows = 15

// Views is the result of one request. Views that were not requested are nil.
type Views struct {
	State     filter.State
	Options   aggregate.Options
	Rows      int
	Requested []View

	KPI          *aggregate.KPI
	Monthly      []aggregate.MonthPoint
	Duration     []aggregate.DurationPoint
	Trend        *aggregate.Momentum
	Ranking      *aggregate.Ranking
	Liaisons     []aggregate.LiaisonSummary
	Causes       *Causes
	Severe       []aggregate.SevereCount
	Severity     []aggregate.SeverityShare
	Dominance    []aggregate.Dominance
	Lorenz       []aggregate.LorenzPoint
	Distribution []aggregate.DelayStats
	Geo          *Geo
	Quality      *quality.Report
}

// Views runs one request: the filter engine, then each requested view over
// the filtered table. No view means every view.
func (s *Session) Views(st filter.State, opts aggregate.Options, views ...View) (*Views, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	t, err := s.Filtered(st)
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		views = AllViews
	}

	out := &Views{State: st, Options: opts, Rows: t.Len(), Requested: views}
	key := func(v View) string { return memo.Key(string(v), st.Key(), opts.Key()) }
	for _, v := range views {
		switch v {
		case ViewKPI:
			k := memo.Do(s.memo, key(v), func() aggregate.KPI { return aggregate.Snapshot(t) })
			out.KPI = &k
		case ViewMonthly:
			out.Monthly = s.monthly(t, st)
		case ViewDuration:
			out.Duration = memo.Do(s.memo, key(v), func() []aggregate.DurationPoint { return aggregate.ByDuration(t) })
		case ViewTrend:
			m := memo.Do(s.memo, key(v), func() aggregate.Momentum { return aggregate.Trend(s.monthly(t, st), opts.Metric) })
			out.Trend = &m
		case ViewRanking:
			r := memo.Do(s.memo, key(v), func() aggregate.Ranking {
				return aggregate.Rank(t, opts.Metric, st.TreatBidirectional, opts.TopN)
			})
			out.Ranking = &r
		case ViewLiaisons:
			out.Liaisons = s.summary(t, st)
		case ViewCauses:
			out.Causes = memo.Do(s.memo, key(v), func() *Causes {
				return &Causes{
					Composition: aggregate.Composition(t, opts.Breakdown, opts.TopN),
					Pivot:       aggregate.MonthlyPivot(t),
					ByAttribute: aggregate.ByAttribute(t, opts.ColorBy),
				}
			})
		case ViewSevere:
			out.Severe = memo.Do(s.memo, key(v), func() []aggregate.SevereCount {
				return aggregate.SevereCounts(t, opts.Breakdown, opts.Bucket, opts.TopN)
			})
		case ViewSeverity:
			out.Severity = memo.Do(s.memo, key(v), func() []aggregate.SeverityShare { return aggregate.SeverityProfile(t) })
		case ViewDominance:
			out.Dominance = memo.Do(s.memo, key(v), func() []aggregate.Dominance {
				return aggregate.DominantCauses(t, st.TreatBidirectional)
			})
		case ViewLorenz:
			out.Lorenz = memo.Do(s.memo, key(v), func() []aggregate.LorenzPoint { return aggregate.Lorenz(s.summary(t, st)) })
		case ViewDistribution:
			out.Distribution = memo.Do(s.memo, key(v), func() []aggregate.DelayStats { return aggregate.DelayDistribution(t) })
		case ViewGeo:
			out.Geo = memo.Do(s.memo, key(v), func() *Geo { return s.geo(t, st, opts) })
		case ViewQuality:
			q := memo.Do(s.memo, memo.Key(string(v), st.Key(), s.qualityKey()), func() quality.Report {
				return quality.Analyze(t, s.QualityOptions())
			})
			out.Quality = &q
		default:
			return nil, fmt.Errorf("unknown view %q", v)
		}
	}
	s.log.Debug("views computed",
		"session", s.ID,
		"rows", out.Rows,
		"views", len(views),
		"elapsed", time.Since(start),
	)
	return out, nil
}

func (s *Session) monthly(t *record.Table, st filter.State) []aggregate.MonthPoint {
	return memo.Do(s.memo, memo.Key(string(ViewMonthly), st.Key()), func() []aggregate.MonthPoint {
		return aggregate.Monthly(t)
	})
}

func (s *Session) summary(t *record.Table, st filter.State) []aggregate.LiaisonSummary {
	return memo.Do(s.memo, memo.Key(string(ViewLiaisons), st.Key()), func() []aggregate.LiaisonSummary {
		return aggregate.Summarize(t, st.TreatBidirectional)
	})
}

func (s *Session) qualityKey() string {
	q := s.QualityOptions()
	return fmt.Sprintf("%s|%g", q.Method, q.Threshold)
}

func (s *Session) geo(t *record.Table, st filter.State, opts aggregate.Options) *Geo {
	located, missing := geo.Attach(t, s.Lookup)
	edges := geo.BuildEdges(located)
	if st.TreatBidirectional {
		edges = geo.MergeBidirectional(edges, s.Lookup)
	}
	stations := geo.Stations(located)
	r, n := geo.DistanceCorrelation(edges)
	return &Geo{
		Edges:        edges,
		Missing:      missing,
		Stations:     stations,
		Hubs:         geo.Hubs(located, stations, opts.TopN),
		Density:      geo.DensityPoints(located),
		Correlation:  r,
		CorrelationN: n,
		Risk:         geo.RiskTable(edges, RiskRows),
	}
}

// Tables converts the computed views into report tables, in request order.
// A requested view with no rows still yields its empty tables.
func Tables(v *Views) []report.Table {
	if v == nil {
		return nil
	}
	var out []report.Table
	for _, name := range v.Requested {
		switch name {
		case ViewKPI:
			out = append(out, report.KPI(*v.KPI))
		case ViewMonthly:
			out = append(out, report.Monthly(v.Monthly))
		case ViewDuration:
			out = append(out, report.Durations(v.Duration))
		case ViewTrend:
			out = append(out, report.Trend(*v.Trend))
		case ViewRanking:
			out = append(out, report.Ranking(*v.Ranking)...)
		case ViewLiaisons:
			out = append(out, report.Summary(v.Liaisons))
		case ViewCauses:
			b, attr := string(v.Options.Breakdown), string(v.Options.ColorBy)
			out = append(out,
				report.CauseShares("causes_by_"+b, "CAUSE COMPOSITION BY "+strings.ToUpper(b), v.Causes.Composition),
				report.CauseShares("causes_pivot", "CAUSE SEASONALITY", v.Causes.Pivot),
				report.CauseShares("causes_by_"+attr, "CAUSES BY "+strings.ToUpper(attr), v.Causes.ByAttribute),
			)
		case ViewSevere:
			out = append(out, report.SevereCounts(v.Options.Bucket, v.Severe))
		case ViewSeverity:
			out = append(out, report.Severity(v.Severity))
		case ViewDominance:
			out = append(out, report.Dominance(v.Dominance))
		case ViewLorenz:
			out = append(out, report.Lorenz(v.Lorenz))
		case ViewDistribution:
			out = append(out, report.Distribution(v.Distribution))
		case ViewGeo:
			g := v.Geo
			out = append(out,
				report.Edges(g.Edges),
				report.MissingStations(g.Missing),
				report.Stations(g.Stations),
				report.Hubs(g.Hubs),
				report.Density(g.Density),
				report.Correlation(g.Correlation, g.CorrelationN),
				report.Risk(g.Risk),
			)
		case ViewQuality:
			out = append(out, report.Quality(*v.Quality)...)
		}
	}
	return out
}

// Export computes the views for a state and writes them in one format.
func (s *Session) Export(dir, format string, st filter.State, opts aggregate.Options, views ...View) ([]string, error) {
	v, err := s.Views(st, opts, views...)
	if err != nil {
		return nil, err
	}
	paths, err := report.Export(dir, format, Tables(v))
	if err != nil {
		return paths, fmt.Errorf("export report: %w", err)
	}
	s.log.Info("report exported", "session", s.ID, "format", format, "files", len(paths), "rows", v.Rows)
	return paths, nil
}
