package geo

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/punctuality-cli/internal/aggregate"
)

// StationMetrics aggregates every record touching a located station.
type StationMetrics struct {
	Station string
	Point
	Circulated  int64
	LateArr     int64
	LateRatePct float64
	// OnTimePct is 100 minus the late rate.
	OnTimePct float64
}

// Stations pins each record on both of its endpoints and aggregates per
// located station, sorted by name.
func Stations(located []Located) []StationMetrics {
	idx := map[string]int{}
	var out []StationMetrics
	add := func(name string, p Point, circ, late int64) {
		if !p.Valid() {
			return
		}
		i, ok := idx[name]
		if !ok {
			i = len(out)
			idx[name] = i
			out = append(out, StationMetrics{Station: name, Point: p})
		}
		out[i].Circulated += circ
		out[i].LateArr += late
	}
	for _, l := range located {
		late := l.LateArrCount.Or(0)
		add(l.Departure, l.Dep, l.Circulated, late)
		add(l.Arrival, l.Arr, l.Circulated, late)
	}
	for i := range out {
		s := &out[i]
		s.LateRatePct = aggregate.RatePct(float64(s.LateArr), float64(s.Circulated))
		s.OnTimePct = 100 - s.LateRatePct
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Station < out[j].Station })
	return out
}

// Hub is a located station with the number of distinct stations it is linked
// to.
type Hub struct {
	StationMetrics
	Partners int
}

// Hubs counts distinct partners per station over the located records and
// returns the top N located stations by partner count.
func Hubs(located []Located, stations []StationMetrics, topN int) []Hub {
	partners := map[string]map[string]bool{}
	link := func(a, b string) {
		if a == "" || b == "" {
			return
		}
		if partners[a] == nil {
			partners[a] = map[string]bool{}
		}
		partners[a][b] = true
	}
	for _, l := range located {
		link(l.Departure, l.Arrival)
		link(l.Arrival, l.Departure)
	}
	var out []Hub
	for _, s := range stations {
		if n := len(partners[s.Station]); n > 0 {
			out = append(out, Hub{StationMetrics: s, Partners: n})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Partners > out[j].Partners })
	if topN > 0 && topN < len(out) {
		out = out[:topN]
	}
	return out
}

// DensityPoint is one endpoint weighted by late arrivals.
type DensityPoint struct {
	Point
	Weight float64
}

// DensityPoints duplicates each record on its located departure, then on its
// located arrival.
func DensityPoints(located []Located) []DensityPoint {
	var out []DensityPoint
	for _, l := range located {
		if l.Dep.Valid() {
			out = append(out, DensityPoint{Point: l.Dep, Weight: float64(l.LateArrCount.Or(0))})
		}
	}
	for _, l := range located {
		if l.Arr.Valid() {
			out = append(out, DensityPoint{Point: l.Arr, Weight: float64(l.LateArrCount.Or(0))})
		}
	}
	return out
}

// DistanceCorrelation is the Pearson correlation between edge distance and
// on-time rate over edges where both are defined. r is NaN below 3 edges.
func DistanceCorrelation(edges []Edge) (r float64, n int) {
	var xs, ys []float64
	for _, e := range edges {
		if math.IsNaN(e.DistanceKm) || math.IsNaN(e.OnTimePct) {
			continue
		}
		xs = append(xs, e.DistanceKm)
		ys = append(ys, e.OnTimePct)
	}
	if len(xs) < 3 {
		return math.NaN(), len(xs)
	}
	return stat.Correlation(xs, ys, nil), len(xs)
}

// Risk is an edge scored by how often its trains are both late and severely
// late.
type Risk struct {
	Liaison    string
	OnTimePct  float64
	Severe15   int64
	Circulated int64
	DistanceKm float64
	Score      float64
}

// RiskTable scores edges by (100 − on-time) × severe15 / circulated, with an
// undefined on-time read as 0, and returns the n weakest: on-time ascending,
// then score descending, undefined values last.
func RiskTable(edges []Edge, n int) []Risk {
	out := make([]Risk, 0, len(edges))
	for _, e := range edges {
		onTime := e.OnTimePct
		if math.IsNaN(onTime) {
			onTime = 0
		}
		score := math.NaN()
		if e.Circulated > 0 {
			score = (100 - onTime) * float64(e.Severe15) / float64(e.Circulated)
		}
		out = append(out, Risk{
			Liaison:    e.Liaison,
			OnTimePct:  e.OnTimePct,
			Severe15:   e.Severe15,
			Circulated: e.Circulated,
			DistanceKm: e.DistanceKm,
			Score:      score,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.OnTimePct != b.OnTimePct && !(math.IsNaN(a.OnTimePct) && math.IsNaN(b.OnTimePct)) {
			return aggregate.LessNaNLast(a.OnTimePct, b.OnTimePct, false)
		}
		return aggregate.LessNaNLast(a.Score, b.Score, true)
	})
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
