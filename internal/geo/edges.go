package geo

import (
	"math"
	"sort"

	"github.com/KaramelBytes/punctuality-cli/internal/aggregate"
	"github.com/KaramelBytes/punctuality-cli/internal/liaison"
)

// RGBA is an edge colour with alpha.
type RGBA [4]uint8

// Gray is the colour of an edge without an on-time rate.
var Gray = RGBA{150, 150, 150, 180}

// Edge is one liaison drawn between its endpoints.
type Edge struct {
	Liaison   string
	Departure string
	Arrival   string
	Dep       Point
	Arr       Point

	Rows       int
	Planned    int64
	Canceled   int64
	Circulated int64
	LateArr    int64
	Severe15   int64

	OnTimePct          float64
	CancelRatePct      float64
	AvgDelayDelayedMin float64
	Service            string
	DurationClass      string
	DistanceKm         float64

	Color RGBA
	// Width is only set on mapped edges.
	Width float64
}

// Mappable reports whether both endpoints have coordinates.
func (e Edge) Mappable() bool { return e.Dep.Valid() && e.Arr.Valid() }

// BuildEdges aggregates located records per directed liaison, sorted by key.
// Edges keep the first known coordinates of each endpoint. Edges without
// coordinates are kept; use Mapped before drawing.
func BuildEdges(located []Located) []Edge {
	if len(located) == 0 {
		return nil
	}
	idx := map[string]int{}
	var edges []Edge
	var delays [][]float64
	var services, classes [][]string
	for _, l := range located {
		i, ok := idx[l.Liaison]
		if !ok {
			i = len(edges)
			idx[l.Liaison] = i
			edges = append(edges, Edge{Liaison: l.Liaison, Departure: l.Departure, Arrival: l.Arrival, Dep: NoPoint, Arr: NoPoint})
			delays = append(delays, nil)
			services = append(services, nil)
			classes = append(classes, nil)
		}
		e := &edges[i]
		e.Rows++
		e.Planned += l.Planned.Or(0)
		e.Canceled += l.Canceled.Or(0)
		e.Circulated += l.Circulated
		e.LateArr += l.LateArrCount.Or(0)
		e.Severe15 += l.LateOver15.Or(0)
		if !e.Dep.Valid() && l.Dep.Valid() {
			e.Dep = l.Dep
		}
		if !e.Arr.Valid() && l.Arr.Valid() {
			e.Arr = l.Arr
		}
		delays[i] = append(delays[i], l.AvgDelayArrDelayed)
		services[i] = append(services[i], l.Service)
		classes[i] = append(classes[i], l.DurationClass)
	}
	for i := range edges {
		e := &edges[i]
		e.OnTimePct = aggregate.OnTimePct(e.Circulated, e.LateArr)
		e.CancelRatePct = aggregate.CancelRatePct(e.Canceled, e.Planned)
		e.AvgDelayDelayedMin = aggregate.NanMean(delays[i])
		e.Service = aggregate.Mode(services[i])
		e.DurationClass = aggregate.Mode(classes[i])
		e.DistanceKm = Distance(e.Dep, e.Arr)
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].Liaison < edges[j].Liaison })
	style(edges)
	return edges
}

// Mapped returns the edges with both endpoints located.
func Mapped(edges []Edge) []Edge {
	var out []Edge
	for _, e := range edges {
		if e.Mappable() {
			out = append(out, e)
		}
	}
	return out
}

// MergeBidirectional folds directed edges into one edge per unordered station
// pair. Counts are summed and rates are re-weighted by circulated trains,
// falling back to a plain mean when no weight is available. Coordinates are
// looked up again for the canonical endpoints and the distance recomputed.
func MergeBidirectional(edges []Edge, l *Lookup) []Edge {
	if len(edges) == 0 {
		return nil
	}
	groups := map[string][]Edge{}
	var keys []string
	for _, e := range edges {
		k, _, _ := liaison.Normalize(e.Departure, e.Arrival)
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], e)
	}
	sort.Strings(keys)
	out := make([]Edge, 0, len(keys))
	for _, k := range keys {
		g := groups[k]
		_, left, right := liaison.Normalize(g[0].Departure, g[0].Arrival)
		m := Edge{Liaison: k, Departure: left, Arrival: right}
		m.Dep, _ = l.Find(left)
		m.Arr, _ = l.Find(right)
		var onTime, cancel, delay []float64
		var weights []float64
		var services, classes []string
		for _, e := range g {
			m.Rows += e.Rows
			m.Planned += e.Planned
			m.Canceled += e.Canceled
			m.Circulated += e.Circulated
			m.LateArr += e.LateArr
			m.Severe15 += e.Severe15
			onTime = append(onTime, e.OnTimePct)
			cancel = append(cancel, e.CancelRatePct)
			delay = append(delay, e.AvgDelayDelayedMin)
			weights = append(weights, float64(max(e.Circulated, 0)))
			services = append(services, e.Service)
			classes = append(classes, e.DurationClass)
		}
		m.OnTimePct = weightedOrMean(onTime, weights)
		m.CancelRatePct = weightedOrMean(cancel, weights)
		m.AvgDelayDelayedMin = weightedOrMean(delay, weights)
		m.Service = aggregate.Mode(services)
		m.DurationClass = aggregate.Mode(classes)
		m.DistanceKm = Distance(m.Dep, m.Arr)
		out = append(out, m)
	}
	style(out)
	return out
}

// weightedOrMean is Σ(v·w)/Σw with undefined values counted as 0, or the mean
// of the defined values when no value is defined under a positive weight sum.
func weightedOrMean(vals, weights []float64) float64 {
	var wsum float64
	anyDefined := false
	for i, v := range vals {
		wsum += weights[i]
		if !math.IsNaN(v) {
			anyDefined = true
		}
	}
	if anyDefined && wsum > 0 {
		var num float64
		for i, v := range vals {
			if !math.IsNaN(v) {
				num += v * weights[i]
			}
		}
		return num / wsum
	}
	return aggregate.NanMean(vals)
}

// ColorFor maps an on-time rate to a red-to-green ramp; gray when undefined.
func ColorFor(onTimePct float64) RGBA {
	if math.IsNaN(onTimePct) {
		return Gray
	}
	p := math.Max(0, math.Min(100, onTimePct))
	return RGBA{
		uint8(math.Round(255 * (100 - p) / 100)),
		uint8(math.Round(180 + 75*p/100)),
		uint8(math.Round(80 * (100 - p) / 100)),
		180,
	}
}

// style colours every edge and scales the width of the mapped ones with the
// square root of circulated trains, between 2 and 12.
func style(edges []Edge) {
	lo, hi := math.Inf(1), math.Inf(-1)
	var maxCirc int64
	for i := range edges {
		e := &edges[i]
		e.Color = ColorFor(e.OnTimePct)
		if !e.Mappable() {
			continue
		}
		s := math.Sqrt(float64(max(e.Circulated, 0)))
		lo, hi = math.Min(lo, s), math.Max(hi, s)
		maxCirc = max(maxCirc, e.Circulated)
	}
	for i := range edges {
		e := &edges[i]
		if !e.Mappable() {
			continue
		}
		if maxCirc <= 0 {
			e.Width = 4
			continue
		}
		s := math.Sqrt(float64(max(e.Circulated, 0)))
		e.Width = 2 + 10*(s-lo)/(hi-lo+1e-9)
	}
}
