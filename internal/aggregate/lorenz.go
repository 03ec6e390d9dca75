package aggregate

import (
	"math"
	"sort"
)

// LorenzPoint is one step of the concentration curve.
type LorenzPoint struct {
	Rank         int
	Liaison      string
	LiaisonPct   float64
	LateSharePct float64
	LateArr      int64
}

// Lorenz sorts liaisons by late arrivals, descending, and accumulates the
// liaison count share against the late arrival share. It returns nil when
// there are no late arrivals.
func Lorenz(rows []LiaisonSummary) []LorenzPoint {
	var total int64
	for _, r := range rows {
		total += max(r.LateArr, 0)
	}
	if total <= 0 {
		return nil
	}
	sorted := make([]LiaisonSummary, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].LateArr > sorted[j].LateArr })

	out := make([]LorenzPoint, len(sorted))
	var cum int64
	n := float64(len(sorted))
	for i, r := range sorted {
		cum += max(r.LateArr, 0)
		out[i] = LorenzPoint{
			Rank:         i + 1,
			Liaison:      r.Liaison,
			LiaisonPct:   float64(i+1) / n * 100,
			LateSharePct: float64(cum) / float64(total) * 100,
			LateArr:      r.LateArr,
		}
	}
	return out
}

// TopShare is the late-arrival share held by the first pct percent of
// liaisons on the curve. NaN for an empty curve.
func TopShare(curve []LorenzPoint, pct float64) float64 {
	if len(curve) == 0 {
		return math.NaN()
	}
	share := 0.0
	for _, p := range curve {
		if p.LiaisonPct > pct {
			break
		}
		share = p.LateSharePct
	}
	return share
}
