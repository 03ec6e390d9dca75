package aggregate

import (
	"math"

	"github.com/KaramelBytes/punctuality-cli/internal/record"
)

// Dominance attributes a liaison to the cause with the largest weighted share.
type Dominance struct {
	Liaison            string
	OnTimePct          float64
	AvgDelayDelayedMin float64
	LateArr            int64
	// Shares are late-arrival weighted means, in percent.
	Shares [record.NumCauses]float64
	// DominantCause is empty when every share is undefined.
	DominantCause string
}

// DominantCauses computes the dominant cause per liaison key, keys in
// first-appearance order. The first maximum in declaration order wins.
func DominantCauses(t *record.Table, bidirectional bool) []Dominance {
	stats, members := groupLiaisons(t, bidirectional)
	if len(stats) == 0 {
		return nil
	}
	hasCauses := t.HasCauses()
	out := make([]Dominance, len(stats))
	for g, s := range stats {
		d := Dominance{
			Liaison:            s.Liaison,
			OnTimePct:          s.OnTimePct,
			AvgDelayDelayedMin: s.AvgDelayDelayedMin,
			LateArr:            s.LateArr,
		}
		var acc causeAcc
		for _, i := range members[g] {
			acc.add(&t.Records[i])
		}
		d.Shares = presentOnly(t, acc.values())
		if hasCauses {
			if c, ok := argmax(d.Shares); ok {
				d.DominantCause = c.Label()
			}
		}
		out[g] = d
	}
	return out
}

// argmax returns the first cause holding the largest defined share.
func argmax(shares [record.NumCauses]float64) (record.Cause, bool) {
	best, found := record.Cause(0), false
	for _, c := range record.Causes {
		v := shares[c]
		if math.IsNaN(v) {
			continue
		}
		if !found || v > shares[best] {
			best, found = c, true
		}
	}
	return best, found
}
