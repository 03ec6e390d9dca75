package aggregate

import (
	"math"

	"github.com/KaramelBytes/punctuality-cli/internal/record"
)

// SeverityShare is the bucket-weighted share of one cause in one bucket.
type SeverityShare struct {
	Bucket   string
	Cause    string
	SharePct float64
}

// SeverityProfile computes, per bucket and cause, Σ(share × bucket count) /
// Σ(bucket count) with shares read as fractions, in percent with one decimal.
// The result is undefined when the bucket total is zero.
func SeverityProfile(t *record.Table) []SeverityShare {
	if t.Len() == 0 || !t.HasCauses() || !t.HasSeverity() {
		return nil
	}
	var out []SeverityShare
	for _, b := range record.Buckets {
		if !t.Has(b.Column()) {
			continue
		}
		var den float64
		var num [record.NumCauses]float64
		for i := range t.Records {
			r := &t.Records[i]
			n := float64(r.Severe(b).Or(0))
			den += n
			for _, c := range record.Causes {
				if s := r.Causes[c]; !math.IsNaN(s) {
					num[c] += s / 100 * n
				}
			}
		}
		for _, c := range record.Causes {
			if !t.Has(c.Column()) {
				continue
			}
			pct := math.NaN()
			if den > 0 {
				pct = Round(num[c]/den*100, 1)
			}
			out = append(out, SeverityShare{Bucket: b.Label(), Cause: c.Label(), SharePct: pct})
		}
	}
	return out
}
