package geo

import (
	"math"
	"sort"

	"github.com/KaramelBytes/punctuality-cli/internal/record"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0088

// Located is a record with the coordinates of both endpoints.
type Located struct {
	*record.Record
	Dep Point
	Arr Point
}

// Attach resolves both endpoints of every record. Records are kept even when
// a station is unknown; the sorted set of unknown station names is returned
// alongside.
func Attach(t *record.Table, l *Lookup) ([]Located, []string) {
	if t.Len() == 0 {
		return nil, nil
	}
	out := make([]Located, len(t.Records))
	missing := map[string]bool{}
	for i := range t.Records {
		r := &t.Records[i]
		dep, okDep := l.Find(r.Departure)
		arr, okArr := l.Find(r.Arrival)
		if !okDep && r.Departure != "" {
			missing[r.Departure] = true
		}
		if !okArr && r.Arrival != "" {
			missing[r.Arrival] = true
		}
		out[i] = Located{Record: r, Dep: dep, Arr: arr}
	}
	names := make([]string, 0, len(missing))
	for n := range missing {
		names = append(names, n)
	}
	sort.Strings(names)
	return out, names
}

// Haversine is the great-circle distance in kilometres.
func Haversine(a, b Point) float64 {
	φ1 := a.Lat * math.Pi / 180
	φ2 := b.Lat * math.Pi / 180
	dφ := (b.Lat - a.Lat) * math.Pi / 180
	dλ := (b.Lon - a.Lon) * math.Pi / 180
	h := math.Pow(math.Sin(dφ/2), 2) + math.Cos(φ1)*math.Cos(φ2)*math.Pow(math.Sin(dλ/2), 2)
	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

// Distance is Haversine over valid points and NaN otherwise, never zero for
// an unknown pair.
func Distance(a, b Point) float64 {
	if !a.Valid() || !b.Valid() {
		return math.NaN()
	}
	return Haversine(a, b)
}
