// Package geo joins station coordinates onto records and builds the edge,
// station and density views of the network.
package geo

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/KaramelBytes/punctuality-cli/internal/liaison"
	"github.com/KaramelBytes/punctuality-cli/internal/record"
)

// Point is a WGS84 coordinate in degrees. Unknown coordinates are NaN.
type Point struct {
	Lat float64
	Lon float64
}

// NoPoint is the unknown coordinate.
var NoPoint = Point{Lat: math.NaN(), Lon: math.NaN()}

// Valid reports whether both coordinates are known and in range.
func (p Point) Valid() bool {
	return !math.IsNaN(p.Lat) && !math.IsNaN(p.Lon) &&
		p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// Station is one row of the coordinate reference table.
type Station struct {
	Name string
	Point
}

// Lookup resolves station names to coordinates through their folded form.
// The zero value is not usable; use NewLookup or LoadLookup.
type Lookup struct {
	Stations []Station
	byKey    map[string]Point
}

// NewLookup indexes stations by folded name. The first of several stations
// folding to the same key wins.
func NewLookup(stations []Station) *Lookup {
	l := &Lookup{byKey: make(map[string]Point, len(stations))}
	for _, s := range stations {
		k := liaison.Fold(s.Name)
		if k == "" || !s.Valid() {
			continue
		}
		if _, dup := l.byKey[k]; dup {
			continue
		}
		l.byKey[k] = s.Point
		l.Stations = append(l.Stations, s)
	}
	return l
}

// Len returns the number of indexed stations.
func (l *Lookup) Len() int {
	if l == nil {
		return 0
	}
	return len(l.byKey)
}

// Find returns the coordinates of a station name.
func (l *Lookup) Find(name string) (Point, bool) {
	if l == nil {
		return NoPoint, false
	}
	p, ok := l.byKey[liaison.Fold(name)]
	if !ok {
		return NoPoint, false
	}
	return p, true
}

// LoadLookup reads a comma-separated station,lat,lon table; header names are
// matched case-insensitively. It always returns a usable lookup: a missing or
// malformed file yields an empty one together with an error worth logging.
func LoadLookup(path string) (*Lookup, error) {
	empty := NewLookup(nil)
	f, err := os.Open(path)
	if err != nil {
		return empty, fmt.Errorf("open station table: %w", err)
	}
	defer f.Close()

	df := dataframe.ReadCSV(f,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.WithLazyQuotes(true),
	)
	if df.Err != nil {
		return empty, fmt.Errorf("read station table %s: %w", path, df.Err)
	}
	cols := map[string]string{}
	for _, n := range df.Names() {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(n, "\ufeff")))] = n
	}
	var missing []string
	for _, need := range []string{"station", "lat", "lon"} {
		if _, ok := cols[need]; !ok {
			missing = append(missing, need)
		}
	}
	if len(missing) > 0 {
		return empty, fmt.Errorf("station table %s: missing columns %s", path, strings.Join(missing, ", "))
	}

	names := df.Col(cols["station"]).Records()
	lats := df.Col(cols["lat"]).Records()
	lons := df.Col(cols["lon"]).Records()
	stations := make([]Station, 0, len(names))
	for i, n := range names {
		n = strings.TrimSpace(n)
		p := Point{Lat: record.ParseFloat(lats[i]), Lon: record.ParseFloat(lons[i])}
		if n == "" || !p.Valid() {
			continue
		}
		stations = append(stations, Station{Name: n, Point: p})
	}
	return NewLookup(stations), nil
}
