package geo

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/punctuality-cli/internal/record/recordtest"
)

var (
	paris     = Point{Lat: 48.8443, Lon: 2.3744}
	lyon      = Point{Lat: 45.7606, Lon: 4.8593}
	marseille = Point{Lat: 43.3026, Lon: 5.3806}
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func testLookup() *Lookup {
	return NewLookup([]Station{
		{Name: "Paris Lyon", Point: paris},
		{Name: "Lyon Part-Dieu", Point: lyon},
		{Name: "Marseille St Charles", Point: marseille},
	})
}

func network(t *testing.T) ([]Located, []string) {
	t.Helper()
	tbl := recordtest.Table(
		recordtest.WithSevere(recordtest.Rec("2024-01", "National", "PARIS LYON", "LYON PART DIEU", 100, 0, 10, 10), 4, 1, 0),
		recordtest.WithSevere(recordtest.Rec("2024-02", "National", "PARIS LYON", "LYON PART DIEU", 100, 0, 20, 20), 4, 1, 0),
		recordtest.Rec("2024-01", "National", "LYON PART DIEU", "PARIS LYON", 50, 0, 10, 5),
		recordtest.Rec("2024-01", "International", "PARIS LYON", "NOWHERE", 50, 0, 5, 5),
	)
	return Attach(tbl, testLookup())
}

func TestLoadLookup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stations.csv")
	csv := "Station,LAT,Lon\n" +
		"PARIS LYON,48.8443,2.3744\n" +
		"Lyon Part-Dieu,45.7606,4.8593\n" +
		"paris lyon,0,0\n" +
		"Bad,x,1\n"
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}
	l, err := LoadLookup(path)
	if err != nil {
		t.Fatalf("LoadLookup error: %v", err)
	}
	if l.Len() != 2 {
		t.Fatalf("Len = %d, want 2", l.Len())
	}
	if p, ok := l.Find("Paris-Lyon"); !ok || p != paris {
		t.Fatalf("Find(Paris-Lyon) = %v, %v", p, ok)
	}
	if _, ok := l.Find("LYON PART DIEU"); !ok {
		t.Fatalf("folded lookup failed")
	}
	if p, ok := l.Find("Bad"); ok || p.Valid() {
		t.Fatalf("invalid row indexed")
	}
}

func TestLoadLookupDegrades(t *testing.T) {
	l, err := LoadLookup(filepath.Join(t.TempDir(), "absent.csv"))
	if err == nil || l == nil || l.Len() != 0 {
		t.Fatalf("missing file: lookup=%v err=%v", l, err)
	}

	path := filepath.Join(t.TempDir(), "stations.csv")
	if err := os.WriteFile(path, []byte("name,x,y\nA,1,2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	l, err = LoadLookup(path)
	if err == nil || l == nil || l.Len() != 0 {
		t.Fatalf("wrong headers: lookup=%v err=%v", l, err)
	}
	if _, ok := l.Find("A"); ok {
		t.Fatalf("empty lookup resolved a station")
	}
}

func TestHaversine(t *testing.T) {
	if got := Haversine(paris, paris); got != 0 {
		t.Fatalf("same point = %v", got)
	}
	oneDegree := Haversine(Point{0, 0}, Point{0, 1})
	if math.Abs(oneDegree-EarthRadiusKm*math.Pi/180) > 1e-9 {
		t.Fatalf("one degree = %v", oneDegree)
	}
	if d := Haversine(paris, lyon); d < 385 || d > 400 {
		t.Fatalf("Paris-Lyon = %v km", d)
	}
	if !math.IsNaN(Distance(paris, NoPoint)) {
		t.Fatalf("distance to an unknown point must be undefined")
	}
	if !math.IsNaN(Distance(paris, Point{Lat: 91, Lon: 0})) {
		t.Fatalf("out of range latitude accepted")
	}
}

func TestAttach(t *testing.T) {
	located, missing := network(t)
	if len(located) != 4 {
		t.Fatalf("located = %d rows, want all 4", len(located))
	}
	if len(missing) != 1 || missing[0] != "NOWHERE" {
		t.Fatalf("missing = %v", missing)
	}
	if located[0].Dep != paris || located[0].Arr != lyon {
		t.Fatalf("coordinates = %+v / %+v", located[0].Dep, located[0].Arr)
	}
	if located[3].Arr.Valid() {
		t.Fatalf("unknown station got coordinates")
	}
}

func TestBuildEdges(t *testing.T) {
	located, _ := network(t)
	edges := BuildEdges(located)
	if len(edges) != 3 {
		t.Fatalf("edges = %d, want 3", len(edges))
	}
	want := []string{"LYON PART DIEU → PARIS LYON", "PARIS LYON → LYON PART DIEU", "PARIS LYON → NOWHERE"}
	for i, w := range want {
		if edges[i].Liaison != w {
			t.Fatalf("edge[%d] = %s, want %s", i, edges[i].Liaison, w)
		}
	}
	pl := edges[1]
	if pl.Circulated != 200 || pl.LateArr != 30 || pl.Severe15 != 8 || pl.Rows != 2 {
		t.Fatalf("sums = %+v", pl)
	}
	if !near(pl.OnTimePct, 85) || !near(pl.AvgDelayDelayedMin, 15) {
		t.Fatalf("rates = %v / %v", pl.OnTimePct, pl.AvgDelayDelayedMin)
	}
	if !near(pl.DistanceKm, Haversine(paris, lyon)) {
		t.Fatalf("distance = %v", pl.DistanceKm)
	}
	if !near(pl.Width, 12) || !near(edges[0].Width, 2) {
		t.Fatalf("widths = %v / %v", pl.Width, edges[0].Width)
	}

	nowhere := edges[2]
	if nowhere.Mappable() || nowhere.Width != 0 || !math.IsNaN(nowhere.DistanceKm) {
		t.Fatalf("unmapped edge = %+v", nowhere)
	}
	if nowhere.Service != "International" || nowhere.Color != ColorFor(90) {
		t.Fatalf("unmapped edge keeps its attributes: %+v", nowhere)
	}
	if m := Mapped(edges); len(m) != 2 {
		t.Fatalf("mapped = %d, want 2", len(m))
	}
}

func TestColorFor(t *testing.T) {
	tests := []struct {
		pct  float64
		want RGBA
	}{
		{100, RGBA{0, 255, 0, 180}},
		{0, RGBA{255, 180, 80, 180}},
		{50, RGBA{128, 218, 40, 180}},
		{150, RGBA{0, 255, 0, 180}},
		{math.NaN(), Gray},
	}
	for _, tt := range tests {
		if got := ColorFor(tt.pct); got != tt.want {
			t.Fatalf("ColorFor(%v) = %v, want %v", tt.pct, got, tt.want)
		}
	}
}

func TestMergeBidirectional(t *testing.T) {
	located, _ := network(t)
	merged := MergeBidirectional(Mapped(BuildEdges(located)), testLookup())
	if len(merged) != 1 {
		t.Fatalf("merged = %+v", merged)
	}
	m := merged[0]
	if m.Liaison != "LYON PART DIEU ↔ PARIS LYON" || m.Departure != "LYON PART DIEU" {
		t.Fatalf("key = %s (%s)", m.Liaison, m.Departure)
	}
	if m.Circulated != 250 || m.LateArr != 40 || m.Rows != 3 {
		t.Fatalf("sums = %+v", m)
	}
	// (85·200 + 80·50) / 250
	if !near(m.OnTimePct, 84) {
		t.Fatalf("weighted on-time = %v, want 84", m.OnTimePct)
	}
	if m.Dep != lyon || m.Arr != paris || !near(m.DistanceKm, Haversine(lyon, paris)) {
		t.Fatalf("endpoints = %+v %+v %v", m.Dep, m.Arr, m.DistanceKm)
	}
	if m.Width != 2 {
		t.Fatalf("width = %v", m.Width)
	}
}

func TestWeightedOrMean(t *testing.T) {
	if got := weightedOrMean([]float64{80, math.NaN()}, []float64{0, 0}); got != 80 {
		t.Fatalf("fallback mean = %v", got)
	}
	if got := weightedOrMean([]float64{80, math.NaN()}, []float64{100, 100}); got != 40 {
		t.Fatalf("missing counted as 0 = %v", got)
	}
	if got := weightedOrMean([]float64{math.NaN()}, []float64{10}); !math.IsNaN(got) {
		t.Fatalf("all undefined = %v", got)
	}
}

func TestStationsAndHubs(t *testing.T) {
	located, _ := network(t)
	st := Stations(located)
	if len(st) != 2 || st[0].Station != "LYON PART DIEU" || st[1].Station != "PARIS LYON" {
		t.Fatalf("stations = %+v", st)
	}
	p := st[1]
	if p.Circulated != 300 || p.LateArr != 45 || !near(p.LateRatePct, 15) || !near(p.OnTimePct, 85) {
		t.Fatalf("paris = %+v", p)
	}
	if st[0].Circulated != 250 || st[0].LateArr != 40 {
		t.Fatalf("lyon = %+v", st[0])
	}

	hubs := Hubs(located, st, 5)
	if len(hubs) != 2 || hubs[0].Station != "PARIS LYON" || hubs[0].Partners != 2 || hubs[1].Partners != 1 {
		t.Fatalf("hubs = %+v", hubs)
	}
	if one := Hubs(located, st, 1); len(one) != 1 {
		t.Fatalf("top 1 = %+v", one)
	}

	pts := DensityPoints(located)
	if len(pts) != 7 || pts[0].Point != paris || pts[0].Weight != 10 {
		t.Fatalf("points = %+v", pts)
	}
}

func TestDistanceCorrelation(t *testing.T) {
	edges := []Edge{
		{DistanceKm: 100, OnTimePct: 90},
		{DistanceKm: 200, OnTimePct: 85},
		{DistanceKm: 300, OnTimePct: 80},
		{DistanceKm: 400, OnTimePct: 75},
		{DistanceKm: math.NaN(), OnTimePct: 10},
	}
	r, n := DistanceCorrelation(edges)
	if n != 4 || !near(r, -1) {
		t.Fatalf("r = %v over %d edges", r, n)
	}
	if r, n := DistanceCorrelation(edges[:2]); n != 2 || !math.IsNaN(r) {
		t.Fatalf("two edges: r = %v, n = %d", r, n)
	}
}

func TestRiskTable(t *testing.T) {
	edges := []Edge{
		{Liaison: "A", OnTimePct: 80, Circulated: 100, Severe15: 10},
		{Liaison: "B", OnTimePct: 80, Circulated: 100, Severe15: 30},
		{Liaison: "C", OnTimePct: 70, Circulated: 100},
		{Liaison: "D", OnTimePct: math.NaN()},
	}
	risk := RiskTable(edges, 3)
	if len(risk) != 3 {
		t.Fatalf("risk rows = %d", len(risk))
	}
	for i, w := range []string{"C", "B", "A"} {
		if risk[i].Liaison != w {
			t.Fatalf("risk[%d] = %s, want %s", i, risk[i].Liaison, w)
		}
	}
	if !near(risk[1].Score, 6) || !near(risk[2].Score, 2) {
		t.Fatalf("scores = %v / %v", risk[1].Score, risk[2].Score)
	}
	if all := RiskTable(edges, 0); !math.IsNaN(all[3].Score) {
		t.Fatalf("zero circulated must score undefined")
	}
}

func TestEmptyInputs(t *testing.T) {
	located, missing := Attach(recordtest.Table(), testLookup())
	if located != nil || missing != nil {
		t.Fatalf("attach on empty table")
	}
	if BuildEdges(nil) != nil || MergeBidirectional(nil, testLookup()) != nil || Stations(nil) != nil || RiskTable(nil, 5) != nil {
		t.Fatalf("views over no input must be empty")
	}
	var nilLookup *Lookup
	if _, ok := nilLookup.Find("PARIS"); ok {
		t.Fatalf("nil lookup resolved")
	}
}
