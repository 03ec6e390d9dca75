package session

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/punctuality-cli/internal/aggregate"
	"github.com/KaramelBytes/punctuality-cli/internal/record"
	"github.com/KaramelBytes/punctuality-cli/internal/record/recordtest"
)

const stationsCSV = "station,lat,lon\nPARIS LYON,48.8443,2.3744\nMARSEILLE ST CHARLES,43.3028,5.3806\n"

type counter struct{ hits, misses int }

func (c *counter) CacheHit()  { c.hits++ }
func (c *counter) CacheMiss() { c.misses++ }

func testConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()
	src := filepath.Join(dir, "source.csv")
	if err := os.WriteFile(src, []byte(recordtest.SampleCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	stations := filepath.Join(dir, "stations.csv")
	if err := os.WriteFile(stations, []byte(stationsCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	return Config{
		SourcePath:   src,
		CachePath:    filepath.Join(dir, "cache", "clean.gob"),
		StationsPath: stations,
		StatePath:    filepath.Join(dir, "filters.yaml"),
		MemoSize:     64,
		TopN:         5,
	}
}

func TestOpenUsesCacheOnSecondLoad(t *testing.T) {
	cfg := testConfig(t)
	s, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.FromCache || s.Table.Len() != 5 || s.ID == "" {
		t.Fatalf("first open: cache=%v rows=%d id=%q", s.FromCache, s.Table.Len(), s.ID)
	}
	if got := len(s.Catalog.Months); got != 3 {
		t.Fatalf("months = %d, want 3", got)
	}
	if s.Lookup.Len() != 2 {
		t.Fatalf("lookup = %d stations, want 2", s.Lookup.Len())
	}

	again, err := Open(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if !again.FromCache || again.Table.Len() != 5 {
		t.Fatalf("second open: cache=%v rows=%d", again.FromCache, again.Table.Len())
	}
	if again.ID == s.ID {
		t.Fatalf("sessions share an id")
	}
}

func TestOpenWithoutSource(t *testing.T) {
	cfg := testConfig(t)
	cfg.SourcePath = filepath.Join(t.TempDir(), "absent.csv")
	cfg.CachePath = ""
	_, err := Open(cfg)
	if !errors.Is(err, record.ErrNoSource) {
		t.Fatalf("err = %v, want ErrNoSource", err)
	}
}

func TestOpenRejectsEmptyDataset(t *testing.T) {
	cfg := testConfig(t)
	header := strings.SplitN(recordtest.SampleCSV, "\n", 2)[0] + "\n"
	if err := os.WriteFile(cfg.SourcePath, []byte(header), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Open(cfg)
	if !errors.Is(err, record.ErrEmptyDataset) {
		t.Fatalf("err = %v, want ErrEmptyDataset", err)
	}
}

func TestOpenDegradesWithoutStations(t *testing.T) {
	cfg := testConfig(t)
	cfg.StationsPath = filepath.Join(t.TempDir(), "absent.csv")
	s, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.Lookup == nil || s.Lookup.Len() != 0 {
		t.Fatalf("lookup = %+v, want empty", s.Lookup)
	}
	v, err := s.Views(s.State(), s.DefaultOptions(), ViewGeo, ViewKPI)
	if err != nil {
		t.Fatalf("Views: %v", err)
	}
	if len(v.Geo.Missing) != 5 || v.KPI.Rows != 5 {
		t.Fatalf("missing = %v, kpi rows = %d", v.Geo.Missing, v.KPI.Rows)
	}
}

func TestViewsAreMemoized(t *testing.T) {
	cfg := testConfig(t)
	obs := &counter{}
	cfg.Observer = obs
	s, err := Open(cfg)
	if err != nil {
		t.Fatal(err)
	}
	first, err := s.Views(s.State(), s.DefaultOptions())
	if err != nil {
		t.Fatalf("Views: %v", err)
	}
	misses := obs.misses
	second, err := s.Views(s.State(), s.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if obs.misses != misses {
		t.Fatalf("second request missed %d times", obs.misses-misses)
	}
	if *first.KPI != *second.KPI {
		t.Fatalf("kpi changed: %+v vs %+v", first.KPI, second.KPI)
	}
}

func TestViewsMatchAggregates(t *testing.T) {
	s, err := Open(testConfig(t))
	if err != nil {
		t.Fatal(err)
	}
	st := s.State()
	st.Services = []string{"National"}
	v, err := s.Views(st, s.DefaultOptions(), ViewKPI, ViewRanking, ViewGeo)
	if err != nil {
		t.Fatalf("Views: %v", err)
	}
	filtered, err := s.Filtered(st)
	if err != nil {
		t.Fatal(err)
	}
	if v.Rows != 4 || filtered.Len() != 4 {
		t.Fatalf("rows = %d/%d, want 4", v.Rows, filtered.Len())
	}
	if want := aggregate.Snapshot(filtered); *v.KPI != want {
		t.Fatalf("kpi = %+v, want %+v", *v.KPI, want)
	}
	// Paris/Marseille both ways merge into one liaison.
	if got := len(v.Ranking.All); got != 2 {
		t.Fatalf("ranking has %d liaisons, want 2", got)
	}
	if v.Monthly != nil || v.Quality != nil {
		t.Fatalf("unrequested views computed")
	}
	mapped := 0
	for _, e := range v.Geo.Edges {
		if e.Mappable() {
			mapped++
		}
	}
	if mapped != 1 {
		t.Fatalf("mapped edges = %d, want 1", mapped)
	}
}

func TestViewsRejectInvalidInput(t *testing.T) {
	s, err := Open(testConfig(t))
	if err != nil {
		t.Fatal(err)
	}
	opts := s.DefaultOptions()
	opts.TopN = 2
	if _, err := s.Views(s.State(), opts); err == nil {
		t.Fatalf("expected invalid options error")
	}
	st := s.State()
	st.DateStart, st.DateEnd = "2024-03", "2024-01"
	if _, err := s.Views(st, s.DefaultOptions()); err == nil {
		t.Fatalf("expected reversed bounds error")
	}
	if _, err := ParseViews([]string{"kpi", "nope"}); err == nil {
		t.Fatalf("expected unknown view error")
	}
}

func TestEmptyFilterYieldsShapedTables(t *testing.T) {
	s, err := Open(testConfig(t))
	if err != nil {
		t.Fatal(err)
	}
	st := s.State()
	st.Departures = []string{"NOWHERE"}
	v, err := s.Views(st, s.DefaultOptions())
	if err != nil {
		t.Fatalf("Views: %v", err)
	}
	if v.Rows != 0 {
		t.Fatalf("rows = %d, want 0", v.Rows)
	}
	tables := Tables(v)
	names := map[string]bool{}
	for _, tab := range tables {
		if len(tab.Columns) == 0 {
			t.Fatalf("%s has no columns", tab.Name)
		}
		names[tab.Name] = true
	}
	for _, want := range []string{"kpi", "monthly", "ranking_top", "causes_by_month", "causes_pivot", "edges", "risk", "quality_summary", "quality_outliers"} {
		if !names[want] {
			t.Fatalf("missing table %s in %v", want, names)
		}
	}
}

func TestStateLifecycle(t *testing.T) {
	cfg := testConfig(t)
	s, err := Open(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !s.State().TreatBidirectional || s.State().DateStart != "2024-01" || s.State().DateEnd != "2024-03" {
		t.Fatalf("default state = %+v", s.State())
	}

	bad := s.State()
	bad.DateStart = "January"
	if err := s.SetState(bad); err == nil {
		t.Fatalf("expected invalid state error")
	}

	st := s.State()
	st.Services = []string{"International"}
	st.TreatBidirectional = false
	if err := s.SetState(st); err != nil {
		t.Fatalf("SetState: %v", err)
	}
	if err := s.SaveState(); err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	reopened, err := Open(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if reopened.State().Key() != st.Key() {
		t.Fatalf("restored state = %+v, want %+v", reopened.State(), st)
	}

	if err := os.WriteFile(cfg.StatePath, []byte("date_start: nope\ndate_end: 2024-03\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := reopened.ReloadState(); err == nil {
		t.Fatalf("expected invalid saved state error")
	}
	if reopened.State().Key() != st.Key() {
		t.Fatalf("invalid reload changed the state")
	}
}

func TestExport(t *testing.T) {
	s, err := Open(testConfig(t))
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	paths, err := s.Export(dir, "csv", s.State(), s.DefaultOptions(), ViewKPI, ViewSeverity)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("paths = %v", paths)
	}
	b, err := os.ReadFile(filepath.Join(dir, "kpi.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if len(b) == 0 {
		t.Fatalf("empty kpi export")
	}
}
