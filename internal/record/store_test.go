package record_test

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/KaramelBytes/punctuality-cli/internal/parser"
	"github.com/KaramelBytes/punctuality-cli/internal/record"
	"github.com/KaramelBytes/punctuality-cli/internal/record/recordtest"
)

// sameTable compares value-for-value; NaN equals NaN through formatting.
func sameTable(t *testing.T, got, want *record.Table) {
	t.Helper()
	if got.Len() != want.Len() {
		t.Fatalf("rows = %d, want %d", got.Len(), want.Len())
	}
	for i := range want.Records {
		g, w := fmt.Sprintf("%+v", got.Records[i]), fmt.Sprintf("%+v", want.Records[i])
		if g != w {
			t.Fatalf("row %d differs:\n got %s\nwant %s", i, g, w)
		}
	}
	if fmt.Sprint(got.Columns()) != fmt.Sprint(want.Columns()) {
		t.Fatalf("columns = %v, want %v", got.Columns(), want.Columns())
	}
	if fmt.Sprint(got.Extra) != fmt.Sprint(want.Extra) {
		t.Fatalf("extra = %v, want %v", got.Extra, want.Extra)
	}
}

func TestCacheRoundTrip(t *testing.T) {
	tbl := cleanSample(t, recordtest.SampleCSV)
	path := filepath.Join(t.TempDir(), "cache", "clean.gob")
	if err := record.SaveCache(path, tbl); err != nil {
		t.Fatalf("save: %v", err)
	}
	back, err := record.LoadCache(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	sameTable(t, back, tbl)
	if back.Records[3].Planned.Valid {
		t.Fatalf("missingness lost in round trip")
	}
	if !back.Records[0].Date.Equal(tbl.Records[0].Date) {
		t.Fatalf("date = %v, want %v", back.Records[0].Date, tbl.Records[0].Date)
	}
}

func TestLoadReadThrough(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "source.csv")
	cache := filepath.Join(dir, "clean.gob")
	if err := os.WriteFile(src, []byte(recordtest.SampleCSV), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	fresh, fromCache, err := record.Load(src, cache, parser.LoadTable)
	if err != nil || fromCache {
		t.Fatalf("first load: fromCache=%v err=%v", fromCache, err)
	}
	if _, err := os.Stat(cache); err != nil {
		t.Fatalf("cache not written: %v", err)
	}
	// Make sure the cache is not older than the source.
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(cache, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	cached, fromCache, err := record.Load(src, cache, parser.LoadTable)
	if err != nil || !fromCache {
		t.Fatalf("second load: fromCache=%v err=%v", fromCache, err)
	}
	sameTable(t, cached, fresh)
}

func TestLoadMissingSource(t *testing.T) {
	dir := t.TempDir()
	_, _, err := record.Load(filepath.Join(dir, "nope.csv"), filepath.Join(dir, "c.gob"), parser.LoadTable)
	if !errors.Is(err, record.ErrNoSource) {
		t.Fatalf("err = %v, want ErrNoSource", err)
	}
}

func TestLoadCacheRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.gob")
	if err := os.WriteFile(path, []byte("not gob"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := record.LoadCache(path); err == nil {
		t.Fatalf("expected decode error")
	}
}
