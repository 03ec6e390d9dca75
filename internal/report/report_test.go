package report

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/punctuality-cli/internal/aggregate"
	"github.com/KaramelBytes/punctuality-cli/internal/geo"
	"github.com/KaramelBytes/punctuality-cli/internal/quality"
)

func sample() Table {
	t := New("sample", "SAMPLE", "liaison", "circulated", "on_time_pct")
	t.Add("A → B", int64(100), 90.0)
	t.Add("B → C", int64(0), math.NaN())
	return t
}

func TestFormat(t *testing.T) {
	cases := []struct {
		v    any
		dec  int
		want string
	}{
		{"x", 2, "x"},
		{7, 2, "7"},
		{int64(-3), 2, "-3"},
		{true, 2, "true"},
		{90.0, 2, "90.00"},
		{1.23456, -1, "1.23456"},
		{math.NaN(), 2, "undef"},
		{math.Inf(1), -1, "undef"},
		{nil, 2, ""},
	}
	for _, c := range cases {
		if got := Format(c.v, c.dec, "undef"); got != c.want {
			t.Fatalf("Format(%v, %d) = %q, want %q", c.v, c.dec, got, c.want)
		}
	}
}

func TestMarkdown(t *testing.T) {
	var buf bytes.Buffer
	empty := New("empty", "", "a")
	if err := Markdown(&buf, sample(), empty); err != nil {
		t.Fatalf("Markdown: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"[SAMPLE]\n",
		"| liaison | circulated | on_time_pct |\n",
		"| A → B | 100 | 90.00 |\n",
		"| B → C | 0 | n/a |\n",
		"[empty]\n(no rows)\n",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("markdown missing %q:\n%s", want, out)
		}
	}
}

func TestCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := CSV(&buf, sample()); err != nil {
		t.Fatalf("CSV: %v", err)
	}
	want := "liaison,circulated,on_time_pct\nA → B,100,90\nB → C,0,\n"
	if buf.String() != want {
		t.Fatalf("CSV = %q, want %q", buf.String(), want)
	}

	buf.Reset()
	if err := CSV(&buf, New("empty", "", "a", "b")); err != nil {
		t.Fatalf("CSV empty: %v", err)
	}
	if buf.String() != "a,b\n" {
		t.Fatalf("empty CSV = %q", buf.String())
	}
}

func TestJSONUsesNull(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, sample()); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var got []struct {
		Name    string   `json:"name"`
		Columns []string `json:"columns"`
		Rows    [][]any  `json:"rows"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, buf.String())
	}
	if len(got) != 1 || got[0].Name != "sample" || len(got[0].Rows) != 2 {
		t.Fatalf("json = %+v", got)
	}
	if got[0].Rows[1][2] != nil {
		t.Fatalf("undefined on-time = %v, want null", got[0].Rows[1][2])
	}
	if got[0].Rows[0][2] != 90.0 {
		t.Fatalf("on-time = %v, want 90", got[0].Rows[0][2])
	}
}

func TestXLSX(t *testing.T) {
	var buf bytes.Buffer
	long := New("a_name_that_is_much_longer_than_excel_allows", "", "x")
	long.Add("v")
	if err := XLSX(&buf, sample(), long); err != nil {
		t.Fatalf("XLSX: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "sample" || len(sheets[1]) != 31 {
		t.Fatalf("sheets = %v", sheets)
	}
	rows, err := f.GetRows("sample")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 || rows[0][0] != "liaison" || rows[1][0] != "A → B" || rows[1][1] != "100" {
		t.Fatalf("rows = %v", rows)
	}
	if len(rows[2]) > 2 && rows[2][2] != "" {
		t.Fatalf("undefined cell = %q, want empty", rows[2][2])
	}
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	tables := []Table{sample(), KPI(aggregate.Snapshot(nil))}

	paths, err := Export(dir, "csv", tables)
	if err != nil {
		t.Fatalf("Export csv: %v", err)
	}
	if len(paths) != 2 || filepath.Base(paths[1]) != "kpi.csv" {
		t.Fatalf("paths = %v", paths)
	}
	for _, f := range []string{"md", "json", "xlsx"} {
		paths, err := Export(dir, f, tables)
		if err != nil {
			t.Fatalf("Export %s: %v", f, err)
		}
		if _, err := os.Stat(paths[0]); err != nil {
			t.Fatalf("missing %s: %v", paths[0], err)
		}
	}
	if _, err := Export(dir, "pdf", tables); err == nil {
		t.Fatalf("expected unknown format error")
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]string{"Markdown": "md", "excel": "xlsx", " CSV ": "csv", "json": "json"} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
}

func TestConverters(t *testing.T) {
	k := KPI(aggregate.KPI{Rows: 3, Circulated: 350, LateArr: 35, OnTimePct: 90})
	if k.Len() != 1 || k.Cell(0, "on_time_pct") != 90.0 || k.Cell(0, "circulated") != int64(350) {
		t.Fatalf("kpi = %+v", k)
	}

	edges := Edges([]geo.Edge{{Liaison: "A → B", Dep: geo.NoPoint, Arr: geo.NoPoint, Color: geo.Gray}})
	if edges.Cell(0, "color") != "#969696b4" {
		t.Fatalf("color = %v", edges.Cell(0, "color"))
	}

	d := Dominance([]aggregate.Dominance{{Liaison: "A → B", DominantCause: "Infrastructure"}})
	if len(d.Columns) != 11 || d.Cell(0, "dominant_cause") != "Infrastructure" {
		t.Fatalf("dominance = %v / %v", d.Columns, d.Rows)
	}

	q := Quality(quality.Report{Rows: 2, Score: 100, DuplicateKeys: []quality.DuplicateGroup{{Count: 2, Rows: []int{0, 1}}}})
	if len(q) != 8 || q[0].Cell(0, "tone") != "excellent" || q[3].Cell(0, "rows") != "0 1" {
		t.Fatalf("quality tables = %+v", q)
	}
	for _, tab := range q[1:] {
		if tab.Len() != 0 && tab.Name != "quality_duplicate_keys" {
			t.Fatalf("%s should be empty", tab.Name)
		}
	}

	r := Ranking(aggregate.Ranking{Metric: aggregate.MetricOnTime})
	if len(r) != 2 || r[0].Name != "ranking_top" || len(r[1].Columns) != len(liaisonColumns) {
		t.Fatalf("ranking tables = %+v", r)
	}
}
