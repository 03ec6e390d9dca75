package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/KaramelBytes/punctuality-cli/internal/record/recordtest"
	"github.com/KaramelBytes/punctuality-cli/internal/report"
)

// resetFlags clears values and Changed state that persist across invocations
// of the shared root command.
func resetFlags(c *cobra.Command) {
	reset := func(fl *pflag.Flag) {
		if sv, ok := fl.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = fl.Value.Set(fl.DefValue)
		}
		fl.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCmd executes the root command with args and returns its stdout.
func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	out, err := tryCmd(args...)
	if err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
	return out
}

func tryCmd(args ...string) (string, error) {
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// setupWorkspace isolates HOME and writes a config pointing at a data dir
// holding the sample dataset.
func setupWorkspace(t *testing.T) (cfgPath, dataDir string) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	dataDir = filepath.Join(home, "data")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dataDir, "regularite-mensuelle-tgv-aqst.csv"), []byte(recordtest.SampleCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	cfgPath = filepath.Join(home, "config.yaml")
	body := "data_dir: " + dataDir + "\nlog_level: error\n"
	if err := os.WriteFile(cfgPath, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { cfg = nil })
	return cfgPath, dataDir
}

func TestCLI_LoadCatalogKPI(t *testing.T) {
	cfgPath, dataDir := setupWorkspace(t)

	out := runCmd(t, "--config", cfgPath, "load")
	if !strings.Contains(out, "✓ Loaded 5 rows") {
		t.Fatalf("load output = %q", out)
	}
	if _, err := os.Stat(filepath.Join(dataDir, "regularite-clean.gob")); err != nil {
		t.Fatalf("cache not written: %v", err)
	}
	out = runCmd(t, "--config", cfgPath, "load")
	if !strings.Contains(out, "from cache") {
		t.Fatalf("second load should use the cache: %q", out)
	}

	out = runCmd(t, "--config", cfgPath, "catalog")
	for _, want := range []string{"[MONTHS]", "2024-01", "[SERVICES]", "International", "[ARRIVALS]"} {
		if !strings.Contains(out, want) {
			t.Fatalf("catalog missing %q:\n%s", want, out)
		}
	}

	out = runCmd(t, "--config", cfgPath, "kpi", "--service", "National", "--format", "json")
	var tables []report.JSONTable
	if err := json.Unmarshal([]byte(out), &tables); err != nil {
		t.Fatalf("decode kpi json: %v\n%s", err, out)
	}
	if len(tables) == 0 || tables[0].Name != "kpi" {
		t.Fatalf("tables = %+v", tables)
	}

	out = runCmd(t, "--config", cfgPath, "quality")
	if !strings.Contains(out, "[DATA QUALITY]") {
		t.Fatalf("quality output = %q", out)
	}
}

func TestCLI_SaveStateAndReport(t *testing.T) {
	cfgPath, dataDir := setupWorkspace(t)

	runCmd(t, "--config", cfgPath, "ranking", "--from", "2024-02", "--save-state")
	if _, err := os.Stat(filepath.Join(dataDir, "filters.yaml")); err != nil {
		t.Fatalf("state not saved: %v", err)
	}

	outDir := filepath.Join(t.TempDir(), "out")
	out := runCmd(t, "--config", cfgPath, "report", "-o", outDir, "-f", "csv", "--view", "kpi", "--view", "ranking")
	if !strings.Contains(out, "kpi.csv") || !strings.Contains(out, "ranking_top.csv") {
		t.Fatalf("report output = %q", out)
	}
	if _, err := os.Stat(filepath.Join(outDir, "kpi.csv")); err != nil {
		t.Fatalf("kpi.csv: %v", err)
	}

	out = runCmd(t, "--config", cfgPath, "report", "-o", outDir, "-f", "xlsx")
	if !strings.Contains(out, "report.xlsx") {
		t.Fatalf("xlsx report output = %q", out)
	}
}

func TestCLI_ConfigSetShow(t *testing.T) {
	cfgPath, _ := setupWorkspace(t)

	runCmd(t, "--config", cfgPath, "config", "set", "default_top_n", "20")
	out := runCmd(t, "--config", cfgPath, "config", "show")
	if !strings.Contains(out, "default_top_n: 20") {
		t.Fatalf("config show = %q", out)
	}

	if _, err := tryCmd("--config", cfgPath, "config", "set", "default_top_n", "3"); err == nil {
		t.Fatalf("expected validation error for default_top_n=3")
	}
	if _, err := tryCmd("--config", cfgPath, "config", "set", "nope", "1"); err == nil {
		t.Fatalf("expected unknown key error")
	}
	out = runCmd(t, "--config", cfgPath, "config", "show")
	if !strings.Contains(out, "default_top_n: 20") {
		t.Fatalf("rejected values must not be saved: %q", out)
	}
}

func TestCLI_RejectsBadOptions(t *testing.T) {
	cfgPath, _ := setupWorkspace(t)
	if _, err := tryCmd("--config", cfgPath, "ranking", "--top", "3"); err == nil {
		t.Fatalf("expected error for --top 3")
	}
	if _, err := tryCmd("--config", cfgPath, "kpi", "--format", "xlsx"); err == nil {
		t.Fatalf("expected error for xlsx on stdout")
	}
}
