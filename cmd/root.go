package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/punctuality-cli/internal/config"
	"github.com/KaramelBytes/punctuality-cli/internal/logging"
	"github.com/KaramelBytes/punctuality-cli/internal/memo"
	"github.com/KaramelBytes/punctuality-cli/internal/session"
)

var (
	cfgFile string
	debug   bool
	// Overrides of the loaded configuration
	flagDataDir      string
	flagSourceFile   string
	flagStationsFile string
	flagNoCache      bool

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "punctuality",
	Short: "Punctuality analytics over monthly train liaison records",
	Long: `punctuality loads the monthly regularity dataset of high-speed liaisons, filters it
by period, service, duration class and station, and computes KPIs, rankings, delay
cause breakdowns, geographic overlays and data-quality diagnostics.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.punctuality/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagSourceFile, "source", "", "dataset file, CSV or XLSX (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagStationsFile, "stations", "", "station coordinates CSV (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "always clean the source, never read or write the cache")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: config commands can still repair the file
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c

	f := rootCmd.PersistentFlags()
	if f.Changed("data-dir") && flagDataDir != "" {
		cfg.DataDir = flagDataDir
	}
	if f.Changed("source") && flagSourceFile != "" {
		cfg.SourceFile = flagSourceFile
	}
	if f.Changed("stations") && flagStationsFile != "" {
		cfg.StationsFile = flagStationsFile
	}
	if flagNoCache {
		cfg.CacheFile = ""
	}
	if debug {
		cfg.LogLevel = "debug"
	}
}

func requireConfig() error {
	if cfg == nil {
		return fmt.Errorf("no configuration loaded; fix it with 'punctuality config set' or --config")
	}
	return nil
}

// newLogger logs to stderr and the configured log file.
func newLogger() (*logging.Logger, error) {
	if err := requireConfig(); err != nil {
		return nil, err
	}
	return logging.New(os.Stderr, cfg.LogFile, cfg.LogLevel)
}

// openSession loads the dataset described by the configuration.
func openSession(log *logging.Logger, obs memo.Observer) (*session.Session, error) {
	sc := session.ConfigFrom(cfg)
	sc.Logger = log.Logger
	sc.Observer = obs
	s, err := session.Open(sc)
	if err != nil {
		return nil, err
	}
	return s, nil
}
