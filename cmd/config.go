package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/punctuality-cli/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set punctuality configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if cfg == nil {
			fmt.Fprintln(out, "No config loaded")
			return nil
		}
		for _, k := range cfgpkg.Keys {
			v, _ := configValue(cfg, k)
			fmt.Fprintf(out, "%s: %s\n", k, v)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		// Reload from disk so flag overrides are not persisted.
		c, err := cfgpkg.Load(cfgFile)
		if err != nil {
			if cfg == nil {
				return err
			}
			c = cfg
		}
		if err := setConfigValue(c, key, val); err != nil {
			return err
		}
		if err := c.Validate(); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		cfg = c
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Saved config (%s = %s)\n", key, val)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func configValue(c *cfgpkg.Global, key string) (string, bool) {
	switch key {
	case "data_dir":
		return c.DataDir, true
	case "source_file":
		return c.SourceFile, true
	case "source_url":
		return c.SourceURL, true
	case "cache_file":
		return c.CacheFile, true
	case "stations_file":
		return c.StationsFile, true
	case "state_file":
		return c.StateFile, true
	case "log_file":
		return c.LogFile, true
	case "log_level":
		return c.LogLevel, true
	case "http_timeout_sec":
		return strconv.Itoa(c.HTTPTimeoutSec), true
	case "fetch_schedule":
		return c.FetchSchedule, true
	case "serve_addr":
		return c.ServeAddr, true
	case "memo_size":
		return strconv.Itoa(c.MemoSize), true
	case "default_top_n":
		return strconv.Itoa(c.DefaultTopN), true
	case "outlier_method":
		return c.OutlierMethod, true
	case "outlier_threshold":
		return strconv.FormatFloat(c.OutlierThreshold, 'g', -1, 64), true
	}
	return "", false
}

func setConfigValue(c *cfgpkg.Global, key, val string) error {
	atoi := func() (int, error) {
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("invalid int for %s: %w", key, err)
		}
		return i, nil
	}
	switch key {
	case "data_dir":
		c.DataDir = val
	case "source_file":
		c.SourceFile = val
	case "source_url":
		c.SourceURL = val
	case "cache_file":
		c.CacheFile = val
	case "stations_file":
		c.StationsFile = val
	case "state_file":
		c.StateFile = val
	case "log_file":
		c.LogFile = val
	case "log_level":
		c.LogLevel = val
	case "http_timeout_sec":
		i, err := atoi()
		if err != nil {
			return err
		}
		c.HTTPTimeoutSec = i
	case "fetch_schedule":
		c.FetchSchedule = val
	case "serve_addr":
		c.ServeAddr = val
	case "memo_size":
		i, err := atoi()
		if err != nil {
			return err
		}
		c.MemoSize = i
	case "default_top_n":
		i, err := atoi()
		if err != nil {
			return err
		}
		c.DefaultTopN = i
	case "outlier_method":
		c.OutlierMethod = val
	case "outlier_threshold":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("invalid float for outlier_threshold: %w", err)
		}
		c.OutlierThreshold = f
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}
