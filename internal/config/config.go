package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/punctuality-cli/internal/utils"
)

// DefaultSourceURL is the published monthly regularity dataset, semicolon
// separated with French column labels.
const DefaultSourceURL = "https://ressources.data.sncf.com/explore/dataset/regularite-mensuelle-tgv-aqst/download/?format=csv&timezone=Europe/Berlin&lang=fr&use_labels_for_header=true&csv_separator=%3B"

// Global configuration structure.
type Global struct {
	// DataDir anchors every relative file name below.
	DataDir      string `mapstructure:"data_dir" yaml:"data_dir"`
	SourceFile   string `mapstructure:"source_file" yaml:"source_file" validate:"required"`
	SourceURL    string `mapstructure:"source_url" yaml:"source_url" validate:"omitempty,url"`
	CacheFile    string `mapstructure:"cache_file" yaml:"cache_file"`
	StationsFile string `mapstructure:"stations_file" yaml:"stations_file"`
	StateFile    string `mapstructure:"state_file" yaml:"state_file"`

	LogFile  string `mapstructure:"log_file" yaml:"log_file"`
	LogLevel string `mapstructure:"log_level" yaml:"log_level" validate:"oneof=debug info warn error"`

	HTTPTimeoutSec int    `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec" validate:"min=1"`
	FetchSchedule  string `mapstructure:"fetch_schedule" yaml:"fetch_schedule"`
	ServeAddr      string `mapstructure:"serve_addr" yaml:"serve_addr" validate:"required"`
	MemoSize       int    `mapstructure:"memo_size" yaml:"memo_size" validate:"min=0"`

	DefaultTopN      int     `mapstructure:"default_top_n" yaml:"default_top_n" validate:"min=5,max=30"`
	OutlierMethod    string  `mapstructure:"outlier_method" yaml:"outlier_method" validate:"oneof=iqr z"`
	OutlierThreshold float64 `mapstructure:"outlier_threshold" yaml:"outlier_threshold" validate:"gt=0"`
}

// Keys lists the configuration keys accepted by `config set`.
var Keys = []string{
	"data_dir", "source_file", "source_url", "cache_file", "stations_file", "state_file",
	"log_file", "log_level", "http_timeout_sec", "fetch_schedule", "serve_addr", "memo_size",
	"default_top_n", "outlier_method", "outlier_threshold",
}

var validate = validator.New()

// Validate checks ranges and enumerations.
func (c *Global) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Path resolves a configured file name against the data directory.
func (c *Global) Path(name string) string {
	return utils.ResolvePath(c.DataDir, name)
}

// SourcePath is the raw dataset location.
func (c *Global) SourcePath() string { return c.Path(c.SourceFile) }

// CachePath is the cleaned table cache location; empty disables the cache.
func (c *Global) CachePath() string { return c.Path(c.CacheFile) }

// StationsPath is the station coordinate table location.
func (c *Global) StationsPath() string { return c.Path(c.StationsFile) }

// StatePath is the saved filter state location.
func (c *Global) StatePath() string { return c.Path(c.StateFile) }

func homeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".punctuality"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.punctuality/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := homeDir()
		if err != nil {
			return err
		}
		if err := utils.EnsureDir(dir); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("PUNCTUALITY")
	v.AutomaticEnv()

	v.SetDefault("data_dir", "data")
	v.SetDefault("source_file", "regularite-mensuelle-tgv-aqst.csv")
	v.SetDefault("source_url", DefaultSourceURL)
	v.SetDefault("cache_file", "regularite-clean.gob")
	v.SetDefault("stations_file", "stations.csv")
	v.SetDefault("state_file", "filters.yaml")
	v.SetDefault("log_file", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("fetch_schedule", "")
	v.SetDefault("serve_addr", "127.0.0.1:8080")
	v.SetDefault("memo_size", 256)
	v.SetDefault("default_top_n", 10)
	v.SetDefault("outlier_method", "iqr")
	v.SetDefault("outlier_threshold", 1.5)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := homeDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	c.DataDir = utils.ExpandHome(c.DataDir)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
