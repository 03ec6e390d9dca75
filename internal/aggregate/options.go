package aggregate

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/KaramelBytes/punctuality-cli/internal/record"
)

// Metric selects the value a view ranks or plots. Values are the canonical
// column names they read.
type Metric string

const (
	MetricOnTime     Metric = "on_time_pct"
	MetricAvgDelay   Metric = "avg_delay_arr_delayed_min"
	MetricCancelRate Metric = "cancel_rate_pct"
)

// Metrics lists every metric in display order.
var Metrics = []Metric{MetricOnTime, MetricAvgDelay, MetricCancelRate}

// Label is the display label of the metric.
func (m Metric) Label() string {
	switch m {
	case MetricAvgDelay:
		return "Avg arrival delay (delayed trains)"
	case MetricCancelRate:
		return "Cancel rate %"
	default:
		return "On-time arrival %"
	}
}

// ParseMetric accepts a column name or a display label, case-insensitively.
func ParseMetric(s string) (Metric, error) {
	for _, m := range Metrics {
		if strings.EqualFold(s, string(m)) || strings.EqualFold(s, m.Label()) {
			return m, nil
		}
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on-time", "ontime", "on_time":
		return MetricOnTime, nil
	case "delay", "avg-delay", "avg_delay":
		return MetricAvgDelay, nil
	case "cancel", "cancel-rate", "cancel_rate":
		return MetricCancelRate, nil
	}
	return "", fmt.Errorf("unknown metric %q", s)
}

// Breakdown selects the grouping of cause and severity views.
type Breakdown string

const (
	ByMonth   Breakdown = "month"
	ByLiaison Breakdown = "liaison"
)

// Options are the view options that accompany a filter state.
type Options struct {
	Metric    Metric        `yaml:"metric" json:"metric" mapstructure:"metric" validate:"oneof=on_time_pct avg_delay_arr_delayed_min cancel_rate_pct"`
	Breakdown Breakdown     `yaml:"breakdown" json:"breakdown" mapstructure:"breakdown" validate:"oneof=month liaison"`
	TopN      int           `yaml:"top_n" json:"top_n" mapstructure:"top_n" validate:"min=5,max=30"`
	Bucket    record.Bucket `yaml:"severity_bucket" json:"severity_bucket" mapstructure:"severity_bucket" validate:"oneof=15 30 60"`
	ColorBy   record.Column `yaml:"color_by" json:"color_by" mapstructure:"color_by" validate:"oneof=service duration_class"`
}

// DefaultOptions returns the options of a fresh session.
func DefaultOptions() Options {
	return Options{
		Metric:    MetricOnTime,
		Breakdown: ByMonth,
		TopN:      10,
		Bucket:    record.Bucket15,
		ColorBy:   record.ColService,
	}
}

var validate = validator.New()

// Validate checks the enumerations and the top-N range.
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	return nil
}

// Key is the memoization form of the options.
func (o Options) Key() string {
	return fmt.Sprintf("%s|%s|%d|%d|%s", o.Metric, o.Breakdown, o.TopN, o.Bucket, o.ColorBy)
}
