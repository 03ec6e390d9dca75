// Package quality runs the data quality checks over a filtered view. Checks
// never fail: every finding is a row in a violations table.
package quality

import (
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"

	"github.com/KaramelBytes/punctuality-cli/internal/record"
)

// Options controls the outlier check.
type Options struct {
	Method    Method  `yaml:"outlier_method" json:"outlier_method" mapstructure:"outlier_method" validate:"oneof=iqr z"`
	Threshold float64 `yaml:"outlier_threshold" json:"outlier_threshold" mapstructure:"outlier_threshold" validate:"gt=0"`
}

// DefaultOptions returns the IQR rule with k = 1.5.
func DefaultOptions() Options {
	return Options{Method: MethodIQR, Threshold: 1.5}
}

var validate = validator.New()

// Validate checks the method and threshold.
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("invalid quality options: %w", err)
	}
	return nil
}

// Report gathers every check over one view.
type Report struct {
	Rows           int
	Columns        int
	Missing        []Missing
	MissingByMonth []MonthMissing
	DuplicateKeys  []DuplicateGroup
	FullDuplicates []int
	Bounds         []BoundsIssue
	Logic          []RuleViolation
	Outliers       []Outlier
	Score          int
}

// Analyze runs every check. Invalid options fall back to the defaults.
func Analyze(t *record.Table, opts Options) Report {
	if opts.Validate() != nil {
		opts = DefaultOptions()
	}
	r := Report{
		Rows:           t.Len(),
		Columns:        len(t.Columns()),
		Missing:        Missingness(t),
		MissingByMonth: MissingByMonth(t),
		DuplicateKeys:  DuplicateKeys(t),
		FullDuplicates: FullDuplicates(t),
		Bounds:         BoundsIssues(t),
		Logic:          LogicalConsistency(t),
		Outliers:       OutlierMonths(t, opts.Method, opts.Threshold),
	}
	if t != nil {
		r.Columns += len(t.Extra)
	}
	r.Score = Score(r.Rows, r.Missing, len(r.DuplicateKeys), len(r.Bounds), len(r.Logic), len(r.Outliers))
	return r
}

// Score starts at 100 and subtracts half the mean missing percentage, the
// duplicate key rate capped at 10, and the bounds, logic and outlier rates
// each capped at 15. Rates are per 100 rows. The result is never negative.
func Score(rows int, missing []Missing, dupGroups, bounds, logic, outliers int) int {
	score := 100.0
	if len(missing) > 0 {
		var sum float64
		for _, m := range missing {
			sum += m.Pct
		}
		score -= 0.5 * sum / float64(len(missing))
	}
	if rows > 0 {
		rate := func(n int) float64 { return 100 * float64(n) / float64(rows) }
		score -= math.Min(10, rate(dupGroups))
		for _, n := range []int{bounds, logic, outliers} {
			score -= math.Min(15, rate(n))
		}
	}
	return int(math.Max(0, math.RoundToEven(score)))
}

// Tone grades a score: "excellent" from 90, "acceptable" from 75, "at risk"
// below.
func Tone(score int) string {
	switch {
	case score >= 90:
		return "excellent"
	case score >= 75:
		return "acceptable"
	default:
		return "at risk"
	}
}
