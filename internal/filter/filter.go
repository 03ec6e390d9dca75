package filter

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/punctuality-cli/internal/record"
	"github.com/KaramelBytes/punctuality-cli/internal/utils"
)

// DefaultServices are selected when no filter state has been saved.
var DefaultServices = []string{"National", "International"}

// State is the filter configuration of one request.
type State struct {
	DateStart          string   `yaml:"date_start" json:"date_start" mapstructure:"date_start" validate:"required,month"`
	DateEnd            string   `yaml:"date_end" json:"date_end" mapstructure:"date_end" validate:"required,month"`
	Services           []string `yaml:"services,omitempty" json:"services,omitempty" mapstructure:"services"`
	DurationClasses    []string `yaml:"duration_classes,omitempty" json:"duration_classes,omitempty" mapstructure:"duration_classes" validate:"dive,duration_class"`
	Departures         []string `yaml:"departures,omitempty" json:"departures,omitempty" mapstructure:"departures"`
	Arrivals           []string `yaml:"arrivals,omitempty" json:"arrivals,omitempty" mapstructure:"arrivals"`
	TreatBidirectional bool     `yaml:"treat_bidirectional" json:"treat_bidirectional" mapstructure:"treat_bidirectional"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("month", func(fl validator.FieldLevel) bool {
		_, err := record.ParseMonth(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("duration_class", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == record.DurationUnknown {
			return true
		}
		for _, c := range record.DurationClasses {
			if s == c {
				return true
			}
		}
		return false
	})
	return v
}

// Default returns the initial state for a catalog: default services, every
// duration class, bidirectional matching, the full month range.
func Default(c record.Catalog) State {
	return State{
		DateStart:          c.FirstMonth,
		DateEnd:            c.LastMonth,
		Services:           append([]string(nil), DefaultServices...),
		DurationClasses:    append([]string(nil), record.DurationClasses...),
		TreatBidirectional: true,
	}
}

// Validate checks the bounds and enumerations.
func (s State) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid filter: %w", err)
	}
	start, end, err := s.Bounds()
	if err != nil {
		return err
	}
	if start.After(end) {
		return fmt.Errorf("invalid filter: date_start %s is after date_end %s", s.DateStart, s.DateEnd)
	}
	return nil
}

// Bounds parses the inclusive month bounds.
func (s State) Bounds() (start, end time.Time, err error) {
	if start, err = record.ParseMonth(s.DateStart); err != nil {
		return start, end, fmt.Errorf("parse date_start: %w", err)
	}
	if end, err = record.ParseMonth(s.DateEnd); err != nil {
		return start, end, fmt.Errorf("parse date_end: %w", err)
	}
	return start, end, nil
}

// Key is a canonical form of the state: set order and duplicates do not
// change it.
func (s State) Key() string {
	parts := []string{
		s.DateStart, s.DateEnd,
		canonSet(s.Services), canonSet(s.DurationClasses),
		canonSet(s.Departures), canonSet(s.Arrivals),
		fmt.Sprintf("bidir=%t", s.TreatBidirectional),
	}
	return strings.Join(parts, "|")
}

func canonSet(vals []string) string {
	if len(vals) == 0 {
		return "*"
	}
	set := toSet(vals)
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return strings.Join(out, ",")
}

func toSet(vals []string) map[string]bool {
	if len(vals) == 0 {
		return nil
	}
	m := make(map[string]bool, len(vals))
	for _, v := range vals {
		m[v] = true
	}
	return m
}

// Apply returns a new table holding the records that match s. The input is
// never modified; an empty result is not an error.
func Apply(t *record.Table, s State) (*record.Table, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	start, end, _ := s.Bounds()
	services := toSet(s.Services)
	classes := toSet(s.DurationClasses)
	deps := toSet(s.Departures)
	arrs := toSet(s.Arrivals)

	out := make([]record.Record, 0, t.Len())
	for i := range t.Records {
		r := &t.Records[i]
		if r.Date.Before(start) || r.Date.After(end) {
			continue
		}
		if services != nil && !services[r.Service] {
			continue
		}
		if classes != nil && !classes[r.DurationClass] {
			continue
		}
		if !matchStations(r, deps, arrs, s.TreatBidirectional) {
			continue
		}
		out = append(out, *r)
	}
	return t.Subset(out), nil
}

// matchStations applies the station sets. Bidirectional mode treats each set
// as "either endpoint" and intersects the two predicates.
func matchStations(r *record.Record, deps, arrs map[string]bool, bidirectional bool) bool {
	if bidirectional {
		if deps != nil && !deps[r.Departure] && !deps[r.Arrival] {
			return false
		}
		if arrs != nil && !arrs[r.Departure] && !arrs[r.Arrival] {
			return false
		}
		return true
	}
	if deps != nil && !deps[r.Departure] {
		return false
	}
	if arrs != nil && !arrs[r.Arrival] {
		return false
	}
	return true
}

// LoadState reads a YAML filter state. A missing file returns ok=false.
func LoadState(path string) (s State, ok bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return State{}, false, nil
		}
		return State{}, false, fmt.Errorf("read filter state: %w", err)
	}
	if err := yaml.Unmarshal(b, &s); err != nil {
		return State{}, false, fmt.Errorf("parse filter state: %w", err)
	}
	return s, true, nil
}

// SaveState writes the state as YAML.
func SaveState(path string, s State) error {
	b, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal filter state: %w", err)
	}
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	return utils.SafeWriteFile(path, b)
}
