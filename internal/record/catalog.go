package record

import "sort"

// Catalog holds the distinct values offered by the filter controls.
type Catalog struct {
	Months          []string `json:"months" yaml:"months"`
	Services        []string `json:"services" yaml:"services"`
	Departures      []string `json:"departures" yaml:"departures"`
	Arrivals        []string `json:"arrivals" yaml:"arrivals"`
	DurationClasses []string `json:"duration_classes" yaml:"duration_classes"`
	FirstMonth      string   `json:"first_month" yaml:"first_month"`
	LastMonth       string   `json:"last_month" yaml:"last_month"`
}

// BuildCatalog computes the catalog once from the canonical table.
func BuildCatalog(t *Table) Catalog {
	months := map[string]bool{}
	services := map[string]bool{}
	deps := map[string]bool{}
	arrs := map[string]bool{}
	if t != nil {
		for i := range t.Records {
			r := &t.Records[i]
			months[r.Date.Format(MonthLayout)] = true
			if r.Service != "" {
				services[r.Service] = true
			}
			if r.Departure != "" {
				deps[r.Departure] = true
			}
			if r.Arrival != "" {
				arrs[r.Arrival] = true
			}
		}
	}
	c := Catalog{
		Months:          sortedKeys(months),
		Services:        sortedKeys(services),
		Departures:      sortedKeys(deps),
		Arrivals:        sortedKeys(arrs),
		DurationClasses: append([]string(nil), DurationClasses...),
	}
	if n := len(c.Months); n > 0 {
		c.FirstMonth, c.LastMonth = c.Months[0], c.Months[n-1]
	}
	return c
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
