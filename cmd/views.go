package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/punctuality-cli/internal/aggregate"
	"github.com/KaramelBytes/punctuality-cli/internal/filter"
	"github.com/KaramelBytes/punctuality-cli/internal/record"
	"github.com/KaramelBytes/punctuality-cli/internal/report"
	"github.com/KaramelBytes/punctuality-cli/internal/session"
)

var (
	// Filter state flags
	fltFrom          string
	fltTo            string
	fltServices      []string
	fltClasses       []string
	fltDepartures    []string
	fltArrivals      []string
	fltBidirectional bool
	fltSaveState     bool
	fltResetState    bool

	// View option flags
	optMetric    string
	optBreakdown string
	optTopN      int
	optBucket    int
	optColorBy   string
	optFormat    string
)

// addFilterFlags binds the filter state flags on a view command.
func addFilterFlags(c *cobra.Command) {
	f := c.Flags()
	f.StringVar(&fltFrom, "from", "", "first month, YYYY-MM (default: saved state or first month)")
	f.StringVar(&fltTo, "to", "", "last month, YYYY-MM (default: saved state or last month)")
	f.StringSliceVar(&fltServices, "service", nil, "services to keep (repeatable; empty keeps all)")
	f.StringSliceVar(&fltClasses, "duration-class", nil, "duration classes to keep (repeatable)")
	f.StringSliceVar(&fltDepartures, "departure", nil, "departure stations to keep (repeatable)")
	f.StringSliceVar(&fltArrivals, "arrival", nil, "arrival stations to keep (repeatable)")
	f.BoolVar(&fltBidirectional, "bidirectional", true, "treat A → B and B → A as one liaison")
	f.BoolVar(&fltSaveState, "save-state", false, "save the resulting filter state as the new default")
	f.BoolVar(&fltResetState, "reset-state", false, "start from the default state instead of the saved one")
}

// addOptionFlags binds the view option flags and the output format.
func addOptionFlags(c *cobra.Command) {
	f := c.Flags()
	f.StringVar(&optMetric, "metric", string(aggregate.MetricOnTime), "ranking and trend metric: on_time_pct, avg_delay_arr_delayed_min, cancel_rate_pct")
	f.StringVar(&optBreakdown, "breakdown", string(aggregate.ByMonth), "cause and severe-count grouping: month or liaison")
	f.IntVar(&optTopN, "top", 0, "rows at each end of rankings, 5 to 30 (default from config)")
	f.IntVar(&optBucket, "bucket", int(record.Bucket15), "severity bucket in minutes: 15, 30 or 60")
	f.StringVar(&optColorBy, "color-by", string(record.ColService), "attribute of the cause breakdown: service or duration_class")
	f.StringVarP(&optFormat, "format", "f", report.FormatMarkdown, "output format: md, csv, json (xlsx only with report)")
}

// filterState merges the saved state with the flags that were set.
func filterState(c *cobra.Command, s *session.Session) filter.State {
	st := s.State()
	if fltResetState {
		st = filter.Default(s.Catalog)
	}
	f := c.Flags()
	if f.Changed("from") {
		st.DateStart = fltFrom
	}
	if f.Changed("to") {
		st.DateEnd = fltTo
	}
	if f.Changed("service") {
		st.Services = fltServices
	}
	if f.Changed("duration-class") {
		st.DurationClasses = fltClasses
	}
	if f.Changed("departure") {
		st.Departures = fltDepartures
	}
	if f.Changed("arrival") {
		st.Arrivals = fltArrivals
	}
	if f.Changed("bidirectional") {
		st.TreatBidirectional = fltBidirectional
	}
	return st
}

// viewOptions builds the options from the flags.
func viewOptions(c *cobra.Command, s *session.Session) (aggregate.Options, error) {
	opts := s.DefaultOptions()
	m, err := aggregate.ParseMetric(optMetric)
	if err != nil {
		return opts, err
	}
	opts.Metric = m
	opts.Breakdown = aggregate.Breakdown(strings.ToLower(optBreakdown))
	if c.Flags().Changed("top") {
		opts.TopN = optTopN
	}
	opts.Bucket = record.Bucket(optBucket)
	opts.ColorBy = record.Column(optColorBy)
	return opts, opts.Validate()
}

// writeTables prints tables to the command output.
func writeTables(w io.Writer, format string, tables []report.Table) error {
	format, err := report.ParseFormat(format)
	if err != nil {
		return err
	}
	switch format {
	case report.FormatJSON:
		return report.JSON(w, tables...)
	case report.FormatCSV:
		for i, t := range tables {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "# %s\n", t.Name)
			if err := report.CSV(w, t); err != nil {
				return err
			}
		}
		return nil
	case report.FormatXLSX:
		return fmt.Errorf("xlsx output needs a file; use 'punctuality report --format xlsx'")
	default:
		return report.Markdown(w, tables...)
	}
}

// runViews is the request cycle shared by the view commands: open the
// session, resolve the filter state and options, compute and print.
func runViews(c *cobra.Command, views ...session.View) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Close()

	s, err := openSession(log, nil)
	if err != nil {
		return err
	}
	st := filterState(c, s)
	opts, err := viewOptions(c, s)
	if err != nil {
		return err
	}
	v, err := s.Views(st, opts, views...)
	if err != nil {
		return err
	}
	if fltSaveState {
		if err := s.SetState(st); err != nil {
			return err
		}
		if err := s.SaveState(); err != nil {
			return fmt.Errorf("save filter state: %w", err)
		}
		fmt.Fprintf(c.ErrOrStderr(), "✓ Saved filter state to %s\n", cfg.StatePath())
	}
	if v.Rows == 0 {
		fmt.Fprintln(c.ErrOrStderr(), "⚠ Warning: no rows match the current filter")
	}
	return writeTables(c.OutOrStdout(), optFormat, session.Tables(v))
}

// viewCommand builds a command that prints a fixed set of views.
func viewCommand(use, short string, views ...session.View) *cobra.Command {
	c := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runViews(cmd, views...)
		},
	}
	addFilterFlags(c)
	addOptionFlags(c)
	return c
}

var (
	kpiCmd     = viewCommand("kpi", "Headline KPIs, monthly series, momentum and delay distribution", session.ViewKPI, session.ViewMonthly, session.ViewTrend, session.ViewDuration, session.ViewDistribution)
	rankingCmd = viewCommand("ranking", "Best and worst liaisons, liaison summary and late-arrival concentration", session.ViewRanking, session.ViewLiaisons, session.ViewLorenz)
	causesCmd  = viewCommand("causes", "Delay cause composition, severe counts, severity profile and dominant causes", session.ViewCauses, session.ViewSevere, session.ViewSeverity, session.ViewDominance)
	geoCmd     = viewCommand("geo", "Liaison edges, stations, hubs, density and risk table", session.ViewGeo)
	qualityCmd = viewCommand("quality", "Data-quality diagnostics and score", session.ViewQuality)
)

func init() {
	rootCmd.AddCommand(kpiCmd, rankingCmd, causesCmd, geoCmd, qualityCmd)
}
