package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/punctuality-cli/internal/geo"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Clean the dataset, refresh the cache and summarize what was loaded",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger()
		if err != nil {
			return err
		}
		defer log.Close()

		s, err := openSession(log, nil)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		src := "source " + cfg.SourcePath()
		if s.FromCache {
			src = "cache " + cfg.CachePath()
		}
		fmt.Fprintf(out, "✓ Loaded %d rows from %s\n", s.Table.Len(), src)
		fmt.Fprintf(out, "  months: %s → %s (%d)\n", s.Catalog.FirstMonth, s.Catalog.LastMonth, len(s.Catalog.Months))
		fmt.Fprintf(out, "  services: %s\n", strings.Join(s.Catalog.Services, ", "))
		fmt.Fprintf(out, "  stations: %d departures, %d arrivals\n", len(s.Catalog.Departures), len(s.Catalog.Arrivals))
		if !s.Table.HasCauses() {
			fmt.Fprintln(out, "⚠ Warning: no delay cause columns; cause views will be empty")
		}
		if !s.Table.HasSeverity() {
			fmt.Fprintln(out, "⚠ Warning: no severity columns; severity views will be empty")
		}

		_, missing := geo.Attach(s.Table, s.Lookup)
		switch {
		case s.Lookup.Len() == 0:
			fmt.Fprintf(out, "⚠ Warning: no station coordinates loaded from %s\n", cfg.StationsPath())
		case len(missing) > 0:
			fmt.Fprintf(out, "⚠ Warning: %d stations without coordinates\n", len(missing))
		default:
			fmt.Fprintf(out, "✓ Coordinates for every station (%d known)\n", s.Lookup.Len())
		}
		return nil
	},
}

var catalogJSON bool

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the months, services, stations and duration classes available to filters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger()
		if err != nil {
			return err
		}
		defer log.Close()

		s, err := openSession(log, nil)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if catalogJSON {
			return writeJSONTo(out, s.Catalog)
		}
		c := s.Catalog
		fmt.Fprintf(out, "[MONTHS]\n%s → %s (%d)\n\n", c.FirstMonth, c.LastMonth, len(c.Months))
		fmt.Fprintf(out, "[SERVICES]\n%s\n\n", strings.Join(c.Services, "\n"))
		fmt.Fprintf(out, "[DURATION CLASSES]\n%s\n\n", strings.Join(c.DurationClasses, "\n"))
		fmt.Fprintf(out, "[DEPARTURES]\n%s\n\n", strings.Join(c.Departures, "\n"))
		fmt.Fprintf(out, "[ARRIVALS]\n%s\n", strings.Join(c.Arrivals, "\n"))
		return nil
	},
}

func init() {
	catalogCmd.Flags().BoolVar(&catalogJSON, "json", false, "print the catalog as JSON")
	rootCmd.AddCommand(loadCmd, catalogCmd)
}
