package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/punctuality-cli/internal/session"
	"github.com/KaramelBytes/punctuality-cli/internal/watch"
)

var (
	reportOut   string
	reportViews []string
	reportWatch bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Export views to Markdown, CSV, JSON or an XLSX workbook",
	Long: `Export the selected views (all by default) for the current filter state. CSV writes
one file per table; the other formats write a single report file. With --watch the
report is written again each time the saved filter state file changes.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		views, err := session.ParseViews(reportViews)
		if err != nil {
			return err
		}
		log, err := newLogger()
		if err != nil {
			return err
		}
		defer log.Close()

		s, err := openSession(log, nil)
		if err != nil {
			return err
		}
		opts, err := viewOptions(cmd, s)
		if err != nil {
			return err
		}
		export := func() error {
			paths, err := s.Export(reportOut, optFormat, filterState(cmd, s), opts, views...)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", p)
			}
			return nil
		}
		if err := export(); err != nil {
			return err
		}
		if !reportWatch {
			return nil
		}

		w, err := watch.New(cfg.StatePath(), 0, log.Logger)
		if err != nil {
			return err
		}
		defer w.Close()
		fmt.Fprintf(cmd.OutOrStdout(), "Watching %s; press Ctrl+C to stop\n", w.Path())

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return w.Run(ctx, func(string) {
			st, err := s.ReloadState()
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: filter state not reloaded: %v\n", err)
				return
			}
			log.Info("filter state reloaded", "session", s.ID, "state", st.Key())
			if err := export(); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: export failed: %v\n", err)
			}
		})
	},
}

func init() {
	addFilterFlags(reportCmd)
	addOptionFlags(reportCmd)
	reportCmd.Flags().StringVarP(&reportOut, "output", "o", "report", "output directory")
	reportCmd.Flags().StringSliceVar(&reportViews, "view", nil, "views to export (repeatable; default all)")
	reportCmd.Flags().BoolVar(&reportWatch, "watch", false, "export again whenever the saved filter state changes")
	rootCmd.AddCommand(reportCmd)
}
