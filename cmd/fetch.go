package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/punctuality-cli/internal/fetch"
)

var (
	fetchURL      string
	fetchOut      string
	fetchSchedule string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the dataset; with --schedule keep refreshing it",
	Long: `Download the monthly regularity dataset into the data directory. The download
is cleaned before it replaces the current file, so a broken response never
overwrites a good dataset. With --schedule (cron spec with seconds, or
"@every 24h", "@daily") the command keeps running and refreshes on schedule.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger()
		if err != nil {
			return err
		}
		defer log.Close()

		url := cfg.SourceURL
		if fetchURL != "" {
			url = fetchURL
		}
		if url == "" {
			return fmt.Errorf("no source url; set source_url or pass --url")
		}
		dest := cfg.SourcePath()
		if fetchOut != "" {
			dest = fetchOut
		}
		timeout := time.Duration(cfg.HTTPTimeoutSec) * time.Second
		f := fetch.New(url, dest, timeout, log.Logger)

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		res, err := f.Fetch(ctx)
		cancel()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Downloaded %d rows (%d bytes) to %s in %s\n", res.Rows, res.Bytes, res.Path, res.Elapsed.Round(time.Millisecond))

		spec := cfg.FetchSchedule
		if cmd.Flags().Changed("schedule") {
			spec = fetchSchedule
		}
		if spec == "" {
			return nil
		}
		c, err := fetch.Schedule(spec, f, timeout, func(res fetch.Result, err error) {
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: scheduled fetch failed: %v\n", err)
				return
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Refreshed %d rows at %s\n", res.Rows, time.Now().Format(time.RFC3339))
		})
		if err != nil {
			return err
		}
		defer c.Stop()
		fmt.Fprintf(cmd.OutOrStdout(), "Refreshing on %q; press Ctrl+C to stop\n", spec)

		sig, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-sig.Done()
		return nil
	},
}

func init() {
	fetchCmd.Flags().StringVar(&fetchURL, "url", "", "dataset URL (default from config)")
	fetchCmd.Flags().StringVarP(&fetchOut, "output", "o", "", "destination file (default: configured source file)")
	fetchCmd.Flags().StringVar(&fetchSchedule, "schedule", "", "cron spec to keep refreshing, e.g. \"@every 24h\"")
	rootCmd.AddCommand(fetchCmd)
}
