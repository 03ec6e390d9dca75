package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/punctuality-cli/internal/api"
	"github.com/KaramelBytes/punctuality-cli/internal/watch"
)

var (
	serveAddr      string
	serveWatch     bool
	serveAccessLog bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve views, filter state and reports over HTTP",
	Long: `Open the dataset once and serve it over HTTP:

  GET  /api/v1/health
  GET  /api/v1/catalog
  GET  /api/v1/state          PUT /api/v1/state
  GET  /api/v1/views          GET /api/v1/views/{view}
  GET  /api/v1/report?format=md|json|xlsx
  GET  /metrics

View endpoints accept the same filters as the CLI as query parameters
(from, to, service, duration_class, departure, arrival, bidirectional, metric,
breakdown, top_n, bucket, color_by).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger()
		if err != nil {
			return err
		}
		defer log.Close()

		metrics := api.NewMetrics()
		s, err := openSession(log, metrics)
		if err != nil {
			return err
		}
		metrics.SetRows(s.Table.Len())

		addr := cfg.ServeAddr
		if serveAddr != "" {
			addr = serveAddr
		}
		router := api.NewRouter(&api.Handlers{Log: log.Logger, Session: s}, metrics)
		var access io.Writer
		if serveAccessLog {
			access = os.Stderr
		}
		srv := api.NewServer(addr, log.Logger, access, router)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if serveWatch {
			w, err := watch.New(cfg.StatePath(), 0, log.Logger)
			if err != nil {
				return err
			}
			defer w.Close()
			go func() {
				err := w.Run(ctx, func(string) {
					st, err := s.ReloadState()
					if err != nil {
						log.Warn("filter state not reloaded", "err", err)
						return
					}
					log.Info("filter state reloaded", "session", s.ID, "state", st.Key())
				})
				if err != nil {
					log.Error("state watcher stopped", "err", err)
				}
			}()
		}

		errc := make(chan error, 1)
		go func() { errc <- srv.Start() }()
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Serving %d rows on http://%s (session %s)\n", s.Table.Len(), addr, s.ID)

		select {
		case err := <-errc:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve: %w", err)
			}
			return nil
		case <-ctx.Done():
		}
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Stop(shutdown); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Server stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "reload the saved filter state when its file changes")
	serveCmd.Flags().BoolVar(&serveAccessLog, "access-log", true, "write an access log to stderr")
	rootCmd.AddCommand(serveCmd)
}
