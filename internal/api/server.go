// Package api exposes a session over HTTP as JSON tables, with Prometheus
// metrics.
package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// NewRouter wires every route through the metrics wrapper.
func NewRouter(h *Handlers, m *Metrics) *mux.Router {
	r := mux.NewRouter()
	route := func(name, path string, fn http.HandlerFunc, methods ...string) {
		r.Handle(path, m.WrapHandler(name, fn)).Methods(methods...)
	}
	route("health", "/health", h.Health, http.MethodGet)
	route("catalog", "/catalog", h.Catalog, http.MethodGet)
	route("state", "/state", h.GetState, http.MethodGet)
	route("state", "/state", h.PutState, http.MethodPut)
	route("views", "/views", h.Views, http.MethodGet)
	route("view", "/views/{view}", h.Views, http.MethodGet)
	route("report", "/report", h.Report, http.MethodGet)
	r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	return r
}

type Server struct {
	HTTP *http.Server
	Log  *slog.Logger
}

// NewServer serves the handler with an access log on accessLog, when set,
// and panic recovery.
func NewServer(addr string, log *slog.Logger, accessLog io.Writer, h http.Handler) *Server {
	h = handlers.RecoveryHandler()(h)
	if accessLog != nil {
		h = handlers.LoggingHandler(accessLog, h)
	}
	hs := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return &Server{HTTP: hs, Log: log}
}

func (s *Server) Start() error {
	s.Log.Info("http server starting", "addr", s.HTTP.Addr)
	return s.HTTP.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.Log.Info("http server stopping")
	return s.HTTP.Shutdown(ctx)
}
