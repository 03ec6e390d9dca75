package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/KaramelBytes/punctuality-cli/internal/aggregate"
	"github.com/KaramelBytes/punctuality-cli/internal/filter"
	"github.com/KaramelBytes/punctuality-cli/internal/record"
	"github.com/KaramelBytes/punctuality-cli/internal/report"
	"github.com/KaramelBytes/punctuality-cli/internal/session"
)

// Handlers serve one session. Each request carries its own filter state and
// options; parameters it omits come from the session state and defaults.
type Handlers struct {
	Log     *slog.Logger
	Session *session.Session
}

var errBadParam = errors.New("bad parameter")

// list reads a repeatable, comma separated query parameter.
func list(q map[string][]string, name string) ([]string, bool) {
	raw, ok := q[name]
	if !ok {
		return nil, false
	}
	var out []string
	for _, v := range raw {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out, true
}

// parseRequest builds the filter state and view options of a request.
func (h *Handlers) parseRequest(r *http.Request) (filter.State, aggregate.Options, error) {
	q := r.URL.Query()
	st := h.Session.State()
	if v := q.Get("from"); v != "" {
		st.DateStart = v
	}
	if v := q.Get("to"); v != "" {
		st.DateEnd = v
	}
	if v, ok := list(q, "service"); ok {
		st.Services = v
	}
	if v, ok := list(q, "duration_class"); ok {
		st.DurationClasses = v
	}
	if v, ok := list(q, "departure"); ok {
		st.Departures = v
	}
	if v, ok := list(q, "arrival"); ok {
		st.Arrivals = v
	}
	if v := q.Get("bidirectional"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return st, aggregate.Options{}, fmt.Errorf("bidirectional %q: %w", v, errBadParam)
		}
		st.TreatBidirectional = b
	}

	opts := h.Session.DefaultOptions()
	if v := q.Get("metric"); v != "" {
		m, err := aggregate.ParseMetric(v)
		if err != nil {
			return st, opts, fmt.Errorf("%v: %w", err, errBadParam)
		}
		opts.Metric = m
	}
	if v := q.Get("breakdown"); v != "" {
		opts.Breakdown = aggregate.Breakdown(strings.ToLower(v))
	}
	if v := q.Get("top_n"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return st, opts, fmt.Errorf("top_n %q: %w", v, errBadParam)
		}
		opts.TopN = n
	}
	if v := q.Get("bucket"); v != "" {
		n, err := strconv.Atoi(strings.TrimPrefix(v, "≥"))
		if err != nil {
			return st, opts, fmt.Errorf("bucket %q: %w", v, errBadParam)
		}
		opts.Bucket = record.Bucket(n)
	}
	if v := q.Get("color_by"); v != "" {
		opts.ColorBy = record.Column(v)
	}
	if err := st.Validate(); err != nil {
		return st, opts, err
	}
	if err := opts.Validate(); err != nil {
		return st, opts, err
	}
	return st, opts, nil
}

type viewsResponse struct {
	Session string             `json:"session"`
	Rows    int                `json:"rows"`
	State   filter.State       `json:"state"`
	Options aggregate.Options  `json:"options"`
	Tables  []report.JSONTable `json:"tables"`
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"session": h.Session.ID,
		"rows":    h.Session.Table.Len(),
		"ts":      time.Now().UTC(),
	})
}

func (h *Handlers) Catalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Session.Catalog)
}

func (h *Handlers) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Session.State())
}

// PutState replaces the session filter state and persists it.
func (h *Handlers) PutState(w http.ResponseWriter, r *http.Request) {
	var st filter.State
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&st); err != nil {
		h.badRequest(w, "invalid filter state body")
		return
	}
	if err := h.Session.SetState(st); err != nil {
		h.badRequest(w, err.Error())
		return
	}
	if err := h.Session.SaveState(); err != nil {
		h.Log.Warn("filter state not saved", "err", err)
	}
	h.Log.Info("filter state updated", "session", h.Session.ID, "state", st.Key())
	writeJSON(w, http.StatusOK, st)
}

// Views serves one view, or every view when the route has none.
func (h *Handlers) Views(w http.ResponseWriter, r *http.Request) {
	var views []session.View
	if name, ok := mux.Vars(r)["view"]; ok {
		parsed, err := session.ParseViews([]string{name})
		if err != nil {
			h.notFound(w, err.Error())
			return
		}
		views = parsed
	}
	st, opts, err := h.parseRequest(r)
	if err != nil {
		h.badRequest(w, err.Error())
		return
	}
	v, err := h.Session.Views(st, opts, views...)
	if err != nil {
		h.badRequest(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, viewsResponse{
		Session: h.Session.ID,
		Rows:    v.Rows,
		State:   v.State,
		Options: v.Options,
		Tables:  report.ToJSON(session.Tables(v)...),
	})
}

var contentTypes = map[string]string{
	report.FormatMarkdown: "text/markdown; charset=utf-8",
	report.FormatJSON:     "application/json",
	report.FormatXLSX:     "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// Report downloads every view as a single Markdown, JSON or XLSX document.
func (h *Handlers) Report(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("format")
	if raw == "" {
		raw = report.FormatXLSX
	}
	format, err := report.ParseFormat(raw)
	if err != nil || format == report.FormatCSV {
		h.badRequest(w, "format must be md, json or xlsx")
		return
	}
	st, opts, err := h.parseRequest(r)
	if err != nil {
		h.badRequest(w, err.Error())
		return
	}
	v, err := h.Session.Views(st, opts)
	if err != nil {
		h.badRequest(w, err.Error())
		return
	}
	tables := session.Tables(v)
	var buf bytes.Buffer
	switch format {
	case report.FormatMarkdown:
		err = report.Markdown(&buf, tables...)
	case report.FormatJSON:
		err = report.JSON(&buf, tables...)
	default:
		err = report.XLSX(&buf, tables...)
	}
	if err != nil {
		h.Log.Error("render report", "format", format, "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "render failed"})
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "punctuality-report."+format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handlers) badRequest(w http.ResponseWriter, msg string) {
	h.Log.Warn("bad request", "error", msg)
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

func (h *Handlers) notFound(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusNotFound, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
