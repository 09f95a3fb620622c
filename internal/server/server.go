// Package server exposes the series pipeline and the log store as a small
// JSON HTTP API. All weights cross the wire in the requested display unit
// (?unit=kg|lbs, default from config) and are stored in pounds.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/derickschaefer/liftlog/internal/app"
	"github.com/derickschaefer/liftlog/internal/calendar"
	"github.com/derickschaefer/liftlog/internal/derive"
	"github.com/derickschaefer/liftlog/internal/insight"
	"github.com/derickschaefer/liftlog/internal/metrics"
	"github.com/derickschaefer/liftlog/internal/model"
	"github.com/derickschaefer/liftlog/internal/series"
	"github.com/derickschaefer/liftlog/internal/store"
	"github.com/derickschaefer/liftlog/internal/units"
)

// Store is the slice of *store.Store the API uses.
type Store interface {
	store.RowSource
	GetLog(user string, date calendar.Date) (model.LogRow, error)
	UpsertLog(user string, row model.LogRow) error
	DeleteLog(user string, date calendar.Date) error
	ListExercises(user string) ([]model.Exercise, error)
	GetGoals(user string) (model.Goals, error)
	SetGoals(user string, g model.Goals) (model.Goals, error)
}

// Analyzer produces natural-language insights. *insight.Client satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, payload derive.AnalysisPayload) (insight.Insight, error)
}

// Options are the per-server defaults a request may override.
type Options struct {
	User     string
	Unit     units.Unit
	Location *time.Location
	Narrow   bool

	// Registry receives the API instruments and is served on /metrics.
	// A nil Registry gets a private one.
	Registry *prometheus.Registry
}

// Server handles the API routes.
type Server struct {
	store    Store
	memo     *series.Memo
	analyzer Analyzer
	opts     Options
	metrics  *metrics.Manager
}

// New creates a Server. memo and analyzer may be nil; without an analyzer
// the insight route answers 503.
func New(st Store, memo *series.Memo, analyzer Analyzer, opts Options) *Server {
	if opts.Unit == "" {
		opts.Unit = units.Pounds
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	return &Server{
		store:    st,
		memo:     memo,
		analyzer: analyzer,
		opts:     opts,
		metrics:  metrics.NewManager("liftlog", "api", opts.Registry),
	}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.instrument)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/series", s.handleSeries).Methods(http.MethodGet).Name("series")
	api.HandleFunc("/logs", s.handleListLogs).Methods(http.MethodGet).Name("list-logs")
	api.HandleFunc("/logs/{date}", s.handleGetLog).Methods(http.MethodGet).Name("get-log")
	api.HandleFunc("/logs/{date}", s.handlePutLog).Methods(http.MethodPut).Name("put-log")
	api.HandleFunc("/logs/{date}", s.handleDeleteLog).Methods(http.MethodDelete).Name("delete-log")
	api.HandleFunc("/exercises", s.handleExercises).Methods(http.MethodGet).Name("list-exercises")
	api.HandleFunc("/goals", s.handleGetGoals).Methods(http.MethodGet).Name("get-goals")
	api.HandleFunc("/goals", s.handlePutGoals).Methods(http.MethodPut).Name("put-goals")
	api.HandleFunc("/insight", s.handleInsight).Methods(http.MethodPost).Name("insight")
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.opts.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "no such route")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("liftlog api listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		slog.Info("liftlog api shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

// ─── Series ───────────────────────────────────────────────────────────────────

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	req, err := s.seriesRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	unit, err := s.unit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, hit, err := app.LoadSeries(r.Context(), s.store, s.memo, s.user(r), req)
	if err != nil {
		s.storeError(w, err)
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	if s.memo != nil {
		s.metrics.CounterMemo.WithLabelValues(result).Inc()
	}
	w.Header().Set("X-Cache", result)
	writeJSON(w, http.StatusOK, p.InUnit(unit))
}

// seriesRequest parses window, exercise, field and narrow from the query.
func (s *Server) seriesRequest(r *http.Request) (series.Request, error) {
	q := r.URL.Query()
	req := series.Request{
		Exercise: q.Get("exercise"),
		Narrow:   s.opts.Narrow,
		Today:    calendar.Today(s.opts.Location),
	}
	if v := q.Get("window"); v != "" {
		win, err := series.ParseWindow(v)
		if err != nil {
			return req, err
		}
		req.Window = win
	}
	if v := q.Get("field"); v != "" {
		f, err := model.ParseField(v)
		if err != nil {
			return req, err
		}
		req.Field = f
	}
	if v := q.Get("narrow"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return req, fmt.Errorf("invalid narrow %q", v)
		}
		req.Narrow = b
	}
	return req.Normalized(), nil
}

// ─── Logs ─────────────────────────────────────────────────────────────────────

func (s *Server) handleListLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var from, to calendar.Date
	for _, p := range []struct {
		name string
		dst  *calendar.Date
	}{{"from", &from}, {"to", &to}} {
		if v := q.Get(p.name); v != "" {
			d, err := calendar.Parse(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("%s: %v", p.name, err))
				return
			}
			*p.dst = d
		}
	}
	unit, err := s.unit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rows, err := s.store.Logs(r.Context(), s.user(r), from, to)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, units.RowsToDisplay(rows, unit))
}

func (s *Server) handleGetLog(w http.ResponseWriter, r *http.Request) {
	date, unit, ok := s.dateAndUnit(w, r)
	if !ok {
		return
	}
	row, err := s.store.GetLog(s.user(r), date)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, units.RowToDisplay(row, unit))
}

// handlePutLog upserts the body as the row for the path date. A date in
// the body, if any, must agree with the path.
func (s *Server) handlePutLog(w http.ResponseWriter, r *http.Request) {
	date, unit, ok := s.dateAndUnit(w, r)
	if !ok {
		return
	}
	var row model.LogRow
	if err := decodeBody(w, r, &row); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !row.Date.IsZero() && !row.Date.Equal(date) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("body date %s does not match path date %s", row.Date, date))
		return
	}
	row.Date = date
	if err := s.store.UpsertLog(s.user(r), units.RowToCanonical(row, unit)); err != nil {
		s.storeError(w, err)
		return
	}
	stored, err := s.store.GetLog(s.user(r), date)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, units.RowToDisplay(stored, unit))
}

func (s *Server) handleDeleteLog(w http.ResponseWriter, r *http.Request) {
	date, err := calendar.Parse(mux.Vars(r)["date"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.DeleteLog(s.user(r), date); err != nil {
		s.storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Catalog / goals ──────────────────────────────────────────────────────────

func (s *Server) handleExercises(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListExercises(s.user(r))
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetGoals(w http.ResponseWriter, r *http.Request) {
	unit, err := s.unit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	g, err := s.store.GetGoals(s.user(r))
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, units.GoalsToDisplay(g, unit))
}

func (s *Server) handlePutGoals(w http.ResponseWriter, r *http.Request) {
	unit, err := s.unit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var g model.Goals
	if err := decodeBody(w, r, &g); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	saved, err := s.store.SetGoals(s.user(r), units.GoalsToCanonical(g, unit))
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, units.GoalsToDisplay(saved, unit))
}

// ─── Insight ──────────────────────────────────────────────────────────────────

func (s *Server) handleInsight(w http.ResponseWriter, r *http.Request) {
	if s.analyzer == nil {
		s.metrics.CounterInsight.WithLabelValues("unavailable").Inc()
		writeError(w, http.StatusServiceUnavailable, "insight backend not configured")
		return
	}
	req, err := s.seriesRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Exercise == "" {
		writeError(w, http.StatusBadRequest, "exercise is required")
		return
	}
	p, _, err := app.LoadSeries(r.Context(), s.store, s.memo, s.user(r), req)
	if err != nil {
		s.storeError(w, err)
		return
	}
	in, err := s.analyzer.Analyze(r.Context(), derive.BuildAnalysisPayload(req.Exercise, p.Rows))
	if err != nil {
		slog.Warn("insight backend failed", "exercise", req.Exercise, "err", err)
		s.metrics.CounterInsight.WithLabelValues("failed").Inc()
		writeError(w, http.StatusBadGateway, "insight backend failed: "+err.Error())
		return
	}
	s.metrics.CounterInsight.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, in)
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

func (s *Server) user(r *http.Request) string {
	if u := r.URL.Query().Get("user"); u != "" {
		return u
	}
	return s.opts.User
}

func (s *Server) unit(r *http.Request) (units.Unit, error) {
	if v := r.URL.Query().Get("unit"); v != "" {
		return units.ParseUnit(v)
	}
	return s.opts.Unit, nil
}

// dateAndUnit parses the {date} path variable and the unit query, writing a
// 400 and returning ok=false on failure.
func (s *Server) dateAndUnit(w http.ResponseWriter, r *http.Request) (calendar.Date, units.Unit, bool) {
	date, err := calendar.Parse(mux.Vars(r)["date"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return date, "", false
	}
	unit, err := s.unit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return date, "", false
	}
	return date, unit, true
}

// storeError maps store sentinels onto status codes.
func (s *Server) storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrInvalid), errors.Is(err, store.ErrExists):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled):
		writeError(w, 499, "request cancelled")
	default:
		slog.Error("store failure", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("writing response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ─── Middleware ───────────────────────────────────────────────────────────────

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument logs each request and records it in the API metrics, labelled
// by route template so that dates in paths do not create new series.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}

		s.metrics.GaugeInFlight.Inc()
		defer s.metrics.GaugeInFlight.Dec()
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		s.metrics.HistRequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
		s.metrics.CounterRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", elapsed.Milliseconds(),
		)
	})
}
