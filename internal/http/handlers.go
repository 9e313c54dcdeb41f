package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"cardstats/internal/chart"
	"cardstats/internal/core"
	"cardstats/internal/dashboard"
	applog "cardstats/internal/log"
)

type pageData struct {
	Session      *dashboard.Session
	Error        string
	LoadButtonID string
	ChartJSURL   string
	Targets      []chart.Target
}

// handleIndex runs startup and renders the page. When startup fails the page
// still renders, with the failure shown and the load control disabled.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	logger := applog.FromContext(r.Context())
	if s.templates == nil {
		logger.ErrorContext(r.Context(), "Templates not loaded")
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	data := pageData{
		LoadButtonID: dashboard.LoadButtonID,
		ChartJSURL:   ChartJSURL,
		Targets:      chart.Targets,
	}
	status := http.StatusOK

	sess, err := s.ctrl.Startup(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "Dashboard startup failed", applog.FieldError, err.Error())
		data.Error = "Could not load " + err.Error()
		status = http.StatusBadGateway
	} else {
		data.Session = sess
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "index.html", data); err != nil {
		logger.ErrorContext(r.Context(), "Index template execution failed", applog.FieldError, err.Error())
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// handleCharts is the load action: it fetches the months matching year,
// keeps bank's records and returns both chart configurations.
func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	q := r.URL.Query()
	year, err := core.ParseYearFilter(q.Get("year"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	bank := core.ParseBankFilter(q.Get("bank"))

	res, err := s.ctrl.Load(ctx, year, bank)
	if errors.Is(err, dashboard.ErrNotStarted) {
		if _, serr := s.ctrl.Startup(ctx); serr != nil {
			s.writeLoadError(w, r, serr)
			return
		}
		res, err = s.ctrl.Load(ctx, year, bank)
	}
	if err != nil {
		s.writeLoadError(w, r, err)
		return
	}

	resp := chartsResponse{
		Year:    year.String(),
		Bank:    bank.String(),
		Labels:  res.Data.Labels,
		Months:  len(res.Months),
		Charts:  make(map[chart.Target]chart.Config, len(chart.Targets)),
		Summary: res.Summary,
		Skipped: make([]string, 0, len(res.Skipped)),
	}
	if resp.Labels == nil {
		resp.Labels = []string{}
	}
	for _, f := range res.Skipped {
		resp.Skipped = append(resp.Skipped, f.Path())
	}
	for _, inst := range []*chart.Instance{res.Charts.Cards, res.Charts.Values} {
		cfg, err := s.configOf(inst)
		if err != nil {
			logger.ErrorContext(ctx, "Chart config unavailable",
				applog.FieldTarget, string(inst.Target()), applog.FieldError, err.Error())
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
			return
		}
		resp.Charts[inst.Target()] = cfg
	}
	writeJSON(w, http.StatusOK, resp)
}

// configOf returns inst's configuration. A concurrent load may already have
// replaced inst; the chart bound now is the one the page should show.
func (s *Server) configOf(inst *chart.Instance) (chart.Config, error) {
	cfg, err := inst.Config()
	if !errors.Is(err, chart.ErrDisposed) {
		return cfg, err
	}
	current, ok := s.ctrl.State().Instance(inst.Target())
	if !ok {
		return chart.Config{}, err
	}
	return current.Config()
}

func (s *Server) writeLoadError(w http.ResponseWriter, r *http.Request, err error) {
	resp := errorResponse{Error: err.Error()}

	var loadErr *dashboard.LoadError
	var fetchErr *core.FetchError
	switch {
	case errors.As(err, &loadErr):
		resp.Failed = loadErr.Paths()
	case errors.As(err, &fetchErr):
		resp.Failed = []string{fetchErr.Path}
	}

	applog.FromContext(r.Context()).WarnContext(r.Context(), "Load failed",
		applog.FieldError, err.Error(), "failed", len(resp.Failed))
	writeJSON(w, http.StatusBadGateway, resp)
}

// handleChartPNG serves /charts/{target}.png from the chart currently bound
// to the target.
func (s *Server) handleChartPNG(w http.ResponseWriter, r *http.Request) {
	name, ok := strings.CutSuffix(r.PathValue("file"), ".png")
	target := chart.Target(name)
	if !ok || !target.Valid() {
		http.NotFound(w, r)
		return
	}

	var buf bytes.Buffer
	err := chart.ErrDisposed
	for attempt := 0; attempt < 2 && errors.Is(err, chart.ErrDisposed); attempt++ {
		inst, bound := s.ctrl.State().Instance(target)
		if !bound {
			http.Error(w, "no chart rendered yet", http.StatusNotFound)
			return
		}
		buf.Reset()
		err = inst.WritePNG(&buf)
	}

	switch {
	case err == nil:
	case errors.Is(err, chart.ErrNoData):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	default:
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Chart rendering failed",
			applog.FieldTarget, name, applog.FieldError, err.Error())
		http.Error(w, "chart rendering failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady checks that templates are loaded and the month index can be read.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.readyTimeout)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]string)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if s.ready == nil {
		checks["index"] = "not_configured"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else if _, err := s.ready.Index(ctx); err != nil {
		checks["index"] = "failed: " + err.Error()
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["index"] = "ok"
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":  status,
		"checks":  checks,
		"charts":  s.ctrl.State().Live(),
		"renders": s.ctrl.State().Renders(),
	})
}
