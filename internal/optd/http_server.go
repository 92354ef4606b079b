package optd

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GoSim-25-26J-441/forward-optimizer/internal/adapter"
	"github.com/GoSim-25-26J-441/forward-optimizer/pkg/config"
	"github.com/GoSim-25-26J-441/forward-optimizer/pkg/logger"
)

const maxRequestBytes = 4 << 20

type HTTPServer struct {
	router   chi.Router
	store    *RunStore
	Executor *RunExecutor
	models   *adapter.Registry
}

// NewHTTPServer routes the run API. gatherer backs /metrics and may be nil.
func NewHTTPServer(store *RunStore, executor *RunExecutor, models *adapter.Registry, gatherer prometheus.Gatherer) *HTTPServer {
	s := &HTTPServer{
		router:   chi.NewRouter(),
		store:    store,
		Executor: executor,
		models:   models,
	}

	s.router.Get("/healthz", s.handleHealthz)
	if gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	s.router.Route("/v1", func(r chi.Router) {
		r.Get("/models", s.handleListModels)
		r.Post("/runs", s.handleCreateRun)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{runID}", s.handleGetRun)
		r.Post("/runs/{runID}/stop", s.handleStopRun)
	})

	return s
}

func (s *HTTPServer) Handler() http.Handler {
	return s.router
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *HTTPServer) handleListModels(w http.ResponseWriter, _ *http.Request) {
	var names []string
	if s.models != nil {
		names = s.models.Names()
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"models": names})
}

// handleCreateRun handles POST /v1/runs
func (s *HTTPServer) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RunID        string `json:"run_id,omitempty"`
		VariablesCSV string `json:"variables_csv"`
		ModelOrder   string `json:"model_order,omitempty"`
	}

	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.VariablesCSV == "" {
		s.writeError(w, http.StatusBadRequest, "variables_csv is required")
		return
	}
	order, err := parseOrder(req.ModelOrder)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := s.Executor.Submit(req.RunID, req.VariablesCSV, order)
	if err != nil {
		switch {
		case config.IsConfigError(err):
			s.writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrRunExists):
			s.writeError(w, http.StatusConflict, err.Error())
		default:
			s.writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	logger.Info("run submitted (HTTP)", "run_id", rec.ID)
	s.writeJSON(w, http.StatusCreated, map[string]any{
		"run": convertRun(rec),
	})
}

// handleListRuns handles GET /v1/runs with pagination and filtering
func (s *HTTPServer) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = min(parsed, 1000)
		}
	}
	offset := 0
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if parsed, err := strconv.Atoi(offsetStr); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	status := ParseRunStatus(r.URL.Query().Get("status"))

	runs := s.store.List(limit, offset, status)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"runs": convertRuns(runs),
		"pagination": map[string]any{
			"limit":  limit,
			"offset": offset,
			"count":  len(runs),
		},
	})
}

// handleGetRun handles GET /v1/runs/{runID}
func (s *HTTPServer) handleGetRun(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.store.Get(chi.URLParam(r, "runID"))
	if !ok {
		s.writeError(w, http.StatusNotFound, "run not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"run": convertRun(rec),
	})
}

// handleStopRun handles POST /v1/runs/{runID}/stop
func (s *HTTPServer) handleStopRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	updated, err := s.Executor.Stop(runID)
	if err != nil {
		switch {
		case errors.Is(err, ErrRunNotFound):
			s.writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, ErrRunTerminal):
			s.writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, ErrRunIDMissing):
			s.writeError(w, http.StatusBadRequest, err.Error())
		default:
			s.writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"run": convertRun(updated),
	})
}

func (s *HTTPServer) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}

func (s *HTTPServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]any{
		"error": message,
	})
}

// parseOrder maps an empty request field to the executor default.
func parseOrder(s string) (config.ModelOrder, error) {
	if s == "" {
		return "", nil
	}
	return config.ParseModelOrder(s)
}
