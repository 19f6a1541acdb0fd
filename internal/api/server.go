// Package api serves the rule engine over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/MannanGupta05/buildplanwizard/internal/adapter"
	"github.com/MannanGupta05/buildplanwizard/internal/metrics"
	"github.com/MannanGupta05/buildplanwizard/internal/model"
	"github.com/MannanGupta05/buildplanwizard/internal/pipeline"
	"github.com/MannanGupta05/buildplanwizard/internal/report"
	"github.com/MannanGupta05/buildplanwizard/internal/rules"
	"github.com/MannanGupta05/buildplanwizard/internal/store"
)

// Source is recorded on runs archived through the API.
const Source = "api"

// Options configures the HTTP surface.
type Options struct {
	AllowedOrigins []string
	// RateLimitRPS of zero disables rate limiting.
	RateLimitRPS float64
	RateBurst    int
	MaxBodyBytes int64
	// Archive saves every validated building when a store is configured.
	Archive bool
}

// Server holds the handlers' dependencies.
type Server struct {
	pipeline *pipeline.Pipeline
	metrics  *metrics.Recorder
	opts     Options
}

// NewServer creates a Server. rec may be nil, in which case /metrics is
// not mounted.
func NewServer(p *pipeline.Pipeline, rec *metrics.Recorder, opts Options) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 4 << 20
	}
	return &Server{pipeline: p, metrics: rec, opts: opts}
}

// ValidateResponse is the body returned by the validate endpoints.
type ValidateResponse struct {
	Logs        []string                                  `json:"logs"`
	Structured  map[string]map[string][]model.RuleOutcome `json:"structured"`
	Summaries   []report.Summary                          `json:"summaries"`
	Diagnostics []adapter.Diagnostic                      `json:"diagnostics,omitempty"`
	RunIDs      []string                                  `json:"run_ids,omitempty"`
}

// RulesResponse describes the effective rule set.
type RulesResponse struct {
	Rules  []rules.RuleInfo `json:"rules"`
	Config rules.Config     `json:"config"`
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	origins := s.opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		if s.opts.RateLimitRPS > 0 {
			r.Use(rateLimit(rate.NewLimiter(rate.Limit(s.opts.RateLimitRPS), s.opts.RateBurst)))
		}
		r.Get("/rules", s.handleRules)
		r.Post("/validate", s.handleValidate(false))
		r.Post("/validate/flat", s.handleValidate(true))
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRules(w http.ResponseWriter, _ *http.Request) {
	e := s.pipeline.Engine()
	writeJSON(w, http.StatusOK, RulesResponse{Rules: e.Rules(), Config: e.Config()})
}

func (s *Server) handleValidate(flat bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			writeError(w, http.StatusBadRequest, "could not read request body")
			return
		}

		batch, err := adapter.Decode(body, adapter.DecodeOptions{
			DefaultID: r.URL.Query().Get("id"),
			ForceFlat: flat,
		})
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		save := s.opts.Archive && s.pipeline.Store() != nil
		res, err := s.pipeline.Validate(r.Context(), Source, batch, save)
		if err != nil {
			zap.L().Error("api: validate failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "could not archive validation run")
			return
		}

		combined := model.NewResult(res.Reports)
		writeJSON(w, http.StatusOK, ValidateResponse{
			Logs:        combined.Logs,
			Structured:  combined.Structured,
			Summaries:   report.SummarizeAll(res.Reports),
			Diagnostics: res.Diagnostics,
			RunIDs:      res.RunIDs,
		})
	}
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	st := s.pipeline.Store()
	if st == nil {
		writeError(w, http.StatusServiceUnavailable, "run archive is not configured")
		return
	}

	q := r.URL.Query()
	filter := store.RunFilter{
		BuildingID: q.Get("building_id"),
		Verdict:    model.Verdict(q.Get("verdict")),
		Source:     q.Get("source"),
	}
	var err error
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}
	if filter.Offset, err = intParam(q.Get("offset")); err != nil {
		writeError(w, http.StatusBadRequest, "offset must be a non-negative integer")
		return
	}

	runs, err := st.ListRuns(r.Context(), filter)
	if err != nil {
		zap.L().Error("api: list runs failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not list runs")
		return
	}
	if runs == nil {
		runs = []model.Run{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	st := s.pipeline.Store()
	if st == nil {
		writeError(w, http.StatusServiceUnavailable, "run archive is not configured")
		return
	}

	id := chi.URLParam(r, "id")
	run, err := st.GetRun(r.Context(), id)
	if eris.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		zap.L().Error("api: get run failed", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not load run")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, eris.Errorf("api: invalid integer %q", v)
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
