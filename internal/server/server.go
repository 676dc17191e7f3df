package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/websentry/websentry/internal/engine"
	"github.com/websentry/websentry/internal/model"
	"github.com/websentry/websentry/internal/store"
)

// Server is the HTTP API surface for the scan engine.
type Server struct {
	engine *engine.Engine
	store  store.Store
	router chi.Router
	logger *slog.Logger
	addr   string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets a custom logger for the server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithListenAddr sets the listen address. Default is ":8080".
func WithListenAddr(addr string) Option {
	return func(s *Server) {
		if addr != "" {
			s.addr = addr
		}
	}
}

// New creates a Server that drives the given engine and reads scan state
// from the given store.
func New(eng *engine.Engine, st store.Store, opts ...Option) *Server {
	s := &Server{
		engine: eng,
		store:  st,
		router: chi.NewRouter(),
		addr:   ":8080",
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.logMiddleware)

	r.Post("/api/v1/scans", s.handleCreateScan)
	r.Get("/api/v1/scans", s.handleListScans)
	r.Get("/api/v1/scans/{scanID}", s.handleGetScan)
	r.Get("/healthz", s.handleHealth)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.addr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
		)
		next.ServeHTTP(w, r)
	})
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// --- HTTP handlers ---

// handleCreateScan accepts a target URL, creates a pending scan record,
// and kicks off the analyzer pipeline in the background. The response is
// 202 with the pending record; clients poll the scan resource for
// progress.
func (s *Server) handleCreateScan(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	record, err := s.engine.NewScan(r.Context(), body.URL)
	if err != nil {
		if errors.Is(err, engine.ErrInvalidTarget) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Warn("failed to create scan",
			"target", body.URL,
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "failed to create scan")
		return
	}

	s.engine.StartScan(record.ID)

	s.logger.Info("scan accepted",
		"scan_id", record.ID,
		"domain", record.Domain,
	)
	writeJSON(w, http.StatusAccepted, record)
}

// handleGetScan returns the current snapshot of one scan.
func (s *Server) handleGetScan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "scanID")

	record, err := s.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "scan not found")
			return
		}
		s.logger.Warn("failed to load scan",
			"scan_id", id,
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "failed to load scan")
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// scanListItem is the condensed per-scan view used by the list endpoint.
type scanListItem struct {
	ID        string          `json:"id"`
	TargetURL string          `json:"target_url"`
	Domain    string          `json:"domain"`
	Status    model.Status    `json:"status"`
	Progress  int             `json:"progress"`
	StartTime time.Time       `json:"start_time"`
	EndTime   *time.Time      `json:"end_time,omitempty"`
	RiskScore float64         `json:"risk_score"`
	RiskLevel model.RiskLevel `json:"risk_level"`
	Summary   model.Summary   `json:"summary"`
}

// handleListScans returns all scans, newest first, with per-scan summary
// counts computed from the stored results.
func (s *Server) handleListScans(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.List(r.Context())
	if err != nil {
		s.logger.Warn("failed to list scans", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list scans")
		return
	}

	items := make([]scanListItem, 0, len(records))
	for _, record := range records {
		items = append(items, scanListItem{
			ID:        record.ID,
			TargetURL: record.TargetURL,
			Domain:    record.Domain,
			Status:    record.Status,
			Progress:  record.Progress,
			StartTime: record.StartTime,
			EndTime:   record.EndTime,
			RiskScore: record.RiskScore,
			RiskLevel: record.RiskLevel,
			Summary:   engine.ComputeSummary(record.Results),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"scans": items,
		"total": len(items),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
