// Package http exposes the recovery analysis service over HTTP.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/flood-recovery-service/internal/analysis"
	"github.com/couchcryptid/flood-recovery-service/internal/domain"
	"github.com/couchcryptid/flood-recovery-service/internal/store"
)

// AnalysisService is the part of the analysis layer the API needs.
type AnalysisService interface {
	ProcessFloodEvent(ctx context.Context, req domain.ProcessRequest) (domain.StoredEvent, error)
	GetEvent(ctx context.Context, id string) (domain.StoredEvent, error)
	ListEvents(ctx context.Context) ([]domain.StoredEvent, error)
	Dashboard(ctx context.Context) (analysis.DashboardData, error)
	PredictSurvival(req analysis.SurvivalRequest) (analysis.SurvivalResponse, error)
	CheckReadiness(ctx context.Context) error
}

// Server exposes the analysis API plus health, readiness, and metrics routes.
type Server struct {
	httpServer *http.Server
	service    AnalysisService
	logger     *slog.Logger
}

// NewServer creates the HTTP server with all routes registered.
func NewServer(addr string, service AnalysisService, logger *slog.Logger) *Server {
	s := &Server{
		service: service,
		logger:  logger,
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/process-flood-event", s.handleProcessFloodEvent).Methods(http.MethodPost)
	api.HandleFunc("/events", s.handleListEvents).Methods(http.MethodGet)
	api.HandleFunc("/recovery-metrics/{id}", s.handleRecoveryMetrics).Methods(http.MethodGet)
	api.HandleFunc("/dashboard-data", s.handleDashboard).Methods(http.MethodGet)
	api.HandleFunc("/survival-analysis/predict", s.handlePredictSurvival).Methods(http.MethodPost)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.service.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// processRequest is the wire form of a flood event submission.
type processRequest struct {
	FloodDate         string     `json:"flood_date"`
	Location          domain.Geo `json:"location"`
	NumTimeSteps      int        `json:"num_time_steps"`
	GridSize          int        `json:"grid_size,omitempty"`
	Seed              *uint64    `json:"seed,omitempty"`
	RecoveryThreshold float64    `json:"recovery_threshold,omitempty"`
	HorizonDays       float64    `json:"horizon_days,omitempty"`
}

// processResponse acknowledges a processed event.
type processResponse struct {
	EventID          string                 `json:"event_id"`
	Status           string                 `json:"status"`
	RecoveryMetrics  domain.RecoveryMetrics `json:"recovery_metrics"`
	TimeSeriesLength int                    `json:"time_series_length"`
}

func (s *Server) handleProcessFloodEvent(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	floodDate, err := parseDate(req.FloodDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "flood_date must be YYYY-MM-DD or RFC 3339")
		return
	}

	event, err := s.service.ProcessFloodEvent(r.Context(), domain.ProcessRequest{
		FloodDate:         floodDate,
		Location:          req.Location,
		NumTimeSteps:      req.NumTimeSteps,
		GridSize:          req.GridSize,
		Seed:              req.Seed,
		RecoveryThreshold: req.RecoveryThreshold,
		HorizonDays:       req.HorizonDays,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, processResponse{
		EventID:          event.ID,
		Status:           "processed",
		RecoveryMetrics:  event.Result.RecoveryMetrics,
		TimeSeriesLength: len(event.Result.TimeSeries),
	})
}

// eventSummary is the wire form of one row in the events listing.
type eventSummary struct {
	EventID            string     `json:"event_id"`
	FloodDate          time.Time  `json:"flood_date"`
	Location           domain.Geo `json:"location"`
	RecoveryPercentage float64    `json:"recovery_percentage"`
	ProcessedAt        time.Time  `json:"processed_at"`
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.service.ListEvents(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	summaries := make([]eventSummary, 0, len(events))
	for _, e := range events {
		summaries = append(summaries, eventSummary{
			EventID:            e.ID,
			FloodDate:          e.Result.FloodDate,
			Location:           e.Result.Location,
			RecoveryPercentage: e.Result.RecoveryMetrics.RecoveryPercentage,
			ProcessedAt:        e.Result.ProcessedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"events": summaries,
		"count":  len(summaries),
	})
}

// metricsResponse is the wire form of a single event's recovery summary.
type metricsResponse struct {
	EventID            string                     `json:"event_id"`
	FloodDate          time.Time                  `json:"flood_date"`
	Location           domain.Geo                 `json:"location"`
	RecoveryMetrics    domain.RecoveryMetrics     `json:"recovery_metrics"`
	SurvivalPrediction domain.SurvivalPrediction  `json:"survival_prediction"`
	PixelRecovery      *domain.PixelRecoveryStats `json:"pixel_recovery,omitempty"`
}

func (s *Server) handleRecoveryMetrics(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	event, err := s.service.GetEvent(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, metricsResponse{
		EventID:            event.ID,
		FloodDate:          event.Result.FloodDate,
		Location:           event.Result.Location,
		RecoveryMetrics:    event.Result.RecoveryMetrics,
		SurvivalPrediction: event.Result.SurvivalPrediction,
		PixelRecovery:      event.Result.PixelRecovery,
	})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	data, err := s.service.Dashboard(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) handlePredictSurvival(w http.ResponseWriter, r *http.Request) {
	var req analysis.SurvivalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	resp, err := s.service.PredictSurvival(req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		s.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
