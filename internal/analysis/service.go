// Package analysis orchestrates flood event processing: it runs the
// domain engine, persists results, optionally publishes them, and
// answers queries over stored events.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/flood-recovery-service/internal/domain"
	"github.com/couchcryptid/flood-recovery-service/internal/observability"

	"gonum.org/v1/gonum/stat"
)

// EventStore persists processed flood events.
type EventStore interface {
	Insert(ctx context.Context, result *domain.FloodEventResult) (string, error)
	Get(ctx context.Context, id string) (domain.StoredEvent, error)
	List(ctx context.Context) ([]domain.StoredEvent, error)
	Ping(ctx context.Context) error
}

// ResultPublisher emits processed results to downstream consumers.
type ResultPublisher interface {
	Publish(ctx context.Context, id string, result *domain.FloodEventResult) error
}

// Defaults are applied to process requests that omit the field.
type Defaults struct {
	GridSize          int
	RecoveryThreshold float64
	HorizonDays       float64
}

// Service ties the analysis engine to storage and publishing.
type Service struct {
	store     EventStore
	publisher ResultPublisher // nil when publishing is disabled
	cache     *resultCache
	logger    *slog.Logger
	metrics   *observability.Metrics
	defaults  Defaults
}

// New creates a Service. publisher may be nil.
func New(store EventStore, publisher ResultPublisher, defaults Defaults, cacheSize int, logger *slog.Logger, metrics *observability.Metrics) *Service {
	if defaults.GridSize < 1 {
		defaults.GridSize = domain.DefaultGridSize
	}
	if defaults.RecoveryThreshold <= 0 {
		defaults.RecoveryThreshold = domain.DefaultRecoveryThreshold
	}
	if defaults.HorizonDays <= 0 {
		defaults.HorizonDays = domain.DefaultHorizonDays
	}
	if cacheSize < 1 {
		cacheSize = 128
	}
	return &Service{
		store:     store,
		publisher: publisher,
		cache:     newResultCache(cacheSize),
		logger:    logger,
		metrics:   metrics,
		defaults:  defaults,
	}
}

// ProcessFloodEvent runs the full analysis for one flood event, stores
// the result, and returns it with its assigned ID. Publishing failures
// are logged and counted but do not fail the call.
func (s *Service) ProcessFloodEvent(ctx context.Context, req domain.ProcessRequest) (domain.StoredEvent, error) {
	start := time.Now()

	if req.GridSize == 0 {
		req.GridSize = s.defaults.GridSize
	}
	if req.RecoveryThreshold == 0 {
		req.RecoveryThreshold = s.defaults.RecoveryThreshold
	}
	if req.HorizonDays == 0 {
		req.HorizonDays = s.defaults.HorizonDays
	}

	result, err := s.computeResult(req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			s.metrics.InvalidInputs.Inc()
		} else {
			s.metrics.ProcessFailures.Inc()
		}
		return domain.StoredEvent{}, err
	}

	id, err := s.store.Insert(ctx, result)
	if err != nil {
		s.metrics.ProcessFailures.Inc()
		return domain.StoredEvent{}, fmt.Errorf("storing result: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, id, result); err != nil {
			s.metrics.PublishErrors.Inc()
			s.logger.Warn("result publish failed", "event_id", id, "error", err)
		} else {
			s.metrics.ResultsPublished.Inc()
		}
	}

	s.metrics.EventsProcessed.Inc()
	s.metrics.ProcessingDuration.Observe(time.Since(start).Seconds())
	s.logger.Info("flood event processed",
		"event_id", id,
		"flood_date", req.FloodDate.Format("2006-01-02"),
		"time_steps", req.NumTimeSteps,
		"recovery_percentage", result.RecoveryMetrics.RecoveryPercentage,
	)

	return domain.StoredEvent{ID: id, Result: *result}, nil
}

// computeResult runs the engine, answering seeded requests from the
// cache when possible.
func (s *Service) computeResult(req domain.ProcessRequest) (*domain.FloodEventResult, error) {
	key, seeded := cacheKey(req)
	if seeded {
		if cached, ok := s.cache.get(key); ok {
			s.metrics.CacheHits.Inc()
			return &cached, nil
		}
		s.metrics.CacheMisses.Inc()
	}

	result, err := domain.ProcessFloodEvent(req)
	if err != nil {
		return nil, err
	}
	if seeded {
		s.cache.put(key, *result)
	}
	return result, nil
}

// GetEvent returns a stored event by ID.
func (s *Service) GetEvent(ctx context.Context, id string) (domain.StoredEvent, error) {
	return s.store.Get(ctx, id)
}

// ListEvents returns all stored events, newest first.
func (s *Service) ListEvents(ctx context.Context) ([]domain.StoredEvent, error) {
	return s.store.List(ctx)
}

// EventSummary is one row of the dashboard listing.
type EventSummary struct {
	EventID            string     `json:"event_id"`
	FloodDate          time.Time  `json:"flood_date"`
	Location           domain.Geo `json:"location"`
	RecoveryPercentage float64    `json:"recovery_percentage"`
	RecoveryRate       *float64   `json:"recovery_rate"`
	TimeToRecoveryDays *float64   `json:"time_to_recovery_days"`
	CurrentNDVI        *float64   `json:"current_ndvi"`
	Confidence         string     `json:"confidence"`
}

// DashboardData aggregates stored events for the monitoring dashboard.
type DashboardData struct {
	TotalEvents            int            `json:"total_events"`
	MeanRecoveryPercentage *float64       `json:"mean_recovery_percentage"`
	Events                 []EventSummary `json:"events"`
}

// Dashboard summarizes all stored events.
func (s *Service) Dashboard(ctx context.Context) (DashboardData, error) {
	events, err := s.store.List(ctx)
	if err != nil {
		return DashboardData{}, err
	}

	data := DashboardData{
		TotalEvents: len(events),
		Events:      make([]EventSummary, 0, len(events)),
	}
	percentages := make([]float64, 0, len(events))
	for _, e := range events {
		data.Events = append(data.Events, EventSummary{
			EventID:            e.ID,
			FloodDate:          e.Result.FloodDate,
			Location:           e.Result.Location,
			RecoveryPercentage: e.Result.RecoveryMetrics.RecoveryPercentage,
			RecoveryRate:       e.Result.RecoveryMetrics.RecoveryRate,
			TimeToRecoveryDays: e.Result.RecoveryMetrics.TimeToRecoveryDays,
			CurrentNDVI:        e.Result.RecoveryMetrics.CurrentNDVI,
			Confidence:         e.Result.SurvivalPrediction.Confidence,
		})
		percentages = append(percentages, e.Result.RecoveryMetrics.RecoveryPercentage)
	}
	if len(percentages) > 0 {
		mean := stat.Mean(percentages, nil)
		data.MeanRecoveryPercentage = &mean
	}
	return data, nil
}

// survivalHorizons are the fixed horizons reported by PredictSurvival.
var survivalHorizons = []float64{30, 90, 180}

// SurvivalRequest carries the parameters for a standalone survival
// prediction, decoupled from any stored event.
type SurvivalRequest struct {
	RecoveryRate      *float64   `json:"recovery_rate"`
	NDVIDeficit       *float64   `json:"ndvi_deficit,omitempty"`
	FloodDate         *time.Time `json:"flood_date,omitempty"`
	ElapsedDays       float64    `json:"elapsed_days"`
	RecoveredFraction *float64   `json:"recovered_fraction,omitempty"`
	SeriesLength      int        `json:"series_length"`
}

// SurvivalResponse reports recovery probabilities at the fixed horizons.
type SurvivalResponse struct {
	ProbabilityRecoveredBy30Days  *float64   `json:"probability_recovered_by_30_days"`
	ProbabilityRecoveredBy90Days  *float64   `json:"probability_recovered_by_90_days"`
	ProbabilityRecoveredBy180Days *float64   `json:"probability_recovered_by_180_days"`
	PredictedRecoveryDate         *time.Time `json:"predicted_recovery_date"`
	Confidence                    string     `json:"confidence"`
}

// PredictSurvival runs the survival model at 30, 90, and 180 day horizons.
func (s *Service) PredictSurvival(req SurvivalRequest) (SurvivalResponse, error) {
	if req.ElapsedDays < 0 {
		return SurvivalResponse{}, fmt.Errorf("%w: elapsed_days must be non-negative", domain.ErrInvalidInput)
	}
	if req.SeriesLength < 0 {
		return SurvivalResponse{}, fmt.Errorf("%w: series_length must be non-negative", domain.ErrInvalidInput)
	}

	in := domain.SurvivalInput{
		RecoveryRate:      req.RecoveryRate,
		ElapsedDays:       req.ElapsedDays,
		NDVIDeficit:       req.NDVIDeficit,
		RecoveredFraction: req.RecoveredFraction,
		SeriesLength:      req.SeriesLength,
	}
	if req.FloodDate != nil {
		in.FloodDate = *req.FloodDate
	}

	probs := make([]*float64, len(survivalHorizons))
	var last domain.SurvivalPrediction
	for i, h := range survivalHorizons {
		in.HorizonDays = h
		last = domain.PredictSurvival(in)
		probs[i] = last.ProbabilityRecoveredByHorizon
	}

	return SurvivalResponse{
		ProbabilityRecoveredBy30Days:  probs[0],
		ProbabilityRecoveredBy90Days:  probs[1],
		ProbabilityRecoveredBy180Days: probs[2],
		PredictedRecoveryDate:         last.PredictedRecoveryDate,
		Confidence:                    last.Confidence,
	}, nil
}

// CheckReadiness reports whether the backing store is reachable.
func (s *Service) CheckReadiness(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("event store unreachable: %w", err)
	}
	return nil
}
