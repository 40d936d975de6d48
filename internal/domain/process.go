package domain

import (
	"fmt"
	"time"
)

// ProcessRequest carries the validated inputs for one flood event
// computation. Zero values of GridSize, RecoveryThreshold, and
// HorizonDays select the package defaults.
type ProcessRequest struct {
	FloodDate         time.Time
	Location          Geo
	NumTimeSteps      int
	GridSize          int
	Seed              *uint64
	RecoveryThreshold float64
	HorizonDays       float64
}

// ProcessFloodEvent is the engine's single entry point: it validates the
// request, synthesizes the band frames, reduces them to indices,
// aggregates the time series, fits the recovery trend, and derives the
// survival prediction. The computation is synchronous, stateless, and
// performs no I/O; concurrent calls need no coordination.
//
// Structural failures (ErrInvalidInput, ErrDuplicateTimestamp) fail the
// whole call with no partial result. Data-sparsity conditions - too few
// post-flood points, all-invalid frames - are absorbed into nil fields
// so the series itself is still returned.
func ProcessFloodEvent(req ProcessRequest) (*FloodEventResult, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if req.RecoveryThreshold <= 0 {
		req.RecoveryThreshold = DefaultRecoveryThreshold
	}
	if req.HorizonDays <= 0 {
		req.HorizonDays = DefaultHorizonDays
	}

	bands, err := Simulate(SimulationRequest{
		FloodDate:    req.FloodDate,
		NumTimeSteps: req.NumTimeSteps,
		GridSize:     req.GridSize,
		Seed:         req.Seed,
	})
	if err != nil {
		return nil, err
	}

	indexFrames := make([]IndexFrame, len(bands))
	for i, b := range bands {
		indexFrames[i] = ComputeIndices(b)
	}

	series, err := AggregateSeries(indexFrames)
	if err != nil {
		return nil, err
	}

	metrics := ComputeRecoveryMetrics(series, req.FloodDate, req.RecoveryThreshold)

	var pixelStats *PixelRecoveryStats
	if metrics.BaselineNDVI != nil {
		pixelStats = AnalyzePixelRecovery(
			postFloodFrames(indexFrames, req.FloodDate),
			*metrics.BaselineNDVI,
			req.RecoveryThreshold,
		)
	}

	prediction := PredictSurvival(survivalInput(req, series, metrics, pixelStats))

	return &FloodEventResult{
		FloodDate:          req.FloodDate,
		Location:           req.Location,
		TimeSeries:         series,
		RecoveryMetrics:    metrics,
		SurvivalPrediction: prediction,
		PixelRecovery:      pixelStats,
		ProcessedAt:        clock.Now(),
	}, nil
}

func validate(req ProcessRequest) error {
	if req.NumTimeSteps < 1 {
		return fmt.Errorf("%w: num_time_steps must be >= 1, got %d", ErrInvalidInput, req.NumTimeSteps)
	}
	if req.FloodDate.IsZero() {
		return fmt.Errorf("%w: flood_date is required", ErrInvalidInput)
	}
	if req.Location.Lat < -90 || req.Location.Lat > 90 {
		return fmt.Errorf("%w: latitude %g out of range [-90, 90]", ErrInvalidInput, req.Location.Lat)
	}
	if req.Location.Lon < -180 || req.Location.Lon > 180 {
		return fmt.Errorf("%w: longitude %g out of range [-180, 180]", ErrInvalidInput, req.Location.Lon)
	}
	return nil
}

func postFloodFrames(frames []IndexFrame, floodDate time.Time) []IndexFrame {
	out := make([]IndexFrame, 0, len(frames))
	for _, f := range frames {
		if !f.Timestamp.Before(floodDate) {
			out = append(out, f)
		}
	}
	return out
}

func survivalInput(req ProcessRequest, series []TimeSeriesPoint, metrics RecoveryMetrics, pixelStats *PixelRecoveryStats) SurvivalInput {
	in := SurvivalInput{
		RecoveryRate: metrics.RecoveryRate,
		HorizonDays:  req.HorizonDays,
		FloodDate:    req.FloodDate,
		SeriesLength: len(series),
	}
	if len(series) > 0 {
		in.ElapsedDays = series[len(series)-1].Date.Sub(req.FloodDate).Hours() / 24
	}
	if metrics.BaselineNDVI != nil && metrics.CurrentNDVI != nil {
		deficit := req.RecoveryThreshold**metrics.BaselineNDVI - *metrics.CurrentNDVI
		in.NDVIDeficit = &deficit
	}
	if pixelStats != nil {
		in.RecoveredFraction = &pixelStats.RecoveredFraction
	}
	return in
}
