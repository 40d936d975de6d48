package domain

import "time"

// Geo represents a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// BandFrame holds one time step's grid of synthetic band measurements.
// Optical bands (Red, NIR, Green) are surface reflectance; radar bands
// (VV, VH) are backscatter in linear power. Grids are row-major with
// Width*Height entries. Frames are ephemeral: produced and consumed
// within a single ProcessFloodEvent call.
type BandFrame struct {
	Timestamp time.Time
	Width     int
	Height    int
	Red       []float64
	NIR       []float64
	Green     []float64
	VV        []float64
	VH        []float64
}

// IndexFrame holds the per-pixel indices derived from one BandFrame.
// Backscatter grids are in decibels, clipped to [MinBackscatterDB,
// MaxBackscatterDB]. Valid flags pixels whose index denominators are
// non-degenerate; invalid pixels are excluded from aggregation.
type IndexFrame struct {
	Timestamp     time.Time
	Width         int
	Height        int
	NDVI          []float64
	NDWI          []float64
	BackscatterVV []float64
	BackscatterVH []float64
	Valid         []bool
}

// TimeSeriesPoint is one time step's spatial summary. Mean fields are
// nil when every pixel in the source frame was invalid; non-nil NDVI
// and NDWI means are in [-1, 1] by construction.
type TimeSeriesPoint struct {
	Date              time.Time `json:"date"`
	MeanNDVI          *float64  `json:"mean_ndvi"`
	StdNDVI           *float64  `json:"std_ndvi,omitempty"`
	MeanNDWI          *float64  `json:"mean_ndwi"`
	StdNDWI           *float64  `json:"std_ndwi,omitempty"`
	MeanBackscatterVV *float64  `json:"mean_backscatter_vv,omitempty"`
	MeanBackscatterVH *float64  `json:"mean_backscatter_vh,omitempty"`
}

// RecoveryMetrics summarizes the fitted post-flood NDVI trend.
// RecoveryRate is NDVI change per day and is nil when fewer than two
// usable post-flood points exist. TimeToRecoveryDays is nil unless
// RecoveryRate is positive.
type RecoveryMetrics struct {
	BaselineNDVI       *float64 `json:"baseline_ndvi"`
	CurrentNDVI        *float64 `json:"current_ndvi"`
	RecoveryPercentage float64  `json:"recovery_percentage"`
	RecoveryRate       *float64 `json:"recovery_rate"`
	TimeToRecoveryDays *float64 `json:"time_to_recovery_days"`
}

// SurvivalPrediction is the probabilistic time-to-recovery estimate.
// ProbabilityRecoveredByHorizon is nil when the recovery rate was
// undeterminable; otherwise it is in [0, 1].
type SurvivalPrediction struct {
	ProbabilityRecoveredByHorizon *float64   `json:"probability_recovered_by_horizon"`
	PredictedRecoveryDate         *time.Time `json:"predicted_recovery_date"`
	Confidence                    string     `json:"confidence"`
}

// PixelRecoveryStats summarizes the per-pixel time-to-recovery analysis
// over the post-flood frames. MedianRecoverySteps is nil when fewer than
// half the pixels recovered within the observation window.
type PixelRecoveryStats struct {
	MedianRecoverySteps *float64 `json:"median_recovery_steps"`
	RecoveredFraction   float64  `json:"recovered_fraction"`
	ObservedSteps       int      `json:"observed_steps"`
}

// FloodEventResult is the engine's output for a single flood event.
// TimeSeries is ordered by ascending date. The caller owns the result
// after return; the engine keeps no reference to it.
type FloodEventResult struct {
	FloodDate          time.Time           `json:"flood_date"`
	Location           Geo                 `json:"location"`
	TimeSeries         []TimeSeriesPoint   `json:"time_series"`
	RecoveryMetrics    RecoveryMetrics     `json:"recovery_metrics"`
	SurvivalPrediction SurvivalPrediction  `json:"survival_prediction"`
	PixelRecovery      *PixelRecoveryStats `json:"pixel_recovery,omitempty"`
	ProcessedAt        time.Time           `json:"processed_at"`
}

// StoredEvent is a FloodEventResult together with the identifier the
// event store assigned on insert. The engine itself never assigns
// identity; this type exists for the store and transport layers.
type StoredEvent struct {
	ID     string           `json:"event_id"`
	Result FloodEventResult `json:"result"`
}
