package domain

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// weibullShape is the fixed Weibull shape parameter k. Values above 1
	// concentrate the recovery probability around the expected time
	// instead of the memoryless exponential spread of k = 1.
	weibullShape = 1.5

	// DefaultHorizonDays is the prediction horizon used when a request
	// does not specify one.
	DefaultHorizonDays = 180.0

	// nominalNDVIDeficit stands in for the remaining NDVI gap when the
	// caller cannot supply one (the standalone prediction endpoint),
	// sized to a typical post-flood vegetation loss.
	nominalNDVIDeficit = 0.25

	// Confidence labels for SurvivalPrediction.
	ConfidenceLow    = "low"
	ConfidenceMedium = "medium"
	ConfidenceHigh   = "high"
)

// SurvivalInput carries the observations the predictor works from.
// RecoveryRate is the fitted NDVI slope per day; nil means the trend was
// undeterminable. NDVIDeficit is the remaining gap between the last
// observed NDVI and the recovery threshold (nil falls back to a nominal
// value). RecoveredFraction, when available from the pixel analysis,
// refines the confidence label; otherwise SeriesLength is used.
type SurvivalInput struct {
	RecoveryRate      *float64
	ElapsedDays       float64
	HorizonDays       float64
	FloodDate         time.Time
	NDVIDeficit       *float64
	RecoveredFraction *float64
	SeriesLength      int
}

// PredictSurvival models "not yet fully recovered" as a Weibull survival
// function S(t) = exp(-(t/lambda)^k). The scale lambda is the
// trend-implied time to the recovery threshold (deficit / rate), so a
// faster observed recovery decays the survival curve sooner. It returns
// the probability that recovery completes within the horizon, and the
// date at which S(t) crosses 0.5.
//
// With a nil rate the result is indeterminate: nil probability, nil
// date, low confidence. A non-positive rate has no recovery trend to
// project: probability zero, nil date, low confidence. Nothing is ever
// fabricated from absent data.
func PredictSurvival(in SurvivalInput) SurvivalPrediction {
	if in.RecoveryRate == nil {
		return SurvivalPrediction{Confidence: ConfidenceLow}
	}
	rate := *in.RecoveryRate
	if rate <= 0 {
		zero := 0.0
		return SurvivalPrediction{
			ProbabilityRecoveredByHorizon: &zero,
			Confidence:                    ConfidenceLow,
		}
	}

	horizon := in.HorizonDays
	if horizon <= 0 {
		horizon = DefaultHorizonDays
	}

	deficit := nominalNDVIDeficit
	if in.NDVIDeficit != nil {
		deficit = *in.NDVIDeficit
	}

	stepDays := StepInterval.Hours() / 24
	lambda := deficit / rate
	if lambda < stepDays {
		// Threshold already reached (or within one step of it): keep the
		// scale at one observation interval so the probability saturates
		// instead of the distribution degenerating.
		lambda = stepDays
	}

	w := distuv.Weibull{K: weibullShape, Lambda: lambda}
	prob := clamp01(w.CDF(horizon))

	pred := SurvivalPrediction{
		ProbabilityRecoveredByHorizon: &prob,
		Confidence:                    confidenceLabel(in.RecoveredFraction, in.SeriesLength),
	}
	if !in.FloodDate.IsZero() {
		// Median survival time: lambda * ln(2)^(1/k).
		median := w.Quantile(0.5)
		date := in.FloodDate.Add(time.Duration(median * 24 * float64(time.Hour)))
		pred.PredictedRecoveryDate = &date
	}
	return pred
}

// confidenceLabel grades the prediction. The pixel-level recovered
// fraction is the stronger signal when available; otherwise a longer
// observed series earns at most medium confidence.
func confidenceLabel(recoveredFraction *float64, seriesLength int) string {
	if recoveredFraction != nil {
		switch {
		case *recoveredFraction >= 0.8:
			return ConfidenceHigh
		case *recoveredFraction >= 0.4:
			return ConfidenceMedium
		default:
			return ConfidenceLow
		}
	}
	if seriesLength >= 8 {
		return ConfidenceMedium
	}
	return ConfidenceLow
}

// AnalyzePixelRecovery runs a per-pixel time-to-event analysis over the
// post-flood frames: for each pixel, the first step at which its NDVI
// reaches threshold*baseline counts as a recovery event; pixels that
// never reach it within the window are censored at the last step. It
// returns the median recovery step among the grid (nil when fewer than
// half the pixels recovered) and the observed recovered fraction.
//
// Returns nil when there are no frames or the baseline is degenerate.
func AnalyzePixelRecovery(frames []IndexFrame, baselineNDVI, threshold float64) *PixelRecoveryStats {
	if len(frames) == 0 || baselineNDVI <= 0 {
		return nil
	}
	if threshold <= 0 {
		threshold = DefaultRecoveryThreshold
	}
	target := threshold * baselineNDVI

	n := len(frames[0].NDVI)
	recoveredAt := make([]int, n) // 0 = censored, else 1-based step
	for step, f := range frames {
		if len(f.NDVI) != n {
			continue
		}
		for p := 0; p < n; p++ {
			if recoveredAt[p] != 0 || !f.Valid[p] {
				continue
			}
			if f.NDVI[p] >= target {
				recoveredAt[p] = step + 1
			}
		}
	}

	var times []float64
	for _, s := range recoveredAt {
		if s != 0 {
			times = append(times, float64(s))
		}
	}

	stats := &PixelRecoveryStats{
		RecoveredFraction: float64(len(times)) / float64(n),
		ObservedSteps:     len(frames),
	}
	if stats.RecoveredFraction >= 0.5 {
		sort.Float64s(times)
		// Step by which half of ALL pixels (not just recovered ones) have
		// healed, i.e. the Kaplan-Meier median with uniform censoring times.
		median := times[(n-1)/2]
		stats.MedianRecoverySteps = &median
	}
	return stats
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
