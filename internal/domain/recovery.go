package domain

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

// DefaultRecoveryThreshold is the fraction of the baseline NDVI at which
// the landscape counts as recovered.
const DefaultRecoveryThreshold = 0.9

// ComputeRecoveryMetrics derives the recovery summary from an ordered
// NDVI series. Baseline is the first point with a usable NDVI (the
// pre-flood observation); current is the last. The recovery rate is the
// ordinary-least-squares slope of NDVI against elapsed days over the
// points from the flood date onward; with fewer than two such points the
// rate is nil and no extrapolation is attempted. A non-positive
// threshold selects DefaultRecoveryThreshold.
func ComputeRecoveryMetrics(series []TimeSeriesPoint, floodDate time.Time, threshold float64) RecoveryMetrics {
	if threshold <= 0 {
		threshold = DefaultRecoveryThreshold
	}

	var m RecoveryMetrics
	m.BaselineNDVI = firstNDVI(series)
	m.CurrentNDVI = lastNDVI(series)
	if m.BaselineNDVI == nil || m.CurrentNDVI == nil {
		// No usable NDVI anywhere in the series: nothing to measure.
		return m
	}
	baseline, current := *m.BaselineNDVI, *m.CurrentNDVI

	m.RecoveryPercentage = recoveryPercentage(baseline, current)
	m.RecoveryRate = fitRecoveryRate(series, floodDate)

	if m.RecoveryRate != nil && *m.RecoveryRate > 0 {
		target := threshold * baseline
		days := (target - current) / *m.RecoveryRate
		if days < 0 {
			// Already at or past the recovery threshold.
			days = 0
		}
		m.TimeToRecoveryDays = &days
	}
	return m
}

// recoveryPercentage is current NDVI relative to baseline, clipped to
// [0, 100]. A non-positive baseline is degenerate (no pre-flood
// vegetation to recover toward); by policy it reports 100 when the
// current value is at least the baseline and 0 otherwise.
func recoveryPercentage(baseline, current float64) float64 {
	if baseline <= 0 {
		if current >= baseline {
			return 100
		}
		return 0
	}
	pct := 100 * current / baseline
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// fitRecoveryRate fits NDVI against elapsed days since the flood over
// the post-flood segment. Returns nil with fewer than two usable points.
func fitRecoveryRate(series []TimeSeriesPoint, floodDate time.Time) *float64 {
	var days, ndvi []float64
	for _, pt := range series {
		if pt.Date.Before(floodDate) || pt.MeanNDVI == nil {
			continue
		}
		days = append(days, pt.Date.Sub(floodDate).Hours()/24)
		ndvi = append(ndvi, *pt.MeanNDVI)
	}
	if len(days) < 2 {
		return nil
	}
	_, slope := stat.LinearRegression(days, ndvi, nil, false)
	return &slope
}

func firstNDVI(series []TimeSeriesPoint) *float64 {
	for _, pt := range series {
		if pt.MeanNDVI != nil {
			v := *pt.MeanNDVI
			return &v
		}
	}
	return nil
}

func lastNDVI(series []TimeSeriesPoint) *float64 {
	for i := len(series) - 1; i >= 0; i-- {
		if series[i].MeanNDVI != nil {
			v := *series[i].MeanNDVI
			return &v
		}
	}
	return nil
}
