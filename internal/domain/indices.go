package domain

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

const (
	// epsilon guards the normalized-difference denominators so the
	// index formulas can never divide by zero.
	epsilon = 1e-10

	// MinBackscatterDB and MaxBackscatterDB bound the decibel
	// conversion to a realistic backscatter range, preventing -Inf
	// for near-zero power.
	MinBackscatterDB = -30.0
	MaxBackscatterDB = 0.0
)

// ComputeIndices reduces one band frame to its per-pixel indices:
//
//	NDVI = (NIR - Red) / (NIR + Red + eps)
//	NDWI = (Green - NIR) / (Green + NIR + eps)
//	backscatter dB = 10*log10(max(power, eps)), clipped to [-30, 0]
//
// A pixel is flagged invalid when both normalized-difference
// denominators are degenerate (all contributing bands ~0).
func ComputeIndices(f BandFrame) IndexFrame {
	n := len(f.Red)
	out := IndexFrame{
		Timestamp:     f.Timestamp,
		Width:         f.Width,
		Height:        f.Height,
		NDVI:          make([]float64, n),
		NDWI:          make([]float64, n),
		BackscatterVV: make([]float64, n),
		BackscatterVH: make([]float64, n),
		Valid:         make([]bool, n),
	}
	for i := 0; i < n; i++ {
		ndviDenom := f.NIR[i] + f.Red[i]
		ndwiDenom := f.Green[i] + f.NIR[i]
		out.Valid[i] = ndviDenom >= epsilon || ndwiDenom >= epsilon
		out.NDVI[i] = (f.NIR[i] - f.Red[i]) / (ndviDenom + epsilon)
		out.NDWI[i] = (f.Green[i] - f.NIR[i]) / (ndwiDenom + epsilon)
		out.BackscatterVV[i] = toDecibels(f.VV[i])
		out.BackscatterVH[i] = toDecibels(f.VH[i])
	}
	return out
}

func toDecibels(power float64) float64 {
	db := 10 * math.Log10(math.Max(power, epsilon))
	if db < MinBackscatterDB {
		return MinBackscatterDB
	}
	if db > MaxBackscatterDB {
		return MaxBackscatterDB
	}
	return db
}

// SummarizePoint aggregates an index frame into one time-series point:
// mean and standard deviation of each index across valid pixels. When
// every pixel is invalid the means are nil, never NaN; the condition
// surfaces as a missing value rather than a failure.
func SummarizePoint(f IndexFrame) TimeSeriesPoint {
	pt := TimeSeriesPoint{Date: f.Timestamp}

	ndvi := collectValid(f.NDVI, f.Valid)
	ndwi := collectValid(f.NDWI, f.Valid)
	vv := collectValid(f.BackscatterVV, f.Valid)
	vh := collectValid(f.BackscatterVH, f.Valid)

	pt.MeanNDVI, pt.StdNDVI = meanStd(ndvi)
	pt.MeanNDWI, pt.StdNDWI = meanStd(ndwi)
	pt.MeanBackscatterVV, _ = meanStd(vv)
	pt.MeanBackscatterVH, _ = meanStd(vh)
	return pt
}

func collectValid(vals []float64, valid []bool) []float64 {
	out := make([]float64, 0, len(vals))
	for i, v := range vals {
		if valid[i] {
			out = append(out, v)
		}
	}
	return out
}

func meanStd(vals []float64) (*float64, *float64) {
	if len(vals) == 0 {
		return nil, nil
	}
	mean := stat.Mean(vals, nil)
	// StdDev needs at least two samples; a single pixel has zero spread.
	sd := 0.0
	if len(vals) > 1 {
		sd = stat.StdDev(vals, nil)
	}
	return &mean, &sd
}
