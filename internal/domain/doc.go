// Package domain implements the flood recovery analytics engine: given a
// flood event (date, location, number of observation steps) it
// synthesizes a sequence of per-step spectral/radar measurements,
// reduces each step to scalar vegetation/water/radar indices, fits a
// temporal recovery trend, and derives recovery metrics plus a
// probabilistic time-to-recovery estimate.
//
// # Measurement model
//
// Each time step is a W x H grid of synthetic band values following the
// Sentinel-2 / Sentinel-1 conventions:
//
//	Red, Green  surface reflectance, ~0.1-0.4 over vegetated land
//	NIR         surface reflectance, ~0.3-0.7 over vegetated land
//	VV, VH      radar backscatter in linear power; -30..0 dB once converted
//
// Band spatial means follow a degrade-then-recover trajectory: stable
// pre-flood baseline, a sharp change at the flood date (NIR drops as
// vegetation is lost, red/green rise over exposed water and soil, radar
// power collapses over smooth standing water), then exponential approach
// back toward the baseline. Radar recovers on a shorter time constant
// than the optical bands because water recedes before canopy regrows.
//
// # Indices
//
//	NDVI = (NIR - Red) / (NIR + Red)      vegetation health proxy
//	NDWI = (Green - NIR) / (Green + NIR)  surface water/moisture proxy
//	backscatter dB = 10*log10(power)      roughness/moisture proxy
//
// Denominators carry an epsilon guard and the decibel conversion is
// clipped to [-30, 0], so numeric instability never escapes the
// calculator. Both normalized indices are in [-1, 1] by construction for
// non-negative bands.
//
// # Recovery metrics
//
// The recovery rate is the ordinary-least-squares slope of mean NDVI
// against elapsed days over the post-flood points; recovery percentage
// is the current NDVI relative to the pre-flood baseline, bounded to
// [0, 100]; time-to-recovery linearly extrapolates the fitted trend to
// 90% of the baseline (the default recovery threshold).
//
// # Survival analysis
//
// "Not yet fully recovered" is modeled as a Weibull survival function
// S(t) = exp(-(t/lambda)^k) with fixed shape k and scale lambda set to
// the trend-implied days to the recovery threshold. The predicted
// recovery date is the median survival time, lambda * ln(2)^(1/k). A
// per-pixel time-to-event pass over the post-flood frames (each pixel's
// first step at or above the threshold, censored at the window edge)
// supplies the recovered fraction that grades prediction confidence.
//
// Everything in this package is a pure computation over its inputs plus
// an optional seed: no I/O, no shared mutable state, bit-identical
// output for identical seeded inputs.
package domain
