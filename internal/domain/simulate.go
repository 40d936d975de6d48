package domain

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/exp/rand"
)

// StepInterval is the spacing between consecutive observation steps.
// Step 0 lands one interval before the flood date so the series always
// opens with a pre-flood baseline observation; step 1 falls on the
// flood date itself.
const StepInterval = 30 * 24 * time.Hour

// DefaultGridSize is the per-frame grid edge length used when a request
// does not specify one.
const DefaultGridSize = 32

// SimulationRequest describes the frames to synthesize for one event.
// A nil Seed draws a fresh time-based seed; a non-nil Seed makes the
// output bit-identical across calls with the same inputs.
type SimulationRequest struct {
	FloodDate    time.Time
	NumTimeSteps int
	GridSize     int
	Seed         *uint64
}

// bandProfile describes one band's degrade-then-recover trajectory.
// The spatial mean sits at baseline before the flood, shifts by -drop at
// the flood date, and approaches the baseline again as
// baseline - drop*exp(-days/tau). A negative drop models bands that
// rise when vegetation is lost (red, green).
type bandProfile struct {
	baseline float64
	drop     float64
	tau      float64 // recovery e-folding time, days
	noise    float64 // uniform per-pixel noise amplitude
	floor    float64 // physical lower bound for the band value
}

// Optical profiles are surface reflectance; radar profiles are linear
// power (VV baseline 0.05 is about -13 dB, VH 0.01 about -20 dB).
// Ranges follow the Sentinel-2/Sentinel-1 conventions of the measurement
// model: red/green around 0.1-0.4, NIR around 0.3-0.7 over vegetation.
// Radar recovers faster than vegetation because standing water recedes
// before canopy regrows.
var (
	profileRed   = bandProfile{baseline: 0.25, drop: -0.05, tau: 90, noise: 0.03, floor: 0.005}
	profileNIR   = bandProfile{baseline: 0.50, drop: 0.25, tau: 90, noise: 0.03, floor: 0.005}
	profileGreen = bandProfile{baseline: 0.25, drop: -0.05, tau: 90, noise: 0.03, floor: 0.005}
	profileVV    = bandProfile{baseline: 0.050, drop: 0.040, tau: 45, noise: 0.010, floor: 1e-6}
	profileVH    = bandProfile{baseline: 0.010, drop: 0.008, tau: 45, noise: 0.002, floor: 1e-6}
)

// Simulate synthesizes the ordered sequence of band frames for a flood
// event: NumTimeSteps frames at StepInterval spacing, anchored one
// interval before the flood date.
func Simulate(req SimulationRequest) ([]BandFrame, error) {
	if req.NumTimeSteps < 1 {
		return nil, fmt.Errorf("%w: num_time_steps must be >= 1, got %d", ErrInvalidInput, req.NumTimeSteps)
	}
	if req.GridSize == 0 {
		req.GridSize = DefaultGridSize
	}
	if req.GridSize < 1 {
		return nil, fmt.Errorf("%w: grid_size must be positive, got %d", ErrInvalidInput, req.GridSize)
	}
	if req.FloodDate.IsZero() {
		return nil, fmt.Errorf("%w: flood_date is required", ErrInvalidInput)
	}

	rng := rand.New(newSource(req.Seed))

	frames := make([]BandFrame, req.NumTimeSteps)
	for i := range frames {
		ts := req.FloodDate.Add(time.Duration(i-1) * StepInterval)
		elapsedDays := ts.Sub(req.FloodDate).Hours() / 24
		frames[i] = simulateFrame(ts, elapsedDays, req.GridSize, rng)
	}
	return frames, nil
}

func newSource(seed *uint64) rand.Source {
	if seed != nil {
		return rand.NewSource(*seed)
	}
	return rand.NewSource(uint64(clock.Now().UnixNano()))
}

func simulateFrame(ts time.Time, elapsedDays float64, gridSize int, rng *rand.Rand) BandFrame {
	n := gridSize * gridSize
	return BandFrame{
		Timestamp: ts,
		Width:     gridSize,
		Height:    gridSize,
		Red:       fillBand(rng, n, profileRed, elapsedDays),
		NIR:       fillBand(rng, n, profileNIR, elapsedDays),
		Green:     fillBand(rng, n, profileGreen, elapsedDays),
		VV:        fillBand(rng, n, profileVV, elapsedDays),
		VH:        fillBand(rng, n, profileVH, elapsedDays),
	}
}

// fillBand draws n pixel values around the band's trajectory mean with
// bounded uniform noise, clamped at the band's physical floor so no
// frame can produce a grid-wide degenerate denominator downstream.
func fillBand(rng *rand.Rand, n int, p bandProfile, elapsedDays float64) []float64 {
	mean := p.trajectoryMean(elapsedDays)
	vals := make([]float64, n)
	for i := range vals {
		v := mean + (rng.Float64()*2-1)*p.noise
		if v < p.floor {
			v = p.floor
		}
		vals[i] = v
	}
	return vals
}

// trajectoryMean evaluates the deterministic degrade-then-recover curve:
// stable baseline pre-flood, a step change of -drop at the flood date,
// then exponential approach back toward the baseline.
func (p bandProfile) trajectoryMean(elapsedDays float64) float64 {
	if elapsedDays < 0 {
		return p.baseline
	}
	return p.baseline - p.drop*math.Exp(-elapsedDays/p.tau)
}
