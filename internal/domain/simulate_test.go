package domain

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testFloodDate = time.Date(2023, time.June, 15, 0, 0, 0, 0, time.UTC)

func uintPtr(v uint64) *uint64 { return &v }

func TestSimulate_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  SimulationRequest
	}{
		{"zero steps", SimulationRequest{FloodDate: testFloodDate, NumTimeSteps: 0}},
		{"negative steps", SimulationRequest{FloodDate: testFloodDate, NumTimeSteps: -3}},
		{"negative grid", SimulationRequest{FloodDate: testFloodDate, NumTimeSteps: 5, GridSize: -1}},
		{"zero flood date", SimulationRequest{NumTimeSteps: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Simulate(tt.req)
			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestSimulate_TemporalWindow(t *testing.T) {
	frames, err := Simulate(SimulationRequest{
		FloodDate:    testFloodDate,
		NumTimeSteps: 5,
		GridSize:     4,
		Seed:         uintPtr(1),
	})
	require.NoError(t, err)
	require.Len(t, frames, 5)

	// Step 0 is the pre-flood baseline, step 1 falls on the flood date,
	// and each step is 30 days after the previous one.
	assert.Equal(t, testFloodDate.Add(-StepInterval), frames[0].Timestamp)
	assert.Equal(t, testFloodDate, frames[1].Timestamp)
	for i := 1; i < len(frames); i++ {
		assert.Equal(t, StepInterval, frames[i].Timestamp.Sub(frames[i-1].Timestamp))
	}
}

func TestSimulate_Deterministic(t *testing.T) {
	req := SimulationRequest{
		FloodDate:    testFloodDate,
		NumTimeSteps: 6,
		GridSize:     8,
		Seed:         uintPtr(42),
	}

	first, err := Simulate(req)
	require.NoError(t, err)
	second, err := Simulate(req)
	require.NoError(t, err)

	assert.Empty(t, cmp.Diff(first, second), "same seed must produce bit-identical frames")
}

func TestSimulate_DifferentSeedsDiffer(t *testing.T) {
	a, err := Simulate(SimulationRequest{FloodDate: testFloodDate, NumTimeSteps: 3, GridSize: 8, Seed: uintPtr(1)})
	require.NoError(t, err)
	b, err := Simulate(SimulationRequest{FloodDate: testFloodDate, NumTimeSteps: 3, GridSize: 8, Seed: uintPtr(2)})
	require.NoError(t, err)

	assert.NotEqual(t, a[0].NIR, b[0].NIR)
}

func TestSimulate_PhysicallyPlausibleBounds(t *testing.T) {
	frames, err := Simulate(SimulationRequest{
		FloodDate:    testFloodDate,
		NumTimeSteps: 8,
		GridSize:     16,
		Seed:         uintPtr(7),
	})
	require.NoError(t, err)

	for _, f := range frames {
		for _, band := range [][]float64{f.Red, f.NIR, f.Green} {
			for _, v := range band {
				assert.GreaterOrEqual(t, v, 0.0, "optical reflectance must be non-negative")
			}
		}
		for _, band := range [][]float64{f.VV, f.VH} {
			for _, v := range band {
				assert.Greater(t, v, 0.0, "radar power must stay above zero")
			}
		}
	}
}

func TestSimulate_DegradeThenRecover(t *testing.T) {
	frames, err := Simulate(SimulationRequest{
		FloodDate:    testFloodDate,
		NumTimeSteps: 10,
		GridSize:     16,
		Seed:         uintPtr(99),
	})
	require.NoError(t, err)

	pre := gridMean(frames[0].NIR)
	atFlood := gridMean(frames[1].NIR)
	last := gridMean(frames[9].NIR)

	assert.Less(t, atFlood, pre, "NIR must drop at the flood date")
	assert.Greater(t, last, atFlood, "NIR must recover toward the baseline")
	assert.Less(t, last, pre+profileNIR.noise, "recovery is asymptotic, not an overshoot")

	// Radar power collapses over standing water and recovers as well.
	assert.Less(t, gridMean(frames[1].VV), gridMean(frames[0].VV))
	assert.Greater(t, gridMean(frames[9].VV), gridMean(frames[1].VV))
}

func gridMean(vals []float64) float64 {
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
