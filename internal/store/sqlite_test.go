package store

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/flood-recovery-service/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleResult(floodDate time.Time, pct float64) *domain.FloodEventResult {
	baseline := 0.65
	current := baseline * pct / 100
	return &domain.FloodEventResult{
		FloodDate: floodDate,
		Location:  domain.Geo{Lat: 45.0, Lon: 25.0},
		TimeSeries: []domain.TimeSeriesPoint{
			{Date: floodDate, MeanNDVI: &current},
		},
		RecoveryMetrics: domain.RecoveryMetrics{
			BaselineNDVI:       &baseline,
			CurrentNDVI:        &current,
			RecoveryPercentage: pct,
		},
		SurvivalPrediction: domain.SurvivalPrediction{Confidence: domain.ConfidenceLow},
		ProcessedAt:        time.Date(2023, time.December, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestStore_InsertAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	flood := time.Date(2023, time.June, 15, 0, 0, 0, 0, time.UTC)

	id, err := s.Insert(ctx, sampleResult(flood, 72.5))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	event, err := s.Get(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, id, event.ID)
	assert.True(t, event.Result.FloodDate.Equal(flood))
	assert.Equal(t, 72.5, event.Result.RecoveryMetrics.RecoveryPercentage)
	require.NotNil(t, event.Result.RecoveryMetrics.BaselineNDVI)
	assert.InDelta(t, 0.65, *event.Result.RecoveryMetrics.BaselineNDVI, 1e-12)
	require.Len(t, event.Result.TimeSeries, 1)
	require.NotNil(t, event.Result.TimeSeries[0].MeanNDVI)
}

func TestStore_GetUnknownID(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Get(context.Background(), "no-such-id")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_List(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	flood := time.Date(2023, time.June, 15, 0, 0, 0, 0, time.UTC)

	events, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, events)

	first := sampleResult(flood, 40)
	first.ProcessedAt = time.Date(2023, time.December, 1, 10, 0, 0, 0, time.UTC)
	second := sampleResult(flood, 80)
	second.ProcessedAt = time.Date(2023, time.December, 1, 11, 0, 0, 0, time.UTC)

	firstID, err := s.Insert(ctx, first)
	require.NoError(t, err)
	secondID, err := s.Insert(ctx, second)
	require.NoError(t, err)

	events, err = s.List(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)

	// Newest processed first.
	assert.Equal(t, secondID, events[0].ID)
	assert.Equal(t, firstID, events[1].ID)
	assert.Equal(t, 80.0, events[0].Result.RecoveryMetrics.RecoveryPercentage)
}

func TestStore_DistinctIDs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	flood := time.Date(2023, time.June, 15, 0, 0, 0, 0, time.UTC)

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		id, err := s.Insert(ctx, sampleResult(flood, float64(i*20)))
		require.NoError(t, err)
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestStore_Ping(t *testing.T) {
	s := openTestStore(t)
	assert.NoError(t, s.Ping(context.Background()))
}
