package analysis

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/flood-recovery-service/internal/domain"
	"github.com/couchcryptid/flood-recovery-service/internal/observability"
)

var testFloodDate = time.Date(2023, time.June, 15, 0, 0, 0, 0, time.UTC)

// fakeStore is an in-memory EventStore with injectable failures.
type fakeStore struct {
	events    []domain.StoredEvent
	nextID    int
	insertErr error
	pingErr   error
}

func (f *fakeStore) Insert(_ context.Context, result *domain.FloodEventResult) (string, error) {
	if f.insertErr != nil {
		return "", f.insertErr
	}
	f.nextID++
	id := string(rune('a' + f.nextID - 1))
	f.events = append(f.events, domain.StoredEvent{ID: id, Result: *result})
	return id, nil
}

func (f *fakeStore) Get(_ context.Context, id string) (domain.StoredEvent, error) {
	for _, e := range f.events {
		if e.ID == id {
			return e, nil
		}
	}
	return domain.StoredEvent{}, errors.New("not found")
}

func (f *fakeStore) List(_ context.Context) ([]domain.StoredEvent, error) {
	return f.events, nil
}

func (f *fakeStore) Ping(_ context.Context) error {
	return f.pingErr
}

// fakePublisher records published results and can simulate failures.
type fakePublisher struct {
	published []string
	err       error
}

func (f *fakePublisher) Publish(_ context.Context, id string, _ *domain.FloodEventResult) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, id)
	return nil
}

func newTestService(store EventStore, publisher ResultPublisher) *Service {
	return New(store, publisher, Defaults{}, 16,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		observability.NewMetricsForTesting())
}

func uintPtr(v uint64) *uint64 { return &v }

func floatPtr(v float64) *float64 { return &v }

func validRequest() domain.ProcessRequest {
	return domain.ProcessRequest{
		FloodDate:    testFloodDate,
		Location:     domain.Geo{Lat: 45.0, Lon: 25.0},
		NumTimeSteps: 6,
		GridSize:     8,
		Seed:         uintPtr(42),
	}
}

func TestService_ProcessFloodEvent(t *testing.T) {
	store := &fakeStore{}
	publisher := &fakePublisher{}
	svc := newTestService(store, publisher)

	event, err := svc.ProcessFloodEvent(context.Background(), validRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, event.ID)
	assert.Len(t, event.Result.TimeSeries, 6)
	require.Len(t, store.events, 1)
	assert.Equal(t, []string{event.ID}, publisher.published)
}

func TestService_ProcessFloodEvent_InvalidInput(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, nil)

	req := validRequest()
	req.NumTimeSteps = 0
	_, err := svc.ProcessFloodEvent(context.Background(), req)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, store.events)
}

func TestService_ProcessFloodEvent_StoreFailure(t *testing.T) {
	store := &fakeStore{insertErr: errors.New("disk full")}
	svc := newTestService(store, nil)

	_, err := svc.ProcessFloodEvent(context.Background(), validRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storing result")
}

func TestService_ProcessFloodEvent_PublishFailureIsNonFatal(t *testing.T) {
	store := &fakeStore{}
	publisher := &fakePublisher{err: errors.New("broker down")}
	svc := newTestService(store, publisher)

	event, err := svc.ProcessFloodEvent(context.Background(), validRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, event.ID)
	require.Len(t, store.events, 1)
}

func TestService_ProcessFloodEvent_DefaultsApplied(t *testing.T) {
	store := &fakeStore{}
	svc := New(store, nil, Defaults{GridSize: 4, RecoveryThreshold: 0.85, HorizonDays: 90}, 16,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		observability.NewMetricsForTesting())

	req := validRequest()
	req.GridSize = 0
	event, err := svc.ProcessFloodEvent(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, event.Result.TimeSeries, 6)
}

func TestService_SeededRequestsAreCached(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, nil)
	req := validRequest()

	first, err := svc.ProcessFloodEvent(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.ProcessFloodEvent(context.Background(), req)
	require.NoError(t, err)

	// Each call stores a fresh event, but the analysis is replayed
	// from cache so the results are identical.
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.Result, second.Result)
	assert.Len(t, store.events, 2)
}

func TestService_GetAndListEvents(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, nil)

	event, err := svc.ProcessFloodEvent(context.Background(), validRequest())
	require.NoError(t, err)

	got, err := svc.GetEvent(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, event.ID, got.ID)

	events, err := svc.ListEvents(context.Background())
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestService_Dashboard(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, nil)

	data, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, data.TotalEvents)
	assert.Nil(t, data.MeanRecoveryPercentage)

	req := validRequest()
	_, err = svc.ProcessFloodEvent(context.Background(), req)
	require.NoError(t, err)
	req.Seed = uintPtr(7)
	_, err = svc.ProcessFloodEvent(context.Background(), req)
	require.NoError(t, err)

	data, err = svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, data.TotalEvents)
	require.Len(t, data.Events, 2)
	require.NotNil(t, data.MeanRecoveryPercentage)
	assert.GreaterOrEqual(t, *data.MeanRecoveryPercentage, 0.0)
	assert.LessOrEqual(t, *data.MeanRecoveryPercentage, 100.0)
}

func TestService_PredictSurvival(t *testing.T) {
	svc := newTestService(&fakeStore{}, nil)

	t.Run("positive rate", func(t *testing.T) {
		resp, err := svc.PredictSurvival(SurvivalRequest{
			RecoveryRate: floatPtr(0.002),
			NDVIDeficit:  floatPtr(0.2),
			FloodDate:    &testFloodDate,
			ElapsedDays:  60,
			SeriesLength: 10,
		})
		require.NoError(t, err)

		require.NotNil(t, resp.ProbabilityRecoveredBy30Days)
		require.NotNil(t, resp.ProbabilityRecoveredBy90Days)
		require.NotNil(t, resp.ProbabilityRecoveredBy180Days)
		assert.Less(t, *resp.ProbabilityRecoveredBy30Days, *resp.ProbabilityRecoveredBy90Days)
		assert.Less(t, *resp.ProbabilityRecoveredBy90Days, *resp.ProbabilityRecoveredBy180Days)
		require.NotNil(t, resp.PredictedRecoveryDate)
		assert.True(t, resp.PredictedRecoveryDate.After(testFloodDate))
	})

	t.Run("missing rate", func(t *testing.T) {
		resp, err := svc.PredictSurvival(SurvivalRequest{ElapsedDays: 60})
		require.NoError(t, err)
		assert.Nil(t, resp.ProbabilityRecoveredBy30Days)
		assert.Nil(t, resp.ProbabilityRecoveredBy180Days)
		assert.Nil(t, resp.PredictedRecoveryDate)
		assert.Equal(t, domain.ConfidenceLow, resp.Confidence)
	})

	t.Run("negative elapsed days rejected", func(t *testing.T) {
		_, err := svc.PredictSurvival(SurvivalRequest{
			RecoveryRate: floatPtr(0.002),
			ElapsedDays:  -1,
		})
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestService_CheckReadiness(t *testing.T) {
	svc := newTestService(&fakeStore{}, nil)
	assert.NoError(t, svc.CheckReadiness(context.Background()))

	down := newTestService(&fakeStore{pingErr: errors.New("locked")}, nil)
	assert.Error(t, down.CheckReadiness(context.Background()))
}
