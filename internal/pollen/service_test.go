package pollen_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weatherdash/weatherdash/internal/featureflags"
	"github.com/weatherdash/weatherdash/internal/geo"
	"github.com/weatherdash/weatherdash/internal/pollen"
	"github.com/weatherdash/weatherdash/internal/timeseries"
)

// mockProvider is a mock pollen provider for testing.
type mockProvider struct {
	mu        sync.Mutex
	callCount int
	data      *pollen.Data
	err       error
}

func newMockProvider() *mockProvider {
	return &mockProvider{
		data: &pollen.Data{
			Current: pollen.Current{
				pollen.SpeciesBirch: timeseries.Float(2.5),
				pollen.SpeciesGrass: timeseries.Float(0.4),
			},
			Hourly: pollen.Hourly{
				Time: []string{"2024-05-01T00:00", "2024-05-01T01:00"},
				Series: map[pollen.Species]timeseries.Series{
					pollen.SpeciesBirch: timeseries.Of(2.5, 3),
					pollen.SpeciesGrass: timeseries.Of(0.4, 0.5),
				},
			},
			FetchedAt: time.Now(),
			Provider:  "mock",
		},
	}
}

func (m *mockProvider) Fetch(_ context.Context, _ geo.Coordinates) (*pollen.Data, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount++
	if m.err != nil {
		return nil, m.err
	}
	return m.data, nil
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

func (m *mockProvider) setError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

var berlin = geo.Coordinates{Lat: 52.52, Lng: 13.405}

func TestService_Get_Europe(t *testing.T) {
	provider := newMockProvider()
	svc := pollen.NewService(pollen.ServiceConfig{Provider: provider, Logger: zerolog.Nop()})

	data := svc.Get(context.Background(), berlin)
	require.NotNil(t, data)
	assert.Equal(t, 2.5, *data.Current[pollen.SpeciesBirch])
	assert.Equal(t, 1, provider.calls())
}

func TestService_Get_OutsideEuropeSkipsProvider(t *testing.T) {
	provider := newMockProvider()
	svc := pollen.NewService(pollen.ServiceConfig{Provider: provider, Logger: zerolog.Nop()})

	newYork := geo.Coordinates{Lat: 40.7128, Lng: -74.0060}
	assert.Nil(t, svc.Get(context.Background(), newYork))

	_, err := svc.Fetch(context.Background(), newYork)
	assert.ErrorIs(t, err, pollen.ErrOutsideCoverage)
	assert.Equal(t, 0, provider.calls())
}

func TestService_Get_InvalidCoordinates(t *testing.T) {
	provider := newMockProvider()
	svc := pollen.NewService(pollen.ServiceConfig{Provider: provider, Logger: zerolog.Nop()})

	assert.Nil(t, svc.Get(context.Background(), geo.Coordinates{Lat: 999, Lng: 999}))
	assert.Equal(t, 0, provider.calls())
}

func TestService_Caching(t *testing.T) {
	provider := newMockProvider()
	svc := pollen.NewService(pollen.ServiceConfig{Provider: provider, Logger: zerolog.Nop()})

	ctx := context.Background()
	require.NotNil(t, svc.Get(ctx, berlin))
	require.NotNil(t, svc.Get(ctx, geo.Coordinates{Lat: 52.7, Lng: 13.2}))
	assert.Equal(t, 1, provider.calls(), "same 0.5 degree cell should hit cache")

	svc.InvalidateCache()
	require.NotNil(t, svc.Get(ctx, berlin))
	assert.Equal(t, 2, provider.calls())
}

func TestService_StaleIfError(t *testing.T) {
	provider := newMockProvider()
	svc := pollen.NewService(pollen.ServiceConfig{
		Provider: provider,
		Logger:   zerolog.Nop(),
		CacheTTL: time.Millisecond,
	})

	ctx := context.Background()
	require.NotNil(t, svc.Get(ctx, berlin))

	time.Sleep(5 * time.Millisecond)
	provider.setError(errors.New("provider down"))

	data := svc.Get(ctx, berlin)
	require.NotNil(t, data, "stale data is served while the provider fails")
	assert.Equal(t, 2, provider.calls())
}

func TestService_ProviderError(t *testing.T) {
	provider := newMockProvider()
	provider.setError(errors.New("provider down"))
	svc := pollen.NewService(pollen.ServiceConfig{Provider: provider, Logger: zerolog.Nop()})

	_, err := svc.Fetch(context.Background(), berlin)
	assert.ErrorIs(t, err, pollen.ErrProviderUnavailable)
}

func TestService_FeatureFlagDisabled(t *testing.T) {
	repo := featureflags.NewInMemoryRepository()
	flags := featureflags.NewService(featureflags.ServiceConfig{Repository: repo, Logger: zerolog.Nop()})
	require.NoError(t, flags.SetFlag(context.Background(), &featureflags.Flag{
		Key:   featureflags.FlagDisablePollen,
		Value: true,
	}))

	provider := newMockProvider()
	svc := pollen.NewService(pollen.ServiceConfig{
		Provider:     provider,
		FeatureFlags: flags,
		Logger:       zerolog.Nop(),
	})

	assert.True(t, svc.IsDisabled(context.Background()))
	_, err := svc.Fetch(context.Background(), berlin)
	assert.ErrorIs(t, err, pollen.ErrPollenDisabled)
	assert.Equal(t, 0, provider.calls())
}
