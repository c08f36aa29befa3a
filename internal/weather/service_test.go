package weather_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weatherdash/weatherdash/internal/airquality"
	"github.com/weatherdash/weatherdash/internal/geo"
	"github.com/weatherdash/weatherdash/internal/pollen"
	"github.com/weatherdash/weatherdash/internal/timeseries"
	"github.com/weatherdash/weatherdash/internal/weather"
)

// mockProvider is a mock forecast provider for testing.
type mockProvider struct {
	mu        sync.Mutex
	callCount int
	forecast  *weather.Forecast
	err       error
}

func newMockProvider() *mockProvider {
	return &mockProvider{forecast: testForecast(48)}
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) Fetch(_ context.Context, _ geo.Coordinates) (*weather.Forecast, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount++
	if m.err != nil {
		return nil, m.err
	}
	return m.forecast, nil
}

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

type mockAirQuality struct {
	data *airquality.Data
}

func (m *mockAirQuality) Get(_ context.Context, _ geo.Coordinates) *airquality.Data {
	return m.data
}

type mockPollen struct {
	data *pollen.Data
}

func (m *mockPollen) Get(_ context.Context, _ geo.Coordinates) *pollen.Data {
	return m.data
}

// hours returns n hourly timestamps starting 2024-01-14T00:00.
func hours(n int) []string {
	start := time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC)
	out := make([]string, n)
	for i := range out {
		out[i] = start.Add(time.Duration(i) * time.Hour).Format("2006-01-02T15:04")
	}
	return out
}

func testForecast(n int) *weather.Forecast {
	vis := make([]float64, n)
	dew := make([]float64, n)
	for i := range vis {
		vis[i] = float64(1000 * i)
		dew[i] = float64(i) / 10
	}
	return &weather.Forecast{
		Timezone:         "Europe/Berlin",
		UTCOffsetSeconds: 3600,
		Current: weather.Current{
			Time:        "2024-01-15T14:15",
			Temperature: timeseries.Float(4),
			Condition:   weather.NewCondition(3, true),
		},
		Hourly: weather.Hourly{
			Time: hours(n),
			Series: map[weather.Metric]timeseries.Series{
				weather.MetricVisibility: timeseries.Of(vis...),
				weather.MetricDewPoint:   timeseries.Of(dew...),
			},
		},
		FetchedAt: time.Now(),
	}
}

var frankfurt = geo.LocationInfo{CityName: "Frankfurt am Main", FullName: "Frankfurt am Main, Hesse"}

func TestService_FetchWeather_Merges(t *testing.T) {
	provider := newMockProvider()
	aqTimes := hours(48)[2:10]
	svc := weather.NewService(weather.ServiceConfig{
		Provider: provider,
		AirQuality: &mockAirQuality{data: &airquality.Data{
			Current: airquality.Current{USAQI: timeseries.Float(0)},
			Hourly: airquality.Hourly{
				Time: aqTimes,
				Series: map[airquality.Pollutant]timeseries.Series{
					airquality.PollutantUSAQI: timeseries.Of(10, 11, 12, 13, 14, 15, 16, 17),
				},
			},
		}},
		Pollen: &mockPollen{data: &pollen.Data{
			Current: pollen.Current{pollen.SpeciesBirch: timeseries.Float(1.5)},
			Hourly: pollen.Hourly{
				Time: hours(48)[24:],
				Series: map[pollen.Species]timeseries.Series{
					pollen.SpeciesBirch: timeseries.Of(make([]float64, 24)...),
				},
			},
		}},
		Logger: zerolog.Nop(),
		Now:    func() time.Time { return time.UnixMilli(1705300000000) },
	})

	record, err := svc.FetchWeather(context.Background(), geo.Default, frankfurt)
	require.NoError(t, err)

	assert.Equal(t, int64(1705300000000), record.ID)
	assert.Equal(t, "Frankfurt am Main", record.Name)
	assert.Equal(t, "Frankfurt am Main, Hesse", record.FullName)
	assert.Equal(t, geo.Default, record.Coords)
	assert.Equal(t, 2, record.DayCount())

	// 2024-01-15T14:00 is index 38 of the backbone.
	require.NotNil(t, record.Current.Visibility)
	assert.Equal(t, 38.0, *record.Current.Visibility)
	require.NotNil(t, record.Current.DewPoint)
	assert.InDelta(t, 3.8, *record.Current.DewPoint, 1e-9)

	require.NotNil(t, record.Current.AirQuality)
	require.NotNil(t, record.Current.AirQuality.USAQI)
	assert.Equal(t, 0.0, *record.Current.AirQuality.USAQI)

	aqi := record.Hourly.AirQuality.Get(airquality.PollutantUSAQI)
	require.Len(t, aqi, 48)
	assert.Nil(t, aqi[0])
	assert.Nil(t, aqi[1])
	assert.Equal(t, 10.0, *aqi[2])
	assert.Equal(t, 17.0, *aqi[9])
	assert.Nil(t, aqi[10])

	birch := record.Hourly.Pollen.Get(pollen.SpeciesBirch)
	require.Len(t, birch, 48)
	assert.Nil(t, birch[23])
	require.NotNil(t, birch[24])
	assert.Equal(t, 0.0, *birch[24])
	assert.Equal(t, 1.5, *record.Current.Pollen[pollen.SpeciesBirch])
}

func TestService_FetchWeather_OptionalGroupsMissing(t *testing.T) {
	svc := weather.NewService(weather.ServiceConfig{
		Provider:   newMockProvider(),
		AirQuality: &mockAirQuality{},
		Pollen:     &mockPollen{},
		Logger:     zerolog.Nop(),
	})

	record, err := svc.FetchWeather(context.Background(), geo.Default, frankfurt)
	require.NoError(t, err)

	assert.Nil(t, record.Current.AirQuality)
	assert.Nil(t, record.Current.Pollen)
	assert.Nil(t, record.Hourly.AirQuality)
	assert.Nil(t, record.Hourly.Pollen)
	for _, p := range airquality.AllPollutants() {
		assert.Empty(t, record.Hourly.AirQuality.Get(p))
	}
}

func TestService_FetchWeather_PrimaryFailure(t *testing.T) {
	provider := newMockProvider()
	provider.setError(errors.New("connection refused"))
	svc := weather.NewService(weather.ServiceConfig{Provider: provider, Logger: zerolog.Nop()})

	record, err := svc.FetchWeather(context.Background(), geo.Default, frankfurt)
	assert.Nil(t, record)
	assert.ErrorIs(t, err, weather.ErrProviderUnavailable)
}

func TestService_FetchWeather_InvalidCoordinates(t *testing.T) {
	provider := newMockProvider()
	svc := weather.NewService(weather.ServiceConfig{Provider: provider, Logger: zerolog.Nop()})

	_, err := svc.FetchWeather(context.Background(), geo.Coordinates{Lat: 91, Lng: 0}, frankfurt)
	assert.ErrorIs(t, err, weather.ErrInvalidCoordinates)
	assert.Equal(t, 0, provider.calls())
}

func TestService_Caching(t *testing.T) {
	provider := newMockProvider()
	svc := weather.NewService(weather.ServiceConfig{Provider: provider, Logger: zerolog.Nop()})

	ctx := context.Background()
	first, err := svc.FetchWeather(ctx, geo.Coordinates{Lat: 50.11, Lng: 8.68}, frankfurt)
	require.NoError(t, err)

	other := geo.LocationInfo{CityName: "Offenbach", FullName: "Offenbach, Hesse"}
	second, err := svc.FetchWeather(ctx, geo.Coordinates{Lat: 50.12, Lng: 8.69}, other)
	require.NoError(t, err)

	assert.Equal(t, 1, provider.calls(), "same grid cell should hit cache")
	assert.Equal(t, "Frankfurt am Main", first.Name, "stamping must not leak between callers")
	assert.Equal(t, "Offenbach", second.Name)

	stats := svc.CacheStats()
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, "mock", stats.Provider)

	svc.InvalidateCache()
	_, err = svc.FetchWeather(ctx, geo.Coordinates{Lat: 50.11, Lng: 8.68}, frankfurt)
	require.NoError(t, err)
	assert.Equal(t, 2, provider.calls())
}

func TestService_StaleIfError(t *testing.T) {
	provider := newMockProvider()
	svc := weather.NewService(weather.ServiceConfig{
		Provider: provider,
		Logger:   zerolog.Nop(),
		CacheTTL: time.Millisecond,
	})

	ctx := context.Background()
	_, err := svc.FetchWeather(ctx, geo.Default, frankfurt)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	provider.setError(errors.New("timeout"))

	record, err := svc.FetchWeather(ctx, geo.Default, frankfurt)
	require.NoError(t, err)
	assert.NotNil(t, record)
	assert.Equal(t, 2, provider.calls())
}

func TestService_ConcurrentFetchesShareOneCall(t *testing.T) {
	provider := newMockProvider()
	svc := weather.NewService(weather.ServiceConfig{Provider: provider, Logger: zerolog.Nop()})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			info := geo.LocationInfo{CityName: fmt.Sprintf("caller-%d", i)}
			record, err := svc.FetchWeather(context.Background(), geo.Default, info)
			if assert.NoError(t, err) {
				assert.Equal(t, info.CityName, record.Name)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, provider.calls())
}

// flakyAirQuality is an air quality provider that fails until recovered.
type flakyAirQuality struct {
	mu     sync.Mutex
	calls  int
	failed bool
}

func (f *flakyAirQuality) Name() string { return "flaky" }

func (f *flakyAirQuality) Fetch(_ context.Context, _ geo.Coordinates) (*airquality.Data, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failed {
		return nil, errors.New("upstream returned 500")
	}
	return &airquality.Data{
		Current: airquality.Current{USAQI: timeseries.Float(42)},
		Hourly: airquality.Hourly{
			Time: hours(48),
			Series: map[airquality.Pollutant]timeseries.Series{
				airquality.PollutantUSAQI: timeseries.Of(42),
			},
		},
	}, nil
}

func (f *flakyAirQuality) setFailed(failed bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = failed
}

func (f *flakyAirQuality) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newAirQualityService(p airquality.Provider) *airquality.Service {
	return airquality.NewService(airquality.ServiceConfig{Provider: p, Logger: zerolog.Nop()})
}

func TestService_FetchWeather_AirQualityProviderFails(t *testing.T) {
	aqProvider := &flakyAirQuality{failed: true}
	svc := weather.NewService(weather.ServiceConfig{
		Provider:   newMockProvider(),
		AirQuality: newAirQualityService(aqProvider),
		Logger:     zerolog.Nop(),
	})

	record, err := svc.FetchWeather(context.Background(), geo.Default, frankfurt)
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.Equal(t, "Frankfurt am Main", record.Name)
	assert.Len(t, record.Hourly.Time, 48)
	assert.Equal(t, 4.0, *record.Current.Temperature)
	assert.Nil(t, record.Current.AirQuality)
	assert.Nil(t, record.Hourly.AirQuality)
	assert.Empty(t, record.Hourly.AirQuality.Get(airquality.PollutantUSAQI))
	assert.Equal(t, 1, aqProvider.callCount())
}

func TestService_FetchWeather_RetriesFailedAirQuality(t *testing.T) {
	provider := newMockProvider()
	aqProvider := &flakyAirQuality{failed: true}
	svc := weather.NewService(weather.ServiceConfig{
		Provider:   provider,
		AirQuality: newAirQualityService(aqProvider),
		Logger:     zerolog.Nop(),
	})

	ctx := context.Background()
	first, err := svc.FetchWeather(ctx, geo.Default, frankfurt)
	require.NoError(t, err)
	assert.Nil(t, first.Current.AirQuality)

	aqProvider.setFailed(false)

	second, err := svc.FetchWeather(ctx, geo.Default, frankfurt)
	require.NoError(t, err)
	require.NotNil(t, second.Current.AirQuality)
	assert.Equal(t, 42.0, *second.Current.AirQuality.USAQI)
	assert.NotNil(t, second.Hourly.AirQuality)

	assert.Equal(t, 1, provider.calls(), "forecast stays cached")
	assert.Equal(t, 2, aqProvider.callCount(), "failed air quality is not cached")

	third, err := svc.FetchWeather(ctx, geo.Default, frankfurt)
	require.NoError(t, err)
	assert.NotNil(t, third.Current.AirQuality)
	assert.Equal(t, 2, aqProvider.callCount())
	assert.Nil(t, first.Current.AirQuality, "earlier records are not mutated")
}
