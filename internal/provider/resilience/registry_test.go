package resilience_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weatherdash/weatherdash/internal/provider/resilience"
)

// dashboardProviders mirrors the upstreams the dashboard talks to.
var dashboardProviders = []struct {
	name string
	role resilience.Role
}{
	{"nominatim", resilience.RoleLocator},
	{"open-meteo-pollen", resilience.RoleSupplement},
	{"ipapi", resilience.RoleLocator},
	{"open-meteo", resilience.RolePrimary},
	{"open-meteo-air-quality", resilience.RoleSupplement},
}

func registerAll(t *testing.T, registry *resilience.Registry) map[string]*resilience.Client {
	t.Helper()
	clients := make(map[string]*resilience.Client)
	for _, p := range dashboardProviders {
		cfg := fastConfig(p.name, p.role)
		cfg.Registry = registry
		clients[p.name] = resilience.NewClient(cfg)
	}
	return clients
}

func TestRegistry_RegisterOnClientCreation(t *testing.T) {
	registry := resilience.NewRegistry()
	registerAll(t, registry)

	health, ok := registry.Health("open-meteo-air-quality")
	require.True(t, ok)
	assert.Equal(t, resilience.RoleSupplement, health.Role)
	assert.Equal(t, gobreaker.StateClosed, health.CircuitState)
	assert.False(t, health.Open())
	assert.False(t, health.Recovering())
	assert.False(t, health.Critical())
	assert.Nil(t, health.LastSuccessAt)
	assert.Nil(t, health.LastFailureAt)

	_, ok = registry.Health("met-office")
	assert.False(t, ok)
}

func TestRegistry_SnapshotOrdersForecastFirst(t *testing.T) {
	registry := resilience.NewRegistry()
	registerAll(t, registry)

	var names []string
	for _, h := range registry.Snapshot() {
		names = append(names, h.Name)
	}
	assert.Equal(t, []string{
		"open-meteo",
		"open-meteo-air-quality",
		"open-meteo-pollen",
		"ipapi",
		"nominatim",
	}, names)
}

func TestRegistry_RecordOutcomes(t *testing.T) {
	registry := resilience.NewRegistry()
	registerAll(t, registry)

	registry.RecordSuccess("nominatim")
	registry.RecordFailure("ipapi", assert.AnError)

	nominatim, _ := registry.Health("nominatim")
	require.NotNil(t, nominatim.LastSuccessAt)
	assert.WithinDuration(t, time.Now(), *nominatim.LastSuccessAt, time.Second)
	assert.Nil(t, nominatim.LastFailureAt)

	ipapi, _ := registry.Health("ipapi")
	require.NotNil(t, ipapi.LastFailureAt)
	assert.Equal(t, assert.AnError.Error(), ipapi.LastError)
	assert.Nil(t, ipapi.LastSuccessAt)

	// Unregistered names are ignored.
	registry.RecordSuccess("met-office")
	registry.RecordFailure("met-office", assert.AnError)
	assert.Len(t, registry.Snapshot(), len(dashboardProviders))
}

func TestRegistry_ReRegisterClearsHistory(t *testing.T) {
	registry := resilience.NewRegistry()
	registerAll(t, registry)
	registry.RecordFailure("open-meteo", assert.AnError)

	cfg := fastConfig("open-meteo", resilience.RolePrimary)
	cfg.Registry = registry
	resilience.NewClient(cfg)

	health, _ := registry.Health("open-meteo")
	assert.Nil(t, health.LastFailureAt)
	assert.Empty(t, health.LastError)
	assert.Len(t, registry.Snapshot(), len(dashboardProviders))
}

func TestRegistry_OpenForecastIsCritical(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	registry := resilience.NewRegistry()
	clients := registerAll(t, registry)

	// Supplements open after three straight failures.
	for i := 0; i < 2; i++ {
		_, _ = get(t, clients["open-meteo-pollen"], server.URL)
	}
	pollen, _ := registry.Health("open-meteo-pollen")
	assert.True(t, pollen.Open())
	assert.False(t, pollen.Critical())
	assert.Contains(t, pollen.LastError, "Service Unavailable")

	// The forecast needs five calls with half of them failing.
	for i := 0; i < 3; i++ {
		_, _ = get(t, clients["open-meteo"], server.URL)
	}
	forecast, _ := registry.Health("open-meteo")
	assert.True(t, forecast.Open())
	assert.True(t, forecast.Critical())
	assert.NotNil(t, forecast.LastFailureAt)
}

func TestHealth_States(t *testing.T) {
	tests := []struct {
		role       resilience.Role
		state      gobreaker.State
		open       bool
		recovering bool
		critical   bool
	}{
		{resilience.RolePrimary, gobreaker.StateClosed, false, false, false},
		{resilience.RolePrimary, gobreaker.StateHalfOpen, false, true, false},
		{resilience.RolePrimary, gobreaker.StateOpen, true, false, true},
		{resilience.RoleSupplement, gobreaker.StateOpen, true, false, false},
		{resilience.RoleLocator, gobreaker.StateOpen, true, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.role.String()+"/"+tt.state.String(), func(t *testing.T) {
			h := resilience.Health{Role: tt.role, CircuitState: tt.state}
			assert.Equal(t, tt.open, h.Open())
			assert.Equal(t, tt.recovering, h.Recovering())
			assert.Equal(t, tt.critical, h.Critical())
		})
	}
}
