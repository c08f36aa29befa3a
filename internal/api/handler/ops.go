package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/weatherdash/weatherdash/internal/api/models"
	"github.com/weatherdash/weatherdash/internal/api/response"
	"github.com/weatherdash/weatherdash/internal/featureflags"
	"github.com/weatherdash/weatherdash/internal/provider/resilience"
	"github.com/weatherdash/weatherdash/internal/weather"
)

// ReadyChecker reports whether startup has completed.
type ReadyChecker interface {
	Ready() bool
}

// CacheReporter exposes weather cache statistics.
type CacheReporter interface {
	CacheStats() weather.CacheStats
}

// MetricsReporter exposes job metrics.
type MetricsReporter interface {
	MetricsSnapshot() map[string]interface{}
}

// OpsConfig holds the dependencies of the ops endpoints. Everything except
// the version fields is optional.
type OpsConfig struct {
	Version   string
	BuildTime string

	Ready    ReadyChecker
	Registry *resilience.Registry

	Cache          CacheReporter
	Refresh        MetricsReporter
	StorageBackend string
	FeatureFlags   *featureflags.Service
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	cfg OpsConfig
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	return &OpsHandler{cfg: cfg}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.cfg.Version,
			"buildTime": h.cfg.BuildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready. The host is ready once the
// first bootstrap has finished.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Ready != nil && !h.cfg.Ready.Ready() {
		response.ServiceUnavailable(w, r, "bootstrap in progress")
		return
	}
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
	}
	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - provider and subsystem status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Time:       models.Timestamp(time.Now()),
		Subsystems: h.subsystems(),
		Providers:  []models.ProviderStatus{},
	}

	if h.cfg.Registry != nil {
		for _, ph := range h.cfg.Registry.Snapshot() {
			status.Providers = append(status.Providers, providerStatus(ph))
			status.Status = worse(status.Status, providerImpact(ph))
		}
	}

	status.ActiveDegradationFlags = h.degradationFlags(r.Context())
	if len(status.ActiveDegradationFlags) > 0 {
		status.Status = worse(status.Status, models.HealthStatusDegraded)
	}

	response.JSON(w, r, http.StatusOK, status)
}

func (h *OpsHandler) subsystems() []models.SubsystemStatus {
	var out []models.SubsystemStatus

	if h.cfg.StorageBackend != "" {
		backend := h.cfg.StorageBackend
		out = append(out, models.SubsystemStatus{Name: "storage", Status: models.HealthStatusOK, Detail: &backend})
	}
	if h.cfg.Cache != nil {
		stats := h.cfg.Cache.CacheStats()
		out = append(out, models.SubsystemStatus{
			Name:   "weather-cache",
			Status: models.HealthStatusOK,
			Metrics: map[string]interface{}{
				"entries":       stats.Entries,
				"fresh_entries": stats.FreshEntries,
				"provider":      stats.Provider,
			},
		})
	}
	if h.cfg.Refresh != nil {
		out = append(out, models.SubsystemStatus{
			Name:    "refresh-scheduler",
			Status:  models.HealthStatusOK,
			Metrics: h.cfg.Refresh.MetricsSnapshot(),
		})
	}
	if out == nil {
		out = []models.SubsystemStatus{}
	}
	return out
}

// providerImpact weighs a provider on the overall status. Only an open
// forecast breaker fails it.
func providerImpact(ph resilience.Health) models.HealthStatus {
	switch {
	case ph.Critical():
		return models.HealthStatusFail
	case ph.Open(), ph.Recovering():
		return models.HealthStatusDegraded
	default:
		return models.HealthStatusOK
	}
}

func (h *OpsHandler) degradationFlags(ctx context.Context) []string {
	return h.cfg.FeatureFlags.Active(ctx)
}

func providerStatus(ph resilience.Health) models.ProviderStatus {
	ps := models.ProviderStatus{
		Provider:     ph.Name,
		Role:         ph.Role.String(),
		Status:       models.HealthStatusOK,
		CircuitState: ph.CircuitState.String(),
		Requests:     ph.Counts.Requests,
		Failures:     ph.Counts.TotalFailures,
	}
	switch ph.CircuitState {
	case gobreaker.StateOpen:
		ps.Status = models.HealthStatusFail
	case gobreaker.StateHalfOpen:
		ps.Status = models.HealthStatusDegraded
	}
	if ph.LastSuccessAt != nil {
		t := models.Timestamp(*ph.LastSuccessAt)
		ps.LastSuccessAt = &t
	}
	if ph.LastFailureAt != nil {
		t := models.Timestamp(*ph.LastFailureAt)
		ps.LastFailureAt = &t
	}
	if ph.LastError != "" {
		msg := ph.LastError
		ps.Message = &msg
	}
	return ps
}

var severity = map[models.HealthStatus]int{
	models.HealthStatusOK:       0,
	models.HealthStatusDegraded: 1,
	models.HealthStatusFail:     2,
}

func worse(a, b models.HealthStatus) models.HealthStatus {
	if severity[b] > severity[a] {
		return b
	}
	return a
}
