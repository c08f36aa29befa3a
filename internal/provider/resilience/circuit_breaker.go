// Package resilience wraps upstream HTTP calls with per-provider circuit
// breakers, retries and rate limits, and tracks provider health for the
// status endpoint.
package resilience

import (
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Role says what the dashboard loses when a provider is down.
type Role int

const (
	// RolePrimary is the forecast provider. Without it no record is built.
	RolePrimary Role = iota

	// RoleSupplement providers feed an optional group (air quality, pollen).
	RoleSupplement

	// RoleLocator providers resolve place names and approximate positions.
	RoleLocator
)

func (r Role) String() string {
	switch r {
	case RolePrimary:
		return "primary"
	case RoleSupplement:
		return "supplement"
	case RoleLocator:
		return "locator"
	default:
		return "unknown"
	}
}

// BreakerConfig holds the circuit breaker settings for one provider.
type BreakerConfig struct {
	// Name is the provider name the breaker reports under.
	Name string

	// MaxRequests is the number of trial calls allowed while half-open.
	MaxRequests uint32

	// Timeout is how long the breaker stays open before trying again.
	Timeout time.Duration

	// ReadyToTrip decides when a closed breaker opens.
	ReadyToTrip func(counts gobreaker.Counts) bool

	// OnStateChange is called on every transition (optional).
	OnStateChange func(name string, from gobreaker.State, to gobreaker.State)
}

// BreakerConfigFor returns the breaker settings for a provider role.
//
// The forecast opens once half of at least five calls have failed and retries
// after 30s. Supplements open after three straight failures and stay open for
// two minutes. Locators open after five straight failures.
func BreakerConfigFor(name string, role Role) BreakerConfig {
	switch role {
	case RoleSupplement:
		return BreakerConfig{
			Name:        name,
			MaxRequests: 1,
			Timeout:     2 * time.Minute,
			ReadyToTrip: TripAfterConsecutive(3),
		}
	case RoleLocator:
		return BreakerConfig{
			Name:        name,
			MaxRequests: 1,
			Timeout:     time.Minute,
			ReadyToTrip: TripAfterConsecutive(5),
		}
	default:
		return BreakerConfig{
			Name:        name,
			MaxRequests: 2,
			Timeout:     30 * time.Second,
			ReadyToTrip: TripOnFailureRatio(5, 0.5),
		}
	}
}

// TripOnFailureRatio opens the breaker once at least minRequests calls were
// made and the failed share reaches ratio.
func TripOnFailureRatio(minRequests uint32, ratio float64) func(gobreaker.Counts) bool {
	return func(c gobreaker.Counts) bool {
		if c.Requests < minRequests {
			return false
		}
		return float64(c.TotalFailures)/float64(c.Requests) >= ratio
	}
}

// TripAfterConsecutive opens the breaker after n failures in a row.
func TripAfterConsecutive(n uint32) func(gobreaker.Counts) bool {
	return func(c gobreaker.Counts) bool {
		return c.ConsecutiveFailures >= n
	}
}

func newBreaker(cfg BreakerConfig) *gobreaker.CircuitBreaker[*http.Response] {
	return gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:          cfg.Name,
		MaxRequests:   cfg.MaxRequests,
		Timeout:       cfg.Timeout,
		ReadyToTrip:   cfg.ReadyToTrip,
		OnStateChange: cfg.OnStateChange,
	})
}
