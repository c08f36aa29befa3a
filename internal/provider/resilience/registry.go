package resilience

import (
	"sort"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Health is a point-in-time view of one upstream provider.
type Health struct {
	Name         string
	Role         Role
	CircuitState gobreaker.State
	Counts       gobreaker.Counts

	// LastSuccessAt and LastFailureAt are nil until the first call of each kind.
	LastSuccessAt *time.Time
	LastFailureAt *time.Time
	LastError     string
}

// Open reports whether calls to the provider are being refused.
func (h Health) Open() bool {
	return h.CircuitState == gobreaker.StateOpen
}

// Recovering reports whether the breaker is letting trial calls through.
func (h Health) Recovering() bool {
	return h.CircuitState == gobreaker.StateHalfOpen
}

// Critical reports whether the dashboard cannot build a record while this
// provider is down.
func (h Health) Critical() bool {
	return h.Role == RolePrimary && h.Open()
}

// Registry tracks the health of the upstream providers by name.
type Registry struct {
	mu      sync.RWMutex
	now     func() time.Time
	entries map[string]*registryEntry
}

type registryEntry struct {
	client        *Client
	lastSuccessAt *time.Time
	lastFailureAt *time.Time
	lastError     string
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		now:     time.Now,
		entries: make(map[string]*registryEntry),
	}
}

// Register tracks a client under its provider name. Registering the same name
// again replaces the client and clears its history.
func (r *Registry) Register(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[c.Name()] = &registryEntry{client: c}
}

// RecordSuccess stamps a successful call. Unknown names are ignored.
func (r *Registry) RecordSuccess(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[name]; ok {
		now := r.now()
		e.lastSuccessAt = &now
	}
}

// RecordFailure stamps a failed call and keeps its message.
func (r *Registry) RecordFailure(name string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[name]; ok {
		now := r.now()
		e.lastFailureAt = &now
		if err != nil {
			e.lastError = err.Error()
		}
	}
}

// Health returns the health of one provider.
func (r *Registry) Health(name string) (Health, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return Health{}, false
	}
	return e.health(name), true
}

// Snapshot returns every provider, the forecast first and the rest by role
// then name.
func (r *Registry) Snapshot() []Health {
	r.mu.RLock()
	out := make([]Health, 0, len(r.entries))
	for name, e := range r.entries {
		out = append(out, e.health(name))
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Role != out[j].Role {
			return out[i].Role < out[j].Role
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (e *registryEntry) health(name string) Health {
	return Health{
		Name:          name,
		Role:          e.client.Role(),
		CircuitState:  e.client.CircuitBreakerState(),
		Counts:        e.client.CircuitBreakerCounts(),
		LastSuccessAt: e.lastSuccessAt,
		LastFailureAt: e.lastFailureAt,
		LastError:     e.lastError,
	}
}
