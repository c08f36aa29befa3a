package featureflags_test

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/weatherdash/weatherdash/internal/featureflags"
)

// flakyRepository wraps the in-memory repository and can fail List.
type flakyRepository struct {
	*featureflags.InMemoryRepository

	mu    sync.Mutex
	fail  bool
	lists int
}

func (r *flakyRepository) List(ctx context.Context) (map[string]*featureflags.Flag, error) {
	r.mu.Lock()
	r.lists++
	fail := r.fail
	r.mu.Unlock()
	if fail {
		return nil, errors.New("connection refused")
	}
	return r.InMemoryRepository.List(ctx)
}

func (r *flakyRepository) setFail(fail bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail = fail
}

func (r *flakyRepository) listCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lists
}

// clock is a settable test clock.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newService(repo featureflags.Repository, clk *clock) *featureflags.Service {
	return featureflags.NewService(featureflags.ServiceConfig{
		Repository: repo,
		Logger:     zerolog.Nop(),
		CacheTTL:   time.Minute,
		Now:        clk.Now,
	})
}

func TestService_DefaultsAreOff(t *testing.T) {
	svc := newService(featureflags.NewInMemoryRepositoryWithFlags(nil), &clock{})
	ctx := context.Background()

	for _, key := range featureflags.Keys() {
		if svc.IsEnabled(ctx, key) {
			t.Errorf("%s: expected off by default", key)
		}
		flag := svc.GetFlag(ctx, key)
		if flag == nil || flag.Key != key {
			t.Fatalf("%s: expected default flag, got %+v", key, flag)
		}
		if flag.Description == "" {
			t.Errorf("%s: expected a description", key)
		}
	}
	if svc.GetFlag(ctx, "dark_mode") != nil {
		t.Error("expected nil for a key the dashboard does not read")
	}
}

func TestService_SetFlagsStoresReason(t *testing.T) {
	clk := &clock{now: time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)}
	repo := featureflags.NewInMemoryRepository()
	svc := newService(repo, clk)
	ctx := context.Background()

	err := svc.SetFlags(ctx, []*featureflags.Flag{
		{Key: featureflags.FlagDisablePollen, Value: true, Reason: "provider outage"},
		{Key: featureflags.FlagDisableAutoRefresh, Value: true, Reason: "provider outage"},
	})
	if err != nil {
		t.Fatalf("SetFlags: %v", err)
	}

	if !svc.IsPollenDisabled(ctx) || !svc.IsAutoRefreshDisabled(ctx) {
		t.Error("expected pollen and auto refresh to be disabled")
	}
	if svc.IsAirQualityDisabled(ctx) {
		t.Error("air quality must stay enabled")
	}

	stored, err := repo.Get(ctx, featureflags.FlagDisablePollen)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Reason != "provider outage" {
		t.Errorf("reason = %q, want %q", stored.Reason, "provider outage")
	}
	if !stored.UpdatedAt.Equal(clk.Now()) {
		t.Errorf("updatedAt = %v, want %v", stored.UpdatedAt, clk.Now())
	}
}

func TestService_SetFlagsRejectsUnknownKeys(t *testing.T) {
	repo := featureflags.NewInMemoryRepository()
	svc := newService(repo, &clock{})
	ctx := context.Background()

	err := svc.SetFlags(ctx, []*featureflags.Flag{
		{Key: featureflags.FlagDisablePollen, Value: true},
		{Key: "dark_mode", Value: true},
	})
	if !errors.Is(err, featureflags.ErrUnknownFlag) {
		t.Fatalf("expected ErrUnknownFlag, got %v", err)
	}
	if svc.IsPollenDisabled(ctx) {
		t.Error("a rejected write must not store any flag")
	}
}

func TestService_SnapshotReloadsAfterTTL(t *testing.T) {
	clk := &clock{now: time.Unix(0, 0)}
	repo := &flakyRepository{InMemoryRepository: featureflags.NewInMemoryRepository()}
	svc := newService(repo, clk)
	ctx := context.Background()

	svc.IsEnabled(ctx, featureflags.FlagDisablePollen)
	svc.IsEnabled(ctx, featureflags.FlagDisableAirQuality)
	if got := repo.listCount(); got != 1 {
		t.Fatalf("expected one load for two reads, got %d", got)
	}

	// A write by another process is not seen until the snapshot expires.
	_ = repo.Put(ctx, &featureflags.Flag{Key: featureflags.FlagDisablePollen, Value: true})
	if svc.IsPollenDisabled(ctx) {
		t.Error("expected the cached snapshot before the TTL")
	}

	clk.Advance(time.Minute)
	if !svc.IsPollenDisabled(ctx) {
		t.Error("expected the reloaded snapshot after the TTL")
	}
	if got := repo.listCount(); got != 2 {
		t.Errorf("expected a second load, got %d", got)
	}
}

func TestService_KeepsLastSnapshotWhenRepositoryFails(t *testing.T) {
	clk := &clock{now: time.Unix(0, 0)}
	repo := &flakyRepository{InMemoryRepository: featureflags.NewInMemoryRepository()}
	svc := newService(repo, clk)
	ctx := context.Background()

	if err := svc.SetFlag(ctx, &featureflags.Flag{Key: featureflags.FlagDisableIPFallback, Value: true}); err != nil {
		t.Fatalf("SetFlag: %v", err)
	}
	if !svc.IsIPFallbackDisabled(ctx) {
		t.Fatal("expected the flag to be set")
	}

	repo.setFail(true)
	clk.Advance(2 * time.Minute)
	if !svc.IsIPFallbackDisabled(ctx) {
		t.Error("expected the last known value while the repository is down")
	}
}

func TestService_RepositoryDownBeforeFirstLoad(t *testing.T) {
	repo := &flakyRepository{InMemoryRepository: featureflags.NewInMemoryRepository(), fail: true}
	svc := newService(repo, &clock{})

	if got := svc.Active(context.Background()); len(got) != 0 {
		t.Errorf("expected no active flags, got %v", got)
	}
}

func TestService_InvalidateCache(t *testing.T) {
	repo := &flakyRepository{InMemoryRepository: featureflags.NewInMemoryRepository()}
	svc := newService(repo, &clock{})
	ctx := context.Background()

	svc.IsEnabled(ctx, featureflags.FlagDisablePollen)
	_ = repo.Put(ctx, &featureflags.Flag{Key: featureflags.FlagDisablePollen, Value: true})

	svc.InvalidateCache()
	if !svc.IsPollenDisabled(ctx) {
		t.Error("expected the write to be visible after invalidation")
	}
}

func TestService_FlagsAndActiveInDisplayOrder(t *testing.T) {
	repo := featureflags.NewInMemoryRepositoryWithFlags(map[string]*featureflags.Flag{
		featureflags.FlagDisableIPFallback: {Key: featureflags.FlagDisableIPFallback, Value: true},
		featureflags.FlagDisableAirQuality: {Key: featureflags.FlagDisableAirQuality, Value: true},
		"legacy_flag":                      {Key: "legacy_flag", Value: true},
	})
	svc := newService(repo, &clock{})
	ctx := context.Background()

	var keys []string
	for _, f := range svc.Flags(ctx) {
		keys = append(keys, f.Key)
	}
	if !reflect.DeepEqual(keys, featureflags.Keys()) {
		t.Errorf("Flags keys = %v, want %v", keys, featureflags.Keys())
	}

	want := []string{featureflags.FlagDisableAirQuality, featureflags.FlagDisableIPFallback}
	if got := svc.Active(ctx); !reflect.DeepEqual(got, want) {
		t.Errorf("Active = %v, want %v", got, want)
	}
}

func TestService_NilServiceReportsFlagsOff(t *testing.T) {
	var svc *featureflags.Service
	ctx := context.Background()

	if svc.IsAirQualityDisabled(ctx) || svc.IsPollenDisabled(ctx) ||
		svc.IsAutoRefreshDisabled(ctx) || svc.IsIPFallbackDisabled(ctx) {
		t.Error("nil service must report every flag off")
	}
	if svc.Active(ctx) != nil {
		t.Error("nil service must report no active flags")
	}
}

func TestKnownFlags(t *testing.T) {
	if !featureflags.Known(featureflags.FlagDisablePollen) {
		t.Error("expected disable_pollen to be known")
	}
	if featureflags.Known("dark_mode") {
		t.Error("dark_mode is not a dashboard flag")
	}
	if featureflags.Describe("dark_mode") != "" {
		t.Error("expected no description for an unknown key")
	}
	if got := len(featureflags.DefaultFlags()); got != len(featureflags.Keys()) {
		t.Errorf("DefaultFlags has %d entries, want %d", got, len(featureflags.Keys()))
	}
}

func TestInMemoryRepository_ReturnsCopies(t *testing.T) {
	repo := featureflags.NewInMemoryRepository()
	ctx := context.Background()

	flag, err := repo.Get(ctx, featureflags.FlagDisablePollen)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	flag.Value = true

	again, _ := repo.Get(ctx, featureflags.FlagDisablePollen)
	if again.Value {
		t.Error("mutating a returned flag must not change the store")
	}

	if _, err := repo.Get(ctx, "dark_mode"); !errors.Is(err, featureflags.ErrFlagNotFound) {
		t.Errorf("expected ErrFlagNotFound, got %v", err)
	}
}
