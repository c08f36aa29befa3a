package dashboard

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/weatherdash/weatherdash/internal/chart"
	"github.com/weatherdash/weatherdash/internal/dayslice"
)

// ErrNotMounted is returned by a Renderer whose drawing surface is gone.
var ErrNotMounted = errors.New("renderer not mounted")

// ChartHandle is a live chart instance.
type ChartHandle interface {
	Destroy()
}

// Renderer draws chart specs onto a surface.
type Renderer interface {
	// Mounted is closed once the surface can accept charts.
	Mounted() <-chan struct{}

	// Render creates a chart for tab.
	Render(ctx context.Context, tab dayslice.Tab, spec chart.Spec) (ChartHandle, error)
}

// SpecSource builds the chart spec for a tab from the current state. ok is
// false when there is nothing to draw.
type SpecSource func(tab dayslice.Tab) (spec chart.Spec, ok bool)

// Lifecycle owns the live chart handles. Every Schedule supersedes the
// previous pending build.
type Lifecycle struct {
	renderer Renderer
	source   SpecSource
	logger   zerolog.Logger

	mu      sync.Mutex
	handles map[dayslice.Tab]ChartHandle
	gen     uint64
	cancel  context.CancelFunc
	closed  bool
	wg      sync.WaitGroup
}

// NewLifecycle creates a lifecycle drawing through renderer. A nil renderer
// makes every schedule a no-op.
func NewLifecycle(renderer Renderer, source SpecSource, logger zerolog.Logger) *Lifecycle {
	return &Lifecycle{
		renderer: renderer,
		source:   source,
		logger:   logger,
		handles:  make(map[dayslice.Tab]ChartHandle),
	}
}

// Schedule queues a rebuild of tab's chart once the renderer is mounted.
func (l *Lifecycle) Schedule(tab dayslice.Tab) {
	if l.renderer == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.scheduleLocked(tab)
}

// Switch destroys every live chart and queues tab's chart. A build already
// running for another tab is superseded before it can install a handle.
func (l *Lifecycle) Switch(tab dayslice.Tab) {
	if l.renderer == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.supersedeLocked()
	l.destroyAllLocked()
	l.scheduleLocked(tab)
}

// supersedeLocked cancels the pending build and invalidates its generation.
func (l *Lifecycle) supersedeLocked() {
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.gen++
}

func (l *Lifecycle) scheduleLocked(tab dayslice.Tab) {
	if l.closed {
		return
	}
	l.supersedeLocked()
	gen := l.gen
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer cancel()
		l.build(ctx, gen, tab)
	}()
}

func (l *Lifecycle) build(ctx context.Context, gen uint64, tab dayslice.Tab) {
	select {
	case <-l.renderer.Mounted():
	case <-ctx.Done():
		return
	}

	spec, ok := l.source(tab)
	if !ok {
		l.logger.Debug().Str("tab", string(tab)).Msg("no chart data")
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.gen || ctx.Err() != nil {
		return
	}

	// Only the active tab has a live chart.
	l.destroyAllLocked()

	h, err := l.renderer.Render(ctx, tab, spec)
	if err != nil {
		if errors.Is(err, ErrNotMounted) {
			l.logger.Debug().Str("tab", string(tab)).Msg("renderer not mounted, skipping chart")
			return
		}
		l.logger.Warn().Err(err).Str("tab", string(tab)).Msg("failed to render chart")
		return
	}
	l.handles[tab] = h
}

// DestroyAll disposes every live handle and supersedes any pending build.
func (l *Lifecycle) DestroyAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.supersedeLocked()
	l.destroyAllLocked()
}

func (l *Lifecycle) destroyAllLocked() {
	for tab, h := range l.handles {
		h.Destroy()
		delete(l.handles, tab)
	}
}

// Live reports whether tab has a live chart.
func (l *Lifecycle) Live(tab dayslice.Tab) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.handles[tab]
	return ok
}

// LiveCount returns the number of live charts.
func (l *Lifecycle) LiveCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.handles)
}

// Close cancels any pending build, waits for it to exit and destroys every
// handle.
func (l *Lifecycle) Close() {
	l.mu.Lock()
	l.closed = true
	l.supersedeLocked()
	l.mu.Unlock()

	l.wg.Wait()

	l.DestroyAll()
}
