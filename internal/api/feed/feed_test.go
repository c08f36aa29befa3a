package feed_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weatherdash/weatherdash/internal/api/feed"
	"github.com/weatherdash/weatherdash/internal/chart"
	"github.com/weatherdash/weatherdash/internal/dashboard"
	"github.com/weatherdash/weatherdash/internal/dayslice"
)

func spec(labels ...string) chart.Spec {
	return chart.Spec{Type: chart.TypeLine, Labels: labels}
}

func receive(t *testing.T, ch <-chan feed.Event) feed.Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return feed.Event{}
	}
}

func TestFeed_RenderBeforeMount(t *testing.T) {
	f := feed.New(zerolog.Nop())

	_, err := f.Render(context.Background(), dayslice.TabOverview, spec("00:00"))
	assert.ErrorIs(t, err, dashboard.ErrNotMounted)
	assert.False(t, f.IsMounted())
	assert.Empty(t, f.Charts())
}

func TestFeed_MountIsIdempotent(t *testing.T) {
	f := feed.New(zerolog.Nop())

	f.Mount()
	f.Mount()

	select {
	case <-f.Mounted():
	default:
		t.Fatal("mounted channel not closed")
	}
	assert.True(t, f.IsMounted())
}

func TestFeed_RenderAndDestroy(t *testing.T) {
	f := feed.New(zerolog.Nop())
	f.Mount()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := f.Subscribe(ctx)

	h, err := f.Render(ctx, dayslice.TabWind, spec("00:00", "01:00"))
	require.NoError(t, err)

	ev := receive(t, events)
	assert.Equal(t, feed.EventChart, ev.Kind)
	assert.Equal(t, dayslice.TabWind, ev.Tab)
	require.NotNil(t, ev.Spec)
	assert.Len(t, ev.Spec.Labels, 2)
	assert.Contains(t, f.Charts(), dayslice.TabWind)

	h.Destroy()
	ev = receive(t, events)
	assert.Equal(t, feed.EventChartDestroyed, ev.Kind)
	assert.Empty(t, f.Charts())

	// A second destroy is a no-op.
	h.Destroy()
	select {
	case ev := <-events:
		t.Fatalf("unexpected event %v", ev.Kind)
	default:
	}
}

func TestFeed_StaleHandleDoesNotRemoveReplacement(t *testing.T) {
	f := feed.New(zerolog.Nop())
	f.Mount()

	old, err := f.Render(context.Background(), dayslice.TabSolar, spec("a"))
	require.NoError(t, err)
	_, err = f.Render(context.Background(), dayslice.TabSolar, spec("b"))
	require.NoError(t, err)

	old.Destroy()

	charts := f.Charts()
	require.Contains(t, charts, dayslice.TabSolar)
	assert.Equal(t, []string{"b"}, charts[dayslice.TabSolar].Labels)
}

func TestFeed_SubscribeClosesOnCancel(t *testing.T) {
	f := feed.New(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	events := f.Subscribe(ctx)

	cancel()

	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-events:
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}
