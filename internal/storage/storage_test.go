package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weatherdash/weatherdash/internal/storage"
)

type clockedStore interface {
	storage.Store
	SetClock(func() time.Time)
}

func stores(t *testing.T) map[string]clockedStore {
	t.Helper()

	sqlite, err := storage.NewSQLiteStore(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return map[string]clockedStore{
		"memory": storage.NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func TestStore_SetGetDelete(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := s.Get(ctx, "weatherAppUnits")
			assert.ErrorIs(t, err, storage.ErrNotFound)

			require.NoError(t, s.Set(ctx, "weatherAppUnits", []byte(`"imperial"`), 0))
			got, err := s.Get(ctx, "weatherAppUnits")
			require.NoError(t, err)
			assert.Equal(t, `"imperial"`, string(got))

			require.NoError(t, s.Set(ctx, "weatherAppUnits", []byte(`"metric"`), 0))
			got, err = s.Get(ctx, "weatherAppUnits")
			require.NoError(t, err)
			assert.Equal(t, `"metric"`, string(got))

			require.NoError(t, s.Delete(ctx, "weatherAppUnits"))
			_, err = s.Get(ctx, "weatherAppUnits")
			assert.ErrorIs(t, err, storage.ErrNotFound)

			assert.NoError(t, s.Delete(ctx, "missing"))
		})
	}
}

func TestStore_Expiry(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
			s.SetClock(func() time.Time { return now })

			require.NoError(t, s.Set(ctx, "weatherAppHistory", []byte(`[]`), time.Hour))
			require.NoError(t, s.Set(ctx, "weatherAppHasVisited", []byte(`true`), 0))

			now = now.Add(59 * time.Minute)
			_, err := s.Get(ctx, "weatherAppHistory")
			assert.NoError(t, err)

			now = now.Add(time.Minute)
			_, err = s.Get(ctx, "weatherAppHistory")
			assert.ErrorIs(t, err, storage.ErrNotFound)

			now = now.Add(365 * 24 * time.Hour)
			_, err = s.Get(ctx, "weatherAppHasVisited")
			assert.NoError(t, err, "zero ttl never expires")
		})
	}
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	s := storage.NewMemoryStore()
	ctx := context.Background()

	value := []byte("abc")
	require.NoError(t, s.Set(ctx, "k", value, 0))
	value[0] = 'x'

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := storage.Open(ctx, storage.Config{Logger: zerolog.Nop()})
	require.NoError(t, err)
	assert.IsType(t, &storage.MemoryStore{}, s)

	s, err = storage.Open(ctx, storage.Config{Backend: storage.BackendSQLite, SQLitePath: ":memory:"})
	require.NoError(t, err)
	assert.IsType(t, &storage.SQLiteStore{}, s)
	s.(*storage.SQLiteStore).Close()

	_, err = storage.Open(ctx, storage.Config{Backend: storage.BackendPostgres})
	assert.Error(t, err)

	_, err = storage.Open(ctx, storage.Config{Backend: "redis"})
	assert.ErrorIs(t, err, storage.ErrUnknownBackend)
}
