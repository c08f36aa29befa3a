package featureflags

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	createFlagsTable = `
		CREATE TABLE IF NOT EXISTS dashboard_flags (
			key        TEXT PRIMARY KEY,
			enabled    BOOLEAN NOT NULL DEFAULT false,
			reason     TEXT NOT NULL DEFAULT '',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`

	selectFlags = `SELECT key, enabled, reason, updated_at FROM dashboard_flags`

	upsertFlag = `
		INSERT INTO dashboard_flags (key, enabled, reason, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			reason = EXCLUDED.reason,
			updated_at = EXCLUDED.updated_at`
)

// PostgresRepository stores flags in the dashboard_flags table.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a repository over pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureSchema creates the dashboard_flags table if it does not exist.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, createFlagsTable)
	return err
}

// Get returns one flag or ErrFlagNotFound.
func (r *PostgresRepository) Get(ctx context.Context, key string) (*Flag, error) {
	rows, err := r.pool.Query(ctx, selectFlags+` WHERE key = $1`, key)
	if err != nil {
		return nil, err
	}
	flag, err := pgx.CollectExactlyOneRow(rows, scanFlag)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrFlagNotFound
	}
	if err != nil {
		return nil, err
	}
	return flag, nil
}

// List returns every stored flag.
func (r *PostgresRepository) List(ctx context.Context) (map[string]*Flag, error) {
	rows, err := r.pool.Query(ctx, selectFlags)
	if err != nil {
		return nil, err
	}
	flags, err := pgx.CollectRows(rows, scanFlag)
	if err != nil {
		return nil, err
	}

	out := make(map[string]*Flag, len(flags))
	for _, f := range flags {
		out[f.Key] = f
	}
	return out, nil
}

// Put upserts the flags as one batch inside a transaction.
func (r *PostgresRepository) Put(ctx context.Context, flags ...*Flag) error {
	if len(flags) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, f := range flags {
		batch.Queue(upsertFlag, f.Key, f.Value, f.Reason, f.UpdatedAt)
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
}

func scanFlag(row pgx.CollectableRow) (*Flag, error) {
	var f Flag
	if err := row.Scan(&f.Key, &f.Value, &f.Reason, &f.UpdatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

var _ Repository = (*PostgresRepository)(nil)
