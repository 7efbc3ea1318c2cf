package flags

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is a PostgreSQL implementation of the Store interface.
//
// Expected schema:
//
//	CREATE TABLE flags (
//	    name        TEXT PRIMARY KEY,
//	    description TEXT NOT NULL DEFAULT '',
//	    enabled     BOOLEAN NOT NULL DEFAULT FALSE,
//	    rollout     INTEGER NOT NULL DEFAULT 100,
//	    audience    TEXT,
//	    env         TEXT NOT NULL,
//	    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed flag store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const flagColumns = `name, description, enabled, rollout, audience, env, updated_at`

// Get retrieves a flag by name.
func (p *PostgresStore) Get(ctx context.Context, name string) (*Flag, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+flagColumns+` FROM flags WHERE name = $1`, name)
	flag, err := scanFlag(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get flag: %w", err)
	}
	return flag, nil
}

// List retrieves all flags for the given environment.
func (p *PostgresStore) List(ctx context.Context, env string) ([]Flag, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+flagColumns+` FROM flags WHERE env = $1 ORDER BY name`, env)
	if err != nil {
		return nil, fmt.Errorf("list flags: %w", err)
	}
	defer rows.Close()

	var result []Flag
	for rows.Next() {
		flag, err := scanFlag(rows)
		if err != nil {
			return nil, fmt.Errorf("scan flag: %w", err)
		}
		result = append(result, *flag)
	}
	return result, rows.Err()
}

// Upsert creates or updates a flag.
func (p *PostgresStore) Upsert(ctx context.Context, params UpsertParams) error {
	if err := ValidateRollout(params.Rollout); err != nil {
		return err
	}

	_, err := p.pool.Exec(ctx, `
		INSERT INTO flags (name, description, enabled, rollout, audience, env, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (name) DO UPDATE SET
			description = EXCLUDED.description,
			enabled = EXCLUDED.enabled,
			rollout = EXCLUDED.rollout,
			audience = EXCLUDED.audience,
			env = EXCLUDED.env,
			updated_at = now()`,
		params.Name, params.Description, params.Enabled, params.Rollout, params.Audience, params.Env)
	if err != nil {
		return fmt.Errorf("upsert flag: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}

func scanFlag(row pgx.Row) (*Flag, error) {
	var (
		f         Flag
		audience  pgtype.Text
		updatedAt pgtype.Timestamptz
	)
	if err := row.Scan(&f.Name, &f.Description, &f.Enabled, &f.Rollout, &audience, &f.Env, &updatedAt); err != nil {
		return nil, err
	}
	if audience.Valid {
		f.Audience = &audience.String
	}
	f.UpdatedAt = updatedAt.Time
	return &f, nil
}
