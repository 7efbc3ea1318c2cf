package enrollment

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/openlearnhq/experiments/internal/coursekey"
)

// PostgresStore is a PostgreSQL implementation of the Store interface.
//
// Expected schema:
//
//	CREATE TABLE enrollments (
//	    username         TEXT NOT NULL,
//	    course_key       TEXT NOT NULL,
//	    mode             TEXT NOT NULL,
//	    active           BOOLEAN NOT NULL DEFAULT TRUE,
//	    created          TIMESTAMPTZ NOT NULL DEFAULT now(),
//	    upgrade_deadline TIMESTAMPTZ,
//	    course_price     NUMERIC(12,2) NOT NULL DEFAULT 0,
//	    PRIMARY KEY (username, course_key)
//	);
//
//	CREATE TABLE forum_roles (
//	    username   TEXT NOT NULL,
//	    course_key TEXT NOT NULL,
//	    role       TEXT NOT NULL,
//	    PRIMARY KEY (username, course_key, role)
//	);
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const enrollmentColumns = `username, course_key, mode, active, created, upgrade_deadline, course_price`

// Get retrieves a user's enrollment in a course.
func (p *PostgresStore) Get(ctx context.Context, username string, key coursekey.CourseKey) (*Enrollment, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT `+enrollmentColumns+` FROM enrollments WHERE username = $1 AND course_key = $2`,
		username, key.String())

	e, err := scanEnrollment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get enrollment: %w", err)
	}
	return e, nil
}

// ListForUser retrieves all of a user's enrollments.
func (p *PostgresStore) ListForUser(ctx context.Context, username string) ([]Enrollment, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+enrollmentColumns+` FROM enrollments WHERE username = $1 ORDER BY created`,
		username)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	defer rows.Close()

	var result []Enrollment
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan enrollment: %w", err)
		}
		result = append(result, *e)
	}
	return result, rows.Err()
}

// Upsert creates or updates an enrollment.
func (p *PostgresStore) Upsert(ctx context.Context, e Enrollment) error {
	var deadline pgtype.Timestamptz
	if e.UpgradeDeadline != nil {
		deadline = pgtype.Timestamptz{Time: *e.UpgradeDeadline, Valid: true}
	}

	_, err := p.pool.Exec(ctx, `
		INSERT INTO enrollments (username, course_key, mode, active, created, upgrade_deadline, course_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (username, course_key) DO UPDATE SET
			mode = EXCLUDED.mode,
			active = EXCLUDED.active,
			upgrade_deadline = EXCLUDED.upgrade_deadline,
			course_price = EXCLUDED.course_price`,
		e.Username, e.CourseKey.String(), string(e.Mode), e.Active, e.Created, deadline, e.CoursePrice.String())
	if err != nil {
		return fmt.Errorf("upsert enrollment: %w", err)
	}
	return nil
}

// ForumRoles returns the user's distinct forum role names in the course.
func (p *PostgresStore) ForumRoles(ctx context.Context, username string, key coursekey.CourseKey) ([]string, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT DISTINCT role FROM forum_roles WHERE username = $1 AND course_key = $2 ORDER BY role`,
		username, key.String())
	if err != nil {
		return nil, fmt.Errorf("list forum roles: %w", err)
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, fmt.Errorf("scan forum role: %w", err)
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// Close closes the underlying connection pool.
func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}

func scanEnrollment(row pgx.Row) (*Enrollment, error) {
	var (
		e        Enrollment
		rawKey   string
		mode     string
		deadline pgtype.Timestamptz
		price    pgtype.Numeric
	)
	if err := row.Scan(&e.Username, &rawKey, &mode, &e.Active, &e.Created, &deadline, &price); err != nil {
		return nil, err
	}

	key, err := coursekey.Parse(rawKey)
	if err != nil {
		return nil, err
	}
	e.CourseKey = key
	e.Mode = Mode(mode)
	if deadline.Valid {
		t := deadline.Time
		e.UpgradeDeadline = &t
	}
	if price.Valid {
		e.CoursePrice = decimal.NewFromBigInt(price.Int, price.Exp)
	}
	return &e, nil
}
