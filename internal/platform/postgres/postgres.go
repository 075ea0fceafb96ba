// Package postgres implements the store interfaces on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/crowdlab/crowdlab/internal/store"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // register the pgx database/sql driver
)

// PostgreSQL error codes
const (
	pgUniqueViolationCode     = "23505"
	pgForeignKeyViolationCode = "23503"
)

// Open connects to the database and verifies the connection with a ping.
func Open(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// translateError maps PostgreSQL integrity violations onto the store's
// sentinel errors so callers never see driver-specific types.
func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolationCode:
			return fmt.Errorf("%w: %s", store.ErrConflict, pgErr.ConstraintName)
		case pgForeignKeyViolationCode:
			return fmt.Errorf("%w: %s", store.ErrInvalidEntity, pgErr.ConstraintName)
		}
	}
	return err
}

// listClause renders the WHERE/ORDER BY/LIMIT tail of a collection read.
// Filter keys are validated against the entity's declared fields before
// they reach the store, so they can be interpolated as column names.
// Keyset pagination (LastID) wins over the deprecated offset.
func listClause(q store.ListQuery, argOffset int) (string, []any) {
	q = q.Normalize()

	var where []string
	var args []any
	n := argOffset

	for col, val := range q.Filters {
		n++
		where = append(where, fmt.Sprintf("%s = $%d", col, n))
		args = append(args, val)
	}
	if q.LastID > 0 {
		n++
		where = append(where, fmt.Sprintf("id > $%d", n))
		args = append(args, q.LastID)
	}

	var b strings.Builder
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY id")
	n++
	fmt.Fprintf(&b, " LIMIT $%d", n)
	args = append(args, q.Limit)
	if q.LastID == 0 && q.Offset > 0 {
		n++
		fmt.Fprintf(&b, " OFFSET $%d", n)
		args = append(args, q.Offset)
	}
	return b.String(), args
}
