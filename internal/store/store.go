package store

import (
	"context"
	"database/sql"
)

// DBTX abstracts over *sql.DB and *sql.Tx so stores can run inside or
// outside an explicit transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ListQuery carries the pagination and filtering parameters of a
// collection read. Filters map column names to required values; keys are
// validated against the entity's declared fields before a query is built,
// so stores may trust them. LastID takes precedence over Offset: results
// are the rows with id strictly greater than LastID, ordered by id.
type ListQuery struct {
	Limit   int
	Offset  int
	LastID  int
	Filters map[string]any
}

// DefaultLimit and MaxLimit bound collection reads.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Normalize clamps the limit into [1, MaxLimit], applying DefaultLimit
// when unset.
func (q ListQuery) Normalize() ListQuery {
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return q
}
