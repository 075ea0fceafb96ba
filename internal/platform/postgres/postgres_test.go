package postgres

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/crowdlab/crowdlab/internal/store"
)

func TestListClause(t *testing.T) {
	t.Parallel()

	t.Run("bare query gets default limit", func(t *testing.T) {
		clause, args := listClause(store.ListQuery{}, 0)
		assert.Equal(t, " ORDER BY id LIMIT $1", clause)
		assert.Equal(t, []any{store.DefaultLimit}, args)
	})

	t.Run("attribute filter", func(t *testing.T) {
		clause, args := listClause(store.ListQuery{
			Filters: map[string]any{"project_id": 7},
			Limit:   10,
		}, 0)
		assert.Equal(t, " WHERE project_id = $1 ORDER BY id LIMIT $2", clause)
		assert.Equal(t, []any{7, 10}, args)
	})

	t.Run("keyset wins over offset", func(t *testing.T) {
		clause, args := listClause(store.ListQuery{LastID: 42, Offset: 5, Limit: 10}, 0)
		assert.Equal(t, " WHERE id > $1 ORDER BY id LIMIT $2", clause)
		assert.Equal(t, []any{42, 10}, args)
	})

	t.Run("offset without keyset", func(t *testing.T) {
		clause, args := listClause(store.ListQuery{Offset: 5, Limit: 10}, 0)
		assert.Equal(t, " ORDER BY id LIMIT $1 OFFSET $2", clause)
		assert.Equal(t, []any{10, 5}, args)
	})

	t.Run("argument numbering continues after prior placeholders", func(t *testing.T) {
		clause, _ := listClause(store.ListQuery{LastID: 3, Limit: 10}, 2)
		assert.Equal(t, " WHERE id > $3 ORDER BY id LIMIT $4", clause)
	})
}

func TestTranslateError(t *testing.T) {
	t.Parallel()

	unique := &pgconn.PgError{Code: pgUniqueViolationCode, ConstraintName: "users_name_key"}
	assert.ErrorIs(t, translateError(unique), store.ErrConflict)

	fk := &pgconn.PgError{Code: pgForeignKeyViolationCode, ConstraintName: "tasks_project_id_fkey"}
	assert.ErrorIs(t, translateError(fk), store.ErrInvalidEntity)

	other := fmt.Errorf("connection reset")
	assert.Equal(t, other, translateError(other))
}
