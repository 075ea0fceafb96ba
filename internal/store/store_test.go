package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListQueryNormalize(t *testing.T) {
	t.Parallel()

	t.Run("zero limit gets the default", func(t *testing.T) {
		q := ListQuery{}.Normalize()
		assert.Equal(t, DefaultLimit, q.Limit)
	})

	t.Run("oversized limit is capped", func(t *testing.T) {
		q := ListQuery{Limit: 500}.Normalize()
		assert.Equal(t, MaxLimit, q.Limit)
	})

	t.Run("negative values are cleared", func(t *testing.T) {
		q := ListQuery{Limit: -1, Offset: -5}.Normalize()
		assert.Equal(t, DefaultLimit, q.Limit)
		assert.Equal(t, 0, q.Offset)
	})

	t.Run("in-range values pass through", func(t *testing.T) {
		q := ListQuery{Limit: 50, Offset: 10, LastID: 7}.Normalize()
		assert.Equal(t, 50, q.Limit)
		assert.Equal(t, 10, q.Offset)
		assert.Equal(t, 7, q.LastID)
	})
}
