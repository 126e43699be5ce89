package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPagination(t *testing.T) {
	t.Run("order_by_and_comparator", func(t *testing.T) {
		tests := []struct {
			name       string
			pagination Pagination
			orderBy    string
			comparator string
		}{
			{
				name:       "forward_newest_first",
				pagination: NewNewestFirstPagination(WithFirst(10)),
				orderBy:    "DESC",
				comparator: "<",
			},
			{
				name:       "backward_newest_first",
				pagination: NewNewestFirstPagination(WithLast(10)),
				orderBy:    "ASC",
				comparator: ">",
			},
			{
				name:       "forward_oldest_first",
				pagination: NewOldestFirstPagination(WithFirst(10)),
				orderBy:    "ASC",
				comparator: ">",
			},
			{
				name:       "backward_oldest_first",
				pagination: NewOldestFirstPagination(WithLast(10)),
				orderBy:    "DESC",
				comparator: "<",
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				assert.Equal(t, tt.orderBy, tt.pagination.OrderBy())
				assert.Equal(t, tt.comparator, tt.pagination.Comparator())
			})
		}
	})

	t.Run("limit", func(t *testing.T) {
		p := NewNewestFirstPagination()
		assert.Equal(t, 1, p.Limit())

		p = NewNewestFirstPagination(WithFirst(MaxLimit + 50))
		assert.Equal(t, MaxLimit, p.Limit())

		p = NewNewestFirstPagination(WithLast(7))
		assert.Equal(t, 7, p.Limit())
	})

	t.Run("validate", func(t *testing.T) {
		p := NewNewestFirstPagination(WithFirst(2), WithLast(2))
		assert.ErrorIs(t, p.Validate(), ErrInvalidPagination)

		p = NewNewestFirstPagination(WithFirst(-1))
		assert.ErrorIs(t, p.Validate(), ErrInvalidPagination)

		p = NewNewestFirstPagination(WithFirst(3))
		assert.NoError(t, p.Validate())
	})
}

func TestCursor(t *testing.T) {
	type position struct {
		Order int `json:"order"`
	}

	c, err := ToCursor(position{Order: 42})
	require.NoError(t, err)
	assert.False(t, c.IsEmpty())

	var out position
	require.NoError(t, FromCursor(c, &out))
	assert.Equal(t, 42, out.Order)

	assert.Error(t, FromCursor(Cursor("%%%"), &out))
}

func TestNewConnection(t *testing.T) {
	edges := func(nodes ...string) []Edge[string] {
		out := make([]Edge[string], 0, len(nodes))
		for _, n := range nodes {
			out = append(out, Edge[string]{Node: n, Cursor: Cursor(n)})
		}
		return out
	}

	t.Run("forward_with_more", func(t *testing.T) {
		conn := NewConnection(NewNewestFirstPagination(WithFirst(2)), edges("a", "b", "c"))

		assert.Len(t, conn.Edges, 2)
		assert.True(t, conn.PageInfo.HasNextPage)
		assert.False(t, conn.PageInfo.HasPreviousPage)
		assert.Equal(t, Cursor("a"), conn.PageInfo.StartCursor)
		assert.Equal(t, Cursor("b"), conn.PageInfo.EndCursor)
	})

	t.Run("backward_reverses", func(t *testing.T) {
		conn := NewConnection(NewNewestFirstPagination(WithLast(2)), edges("c", "b", "a"))

		assert.Equal(t, "b", conn.Edges[0].Node)
		assert.Equal(t, "c", conn.Edges[1].Node)
		assert.True(t, conn.PageInfo.HasPreviousPage)
		assert.False(t, conn.PageInfo.HasNextPage)
	})

	t.Run("empty", func(t *testing.T) {
		conn := NewConnection(NewNewestFirstPagination(WithFirst(2)), edges())

		assert.Empty(t, conn.Edges)
		assert.True(t, conn.PageInfo.StartCursor.IsEmpty())
	})
}
