package shared

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewPaginationClamps(t *testing.T) {
	pg := NewPagination(0, 0, 45)
	require.Equal(t, 1, pg.Page)
	require.Equal(t, 20, pg.PerPage)
	require.Equal(t, 3, pg.TotalPages)
	require.Zero(t, pg.Offset())

	pg = NewPagination(3, 500, 0)
	require.Equal(t, 100, pg.PerPage)
	require.Equal(t, 200, pg.Offset())
	require.Zero(t, pg.TotalPages)

	require.Equal(t, 5, NewPagination(2, 10, 0).WithTotal(41).TotalPages)
}
