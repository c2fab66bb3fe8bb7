package snowflake_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"touchline/backend/internal/snowflake"
)

func TestNextID_Unique(t *testing.T) {
	seen := make(map[int64]struct{})
	for i := 0; i < 1000; i++ {
		id := snowflake.NextID()
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %d", id)
		seen[id] = struct{}{}
	}
}

func TestInit_RejectsOutOfRangeNode(t *testing.T) {
	require.Error(t, snowflake.Init(4096))
	require.NoError(t, snowflake.Init(7))
}
