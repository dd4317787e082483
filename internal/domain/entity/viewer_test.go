package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewViewer(t *testing.T) {
	v := NewViewer(1, 10)
	require.Equal(t, int64(1), v.UserID)
	require.Equal(t, int64(10), v.ChatID)
	require.False(t, v.JoinedAt.IsZero())
}
