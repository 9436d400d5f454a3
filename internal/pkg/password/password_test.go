package password

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndCompare(t *testing.T) {
	hash, err := Hash("password123")
	require.NoError(t, err)
	require.NotEqual(t, "password123", hash)
	require.NoError(t, Compare(hash, "password123"))
	require.Error(t, Compare(hash, "password124"))
	require.Error(t, Compare(hash, ""))
}

func TestHashIsSalted(t *testing.T) {
	h1, err := Hash("password123")
	require.NoError(t, err)
	h2, err := Hash("password123")
	require.NoError(t, err)
	require.NotEqual(t, h1, h2)
}
