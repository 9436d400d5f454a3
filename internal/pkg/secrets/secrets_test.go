package secrets

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewResetToken(t *testing.T) {
	plain, hash, err := NewResetToken()
	require.NoError(t, err)
	require.Len(t, plain, 64)
	require.Equal(t, Hash(plain), hash)
	require.NotEqual(t, plain, hash)

	plain2, _, err := NewResetToken()
	require.NoError(t, err)
	require.NotEqual(t, plain, plain2)
}

func TestNewVerificationCodeRange(t *testing.T) {
	for i := 0; i < 100; i++ {
		plain, hash, err := NewVerificationCode()
		require.NoError(t, err)
		require.Len(t, plain, 6)
		n, err := strconv.Atoi(plain)
		require.NoError(t, err)
		require.GreaterOrEqual(t, n, 100000)
		require.LessOrEqual(t, n, 999999)
		require.Equal(t, Hash(plain), hash)
	}
}

func TestHashDeterministic(t *testing.T) {
	require.Equal(t, Hash("123456"), Hash("123456"))
	require.NotEqual(t, Hash("123456"), Hash("123457"))
}
