package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse(t *testing.T) {
	secret := []byte("test-secret")
	token, err := GenerateToken("user-1", secret, time.Minute)
	require.NoError(t, err)

	userID, err := ParseToken(token, secret)
	require.NoError(t, err)
	require.Equal(t, "user-1", userID)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken("user-1", []byte("secret-a"), time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token, []byte("secret-b"))
	require.Error(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	token, err := GenerateToken("user-1", []byte("test-secret"), -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token, []byte("test-secret"))
	require.Error(t, err)
}

func TestParseRejectsMalformed(t *testing.T) {
	_, err := ParseToken("not-a-token", []byte("test-secret"))
	require.Error(t, err)
}
