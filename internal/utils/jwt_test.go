package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignAndParseJWT(t *testing.T) {
	token, err := SignJWT("secret", "user-1", "CLIENT", 60)
	require.NoError(t, err)

	claims, err := ParseJWT("secret", token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, "CLIENT", claims.Role)

	_, err = ParseJWT("other-secret", token)
	require.Error(t, err)

	_, err = ParseJWT("secret", "not-a-token")
	require.Error(t, err)
}

func TestExpiredToken(t *testing.T) {
	token, err := SignJWT("secret", "user-1", "CLIENT", -1)
	require.NoError(t, err)

	_, err = ParseJWT("secret", token)
	require.Error(t, err)
}
