package jwt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	tok, err := Issue("test-secret", 42, "Admin", 1)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	claims, err := ParseAuth("Bearer "+tok, "test-secret")
	require.NoError(t, err)
	require.Equal(t, float64(42), claims["sub"])
	require.Equal(t, "Admin", claims["role"])
}

func TestParseBareToken(t *testing.T) {
	tok, err := Issue("test-secret", 7, "User", 1)
	require.NoError(t, err)

	claims, err := ParseAuth(tok, "test-secret")
	require.NoError(t, err)
	require.Equal(t, float64(7), claims["sub"])
}

func TestParseRejectsBadSecret(t *testing.T) {
	tok, err := Issue("secret-a", 1, "User", 1)
	require.NoError(t, err)

	_, err = ParseAuth("Bearer "+tok, "secret-b")
	require.Error(t, err)
}

func TestParseRejectsEmpty(t *testing.T) {
	_, err := ParseAuth("", "secret")
	require.Error(t, err)
	_, err = ParseAuth("Bearer ", "secret")
	require.Error(t, err)
}
