package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	token, err := BuildSessionToken("secret")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	assert.NoError(t, ValidateSessionToken(token, "secret"))
}

func TestSessionTokenWrongSecret(t *testing.T) {
	token, err := BuildSessionToken("secret")
	require.NoError(t, err)

	assert.Error(t, ValidateSessionToken(token, "other-secret"))
}

func TestSessionTokenGarbage(t *testing.T) {
	assert.Error(t, ValidateSessionToken("not-a-token", "secret"))
}
