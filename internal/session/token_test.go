package session

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	userId := uuid.New()

	token, err := NewToken(userId, "secret-key")
	require.NoError(t, err)

	parsed, err := VerifyToken(token, "secret-key")
	require.NoError(t, err)
	assert.Equal(t, userId, parsed)
}

func TestVerifyTokenRejectsWrongKey(t *testing.T) {
	token, err := NewToken(uuid.New(), "secret-key")
	require.NoError(t, err)

	_, err = VerifyToken(token, "other-key")
	assert.Error(t, err)
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
	_, err := VerifyToken("not-a-token", "secret-key")
	assert.Error(t, err)
}
