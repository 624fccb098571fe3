package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	m := NewJWTManager("test-secret", "odyscribe")

	token, err := m.GenerateToken("user-1", "hero@example.com", time.Hour)
	require.NoError(t, err)

	claims, err := m.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
	assert.Equal(t, "hero@example.com", claims.Email)
}

func TestJWTRejects(t *testing.T) {
	m := NewJWTManager("test-secret", "odyscribe")

	expired, err := m.GenerateToken("user-1", "", -time.Minute)
	require.NoError(t, err)
	_, err = m.ParseToken(expired)
	assert.ErrorIs(t, err, ErrExpiredToken)

	other, err := NewJWTManager("other-secret", "odyscribe").GenerateToken("user-1", "", time.Hour)
	require.NoError(t, err)
	_, err = m.ParseToken(other)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIssuer, err := NewJWTManager("test-secret", "someone-else").GenerateToken("user-1", "", time.Hour)
	require.NoError(t, err)
	_, err = m.ParseToken(wrongIssuer)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noSubject, err := m.GenerateToken("", "", time.Hour)
	require.NoError(t, err)
	_, err = m.ParseToken(noSubject)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.ParseToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
