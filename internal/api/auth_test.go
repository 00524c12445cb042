package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokens_RoundTrip(t *testing.T) {
	t.Parallel()

	tokens := NewTokens("secret", time.Minute)

	raw, err := tokens.Issue("3f1c", "bob")
	require.NoError(t, err)

	id, user, err := tokens.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "3f1c", id)
	assert.Equal(t, "bob", user)
}

func TestTokens_Expired(t *testing.T) {
	t.Parallel()

	tokens := NewTokens("secret", time.Minute)
	tokens.now = func() time.Time { return time.Now().Add(-time.Hour) }

	raw, err := tokens.Issue("3f1c", "bob")
	require.NoError(t, err)

	_, _, err = tokens.Parse(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokens_WrongSecret(t *testing.T) {
	t.Parallel()

	raw, err := NewTokens("secret", time.Minute).Issue("3f1c", "bob")
	require.NoError(t, err)

	_, _, err = NewTokens("other", time.Minute).Parse(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}
