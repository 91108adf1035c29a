package adminauth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyRoundTrip(t *testing.T) {
	hash, err := HashKey("super-secret-key")
	require.NoError(t, err)

	c := NewChecker(hash)
	assert.True(t, c.Enabled())
	assert.NoError(t, c.Verify("super-secret-key"))
	assert.ErrorIs(t, c.Verify("wrong-key"), ErrInvalidKey)
}

func TestDisabledCheckerRejectsEverything(t *testing.T) {
	c := NewChecker("")
	assert.False(t, c.Enabled())
	assert.ErrorIs(t, c.Verify("anything"), ErrInvalidKey)
}
