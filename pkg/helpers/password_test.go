package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPasswordWithSalt(t *testing.T) {
	salt, err := NewSalt()
	require.NoError(t, err)
	assert.Len(t, salt, 22)

	hash, err := HashPassword("password123", salt)
	require.NoError(t, err)

	assert.True(t, CompareHashAndPassword(hash, "password123", salt))
	assert.False(t, CompareHashAndPassword(hash, "password123", "other-salt"))
	assert.False(t, CompareHashAndPassword(hash, "wrong-password", salt))
}
