package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCredentialStoreHashAndVerify(t *testing.T) {
	store := NewCredentialStore()

	hash, err := store.Hash("pairing-secret")
	assert.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, "pairing-secret", hash)

	assert.True(t, store.Verify("pairing-secret", hash))
	assert.False(t, store.Verify("wrong-secret", hash))
}

func TestCredentialStoreSaltsPerCall(t *testing.T) {
	store := NewCredentialStore()

	first, err := store.Hash("same-secret")
	assert.NoError(t, err)
	second, err := store.Hash("same-secret")
	assert.NoError(t, err)

	// bcrypt salts per call, so identical inputs never collide.
	assert.NotEqual(t, first, second)
	assert.True(t, store.Verify("same-secret", first))
	assert.True(t, store.Verify("same-secret", second))
}
