package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBcryptHasherRoundTrip(t *testing.T) {
	hasher := NewBcryptHasher(4)

	hash, err := hasher.Hash("hunter2hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2hunter2", hash)

	assert.NoError(t, hasher.Compare(hash, "hunter2hunter2"))
	assert.Error(t, hasher.Compare(hash, "wrong-password"))
}

func TestBcryptHasherRejectsShortPasswords(t *testing.T) {
	hasher := NewBcryptHasher(4)

	_, err := hasher.Hash("short")
	assert.Error(t, err)
}

func TestBcryptHasherHashesAreSalted(t *testing.T) {
	hasher := NewBcryptHasher(4)

	first, err := hasher.Hash("hunter2hunter2")
	require.NoError(t, err)
	second, err := hasher.Hash("hunter2hunter2")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}
