package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidPasscode(t *testing.T) {
	assert.True(t, ValidPasscode("1234"))
	assert.True(t, ValidPasscode(" 0000 "))
	assert.False(t, ValidPasscode("12a4"))
	assert.False(t, ValidPasscode("123"))
	assert.False(t, ValidPasscode("12345"))
	assert.False(t, ValidPasscode(""))
}

func TestHashAndVerifyPasscode(t *testing.T) {
	hash, err := HashPasscode("1234")
	require.NoError(t, err)
	assert.NotContains(t, hash, "1234")

	ok, err := VerifyPasscode("1234", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPasscode("4321", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = VerifyPasscode("1234", "not-a-hash")
	assert.Error(t, err)
}

func TestNewShortID(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id, err := NewShortID()
		require.NoError(t, err)
		assert.Len(t, id, ShortIDLength)
		for _, r := range id {
			assert.Contains(t, shortIDAlphabet, string(r))
		}
		seen[id] = true
	}
	assert.Greater(t, len(seen), 45)
}
