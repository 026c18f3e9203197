package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Keeps the tests fast, the format is the same
func testHasher() *ArgonHash {
	a := New()
	a.Memory = 8 * 1024
	a.Iterations = 1
	return a
}

func TestArgonHash_RoundTrip(t *testing.T) {
	a := testHasher()

	hash, err := a.GenerateFromPassword("Passw0rd!")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=2$"))

	ok, err := a.VerifyPasswd("Passw0rd!", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.VerifyPasswd("passw0rd!", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArgonHash_SaltsDiffer(t *testing.T) {
	a := testHasher()

	h1, err := a.GenerateFromPassword("same")
	require.NoError(t, err)
	h2, err := a.GenerateFromPassword("same")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
}

func TestArgonHash_VerifyUsesEncodedParams(t *testing.T) {
	hash, err := testHasher().GenerateFromPassword("Passw0rd!")
	require.NoError(t, err)

	// A hasher with different defaults must still verify older hashes
	ok, err := New().VerifyPasswd("Passw0rd!", hash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestArgonHash_InvalidHash(t *testing.T) {
	a := testHasher()

	for _, e := range []string{
		"",
		"plain",
		"$argon2i$v=19$m=8192,t=1,p=2$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=x,t=1,p=2$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1,p=2$!!$aGFzaA",
	} {
		_, err := a.VerifyPasswd("x", e)
		assert.Error(t, err, e)
	}
}
