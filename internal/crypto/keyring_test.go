package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webtics/research-consent-api/internal/config"
)

func testKeyring(t *testing.T) *Keyring {
	t.Helper()
	k, err := NewKeyring("unit-test-key-" + t.Name())
	require.NoError(t, err)
	return k
}

func TestNewKeyring_RejectsEmptyKey(t *testing.T) {
	k, err := NewKeyring("")
	assert.Error(t, err)
	assert.Nil(t, k)
}

func TestNewKeyring_RejectsPlaceholderKey(t *testing.T) {
	k, err := NewKeyring(config.PlaceholderSecretKey)
	assert.Error(t, err)
	assert.Nil(t, k)
	assert.Contains(t, err.Error(), "placeholder")
}

func TestDigest_Deterministic(t *testing.T) {
	k := testKeyring(t)

	d1 := k.Digest("WC-00000000-0000-0000-0000-000000000000", "aabbccdd")
	d2 := k.Digest("WC-00000000-0000-0000-0000-000000000000", "aabbccdd")

	assert.Equal(t, d1, d2)
	assert.Len(t, d1, DigestLength)
	assert.Equal(t, strings.ToLower(d1), d1)
}

func TestDigest_SaltChangesDigest(t *testing.T) {
	k := testKeyring(t)
	secret, err := NewWithdrawalSecret()
	require.NoError(t, err)

	saltA, err := NewSalt()
	require.NoError(t, err)
	saltB, err := NewSalt()
	require.NoError(t, err)
	require.NotEqual(t, saltA, saltB)

	assert.NotEqual(t, k.Digest(secret, saltA), k.Digest(secret, saltB))
}

func TestDigest_KeyChangesDigest(t *testing.T) {
	kA, err := NewKeyring("key-a")
	require.NoError(t, err)
	kB, err := NewKeyring("key-b")
	require.NoError(t, err)

	assert.NotEqual(t,
		kA.Digest("WC-secret", "salt"),
		kB.Digest("WC-secret", "salt"))
}

func TestVerify_RoundTrip(t *testing.T) {
	k := testKeyring(t)

	for i := 0; i < 20; i++ {
		secret, err := NewWithdrawalSecret()
		require.NoError(t, err)
		salt, err := NewSalt()
		require.NoError(t, err)

		digest := k.Digest(secret, salt)
		assert.True(t, k.Verify(secret, salt, digest))

		other, err := NewWithdrawalSecret()
		require.NoError(t, err)
		assert.False(t, k.Verify(other, salt, digest))
	}
}

func TestVerify_MalformedInputIsFalse(t *testing.T) {
	k := testKeyring(t)
	salt, err := NewSalt()
	require.NoError(t, err)
	secret, err := NewWithdrawalSecret()
	require.NoError(t, err)
	digest := k.Digest(secret, salt)

	cases := []struct {
		name           string
		secret         string
		salt           string
		expectedDigest string
	}{
		{"empty secret", "", salt, digest},
		{"empty salt", secret, "", digest},
		{"empty digest", secret, salt, ""},
		{"truncated digest", secret, salt, digest[:DigestLength-2]},
		{"oversized digest", secret, salt, digest + "00"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.False(t, k.Verify(tc.secret, tc.salt, tc.expectedDigest))
		})
	}
}

func TestVerify_WrongKeyNeverMatches(t *testing.T) {
	kA, err := NewKeyring("key-a")
	require.NoError(t, err)
	kB, err := NewKeyring("key-b")
	require.NoError(t, err)

	secret, err := NewWithdrawalSecret()
	require.NoError(t, err)
	salt, err := NewSalt()
	require.NoError(t, err)

	digest := kA.Digest(secret, salt)
	assert.False(t, kB.Verify(secret, salt, digest))
}

func TestHashNetworkAddress_Deterministic(t *testing.T) {
	k := testKeyring(t)

	h1 := k.HashNetworkAddress("203.0.113.7")
	h2 := k.HashNetworkAddress("203.0.113.7")
	h3 := k.HashNetworkAddress("203.0.113.8")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, DigestLength)
}

func TestHashNetworkAddress_KeyDependent(t *testing.T) {
	kA, err := NewKeyring("key-a")
	require.NoError(t, err)
	kB, err := NewKeyring("key-b")
	require.NoError(t, err)

	assert.NotEqual(t,
		kA.HashNetworkAddress("203.0.113.7"),
		kB.HashNetworkAddress("203.0.113.7"))
}
