package crypto

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	secretPattern      = regexp.MustCompile(`^WC-[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	participantPattern = regexp.MustCompile(`^P-[0-9a-f]{16}$`)
	saltPattern        = regexp.MustCompile(`^[0-9a-f]{32}$`)
)

func TestNewWithdrawalSecret_Format(t *testing.T) {
	secret, err := NewWithdrawalSecret()
	require.NoError(t, err)
	assert.Regexp(t, secretPattern, secret)
}

func TestNewParticipantID_Format(t *testing.T) {
	id, err := NewParticipantID()
	require.NoError(t, err)
	assert.Regexp(t, participantPattern, id)
}

func TestNewSalt_Format(t *testing.T) {
	salt, err := NewSalt()
	require.NoError(t, err)
	assert.Regexp(t, saltPattern, salt)
}

func TestGenerators_NoCollisions(t *testing.T) {
	secrets := make(map[string]bool)
	ids := make(map[string]bool)
	salts := make(map[string]bool)

	for i := 0; i < 1000; i++ {
		secret, err := NewWithdrawalSecret()
		require.NoError(t, err)
		id, err := NewParticipantID()
		require.NoError(t, err)
		salt, err := NewSalt()
		require.NoError(t, err)

		assert.False(t, secrets[secret], "duplicate secret generated")
		assert.False(t, ids[id], "duplicate participant id generated")
		assert.False(t, salts[salt], "duplicate salt generated")

		secrets[secret] = true
		ids[id] = true
		salts[salt] = true
	}
}

// The secret and participant id prefixes must stay distinct so the two token
// kinds cannot be mistaken for each other by a caller.
func TestGenerators_DistinctPrefixes(t *testing.T) {
	secret, err := NewWithdrawalSecret()
	require.NoError(t, err)
	id, err := NewParticipantID()
	require.NoError(t, err)

	assert.NotRegexp(t, participantPattern, secret)
	assert.NotRegexp(t, secretPattern, id)
}
