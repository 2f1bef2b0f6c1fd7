package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// Identifier formats. The secret and participant id carry distinct prefixes
// so callers cannot confuse the two.
const (
	secretPrefix      = "WC-"
	participantPrefix = "P-"

	secretBytes      = 16 // 128 bits
	participantBytes = 8  // 64 bits
	saltBytes        = 16 // 128 bits
)

// NewWithdrawalSecret returns a fresh one-time withdrawal secret with 128
// bits of entropy, formatted as grouped hex for human transcription, e.g.
// "WC-7f3a9b2e-4d1c-8a5f-9e2b-3c7d1a8f4e6b". An error here means the secure
// random source failed; callers must treat that as fatal rather than fall
// back to a weaker source.
func NewWithdrawalSecret() (string, error) {
	buf, err := randomBytes(secretBytes)
	if err != nil {
		return "", err
	}
	h := hex.EncodeToString(buf)
	return fmt.Sprintf("%s%s-%s-%s-%s-%s",
		secretPrefix, h[0:8], h[8:12], h[12:16], h[16:20], h[20:32]), nil
}

// NewParticipantID returns a pseudonymous participant identifier with 64 bits
// of entropy, e.g. "P-a3f8b2c1e5d7f9b4". It is never derived from any
// personal identifier.
func NewParticipantID() (string, error) {
	buf, err := randomBytes(participantBytes)
	if err != nil {
		return "", err
	}
	return participantPrefix + hex.EncodeToString(buf), nil
}

// NewSalt returns a per-record random salt as 32 hex characters.
func NewSalt() (string, error) {
	buf, err := randomBytes(saltBytes)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func randomBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("secure random source failed: %w", err)
	}
	return buf, nil
}
