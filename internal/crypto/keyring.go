// Package crypto implements the withdrawal-secret scheme: secure identifier
// generation, keyed salted digests, constant-time verification, and the
// privacy-preserving network-address hash.
package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/webtics/research-consent-api/internal/config"
)

// DigestLength is the hex length of every digest produced by this package.
const DigestLength = sha256.Size * 2

// Keyring holds the process-wide secret key. It is constructed once at
// startup from configuration and shared read-only by all request handlers;
// tests construct their own with distinct keys.
type Keyring struct {
	key []byte
}

// NewKeyring validates the configured key and builds a Keyring. The
// placeholder key from the sample config is rejected so a deployment cannot
// silently hash with a public value.
func NewKeyring(secretKey string) (*Keyring, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("secret key must not be empty")
	}
	if secretKey == config.PlaceholderSecretKey {
		return nil, fmt.Errorf("secret key is set to the placeholder value; set RESEARCH_API_SECURITY_SECRET_KEY")
	}
	return &Keyring{key: []byte(secretKey)}, nil
}

// Digest computes the keyed, salted digest of a withdrawal secret. The key
// material is the process key joined with the per-record salt, so no two
// records share an HMAC key. Output is 64 lowercase hex characters.
func (k *Keyring) Digest(secret, salt string) string {
	mac := hmac.New(sha256.New, k.keyMaterial(salt))
	mac.Write([]byte(secret))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the digest for the presented secret and compares it to
// the stored digest in constant time. Malformed input yields false, never an
// error.
func (k *Keyring) Verify(secret, salt, expectedDigest string) bool {
	if secret == "" || salt == "" || len(expectedDigest) != DigestLength {
		return false
	}
	computed := k.Digest(secret, salt)
	return hmac.Equal([]byte(computed), []byte(expectedDigest))
}

// HashNetworkAddress computes a deterministic keyed hash of a caller network
// address for abuse-detection bucketing. Deliberately unsalted: equal
// addresses must hash equal. Never call this on secrets.
func (k *Keyring) HashNetworkAddress(addr string) string {
	mac := hmac.New(sha256.New, k.key)
	mac.Write([]byte(addr))
	return hex.EncodeToString(mac.Sum(nil))
}

func (k *Keyring) keyMaterial(salt string) []byte {
	material := make([]byte, 0, len(k.key)+1+len(salt))
	material = append(material, k.key...)
	material = append(material, ':')
	material = append(material, salt...)
	return material
}
