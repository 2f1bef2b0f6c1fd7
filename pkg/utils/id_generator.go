package utils

import (
	"github.com/google/uuid"
)

// GenerateID generates a new UUID
func GenerateID() string {
	return uuid.New().String()
}

// GenerateConsentID generates a unique consent record ID
func GenerateConsentID() string {
	return "CONSENT-" + uuid.New().String()
}

// GenerateAuditID generates a unique withdrawal audit entry ID
func GenerateAuditID() string {
	return "AUDIT-" + uuid.New().String()
}

// GenerateSessionID generates a unique metric session ID
func GenerateSessionID() string {
	return "SESSION-" + uuid.New().String()
}

// GeneratePlaySessionID generates a unique play session ID
func GeneratePlaySessionID() string {
	return "PLAY-" + uuid.New().String()
}

// IsValidUUID checks if a string is a valid UUID
func IsValidUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
