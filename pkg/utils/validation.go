package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// withdrawalSecretPattern matches the issued secret format: "WC-" plus
	// 128 bits of grouped hex. Anything else is rejected before any
	// cryptographic or database work happens.
	withdrawalSecretPattern = regexp.MustCompile(`^WC-[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

	// participantIDPattern matches issued participant ids: "P-" plus 64 bits of hex.
	participantIDPattern = regexp.MustCompile(`^P-[0-9a-f]{16}$`)

	// safeStringPattern restricts client-supplied identifiers to alphanumerics
	// plus underscore, hyphen, and dot.
	safeStringPattern = regexp.MustCompile(`^[a-zA-Z0-9_\-\.]+$`)

	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// IsWellFormedWithdrawalSecret reports whether the string has the shape of an
// issued withdrawal secret. It says nothing about whether the secret exists.
func IsWellFormedWithdrawalSecret(secret string) bool {
	return withdrawalSecretPattern.MatchString(secret)
}

// IsWellFormedParticipantID reports whether the string has the shape of an
// issued participant id.
func IsWellFormedParticipantID(id string) bool {
	return participantIDPattern.MatchString(id)
}

// ValidateStudyID validates a study identifier
func ValidateStudyID(studyID string) error {
	if studyID == "" {
		return fmt.Errorf("study ID cannot be empty")
	}
	if len(studyID) > 100 {
		return fmt.Errorf("study ID too long (max 100 characters)")
	}
	if !safeStringPattern.MatchString(studyID) {
		return fmt.Errorf("study ID contains invalid characters (alphanumeric, underscore, hyphen, dot only)")
	}
	return nil
}

// ValidateSafeString validates a client-supplied identifier field
func ValidateSafeString(fieldName, value string, maxLength int) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}
	if len(value) > maxLength {
		return fmt.Errorf("%s too long (max %d characters)", fieldName, maxLength)
	}
	if !safeStringPattern.MatchString(value) {
		return fmt.Errorf("%s contains invalid characters (alphanumeric, underscore, hyphen, dot only)", fieldName)
	}
	return nil
}

// ValidateFreeText validates a human-readable field: non-empty, bounded
// length, no control characters.
func ValidateFreeText(fieldName, value string, maxLength int) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}
	if len(value) > maxLength {
		return fmt.Errorf("%s too long (max %d characters)", fieldName, maxLength)
	}
	for _, r := range value {
		if r < 0x20 && r != '\n' && r != '\t' {
			return fmt.Errorf("%s contains control characters", fieldName)
		}
	}
	return nil
}

// ValidateEmail validates email format
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}
	if !emailPattern.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// SanitizeString removes dangerous characters from user input
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")
	input = strings.TrimSpace(input)
	return input
}

// ValidateMaxLength validates maximum string length
func ValidateMaxLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%s exceeds maximum length of %d characters", fieldName, maxLength)
	}
	return nil
}

// ValidateIntRange validates that a value lies within [min, max]
func ValidateIntRange(fieldName string, value, min, max int) error {
	if value < min || value > max {
		return fmt.Errorf("%s value %d outside valid range [%d, %d]", fieldName, value, min, max)
	}
	return nil
}
