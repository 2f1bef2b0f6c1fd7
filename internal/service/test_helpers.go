package service

import (
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/webtics/research-consent-api/internal/config"
	"github.com/webtics/research-consent-api/internal/crypto"
	"github.com/webtics/research-consent-api/internal/database"
)

const testSecretKey = "unit-test-secret-key"

// consentRowColumns mirrors the consent ledger column order used by the DAO
// select helpers.
var consentRowColumns = []string{
	"CONSENT_ID", "STUDY_ID", "PARTICIPANT_ID", "WITHDRAWAL_DIGEST", "SALT",
	"PRIVACY_LEVEL", "AGE_RANGE", "PARTICIPANT_CONDITION", "RECRUITMENT_SITE",
	"IRB_PROTOCOL", "CONSENT_VERSION", "CURRENT_STATUS", "CONSENTED_AT",
	"WITHDRAWN_AT", "DATA_DELETED_AT",
}

// newTestDB returns a database handle backed by sqlmock
func newTestDB(t *testing.T) (*database.DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return database.NewFromSqlx(sqlx.NewDb(mockDB, "sqlmock"), logger), mock
}

func newTestKeyring(t *testing.T) *crypto.Keyring {
	t.Helper()

	keyring, err := crypto.NewKeyring(testSecretKey)
	require.NoError(t, err)
	return keyring
}

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// setTestConfig installs a global config with the same caps the sample
// config ships with.
func setTestConfig() {
	config.SetGlobal(&config.Config{
		Research: config.ResearchConfig{
			DefaultRetentionDays: 365,
			ScanWarnThreshold:    10000,
			AbuseAlertThreshold:  5,
			AbuseWindow:          time.Hour,
		},
		Telemetry: config.TelemetryConfig{
			MaxEventType:    999,
			MaxEventSubtype: 999,
			MaxCoordinate:   10000,
			MaxMagnitude:    100000,
			MaxPayloadBytes: 10240,
			MaxBatchSize:    500,
			TimestampSkew:   5 * time.Minute,
		},
	})
}

func strPtr(s string) *string {
	return &s
}
