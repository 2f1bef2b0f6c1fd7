package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/webtics/research-consent-api/internal/config"
	"github.com/webtics/research-consent-api/internal/crypto"
	"github.com/webtics/research-consent-api/internal/dao"
	"github.com/webtics/research-consent-api/internal/database"
	"github.com/webtics/research-consent-api/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testStack wires handlers onto sqlmock-backed services
type testStack struct {
	router *gin.Engine
	mock   sqlmock.Sqlmock
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()

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

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	db := database.NewFromSqlx(sqlx.NewDb(mockDB, "sqlmock"), logger)

	keyring, err := crypto.NewKeyring("handler-test-secret-key")
	require.NoError(t, err)

	consentDAO := dao.NewConsentDAO(db)
	auditDAO := dao.NewWithdrawalAuditDAO(db)
	telemetryDAO := dao.NewTelemetryDAO(db)
	studyDAO := dao.NewStudyDAO(db)

	consentService := service.NewConsentService(consentDAO, studyDAO, keyring, db, logger)
	withdrawalService := service.NewWithdrawalService(consentDAO, auditDAO, telemetryDAO, keyring, db, logger)
	telemetryService := service.NewTelemetryService(telemetryDAO, db, logger)
	studyService := service.NewStudyService(studyDAO, logger)

	router := gin.New()
	consentHandler := NewConsentHandler(consentService, logger)
	withdrawalHandler := NewWithdrawalHandler(withdrawalService, logger)
	telemetryHandler := NewTelemetryHandler(telemetryService, logger)
	studyHandler := NewStudyHandler(studyService, logger)

	v1 := router.Group("/api/v1")
	research := v1.Group("/research")
	research.POST("/consent", consentHandler.CreateConsent)
	research.POST("/withdraw", withdrawalHandler.Withdraw)
	research.GET("/export", withdrawalHandler.ExportData)
	research.PUT("/study/:studyId", studyHandler.UpsertStudy)
	research.GET("/study/:studyId", studyHandler.GetStudy)
	research.GET("/study/:studyId/stats", consentHandler.GetStudyStats)
	v1.POST("/sessions", telemetryHandler.CreateSession)
	v1.POST("/play-sessions", telemetryHandler.CreatePlaySession)
	v1.POST("/play-sessions/:playSessionId/events", telemetryHandler.LogEvent)

	return &testStack{router: router, mock: mock}
}

func (s *testStack) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	recorder := httptest.NewRecorder()
	s.router.ServeHTTP(recorder, req)
	return recorder
}

func decodeJSON(t *testing.T, recorder *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), target))
}
