package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webtics/research-consent-api/internal/dao"
	"github.com/webtics/research-consent-api/internal/models"
	"github.com/webtics/research-consent-api/pkg/utils"
)

func newTelemetryService(t *testing.T) (*TelemetryService, sqlmock.Sqlmock) {
	t.Helper()
	setTestConfig()

	db, mock := newTestDB(t)
	svc := NewTelemetryService(dao.NewTelemetryDAO(db), db, newTestLogger())
	return svc, mock
}

func expectPlaySessionLookup(mock sqlmock.Sqlmock, playSessionID string) {
	mock.ExpectQuery("SELECT (.+) FROM PLAY_SESSION").
		WithArgs(playSessionID).
		WillReturnRows(sqlmock.NewRows([]string{
			"PLAY_SESSION_ID", "SESSION_ID", "STARTED_AT", "ENDED_AT",
		}).AddRow(playSessionID, "SESSION-1", int64(1700000000000), nil))
}

func TestCreateSession_LinksParticipantRef(t *testing.T) {
	svc, mock := newTelemetryService(t)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("client-abc").
		WillReturnRows(sqlmock.NewRows([]string{"EXISTS"}).AddRow(false))
	mock.ExpectExec("INSERT INTO METRIC_SESSION").
		WillReturnResult(sqlmock.NewResult(1, 1))

	session, err := svc.CreateSession(context.Background(), &models.SessionCreateRequest{
		ClientSessionID: "client-abc",
		ParticipantRef:  "P-0011223344556677",
		BuildNumber:     "1.4.2",
	})
	require.NoError(t, err)

	require.NotNil(t, session.ParticipantRef)
	assert.Equal(t, "P-0011223344556677", *session.ParticipantRef)
	assert.Contains(t, session.SessionID, "SESSION-")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSession_RejectsMalformedParticipantRef(t *testing.T) {
	svc, _ := newTelemetryService(t)

	for _, ref := range []string{"P-xyz", "0011223344556677", "P-00112233445566778899"} {
		session, err := svc.CreateSession(context.Background(), &models.SessionCreateRequest{
			ClientSessionID: "client-abc",
			ParticipantRef:  ref,
		})
		assert.Error(t, err, "ref %q", ref)
		assert.Nil(t, session)
	}
}

func TestCreateSession_DuplicateClientID(t *testing.T) {
	svc, mock := newTelemetryService(t)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("client-abc").
		WillReturnRows(sqlmock.NewRows([]string{"EXISTS"}).AddRow(true))

	session, err := svc.CreateSession(context.Background(), &models.SessionCreateRequest{
		ClientSessionID: "client-abc",
	})
	assert.Error(t, err)
	assert.Nil(t, session)
	assert.Contains(t, err.Error(), "already exists")
}

func TestLogEvent_PersistsWithinCaps(t *testing.T) {
	svc, mock := newTelemetryService(t)

	expectPlaySessionLookup(mock, "PLAY-1")
	mock.ExpectExec("INSERT INTO EVENT").
		WillReturnResult(sqlmock.NewResult(1, 1))

	x, y := 100, -250
	event, err := svc.LogEvent(context.Background(), "PLAY-1", &models.EventCreateRequest{
		EventType:    7,
		EventSubtype: 2,
		X:            &x,
		Y:            &y,
		Data:         json.RawMessage(`{"target":"button-3"}`),
	})
	require.NoError(t, err)

	assert.Equal(t, "PLAY-1", event.PlaySessionID)
	assert.NotZero(t, event.EventTime)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogEvent_RejectsOutOfRangeValues(t *testing.T) {
	svc, mock := newTelemetryService(t)

	bigCoord := 999999
	bigMagnitude := 1e9
	cases := []struct {
		name    string
		request models.EventCreateRequest
	}{
		{"event type too large", models.EventCreateRequest{EventType: 5000}},
		{"negative event type", models.EventCreateRequest{EventType: -1}},
		{"coordinate out of range", models.EventCreateRequest{X: &bigCoord}},
		{"magnitude out of range", models.EventCreateRequest{Magnitude: &bigMagnitude}},
		{"payload not json", models.EventCreateRequest{Data: json.RawMessage(`{broken`)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			expectPlaySessionLookup(mock, "PLAY-1")

			event, err := svc.LogEvent(context.Background(), "PLAY-1", &tc.request)
			assert.Error(t, err)
			assert.Nil(t, event)
		})
	}
}

func TestLogEvent_RejectsFutureTimestamp(t *testing.T) {
	svc, mock := newTelemetryService(t)

	expectPlaySessionLookup(mock, "PLAY-1")

	future := utils.GetCurrentTimeMillis() + 3600_000
	event, err := svc.LogEvent(context.Background(), "PLAY-1", &models.EventCreateRequest{
		EventType: 1,
		EventTime: &future,
	})
	assert.Error(t, err)
	assert.Nil(t, event)
	assert.Contains(t, err.Error(), "future")
}

func TestLogEventBatch_AtomicInsert(t *testing.T) {
	svc, mock := newTelemetryService(t)

	expectPlaySessionLookup(mock, "PLAY-1")
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO EVENT").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO EVENT").WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	accepted, err := svc.LogEventBatch(context.Background(), "PLAY-1", &models.EventBatchRequest{
		Events: []models.EventCreateRequest{
			{EventType: 1},
			{EventType: 2},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, accepted)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogEventBatch_RejectsOversizedBatch(t *testing.T) {
	svc, _ := newTelemetryService(t)

	events := make([]models.EventCreateRequest, 501)
	for i := range events {
		events[i] = models.EventCreateRequest{EventType: 1}
	}

	accepted, err := svc.LogEventBatch(context.Background(), "PLAY-1", &models.EventBatchRequest{Events: events})
	assert.Error(t, err)
	assert.Zero(t, accepted)
	assert.Contains(t, err.Error(), "exceeds maximum size")
}

func TestLogEventBatch_OneBadEventRejectsWholeBatch(t *testing.T) {
	svc, mock := newTelemetryService(t)

	expectPlaySessionLookup(mock, "PLAY-1")

	accepted, err := svc.LogEventBatch(context.Background(), "PLAY-1", &models.EventBatchRequest{
		Events: []models.EventCreateRequest{
			{EventType: 1},
			{EventType: -5},
		},
	})
	assert.Error(t, err)
	assert.Zero(t, accepted)

	assert.NoError(t, mock.ExpectationsWereMet())
}
