package dao

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/webtics/research-consent-api/internal/database"
	"github.com/webtics/research-consent-api/internal/models"
)

// TelemetryDAO handles database operations for metric sessions, play
// sessions, and events
type TelemetryDAO struct {
	db *database.DB
}

// NewTelemetryDAO creates a new TelemetryDAO instance
func NewTelemetryDAO(db *database.DB) *TelemetryDAO {
	return &TelemetryDAO{db: db}
}

// CreateSession inserts a new metric session
func (dao *TelemetryDAO) CreateSession(ctx context.Context, session *models.MetricSession) error {
	query := `
		INSERT INTO METRIC_SESSION (
			SESSION_ID, CLIENT_SESSION_ID, PARTICIPANT_REF, BUILD_NUMBER, CREATED_AT
		) VALUES (?, ?, ?, ?, ?)
	`

	_, err := dao.db.ExecContext(
		ctx,
		query,
		session.SessionID,
		session.ClientSessionID,
		session.ParticipantRef,
		session.BuildNumber,
		session.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create metric session: %w", err)
	}

	return nil
}

// GetSessionByID retrieves a metric session by ID
func (dao *TelemetryDAO) GetSessionByID(ctx context.Context, sessionID string) (*models.MetricSession, error) {
	query := `
		SELECT SESSION_ID, CLIENT_SESSION_ID, PARTICIPANT_REF, BUILD_NUMBER, CREATED_AT, CLOSED_AT
		FROM METRIC_SESSION
		WHERE SESSION_ID = ?
	`

	var session models.MetricSession
	err := dao.db.GetContext(ctx, &session, query, sessionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("metric session not found: %s", sessionID)
		}
		return nil, fmt.Errorf("failed to get metric session: %w", err)
	}

	return &session, nil
}

// SessionExistsByClientID checks whether a client session id is already taken
func (dao *TelemetryDAO) SessionExistsByClientID(ctx context.Context, clientSessionID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM METRIC_SESSION WHERE CLIENT_SESSION_ID = ?)`

	var exists bool
	err := dao.db.GetContext(ctx, &exists, query, clientSessionID)
	if err != nil {
		return false, fmt.Errorf("failed to check session existence: %w", err)
	}

	return exists, nil
}

// CloseSession stamps the closed time on a metric session
func (dao *TelemetryDAO) CloseSession(ctx context.Context, sessionID string, closedAt int64) error {
	query := `UPDATE METRIC_SESSION SET CLOSED_AT = ? WHERE SESSION_ID = ?`

	result, err := dao.db.ExecContext(ctx, query, closedAt, sessionID)
	if err != nil {
		return fmt.Errorf("failed to close metric session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("metric session not found: %s", sessionID)
	}

	return nil
}

// CreatePlaySession inserts a new play session
func (dao *TelemetryDAO) CreatePlaySession(ctx context.Context, playSession *models.PlaySession) error {
	query := `
		INSERT INTO PLAY_SESSION (PLAY_SESSION_ID, SESSION_ID, STARTED_AT)
		VALUES (?, ?, ?)
	`

	_, err := dao.db.ExecContext(
		ctx,
		query,
		playSession.PlaySessionID,
		playSession.SessionID,
		playSession.StartedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create play session: %w", err)
	}

	return nil
}

// GetPlaySessionByID retrieves a play session by ID
func (dao *TelemetryDAO) GetPlaySessionByID(ctx context.Context, playSessionID string) (*models.PlaySession, error) {
	query := `
		SELECT PLAY_SESSION_ID, SESSION_ID, STARTED_AT, ENDED_AT
		FROM PLAY_SESSION
		WHERE PLAY_SESSION_ID = ?
	`

	var playSession models.PlaySession
	err := dao.db.GetContext(ctx, &playSession, query, playSessionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("play session not found: %s", playSessionID)
		}
		return nil, fmt.Errorf("failed to get play session: %w", err)
	}

	return &playSession, nil
}

// ClosePlaySession stamps the ended time on a play session
func (dao *TelemetryDAO) ClosePlaySession(ctx context.Context, playSessionID string, endedAt int64) error {
	query := `UPDATE PLAY_SESSION SET ENDED_AT = ? WHERE PLAY_SESSION_ID = ?`

	result, err := dao.db.ExecContext(ctx, query, endedAt, playSessionID)
	if err != nil {
		return fmt.Errorf("failed to close play session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("play session not found: %s", playSessionID)
	}

	return nil
}

// CreateEvent inserts a single telemetry event
func (dao *TelemetryDAO) CreateEvent(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO EVENT (
			PLAY_SESSION_ID, EVENT_TYPE, EVENT_SUBTYPE, X, Y, Z, MAGNITUDE, DATA, EVENT_TIME
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := dao.db.ExecContext(
		ctx,
		query,
		event.PlaySessionID,
		event.EventType,
		event.EventSubtype,
		event.X,
		event.Y,
		event.Z,
		event.Magnitude,
		event.Data,
		event.EventTime,
	)

	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	return nil
}

// ListEventsBySession retrieves all events belonging to a metric session
func (dao *TelemetryDAO) ListEventsBySession(ctx context.Context, sessionID string) ([]models.Event, error) {
	query := `
		SELECT e.EVENT_ID, e.PLAY_SESSION_ID, e.EVENT_TYPE, e.EVENT_SUBTYPE,
		       e.X, e.Y, e.Z, e.MAGNITUDE, e.DATA, e.EVENT_TIME
		FROM EVENT e
		INNER JOIN PLAY_SESSION p ON e.PLAY_SESSION_ID = p.PLAY_SESSION_ID
		WHERE p.SESSION_ID = ?
		ORDER BY e.EVENT_TIME ASC
	`

	var events []models.Event
	err := dao.db.SelectContext(ctx, &events, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events for session: %w", err)
	}

	return events, nil
}

// DeleteParticipantDataWithTx removes every event, play session, and metric
// session linked to a participant, in FK order, and returns the deleted
// session and event counts for the audit trail. Must run inside the
// withdrawal transaction so the cascade commits or rolls back as one unit.
func (dao *TelemetryDAO) DeleteParticipantDataWithTx(ctx context.Context, tx *database.Transaction, participantID string) (sessionsDeleted, eventsDeleted int, err error) {
	deleteEvents := `
		DELETE e FROM EVENT e
		INNER JOIN PLAY_SESSION p ON e.PLAY_SESSION_ID = p.PLAY_SESSION_ID
		INNER JOIN METRIC_SESSION m ON p.SESSION_ID = m.SESSION_ID
		WHERE m.PARTICIPANT_REF = ?
	`
	result, err := tx.ExecContext(ctx, deleteEvents, participantID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to delete participant events: %w", err)
	}
	eventRows, err := result.RowsAffected()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get deleted event count: %w", err)
	}

	deletePlaySessions := `
		DELETE p FROM PLAY_SESSION p
		INNER JOIN METRIC_SESSION m ON p.SESSION_ID = m.SESSION_ID
		WHERE m.PARTICIPANT_REF = ?
	`
	if _, err := tx.ExecContext(ctx, deletePlaySessions, participantID); err != nil {
		return 0, 0, fmt.Errorf("failed to delete participant play sessions: %w", err)
	}

	deleteSessions := `DELETE FROM METRIC_SESSION WHERE PARTICIPANT_REF = ?`
	result, err = tx.ExecContext(ctx, deleteSessions, participantID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to delete participant sessions: %w", err)
	}
	sessionRows, err := result.RowsAffected()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get deleted session count: %w", err)
	}

	return int(sessionRows), int(eventRows), nil
}

// ListSessionsByParticipant retrieves all metric sessions linked to a
// participant, for the data export path.
func (dao *TelemetryDAO) ListSessionsByParticipant(ctx context.Context, participantID string) ([]models.MetricSession, error) {
	query := `
		SELECT SESSION_ID, CLIENT_SESSION_ID, PARTICIPANT_REF, BUILD_NUMBER, CREATED_AT, CLOSED_AT
		FROM METRIC_SESSION
		WHERE PARTICIPANT_REF = ?
		ORDER BY CREATED_AT ASC
	`

	var sessions []models.MetricSession
	err := dao.db.SelectContext(ctx, &sessions, query, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions for participant: %w", err)
	}

	return sessions, nil
}

// ListPlaySessionsBySession retrieves all play sessions for a metric session
func (dao *TelemetryDAO) ListPlaySessionsBySession(ctx context.Context, sessionID string) ([]models.PlaySession, error) {
	query := `
		SELECT PLAY_SESSION_ID, SESSION_ID, STARTED_AT, ENDED_AT
		FROM PLAY_SESSION
		WHERE SESSION_ID = ?
		ORDER BY STARTED_AT ASC
	`

	var playSessions []models.PlaySession
	err := dao.db.SelectContext(ctx, &playSessions, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list play sessions for session: %w", err)
	}

	return playSessions, nil
}

// ListEventsByPlaySession retrieves all events for a play session
func (dao *TelemetryDAO) ListEventsByPlaySession(ctx context.Context, playSessionID string) ([]models.Event, error) {
	query := `
		SELECT EVENT_ID, PLAY_SESSION_ID, EVENT_TYPE, EVENT_SUBTYPE,
		       X, Y, Z, MAGNITUDE, DATA, EVENT_TIME
		FROM EVENT
		WHERE PLAY_SESSION_ID = ?
		ORDER BY EVENT_TIME ASC
	`

	var events []models.Event
	err := dao.db.SelectContext(ctx, &events, query, playSessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events for play session: %w", err)
	}

	return events, nil
}
