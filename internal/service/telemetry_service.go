package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/webtics/research-consent-api/internal/config"
	"github.com/webtics/research-consent-api/internal/dao"
	"github.com/webtics/research-consent-api/internal/database"
	"github.com/webtics/research-consent-api/internal/models"
	"github.com/webtics/research-consent-api/pkg/utils"

	"github.com/sirupsen/logrus"
)

// TelemetryService handles business logic for session and event ingestion
type TelemetryService struct {
	telemetryDAO *dao.TelemetryDAO
	db           *database.DB
	logger       *logrus.Logger
}

// NewTelemetryService creates a new telemetry service instance
func NewTelemetryService(telemetryDAO *dao.TelemetryDAO, db *database.DB, logger *logrus.Logger) *TelemetryService {
	return &TelemetryService{
		telemetryDAO: telemetryDAO,
		db:           db,
		logger:       logger,
	}
}

// CreateSession opens a metric session. The participant reference is
// optional; when present it must be a well-formed participant id, which is
// the only link telemetry ever carries back to a consent record.
func (s *TelemetryService) CreateSession(ctx context.Context, request *models.SessionCreateRequest) (*models.MetricSession, error) {
	if err := utils.ValidateSafeString("uniqueId", request.ClientSessionID, 100); err != nil {
		return nil, err
	}

	if request.ParticipantRef != "" && !utils.IsWellFormedParticipantID(request.ParticipantRef) {
		return nil, fmt.Errorf("invalid participant reference format")
	}

	if request.BuildNumber != "" {
		if err := utils.ValidateSafeString("buildNumber", request.BuildNumber, 50); err != nil {
			return nil, err
		}
	}

	exists, err := s.telemetryDAO.SessionExistsByClientID(ctx, request.ClientSessionID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("session already exists: %s", request.ClientSessionID)
	}

	session := &models.MetricSession{
		SessionID:       utils.GenerateSessionID(),
		ClientSessionID: request.ClientSessionID,
		ParticipantRef:  optionalString(request.ParticipantRef),
		BuildNumber:     optionalString(request.BuildNumber),
		CreatedAt:       utils.GetCurrentTimeMillis(),
	}

	if err := s.telemetryDAO.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"session_id": session.SessionID,
		"linked":     session.ParticipantRef != nil,
	}).Info("Metric session created")

	return session, nil
}

// CloseSession stamps the closed time on a metric session
func (s *TelemetryService) CloseSession(ctx context.Context, sessionID string) error {
	return s.telemetryDAO.CloseSession(ctx, sessionID, utils.GetCurrentTimeMillis())
}

// CreatePlaySession opens a play session under an existing metric session
func (s *TelemetryService) CreatePlaySession(ctx context.Context, request *models.PlaySessionCreateRequest) (*models.PlaySession, error) {
	if _, err := s.telemetryDAO.GetSessionByID(ctx, request.SessionID); err != nil {
		return nil, err
	}

	playSession := &models.PlaySession{
		PlaySessionID: utils.GeneratePlaySessionID(),
		SessionID:     request.SessionID,
		StartedAt:     utils.GetCurrentTimeMillis(),
	}

	if err := s.telemetryDAO.CreatePlaySession(ctx, playSession); err != nil {
		return nil, err
	}

	return playSession, nil
}

// ClosePlaySession stamps the ended time on a play session
func (s *TelemetryService) ClosePlaySession(ctx context.Context, playSessionID string) error {
	return s.telemetryDAO.ClosePlaySession(ctx, playSessionID, utils.GetCurrentTimeMillis())
}

// LogEvent validates and persists a single telemetry event
func (s *TelemetryService) LogEvent(ctx context.Context, playSessionID string, request *models.EventCreateRequest) (*models.Event, error) {
	if _, err := s.telemetryDAO.GetPlaySessionByID(ctx, playSessionID); err != nil {
		return nil, err
	}

	event, err := s.buildEvent(playSessionID, request)
	if err != nil {
		return nil, err
	}

	if err := s.telemetryDAO.CreateEvent(ctx, event); err != nil {
		return nil, err
	}

	return event, nil
}

// LogEventBatch validates and persists a batch of events atomically. The
// whole batch is rejected when any single event fails validation.
func (s *TelemetryService) LogEventBatch(ctx context.Context, playSessionID string, request *models.EventBatchRequest) (int, error) {
	cfg := config.Get().Telemetry
	if len(request.Events) == 0 {
		return 0, fmt.Errorf("event batch is empty")
	}
	if cfg.MaxBatchSize > 0 && len(request.Events) > cfg.MaxBatchSize {
		return 0, fmt.Errorf("event batch exceeds maximum size of %d", cfg.MaxBatchSize)
	}

	if _, err := s.telemetryDAO.GetPlaySessionByID(ctx, playSessionID); err != nil {
		return 0, err
	}

	events := make([]*models.Event, 0, len(request.Events))
	for i := range request.Events {
		event, err := s.buildEvent(playSessionID, &request.Events[i])
		if err != nil {
			return 0, fmt.Errorf("event %d: %w", i, err)
		}
		events = append(events, event)
	}

	err := s.db.WithTransaction(ctx, func(tx *database.Transaction) error {
		query := `
			INSERT INTO EVENT (
				PLAY_SESSION_ID, EVENT_TYPE, EVENT_SUBTYPE, X, Y, Z, MAGNITUDE, DATA, EVENT_TIME
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		for _, event := range events {
			if _, err := tx.ExecContext(
				ctx, query,
				event.PlaySessionID, event.EventType, event.EventSubtype,
				event.X, event.Y, event.Z, event.Magnitude, event.Data, event.EventTime,
			); err != nil {
				return fmt.Errorf("failed to insert batched event: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return len(events), nil
}

// ListSessionEvents returns all events recorded under a metric session
func (s *TelemetryService) ListSessionEvents(ctx context.Context, sessionID string) ([]models.Event, error) {
	if _, err := s.telemetryDAO.GetSessionByID(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.telemetryDAO.ListEventsBySession(ctx, sessionID)
}

func (s *TelemetryService) buildEvent(playSessionID string, request *models.EventCreateRequest) (*models.Event, error) {
	cfg := config.Get().Telemetry

	if err := utils.ValidateIntRange("eventType", request.EventType, 0, cfg.MaxEventType); err != nil {
		return nil, err
	}
	if err := utils.ValidateIntRange("eventSubtype", request.EventSubtype, 0, cfg.MaxEventSubtype); err != nil {
		return nil, err
	}

	for name, coord := range map[string]*int{"x": request.X, "y": request.Y, "z": request.Z} {
		if coord == nil {
			continue
		}
		if err := utils.ValidateIntRange(name, *coord, -cfg.MaxCoordinate, cfg.MaxCoordinate); err != nil {
			return nil, err
		}
	}

	if request.Magnitude != nil {
		if *request.Magnitude < -cfg.MaxMagnitude || *request.Magnitude > cfg.MaxMagnitude {
			return nil, fmt.Errorf("magnitude must be between %v and %v", -cfg.MaxMagnitude, cfg.MaxMagnitude)
		}
	}

	var data models.JSON
	if len(request.Data) > 0 {
		if cfg.MaxPayloadBytes > 0 && len(request.Data) > cfg.MaxPayloadBytes {
			return nil, fmt.Errorf("event payload exceeds maximum size of %d bytes", cfg.MaxPayloadBytes)
		}
		if !json.Valid(request.Data) {
			return nil, fmt.Errorf("event payload is not valid JSON")
		}
		data = models.JSON(request.Data)
	}

	eventTime := utils.GetCurrentTimeMillis()
	if request.EventTime != nil {
		if utils.IsFutureTime(*request.EventTime, cfg.TimestampSkew) {
			return nil, fmt.Errorf("event timestamp is in the future")
		}
		eventTime = *request.EventTime
	}

	return &models.Event{
		PlaySessionID: playSessionID,
		EventType:     request.EventType,
		EventSubtype:  request.EventSubtype,
		X:             request.X,
		Y:             request.Y,
		Z:             request.Z,
		Magnitude:     request.Magnitude,
		Data:          data,
		EventTime:     eventTime,
	}, nil
}
