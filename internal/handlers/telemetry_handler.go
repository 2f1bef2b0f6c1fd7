package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/webtics/research-consent-api/internal/models"
	"github.com/webtics/research-consent-api/internal/service"
	"github.com/webtics/research-consent-api/internal/utils"
)

// TelemetryHandler handles session and event ingestion requests
type TelemetryHandler struct {
	telemetryService *service.TelemetryService
	logger           *logrus.Logger
}

// NewTelemetryHandler creates a new telemetry handler instance
func NewTelemetryHandler(telemetryService *service.TelemetryService, logger *logrus.Logger) *TelemetryHandler {
	return &TelemetryHandler{telemetryService: telemetryService, logger: logger}
}

// CreateSession handles POST /sessions
func (h *TelemetryHandler) CreateSession(c *gin.Context) {
	var request models.SessionCreateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}

	session, err := h.telemetryService.CreateSession(c.Request.Context(), &request)
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			utils.SendConflictError(c, "Session already exists")
			return
		}
		if isValidationError(err) {
			utils.SendValidationError(c, err.Error())
			return
		}
		h.logger.WithError(err).Error("Failed to create session")
		utils.SendInternalServerError(c, "Failed to create session")
		return
	}

	utils.SendCreatedResponse(c, session)
}

// CloseSession handles POST /sessions/:sessionId/close
func (h *TelemetryHandler) CloseSession(c *gin.Context) {
	sessionID := c.Param("sessionId")

	if err := h.telemetryService.CloseSession(c.Request.Context(), sessionID); err != nil {
		if strings.Contains(err.Error(), "not found") {
			utils.SendNotFoundError(c, "Session not found")
			return
		}
		h.logger.WithError(err).Error("Failed to close session")
		utils.SendInternalServerError(c, "Failed to close session")
		return
	}

	utils.SendNoContentResponse(c)
}

// CreatePlaySession handles POST /play-sessions
func (h *TelemetryHandler) CreatePlaySession(c *gin.Context) {
	var request models.PlaySessionCreateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}

	playSession, err := h.telemetryService.CreatePlaySession(c.Request.Context(), &request)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			utils.SendNotFoundError(c, "Session not found")
			return
		}
		h.logger.WithError(err).Error("Failed to create play session")
		utils.SendInternalServerError(c, "Failed to create play session")
		return
	}

	utils.SendCreatedResponse(c, playSession)
}

// ClosePlaySession handles POST /play-sessions/:playSessionId/close
func (h *TelemetryHandler) ClosePlaySession(c *gin.Context) {
	playSessionID := c.Param("playSessionId")

	if err := h.telemetryService.ClosePlaySession(c.Request.Context(), playSessionID); err != nil {
		if strings.Contains(err.Error(), "not found") {
			utils.SendNotFoundError(c, "Play session not found")
			return
		}
		h.logger.WithError(err).Error("Failed to close play session")
		utils.SendInternalServerError(c, "Failed to close play session")
		return
	}

	utils.SendNoContentResponse(c)
}

// LogEvent handles POST /play-sessions/:playSessionId/events
func (h *TelemetryHandler) LogEvent(c *gin.Context) {
	playSessionID := c.Param("playSessionId")

	var request models.EventCreateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}

	event, err := h.telemetryService.LogEvent(c.Request.Context(), playSessionID, &request)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			utils.SendNotFoundError(c, "Play session not found")
			return
		}
		if isValidationError(err) {
			utils.SendValidationError(c, err.Error())
			return
		}
		h.logger.WithError(err).Error("Failed to log event")
		utils.SendInternalServerError(c, "Failed to log event")
		return
	}

	utils.SendCreatedResponse(c, event)
}

// LogEventBatch handles POST /play-sessions/:playSessionId/events/batch
func (h *TelemetryHandler) LogEventBatch(c *gin.Context) {
	playSessionID := c.Param("playSessionId")

	var request models.EventBatchRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}

	accepted, err := h.telemetryService.LogEventBatch(c.Request.Context(), playSessionID, &request)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			utils.SendNotFoundError(c, "Play session not found")
			return
		}
		if isValidationError(err) {
			utils.SendValidationError(c, err.Error())
			return
		}
		h.logger.WithError(err).Error("Failed to log event batch")
		utils.SendInternalServerError(c, "Failed to log event batch")
		return
	}

	utils.SendCreatedResponse(c, gin.H{"accepted": accepted})
}

// ListSessionEvents handles GET /sessions/:sessionId/events
func (h *TelemetryHandler) ListSessionEvents(c *gin.Context) {
	sessionID := c.Param("sessionId")

	events, err := h.telemetryService.ListSessionEvents(c.Request.Context(), sessionID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			utils.SendNotFoundError(c, "Session not found")
			return
		}
		h.logger.WithError(err).Error("Failed to list session events")
		utils.SendInternalServerError(c, "Failed to list session events")
		return
	}

	utils.SendOKResponse(c, gin.H{"events": events, "count": len(events)})
}
