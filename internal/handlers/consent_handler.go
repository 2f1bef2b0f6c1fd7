package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/webtics/research-consent-api/internal/models"
	"github.com/webtics/research-consent-api/internal/service"
	"github.com/webtics/research-consent-api/internal/utils"
)

// ConsentHandler handles consent enrollment and study statistics requests
type ConsentHandler struct {
	consentService *service.ConsentService
	logger         *logrus.Logger
}

// NewConsentHandler creates a new consent handler instance
func NewConsentHandler(consentService *service.ConsentService, logger *logrus.Logger) *ConsentHandler {
	return &ConsentHandler{consentService: consentService, logger: logger}
}

// CreateConsent handles POST /research/consent
func (h *ConsentHandler) CreateConsent(c *gin.Context) {
	var request models.ConsentCreateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}

	response, err := h.consentService.CreateConsent(c.Request.Context(), &request)
	if err != nil {
		if isValidationError(err) {
			utils.SendValidationError(c, err.Error())
			return
		}
		h.logger.WithError(err).Error("Failed to create consent record")
		utils.SendInternalServerError(c, "Failed to create consent record")
		return
	}

	utils.SendCreatedResponse(c, response)
}

// GetStudyStats handles GET /research/study/:studyId/stats
func (h *ConsentHandler) GetStudyStats(c *gin.Context) {
	studyID := c.Param("studyId")

	stats, err := h.consentService.GetStudyStats(c.Request.Context(), studyID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			utils.SendNotFoundError(c, "Study not found")
			return
		}
		if isValidationError(err) {
			utils.SendValidationError(c, err.Error())
			return
		}
		h.logger.WithError(err).Error("Failed to retrieve study statistics")
		utils.SendInternalServerError(c, "Failed to retrieve study statistics")
		return
	}

	utils.SendOKResponse(c, stats)
}

// isValidationError classifies service errors produced by input validation
func isValidationError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "cannot be empty") ||
		strings.Contains(msg, "too long") ||
		strings.Contains(msg, "invalid") ||
		strings.Contains(msg, "must ") ||
		strings.Contains(msg, "contains") ||
		strings.Contains(msg, "outside valid range") ||
		strings.Contains(msg, "exceeds maximum") ||
		strings.Contains(msg, "is in the future") ||
		strings.Contains(msg, "is empty")
}
