package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/webtics/research-consent-api/internal/models"
	"github.com/webtics/research-consent-api/internal/service"
	"github.com/webtics/research-consent-api/internal/utils"
)

// StudyHandler handles study metadata registry requests
type StudyHandler struct {
	studyService *service.StudyService
	logger       *logrus.Logger
}

// NewStudyHandler creates a new study handler instance
func NewStudyHandler(studyService *service.StudyService, logger *logrus.Logger) *StudyHandler {
	return &StudyHandler{studyService: studyService, logger: logger}
}

// UpsertStudy handles PUT /research/study/:studyId
func (h *StudyHandler) UpsertStudy(c *gin.Context) {
	studyID := c.Param("studyId")

	var request models.StudyUpsertRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}

	study, err := h.studyService.UpsertStudy(c.Request.Context(), studyID, &request)
	if err != nil {
		if isValidationError(err) {
			utils.SendValidationError(c, err.Error())
			return
		}
		h.logger.WithError(err).Error("Failed to save study metadata")
		utils.SendInternalServerError(c, "Failed to save study metadata")
		return
	}

	utils.SendOKResponse(c, study)
}

// GetStudy handles GET /research/study/:studyId
func (h *StudyHandler) GetStudy(c *gin.Context) {
	studyID := c.Param("studyId")

	study, err := h.studyService.GetStudy(c.Request.Context(), studyID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			utils.SendNotFoundError(c, "Study not found")
			return
		}
		if isValidationError(err) {
			utils.SendValidationError(c, err.Error())
			return
		}
		h.logger.WithError(err).Error("Failed to retrieve study metadata")
		utils.SendInternalServerError(c, "Failed to retrieve study metadata")
		return
	}

	utils.SendOKResponse(c, study)
}

// ListActiveStudies handles GET /research/studies
func (h *StudyHandler) ListActiveStudies(c *gin.Context) {
	studies, err := h.studyService.ListActiveStudies(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list studies")
		utils.SendInternalServerError(c, "Failed to list studies")
		return
	}

	utils.SendOKResponse(c, gin.H{"studies": studies, "count": len(studies)})
}
