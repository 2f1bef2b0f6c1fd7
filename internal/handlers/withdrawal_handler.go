package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/webtics/research-consent-api/internal/models"
	"github.com/webtics/research-consent-api/internal/service"
	"github.com/webtics/research-consent-api/internal/utils"
)

// WithdrawalHandler handles withdrawal and data export requests. Failure
// responses are deliberately uniform: the caller learns nothing about why an
// attempt failed.
type WithdrawalHandler struct {
	withdrawalService *service.WithdrawalService
	logger            *logrus.Logger
}

// NewWithdrawalHandler creates a new withdrawal handler instance
func NewWithdrawalHandler(withdrawalService *service.WithdrawalService, logger *logrus.Logger) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawalService: withdrawalService, logger: logger}
}

// Withdraw handles POST /research/withdraw
func (h *WithdrawalHandler) Withdraw(c *gin.Context) {
	var request models.WithdrawalRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}

	result, err := h.withdrawalService.Withdraw(c.Request.Context(), request.WithdrawalSecret, c.ClientIP())
	if err != nil {
		h.logger.WithError(err).Error("Failed to process withdrawal")
		utils.SendInternalServerError(c, "Failed to process withdrawal")
		return
	}

	if !result.Success {
		c.JSON(http.StatusNotFound, result)
		return
	}

	utils.SendOKResponse(c, result)
}

// ExportData handles GET /research/export. The withdrawal code arrives as a
// query parameter; a missing or unmatched code yields the same generic
// not-found response.
func (h *WithdrawalHandler) ExportData(c *gin.Context) {
	secret := c.Query("withdrawalCode")
	if secret == "" {
		utils.SendBadRequestError(c, "Missing withdrawal code", "query parameter withdrawalCode is required")
		return
	}

	export, err := h.withdrawalService.Export(c.Request.Context(), secret)
	if err != nil {
		h.logger.WithError(err).Error("Failed to export participant data")
		utils.SendInternalServerError(c, "Failed to export participant data")
		return
	}

	if export == nil {
		utils.SendNotFoundError(c, models.GenericInvalidCodeMessage)
		return
	}

	utils.SendOKResponse(c, export)
}
