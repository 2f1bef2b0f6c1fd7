package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/webtics/research-consent-api/internal/models"
	pkgutils "github.com/webtics/research-consent-api/pkg/utils"
)

// SendSuccessResponse sends a successful JSON response
func SendSuccessResponse(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// SendErrorResponse sends an error JSON response with an explicit status code
func SendErrorResponse(c *gin.Context, statusCode int, errCode, message, details string) {
	c.JSON(statusCode, models.NewErrorResponse(errCode, message, details))
}

// SendErrorForCode sends an error response with the status derived from the
// error code.
func SendErrorForCode(c *gin.Context, errCode, message, details string) {
	SendErrorResponse(c, models.HTTPStatusForErrorCode(errCode), errCode, message, details)
}

// SendCreatedResponse sends a 201 Created response
func SendCreatedResponse(c *gin.Context, data interface{}) {
	SendSuccessResponse(c, http.StatusCreated, data)
}

// SendOKResponse sends a 200 OK response
func SendOKResponse(c *gin.Context, data interface{}) {
	SendSuccessResponse(c, http.StatusOK, data)
}

// SendNoContentResponse sends a 204 No Content response
func SendNoContentResponse(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// SendBadRequestError sends a 400 Bad Request error
func SendBadRequestError(c *gin.Context, message, details string) {
	SendErrorForCode(c, models.ErrCodeBadRequest, message, details)
}

// SendNotFoundError sends a 404 Not Found error
func SendNotFoundError(c *gin.Context, message string) {
	SendErrorForCode(c, models.ErrCodeNotFound, message, "")
}

// SendConflictError sends a 409 Conflict error
func SendConflictError(c *gin.Context, message string) {
	SendErrorForCode(c, models.ErrCodeConflict, message, "")
}

// SendInternalServerError sends a 500 Internal Server Error. The underlying
// error is never echoed to the caller; the correlation id in the details
// field points support at the server-side log entry.
func SendInternalServerError(c *gin.Context, message string) {
	SendErrorForCode(c, models.ErrCodeInternalError, message,
		"correlation id: "+GetCorrelationIDFromContext(c))
}

// SendValidationError sends a validation error response
func SendValidationError(c *gin.Context, details string) {
	SendErrorForCode(c, models.ErrCodeValidationError, "Validation failed", details)
}

// GetCorrelationIDFromContext extracts correlation ID from context
func GetCorrelationIDFromContext(c *gin.Context) string {
	correlationID, exists := c.Get("correlationID")
	if !exists {
		return pkgutils.GenerateID()
	}
	return correlationID.(string)
}

// SetContextValue sets a value in the Gin context
func SetContextValue(c *gin.Context, key string, value interface{}) {
	c.Set(key, value)
}
