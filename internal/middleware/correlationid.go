package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/webtics/research-consent-api/internal/utils"
	pkgutils "github.com/webtics/research-consent-api/pkg/utils"
)

// CorrelationIDMiddleware propagates or assigns a per-request correlation id.
// Inbound ids are only trusted when they are valid UUIDs; anything else is
// replaced so arbitrary client strings never reach the logs.
func CorrelationIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := extractCorrelationID(c)
		if correlationID == "" {
			correlationID = uuid.New().String()
		}
		utils.SetContextValue(c, "correlationID", correlationID)
		c.Header("X-Correlation-ID", correlationID)
		c.Next()
	}
}

func extractCorrelationID(c *gin.Context) string {
	headers := []string{"X-Correlation-ID", "X-Request-ID", "X-Trace-ID"}
	for _, header := range headers {
		if id := c.GetHeader(header); id != "" && pkgutils.IsValidUUID(id) {
			return id
		}
	}
	return ""
}
