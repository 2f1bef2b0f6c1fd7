package router

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/webtics/research-consent-api/internal/config"
	"github.com/webtics/research-consent-api/internal/database"
	"github.com/webtics/research-consent-api/internal/handlers"
	"github.com/webtics/research-consent-api/internal/middleware"
	"github.com/webtics/research-consent-api/internal/service"
)

// SetupRouter configures all API routes
func SetupRouter(
	consentService *service.ConsentService,
	withdrawalService *service.WithdrawalService,
	telemetryService *service.TelemetryService,
	studyService *service.StudyService,
	db *database.DB,
	logger *logrus.Logger,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	router.Use(middleware.CorrelationIDMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	cfg := config.Get()
	if cfg != nil && cfg.CORS.Enabled {
		router.Use(middleware.CORSMiddleware(&cfg.CORS))
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		db.LogStats()
		if err := db.HealthCheck(ctx); err != nil {
			c.JSON(503, gin.H{"status": "unhealthy", "database": "unreachable"})
			return
		}
		c.JSON(200, gin.H{"status": "healthy"})
	})

	// Create handlers
	consentHandler := handlers.NewConsentHandler(consentService, logger)
	withdrawalHandler := handlers.NewWithdrawalHandler(withdrawalService, logger)
	telemetryHandler := handlers.NewTelemetryHandler(telemetryService, logger)
	studyHandler := handlers.NewStudyHandler(studyService, logger)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Research consent routes
		research := v1.Group("/research")
		{
			research.POST("/consent", consentHandler.CreateConsent)
			research.POST("/withdraw", withdrawalHandler.Withdraw)
			research.GET("/export", withdrawalHandler.ExportData)
			research.GET("/studies", studyHandler.ListActiveStudies)
			research.PUT("/study/:studyId", studyHandler.UpsertStudy)
			research.GET("/study/:studyId", studyHandler.GetStudy)
			research.GET("/study/:studyId/stats", consentHandler.GetStudyStats)
		}

		// Telemetry ingestion routes
		v1.POST("/sessions", telemetryHandler.CreateSession)
		v1.POST("/sessions/:sessionId/close", telemetryHandler.CloseSession)
		v1.GET("/sessions/:sessionId/events", telemetryHandler.ListSessionEvents)
		v1.POST("/play-sessions", telemetryHandler.CreatePlaySession)
		v1.POST("/play-sessions/:playSessionId/close", telemetryHandler.ClosePlaySession)
		v1.POST("/play-sessions/:playSessionId/events", telemetryHandler.LogEvent)
		v1.POST("/play-sessions/:playSessionId/events/batch", telemetryHandler.LogEventBatch)
	}

	return router
}
