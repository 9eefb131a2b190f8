package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/parttimestudent/backend/internal/config"
	"github.com/parttimestudent/backend/internal/models"
)

// HealthHandler provides the health check endpoint.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// CheckHealth returns the health status of all subsystems.
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"

	// Database check
	dbStatus := "ok"
	sqlDB, err := models.GetDB().DB()
	if err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	} else if err := sqlDB.Ping(); err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	}

	provider := ""
	if config.GlobalConfig != nil {
		provider = config.GlobalConfig.Extraction.Provider
	}

	c.JSON(200, gin.H{
		"status":  overall,
		"service": "parttimestudent",
		"components": gin.H{
			"database":            dbStatus,
			"extraction_provider": provider,
		},
	})
}
