package controllers

import (
	"net/http"

	"github.com/aimoney/aimoney-api/logger"
	"github.com/aimoney/aimoney-api/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StatusController serves liveness and storage checks
type StatusController struct {
	db *gorm.DB
}

// NewStatusController creates a status controller
func NewStatusController(db *gorm.DB) *StatusController {
	return &StatusController{db: db}
}

// HealthCheck handles GET /api/v1/health
func (ctrl *StatusController) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"status":  "ok",
			"message": "AI MONEY API is running",
		},
	})
}

// DatabaseStatus handles GET /api/v1/database/status - pings the store and counts documents
func (ctrl *StatusController) DatabaseStatus(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.FromCtx(ctx)

	sqlDB, err := ctrl.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		log.Error("Database ping failed", zap.Error(err))
		respondError(c, http.StatusServiceUnavailable, "DATABASE_UNAVAILABLE", "Database is not reachable")
		return
	}

	counts := gin.H{}
	for name, model := range map[string]interface{}{
		"users":   &models.User{},
		"orders":  &models.Order{},
		"reviews": &models.Review{},
	} {
		var n int64
		if err := ctrl.db.WithContext(ctx).Model(model).Count(&n).Error; err != nil {
			log.Error("Failed to count documents", zap.String("collection", name), zap.Error(err))
			respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query the database")
			return
		}
		counts[name] = n
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"status":  "connected",
		"dialect": ctrl.db.Dialector.Name(),
		"counts":  counts,
	})
}
