package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aimoney/aimoney-api/logger"
	"github.com/aimoney/aimoney-api/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LoadAccount resolves the session against the stored user so role and status
// changes take effect for tokens that were issued before them. It must run after
// EnsureValidSession.
func LoadAccount(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := GetSession(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "Authentication required",
				},
			})
			return
		}

		ctx := c.Request.Context()
		email := strings.ToLower(strings.TrimSpace(session.Email))

		var user models.User
		err = db.WithContext(ctx).Where("email = ?", email).First(&user).Error
		refreshed := *session
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			// external sign-ins that have not been upserted yet hold no privileges
			refreshed.Role = models.RoleUser
		case err != nil:
			logger.FromCtx(ctx).Error("Failed to load account", zap.String("email", email), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DATABASE_ERROR",
					"message": "Failed to load account",
				},
			})
			return
		default:
			if user.Status != models.UserStatusActive {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"success": false,
					"error": gin.H{
						"code":    "ACCOUNT_DISABLED",
						"message": "This account is not active",
					},
				})
				return
			}
			refreshed.Role = models.RoleUser
			if user.IsAdmin() {
				refreshed.Role = models.RoleAdmin
			}
		}

		SetSession(c, &refreshed)
		c.Next()
	}
}
