package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aimoney/aimoney-api/middleware"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func respondSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func respondValidationError(c *gin.Context, message string, err error) {
	body := gin.H{
		"code":    "VALIDATION_ERROR",
		"message": message,
	}
	if err != nil {
		body["details"] = err.Error()
	}
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   body,
	})
}

// currentSession returns the caller's session or answers 401
func currentSession(c *gin.Context) (*middleware.Session, bool) {
	session, err := middleware.GetSession(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return nil, false
	}
	return session, true
}

// isDuplicateKeyError recognises unique index violations from any driver
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
