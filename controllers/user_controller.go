package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/aimoney/aimoney-api/logger"
	"github.com/aimoney/aimoney-api/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultUserName = "사용자"

// UserController serves /api/v1/users
type UserController struct {
	db *gorm.DB
}

// NewUserController creates a user controller over the given store
func NewUserController(db *gorm.DB) *UserController {
	return &UserController{db: db}
}

// UpsertUserRequest is sent by the sign-in flow for every successful login
type UpsertUserRequest struct {
	Email    string  `json:"email" binding:"required,email"`
	Name     string  `json:"name"`
	Image    *string `json:"image"`
	Provider string  `json:"provider"`
}

// UpdateUserRequest represents the request body for an admin edit. Empty fields are ignored.
type UpdateUserRequest struct {
	Name   string `json:"name"`
	Role   string `json:"role" binding:"omitempty,oneof=user admin"`
	Status string `json:"status" binding:"omitempty,oneof=active inactive suspended"`
}

// ListUsers handles GET /api/v1/users - every account, newest first (admin only)
func (ctrl *UserController) ListUsers(c *gin.Context) {
	var users []models.User
	if err := ctrl.db.WithContext(c.Request.Context()).Order("created_at DESC").Find(&users).Error; err != nil {
		logger.FromCtx(c.Request.Context()).Error("Failed to list users", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to retrieve users")
		return
	}

	respondSuccess(c, http.StatusOK, users)
}

// UpsertUser handles POST /api/v1/users - creates the account on first login,
// otherwise only refreshes last_login_at.
func (ctrl *UserController) UpsertUser(c *gin.Context) {
	var req UpsertUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, "A valid email is required", err)
		return
	}

	email := normalizeEmail(req.Email)
	db := ctrl.db.WithContext(c.Request.Context())
	log := logger.FromCtx(c.Request.Context())
	now := time.Now().UTC()

	var user models.User
	err := db.Where("email = ?", email).First(&user).Error
	switch {
	case err == nil:
		if err := db.Model(&user).Update("last_login_at", now).Error; err != nil {
			log.Error("Failed to refresh last login", zap.String("user_id", user.ID), zap.Error(err))
			respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update user")
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": user, "is_new": false})
		return

	case !errors.Is(err, gorm.ErrRecordNotFound):
		log.Error("Failed to look up user", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to retrieve user")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = defaultUserName
	}
	provider := req.Provider
	if provider == "" {
		provider = "credentials"
	}

	user = models.User{
		Email:       email,
		Name:        name,
		Image:       req.Image,
		Provider:    provider,
		Role:        models.RoleUser,
		Status:      models.UserStatusActive,
		LastLoginAt: &now,
	}
	if err := db.Create(&user).Error; err != nil {
		// a concurrent first login created it
		if isDuplicateKeyError(err) {
			if err := db.Where("email = ?", email).First(&user).Error; err == nil {
				c.JSON(http.StatusOK, gin.H{"success": true, "data": user, "is_new": false})
				return
			}
		}
		log.Error("Failed to create user", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create user")
		return
	}

	log.Info("User created on first login", zap.String("user_id", user.ID), zap.String("provider", provider))
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": user, "is_new": true})
}

// GetMyProfile handles GET /api/v1/users/me
func (ctrl *UserController) GetMyProfile(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}

	var user models.User
	err := ctrl.db.WithContext(c.Request.Context()).Where("email = ?", session.Email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(c, http.StatusNotFound, "USER_NOT_FOUND", "User profile not found")
		return
	}
	if err != nil {
		logger.FromCtx(c.Request.Context()).Error("Failed to load profile", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to retrieve user")
		return
	}

	respondSuccess(c, http.StatusOK, user)
}

// GetUser handles GET /api/v1/users/:id - admins, or the account owner
func (ctrl *UserController) GetUser(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}

	user, ok := ctrl.loadUser(c)
	if !ok {
		return
	}

	if user.Email != session.Email && !session.IsAdmin() {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You do not have access to this user")
		return
	}

	respondSuccess(c, http.StatusOK, user)
}

// UpdateUser handles PATCH /api/v1/users/:id (admin only)
func (ctrl *UserController) UpdateUser(c *gin.Context) {
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, "Invalid request data", err)
		return
	}

	user, ok := ctrl.loadUser(c)
	if !ok {
		return
	}

	updates := map[string]interface{}{}
	if name := strings.TrimSpace(req.Name); name != "" {
		updates["name"] = name
	}
	if req.Role != "" {
		updates["role"] = req.Role
	}
	if req.Status != "" {
		updates["status"] = req.Status
	}

	if len(updates) > 0 {
		if err := ctrl.db.WithContext(c.Request.Context()).Model(user).Updates(updates).Error; err != nil {
			logger.FromCtx(c.Request.Context()).Error("Failed to update user", zap.String("user_id", user.ID), zap.Error(err))
			respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update user")
			return
		}
		if err := ctrl.db.WithContext(c.Request.Context()).Where("id = ?", user.ID).First(user).Error; err != nil {
			logger.FromCtx(c.Request.Context()).Error("Failed to reload user", zap.String("user_id", user.ID), zap.Error(err))
			respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to retrieve user")
			return
		}
	}

	respondSuccess(c, http.StatusOK, user)
}

// DeleteUser handles DELETE /api/v1/users/:id (admin only)
func (ctrl *UserController) DeleteUser(c *gin.Context) {
	user, ok := ctrl.loadUser(c)
	if !ok {
		return
	}

	if err := ctrl.db.WithContext(c.Request.Context()).Delete(user).Error; err != nil {
		logger.FromCtx(c.Request.Context()).Error("Failed to delete user", zap.String("user_id", user.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete user")
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"id": user.ID})
}

func (ctrl *UserController) loadUser(c *gin.Context) (*models.User, bool) {
	var user models.User
	err := ctrl.db.WithContext(c.Request.Context()).Where("id = ?", c.Param("id")).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(c, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
		return nil, false
	}
	if err != nil {
		logger.FromCtx(c.Request.Context()).Error("Failed to load user", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to retrieve user")
		return nil, false
	}
	return &user, true
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
