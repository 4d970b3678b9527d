package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/aimoney/aimoney-api/logger"
	"github.com/aimoney/aimoney-api/models"
	"github.com/aimoney/aimoney-api/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// MinPasswordLength is the shortest password accepted at registration
const MinPasswordLength = 6

// AuthController serves credential registration and login
type AuthController struct {
	db         *gorm.DB
	tokens     *services.TokenService
	bcryptCost int
}

// NewAuthController creates an auth controller
func NewAuthController(db *gorm.DB, tokens *services.TokenService) *AuthController {
	return &AuthController{db: db, tokens: tokens, bcryptCost: bcrypt.DefaultCost}
}

// RegisterRequest represents the request body for credential registration
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name" binding:"required"`
}

// LoginRequest represents the request body for credential login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register handles POST /api/v1/auth/register
func (ctrl *AuthController) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, "email, password and name are required", err)
		return
	}
	if len(req.Password) < MinPasswordLength {
		respondValidationError(c, "Password must be at least 6 characters", nil)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		respondValidationError(c, "email, password and name are required", nil)
		return
	}

	log := logger.FromCtx(c.Request.Context())

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), ctrl.bcryptCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to register user")
		return
	}

	user := models.User{
		Email:        normalizeEmail(req.Email),
		Name:         name,
		PasswordHash: string(hash),
		Provider:     "credentials",
		Role:         models.RoleUser,
		Status:       models.UserStatusActive,
	}

	// the unique email index rejects a second registration
	if err := ctrl.db.WithContext(c.Request.Context()).Create(&user).Error; err != nil {
		if isDuplicateKeyError(err) {
			respondError(c, http.StatusConflict, "USER_EXISTS", "An account with this email already exists")
			return
		}
		log.Error("Failed to create user", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to register user")
		return
	}

	log.Info("User registered", zap.String("user_id", user.ID))
	respondSuccess(c, http.StatusCreated, gin.H{
		"id":    user.ID,
		"email": user.Email,
		"name":  user.Name,
	})
}

// Login handles POST /api/v1/auth/login and returns a session token
func (ctrl *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, "email and password are required", err)
		return
	}

	ctx := c.Request.Context()
	log := logger.FromCtx(ctx)
	db := ctrl.db.WithContext(ctx)

	var user models.User
	err := db.Where("email = ?", normalizeEmail(req.Email)).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Error("Failed to look up user", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to log in")
		return
	}
	if err != nil || user.PasswordHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		respondError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
		return
	}
	if user.Status != models.UserStatusActive {
		respondError(c, http.StatusForbidden, "ACCOUNT_DISABLED", "This account is not active")
		return
	}

	now := time.Now().UTC()
	if err := db.Model(&user).Update("last_login_at", now).Error; err != nil {
		log.Warn("Failed to refresh last login", zap.String("user_id", user.ID), zap.Error(err))
	}
	user.LastLoginAt = &now

	token, expiresAt, err := ctrl.tokens.Issue(&user)
	if err != nil {
		log.Error("Failed to issue session token", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to log in")
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"token":      token,
		"expires_at": expiresAt,
		"user":       user,
	})
}
