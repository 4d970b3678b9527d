package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aimoney/aimoney-api/logger"
	"github.com/aimoney/aimoney-api/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const anonymousReviewer = "익명 사용자"

// ReviewController serves /api/v1/reviews
type ReviewController struct {
	db *gorm.DB
}

// NewReviewController creates a review controller over the given store
func NewReviewController(db *gorm.DB) *ReviewController {
	return &ReviewController{db: db}
}

// CreateReviewRequest represents the request body for creating a review
type CreateReviewRequest struct {
	ProductID   string   `json:"product_id" binding:"required"`
	ProductName string   `json:"product_name" binding:"required"`
	Rating      int      `json:"rating" binding:"required,min=1,max=5"`
	Content     string   `json:"content" binding:"required"`
	Images      []string `json:"images" binding:"omitempty,max=5,dive,url"`
}

// ListReviews handles GET /api/v1/reviews?product_id= - public, newest first
func (ctrl *ReviewController) ListReviews(c *gin.Context) {
	productID := c.Query("product_id")
	if productID == "" {
		productID = c.Query("productId")
	}
	if productID == "" {
		respondValidationError(c, "product_id is required", nil)
		return
	}

	var reviews []models.Review
	err := ctrl.db.WithContext(c.Request.Context()).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		logger.FromCtx(c.Request.Context()).Error("Failed to list reviews", zap.String("product_id", productID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to retrieve reviews")
		return
	}

	respondSuccess(c, http.StatusOK, reviews)
}

// CreateReview handles POST /api/v1/reviews. One review per product and author;
// the store's unique index decides races between concurrent submissions.
func (ctrl *ReviewController) CreateReview(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}

	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, "product_id, product_name, a rating between 1 and 5 and content are required", err)
		return
	}

	content := strings.TrimSpace(req.Content)
	if utf8.RuneCountInString(content) < models.MinReviewContentLength {
		respondValidationError(c, "Review content must be at least 10 characters", nil)
		return
	}

	userName := session.Name
	if userName == "" {
		userName = anonymousReviewer
	}
	userID := session.UserID
	if userID == "" {
		userID = session.Email
	}

	review := models.Review{
		ProductID:   req.ProductID,
		ProductName: req.ProductName,
		UserID:      userID,
		UserName:    userName,
		UserEmail:   session.Email,
		Rating:      req.Rating,
		Content:     content,
		Images:      req.Images,
		Helpful:     0,
	}
	if session.Picture != "" {
		picture := session.Picture
		review.UserImage = &picture
	}

	log := logger.FromCtx(c.Request.Context())
	if err := ctrl.db.WithContext(c.Request.Context()).Create(&review).Error; err != nil {
		if isDuplicateKeyError(err) {
			respondError(c, http.StatusConflict, "DUPLICATE_REVIEW", "You have already reviewed this product")
			return
		}
		log.Error("Failed to create review", zap.String("product_id", req.ProductID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create review")
		return
	}

	respondSuccess(c, http.StatusCreated, review)
}

// MarkHelpful handles POST /api/v1/reviews/:id/helpful
func (ctrl *ReviewController) MarkHelpful(c *gin.Context) {
	if _, ok := currentSession(c); !ok {
		return
	}

	id := c.Param("id")
	db := ctrl.db.WithContext(c.Request.Context())
	log := logger.FromCtx(c.Request.Context())

	// single UPDATE so concurrent votes are not lost
	result := db.Model(&models.Review{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"helpful":    gorm.Expr("helpful + ?", 1),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		log.Error("Failed to increment helpful", zap.String("review_id", id), zap.Error(result.Error))
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update review")
		return
	}
	if result.RowsAffected == 0 {
		respondError(c, http.StatusNotFound, "REVIEW_NOT_FOUND", "Review not found")
		return
	}

	var review models.Review
	if err := db.Where("id = ?", id).First(&review).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "REVIEW_NOT_FOUND", "Review not found")
			return
		}
		log.Error("Failed to reload review", zap.String("review_id", id), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to retrieve review")
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"id": review.ID, "helpful": review.Helpful})
}
