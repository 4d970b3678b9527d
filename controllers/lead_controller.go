package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/aimoney/aimoney-api/logger"
	"github.com/aimoney/aimoney-api/models"
	"github.com/aimoney/aimoney-api/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LeadController forwards lecture sign-ups to the spreadsheet webhook
type LeadController struct {
	sheet *services.SheetClient
}

// NewLeadController creates a lead controller. An unconfigured sheet client turns
// submissions into logged no-ops.
func NewLeadController(sheet *services.SheetClient) *LeadController {
	return &LeadController{sheet: sheet}
}

// CreateLeadRequest represents the landing page sign-up form
type CreateLeadRequest struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

// CreateLead handles POST /api/v1/leads
func (ctrl *LeadController) CreateLead(c *gin.Context) {
	var req CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, "name, phone and a valid email are required", err)
		return
	}

	lead := models.Lead{
		Name:      strings.TrimSpace(req.Name),
		Phone:     strings.TrimSpace(req.Phone),
		Email:     normalizeEmail(req.Email),
		Timestamp: time.Now().UTC(),
	}

	log := logger.FromCtx(c.Request.Context())

	if !ctrl.sheet.Configured() {
		log.Warn("Sheet webhook not configured, lead accepted without forwarding", zap.String("email", lead.Email))
		c.JSON(http.StatusOK, gin.H{"success": true, "data": lead, "mock": true})
		return
	}

	if err := ctrl.sheet.Append(c.Request.Context(), lead); err != nil {
		log.Error("Failed to forward lead", zap.Error(err))
		respondError(c, http.StatusBadGateway, "LEAD_SINK_ERROR", "Failed to submit the application, please try again")
		return
	}

	respondSuccess(c, http.StatusOK, lead)
}
