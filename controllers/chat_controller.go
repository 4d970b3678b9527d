package controllers

import (
	"net/http"
	"strings"

	"github.com/aimoney/aimoney-api/logger"
	"github.com/aimoney/aimoney-api/models"
	"github.com/aimoney/aimoney-api/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TranscriptQueue accepts transcript entries for asynchronous delivery
type TranscriptQueue interface {
	Enqueue(entry models.TranscriptEntry) bool
}

// ChatController serves the lecture assistant at /api/v1/chat
type ChatController struct {
	model       services.ChatModel
	transcripts TranscriptQueue
}

// NewChatController creates a chat controller. A nil model means no API key was configured.
func NewChatController(model services.ChatModel, transcripts TranscriptQueue) *ChatController {
	return &ChatController{model: model, transcripts: transcripts}
}

// ChatRequest represents one conversation turn sent by the widget
type ChatRequest struct {
	Message   string            `json:"message" binding:"required"`
	History   []models.ChatTurn `json:"history" binding:"omitempty,dive"`
	SessionID string            `json:"session_id"`
}

// Chat handles POST /api/v1/chat
func (ctrl *ChatController) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, "message is required", err)
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		respondValidationError(c, "message is required", nil)
		return
	}

	ctx := c.Request.Context()
	log := logger.FromCtx(ctx)

	if ctrl.model == nil {
		log.Error("Chat model is not configured")
		respondError(c, http.StatusInternalServerError, "CHAT_NOT_CONFIGURED", "Chat service is not configured")
		return
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	ip := c.ClientIP()

	ctrl.record(models.NewTranscriptEntry(sessionID, models.ChatRoleUser, message, ip))

	reply, err := ctrl.model.Reply(ctx, req.History, message)
	if err != nil {
		log.Error("Chat model call failed", zap.String("session_id", sessionID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "CHAT_ERROR", "An error occurred while processing the message")
		return
	}

	ctrl.record(models.NewTranscriptEntry(sessionID, models.ChatRoleModel, reply, ip))

	respondSuccess(c, http.StatusOK, gin.H{
		"response":   reply,
		"session_id": sessionID,
	})
}

// record never blocks the request; a dropped entry is logged by the queue
func (ctrl *ChatController) record(entry models.TranscriptEntry) {
	if ctrl.transcripts == nil {
		return
	}
	ctrl.transcripts.Enqueue(entry)
}
