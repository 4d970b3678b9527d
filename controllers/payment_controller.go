package controllers

import (
	"errors"
	"net/http"

	"github.com/aimoney/aimoney-api/logger"
	"github.com/aimoney/aimoney-api/middleware"
	"github.com/aimoney/aimoney-api/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PaymentController serves /api/v1/payments
type PaymentController struct {
	gateway services.PaymentGateway
}

// NewPaymentController creates a payment controller over the given gateway
func NewPaymentController(gateway services.PaymentGateway) *PaymentController {
	return &PaymentController{gateway: gateway}
}

// ConfirmPaymentRequest represents the request body for confirming a payment
type ConfirmPaymentRequest struct {
	PaymentKey string `json:"payment_key" binding:"required"`
	OrderID    string `json:"order_id" binding:"required"`
	Amount     int64  `json:"amount" binding:"required,gt=0"`
}

// ConfirmPayment handles POST /api/v1/payments/confirm. Nothing is persisted here;
// the client records the order with a separate call.
func (ctrl *PaymentController) ConfirmPayment(c *gin.Context) {
	var req ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, "payment_key, order_id and a positive amount are required", err)
		return
	}

	ctx := c.Request.Context()
	payment, err := ctrl.gateway.Confirm(ctx, services.ConfirmRequest{
		PaymentKey: req.PaymentKey,
		OrderID:    req.OrderID,
		Amount:     req.Amount,
	})
	if err != nil {
		ctrl.respondGatewayError(c, err)
		return
	}

	middleware.RecordPaymentConfirmation("confirmed")
	respondSuccess(c, http.StatusOK, payment)
}

func (ctrl *PaymentController) respondGatewayError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrGatewayNotConfigured) {
		middleware.RecordPaymentConfirmation("error")
		logger.FromCtx(c.Request.Context()).Error("Payment gateway is not configured")
		respondError(c, http.StatusInternalServerError, "PAYMENT_NOT_CONFIGURED", "Payment service is not configured")
		return
	}

	var gwErr *services.GatewayError
	if errors.As(err, &gwErr) {
		middleware.RecordPaymentConfirmation("rejected")
		code := gwErr.Code
		if code == "" {
			code = "PAYMENT_FAILED"
		}
		message := gwErr.Message
		if message == "" {
			message = "Payment confirmation failed"
		}
		respondError(c, gwErr.StatusCode, code, message)
		return
	}

	middleware.RecordPaymentConfirmation("error")
	logger.FromCtx(c.Request.Context()).Error("Payment confirmation failed", zap.Error(err))
	respondError(c, http.StatusInternalServerError, "PAYMENT_ERROR", "An error occurred while confirming the payment")
}
