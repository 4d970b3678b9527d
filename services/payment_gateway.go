package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aimoney/aimoney-api/logger"
	"go.uber.org/zap"
)

// ErrGatewayNotConfigured is returned when no gateway secret key is available
var ErrGatewayNotConfigured = errors.New("payment gateway secret key is not configured")

// ConfirmRequest is the client-reported result of the payment widget
type ConfirmRequest struct {
	PaymentKey string `json:"paymentKey"`
	OrderID    string `json:"orderId"`
	Amount     int64  `json:"amount"`
}

// ConfirmedPayment is the normalized gateway answer for an approved payment
type ConfirmedPayment struct {
	PaymentKey string `json:"payment_key"`
	OrderID    string `json:"order_id"`
	OrderName  string `json:"order_name"`
	Amount     int64  `json:"amount"`
	Status     string `json:"status"`
	Method     string `json:"method"`
	ApprovedAt string `json:"approved_at"`
}

// GatewayError carries a non-success answer from the gateway so the caller can
// pass its status and machine code through.
type GatewayError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway returned %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// PaymentGateway confirms payments with the external payment provider
type PaymentGateway interface {
	Confirm(ctx context.Context, req ConfirmRequest) (*ConfirmedPayment, error)
}

// TossGateway talks to the Toss Payments confirm API
type TossGateway struct {
	secretKey  string
	baseURL    string
	httpClient *http.Client
}

// NewTossGateway creates a gateway client. An empty secret is allowed so the
// server can boot; Confirm then fails with ErrGatewayNotConfigured.
func NewTossGateway(secretKey, baseURL string) *TossGateway {
	if secretKey == "" {
		logger.L().Warn("Toss secret key is empty, payment confirmation is disabled")
	}
	return &TossGateway{
		secretKey: secretKey,
		baseURL:   strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type tossPayment struct {
	PaymentKey  string `json:"paymentKey"`
	OrderID     string `json:"orderId"`
	OrderName   string `json:"orderName"`
	TotalAmount int64  `json:"totalAmount"`
	Status      string `json:"status"`
	Method      string `json:"method"`
	ApprovedAt  string `json:"approvedAt"`
}

type tossError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Confirm exchanges the client-obtained payment key for the final payment status
func (g *TossGateway) Confirm(ctx context.Context, req ConfirmRequest) (*ConfirmedPayment, error) {
	if g.secretKey == "" {
		return nil, ErrGatewayNotConfigured
	}

	log := logger.FromCtx(ctx).With(
		zap.String("order_id", req.OrderID),
		zap.Int64("amount", req.Amount),
	)

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal confirm request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/payments/confirm", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create confirm request: %w", err)
	}
	// Toss expects "<secret>:" with an empty password
	httpReq.SetBasicAuth(g.secretKey, "")
	httpReq.Header.Set("Content-Type", "application/json")

	log.Info("Sending payment confirmation to gateway")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		log.Error("Gateway request failed", zap.Error(err))
		return nil, fmt.Errorf("failed to call confirm endpoint: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var gwErr tossError
		_ = json.Unmarshal(respBody, &gwErr)
		log.Warn("Gateway rejected payment",
			zap.Int("status", resp.StatusCode),
			zap.String("code", gwErr.Code),
			zap.String("message", gwErr.Message),
		)
		return nil, &GatewayError{StatusCode: resp.StatusCode, Code: gwErr.Code, Message: gwErr.Message}
	}

	var payment tossPayment
	if err := json.Unmarshal(respBody, &payment); err != nil {
		log.Error("Failed decoding gateway response", zap.Error(err))
		return nil, fmt.Errorf("failed to decode gateway response: %w", err)
	}

	log.Info("Payment confirmed",
		zap.String("status", payment.Status),
		zap.String("method", payment.Method),
	)

	return &ConfirmedPayment{
		PaymentKey: payment.PaymentKey,
		OrderID:    payment.OrderID,
		OrderName:  payment.OrderName,
		Amount:     payment.TotalAmount,
		Status:     payment.Status,
		Method:     payment.Method,
		ApprovedAt: payment.ApprovedAt,
	}, nil
}
