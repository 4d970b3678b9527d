package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aimoney/aimoney-api/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPaymentRouter(gateway services.PaymentGateway) *gin.Engine {
	router := setupTestRouter()
	ctrl := NewPaymentController(gateway)
	router.POST("/api/v1/payments/confirm", ctrl.ConfirmPayment)
	return router
}

func validConfirmBody() map[string]interface{} {
	return map[string]interface{}{
		"payment_key": "tgen_20240101abcd",
		"order_id":    "ORDER-1704067200000",
		"amount":      99000,
	}
}

func TestConfirmPayment_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "tgen_20240101abcd", body["paymentKey"])
		assert.Equal(t, "ORDER-1704067200000", body["orderId"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"paymentKey": "tgen_20240101abcd",
			"orderId": "ORDER-1704067200000",
			"orderName": "AI MONEY 정규 강의",
			"totalAmount": 99000,
			"status": "DONE",
			"method": "카드",
			"approvedAt": "2024-01-01T10:00:00+09:00"
		}`))
	}))
	defer server.Close()

	w := performJSON(setupPaymentRouter(services.NewTossGateway("test_sk", server.URL)),
		http.MethodPost, "/api/v1/payments/confirm", validConfirmBody())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	data := decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "tgen_20240101abcd", data["payment_key"])
	assert.Equal(t, "AI MONEY 정규 강의", data["order_name"])
	assert.Equal(t, float64(99000), data["amount"])
	assert.Equal(t, "DONE", data["status"])
	assert.Equal(t, "카드", data["method"])
}

func TestConfirmPayment_GatewayRejectionIsPassedThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":"ALREADY_PROCESSED_PAYMENT","message":"이미 처리된 결제 입니다."}`))
	}))
	defer server.Close()

	w := performJSON(setupPaymentRouter(services.NewTossGateway("test_sk", server.URL)),
		http.MethodPost, "/api/v1/payments/confirm", validConfirmBody())
	assert.Equal(t, http.StatusBadRequest, w.Code)

	errBody := decodeResponse(t, w)["error"].(map[string]interface{})
	assert.Equal(t, "ALREADY_PROCESSED_PAYMENT", errBody["code"])
	assert.Equal(t, "이미 처리된 결제 입니다.", errBody["message"])
}

func TestConfirmPayment_GatewayErrorWithoutBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	w := performJSON(setupPaymentRouter(services.NewTossGateway("test_sk", server.URL)),
		http.MethodPost, "/api/v1/payments/confirm", validConfirmBody())
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "PAYMENT_FAILED", errorCode(t, w))
}

func TestConfirmPayment_NotConfigured(t *testing.T) {
	w := performJSON(setupPaymentRouter(services.NewTossGateway("", "http://127.0.0.1:1")),
		http.MethodPost, "/api/v1/payments/confirm", validConfirmBody())
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "PAYMENT_NOT_CONFIGURED", errorCode(t, w))
}

func TestConfirmPayment_GatewayUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	w := performJSON(setupPaymentRouter(services.NewTossGateway("test_sk", url)),
		http.MethodPost, "/api/v1/payments/confirm", validConfirmBody())
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "PAYMENT_ERROR", errorCode(t, w))
}

func TestConfirmPayment_Validation(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()
	router := setupPaymentRouter(services.NewTossGateway("test_sk", server.URL))

	tests := []struct {
		name   string
		mutate func(body map[string]interface{})
	}{
		{"missing payment key", func(b map[string]interface{}) { delete(b, "payment_key") }},
		{"missing order id", func(b map[string]interface{}) { delete(b, "order_id") }},
		{"missing amount", func(b map[string]interface{}) { delete(b, "amount") }},
		{"negative amount", func(b map[string]interface{}) { b["amount"] = -100 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := validConfirmBody()
			tt.mutate(body)
			w := performJSON(router, http.MethodPost, "/api/v1/payments/confirm", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
		})
	}
	assert.False(t, called, "the gateway is not called for invalid requests")
}
