package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_CountsByRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Metrics())
	router.GET("/orders/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", PrometheusHandler())

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/orders/:id", "200"))

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/orders/a", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/orders/b", nil))

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/orders/:id", "200"))
	assert.Equal(t, before+2, after)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestRecordPaymentConfirmation(t *testing.T) {
	before := testutil.ToFloat64(paymentConfirmationsTotal.WithLabelValues("confirmed"))
	RecordPaymentConfirmation("confirmed")
	assert.Equal(t, before+1, testutil.ToFloat64(paymentConfirmationsTotal.WithLabelValues("confirmed")))
}
