package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aimoney/aimoney-api/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	logger.Set(zap.New(core))
	t.Cleanup(func() { logger.Set(zap.NewNop()) })
	return logs
}

func TestRequestID_GeneratesAndPropagates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())

	var fromCtx string
	router.GET("/ping", func(c *gin.Context) {
		fromCtx = logger.RequestIDFrom(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	generated := w.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, fromCtx)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "client-supplied-id")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "client-supplied-id", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "client-supplied-id", fromCtx)
}

func TestLogger_WritesOneLinePerRequest(t *testing.T) {
	logs := observeLogs(t)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID(), Logger())
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	router.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	for _, path := range []string{"/ok?x=1", "/missing", "/boom"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set(RequestIDHeader, "req-1")
		router.ServeHTTP(httptest.NewRecorder(), req)
	}

	entries := logs.FilterMessage("HTTP Request").All()
	require.Len(t, entries, 3)

	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)

	fields := entries[0].ContextMap()
	assert.Equal(t, "/ok", fields["path"])
	assert.Equal(t, "x=1", fields["query"])
	assert.Equal(t, int64(200), fields["status"])
	assert.Equal(t, "req-1", fields["request_id"])
}
