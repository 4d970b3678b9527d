package controllers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aimoney/aimoney-api/middleware"
	"github.com/aimoney/aimoney-api/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var uploadPNG = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)

func setupUploadRouter(images services.ImageService, local *services.LocalImageService, session *middleware.Session) *gin.Engine {
	router := setupTestRouter()
	ctrl := NewUploadController(images, local)
	router.GET("/api/v1/uploads/:folder/:filename", ctrl.GetUploadedImage)
	router.POST("/api/v1/uploads", mockSessionMiddleware(session), ctrl.UploadImage)
	return router
}

// performUpload posts a multipart form. An empty filename sends no file part.
func performUpload(t *testing.T, router http.Handler, filename string, content []byte, folder string) *httptest.ResponseRecorder {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	if folder != "" {
		require.NoError(t, writer.WriteField("folder", folder))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestUploadImage_S3(t *testing.T) {
	s3Mock := services.NewMockS3Service()
	router := setupUploadRouter(services.NewS3ImageService(s3Mock), nil, customerSession())

	w := performUpload(t, router, "photo.png", uploadPNG, "Reviews")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	data := decodeResponse(t, w)["data"].(map[string]interface{})
	url := data["url"].(string)
	assert.True(t, strings.HasPrefix(url, "https://test-bucket.s3.ap-northeast-2.amazonaws.com/reviews/"), url)
	assert.True(t, strings.HasSuffix(url, ".png"), url)
	assert.True(t, strings.HasSuffix(url, data["file_name"].(string)))
	assert.NotContains(t, data, "key")

	uploaded := s3Mock.GetUploadedFiles()
	require.Len(t, uploaded, 1)
	for key := range uploaded {
		assert.Equal(t, "image/png", s3Mock.ContentType(key))
	}
}

func TestUploadImage_Errors(t *testing.T) {
	tests := []struct {
		name           string
		session        *middleware.Session
		filename       string
		content        []byte
		folder         string
		expectedStatus int
		expectedCode   string
	}{
		{"no session", nil, "photo.png", uploadPNG, "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"no file", customerSession(), "", nil, "", http.StatusBadRequest, "NO_FILE"},
		{"text disguised as image", customerSession(), "photo.png", []byte("just some plain text, not an image"), "", http.StatusBadRequest, "INVALID_FILE_FORMAT"},
		{"bad folder", customerSession(), "photo.png", uploadPNG, "../etc", http.StatusBadRequest, "INVALID_FOLDER"},
		{"too large", customerSession(), "photo.png", append(append([]byte{}, uploadPNG...), make([]byte, 5<<20)...), "", http.StatusBadRequest, "FILE_TOO_LARGE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s3Mock := services.NewMockS3Service()
			router := setupUploadRouter(services.NewS3ImageService(s3Mock), nil, tt.session)

			w := performUpload(t, router, tt.filename, tt.content, tt.folder)
			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.expectedCode, errorCode(t, w))
			assert.Empty(t, s3Mock.GetUploadedFiles())
		})
	}
}

func TestUploadImage_StorageFailure(t *testing.T) {
	s3Mock := services.NewMockS3Service()
	s3Mock.UploadErr = assert.AnError
	router := setupUploadRouter(services.NewS3ImageService(s3Mock), nil, customerSession())

	w := performUpload(t, router, "photo.png", uploadPNG, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "UPLOAD_ERROR", errorCode(t, w))
}

func TestUploadImage_LocalRoundTrip(t *testing.T) {
	local := services.NewLocalImageService(t.TempDir(), "http://localhost:8080/api/v1/uploads")
	router := setupUploadRouter(local, local, customerSession())

	w := performUpload(t, router, "photo.png", uploadPNG, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	url := decodeResponse(t, w)["data"].(map[string]interface{})["url"].(string)
	path := strings.TrimPrefix(url, "http://localhost:8080")
	require.True(t, strings.HasPrefix(path, "/api/v1/uploads/reviews/"), path)

	w = performJSON(router, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uploadPNG, w.Body.Bytes())
	assert.Equal(t, "public, max-age=86400", w.Header().Get("Cache-Control"))

	w = performJSON(router, http.MethodGet, "/api/v1/uploads/reviews/missing.png", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "FILE_NOT_FOUND", errorCode(t, w))
}

func TestGetUploadedImage_WithoutLocalStore(t *testing.T) {
	router := setupUploadRouter(services.NewS3ImageService(services.NewMockS3Service()), nil, nil)

	w := performJSON(router, http.MethodGet, "/api/v1/uploads/reviews/anything.png", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "FILE_NOT_FOUND", errorCode(t, w))
}
