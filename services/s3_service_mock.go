package services

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// MockS3Service is a mock implementation of S3Service for testing
type MockS3Service struct {
	// UploadErr makes every upload fail
	UploadErr error

	uploadedFiles map[string][]byte // map of S3 key to file content
	contentTypes  map[string]string
	mu            sync.RWMutex
}

// NewMockS3Service creates a new mock S3 service
func NewMockS3Service() *MockS3Service {
	return &MockS3Service{
		uploadedFiles: make(map[string][]byte),
		contentTypes:  make(map[string]string),
	}
}

// UploadFile simulates uploading a file to S3
func (m *MockS3Service) UploadFile(ctx context.Context, key, contentType string, body io.Reader) error {
	if m.UploadErr != nil {
		return m.UploadErr
	}

	content, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	m.mu.Lock()
	m.uploadedFiles[key] = content
	m.contentTypes[key] = contentType
	m.mu.Unlock()

	return nil
}

// PublicURL returns a fake bucket URL
func (m *MockS3Service) PublicURL(key string) string {
	return "https://test-bucket.s3.ap-northeast-2.amazonaws.com/" + key
}

// GetUploadedFiles returns all uploaded files (for testing assertions)
func (m *MockS3Service) GetUploadedFiles() map[string][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	files := make(map[string][]byte, len(m.uploadedFiles))
	for k, v := range m.uploadedFiles {
		files[k] = v
	}
	return files
}

// ContentType returns the content type an object was stored with
func (m *MockS3Service) ContentType(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.contentTypes[key]
}
