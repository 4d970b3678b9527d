package services

import (
	"context"
	"sync"

	"github.com/aimoney/aimoney-api/models"
)

// MockTranscriptSink records appended entries. FailTimes makes the first N
// Append calls fail with Err.
type MockTranscriptSink struct {
	Err       error
	FailTimes int

	mu       sync.Mutex
	attempts int
	entries  []models.TranscriptEntry
}

// NewMockTranscriptSink creates an always-succeeding mock sink
func NewMockTranscriptSink() *MockTranscriptSink {
	return &MockTranscriptSink{}
}

func (m *MockTranscriptSink) Append(ctx context.Context, entry models.TranscriptEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.attempts++
	if m.Err != nil && (m.FailTimes == 0 || m.attempts <= m.FailTimes) {
		return m.Err
	}
	m.entries = append(m.entries, entry)
	return nil
}

// Entries returns a copy of the delivered entries
func (m *MockTranscriptSink) Entries() []models.TranscriptEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.TranscriptEntry(nil), m.entries...)
}

// Attempts returns the number of Append calls, failed ones included
func (m *MockTranscriptSink) Attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}
