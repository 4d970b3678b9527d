package services

import (
	"context"
	"sync"

	"github.com/aimoney/aimoney-api/models"
)

// MockChatModel is a ChatModel for tests. It records every call and answers
// with Response, or fails with Err when set.
type MockChatModel struct {
	Response string
	Err      error

	mu    sync.Mutex
	calls []MockChatCall
}

// MockChatCall captures the arguments of one Reply call
type MockChatCall struct {
	History []models.ChatTurn
	Message string
}

// NewMockChatModel creates a mock that always answers with response
func NewMockChatModel(response string) *MockChatModel {
	return &MockChatModel{Response: response}
}

// Reply records the call and returns the canned response
func (m *MockChatModel) Reply(ctx context.Context, history []models.ChatTurn, message string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockChatCall{History: history, Message: message})
	m.mu.Unlock()

	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

// Calls returns a copy of the recorded calls
func (m *MockChatModel) Calls() []MockChatCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockChatCall(nil), m.calls...)
}
