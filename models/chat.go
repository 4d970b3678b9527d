package models

import "time"

const (
	ChatRoleUser  = "user"
	ChatRoleModel = "model"
)

// ChatTurn is one message of the client-held conversation history
type ChatTurn struct {
	Role string `json:"role" binding:"required,oneof=user model"`
	Text string `json:"text"`
}

// TranscriptEntry is one row appended to the external chat transcript log.
// The log is append-only; entries are never read back by this service.
type TranscriptEntry struct {
	Type      string    `json:"type"` // always "chat"; lets the shared sheet webhook route rows
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"sessionId"`
	Role      string    `json:"role"`
	Message   string    `json:"message"`
	IP        string    `json:"ip"`
}

// NewTranscriptEntry stamps a transcript row with the current time
func NewTranscriptEntry(sessionID, role, message, ip string) TranscriptEntry {
	return TranscriptEntry{
		Type:      "chat",
		Timestamp: time.Now().UTC(),
		SessionID: sessionID,
		Role:      role,
		Message:   message,
		IP:        ip,
	}
}
