package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/aimoney/aimoney-api/models"
	"google.golang.org/genai"
)

// ErrChatNotConfigured is returned when no model API key is available
var ErrChatNotConfigured = errors.New("chat model API key is not configured")

// ChatModel produces the assistant's reply for one conversation turn
type ChatModel interface {
	Reply(ctx context.Context, history []models.ChatTurn, message string) (string, error)
}

// GeminiChatModel implements ChatModel on the Gemini API
type GeminiChatModel struct {
	client       *genai.Client
	model        string
	systemPrompt string
}

// NewGeminiChatModel creates a Gemini-backed chat model with a fixed system prompt.
// An empty baseURL uses the public Gemini endpoint.
func NewGeminiChatModel(ctx context.Context, apiKey, baseURL, model, systemPrompt string) (*GeminiChatModel, error) {
	if apiKey == "" {
		return nil, ErrChatNotConfigured
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiChatModel{
		client:       client,
		model:        model,
		systemPrompt: systemPrompt,
	}, nil
}

// Reply sends message with history as context and returns the generated text
func (m *GeminiChatModel) Reply(ctx context.Context, history []models.ChatTurn, message string) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(m.systemPrompt, genai.RoleUser),
	}

	chat, err := m.client.Chats.Create(ctx, m.model, config, toGenaiHistory(history))
	if err != nil {
		return "", fmt.Errorf("failed to start chat: %w", err)
	}

	resp, err := chat.SendMessage(ctx, genai.Part{Text: message})
	if err != nil {
		return "", fmt.Errorf("failed to send chat message: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", errors.New("model returned an empty response")
	}
	return text, nil
}

func toGenaiHistory(history []models.ChatTurn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, turn := range history {
		if turn.Text == "" {
			continue
		}
		role := genai.Role(genai.RoleUser)
		if turn.Role == models.ChatRoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Text, role))
	}
	return contents
}
