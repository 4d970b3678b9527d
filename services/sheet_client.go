package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SheetClient appends rows to the spreadsheet web app by POSTing JSON to its webhook.
// The sink is append-only; nothing is ever read back.
type SheetClient struct {
	url        string
	httpClient *http.Client
}

// NewSheetClient creates a webhook client for the given URL
func NewSheetClient(url string) *SheetClient {
	return &SheetClient{
		url: url,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Configured reports whether a webhook URL is set
func (s *SheetClient) Configured() bool {
	return s != nil && s.url != ""
}

// Append posts one row to the webhook
func (s *SheetClient) Append(ctx context.Context, row interface{}) error {
	body, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to marshal sheet row: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create sheet request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call sheet webhook: %w", err)
	}
	defer resp.Body.Close()

	// Apps Script answers through a redirect; any final 2xx/3xx counts as accepted
	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("sheet webhook returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
