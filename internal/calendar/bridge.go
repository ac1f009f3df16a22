package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// BridgeClient implements Client over the bridge's private HTTP API.
type BridgeClient struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func NewBridgeClient(baseURL, token string) *BridgeClient {
	return &BridgeClient{
		BaseURL: baseURL,
		Token:   token,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *BridgeClient) CheckAvailability(ctx context.Context, principalID string, start, end time.Time) (*Availability, error) {
	body := map[string]any{
		"principalId": principalID,
		"start":       start.Format(time.RFC3339),
		"end":         end.Format(time.RFC3339),
	}
	var out Availability
	if err := c.post(ctx, "/v1/availability/check", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *BridgeClient) CreateEvent(ctx context.Context, principalID string, input EventInput) (*CreatedEvent, error) {
	body := map[string]any{
		"principalId": principalID,
		"event":       input,
	}
	var out CreatedEvent
	if err := c.post(ctx, "/v1/events", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *BridgeClient) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.Token)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		// The bridge reports provider errors (including re-auth) as plain
		// text in the body; keep it intact for signature matching upstream.
		return fmt.Errorf("calendar bridge %s: status %d: %s", path, resp.StatusCode, bytes.TrimSpace(data))
	}
	return json.Unmarshal(data, out)
}
