package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"barangayhealth/internal/models"
)

// PushClient delivers a single push message to one device.
type PushClient interface {
	Send(ctx context.Context, msg *models.PushMessage) error
}

type httpPushClient struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPPushClient posts messages to a push gateway that relays them to FCM/APNs.
func NewHTTPPushClient(endpoint, apiKey string, timeout time.Duration) PushClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &httpPushClient{
		endpoint:   strings.TrimRight(endpoint, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *httpPushClient) Send(ctx context.Context, msg *models.PushMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/send", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("push request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("push gateway returned non-success status: %d", resp.StatusCode)
	}
	return nil
}
