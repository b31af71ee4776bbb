package n8n

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// The workflow occasionally takes most of a minute to answer, so the client
// timeout matches the 60s the dashboard always used.
const webhookTimeout = 60 * time.Second

type Client struct {
	campaignURL string
	httpClient  *http.Client
}

func NewClient(campaignURL string) *Client {
	return &Client{
		campaignURL: campaignURL,
		httpClient:  &http.Client{Timeout: webhookTimeout},
	}
}

// NotifyCampaignCreated fires the optional campaign webhook. Failures are
// reported to the caller; the campaign itself is never rolled back for them.
func (c *Client) NotifyCampaignCreated(ctx context.Context, payload CampaignPayload) (*CampaignResponse, error) {
	if c.campaignURL == "" {
		return nil, fmt.Errorf("campaign webhook not configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.campaignURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("❌ n8n: campaign webhook request failed: %v", err)
		return nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("❌ n8n: campaign webhook returned %d: %s", resp.StatusCode, string(respBody))
		return nil, fmt.Errorf("n8n webhook error: HTTP %d", resp.StatusCode)
	}

	// The workflow sometimes answers with an empty body. Treat it as success.
	result := &CampaignResponse{Success: true}
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			log.Printf("⚠️ n8n: response is not JSON, assuming success: %s", string(respBody))
			return &CampaignResponse{Success: true}, nil
		}
	}

	if !result.Success && result.Error != "" {
		return nil, fmt.Errorf("n8n webhook rejected campaign: %s", result.Error)
	}

	return result, nil
}
