package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"core/internal/model"
)

// WebhookNotifier delivers confirmed viewing requests to the agent channel
// over a plain HTTP webhook. With no URL configured it degrades to logging
// the booking, which still counts as delivered for local setups.
type WebhookNotifier struct {
	url        string
	httpClient *http.Client
}

func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url: url,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NotifyAgent sends the booking to the configured webhook
func (n *WebhookNotifier) NotifyAgent(ctx context.Context, vr *model.ViewingRequest) error {
	if n.url == "" {
		log.Printf("📅 New viewing request %s: %s for %s (%s) on %s at %s",
			vr.ID, vr.ClientName, vr.PropertyTitle, vr.ClientContact, vr.PreferredDate, vr.PreferredTime)
		return nil
	}

	body, err := json.Marshal(vr)
	if err != nil {
		return fmt.Errorf("failed to marshal viewing request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	log.Printf("✅ Viewing request %s delivered to agent webhook", vr.ID)
	return nil
}
