// Package slack pushes pipeline milestones to a Slack incoming webhook.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ReviewPipeline/internal/ports"
)

// Notifier posts formatted messages to a webhook URL. An empty URL turns
// the notifier into a no-op so deployments can run without Slack.
type Notifier struct {
	webhookURL string
	channel    string
	client     *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers the webhook endpoint.
func NewNotifier(webhookURL, channel string) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		channel:    channel,
		client:     &http.Client{Timeout: 5 * time.Second},
	}
}

var levelEmoji = map[string]string{
	"info":  ":white_check_mark:",
	"warn":  ":warning:",
	"error": ":rotating_light:",
}

// Notify posts one message; the level picks the emoji prefix.
func (n *Notifier) Notify(ctx context.Context, level, title, text string) error {
	if n.webhookURL == "" {
		return nil
	}

	emoji := levelEmoji[level]
	if emoji == "" {
		emoji = ":speech_balloon:"
	}

	payload := map[string]string{
		"text": fmt.Sprintf("%s *%s*\n%s", emoji, title, text),
	}
	if n.channel != "" {
		payload["channel"] = n.channel
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack error: %s", resp.Status)
	}
	return nil
}
