// Package llm implements the completion port on OpenAI-compatible APIs.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ReviewPipeline/internal/config"
	"ReviewPipeline/internal/ports"
)

// OpenAIClient calls a chat-completions endpoint and returns the first
// choice's content.
type OpenAIClient struct {
	endpoint     string
	model        string
	apiKey       string
	systemPrompt string
	temperature  float64
	httpClient   *http.Client
}

var _ ports.Completer = (*OpenAIClient)(nil)

// NewOpenAIClient builds a client from configuration.
func NewOpenAIClient(cfg config.OpenAIConfig) *OpenAIClient {
	return &OpenAIClient{
		endpoint:     cfg.Endpoint,
		model:        cfg.Model,
		apiKey:       cfg.APIKey,
		systemPrompt: cfg.SystemPrompt,
		temperature:  cfg.Temperature,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Complete posts the rendered prompt as a user message.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return "", fmt.Errorf("openai client misconfigured")
	}

	body, err := json.Marshal(map[string]any{
		"model":       c.model,
		"temperature": c.temperature,
		"messages": []map[string]string{
			{"role": "system", "content": safePrompt(c.systemPrompt)},
			{"role": "user", "content": prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal completion payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call completion api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("completion api error %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", fmt.Errorf("decode completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}

	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("completion returned empty content")
	}
	return content, nil
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "당신은 쇼핑몰 상품 후기를 작성하는 전문 리뷰어입니다."
	}
	return prompt
}
