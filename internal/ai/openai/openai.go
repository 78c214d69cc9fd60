package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL points at Mistral, which speaks the OpenAI chat API.
const DefaultBaseURL = "https://api.mistral.ai"

type Client struct {
	APIKey      string
	BaseURL     string
	Temperature float64
	MaxTokens   int
	http        *http.Client
}

func New(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		APIKey:      apiKey,
		BaseURL:     strings.TrimRight(baseURL, "/"),
		Temperature: 1,
		MaxTokens:   100,
		http:        &http.Client{Timeout: 20 * time.Second},
	}
}

func (c *Client) Complete(ctx context.Context, model string, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, model, "", prompt)
}

// CompleteWithSystem uses the chat endpoint, except for the legacy
// "-instruct" models that only exist on the text completion endpoint.
func (c *Client) CompleteWithSystem(ctx context.Context, model string, systemPrompt string, prompt string) (string, error) {
	if c.APIKey == "" {
		return "", errors.New("missing AI_API_KEY")
	}
	if strings.HasSuffix(model, "-instruct") {
		return c.textComplete(ctx, model, prompt)
	}
	return c.chatComplete(ctx, model, systemPrompt, prompt)
}

func (c *Client) chatComplete(ctx context.Context, model string, systemPrompt string, prompt string) (string, error) {
	messages := make([]map[string]string, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, map[string]string{"role": "system", "content": systemPrompt})
	}
	messages = append(messages, map[string]string{"role": "user", "content": prompt})
	payload := map[string]any{
		"model":       model,
		"messages":    messages,
		"temperature": c.Temperature,
		"max_tokens":  c.MaxTokens,
	}
	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := c.post(ctx, "/v1/chat/completions", payload, &out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", errors.New("no choices")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

func (c *Client) textComplete(ctx context.Context, model string, prompt string) (string, error) {
	payload := map[string]any{
		"model":       model,
		"prompt":      prompt,
		"temperature": c.Temperature,
		"max_tokens":  c.MaxTokens,
	}
	var out struct {
		Choices []struct {
			Text string `json:"text"`
		} `json:"choices"`
	}
	if err := c.post(ctx, "/v1/completions", payload, &out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", errors.New("no choices")
	}
	return strings.TrimSpace(out.Choices[0].Text), nil
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("completion status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
