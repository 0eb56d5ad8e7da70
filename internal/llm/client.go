// Package llm is a minimal client for OpenAI-compatible chat-completion
// endpoints (OpenAI, Groq). It carries its own configuration and is
// constructed once per process; nothing in here mutates after New.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// ErrModelUnavailable marks the recoverable failure class: the requested
// model id is gone (decommissioned, not found). Callers advance a fallback
// list on this signal; every other error is fatal for the attempt.
var ErrModelUnavailable = errors.New("model unavailable")

type Config struct {
	APIKey  string
	BaseURL string // e.g. https://api.openai.com or https://api.groq.com/openai
	Timeout time.Duration
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext:         (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
	}
}

type Request struct {
	Model       string
	System      string
	User        string
	Temperature float64
	JSONOnly    bool // ask the endpoint for a JSON object response
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat map[string]any `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// Complete sends one chat completion and returns the assistant text.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	body := chatRequest{
		Model: req.Model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		Temperature: req.Temperature,
	}
	if req.JSONOnly {
		body.ResponseFormat = map[string]any{"type": "json_object"}
	}

	buf, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/chat/completions", bytes.NewReader(buf))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}
	if res.StatusCode/100 != 2 {
		return "", classifyAPIError(res.StatusCode, raw, req.Model)
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode completion: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("completion returned no choices")
	}
	return out.Choices[0].Message.Content, nil
}

func classifyAPIError(status int, raw []byte, model string) error {
	var ae apiError
	_ = json.Unmarshal(raw, &ae)
	msg := ae.Error.Message
	if msg == "" {
		msg = strings.TrimSpace(string(raw))
	}

	if modelGone(status, ae.Error.Code, msg) {
		return fmt.Errorf("%w: model %s: %s", ErrModelUnavailable, model, msg)
	}
	return fmt.Errorf("completion failed (http %d): %s", status, msg)
}

// modelGone recognizes the "this model id no longer exists" signal across
// OpenAI and Groq error shapes.
func modelGone(status int, code, msg string) bool {
	switch code {
	case "model_not_found", "model_decommissioned":
		return true
	}
	low := strings.ToLower(msg)
	if strings.Contains(low, "decommissioned") {
		return true
	}
	return status == http.StatusNotFound && strings.Contains(low, "model")
}
