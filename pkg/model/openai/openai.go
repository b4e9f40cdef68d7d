// Package openai implements prompt completion against any
// OpenAI-compatible chat completions endpoint, such as a vLLM server.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/elieapp/elie/pkg/model"
)

// Provider completes prompts against a /v1/chat/completions endpoint.
type Provider struct {
	endpoint  string
	apiKey    string
	modelName string
	client    *http.Client
}

// Verify interface compliance.
var _ model.Completer = (*Provider)(nil)

// New creates a provider for the given base endpoint (without the
// /v1/chat/completions suffix). apiKey may be empty for unauthenticated
// local servers.
func New(endpoint, apiKey, modelName string) *Provider {
	return &Provider{
		endpoint:  strings.TrimRight(endpoint, "/"),
		apiKey:    apiKey,
		modelName: modelName,
		client:    &http.Client{Timeout: 2 * time.Minute},
	}
}

// Name returns the provider identifier.
func (p *Provider) Name() string { return "openai" }

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends a single-turn prompt and returns the reply text.
func (p *Provider) Complete(ctx context.Context, promptText string) (string, error) {
	slog.Debug("OpenAI.Complete", "endpoint", p.endpoint, "model", p.modelName, "promptChars", len(promptText))

	body, err := json.Marshal(chatRequest{
		Model:    p.modelName,
		Messages: []chatMessage{{Role: "user", Content: promptText}},
	})
	if err != nil {
		return "", fmt.Errorf("encoding chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling chat endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("chat endpoint returned %d: %s", resp.StatusCode, snippet)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat response has no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
