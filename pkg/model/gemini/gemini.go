// Package gemini implements prompt completion using the Google Gen AI SDK.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/elieapp/elie/pkg/model"
	"google.golang.org/genai"
)

// Provider completes prompts against the Gemini API.
type Provider struct {
	client    *genai.Client
	modelName string
}

// Verify interface compliance.
var _ model.Completer = (*Provider)(nil)

// New creates a new Gemini provider.
func New(ctx context.Context, apiKey, modelName string) (*Provider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &Provider{client: client, modelName: modelName}, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string { return "gemini" }

// Complete sends a single-turn prompt and returns the full reply text.
func (p *Provider) Complete(ctx context.Context, promptText string) (string, error) {
	slog.Debug("Gemini.Complete", "model", p.modelName, "promptChars", len(promptText))

	resp, err := p.client.Models.GenerateContent(ctx, p.modelName, genai.Text(promptText), nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.Text != "" {
				text.WriteString(part.Text)
			}
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("gemini returned no text candidates")
	}
	return text.String(), nil
}
