// Package model defines the language-model abstraction the rest of the
// app programs against, plus a retrying client that turns raw prompt
// completions into parsed explanation/concept results.
package model

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/elieapp/elie/pkg/domain"
	"github.com/elieapp/elie/pkg/prompt"
)

// Completer is the transport-level contract a provider implements:
// send one prompt, get the full reply text back.
type Completer interface {
	// Name returns the provider's identifier (e.g. "gemini", "openai").
	Name() string

	// Complete sends a single-turn prompt and returns the reply text.
	Complete(ctx context.Context, promptText string) (string, error)
}

// GenerateRequest describes one explanation request.
type GenerateRequest struct {
	Topic   string
	Known   []string
	Unknown []string
	Mode    domain.ExplanationMode
	// NumConcepts is how many new related concepts to request alongside
	// the explanation. Zero requests none.
	NumConcepts int
}

// GenerateResult is a parsed model reply.
type GenerateResult struct {
	Explanation string
	Concepts    []domain.Concept
}

// Generator produces explanations and concept suggestions. The state
// manager depends on this interface so tests can substitute a
// deterministic implementation.
type Generator interface {
	// Generate returns an explanation of the topic tailored to the
	// known/unknown context, plus up to NumConcepts related concepts.
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error)

	// Suggest returns up to n follow-on topic names reachable from the
	// user's current knowledge.
	Suggest(ctx context.Context, known, unknown []string, n int) ([]string, error)
}

// Client implements Generator on top of a Completer. A model call and
// the parsing of its reply are retried as a unit: a reply that parses
// to nothing useful counts as a failed attempt.
type Client struct {
	completer   Completer
	maxAttempts int
	retryDelay  time.Duration
}

var _ Generator = (*Client)(nil)

// NewClient wraps a completer with retry and parsing behavior.
func NewClient(completer Completer, maxAttempts int, retryDelay time.Duration) *Client {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Client{
		completer:   completer,
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
	}
}

// Generate builds the explanation prompt, calls the provider, and
// parses the reply, retrying with a fixed delay until a usable result
// or the attempts are exhausted.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	promptText := prompt.Explain(prompt.ExplainParams{
		Topic:       req.Topic,
		Known:       req.Known,
		Unknown:     req.Unknown,
		Mode:        req.Mode,
		NumConcepts: req.NumConcepts,
	})

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleepCtx(ctx, c.retryDelay); err != nil {
				return nil, err
			}
		}

		raw, err := c.completer.Complete(ctx, promptText)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			lastErr = err
			slog.Warn("Model call failed", "provider", c.completer.Name(), "attempt", attempt, "error", err)
			continue
		}

		explanation, conceptsText := prompt.SplitResponse(raw)
		concepts := prompt.ParseConcepts(conceptsText, req.NumConcepts)
		if explanation == "" || (req.NumConcepts > 0 && len(concepts) == 0) {
			lastErr = fmt.Errorf("unusable reply: %d explanation chars, %d concepts", len(explanation), len(concepts))
			slog.Warn("Model reply unusable", "provider", c.completer.Name(), "attempt", attempt, "error", lastErr)
			continue
		}

		return &GenerateResult{Explanation: explanation, Concepts: concepts}, nil
	}

	return nil, fmt.Errorf("%w after %d attempts: %v", domain.ErrGenerationFailed, c.maxAttempts, lastErr)
}

// Suggest asks for follow-on topics. Unlike Generate it makes a single
// attempt; suggestions are decorative and callers degrade gracefully.
func (c *Client) Suggest(ctx context.Context, known, unknown []string, n int) ([]string, error) {
	raw, err := c.completer.Complete(ctx, prompt.Suggest(known, unknown, n))
	if err != nil {
		return nil, fmt.Errorf("suggesting concepts: %w", err)
	}
	return prompt.ParseNames(raw, n), nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
