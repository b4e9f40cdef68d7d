package model

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/elieapp/elie/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedCompleter replays a fixed sequence of replies and errors.
type scriptedCompleter struct {
	replies []string
	errs    []error
	calls   int
	prompts []string
}

func (s *scriptedCompleter) Name() string { return "scripted" }

func (s *scriptedCompleter) Complete(ctx context.Context, promptText string) (string, error) {
	i := s.calls
	s.calls++
	s.prompts = append(s.prompts, promptText)
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	var reply string
	if i < len(s.replies) {
		reply = s.replies[i]
	}
	return reply, err
}

const goodReply = "Quaternions extend complex numbers to four dimensions.\n" +
	"CONCEPTS: complex numbers,0.3,0.8,rotation,0.5,0.6,linear algebra,0.4,0.9"

func TestGenerateParsesReply(t *testing.T) {
	c := &scriptedCompleter{replies: []string{goodReply}}
	client := NewClient(c, 5, time.Millisecond)

	res, err := client.Generate(context.Background(), GenerateRequest{
		Topic:       "quaternions",
		Mode:        domain.ModeShort,
		NumConcepts: 3,
	})
	require.NoError(t, err)

	assert.Equal(t, "Quaternions extend complex numbers to four dimensions.", res.Explanation)
	require.Len(t, res.Concepts, 3)
	assert.Equal(t, "complex numbers", res.Concepts[0].Name)
	assert.Equal(t, 1, c.calls)
}

func TestGenerateRetriesOnTransportError(t *testing.T) {
	c := &scriptedCompleter{
		errs:    []error{errors.New("boom"), errors.New("boom")},
		replies: []string{"", "", goodReply},
	}
	client := NewClient(c, 5, time.Millisecond)

	res, err := client.Generate(context.Background(), GenerateRequest{Topic: "q", NumConcepts: 3})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Explanation)
	assert.Equal(t, 3, c.calls)
}

func TestGenerateRetriesOnUnusableReply(t *testing.T) {
	c := &scriptedCompleter{
		replies: []string{"an explanation with no concept line", goodReply},
	}
	client := NewClient(c, 5, time.Millisecond)

	res, err := client.Generate(context.Background(), GenerateRequest{Topic: "q", NumConcepts: 3})
	require.NoError(t, err)
	require.Len(t, res.Concepts, 3)
	assert.Equal(t, 2, c.calls)
}

func TestGenerateFailsAfterMaxAttempts(t *testing.T) {
	c := &scriptedCompleter{} // always returns empty replies
	client := NewClient(c, 3, time.Millisecond)

	_, err := client.Generate(context.Background(), GenerateRequest{Topic: "q", NumConcepts: 3})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrGenerationFailed))
	assert.Equal(t, 3, c.calls)
}

func TestGenerateWithoutConceptRequest(t *testing.T) {
	c := &scriptedCompleter{replies: []string{"Just the explanation text."}}
	client := NewClient(c, 5, time.Millisecond)

	res, err := client.Generate(context.Background(), GenerateRequest{Topic: "q", Mode: domain.ModeLong})
	require.NoError(t, err)
	assert.Equal(t, "Just the explanation text.", res.Explanation)
	assert.Empty(t, res.Concepts)
	assert.Equal(t, 1, c.calls)
}

func TestGenerateStopsOnCanceledContext(t *testing.T) {
	c := &scriptedCompleter{errs: []error{context.Canceled}}
	client := NewClient(c, 5, time.Millisecond)

	_, err := client.Generate(context.Background(), GenerateRequest{Topic: "q"})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, c.calls)
}

func TestSuggestSingleAttempt(t *testing.T) {
	c := &scriptedCompleter{errs: []error{errors.New("down")}}
	client := NewClient(c, 5, time.Millisecond)

	_, err := client.Suggest(context.Background(), nil, nil, 4)
	require.Error(t, err)
	assert.Equal(t, 1, c.calls, "suggestions are not retried")
}

func TestSuggestParsesNames(t *testing.T) {
	c := &scriptedCompleter{replies: []string{"Linear Algebra, Vectors, Tensors, Manifolds, Extra"}}
	client := NewClient(c, 5, time.Millisecond)

	names, err := client.Suggest(context.Background(), []string{"math"}, nil, 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"Linear Algebra", "Vectors", "Tensors", "Manifolds"}, names)
}
