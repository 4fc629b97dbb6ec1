package provider

import (
	"context"
	"strings"

	"github.com/lashdev/lash/pkg/types"
)

// MockResponse is one canned response a MockClient returns when a prompt
// matches (by substring of the last User message).
type MockResponse struct {
	Match   string
	Content string
}

// MockClient is a deterministic in-process Client for tests, standing in
// for the HTTP-level MockLLMServer the teacher uses in
// internal/provider/mock_provider_test.go — this repo's agent tests need
// only canned text, not full request/response fidelity.
type MockClient struct {
	Responses []MockResponse
	Fallback  string
	// Calls records every set of messages passed to Stream, for assertions.
	Calls [][]types.ChatMsg
}

// NewMockClient returns a MockClient that always answers with fallback
// unless overridden by responses registered via WithResponse.
func NewMockClient(fallback string) *MockClient {
	return &MockClient{Fallback: fallback}
}

// WithResponse registers a canned response keyed by a substring match
// against the last User message, and returns the receiver for chaining.
func (m *MockClient) WithResponse(match, content string) *MockClient {
	m.Responses = append(m.Responses, MockResponse{Match: match, Content: content})
	return m
}

func (m *MockClient) pick(messages []types.ChatMsg) string {
	last := ""
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == types.RoleUser {
			last = messages[i].Content
			break
		}
	}
	for _, r := range m.Responses {
		if strings.Contains(last, r.Match) {
			return r.Content
		}
	}
	return m.Fallback
}

// Stream implements Client by replaying the matched response as a single
// text chunk followed by Done.
func (m *MockClient) Stream(ctx context.Context, model string, messages []types.ChatMsg) (<-chan Chunk, error) {
	m.Calls = append(m.Calls, messages)
	content := m.pick(messages)

	out := make(chan Chunk, 2)
	go func() {
		defer close(out)
		select {
		case out <- Chunk{Kind: ChunkText, Text: content}:
		case <-ctx.Done():
			return
		}
		select {
		case out <- Chunk{Kind: ChunkDone}:
		case <-ctx.Done():
		}
	}()
	return out, nil
}

// ErrorClient always fails the stream with Err, for exercising the agent
// loop's retry/failure path.
type ErrorClient struct {
	Err error
}

func (e *ErrorClient) Stream(ctx context.Context, model string, messages []types.ChatMsg) (<-chan Chunk, error) {
	out := make(chan Chunk, 1)
	go func() {
		defer close(out)
		out <- Chunk{Kind: ChunkError, Err: e.Err}
	}()
	return out, nil
}
